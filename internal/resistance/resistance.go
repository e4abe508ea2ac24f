// Package resistance implements the hydraulic resistance models:
// Poiseuille and the Bahrami-corrected rectangular-1D model, plus the
// droplet slip correction shared by both.
package resistance

import (
	"math"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// Model computes the hydraulic resistance of a channel given the
// continuous-phase viscosity.
type Model interface {
	Resistance(ch *network.Edge, net *network.Network, viscosity float64) (float64, error)
}

// Poiseuille is the exact solution for a circular channel and the
// classical (uncorrected) approximation for a rectangular one.
type Poiseuille struct{}

func (Poiseuille) Resistance(ch *network.Edge, net *network.Network, viscosity float64) (float64, error) {
	length := ch.Length(net)
	if err := checkGeometry(ch, length); err != nil {
		return 0, err
	}
	switch ch.Shape {
	case network.Circular:
		r := ch.Radius
		return 8 * viscosity * length / (math.Pi * r * r * r * r), nil
	default:
		a := ch.Area()
		return viscosity * length / (a * a), nil
	}
}

// Rectangular1D applies the Bahrami correction for rectangular ducts:
// R = a*mu*L / (w*h^3), a = 12/(1 - 0.630*(h/w)), with w,h swapped so
// that w is always the larger dimension.
type Rectangular1D struct{}

func (Rectangular1D) Resistance(ch *network.Edge, net *network.Network, viscosity float64) (float64, error) {
	length := ch.Length(net)
	if err := checkGeometry(ch, length); err != nil {
		return 0, err
	}
	if ch.Shape == network.Circular {
		return Poiseuille{}.Resistance(ch, net, viscosity)
	}
	w, h := ch.Width, ch.Height
	if h > w {
		w, h = h, w
	}
	a := 12.0 / (1.0 - 0.630*(h/w))
	return a * viscosity * length / (w * h * h * h), nil
}

func checkGeometry(ch *network.Edge, length float64) error {
	if length <= 0 {
		return fluiderr.New(fluiderr.InvalidGeometry, "channel %d has non-positive length %g", ch.ID, length)
	}
	switch ch.Shape {
	case network.Circular:
		if ch.Radius <= 0 {
			return fluiderr.New(fluiderr.InvalidGeometry, "channel %d has non-positive radius %g", ch.ID, ch.Radius)
		}
	default:
		if ch.Width <= 0 || ch.Height <= 0 {
			return fluiderr.New(fluiderr.InvalidGeometry,
				"channel %d has non-positive width/height (%g, %g)", ch.ID, ch.Width, ch.Height)
		}
	}
	return nil
}

// dropletSlip is the empirical slip-correction factor applied per unit
// occupied channel fraction in WithDroplet.
const dropletSlip = 1.28

// WithDroplet applies the slip-corrected droplet resistance factor to a
// base (single-phase) resistance: the effective resistance of a
// channel fraction f in (0,1] occupied by a droplet of viscosity muD in
// a continuous phase of viscosity muC.
func WithDroplet(base, muD, muC, f float64) float64 {
	if f <= 0 {
		return base
	}
	if f > 1 {
		f = 1
	}
	factor := 1 + (muD/muC-1)*f*dropletSlip
	return base * factor
}
