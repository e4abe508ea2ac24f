// Package membrane implements membrane/tank mass transfer: per
// species, per time step, an RK4 integration of dc/dt = -P*c across a
// membrane edge that moves mass between its channel edge's occupying
// slug and its tank edge's mixture state.
package membrane

import (
	"math"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// Resistance computes the membrane resistance R_m = 3*mu*d / (N*pi*r^4)
// from pore radius r, porosity-derived pore count N, and membrane
// thickness d.
func Resistance(viscosity, thickness, poreRadius, numPores float64) (float64, error) {
	if thickness <= 0 || poreRadius <= 0 || numPores <= 0 {
		return 0, fluiderr.New(fluiderr.InvalidGeometry,
			"membrane requires positive thickness/poreRadius/numPores, got (%g,%g,%g)", thickness, poreRadius, numPores)
	}
	r4 := poreRadius * poreRadius * poreRadius * poreRadius
	return 3 * viscosity * thickness / (numPores * math.Pi * r4), nil
}

// Tank holds a reservoir's mixture state. Tanks carry no hydraulic flow
// of their own; Transfer moves species mass across a membrane edge
// connecting one to a channel.
type Tank struct {
	Edge           network.EdgeID
	Volume         float64 // m^3
	Concentrations map[mixture.SpeciesID]float64
}

// Transfer advances a membrane's mass exchange by dt using classical
// RK4 on dc/dt = -P*c, P = 1/R_m, for one species. contactArea is the
// membrane area currently in contact with the channel's occupying
// slug. It returns the updated channel-side and tank-side
// concentrations.
func Transfer(rm float64, channelConc, tankConc, contactArea, totalArea, dt float64) (newChannelConc, newTankConc float64, err error) {
	if rm <= 0 {
		return 0, 0, fluiderr.New(fluiderr.InvalidGeometry, "membrane resistance must be positive, got %g", rm)
	}
	if totalArea <= 0 {
		return 0, 0, fluiderr.New(fluiderr.InvalidGeometry, "membrane area must be positive, got %g", totalArea)
	}
	scale := contactArea / totalArea
	if scale < 0 {
		scale = 0
	}
	if scale > 1 {
		scale = 1
	}
	p := scale / rm

	f := func(c float64) float64 { return -p * c }

	c := channelConc
	k1 := f(c)
	k2 := f(c + 0.5*dt*k1)
	k3 := f(c + 0.5*dt*k2)
	k4 := f(c + dt*k3)
	dc := (dt / 6.0) * (k1 + 2*k2 + 2*k3 + k4)

	newChannelConc = channelConc + dc
	newTankConc = tankConc - dc
	if newChannelConc < 0 {
		newChannelConc = 0
	}
	return newChannelConc, newTankConc, nil
}

// StepAll advances every membrane edge in the network by dt for one
// species, reading/writing through the supplied per-channel-segment and
// per-tank concentration accessors. channelConc/tankConc are keyed by
// edge id; contactArea reports how much of the membrane's full area
// (edge.Width*edge.Height, reusing the channel-sized membrane edge
// fields) currently overlaps the occupying slug.
func StepAll(net *network.Network, viscosity, dt float64, channelConc, tankConc map[network.EdgeID]float64, contactArea func(network.EdgeID) float64) error {
	for _, e := range net.Edges() {
		if e.Kind != network.Membrane {
			continue
		}
		rm, err := Resistance(viscosity, e.MembraneLength, e.PoreRadius, e.NumPores)
		if err != nil {
			return err
		}
		totalArea := e.Width * e.Height
		if totalArea <= 0 {
			totalArea = e.Area()
		}
		ca := contactArea(e.ID)
		cc := channelConc[e.ChannelEdge]
		tc := tankConc[e.TankEdge]
		newCC, newTC, err := Transfer(rm, cc, tc, ca, totalArea, dt)
		if err != nil {
			return err
		}
		channelConc[e.ChannelEdge] = newCC
		tankConc[e.TankEdge] = newTC
	}
	return nil
}
