// Package cfd implements the CFD simulator adapter: one LBM
// sub-domain per CFD module, treated as a blocking blackbox whose
// internals are opaque to the core. The real LBM collide/stream
// kernel is an external library the core only talks to through this
// adapter interface; ReferenceLattice below is a reduced-order
// surrogate implementing Adapter, not a production LBM
// implementation.
package cfd

import (
	"math"

	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
	"github.com/cda-tum/mmft-simulator-sub001/internal/nodal"
	"github.com/cda-tum/mmft-simulator-sub001/internal/resistance"
)

// Config carries the LBM adapter's configuration.
type Config struct {
	CharLength   float64 // L, m, usually the channel width
	CharVelocity float64 // U, m/s
	Resolution   float64 // N, lattice points per L
	Tau          float64 // relaxation time
	TauAD        float64 // 0 means "no species transport lattice"
	Epsilon      float64 // convergence tolerance
	Theta        int     // LBM sub-iterations per Solve call; 0 means default 10
	WindowSize   int     // N_w convergence window; 0 means default 50
}

func (c Config) theta() int {
	if c.Theta <= 0 {
		return 10
	}
	return c.Theta
}

func (c Config) window() int {
	if c.WindowSize <= 0 {
		return 50
	}
	return c.WindowSize
}

// Adapter is the interface the hybrid scheme drives each coupling step
//. One Adapter wraps exactly one CFD module.
type Adapter interface {
	Prepare(dynViscosity, density float64) error
	SetFlowRates(q map[int]float64)
	SetPressures(p map[int]float64)
	Solve() error
	ReadPressures() map[int]float64
	ReadFlowRates() map[int]float64
	HasConverged() bool
}

// ReferenceLattice is a lumped-parameter surrogate for an LBM
// sub-domain: it represents the module's interior as a fully-connected
// resistor mesh between its openings, the same "fully connected graph
// for the initial approximation" role the hybrid scheme needs before
// any real sub-domain solve has run. Each Solve() call re-solves that
// mesh against the currently imposed boundary values and advances a
// windowed "kinetic energy" tracer — the sum of squared flow-rate
// changes since the last sub-iteration — whose running relative
// fluctuation drives HasConverged, mirroring a value-tracer
// convergence test without requiring an actual collide/stream kernel.
type ReferenceLattice struct {
	cfg    Config
	module *network.Module

	net  *network.Network
	grp  *network.Group
	node []network.NodeID // index -> synthetic node id, aligned with module.Openings

	viscosity float64

	pressures map[int]float64
	flowRates map[int]float64

	energyWindow []float64
	converged    bool
}

// NewReferenceLattice builds the fully-connected interior mesh for a
// module: one synthetic node per opening, pairwise channels of
// Poiseuille resistance estimated from the module's bounding geometry.
func NewReferenceLattice(cfg Config, m *network.Module) *ReferenceLattice {
	l := &ReferenceLattice{cfg: cfg, module: m}
	l.net = network.New()
	n := len(m.Openings)
	l.node = make([]network.NodeID, n)
	for i, o := range m.Openings {
		id, _ := l.net.AddNode(m.PosX+o.Width/2, m.PosY, false, false)
		l.node[i] = id
	}
	// Ground exactly one synthetic node so the interior mesh is always
	// solvable on its own between coupling steps.
	l.net.Node(l.node[0]).Ground = true

	diag := math.Hypot(m.SizeX, m.SizeY)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			width := (m.Openings[i].Width + m.Openings[j].Width) / 2
			ch := network.Edge{
				Kind: network.Channel, A: l.node[i], B: l.node[j],
				Shape: network.Rectangular, Width: width, Height: width,
				LengthValue: diag,
				Resistance:  1, // placeholder, recomputed in Prepare
			}
			l.net.AddEdge(ch)
		}
	}
	return l
}

// Prepare builds the lattice for the given fluid properties (
// prepare(dynViscosity, density)): validates the module's STL
// containment/opening-boundary invariants are the caller's
// responsibility (internal/stl), and here computes the interior mesh's
// Poiseuille resistances.
func (l *ReferenceLattice) Prepare(dynViscosity, density float64) error {
	l.viscosity = dynViscosity
	if err := l.net.Freeze(); err != nil {
		return err
	}
	grp := l.net.Group(0)
	l.grp = grp
	model := resistance.Poiseuille{}
	for _, eid := range grp.EdgeIDs {
		e := l.net.Edge(eid)
		if e.Kind != network.Channel {
			continue
		}
		r, err := model.Resistance(e, l.net, dynViscosity)
		if err != nil {
			return err
		}
		e.Resistance = r
	}
	l.energyWindow = nil
	l.converged = false
	return nil
}

// SetFlowRates writes target flow-rate boundary values, keyed by
// opening index.
func (l *ReferenceLattice) SetFlowRates(q map[int]float64) {
	if l.flowRates == nil {
		l.flowRates = make(map[int]float64)
	}
	for k, v := range q {
		l.flowRates[k] = v
	}
}

// SetPressures writes target pressure boundary values, keyed by
// opening index.
func (l *ReferenceLattice) SetPressures(p map[int]float64) {
	if l.pressures == nil {
		l.pressures = make(map[int]float64)
	}
	for k, v := range p {
		l.pressures[k] = v
	}
}

// Solve runs theta sub-iterations of the interior mesh solve.
func (l *ReferenceLattice) Solve() error {
	theta := l.cfg.theta()
	var prevFlows []float64
	for t := 0; t < theta; t++ {
		var bcs []nodal.Boundary
		for idx, p := range l.pressures {
			bcs = append(bcs, nodal.Boundary{Node: l.node[idx], Kind: nodal.BoundaryPressure, Value: p})
		}
		for idx, q := range l.flowRates {
			bcs = append(bcs, nodal.Boundary{Node: l.node[idx], Kind: nodal.BoundaryFlowRate, Value: q})
		}
		if err := nodal.SolveGroup(l.net, l.grp, bcs); err != nil {
			return err
		}

		flows := l.openingFlows()
		if prevFlows != nil {
			var energy float64
			for i := range flows {
				d := flows[i] - prevFlows[i]
				energy += d * d
			}
			l.pushEnergy(energy)
		}
		prevFlows = flows
	}
	l.pressures = make(map[int]float64)
	l.flowRates = make(map[int]float64)
	return nil
}

func (l *ReferenceLattice) openingFlows() []float64 {
	out := make([]float64, len(l.node))
	for i, nid := range l.node {
		var sum float64
		for _, eid := range l.grp.EdgeIDs {
			e := l.net.Edge(eid)
			if e.A == nid {
				sum += e.FlowRate
			} else if e.B == nid {
				sum -= e.FlowRate
			}
		}
		out[i] = sum
	}
	return out
}

func (l *ReferenceLattice) pushEnergy(e float64) {
	l.energyWindow = append(l.energyWindow, e)
	w := l.cfg.window()
	if len(l.energyWindow) > w {
		l.energyWindow = l.energyWindow[len(l.energyWindow)-w:]
	}
	if len(l.energyWindow) < w {
		l.converged = false
		return
	}
	mean := 0.0
	for _, v := range l.energyWindow {
		mean += v
	}
	mean /= float64(len(l.energyWindow))
	if mean == 0 {
		l.converged = true
		return
	}
	var variance float64
	for _, v := range l.energyWindow {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(l.energyWindow))
	rel := math.Sqrt(variance) / mean
	l.converged = rel < l.cfg.Epsilon
}

// ReadPressures returns the current opening pressures.
func (l *ReferenceLattice) ReadPressures() map[int]float64 {
	out := make(map[int]float64, len(l.node))
	for i, nid := range l.node {
		out[i] = l.net.Node(nid).Pressure
	}
	return out
}

// ReadFlowRates returns the current net flow at each opening.
func (l *ReferenceLattice) ReadFlowRates() map[int]float64 {
	flows := l.openingFlows()
	out := make(map[int]float64, len(flows))
	for i, f := range flows {
		out[i] = f
	}
	return out
}

// HasConverged reports whether the windowed energy tracer's relative
// fluctuation has fallen below epsilon.
func (l *ReferenceLattice) HasConverged() bool { return l.converged }

var _ Adapter = (*ReferenceLattice)(nil)
