// Package hybrid implements the damped fixed-point coupling scheme
// that reconciles the 1D nodal solution with a set of CFD
// sub-domains.
package hybrid

import (
	"math"

	"github.com/cda-tum/mmft-simulator-sub001/internal/cfd"
	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
	"github.com/cda-tum/mmft-simulator-sub001/internal/nodal"
)

// Relaxation damps the change in a coupling value between iterations:
// x_k = (1-alpha)*x_{k-1} + alpha*x_k^raw. Naive and Adaptive are the
// two scheme variants; both share the same convergence test, only the
// relaxation factor differs between them.
type Relaxation interface {
	// Next returns the relaxed value for (module, opening, quantity)
	// key, given the raw value just produced and the previously
	// relaxed value.
	Next(key string, raw, prevRelaxed float64) float64
}

// Naive applies one global, constant relaxation factor everywhere.
type Naive struct {
	Alpha float64 // default 0.5 if zero
}

func (n Naive) alpha() float64 {
	if n.Alpha <= 0 {
		return 0.5
	}
	return n.Alpha
}

func (n Naive) Next(_ string, raw, prev float64) float64 {
	a := n.alpha()
	return (1-a)*prev + a*raw
}

// Adaptive decreases alpha when the per-key residual changes sign
// (oscillation) and increases it on monotone progress, clamped to
// [Min, Max].
type Adaptive struct {
	Initial, Min, Max float64
	state             map[string]*adaptiveState
}

type adaptiveState struct {
	alpha        float64
	lastResidual float64
	hasResidual  bool
}

func (a *Adaptive) Next(key string, raw, prev float64) float64 {
	if a.state == nil {
		a.state = make(map[string]*adaptiveState)
	}
	st, ok := a.state[key]
	if !ok {
		init := a.Initial
		if init <= 0 {
			init = 0.5
		}
		st = &adaptiveState{alpha: init}
		a.state[key] = st
	}
	residual := raw - prev
	if st.hasResidual && st.lastResidual != 0 && signOf(residual) != signOf(st.lastResidual) {
		st.alpha *= 0.5
	} else {
		st.alpha *= 1.1
	}
	st.alpha = clamp(st.alpha, a.minAlpha(), a.maxAlpha())
	st.lastResidual = residual
	st.hasResidual = true
	return (1-st.alpha)*prev + st.alpha*raw
}

func (a *Adaptive) minAlpha() float64 {
	if a.Min <= 0 {
		return 0.05
	}
	return a.Min
}

func (a *Adaptive) maxAlpha() float64 {
	if a.Max <= 0 {
		return 0.95
	}
	return a.Max
}

func signOf(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Coupling binds a CFD module to its Adapter and the fixed roles
// assigned to its openings before iteration starts.
type Coupling struct {
	Module    *network.Module
	ModuleID  network.ModuleID
	Adapter   cfd.Adapter
	Reference int // index into Module.Openings
}

// Options configures one hybrid run.
type Options struct {
	MaxIter           int
	ConvergenceWindow int // N_c, default 3
	Epsilon           float64
	Relax             Relaxation
	Viscosity         float64
	Density           float64
}

func (o Options) window() int {
	if o.ConvergenceWindow <= 0 {
		return 3
	}
	return o.ConvergenceWindow
}

// Result summarizes one hybrid run.
type Result struct {
	Iterations int
	Converged  bool
}

// Run drives the damped fixed-point iteration between the 1D groups
// and their CFD couplings until convergence or MaxIter is reached. On
// exhausting MaxIter it returns the last computed state along with a
// *fluiderr.Error of kind DidNotConverge.
func Run(net *network.Network, couplings []Coupling, opt Options) (Result, error) {
	relax := opt.Relax
	if relax == nil {
		relax = Naive{}
	}

	relaxedPressure := make(map[string]float64)
	relaxedFlow := make(map[string]float64)
	prevPressure := make(map[string]float64)
	prevFlow := make(map[string]float64)

	goodStreak := 0
	var result Result

	for iter := 0; iter < opt.MaxIter; iter++ {
		result.Iterations = iter + 1

		virtual := make(map[network.ModuleID][]*nodal.VirtualResistor)
		for _, c := range couplings {
			refKey := couplingKey(c.ModuleID, c.Reference)
			refPressure := relaxedPressure[refKey]
			for idx, o := range c.Module.Openings {
				if idx == c.Reference {
					continue
				}
				key := couplingKey(c.ModuleID, idx)
				dp := relaxedPressure[key] - refPressure
				r := equivalentResistance(dp, relaxedFlow[key])
				refNode := c.Module.Openings[c.Reference].Node
				virtual[c.ModuleID] = append(virtual[c.ModuleID], &nodal.VirtualResistor{
					A: o.Node, B: refNode, Resistance: r,
				})
			}
		}

		for gi := range net.Groups() {
			g := net.Group(network.GroupID(gi))
			var boundaries []nodal.Boundary
			var extra []*nodal.VirtualResistor
			for _, c := range couplings {
				for idx, o := range c.Module.Openings {
					if !nodeInGroup(g, o.Node) {
						continue
					}
					if idx == c.Reference {
						key := couplingKey(c.ModuleID, idx)
						boundaries = append(boundaries, nodal.Boundary{
							Node: o.Node, Kind: nodal.BoundaryPressure, Value: relaxedPressure[key],
						})
					}
				}
			}
			for _, vrs := range virtual {
				for _, v := range vrs {
					if nodeInGroup(g, v.A) || nodeInGroup(g, v.B) {
						extra = append(extra, v)
					}
				}
			}
			if err := nodal.SolveGroup(net, g, boundaries, extra...); err != nil {
				return result, err
			}
		}

		allConverged := true
		maxRelChange := 0.0
		for _, c := range couplings {
			pressures := make(map[int]float64)
			flows := make(map[int]float64)
			for idx, o := range c.Module.Openings {
				if idx == c.Reference {
					var refFlow float64
					for _, v := range virtual[c.ModuleID] {
						refFlow += v.FlowRate
					}
					flows[idx] = refFlow
				} else {
					pressures[idx] = net.Node(o.Node).Pressure
				}
			}
			c.Adapter.SetPressures(pressures)
			c.Adapter.SetFlowRates(flows)
			if err := c.Adapter.Solve(); err != nil {
				return result, err
			}
			if !c.Adapter.HasConverged() {
				allConverged = false
			}

			outPressures := c.Adapter.ReadPressures()
			outFlows := c.Adapter.ReadFlowRates()
			for idx := range c.Module.Openings {
				pkey := couplingKey(c.ModuleID, idx)
				rawP := outPressures[idx]
				rawQ := outFlows[idx]
				newP := relax.Next(pkey+":p", rawP, getOr(prevPressure, pkey, rawP))
				newQ := relax.Next(pkey+":q", rawQ, getOr(prevFlow, pkey, rawQ))

				if pp, ok := prevPressure[pkey]; ok && pp != 0 {
					maxRelChange = math.Max(maxRelChange, math.Abs(newP-pp)/math.Abs(pp))
				}
				if pq, ok := prevFlow[pkey]; ok && pq != 0 {
					maxRelChange = math.Max(maxRelChange, math.Abs(newQ-pq)/math.Abs(pq))
				}

				relaxedPressure[pkey] = newP
				relaxedFlow[pkey] = newQ
				prevPressure[pkey] = newP
				prevFlow[pkey] = newQ
			}
		}

		if allConverged && maxRelChange < opt.Epsilon {
			goodStreak++
		} else {
			goodStreak = 0
		}
		if goodStreak >= opt.window() {
			result.Converged = true
			return result, nil
		}
	}

	return result, fluiderr.New(fluiderr.DidNotConverge, "hybrid iteration did not converge within %d iterations", opt.MaxIter)
}

func couplingKey(m network.ModuleID, opening int) string {
	return itoa(int(m)) + ":" + itoa(opening)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func getOr(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func nodeInGroup(g *network.Group, id network.NodeID) bool {
	for _, nid := range g.NodeIDs {
		if nid == id {
			return true
		}
	}
	return false
}

func equivalentResistance(dp, q float64) float64 {
	const minQ = 1e-18
	if math.Abs(q) < minQ {
		return 1e18
	}
	r := dp / q
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 1e18
	}
	return r
}
