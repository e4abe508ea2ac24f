// Package nodal implements the modified-nodal-analysis solver: given
// per-group resistances and pump sources, solve for node pressures
// and edge flow rates.
package nodal

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// BoundaryKind tags an externally imposed boundary condition at a
// group opening node.
type BoundaryKind uint8

const (
	// BoundaryPressure pins the node's pressure to Value.
	BoundaryPressure BoundaryKind = iota
	// BoundaryFlowRate injects Value (m^3/s, positive = into the group)
	// at the node as a constant current source.
	BoundaryFlowRate
)

// Boundary is one externally imposed condition at a group node, as
// supplied by the hybrid scheme at a CFD opening.
type Boundary struct {
	Node  network.NodeID
	Kind  BoundaryKind
	Value float64
}

// VirtualResistor is a resistor edge that exists only for the duration
// of one SolveGroup call, not in the Network's permanent edge arena.
// The hybrid scheme uses these to insert the per-opening equivalent
// resistances R=Δp/Q it recomputes every iteration
// without mutating the frozen network topology. FlowRate is written by
// SolveGroup the same way it writes Edge.FlowRate.
type VirtualResistor struct {
	A, B       network.NodeID
	Resistance float64
	FlowRate   float64
}

// SolveGroup solves the group's linear system in place: it writes
// Pressure on every node in the group and FlowRate on every resistive
// edge and pressure pump in the group.
//
// boundaries supplies any externally imposed pressure/flow-rate
// conditions at the group's CFD openings (empty for a pure 1D group).
//
// An ungrounded group has no absolute pressure datum of its own, so it
// is solved as a relative system pinned to zero at one of its
// pressure-boundary nodes, then shifted by the mean discrepancy
// between the solved and requested values at all of its pressure
// boundaries.
func SolveGroup(net *network.Network, g *network.Group, boundaries []Boundary, extra ...*VirtualResistor) error {
	pressureAt := make(map[network.NodeID]float64)
	flowAt := make(map[network.NodeID]float64)
	for _, b := range boundaries {
		switch b.Kind {
		case BoundaryPressure:
			pressureAt[b.Node] = b.Value
		case BoundaryFlowRate:
			flowAt[b.Node] += b.Value
		}
	}

	var relativeAnchor network.NodeID
	needsOffset := false
	if !g.Grounded {
		anchor, ok := firstKey(g.NodeIDs, pressureAt)
		if !ok {
			return fluiderr.New(fluiderr.UnderspecifiedGroup,
				"group %d has no ground node and no externally referenced pressure", g.ID)
		}
		relativeAnchor = anchor
		needsOffset = true
	}

	// fixedPressure reports the Dirichlet pressure value a node is
	// pinned to, if any. The relative anchor of an ungrounded group is
	// pinned at 0 during the solve itself; its true value is restored
	// by the offset step below.
	fixedPressure := func(nid network.NodeID) (float64, bool) {
		if net.Node(nid).Ground {
			return 0, true
		}
		if needsOffset && nid == relativeAnchor {
			return 0, true
		}
		if v, ok := pressureAt[nid]; ok {
			return v, true
		}
		return 0, false
	}

	index := make(map[network.NodeID]int)
	n := 0
	for _, nid := range g.NodeIDs {
		if _, fixed := fixedPressure(nid); fixed {
			continue
		}
		index[nid] = n
		n++
	}
	var pumpEdges []network.EdgeID
	for _, eid := range g.EdgeIDs {
		if net.Edge(eid).Kind == network.PressurePump {
			pumpEdges = append(pumpEdges, eid)
		}
	}
	pumpIndex := make(map[network.EdgeID]int)
	for _, eid := range pumpEdges {
		pumpIndex[eid] = n
		n++
	}

	if n == 0 {
		for _, eid := range g.EdgeIDs {
			e := net.Edge(eid)
			if e.Kind == network.Channel || e.Kind == network.Membrane {
				e.FlowRate = 0
			}
		}
		return nil
	}

	A := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)

	addConductance := func(i, j network.NodeID, gcond float64) {
		pi, iFixed := fixedPressure(i)
		pj, jFixed := fixedPressure(j)
		ri, riok := index[i]
		rj, rjok := index[j]
		if riok {
			A.Set(ri, ri, A.At(ri, ri)+gcond)
		}
		if rjok {
			A.Set(rj, rj, A.At(rj, rj)+gcond)
		}
		switch {
		case riok && rjok:
			A.Set(ri, rj, A.At(ri, rj)-gcond)
			A.Set(rj, ri, A.At(rj, ri)-gcond)
		case riok && jFixed:
			b.SetVec(ri, b.AtVec(ri)+gcond*pj)
		case rjok && iFixed:
			b.SetVec(rj, b.AtVec(rj)+gcond*pi)
		}
	}

	for _, eid := range g.EdgeIDs {
		e := net.Edge(eid)
		switch e.Kind {
		case network.Channel, network.Membrane:
			if e.Resistance <= 0 {
				return fluiderr.New(fluiderr.SingularSystem,
					"edge %d has non-positive resistance %g", e.ID, e.Resistance)
			}
			addConductance(e.A, e.B, 1.0/e.Resistance)
		case network.FlowRatePump:
			if ri, ok := index[e.A]; ok {
				b.SetVec(ri, b.AtVec(ri)-e.PumpFlowRate)
			}
			if rj, ok := index[e.B]; ok {
				b.SetVec(rj, b.AtVec(rj)+e.PumpFlowRate)
			}
		}
	}

	for nid, q := range flowAt {
		if ri, ok := index[nid]; ok {
			b.SetVec(ri, b.AtVec(ri)+q)
		}
	}

	for _, v := range extra {
		if v.Resistance <= 0 {
			return fluiderr.New(fluiderr.SingularSystem, "virtual resistor %d-%d has non-positive resistance %g", v.A, v.B, v.Resistance)
		}
		addConductance(v.A, v.B, 1.0/v.Resistance)
	}

	for _, eid := range pumpEdges {
		e := net.Edge(eid)
		k := pumpIndex[eid]
		// Branch current unknown I_k: KCL contributions at A (current
		// leaves A into the pump) and B (current enters B from it).
		if ri, ok := index[e.A]; ok {
			A.Set(ri, k, A.At(ri, k)+1)
			A.Set(k, ri, A.At(k, ri)-1)
		}
		if rj, ok := index[e.B]; ok {
			A.Set(rj, k, A.At(rj, k)-1)
			A.Set(k, rj, A.At(k, rj)+1)
		}
		// Constitutive equation: p_B - p_A = PumpPressure.
		pa, aFixed := fixedPressure(e.A)
		pb, bFixed := fixedPressure(e.B)
		rhs := e.PumpPressure
		if aFixed {
			rhs += pa
		}
		if bFixed {
			rhs -= pb
		}
		b.SetVec(k, rhs)
	}

	x := mat.NewVecDense(n, nil)
	if err := x.SolveVec(A, b); err != nil {
		return fluiderr.Wrap(fluiderr.SingularSystem, err, "group %d conductance matrix is singular", g.ID)
	}

	for _, nid := range g.NodeIDs {
		if ri, ok := index[nid]; ok {
			net.Node(nid).Pressure = x.AtVec(ri)
			continue
		}
		if p, fixed := fixedPressure(nid); fixed {
			net.Node(nid).Pressure = p
		}
	}

	for _, eid := range g.EdgeIDs {
		e := net.Edge(eid)
		switch e.Kind {
		case network.Channel, network.Membrane:
			e.FlowRate = e.PressureDrop(net) / e.Resistance
		case network.PressurePump:
			e.FlowRate = x.AtVec(pumpIndex[eid])
		}
	}
	for _, v := range extra {
		v.FlowRate = (net.Node(v.A).Pressure - net.Node(v.B).Pressure) / v.Resistance
	}

	if needsOffset {
		applyReferenceOffset(net, g, pressureAt)
	}
	return nil
}

func firstKey(order []network.NodeID, m map[network.NodeID]float64) (network.NodeID, bool) {
	for _, nid := range order {
		if _, ok := m[nid]; ok {
			return nid, true
		}
	}
	return 0, false
}

// applyReferenceOffset shifts every node's solved (relative) pressure
// in the group by the mean discrepancy between requested and solved
// pressure across all of the group's pressure boundaries.
func applyReferenceOffset(net *network.Network, g *network.Group, pressureAt map[network.NodeID]float64) {
	if len(pressureAt) == 0 {
		return
	}
	var sum float64
	for nid, want := range pressureAt {
		sum += want - net.Node(nid).Pressure
	}
	offset := sum / float64(len(pressureAt))
	for _, id := range g.NodeIDs {
		net.Node(id).Pressure += offset
	}
}
