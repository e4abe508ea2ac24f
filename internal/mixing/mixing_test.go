package mixing

import (
	"testing"

	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// buildTee returns a Y-junction: inlet A->J, inlet B->J, outlet J->C.
func buildTee(t *testing.T, qIn1, qIn2 float64) (*network.Network, network.EdgeID, network.EdgeID, network.EdgeID) {
	t.Helper()
	net := network.New()
	a, _ := net.AddNode(0, 0, true, false)
	b, _ := net.AddNode(0, 1, false, false)
	j, _ := net.AddNode(1, 0.5, false, false)
	c, _ := net.AddNode(2, 0.5, false, false)

	e1, _ := net.AddEdge(network.Edge{Kind: network.Channel, A: a, B: j, Shape: network.Rectangular, Width: 1e-4, Height: 1e-4, LengthValue: 1e-2})
	e2, _ := net.AddEdge(network.Edge{Kind: network.Channel, A: b, B: j, Shape: network.Rectangular, Width: 1e-4, Height: 1e-4, LengthValue: 1e-2})
	e3, _ := net.AddEdge(network.Edge{Kind: network.Channel, A: j, B: c, Shape: network.Rectangular, Width: 1e-4, Height: 1e-4, LengthValue: 1e-2})
	if err := net.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	net.Edge(e1).FlowRate = qIn1
	net.Edge(e2).FlowRate = qIn2
	net.Edge(e3).FlowRate = qIn1 + qIn2
	return net, e1, e2, e3
}

func TestInstantaneousMergeAtEqualFlow(t *testing.T) {
	net, e1, e2, e3 := buildTee(t, 1e-9, 1e-9)
	pool := mixture.NewPool()
	m1 := pool.Register(0, map[mixture.SpeciesID]float64{0: 1.0}, nil)
	m2 := pool.Register(0, map[mixture.SpeciesID]float64{0: 0.0}, nil)

	model := NewInstantaneous(pool)
	model.Seed(e1, Segment{Mixture: m1, P1: 0.95, P2: 1.0})
	model.Seed(e2, Segment{Mixture: m2, P1: 0.95, P2: 1.0})

	dt := 0.01 * 1e-2 / (net.Edge(e1).FlowRate / net.Edge(e1).Area())
	if err := model.Step(net, dt); err != nil {
		t.Fatalf("step: %v", err)
	}

	downstream := model.Segments(e3)
	if len(downstream) == 0 {
		t.Fatalf("expected a segment to arrive on the outlet channel")
	}
	mix := pool.Get(downstream[0].Mixture)
	got := mix.Concentrations[0]
	if got < 0.5-1e-7 || got > 0.5+1e-7 {
		t.Fatalf("expected merged concentration ~0.5, got %g", got)
	}
}

func TestOutflowSharesDirectionAware(t *testing.T) {
	net, _, _, e3 := buildTee(t, 1e-9, 1e-9)
	j := net.Edge(e3).A
	shares := outflowShares(net, j)
	if len(shares) != 1 || shares[0].edge != e3 {
		t.Fatalf("expected exactly the outlet edge as outflow, got %+v", shares)
	}
}

func TestDiffusiveDecayReducesHigherModes(t *testing.T) {
	p := mixture.FourierProfile{A0: 1.0, An: []float64{0.5, 0.25}}
	out := decay(p, 1e-3, 1e-2, 10.0)
	if out.An[0] >= p.An[0] {
		t.Fatalf("expected coefficient decay, got %g >= %g", out.An[0], p.An[0])
	}
	if out.An[1] >= out.An[0] {
		t.Fatalf("expected higher modes to decay faster: a2=%g a1=%g", out.An[1], out.An[0])
	}
}

func TestDecayNoOpAtZeroDistance(t *testing.T) {
	p := mixture.FourierProfile{A0: 1.0, An: []float64{0.5}}
	out := decay(p, 0, 1e-2, 10.0)
	if out.An[0] != p.An[0] {
		t.Fatalf("expected no decay at zero distance")
	}
}

func TestProjectFourierReconstructsConstant(t *testing.T) {
	profile := projectFourier(func(xi float64) float64 { return 3.0 }, 2)
	if profile.A0 < 3.0-1e-9 || profile.A0 > 3.0+1e-9 {
		t.Fatalf("expected a0=3 for a constant signal, got %g", profile.A0)
	}
	for _, an := range profile.An {
		if an > 1e-9 || an < -1e-9 {
			t.Fatalf("expected zero higher coefficients for a constant signal, got %g", an)
		}
	}
}

func TestSplitAtRestrictsInterval(t *testing.T) {
	p := mixture.FourierProfile{A0: 1.0, An: []float64{0.0}}
	out := SplitAt(p, 0.25, 0.75)
	if out.A0 < 1.0-1e-9 || out.A0 > 1.0+1e-9 {
		t.Fatalf("expected restricted constant profile to keep a0=1, got %g", out.A0)
	}
}
