package droplet

import (
	"testing"

	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
	"github.com/cda-tum/mmft-simulator-sub001/internal/resistance"
)

func buildLine(t *testing.T) (*network.Network, network.EdgeID, network.EdgeID) {
	t.Helper()
	net := network.New()
	a, _ := net.AddNode(0, 0, true, false)
	b, _ := net.AddNode(1, 0, false, false)
	c, _ := net.AddNode(2, 0, false, true)
	e1, _ := net.AddEdge(network.Edge{Kind: network.Channel, A: a, B: b, Shape: network.Rectangular, Width: 1e-4, Height: 1e-4, LengthValue: 1e-2})
	e2, _ := net.AddEdge(network.Edge{Kind: network.Channel, A: b, B: c, Shape: network.Rectangular, Width: 1e-4, Height: 1e-4, LengthValue: 1e-2})
	if err := net.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	net.Edge(e1).FlowRate = 1e-9
	net.Edge(e2).FlowRate = 1e-9
	return net, e1, e2
}

func TestBoundaryAdvancesAndArrives(t *testing.T) {
	net, e1, e2 := buildLine(t)
	tr := NewTracker(net, resistance.Poiseuille{}, 1e-3)
	id := tr.Add(Droplet{
		Volume: 1e-13, State: InNetwork,
		Boundaries: []Boundary{{Channel: e1, Position: 0.99, VolumeTowardsA: true}},
	})
	length := net.Edge(e1).Length(net)
	v := net.Edge(e1).FlowRate / net.Edge(e1).Area()
	dt := 0.02 * length / v
	if err := tr.Step(1e-3, dt); err != nil {
		t.Fatalf("step: %v", err)
	}
	d := tr.Get(id)
	if d.Boundaries[0].Channel != e2 {
		t.Fatalf("expected droplet to advance onto downstream channel, got %d", d.Boundaries[0].Channel)
	}
}

func TestDropletReachesSink(t *testing.T) {
	net, _, e2 := buildLine(t)
	tr := NewTracker(net, resistance.Poiseuille{}, 1e-3)
	id := tr.Add(Droplet{
		Volume: 1e-13, State: InNetwork,
		Boundaries: []Boundary{{Channel: e2, Position: 0.99, VolumeTowardsA: true}},
	})
	length := net.Edge(e2).Length(net)
	v := net.Edge(e2).FlowRate / net.Edge(e2).Area()
	dt := 0.02 * length / v
	if err := tr.Step(1e-3, dt); err != nil {
		t.Fatalf("step: %v", err)
	}
	if tr.Get(id).State != Sink {
		t.Fatalf("expected droplet to reach SINK state, got %v", tr.Get(id).State)
	}
}

func TestTotalVolumeMatchesBoundaryFraction(t *testing.T) {
	net, e1, _ := buildLine(t)
	e := net.Edge(e1)
	d := &Droplet{
		Boundaries: []Boundary{{Channel: e1, Position: 0.5, VolumeTowardsA: true}},
	}
	got := TotalVolume(d, net)
	want := e.Area() * e.Length(net) * 0.5
	if got < want*0.999 || got > want*1.001 {
		t.Fatalf("expected volume %g, got %g", want, got)
	}
}

func TestMergeRejectsDifferentFluids(t *testing.T) {
	net, e1, _ := buildLine(t)
	tr := NewTracker(net, resistance.Poiseuille{}, 1e-3)
	a := tr.Add(Droplet{Fluid: 0, Boundaries: []Boundary{{Channel: e1, Position: 0.1}}})
	b := tr.Add(Droplet{Fluid: 1, Boundaries: []Boundary{{Channel: e1, Position: 0.2}}})
	if _, err := tr.Merge(a, b); err == nil {
		t.Fatalf("expected error merging droplets of different fluids")
	}
}
