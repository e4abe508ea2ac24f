package network

import "testing"

func TestAddNodeAndEdgeBasic(t *testing.T) {
	n := New()
	a, err := n.AddNode(0, 0, true, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := n.AddNode(1, 0, false, true)
	if err != nil {
		t.Fatal(err)
	}
	eid, err := n.AddEdge(Edge{Kind: Channel, A: a, B: b, Shape: Rectangular, Width: 1e-4, Height: 1e-4})
	if err != nil {
		t.Fatal(err)
	}
	if n.Edge(eid).ID != eid {
		t.Fatalf("expected edge id %d to round-trip, got %d", eid, n.Edge(eid).ID)
	}
}

func TestFreezeRejectsFurtherMutation(t *testing.T) {
	n := New()
	a, _ := n.AddNode(0, 0, true, false)
	b, _ := n.AddNode(1, 0, false, true)
	n.AddEdge(Edge{Kind: Channel, A: a, B: b, Shape: Rectangular, Width: 1e-4, Height: 1e-4})

	if err := n.Freeze(); err != nil {
		t.Fatal(err)
	}
	if !n.Frozen() {
		t.Fatal("expected network to report frozen")
	}
	if _, err := n.AddNode(2, 0, false, false); err == nil {
		t.Fatal("expected AddNode to fail after Freeze")
	}
	if _, err := n.AddEdge(Edge{Kind: Channel, A: a, B: b}); err == nil {
		t.Fatal("expected AddEdge to fail after Freeze")
	}
}

func TestDuplicatePumpEdgeRejected(t *testing.T) {
	n := New()
	a, _ := n.AddNode(0, 0, true, false)
	b, _ := n.AddNode(1, 0, false, false)
	if _, err := n.AddEdge(Edge{Kind: PressurePump, A: a, B: b, PumpPressure: 1000}); err != nil {
		t.Fatal(err)
	}
	if _, err := n.AddEdge(Edge{Kind: PressurePump, A: b, B: a, PumpPressure: 500}); err == nil {
		t.Fatal("expected a second pump between the same node pair to be rejected")
	}
}

func TestFreezeBuildsOneGroupForAConnectedNetwork(t *testing.T) {
	n := New()
	a, _ := n.AddNode(0, 0, true, false)
	b, _ := n.AddNode(1, 0, false, false)
	c, _ := n.AddNode(2, 0, false, true)
	n.AddEdge(Edge{Kind: Channel, A: a, B: b, Shape: Rectangular, Width: 1e-4, Height: 1e-4})
	n.AddEdge(Edge{Kind: Channel, A: b, B: c, Shape: Rectangular, Width: 1e-4, Height: 1e-4})

	if err := n.Freeze(); err != nil {
		t.Fatal(err)
	}
	if len(n.Groups()) != 1 {
		t.Fatalf("expected 1 group for a fully connected network, got %d", len(n.Groups()))
	}
	if !n.Groups()[0].Grounded {
		t.Fatal("expected the single group to be grounded")
	}
	gid, ok := n.GroupOf(c)
	if !ok || gid != n.Groups()[0].ID {
		t.Fatal("expected every node to resolve to the single group")
	}
}

func TestFreezeBuildsSeparateGroupsForDisconnectedComponents(t *testing.T) {
	n := New()
	a, _ := n.AddNode(0, 0, true, false)
	b, _ := n.AddNode(1, 0, false, true)
	c, _ := n.AddNode(10, 10, false, false)
	d, _ := n.AddNode(11, 10, false, true)
	n.AddEdge(Edge{Kind: Channel, A: a, B: b, Shape: Rectangular, Width: 1e-4, Height: 1e-4})
	n.AddEdge(Edge{Kind: Channel, A: c, B: d, Shape: Rectangular, Width: 1e-4, Height: 1e-4})

	if err := n.Freeze(); err != nil {
		t.Fatal(err)
	}
	if len(n.Groups()) != 2 {
		t.Fatalf("expected 2 disjoint groups, got %d", len(n.Groups()))
	}
}
