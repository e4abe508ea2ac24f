package simstate

import (
	"bytes"
	"testing"

	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

func buildSimpleNetwork(t *testing.T) *network.Network {
	t.Helper()
	net := network.New()
	a, _ := net.AddNode(0, 0, true, false)
	b, _ := net.AddNode(1, 0, false, false)
	net.AddEdge(network.Edge{
		Kind: network.PressurePump, A: a, B: b, PumpPressure: 100,
	})
	if err := net.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	return net
}

func TestRunAdvancesTimeAndSetsDone(t *testing.T) {
	net := buildSimpleNetwork(t)
	sim := NewSimulation(net)
	sim.HybridOpt.MaxIter = 10
	sim.HybridOpt.Epsilon = 1e-6
	sim.MaxTime = 0.05

	var buf bytes.Buffer
	err := sim.Run(1000,
		SolveFlow(),
		Snapshot(),
		Log(&buf),
		AdvanceTime(0.01),
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !sim.Done {
		t.Fatalf("expected simulation to reach Done after maxTime")
	}
	if sim.History.Len() == 0 {
		t.Fatalf("expected recorded snapshots")
	}
}

func TestEventQueueOrdering(t *testing.T) {
	eq := NewEventQueue()
	eq.Schedule(Event{Time: 1.0, Kind: Write, EntityID: 2})
	eq.Schedule(Event{Time: 1.0, Kind: BoundaryArrival, EntityID: 5})
	eq.Schedule(Event{Time: 0.5, Kind: MaxTime, EntityID: 0})

	first, ok := eq.Next()
	if !ok || first.Time != 0.5 {
		t.Fatalf("expected earliest time first, got %+v", first)
	}
	second, ok := eq.Next()
	if !ok || second.Kind != BoundaryArrival {
		t.Fatalf("expected boundary-arrival before write at equal time, got %+v", second)
	}
}

func TestResultsPressureSeries(t *testing.T) {
	net := buildSimpleNetwork(t)
	sim := NewSimulation(net)
	sim.HybridOpt.MaxIter = 10
	sim.HybridOpt.Epsilon = 1e-6
	sim.MaxTime = 0.02

	if err := sim.Run(100, SolveFlow(), Snapshot(), AdvanceTime(0.01)); err != nil {
		t.Fatalf("run: %v", err)
	}
	results := NewResults(sim.History)
	times, values := results.PressureSeries(0)
	if len(times) == 0 || len(values) != len(times) {
		t.Fatalf("expected non-empty pressure series")
	}
}
