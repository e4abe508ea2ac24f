package mixture

import "testing"

func TestPoolDeduplicatesByContent(t *testing.T) {
	pool := NewPool()
	c := map[SpeciesID]float64{0: 1.0, 1: 0.5}
	id1 := pool.Register(0, c, nil)
	id2 := pool.Register(0, map[SpeciesID]float64{0: 1.0, 1: 0.5}, nil)
	if id1 != id2 {
		t.Fatalf("expected deduplicated mixture ids, got %d and %d", id1, id2)
	}
	if len(pool.mixtures) != 1 {
		t.Fatalf("expected 1 registered mixture, got %d", len(pool.mixtures))
	}
}

func TestPoolDistinguishesDifferentContent(t *testing.T) {
	pool := NewPool()
	id1 := pool.Register(0, map[SpeciesID]float64{0: 1.0}, nil)
	id2 := pool.Register(0, map[SpeciesID]float64{0: 2.0}, nil)
	if id1 == id2 {
		t.Fatalf("expected distinct ids for distinct concentrations")
	}
}

func TestWeightedAverageEqualFlows(t *testing.T) {
	flows := []float64{1.0, 1.0}
	concs := []map[SpeciesID]float64{
		{0: 1.0},
		{0: 0.0},
	}
	got := WeightedAverage(flows, concs)
	if got[0] < 0.5-1e-7 || got[0] > 0.5+1e-7 {
		t.Fatalf("expected merged concentration 0.5, got %g", got[0])
	}
}

func TestWeightedAverageZeroFlow(t *testing.T) {
	got := WeightedAverage(nil, nil)
	if len(got) != 0 {
		t.Fatalf("expected empty result for no inflows")
	}
}

func TestFourierProfileEval(t *testing.T) {
	p := FourierProfile{A0: 2.0}
	if v := p.Eval(0.25); v != 2.0 {
		t.Fatalf("constant profile should evaluate to a0 everywhere, got %g", v)
	}
}
