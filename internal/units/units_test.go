package units

import (
	"testing"

	"github.com/ctessum/unit"
)

func TestDimensionsMatchOhmsLaw(t *testing.T) {
	p := Pressure(1000)
	r := Resistance(500)
	q := unit.Div(p, r)
	if err := q.Check(FlowRate(0).Dimensions()); err != nil {
		t.Fatalf("pressure/resistance should have flow-rate dimensions: %v", err)
	}
}

func TestDimensionsRejectMismatch(t *testing.T) {
	p := Pressure(1000)
	if err := p.Check(Viscosity(0).Dimensions()); err == nil {
		t.Fatal("expected a pressure to fail a viscosity dimension check")
	}
}
