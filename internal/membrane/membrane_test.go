package membrane

import "testing"

func TestResistanceRejectsNonPositive(t *testing.T) {
	if _, err := Resistance(1e-3, 0, 1e-6, 100); err == nil {
		t.Fatalf("expected error for zero thickness")
	}
}

func TestTransferConservesMass(t *testing.T) {
	rm, err := Resistance(1e-3, 1e-5, 1e-7, 1e6)
	if err != nil {
		t.Fatalf("resistance: %v", err)
	}
	newCC, newTC, err := Transfer(rm, 1.0, 0.0, 1e-8, 1e-8, 1.0)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if newCC >= 1.0 {
		t.Fatalf("expected channel concentration to decrease, got %g", newCC)
	}
	sum := newCC + newTC
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("expected mass to be conserved between channel and tank, got sum %g", sum)
	}
}

func TestTransferNoContactIsNoOp(t *testing.T) {
	rm, _ := Resistance(1e-3, 1e-5, 1e-7, 1e6)
	newCC, newTC, err := Transfer(rm, 1.0, 0.0, 0, 1e-8, 1.0)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if newCC != 1.0 || newTC != 0.0 {
		t.Fatalf("expected no change with zero contact area, got cc=%g tc=%g", newCC, newTC)
	}
}
