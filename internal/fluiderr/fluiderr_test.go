package fluiderr

import (
	"errors"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	a := New(SingularSystem, "group %d is singular", 3)
	b := New(SingularSystem, "a different message")
	if !errors.Is(a, b) {
		t.Fatal("expected two errors of the same kind to match via errors.Is")
	}

	c := New(NetworkFrozen, "cannot add node")
	if errors.Is(a, c) {
		t.Fatal("expected errors of different kinds not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := errors.New("underlying failure")
	wrapped := Wrap(DidNotConverge, cause, "hybrid scheme gave up after %d iterations", 10)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
	if wrapped.Error() == "" {
		t.Fatal("expected a non-empty error message")
	}
}
