// Package fluiderr defines the typed error kinds surfaced by the
// simulation core.
package fluiderr

import "fmt"

// Kind identifies one of the error categories the core can surface.
type Kind string

const (
	InvalidGeometry     Kind = "InvalidGeometry"
	NetworkIncomplete   Kind = "NetworkIncomplete"
	UnderspecifiedGroup Kind = "UnderspecifiedGroup"
	SingularSystem      Kind = "SingularSystem"
	GeometryOutOfBounds Kind = "GeometryOutOfBounds"
	OrphanOpening       Kind = "OrphanOpening"
	DidNotConverge      Kind = "DidNotConverge"
	IllegalQuery        Kind = "IllegalQuery"
	NetworkFrozen       Kind = "NetworkFrozen"
)

// Error wraps a Kind with context and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers
// can use errors.Is(err, fluiderr.New(fluiderr.SingularSystem, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
