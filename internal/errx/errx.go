// Package errx classifies failures of the short-link service into a small set
// of kinds. Stores translate driver errors into kinds, the resolver wraps them
// with its own operation name, and the HTTP layer maps kinds to responses.
package errx

import (
	"errors"
	"strconv"
)

type Kind uint8

const (
	Unknown Kind = iota
	// NotFound: no record for the requested token.
	NotFound
	// Conflict: the token is already taken. Retried by the resolver.
	Conflict
	// Invalid: caller supplied unusable input.
	Invalid
	// Exhausted: no free token found within the attempt budget.
	Exhausted
	// Unavailable: the store or the entropy source failed.
	Unavailable
	Internal
)

var kindNames = [...]string{
	Unknown:     "Unknown",
	NotFound:    "NotFound",
	Conflict:    "Conflict",
	Invalid:     "Invalid",
	Exhausted:   "Exhausted",
	Unavailable: "Unavailable",
	Internal:    "Internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Error is an error tagged with the operation that produced it and its kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err. It returns nil when err is nil so callers can wrap unconditionally.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap records op on err while keeping the kind already carried by err.
func Wrap(op string, err error) error {
	return E(op, KindOf(err), err)
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op
	case e.Op == "":
		return e.Err.Error()
	default:
		return e.Op + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	if e, ok := asError(err); ok {
		return e.Kind
	}
	return Unknown
}

// OpOf reports the operation of the outermost *Error in err's chain.
func OpOf(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e, ok := asError(err)
	return ok && e.Kind == kind
}

func asError(err error) (*Error, bool) {
	var e *Error
	if err == nil || !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}
