package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure reported by the loader, resolver and validator
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	ErrMalformedDescription = errors.New("malformed description")
	ErrUnresolvedType       = errors.New("unresolved type")
	ErrWrongSelfMode        = errors.New("wrong self mode")
	ErrNameCollision        = errors.New("name collision")
)

// Error is a description error tied to a location in the API description.
type Error struct {
	Kind    error  // one of the Err* kinds above
	Path    string // e.g., "dom.Dom.functions[1].args.child"
	Name    string // offending type, class or operation name
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, path, name, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Name: name, Message: fmt.Sprintf(format, args...)}
}
