package sema

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownNamespace           = errors.New("unknown namespace")
	ErrTemplateEnclosingNamespace = errors.New("enclosing class template used as a namespace is not supported")
	ErrUnexpectedShape            = errors.New("unexpected node shape")
	ErrDuplicateDefinition        = errors.New("duplicate definition")
	ErrAlreadyRegistered          = errors.New("entity already registered")
)

// StructuralError reports a raw node or lookup path that does not have the
// shape an operation requires. Callers may skip the offending node.
type StructuralError struct {
	Op   string
	Name string
	Err  error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("sema: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// AmbiguityError reports two definitions of one identity in one scope, or a
// modifier chain that cannot be represented. It must never be ignored.
type AmbiguityError struct {
	Op   string
	Name string
	Err  error
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("sema: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *AmbiguityError) Unwrap() error { return e.Err }

// IsStructural reports whether err wraps a *StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// IsAmbiguity reports whether err wraps an *AmbiguityError.
func IsAmbiguity(err error) bool {
	var ae *AmbiguityError
	return errors.As(err, &ae)
}
