package typesystem

import "fmt"

// UnknownTypeError indicates a name that is neither a registered class,
// a declared type variable, nor a builtin constructor.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %s", e.Name)
}

func NewUnknownTypeError(name string) *UnknownTypeError {
	return &UnknownTypeError{Name: name}
}

// ParseError reports a malformed type expression.
type ParseError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at %d: %s", e.Source, e.Pos, e.Msg)
}

// DeclarationError reports an invalid class or type variable declaration.
type DeclarationError struct {
	Name string
	Msg  string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("declaring %s: %s", e.Name, e.Msg)
}
