package compat

import (
	"fmt"

	"github.com/funvibe/liketype/internal/descriptor"
)

// StructuralMismatchError reports why a template could not be unified
// with an instance.
type StructuralMismatchError struct {
	Template string
	Instance string
	Reason   string
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", e.Template, e.Instance, e.Reason)
}

func newMismatch(template, instance *descriptor.Node, reason string) *StructuralMismatchError {
	return &StructuralMismatchError{Template: template.String(), Instance: instance.String(), Reason: reason}
}

// ConformanceEvaluationError wraps a failure while resolving the member
// schema of a class during a conformance check. Conformance reports such
// failures as non-conformance; the error is only logged.
type ConformanceEvaluationError struct {
	Class string
	Err   error
}

func (e *ConformanceEvaluationError) Error() string {
	return fmt.Sprintf("evaluating %s: %v", e.Class, e.Err)
}

func (e *ConformanceEvaluationError) Unwrap() error {
	return e.Err
}

// UnresolvedOptionalError is returned by Instantiate when an Optional does
// not keep exactly one non-Nil branch.
type UnresolvedOptionalError = descriptor.UnresolvedOptionalError
