package compat

import (
	"errors"

	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/typesystem"
	"github.com/funvibe/liketype/internal/validate"
)

// IsInstance reports whether v matches target. The validator decides first;
// when it cannot, the inferred type of v is checked structurally against
// target. A target carrying value constraints (Annotated, Literal) that the
// validator rejected, or whose schema does not compile, is not rescued by
// the structural check, which cannot see those constraints.
func (e *Engine) IsInstance(v any, target typesystem.Type) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("instance check failed", "target", target, "panic", r)
			ok = false
		}
	}()

	target = e.registry.ExpandAliases(target)
	tmpl, meta := e.reducer.Reduce(target)

	if e.validator != nil {
		err := e.validator.Validate(v, target)
		if err == nil {
			return true
		}
		if !errors.Is(err, validate.ErrUnsupported) {
			if meta.Constrained() {
				e.logger.Debug("constrained target rejected", "target", target, "err", err)
				return false
			}
			e.logger.Debug("validation failed, falling back to structural match", "target", target, "err", err)
		}
	}

	if tmpl.Origin.Kind == descriptor.KindTypeOf {
		if t, isType := v.(typesystem.Type); isType {
			if e.IsSubtype(descriptor.NewTypeOf(e.node(t)), tmpl) {
				return true
			}
		}
	}

	return e.IsSubtype(e.Infer(v, e.maxDepth, e.maxSample), tmpl)
}
