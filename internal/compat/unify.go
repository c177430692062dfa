package compat

import (
	"fmt"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Unify walks template and instance in lockstep and binds every template
// variable to the type found at the same position in instance. A variable
// seen twice keeps its last binding. Shape disagreements are reported as
// *StructuralMismatchError.
func (e *Engine) Unify(template, instance *descriptor.Node) (typesystem.Subst, error) {
	s := typesystem.Subst{}
	if err := e.unify(template, instance, s, 0); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) unify(tmpl, inst *descriptor.Node, s typesystem.Subst, depth int) error {
	if depth > config.MaxRecursion {
		return newMismatch(tmpl, inst, fmt.Sprintf("nesting deeper than %d", config.MaxRecursion))
	}
	if tmpl.IsVar() {
		s[tmpl.Origin.Var.Name] = descriptor.ToType(inst)
		return nil
	}
	if tmpl.IsAny() {
		return nil
	}
	if !e.originSatisfies(inst, tmpl) {
		return newMismatch(tmpl, inst, fmt.Sprintf("%s does not satisfy %s", originName(inst), originName(tmpl)))
	}
	if !tmpl.Parameterized() {
		return nil
	}
	if !inst.Parameterized() {
		return newMismatch(tmpl, inst, "instance has no type arguments")
	}
	if len(tmpl.Args) != len(inst.Args) {
		return newMismatch(tmpl, inst, fmt.Sprintf("expected %d type arguments, got %d", len(tmpl.Args), len(inst.Args)))
	}
	for i := range tmpl.Args {
		ta, ia := tmpl.Args[i], inst.Args[i]
		switch {
		case !ta.Grouped && ta.Node.IsAny():
			continue
		case ta.Grouped != ia.Grouped:
			return newMismatch(tmpl, inst, fmt.Sprintf("argument %d differs in shape", i))
		case !ta.Grouped:
			if err := e.unify(ta.Node, ia.Node, s, depth+1); err != nil {
				return err
			}
		default:
			if len(ta.Group) != len(ia.Group) {
				return newMismatch(tmpl, inst, fmt.Sprintf("argument %d: expected %d parameters, got %d", i, len(ta.Group), len(ia.Group)))
			}
			for j := range ta.Group {
				if err := e.unify(ta.Group[j], ia.Group[j], s, depth+1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// originSatisfies compares origins only: same kind, and for classes
// nominal inheritance.
func (e *Engine) originSatisfies(inst, tmpl *descriptor.Node) bool {
	if isObject(tmpl) {
		return true
	}
	if inst.Origin.Kind != tmpl.Origin.Kind {
		return false
	}
	if inst.Origin.Kind == descriptor.KindClass {
		return e.registry.IsSubclass(inst.Origin.Name, tmpl.Origin.Name)
	}
	return true
}

func originName(n *descriptor.Node) string {
	if n.Origin.Kind == descriptor.KindVar {
		return n.Origin.Var.Name
	}
	return n.Origin.Name
}
