package compat

import (
	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/typesystem"
)

// IsSubtype reports whether instance is a structural subtype of template.
// It never panics: failures inside delegated checks count as false.
func (e *Engine) IsSubtype(instance, template *descriptor.Node) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("subtype check failed", "instance", instance, "template", template, "panic", r)
			ok = false
		}
	}()
	c := &checker{Engine: e}
	return c.isSubtype(instance, template, 0)
}

// checker carries the state of one top-level query. Conformance pairs
// under evaluation are assumed to hold so self-referential protocols
// terminate.
type checker struct {
	*Engine
	assumed map[string]bool
}

func (c *checker) isSubtype(inst, tmpl *descriptor.Node, depth int) bool {
	if depth > config.MaxRecursion {
		c.logger.Debug("recursion ceiling reached", "instance", inst, "template", tmpl)
		return false
	}
	if inst == nil || tmpl == nil {
		return false
	}

	if tmpl.IsAny() || descriptor.Equal(inst, tmpl) {
		return true
	}

	// Every instance branch must match.
	if inst.IsUnion() {
		for _, b := range inst.Branches() {
			if !c.isSubtype(b, tmpl, depth+1) {
				return false
			}
		}
		return true
	}

	if tmpl.IsVar() {
		return c.satisfiesVar(inst, c.varDecl(tmpl.Origin.Var), depth)
	}
	// An instance variable is judged as a whole, before template branches.
	if inst.IsVar() {
		return c.varSubtype(c.varDecl(inst.Origin.Var), tmpl, depth)
	}

	// One template branch suffices.
	if tmpl.IsUnion() {
		for _, b := range tmpl.Branches() {
			if c.isSubtype(inst, b, depth+1) {
				return true
			}
		}
		return false
	}

	if cls, ok := c.class(tmpl); ok && cls.Kind == typesystem.Protocol {
		if c.nominal(inst, tmpl, depth) {
			return true
		}
		return c.conformsNode(inst, tmpl, depth)
	}

	return c.nominal(inst, tmpl, depth)
}

// satisfiesVar checks an instance against the bound and constraints of a
// template variable. An unrestricted variable matches anything.
func (c *checker) satisfiesVar(inst *descriptor.Node, v typesystem.TVar, depth int) bool {
	if v.Bound != nil && !c.isSubtype(inst, c.node(v.Bound), depth+1) {
		return false
	}
	if len(v.Constraints) == 0 {
		return true
	}
	for _, con := range v.Constraints {
		if c.isSubtype(inst, c.node(con), depth+1) {
			return true
		}
	}
	return false
}

// varSubtype checks an instance variable against a template through what
// the variable is known to be: its bound, or every one of its constraints.
func (c *checker) varSubtype(v typesystem.TVar, tmpl *descriptor.Node, depth int) bool {
	if isObject(tmpl) {
		return true
	}
	if v.Bound != nil && c.isSubtype(c.node(v.Bound), tmpl, depth+1) {
		return true
	}
	if len(v.Constraints) == 0 {
		return false
	}
	for _, con := range v.Constraints {
		if !c.isSubtype(c.node(con), tmpl, depth+1) {
			return false
		}
	}
	return true
}

func isObject(n *descriptor.Node) bool {
	return n.Origin.Kind == descriptor.KindClass && n.Origin.Name == config.ObjectTypeName && !n.Parameterized()
}

// nominal compares origins through declared inheritance, then arguments
// pairwise. An unparameterized template accepts any parameterization.
func (c *checker) nominal(inst, tmpl *descriptor.Node, depth int) bool {
	if isObject(tmpl) {
		return true
	}
	if inst.Origin.Kind != tmpl.Origin.Kind {
		return false
	}
	if inst.Origin.Kind == descriptor.KindClass && !c.registry.IsSubclass(inst.Origin.Name, tmpl.Origin.Name) {
		return false
	}
	if !tmpl.Parameterized() {
		return true
	}
	if !inst.Parameterized() || len(inst.Args) != len(tmpl.Args) {
		return false
	}
	for i := range tmpl.Args {
		if !c.argSubtype(inst.Args[i], tmpl.Args[i], depth) {
			return false
		}
	}
	return true
}

func (c *checker) argSubtype(inst, tmpl descriptor.Arg, depth int) bool {
	if !tmpl.Grouped && tmpl.Node.IsAny() {
		return true
	}
	if inst.Grouped != tmpl.Grouped {
		return false
	}
	if !tmpl.Grouped {
		return c.isSubtype(inst.Node, tmpl.Node, depth+1)
	}
	if len(inst.Group) != len(tmpl.Group) {
		return false
	}
	for j := range tmpl.Group {
		if !c.isSubtype(inst.Group[j], tmpl.Group[j], depth+1) {
			return false
		}
	}
	return true
}
