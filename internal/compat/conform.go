package compat

import (
	"fmt"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Conforms reports whether candidate exposes every public member of iface
// with a compatible type. The binding maps resolve variables that the
// nodes' own arguments leave open. Evaluation errors count as
// non-conformance.
func (e *Engine) Conforms(candidate, iface *descriptor.Node, candidateBindings, ifaceBindings typesystem.Subst) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("conformance check failed", "candidate", candidate, "interface", iface, "panic", r)
			ok = false
		}
	}()
	c := &checker{Engine: e}
	return c.conforms(candidate, iface, candidateBindings, ifaceBindings, 0)
}

func (c *checker) conformsNode(inst, tmpl *descriptor.Node, depth int) bool {
	key := inst.String() + " <: " + tmpl.String()
	if c.assumed[key] {
		return true
	}
	if c.assumed == nil {
		c.assumed = make(map[string]bool)
	}
	c.assumed[key] = true
	defer delete(c.assumed, key)
	return c.conforms(inst, tmpl, nil, nil, depth)
}

func (c *checker) conforms(cand, iface *descriptor.Node, cb, ib typesystem.Subst, depth int) bool {
	want, err := c.schema(iface, ib)
	if err != nil {
		c.logger.Debug("interface schema unavailable", "interface", iface, "err", err)
		return false
	}
	have, err := c.schema(cand, cb)
	if err != nil {
		c.logger.Debug("candidate schema unavailable", "candidate", cand, "err", err)
		return false
	}
	index := make(map[string]*descriptor.Node, len(have))
	for _, m := range have {
		index[m.name] = m.node
	}
	for _, m := range want {
		if m.private() {
			continue
		}
		got, ok := index[m.name]
		if !ok {
			return false
		}
		if !c.isSubtype(got, m.node, depth+1) {
			return false
		}
	}
	return true
}

type schemaMember struct {
	name string
	node *descriptor.Node
}

func (m schemaMember) private() bool {
	return typesystem.Member{Name: m.name}.Private()
}

// schema resolves the members of a class node, inherited ones included.
// Each member is substituted with the bindings of the class declaring it,
// then with extra.
func (c *checker) schema(n *descriptor.Node, extra typesystem.Subst) ([]schemaMember, error) {
	var out []schemaMember
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	err := c.walkClasses(n, visited, 0, func(cls *typesystem.Class, s typesystem.Subst) {
		for _, m := range cls.Members {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			node := descriptor.Substitute(c.node(m.Type), s, c.reducer)
			node = descriptor.Substitute(node, extra, c.reducer)
			out = append(out, schemaMember{name: m.Name, node: node})
		}
	})
	return out, err
}

// GenericBindings derives the bindings of a class node: its own parameters
// bound to its arguments, then the parameters of every base, substituted
// top-down so that arguments fixed by a subclass reach the bases. Nearer
// classes win on name clashes.
func (e *Engine) GenericBindings(n *descriptor.Node) (typesystem.Subst, error) {
	c := &checker{Engine: e}
	out := typesystem.Subst{}
	err := c.walkClasses(n, make(map[string]bool), 0, func(_ *typesystem.Class, s typesystem.Subst) {
		for k, v := range s {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *checker) walkClasses(n *descriptor.Node, visited map[string]bool, depth int, visit func(*typesystem.Class, typesystem.Subst)) error {
	if depth > config.MaxRecursion {
		return &ConformanceEvaluationError{Class: n.String(), Err: fmt.Errorf("inheritance deeper than %d", config.MaxRecursion)}
	}
	cls, ok := c.class(n)
	if !ok || visited[cls.Name] {
		return nil
	}
	visited[cls.Name] = true

	s, err := c.ownBindings(cls, n)
	if err != nil {
		return err
	}
	visit(cls, s)
	for _, base := range cls.Bases {
		if err := c.walkClasses(c.node(base.Apply(s)), visited, depth+1, visit); err != nil {
			return err
		}
	}
	return nil
}

// ownBindings binds the parameters of cls to the arguments of n by
// unifying the class against n. An unparameterized node leaves them open.
func (c *checker) ownBindings(cls *typesystem.Class, n *descriptor.Node) (typesystem.Subst, error) {
	if !cls.Generic() || !n.Parameterized() {
		return typesystem.Subst{}, nil
	}
	if len(n.Args) != len(cls.Params) {
		return nil, &ConformanceEvaluationError{
			Class: cls.Name,
			Err:   fmt.Errorf("missing generic parameter: expected %d arguments, got %d", len(cls.Params), len(n.Args)),
		}
	}
	s, err := c.Unify(c.node(cls.SelfType()), n)
	if err != nil {
		return nil, &ConformanceEvaluationError{Class: cls.Name, Err: err}
	}
	return s, nil
}
