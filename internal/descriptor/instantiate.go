package descriptor

import (
	"fmt"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// UnresolvedOptionalError reports an Optional whose substituted branches do
// not leave exactly one non-Nil type.
type UnresolvedOptionalError struct {
	Node   string
	NonNil int
}

func (e *UnresolvedOptionalError) Error() string {
	return fmt.Sprintf("cannot resolve %s: expected exactly one non-Nil branch, got %d", e.Node, e.NonNil)
}

// MalformedError reports a descriptor that has no type expression form.
type MalformedError struct {
	Node string
	Msg  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed descriptor %s: %s", e.Node, e.Msg)
}

// Instantiate rebuilds a type expression from n, replacing every type
// variable bound in s. Unions keep all branches; an Optional must keep
// exactly one non-Nil branch.
func Instantiate(n *Node, s typesystem.Subst) (typesystem.Type, error) {
	return build(n, s, true)
}

// ToType rebuilds the type expression of n as is. Optionals that lost
// their non-Nil branch degrade to plain unions.
func ToType(n *Node) typesystem.Type {
	t, err := build(n, nil, false)
	if err != nil {
		return typesystem.TCon{Name: n.String()}
	}
	return t
}

func build(n *Node, s typesystem.Subst, strict bool) (typesystem.Type, error) {
	switch n.Origin.Kind {
	case KindAny:
		return typesystem.Any, nil

	case KindVar:
		if t, ok := s[n.Origin.Var.Name]; ok {
			return t, nil
		}
		return n.Origin.Var, nil

	case KindUnion:
		branches := n.Branches()
		types := make([]typesystem.Type, len(branches))
		for i, b := range branches {
			t, err := build(b, s, strict)
			if err != nil {
				return nil, err
			}
			types[i] = t
		}
		if !n.IsOptional() {
			return typesystem.TUnion{Types: types}, nil
		}
		var present []typesystem.Type
		for _, t := range types {
			if !typesystem.Equal(t, typesystem.Nil) {
				present = append(present, t)
			}
		}
		if len(present) == 1 {
			return typesystem.NewOptional(present[0]), nil
		}
		if strict {
			return nil, &UnresolvedOptionalError{Node: n.String(), NonNil: len(present)}
		}
		return typesystem.TUnion{Types: types}, nil

	case KindCallable:
		if n.Args == nil {
			return typesystem.TCon{Name: config.CallableTypeName}, nil
		}
		if len(n.Args) != 2 || n.Args[1].Grouped {
			return nil, &MalformedError{Node: n.String(), Msg: "callable needs parameters and a return type"}
		}
		ret, err := build(n.Args[1].Node, s, strict)
		if err != nil {
			return nil, err
		}
		head := n.Args[0]
		if !head.Grouped {
			if head.Node.IsAny() {
				return typesystem.TFunc{Return: ret, Ellipsis: true}, nil
			}
			return nil, &MalformedError{Node: n.String(), Msg: "callable parameters must be a group"}
		}
		params := make([]typesystem.Type, len(head.Group))
		for i, p := range head.Group {
			if params[i], err = build(p, s, strict); err != nil {
				return nil, err
			}
		}
		return typesystem.TFunc{Params: params, Return: ret}, nil

	case KindTypeOf:
		if len(n.Args) == 0 {
			return typesystem.TType{}, nil
		}
		if n.Args[0].Grouped {
			return nil, &MalformedError{Node: n.String(), Msg: "type-of takes a single type"}
		}
		inner, err := build(n.Args[0].Node, s, strict)
		if err != nil {
			return nil, err
		}
		return typesystem.TType{Type: inner}, nil

	default:
		con := typesystem.TCon{Name: n.Origin.Name}
		if n.Args == nil {
			return con, nil
		}
		args := make([]typesystem.Type, len(n.Args))
		for i, a := range n.Args {
			if a.Grouped {
				return nil, &MalformedError{Node: n.String(), Msg: "parameter group outside a callable"}
			}
			t, err := build(a.Node, s, strict)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return typesystem.TApp{Constructor: con, Args: args}, nil
	}
}

// Substitute returns a copy of n with every type variable bound in s
// replaced by the reduced bound type. Unbound variables are kept.
func Substitute(n *Node, s typesystem.Subst, r *Reducer) *Node {
	if len(s) == 0 {
		return n
	}
	if n.IsVar() {
		t, ok := s[n.Origin.Var.Name]
		if !ok {
			return n
		}
		if r == nil {
			sub, _ := Reduce(t)
			return sub
		}
		sub, _ := r.Reduce(t)
		return sub
	}
	if n.Args == nil {
		return n
	}
	out := &Node{Origin: n.Origin, Args: make([]Arg, len(n.Args))}
	for i, a := range n.Args {
		if a.Grouped {
			group := make([]*Node, len(a.Group))
			for j, g := range a.Group {
				group[j] = Substitute(g, s, r)
			}
			out.Args[i] = Group(group...)
			continue
		}
		out.Args[i] = Single(Substitute(a.Node, s, r))
	}
	return out
}
