// Package descriptor holds the canonical tree form of type expressions
// used by the matching engine.
package descriptor

import (
	"strings"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Kind classifies the origin of a descriptor node.
type Kind int

const (
	// KindClass is a registered nominal class, possibly generic.
	KindClass Kind = iota
	// KindUnion holds its branches as args.
	KindUnion
	// KindCallable holds a parameter group and a return node.
	KindCallable
	// KindTypeOf wraps the class of a type object.
	KindTypeOf
	// KindVar is an unresolved type variable.
	KindVar
	// KindAny matches everything.
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindUnion:
		return "union"
	case KindCallable:
		return "callable"
	case KindTypeOf:
		return "typeof"
	case KindVar:
		return "var"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// Origin identifies what a node is. Name is the class name for classes,
// "Union" or "Optional" for unions. Var is set for KindVar only.
type Origin struct {
	Kind Kind
	Name string
	Var  typesystem.TVar
}

// Same reports origin equality. Optional and Union spellings compare equal.
func (o Origin) Same(other Origin) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case KindUnion, KindAny:
		return true
	case KindVar:
		return o.Var.Name == other.Var.Name
	default:
		return o.Name == other.Name
	}
}

// Arg is one argument slot: a single node, or a group of nodes standing
// for a parameter list.
type Arg struct {
	Node    *Node
	Group   []*Node
	Grouped bool
}

// Single wraps a node as an argument slot.
func Single(n *Node) Arg {
	return Arg{Node: n}
}

// Group wraps nodes as a grouped argument slot.
func Group(nodes ...*Node) Arg {
	if nodes == nil {
		nodes = []*Node{}
	}
	return Arg{Group: nodes, Grouped: true}
}

// Node is an immutable type descriptor. Nil Args means unparameterized.
type Node struct {
	Origin Origin
	Args   []Arg
}

// Any is the shared wildcard node.
var Any = &Node{Origin: Origin{Kind: KindAny, Name: config.AnyTypeName}}

// Leaf builds an unparameterized class node.
func Leaf(name string) *Node {
	return &Node{Origin: Origin{Kind: KindClass, Name: name}}
}

// NewClass builds a class node with plain arguments.
func NewClass(name string, args ...*Node) *Node {
	n := Leaf(name)
	if len(args) > 0 {
		n.Args = singles(args)
	}
	return n
}

// NewUnion builds a union node with branches in the given order.
func NewUnion(branches ...*Node) *Node {
	return &Node{Origin: Origin{Kind: KindUnion, Name: config.UnionTypeName}, Args: singles(branches)}
}

// NewOptional builds Optional[x], a union of x and Nil.
func NewOptional(x *Node) *Node {
	return &Node{
		Origin: Origin{Kind: KindUnion, Name: config.OptionalTypeName},
		Args:   singles([]*Node{x, Leaf(config.NilTypeName)}),
	}
}

// NewCallable builds Callable[[params...], ret].
func NewCallable(params []*Node, ret *Node) *Node {
	return &Node{
		Origin: Origin{Kind: KindCallable, Name: config.CallableTypeName},
		Args:   []Arg{Group(params...), Single(ret)},
	}
}

// NewVariadicCallable builds Callable[..., ret].
func NewVariadicCallable(ret *Node) *Node {
	return &Node{
		Origin: Origin{Kind: KindCallable, Name: config.CallableTypeName},
		Args:   []Arg{Single(Any), Single(ret)},
	}
}

// NewTypeOf builds Type[x]; a nil x gives the bare form.
func NewTypeOf(x *Node) *Node {
	n := &Node{Origin: Origin{Kind: KindTypeOf, Name: config.TypeOfTypeName}}
	if x != nil {
		n.Args = []Arg{Single(x)}
	}
	return n
}

// NewVar builds a type variable leaf.
func NewVar(v typesystem.TVar) *Node {
	return &Node{Origin: Origin{Kind: KindVar, Name: v.Name, Var: v}}
}

func singles(nodes []*Node) []Arg {
	args := make([]Arg, len(nodes))
	for i, n := range nodes {
		args[i] = Single(n)
	}
	return args
}

// IsAny reports whether the node is the wildcard.
func (n *Node) IsAny() bool {
	return n.Origin.Kind == KindAny
}

// IsUnion reports whether the node is a union.
func (n *Node) IsUnion() bool {
	return n.Origin.Kind == KindUnion
}

// IsOptional reports whether the node is a union spelled Optional[...].
func (n *Node) IsOptional() bool {
	return n.Origin.Kind == KindUnion && n.Origin.Name == config.OptionalTypeName
}

// IsVar reports whether the node is a type variable.
func (n *Node) IsVar() bool {
	return n.Origin.Kind == KindVar
}

// Parameterized reports whether the node carries arguments.
func (n *Node) Parameterized() bool {
	return n.Args != nil
}

// Branches returns the members of a union, or the node itself otherwise.
func (n *Node) Branches() []*Node {
	if !n.IsUnion() {
		return []*Node{n}
	}
	out := make([]*Node, 0, len(n.Args))
	for _, a := range n.Args {
		if a.Grouped {
			out = append(out, a.Group...)
			continue
		}
		out = append(out, a.Node)
	}
	return out
}

// Concrete reports whether no type variable appears in the subtree.
func (n *Node) Concrete() bool {
	if n.IsVar() {
		return false
	}
	for _, a := range n.Args {
		if a.Grouped {
			for _, g := range a.Group {
				if !g.Concrete() {
					return false
				}
			}
			continue
		}
		if !a.Node.Concrete() {
			return false
		}
	}
	return true
}

// Vars lists the type variables in the subtree, first occurrence first.
func (n *Node) Vars() []typesystem.TVar {
	var out []typesystem.TVar
	seen := make(map[string]bool)
	n.walk(func(m *Node) {
		if m.IsVar() && !seen[m.Origin.Var.Name] {
			seen[m.Origin.Var.Name] = true
			out = append(out, m.Origin.Var)
		}
	})
	return out
}

// Depth is the number of levels in the tree; a leaf has depth 1.
func (n *Node) Depth() int {
	deepest := 0
	for _, a := range n.Args {
		if a.Grouped {
			for _, g := range a.Group {
				if d := g.Depth(); d > deepest {
					deepest = d
				}
			}
			continue
		}
		if d := a.Node.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, a := range n.Args {
		if a.Grouped {
			for _, g := range a.Group {
				g.walk(fn)
			}
			continue
		}
		a.Node.walk(fn)
	}
}

// Equal reports structural equality: same origin and same ordered args.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if !a.Origin.Same(b.Origin) || len(a.Args) != len(b.Args) || a.Parameterized() != b.Parameterized() {
		return false
	}
	for i := range a.Args {
		x, y := a.Args[i], b.Args[i]
		if x.Grouped != y.Grouped {
			return false
		}
		if x.Grouped {
			if len(x.Group) != len(y.Group) {
				return false
			}
			for j := range x.Group {
				if !Equal(x.Group[j], y.Group[j]) {
					return false
				}
			}
			continue
		}
		if !Equal(x.Node, y.Node) {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Origin.Kind {
	case KindAny:
		sb.WriteString(config.AnyTypeName)
		return
	case KindVar:
		sb.WriteString(n.Origin.Var.Name)
		return
	case KindUnion:
		if n.IsOptional() && len(n.Args) == 2 && !n.Args[0].Grouped {
			sb.WriteString(config.OptionalTypeName)
			sb.WriteString("[")
			n.Args[0].Node.write(sb)
			sb.WriteString("]")
			return
		}
		sb.WriteString(config.UnionTypeName)
	case KindCallable:
		sb.WriteString(config.CallableTypeName)
		if len(n.Args) == 2 && !n.Args[0].Grouped && n.Args[0].Node.IsAny() {
			sb.WriteString("[..., ")
			n.Args[1].Node.write(sb)
			sb.WriteString("]")
			return
		}
	default:
		sb.WriteString(n.Origin.Name)
	}
	if n.Args == nil {
		return
	}
	sb.WriteString("[")
	for i, a := range n.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeArg(sb, a)
	}
	sb.WriteString("]")
}

func writeArg(sb *strings.Builder, a Arg) {
	if !a.Grouped {
		a.Node.write(sb)
		return
	}
	sb.WriteString("[")
	for j, g := range a.Group {
		if j > 0 {
			sb.WriteString(", ")
		}
		g.write(sb)
	}
	sb.WriteString("]")
}
