package descriptor

import (
	"sync"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Metadata is what reduction strips from a type expression and hands to
// the value validator instead: Annotated constraint expressions and
// Literal value sets, in encounter order.
type Metadata struct {
	Annotations []string
	Literals    [][]any
}

// Constrained reports whether the expression carried value constraints.
func (m Metadata) Constrained() bool {
	return len(m.Annotations) > 0 || len(m.Literals) > 0
}

type reduced struct {
	node *Node
	meta Metadata
}

// Reducer converts type expressions into descriptors. Results are memoized
// per expression and shared read-only, so a Reducer is safe for
// concurrent use.
type Reducer struct {
	cache sync.Map // typesystem.Key -> reduced
}

// NewReducer creates an empty reducer.
func NewReducer() *Reducer {
	return &Reducer{}
}

// Reduce returns the descriptor of t and the metadata stripped from it.
func (r *Reducer) Reduce(t typesystem.Type) (*Node, Metadata) {
	if t == nil {
		return Any, Metadata{}
	}
	key := typesystem.Key(t)
	if cached, ok := r.cache.Load(key); ok {
		res := cached.(reduced)
		return res.node, res.meta
	}
	var meta Metadata
	node := reduce(t, &meta)
	actual, _ := r.cache.LoadOrStore(key, reduced{node: node, meta: meta})
	res := actual.(reduced)
	return res.node, res.meta
}

// Reduce converts t without memoization.
func Reduce(t typesystem.Type) (*Node, Metadata) {
	var meta Metadata
	return reduce(t, &meta), meta
}

func reduce(t typesystem.Type, meta *Metadata) *Node {
	switch typ := t.(type) {
	case nil:
		return Any
	case typesystem.TCon:
		switch typ.Name {
		case config.AnyTypeName:
			return Any
		case config.CallableTypeName:
			return &Node{Origin: Origin{Kind: KindCallable, Name: config.CallableTypeName}}
		}
		return Leaf(typ.Name)
	case typesystem.TApp:
		n := Leaf(typ.Constructor.Name)
		if len(typ.Args) > 0 {
			n.Args = make([]Arg, len(typ.Args))
			for i, a := range typ.Args {
				n.Args[i] = Single(reduce(a, meta))
			}
		}
		return n
	case typesystem.TUnion:
		branches := make([]*Node, len(typ.Types))
		for i, b := range typ.Types {
			branches[i] = reduce(b, meta)
		}
		n := NewUnion(branches...)
		if typ.Optional {
			n.Origin.Name = config.OptionalTypeName
		}
		return n
	case typesystem.TVar:
		return NewVar(typ)
	case typesystem.TFunc:
		ret := reduce(typ.Return, meta)
		if typ.Ellipsis {
			return NewVariadicCallable(ret)
		}
		params := make([]*Node, len(typ.Params))
		for i, p := range typ.Params {
			params[i] = reduce(p, meta)
		}
		return NewCallable(params, ret)
	case typesystem.TType:
		if typ.Type == nil {
			return NewTypeOf(nil)
		}
		return NewTypeOf(reduce(typ.Type, meta))
	case typesystem.TAnnotated:
		meta.Annotations = append(meta.Annotations, typ.Metadata...)
		return reduce(typ.Type, meta)
	case typesystem.TLiteral:
		meta.Literals = append(meta.Literals, typ.Values)
		return literalClasses(typ.Values)
	default:
		return Leaf(t.String())
	}
}

// literalClasses is the union of the classes of the literal values, each
// class listed once.
func literalClasses(values []any) *Node {
	var branches []*Node
	seen := make(map[string]bool)
	for _, v := range values {
		name := LiteralClass(v)
		if !seen[name] {
			seen[name] = true
			branches = append(branches, Leaf(name))
		}
	}
	switch len(branches) {
	case 0:
		return Leaf(config.NilTypeName)
	case 1:
		return branches[0]
	default:
		return NewUnion(branches...)
	}
}

// LiteralClass names the builtin class of a literal value.
func LiteralClass(v any) string {
	switch v.(type) {
	case nil:
		return config.NilTypeName
	case bool:
		return config.BoolTypeName
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return config.IntTypeName
	case float32, float64:
		return config.FloatTypeName
	case string:
		return config.StringTypeName
	default:
		return config.ObjectTypeName
	}
}
