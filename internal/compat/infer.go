package compat

import (
	"reflect"
	"sort"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Tuple is a fixed-arity sequence whose positions are typed independently.
type Tuple []any

// Typed is implemented by values that declare their own type expression,
// such as instances of user-defined generic classes.
type Typed interface {
	TypeExpr() typesystem.Type
}

var (
	bytesType = reflect.TypeOf([]byte(nil))
	tupleType = reflect.TypeOf(Tuple(nil))
)

// Infer approximates the narrowest descriptor for v.
//
// maxDepth bounds recursion into containers; at depth 0 only the coarse
// class of v is reported. maxSample bounds how many elements of a sequence
// are inspected, at an even stride; zero or less inspects all of them.
// Sampling may miss element types, so a sampled collection can infer
// narrower than it is.
func (e *Engine) Infer(v any, maxDepth, maxSample int) *descriptor.Node {
	if maxDepth > config.MaxRecursion {
		maxDepth = config.MaxRecursion
	}
	in := &inference{Engine: e, maxSample: maxSample}
	return in.infer(v, maxDepth)
}

// inference carries the state of one Infer call. visiting holds the
// pointers on the current path, so a pointer cycle ends at its first
// repeat.
type inference struct {
	*Engine
	maxSample int
	visiting  map[uintptr]bool
}

func (in *inference) infer(v any, depth int) *descriptor.Node {
	e := in.Engine
	switch x := v.(type) {
	case nil:
		return descriptor.Leaf(config.NilTypeName)
	case typesystem.Type:
		if depth <= 0 {
			return descriptor.NewTypeOf(nil)
		}
		return descriptor.NewTypeOf(e.node(x))
	case Typed:
		return coarsen(e.node(x.TypeExpr()), depth)
	case Tuple:
		if depth <= 0 || len(x) == 0 {
			return descriptor.Leaf(config.TupleTypeName)
		}
		elems := make([]*descriptor.Node, len(x))
		for i, el := range x {
			elems[i] = in.infer(el, depth-1)
		}
		return descriptor.NewClass(config.TupleTypeName, elems...)
	case []byte:
		return descriptor.Leaf(config.BytesTypeName)
	}

	for _, hook := range e.registry.ValueTypers() {
		if t, ok := hook.TypeOfValue(v); ok {
			return coarsen(e.node(t), depth)
		}
	}

	rv := reflect.ValueOf(v)
	if name, ok := e.registry.GoClass(rv.Type()); ok {
		return descriptor.Leaf(name)
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if depth <= 0 || rv.Len() == 0 {
			return descriptor.Leaf(config.ListTypeName)
		}
		var elems []*descriptor.Node
		for _, i := range sampleIndices(rv.Len(), in.maxSample) {
			elems = append(elems, in.infer(rv.Index(i).Interface(), depth-1))
		}
		return descriptor.NewClass(config.ListTypeName, merge(elems))

	case reflect.Map:
		if depth <= 0 || rv.Len() == 0 {
			return descriptor.Leaf(config.MapTypeName)
		}
		var keys, values []*descriptor.Node
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, in.infer(iter.Key().Interface(), depth-1))
			values = append(values, in.infer(iter.Value().Interface(), depth-1))
		}
		return descriptor.NewClass(config.MapTypeName, merge(keys), merge(values))

	case reflect.Func:
		if depth <= 0 {
			return &descriptor.Node{Origin: descriptor.Origin{Kind: descriptor.KindCallable, Name: config.CallableTypeName}}
		}
		return e.goTypeNode(rv.Type(), depth)

	case reflect.Pointer:
		if rv.IsNil() {
			return descriptor.Leaf(config.NilTypeName)
		}
		p := rv.Pointer()
		if in.visiting[p] {
			return e.goTypeNode(rv.Type(), 0)
		}
		if in.visiting == nil {
			in.visiting = make(map[uintptr]bool)
		}
		in.visiting[p] = true
		defer delete(in.visiting, p)
		return in.infer(rv.Elem().Interface(), depth)
	}

	return e.goTypeNode(rv.Type(), 0)
}

// goTypeNode describes a static Go type, as found in function signatures.
func (e *Engine) goTypeNode(rt reflect.Type, depth int) *descriptor.Node {
	if name, ok := e.registry.GoClass(rt); ok {
		return descriptor.Leaf(name)
	}
	switch rt {
	case bytesType:
		return descriptor.Leaf(config.BytesTypeName)
	case tupleType:
		return descriptor.Leaf(config.TupleTypeName)
	}

	switch rt.Kind() {
	case reflect.Bool:
		return descriptor.Leaf(config.BoolTypeName)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return descriptor.Leaf(config.IntTypeName)
	case reflect.Float32, reflect.Float64:
		return descriptor.Leaf(config.FloatTypeName)
	case reflect.String:
		return descriptor.Leaf(config.StringTypeName)
	case reflect.Interface:
		if rt.NumMethod() == 0 {
			return descriptor.Any
		}
	case reflect.Pointer:
		elem, ok := pointee(rt)
		if !ok {
			return descriptor.Leaf(rt.String())
		}
		return e.goTypeNode(elem, depth)
	case reflect.Slice, reflect.Array:
		if depth <= 0 {
			return descriptor.Leaf(config.ListTypeName)
		}
		return descriptor.NewClass(config.ListTypeName, e.goTypeNode(rt.Elem(), depth-1))
	case reflect.Map:
		if depth <= 0 {
			return descriptor.Leaf(config.MapTypeName)
		}
		return descriptor.NewClass(config.MapTypeName, e.goTypeNode(rt.Key(), depth-1), e.goTypeNode(rt.Elem(), depth-1))
	case reflect.Func:
		if depth <= 0 {
			return &descriptor.Node{Origin: descriptor.Origin{Kind: descriptor.KindCallable, Name: config.CallableTypeName}}
		}
		params := make([]*descriptor.Node, rt.NumIn())
		for i := range params {
			params[i] = e.goTypeNode(rt.In(i), depth-1)
		}
		var ret *descriptor.Node
		switch rt.NumOut() {
		case 0:
			ret = descriptor.Leaf(config.NilTypeName)
		case 1:
			ret = e.goTypeNode(rt.Out(0), depth-1)
		default:
			outs := make([]*descriptor.Node, rt.NumOut())
			for i := range outs {
				outs[i] = e.goTypeNode(rt.Out(i), depth-1)
			}
			ret = descriptor.NewClass(config.TupleTypeName, outs...)
		}
		return descriptor.NewCallable(params, ret)
	}
	return descriptor.Leaf(rt.String())
}

// pointee follows a chain of pointer types to the first non-pointer type.
// It fails for recursive pointer types such as type P *P.
func pointee(rt reflect.Type) (reflect.Type, bool) {
	seen := map[reflect.Type]bool{rt: true}
	elem := rt.Elem()
	for elem.Kind() == reflect.Pointer {
		if seen[elem] {
			return nil, false
		}
		seen[elem] = true
		elem = elem.Elem()
	}
	return elem, true
}

// coarsen drops the arguments of n once the depth budget is spent.
func coarsen(n *descriptor.Node, depth int) *descriptor.Node {
	if depth > 0 || !n.Parameterized() {
		return n
	}
	return &descriptor.Node{Origin: n.Origin}
}

// merge collapses observed element descriptors: one distinct descriptor
// stands alone, several form a union ordered by their string form.
func merge(nodes []*descriptor.Node) *descriptor.Node {
	var distinct []*descriptor.Node
	for _, n := range nodes {
		dup := false
		for _, d := range distinct {
			if descriptor.Equal(n, d) {
				dup = true
				break
			}
		}
		if !dup {
			distinct = append(distinct, n)
		}
	}
	if len(distinct) == 1 {
		return distinct[0]
	}
	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].String() < distinct[j].String()
	})
	return descriptor.NewUnion(distinct...)
}

// sampleIndices picks at most maxSample indices out of n at an even stride.
func sampleIndices(n, maxSample int) []int {
	count := n
	if maxSample > 0 && maxSample < n {
		count = maxSample
	}
	idx := make([]int, count)
	for i := range idx {
		idx[i] = i * n / count
	}
	return idx
}
