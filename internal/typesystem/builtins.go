package typesystem

import "github.com/funvibe/liketype/internal/config"

// Parameters of builtin containers. The leading underscore keeps them out
// of the way of user declared variables.
var (
	builtinT = TVar{Name: "_T"}
	builtinK = TVar{Name: "_K"}
	builtinV = TVar{Name: "_V"}
)

func registerBuiltins(r *Registry) {
	leaf := func(name string) *Class {
		return &Class{Name: name}
	}
	generic := func(name string, params []TVar, bases ...Type) *Class {
		return &Class{Name: name, Params: params, Bases: bases}
	}

	classes := []*Class{
		leaf(config.ObjectTypeName),
		leaf(config.NilTypeName),
		leaf(config.IntTypeName),
		leaf(config.FloatTypeName),
		leaf(config.StringTypeName),
		leaf(config.BoolTypeName),
		leaf(config.BytesTypeName),
		generic(config.IterableTypeName, []TVar{builtinT}),
		generic(config.SequenceTypeName, []TVar{builtinT},
			Generic(config.IterableTypeName, builtinT)),
		generic(config.ListTypeName, []TVar{builtinT},
			Generic(config.SequenceTypeName, builtinT)),
		// Tuple is variadic: its arguments are positional element types.
		generic(config.TupleTypeName, nil, TCon{Name: config.SequenceTypeName}),
		generic(config.SetTypeName, []TVar{builtinT},
			Generic(config.IterableTypeName, builtinT)),
		generic(config.MappingTypeName, []TVar{builtinK, builtinV},
			Generic(config.IterableTypeName, builtinK)),
		generic(config.MapTypeName, []TVar{builtinK, builtinV},
			Generic(config.MappingTypeName, builtinK, builtinV)),
	}

	for _, v := range []TVar{builtinT, builtinK, builtinV} {
		r.vars[v.Name] = v
	}
	for _, c := range classes {
		r.classes[c.Name] = c
	}
}

// IsBuiltin reports whether name is part of the builtin universe.
func IsBuiltin(name string) bool {
	switch name {
	case config.ObjectTypeName, config.NilTypeName, config.IntTypeName,
		config.FloatTypeName, config.StringTypeName, config.BoolTypeName,
		config.BytesTypeName, config.IterableTypeName, config.SequenceTypeName,
		config.ListTypeName, config.TupleTypeName, config.SetTypeName,
		config.MappingTypeName, config.MapTypeName:
		return true
	}
	return false
}
