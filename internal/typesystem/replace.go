package typesystem

// ReplaceTCon replaces all occurrences of TCon with the given name with the replacement type.
// The input is never modified; a new tree is returned.
func ReplaceTCon(t Type, name string, replacement Type) Type {
	if t == nil {
		return nil
	}
	switch typ := t.(type) {
	case TCon:
		if typ.Name == name {
			return replacement
		}
		return typ
	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ReplaceTCon(arg, name, replacement)
		}
		if typ.Constructor.Name == name {
			// An alias used as a constructor keeps its arguments only when
			// it expands to another bare class.
			if con, ok := replacement.(TCon); ok {
				return TApp{Constructor: con, Args: newArgs}
			}
			return replacement
		}
		return TApp{Constructor: typ.Constructor, Args: newArgs}
	case TUnion:
		newTypes := make([]Type, len(typ.Types))
		for i, member := range typ.Types {
			newTypes[i] = ReplaceTCon(member, name, replacement)
		}
		return TUnion{Types: newTypes, Optional: typ.Optional}
	case TFunc:
		var newParams []Type
		if typ.Params != nil {
			newParams = make([]Type, len(typ.Params))
			for i, p := range typ.Params {
				newParams[i] = ReplaceTCon(p, name, replacement)
			}
		}
		return TFunc{Params: newParams, Return: ReplaceTCon(typ.Return, name, replacement), Ellipsis: typ.Ellipsis}
	case TType:
		return TType{Type: ReplaceTCon(typ.Type, name, replacement)}
	case TAnnotated:
		return TAnnotated{Type: ReplaceTCon(typ.Type, name, replacement), Metadata: typ.Metadata}
	case TVar:
		if typ.Bound == nil && len(typ.Constraints) == 0 {
			return typ
		}
		newVar := TVar{Name: typ.Name, Bound: ReplaceTCon(typ.Bound, name, replacement)}
		for _, c := range typ.Constraints {
			newVar.Constraints = append(newVar.Constraints, ReplaceTCon(c, name, replacement))
		}
		return newVar
	default:
		return t
	}
}
