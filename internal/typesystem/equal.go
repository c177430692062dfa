package typesystem

import (
	"fmt"
	"strings"
)

// Equal reports structural equality of two type expressions.
// Type variables are equal when their names match.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case TCon:
		y, ok := b.(TCon)
		return ok && x.Name == y.Name
	case TVar:
		y, ok := b.(TVar)
		return ok && x.Name == y.Name
	case TApp:
		y, ok := b.(TApp)
		return ok && x.Constructor.Name == y.Constructor.Name && equalAll(x.Args, y.Args)
	case TUnion:
		y, ok := b.(TUnion)
		return ok && equalAll(x.Types, y.Types)
	case TFunc:
		y, ok := b.(TFunc)
		return ok && x.Ellipsis == y.Ellipsis && equalAll(x.Params, y.Params) && Equal(x.Return, y.Return)
	case TType:
		y, ok := b.(TType)
		return ok && Equal(x.Type, y.Type)
	case TAnnotated:
		y, ok := b.(TAnnotated)
		if !ok || len(x.Metadata) != len(y.Metadata) || !Equal(x.Type, y.Type) {
			return false
		}
		for i := range x.Metadata {
			if x.Metadata[i] != y.Metadata[i] {
				return false
			}
		}
		return true
	case TLiteral:
		y, ok := b.(TLiteral)
		return ok && x.String() == y.String()
	default:
		return a.String() == b.String()
	}
}

func equalAll(xs, ys []Type) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

// Key renders a type expression as a cache key. Unlike String it includes
// the bound and constraints of every type variable, so two differently
// declared variables sharing a name never collide.
func Key(t Type) string {
	var sb strings.Builder
	writeKey(&sb, t)
	return sb.String()
}

func writeKey(sb *strings.Builder, t Type) {
	switch typ := t.(type) {
	case nil:
		sb.WriteString("<nil>")
	case TVar:
		sb.WriteString("~")
		sb.WriteString(typ.Name)
		if !typ.Unrestricted() {
			sb.WriteString("<")
			if typ.Bound != nil {
				writeKey(sb, typ.Bound)
			}
			for _, c := range typ.Constraints {
				sb.WriteString("|")
				writeKey(sb, c)
			}
			sb.WriteString(">")
		}
	case TApp:
		sb.WriteString(typ.Constructor.Name)
		writeKeyList(sb, typ.Args)
	case TUnion:
		if typ.Optional {
			sb.WriteString("?")
		}
		sb.WriteString("U")
		writeKeyList(sb, typ.Types)
	case TFunc:
		sb.WriteString("F")
		if typ.Ellipsis {
			sb.WriteString("[...]")
		} else {
			writeKeyList(sb, typ.Params)
		}
		sb.WriteString("->")
		writeKey(sb, typ.Return)
	case TType:
		sb.WriteString("T[")
		writeKey(sb, typ.Type)
		sb.WriteString("]")
	case TAnnotated:
		sb.WriteString("A[")
		writeKey(sb, typ.Type)
		fmt.Fprintf(sb, ";%q]", typ.Metadata)
	default:
		sb.WriteString(t.String())
	}
}

func writeKeyList(sb *strings.Builder, ts []Type) {
	sb.WriteString("[")
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(",")
		}
		writeKey(sb, t)
	}
	sb.WriteString("]")
}
