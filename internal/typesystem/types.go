package typesystem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/liketype/internal/config"
)

// Type is the interface for all type expressions the engine understands.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
}

// TVar represents a type variable (e.g. 'T', 'K').
// Bound and Constraints are optional; when both are set an instance must
// satisfy the bound and match at least one constraint.
type TVar struct {
	Name        string
	Bound       Type
	Constraints []Type
}

func (t TVar) String() string {
	return t.Name
}

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// Unrestricted reports whether the variable matches anything.
func (t TVar) Unrestricted() bool {
	return t.Bound == nil && len(t.Constraints) == 0
}

// ApplyWithCycleCheck applies substitution with cycle detection.
// This is the main entry point for substitution application.
func ApplyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.Name] {
			return typ
		}
		if replacement, ok := s[typ.Name]; ok {
			if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
				return typ
			}
			newVisited := copyVisited(visited)
			newVisited[typ.Name] = true
			return ApplyWithCycleCheck(replacement, s, newVisited)
		}
		return typ

	case TCon:
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ApplyWithCycleCheck(arg, s, visited)
		}
		return TApp{Constructor: typ.Constructor, Args: newArgs}

	case TUnion:
		newTypes := make([]Type, len(typ.Types))
		for i, member := range typ.Types {
			newTypes[i] = ApplyWithCycleCheck(member, s, visited)
		}
		return TUnion{Types: newTypes, Optional: typ.Optional}

	case TFunc:
		var newParams []Type
		if typ.Params != nil {
			newParams = make([]Type, len(typ.Params))
			for i, p := range typ.Params {
				newParams[i] = ApplyWithCycleCheck(p, s, visited)
			}
		}
		return TFunc{
			Params:   newParams,
			Return:   ApplyWithCycleCheck(typ.Return, s, visited),
			Ellipsis: typ.Ellipsis,
		}

	case TType:
		return TType{Type: ApplyWithCycleCheck(typ.Type, s, visited)}

	case TAnnotated:
		return TAnnotated{Type: ApplyWithCycleCheck(typ.Type, s, visited), Metadata: typ.Metadata}

	case TLiteral:
		return typ

	default:
		return t.Apply(s)
	}
}

func copyVisited(m map[string]bool) map[string]bool {
	newMap := make(map[string]bool, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// TCon is a reference to a nominal class by name (e.g. Int, List, Box).
type TCon struct {
	Name string
}

func (t TCon) String() string {
	return t.Name
}

func (t TCon) Apply(s Subst) Type {
	return t
}

func (t TCon) FreeTypeVariables() []TVar {
	return []TVar{}
}

// TApp represents a parameterized generic (e.g. List[Int], Map[String, T]).
type TApp struct {
	Constructor TCon
	Args        []Type
}

func (t TApp) String() string {
	if len(t.Args) == 0 {
		return t.Constructor.String()
	}
	return fmt.Sprintf("%s[%s]", t.Constructor.String(), joinTypes(t.Args))
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TApp) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TUnion represents a union type. Members keep declaration order and are
// neither flattened nor deduplicated.
// Optional marks a union written as Optional[X]; its members are [X, Nil].
type TUnion struct {
	Types    []Type
	Optional bool
}

func (t TUnion) String() string {
	if t.Optional && len(t.Types) == 2 {
		return fmt.Sprintf("%s[%s]", config.OptionalTypeName, t.Types[0].String())
	}
	return fmt.Sprintf("%s[%s]", config.UnionTypeName, joinTypes(t.Types))
}

func (t TUnion) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TUnion) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, typ := range t.Types {
		vars = append(vars, typ.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// NewOptional builds Optional[t].
func NewOptional(t Type) TUnion {
	return TUnion{Types: []Type{t, Nil}, Optional: true}
}

// TFunc represents a callable (e.g. Callable[[Int, String], Bool]).
// Ellipsis marks Callable[..., R], which accepts any parameter list.
type TFunc struct {
	Params   []Type
	Return   Type
	Ellipsis bool
}

func (t TFunc) String() string {
	ret := config.AnyTypeName
	if t.Return != nil {
		ret = t.Return.String()
	}
	if t.Ellipsis {
		return fmt.Sprintf("%s[..., %s]", config.CallableTypeName, ret)
	}
	return fmt.Sprintf("%s[[%s], %s]", config.CallableTypeName, joinTypes(t.Params), ret)
}

func (t TFunc) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFunc) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, p := range t.Params {
		vars = append(vars, p.FreeTypeVariables()...)
	}
	if t.Return != nil {
		vars = append(vars, t.Return.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TType represents the type of a type (Type[X]).
// A nil Type is the unparameterized form.
type TType struct {
	Type Type
}

func (t TType) String() string {
	if t.Type == nil {
		return config.TypeOfTypeName
	}
	return fmt.Sprintf("%s[%s]", config.TypeOfTypeName, t.Type.String())
}

func (t TType) Apply(s Subst) Type {
	if t.Type == nil {
		return t
	}
	return TType{Type: t.Type.Apply(s)}
}

func (t TType) FreeTypeVariables() []TVar {
	if t.Type == nil {
		return []TVar{}
	}
	return t.Type.FreeTypeVariables()
}

// TAnnotated attaches value constraints to a type. Metadata entries are
// constraint expressions for the value validator (e.g. ">1", "<10").
// Structural matching ignores them.
type TAnnotated struct {
	Type     Type
	Metadata []string
}

func (t TAnnotated) String() string {
	parts := []string{t.Type.String()}
	for _, m := range t.Metadata {
		parts = append(parts, strconv.Quote(m))
	}
	return fmt.Sprintf("%s[%s]", config.AnnotatedTypeName, strings.Join(parts, ", "))
}

func (t TAnnotated) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TAnnotated) FreeTypeVariables() []TVar {
	return t.Type.FreeTypeVariables()
}

// TLiteral is a finite set of literal values (Int, Float, String, Bool or nil).
type TLiteral struct {
	Values []any
}

func (t TLiteral) String() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = FormatLiteral(v)
	}
	return fmt.Sprintf("%s[%s]", config.LiteralTypeName, strings.Join(parts, ", "))
}

func (t TLiteral) Apply(s Subst) Type {
	return t
}

func (t TLiteral) FreeTypeVariables() []TVar {
	return []TVar{}
}

// FormatLiteral renders a literal value the way the parser reads it back.
func FormatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return config.NilTypeName
	case string:
		return strconv.Quote(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

// Common leaf types.
var (
	Any    = TCon{Name: config.AnyTypeName}
	Object = TCon{Name: config.ObjectTypeName}
	Nil    = TCon{Name: config.NilTypeName}
	Int    = TCon{Name: config.IntTypeName}
	Float  = TCon{Name: config.FloatTypeName}
	String = TCon{Name: config.StringTypeName}
	Bool   = TCon{Name: config.BoolTypeName}
	Bytes  = TCon{Name: config.BytesTypeName}
)

// Generic builds G[args...] for a class name.
func Generic(name string, args ...Type) Type {
	if len(args) == 0 {
		return TCon{Name: name}
	}
	return TApp{Constructor: TCon{Name: name}, Args: args}
}

// Subst is a mapping from type variable names to types.
type Subst map[string]Type

// Compose combines two substitutions.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

func (s Subst) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, s[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}
