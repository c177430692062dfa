package typesystem

import (
	"reflect"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/funvibe/liketype/internal/config"
)

// ClassKind distinguishes how a class participates in subtyping.
type ClassKind int

const (
	// Nominal classes match through declared inheritance only.
	Nominal ClassKind = iota
	// Protocol classes match any class exposing compatible members.
	Protocol
	// Record classes describe mapping-shaped values with fixed fields.
	Record
)

func (k ClassKind) String() string {
	switch k {
	case Protocol:
		return "protocol"
	case Record:
		return "record"
	default:
		return "class"
	}
}

// Member is one entry of a class schema: an attribute or a method.
// Methods are members whose Type is a TFunc without the receiver.
type Member struct {
	Name string
	Type Type
}

// Private reports whether the member is internal by convention.
func (m Member) Private() bool {
	return strings.HasPrefix(m.Name, "_")
}

// Class is a registered nominal type.
type Class struct {
	Name    string
	Kind    ClassKind
	Params  []TVar
	Bases   []Type
	Members []Member
}

// Generic reports whether the class declares type parameters.
func (c *Class) Generic() bool {
	return len(c.Params) > 0
}

// SelfType returns the class applied to its own parameters (Box[T]).
func (c *Class) SelfType() Type {
	if !c.Generic() {
		return TCon{Name: c.Name}
	}
	args := make([]Type, len(c.Params))
	for i, p := range c.Params {
		args[i] = p
	}
	return TApp{Constructor: TCon{Name: c.Name}, Args: args}
}

// ValueTyper classifies runtime values the engine has no builtin rule for.
type ValueTyper interface {
	TypeOfValue(v any) (Type, bool)
}

// Registry holds class declarations, type variables, aliases and Go type
// bindings. It is written during registration and read concurrently
// afterwards.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	vars    map[string]TVar
	aliases map[string]Type
	goTypes map[reflect.Type]string
	typers  []ValueTyper
}

// NewRegistry creates a registry populated with the builtin universe.
func NewRegistry() *Registry {
	r := &Registry{
		classes: make(map[string]*Class),
		vars:    make(map[string]TVar),
		aliases: make(map[string]Type),
		goTypes: make(map[reflect.Type]string),
	}
	registerBuiltins(r)
	return r
}

// Clone returns an independent copy of the registry. Class values are
// shared since they are never modified after declaration.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Registry{
		classes: maps.Clone(r.classes),
		vars:    maps.Clone(r.vars),
		aliases: maps.Clone(r.aliases),
		goTypes: maps.Clone(r.goTypes),
		typers:  slices.Clone(r.typers),
	}
}

// Declare registers a class. Type parameters are declared as type
// variables when not already known; redeclaring a class replaces it.
func (r *Registry) Declare(c Class) error {
	if c.Name == "" {
		return &DeclarationError{Name: "<class>", Msg: "name is required"}
	}
	if isReservedName(c.Name) {
		return &DeclarationError{Name: c.Name, Msg: "name is reserved"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vars[c.Name]; ok {
		return &DeclarationError{Name: c.Name, Msg: "name is already a type variable"}
	}
	seen := make(map[string]bool)
	for _, p := range c.Params {
		if seen[p.Name] {
			return &DeclarationError{Name: c.Name, Msg: "duplicate type parameter " + p.Name}
		}
		seen[p.Name] = true
		if err := r.declareVarLocked(p); err != nil {
			return err
		}
	}
	for _, base := range c.Bases {
		name, ok := constructorName(base)
		if !ok {
			return &DeclarationError{Name: c.Name, Msg: "base must be a class: " + base.String()}
		}
		if name == c.Name {
			return &DeclarationError{Name: c.Name, Msg: "class cannot inherit from itself"}
		}
		if _, ok := r.classes[name]; !ok {
			return &DeclarationError{Name: c.Name, Msg: "unknown base " + name}
		}
	}
	members := make(map[string]bool)
	for _, m := range c.Members {
		if members[m.Name] {
			return &DeclarationError{Name: c.Name, Msg: "duplicate member " + m.Name}
		}
		members[m.Name] = true
	}

	stored := c
	stored.Params = slices.Clone(c.Params)
	stored.Bases = slices.Clone(c.Bases)
	stored.Members = slices.Clone(c.Members)
	r.classes[c.Name] = &stored
	return nil
}

// DeclareVar registers a type variable. Declaring the same variable twice
// is allowed as long as both declarations agree.
func (r *Registry) DeclareVar(v TVar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.declareVarLocked(v)
}

func (r *Registry) declareVarLocked(v TVar) error {
	if v.Name == "" {
		return &DeclarationError{Name: "<typevar>", Msg: "name is required"}
	}
	if isReservedName(v.Name) {
		return &DeclarationError{Name: v.Name, Msg: "name is reserved"}
	}
	if _, ok := r.classes[v.Name]; ok {
		return &DeclarationError{Name: v.Name, Msg: "name is already a class"}
	}
	if existing, ok := r.vars[v.Name]; ok {
		// A bare reference (no bound, no constraints) reuses the declaration.
		if v.Unrestricted() || Key(existing) == Key(v) {
			return nil
		}
		return &DeclarationError{Name: v.Name, Msg: "conflicting type variable declaration"}
	}
	r.vars[v.Name] = v
	return nil
}

// DeclareAlias registers a name that expands to another type expression.
func (r *Registry) DeclareAlias(name string, t Type) error {
	if name == "" || isReservedName(name) {
		return &DeclarationError{Name: name, Msg: "invalid alias name"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[name]; ok {
		return &DeclarationError{Name: name, Msg: "name is already a class"}
	}
	if _, ok := r.vars[name]; ok {
		return &DeclarationError{Name: name, Msg: "name is already a type variable"}
	}
	r.aliases[name] = t
	return nil
}

// BindGoType records that Go values of type rt are instances of class.
func (r *Registry) BindGoType(rt reflect.Type, class string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[class]; !ok {
		return NewUnknownTypeError(class)
	}
	r.goTypes[rt] = class
	return nil
}

// AddValueTyper installs a hook consulted during value inference.
func (r *Registry) AddValueTyper(t ValueTyper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typers = append(r.typers, t)
}

// Class returns the class declared under name.
func (r *Registry) Class(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// Var returns the type variable declared under name.
func (r *Registry) Var(name string) (TVar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vars[name]
	return v, ok
}

// Alias returns the expansion of an alias.
func (r *Registry) Alias(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.aliases[name]
	return t, ok
}

// GoClass returns the class bound to a Go type.
func (r *Registry) GoClass(rt reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.goTypes[rt]
	return name, ok
}

// ValueTypers returns the installed inference hooks.
func (r *Registry) ValueTypers() []ValueTyper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.typers)
}

// ClassNames lists declared classes, sorted.
func (r *Registry) ClassNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup resolves a name used in a type expression.
func (r *Registry) Lookup(name string) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == config.AnyTypeName {
		return Any, nil
	}
	if _, ok := r.classes[name]; ok {
		return TCon{Name: name}, nil
	}
	if v, ok := r.vars[name]; ok {
		return v, nil
	}
	if t, ok := r.aliases[name]; ok {
		return t, nil
	}
	return nil, NewUnknownTypeError(name)
}

// IsSubclass reports nominal inheritance: equality, a declared base chain,
// or the root Object class.
func (r *Registry) IsSubclass(sub, super string) bool {
	if sub == super || super == config.ObjectTypeName {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	visited := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		c, ok := r.classes[name]
		if !ok {
			continue
		}
		for _, base := range c.Bases {
			baseName, _ := constructorName(base)
			if baseName == super {
				return true
			}
			if !visited[baseName] {
				visited[baseName] = true
				queue = append(queue, baseName)
			}
		}
	}
	return false
}

// Members returns the schema of a class including inherited members.
// Members declared closer to the class shadow inherited ones.
func (r *Registry) Members(name string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Member
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true
		c, ok := r.classes[n]
		if !ok {
			return
		}
		for _, m := range c.Members {
			if !seen[m.Name] {
				seen[m.Name] = true
				out = append(out, m)
			}
		}
		for _, base := range c.Bases {
			baseName, _ := constructorName(base)
			walk(baseName)
		}
	}
	walk(name)
	return out
}

// ExpandAliases replaces every alias reference in t by its expansion.
func (r *Registry) ExpandAliases(t Type) Type {
	r.mu.RLock()
	aliases := maps.Clone(r.aliases)
	r.mu.RUnlock()
	if len(aliases) == 0 {
		return t
	}
	// Aliases may refer to each other; bound the passes by the alias count.
	for i := 0; i <= len(aliases); i++ {
		changed := false
		for name, expansion := range aliases {
			next := ReplaceTCon(t, name, expansion)
			if !Equal(next, t) {
				t = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return t
}

func constructorName(t Type) (string, bool) {
	switch typ := t.(type) {
	case TCon:
		return typ.Name, true
	case TApp:
		return typ.Constructor.Name, true
	default:
		return "", false
	}
}

// ConstructorName returns the class name of a TCon or TApp.
func ConstructorName(t Type) (string, bool) {
	return constructorName(t)
}

func isReservedName(name string) bool {
	switch name {
	case config.AnyTypeName, config.UnionTypeName, config.OptionalTypeName,
		config.CallableTypeName, config.TypeOfTypeName, config.AnnotatedTypeName,
		config.LiteralTypeName, "None":
		return true
	}
	return false
}
