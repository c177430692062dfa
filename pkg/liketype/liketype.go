// Package liketype is the embedding API of the structural type engine.
//
// Types are written in the expression syntax of ParseType ("List[Int]",
// "Optional[Box[T]]", "Callable[[Int], String]") or built from the exported
// leaf types. A Checker answers subtype, instance and unification queries
// against a Registry of classes, which can be filled from declaration
// files, Go packages and proto files.
//
//	c := liketype.New(nil)
//	target, _ := c.Parse("Mapping[String, List[Int]]")
//	c.IsInstance(map[string]any{"a": []int{1, 2}}, target) // true
package liketype

import (
	"sync"

	"github.com/funvibe/liketype/internal/compat"
	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/goschema"
	"github.com/funvibe/liketype/internal/protoschema"
	"github.com/funvibe/liketype/internal/schema"
	"github.com/funvibe/liketype/internal/typesystem"
	"github.com/funvibe/liketype/internal/validate"
)

// Type expressions and registry declarations.
type (
	Type      = typesystem.Type
	Subst     = typesystem.Subst
	TCon      = typesystem.TCon
	TApp      = typesystem.TApp
	TVar      = typesystem.TVar
	TUnion    = typesystem.TUnion
	TFunc     = typesystem.TFunc
	TType     = typesystem.TType
	Registry  = typesystem.Registry
	Class     = typesystem.Class
	ClassKind = typesystem.ClassKind
	Member    = typesystem.Member
)

// Descriptors and values.
type (
	Descriptor = descriptor.Node
	Metadata   = descriptor.Metadata
	Tuple      = compat.Tuple
	Typed      = compat.Typed
	Option     = compat.Option
)

// Errors.
type (
	StructuralMismatchError    = compat.StructuralMismatchError
	ConformanceEvaluationError = compat.ConformanceEvaluationError
	UnresolvedOptionalError    = compat.UnresolvedOptionalError
	ValidationError            = validate.ValidationError
	UnknownTypeError           = typesystem.UnknownTypeError
	ParseError                 = typesystem.ParseError
)

const (
	Nominal  = typesystem.Nominal
	Protocol = typesystem.Protocol
	Record   = typesystem.Record
)

var (
	Any    = typesystem.Any
	Object = typesystem.Object
	Nil    = typesystem.Nil
	Int    = typesystem.Int
	Float  = typesystem.Float
	String = typesystem.String
	Bool   = typesystem.Bool
	Bytes  = typesystem.Bytes
)

var (
	WithValidator = compat.WithValidator
	WithLogger    = compat.WithLogger
	WithMaxDepth  = compat.WithMaxDepth
	WithMaxSample = compat.WithMaxSample
)

// Generic builds G[args...].
func Generic(name string, args ...Type) Type {
	return typesystem.Generic(name, args...)
}

// Optional builds Optional[t].
func Optional(t Type) Type {
	return typesystem.NewOptional(t)
}

// NewRegistry creates a registry holding the builtin classes.
func NewRegistry() *Registry {
	return typesystem.NewRegistry()
}

// Checker is an engine bound to a registry. The CUE value validator is
// installed by default; WithValidator(nil) turns IsInstance purely
// structural.
type Checker struct {
	*compat.Engine
}

// New creates a checker over reg, or over a fresh builtin registry when
// reg is nil.
func New(reg *Registry, opts ...Option) *Checker {
	if reg == nil {
		reg = NewRegistry()
	}
	opts = append([]Option{compat.WithValidator(validate.New(reg))}, opts...)
	return &Checker{Engine: compat.New(reg, opts...)}
}

// Parse parses a type expression against the checker's registry.
func (c *Checker) Parse(src string) (Type, error) {
	return typesystem.ParseType(src, c.Registry())
}

// InstantiateType reduces t and rebuilds it with the bindings of s.
func (c *Checker) InstantiateType(t Type, s Subst) (Type, error) {
	n, _ := c.Reduce(t)
	return c.Instantiate(n, s)
}

// LoadDeclarations applies a liketype.yaml or liketype.toml file. With an
// empty path the file is searched for upwards from dir. It reports the
// file applied, or "" when none was found.
func (c *Checker) LoadDeclarations(path, dir string) (string, error) {
	return schema.Load(c.Registry(), path, dir)
}

// ImportGo imports the exported types of Go packages.
func (c *Checker) ImportGo(dir string, patterns ...string) error {
	return goschema.Load(c.Registry(), dir, patterns...)
}

// ImportProto imports the messages of proto files.
func (c *Checker) ImportProto(importPaths []string, files ...string) error {
	_, err := protoschema.Load(c.Registry(), importPaths, files...)
	return err
}

var std = sync.OnceValue(func() *Checker { return New(nil) })

// Default returns the shared checker over the builtin registry used by
// the package-level functions.
func Default() *Checker {
	return std()
}

// ParseType parses a type expression against the builtin registry.
func ParseType(src string) (Type, error) {
	return Default().Parse(src)
}

// Reduce converts a type expression into its descriptor.
func Reduce(t Type) *Descriptor {
	n, _ := Default().Reduce(t)
	return n
}

// Infer approximates the type of v with the default depth and no sampling.
func Infer(v any) *Descriptor {
	return Default().Infer(v, config.DefaultMaxDepth, config.DefaultMaxSample)
}

// IsSubtype reports whether instance is a structural subtype of template.
func IsSubtype(instance, template Type) bool {
	return Default().IsSubtypeTypes(instance, template)
}

// IsInstance reports whether v matches target.
func IsInstance(v any, target Type) bool {
	return Default().IsInstance(v, target)
}

// Unify binds the type variables of template against instance.
func Unify(template, instance Type) (Subst, error) {
	return Default().UnifyTypes(template, instance)
}

// Instantiate substitutes the bindings of s into t.
func Instantiate(t Type, s Subst) (Type, error) {
	return Default().InstantiateType(t, s)
}
