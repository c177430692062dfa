// Package compat decides structural compatibility between type
// expressions and between runtime values and type expressions.
package compat

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Validator checks a value directly against a type expression before the
// engine falls back to structural matching.
type Validator interface {
	Validate(value any, target typesystem.Type) error
}

// Engine answers subtype, instance and unification queries against a
// registry. It holds no per-call state and is safe for concurrent use
// once the registry is populated.
type Engine struct {
	registry  *typesystem.Registry
	reducer   *descriptor.Reducer
	validator Validator
	logger    *log.Logger
	maxDepth  int
	maxSample int
}

// Option configures an Engine.
type Option func(*Engine)

// WithValidator installs the value validator consulted by IsInstance.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithLogger sets the logger for fail-closed events.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth sets the inference depth used by IsInstance.
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithMaxSample sets the sampling limit used by IsInstance.
func WithMaxSample(n int) Option {
	return func(e *Engine) { e.maxSample = n }
}

// New creates an engine over reg. A nil registry gets the builtin universe.
func New(reg *typesystem.Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = typesystem.NewRegistry()
	}
	e := &Engine{
		registry:  reg,
		reducer:   descriptor.NewReducer(),
		logger:    log.New(io.Discard),
		maxDepth:  config.DefaultMaxDepth,
		maxSample: config.DefaultMaxSample,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine reads.
func (e *Engine) Registry() *typesystem.Registry {
	return e.registry
}

// Reduce converts a type expression into a descriptor, expanding aliases.
func (e *Engine) Reduce(t typesystem.Type) (*descriptor.Node, descriptor.Metadata) {
	return e.reducer.Reduce(e.registry.ExpandAliases(t))
}

func (e *Engine) node(t typesystem.Type) *descriptor.Node {
	n, _ := e.Reduce(t)
	return n
}

// IsSubtypeTypes reports whether instance is a structural subtype of
// template.
func (e *Engine) IsSubtypeTypes(instance, template typesystem.Type) bool {
	return e.IsSubtype(e.node(instance), e.node(template))
}

// UnifyTypes binds the variables of template against instance.
func (e *Engine) UnifyTypes(template, instance typesystem.Type) (typesystem.Subst, error) {
	return e.Unify(e.node(template), e.node(instance))
}

// Instantiate rebuilds a type expression from n with the bindings of s.
func (e *Engine) Instantiate(n *descriptor.Node, s typesystem.Subst) (typesystem.Type, error) {
	return descriptor.Instantiate(n, s)
}

// varDecl returns the declaration behind a variable node. A bare
// reference picks up the bound and constraints registered under its name.
func (e *Engine) varDecl(v typesystem.TVar) typesystem.TVar {
	if !v.Unrestricted() {
		return v
	}
	if decl, ok := e.registry.Var(v.Name); ok {
		return decl
	}
	return v
}

func (e *Engine) class(n *descriptor.Node) (*typesystem.Class, bool) {
	if n.Origin.Kind != descriptor.KindClass {
		return nil, false
	}
	return e.registry.Class(n.Origin.Name)
}
