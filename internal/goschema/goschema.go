// Package goschema imports Go type declarations into a registry.
//
// Exported interfaces become protocols and other exported named types
// become nominal classes named "<package>.<Type>", the same spelling
// reflect uses, so inferred struct values line up with their imported
// classes. Struct fields and methods become members, embedded imported
// types become bases and type parameters become type variables named
// "<package>.<Type>.<Param>".
package goschema

import (
	"fmt"
	"go/types"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Load type-checks the packages matching patterns, resolved from dir, and
// imports them into reg.
func Load(reg *typesystem.Registry, dir string, patterns ...string) error {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  dir,
		Env:  append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	var loaded []*types.Package
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
		if pkg.Types != nil {
			loaded = append(loaded, pkg.Types)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	return Import(reg, loaded...)
}

// Import declares the exported named types of pkgs in reg. Types may refer
// to each other across the given packages; references to types outside
// them are imported as Any.
func Import(reg *typesystem.Registry, pkgs ...*types.Package) error {
	imp := &importer{reg: reg, names: make(map[*types.TypeName]string)}

	var named []*types.Named
	for _, pkg := range pkgs {
		scope := pkg.Scope()
		for _, name := range scope.Names() {
			obj, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !obj.Exported() || obj.IsAlias() {
				continue
			}
			n, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			if iface, isIface := n.Underlying().(*types.Interface); isIface && !iface.IsMethodSet() {
				// Constraint interfaces only restrict type parameters.
				continue
			}
			imp.names[obj] = pkg.Name() + "." + obj.Name()
			named = append(named, n)
		}
	}

	for _, n := range named {
		if err := reg.Declare(typesystem.Class{Name: imp.names[n.Obj()], Kind: kindOf(n)}); err != nil {
			return fmt.Errorf("importing %s: %w", n.Obj().Name(), err)
		}
	}
	for _, n := range named {
		cls, err := imp.class(n)
		if err != nil {
			return fmt.Errorf("importing %s: %w", n.Obj().Name(), err)
		}
		if err := reg.Declare(cls); err != nil {
			return fmt.Errorf("importing %s: %w", n.Obj().Name(), err)
		}
	}
	return nil
}

type importer struct {
	reg   *typesystem.Registry
	names map[*types.TypeName]string

	// params of the class being converted, by type parameter index
	params []typesystem.TVar
}

func kindOf(n *types.Named) typesystem.ClassKind {
	if _, ok := n.Underlying().(*types.Interface); ok {
		return typesystem.Protocol
	}
	return typesystem.Nominal
}

func (imp *importer) class(n *types.Named) (typesystem.Class, error) {
	name := imp.names[n.Obj()]
	cls := typesystem.Class{Name: name, Kind: kindOf(n)}

	imp.params = nil
	tparams := n.TypeParams()
	for i := 0; i < tparams.Len(); i++ {
		tp := tparams.At(i)
		tv := typesystem.TVar{Name: name + "." + tp.Obj().Name()}
		imp.params = append(imp.params, tv)
	}
	// Constraints may mention the parameters themselves.
	for i := 0; i < tparams.Len(); i++ {
		tv := imp.constrain(imp.params[i], tparams.At(i))
		imp.params[i] = tv
		cls.Params = append(cls.Params, tv)
	}

	switch u := n.Underlying().(type) {
	case *types.Interface:
		for i := 0; i < u.NumMethods(); i++ {
			m := u.Method(i)
			cls.Members = append(cls.Members, typesystem.Member{
				Name: m.Name(),
				Type: imp.goType(m.Type(), 0),
			})
		}
		return cls, nil

	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			field := u.Field(i)
			if field.Embedded() {
				if base, ok := imp.base(field.Type()); ok {
					cls.Bases = append(cls.Bases, base)
					continue
				}
			}
			if !field.Exported() {
				continue
			}
			cls.Members = append(cls.Members, typesystem.Member{
				Name: field.Name(),
				Type: imp.goType(field.Type(), 0),
			})
		}

	default:
		if base, ok := imp.underlyingBase(u); ok {
			cls.Bases = append(cls.Bases, base)
		}
	}

	// Value and pointer receiver methods, promoted ones included.
	mset := types.NewMethodSet(types.NewPointer(n))
	for i := 0; i < mset.Len(); i++ {
		method, ok := mset.At(i).Obj().(*types.Func)
		if !ok || !method.Exported() {
			continue
		}
		cls.Members = append(cls.Members, typesystem.Member{
			Name: method.Name(),
			Type: imp.goType(method.Type(), 0),
		})
	}
	return cls, nil
}

// constrain maps a type parameter constraint onto tv. A single type term
// becomes the bound, several become the constraint list, method
// constraints leave tv unrestricted.
func (imp *importer) constrain(tv typesystem.TVar, tp *types.TypeParam) typesystem.TVar {
	iface, ok := tp.Constraint().Underlying().(*types.Interface)
	if !ok || iface.IsMethodSet() {
		return tv
	}
	var terms []typesystem.Type
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		switch e := iface.EmbeddedType(i).(type) {
		case *types.Union:
			for j := 0; j < e.Len(); j++ {
				terms = appendTerm(terms, imp.goType(e.Term(j).Type(), 0))
			}
		default:
			terms = appendTerm(terms, imp.goType(e, 0))
		}
	}
	switch len(terms) {
	case 0:
	case 1:
		tv.Bound = terms[0]
	default:
		tv.Constraints = terms
	}
	return tv
}

func appendTerm(terms []typesystem.Type, t typesystem.Type) []typesystem.Type {
	if typesystem.Equal(t, typesystem.Any) {
		return terms
	}
	for _, existing := range terms {
		if typesystem.Equal(existing, t) {
			return terms
		}
	}
	return append(terms, t)
}

// base converts an embedded field type into a base class reference when
// the embedded type is being imported.
func (imp *importer) base(t types.Type) (typesystem.Type, bool) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	n, ok := t.(*types.Named)
	if !ok {
		return nil, false
	}
	if _, known := imp.names[n.Origin().Obj()]; !known {
		return nil, false
	}
	return imp.goType(n, 0), true
}

// underlyingBase makes a defined type such as "type Celsius float64" a
// subclass of the class its underlying type maps to.
func (imp *importer) underlyingBase(u types.Type) (typesystem.Type, bool) {
	t := imp.goType(u, 0)
	switch b := t.(type) {
	case typesystem.TCon:
		if b.Name == config.AnyTypeName {
			return nil, false
		}
		return b, true
	case typesystem.TApp:
		return b, true
	}
	return nil, false
}

// goType converts a Go type into a type expression.
func (imp *importer) goType(t types.Type, depth int) typesystem.Type {
	if depth > config.MaxRecursion {
		return typesystem.Any
	}
	switch t := t.(type) {
	case *types.Basic:
		return basicType(t)

	case *types.Named:
		name, ok := imp.names[t.Origin().Obj()]
		if !ok {
			return typesystem.Any
		}
		targs := t.TypeArgs()
		if targs.Len() == 0 {
			return typesystem.TCon{Name: name}
		}
		args := make([]typesystem.Type, targs.Len())
		for i := range args {
			args[i] = imp.goType(targs.At(i), depth+1)
		}
		return typesystem.Generic(name, args...)

	case *types.Alias:
		return imp.goType(types.Unalias(t), depth+1)

	case *types.Pointer:
		return imp.goType(t.Elem(), depth+1)

	case *types.Slice:
		if b, ok := t.Elem().(*types.Basic); ok && b.Kind() == types.Byte {
			return typesystem.Bytes
		}
		return typesystem.Generic(config.ListTypeName, imp.goType(t.Elem(), depth+1))

	case *types.Array:
		return typesystem.Generic(config.ListTypeName, imp.goType(t.Elem(), depth+1))

	case *types.Map:
		return typesystem.Generic(config.MapTypeName, imp.goType(t.Key(), depth+1), imp.goType(t.Elem(), depth+1))

	case *types.Signature:
		params := make([]typesystem.Type, t.Params().Len())
		for i := range params {
			params[i] = imp.goType(t.Params().At(i).Type(), depth+1)
		}
		var ret typesystem.Type
		switch t.Results().Len() {
		case 0:
			ret = typesystem.Nil
		case 1:
			ret = imp.goType(t.Results().At(0).Type(), depth+1)
		default:
			outs := make([]typesystem.Type, t.Results().Len())
			for i := range outs {
				outs[i] = imp.goType(t.Results().At(i).Type(), depth+1)
			}
			ret = typesystem.Generic(config.TupleTypeName, outs...)
		}
		return typesystem.TFunc{Params: params, Return: ret}

	case *types.TypeParam:
		// Receiver type parameters of methods share the index of the
		// declared ones.
		if i := t.Index(); i < len(imp.params) {
			return imp.params[i]
		}
		return typesystem.Any
	}
	return typesystem.Any
}

func basicType(t *types.Basic) typesystem.Type {
	switch t.Kind() {
	case types.Bool, types.UntypedBool:
		return typesystem.Bool
	case types.Int, types.Int8, types.Int16, types.Int32, types.Int64,
		types.Uint, types.Uint8, types.Uint16, types.Uint32, types.Uint64, types.Uintptr,
		types.UntypedInt, types.UntypedRune:
		return typesystem.Int
	case types.Float32, types.Float64, types.UntypedFloat:
		return typesystem.Float
	case types.String, types.UntypedString:
		return typesystem.String
	case types.UntypedNil:
		return typesystem.Nil
	}
	return typesystem.Any
}
