package schema

import (
	"fmt"

	"github.com/funvibe/liketype/internal/typesystem"
)

// Apply declares the file's contents in reg. Classes may refer to each
// other in any order; aliases may refer to earlier aliases. On error reg
// may hold part of the declarations, so callers wanting all-or-nothing
// apply to a Clone.
func (f *File) Apply(reg *typesystem.Registry) error {
	// Placeholders make every class name resolvable while bounds, bases
	// and members are parsed.
	for _, c := range f.Classes {
		kind, _ := parseKind(c.Kind)
		if _, exists := reg.Class(c.Name); exists {
			continue
		}
		if err := reg.Declare(typesystem.Class{Name: c.Name, Kind: kind}); err != nil {
			return fmt.Errorf("%s: class %s: %w", f.path, c.Name, err)
		}
	}

	for _, v := range f.Vars {
		tv, err := f.varDecl(v, reg)
		if err != nil {
			return err
		}
		if err := reg.DeclareVar(tv); err != nil {
			return fmt.Errorf("%s: var %s: %w", f.path, v.Name, err)
		}
	}

	for _, c := range f.Classes {
		cls, err := f.classDecl(c, reg)
		if err != nil {
			return err
		}
		if err := reg.Declare(cls); err != nil {
			return fmt.Errorf("%s: class %s: %w", f.path, c.Name, err)
		}
	}

	for _, a := range f.Aliases {
		t, err := typesystem.ParseType(a.Type, reg)
		if err != nil {
			return fmt.Errorf("%s: alias %s: %w", f.path, a.Name, err)
		}
		if err := reg.DeclareAlias(a.Name, t); err != nil {
			return fmt.Errorf("%s: alias %s: %w", f.path, a.Name, err)
		}
	}
	return nil
}

func (f *File) varDecl(v VarDecl, reg *typesystem.Registry) (typesystem.TVar, error) {
	tv := typesystem.TVar{Name: v.Name}
	if v.Bound != "" {
		bound, err := typesystem.ParseType(v.Bound, reg)
		if err != nil {
			return tv, fmt.Errorf("%s: var %s: bound: %w", f.path, v.Name, err)
		}
		tv.Bound = bound
	}
	for _, src := range v.Constraints {
		con, err := typesystem.ParseType(src, reg)
		if err != nil {
			return tv, fmt.Errorf("%s: var %s: constraint: %w", f.path, v.Name, err)
		}
		tv.Constraints = append(tv.Constraints, con)
	}
	return tv, nil
}

func (f *File) classDecl(c ClassDecl, reg *typesystem.Registry) (typesystem.Class, error) {
	kind, _ := parseKind(c.Kind)
	cls := typesystem.Class{Name: c.Name, Kind: kind}

	for _, p := range c.Params {
		tv, ok := reg.Var(p)
		if !ok {
			tv = typesystem.TVar{Name: p}
			if err := reg.DeclareVar(tv); err != nil {
				return cls, fmt.Errorf("%s: class %s: param %s: %w", f.path, c.Name, p, err)
			}
		}
		cls.Params = append(cls.Params, tv)
	}

	for _, src := range c.Bases {
		base, err := typesystem.ParseType(src, reg)
		if err != nil {
			return cls, fmt.Errorf("%s: class %s: base: %w", f.path, c.Name, err)
		}
		cls.Bases = append(cls.Bases, base)
	}

	for _, m := range c.Members {
		t, err := typesystem.ParseType(m.Type, reg)
		if err != nil {
			return cls, fmt.Errorf("%s: class %s: member %s: %w", f.path, c.Name, m.Name, err)
		}
		cls.Members = append(cls.Members, typesystem.Member{Name: m.Name, Type: t})
	}
	return cls, nil
}

// Load finds the declaration file at path, or searches upwards from dir
// when path is empty, and applies it to reg. It reports the file used;
// an empty result with nil error means no file was found.
func Load(reg *typesystem.Registry, path, dir string) (string, error) {
	if path == "" {
		found, err := FindFile(dir)
		if err != nil || found == "" {
			return "", err
		}
		path = found
	}
	f, err := LoadFile(path)
	if err != nil {
		return "", err
	}
	if err := f.Apply(reg); err != nil {
		return "", err
	}
	return path, nil
}
