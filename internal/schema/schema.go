// Package schema loads class, type variable and alias declarations from
// liketype.yaml / liketype.toml files into a registry.
//
// A declaration file looks like:
//
//	vars:
//	  - name: N
//	    bound: Int
//	classes:
//	  - name: Box
//	    params: [T]
//	  - name: Speaker
//	    kind: protocol
//	    members:
//	      - name: speak
//	        type: "Callable[[], String]"
//	aliases:
//	  - name: Names
//	    type: List[String]
//
// Every type is written in the expression syntax accepted by
// typesystem.ParseType.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// File is the top-level declaration file.
type File struct {
	// Vars declares type variables shared by every class in the registry.
	Vars []VarDecl `yaml:"vars,omitempty" toml:"vars,omitempty"`

	// Classes declares nominal classes, protocols and records.
	Classes []ClassDecl `yaml:"classes,omitempty" toml:"classes,omitempty"`

	// Aliases declares names that expand to type expressions.
	Aliases []AliasDecl `yaml:"aliases,omitempty" toml:"aliases,omitempty"`

	path string
}

// VarDecl declares a type variable. Bound and Constraints may be combined;
// a single constraint is rejected since it is a bound.
type VarDecl struct {
	Name        string   `yaml:"name" toml:"name"`
	Bound       string   `yaml:"bound,omitempty" toml:"bound,omitempty"`
	Constraints []string `yaml:"constraints,omitempty" toml:"constraints,omitempty"`
}

// ClassDecl declares a class.
type ClassDecl struct {
	Name string `yaml:"name" toml:"name"`

	// Kind is "class" (default), "protocol" or "record".
	Kind string `yaml:"kind,omitempty" toml:"kind,omitempty"`

	// Params names the type parameters. Names not declared under vars
	// become unrestricted variables.
	Params []string `yaml:"params,omitempty" toml:"params,omitempty"`

	// Bases are parameterized base classes, e.g. "Store[Int, String]".
	Bases []string `yaml:"bases,omitempty" toml:"bases,omitempty"`

	Members []MemberDecl `yaml:"members,omitempty" toml:"members,omitempty"`
}

// MemberDecl is one attribute or method. Methods use the Callable syntax
// without the receiver.
type MemberDecl struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// AliasDecl names a type expression.
type AliasDecl struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// LoadFile reads and parses a declaration file. The format follows the
// file extension: .toml is TOML, anything else YAML.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading declarations %s: %w", path, err)
	}
	return ParseFile(data, path)
}

// ParseFile parses declaration file content. The path selects the format
// and is used in error messages.
func ParseFile(data []byte, path string) (*File, error) {
	var f File
	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path
	if err := f.validate(); err != nil {
		return nil, err
	}
	f.setDefaults()
	return &f, nil
}

// FindFile searches for a declaration file starting from dir and walking
// up to parent directories. It returns an empty path and nil error when
// none is found.
func FindFile(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range config.RegistryFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the declarations for errors that do not need a registry.
func (f *File) validate() error {
	names := make(map[string]string) // name → section, for conflict detection

	claim := func(name, section string) error {
		if prev, ok := names[name]; ok {
			return fmt.Errorf("%s: %s %q already declared in %s", f.path, section, name, prev)
		}
		names[name] = section
		return nil
	}

	for i, v := range f.Vars {
		if v.Name == "" {
			return fmt.Errorf("%s: vars[%d]: name is required", f.path, i)
		}
		if len(v.Constraints) == 1 {
			return fmt.Errorf("%s: vars[%d] (%s): a single constraint should be a bound", f.path, i, v.Name)
		}
		if err := claim(v.Name, "vars"); err != nil {
			return err
		}
	}

	for i, c := range f.Classes {
		if c.Name == "" {
			return fmt.Errorf("%s: classes[%d]: name is required", f.path, i)
		}
		if _, err := parseKind(c.Kind); err != nil {
			return fmt.Errorf("%s: classes[%d] (%s): %w", f.path, i, c.Name, err)
		}
		if err := claim(c.Name, "classes"); err != nil {
			return err
		}
		for j, m := range c.Members {
			if m.Name == "" {
				return fmt.Errorf("%s: classes[%d].members[%d] (%s): name is required", f.path, i, j, c.Name)
			}
			if m.Type == "" {
				return fmt.Errorf("%s: classes[%d].members[%d] (%s.%s): type is required", f.path, i, j, c.Name, m.Name)
			}
		}
	}

	for i, a := range f.Aliases {
		if a.Name == "" {
			return fmt.Errorf("%s: aliases[%d]: name is required", f.path, i)
		}
		if a.Type == "" {
			return fmt.Errorf("%s: aliases[%d] (%s): type is required", f.path, i, a.Name)
		}
		if err := claim(a.Name, "aliases"); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (f *File) setDefaults() {
	for i := range f.Classes {
		if f.Classes[i].Kind == "" {
			f.Classes[i].Kind = typesystem.Nominal.String()
		}
	}
}

func parseKind(s string) (typesystem.ClassKind, error) {
	switch strings.ToLower(s) {
	case "", "class", "nominal":
		return typesystem.Nominal, nil
	case "protocol", "interface":
		return typesystem.Protocol, nil
	case "record":
		return typesystem.Record, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}
