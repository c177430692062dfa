// Package validate checks runtime values against type expressions by
// translating them into CUE schemas. It understands value constraints the
// structural engine ignores: literal sets, Annotated expressions and
// record fields.
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// maxSchemaDepth bounds schema generation for self-referential records.
const maxSchemaDepth = 32

// Validator validates values against type expressions. It keeps no CUE
// state between calls and is safe for concurrent use.
type Validator struct {
	registry *typesystem.Registry
}

// New creates a validator resolving record classes through reg.
func New(reg *typesystem.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate checks value against target. It returns ErrUnsupported (wrapped)
// when target has no value schema, a *ValidationError when the value is
// rejected, and nil when it is accepted.
func (v *Validator) Validate(value any, target typesystem.Type) error {
	src, err := v.Schema(target)
	if err != nil {
		return err
	}

	if selfReferential(reflect.ValueOf(value), nil) {
		return fmt.Errorf("%w: value is self-referential", ErrUnsupported)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(src)
	if schema.Err() != nil {
		return fmt.Errorf("compiling schema for %s: %w", target, schema.Err())
	}
	encoded := ctx.Encode(value)
	if encoded.Err() != nil {
		return fmt.Errorf("%w: encoding value: %v", ErrUnsupported, encoded.Err())
	}
	if err := schema.Unify(encoded).Validate(cue.Concrete(true)); err != nil {
		return formatError(target.String(), err)
	}
	return nil
}

// Schema renders target as a CUE expression.
func (v *Validator) Schema(target typesystem.Type) (string, error) {
	return v.expr(target, 0)
}

func (v *Validator) expr(t typesystem.Type, depth int) (string, error) {
	if depth > maxSchemaDepth {
		return "", fmt.Errorf("%w: %s nests too deeply", ErrUnsupported, t)
	}
	switch typ := t.(type) {
	case typesystem.TCon:
		return v.class(typ.Name, nil, depth)
	case typesystem.TApp:
		return v.class(typ.Constructor.Name, typ.Args, depth)
	case typesystem.TUnion:
		parts := make([]string, len(typ.Types))
		for i, b := range typ.Types {
			s, err := v.expr(b, depth+1)
			if err != nil {
				return "", err
			}
			parts[i] = "(" + s + ")"
		}
		return strings.Join(parts, " | "), nil
	case typesystem.TLiteral:
		parts := make([]string, len(typ.Values))
		for i, val := range typ.Values {
			lit, err := literal(val)
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return strings.Join(parts, " | "), nil
	case typesystem.TAnnotated:
		inner, err := v.expr(typ.Type, depth+1)
		if err != nil {
			return "", err
		}
		parts := []string{"(" + inner + ")"}
		for _, m := range typ.Metadata {
			parts = append(parts, "("+m+")")
		}
		return strings.Join(parts, " & "), nil
	case typesystem.TVar:
		decl := typ
		if decl.Unrestricted() {
			if reg, ok := v.registry.Var(decl.Name); ok {
				decl = reg
			}
		}
		return v.varExpr(decl, depth)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
}

func (v *Validator) varExpr(tv typesystem.TVar, depth int) (string, error) {
	var parts []string
	if tv.Bound != nil {
		s, err := v.expr(tv.Bound, depth+1)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+s+")")
	}
	if len(tv.Constraints) > 0 {
		s, err := v.expr(typesystem.TUnion{Types: tv.Constraints}, depth+1)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+s+")")
	}
	if len(parts) == 0 {
		return "_", nil
	}
	return strings.Join(parts, " & "), nil
}

func (v *Validator) class(name string, args []typesystem.Type, depth int) (string, error) {
	switch name {
	case config.AnyTypeName, config.ObjectTypeName:
		return "_", nil
	case config.IntTypeName:
		return "int", nil
	case config.FloatTypeName:
		return "float", nil
	case config.StringTypeName:
		return "string", nil
	case config.BoolTypeName:
		return "bool", nil
	case config.BytesTypeName:
		return "bytes", nil
	case config.NilTypeName:
		return "null", nil
	case config.ListTypeName, config.SequenceTypeName:
		if len(args) == 0 {
			return "[..._]", nil
		}
		elem, err := v.expr(args[0], depth+1)
		if err != nil {
			return "", err
		}
		return "[...(" + elem + ")]", nil
	case config.TupleTypeName:
		if len(args) == 0 {
			return "[..._]", nil
		}
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := v.expr(a, depth+1)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case config.MapTypeName, config.MappingTypeName:
		if len(args) == 0 {
			return "{...}", nil
		}
		if len(args) != 2 || !typesystem.Equal(args[0], typesystem.String) {
			return "", fmt.Errorf("%w: mappings need String keys", ErrUnsupported)
		}
		val, err := v.expr(args[1], depth+1)
		if err != nil {
			return "", err
		}
		return "{[string]: " + val + "}", nil
	}

	cls, ok := v.registry.Class(name)
	if !ok || cls.Kind != typesystem.Record {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return v.record(cls, args, depth)
}

// record renders a closed struct with one required field per member.
func (v *Validator) record(cls *typesystem.Class, args []typesystem.Type, depth int) (string, error) {
	s := typesystem.Subst{}
	for i, p := range cls.Params {
		if i < len(args) {
			s[p.Name] = args[i]
		}
	}
	var fields []string
	for _, m := range v.registry.Members(cls.Name) {
		if _, isMethod := m.Type.(typesystem.TFunc); isMethod {
			return "", fmt.Errorf("%w: record %s has method %s", ErrUnsupported, cls.Name, m.Name)
		}
		ft, err := v.expr(m.Type.Apply(s), depth+1)
		if err != nil {
			return "", err
		}
		fields = append(fields, strconv.Quote(m.Name)+": "+ft)
	}
	return "close({" + strings.Join(fields, ", ") + "})", nil
}

func literal(val any) (string, error) {
	switch x := val.(type) {
	case nil:
		return "null", nil
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: literal %v", ErrUnsupported, val)
	}
}

type ref struct {
	kind reflect.Kind
	ptr  uintptr
	len  int
}

// selfReferential reports whether v reaches itself through pointers, slices
// or maps. The encoder follows references without bound.
func selfReferential(v reflect.Value, path map[ref]bool) bool {
	switch v.Kind() {
	case reflect.Interface:
		return !v.IsNil() && selfReferential(v.Elem(), path)
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if v.IsNil() || (v.Kind() != reflect.Pointer && v.Len() == 0) {
			return false
		}
		r := ref{kind: v.Kind(), ptr: v.Pointer()}
		if v.Kind() == reflect.Slice {
			r.len = v.Len()
		}
		if path[r] {
			return true
		}
		if path == nil {
			path = make(map[ref]bool)
		}
		path[r] = true
		defer delete(path, r)

		switch v.Kind() {
		case reflect.Pointer:
			return selfReferential(v.Elem(), path)
		case reflect.Slice:
			for i := 0; i < v.Len(); i++ {
				if selfReferential(v.Index(i), path) {
					return true
				}
			}
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				if selfReferential(iter.Value(), path) {
					return true
				}
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if selfReferential(v.Index(i), path) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if selfReferential(v.Field(i), path) {
				return true
			}
		}
	}
	return false
}
