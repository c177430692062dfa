package compat

import (
	"testing"

	"github.com/funvibe/liketype/internal/typesystem"
)

// newTestEngine declares a small class universe on top of the builtins:
//
//	Box[T]                     nominal generic
//	Speaker                    protocol: speak() -> String, _tag: Int
//	Dog, Rock                  unrelated classes, Dog has speak()
//	Pair[T, V]                 generic protocol: first() -> T, second() -> V
//	Store[T, K]                class: first() -> T, second() -> K
//	IntStore                   Store[Int, String] with nothing of its own
//	Cloneable, Sheep           self-referential protocol and a conforming class
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *typesystem.Registry) {
	t.Helper()
	r := typesystem.NewRegistry()

	T := typesystem.TVar{Name: "T"}
	K := typesystem.TVar{Name: "K"}
	V := typesystem.TVar{Name: "V"}
	method := func(ret typesystem.Type) typesystem.Type {
		return typesystem.TFunc{Params: []typesystem.Type{}, Return: ret}
	}

	classes := []typesystem.Class{
		{Name: "Box", Params: []typesystem.TVar{T}},
		{Name: "Speaker", Kind: typesystem.Protocol, Members: []typesystem.Member{
			{Name: "speak", Type: method(typesystem.String)},
			{Name: "_tag", Type: typesystem.Int},
		}},
		{Name: "Dog", Members: []typesystem.Member{
			{Name: "speak", Type: method(typesystem.String)},
			{Name: "legs", Type: typesystem.Int},
		}},
		{Name: "Rock"},
		{Name: "Pair", Kind: typesystem.Protocol, Params: []typesystem.TVar{T, V}, Members: []typesystem.Member{
			{Name: "first", Type: method(T)},
			{Name: "second", Type: method(V)},
		}},
		{Name: "Store", Params: []typesystem.TVar{T, K}, Members: []typesystem.Member{
			{Name: "first", Type: method(T)},
			{Name: "second", Type: method(K)},
		}},
		{Name: "IntStore", Bases: []typesystem.Type{typesystem.Generic("Store", typesystem.Int, typesystem.String)}},
		{Name: "Cloneable", Kind: typesystem.Protocol, Members: []typesystem.Member{
			{Name: "clone", Type: method(typesystem.TCon{Name: "Cloneable"})},
		}},
		{Name: "Sheep", Members: []typesystem.Member{
			{Name: "clone", Type: method(typesystem.TCon{Name: "Sheep"})},
		}},
	}
	for _, c := range classes {
		if err := r.Declare(c); err != nil {
			t.Fatalf("Declare(%s): %v", c.Name, err)
		}
	}
	if err := r.DeclareVar(typesystem.TVar{Name: "N", Bound: typesystem.Int}); err != nil {
		t.Fatal(err)
	}
	if err := r.DeclareVar(typesystem.TVar{Name: "S", Constraints: []typesystem.Type{typesystem.Int, typesystem.String}}); err != nil {
		t.Fatal(err)
	}
	return New(r, opts...), r
}

func mustParse(t *testing.T, r *typesystem.Registry, src string) typesystem.Type {
	t.Helper()
	typ, err := typesystem.ParseType(src, r)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", src, err)
	}
	return typ
}
