package compat

import (
	"sync"
	"testing"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
	"github.com/funvibe/liketype/internal/validate"
)

func TestIsInstance(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		target string
		want   bool
	}{
		{"int list", []any{1, 2, 3}, "List[Int]", true},
		{"mixed list", []any{1, 2, "3"}, "List[Int]", false},
		{"mixed list against union", []any{1, 2, "3"}, "List[Union[Int, String]]", true},
		{"string mapping", map[string]any{"key": "value"}, "Mapping[String, String]", true},
		{"mapping value mismatch", map[string]any{"key": 1}, "Mapping[String, String]", false},
		{"union int", 10, "Union[Int, String]", true},
		{"union float", 10.5, "Union[Int, String]", false},
		{"optional nil", nil, "Optional[Int]", true},
		{"optional value", 3, "Optional[Int]", true},
		{"optional wrong", "x", "Optional[Int]", false},
		{"any", struct{}{}, "Any", true},
		{"sequence of lists", [][]int{{1}, {2}}, "Sequence[List[Int]]", true},
		{"tuple", Tuple{1, "a"}, "Tuple[Int, String]", true},
		{"tuple wrong position", Tuple{"a", 1}, "Tuple[Int, String]", false},
		{"bounded var", 4, "N", true},
		{"bounded var wrong", "x", "N", false},
		{"constrained var", "x", "S", true},
		{"constrained var wrong", 1.5, "S", false},
		{"type object", typesystem.Int, "Type[Int]", true},
		{"type object of list", typesystem.Generic("List", typesystem.Int), "Type[Sequence[Int]]", true},
		{"value is not a type", 1, "Type[Int]", false},
		{"callable", func(int) string { return "" }, "Callable[[Int], String]", true},
		{"callable arity", func(int, int) string { return "" }, "Callable[[Int], String]", false},
		{"callable ellipsis", func(int, int) string { return "" }, "Callable[..., String]", true},
	}

	engines := map[string]func(*testing.T) (*Engine, *typesystem.Registry){
		"structural": func(t *testing.T) (*Engine, *typesystem.Registry) {
			return newTestEngine(t)
		},
		"validated": func(t *testing.T) (*Engine, *typesystem.Registry) {
			e, r := newTestEngine(t)
			e.validator = validate.New(r)
			return e, r
		},
	}

	for mode, mk := range engines {
		e, r := mk(t)
		for _, tt := range tests {
			t.Run(mode+"/"+tt.name, func(t *testing.T) {
				target := mustParse(t, r, tt.target)
				if got := e.IsInstance(tt.value, target); got != tt.want {
					t.Errorf("IsInstance(%v, %s) = %v, want %v", tt.value, tt.target, got, tt.want)
				}
			})
		}
	}
}

func TestIsInstanceConstrained(t *testing.T) {
	structural, r := newTestEngine(t)
	validated := New(r, WithValidator(validate.New(r)))

	positive := mustParse(t, r, `Annotated[Int, ">0"]`)
	color := mustParse(t, r, `Literal["red", "green"]`)
	malformed := mustParse(t, r, `Annotated[Int, "> >"]`)
	unresolved := mustParse(t, r, `Annotated[Int, "garbage"]`)

	tests := []struct {
		name   string
		engine *Engine
		value  any
		target typesystem.Type
		want   bool
	}{
		{"annotated rejects", validated, 0, positive, false},
		{"annotated accepts", validated, 5, positive, true},
		{"annotated wrong class", validated, "5", positive, false},
		{"annotated ignored without validator", structural, 0, positive, true},
		{"literal accepts", validated, "red", color, true},
		{"literal rejects", validated, "blue", color, false},
		{"literal class only without validator", structural, "blue", color, true},
		{"literal wrong class", structural, 1, color, false},
		{"malformed annotation", validated, 3, malformed, false},
		{"unresolved annotation", validated, 3, unresolved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.engine.IsInstance(tt.value, tt.target); got != tt.want {
				t.Errorf("IsInstance(%v, %s) = %v, want %v", tt.value, tt.target, got, tt.want)
			}
		})
	}
}

func TestIsInstanceSelfReferential(t *testing.T) {
	list, mapping, ptr, ring, _ := cyclicValues()

	// At depth 0 a container infers to its bare class, which a
	// parameterized target rejects.
	tests := []struct {
		name    string
		value   any
		target  string
		shallow bool
		deep    bool
	}{
		{"list", list, "List[Any]", false, true},
		{"bare list", list, "List", true, true},
		{"list of ints", list, "List[Int]", false, false},
		{"mapping", mapping, "Mapping[String, Any]", false, true},
		{"mapping of ints", mapping, "Mapping[String, Int]", false, false},
		{"pointer cycle", ptr, "Any", true, true},
		{"pointer cycle as list", ptr, "List[Int]", false, false},
		{"struct ring", ring, "Any", true, true},
	}

	for _, depth := range []int{0, config.DefaultMaxDepth} {
		for _, validated := range []bool{false, true} {
			e, r := newTestEngine(t, WithMaxDepth(depth))
			if validated {
				e.validator = validate.New(r)
			}
			for _, tt := range tests {
				want := tt.deep
				if depth == 0 {
					want = tt.shallow
				}
				if got := e.IsInstance(tt.value, mustParse(t, r, tt.target)); got != want {
					t.Errorf("depth %d, validated %v: IsInstance(%s, %s) = %v, want %v",
						depth, validated, tt.name, tt.target, got, want)
				}
			}
		}
	}
}

func TestIsInstanceEmptyContainer(t *testing.T) {
	structural, r := newTestEngine(t)
	validated := New(r, WithValidator(validate.New(r)))
	target := mustParse(t, r, "List[String]")

	// An empty list infers to the bare List, which a parameterized
	// template does not accept structurally. The schema check accepts it.
	if structural.IsInstance([]int{}, target) {
		t.Error("structural engine accepted an empty list for List[String]")
	}
	if !validated.IsInstance([]int{}, target) {
		t.Error("validating engine rejected an empty list for List[String]")
	}
	if !structural.IsInstance([]int{}, mustParse(t, r, "List")) {
		t.Error("empty list rejected for bare List")
	}
}

func TestIsInstanceAlias(t *testing.T) {
	e, r := newTestEngine(t)
	if err := r.DeclareAlias("Names", mustParse(t, r, "List[String]")); err != nil {
		t.Fatal(err)
	}
	target := mustParse(t, r, "Names")
	if !e.IsInstance([]string{"a", "b"}, target) {
		t.Error("alias should expand to List[String]")
	}
	if e.IsInstance([]int{1}, target) {
		t.Error("List[Int] matched List[String] through an alias")
	}
}

func TestIsInstanceRecord(t *testing.T) {
	e, r := newTestEngine(t, WithMaxDepth(3))
	if err := r.Declare(typesystem.Class{Name: "User", Kind: typesystem.Record, Members: []typesystem.Member{
		{Name: "name", Type: typesystem.String},
		{Name: "age", Type: typesystem.Int},
	}}); err != nil {
		t.Fatal(err)
	}
	e.validator = validate.New(r)
	target := mustParse(t, r, "User")

	if !e.IsInstance(map[string]any{"name": "ada", "age": 36}, target) {
		t.Error("matching record rejected")
	}
	if e.IsInstance(map[string]any{"name": "ada"}, target) {
		t.Error("record with a missing field accepted")
	}
}

func TestIsInstanceConcurrent(t *testing.T) {
	e, r := newTestEngine(t)
	e.validator = validate.New(r)
	target := mustParse(t, r, "Mapping[String, List[Optional[Int]]]")
	good := map[string]any{"a": []any{1, nil, 3}}
	bad := map[string]any{"a": []any{1, "x"}}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if !e.IsInstance(good, target) {
					errs <- "good value rejected"
				}
				return
			}
			if e.IsInstance(bad, target) {
				errs <- "bad value accepted"
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}
