package compat

import (
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

type point struct{ X, Y int }

type plain struct{}

type box struct{ v any }

func (b box) TypeExpr() typesystem.Type {
	return typesystem.Generic("Box", typesystem.Int)
}

func TestInfer(t *testing.T) {
	e, r := newTestEngine(t)
	if err := r.Declare(typesystem.Class{Name: "Point", Kind: typesystem.Record}); err != nil {
		t.Fatal(err)
	}
	if err := r.BindGoType(reflect.TypeOf(point{}), "Point"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "Nil"},
		{"bool", true, "Bool"},
		{"int", 42, "Int"},
		{"uint8", uint8(1), "Int"},
		{"float", 1.5, "Float"},
		{"string", "x", "String"},
		{"bytes", []byte("x"), "Bytes"},
		{"empty list", []int{}, "List"},
		{"empty map", map[string]int{}, "Map"},
		{"homogeneous list", []int{1, 2, 3}, "List[Int]"},
		{"mixed list", []any{1, "a", 2}, "List[Union[Int, String]]"},
		{"array", [2]string{"a", "b"}, "List[String]"},
		{"nested list", [][]int{{1}, {2, 3}}, "List[List[Int]]"},
		{"map", map[string]int{"a": 1}, "Map[String, Int]"},
		{"mixed map", map[string]any{"a": 1, "b": "x"}, "Map[String, Union[Int, String]]"},
		{"tuple", Tuple{1, "a", 1.5}, "Tuple[Int, String, Float]"},
		{"empty tuple", Tuple{}, "Tuple"},
		{"type object", typesystem.Int, "Type[Int]"},
		{"generic type object", typesystem.Generic("List", typesystem.Int), "Type[List[Int]]"},
		{"typed value", box{v: 1}, "Box[Int]"},
		{"bound struct", point{1, 2}, "Point"},
		{"bound struct pointer", &point{1, 2}, "Point"},
		{"nil pointer", (*point)(nil), "Nil"},
		{"unbound struct", plain{}, "compat.plain"},
		{"func", func(int, string) bool { return true }, "Callable[[Int, String], Bool]"},
		{"func no result", func(float64) {}, "Callable[[Float], Nil]"},
		{"func many results", func() (int, error) { return 0, nil }, "Callable[[], Tuple[Int, error]]"},
		{"func any param", func(any) []int { return nil }, "Callable[[Any], List[Int]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Infer(tt.value, 10, -1)
			if got.String() != tt.want {
				t.Errorf("Infer(%v) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestInferDepthZero(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		value any
		want  string
	}{
		{[][]int{{1}}, "List"},
		{map[string][]int{"a": {1}}, "Map"},
		{Tuple{1, 2}, "Tuple"},
		{typesystem.Int, "Type"},
		{box{}, "Box"},
		{func(int) int { return 0 }, "Callable"},
		{7, "Int"},
	}
	for _, tt := range tests {
		if got := e.Infer(tt.value, 0, -1); got.String() != tt.want {
			t.Errorf("Infer(%v, 0) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestInferDeepNesting(t *testing.T) {
	e, _ := newTestEngine(t)

	var v any = 1
	for i := 0; i < 60; i++ {
		v = []any{v}
	}

	if got := e.Infer(v, 0, -1); got.String() != "List" {
		t.Errorf("Infer at depth 0 = %s, want List", got)
	}
	if got := e.Infer(v, 10, -1); got.Depth() != 11 {
		t.Errorf("Infer at depth 10 has depth %d, want 11", got.Depth())
	}
	if got := e.Infer(v, 1000, -1); got.Depth() != 61 {
		t.Errorf("Infer unbounded has depth %d, want 61", got.Depth())
	}
}

type ringNode struct {
	next *ringNode
}

type selfPtr *selfPtr

type (
	ping *pong
	pong *ping
)

// cyclicValues builds values that reach themselves.
func cyclicValues() (list []any, mapping map[string]any, ptr any, ring *ringNode, sp selfPtr) {
	list = []any{nil}
	list[0] = list
	mapping = map[string]any{}
	mapping["self"] = mapping
	ptr = &ptr
	ring = &ringNode{}
	ring.next = ring
	sp = &sp
	return list, mapping, ptr, ring, sp
}

func TestInferSelfReferential(t *testing.T) {
	e, _ := newTestEngine(t)
	list, mapping, ptr, ring, sp := cyclicValues()

	tests := []struct {
		name    string
		value   any
		shallow string
		deep    string
	}{
		{"pointer cycle", ptr, "Any", "Any"},
		{"struct ring", ring, "compat.ringNode", "compat.ringNode"},
		{"recursive pointer type", sp, "compat.selfPtr", "compat.selfPtr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Infer(tt.value, 0, -1); got.String() != tt.shallow {
				t.Errorf("Infer at depth 0 = %s, want %s", got, tt.shallow)
			}
			if got := e.Infer(tt.value, config.DefaultMaxDepth, -1); got.String() != tt.deep {
				t.Errorf("Infer at default depth = %s, want %s", got, tt.deep)
			}
		})
	}

	if got := e.Infer(list, 0, -1); got.String() != "List" {
		t.Errorf("self-referential list at depth 0 = %s, want List", got)
	}
	if got := e.Infer(list, config.DefaultMaxDepth, -1); got.Depth() != config.DefaultMaxDepth+1 {
		t.Errorf("self-referential list at default depth has depth %d, want %d", got.Depth(), config.DefaultMaxDepth+1)
	}
	if got := e.Infer(mapping, 0, -1); got.String() != "Map" {
		t.Errorf("self-referential map at depth 0 = %s, want Map", got)
	}
	if got := e.Infer(mapping, config.DefaultMaxDepth, -1); !strings.HasPrefix(got.String(), "Map[String, Map[String, ") {
		t.Errorf("self-referential map at default depth = %s", got)
	}
}

func TestInferRecursivePointerSignature(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		value any
		want  string
	}{
		{func(selfPtr) {}, "Callable[[compat.selfPtr], Nil]"},
		{func(ping) pong { return nil }, "Callable[[compat.ping], compat.pong]"},
		{func(**int) {}, "Callable[[Int], Nil]"},
	}
	for _, tt := range tests {
		if got := e.Infer(tt.value, 10, -1); got.String() != tt.want {
			t.Errorf("Infer(%T) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestInferSampling(t *testing.T) {
	e, _ := newTestEngine(t)

	values := make([]any, 100)
	for i := range values {
		values[i] = i
	}
	values[1] = "odd one out"

	if got := e.Infer(values, 10, -1); got.String() != "List[Union[Int, String]]" {
		t.Errorf("full inspection = %s", got)
	}
	// Stride 10 never looks at index 1.
	if got := e.Infer(values, 10, 10); got.String() != "List[Int]" {
		t.Errorf("sampled inspection = %s", got)
	}
}

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		n, max int
		want   []int
	}{
		{5, -1, []int{0, 1, 2, 3, 4}},
		{5, 0, []int{0, 1, 2, 3, 4}},
		{5, 10, []int{0, 1, 2, 3, 4}},
		{10, 3, []int{0, 3, 6}},
		{100, 4, []int{0, 25, 50, 75}},
	}
	for _, tt := range tests {
		if got := sampleIndices(tt.n, tt.max); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("sampleIndices(%d, %d) = %v, want %v", tt.n, tt.max, got, tt.want)
		}
	}
}

type staticTyper struct{}

func (staticTyper) TypeOfValue(v any) (typesystem.Type, bool) {
	if _, ok := v.(plain); ok {
		return typesystem.Generic("Box", typesystem.String), true
	}
	return nil, false
}

func TestInferValueTyper(t *testing.T) {
	e, r := newTestEngine(t)
	r.AddValueTyper(staticTyper{})
	if got := e.Infer(plain{}, 10, -1); got.String() != "Box[String]" {
		t.Errorf("Infer with hook = %s", got)
	}
	if got := e.Infer(point{}, 10, -1); got.String() != "compat.point" {
		t.Errorf("hook should not claim other values, got %s", got)
	}
}
