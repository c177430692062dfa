package liketype

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mustParse(t *testing.T, c *Checker, src string) Type {
	t.Helper()
	typ, err := c.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return typ
}

func TestPackageLevelFunctions(t *testing.T) {
	listInt, err := ParseType("List[Int]")
	if err != nil {
		t.Fatal(err)
	}
	seqInt, _ := ParseType("Sequence[Int]")

	if !IsSubtype(listInt, seqInt) {
		t.Error("List[Int] should be a subtype of Sequence[Int]")
	}
	if IsSubtype(seqInt, listInt) {
		t.Error("Sequence[Int] should not be a subtype of List[Int]")
	}
	if !IsInstance([]any{1, 2, 3}, listInt) {
		t.Error("[1, 2, 3] should be a List[Int]")
	}
	if IsInstance([]any{1, 2, "3"}, listInt) {
		t.Error(`[1, 2, "3"] should not be a List[Int]`)
	}
	if got := Infer(map[string]any{"key": "value"}).String(); got != "Map[String, String]" {
		t.Errorf("Infer = %s", got)
	}
	if got := Reduce(Optional(Int)).String(); got != "Optional[Int]" {
		t.Errorf("Reduce = %s", got)
	}
}

func TestUnifyAndInstantiate(t *testing.T) {
	c := New(nil)
	if err := c.Registry().Declare(Class{Name: "Box", Params: []TVar{{Name: "T"}}}); err != nil {
		t.Fatal(err)
	}

	s, err := c.UnifyTypes(mustParse(t, c, "Box[T]"), mustParse(t, c, "Box[List[Int]]"))
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	got, err := c.InstantiateType(mustParse(t, c, "Optional[T]"), s)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if got.String() != "Optional[List[Int]]" {
		t.Errorf("Instantiate = %s", got)
	}

	_, err = c.UnifyTypes(mustParse(t, c, "Box[T]"), Int)
	var mismatch *StructuralMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected a structural mismatch, got %v", err)
	}
}

func TestCheckerValidatorDefault(t *testing.T) {
	validated := New(nil)
	structural := New(validated.Registry(), WithValidator(nil))
	positive := mustParse(t, validated, `Annotated[Int, ">0"]`)

	if validated.IsInstance(0, positive) {
		t.Error("default checker should enforce Annotated constraints")
	}
	if !structural.IsInstance(0, positive) {
		t.Error("structural checker should ignore Annotated constraints")
	}
}

func TestLoadDeclarations(t *testing.T) {
	dir := t.TempDir()
	decls := `
classes:
  - name: Speaker
    kind: protocol
    members:
      - name: speak
        type: "Callable[[], String]"
  - name: Dog
    members:
      - name: speak
        type: "Callable[[], String]"
  - name: Rock
`
	if err := os.WriteFile(filepath.Join(dir, "liketype.yaml"), []byte(decls), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(nil)
	used, err := c.LoadDeclarations("", dir)
	if err != nil {
		t.Fatalf("LoadDeclarations: %v", err)
	}
	if used == "" {
		t.Fatal("declaration file not found")
	}

	speaker := mustParse(t, c, "Speaker")
	if !c.IsSubtypeTypes(mustParse(t, c, "Dog"), speaker) {
		t.Error("Dog should conform to Speaker")
	}
	if c.IsSubtypeTypes(mustParse(t, c, "Rock"), speaker) {
		t.Error("Rock should not conform to Speaker")
	}
}

func TestImportProto(t *testing.T) {
	dir := t.TempDir()
	proto := `syntax = "proto3";
package inventory;
message Item {
  string sku = 1;
  int32 count = 2;
}
`
	if err := os.WriteFile(filepath.Join(dir, "inventory.proto"), []byte(proto), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(nil)
	if err := c.ImportProto([]string{dir}, "inventory.proto"); err != nil {
		t.Fatalf("ImportProto: %v", err)
	}
	item := mustParse(t, c, "inventory.Item")
	if !c.IsInstance(map[string]any{"sku": "a-1", "count": 3}, item) {
		t.Error("mapping with the message fields should validate as inventory.Item")
	}
	if c.IsInstance(map[string]any{"sku": "a-1"}, item) {
		t.Error("mapping missing a field should not validate")
	}
}
