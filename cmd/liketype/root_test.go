package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDecls = `
vars:
  - name: N
    bound: Int
  - name: K
  - name: V
classes:
  - name: Box
    params: [T]
  - name: Speaker
    kind: protocol
    members:
      - name: speak
        type: "Callable[[], String]"
  - name: Dog
    members:
      - name: speak
        type: "Callable[[], String]"
  - name: Puppy
    bases: [Dog]
aliases:
  - name: Scores
    type: Map[String, List[Int]]
`

func writeDecls(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liketype.yaml")
	if err := os.WriteFile(path, []byte(testDecls), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	reg := writeDecls(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"subtype true", []string{"subtype", "List[Int]", "Sequence[Int]"}, "true\n"},
		{"subtype false", []string{"subtype", "Sequence[Int]", "List[Int]"}, "false\n"},
		{"subtype protocol", []string{"subtype", "Puppy", "Speaker"}, "true\n"},
		{"subtype bounded var", []string{"subtype", "Int", "N"}, "true\n"},
		{"instance list", []string{"instance", "[1, 2, 3]", "List[Int]"}, "true\n"},
		{"instance mixed list", []string{"instance", `[1, 2, "3"]`, "List[Int]"}, "false\n"},
		{"instance mapping", []string{"instance", `{"key": "value"}`, "Mapping[String, String]"}, "true\n"},
		{"instance alias", []string{"instance", "{a: [1, 2]}", "Scores"}, "true\n"},
		{"instance annotated", []string{"instance", "0", `Annotated[Int, ">0"]`}, "false\n"},
		{"infer", []string{"infer", `{"a": [1, 2.5]}`}, "Map[String, List[Union[Float, Int]]]\n"},
		{"infer null", []string{"infer", "null"}, "Nil\n"},
		{"unify", []string{"unify", "Map[K, V]", "Map[String, List[Int]]"}, "K = String\nV = List[Int]\n"},
		{"unify generic class", []string{"unify", "Box[T]", "Box[Optional[Int]]"}, "T = Optional[Int]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, append([]string{"--registry", reg}, tt.args...)...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandErrors(t *testing.T) {
	reg := writeDecls(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown type", []string{"subtype", "Missing", "Int"}, "unknown type: Missing"},
		{"malformed type", []string{"subtype", "List[", "Int"}, `type "List["`},
		{"unify mismatch", []string{"unify", "Map[K, V]", "List[Int]"}, "cannot unify"},
		{"bad value", []string{"instance", "[1, 2", "List[Int]"}, "value"},
		{"missing registry", []string{"--registry", "/nonexistent/liketype.yaml", "classes"}, "reading declarations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if args[0] != "--registry" {
				args = append([]string{"--registry", reg}, args...)
			}
			_, err := run(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	got, err := run(t, "--registry", writeDecls(t), "describe", `Map[String, List[Box[Annotated[Int, ">0"]]]]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"descriptor: Map[String, List[Box[Int]]]",
		"depth: 4",
		"constraint: >0",
		"approximation: Map[String, List[Box]]",
		"approximation: Map[String, List]",
		"approximation: Map",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("describe output missing %q:\n%s", want, got)
		}
	}
}

func TestClasses(t *testing.T) {
	got, err := run(t, "--registry", writeDecls(t), "classes", "--kind", "protocol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "protocol\n") || !strings.Contains(got, "  Speaker\n") {
		t.Errorf("classes output:\n%s", got)
	}
	if strings.Contains(got, "Dog") {
		t.Errorf("kind filter ignored:\n%s", got)
	}

	got, err = run(t, "--registry", writeDecls(t), "classes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"  Box[T]\n", "  Puppy <: Dog\n", "  List[_T] <: Sequence[_T]\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("classes output missing %q:\n%s", want, got)
		}
	}
}

func TestMaxDepthFromEnv(t *testing.T) {
	t.Setenv("LIKETYPE_MAX_DEPTH", "1")
	got, err := run(t, "--registry", writeDecls(t), "infer", "[[1]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "List[List]\n" {
		t.Errorf("output = %q, want List[List]", got)
	}
}

func TestMaxDepthFromFlag(t *testing.T) {
	t.Setenv("LIKETYPE_MAX_DEPTH", "5")
	got, err := run(t, "--registry", writeDecls(t), "--max-depth", "1", "infer", "[[1]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "List[List]\n" {
		t.Errorf("output = %q, want the flag to win over the environment", got)
	}
}

func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02"
	if got, want := versionString(), "v1.2.3 (commit: abc1234, built: 2026-01-02)"; got != want {
		t.Errorf("versionString() = %q, want %q", got, want)
	}
	Version = "dev"
	if got := versionString(); got != "dev (built from source)" {
		t.Errorf("versionString() = %q", got)
	}
}
