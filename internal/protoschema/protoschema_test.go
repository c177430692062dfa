package protoschema

import (
	"testing"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/funvibe/liketype/internal/compat"
	"github.com/funvibe/liketype/internal/typesystem"
)

const peopleProto = `
syntax = "proto3";
package people;

enum Role {
  ROLE_UNSPECIFIED = 0;
  ADMIN = 1;
}

message Address {
  string city = 1;
}

message Person {
  string name = 1;
  int32 age = 2;
  repeated string tags = 3;
  map<string, int64> scores = 4;
  Address address = 5;
  Role role = 6;
  bytes avatar = 7;
  optional double height = 8;

  message Pet {
    string name = 1;
  }
  repeated Pet pets = 9;
}
`

func parsePeople(t *testing.T) (*typesystem.Registry, *desc.FileDescriptor) {
	t.Helper()
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"people.proto": peopleProto}),
	}
	fds, err := parser.ParseFiles("people.proto")
	if err != nil {
		t.Fatalf("ParseFiles: %v", err)
	}
	reg := typesystem.NewRegistry()
	if err := Import(reg, fds...); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return reg, fds[0]
}

func TestImport_Messages(t *testing.T) {
	reg, _ := parsePeople(t)

	for _, name := range []string{"people.Address", "people.Person", "people.Person.Pet"} {
		cls, ok := reg.Class(name)
		if !ok {
			t.Errorf("%s not imported", name)
			continue
		}
		if cls.Kind != typesystem.Record {
			t.Errorf("%s kind = %v, want record", name, cls.Kind)
		}
	}
	if _, ok := reg.Class("people.Person.ScoresEntry"); ok {
		t.Error("map entry messages should not become classes")
	}
}

func TestImport_FieldTypes(t *testing.T) {
	reg, _ := parsePeople(t)

	want := map[string]string{
		"name":    "String",
		"age":     "Int",
		"tags":    "List[String]",
		"scores":  "Map[String, Int]",
		"address": "Optional[people.Address]",
		"role":    "Int",
		"avatar":  "Bytes",
		"height":  "Optional[Float]",
		"pets":    "List[people.Person.Pet]",
	}
	members := reg.Members("people.Person")
	if len(members) != len(want) {
		t.Fatalf("Person has %d members, want %d", len(members), len(want))
	}
	for _, m := range members {
		if got := m.Type.String(); got != want[m.Name] {
			t.Errorf("%s = %s, want %s", m.Name, got, want[m.Name])
		}
	}
}

func TestDynamicMessageTyping(t *testing.T) {
	reg, fd := parsePeople(t)
	named := typesystem.Class{Name: "Named", Kind: typesystem.Protocol, Members: []typesystem.Member{
		{Name: "name", Type: typesystem.String},
	}}
	if err := reg.Declare(named); err != nil {
		t.Fatal(err)
	}
	e := compat.New(reg)

	msg := dynamic.NewMessage(fd.FindMessage("people.Person"))
	msg.SetFieldByName("name", "ada")

	if got := e.Infer(msg, 10, -1).String(); got != "people.Person" {
		t.Errorf("Infer = %s, want people.Person", got)
	}

	tests := []struct {
		target string
		want   bool
	}{
		{"people.Person", true},
		{"people.Address", false},
		{"Named", true},
		{"Optional[people.Person]", true},
		{"List[people.Person]", false},
	}
	for _, tt := range tests {
		target := typesystem.MustParseType(tt.target, reg)
		if got := e.IsInstance(msg, target); got != tt.want {
			t.Errorf("IsInstance(Person, %s) = %v, want %v", tt.target, got, tt.want)
		}
	}

	address := dynamic.NewMessage(fd.FindMessage("people.Address"))
	if e.IsInstance(address, typesystem.MustParseType("Named", reg)) {
		t.Error("Address has no name and should not be Named")
	}
}

func TestGeneratedMessageTyping(t *testing.T) {
	fd, err := desc.WrapFile(timestamppb.File_google_protobuf_timestamp_proto)
	if err != nil {
		t.Fatalf("WrapFile: %v", err)
	}
	reg := typesystem.NewRegistry()
	if err := Import(reg, fd); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if err := Import(reg, fd); err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if n := len(reg.ValueTypers()); n != 1 {
		t.Errorf("%d value typers installed, want 1", n)
	}

	e := compat.New(reg)
	target := typesystem.MustParseType("google.protobuf.Timestamp", reg)
	if !e.IsInstance(timestamppb.Now(), target) {
		t.Error("generated Timestamp should match its class")
	}

	var seconds string
	for _, m := range reg.Members("google.protobuf.Timestamp") {
		if m.Name == "seconds" {
			seconds = m.Type.String()
		}
	}
	if seconds != "Int" {
		t.Errorf("seconds = %q, want Int", seconds)
	}
}
