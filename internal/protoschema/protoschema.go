// Package protoschema imports protobuf message definitions into a
// registry. Every message becomes a record class named by its fully
// qualified name ("people.Person", "people.Person.Pet"), and protobuf
// message values are typed as instances of those classes.
package protoschema

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/internal/typesystem"
)

// Load parses proto files, resolving imports against importPaths, and
// imports their messages into reg.
func Load(reg *typesystem.Registry, importPaths []string, files ...string) ([]*desc.FileDescriptor, error) {
	parser := protoparse.Parser{ImportPaths: importPaths}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parsing proto: %w", err)
	}
	if err := Import(reg, fds...); err != nil {
		return nil, err
	}
	return fds, nil
}

// Import declares the messages of fds and of their dependencies, and
// installs MessageTyper so message values infer to their classes.
func Import(reg *typesystem.Registry, fds ...*desc.FileDescriptor) error {
	seen := make(map[string]bool)
	for _, fd := range fds {
		if err := importFile(reg, fd, seen); err != nil {
			return err
		}
	}
	for _, hook := range reg.ValueTypers() {
		if _, ok := hook.(MessageTyper); ok {
			return nil
		}
	}
	reg.AddValueTyper(MessageTyper{})
	return nil
}

func importFile(reg *typesystem.Registry, fd *desc.FileDescriptor, seen map[string]bool) error {
	if seen[fd.GetName()] {
		return nil
	}
	seen[fd.GetName()] = true
	for _, dep := range fd.GetDependencies() {
		if err := importFile(reg, dep, seen); err != nil {
			return err
		}
	}
	for _, md := range fd.GetMessageTypes() {
		if err := importMessage(reg, md); err != nil {
			return fmt.Errorf("%s: %w", fd.GetName(), err)
		}
	}
	return nil
}

func importMessage(reg *typesystem.Registry, md *desc.MessageDescriptor) error {
	if md.IsMapEntry() {
		return nil
	}
	cls := typesystem.Class{Name: md.GetFullyQualifiedName(), Kind: typesystem.Record}
	for _, fd := range md.GetFields() {
		cls.Members = append(cls.Members, typesystem.Member{Name: fd.GetName(), Type: FieldType(fd)})
	}
	if err := reg.Declare(cls); err != nil {
		return err
	}
	for _, nested := range md.GetNestedMessageTypes() {
		if err := importMessage(reg, nested); err != nil {
			return err
		}
	}
	return nil
}

// FieldType returns the type of a field as seen on a message value.
// Singular message fields and explicitly optional scalars may be unset
// and are Optional.
func FieldType(fd *desc.FieldDescriptor) typesystem.Type {
	if fd.IsMap() {
		return typesystem.Generic(config.MapTypeName,
			scalarType(fd.GetMapKeyType()), scalarType(fd.GetMapValueType()))
	}
	t := scalarType(fd)
	if fd.IsRepeated() {
		return typesystem.Generic(config.ListTypeName, t)
	}
	if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE ||
		fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_GROUP ||
		fd.IsProto3Optional() {
		return typesystem.NewOptional(t)
	}
	return t
}

func scalarType(fd *desc.FieldDescriptor) typesystem.Type {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return typesystem.Int
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return typesystem.Float
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return typesystem.Bool
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return typesystem.String
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return typesystem.Bytes
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		return typesystem.TCon{Name: fd.GetMessageType().GetFullyQualifiedName()}
	}
	return typesystem.Any
}

// MessageTyper types dynamic and generated protobuf messages as their
// message class.
type MessageTyper struct{}

func (MessageTyper) TypeOfValue(v any) (typesystem.Type, bool) {
	switch m := v.(type) {
	case *dynamic.Message:
		if m == nil {
			return nil, false
		}
		return typesystem.TCon{Name: m.GetMessageDescriptor().GetFullyQualifiedName()}, true
	case protoreflect.ProtoMessage:
		return typesystem.TCon{Name: string(m.ProtoReflect().Descriptor().FullName())}, true
	}
	return nil, false
}
