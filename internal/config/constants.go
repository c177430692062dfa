package config

// RegistryFileNames are the declaration file names FindConfig looks for,
// in order of preference.
var RegistryFileNames = []string{"liketype.yaml", "liketype.yml", "liketype.toml"}

// Engine defaults.
const (
	// DefaultMaxDepth bounds value inference recursion.
	DefaultMaxDepth = 10
	// DefaultMaxSample disables sampling: every element is inspected.
	DefaultMaxSample = -1
	// MaxRecursion is the hard ceiling for subtype checking, unification
	// and inference. Exceeding it fails closed.
	MaxRecursion = 256
)

// Builtin class names.
const (
	AnyTypeName      = "Any"
	ObjectTypeName   = "Object"
	NilTypeName      = "Nil"
	IntTypeName      = "Int"
	FloatTypeName    = "Float"
	StringTypeName   = "String"
	BoolTypeName     = "Bool"
	BytesTypeName    = "Bytes"
	IterableTypeName = "Iterable"
	SequenceTypeName = "Sequence"
	ListTypeName     = "List"
	TupleTypeName    = "Tuple"
	SetTypeName      = "Set"
	MappingTypeName  = "Mapping"
	MapTypeName      = "Map"
)

// Special constructor names understood by the type parser.
const (
	UnionTypeName     = "Union"
	OptionalTypeName  = "Optional"
	CallableTypeName  = "Callable"
	TypeOfTypeName    = "Type"
	AnnotatedTypeName = "Annotated"
	LiteralTypeName   = "Literal"
)
