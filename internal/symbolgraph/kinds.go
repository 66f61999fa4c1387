package symbolgraph

import "strings"

// Accessibility uses the metadata numbering. Larger is more visible.
type Accessibility int

const (
	NotApplicable Accessibility = iota
	Private
	ProtectedAndInternal
	Protected
	Internal
	ProtectedOrInternal
	Public
)

var accessibilityNames = map[Accessibility]string{
	NotApplicable:        "",
	Private:              "private",
	ProtectedAndInternal: "private protected",
	Protected:            "protected",
	Internal:             "internal",
	ProtectedOrInternal:  "protected internal",
	Public:               "public",
}

func (a Accessibility) String() string {
	if s, ok := accessibilityNames[a]; ok {
		return s
	}
	return "invalid"
}

// ParseAccessibility accepts the C# modifier spelling, in either word order.
func ParseAccessibility(s string) (Accessibility, bool) {
	switch strings.Join(strings.Fields(s), " ") {
	case "":
		return NotApplicable, true
	case "private":
		return Private, true
	case "private protected", "protected private":
		return ProtectedAndInternal, true
	case "protected":
		return Protected, true
	case "internal":
		return Internal, true
	case "protected internal", "internal protected":
		return ProtectedOrInternal, true
	case "public":
		return Public, true
	}
	return NotApplicable, false
}

// TypeKind is the declaration kind of a Type.
type TypeKind int

const (
	UnknownKind TypeKind = iota
	Class
	Struct
	Interface
	Enum
	Delegate
)

func (k TypeKind) String() string {
	switch k {
	case Class:
		return "class"
	case Struct:
		return "struct"
	case Interface:
		return "interface"
	case Enum:
		return "enum"
	case Delegate:
		return "delegate"
	}
	return "unknown"
}

// ParseTypeKind maps a keyword to a TypeKind.
func ParseTypeKind(s string) (TypeKind, bool) {
	switch s {
	case "class":
		return Class, true
	case "struct":
		return Struct, true
	case "interface":
		return Interface, true
	case "enum":
		return Enum, true
	case "delegate":
		return Delegate, true
	}
	return UnknownKind, false
}

// SpecialType identifies the runtime's well-known types.
type SpecialType int

const (
	NoSpecial SpecialType = iota
	Object
	Void
	Boolean
	Char
	SByte
	Byte
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Single
	Double
	Decimal
	String
	IntPtr
	UIntPtr
	NullableT
)

var keywords = map[SpecialType]string{
	Object:  "object",
	Void:    "void",
	Boolean: "bool",
	Char:    "char",
	SByte:   "sbyte",
	Byte:    "byte",
	Int16:   "short",
	UInt16:  "ushort",
	Int32:   "int",
	UInt32:  "uint",
	Int64:   "long",
	UInt64:  "ulong",
	Single:  "float",
	Double:  "double",
	Decimal: "decimal",
	String:  "string",
}

var metadataNames = map[SpecialType]string{
	Object:    "Object",
	Void:      "Void",
	Boolean:   "Boolean",
	Char:      "Char",
	SByte:     "SByte",
	Byte:      "Byte",
	Int16:     "Int16",
	UInt16:    "UInt16",
	Int32:     "Int32",
	UInt32:    "UInt32",
	Int64:     "Int64",
	UInt64:    "UInt64",
	Single:    "Single",
	Double:    "Double",
	Decimal:   "Decimal",
	String:    "String",
	IntPtr:    "IntPtr",
	UIntPtr:   "UIntPtr",
	NullableT: "Nullable",
}

// Keyword returns the language keyword for s, if it has one.
func (s SpecialType) Keyword() (string, bool) {
	k, ok := keywords[s]
	return k, ok
}

// MetadataName is the type's name inside the System namespace.
func (s SpecialType) MetadataName() string {
	return metadataNames[s]
}

// IsValueType reports whether the special type is a struct.
func (s SpecialType) IsValueType() bool {
	switch s {
	case Void, Boolean, Char, SByte, Byte, Int16, UInt16, Int32, UInt32, Int64, UInt64,
		Single, Double, Decimal, IntPtr, UIntPtr, NullableT:
		return true
	}
	return false
}

// IsInteger reports whether s is one of the integral types usable as an
// enum underlying type.
func (s SpecialType) IsInteger() bool {
	switch s {
	case SByte, Byte, Int16, UInt16, Int32, UInt32, Int64, UInt64:
		return true
	}
	return false
}

// SpecialFromKeyword maps a C# keyword to its special type.
func SpecialFromKeyword(kw string) (SpecialType, bool) {
	for s, k := range keywords {
		if k == kw {
			return s, true
		}
	}
	return NoSpecial, false
}

// SpecialFromMetadataName maps a System type name such as "Int32" to its
// special type.
func SpecialFromMetadataName(name string) (SpecialType, bool) {
	for s, n := range metadataNames {
		if n == name {
			return s, true
		}
	}
	return NoSpecial, false
}

// NullableAnnotation is the reference-nullability state of a type use.
type NullableAnnotation int

const (
	// Oblivious means the declaration predates nullable annotations.
	Oblivious NullableAnnotation = iota
	NotAnnotated
	Annotated
)

// RefKind covers parameter passing modes and by-ref returns.
type RefKind int

const (
	RefNone RefKind = iota
	Ref
	Out
	In
	RefReadOnly
)

func (r RefKind) String() string {
	switch r {
	case Ref:
		return "ref"
	case Out:
		return "out"
	case In:
		return "in"
	case RefReadOnly:
		return "ref readonly"
	}
	return ""
}

// Variance of a generic type parameter.
type Variance int

const (
	Invariant Variance = iota
	Contravariant
	Covariant
)

// MethodKind distinguishes ordinary methods from the special forms.
type MethodKind int

const (
	Ordinary MethodKind = iota
	Constructor
	StaticConstructor
	Destructor
	UserDefinedOperator
	Conversion
	ExplicitInterfaceImplementation
	PropertyGet
	PropertySet
	EventAdd
	EventRemove
)

func (k MethodKind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Constructor:
		return "constructor"
	case StaticConstructor:
		return "static constructor"
	case Destructor:
		return "destructor"
	case UserDefinedOperator:
		return "operator"
	case Conversion:
		return "conversion"
	case ExplicitInterfaceImplementation:
		return "explicit implementation"
	case PropertyGet:
		return "property getter"
	case PropertySet:
		return "property setter"
	case EventAdd:
		return "event adder"
	case EventRemove:
		return "event remover"
	}
	return "unknown"
}

// CallingConvention of a function pointer type.
type CallingConvention int

const (
	Managed CallingConvention = iota
	Unmanaged
	CDecl
	StdCall
	ThisCall
	FastCall
)
