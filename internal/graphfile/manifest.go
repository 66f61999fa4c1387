// Package graphfile reads and writes symbol graph manifests: declarative
// YAML, JSON or TOML descriptions of namespaces, types and members.
package graphfile

// CurrentVersion is the manifest schema version written by Encode.
const CurrentVersion = 1

// Manifest is the root of a graph file.
type Manifest struct {
	Version int `yaml:"version,omitempty" json:"version,omitempty" toml:"version,omitempty"`
	// Nullable enables the nullable annotation context: unannotated
	// reference types are non-nullable and T? prints as T?.
	Nullable   bool            `yaml:"nullable,omitempty" json:"nullable,omitempty" toml:"nullable,omitempty"`
	Namespaces []NamespaceDecl `yaml:"namespaces,omitempty" json:"namespaces,omitempty" toml:"namespaces,omitempty"`
	Externals  []ExternalDecl  `yaml:"externals,omitempty" json:"externals,omitempty" toml:"externals,omitempty"`
}

// NamespaceDecl groups the types of one namespace. An empty name is the
// global namespace.
type NamespaceDecl struct {
	Name   string     `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Usings []string   `yaml:"usings,omitempty" json:"usings,omitempty" toml:"usings,omitempty"`
	Types  []TypeDecl `yaml:"types,omitempty" json:"types,omitempty" toml:"types,omitempty"`
}

// TypeDecl declares a class, struct, interface, enum or delegate.
type TypeDecl struct {
	Kind   string `yaml:"kind" json:"kind" toml:"kind"`
	Name   string `yaml:"name" json:"name" toml:"name"`
	Access string `yaml:"access,omitempty" json:"access,omitempty" toml:"access,omitempty"`
	// Modifiers: static, abstract, sealed, readonly, ref, flags,
	// unsafeValueType.
	Modifiers  []string        `yaml:"modifiers,omitempty" json:"modifiers,omitempty" toml:"modifiers,omitempty"`
	TypeParams []TypeParamDecl `yaml:"typeParams,omitempty" json:"typeParams,omitempty" toml:"typeParams,omitempty"`
	Base       string          `yaml:"base,omitempty" json:"base,omitempty" toml:"base,omitempty"`
	Interfaces []string        `yaml:"interfaces,omitempty" json:"interfaces,omitempty" toml:"interfaces,omitempty"`
	// Underlying is the integral type of an enum.
	Underlying string `yaml:"underlying,omitempty" json:"underlying,omitempty" toml:"underlying,omitempty"`
	// Returns, RefReturn and Params describe a delegate's signature.
	Returns   string       `yaml:"returns,omitempty" json:"returns,omitempty" toml:"returns,omitempty"`
	RefReturn string       `yaml:"refReturn,omitempty" json:"refReturn,omitempty" toml:"refReturn,omitempty"`
	Params    []ParamDecl  `yaml:"params,omitempty" json:"params,omitempty" toml:"params,omitempty"`
	Members   []MemberDecl `yaml:"members,omitempty" json:"members,omitempty" toml:"members,omitempty"`
}

// TypeParamDecl declares a generic parameter. Constraints are type
// expressions or one of class, class?, struct, unmanaged, notnull, new().
type TypeParamDecl struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	// Variance is in or out.
	Variance    string   `yaml:"variance,omitempty" json:"variance,omitempty" toml:"variance,omitempty"`
	Constraints []string `yaml:"constraints,omitempty" json:"constraints,omitempty" toml:"constraints,omitempty"`
}

// MemberDecl declares one member. Kind is one of field, const, property,
// indexer, event, method, constructor, destructor, operator, conversion or
// type (with Nested set). Members of an enum are its values.
type MemberDecl struct {
	Kind   string `yaml:"kind,omitempty" json:"kind,omitempty" toml:"kind,omitempty"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Access string `yaml:"access,omitempty" json:"access,omitempty" toml:"access,omitempty"`
	// Modifiers: static, abstract, virtual, override, sealed, readonly,
	// volatile, implicit.
	Modifiers []string `yaml:"modifiers,omitempty" json:"modifiers,omitempty" toml:"modifiers,omitempty"`
	Type      string   `yaml:"type,omitempty" json:"type,omitempty" toml:"type,omitempty"`
	// Value is a constant expression for consts, enum values and fields.
	Value      string          `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
	Returns    string          `yaml:"returns,omitempty" json:"returns,omitempty" toml:"returns,omitempty"`
	RefReturn  string          `yaml:"refReturn,omitempty" json:"refReturn,omitempty" toml:"refReturn,omitempty"`
	TypeParams []TypeParamDecl `yaml:"typeParams,omitempty" json:"typeParams,omitempty" toml:"typeParams,omitempty"`
	Params     []ParamDecl     `yaml:"params,omitempty" json:"params,omitempty" toml:"params,omitempty"`
	// Accessors such as "get", "protected set", "readonly get", "init",
	// "add" and "remove".
	Accessors []string `yaml:"accessors,omitempty" json:"accessors,omitempty" toml:"accessors,omitempty"`
	FixedSize int      `yaml:"fixedSize,omitempty" json:"fixedSize,omitempty" toml:"fixedSize,omitempty"`
	// Implements lists explicit interface targets as "IFoo.Name" or
	// "IFoo<T>.Name".
	Implements []string  `yaml:"implements,omitempty" json:"implements,omitempty" toml:"implements,omitempty"`
	Nested     *TypeDecl `yaml:"nested,omitempty" json:"nested,omitempty" toml:"nested,omitempty"`
}

// ParamDecl declares a parameter.
type ParamDecl struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	Type string `yaml:"type" json:"type" toml:"type"`
	// RefKind is ref, out, in or ref readonly.
	RefKind string `yaml:"refKind,omitempty" json:"refKind,omitempty" toml:"refKind,omitempty"`
	Params  bool   `yaml:"params,omitempty" json:"params,omitempty" toml:"params,omitempty"`
	This    bool   `yaml:"this,omitempty" json:"this,omitempty" toml:"this,omitempty"`
	// Default is a constant expression; empty means no default.
	Default string `yaml:"default,omitempty" json:"default,omitempty" toml:"default,omitempty"`
}

// ExternalDecl describes a referenced type that is not printed, such as a
// framework interface, so that interface reduction and value-type checks
// know its shape.
type ExternalDecl struct {
	// Name is the full dotted name without arity.
	Name       string   `yaml:"name" json:"name" toml:"name"`
	Kind       string   `yaml:"kind,omitempty" json:"kind,omitempty" toml:"kind,omitempty"`
	TypeParams []string `yaml:"typeParams,omitempty" json:"typeParams,omitempty" toml:"typeParams,omitempty"`
	Base       string   `yaml:"base,omitempty" json:"base,omitempty" toml:"base,omitempty"`
	Interfaces []string `yaml:"interfaces,omitempty" json:"interfaces,omitempty" toml:"interfaces,omitempty"`
}
