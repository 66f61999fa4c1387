package symbolgraph

import "strings"

// Namespace is a node of the namespace tree. The global namespace has no
// parent and an empty name.
type Namespace struct {
	Name       string
	Parent     *Namespace
	Namespaces []*Namespace
	Types      []*Type
}

// NewGlobalNamespace returns an empty root.
func NewGlobalNamespace() *Namespace {
	return &Namespace{}
}

// IsGlobal reports whether ns is a root.
func (ns *Namespace) IsGlobal() bool {
	return ns.Parent == nil
}

// FullName joins the names from the root down, excluding the global namespace.
func (ns *Namespace) FullName() string {
	if ns == nil || ns.IsGlobal() {
		return ""
	}
	if parent := ns.Parent.FullName(); parent != "" {
		return parent + "." + ns.Name
	}
	return ns.Name
}

// Child returns the direct child namespace with the given name, creating it
// when absent.
func (ns *Namespace) Child(name string) *Namespace {
	for _, c := range ns.Namespaces {
		if c.Name == name {
			return c
		}
	}
	c := &Namespace{Name: name, Parent: ns}
	ns.Namespaces = append(ns.Namespaces, c)
	return c
}

// Lookup walks a dotted path, creating namespaces as needed. An empty path
// returns ns itself.
func (ns *Namespace) Lookup(path string) *Namespace {
	cur := ns
	if path == "" {
		return cur
	}
	for _, part := range strings.Split(path, ".") {
		cur = cur.Child(part)
	}
	return cur
}

// Find walks a dotted path without creating anything.
func (ns *Namespace) Find(path string) *Namespace {
	cur := ns
	if path == "" {
		return cur
	}
	for _, part := range strings.Split(path, ".") {
		var next *Namespace
		for _, c := range cur.Namespaces {
			if c.Name == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// AddType appends t and sets its namespace back-reference.
func (ns *Namespace) AddType(t *Type) {
	t.Namespace = ns
	ns.Types = append(ns.Types, t)
}

// Type is a named type declaration.
type Type struct {
	Kind   TypeKind
	Name   string
	Access Accessibility

	Static   bool
	Abstract bool
	Sealed   bool
	ReadOnly bool
	RefLike  bool

	// Base is the class base type; nil for interfaces and for object itself.
	Base       TypeRef
	Interfaces []TypeRef
	Members    []Member
	TypeParams []*TypeParam

	// EnumUnderlying is the integral type backing an enum.
	EnumUnderlying SpecialType
	// Invoke is the signature of a delegate.
	Invoke *Method

	// Flags marks an enum whose values combine bitwise.
	Flags bool
	// UnsafeValueType marks compiler-generated fixed buffer structs.
	UnsafeValueType bool
	// Special is set when the declaration is one of the runtime's well-known types.
	Special SpecialType

	Namespace  *Namespace
	Containing *Type
}

// Arity is the number of generic parameters declared directly on t.
func (t *Type) Arity() int {
	return len(t.TypeParams)
}

// IsValueType reports whether instances of t are structs.
func (t *Type) IsValueType() bool {
	return t.Kind == Struct || t.Kind == Enum
}

// FullName is the dotted path including namespaces and containing types.
func (t *Type) FullName() string {
	var prefix string
	if t.Containing != nil {
		prefix = t.Containing.FullName()
	} else if t.Namespace != nil {
		prefix = t.Namespace.FullName()
	}
	if prefix == "" {
		return t.Name
	}
	return prefix + "." + t.Name
}

// String implements fmt.Stringer for diagnostics.
func (t *Type) String() string {
	return t.FullName()
}

// AddMember appends m and sets its containing type.
func (t *Type) AddMember(m Member) {
	switch v := m.(type) {
	case *NestedType:
		v.Type.Containing = t
		v.Type.Namespace = t.Namespace
	default:
		m.base().Containing = t
	}
	t.Members = append(t.Members, m)
}

// Nested returns the nested type with the given name and arity.
func (t *Type) Nested(name string, arity int) *Type {
	for _, m := range t.Members {
		if n, ok := m.(*NestedType); ok && n.Type.Name == name && n.Type.Arity() == arity {
			return n.Type
		}
	}
	return nil
}

// TypeParam looks up a generic parameter by name on t or its containers.
func (t *Type) TypeParam(name string) *TypeParam {
	for cur := t; cur != nil; cur = cur.Containing {
		for _, tp := range cur.TypeParams {
			if tp.Name == name {
				return tp
			}
		}
	}
	return nil
}

// TypeParam is a generic parameter declaration with its constraints.
type TypeParam struct {
	Name     string
	Variance Variance

	Unmanaged     bool
	ValueType     bool
	ReferenceType bool
	// NullableReference turns a class constraint into class?.
	NullableReference bool
	NotNull           bool
	Constructor       bool

	Constraints []TypeArg
}

// Graph is a loaded symbol graph. Global holds the declarations to print.
// External holds types that are referenced but never printed.
type Graph struct {
	Global   *Namespace
	External *Namespace
}

// NewGraph returns a graph with empty roots.
func NewGraph() *Graph {
	return &Graph{Global: NewGlobalNamespace(), External: NewGlobalNamespace()}
}

// FindType resolves a dotted name with arity against the printed tree first,
// then the external one. Nested types are separated by dots too.
func (g *Graph) FindType(fullName string, arity int) *Type {
	for _, root := range []*Namespace{g.Global, g.External} {
		if t := findIn(root, fullName, arity); t != nil {
			return t
		}
	}
	return nil
}

func findIn(root *Namespace, fullName string, arity int) *Type {
	parts := strings.Split(fullName, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		ns := root.Find(strings.Join(parts[:i], "."))
		if ns == nil {
			continue
		}
		rest := parts[i:]
		for _, t := range ns.Types {
			if t.Name != rest[0] {
				continue
			}
			cur := t
			for j, name := range rest[1:] {
				want := -1
				if j == len(rest)-2 {
					want = arity
				}
				next := nestedByName(cur, name, want)
				if next == nil {
					cur = nil
					break
				}
				cur = next
			}
			if cur != nil && (len(rest) > 1 || cur.Arity() == arity) {
				return cur
			}
		}
	}
	return nil
}

func nestedByName(t *Type, name string, arity int) *Type {
	for _, m := range t.Members {
		if n, ok := m.(*NestedType); ok && n.Type.Name == name && (arity < 0 || n.Type.Arity() == arity) {
			return n.Type
		}
	}
	return nil
}

// Walk visits every type in the printed tree, nested types included.
func (g *Graph) Walk(fn func(*Type)) {
	var walkType func(*Type)
	walkType = func(t *Type) {
		fn(t)
		for _, m := range t.Members {
			if n, ok := m.(*NestedType); ok {
				walkType(n.Type)
			}
		}
	}
	var walkNS func(*Namespace)
	walkNS = func(ns *Namespace) {
		for _, t := range ns.Types {
			walkType(t)
		}
		for _, c := range ns.Namespaces {
			walkNS(c)
		}
	}
	walkNS(g.Global)
}

// Stats counts namespaces and types in the printed tree.
func (g *Graph) Stats() (namespaces, types int) {
	var count func(*Namespace)
	count = func(ns *Namespace) {
		namespaces++
		for _, c := range ns.Namespaces {
			count(c)
		}
	}
	count(g.Global)
	g.Walk(func(*Type) { types++ })
	return namespaces, types
}
