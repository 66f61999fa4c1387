// Package typeexpr parses C#-style type expressions such as
// "Dictionary<string, List<int?>>[]" and resolves them against a symbol
// graph.
package typeexpr

import "strings"

// Expr is an unresolved type expression: one of *Name, *Array, *Pointer,
// *Nullable, *Tuple or *FuncPtr.
type Expr interface {
	expr()
	String() string
}

// Segment is one dotted part of a name with its type arguments.
type Segment struct {
	Ident string
	Args  []Expr
}

// Name is a possibly qualified, possibly generic type name. Keywords such as
// int and dynamic are single-segment names.
type Name struct {
	Global   bool // global:: prefix
	Segments []Segment
}

// Array is a vector (Vector true, rank 1), a non-vector rank-1 array
// written [*], or a multi-dimensional array.
type Array struct {
	Elem   Expr
	Rank   int
	Vector bool
}

// Pointer is T*.
type Pointer struct {
	Elem Expr
}

// Nullable is T?. It becomes Nullable<T> for value types and an annotation
// otherwise.
type Nullable struct {
	Elem Expr
}

// TupleElem is one element of a tuple, Name is empty when unnamed.
type TupleElem struct {
	Type Expr
	Name string
}

// Tuple is (T1 a, T2 b, ...), always at least two elements.
type Tuple struct {
	Elems []TupleElem
}

// FuncParam is a function pointer parameter or return with its ref kind
// keyword ("", "ref", "out", "in", "ref readonly").
type FuncParam struct {
	RefKind string
	Type    Expr
}

// FuncPtr is delegate*<...>. Convention is "", "managed" or "unmanaged".
type FuncPtr struct {
	Convention  string
	Conventions []string
	Params      []FuncParam
	Return      FuncParam
}

func (*Name) expr()     {}
func (*Array) expr()    {}
func (*Pointer) expr()  {}
func (*Nullable) expr() {}
func (*Tuple) expr()    {}
func (*FuncPtr) expr()  {}

// Last returns the final segment.
func (n *Name) Last() Segment {
	return n.Segments[len(n.Segments)-1]
}

// Qualifier returns the dotted segments before the last, without arguments.
func (n *Name) Qualifier() string {
	parts := make([]string, 0, len(n.Segments)-1)
	for _, s := range n.Segments[:len(n.Segments)-1] {
		parts = append(parts, s.Ident)
	}
	return strings.Join(parts, ".")
}

func (n *Name) String() string {
	var b strings.Builder
	if n.Global {
		b.WriteString("global::")
	}
	for i, s := range n.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Ident)
		if len(s.Args) > 0 {
			b.WriteByte('<')
			writeList(&b, s.Args)
			b.WriteByte('>')
		}
	}
	return b.String()
}

func (a *Array) String() string {
	switch {
	case a.Vector:
		return a.Elem.String() + "[]"
	case a.Rank <= 1:
		return a.Elem.String() + "[*]"
	default:
		return a.Elem.String() + "[" + strings.Repeat(",", a.Rank-1) + "]"
	}
}

func (p *Pointer) String() string  { return p.Elem.String() + "*" }
func (n *Nullable) String() string { return n.Elem.String() + "?" }

func (t *Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range t.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Type.String())
		if e.Name != "" {
			b.WriteByte(' ')
			b.WriteString(e.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func (f *FuncPtr) String() string {
	var b strings.Builder
	b.WriteString("delegate*")
	if f.Convention != "" {
		b.WriteByte(' ')
		b.WriteString(f.Convention)
		if len(f.Conventions) > 0 {
			b.WriteByte('[')
			b.WriteString(strings.Join(f.Conventions, ", "))
			b.WriteByte(']')
		}
	}
	b.WriteByte('<')
	for _, p := range append(append([]FuncParam(nil), f.Params...), f.Return) {
		if p.RefKind != "" {
			b.WriteString(p.RefKind)
			b.WriteByte(' ')
		}
		b.WriteString(p.Type.String())
		b.WriteString(", ")
	}
	s := strings.TrimSuffix(b.String(), ", ")
	return s + ">"
}

func writeList(b *strings.Builder, es []Expr) {
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
}
