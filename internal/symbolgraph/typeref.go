package symbolgraph

// TypeRef is a use of a type: one of *NamedType, *ArrayType, *PointerType,
// *FunctionPointerType, *TypeParameterType, *DynamicType or *ErrorType.
type TypeRef interface {
	typeRef()
}

// TypeArg is a type argument together with its nullability annotation.
type TypeArg struct {
	Type     TypeRef
	Nullable NullableAnnotation
}

// TupleElement is one element of a tuple type. Explicit is false for the
// synthesized positional names Item1, Item2 and so on.
type TupleElement struct {
	Name     string
	Explicit bool
	Type     TypeRef
	Nullable NullableAnnotation
}

// NamedType references a class, struct, interface, enum or delegate,
// possibly constructed with type arguments.
type NamedType struct {
	// Def is nil when the definition is not part of the graph.
	Def *Type
	// Name and Namespace identify the type when Def is nil. Loaders fill
	// Name in either case.
	Name      string
	Namespace string
	Special   SpecialType
	// Native marks nint and nuint.
	Native bool
	Args   []TypeArg
	// Tuple is set for value tuples.
	Tuple []TupleElement
	// ValueType is a hint for types without a definition.
	ValueType bool
}

// TypeName returns the simple name without arity.
func (n *NamedType) TypeName() string {
	if n.Def != nil {
		return n.Def.Name
	}
	return n.Name
}

// ContainerPath returns the namespace and containing types of the referenced
// type, dotted.
func (n *NamedType) ContainerPath() string {
	if n.Def == nil {
		return n.Namespace
	}
	if n.Def.Containing != nil {
		return n.Def.Containing.FullName()
	}
	return n.Def.Namespace.FullName()
}

// Kind returns the declaration kind, or UnknownKind without a definition.
func (n *NamedType) Kind() TypeKind {
	if n.Def != nil {
		return n.Def.Kind
	}
	return UnknownKind
}

// metadataName is the name and namespace of a reference without a
// definition. Tuple syntax stands for System.ValueTuple.
func (n *NamedType) metadataName() (string, string) {
	if n.Name == "" && len(n.Tuple) > 0 {
		return "ValueTuple", "System"
	}
	return n.Name, n.Namespace
}

// typeArgs returns the type arguments. Tuple element types stand in when
// only the tuple form was recorded.
func (n *NamedType) typeArgs() []TypeRef {
	if len(n.Args) == 0 && len(n.Tuple) > 0 {
		out := make([]TypeRef, len(n.Tuple))
		for i, e := range n.Tuple {
			out[i] = e.Type
		}
		return out
	}
	out := make([]TypeRef, len(n.Args))
	for i, a := range n.Args {
		out[i] = a.Type
	}
	return out
}

// IsTuple reports whether the reference renders with tuple syntax.
func (n *NamedType) IsTuple() bool {
	return len(n.Tuple) > 1
}

// ArrayType is a vector (T[]) or a multi-dimensional array.
type ArrayType struct {
	Elem         TypeRef
	ElemNullable NullableAnnotation
	Rank         int
	// Vector is true for single-dimensional zero-based arrays.
	Vector bool
}

// PointerType is an unmanaged pointer.
type PointerType struct {
	Elem TypeRef
}

// FunctionPointerType is a delegate* type.
type FunctionPointerType struct {
	Convention CallingConvention
	// UnmanagedConventions lists the modifier type names for Unmanaged, for
	// example CallConvCdecl or CallConvSuppressGCTransition.
	UnmanagedConventions []string
	Params               []*Parameter
	Return               ReturnSig
}

// TypeParameterType references a generic parameter.
type TypeParameterType struct {
	Name  string
	Param *TypeParam
}

// DynamicType is the dynamic keyword.
type DynamicType struct{}

// ErrorType stands for a reference the loader could not resolve.
type ErrorType struct {
	Name string
}

func (*NamedType) typeRef()           {}
func (*ArrayType) typeRef()           {}
func (*PointerType) typeRef()         {}
func (*FunctionPointerType) typeRef() {}
func (*TypeParameterType) typeRef()   {}
func (*DynamicType) typeRef()         {}
func (*ErrorType) typeRef()           {}

// SpecialRef returns a reference to a well-known type.
func SpecialRef(s SpecialType) *NamedType {
	return &NamedType{Name: s.MetadataName(), Namespace: "System", Special: s, ValueType: s.IsValueType()}
}

// NativeInt returns nint or nuint.
func NativeInt(unsigned bool) *NamedType {
	s := IntPtr
	if unsigned {
		s = UIntPtr
	}
	n := SpecialRef(s)
	n.Native = true
	return n
}

// NullableOf wraps a value type in Nullable<T>.
func NullableOf(inner TypeRef) *NamedType {
	n := SpecialRef(NullableT)
	n.Args = []TypeArg{{Type: inner}}
	return n
}

// RefTo builds a reference to a graph type with the given arguments.
func RefTo(t *Type, args ...TypeArg) *NamedType {
	ns := ""
	if t.Namespace != nil {
		ns = t.Namespace.FullName()
	}
	return &NamedType{Def: t, Name: t.Name, Namespace: ns, Special: t.Special, Args: args}
}

// SelfRef references t constructed over its own type parameters.
func SelfRef(t *Type) *NamedType {
	args := make([]TypeArg, len(t.TypeParams))
	for i, tp := range t.TypeParams {
		args[i] = TypeArg{Type: &TypeParameterType{Name: tp.Name, Param: tp}}
	}
	return RefTo(t, args...)
}

// IsValueType reports whether values of ref are structs. Type parameters
// count only when constrained to struct or unmanaged.
func IsValueType(ref TypeRef) bool {
	switch v := ref.(type) {
	case *NamedType:
		if v.Def != nil {
			return v.Def.IsValueType()
		}
		return v.ValueType || v.Special.IsValueType() || len(v.Tuple) > 0
	case *TypeParameterType:
		return v.Param != nil && (v.Param.ValueType || v.Param.Unmanaged)
	}
	return false
}

// IsReferenceType reports whether ref is known to be a reference type.
func IsReferenceType(ref TypeRef) bool {
	switch v := ref.(type) {
	case *NamedType:
		return !IsValueType(v)
	case *ArrayType, *DynamicType:
		return true
	case *TypeParameterType:
		return v.Param != nil && v.Param.ReferenceType
	}
	return false
}

// Equal compares two references structurally, ignoring nullability and tuple
// element names.
func Equal(a, b TypeRef) bool {
	switch x := a.(type) {
	case *NamedType:
		y, ok := b.(*NamedType)
		if !ok || x.Native != y.Native {
			return false
		}
		if x.Def != nil || y.Def != nil {
			if x.Def != y.Def {
				return false
			}
		} else {
			xn, xs := x.metadataName()
			yn, ys := y.metadataName()
			if x.Special != y.Special || xn != yn || xs != ys {
				return false
			}
		}
		xa, ya := x.typeArgs(), y.typeArgs()
		if len(xa) != len(ya) {
			return false
		}
		for i := range xa {
			if !Equal(xa[i], ya[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Rank == y.Rank && x.Vector == y.Vector && Equal(x.Elem, y.Elem)
	case *PointerType:
		y, ok := b.(*PointerType)
		return ok && Equal(x.Elem, y.Elem)
	case *FunctionPointerType:
		y, ok := b.(*FunctionPointerType)
		if !ok || x.Convention != y.Convention || len(x.Params) != len(y.Params) ||
			len(x.UnmanagedConventions) != len(y.UnmanagedConventions) {
			return false
		}
		for i := range x.UnmanagedConventions {
			if x.UnmanagedConventions[i] != y.UnmanagedConventions[i] {
				return false
			}
		}
		for i := range x.Params {
			if x.Params[i].RefKind != y.Params[i].RefKind || !Equal(x.Params[i].Type, y.Params[i].Type) {
				return false
			}
		}
		return x.Return.RefKind == y.Return.RefKind && Equal(x.Return.Type, y.Return.Type)
	case *TypeParameterType:
		y, ok := b.(*TypeParameterType)
		if !ok {
			return false
		}
		if x.Param != nil || y.Param != nil {
			return x.Param == y.Param
		}
		return x.Name == y.Name
	case *DynamicType:
		_, ok := b.(*DynamicType)
		return ok
	case *ErrorType:
		y, ok := b.(*ErrorType)
		return ok && x.Name == y.Name
	}
	return a == nil && b == nil
}
