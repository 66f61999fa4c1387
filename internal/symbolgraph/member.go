package symbolgraph

// Member is one of *Field, *Property, *Event, *Method or *NestedType.
type Member interface {
	// Info returns the flags shared by every member kind.
	Info() MemberInfo
	base() *MemberBase
}

// MemberInfo is a read-only view of the common member state.
type MemberInfo struct {
	Name       string
	Access     Accessibility
	Static     bool
	Unnamed    bool
	Containing *Type
}

// MemberBase carries the modifiers common to fields, properties, events and
// methods.
type MemberBase struct {
	Name   string
	Access Accessibility

	Static   bool
	Abstract bool
	Virtual  bool
	Override bool
	Sealed   bool
	ReadOnly bool

	// Implicit marks compiler-declared members such as default constructors.
	Implicit bool
	// Unnamed marks members that cannot be referenced by name from source,
	// such as explicit interface implementations.
	Unnamed bool

	Containing *Type
}

func (b *MemberBase) base() *MemberBase { return b }

// Info implements Member.
func (b *MemberBase) Info() MemberInfo {
	return MemberInfo{
		Name:       b.Name,
		Access:     b.Access,
		Static:     b.Static,
		Unnamed:    b.Unnamed,
		Containing: b.Containing,
	}
}

// ExplicitImpl names the interface member a member implements explicitly.
type ExplicitImpl struct {
	Interface TypeRef
	Name      string
}

// Field is a field, constant, fixed-size buffer or enum value.
type Field struct {
	MemberBase
	Type     TypeRef
	Nullable NullableAnnotation

	Const    bool
	Volatile bool
	// FixedSize is the element count of a fixed-size buffer, zero otherwise.
	FixedSize int
	// Constant is nil when the field has no constant value.
	Constant *ConstantValue
}

// Accessor is a property or event accessor.
type Accessor struct {
	// Access is NotApplicable when the accessor inherits the member's.
	Access   Accessibility
	ReadOnly bool
	InitOnly bool
}

// Property is a property or indexer.
type Property struct {
	MemberBase
	Type     TypeRef
	Nullable NullableAnnotation
	// RefKind is RefNone, Ref or RefReadOnly.
	RefKind RefKind
	Indexer bool
	Params  []*Parameter

	Getter *Accessor
	Setter *Accessor

	ExplicitImpls []ExplicitImpl
}

// Event is an event declaration.
type Event struct {
	MemberBase
	Type     TypeRef
	Nullable NullableAnnotation

	Add    *Accessor
	Remove *Accessor

	ExplicitImpls []ExplicitImpl
}

// ReturnSig is the return part of a method or function pointer signature.
type ReturnSig struct {
	Type     TypeRef
	Nullable NullableAnnotation
	// RefKind is RefNone, Ref or RefReadOnly.
	RefKind RefKind
}

// ReturnsVoid reports whether the signature returns nothing.
func (r ReturnSig) ReturnsVoid() bool {
	n, ok := r.Type.(*NamedType)
	return ok && n.Special == Void
}

// Method is any method-like member.
type Method struct {
	MemberBase
	Kind       MethodKind
	Return     ReturnSig
	TypeParams []*TypeParam
	Params     []*Parameter
	// Extension marks a static method whose first parameter is the receiver.
	Extension bool

	ExplicitImpls []ExplicitImpl
}

// TypeParam looks up a method-level generic parameter, then the containing
// type's.
func (m *Method) TypeParam(name string) *TypeParam {
	for _, tp := range m.TypeParams {
		if tp.Name == name {
			return tp
		}
	}
	if m.Containing != nil {
		return m.Containing.TypeParam(name)
	}
	return nil
}

// NestedType wraps a type declared inside another type.
type NestedType struct {
	Type *Type
}

// Info implements Member.
func (n *NestedType) Info() MemberInfo {
	return MemberInfo{
		Name:       n.Type.Name,
		Access:     n.Type.Access,
		Static:     n.Type.Static,
		Containing: n.Type.Containing,
	}
}

func (n *NestedType) base() *MemberBase {
	return &MemberBase{Name: n.Type.Name, Access: n.Type.Access, Static: n.Type.Static}
}

// Parameter of a method, indexer, delegate or function pointer.
type Parameter struct {
	Name     string
	Type     TypeRef
	Nullable NullableAnnotation
	RefKind  RefKind
	Params   bool
	This     bool
	// Default is nil when no explicit default value is declared.
	Default *ConstantValue
}

// Arity returns the generic arity of a member, zero for non-generic kinds.
func Arity(m Member) int {
	switch v := m.(type) {
	case *Method:
		return len(v.TypeParams)
	case *NestedType:
		return v.Type.Arity()
	}
	return 0
}

// Params returns the parameter list of methods and indexers.
func Params(m Member) []*Parameter {
	switch v := m.(type) {
	case *Method:
		return v.Params
	case *Property:
		return v.Params
	}
	return nil
}
