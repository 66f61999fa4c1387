package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "apidump/internal/errors"
	sg "apidump/internal/symbolgraph"
)

var (
	intRef    = sg.SpecialRef(sg.Int32)
	voidRet   = sg.ReturnSig{Type: sg.SpecialRef(sg.Void)}
	objectRef = sg.SpecialRef(sg.Object)
)

func render(t *testing.T, g *sg.Graph, opts Options) string {
	t.Helper()
	out, err := RenderString(g, opts)
	require.NoError(t, err)
	return out
}

func class(ns *sg.Namespace, name string) *sg.Type {
	t := &sg.Type{Kind: sg.Class, Name: name, Access: sg.Public, Base: objectRef}
	ns.AddType(t)
	return t
}

func method(name string, ret sg.ReturnSig, params ...*sg.Parameter) *sg.Method {
	return &sg.Method{
		MemberBase: sg.MemberBase{Name: name, Access: sg.Public},
		Kind:       sg.Ordinary,
		Return:     ret,
		Params:     params,
	}
}

func param(name string, t sg.TypeRef) *sg.Parameter {
	return &sg.Parameter{Name: name, Type: t}
}

func TestEmptyClassCollapsesBlock(t *testing.T) {
	g := sg.NewGraph()
	class(g.Global.Lookup("Acme"), "Empty")

	want := "namespace Acme\n" +
		"{\n" +
		"    public class Empty { }\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestNamespaceWithoutPublicTypesIsOmitted(t *testing.T) {
	g := sg.NewGraph()
	hidden := class(g.Global.Lookup("Acme.Internal"), "Helper")
	hidden.Access = sg.Internal
	class(g.Global.Lookup("Acme.Api"), "Client")

	want := "namespace Acme.Api\n" +
		"{\n" +
		"    public class Client { }\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestClassMembersInCanonicalOrder(t *testing.T) {
	g := sg.NewGraph()
	ns := g.Global.Lookup("Acme")
	w := class(ns, "Widget")
	w.Sealed = true
	w.Interfaces = []sg.TypeRef{&sg.NamedType{Name: "IDisposable", Namespace: "System"}}

	create := method("Create", sg.ReturnSig{Type: sg.RefTo(w)})
	create.Static = true
	w.AddMember(create)
	w.AddMember(method("Dispose", voidRet))
	w.AddMember(&sg.Event{
		MemberBase: sg.MemberBase{Name: "Changed", Access: sg.Public},
		Type:       &sg.NamedType{Name: "EventHandler", Namespace: "System"},
		Add:        &sg.Accessor{},
		Remove:     &sg.Accessor{},
	})
	w.AddMember(&sg.Property{
		MemberBase: sg.MemberBase{Name: "Name", Access: sg.Public},
		Type:       sg.SpecialRef(sg.String),
		Nullable:   sg.Annotated,
		Getter:     &sg.Accessor{},
		Setter:     &sg.Accessor{},
	})
	w.AddMember(&sg.Field{MemberBase: sg.MemberBase{Name: "hidden", Access: sg.Private}, Type: intRef})
	w.AddMember(&sg.Method{
		MemberBase: sg.MemberBase{Name: ".ctor", Access: sg.Public},
		Kind:       sg.Constructor,
		Return:     voidRet,
		Params:     []*sg.Parameter{param("size", intRef)},
	})
	w.AddMember(&sg.Field{
		MemberBase: sg.MemberBase{Name: "Max", Access: sg.Public, Static: true},
		Type:       intRef,
		Const:      true,
		Constant:   sg.Int(sg.ConstInt32, 10),
	})

	want := "namespace Acme\n" +
		"{\n" +
		"    public sealed class Widget : IDisposable\n" +
		"    {\n" +
		"        public const int Max = 10;\n" +
		"        public Widget(int size);\n" +
		"        public string? Name { get; set; }\n" +
		"        public event EventHandler Changed;\n" +
		"        public void Dispose();\n" +
		"        public static Widget Create();\n" +
		"    }\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))

	opts := DefaultOptions()
	opts.ShowNullable = false
	assert.Contains(t, render(t, g, opts), "public string Name { get; set; }")
}

func enumType(ns *sg.Namespace, name string, underlying sg.SpecialType, kind sg.ConstKind, values map[string]uint64) *sg.Type {
	e := &sg.Type{Kind: sg.Enum, Name: name, Access: sg.Public, EnumUnderlying: underlying}
	ns.AddType(e)
	for n, v := range values {
		e.AddMember(&sg.Field{
			MemberBase: sg.MemberBase{Name: n, Access: sg.Public, Static: true},
			Type:       sg.RefTo(e),
			Const:      true,
			Constant:   sg.FromBits(kind, v),
		})
	}
	return e
}

func TestEnumValuesOrderedByValue(t *testing.T) {
	g := sg.NewGraph()
	enumType(g.Global, "Access", sg.Byte, sg.ConstByte, map[string]uint64{"Write": 2, "None": 0, "Read": 1})
	enumType(g.Global, "Nothing", sg.Int32, sg.ConstInt32, nil)

	want := "public enum Access : byte\n" +
		"{\n" +
		"    None = 0,\n" +
		"    Read = 1,\n" +
		"    Write = 2,\n" +
		"}\n" +
		"public enum Nothing : int { }\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestDelegate(t *testing.T) {
	g := sg.NewGraph()
	tp := &sg.TypeParam{Name: "T", Variance: sg.Covariant, ReferenceType: true}
	d := &sg.Type{Kind: sg.Delegate, Name: "Factory", Access: sg.Public, TypeParams: []*sg.TypeParam{tp}}
	d.Invoke = &sg.Method{
		MemberBase: sg.MemberBase{Name: "Invoke", Access: sg.Public},
		Return:     sg.ReturnSig{Type: &sg.TypeParameterType{Name: "T", Param: tp}},
		Params:     []*sg.Parameter{param("count", intRef)},
	}
	g.Global.AddType(d)

	assert.Equal(t, "public delegate T Factory<out T>(int count) where T : class;\n", render(t, g, DefaultOptions()))

	d.Invoke = nil
	_, err := RenderString(g, DefaultOptions())
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.InvariantViolation))
}

func TestInterfaceMembersHideImpliedModifiers(t *testing.T) {
	g := sg.NewGraph()
	shape := &sg.Type{Kind: sg.Interface, Name: "IShape", Access: sg.Public}
	g.Global.AddType(shape)

	area := &sg.Property{
		MemberBase: sg.MemberBase{Name: "Area", Access: sg.Public, Abstract: true},
		Type:       sg.SpecialRef(sg.Double),
		Getter:     &sg.Accessor{},
	}
	draw := method("Draw", voidRet)
	draw.Abstract = true
	create := method("Create", sg.ReturnSig{Type: sg.RefTo(shape)})
	create.Static = true
	create.Abstract = true
	shape.AddMember(create)
	shape.AddMember(draw)
	shape.AddMember(area)

	want := "public interface IShape\n" +
		"{\n" +
		"    double Area { get; }\n" +
		"    void Draw();\n" +
		"    static abstract IShape Create();\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestMutableStructReadonlyMembers(t *testing.T) {
	g := sg.NewGraph()
	point := &sg.Type{Kind: sg.Struct, Name: "Point", Access: sg.Public}
	g.Global.AddType(point)

	point.AddMember(&sg.Method{
		MemberBase: sg.MemberBase{Name: ".ctor", Access: sg.Public, Implicit: true},
		Kind:       sg.Constructor,
		Return:     voidRet,
	})
	point.AddMember(&sg.Field{MemberBase: sg.MemberBase{Name: "X", Access: sg.Public}, Type: intRef})
	point.AddMember(&sg.Field{
		MemberBase: sg.MemberBase{Name: "Origin", Access: sg.Public, Static: true, ReadOnly: true},
		Type:       sg.RefTo(point),
	})
	point.AddMember(&sg.Property{
		MemberBase: sg.MemberBase{Name: "Length", Access: sg.Public},
		Type:       intRef,
		Getter:     &sg.Accessor{ReadOnly: true},
	})
	point.AddMember(&sg.Property{
		MemberBase: sg.MemberBase{Name: "Y", Access: sg.Public},
		Type:       intRef,
		Getter:     &sg.Accessor{},
		Setter:     &sg.Accessor{},
	})
	point.AddMember(&sg.Property{
		MemberBase: sg.MemberBase{Name: "Z", Access: sg.Public},
		Type:       intRef,
		Getter:     &sg.Accessor{ReadOnly: true},
		Setter:     &sg.Accessor{Access: sg.Protected},
	})
	toString := method("ToString", sg.ReturnSig{Type: sg.SpecialRef(sg.String)})
	toString.ReadOnly = true
	toString.Override = true
	point.AddMember(toString)

	want := "public struct Point\n" +
		"{\n" +
		"    public int X;\n" +
		"    public static readonly Point Origin;\n" +
		"    public readonly int Length { get; }\n" +
		"    public int Y { get; set; }\n" +
		"    public int Z { readonly get; protected set; }\n" +
		"    public readonly override string ToString();\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestReadonlyStructEventsAndFixedBuffers(t *testing.T) {
	g := sg.NewGraph()
	buf := &sg.Type{Kind: sg.Struct, Name: "Buffer", Access: sg.Public}
	g.Global.AddType(buf)
	handler := &sg.NamedType{Name: "Action", Namespace: "System"}

	buf.AddMember(&sg.Field{
		MemberBase: sg.MemberBase{Name: "Data", Access: sg.Public},
		Type:       &sg.PointerType{Elem: sg.SpecialRef(sg.Byte)},
		FixedSize:  16,
	})
	buf.AddMember(&sg.Event{
		MemberBase: sg.MemberBase{Name: "Both", Access: sg.Public},
		Type:       handler,
		Add:        &sg.Accessor{ReadOnly: true},
		Remove:     &sg.Accessor{ReadOnly: true},
	})
	buf.AddMember(&sg.Event{
		MemberBase: sg.MemberBase{Name: "Mixed", Access: sg.Public},
		Type:       handler,
		Add:        &sg.Accessor{ReadOnly: true},
		Remove:     &sg.Accessor{},
	})

	want := "public struct Buffer\n" +
		"{\n" +
		"    public fixed byte Data[16];\n" +
		"    public readonly event Action Both;\n" +
		"    public event Action Mixed { readonly add; remove; }\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestOperatorsConversionsAndExplicitImplementations(t *testing.T) {
	g := sg.NewGraph()
	money := class(g.Global, "Money")
	disposable := &sg.NamedType{Name: "IDisposable", Namespace: "System"}
	moneyRef := sg.RefTo(money)

	add := method("op_Addition", sg.ReturnSig{Type: moneyRef}, param("a", moneyRef), param("b", moneyRef))
	add.Kind = sg.UserDefinedOperator
	add.Static = true
	conv := method("op_Implicit", sg.ReturnSig{Type: sg.SpecialRef(sg.Decimal)}, param("m", moneyRef))
	conv.Kind = sg.Conversion
	conv.Static = true
	dispose := method("System.IDisposable.Dispose", voidRet)
	dispose.Kind = sg.ExplicitInterfaceImplementation
	dispose.Access = sg.Private
	dispose.Unnamed = true
	dispose.ExplicitImpls = []sg.ExplicitImpl{{Interface: disposable, Name: "Dispose"}}
	count := &sg.Property{
		MemberBase:    sg.MemberBase{Name: "System.Collections.ICollection.Count", Access: sg.Private, Unnamed: true},
		Type:          intRef,
		Getter:        &sg.Accessor{},
		ExplicitImpls: []sg.ExplicitImpl{{Interface: &sg.NamedType{Name: "ICollection", Namespace: "System.Collections"}, Name: "Count"}},
	}
	finalizer := method("Finalize", voidRet)
	finalizer.Kind = sg.Destructor
	finalizer.Access = sg.Protected
	finalizer.Override = true

	for _, m := range []sg.Member{conv, add, dispose, count, finalizer} {
		money.AddMember(m)
	}

	want := "public class Money\n" +
		"{\n" +
		"    ~Money();\n" +
		"    int ICollection.Count { get; }\n" +
		"    void IDisposable.Dispose();\n" +
		"    public static Money operator +(Money a, Money b);\n" +
		"    public static implicit operator decimal(Money m);\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestInheritanceModifiersAndExtensionMethods(t *testing.T) {
	g := sg.NewGraph()
	shape := class(g.Global, "Shape")
	shape.Abstract = true

	area := method("Area", sg.ReturnSig{Type: sg.SpecialRef(sg.Double)})
	area.Abstract = true
	describe := method("Describe", sg.ReturnSig{Type: sg.SpecialRef(sg.String)})
	describe.Virtual = true
	hash := method("GetHashCode", sg.ReturnSig{Type: intRef})
	hash.Override = true
	hash.Sealed = true
	shape.AddMember(area)
	shape.AddMember(describe)
	shape.AddMember(hash)

	ext := class(g.Global, "ShapeExtensions")
	ext.Static = true
	scale := method("Scale", sg.ReturnSig{Type: sg.RefTo(shape)},
		param("shape", sg.RefTo(shape)),
		&sg.Parameter{Name: "factor", Type: sg.SpecialRef(sg.Double), Default: sg.Float64(1)})
	scale.Static = true
	scale.Extension = true
	ext.AddMember(scale)

	want := "public abstract class Shape\n" +
		"{\n" +
		"    public abstract double Area();\n" +
		"    public virtual string Describe();\n" +
		"    public sealed override int GetHashCode();\n" +
		"}\n" +
		"public static class ShapeExtensions\n" +
		"{\n" +
		"    public static Shape Scale(this Shape shape, double factor = 1);\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestNestedTypesAndIndexers(t *testing.T) {
	g := sg.NewGraph()
	outer := class(g.Global, "Outer")
	inner := &sg.Type{Kind: sg.Class, Name: "Inner", Access: sg.Protected, Base: objectRef}
	hidden := &sg.Type{Kind: sg.Class, Name: "Hidden", Access: sg.Private, Base: objectRef}
	outer.AddMember(&sg.NestedType{Type: hidden})
	outer.AddMember(&sg.NestedType{Type: inner})
	outer.AddMember(&sg.Property{
		MemberBase: sg.MemberBase{Name: "Item", Access: sg.Public},
		Type:       sg.SpecialRef(sg.String),
		Indexer:    true,
		Params:     []*sg.Parameter{param("index", intRef)},
		Getter:     &sg.Accessor{},
		Setter:     &sg.Accessor{Access: sg.Private},
	})
	inner.AddMember(&sg.Field{MemberBase: sg.MemberBase{Name: "Value", Access: sg.Public}, Type: intRef})

	want := "public class Outer\n" +
		"{\n" +
		"    public string this[int index] { get; }\n" +
		"    protected class Inner\n" +
		"    {\n" +
		"        public int Value;\n" +
		"    }\n" +
		"}\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func genericInterfaces(g *sg.Graph) (enumerable, list *sg.Type) {
	ns := g.External.Lookup("System.Collections.Generic")
	et := &sg.TypeParam{Name: "T"}
	enumerable = &sg.Type{Kind: sg.Interface, Name: "IEnumerable", Access: sg.Public, TypeParams: []*sg.TypeParam{et}}
	lt := &sg.TypeParam{Name: "T"}
	list = &sg.Type{Kind: sg.Interface, Name: "IList", Access: sg.Public, TypeParams: []*sg.TypeParam{lt}}
	list.Interfaces = []sg.TypeRef{sg.RefTo(enumerable, sg.TypeArg{Type: &sg.TypeParameterType{Name: "T", Param: lt}})}
	ns.AddType(enumerable)
	ns.AddType(list)
	return enumerable, list
}

func TestInterfaceListReduction(t *testing.T) {
	g := sg.NewGraph()
	enumerable, list := genericInterfaces(g)
	numbers := class(g.Global, "Numbers")
	numbers.Interfaces = []sg.TypeRef{
		sg.RefTo(list, sg.TypeArg{Type: intRef}),
		sg.RefTo(enumerable, sg.TypeArg{Type: intRef}),
	}

	assert.Equal(t, "public class Numbers : IList<int> { }\n", render(t, g, DefaultOptions()))

	opts := DefaultOptions()
	opts.ShowAllInterfaces = true
	assert.Equal(t, "public class Numbers : IEnumerable<int>, IList<int> { }\n", render(t, g, opts))
}

func TestBaseClassAndGenericHeader(t *testing.T) {
	g := sg.NewGraph()
	base := class(g.Global, "Base")
	base.Abstract = true
	tp := &sg.TypeParam{Name: "T", ValueType: true}
	derived := class(g.Global, "Derived")
	derived.TypeParams = []*sg.TypeParam{tp}
	derived.Base = sg.RefTo(base)

	want := "public abstract class Base { }\n" +
		"public class Derived<T> : Base where T : struct { }\n"
	assert.Equal(t, want, render(t, g, DefaultOptions()))
}

func TestUnsafeValueTypesHiddenByDefault(t *testing.T) {
	g := sg.NewGraph()
	g.Global.AddType(&sg.Type{Kind: sg.Struct, Name: "<Data>e__FixedBuffer", Access: sg.Public, UnsafeValueType: true})

	assert.Equal(t, "", render(t, g, DefaultOptions()))

	opts := DefaultOptions()
	opts.ShowUnsafeValueTypes = true
	assert.Equal(t, "public struct <Data>e__FixedBuffer { }\n", render(t, g, opts))
}

func TestInvariantViolationsAbortRendering(t *testing.T) {
	g := sg.NewGraph()
	c := class(g.Global, "Broken")
	c.AddMember(&sg.Field{MemberBase: sg.MemberBase{Name: "f", Access: sg.NotApplicable}, Type: intRef})
	class(g.Global, "Later")

	var buf bytes.Buffer
	err := Render(&buf, g, DefaultOptions(), nil)
	require.Error(t, err)

	var apiErr *apierrors.ApiDumpError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierrors.InvariantViolation, apiErr.Code)
	assert.Equal(t, "Broken.f", apiErr.Symbol())
	assert.NotContains(t, buf.String(), "Later")
}

func TestNotApplicableAccessibilityAllowedInInterfaces(t *testing.T) {
	g := sg.NewGraph()
	iface := &sg.Type{Kind: sg.Interface, Name: "IMarker", Access: sg.Public}
	g.Global.AddType(iface)
	m := method("Mark", voidRet)
	m.Access = sg.NotApplicable
	iface.AddMember(m)

	assert.Equal(t, "public interface IMarker\n{\n    void Mark();\n}\n", render(t, g, DefaultOptions()))
}

func TestRenderIsDeterministic(t *testing.T) {
	g := sg.NewGraph()
	ns := g.Global.Lookup("Acme")
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		c := class(ns, name)
		c.AddMember(method("B", voidRet))
		c.AddMember(method("A", voidRet))
	}
	first := render(t, g, DefaultOptions())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, render(t, g, DefaultOptions()))
	}
	assert.Less(t, bytes.Index([]byte(first), []byte("Alpha")), bytes.Index([]byte(first), []byte("Zeta")))
}
