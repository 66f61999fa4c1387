package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sg "apidump/internal/symbolgraph"
)

func names(members []sg.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Info().Name
	}
	return out
}

func method(name string, kind sg.MethodKind, params ...sg.TypeRef) *sg.Method {
	m := &sg.Method{
		MemberBase: sg.MemberBase{Name: name, Access: sg.Public},
		Kind:       kind,
		Return:     sg.ReturnSig{Type: sg.SpecialRef(sg.Void)},
	}
	for i, p := range params {
		m.Params = append(m.Params, &sg.Parameter{Name: string(rune('a' + i)), Type: p})
	}
	return m
}

func sampleType() *sg.Type {
	t := &sg.Type{Kind: sg.Class, Name: "Widget", Access: sg.Public}
	sg.NewGlobalNamespace().Lookup("Acme").AddType(t)
	members := []sg.Member{
		&sg.NestedType{Type: &sg.Type{Kind: sg.Class, Name: "Inner", Access: sg.Public}},
		method("op_Implicit", sg.Conversion, sg.SpecialRef(sg.Int32)),
		method("op_Addition", sg.UserDefinedOperator, sg.SpecialRef(sg.Int32), sg.SpecialRef(sg.Int32)),
		method("Run", sg.Ordinary, sg.SpecialRef(sg.String)),
		method("Run", sg.Ordinary, sg.SpecialRef(sg.Int32)),
		method("Run", sg.Ordinary),
		&sg.Event{MemberBase: sg.MemberBase{Name: "Changed", Access: sg.Public}, Type: sg.SpecialRef(sg.Object)},
		&sg.Property{MemberBase: sg.MemberBase{Name: "Count", Access: sg.Public}, Type: sg.SpecialRef(sg.Int32)},
		&sg.Property{MemberBase: sg.MemberBase{Name: "Item", Access: sg.Public}, Type: sg.SpecialRef(sg.Int32), Indexer: true,
			Params: []*sg.Parameter{{Name: "i", Type: sg.SpecialRef(sg.Int32)}}},
		method("Finalize", sg.Destructor),
		method(".ctor", sg.Constructor),
		&sg.Field{MemberBase: sg.MemberBase{Name: "count", Access: sg.Protected}, Type: sg.SpecialRef(sg.Int32)},
		&sg.Field{MemberBase: sg.MemberBase{Name: "Max", Access: sg.Public, Static: true}, Type: sg.SpecialRef(sg.Int32), Const: true, Constant: sg.Int(sg.ConstInt32, 9)},
	}
	for _, m := range members {
		t.AddMember(m)
	}
	return t
}

func TestKindOrder(t *testing.T) {
	sorted := SortMembers(sampleType().Members)
	assert.Equal(t, []string{
		"Max", "count", ".ctor", "Finalize", "Item", "Count", "Changed",
		"Run", "Run", "Run", "op_Addition", "op_Implicit", "Inner",
	}, names(sorted))

	// Overloads by parameter count, then parameter type.
	run := sorted[7:10]
	assert.Empty(t, run[0].(*sg.Method).Params)
	assert.Equal(t, sg.SpecialRef(sg.Int32).Name, run[1].(*sg.Method).Params[0].Type.(*sg.NamedType).Name)
	assert.Equal(t, sg.SpecialRef(sg.String).Name, run[2].(*sg.Method).Params[0].Type.(*sg.NamedType).Name)
}

func TestTotalAndAntisymmetric(t *testing.T) {
	members := sampleType().Members
	for i, a := range members {
		for j, b := range members {
			c := CompareMembers(a, b)
			if i == j {
				assert.Zero(t, c)
				continue
			}
			require.NotZero(t, c, "%s vs %s", a.Info().Name, b.Info().Name)
			assert.Equal(t, -c, CompareMembers(b, a))
		}
	}
}

func TestSortIsIdempotent(t *testing.T) {
	once := SortMembers(sampleType().Members)
	twice := SortMembers(once)
	assert.Equal(t, once, twice)
}

func TestNilSortsFirst(t *testing.T) {
	m := method("Run", sg.Ordinary)
	assert.Equal(t, 0, CompareMembers(nil, nil))
	assert.Equal(t, -1, CompareMembers(nil, m))
	assert.Equal(t, 1, CompareMembers(m, nil))
}

func TestInstanceBeforeStaticAndNamedBeforeUnnamed(t *testing.T) {
	inst := method("B", sg.Ordinary)
	static := method("A", sg.Ordinary)
	static.Static = true
	assert.Negative(t, CompareMembers(inst, static))

	named := method("Z", sg.Ordinary)
	unnamed := method("A", sg.Ordinary)
	unnamed.Unnamed = true
	assert.Negative(t, CompareMembers(named, unnamed))
}

func TestMostVisibleFirst(t *testing.T) {
	pub := method("Z", sg.Ordinary)
	prot := method("A", sg.Ordinary)
	prot.Access = sg.Protected
	protInt := method("A", sg.Ordinary)
	protInt.Access = sg.ProtectedOrInternal
	assert.Negative(t, CompareMembers(pub, prot))
	assert.Negative(t, CompareMembers(protInt, prot))
}

func TestRefKindBeforeParameterType(t *testing.T) {
	byVal := method("M", sg.Ordinary, sg.SpecialRef(sg.String))
	byRef := method("M", sg.Ordinary, sg.SpecialRef(sg.Int32))
	byRef.Params[0].RefKind = sg.Ref
	assert.Negative(t, CompareMembers(byVal, byRef))
}

func TestConversionsDifferByReturnType(t *testing.T) {
	toInt := method("op_Explicit", sg.Conversion, sg.SpecialRef(sg.Object))
	toInt.Return.Type = sg.SpecialRef(sg.Int32)
	toLong := method("op_Explicit", sg.Conversion, sg.SpecialRef(sg.Object))
	toLong.Return.Type = sg.SpecialRef(sg.Int64)
	assert.NotZero(t, CompareMembers(toInt, toLong))
	assert.Equal(t, -CompareMembers(toInt, toLong), CompareMembers(toLong, toInt))
}

func enumType(underlying sg.ConstKind, values map[string]int64) *sg.Type {
	e := &sg.Type{Kind: sg.Enum, Name: "E", Access: sg.Public}
	for name, v := range values {
		e.AddMember(&sg.Field{
			MemberBase: sg.MemberBase{Name: name, Access: sg.Public, Static: true},
			Type:       sg.RefTo(e),
			Const:      true,
			Constant:   sg.Int(underlying, v),
		})
	}
	return e
}

func TestEnumValuesByUnsignedBits(t *testing.T) {
	e := enumType(sg.ConstSByte, map[string]int64{"Neg": -1, "One": 1, "Zero": 0, "AlsoOne": 1})
	assert.Equal(t, []string{"Zero", "AlsoOne", "One", "Neg"}, names(SortMembers(e.Members)))

	u := enumType(sg.ConstUInt64, map[string]int64{"Big": 255, "One": 1})
	assert.Equal(t, []string{"One", "Big"}, names(SortMembers(u.Members)))
}

func TestCompareTypeRefs(t *testing.T) {
	i32 := sg.SpecialRef(sg.Int32)
	vec := &sg.ArrayType{Elem: i32, Rank: 1, Vector: true}
	multi := &sg.ArrayType{Elem: i32, Rank: 1}
	rank2 := &sg.ArrayType{Elem: i32, Rank: 2}
	ptr := &sg.PointerType{Elem: i32}
	fn := &sg.FunctionPointerType{Return: sg.ReturnSig{Type: i32}}
	tp := &sg.TypeParameterType{Name: "T"}

	ordered := []sg.TypeRef{i32, vec, multi, rank2, ptr, fn, tp, &sg.DynamicType{}, &sg.ErrorType{Name: "Missing"}}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Negative(t, CompareTypeRefs(ordered[i], ordered[i+1]), "index %d", i)
	}

	listInt := &sg.NamedType{Name: "List", Namespace: "G", Args: []sg.TypeArg{{Type: i32}}}
	listStr := &sg.NamedType{Name: "List", Namespace: "G", Args: []sg.TypeArg{{Type: sg.SpecialRef(sg.String)}}}
	listStrNullable := &sg.NamedType{Name: "List", Namespace: "G", Args: []sg.TypeArg{{Type: sg.SpecialRef(sg.String), Nullable: sg.Annotated}}}
	assert.Negative(t, CompareTypeRefs(listInt, listStr))
	assert.Zero(t, CompareTypeRefs(listStr, listStrNullable))

	sorted := SortTypeRefs([]sg.TypeRef{listStr, listInt, &sg.NamedType{Name: "IComparable", Namespace: "System"}})
	assert.Equal(t, "IComparable", sorted[0].(*sg.NamedType).Name)
	assert.Same(t, listInt, sorted[1])
}

func TestSortTypesAndNamespaces(t *testing.T) {
	root := sg.NewGlobalNamespace()
	b := root.Child("B")
	a := root.Child("A")
	assert.Equal(t, []*sg.Namespace{a, b}, SortNamespaces(root.Namespaces))

	generic := &sg.Type{Kind: sg.Class, Name: "Box", Access: sg.Public, TypeParams: []*sg.TypeParam{{Name: "T"}}}
	plain := &sg.Type{Kind: sg.Class, Name: "Box", Access: sg.Public}
	alpha := &sg.Type{Kind: sg.Interface, Name: "Alpha", Access: sg.Public}
	assert.Equal(t, []*sg.Type{alpha, plain, generic}, SortTypes([]*sg.Type{generic, plain, alpha}))
}
