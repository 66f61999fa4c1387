package typeexpr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sg "apidump/internal/symbolgraph"
)

func TestEvalConstantLiterals(t *testing.T) {
	tests := []struct {
		text     string
		declared sg.TypeRef
		want     *sg.ConstantValue
	}{
		{"42", sg.SpecialRef(sg.Int32), sg.Int(sg.ConstInt32, 42)},
		{"-1", sg.SpecialRef(sg.Int64), sg.Int(sg.ConstInt64, -1)},
		{"0xFF", sg.SpecialRef(sg.Byte), sg.Uint(sg.ConstByte, 255)},
		{"0b1010_0001", sg.SpecialRef(sg.Int32), sg.Int(sg.ConstInt32, 0xA1)},
		{"1_000", sg.SpecialRef(sg.UInt32), sg.Uint(sg.ConstUInt32, 1000)},
		{"18446744073709551615UL", sg.SpecialRef(sg.UInt64), sg.Uint(sg.ConstUInt64, math.MaxUint64)},
		{"-1", sg.SpecialRef(sg.UInt16), sg.Uint(sg.ConstUInt16, 0xFFFF)},
		{"1.5", sg.SpecialRef(sg.Double), sg.Float64(1.5)},
		{"2.5f", sg.SpecialRef(sg.Single), sg.Float32(2.5)},
		{"3", sg.SpecialRef(sg.Double), sg.Float64(3)},
		{"1e-5", sg.SpecialRef(sg.Double), sg.Float64(1e-5)},
		{"1.25m", sg.SpecialRef(sg.Decimal), sg.DecimalText("1.25")},
		{"-7", sg.SpecialRef(sg.Decimal), sg.DecimalText("-7")},
		{"true", sg.SpecialRef(sg.Boolean), sg.Bool(true)},
		{"'a'", sg.SpecialRef(sg.Char), sg.CharValue('a')},
		{`'\n'`, sg.SpecialRef(sg.Char), sg.CharValue('\n')},
		{`'é'`, sg.SpecialRef(sg.Char), sg.CharValue(0xe9)},
		{`"a\tb"`, sg.SpecialRef(sg.String), sg.Str("a\tb")},
		{`"\x41\U0001F600"`, sg.SpecialRef(sg.String), sg.Str("A\U0001F600")},
		{`"😀"`, sg.SpecialRef(sg.String), sg.Str("\U0001F600")},
		{"null", sg.SpecialRef(sg.String), sg.Null()},
		{"double.NaN", sg.SpecialRef(sg.Double), sg.Float64(math.NaN())},
		{"float.NegativeInfinity", sg.SpecialRef(sg.Single), sg.Float32(float32(math.Inf(-1)))},
		{"5", sg.NullableOf(sg.SpecialRef(sg.Int16)), sg.Int(sg.ConstInt16, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := EvalConstant(tt.text, tt.declared, nil)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got kind %v bits %d", got.Kind, got.Bits())
		})
	}
}

func TestEvalConstantInferredKind(t *testing.T) {
	tests := []struct {
		text string
		want sg.ConstKind
	}{
		{"1", sg.ConstInt32},
		{"1u", sg.ConstUInt32},
		{"4294967296", sg.ConstInt64},
		{"0xFFFFFFFFFFFFFFFF", sg.ConstUInt64},
		{"1.0", sg.ConstDouble},
		{"1f", sg.ConstSingle},
		{"'x'", sg.ConstChar},
		{`"s"`, sg.ConstString},
		{"false", sg.ConstBool},
	}
	for _, tt := range tests {
		got, err := EvalConstant(tt.text, nil, nil)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got.Kind, tt.text)
	}
}

func TestEvalConstantOperators(t *testing.T) {
	int32Ref := sg.SpecialRef(sg.Int32)
	tests := []struct {
		text string
		want int64
	}{
		{"1 | 2 | 4", 7},
		{"1 << 4", 16},
		{"0xF0 >> 4", 15},
		{"6 & 3", 2},
		{"6 ^ 3", 5},
		{"~0", -1},
		{"(1 + 2) << 1", 6},
		{"10 - 3 - 2", 5},
		{"-(4)", -4},
		{"1 | 2 << 2", 9},
	}
	for _, tt := range tests {
		got, err := EvalConstant(tt.text, int32Ref, nil)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got.Int64(), tt.text)
	}
}

func TestEvalConstantEnumReferences(t *testing.T) {
	g := sg.NewGraph()
	access := &sg.Type{Name: "Access", Kind: sg.Enum, EnumUnderlying: sg.Byte, Flags: true}
	g.Global.AddType(access)

	known := map[string]*sg.ConstantValue{
		"Read":  sg.Uint(sg.ConstByte, 1),
		"Write": sg.Uint(sg.ConstByte, 2),
	}
	lookup := func(name string) (*sg.ConstantValue, bool) {
		if len(name) > len("Access.") && name[:len("Access.")] == "Access." {
			name = name[len("Access."):]
		}
		v, ok := known[name]
		return v, ok
	}

	got, err := EvalConstant("Read | Access.Write", sg.RefTo(access), lookup)
	require.NoError(t, err)
	assert.Equal(t, sg.ConstByte, got.Kind)
	assert.Equal(t, uint64(3), got.Bits())

	got, err = EvalConstant("~Read", sg.RefTo(access), lookup)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFE), got.Bits())
}

func TestEvalConstantErrors(t *testing.T) {
	tests := []struct {
		text     string
		declared sg.TypeRef
	}{
		{"", sg.SpecialRef(sg.Int32)},
		{"1 +", sg.SpecialRef(sg.Int32)},
		{"(1", sg.SpecialRef(sg.Int32)},
		{"Missing", sg.SpecialRef(sg.Int32)},
		{`"open`, sg.SpecialRef(sg.String)},
		{`"s"`, sg.SpecialRef(sg.Int32)},
		{"true", sg.SpecialRef(sg.Double)},
		{"1.5 | 2", sg.SpecialRef(sg.Int32)},
		{"'ab'", sg.SpecialRef(sg.Char)},
		{`"\q"`, sg.SpecialRef(sg.String)},
		{"1 2", sg.SpecialRef(sg.Int32)},
	}
	for _, tt := range tests {
		_, err := EvalConstant(tt.text, tt.declared, nil)
		assert.Error(t, err, tt.text)
	}
}
