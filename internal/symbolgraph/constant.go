package symbolgraph

import "math"

// ConstKind tags a ConstantValue.
type ConstKind int

const (
	ConstNull ConstKind = iota
	ConstBool
	ConstChar
	ConstSByte
	ConstByte
	ConstInt16
	ConstUInt16
	ConstInt32
	ConstUInt32
	ConstInt64
	ConstUInt64
	ConstSingle
	ConstDouble
	ConstDecimal
	ConstString
)

// ConstantValue is a compile-time constant. Integer kinds, chars and bools
// keep their bit pattern in bits; floats keep a float64; strings and
// decimals keep their text.
type ConstantValue struct {
	Kind  ConstKind
	bits  uint64
	float float64
	text  string
}

// Null is the null constant.
func Null() *ConstantValue { return &ConstantValue{Kind: ConstNull} }

// Bool builds a bool constant.
func Bool(v bool) *ConstantValue {
	c := &ConstantValue{Kind: ConstBool}
	if v {
		c.bits = 1
	}
	return c
}

// CharValue builds a char constant from a UTF-16 code unit.
func CharValue(v uint16) *ConstantValue { return &ConstantValue{Kind: ConstChar, bits: uint64(v)} }

// Int builds a signed or unsigned integer constant of the given kind from a
// signed value. The value is truncated to the kind's width.
func Int(kind ConstKind, v int64) *ConstantValue {
	return FromBits(kind, uint64(v))
}

// Uint builds an integer constant from an unsigned value.
func Uint(kind ConstKind, v uint64) *ConstantValue {
	return FromBits(kind, v)
}

// Float32 builds a float constant.
func Float32(v float32) *ConstantValue { return &ConstantValue{Kind: ConstSingle, float: float64(v)} }

// Float64 builds a double constant.
func Float64(v float64) *ConstantValue { return &ConstantValue{Kind: ConstDouble, float: v} }

// DecimalText builds a decimal constant from its literal digits.
func DecimalText(s string) *ConstantValue { return &ConstantValue{Kind: ConstDecimal, text: s} }

// Str builds a string constant.
func Str(s string) *ConstantValue { return &ConstantValue{Kind: ConstString, text: s} }

// FromBits builds an integer constant of kind from a raw bit pattern, keeping
// only the bits the kind can hold.
func FromBits(kind ConstKind, bits uint64) *ConstantValue {
	return &ConstantValue{Kind: kind, bits: bits & kind.mask()}
}

// Width is the storage size in bits of integral kinds, zero otherwise.
func (k ConstKind) Width() int {
	switch k {
	case ConstBool, ConstSByte, ConstByte:
		return 8
	case ConstChar, ConstInt16, ConstUInt16:
		return 16
	case ConstInt32, ConstUInt32:
		return 32
	case ConstInt64, ConstUInt64:
		return 64
	}
	return 0
}

func (k ConstKind) mask() uint64 {
	w := k.Width()
	if w == 0 || w == 64 {
		return math.MaxUint64
	}
	return 1<<uint(w) - 1
}

// IsInteger reports whether k is an integral kind.
func (k ConstKind) IsInteger() bool {
	return k >= ConstSByte && k <= ConstUInt64
}

// IsSigned reports whether k is a signed integral kind.
func (k ConstKind) IsSigned() bool {
	switch k {
	case ConstSByte, ConstInt16, ConstInt32, ConstInt64:
		return true
	}
	return false
}

// ConstKindFor returns the constant kind stored for a special type.
func ConstKindFor(s SpecialType) (ConstKind, bool) {
	switch s {
	case Boolean:
		return ConstBool, true
	case Char:
		return ConstChar, true
	case SByte:
		return ConstSByte, true
	case Byte:
		return ConstByte, true
	case Int16:
		return ConstInt16, true
	case UInt16:
		return ConstUInt16, true
	case Int32:
		return ConstInt32, true
	case UInt32:
		return ConstUInt32, true
	case Int64:
		return ConstInt64, true
	case UInt64:
		return ConstUInt64, true
	case Single:
		return ConstSingle, true
	case Double:
		return ConstDouble, true
	case Decimal:
		return ConstDecimal, true
	case String:
		return ConstString, true
	}
	return ConstNull, false
}

// IsNull reports whether c is the null constant.
func (c *ConstantValue) IsNull() bool {
	return c.Kind == ConstNull
}

// Bits is the sign-agnostic bit pattern truncated to the kind's width.
func (c *ConstantValue) Bits() uint64 {
	return c.bits
}

// Int64 sign-extends integral values of signed kinds.
func (c *ConstantValue) Int64() int64 {
	switch c.Kind {
	case ConstSByte:
		return int64(int8(c.bits))
	case ConstInt16:
		return int64(int16(c.bits))
	case ConstInt32:
		return int64(int32(c.bits))
	}
	return int64(c.bits)
}

// Uint64 returns the raw unsigned value.
func (c *ConstantValue) Uint64() uint64 {
	return c.bits
}

// Float returns the value of float and double constants.
func (c *ConstantValue) Float() float64 {
	return c.float
}

// BoolValue returns the value of a bool constant.
func (c *ConstantValue) BoolValue() bool {
	return c.bits != 0
}

// Text returns the contents of string and decimal constants.
func (c *ConstantValue) Text() string {
	return c.text
}

// Equal compares kind and payload.
func (c *ConstantValue) Equal(o *ConstantValue) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case ConstSingle, ConstDouble:
		return c.float == o.float || (math.IsNaN(c.float) && math.IsNaN(o.float))
	case ConstString, ConstDecimal:
		return c.text == o.text
	}
	return c.bits == o.bits
}
