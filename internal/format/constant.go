package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	apierrors "apidump/internal/errors"
	"apidump/internal/ordering"
	sg "apidump/internal/symbolgraph"
)

// Constant renders v as a literal of the declared type. A nil v or a null
// constant renders the type's default value.
func (c *Context) Constant(v *sg.ConstantValue, declared sg.TypeRef) (string, error) {
	if v == nil || v.IsNull() {
		return DefaultValue(declared), nil
	}
	if n, ok := declared.(*sg.NamedType); ok && n.Special == sg.NullableT && len(n.Args) == 1 {
		declared = n.Args[0].Type
	}
	if n, ok := declared.(*sg.NamedType); ok && n.Kind() == sg.Enum && v.Kind.IsInteger() {
		return c.enumConstant(v, n)
	}
	return Literal(v)
}

// Literal renders v without reference to a declared type.
func Literal(v *sg.ConstantValue) (string, error) {
	switch v.Kind {
	case sg.ConstNull:
		return "null", nil
	case sg.ConstBool:
		return strconv.FormatBool(v.BoolValue()), nil
	case sg.ConstChar:
		var b strings.Builder
		b.WriteByte('\'')
		writeEscaped(&b, uint16(v.Bits()), '\'')
		b.WriteByte('\'')
		return b.String(), nil
	case sg.ConstString:
		return QuoteString(v.Text()), nil
	case sg.ConstSingle:
		return formatFloat(v.Float(), 32, "float"), nil
	case sg.ConstDouble:
		return formatFloat(v.Float(), 64, "double"), nil
	case sg.ConstDecimal:
		return v.Text(), nil
	}
	if v.Kind.IsSigned() {
		return strconv.FormatInt(v.Int64(), 10), nil
	}
	if v.Kind.IsInteger() {
		return strconv.FormatUint(v.Uint64(), 10), nil
	}
	return "", apierrors.Invariant("constant", "constant has unexpected kind %d", v.Kind)
}

// DefaultValue renders the value of an absent or null constant of type t.
func DefaultValue(t sg.TypeRef) string {
	switch v := t.(type) {
	case nil:
		return "null"
	case *sg.PointerType, *sg.FunctionPointerType:
		return "null"
	case *sg.ErrorType:
		return "default"
	case *sg.NamedType:
		if v.Kind() == sg.Enum || v.Native {
			return "0"
		}
		if !sg.IsValueType(v) {
			return "null"
		}
		switch v.Special {
		case sg.Boolean:
			return "false"
		case sg.Char:
			return `'\0'`
		case sg.NullableT:
			return "null"
		case sg.SByte, sg.Byte, sg.Int16, sg.UInt16, sg.Int32, sg.UInt32, sg.Int64, sg.UInt64,
			sg.Single, sg.Double, sg.Decimal, sg.IntPtr, sg.UIntPtr:
			return "0"
		}
		return "default"
	}
	if sg.IsReferenceType(t) {
		return "null"
	}
	return "default"
}

var shortEscapes = map[uint16]string{
	0:  `\0`,
	7:  `\a`,
	8:  `\b`,
	9:  `\t`,
	10: `\n`,
	11: `\v`,
	12: `\f`,
	13: `\r`,
}

// QuoteString renders s as a regular string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, unit := range utf16.Encode([]rune(s)) {
		writeEscaped(&b, unit, '"')
	}
	b.WriteByte('"')
	return b.String()
}

// writeEscaped writes one UTF-16 code unit. quote is the delimiter that
// needs a backslash.
func writeEscaped(b *strings.Builder, unit uint16, quote byte) {
	if esc, ok := shortEscapes[unit]; ok {
		b.WriteString(esc)
		return
	}
	switch {
	case unit < 0x20 || unit == 0x7f:
		fmt.Fprintf(b, `\x%02x`, unit)
	case unit == '\\' || unit == uint16(quote):
		b.WriteByte('\\')
		b.WriteByte(byte(unit))
	case unit < 0x80:
		b.WriteByte(byte(unit))
	default:
		fmt.Fprintf(b, `\u%04x`, unit)
	}
}

// formatFloat renders the shortest round-trip form, switching to E+NN
// notation for large and small magnitudes.
func formatFloat(f float64, bitSize int, keyword string) string {
	switch {
	case math.IsNaN(f):
		return keyword + ".NaN"
	case math.IsInf(f, 1):
		return keyword + ".PositiveInfinity"
	case math.IsInf(f, -1):
		return keyword + ".NegativeInfinity"
	}
	s := strconv.FormatFloat(f, 'e', -1, bitSize)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	mant, expText, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expText)
	digits := strings.Replace(mant, ".", "", 1)

	precision := 15
	if bitSize == 32 {
		precision = 7
	}
	var out string
	switch {
	case exp >= precision || exp < -4:
		out = digits[:1]
		if len(digits) > 1 {
			out += "." + digits[1:]
		}
		expSign := "+"
		if exp < 0 {
			expSign, exp = "-", -exp
		}
		out += fmt.Sprintf("E%s%02d", expSign, exp)
	case exp >= 0:
		if len(digits) <= exp+1 {
			out = digits + strings.Repeat("0", exp+1-len(digits))
		} else {
			out = digits[:exp+1] + "." + digits[exp+1:]
		}
	default:
		out = "0." + strings.Repeat("0", -exp-1) + digits
	}
	return sign + out
}

func (c *Context) enumConstant(v *sg.ConstantValue, enum *sg.NamedType) (string, error) {
	typeName, err := c.Type(&sg.NamedType{Def: enum.Def, Name: enum.Name, Namespace: enum.Namespace}, sg.Oblivious)
	if err != nil {
		return "", err
	}
	names := c.enumTable(enum.Def)
	bits := v.Bits()
	if !enum.Def.Flags {
		if name, ok := names[bits]; ok {
			return typeName + "." + name, nil
		}
		return Literal(v)
	}
	if bits == 0 {
		return "0", nil
	}
	var parts []string
	var leftover uint64
	for rest := bits; rest != 0; {
		low := rest & -rest
		rest &^= low
		if name, ok := names[low]; ok {
			parts = append(parts, typeName+"."+name)
		} else {
			leftover |= low
		}
	}
	if leftover != 0 {
		raw, err := Literal(sg.FromBits(v.Kind, leftover))
		if err != nil {
			return "", err
		}
		parts = append(parts, raw)
	}
	return strings.Join(parts, " | "), nil
}

// enumTable maps bit patterns to member names. When several members share a
// value the first in canonical order wins.
func (c *Context) enumTable(def *sg.Type) map[uint64]string {
	if names, ok := c.enumNames[def]; ok {
		return names
	}
	names := make(map[uint64]string)
	for _, m := range ordering.SortMembers(def.Members) {
		f, ok := m.(*sg.Field)
		if !ok || !f.Const || f.Constant == nil {
			continue
		}
		if _, dup := names[f.Constant.Bits()]; !dup {
			names[f.Constant.Bits()] = f.Name
		}
	}
	c.enumNames[def] = names
	return names
}
