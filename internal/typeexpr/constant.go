package typeexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sg "apidump/internal/symbolgraph"
)

// Lookup resolves a named constant such as an enum member ("Read" or
// "Access.Read") while evaluating an initializer.
type Lookup func(name string) (*sg.ConstantValue, bool)

type valKind int

const (
	valInt valKind = iota
	valFloat
	valBool
	valChar
	valString
	valNull
	valDecimal
)

// value is an untyped intermediate result. Integers keep a 64-bit pattern.
type value struct {
	kind     valKind
	bits     uint64
	unsigned bool
	float    float64
	single   bool
	text     string
}

// EvalConstant evaluates a constant expression and converts it to the
// storage kind of declared. Supported: numeric, char, string, bool and null
// literals, the float special names (double.NaN...), named constants via
// lookup, parentheses, unary - ~ and binary | ^ & << >> + -.
func EvalConstant(text string, declared sg.TypeRef, lookup Lookup) (*sg.ConstantValue, error) {
	ev := &evaluator{input: text, lookup: lookup}
	v, err := ev.parseOr()
	if err != nil {
		return nil, err
	}
	ev.skipSpace()
	if ev.pos < len(ev.input) {
		return nil, ev.errorf("unexpected %q", ev.input[ev.pos:])
	}
	return convert(v, declared, text)
}

func constKindOf(declared sg.TypeRef) (sg.ConstKind, bool) {
	n, ok := declared.(*sg.NamedType)
	if !ok {
		return sg.ConstNull, false
	}
	if n.Special == sg.NullableT && len(n.Args) == 1 {
		return constKindOf(n.Args[0].Type)
	}
	if n.Def != nil && n.Def.Kind == sg.Enum {
		underlying := n.Def.EnumUnderlying
		if underlying == sg.NoSpecial {
			underlying = sg.Int32
		}
		return sg.ConstKindFor(underlying)
	}
	return sg.ConstKindFor(n.Special)
}

func convert(v value, declared sg.TypeRef, text string) (*sg.ConstantValue, error) {
	if v.kind == valNull {
		return sg.Null(), nil
	}
	kind, ok := constKindOf(declared)
	if !ok {
		kind = inferredKind(v)
	}
	mismatch := func() error {
		return fmt.Errorf("constant %q does not fit the declared type", text)
	}
	switch {
	case kind.IsInteger():
		switch v.kind {
		case valInt, valChar:
			return sg.FromBits(kind, v.bits), nil
		}
		return nil, mismatch()
	case kind == sg.ConstBool:
		if v.kind != valBool {
			return nil, mismatch()
		}
		return sg.Bool(v.bits != 0), nil
	case kind == sg.ConstChar:
		if v.kind != valChar && v.kind != valInt {
			return nil, mismatch()
		}
		return sg.CharValue(uint16(v.bits)), nil
	case kind == sg.ConstString:
		if v.kind != valString {
			return nil, mismatch()
		}
		return sg.Str(v.text), nil
	case kind == sg.ConstSingle, kind == sg.ConstDouble:
		f := v.float
		switch v.kind {
		case valFloat:
		case valInt:
			if v.unsigned {
				f = float64(v.bits)
			} else {
				f = float64(int64(v.bits))
			}
		default:
			return nil, mismatch()
		}
		if kind == sg.ConstSingle {
			return sg.Float32(float32(f)), nil
		}
		return sg.Float64(f), nil
	case kind == sg.ConstDecimal:
		switch v.kind {
		case valDecimal, valFloat:
			return sg.DecimalText(v.text), nil
		case valInt:
			if v.unsigned {
				return sg.DecimalText(strconv.FormatUint(v.bits, 10)), nil
			}
			return sg.DecimalText(strconv.FormatInt(int64(v.bits), 10)), nil
		}
		return nil, mismatch()
	}
	return nil, mismatch()
}

func inferredKind(v value) sg.ConstKind {
	switch v.kind {
	case valFloat:
		if v.single {
			return sg.ConstSingle
		}
		return sg.ConstDouble
	case valBool:
		return sg.ConstBool
	case valChar:
		return sg.ConstChar
	case valString:
		return sg.ConstString
	case valDecimal:
		return sg.ConstDecimal
	}
	switch {
	case v.unsigned && v.bits > math.MaxUint32:
		return sg.ConstUInt64
	case v.unsigned:
		return sg.ConstUInt32
	case int64(v.bits) > math.MaxInt32 || int64(v.bits) < math.MinInt32:
		return sg.ConstInt64
	}
	return sg.ConstInt32
}

type evaluator struct {
	input  string
	pos    int
	lookup Lookup
}

func (e *evaluator) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: e.input, Pos: e.pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *evaluator) skipSpace() {
	for e.pos < len(e.input) && (e.input[e.pos] == ' ' || e.input[e.pos] == '\t') {
		e.pos++
	}
}

func (e *evaluator) accept(op string) bool {
	e.skipSpace()
	if strings.HasPrefix(e.input[e.pos:], op) {
		// keep | distinct from ||, & from &&, < from <<
		if len(op) == 1 && e.pos+1 < len(e.input) && e.input[e.pos+1] == op[0] && op != "-" && op != "+" {
			return false
		}
		e.pos += len(op)
		return true
	}
	return false
}

func (e *evaluator) binary(next func() (value, error), ops ...string) (value, error) {
	left, err := next()
	if err != nil {
		return left, err
	}
	for {
		matched := ""
		for _, op := range ops {
			if e.accept(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return left, err
		}
		if left.kind != valInt || right.kind != valInt {
			return left, e.errorf("operator %s needs integer operands", matched)
		}
		switch matched {
		case "|":
			left.bits |= right.bits
		case "^":
			left.bits ^= right.bits
		case "&":
			left.bits &= right.bits
		case "<<":
			left.bits <<= right.bits & 63
		case ">>":
			if left.unsigned {
				left.bits >>= right.bits & 63
			} else {
				left.bits = uint64(int64(left.bits) >> (right.bits & 63))
			}
		case "+":
			left.bits += right.bits
		case "-":
			left.bits -= right.bits
		}
		left.unsigned = left.unsigned || right.unsigned
	}
}

func (e *evaluator) parseOr() (value, error)  { return e.binary(e.parseXor, "|") }
func (e *evaluator) parseXor() (value, error) { return e.binary(e.parseAnd, "^") }
func (e *evaluator) parseAnd() (value, error) { return e.binary(e.parseShift, "&") }
func (e *evaluator) parseShift() (value, error) {
	return e.binary(e.parseAdd, "<<", ">>")
}
func (e *evaluator) parseAdd() (value, error) { return e.binary(e.parseUnary, "+", "-") }

func (e *evaluator) parseUnary() (value, error) {
	switch {
	case e.accept("-"):
		v, err := e.parseUnary()
		if err != nil {
			return v, err
		}
		switch v.kind {
		case valInt:
			v.bits = -v.bits
		case valFloat:
			v.float = -v.float
			if v.text != "" {
				v.text = "-" + v.text
			}
		case valDecimal:
			v.text = "-" + v.text
		default:
			return v, e.errorf("cannot negate")
		}
		return v, nil
	case e.accept("~"):
		v, err := e.parseUnary()
		if err != nil {
			return v, err
		}
		if v.kind != valInt {
			return v, e.errorf("~ needs an integer")
		}
		v.bits = ^v.bits
		return v, nil
	case e.accept("+"):
		return e.parseUnary()
	}
	return e.parsePrimary()
}

func (e *evaluator) parsePrimary() (value, error) {
	e.skipSpace()
	if e.pos >= len(e.input) {
		return value{}, e.errorf("unexpected end of constant")
	}
	c := e.input[e.pos]
	switch {
	case c == '(':
		e.pos++
		v, err := e.parseOr()
		if err != nil {
			return v, err
		}
		if !e.accept(")") {
			return v, e.errorf("expected )")
		}
		return v, nil
	case c == '"':
		s, err := e.quoted('"')
		return value{kind: valString, text: s}, err
	case c == '\'':
		s, err := e.quoted('\'')
		if err != nil {
			return value{}, err
		}
		units := utf16.Encode([]rune(s))
		if len(units) != 1 {
			return value{}, e.errorf("char literal must hold one UTF-16 unit")
		}
		return value{kind: valChar, bits: uint64(units[0])}, nil
	case c >= '0' && c <= '9' || c == '.':
		return e.number()
	case c == '_' || c == '@' || isLetter(c):
		return e.name()
	}
	return value{}, e.errorf("unexpected %q", c)
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

var floatSpecials = map[string]float64{
	"NaN":              math.NaN(),
	"PositiveInfinity": math.Inf(1),
	"NegativeInfinity": math.Inf(-1),
}

func (e *evaluator) name() (value, error) {
	start := e.pos
	for e.pos < len(e.input) {
		c := e.input[e.pos]
		if c != '_' && c != '.' && c != '@' && !isLetter(c) && !(c >= '0' && c <= '9') {
			break
		}
		e.pos++
	}
	name := e.input[start:e.pos]
	switch name {
	case "true":
		return value{kind: valBool, bits: 1}, nil
	case "false":
		return value{kind: valBool}, nil
	case "null", "default":
		return value{kind: valNull}, nil
	}
	if prefix, member, ok := strings.Cut(name, "."); ok {
		if f, special := floatSpecials[member]; special && (prefix == "double" || prefix == "float") {
			return value{kind: valFloat, float: f, single: prefix == "float"}, nil
		}
	}
	if e.lookup != nil {
		if c, ok := e.lookup(name); ok {
			return fromConstant(c), nil
		}
	}
	return value{}, e.errorf("unknown constant %q", name)
}

func fromConstant(c *sg.ConstantValue) value {
	switch {
	case c.IsNull():
		return value{kind: valNull}
	case c.Kind.IsInteger():
		if c.Kind.IsSigned() {
			return value{kind: valInt, bits: uint64(c.Int64())}
		}
		return value{kind: valInt, bits: c.Uint64(), unsigned: true}
	case c.Kind == sg.ConstBool:
		return value{kind: valBool, bits: c.Bits()}
	case c.Kind == sg.ConstChar:
		return value{kind: valChar, bits: c.Bits()}
	case c.Kind == sg.ConstString:
		return value{kind: valString, text: c.Text()}
	case c.Kind == sg.ConstDecimal:
		return value{kind: valDecimal, text: c.Text()}
	}
	return value{kind: valFloat, float: c.Float(), single: c.Kind == sg.ConstSingle}
}

func (e *evaluator) number() (value, error) {
	start := e.pos
	for e.pos < len(e.input) {
		c := e.input[e.pos]
		if c == '_' || c == '.' || c >= '0' && c <= '9' || isLetter(c) {
			e.pos++
			continue
		}
		// exponent sign
		if (c == '+' || c == '-') && e.pos > start && (e.input[e.pos-1] == 'e' || e.input[e.pos-1] == 'E') &&
			!strings.HasPrefix(strings.ToLower(e.input[start:e.pos]), "0x") {
			e.pos++
			continue
		}
		break
	}
	return parseNumber(strings.ReplaceAll(e.input[start:e.pos], "_", ""), e)
}

func parseNumber(lit string, e *evaluator) (value, error) {
	lower := strings.ToLower(lit)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") {
		base := 16
		if lower[1] == 'b' {
			base = 2
		}
		digits, suffix := splitIntSuffix(lower[2:], base)
		bits, err := strconv.ParseUint(digits, base, 64)
		if err != nil {
			return value{}, e.errorf("bad integer %q", lit)
		}
		return value{kind: valInt, bits: bits, unsigned: strings.Contains(suffix, "u") || bits > math.MaxInt64}, nil
	}
	switch {
	case strings.HasSuffix(lower, "m"):
		return value{kind: valDecimal, text: lit[:len(lit)-1]}, nil
	case strings.HasSuffix(lower, "f"):
		f, err := strconv.ParseFloat(lit[:len(lit)-1], 32)
		if err != nil {
			return value{}, e.errorf("bad float %q", lit)
		}
		return value{kind: valFloat, float: f, single: true}, nil
	case strings.HasSuffix(lower, "d"), strings.ContainsAny(lower, ".e"):
		text := strings.TrimSuffix(lower, "d")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value{}, e.errorf("bad float %q", lit)
		}
		return value{kind: valFloat, float: f, text: text}, nil
	}
	digits, suffix := splitIntSuffix(lower, 10)
	bits, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return value{}, e.errorf("bad integer %q", lit)
	}
	return value{kind: valInt, bits: bits, unsigned: strings.Contains(suffix, "u") || bits > math.MaxInt64}, nil
}

func splitIntSuffix(s string, base int) (digits, suffix string) {
	i := len(s)
	for i > 0 && (s[i-1] == 'u' || s[i-1] == 'l') {
		i--
	}
	return s[:i], s[i:]
}

// quoted reads a C# regular string or char literal.
func (e *evaluator) quoted(q byte) (string, error) {
	e.pos++ // opening quote
	var b strings.Builder
	for e.pos < len(e.input) {
		c := e.input[e.pos]
		switch {
		case c == q:
			e.pos++
			return b.String(), nil
		case c == '\\':
			r, err := e.escape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			r, size := utf8.DecodeRuneInString(e.input[e.pos:])
			b.WriteRune(r)
			e.pos += size
		}
	}
	return "", e.errorf("unterminated literal")
}

var simpleEscapes = map[byte]rune{
	'\'': '\'', '"': '"', '\\': '\\', '0': 0, 'a': '\a', 'b': '\b',
	'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
}

func (e *evaluator) escape() (rune, error) {
	e.pos++ // backslash
	if e.pos >= len(e.input) {
		return 0, e.errorf("unterminated escape")
	}
	c := e.input[e.pos]
	if r, ok := simpleEscapes[c]; ok {
		e.pos++
		return r, nil
	}
	var maxDigits int
	switch c {
	case 'x':
		maxDigits = 4
	case 'u':
		maxDigits = 4
	case 'U':
		maxDigits = 8
	default:
		return 0, e.errorf("unknown escape \\%c", c)
	}
	e.pos++
	start := e.pos
	for e.pos < len(e.input) && e.pos-start < maxDigits && isHex(e.input[e.pos]) {
		e.pos++
	}
	if e.pos == start || (c != 'x' && e.pos-start != maxDigits) {
		return 0, e.errorf("bad \\%c escape", c)
	}
	n, _ := strconv.ParseUint(e.input[start:e.pos], 16, 32)
	r := rune(n)
	// a high surrogate pairs with a following \u escape
	if utf16.IsSurrogate(r) && strings.HasPrefix(e.input[e.pos:], "\\u") {
		save := e.pos
		if low, err := e.escape(); err == nil {
			if paired := utf16.DecodeRune(r, low); paired != utf8.RuneError {
				return paired, nil
			}
		}
		e.pos = save
	}
	return r, nil
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
