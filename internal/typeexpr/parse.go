package typeexpr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports a malformed type expression.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("type expression %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(input string) ([]token, error) {
	var toks []token
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '@' || r == '_' || unicode.IsLetter(r):
			start := i
			i += size
			for i < len(input) {
				r, size = utf8.DecodeRuneInString(input[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], pos: start})
		case r == ':' && i+1 < len(input) && input[i+1] == ':':
			toks = append(toks, token{kind: tokPunct, text: "::", pos: i})
			i += 2
		case strings.ContainsRune("<>,.[]()*?", r):
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i += size
		default:
			return nil, &SyntaxError{Input: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

type parser struct {
	input string
	toks  []token
	pos   int
}

// Parse parses a complete type expression.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	e, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %q after type", tok.text)
	}
	return e, nil
}

// MustParse is Parse for tests and static tables.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == text
}

func (p *parser) isIdent(text string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == text
}

func (p *parser) expect(text string) error {
	if !p.is(text) {
		t := p.peek()
		return p.errorf(t, "expected %q, found %q", text, t.text)
	}
	p.next()
	return nil
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &SyntaxError{Input: p.input, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseType() (Expr, error) {
	var e Expr
	var err error
	switch {
	case p.is("("):
		e, err = p.parseTuple()
	case p.isIdent("delegate"):
		e, err = p.parseFuncPtr()
	default:
		e, err = p.parseName()
	}
	if err != nil {
		return nil, err
	}
	return p.parseSuffixes(e)
}

func (p *parser) parseSuffixes(e Expr) (Expr, error) {
	for {
		switch {
		case p.is("?"):
			p.next()
			e = &Nullable{Elem: e}
		case p.is("*"):
			p.next()
			e = &Pointer{Elem: e}
		case p.is("["):
			p.next()
			arr := &Array{Elem: e, Rank: 1, Vector: true}
			switch {
			case p.is("*"):
				p.next()
				arr.Vector = false
			default:
				for p.is(",") {
					p.next()
					arr.Rank++
					arr.Vector = false
				}
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			e = arr
		default:
			return e, nil
		}
	}
}

func (p *parser) parseName() (Expr, error) {
	n := &Name{}
	t := p.next()
	if t.kind != tokIdent {
		return nil, p.errorf(t, "expected type name, found %q", t.text)
	}
	if p.is("::") {
		if t.text != "global" {
			return nil, p.errorf(t, "unsupported alias qualifier %q", t.text)
		}
		p.next()
		n.Global = true
		t = p.next()
		if t.kind != tokIdent {
			return nil, p.errorf(t, "expected type name after global::")
		}
	}
	for {
		seg := Segment{Ident: t.text}
		if p.is("<") {
			p.next()
			args, err := p.parseTypeList(">")
			if err != nil {
				return nil, err
			}
			seg.Args = args
		}
		n.Segments = append(n.Segments, seg)
		if !p.is(".") {
			return n, nil
		}
		p.next()
		t = p.next()
		if t.kind != tokIdent {
			return nil, p.errorf(t, "expected identifier after '.'")
		}
	}
}

func (p *parser) parseTypeList(closer string) ([]Expr, error) {
	var out []Expr
	for {
		e, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.is(",") {
			p.next()
			continue
		}
		return out, p.expect(closer)
	}
}

func (p *parser) parseTuple() (Expr, error) {
	start := p.next() // (
	tup := &Tuple{}
	for {
		e, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elem := TupleElem{Type: e}
		if t := p.peek(); t.kind == tokIdent {
			elem.Name = p.next().text
		}
		tup.Elems = append(tup.Elems, elem)
		if p.is(",") {
			p.next()
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		break
	}
	if len(tup.Elems) < 2 {
		return nil, p.errorf(start, "tuple needs at least two elements")
	}
	return tup, nil
}

func (p *parser) parseFuncPtr() (Expr, error) {
	p.next() // delegate
	if err := p.expect("*"); err != nil {
		return nil, err
	}
	fp := &FuncPtr{}
	if p.isIdent("managed") || p.isIdent("unmanaged") {
		fp.Convention = p.next().text
		if fp.Convention == "unmanaged" && p.is("[") {
			p.next()
			for {
				t := p.next()
				if t.kind != tokIdent {
					return nil, p.errorf(t, "expected calling convention name")
				}
				fp.Conventions = append(fp.Conventions, t.text)
				if p.is(",") {
					p.next()
					continue
				}
				if err := p.expect("]"); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	var all []FuncParam
	for {
		fpp, err := p.parseFuncParam()
		if err != nil {
			return nil, err
		}
		all = append(all, fpp)
		if p.is(",") {
			p.next()
			continue
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		break
	}
	fp.Params, fp.Return = all[:len(all)-1], all[len(all)-1]
	return fp, nil
}

func (p *parser) parseFuncParam() (FuncParam, error) {
	var fpp FuncParam
	switch {
	case p.isIdent("ref"):
		p.next()
		fpp.RefKind = "ref"
		if p.isIdent("readonly") {
			p.next()
			fpp.RefKind = "ref readonly"
		}
	case p.isIdent("out"), p.isIdent("in"):
		fpp.RefKind = p.next().text
	}
	e, err := p.parseType()
	if err != nil {
		return fpp, err
	}
	fpp.Type = e
	return fpp, nil
}
