package scipimport

import (
	"fmt"
	"strings"
)

// Suffix says what a descriptor names.
type Suffix int

const (
	SuffixNamespace Suffix = iota
	SuffixType
	SuffixTerm
	SuffixMethod
	SuffixTypeParameter
	SuffixParameter
	SuffixMeta
	SuffixMacro
)

// Descriptor is one step of a symbol path.
type Descriptor struct {
	Name          string
	Disambiguator string
	Suffix        Suffix
}

// Symbol is a parsed SCIP symbol string:
//
//	scip-dotnet nuget Acme.Core 1.0.0 Acme/Collections/Bag#Add().
//
// Local symbols ("local 12") have Local set and no descriptors.
type Symbol struct {
	Scheme      string
	Manager     string
	Package     string
	Version     string
	Descriptors []Descriptor
	Local       bool
}

// ParseSymbol parses the textual symbol format.
func ParseSymbol(s string) (*Symbol, error) {
	if s == "" {
		return nil, fmt.Errorf("empty SCIP symbol")
	}
	if strings.HasPrefix(s, "local ") {
		return &Symbol{Local: true}, nil
	}
	p := &symbolParser{s: s}
	var header [4]string
	for i := range header {
		field, err := p.headerField()
		if err != nil {
			return nil, err
		}
		if field == "." {
			field = ""
		}
		header[i] = field
	}
	sym := &Symbol{Scheme: header[0], Manager: header[1], Package: header[2], Version: header[3]}
	for p.pos < len(p.s) {
		d, err := p.descriptor()
		if err != nil {
			return nil, err
		}
		sym.Descriptors = append(sym.Descriptors, d)
	}
	if len(sym.Descriptors) == 0 {
		return nil, fmt.Errorf("SCIP symbol %q has no descriptors", s)
	}
	return sym, nil
}

type symbolParser struct {
	s   string
	pos int
}

func (p *symbolParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("SCIP symbol %q at %d: %s", p.s, p.pos, fmt.Sprintf(format, args...))
}

// headerField reads a space terminated field where a doubled space stands
// for a literal one.
func (p *symbolParser) headerField() (string, error) {
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ' ' {
			if p.pos+1 < len(p.s) && p.s[p.pos+1] == ' ' {
				b.WriteByte(' ')
				p.pos += 2
				continue
			}
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.errorf("truncated header")
}

func (p *symbolParser) descriptor() (Descriptor, error) {
	switch p.s[p.pos] {
	case '[':
		p.pos++
		name, err := p.name()
		if err != nil {
			return Descriptor{}, err
		}
		if err := p.expect(']'); err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Name: name, Suffix: SuffixTypeParameter}, nil
	case '(':
		p.pos++
		name, err := p.name()
		if err != nil {
			return Descriptor{}, err
		}
		if err := p.expect(')'); err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Name: name, Suffix: SuffixParameter}, nil
	}

	name, err := p.name()
	if err != nil {
		return Descriptor{}, err
	}
	if p.pos >= len(p.s) {
		return Descriptor{}, p.errorf("missing descriptor suffix after %q", name)
	}
	c := p.s[p.pos]
	p.pos++
	switch c {
	case '/':
		return Descriptor{Name: name, Suffix: SuffixNamespace}, nil
	case '#':
		return Descriptor{Name: name, Suffix: SuffixType}, nil
	case '.':
		return Descriptor{Name: name, Suffix: SuffixTerm}, nil
	case ':':
		return Descriptor{Name: name, Suffix: SuffixMeta}, nil
	case '!':
		return Descriptor{Name: name, Suffix: SuffixMacro}, nil
	case '(':
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] != ')' {
			p.pos++
		}
		dis := p.s[start:p.pos]
		if err := p.expect(')'); err != nil {
			return Descriptor{}, err
		}
		if err := p.expect('.'); err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Name: name, Disambiguator: dis, Suffix: SuffixMethod}, nil
	default:
		return Descriptor{}, p.errorf("unexpected %q after %q", c, name)
	}
}

func (p *symbolParser) expect(c byte) error {
	if p.pos >= len(p.s) || p.s[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

// name reads a simple identifier or a backtick escaped one, where a doubled
// backtick is a literal backtick.
func (p *symbolParser) name() (string, error) {
	if p.pos < len(p.s) && p.s[p.pos] == '`' {
		p.pos++
		var b strings.Builder
		for p.pos < len(p.s) {
			c := p.s[p.pos]
			p.pos++
			if c != '`' {
				b.WriteByte(c)
				continue
			}
			if p.pos < len(p.s) && p.s[p.pos] == '`' {
				b.WriteByte('`')
				p.pos++
				continue
			}
			return b.String(), nil
		}
		return "", p.errorf("unterminated escaped identifier")
	}
	start := p.pos
	for p.pos < len(p.s) && isIdentChar(p.s[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return "", p.errorf("expected identifier")
	}
	return p.s[start:p.pos], nil
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '+' || c == '-' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Path splits the descriptors into the namespace, the chain of enclosing
// types and whatever follows the last type.
func (s *Symbol) Path() (ns []string, types []Descriptor, rest []Descriptor) {
	i := 0
	for i < len(s.Descriptors) && s.Descriptors[i].Suffix == SuffixNamespace {
		ns = append(ns, s.Descriptors[i].Name)
		i++
	}
	for i < len(s.Descriptors) && s.Descriptors[i].Suffix == SuffixType {
		types = append(types, s.Descriptors[i])
		i++
	}
	return ns, types, s.Descriptors[i:]
}

// TypeName returns the dotted full name of the type the symbol names, or ""
// when the symbol is not a type.
func (s *Symbol) TypeName() string {
	ns, types, rest := s.Path()
	if len(types) == 0 || len(rest) != 0 {
		return ""
	}
	parts := append([]string{}, ns...)
	for _, t := range types {
		parts = append(parts, t.Name)
	}
	return strings.Join(parts, ".")
}
