package breaking

import (
	"strconv"
	"strings"
)

// DeclKind classifies a surface line.
type DeclKind string

const (
	DeclNamespace DeclKind = "namespace"
	DeclType      DeclKind = "type"
	DeclMember    DeclKind = "member"
	DeclEnumValue DeclKind = "enum_value"
)

// Declaration is one declaration line of a rendered surface.
type Declaration struct {
	Kind DeclKind `json:"kind"`
	// Container is the slash separated path of enclosing namespaces and
	// types, e.g. "Acme.Collections/Bag`1".
	Container string `json:"container,omitempty"`
	// Identity names the declaration within its container: the name, plus
	// the generic arity and parameter types for callables.
	Identity string `json:"identity"`
	// TypeKind is class, struct, interface, enum or delegate for types.
	TypeKind string `json:"typeKind,omitempty"`
	Text     string `json:"text"`
	Line     int    `json:"line"`
}

// Key is unique within a surface.
func (d *Declaration) Key() string {
	return d.Container + "|" + d.Identity
}

// Path is the container and identity joined for display.
func (d *Declaration) Path() string {
	if d.Container == "" {
		return d.Identity
	}
	return d.Container + "/" + d.Identity
}

type frame struct {
	indent   int
	path     string
	typeKind string
}

// ParseSurface splits rendered text into declarations. Braces are
// structural; a header followed by "{" opens a container and a header
// ending in "{ }" is an empty one.
func ParseSurface(text string) []Declaration {
	lines := strings.Split(text, "\n")
	var out []Declaration
	var stack []frame
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || trimmed == "{" || trimmed == "}" {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " "))
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		container, parentKind := "", ""
		if len(stack) > 0 {
			container = stack[len(stack)-1].path
			parentKind = stack[len(stack)-1].typeKind
		}

		opens := i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "{"
		header := strings.TrimSuffix(trimmed, " { }")
		d := Declaration{Container: container, Text: trimmed, Line: i + 1}
		switch {
		case strings.HasPrefix(trimmed, "namespace "):
			d.Kind = DeclNamespace
			d.Identity = strings.TrimPrefix(header, "namespace ")
			d.Text = header
		case parentKind == "enum":
			d.Kind = DeclEnumValue
			d.Identity = strings.TrimSpace(strings.SplitN(strings.TrimSuffix(trimmed, ","), "=", 2)[0])
		default:
			if kind, name := typeHeader(header); kind != "" {
				d.Kind = DeclType
				d.TypeKind = kind
				d.Identity = name
				d.Text = header
			} else {
				d.Kind = DeclMember
				d.Identity = memberIdentity(strings.TrimSuffix(trimmed, ";"))
			}
		}
		out = append(out, d)

		if opens || strings.HasSuffix(trimmed, " { }") && d.Kind != DeclMember {
			path := d.Identity
			if container != "" {
				path = container + "/" + d.Identity
			}
			stack = append(stack, frame{indent: indent, path: path, typeKind: d.TypeKind})
		}
	}
	return out
}

var typeKeywords = map[string]bool{
	"class":     true,
	"struct":    true,
	"interface": true,
	"enum":      true,
	"delegate":  true,
}

// typeHeader recognises "public sealed class Name<T> : Base" and
// "public delegate R Name<T>(...)".
func typeHeader(s string) (kind, name string) {
	tokens := topLevelFields(cutTopLevel(s, '('))
	for i, tok := range tokens {
		if !typeKeywords[tok] {
			continue
		}
		if tok == "delegate" {
			if len(tokens) < i+3 {
				return "", ""
			}
			return tok, genericName(tokens[len(tokens)-1])
		}
		if i+1 >= len(tokens) {
			return "", ""
		}
		return tok, genericName(strings.TrimSuffix(tokens[i+1], ":"))
	}
	return "", ""
}

// memberIdentity reduces a member declaration to what distinguishes its
// overloads.
func memberIdentity(s string) string {
	if j := strings.Index(s, "operator "); j >= 0 {
		rest := s[j+len("operator "):]
		k := strings.TrimLeft(rest, "+-*/%&|^!~<>=")
		open := len(rest) - len(k)
		if open == 0 {
			open = topLevelIndex(rest, '(')
		}
		if open >= 0 && open < len(rest) && rest[open] == '(' {
			name := "operator " + strings.TrimSpace(rest[:open])
			switch kw := lastField(s[:j]); kw {
			case "implicit", "explicit":
				name = kw + " " + name
			}
			return name + "(" + strings.Join(paramTypes(enclosed(rest[open:], '(', ')')), ", ") + ")"
		}
	}
	if i := callParen(s); i >= 0 {
		params := paramTypes(enclosed(s[i:], '(', ')'))
		return genericName(lastField(s[:i])) + "(" + strings.Join(params, ", ") + ")"
	}
	if i := strings.Index(s, "this["); i >= 0 {
		return "this[" + strings.Join(paramTypes(enclosed(s[i+4:], '[', ']')), ", ") + "]"
	}
	if i := strings.Index(s, " { "); i >= 0 {
		return lastField(s[:i])
	}
	if i := topLevelIndex(s, '='); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if i := strings.Index(s, "["); i >= 0 && strings.Contains(s, " fixed ") {
		s = s[:i]
	}
	return lastField(s)
}

// callParen finds the "(" that opens a parameter list: at top level and
// directly after a name, which tells it apart from a tuple type.
func callParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' || c == '\'':
			i = skipLiteral(s, i)
		case c == '(' && depth == 0 && i > 0 && s[i-1] != ' ' && s[i-1] != '(':
			return i
		case isOpen(c):
			depth++
		case isClose(c):
			depth--
		case c == '{' && depth == 0:
			return -1
		}
	}
	return -1
}

// skipLiteral returns the index of the quote closing the literal that
// starts at s[i].
func skipLiteral(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return len(s)
}

// paramTypes drops names and default values from a parameter list, keeping
// ref kinds since they take part in overloading.
func paramTypes(list string) []string {
	var out []string
	for _, p := range splitTopLevel(list, ',') {
		if i := topLevelIndex(p, '='); i >= 0 {
			p = p[:i]
		}
		fields := topLevelFields(p)
		if len(fields) > 1 {
			fields = fields[:len(fields)-1]
		}
		var kept []string
		for _, f := range fields {
			if f == "this" || f == "params" || f == "scoped" {
				continue
			}
			kept = append(kept, f)
		}
		out = append(out, strings.Join(kept, " "))
	}
	return out
}

// genericName turns "Bag<T, U>" into "Bag`2".
func genericName(s string) string {
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return s
	}
	args := enclosed(s[i:], '<', '>')
	return s[:i] + "`" + strconv.Itoa(len(splitTopLevel(args, ',')))
}

// enclosed returns the text between s[0] (open) and its matching close.
func enclosed(s string, open, close byte) string {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[1:i]
			}
		}
	}
	if len(s) > 0 {
		return s[1:]
	}
	return ""
}

func isOpen(c byte) bool  { return c == '<' || c == '(' || c == '[' }
func isClose(c byte) bool { return c == '>' || c == ')' || c == ']' }

// topLevelIndex finds c outside brackets and literals.
func topLevelIndex(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '"' || ch == '\'':
			i = skipLiteral(s, i)
		case depth == 0 && ch == c:
			return i
		case isOpen(ch):
			depth++
		case isClose(ch):
			depth--
		}
	}
	return -1
}

func cutTopLevel(s string, c byte) string {
	if i := topLevelIndex(s, c); i >= 0 {
		return s[:i]
	}
	return s
}

func splitTopLevel(s string, sep byte) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for {
		i := topLevelIndex(s, sep)
		if i < 0 {
			out = append(out, strings.TrimSpace(s))
			return out
		}
		out = append(out, strings.TrimSpace(s[:i]))
		s = s[i+1:]
	}
}

// topLevelFields splits on spaces outside brackets.
func topLevelFields(s string) []string {
	var out []string
	for _, f := range splitTopLevel(s, ' ') {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func lastField(s string) string {
	fields := topLevelFields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
