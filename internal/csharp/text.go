// Package csharp reads reference-style C# source files (declarations with
// or without bodies) into graph manifests.
package csharp

import (
	"strings"
)

// modifierKeywords are the declaration modifiers recognised in front of a
// type or member.
var modifierKeywords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true, "file": true,
	"static": true, "abstract": true, "sealed": true, "virtual": true, "override": true,
	"readonly": true, "const": true, "volatile": true, "fixed": true, "ref": true,
	"unsafe": true, "new": true, "extern": true, "partial": true, "async": true,
	"required": true,
}

var accessWords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
}

// modifierSet splits modifiers into the accessibility words and the rest.
type modifierSet struct {
	access []string
	words  map[string]bool
}

func newModifierSet(words []string) modifierSet {
	ms := modifierSet{words: map[string]bool{}}
	for _, w := range words {
		if accessWords[w] {
			ms.access = append(ms.access, w)
			continue
		}
		ms.words[w] = true
	}
	return ms
}

func (ms modifierSet) has(w string) bool { return ms.words[w] }

// accessText returns the declared accessibility or def when none is given.
func (ms modifierSet) accessText(def string) string {
	if len(ms.access) == 0 {
		return def
	}
	return strings.Join(ms.access, " ")
}

// normalizeSpace collapses runs of whitespace, including newlines inside
// multi-line generic argument lists.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitTopLevel splits s at sep characters that are not nested inside
// <>, (), [] or {} and not inside quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" || len(parts) > 0 {
		parts = append(parts, tail)
	}
	return parts
}

// splitRefReturn strips a leading ref or ref readonly from a return type.
func splitRefReturn(typ string) (refKind, rest string) {
	typ = normalizeSpace(typ)
	switch {
	case strings.HasPrefix(typ, "ref readonly "):
		return "ref readonly", strings.TrimPrefix(typ, "ref readonly ")
	case strings.HasPrefix(typ, "ref "):
		return "ref", strings.TrimPrefix(typ, "ref ")
	}
	return "", typ
}

// attributeName reduces "System.FlagsAttribute" or "Flags(...)" to "Flags".
func attributeName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "global::")
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "Attribute")
}

// accessorWords parses an accessor declaration such as
// "protected readonly get => x;" into its modifiers and keyword.
func accessorWords(decl string) (string, bool) {
	if i := strings.IndexAny(decl, "{;=("); i >= 0 {
		decl = decl[:i]
	}
	// drop attributes
	for strings.HasPrefix(strings.TrimSpace(decl), "[") {
		decl = strings.TrimSpace(decl)
		end := strings.IndexByte(decl, ']')
		if end < 0 {
			return "", false
		}
		decl = decl[end+1:]
	}
	decl = normalizeSpace(decl)
	if decl == "" {
		return "", false
	}
	return decl, true
}

// nullableEnabled reports the nullable context left by the file's last
// #nullable enable or #nullable disable directive.
func nullableEnabled(src []byte) bool {
	enabled := false
	for _, line := range strings.Split(string(src), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "#nullable" {
			continue
		}
		switch fields[1] {
		case "enable":
			enabled = true
		case "disable":
			enabled = false
		}
	}
	return enabled
}
