// Package breaking compares two rendered API surfaces declaration by
// declaration and advises on the version bump the difference needs.
package breaking

import (
	"fmt"
	"sort"
	"strings"
)

// CompareSurfaces diffs two rendered surfaces.
func CompareSurfaces(base, target string) *CompareResult {
	return CompareDeclarations(ParseSurface(base), ParseSurface(target))
}

// CompareDeclarations diffs two parsed surfaces. Declarations inside a
// removed or added container are folded into the container's change.
func CompareDeclarations(baseDecls, targetDecls []Declaration) *CompareResult {
	baseMap := index(baseDecls)
	targetMap := index(targetDecls)
	containers := containerKinds(baseDecls, targetDecls)

	var removed, added []Declaration
	var changes []APIChange
	for _, d := range baseDecls {
		t, ok := targetMap[d.Key()]
		if !ok {
			if _, parentKept := targetMap[containerKey(d.Container)]; parentKept || d.Container == "" {
				removed = append(removed, d)
			}
			continue
		}
		if t.Text != d.Text {
			changes = append(changes, changed(d, t))
		}
	}
	for _, d := range targetDecls {
		if _, ok := baseMap[d.Key()]; ok {
			continue
		}
		if _, parentKept := baseMap[containerKey(d.Container)]; parentKept || d.Container == "" {
			added = append(added, d)
		}
	}

	removed, added, renames := findRenames(removed, added)
	changes = append(changes, renames...)
	for _, d := range removed {
		changes = append(changes, APIChange{
			Kind:        ChangeRemoved,
			Severity:    SeverityBreaking,
			Path:        d.Path(),
			DeclKind:    d.Kind,
			Description: fmt.Sprintf("%s '%s' was removed", describe(d), d.Identity),
			OldValue:    d.Text,
			OldLine:     d.Line,
		})
	}
	for _, d := range added {
		c := APIChange{
			Kind:        ChangeAdded,
			Severity:    SeverityNonBreaking,
			Path:        d.Path(),
			DeclKind:    d.Kind,
			Description: fmt.Sprintf("New %s '%s' added", strings.ToLower(describe(d)), d.Identity),
			NewValue:    d.Text,
			NewLine:     d.Line,
		}
		if d.Kind == DeclMember {
			switch {
			case containers[d.Container] == "interface" && !isStatic(d.Text):
				c.Severity = SeverityWarning
				c.Description += "; implementers must provide it"
			case strings.Contains(" "+d.Text+" ", " abstract "):
				c.Severity = SeverityWarning
				c.Description += "; subclasses must override it"
			}
		}
		changes = append(changes, c)
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Severity != changes[j].Severity {
			return severityOrder(changes[i].Severity) < severityOrder(changes[j].Severity)
		}
		return changes[i].Path < changes[j].Path
	})

	result := &CompareResult{
		Changes:            changes,
		TotalBaseSymbols:   len(baseDecls),
		TotalTargetSymbols: len(targetDecls),
	}
	if result.Changes == nil {
		result.Changes = []APIChange{}
	}
	result.Summary = computeSummary(changes)
	result.SemverAdvice = computeSemverAdvice(result.Summary)
	return result
}

func index(decls []Declaration) map[string]Declaration {
	m := make(map[string]Declaration, len(decls))
	for _, d := range decls {
		if _, dup := m[d.Key()]; !dup {
			m[d.Key()] = d
		}
	}
	return m
}

// containerKey is the key of the declaration that opened path.
func containerKey(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i] + "|" + path[i+1:]
	}
	return "|" + path
}

func containerKinds(sets ...[]Declaration) map[string]string {
	kinds := make(map[string]string)
	for _, decls := range sets {
		for _, d := range decls {
			if d.Kind == DeclType {
				kinds[d.Path()] = d.TypeKind
			}
		}
	}
	return kinds
}

func isStatic(text string) bool {
	return strings.HasPrefix(text, "static ") || strings.Contains(text, " static ")
}

func describe(d Declaration) string {
	switch d.Kind {
	case DeclNamespace:
		return "Namespace"
	case DeclType:
		return strings.ToUpper(d.TypeKind[:1]) + d.TypeKind[1:]
	case DeclEnumValue:
		return "Enum value"
	}
	return "Member"
}

func changed(base, target Declaration) APIChange {
	c := APIChange{
		Kind:        ChangeSignatureChanged,
		Severity:    SeverityBreaking,
		Path:        target.Path(),
		DeclKind:    target.Kind,
		Description: fmt.Sprintf("Signature of '%s' changed", target.Identity),
		OldValue:    base.Text,
		NewValue:    target.Text,
		OldLine:     base.Line,
		NewLine:     target.Line,
	}
	switch target.Kind {
	case DeclType:
		c.Kind = ChangeTypeChanged
		c.Description = fmt.Sprintf("Declaration of %s '%s' changed", target.TypeKind, target.Identity)
		if onlyAddsBases(base.Text, target.Text) {
			c.Severity = SeverityNonBreaking
			c.Description = fmt.Sprintf("%s '%s' gained base types", describe(target), target.Identity)
		}
	case DeclEnumValue:
		c.Description = fmt.Sprintf("Value of '%s' changed", target.Identity)
	}
	return c
}

// onlyAddsBases is true when the headers differ only by extra entries in
// the base list.
func onlyAddsBases(base, target string) bool {
	bHead, bList := splitBases(base)
	tHead, tList := splitBases(target)
	if bHead != tHead || len(tList) <= len(bList) {
		return false
	}
	have := make(map[string]bool, len(tList))
	for _, b := range tList {
		have[b] = true
	}
	for _, b := range bList {
		if !have[b] {
			return false
		}
	}
	return true
}

func splitBases(header string) (string, []string) {
	header = strings.TrimSuffix(header, " { }")
	constraints := ""
	if i := strings.Index(header, " where "); i >= 0 {
		header, constraints = header[:i], header[i:]
	}
	i := topLevelIndex(header, ':')
	if i < 0 {
		return header + constraints, nil
	}
	return strings.TrimSpace(header[:i]) + constraints, splitTopLevel(header[i+1:], ',')
}

// findRenames pairs removed and added declarations in the same container
// whose text is identical apart from the name.
func findRenames(removed, added []Declaration) ([]Declaration, []Declaration, []APIChange) {
	var renames []APIChange
	used := make(map[int]bool)
	var keptRemoved []Declaration
	for _, r := range removed {
		match := -1
		if r.Kind == DeclMember || r.Kind == DeclType {
			for i, a := range added {
				if used[i] || a.Kind != r.Kind || a.Container != r.Container {
					continue
				}
				if nameless(r) == nameless(a) {
					match = i
					break
				}
			}
		}
		if match < 0 {
			keptRemoved = append(keptRemoved, r)
			continue
		}
		used[match] = true
		a := added[match]
		renames = append(renames, APIChange{
			Kind:        ChangeRenamed,
			Severity:    SeverityBreaking,
			Path:        r.Path(),
			DeclKind:    r.Kind,
			Description: fmt.Sprintf("'%s' was renamed to '%s'", r.Identity, a.Identity),
			OldValue:    r.Text,
			NewValue:    a.Text,
			OldLine:     r.Line,
			NewLine:     a.Line,
		})
	}
	var keptAdded []Declaration
	for i, a := range added {
		if !used[i] {
			keptAdded = append(keptAdded, a)
		}
	}
	return keptRemoved, keptAdded, renames
}

// nameless blanks the declared name in d's text.
func nameless(d Declaration) string {
	name := d.Identity
	if i := strings.IndexAny(name, "`(["); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "this" {
		return "\x00" + d.Text
	}
	fields := topLevelFields(d.Text)
	for i, f := range fields {
		if f == name || strings.HasPrefix(f, name+"(") || strings.HasPrefix(f, name+"<") || strings.HasPrefix(f, name+";") {
			fields[i] = "_" + f[len(name):]
			return strings.Join(fields, " ")
		}
	}
	return "\x00" + d.Text
}

func severityOrder(s Severity) int {
	switch s {
	case SeverityBreaking:
		return 0
	case SeverityWarning:
		return 1
	case SeverityNonBreaking:
		return 2
	default:
		return 3
	}
}

func computeSummary(changes []APIChange) *Summary {
	summary := &Summary{
		TotalChanges: len(changes),
		ByKind:       make(map[string]int),
	}
	for _, change := range changes {
		summary.ByKind[string(change.Kind)]++
		switch change.Severity {
		case SeverityBreaking:
			summary.BreakingChanges++
		case SeverityWarning:
			summary.Warnings++
		case SeverityNonBreaking:
			summary.Additions++
		}
	}
	return summary
}

// computeSemverAdvice suggests the version bump. Warnings break
// implementers, so they need a major bump too.
func computeSemverAdvice(summary *Summary) string {
	if summary.BreakingChanges > 0 || summary.Warnings > 0 {
		return "major"
	}
	if summary.Additions > 0 {
		return "minor"
	}
	return "patch"
}
