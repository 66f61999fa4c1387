// Package ifaceset reduces a type's declared interfaces to the smallest list
// that still implies every interface the type implements.
package ifaceset

import (
	"slices"

	sg "apidump/internal/symbolgraph"
)

// Reduce returns the base list to display for a type. base may be nil.
// declared must already be in canonical order; the order of survivors is
// preserved. The base type, when present, always stays first.
func Reduce(base sg.TypeRef, declared []sg.TypeRef) []sg.TypeRef {
	var shown []sg.TypeRef
	if base != nil {
		shown = append(shown, base)
	}
	for _, candidate := range declared {
		if implied(shown, candidate) {
			continue
		}
		shown = slices.DeleteFunc(shown, func(existing sg.TypeRef) bool {
			return existing != base && sg.Implements(candidate, existing)
		})
		shown = append(shown, candidate)
	}
	return shown
}

// All returns the base followed by every declared interface, unreduced.
func All(base sg.TypeRef, declared []sg.TypeRef) []sg.TypeRef {
	var shown []sg.TypeRef
	if base != nil {
		shown = append(shown, base)
	}
	return append(shown, declared...)
}

func implied(shown []sg.TypeRef, candidate sg.TypeRef) bool {
	for _, s := range shown {
		if sg.Equal(s, candidate) || sg.Implements(s, candidate) {
			return true
		}
	}
	return false
}
