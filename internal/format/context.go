// Package format renders type references, signatures and constant values as
// C# source fragments.
package format

import (
	"fmt"

	apierrors "apidump/internal/errors"
	sg "apidump/internal/symbolgraph"
)

// Context carries the rendering switches and caches for one run. It is not
// safe for concurrent use.
type Context struct {
	// ShowNullable enables ? suffixes for annotated reference types.
	ShowNullable bool

	enumNames map[*sg.Type]map[uint64]string
}

// NewContext returns a Context with an empty enum cache.
func NewContext(showNullable bool) *Context {
	return &Context{
		ShowNullable: showNullable,
		enumNames:    make(map[*sg.Type]map[uint64]string),
	}
}

func unexpectedRef(ref sg.TypeRef) error {
	return apierrors.Invariant(fmt.Sprintf("%T", ref), "type reference has unexpected kind %T", ref)
}
