package format

import (
	"strings"

	apierrors "apidump/internal/errors"
	sg "apidump/internal/symbolgraph"
)

// Type renders ref followed by ? when nullable is Annotated, nullable display
// is enabled and ref is not a value type.
func (c *Context) Type(ref sg.TypeRef, nullable sg.NullableAnnotation) (string, error) {
	var b strings.Builder
	if err := c.writeArg(&b, ref, nullable); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (c *Context) writeArg(b *strings.Builder, ref sg.TypeRef, nullable sg.NullableAnnotation) error {
	if err := c.writeType(b, ref); err != nil {
		return err
	}
	if nullable == sg.Annotated && c.ShowNullable && !sg.IsValueType(ref) {
		b.WriteByte('?')
	}
	return nil
}

func (c *Context) writeType(b *strings.Builder, ref sg.TypeRef) error {
	switch v := ref.(type) {
	case *sg.NamedType:
		return c.writeNamed(b, v)
	case *sg.PointerType:
		if err := c.writeType(b, v.Elem); err != nil {
			return err
		}
		b.WriteByte('*')
		return nil
	case *sg.ArrayType:
		if err := c.writeArg(b, v.Elem, v.ElemNullable); err != nil {
			return err
		}
		b.WriteByte('[')
		if !v.Vector {
			if v.Rank <= 1 {
				b.WriteByte('*')
			} else {
				b.WriteString(strings.Repeat(",", v.Rank-1))
			}
		}
		b.WriteByte(']')
		return nil
	case *sg.FunctionPointerType:
		return c.writeFunctionPointer(b, v)
	case *sg.TypeParameterType:
		b.WriteString(v.Name)
		return nil
	case *sg.DynamicType:
		b.WriteString("dynamic")
		return nil
	case *sg.ErrorType:
		if v.Name == "" {
			b.WriteByte('?')
		} else {
			b.WriteString(v.Name)
		}
		return nil
	default:
		return unexpectedRef(ref)
	}
}

func (c *Context) writeNamed(b *strings.Builder, n *sg.NamedType) error {
	if n.Native {
		switch n.Special {
		case sg.IntPtr:
			b.WriteString("nint")
			return nil
		case sg.UIntPtr:
			b.WriteString("nuint")
			return nil
		}
	}
	if kw, ok := n.Special.Keyword(); ok {
		b.WriteString(kw)
		return nil
	}
	if n.Special == sg.NullableT && len(n.Args) == 1 {
		if err := c.writeType(b, n.Args[0].Type); err != nil {
			return err
		}
		b.WriteByte('?')
		return nil
	}
	if n.IsTuple() {
		b.WriteByte('(')
		for i, e := range n.Tuple {
			if i != 0 {
				b.WriteString(", ")
			}
			if err := c.writeArg(b, e.Type, e.Nullable); err != nil {
				return err
			}
			if e.Explicit {
				b.WriteByte(' ')
				b.WriteString(e.Name)
			}
		}
		b.WriteByte(')')
		return nil
	}
	b.WriteString(n.TypeName())
	if len(n.Args) == 0 {
		return nil
	}
	b.WriteByte('<')
	for i, a := range n.Args {
		if i != 0 {
			b.WriteString(", ")
		}
		if err := c.writeArg(b, a.Type, a.Nullable); err != nil {
			return err
		}
	}
	b.WriteByte('>')
	return nil
}

var classicConventions = map[sg.CallingConvention]string{
	sg.CDecl:    "Cdecl",
	sg.StdCall:  "Stdcall",
	sg.ThisCall: "Thiscall",
	sg.FastCall: "Fastcall",
}

const callConvPrefix = "CallConv"

func (c *Context) writeFunctionPointer(b *strings.Builder, fp *sg.FunctionPointerType) error {
	b.WriteString("delegate*")
	switch fp.Convention {
	case sg.Managed:
	case sg.Unmanaged:
		b.WriteString(" unmanaged")
		if len(fp.UnmanagedConventions) > 0 {
			b.WriteByte('[')
			for i, name := range fp.UnmanagedConventions {
				if i != 0 {
					b.WriteString(", ")
				}
				if len(name) > len(callConvPrefix) && strings.HasPrefix(name, callConvPrefix) {
					name = name[len(callConvPrefix):]
				}
				b.WriteString(name)
			}
			b.WriteByte(']')
		}
	default:
		name, ok := classicConventions[fp.Convention]
		if !ok {
			return apierrors.Invariant("delegate*", "function pointer has unexpected calling convention %d", fp.Convention)
		}
		b.WriteString(" unmanaged[")
		b.WriteString(name)
		b.WriteByte(']')
	}
	b.WriteByte('<')
	for _, p := range fp.Params {
		if err := c.writeParameter(b, p, false); err != nil {
			return err
		}
		b.WriteString(", ")
	}
	if err := c.writeReturn(b, fp.Return); err != nil {
		return err
	}
	b.WriteByte('>')
	return nil
}
