package format

import (
	"strings"

	apierrors "apidump/internal/errors"
	sg "apidump/internal/symbolgraph"
)

// ReturnSignature renders void, or the by-ref prefix followed by the type.
func (c *Context) ReturnSignature(r sg.ReturnSig) (string, error) {
	var b strings.Builder
	if err := c.writeReturn(&b, r); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (c *Context) writeReturn(b *strings.Builder, r sg.ReturnSig) error {
	if r.ReturnsVoid() {
		b.WriteString("void")
		return nil
	}
	switch r.RefKind {
	case sg.RefNone:
	case sg.RefReadOnly:
		b.WriteString("ref readonly ")
	case sg.Ref:
		b.WriteString("ref ")
	default:
		return apierrors.Invariant("return", "invalid return ref kind %s", r.RefKind)
	}
	return c.writeArg(b, r.Type, r.Nullable)
}

// Parameters renders a parameter list between open and close. When
// extension is set the first parameter gets the this modifier.
func (c *Context) Parameters(params []*sg.Parameter, open, close string, extension bool) (string, error) {
	var b strings.Builder
	b.WriteString(open)
	for i, p := range params {
		if i != 0 {
			b.WriteString(", ")
		}
		if err := c.writeParameter(&b, p, extension && i == 0); err != nil {
			return "", err
		}
	}
	b.WriteString(close)
	return b.String(), nil
}

func (c *Context) writeParameter(b *strings.Builder, p *sg.Parameter, receiver bool) error {
	if p.Params {
		b.WriteString("params ")
	} else if p.This || receiver {
		b.WriteString("this ")
	}
	switch p.RefKind {
	case sg.RefNone:
	case sg.Ref, sg.Out, sg.In, sg.RefReadOnly:
		b.WriteString(p.RefKind.String())
		b.WriteByte(' ')
	default:
		return apierrors.Invariant(p.Name, "invalid parameter ref kind %d", p.RefKind)
	}
	if err := c.writeArg(b, p.Type, p.Nullable); err != nil {
		return err
	}
	if p.Name != "" {
		b.WriteByte(' ')
		b.WriteString(p.Name)
	}
	if p.Default != nil {
		v, err := c.Constant(p.Default, p.Type)
		if err != nil {
			return err
		}
		b.WriteString(" = ")
		b.WriteString(v)
	}
	return nil
}

// Constraint is the where clause of one generic parameter.
type Constraint struct {
	Param string
	Items []string
}

// TypeParameters renders <in T, U> and collects the constraints to print
// after the parameter list. It returns an empty string for non-generic
// declarations.
func (c *Context) TypeParameters(tps []*sg.TypeParam) (string, []Constraint, error) {
	if len(tps) == 0 {
		return "", nil, nil
	}
	var b strings.Builder
	var constraints []Constraint
	b.WriteByte('<')
	for i, tp := range tps {
		if i != 0 {
			b.WriteString(", ")
		}
		switch tp.Variance {
		case sg.Invariant:
		case sg.Contravariant:
			b.WriteString("in ")
		case sg.Covariant:
			b.WriteString("out ")
		default:
			return "", nil, apierrors.Invariant(tp.Name, "invalid variance %d", tp.Variance)
		}
		b.WriteString(tp.Name)

		items, err := c.constraintItems(tp)
		if err != nil {
			return "", nil, err
		}
		if len(items) > 0 {
			constraints = append(constraints, Constraint{Param: tp.Name, Items: items})
		}
	}
	b.WriteByte('>')
	return b.String(), constraints, nil
}

func (c *Context) constraintItems(tp *sg.TypeParam) ([]string, error) {
	var items []string
	switch {
	case tp.Unmanaged:
		items = append(items, "unmanaged")
	case tp.ValueType:
		items = append(items, "struct")
	case tp.ReferenceType:
		if tp.NullableReference && c.ShowNullable {
			items = append(items, "class?")
		} else {
			items = append(items, "class")
		}
	case tp.NotNull:
		items = append(items, "notnull")
	}
	for _, ct := range tp.Constraints {
		s, err := c.Type(ct.Type, ct.Nullable)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if tp.Constructor {
		items = append(items, "new()")
	}
	return items, nil
}

// Constraints renders collected where clauses, each with a leading space.
func Constraints(cs []Constraint) string {
	var b strings.Builder
	for _, c := range cs {
		b.WriteString(" where ")
		b.WriteString(c.Param)
		b.WriteString(" : ")
		b.WriteString(strings.Join(c.Items, ", "))
	}
	return b.String()
}
