package printer

import (
	"strings"

	"apidump/internal/format"
	"apidump/internal/ifaceset"
	"apidump/internal/ordering"
	sg "apidump/internal/symbolgraph"
)

func (p *Printer) printType(t *sg.Type, indent int) error {
	var b strings.Builder
	switch t.Access {
	case sg.Public:
		b.WriteString("public ")
	case sg.Protected, sg.ProtectedOrInternal:
		b.WriteString("protected ")
	default:
		return invariantf(t.String(), "type has unexpected accessibility %s", t.Access)
	}

	switch t.Kind {
	case sg.Class:
		switch {
		case t.Static:
			b.WriteString("static ")
		case t.Abstract:
			b.WriteString("abstract ")
		case t.Sealed:
			b.WriteString("sealed ")
		}
		b.WriteString("class ")
		b.WriteString(t.Name)
	case sg.Struct:
		if t.UnsafeValueType && !p.opts.ShowUnsafeValueTypes {
			return nil
		}
		if t.ReadOnly {
			b.WriteString("readonly ")
		}
		if t.RefLike {
			b.WriteString("ref ")
		}
		b.WriteString("struct ")
		b.WriteString(t.Name)
	case sg.Interface:
		b.WriteString("interface ")
		b.WriteString(t.Name)
	case sg.Enum:
		return p.printEnum(t, &b, indent)
	case sg.Delegate:
		return p.printDelegate(t, &b, indent)
	default:
		return invariantf(t.String(), "type has unexpected kind %s", t.Kind)
	}
	p.types++

	tps, constraints, err := p.fmt.TypeParameters(t.TypeParams)
	if err != nil {
		return err
	}
	b.WriteString(tps)

	bases, err := p.baseList(t)
	if err != nil {
		return err
	}
	b.WriteString(bases)
	b.WriteString(format.Constraints(constraints))

	p.emit(b.String(), indent, true)
	for _, m := range ordering.SortMembers(t.Members) {
		if err := p.printMember(m, indent+1); err != nil {
			return err
		}
	}
	p.closeBlock(indent)
	return nil
}

// baseList renders " : Base, IFoo" or nothing.
func (p *Printer) baseList(t *sg.Type) (string, error) {
	var base sg.TypeRef
	if t.Kind == sg.Class && t.Base != nil {
		if n, ok := t.Base.(*sg.NamedType); !ok || n.Special != sg.Object {
			base = t.Base
		}
	}
	declared := ordering.SortTypeRefs(t.Interfaces)

	var shown []sg.TypeRef
	if p.opts.ShowAllInterfaces {
		shown = ifaceset.All(base, declared)
	} else {
		shown = ifaceset.Reduce(base, declared)
	}

	var b strings.Builder
	for i, ref := range shown {
		if i == 0 {
			b.WriteString(" : ")
		} else {
			b.WriteString(", ")
		}
		s, err := p.fmt.Type(ref, sg.Oblivious)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (p *Printer) printEnum(t *sg.Type, b *strings.Builder, indent int) error {
	p.types++
	b.WriteString("enum ")
	b.WriteString(t.Name)
	underlying := t.EnumUnderlying
	if underlying == sg.NoSpecial {
		underlying = sg.Int32
	}
	keyword, ok := underlying.Keyword()
	if !ok || !underlying.IsInteger() {
		return invariantf(t.String(), "enum has non-integral underlying type %d", underlying)
	}
	b.WriteString(" : ")
	b.WriteString(keyword)
	p.emit(b.String(), indent, true)

	declared := sg.SpecialRef(underlying)
	for _, m := range ordering.SortMembers(t.Members) {
		f, ok := m.(*sg.Field)
		if !ok {
			continue
		}
		v, err := p.fmt.Constant(f.Constant, declared)
		if err != nil {
			return err
		}
		p.emit(f.Name+" = "+v+",", indent+1, false)
	}
	p.closeBlock(indent)
	return nil
}

func (p *Printer) printDelegate(t *sg.Type, b *strings.Builder, indent int) error {
	invoke := t.Invoke
	if invoke == nil {
		return invariantf(t.String(), "delegate has no invoke signature")
	}
	p.types++
	ret, err := p.fmt.ReturnSignature(invoke.Return)
	if err != nil {
		return err
	}
	tps, constraints, err := p.fmt.TypeParameters(t.TypeParams)
	if err != nil {
		return err
	}
	params, err := p.fmt.Parameters(invoke.Params, "(", ")", false)
	if err != nil {
		return err
	}
	b.WriteString("delegate ")
	b.WriteString(ret)
	b.WriteByte(' ')
	b.WriteString(t.Name)
	b.WriteString(tps)
	b.WriteString(params)
	b.WriteString(format.Constraints(constraints))
	b.WriteByte(';')
	p.emit(b.String(), indent, false)
	return nil
}
