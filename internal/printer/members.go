package printer

import (
	"strconv"
	"strings"

	"apidump/internal/format"
	sg "apidump/internal/symbolgraph"
)

var operatorTokens = map[string]string{
	"op_Addition":           "+",
	"op_BitwiseAnd":         "&",
	"op_BitwiseOr":          "|",
	"op_Decrement":          "--",
	"op_Division":           "/",
	"op_Equality":           "==",
	"op_ExclusiveOr":        "^",
	"op_False":              "false",
	"op_GreaterThan":        ">",
	"op_GreaterThanOrEqual": ">=",
	"op_Increment":          "++",
	"op_Inequality":         "!=",
	"op_LeftShift":          "<<",
	"op_LessThan":           "<",
	"op_LessThanOrEqual":    "<=",
	"op_LogicalNot":         "!",
	"op_Modulus":            "%",
	"op_Multiply":           "*",
	"op_OnesComplement":     "~",
	"op_RightShift":         ">>",
	"op_Subtraction":        "-",
	"op_True":               "true",
	"op_UnaryNegation":      "-",
	"op_UnaryPlus":          "+",
}

var conversionKeywords = map[string]string{
	"op_Explicit": "explicit",
	"op_Implicit": "implicit",
}

func (p *Printer) printMember(m sg.Member, indent int) error {
	info := m.Info()
	containing := info.Containing
	if containing == nil {
		return invariantf(memberSubject(m), "member has no containing type")
	}

	// Explicit implementations are printed regardless of the member's own
	// accessibility; a member that is only an explicit implementation
	// stops there.
	switch v := m.(type) {
	case *sg.Method:
		switch v.Kind {
		case sg.Destructor:
			p.emit("~"+containing.Name+"();", indent, false)
			return nil
		case sg.Constructor:
			if containing.Kind == sg.Struct && v.Implicit && len(v.Params) == 0 {
				return nil
			}
		case sg.StaticConstructor, sg.PropertyGet, sg.PropertySet, sg.EventAdd, sg.EventRemove:
			return nil
		}
		if len(v.ExplicitImpls) > 0 {
			for _, impl := range v.ExplicitImpls {
				if err := p.printExplicitMethod(v, impl, indent); err != nil {
					return err
				}
			}
			if v.Unnamed {
				return nil
			}
		}
	case *sg.Property:
		if len(v.ExplicitImpls) > 0 {
			for _, impl := range v.ExplicitImpls {
				if err := p.printExplicitProperty(v, impl, indent); err != nil {
					return err
				}
			}
			if v.Unnamed {
				return nil
			}
		}
	case *sg.Event:
		if len(v.ExplicitImpls) > 0 {
			for _, impl := range v.ExplicitImpls {
				if err := p.printExplicitEvent(v, impl, indent); err != nil {
					return err
				}
			}
			if v.Unnamed {
				return nil
			}
		}
	}

	var b strings.Builder
	inInterface := containing.Kind == sg.Interface
	switch info.Access {
	case sg.Public:
		// public is implied inside interfaces
		if !inInterface {
			b.WriteString("public ")
		}
	case sg.Protected, sg.ProtectedOrInternal:
		b.WriteString("protected ")
	case sg.Private, sg.ProtectedAndInternal, sg.Internal:
		return nil
	case sg.NotApplicable:
		if !inInterface {
			return invariantf(memberSubject(m), "member has unexpected accessibility %s", info.Access)
		}
	default:
		return invariantf(memberSubject(m), "member has unexpected accessibility %s", info.Access)
	}
	inMutableStruct := containing.Kind == sg.Struct && !containing.ReadOnly && !info.Static

	switch v := m.(type) {
	case *sg.NestedType:
		return p.printType(v.Type, indent)
	case *sg.Field:
		return p.printField(v, &b, indent)
	case *sg.Event:
		return p.printEvent(v, &b, indent, inMutableStruct)
	case *sg.Method:
		return p.printMethod(v, &b, indent, inMutableStruct)
	case *sg.Property:
		return p.printProperty(v, &b, indent, inMutableStruct)
	default:
		return invariantf(memberSubject(m), "unexpected member kind %T", m)
	}
}

func (p *Printer) printField(f *sg.Field, b *strings.Builder, indent int) error {
	fixed := f.FixedSize > 0
	switch {
	case fixed:
		b.WriteString("fixed ")
	case f.Const:
		b.WriteString("const ")
	default:
		if f.Static {
			b.WriteString("static ")
		}
		if f.ReadOnly {
			b.WriteString("readonly ")
		} else if f.Volatile {
			b.WriteString("volatile ")
		}
	}

	typ := f.Type
	if fixed {
		ptr, ok := typ.(*sg.PointerType)
		if !ok {
			return invariantf(memberSubject(f), "fixed-size buffer is not a pointer")
		}
		typ = ptr.Elem
	}
	s, err := p.fmt.Type(typ, f.Nullable)
	if err != nil {
		return err
	}
	b.WriteString(s)
	b.WriteByte(' ')
	b.WriteString(f.Name)

	if fixed {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(f.FixedSize))
		b.WriteByte(']')
	} else if f.Constant != nil {
		v, err := p.fmt.Constant(f.Constant, f.Type)
		if err != nil {
			return err
		}
		b.WriteString(" = ")
		b.WriteString(v)
	}
	b.WriteByte(';')
	p.emit(b.String(), indent, false)
	return nil
}

func readOnlyFlag(a *sg.Accessor) *bool {
	if a == nil {
		return nil
	}
	return &a.ReadOnly
}

func (p *Printer) printEvent(e *sg.Event, b *strings.Builder, indent int, inMutableStruct bool) error {
	var addRO, removeRO *bool
	showAccessors := false
	if inMutableStruct {
		addRO, removeRO = readOnlyFlag(e.Add), readOnlyFlag(e.Remove)
		switch {
		case addRO != nil && removeRO != nil && *addRO != *removeRO:
			// IL can mark the accessors individually
			showAccessors = true
		case (addRO == nil || *addRO) && (removeRO == nil || *removeRO) && (addRO != nil || removeRO != nil):
			b.WriteString("readonly ")
		}
	}
	p.commonModifiers(b, &e.MemberBase, false)
	b.WriteString("event ")
	s, err := p.fmt.Type(e.Type, e.Nullable)
	if err != nil {
		return err
	}
	b.WriteString(s)
	b.WriteByte(' ')
	b.WriteString(e.Name)
	if showAccessors {
		b.WriteString(" { ")
		if *addRO {
			b.WriteString("readonly ")
		}
		b.WriteString("add; ")
		if *removeRO {
			b.WriteString("readonly ")
		}
		b.WriteString("remove; }")
	} else {
		b.WriteByte(';')
	}
	p.emit(b.String(), indent, false)
	return nil
}

func (p *Printer) printMethod(m *sg.Method, b *strings.Builder, indent int, inMutableStruct bool) error {
	switch m.Kind {
	case sg.Constructor:
		params, err := p.fmt.Parameters(m.Params, "(", ")", false)
		if err != nil {
			return err
		}
		b.WriteString(m.Containing.Name)
		b.WriteString(params)
		b.WriteByte(';')
		p.emit(b.String(), indent, false)
		return nil
	case sg.Ordinary, sg.Conversion, sg.UserDefinedOperator:
	default:
		return invariantf(memberSubject(m), "unexpected method kind %s", m.Kind)
	}

	if inMutableStruct && m.ReadOnly {
		b.WriteString("readonly ")
	}
	p.commonModifiers(b, &m.MemberBase, false)
	if keyword, ok := conversionKeywords[m.Name]; ok && m.Kind == sg.Conversion {
		s, err := p.fmt.Type(m.Return.Type, m.Return.Nullable)
		if err != nil {
			return err
		}
		b.WriteString(keyword)
		b.WriteString(" operator ")
		b.WriteString(s)
	} else {
		ret, err := p.fmt.ReturnSignature(m.Return)
		if err != nil {
			return err
		}
		b.WriteString(ret)
		b.WriteByte(' ')
		if tok, ok := operatorTokens[m.Name]; ok && m.Kind == sg.UserDefinedOperator {
			b.WriteString("operator ")
			b.WriteString(tok)
		} else {
			b.WriteString(m.Name)
		}
	}
	if err := p.writeSignatureTail(b, m); err != nil {
		return err
	}
	p.emit(b.String(), indent, false)
	return nil
}

// writeSignatureTail appends <T>(params) where ...;
func (p *Printer) writeSignatureTail(b *strings.Builder, m *sg.Method) error {
	tps, constraints, err := p.fmt.TypeParameters(m.TypeParams)
	if err != nil {
		return err
	}
	params, err := p.fmt.Parameters(m.Params, "(", ")", m.Extension)
	if err != nil {
		return err
	}
	b.WriteString(tps)
	b.WriteString(params)
	b.WriteString(format.Constraints(constraints))
	b.WriteByte(';')
	return nil
}

func (p *Printer) printProperty(prop *sg.Property, b *strings.Builder, indent int, inMutableStruct bool) error {
	getter, setter := prop.Getter, prop.Setter
	if inMutableStruct && (getter == nil || getter.ReadOnly) &&
		(setter == nil || setter.InitOnly || setter.ReadOnly) {
		// every non-init accessor is readonly: hoist the keyword
		b.WriteString("readonly ")
		inMutableStruct = false
	}
	p.commonModifiers(b, &prop.MemberBase, false)
	if err := p.writePropertyType(b, prop); err != nil {
		return err
	}
	if prop.Indexer {
		if err := p.writeIndexer(b, prop); err != nil {
			return err
		}
	} else {
		b.WriteString(prop.Name)
	}
	writeAccessors(b, prop, inMutableStruct)
	p.emit(b.String(), indent, false)
	return nil
}

func (p *Printer) writePropertyType(b *strings.Builder, prop *sg.Property) error {
	switch prop.RefKind {
	case sg.RefNone:
	case sg.RefReadOnly:
		b.WriteString("ref readonly ")
	case sg.Ref:
		b.WriteString("ref ")
	default:
		return invariantf(memberSubject(prop), "property has invalid ref kind %s", prop.RefKind)
	}
	s, err := p.fmt.Type(prop.Type, prop.Nullable)
	if err != nil {
		return err
	}
	b.WriteString(s)
	b.WriteByte(' ')
	return nil
}

func (p *Printer) writeIndexer(b *strings.Builder, prop *sg.Property) error {
	params, err := p.fmt.Parameters(prop.Params, "[", "]", false)
	if err != nil {
		return err
	}
	b.WriteString("this")
	b.WriteString(params)
	return nil
}

func writeAccessors(b *strings.Builder, prop *sg.Property, inMutableStruct bool) {
	b.WriteString(" { ")
	if prop.Getter != nil {
		writeAccessor(b, "get", prop.Getter, prop, inMutableStruct)
	}
	if prop.Setter != nil {
		keyword := "set"
		if prop.Setter.InitOnly {
			keyword = "init"
		}
		writeAccessor(b, keyword, prop.Setter, prop, inMutableStruct)
	}
	b.WriteByte('}')
}

func writeAccessor(b *strings.Builder, keyword string, a *sg.Accessor, prop *sg.Property, inMutableStruct bool) {
	switch a.Access {
	case sg.Protected, sg.ProtectedOrInternal:
		if prop.Access == sg.Public {
			b.WriteString("protected ")
		}
	case sg.Private, sg.ProtectedAndInternal, sg.Internal:
		return
	}
	if inMutableStruct && a.ReadOnly {
		b.WriteString("readonly ")
	}
	b.WriteString(keyword)
	b.WriteString("; ")
}

// commonModifiers writes static and the inheritance modifiers. Explicit
// implementations only get static.
func (p *Printer) commonModifiers(b *strings.Builder, m *sg.MemberBase, explicit bool) {
	if m.Static {
		b.WriteString("static ")
	}
	if explicit {
		return
	}
	if m.Containing != nil && m.Containing.Kind == sg.Interface {
		// instance interface members are implicitly abstract or virtual
		if m.Static {
			if m.Abstract {
				b.WriteString("abstract ")
			} else if m.Virtual {
				b.WriteString("virtual ")
			}
		}
		return
	}
	switch {
	case m.Override && m.Sealed:
		b.WriteString("sealed override ")
	case m.Override:
		b.WriteString("override ")
	case m.Abstract:
		b.WriteString("abstract ")
	case m.Virtual:
		b.WriteString("virtual ")
	}
}

func (p *Printer) explicitTarget(b *strings.Builder, impl sg.ExplicitImpl) error {
	s, err := p.fmt.Type(impl.Interface, sg.Oblivious)
	if err != nil {
		return err
	}
	b.WriteString(s)
	b.WriteByte('.')
	return nil
}

func (p *Printer) printExplicitMethod(m *sg.Method, impl sg.ExplicitImpl, indent int) error {
	var b strings.Builder
	p.commonModifiers(&b, &m.MemberBase, true)
	ret, err := p.fmt.ReturnSignature(m.Return)
	if err != nil {
		return err
	}
	b.WriteString(ret)
	b.WriteByte(' ')
	if err := p.explicitTarget(&b, impl); err != nil {
		return err
	}
	b.WriteString(impl.Name)
	if err := p.writeSignatureTail(&b, m); err != nil {
		return err
	}
	p.emit(b.String(), indent, false)
	return nil
}

func (p *Printer) printExplicitProperty(prop *sg.Property, impl sg.ExplicitImpl, indent int) error {
	var b strings.Builder
	p.commonModifiers(&b, &prop.MemberBase, true)
	if err := p.writePropertyType(&b, prop); err != nil {
		return err
	}
	if err := p.explicitTarget(&b, impl); err != nil {
		return err
	}
	if prop.Indexer {
		if err := p.writeIndexer(&b, prop); err != nil {
			return err
		}
	} else {
		b.WriteString(impl.Name)
	}
	writeAccessors(&b, prop, false)
	p.emit(b.String(), indent, false)
	return nil
}

func (p *Printer) printExplicitEvent(e *sg.Event, impl sg.ExplicitImpl, indent int) error {
	var b strings.Builder
	p.commonModifiers(&b, &e.MemberBase, true)
	b.WriteString("event ")
	s, err := p.fmt.Type(e.Type, e.Nullable)
	if err != nil {
		return err
	}
	b.WriteString(s)
	b.WriteByte(' ')
	if err := p.explicitTarget(&b, impl); err != nil {
		return err
	}
	b.WriteString(impl.Name)
	b.WriteByte(';')
	p.emit(b.String(), indent, false)
	return nil
}
