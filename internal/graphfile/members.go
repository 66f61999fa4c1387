package graphfile

import (
	"fmt"
	"strings"

	sg "apidump/internal/symbolgraph"
	"apidump/internal/typeexpr"
)

// operatorNames maps operator tokens to metadata names. Tokens that are
// both unary and binary are listed under their binary name and switched on
// parameter count.
var operatorNames = map[string]string{
	"+":     "op_Addition",
	"-":     "op_Subtraction",
	"*":     "op_Multiply",
	"/":     "op_Division",
	"%":     "op_Modulus",
	"&":     "op_BitwiseAnd",
	"|":     "op_BitwiseOr",
	"^":     "op_ExclusiveOr",
	"<<":    "op_LeftShift",
	">>":    "op_RightShift",
	"==":    "op_Equality",
	"!=":    "op_Inequality",
	"<":     "op_LessThan",
	">":     "op_GreaterThan",
	"<=":    "op_LessThanOrEqual",
	">=":    "op_GreaterThanOrEqual",
	"!":     "op_LogicalNot",
	"~":     "op_OnesComplement",
	"++":    "op_Increment",
	"--":    "op_Decrement",
	"true":  "op_True",
	"false": "op_False",
}

var unaryOperatorNames = map[string]string{
	"+": "op_UnaryPlus",
	"-": "op_UnaryNegation",
}

var refKinds = map[string]sg.RefKind{
	"":             sg.RefNone,
	"ref":          sg.Ref,
	"out":          sg.Out,
	"in":           sg.In,
	"ref readonly": sg.RefReadOnly,
}

func parseRefKind(s string) (sg.RefKind, error) {
	k, ok := refKinds[strings.Join(strings.Fields(s), " ")]
	if !ok {
		return sg.RefNone, fmt.Errorf("unknown ref kind %q", s)
	}
	return k, nil
}

func (b *Builder) member(t *sg.Type, md *MemberDecl, scope typeexpr.Scope, res *typeexpr.Resolver) (sg.Member, error) {
	subject := t.FullName() + "." + md.Name
	base, err := memberBase(md)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}

	switch md.Kind {
	case "field", "const":
		return b.field(t, md, base, scope, res)
	case "property", "indexer":
		return b.property(t, md, base, scope, res)
	case "event":
		return b.event(t, md, base, scope, res)
	case "method", "constructor", "destructor", "operator", "conversion":
		return b.method(t, md, base, scope, res)
	case "":
		return nil, invalidf(subject, "member without a kind")
	}
	return nil, invalidf(subject, "unknown member kind %q", md.Kind)
}

func memberBase(md *MemberDecl) (sg.MemberBase, error) {
	base := sg.MemberBase{Name: md.Name}
	access, err := parseAccess(md.Access, sg.Public)
	if err != nil {
		return base, err
	}
	base.Access = access
	for _, mod := range md.Modifiers {
		switch mod {
		case "static":
			base.Static = true
		case "abstract":
			base.Abstract = true
		case "virtual":
			base.Virtual = true
		case "override":
			base.Override = true
		case "sealed":
			base.Sealed = true
		case "readonly":
			base.ReadOnly = true
		case "implicit":
			base.Implicit = true
		case "volatile":
			// field-only; checked by field
		default:
			return base, fmt.Errorf("unknown member modifier %q", mod)
		}
	}
	return base, nil
}

func hasModifier(md *MemberDecl, mod string) bool {
	for _, m := range md.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// explicitImpls resolves "IFoo<T>.Name" targets. A member with targets and
// no declared accessibility is only reachable through the interface.
func (b *Builder) explicitImpls(md *MemberDecl, base *sg.MemberBase, scope typeexpr.Scope, res *typeexpr.Resolver) ([]sg.ExplicitImpl, error) {
	if len(md.Implements) == 0 {
		return nil, nil
	}
	impls := make([]sg.ExplicitImpl, 0, len(md.Implements))
	for _, target := range md.Implements {
		i := lastTopLevelDot(target)
		if i <= 0 || i == len(target)-1 {
			return nil, fmt.Errorf("explicit target %q is not Interface.Member", target)
		}
		iface, _, err := res.ResolveString(target[:i], scope)
		if err != nil {
			return nil, fmt.Errorf("explicit target %q: %w", target, err)
		}
		impls = append(impls, sg.ExplicitImpl{Interface: iface, Name: target[i+1:]})
	}
	if strings.TrimSpace(md.Access) == "" {
		base.Access = sg.Private
		base.Unnamed = true
		base.Name = md.Implements[0]
	}
	return impls, nil
}

// lastTopLevelDot finds the dot separating the interface from the member
// name, skipping dots inside type argument lists.
func lastTopLevelDot(s string) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '>':
			depth++
		case '<':
			depth--
		case '.':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (b *Builder) field(t *sg.Type, md *MemberDecl, base sg.MemberBase, scope typeexpr.Scope, res *typeexpr.Resolver) (sg.Member, error) {
	subject := t.FullName() + "." + md.Name
	if md.Type == "" {
		return nil, invalidf(subject, "field without a type")
	}
	ref, ann, err := res.ResolveString(md.Type, scope)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	f := &sg.Field{MemberBase: base, Type: ref, Nullable: ann, Volatile: hasModifier(md, "volatile")}
	if md.Kind == "const" {
		f.Const = true
		f.Static = true
		if md.Value == "" {
			return nil, invalidf(subject, "const without a value")
		}
	}
	if md.FixedSize > 0 {
		f.FixedSize = md.FixedSize
		f.Type = &sg.PointerType{Elem: ref}
	}
	if md.Value != "" {
		v, err := typeexpr.EvalConstant(md.Value, ref, b.constantLookup(t, scope, res))
		if err != nil {
			return nil, invalidf(subject, "%v", err)
		}
		f.Constant = v
	}
	return f, nil
}

func (b *Builder) property(t *sg.Type, md *MemberDecl, base sg.MemberBase, scope typeexpr.Scope, res *typeexpr.Resolver) (sg.Member, error) {
	indexer := md.Kind == "indexer"
	if indexer && base.Name == "" {
		base.Name = "Item"
	}
	subject := t.FullName() + "." + base.Name
	if md.Type == "" {
		return nil, invalidf(subject, "property without a type")
	}
	impls, err := b.explicitImpls(md, &base, scope, res)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	ref, ann, err := res.ResolveString(md.Type, scope)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	refKind, err := parseRefKind(md.RefReturn)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	p := &sg.Property{MemberBase: base, Type: ref, Nullable: ann, RefKind: refKind, Indexer: indexer, ExplicitImpls: impls}
	if indexer {
		if len(md.Params) == 0 {
			return nil, invalidf(subject, "indexer without parameters")
		}
		if p.Params, err = b.params(subject, md.Params, scope, res); err != nil {
			return nil, err
		}
	}
	accessors := md.Accessors
	if len(accessors) == 0 {
		accessors = []string{"get"}
	}
	for _, text := range accessors {
		word, acc, err := parseAccessor(text)
		if err != nil {
			return nil, invalidf(subject, "%v", err)
		}
		switch word {
		case "get":
			p.Getter = acc
		case "set":
			p.Setter = acc
		case "init":
			acc.InitOnly = true
			p.Setter = acc
		default:
			return nil, invalidf(subject, "property accessor %q", text)
		}
	}
	if base.ReadOnly {
		// a readonly member makes every accessor except init readonly
		if p.Getter != nil {
			p.Getter.ReadOnly = true
		}
		if p.Setter != nil && !p.Setter.InitOnly {
			p.Setter.ReadOnly = true
		}
	}
	return p, nil
}

func (b *Builder) event(t *sg.Type, md *MemberDecl, base sg.MemberBase, scope typeexpr.Scope, res *typeexpr.Resolver) (sg.Member, error) {
	subject := t.FullName() + "." + md.Name
	if md.Type == "" {
		return nil, invalidf(subject, "event without a type")
	}
	impls, err := b.explicitImpls(md, &base, scope, res)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	ref, ann, err := res.ResolveString(md.Type, scope)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	e := &sg.Event{MemberBase: base, Type: ref, Nullable: ann, ExplicitImpls: impls}
	accessors := md.Accessors
	if len(accessors) == 0 {
		accessors = []string{"add", "remove"}
	}
	for _, text := range accessors {
		word, acc, err := parseAccessor(text)
		if err != nil {
			return nil, invalidf(subject, "%v", err)
		}
		switch word {
		case "add":
			e.Add = acc
		case "remove":
			e.Remove = acc
		default:
			return nil, invalidf(subject, "event accessor %q", text)
		}
	}
	if base.ReadOnly {
		for _, acc := range []*sg.Accessor{e.Add, e.Remove} {
			if acc != nil {
				acc.ReadOnly = true
			}
		}
	}
	return e, nil
}

// parseAccessor splits "protected readonly get" into its keyword and
// modifiers.
func parseAccessor(text string) (string, *sg.Accessor, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", nil, fmt.Errorf("empty accessor")
	}
	acc := &sg.Accessor{}
	var access []string
	for _, w := range words[:len(words)-1] {
		if w == "readonly" {
			acc.ReadOnly = true
			continue
		}
		access = append(access, w)
	}
	if len(access) > 0 {
		a, ok := sg.ParseAccessibility(strings.Join(access, " "))
		if !ok {
			return "", nil, fmt.Errorf("accessor %q: unknown accessibility", text)
		}
		acc.Access = a
	}
	return words[len(words)-1], acc, nil
}

func (b *Builder) method(t *sg.Type, md *MemberDecl, base sg.MemberBase, scope typeexpr.Scope, res *typeexpr.Resolver) (sg.Member, error) {
	m := &sg.Method{MemberBase: base}
	switch md.Kind {
	case "constructor":
		m.Kind = sg.Constructor
		m.Name = ".ctor"
		if m.Static {
			m.Kind = sg.StaticConstructor
			m.Name = ".cctor"
		}
	case "destructor":
		m.Kind = sg.Destructor
		m.Name = "Finalize"
		m.Access = sg.Protected
	case "operator":
		m.Kind = sg.UserDefinedOperator
		m.Static = true
	case "conversion":
		m.Kind = sg.Conversion
		m.Static = true
		switch md.Name {
		case "implicit", "op_Implicit":
			m.Name = "op_Implicit"
		case "explicit", "op_Explicit":
			m.Name = "op_Explicit"
		default:
			return nil, invalidf(t.FullName()+"."+md.Name, "conversion must be implicit or explicit")
		}
	}
	if m.Name == "" {
		return nil, invalidf(t.FullName(), "method without a name")
	}
	subject := t.FullName() + "." + m.Name

	for _, tpd := range md.TypeParams {
		tp, err := declareTypeParam(tpd)
		if err != nil {
			return nil, invalidf(subject, "%v", err)
		}
		m.TypeParams = append(m.TypeParams, tp)
	}
	scope.TypeParams = m.TypeParams
	if err := b.fillTypeParams(subject, m.TypeParams, md.TypeParams, scope, res); err != nil {
		return nil, err
	}

	impls, err := b.explicitImpls(md, &m.MemberBase, scope, res)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	m.ExplicitImpls = impls
	if len(impls) > 0 && m.Unnamed {
		m.Kind = sg.ExplicitInterfaceImplementation
	}

	if m.Return, err = b.returnSig(md.Returns, md.RefReturn, scope, res); err != nil {
		return nil, invalidf(subject, "%v", err)
	}
	if m.Params, err = b.params(subject, md.Params, scope, res); err != nil {
		return nil, err
	}
	if len(m.Params) > 0 && m.Params[0].This {
		m.Extension = true
	}

	if m.Kind == sg.UserDefinedOperator && !strings.HasPrefix(m.Name, "op_") {
		name := operatorNames[m.Name]
		if unary, ok := unaryOperatorNames[m.Name]; ok && len(m.Params) == 1 {
			name = unary
		}
		if name == "" {
			return nil, invalidf(subject, "unknown operator %q", md.Name)
		}
		m.Name = name
	}
	return m, nil
}

func (b *Builder) returnSig(returns, refReturn string, scope typeexpr.Scope, res *typeexpr.Resolver) (sg.ReturnSig, error) {
	if returns == "" {
		returns = "void"
	}
	ref, ann, err := res.ResolveString(returns, scope)
	if err != nil {
		return sg.ReturnSig{}, err
	}
	kind, err := parseRefKind(refReturn)
	if err != nil {
		return sg.ReturnSig{}, err
	}
	if kind != sg.RefNone && kind != sg.Ref && kind != sg.RefReadOnly {
		return sg.ReturnSig{}, fmt.Errorf("return ref kind must be ref or ref readonly")
	}
	return sg.ReturnSig{Type: ref, Nullable: ann, RefKind: kind}, nil
}

func (b *Builder) params(subject string, decls []ParamDecl, scope typeexpr.Scope, res *typeexpr.Resolver) ([]*sg.Parameter, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	out := make([]*sg.Parameter, 0, len(decls))
	for i, d := range decls {
		if d.Type == "" {
			return nil, invalidf(subject, "parameter %q without a type", d.Name)
		}
		ref, ann, err := res.ResolveString(d.Type, scope)
		if err != nil {
			return nil, invalidf(subject, "parameter %s: %v", d.Name, err)
		}
		kind, err := parseRefKind(d.RefKind)
		if err != nil {
			return nil, invalidf(subject, "parameter %s: %v", d.Name, err)
		}
		if d.This && i != 0 {
			return nil, invalidf(subject, "only the first parameter can be this")
		}
		p := &sg.Parameter{Name: d.Name, Type: ref, Nullable: ann, RefKind: kind, Params: d.Params, This: d.This}
		if d.Default != "" {
			v, err := typeexpr.EvalConstant(d.Default, ref, b.constantLookup(scope.Type, scope, res))
			if err != nil {
				return nil, invalidf(subject, "default of %s: %v", d.Name, err)
			}
			p.Default = v
		}
		out = append(out, p)
	}
	return out, nil
}
