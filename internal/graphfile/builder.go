package graphfile

import (
	"fmt"
	"strings"

	apierrors "apidump/internal/errors"
	sg "apidump/internal/symbolgraph"
	"apidump/internal/typeexpr"
)

// pendingType is a declared type whose references are resolved in the
// second pass.
type pendingType struct {
	t     *sg.Type
	decl  *TypeDecl
	scope typeexpr.Scope
	res   *typeexpr.Resolver
}

type pendingExternal struct {
	t     *sg.Type
	decl  *ExternalDecl
	scope typeexpr.Scope
	res   *typeexpr.Resolver
}

// Builder turns manifests into a symbol graph. Declarations from several
// manifests share one graph, so types may refer to each other across
// files; a type declared twice with the same kind is merged like a partial
// declaration.
type Builder struct {
	g         *sg.Graph
	types     []pendingType
	externals []pendingExternal
}

// NewBuilder returns a Builder over an empty graph.
func NewBuilder() *Builder {
	return &Builder{g: sg.NewGraph()}
}

// Build declares and resolves the given manifests in order.
func Build(manifests ...*Manifest) (*sg.Graph, error) {
	b := NewBuilder()
	for _, m := range manifests {
		if err := b.Add(m); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// Add declares every type of m. References are not resolved until Finish.
func (b *Builder) Add(m *Manifest) error {
	res := &typeexpr.Resolver{Graph: b.g, NullableContext: m.Nullable}
	for i := range m.Namespaces {
		nd := &m.Namespaces[i]
		ns := b.g.Global.Lookup(nd.Name)
		scope := typeexpr.Scope{Namespace: ns.FullName(), Usings: nd.Usings}
		for j := range nd.Types {
			if _, err := b.declareType(&nd.Types[j], ns, nil, scope, res); err != nil {
				return err
			}
		}
	}
	for i := range m.Externals {
		if err := b.declareExternal(&m.Externals[i], res); err != nil {
			return err
		}
	}
	return nil
}

// Finish resolves all pending declarations and returns the graph. Enums are
// filled first so that constants of enum type can refer to their values.
func (b *Builder) Finish() (*sg.Graph, error) {
	for _, pt := range b.types {
		if pt.t.Kind == sg.Enum {
			if err := b.fillEnum(pt); err != nil {
				return nil, err
			}
		}
	}
	for _, pt := range b.types {
		if pt.t.Kind != sg.Enum {
			if err := b.fillType(pt); err != nil {
				return nil, err
			}
		}
	}
	for _, pe := range b.externals {
		if err := b.fillExternal(pe); err != nil {
			return nil, err
		}
	}
	return b.g, nil
}

func invalidf(subject, format string, args ...interface{}) error {
	return apierrors.Newf(apierrors.InputInvalid, "%s: %s", subject, fmt.Sprintf(format, args...)).
		WithDetails(map[string]string{"symbol": subject})
}

func (b *Builder) declareType(decl *TypeDecl, ns *sg.Namespace, container *sg.Type, scope typeexpr.Scope, res *typeexpr.Resolver) (*sg.Type, error) {
	subject := decl.Name
	if container != nil {
		subject = container.FullName() + "." + decl.Name
	} else if full := ns.FullName(); full != "" {
		subject = full + "." + decl.Name
	}
	if decl.Name == "" {
		return nil, invalidf(ns.FullName(), "type without a name")
	}
	kind, ok := sg.ParseTypeKind(decl.Kind)
	if !ok {
		return nil, invalidf(subject, "unknown type kind %q", decl.Kind)
	}
	access, err := parseAccess(decl.Access, sg.Public)
	if err != nil {
		return nil, invalidf(subject, "%v", err)
	}

	arity := len(decl.TypeParams)
	var t *sg.Type
	if container != nil {
		t = container.Nested(decl.Name, arity)
	} else {
		for _, existing := range ns.Types {
			if existing.Name == decl.Name && existing.Arity() == arity {
				t = existing
				break
			}
		}
	}
	switch {
	case t != nil && t.Kind != kind:
		return nil, invalidf(subject, "declared as both %s and %s", t.Kind, kind)
	case t == nil:
		t = &sg.Type{Kind: kind, Name: decl.Name, Access: access}
		for _, tpd := range decl.TypeParams {
			tp, err := declareTypeParam(tpd)
			if err != nil {
				return nil, invalidf(subject, "%v", err)
			}
			t.TypeParams = append(t.TypeParams, tp)
		}
		if container != nil {
			container.AddMember(&sg.NestedType{Type: t})
		} else {
			if ns.FullName() == "System" {
				if special, ok := sg.SpecialFromMetadataName(decl.Name); ok && (arity == 0) == (special != sg.NullableT) {
					t.Special = special
				}
			}
			ns.AddType(t)
		}
	}
	if err := applyTypeModifiers(t, decl.Modifiers); err != nil {
		return nil, invalidf(subject, "%v", err)
	}

	scope.Type = t
	b.types = append(b.types, pendingType{t: t, decl: decl, scope: scope, res: res})
	for i := range decl.Members {
		md := &decl.Members[i]
		if md.Kind != "type" {
			continue
		}
		if md.Nested == nil {
			return nil, invalidf(subject, "member %q of kind type has no nested declaration", md.Name)
		}
		if _, err := b.declareType(md.Nested, ns, t, scope, res); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func declareTypeParam(d TypeParamDecl) (*sg.TypeParam, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("type parameter without a name")
	}
	tp := &sg.TypeParam{Name: d.Name}
	switch d.Variance {
	case "":
	case "in":
		tp.Variance = sg.Contravariant
	case "out":
		tp.Variance = sg.Covariant
	default:
		return nil, fmt.Errorf("type parameter %s: unknown variance %q", d.Name, d.Variance)
	}
	return tp, nil
}

func applyTypeModifiers(t *sg.Type, mods []string) error {
	for _, mod := range mods {
		switch mod {
		case "static":
			t.Static = true
		case "abstract":
			t.Abstract = true
		case "sealed":
			t.Sealed = true
		case "readonly":
			t.ReadOnly = true
		case "ref":
			t.RefLike = true
		case "flags":
			t.Flags = true
		case "unsafeValueType":
			t.UnsafeValueType = true
		default:
			return fmt.Errorf("unknown type modifier %q", mod)
		}
	}
	return nil
}

func parseAccess(s string, def sg.Accessibility) (sg.Accessibility, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	a, ok := sg.ParseAccessibility(s)
	if !ok {
		return def, fmt.Errorf("unknown accessibility %q", s)
	}
	return a, nil
}

func (b *Builder) declareExternal(d *ExternalDecl, res *typeexpr.Resolver) error {
	if d.Name == "" {
		return invalidf("externals", "external type without a name")
	}
	nsName, name := "", d.Name
	if i := strings.LastIndexByte(d.Name, '.'); i >= 0 {
		nsName, name = d.Name[:i], d.Name[i+1:]
	}
	kind := sg.Class
	if d.Kind != "" {
		k, ok := sg.ParseTypeKind(d.Kind)
		if !ok {
			return invalidf(d.Name, "unknown type kind %q", d.Kind)
		}
		kind = k
	}
	ns := b.g.External.Lookup(nsName)
	for _, existing := range ns.Types {
		if existing.Name == name && existing.Arity() == len(d.TypeParams) {
			return nil
		}
	}
	t := &sg.Type{Kind: kind, Name: name, Access: sg.Public}
	for _, tpName := range d.TypeParams {
		t.TypeParams = append(t.TypeParams, &sg.TypeParam{Name: tpName})
	}
	if nsName == "System" {
		if special, ok := sg.SpecialFromMetadataName(name); ok {
			t.Special = special
		}
	}
	ns.AddType(t)
	b.externals = append(b.externals, pendingExternal{
		t:     t,
		decl:  d,
		scope: typeexpr.Scope{Namespace: nsName, Type: t},
		res:   res,
	})
	return nil
}

func (b *Builder) fillExternal(pe pendingExternal) error {
	if pe.decl.Base != "" {
		ref, _, err := pe.res.ResolveString(pe.decl.Base, pe.scope)
		if err != nil {
			return invalidf(pe.decl.Name, "base: %v", err)
		}
		pe.t.Base = ref
	}
	for _, s := range pe.decl.Interfaces {
		ref, _, err := pe.res.ResolveString(s, pe.scope)
		if err != nil {
			return invalidf(pe.decl.Name, "interface: %v", err)
		}
		pe.t.Interfaces = append(pe.t.Interfaces, ref)
	}
	return nil
}

func (b *Builder) fillTypeParams(subject string, tps []*sg.TypeParam, decls []TypeParamDecl, scope typeexpr.Scope, res *typeexpr.Resolver) error {
	for i, d := range decls {
		if i >= len(tps) {
			break
		}
		tp := tps[i]
		for _, c := range d.Constraints {
			switch strings.TrimSpace(c) {
			case "class":
				tp.ReferenceType = true
			case "class?":
				tp.ReferenceType = true
				tp.NullableReference = true
			case "struct":
				tp.ValueType = true
			case "unmanaged":
				tp.Unmanaged = true
				tp.ValueType = true
			case "notnull":
				tp.NotNull = true
			case "new()":
				tp.Constructor = true
			default:
				ref, ann, err := res.ResolveString(c, scope)
				if err != nil {
					return invalidf(subject, "constraint on %s: %v", tp.Name, err)
				}
				tp.Constraints = append(tp.Constraints, sg.TypeArg{Type: ref, Nullable: ann})
			}
		}
	}
	return nil
}

func (b *Builder) fillType(pt pendingType) error {
	t, decl := pt.t, pt.decl
	subject := t.FullName()
	if err := b.fillTypeParams(subject, t.TypeParams, decl.TypeParams, pt.scope, pt.res); err != nil {
		return err
	}

	switch {
	case decl.Base != "":
		if t.Kind != sg.Class {
			return invalidf(subject, "only classes declare a base type")
		}
		ref, _, err := pt.res.ResolveString(decl.Base, pt.scope)
		if err != nil {
			return invalidf(subject, "base: %v", err)
		}
		t.Base = ref
	case t.Kind == sg.Class && t.Base == nil && t.Special != sg.Object:
		t.Base = sg.SpecialRef(sg.Object)
	}
	var interfaces []sg.TypeRef
	for _, s := range decl.Interfaces {
		ref, _, err := pt.res.ResolveString(s, pt.scope)
		if err != nil {
			return invalidf(subject, "interface: %v", err)
		}
		interfaces = append(interfaces, ref)
	}
	// Source base lists do not separate the base class from interfaces.
	if t.Kind == sg.Class && decl.Base == "" && len(interfaces) > 0 && isClassRef(interfaces[0]) {
		t.Base = interfaces[0]
		interfaces = interfaces[1:]
	}
	t.Interfaces = append(t.Interfaces, interfaces...)

	if t.Kind == sg.Delegate {
		invoke := &sg.Method{MemberBase: sg.MemberBase{Name: "Invoke", Access: sg.Public}}
		invoke.Containing = t
		ret, err := b.returnSig(decl.Returns, decl.RefReturn, pt.scope, pt.res)
		if err != nil {
			return invalidf(subject, "%v", err)
		}
		invoke.Return = ret
		if invoke.Params, err = b.params(subject, decl.Params, pt.scope, pt.res); err != nil {
			return err
		}
		t.Invoke = invoke
		if len(decl.Members) > 0 {
			return invalidf(subject, "delegates cannot declare members")
		}
		return nil
	}

	for i := range decl.Members {
		md := &decl.Members[i]
		if md.Kind == "type" {
			continue
		}
		m, err := b.member(t, md, pt.scope, pt.res)
		if err != nil {
			return err
		}
		t.AddMember(m)
	}
	return nil
}

// isClassRef reports whether ref names a class. Types without a definition
// are classes unless named like an interface (I followed by an upper-case
// letter).
func isClassRef(ref sg.TypeRef) bool {
	n, ok := ref.(*sg.NamedType)
	if !ok {
		return false
	}
	if n.Def != nil {
		return n.Def.Kind == sg.Class
	}
	if n.Special != sg.NoSpecial {
		return n.Special == sg.Object
	}
	name := n.TypeName()
	return !(len(name) > 1 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z')
}

func (b *Builder) fillEnum(pt pendingType) error {
	t, decl := pt.t, pt.decl
	subject := t.FullName()
	if decl.Underlying != "" {
		underlying, ok := sg.SpecialFromKeyword(decl.Underlying)
		if !ok {
			underlying, ok = sg.SpecialFromMetadataName(strings.TrimPrefix(decl.Underlying, "System."))
		}
		if !ok || !underlying.IsInteger() {
			return invalidf(subject, "enum underlying type %q is not integral", decl.Underlying)
		}
		t.EnumUnderlying = underlying
	} else if t.EnumUnderlying == sg.NoSpecial {
		t.EnumUnderlying = sg.Int32
	}
	kind, _ := sg.ConstKindFor(t.EnumUnderlying)
	self := sg.RefTo(t)

	var prev *sg.ConstantValue
	for _, f := range enumFields(t) {
		prev = f.Constant
	}
	for i := range decl.Members {
		md := &decl.Members[i]
		if md.Kind != "" && md.Kind != "field" && md.Kind != "const" {
			return invalidf(subject, "enum member %q must be a value", md.Name)
		}
		if md.Name == "" {
			return invalidf(subject, "enum value without a name")
		}
		var v *sg.ConstantValue
		if md.Value == "" {
			if prev == nil {
				v = sg.FromBits(kind, 0)
			} else {
				v = sg.FromBits(kind, prev.Bits()+1)
			}
		} else {
			var err error
			v, err = typeexpr.EvalConstant(md.Value, self, b.constantLookup(t, pt.scope, pt.res))
			if err != nil {
				return invalidf(subject+"."+md.Name, "%v", err)
			}
		}
		t.AddMember(&sg.Field{
			MemberBase: sg.MemberBase{Name: md.Name, Access: sg.Public, Static: true},
			Type:       self,
			Const:      true,
			Constant:   v,
		})
		prev = v
	}
	return nil
}

func enumFields(t *sg.Type) []*sg.Field {
	var out []*sg.Field
	for _, m := range t.Members {
		if f, ok := m.(*sg.Field); ok && f.Const {
			out = append(out, f)
		}
	}
	return out
}

// constantLookup finds constants by simple name in t and its containers, or
// by Type.Name through the resolver.
func (b *Builder) constantLookup(t *sg.Type, scope typeexpr.Scope, res *typeexpr.Resolver) typeexpr.Lookup {
	return func(name string) (*sg.ConstantValue, bool) {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			for cur := t; cur != nil; cur = cur.Containing {
				if v := constantOf(cur, name); v != nil {
					return v, true
				}
			}
			return nil, false
		}
		ref, _, err := res.ResolveString(name[:i], scope)
		if err != nil {
			return nil, false
		}
		n, ok := ref.(*sg.NamedType)
		if !ok || n.Def == nil {
			return nil, false
		}
		v := constantOf(n.Def, name[i+1:])
		return v, v != nil
	}
}

func constantOf(t *sg.Type, name string) *sg.ConstantValue {
	for _, m := range t.Members {
		if f, ok := m.(*sg.Field); ok && f.Name == name && f.Const && f.Constant != nil {
			return f.Constant
		}
	}
	return nil
}
