package symbolgraph

// maxClosureDepth bounds expansion of generically recursive interface
// declarations such as I<T> : I<List<T>>.
const maxClosureDepth = 32

// Substitute replaces type parameters of def with the corresponding args.
func Substitute(ref TypeRef, def *Type, args []TypeArg) TypeRef {
	if len(args) == 0 || def == nil {
		return ref
	}
	switch v := ref.(type) {
	case *TypeParameterType:
		for i, tp := range def.TypeParams {
			if i < len(args) && (tp == v.Param || (v.Param == nil && tp.Name == v.Name)) {
				return args[i].Type
			}
		}
		return v
	case *NamedType:
		if len(v.Args) == 0 && len(v.Tuple) == 0 {
			return v
		}
		out := *v
		out.Args = make([]TypeArg, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = TypeArg{Type: Substitute(a.Type, def, args), Nullable: a.Nullable}
		}
		if len(v.Tuple) > 0 {
			out.Tuple = make([]TupleElement, len(v.Tuple))
			for i, e := range v.Tuple {
				e.Type = Substitute(e.Type, def, args)
				out.Tuple[i] = e
			}
		}
		return &out
	case *ArrayType:
		out := *v
		out.Elem = Substitute(v.Elem, def, args)
		return &out
	case *PointerType:
		return &PointerType{Elem: Substitute(v.Elem, def, args)}
	case *FunctionPointerType:
		out := *v
		out.Params = make([]*Parameter, len(v.Params))
		for i, p := range v.Params {
			cp := *p
			cp.Type = Substitute(p.Type, def, args)
			out.Params[i] = &cp
		}
		out.Return.Type = Substitute(v.Return.Type, def, args)
		return &out
	}
	return ref
}

// DirectInterfaces returns the interfaces declared by the definition of ref,
// with type arguments substituted. References without a definition have none.
func DirectInterfaces(ref TypeRef) []TypeRef {
	n, ok := ref.(*NamedType)
	if !ok || n.Def == nil {
		return nil
	}
	out := make([]TypeRef, 0, len(n.Def.Interfaces))
	for _, iface := range n.Def.Interfaces {
		out = append(out, Substitute(iface, n.Def, n.Args))
	}
	return out
}

// BaseOf returns the substituted base class of ref, or nil.
func BaseOf(ref TypeRef) TypeRef {
	n, ok := ref.(*NamedType)
	if !ok || n.Def == nil || n.Def.Base == nil {
		return nil
	}
	return Substitute(n.Def.Base, n.Def, n.Args)
}

// AllInterfaces returns every interface ref transitively implements,
// excluding ref itself. For classes the base class chain contributes too.
// Results are deduplicated and listed in discovery order.
func AllInterfaces(ref TypeRef) []TypeRef {
	var out []TypeRef
	var visit func(TypeRef, int)
	add := func(r TypeRef) bool {
		for _, seen := range out {
			if Equal(seen, r) {
				return false
			}
		}
		out = append(out, r)
		return true
	}
	visit = func(r TypeRef, depth int) {
		if depth > maxClosureDepth {
			return
		}
		for _, iface := range DirectInterfaces(r) {
			if add(iface) {
				visit(iface, depth+1)
			}
		}
		if b := BaseOf(r); b != nil {
			visit(b, depth+1)
		}
	}
	visit(ref, 0)
	return out
}

// Implements reports whether a transitively implements b. A type does not
// implement itself.
func Implements(a, b TypeRef) bool {
	for _, iface := range AllInterfaces(a) {
		if Equal(iface, b) {
			return true
		}
	}
	return false
}

// Closure is the set of interfaces implied by refs, including every ref that
// is not a class. References without a definition count as interfaces.
func Closure(refs ...TypeRef) []TypeRef {
	var out []TypeRef
	add := func(r TypeRef) {
		for _, seen := range out {
			if Equal(seen, r) {
				return
			}
		}
		out = append(out, r)
	}
	for _, r := range refs {
		if n, ok := r.(*NamedType); ok && n.Kind() != Class {
			add(r)
		}
		for _, iface := range AllInterfaces(r) {
			add(iface)
		}
	}
	return out
}
