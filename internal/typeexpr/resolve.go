package typeexpr

import (
	"fmt"
	"strings"

	sg "apidump/internal/symbolgraph"
)

// Scope is the declaration context a type expression appears in.
type Scope struct {
	// Namespace is the dotted namespace of the declaration.
	Namespace string
	// Usings are namespaces imported into the file.
	Usings []string
	// Type is the enclosing type, used for nested type and type parameter
	// lookup.
	Type *sg.Type
	// TypeParams are method-level generic parameters.
	TypeParams []*sg.TypeParam
}

// Resolver binds parsed expressions to symbol graph references. Names that
// cannot be found become external references with no definition.
type Resolver struct {
	Graph *sg.Graph
	// NullableContext makes unannotated reference types NotAnnotated
	// instead of Oblivious.
	NullableContext bool
}

// UnknownPrefix marks a type the producer of a declaration could not
// determine, as in "!" or "!Widget". It resolves to an error type named by
// the rest of the text, or "?" when that is empty.
const UnknownPrefix = "!"

// ResolveError reports an expression that cannot form a type.
type ResolveError struct {
	Expr string
	Msg  string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("type %q: %s", e.Expr, e.Msg)
}

// well-known external structs, so that T? on them becomes Nullable<T>
var knownValueTypes = map[string]bool{
	"System.DateTime":                         true,
	"System.DateTimeOffset":                   true,
	"System.TimeSpan":                         true,
	"System.Guid":                             true,
	"System.Half":                             true,
	"System.Int128":                           true,
	"System.UInt128":                          true,
	"System.Span":                             true,
	"System.ReadOnlySpan":                     true,
	"System.Memory":                           true,
	"System.ReadOnlyMemory":                   true,
	"System.ValueTuple":                       true,
	"System.Range":                            true,
	"System.Index":                            true,
	"System.RuntimeTypeHandle":                true,
	"System.Threading.CancellationToken":      true,
	"System.Threading.Tasks.ValueTask":        true,
	"System.Collections.Generic.KeyValuePair": true,
}

// ResolveString parses and resolves text.
func (r *Resolver) ResolveString(text string, s Scope) (sg.TypeRef, sg.NullableAnnotation, error) {
	if name, ok := strings.CutPrefix(strings.TrimSpace(text), UnknownPrefix); ok {
		if name == "" {
			name = "?"
		}
		return &sg.ErrorType{Name: name}, sg.Oblivious, nil
	}
	e, err := Parse(text)
	if err != nil {
		return nil, sg.Oblivious, err
	}
	return r.Resolve(e, s)
}

// Resolve binds e. The annotation is Annotated when e ends in ? on a
// reference type.
func (r *Resolver) Resolve(e Expr, s Scope) (sg.TypeRef, sg.NullableAnnotation, error) {
	switch v := e.(type) {
	case *Nullable:
		inner, _, err := r.Resolve(v.Elem, s)
		if err != nil {
			return nil, sg.Oblivious, err
		}
		if sg.IsValueType(inner) {
			return sg.NullableOf(inner), r.plain(), nil
		}
		return inner, sg.Annotated, nil
	case *Name:
		ref, err := r.resolveName(v, s)
		return ref, r.plain(), err
	case *Array:
		elem, n, err := r.Resolve(v.Elem, s)
		if err != nil {
			return nil, sg.Oblivious, err
		}
		return &sg.ArrayType{Elem: elem, ElemNullable: n, Rank: v.Rank, Vector: v.Vector}, r.plain(), nil
	case *Pointer:
		elem, _, err := r.Resolve(v.Elem, s)
		if err != nil {
			return nil, sg.Oblivious, err
		}
		return &sg.PointerType{Elem: elem}, r.plain(), nil
	case *Tuple:
		ref, err := r.resolveTuple(v, s)
		return ref, r.plain(), err
	case *FuncPtr:
		ref, err := r.resolveFuncPtr(v, s)
		return ref, r.plain(), err
	default:
		return nil, sg.Oblivious, &ResolveError{Expr: fmt.Sprint(e), Msg: fmt.Sprintf("unexpected expression %T", e)}
	}
}

func (r *Resolver) plain() sg.NullableAnnotation {
	if r.NullableContext {
		return sg.NotAnnotated
	}
	return sg.Oblivious
}

func (r *Resolver) resolveName(n *Name, s Scope) (sg.TypeRef, error) {
	last := n.Last()
	if len(n.Segments) == 1 && len(last.Args) == 0 && !n.Global {
		if ref := lookupTypeParam(last.Ident, s); ref != nil {
			return ref, nil
		}
		switch last.Ident {
		case "dynamic":
			return &sg.DynamicType{}, nil
		case "nint":
			return sg.NativeInt(false), nil
		case "nuint":
			return sg.NativeInt(true), nil
		}
		if special, ok := sg.SpecialFromKeyword(last.Ident); ok {
			return sg.SpecialRef(special), nil
		}
	}

	args := make([]sg.TypeArg, 0, len(last.Args))
	for _, a := range last.Args {
		ref, ann, err := r.Resolve(a, s)
		if err != nil {
			return nil, err
		}
		args = append(args, sg.TypeArg{Type: ref, Nullable: ann})
	}

	path := segmentPath(n)
	if def := r.find(path, len(args), n.Global, s); def != nil {
		return sg.RefTo(def, args...), nil
	}
	return r.external(n, path, args, s), nil
}

func lookupTypeParam(name string, s Scope) sg.TypeRef {
	for _, tp := range s.TypeParams {
		if tp.Name == name {
			return &sg.TypeParameterType{Name: name, Param: tp}
		}
	}
	if s.Type != nil {
		if tp := s.Type.TypeParam(name); tp != nil {
			return &sg.TypeParameterType{Name: name, Param: tp}
		}
	}
	return nil
}

func segmentPath(n *Name) string {
	parts := make([]string, len(n.Segments))
	for i, seg := range n.Segments {
		parts[i] = seg.Ident
	}
	return strings.Join(parts, ".")
}

// find tries enclosing types, then the namespace chain, then usings.
func (r *Resolver) find(path string, arity int, global bool, s Scope) *sg.Type {
	if r.Graph == nil {
		return nil
	}
	if global {
		return r.Graph.FindType(path, arity)
	}
	for cur := s.Type; cur != nil; cur = cur.Containing {
		if t := r.Graph.FindType(cur.FullName()+"."+path, arity); t != nil {
			return t
		}
	}
	for ns := s.Namespace; ; {
		full := path
		if ns != "" {
			full = ns + "." + path
		}
		if t := r.Graph.FindType(full, arity); t != nil {
			return t
		}
		if ns == "" {
			break
		}
		if i := strings.LastIndexByte(ns, '.'); i >= 0 {
			ns = ns[:i]
		} else {
			ns = ""
		}
	}
	for _, u := range s.Usings {
		if t := r.Graph.FindType(u+"."+path, arity); t != nil {
			return t
		}
	}
	return nil
}

// external builds a reference to a type outside the graph. System types
// with a keyword map back to their special type.
func (r *Resolver) external(n *Name, path string, args []sg.TypeArg, s Scope) *sg.NamedType {
	last := n.Last()
	ns := n.Qualifier()
	if ns == "" && len(n.Segments) == 1 {
		for _, u := range s.Usings {
			if u == "System" {
				if special, ok := sg.SpecialFromMetadataName(last.Ident); ok && len(args) == 0 {
					return sg.SpecialRef(special)
				}
			}
		}
	}
	if ns == "System" && len(args) == 0 {
		if special, ok := sg.SpecialFromMetadataName(last.Ident); ok {
			return sg.SpecialRef(special)
		}
	}
	ref := &sg.NamedType{Name: last.Ident, Namespace: ns, Args: args}
	if knownValueTypes[path] {
		ref.ValueType = true
	} else if ns == "" {
		for _, u := range s.Usings {
			if knownValueTypes[u+"."+path] {
				ref.Namespace = u
				ref.ValueType = true
				break
			}
		}
	}
	// ValueTuple<T1..T7> is the same type as the tuple written with parentheses.
	if ref.Namespace == "System" && ref.Name == "ValueTuple" && len(args) >= 2 && len(args) <= 7 {
		for i, a := range args {
			ref.Tuple = append(ref.Tuple, sg.TupleElement{Name: fmt.Sprintf("Item%d", i+1), Type: a.Type, Nullable: a.Nullable})
		}
	}
	return ref
}

func (r *Resolver) resolveTuple(t *Tuple, s Scope) (sg.TypeRef, error) {
	ref := &sg.NamedType{Name: "ValueTuple", Namespace: "System", ValueType: true}
	for i, e := range t.Elems {
		elem, ann, err := r.Resolve(e.Type, s)
		if err != nil {
			return nil, err
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("Item%d", i+1)
		}
		ref.Args = append(ref.Args, sg.TypeArg{Type: elem, Nullable: ann})
		ref.Tuple = append(ref.Tuple, sg.TupleElement{Name: name, Explicit: e.Name != "", Type: elem, Nullable: ann})
	}
	return ref, nil
}

var classicConventions = map[string]sg.CallingConvention{
	"Cdecl":    sg.CDecl,
	"Stdcall":  sg.StdCall,
	"Thiscall": sg.ThisCall,
	"Fastcall": sg.FastCall,
}

var refKinds = map[string]sg.RefKind{
	"":             sg.RefNone,
	"ref":          sg.Ref,
	"out":          sg.Out,
	"in":           sg.In,
	"ref readonly": sg.RefReadOnly,
}

func (r *Resolver) resolveFuncPtr(f *FuncPtr, s Scope) (sg.TypeRef, error) {
	fp := &sg.FunctionPointerType{Convention: sg.Managed}
	if f.Convention == "unmanaged" {
		fp.Convention = sg.Unmanaged
		if len(f.Conventions) == 1 {
			if cc, ok := classicConventions[f.Conventions[0]]; ok {
				fp.Convention = cc
			}
		}
		if fp.Convention == sg.Unmanaged {
			for _, c := range f.Conventions {
				fp.UnmanagedConventions = append(fp.UnmanagedConventions, "CallConv"+c)
			}
		}
	}
	for _, p := range f.Params {
		ref, ann, err := r.Resolve(p.Type, s)
		if err != nil {
			return nil, err
		}
		fp.Params = append(fp.Params, &sg.Parameter{Type: ref, Nullable: ann, RefKind: refKinds[p.RefKind]})
	}
	ret, ann, err := r.Resolve(f.Return.Type, s)
	if err != nil {
		return nil, err
	}
	rk := refKinds[f.Return.RefKind]
	if rk != sg.RefNone && rk != sg.Ref && rk != sg.RefReadOnly {
		return nil, &ResolveError{Expr: f.String(), Msg: "return cannot be " + f.Return.RefKind}
	}
	fp.Return = sg.ReturnSig{Type: ret, Nullable: ann, RefKind: rk}
	return fp, nil
}
