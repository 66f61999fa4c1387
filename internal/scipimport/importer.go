// Package scipimport derives a coarse declaration manifest from a SCIP
// index. SCIP records symbols, kinds and relationships but not signatures,
// so member types come out as unknown and render as error types.
package scipimport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	apierrors "apidump/internal/errors"
	"apidump/internal/graphfile"
	"apidump/internal/slogutil"
	"apidump/internal/typeexpr"
)

// LoadIndex reads and decodes an index.scip file.
func LoadIndex(path string) (*scippb.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.InputNotFound, fmt.Sprintf("SCIP index not found at %s", path), err)
		}
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to read SCIP index from %s", path), err)
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to parse SCIP index from %s", path), err)
	}
	return &index, nil
}

// ImportFile loads path and converts it.
func ImportFile(ctx context.Context, path string, logger *slog.Logger) (*graphfile.Manifest, error) {
	index, err := LoadIndex(path)
	if err != nil {
		return nil, err
	}
	return Import(ctx, index, logger)
}

var unknownType = typeexpr.UnknownPrefix

type typeEntry struct {
	decl    graphfile.TypeDecl
	members []*graphfile.MemberDecl
	nested  []*typeEntry
	methods map[string]*graphfile.MemberDecl
}

type parsedInfo struct {
	info *scippb.SymbolInformation
	sym  *Symbol
}

type importer struct {
	logger    *slog.Logger
	infos     map[string]*scippb.SymbolInformation
	types     map[string]*typeEntry
	nsTypes   map[string][]*typeEntry
	nsOrder   []string
	externals map[string]*graphfile.ExternalDecl
	extOrder  []string
}

// Import converts index into a manifest. Symbols defined in the index's
// documents become declarations; types outside the index that declared
// types implement become externals.
func Import(ctx context.Context, index *scippb.Index, logger *slog.Logger) (*graphfile.Manifest, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	im := &importer{
		logger:    logger,
		infos:     make(map[string]*scippb.SymbolInformation),
		types:     make(map[string]*typeEntry),
		nsTypes:   make(map[string][]*typeEntry),
		externals: make(map[string]*graphfile.ExternalDecl),
	}

	var defined []*scippb.SymbolInformation
	for _, doc := range index.GetDocuments() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, info := range doc.GetSymbols() {
			if _, seen := im.infos[info.GetSymbol()]; !seen {
				defined = append(defined, info)
			}
			im.infos[info.GetSymbol()] = info
		}
	}
	local := make(map[string]bool, len(defined))
	for _, info := range defined {
		local[info.GetSymbol()] = true
	}
	for _, info := range index.GetExternalSymbols() {
		if _, ok := im.infos[info.GetSymbol()]; !ok {
			im.infos[info.GetSymbol()] = info
		}
	}

	// Types first, then members, then what hangs off members.
	var types, members, extras []parsedInfo
	for _, info := range defined {
		sym, err := ParseSymbol(info.GetSymbol())
		if err != nil {
			return nil, apierrors.New(apierrors.InputInvalid, "malformed SCIP symbol", err).
				WithDetails(map[string]string{"symbol": info.GetSymbol()})
		}
		if sym.Local || strings.ContainsAny(info.GetSymbol(), "<>") {
			continue
		}
		pi := parsedInfo{info: info, sym: sym}
		_, path, rest := sym.Path()
		switch {
		case len(path) == 0:
			logger.Debug("Skipping SCIP symbol outside a type", "symbol", info.GetSymbol())
		case len(rest) == 0:
			types = append(types, pi)
		case len(rest) == 1 && rest[0].Suffix != SuffixTypeParameter:
			members = append(members, pi)
		default:
			extras = append(extras, pi)
		}
	}
	for _, pi := range types {
		ns, path, _ := pi.sym.Path()
		im.declareType(ns, path, pi.info)
	}
	for _, pi := range types {
		ns, path, _ := pi.sym.Path()
		im.relate(im.types[typeKey(ns, path)], pi.info, local)
	}
	for _, pi := range members {
		im.declareMember(pi)
	}
	for _, pi := range extras {
		im.declareExtra(pi)
	}

	m := &graphfile.Manifest{Version: graphfile.CurrentVersion}
	for _, name := range im.nsOrder {
		nd := graphfile.NamespaceDecl{Name: name}
		for _, e := range im.nsTypes[name] {
			nd.Types = append(nd.Types, e.materialise())
		}
		m.Namespaces = append(m.Namespaces, nd)
	}
	for _, name := range im.extOrder {
		m.Externals = append(m.Externals, *im.externals[name])
	}
	logger.Debug("Imported SCIP index",
		"symbols", len(defined),
		"namespaces", len(m.Namespaces),
		"externals", len(m.Externals))
	return m, nil
}

func (e *typeEntry) materialise() graphfile.TypeDecl {
	decl := e.decl
	decl.Members = nil
	for _, md := range e.members {
		decl.Members = append(decl.Members, *md)
	}
	for _, n := range e.nested {
		nested := n.materialise()
		decl.Members = append(decl.Members, graphfile.MemberDecl{Kind: "type", Name: nested.Name, Nested: &nested})
	}
	return decl
}

func typeKey(ns []string, path []Descriptor) string {
	var b strings.Builder
	for _, n := range ns {
		b.WriteString(n)
		b.WriteByte('/')
	}
	for _, t := range path {
		b.WriteString(t.Name)
		b.WriteByte('#')
	}
	return b.String()
}

// clrName drops the `N arity suffix some indexers keep on generic names.
func clrName(name string) string {
	if i := strings.LastIndexByte(name, '`'); i > 0 {
		return name[:i]
	}
	return name
}

func typeKind(kind scippb.SymbolInformation_Kind, def string) string {
	switch kind {
	case scippb.SymbolInformation_Class:
		return "class"
	case scippb.SymbolInformation_Interface:
		return "interface"
	case scippb.SymbolInformation_Struct:
		return "struct"
	case scippb.SymbolInformation_Enum:
		return "enum"
	case scippb.SymbolInformation_Delegate:
		return "delegate"
	}
	return def
}

// declareType records a type, creating any enclosing types the index did
// not define itself.
func (im *importer) declareType(ns []string, path []Descriptor, info *scippb.SymbolInformation) *typeEntry {
	key := typeKey(ns, path)
	if e := im.types[key]; e != nil {
		e.decl.Kind = typeKind(info.GetKind(), e.decl.Kind)
		return e
	}
	e := &typeEntry{
		decl:    graphfile.TypeDecl{Name: clrName(path[len(path)-1].Name), Kind: typeKind(info.GetKind(), "class"), Access: "public"},
		methods: make(map[string]*graphfile.MemberDecl),
	}
	if e.decl.Kind == "delegate" {
		e.decl.Returns = unknownType
	}
	im.types[key] = e

	if len(path) > 1 {
		parent := im.types[typeKey(ns, path[:len(path)-1])]
		if parent == nil {
			parent = im.declareType(ns, path[:len(path)-1], &scippb.SymbolInformation{})
		}
		parent.nested = append(parent.nested, e)
		return e
	}
	name := strings.Join(ns, ".")
	if _, ok := im.nsTypes[name]; !ok {
		im.nsOrder = append(im.nsOrder, name)
	}
	im.nsTypes[name] = append(im.nsTypes[name], e)
	return e
}

// relate turns implementation relationships into the type's interface
// list. The graph builder promotes a leading class to the base.
func (im *importer) relate(e *typeEntry, info *scippb.SymbolInformation, local map[string]bool) {
	if e.decl.Kind == "enum" || e.decl.Kind == "delegate" {
		return
	}
	for _, rel := range info.GetRelationships() {
		if !rel.GetIsImplementation() {
			continue
		}
		target, err := ParseSymbol(rel.GetSymbol())
		if err != nil || target.Local {
			im.logger.Debug("Skipping SCIP relationship", "from", info.GetSymbol(), "to", rel.GetSymbol())
			continue
		}
		name := dottedTypeName(target)
		if name == "" {
			continue
		}
		e.decl.Interfaces = append(e.decl.Interfaces, name)
		if !local[rel.GetSymbol()] {
			im.external(name, rel.GetSymbol())
		}
	}
}

func dottedTypeName(s *Symbol) string {
	ns, path, rest := s.Path()
	if len(path) == 0 || len(rest) != 0 {
		return ""
	}
	parts := append([]string{}, ns...)
	for _, t := range path {
		parts = append(parts, clrName(t.Name))
	}
	return strings.Join(parts, ".")
}

func (im *importer) external(name, symbol string) {
	if _, ok := im.externals[name]; ok {
		return
	}
	kind := "interface"
	if info := im.infos[symbol]; info != nil {
		kind = typeKind(info.GetKind(), kind)
	}
	im.externals[name] = &graphfile.ExternalDecl{Name: name, Kind: kind}
	im.extOrder = append(im.extOrder, name)
}

func (im *importer) declareMember(pi parsedInfo) {
	ns, path, rest := pi.sym.Path()
	owner := im.types[typeKey(ns, path)]
	if owner == nil || owner.decl.Kind == "delegate" {
		return
	}
	d := rest[0]
	if owner.decl.Kind == "enum" {
		if d.Suffix == SuffixTerm && d.Name != "value__" {
			owner.members = append(owner.members, &graphfile.MemberDecl{Kind: "field", Name: d.Name})
		}
		return
	}

	md := &graphfile.MemberDecl{Name: d.Name}
	kind := pi.info.GetKind()
	switch d.Suffix {
	case SuffixMethod:
		switch {
		case d.Name == ".cctor":
			md.Kind = "constructor"
			md.Modifiers = []string{"static"}
		case d.Name == ".ctor" || kind == scippb.SymbolInformation_Constructor:
			md.Kind = "constructor"
		default:
			md.Kind = "method"
			md.Returns = unknownType
		}
		owner.methods[d.Name+"("+d.Disambiguator+")"] = md
	case SuffixTerm:
		switch kind {
		case scippb.SymbolInformation_Property, scippb.SymbolInformation_StaticProperty:
			md.Kind = "property"
		case scippb.SymbolInformation_Event, scippb.SymbolInformation_StaticEvent:
			md.Kind = "event"
		default:
			md.Kind = "field"
		}
		md.Type = unknownType
		if kind == scippb.SymbolInformation_Constant {
			md.Modifiers = append(md.Modifiers, "readonly")
		}
	default:
		im.logger.Debug("Skipping SCIP member descriptor", "symbol", pi.info.GetSymbol())
		return
	}
	if isStatic(kind) {
		md.Modifiers = append([]string{"static"}, md.Modifiers...)
	}
	if kind == scippb.SymbolInformation_AbstractMethod && owner.decl.Kind != "interface" {
		md.Modifiers = append(md.Modifiers, "abstract")
	}
	owner.members = append(owner.members, md)
}

func isStatic(kind scippb.SymbolInformation_Kind) bool {
	switch kind {
	case scippb.SymbolInformation_StaticMethod, scippb.SymbolInformation_StaticProperty,
		scippb.SymbolInformation_StaticField, scippb.SymbolInformation_StaticEvent,
		scippb.SymbolInformation_Constant:
		return true
	}
	return false
}

// declareExtra attaches type parameters to types and methods, and
// parameters to methods.
func (im *importer) declareExtra(pi parsedInfo) {
	ns, path, rest := pi.sym.Path()
	owner := im.types[typeKey(ns, path)]
	if owner == nil {
		return
	}
	if len(rest) == 1 && rest[0].Suffix == SuffixTypeParameter {
		owner.decl.TypeParams = append(owner.decl.TypeParams, graphfile.TypeParamDecl{Name: rest[0].Name})
		return
	}
	if len(rest) != 2 || rest[0].Suffix != SuffixMethod {
		im.logger.Debug("Skipping SCIP symbol", "symbol", pi.info.GetSymbol())
		return
	}
	method := owner.methods[rest[0].Name+"("+rest[0].Disambiguator+")"]
	if method == nil {
		return
	}
	switch rest[1].Suffix {
	case SuffixParameter:
		method.Params = append(method.Params, graphfile.ParamDecl{Name: rest[1].Name, Type: unknownType})
	case SuffixTypeParameter:
		method.TypeParams = append(method.TypeParams, graphfile.TypeParamDecl{Name: rest[1].Name})
	}
}
