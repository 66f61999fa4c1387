//go:build cgo

package csharp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	apierrors "apidump/internal/errors"
	"apidump/internal/graphfile"
	"apidump/internal/slogutil"
)

// Available reports whether this build can parse C# sources.
const Available = true

// Parser wraps a tree-sitter parser for C#. A Parser is not safe for
// concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
	logger *slog.Logger
}

// NewParser creates a C# parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())
	return &Parser{parser: p, logger: logger}
}

// ParseFile reads and parses one source file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*graphfile.Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.InputNotFound, fmt.Sprintf("source file %s does not exist", path), err)
		}
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to read %s", path), err)
	}
	return p.ParseSource(ctx, path, src)
}

// ParseSource parses src into a manifest. name is used in diagnostics.
func (p *Parser) ParseSource(ctx context.Context, name string, src []byte) (*graphfile.Manifest, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to parse %s", name), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			pos := bad.StartPoint()
			return nil, apierrors.Newf(apierrors.InputInvalid, "%s:%d:%d: syntax error near %q",
				name, pos.Row+1, pos.Column+1, snippet(bad.Content(src)))
		}
		return nil, apierrors.Newf(apierrors.InputInvalid, "%s: syntax error", name)
	}

	w := &walker{
		src:    src,
		name:   name,
		logger: p.logger,
		m:      &graphfile.Manifest{Version: graphfile.CurrentVersion, Nullable: nullableEnabled(src)},
	}
	w.compilationUnit(root)
	p.logger.Debug("Parsed C# source", "file", name, "namespaces", len(w.m.Namespaces))
	return w.m, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			if bad := firstError(c); bad != nil {
				return bad
			}
		}
	}
	return nil
}

func snippet(s string) string {
	s = normalizeSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

type walker struct {
	src    []byte
	name   string
	logger *slog.Logger
	m      *graphfile.Manifest
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// field returns the first present child among the given field names.
func field(n *sitter.Node, names ...string) *sitter.Node {
	for _, name := range names {
		if c := n.ChildByFieldName(name); c != nil {
			return c
		}
	}
	return nil
}

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func childrenOfType(n *sitter.Node, t string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}

// namespaceDecl returns the manifest entry for name, creating it.
func (w *walker) namespaceDecl(name string, usings []string) *graphfile.NamespaceDecl {
	for i := range w.m.Namespaces {
		if w.m.Namespaces[i].Name == name {
			ns := &w.m.Namespaces[i]
			ns.Usings = mergeUsings(ns.Usings, usings)
			return ns
		}
	}
	w.m.Namespaces = append(w.m.Namespaces, graphfile.NamespaceDecl{Name: name, Usings: mergeUsings(nil, usings)})
	return &w.m.Namespaces[len(w.m.Namespaces)-1]
}

func mergeUsings(have, add []string) []string {
	for _, u := range add {
		dup := false
		for _, h := range have {
			if h == u {
				dup = true
				break
			}
		}
		if !dup {
			have = append(have, u)
		}
	}
	return have
}

// using returns the imported namespace of a plain using directive. Static
// and alias directives do not bring namespaces into scope.
func (w *walker) using(n *sitter.Node) (string, bool) {
	text := normalizeSpace(strings.TrimSuffix(strings.TrimSpace(w.text(n)), ";"))
	text = strings.TrimPrefix(text, "global ")
	text = strings.TrimPrefix(text, "using ")
	if strings.HasPrefix(text, "static ") || strings.Contains(text, "=") {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimSpace(text), "global::"), true
}

func (w *walker) compilationUnit(root *sitter.Node) {
	var usings []string
	current := ""
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		switch c.Type() {
		case "using_directive":
			if u, ok := w.using(c); ok {
				usings = append(usings, u)
			}
		case "namespace_declaration":
			w.namespace(c, "", usings)
		case "file_scoped_namespace_declaration":
			current = normalizeSpace(w.text(field(c, "name")))
			w.namespaceDecl(current, usings)
			// newer grammars nest the following declarations
			w.namespaceBody(c, current, usings)
		default:
			if td, ok := w.typeDecl(c, false); ok {
				ns := w.namespaceDecl(current, usings)
				ns.Types = append(ns.Types, *td)
			}
		}
	}
}

func (w *walker) namespace(n *sitter.Node, outer string, usings []string) {
	name := normalizeSpace(w.text(field(n, "name")))
	if outer != "" {
		name = outer + "." + name
	}
	body := field(n, "body")
	if body == nil {
		body = childOfType(n, "declaration_list")
	}
	if body == nil {
		return
	}
	w.namespaceDecl(name, usings)
	w.namespaceBody(body, name, usings)
}

func (w *walker) namespaceBody(body *sitter.Node, name string, usings []string) {
	local := append([]string(nil), usings...)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "using_directive":
			if u, ok := w.using(c); ok {
				local = append(local, u)
				w.namespaceDecl(name, local)
			}
		case "namespace_declaration":
			w.namespace(c, name, local)
		default:
			if td, ok := w.typeDecl(c, false); ok {
				ns := w.namespaceDecl(name, local)
				ns.Types = append(ns.Types, *td)
			}
		}
	}
}

var typeKinds = map[string]string{
	"class_declaration":     "class",
	"struct_declaration":    "struct",
	"interface_declaration": "interface",
	"enum_declaration":      "enum",
	"delegate_declaration":  "delegate",
}

// modifiers collects modifier keywords written directly on n.
func (w *walker) modifiers(n *sitter.Node) modifierSet {
	var words []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == "modifier":
			words = append(words, strings.Fields(w.text(c))...)
		case !c.IsNamed() && modifierKeywords[c.Type()]:
			words = append(words, c.Type())
		}
	}
	return newModifierSet(words)
}

func (w *walker) attributes(n *sitter.Node) map[string]bool {
	out := map[string]bool{}
	for _, list := range childrenOfType(n, "attribute_list") {
		for _, a := range childrenOfType(list, "attribute") {
			name := field(a, "name")
			if name == nil {
				out[attributeName(w.text(a))] = true
				continue
			}
			out[attributeName(w.text(name))] = true
		}
	}
	return out
}

func (w *walker) typeDecl(n *sitter.Node, nested bool) (*graphfile.TypeDecl, bool) {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		if strings.HasSuffix(n.Type(), "_declaration") {
			w.logger.Debug("Skipping unsupported declaration", "file", w.name, "node", n.Type(),
				"line", n.StartPoint().Row+1)
		}
		return nil, false
	}
	mods := w.modifiers(n)
	defaultAccess := "internal"
	if nested {
		defaultAccess = "private"
	}
	td := &graphfile.TypeDecl{
		Kind:   kind,
		Name:   normalizeSpace(w.text(field(n, "name"))),
		Access: mods.accessText(defaultAccess),
	}
	for _, mod := range []string{"static", "abstract", "sealed", "readonly", "ref"} {
		if mods.has(mod) {
			td.Modifiers = append(td.Modifiers, mod)
		}
	}
	attrs := w.attributes(n)
	if attrs["Flags"] && kind == "enum" {
		td.Modifiers = append(td.Modifiers, "flags")
	}
	if attrs["UnsafeValueType"] && kind == "struct" {
		td.Modifiers = append(td.Modifiers, "unsafeValueType")
	}

	td.TypeParams = w.typeParams(n)
	w.constraints(n, td.TypeParams)

	if bases := w.bases(n); len(bases) > 0 {
		if kind == "enum" {
			td.Underlying = bases[0]
		} else {
			td.Interfaces = bases
		}
	}

	if kind == "delegate" {
		td.RefReturn, td.Returns = splitRefReturn(w.text(field(n, "returns", "type")))
		td.Params = w.params(field(n, "parameters"))
		return td, true
	}

	body := field(n, "body")
	if body == nil {
		body = childOfType(n, "declaration_list", "enum_member_declaration_list")
	}
	if body != nil {
		if kind == "enum" {
			td.Members = w.enumMembers(body)
		} else {
			td.Members = w.members(body, kind)
		}
	}
	return td, true
}

func (w *walker) typeParams(n *sitter.Node) []graphfile.TypeParamDecl {
	list := field(n, "type_parameters")
	if list == nil {
		list = childOfType(n, "type_parameter_list")
	}
	if list == nil {
		return nil
	}
	var out []graphfile.TypeParamDecl
	for _, tp := range childrenOfType(list, "type_parameter") {
		words := strings.Fields(w.text(tp))
		// attributes precede the variance keyword
		for len(words) > 0 && strings.HasPrefix(words[0], "[") {
			words = words[1:]
		}
		d := graphfile.TypeParamDecl{}
		if name := field(tp, "name"); name != nil {
			d.Name = w.text(name)
		} else if len(words) > 0 {
			d.Name = words[len(words)-1]
		}
		if len(words) > 1 && (words[0] == "in" || words[0] == "out") {
			d.Variance = words[0]
		}
		out = append(out, d)
	}
	return out
}

// constraints applies where clauses of n to the matching parameters.
func (w *walker) constraints(n *sitter.Node, tps []graphfile.TypeParamDecl) {
	for _, clause := range childrenOfType(n, "type_parameter_constraints_clause") {
		text := normalizeSpace(w.text(clause))
		text = strings.TrimPrefix(text, "where ")
		target, list, ok := strings.Cut(text, ":")
		if !ok {
			continue
		}
		target = strings.TrimSpace(target)
		for i := range tps {
			if tps[i].Name != target {
				continue
			}
			for _, c := range splitTopLevel(list, ',') {
				switch compact := strings.ReplaceAll(c, " ", ""); compact {
				case "class", "class?", "struct", "unmanaged", "notnull", "new()":
					tps[i].Constraints = append(tps[i].Constraints, compact)
				case "default", "":
				default:
					tps[i].Constraints = append(tps[i].Constraints, normalizeSpace(c))
				}
			}
		}
	}
}

func (w *walker) bases(n *sitter.Node) []string {
	list := field(n, "bases")
	if list == nil {
		list = childOfType(n, "base_list")
	}
	if list == nil {
		return nil
	}
	text := strings.TrimPrefix(strings.TrimSpace(w.text(list)), ":")
	var out []string
	for _, b := range splitTopLevel(text, ',') {
		// primary constructor arguments: Base(x)
		if i := strings.IndexByte(b, '('); i >= 0 && !strings.HasPrefix(b, "(") {
			b = b[:i]
		}
		if b = normalizeSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (w *walker) enumMembers(body *sitter.Node) []graphfile.MemberDecl {
	var out []graphfile.MemberDecl
	for _, em := range childrenOfType(body, "enum_member_declaration") {
		md := graphfile.MemberDecl{Name: w.text(field(em, "name"))}
		if v := field(em, "value"); v != nil {
			md.Value = normalizeSpace(w.text(v))
		} else if _, value, ok := strings.Cut(w.text(em), "="); ok {
			md.Value = normalizeSpace(value)
		}
		if md.Name == "" {
			md.Name = strings.TrimSpace(strings.SplitN(w.text(em), "=", 2)[0])
		}
		out = append(out, md)
	}
	return out
}

func (w *walker) members(body *sitter.Node, containerKind string) []graphfile.MemberDecl {
	defaultAccess := "private"
	if containerKind == "interface" {
		defaultAccess = "public"
	}
	var out []graphfile.MemberDecl
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if td, ok := w.typeDecl(c, true); ok {
			out = append(out, graphfile.MemberDecl{Kind: "type", Name: td.Name, Nested: td})
			continue
		}
		out = append(out, w.member(c, defaultAccess)...)
	}
	return out
}

// memberCommon fills the fields shared by all member declarations.
func (w *walker) memberCommon(n *sitter.Node, kind, defaultAccess string) graphfile.MemberDecl {
	mods := w.modifiers(n)
	md := graphfile.MemberDecl{Kind: kind, Access: mods.accessText(defaultAccess)}
	for _, mod := range []string{"static", "abstract", "virtual", "override", "sealed", "readonly", "volatile"} {
		if mods.has(mod) {
			md.Modifiers = append(md.Modifiers, mod)
		}
	}
	if kind == "field" && mods.has("const") {
		md.Kind = "const"
	}
	if spec := childOfType(n, "explicit_interface_specifier"); spec != nil {
		iface := strings.TrimSuffix(normalizeSpace(w.text(spec)), ".")
		md.Access = ""
		md.Implements = []string{strings.TrimSpace(iface)}
	}
	return md
}

func (w *walker) member(n *sitter.Node, defaultAccess string) []graphfile.MemberDecl {
	switch n.Type() {
	case "field_declaration", "event_field_declaration":
		return w.fieldMembers(n, defaultAccess)
	case "property_declaration":
		md := w.memberCommon(n, "property", defaultAccess)
		md.Name = w.text(field(n, "name"))
		md.RefReturn, md.Type = splitRefReturn(w.text(field(n, "type")))
		md.Accessors = w.accessors(n, "get")
		return w.withTarget(md)
	case "indexer_declaration":
		md := w.memberCommon(n, "indexer", defaultAccess)
		md.RefReturn, md.Type = splitRefReturn(w.text(field(n, "type")))
		params := field(n, "parameters")
		if params == nil {
			params = childOfType(n, "bracketed_parameter_list")
		}
		md.Params = w.params(params)
		md.Accessors = w.accessors(n, "get")
		if len(md.Implements) > 0 {
			md.Implements[0] += ".Item"
		}
		return []graphfile.MemberDecl{md}
	case "event_declaration":
		md := w.memberCommon(n, "event", defaultAccess)
		md.Name = w.text(field(n, "name"))
		md.Type = normalizeSpace(w.text(field(n, "type")))
		md.Accessors = w.accessors(n, "")
		return w.withTarget(md)
	case "method_declaration":
		md := w.memberCommon(n, "method", defaultAccess)
		md.Name = w.text(field(n, "name"))
		md.RefReturn, md.Returns = splitRefReturn(w.text(field(n, "returns", "type")))
		md.TypeParams = w.typeParams(n)
		w.constraints(n, md.TypeParams)
		md.Params = w.params(field(n, "parameters"))
		return w.withTarget(md)
	case "constructor_declaration":
		md := w.memberCommon(n, "constructor", defaultAccess)
		md.Params = w.params(field(n, "parameters"))
		return []graphfile.MemberDecl{md}
	case "destructor_declaration":
		return []graphfile.MemberDecl{{Kind: "destructor", Access: "protected"}}
	case "operator_declaration":
		md := w.memberCommon(n, "operator", "public")
		md.RefReturn, md.Returns = splitRefReturn(w.text(field(n, "returns", "type")))
		md.Name = w.operatorToken(n)
		md.Params = w.params(field(n, "parameters"))
		return []graphfile.MemberDecl{md}
	case "conversion_operator_declaration":
		md := w.memberCommon(n, "conversion", "public")
		md.Returns = normalizeSpace(w.text(field(n, "type")))
		md.Name = "implicit"
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); !c.IsNamed() && c.Type() == "explicit" {
				md.Name = "explicit"
			}
		}
		md.Params = w.params(field(n, "parameters"))
		return []graphfile.MemberDecl{md}
	}
	return nil
}

// withTarget completes an explicit implementation target with the member
// name.
func (w *walker) withTarget(md graphfile.MemberDecl) []graphfile.MemberDecl {
	if len(md.Implements) > 0 {
		md.Implements[0] += "." + md.Name
	}
	return []graphfile.MemberDecl{md}
}

func (w *walker) operatorToken(n *sitter.Node) string {
	if op := field(n, "operator"); op != nil {
		return strings.TrimSpace(w.text(op))
	}
	text := w.text(n)
	_, rest, ok := strings.Cut(text, "operator")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(rest, '('); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "checked"))
}

func (w *walker) fieldMembers(n *sitter.Node, defaultAccess string) []graphfile.MemberDecl {
	kind := "field"
	if n.Type() == "event_field_declaration" {
		kind = "event"
	}
	base := w.memberCommon(n, kind, defaultAccess)
	decl := childOfType(n, "variable_declaration")
	if decl == nil {
		return nil
	}
	typ := normalizeSpace(w.text(field(decl, "type")))
	fixed := w.modifiers(n).has("fixed")

	var out []graphfile.MemberDecl
	for _, v := range childrenOfType(decl, "variable_declarator") {
		md := base
		md.Modifiers = append([]string(nil), base.Modifiers...)
		md.Type = typ
		left, value, hasValue := strings.Cut(w.text(v), "=")
		if hasValue && md.Kind == "const" {
			md.Value = normalizeSpace(value)
		}
		left = strings.TrimSpace(left)
		if open := strings.IndexByte(left, '['); open >= 0 && fixed {
			size := strings.TrimSpace(strings.Trim(left[open:], "[] "))
			if count, err := strconv.Atoi(size); err == nil {
				md.FixedSize = count
			}
			left = strings.TrimSpace(left[:open])
		}
		if name := field(v, "name"); name != nil {
			left = w.text(name)
		}
		md.Name = left
		out = append(out, md)
	}
	return out
}

// accessors lists accessor declarations, or def for expression-bodied
// members.
func (w *walker) accessors(n *sitter.Node, def string) []string {
	list := field(n, "accessors")
	if list == nil {
		list = childOfType(n, "accessor_list")
	}
	if list == nil {
		if def == "" {
			return nil
		}
		return []string{def}
	}
	var out []string
	for _, a := range childrenOfType(list, "accessor_declaration") {
		if words, ok := accessorWords(w.text(a)); ok {
			out = append(out, words)
		}
	}
	return out
}

func (w *walker) params(list *sitter.Node) []graphfile.ParamDecl {
	if list == nil {
		return nil
	}
	var out []graphfile.ParamDecl
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		if p.Type() != "parameter" && p.Type() != "parameter_array" {
			continue
		}
		out = append(out, w.param(p))
	}
	return out
}

func (w *walker) param(n *sitter.Node) graphfile.ParamDecl {
	typeNode := field(n, "type")
	nameNode := field(n, "name")
	if nameNode == nil {
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			if c := n.NamedChild(i); c.Type() == "identifier" {
				nameNode = c
				break
			}
		}
	}

	var d graphfile.ParamDecl
	var prefix []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == "attribute_list":
		case c.Type() == "parameter_modifier" || c.Type() == "modifier":
			prefix = append(prefix, strings.Fields(w.text(c))...)
		case !c.IsNamed():
			switch tok := c.Type(); tok {
			case "ref", "out", "in", "this", "params", "readonly", "scoped":
				prefix = append(prefix, tok)
			}
		case c.Type() == "equals_value_clause":
			d.Default = normalizeSpace(strings.TrimPrefix(strings.TrimSpace(w.text(c)), "="))
		case typeNode == nil && (nameNode == nil || c.StartByte() != nameNode.StartByte()):
			typeNode = c
		}
	}
	if d.Default == "" && nameNode != nil {
		if rest := strings.TrimSpace(string(w.src[nameNode.EndByte():n.EndByte()])); strings.HasPrefix(rest, "=") {
			d.Default = normalizeSpace(strings.TrimPrefix(rest, "="))
		}
	}

	d.Name = w.text(nameNode)
	d.Type = normalizeSpace(w.text(typeNode))
	var ref []string
	for _, word := range prefix {
		switch word {
		case "this":
			d.This = true
		case "params":
			d.Params = true
		case "ref", "out", "in", "readonly":
			ref = append(ref, word)
		}
	}
	d.RefKind = strings.Join(ref, " ")
	return d
}
