package cppparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cppmodel/internal/rawnode"
)

// builder copies declarations out of one tree-sitter tree.
type builder struct {
	src  []byte
	file string
	// head is the template<...> parameter list waiting for the declaration
	// it introduces.
	head *templateHead
	// generics holds the template parameter names of enclosing templates.
	generics []map[string]bool
}

type templateHead struct {
	params []*Node
}

var recordKinds = map[string]rawnode.Kind{
	"class_specifier":  rawnode.KindClass,
	"struct_specifier": rawnode.KindStruct,
	"union_specifier":  rawnode.KindUnion,
}

// declaratorTypes are the node types that can stand in a declarator
// position of a declaration.
var declaratorTypes = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"function_declarator":      true,
	"parenthesized_declarator": true,
	"qualified_identifier":     true,
	"template_function":        true,
	"operator_name":            true,
	"destructor_name":          true,
	"attributed_declarator":    true,
}

func (b *builder) text(n *sitter.Node) string {
	return strings.Join(strings.Fields(n.Content(b.src)), " ")
}

func (b *builder) newNode(kind rawnode.Kind, name string, at *sitter.Node) *Node {
	p := at.StartPoint()
	return &Node{
		kind: kind,
		name: name,
		loc:  rawnode.Location{File: b.file, Line: int(p.Row) + 1, Column: int(p.Column) + 1},
	}
}

func allChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		out = append(out, n.Child(i))
	}
	return out
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (b *builder) items(n *sitter.Node, parent *Node) {
	for _, c := range namedChildren(n) {
		b.item(c, parent)
	}
}

func (b *builder) item(n *sitter.Node, parent *Node) {
	switch n.Type() {
	case "namespace_definition":
		b.namespace(n, parent)
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		b.tag(n, parent)
	case "function_definition":
		b.function(n, parent)
	case "declaration", "field_declaration":
		b.declaration(n, parent)
	case "template_declaration":
		b.template(n, parent)
	case "type_definition":
		b.typedef(n, parent)
	case "alias_declaration":
		b.alias(n, parent)
	case "linkage_specification":
		b.linkage(n, parent)
	case "using_declaration":
		b.using(n, parent)
	case "declaration_list", "field_declaration_list",
		"preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif":
		b.items(n, parent)
	}
}

// takeHead attaches the pending template parameter list to node.
func (b *builder) takeHead(node *Node) {
	h := b.head
	if h == nil {
		return
	}
	b.head = nil
	node.template = true
	for _, p := range h.params {
		node.add(p)
	}
	if len(h.params) == 0 && node.targs == nil {
		node.targs = []rawnode.TemplateArgument{}
	}
}

func (b *builder) isGeneric(name string) bool {
	for _, g := range b.generics {
		if g[name] {
			return true
		}
	}
	return false
}

// setName fills the name, qualifier and template arguments of node from a
// declarator name.
func (b *builder) setName(node *Node, n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "qualified_identifier" {
		path, last := b.qualified(n)
		node.qual = path
		n = last
		if n == nil {
			return
		}
	}
	switch n.Type() {
	case "template_type", "template_function":
		if name := n.ChildByFieldName("name"); name != nil {
			node.name = b.text(name)
		}
		node.targs = b.templateArguments(n.ChildByFieldName("arguments"))
	case "destructor_name", "operator_name":
		node.name = strings.ReplaceAll(b.text(n), " ", "")
	default:
		node.name = b.text(n)
	}
}

// qualified flattens a qualified_identifier into its scope path and the
// innermost name node. A leading "::" yields an empty first segment.
func (b *builder) qualified(n *sitter.Node) ([]string, *sitter.Node) {
	var path []string
	for n != nil && n.Type() == "qualified_identifier" {
		scope := n.ChildByFieldName("scope")
		switch {
		case scope == nil:
			path = append(path, "")
		case scope.Type() == "template_type":
			path = append(path, b.text(scope.ChildByFieldName("name")))
		default:
			path = append(path, b.text(scope))
		}
		n = n.ChildByFieldName("name")
	}
	return path, n
}

func (b *builder) namespace(n *sitter.Node, parent *Node) {
	path := []string{""}
	if name := n.ChildByFieldName("name"); name != nil {
		path = strings.Split(strings.ReplaceAll(b.text(name), " ", ""), "::")
	}
	cur := parent
	for _, seg := range path {
		ns := b.newNode(rawnode.KindNamespace, seg, n)
		cur.add(ns)
		cur = ns
	}
	if body := n.ChildByFieldName("body"); body != nil {
		b.items(body, cur)
	}
}

// tag handles class, struct, union and enum specifiers.
func (b *builder) tag(n *sitter.Node, parent *Node) *Node {
	if n.Type() == "enum_specifier" {
		return b.enum(n, parent)
	}
	node := b.newNode(recordKinds[n.Type()], "", n)
	b.setName(node, n.ChildByFieldName("name"))
	body := n.ChildByFieldName("body")
	node.declOnly = body == nil
	b.takeHead(node)
	parent.add(node)
	if body != nil {
		b.items(body, node)
	}
	return node
}

func (b *builder) enum(n *sitter.Node, parent *Node) *Node {
	node := b.newNode(rawnode.KindEnum, "", n)
	b.setName(node, n.ChildByFieldName("name"))
	for _, c := range allChildren(n) {
		if t := c.Type(); t == "class" || t == "struct" {
			node.tokens = append(node.tokens, t)
		}
	}
	body := n.ChildByFieldName("body")
	node.declOnly = body == nil
	parent.add(node)
	for _, e := range namedChildren(body) {
		if e.Type() != "enumerator" {
			continue
		}
		name := e.ChildByFieldName("name")
		if name == nil {
			continue
		}
		val := b.newNode(rawnode.KindEnumConstant, b.text(name), e)
		if v := e.ChildByFieldName("value"); v != nil {
			val.value = b.text(v)
		}
		node.add(val)
	}
	return node
}

func (b *builder) linkage(n *sitter.Node, parent *Node) {
	node := b.newNode(rawnode.KindLinkageSpec, "", n)
	if v := n.ChildByFieldName("value"); v != nil {
		node.value = b.text(v)
	}
	parent.add(node)
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Type() == "declaration_list" {
		b.items(body, node)
	} else {
		b.item(body, node)
	}
}

// using records "using namespace x::y;". Using-declarations of single
// names are not modelled.
func (b *builder) using(n *sitter.Node, parent *Node) {
	isDirective := false
	for _, c := range allChildren(n) {
		if c.Type() == "namespace" {
			isDirective = true
		}
	}
	named := namedChildren(n)
	if !isDirective || len(named) == 0 {
		return
	}
	target := named[len(named)-1]
	node := b.newNode(rawnode.KindUsingDirective, "", n)
	if target.Type() == "qualified_identifier" {
		path, last := b.qualified(target)
		if last != nil {
			path = append(path, b.text(last))
		}
		node.qual = path
	} else {
		node.qual = []string{b.text(target)}
	}
	parent.add(node)
}

func (b *builder) template(n *sitter.Node, parent *Node) {
	head := &templateHead{}
	names := make(map[string]bool)
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		node := b.templateParameter(p)
		if node == nil {
			continue
		}
		head.params = append(head.params, node)
		names[node.name] = true
	}
	b.generics = append(b.generics, names)
	defer func() { b.generics = b.generics[:len(b.generics)-1] }()

	for _, c := range namedChildren(n) {
		if c.Type() == "template_parameter_list" {
			continue
		}
		b.head = head
		b.item(c, parent)
		b.head = nil
	}
}

func (b *builder) templateParameter(p *sitter.Node) *Node {
	switch p.Type() {
	case "type_parameter_declaration", "variadic_type_parameter_declaration", "optional_type_parameter_declaration":
		node := b.newNode(rawnode.KindTemplateTypeParameter, "", p)
		for _, c := range allChildren(p) {
			switch c.Type() {
			case "typename", "class", "...":
				node.tokens = append(node.tokens, c.Type())
			case "type_identifier":
				if node.name == "" {
					node.name = b.text(c)
				}
			}
		}
		if name := p.ChildByFieldName("name"); name != nil {
			node.name = b.text(name)
		}
		if def := p.ChildByFieldName("default_type"); def != nil {
			node.value = b.text(def)
		}
		node.tokens = append(node.tokens, node.name)
		return node
	case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		base := b.baseType(p)
		if base == nil {
			return nil
		}
		t, inner := b.declarator(p.ChildByFieldName("declarator"), base)
		node := b.newNode(rawnode.KindTemplateNonTypeParameter, "", p)
		if inner != nil {
			node.name = b.text(inner)
		}
		node.typ = t
		if def := p.ChildByFieldName("default_value"); def != nil {
			node.value = b.text(def)
		}
		if p.Type() == "variadic_parameter_declaration" {
			node.tokens = []string{"..."}
		}
		return node
	}
	return nil
}

func (b *builder) function(n *sitter.Node, parent *Node) {
	node := b.callable(n, n.ChildByFieldName("declarator"), parent)
	if node == nil {
		return
	}
	parent.add(node)
}

// declaration handles declarations at namespace scope and member
// declarations: inline type definitions, function prototypes, variables and
// fields.
func (b *builder) declaration(n *sitter.Node, parent *Node) {
	tn := n.ChildByFieldName("type")
	decls := b.declarators(n, tn)

	if tn != nil && isTag(tn) && (tn.ChildByFieldName("body") != nil || len(decls) == 0) {
		b.tag(tn, parent)
	}

	base := b.baseType(n)
	for _, d := range decls {
		if fd := functionDeclarator(d); fd != nil {
			if node := b.callable(n, d, parent); node != nil {
				node.declOnly = true
				parent.add(node)
			}
			continue
		}
		if base == nil {
			continue
		}
		t, inner := b.declarator(d, base)
		if inner == nil {
			continue
		}
		kind := rawnode.KindVariable
		if parent.kind.IsRecord() {
			kind = rawnode.KindField
		}
		v := b.newNode(kind, "", d)
		b.setName(v, inner)
		v.typ = t
		v.tokens = b.headTokens(n)
		v.declOnly = d.Type() != "init_declarator" && containsToken(v.tokens, "extern")
		b.takeHead(v)
		parent.add(v)
	}
}

// declarators returns the declarator children of a declaration, skipping
// the type and any initializer that follows "=".
func (b *builder) declarators(n, typeNode *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	inValue := false
	for _, c := range allChildren(n) {
		switch c.Type() {
		case "=":
			inValue = true
			continue
		case ",":
			inValue = false
			continue
		}
		if inValue || !c.IsNamed() || sameNode(c, typeNode) || !declaratorTypes[c.Type()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *builder) typedef(n *sitter.Node, parent *Node) {
	tn := n.ChildByFieldName("type")
	if tn == nil {
		return
	}
	var names []*sitter.Node
	for _, c := range namedChildren(n) {
		if sameNode(c, tn) || c.Type() == "type_qualifier" {
			continue
		}
		names = append(names, c)
	}

	base := b.baseType(n)
	if isTag(tn) && tn.ChildByFieldName("body") != nil {
		rec := b.tag(tn, parent)
		if rec.name == "" && len(names) > 0 {
			// typedef struct { ... } Name;
			if _, inner := b.declarator(names[0], nil); inner != nil {
				rec.name = b.text(inner)
				base.name = rec.name
			}
		}
	}
	for _, d := range names {
		t, inner := b.declarator(d, base)
		if inner == nil {
			continue
		}
		node := b.newNode(rawnode.KindTypedef, b.text(inner), d)
		node.typ = t
		parent.add(node)
	}
}

func (b *builder) alias(n *sitter.Node, parent *Node) {
	name := n.ChildByFieldName("name")
	td := n.ChildByFieldName("type")
	if name == nil || td == nil {
		return
	}
	node := b.newNode(rawnode.KindTypeAlias, b.text(name), n)
	node.typ = b.descriptor(td)
	b.takeHead(node)
	parent.add(node)
}

// callable builds a function node from a declaration or definition n whose
// declarator is d. It returns nil when d does not declare a function.
func (b *builder) callable(n, d *sitter.Node, parent *Node) *Node {
	if d == nil {
		return nil
	}
	base := b.baseType(n)
	ret, fd := b.declarator(d, base)
	if fd == nil || fd.Type() != "function_declarator" {
		return nil
	}
	nameNode := fd.ChildByFieldName("declarator")
	if nameNode == nil || !isName(nameNode) {
		return nil
	}

	node := b.newNode(rawnode.KindFunction, "", n)
	b.setName(node, nameNode)
	node.typ = ret
	node.kind = classify(node, parent, base != nil)

	node.tokens = append(b.headTokens(n), ")")
	node.tokens = append(node.tokens, b.trailingTokens(fd)...)
	for _, c := range allChildren(n) {
		switch c.Type() {
		case "default_method_clause":
			node.tokens = append(node.tokens, "=", "default")
		case "delete_method_clause":
			node.tokens = append(node.tokens, "=", "delete")
		case "pure_virtual_clause":
			node.tokens = append(node.tokens, "=", "0")
		}
	}
	if def := n.ChildByFieldName("default_value"); def != nil && b.text(def) == "0" {
		node.tokens = append(node.tokens, "=", "0")
	}

	b.takeHead(node)
	b.parameters(fd, node)
	return node
}

func classify(node, parent *Node, hasReturn bool) rawnode.Kind {
	switch {
	case strings.HasPrefix(node.name, "~"):
		return rawnode.KindDestructor
	case !hasReturn && parent.kind.IsRecord() && node.name == parent.name:
		return rawnode.KindConstructor
	case !hasReturn && len(node.qual) > 0 && node.qual[len(node.qual)-1] == node.name:
		return rawnode.KindConstructor
	case parent.kind.IsRecord():
		return rawnode.KindMethod
	}
	return rawnode.KindFunction
}

func (b *builder) parameters(fd *sitter.Node, fn *Node) {
	list := namedChildren(fd.ChildByFieldName("parameters"))
	for _, p := range list {
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		default:
			continue
		}
		base := b.baseType(p)
		if base == nil {
			continue
		}
		decl := p.ChildByFieldName("declarator")
		t, inner := b.declarator(decl, base)
		if decl == nil && len(list) == 1 && t.kind == rawnode.TypeBuiltin && t.name == "void" {
			// f(void)
			return
		}
		param := b.newNode(rawnode.KindParameter, "", p)
		if inner != nil && isName(inner) {
			param.name = b.text(inner)
		}
		if inner != nil && inner.Type() == "function_declarator" {
			t = &Type{kind: rawnode.TypeInvalid, name: b.text(p)}
		}
		param.typ = t
		if def := p.ChildByFieldName("default_value"); def != nil {
			param.value = b.text(def)
		}
		if p.Type() == "variadic_parameter_declaration" {
			param.tokens = []string{"..."}
		}
		fn.add(param)
	}
}

// headTokens collects the specifier keywords written before the declarator.
func (b *builder) headTokens(n *sitter.Node) []string {
	var toks []string
	for _, c := range allChildren(n) {
		switch c.Type() {
		case "storage_class_specifier", "virtual", "virtual_function_specifier", "explicit_function_specifier":
			if f := strings.Fields(b.text(c)); len(f) > 0 {
				toks = append(toks, strings.SplitN(f[0], "(", 2)[0])
			}
		case "type_qualifier":
			switch kw := b.text(c); kw {
			case "const", "volatile", "restrict", "__restrict", "__restrict__":
			default:
				toks = append(toks, kw)
			}
		}
	}
	return toks
}

// trailingTokens collects the specifiers after a function's parameter list.
func (b *builder) trailingTokens(fd *sitter.Node) []string {
	var toks []string
	for _, c := range allChildren(fd) {
		switch c.Type() {
		case "type_qualifier", "virtual_specifier", "ref_qualifier":
			toks = append(toks, b.text(c))
		case "noexcept":
			toks = append(toks, "noexcept")
		}
	}
	return toks
}

func containsToken(toks []string, tok string) bool {
	for _, t := range toks {
		if t == tok {
			return true
		}
	}
	return false
}

func isTag(n *sitter.Node) bool {
	_, rec := recordKinds[n.Type()]
	return rec || n.Type() == "enum_specifier"
}

func isName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "field_identifier", "qualified_identifier", "destructor_name",
		"operator_name", "template_function", "type_identifier", "operator_cast":
		return true
	}
	return false
}

// functionDeclarator returns the function_declarator reached through
// pointer and reference layers of d when it declares a function.
func functionDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			if name := d.ChildByFieldName("declarator"); name != nil && isName(name) {
				return d
			}
			return nil
		case "pointer_declarator", "array_declarator", "init_declarator":
			d = d.ChildByFieldName("declarator")
		case "reference_declarator":
			named := namedChildren(d)
			if len(named) == 0 {
				return nil
			}
			d = named[len(named)-1]
		case "attributed_declarator":
			d = d.NamedChild(0)
		default:
			return nil
		}
	}
	return nil
}
