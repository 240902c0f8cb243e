package cppparse

import "github.com/jward/cppmodel/internal/rawnode"

// Node is a declaration copied out of a tree-sitter tree. It holds no
// reference to the tree, so a File outlives the parser that built it.
type Node struct {
	kind     rawnode.Kind
	name     string
	children []*Node
	parent   *Node
	loc      rawnode.Location
	declOnly bool
	tokens   []string
	typ      *Type
	template bool
	targs    []rawnode.TemplateArgument
	qual     []string
	value    string
}

var _ rawnode.Node = (*Node)(nil)

func (n *Node) Kind() rawnode.Kind         { return n.kind }
func (n *Node) Spelling() string           { return n.name }
func (n *Node) Location() rawnode.Location { return n.loc }
func (n *Node) IsDeclarationOnly() bool    { return n.declOnly }
func (n *Node) Tokens() []string           { return n.tokens }
func (n *Node) IsTemplate() bool           { return n.template }
func (n *Node) Qualifier() []string        { return n.qual }
func (n *Node) Value() string              { return n.value }

func (n *Node) TemplateArguments() []rawnode.TemplateArgument { return n.targs }

// Definition is always nil: tree-sitter does not link declarations.
func (n *Node) Definition() rawnode.Node { return nil }

func (n *Node) Children() []rawnode.Node {
	out := make([]rawnode.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Parent() rawnode.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Type() rawnode.Type {
	if n.typ == nil {
		return nil
	}
	return n.typ
}

func (n *Node) add(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}

// Type is one layer of a written type.
type Type struct {
	kind     rawnode.TypeKind
	name     string
	quals    []string
	elem     *Type
	size     string
	isConst  bool
	volatile bool
	restrict bool
	targs    []rawnode.TemplateArgument
}

var _ rawnode.Type = (*Type)(nil)

func (t *Type) Kind() rawnode.TypeKind { return t.kind }
func (t *Type) Spelling() string       { return t.name }
func (t *Type) Qualifiers() []string   { return t.quals }
func (t *Type) ArraySize() string      { return t.size }
func (t *Type) IsConst() bool          { return t.isConst }
func (t *Type) IsVolatile() bool       { return t.volatile }
func (t *Type) IsRestrict() bool       { return t.restrict }

func (t *Type) TemplateArguments() []rawnode.TemplateArgument { return t.targs }

// Declaration is always nil; names are resolved by the semantic layer.
func (t *Type) Declaration() rawnode.Node { return nil }

func (t *Type) Element() rawnode.Type {
	if t.elem == nil {
		return nil
	}
	return t.elem
}

// qualify applies a type_qualifier keyword to t.
func (t *Type) qualify(kw string) {
	switch kw {
	case "const":
		t.isConst = true
	case "volatile":
		t.volatile = true
	case "restrict", "__restrict", "__restrict__":
		t.restrict = true
	}
}
