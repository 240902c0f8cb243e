// Package rawtest builds in-memory rawnode trees for tests.
package rawtest

import "github.com/jward/cppmodel/internal/rawnode"

// Node is a hand-built rawnode.Node.
type Node struct {
	K        rawnode.Kind
	Name     string
	Kids     []*Node
	Loc      rawnode.Location
	DeclOnly bool
	Def      *Node
	Toks     []string
	Typ      *Type
	Template bool
	TArgs    []rawnode.TemplateArgument
	Qual     []string
	Val      string

	parent *Node
}

var _ rawnode.Node = (*Node)(nil)

func (n *Node) Kind() rawnode.Kind { return n.K }
func (n *Node) Spelling() string   { return n.Name }

func (n *Node) Children() []rawnode.Node {
	out := make([]rawnode.Node, len(n.Kids))
	for i, k := range n.Kids {
		out[i] = k
	}
	return out
}

func (n *Node) Parent() rawnode.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Location() rawnode.Location { return n.Loc }
func (n *Node) IsDeclarationOnly() bool    { return n.DeclOnly }

func (n *Node) Definition() rawnode.Node {
	if n.Def == nil {
		return nil
	}
	return n.Def
}

func (n *Node) Tokens() []string { return n.Toks }

func (n *Node) Type() rawnode.Type {
	if n.Typ == nil {
		return nil
	}
	return n.Typ
}

func (n *Node) IsTemplate() bool                              { return n.Template }
func (n *Node) TemplateArguments() []rawnode.TemplateArgument { return n.TArgs }
func (n *Node) Qualifier() []string                           { return n.Qual }
func (n *Node) Value() string                                 { return n.Val }

// Add appends children and links their parent.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.Kids = append(n.Kids, c)
	}
	return n
}

// AsTemplate marks n as a template and prepends its template parameters.
func (n *Node) AsTemplate(params ...*Node) *Node {
	n.Template = true
	for _, p := range params {
		p.parent = n
	}
	n.Kids = append(append([]*Node{}, params...), n.Kids...)
	return n
}

// Specialise sets the explicit template arguments on the declared name.
func (n *Node) Specialise(args ...rawnode.TemplateArgument) *Node {
	n.Template = true
	n.TArgs = args
	return n
}

// Qualified sets the explicit qualification of the declared name.
func (n *Node) Qualified(path ...string) *Node {
	n.Qual = path
	return n
}

// WithTokens sets the declaration head tokens.
func (n *Node) WithTokens(toks ...string) *Node {
	n.Toks = toks
	return n
}

// At sets the node location.
func (n *Node) At(file string, line int) *Node {
	n.Loc = rawnode.Location{File: file, Line: line, Column: 1}
	return n
}

func node(k rawnode.Kind, name string, children []*Node) *Node {
	n := &Node{K: k, Name: name}
	return n.Add(children...)
}

// TU builds a translation unit.
func TU(children ...*Node) *Node { return node(rawnode.KindTranslationUnit, "", children) }

func Namespace(name string, children ...*Node) *Node {
	return node(rawnode.KindNamespace, name, children)
}

// Class builds a class definition.
func Class(name string, members ...*Node) *Node { return node(rawnode.KindClass, name, members) }

// ClassDecl builds a forward class declaration.
func ClassDecl(name string) *Node {
	n := node(rawnode.KindClass, name, nil)
	n.DeclOnly = true
	return n
}

func Struct(name string, members ...*Node) *Node { return node(rawnode.KindStruct, name, members) }

func Union(name string, members ...*Node) *Node { return node(rawnode.KindUnion, name, members) }

func Enum(name string, values ...*Node) *Node { return node(rawnode.KindEnum, name, values) }

func Enumerator(name, value string) *Node {
	n := node(rawnode.KindEnumConstant, name, nil)
	n.Val = value
	return n
}

// Func builds a function definition.
func Func(name string, ret *Type, params ...*Node) *Node {
	n := node(rawnode.KindFunction, name, params)
	n.Typ = ret
	return n
}

// FuncDecl builds a function prototype.
func FuncDecl(name string, ret *Type, params ...*Node) *Node {
	n := Func(name, ret, params...)
	n.DeclOnly = true
	return n
}

// Method builds an in-class method definition.
func Method(name string, ret *Type, params ...*Node) *Node {
	n := node(rawnode.KindMethod, name, params)
	n.Typ = ret
	return n
}

// MethodDecl builds an in-class method declaration.
func MethodDecl(name string, ret *Type, params ...*Node) *Node {
	n := Method(name, ret, params...)
	n.DeclOnly = true
	return n
}

func Constructor(name string, params ...*Node) *Node {
	return node(rawnode.KindConstructor, name, params)
}

func Destructor(name string) *Node { return node(rawnode.KindDestructor, "~"+name, nil) }

func Param(name string, t *Type) *Node {
	n := node(rawnode.KindParameter, name, nil)
	n.Typ = t
	return n
}

func Field(name string, t *Type) *Node {
	n := node(rawnode.KindField, name, nil)
	n.Typ = t
	return n
}

func Variable(name string, t *Type) *Node {
	n := node(rawnode.KindVariable, name, nil)
	n.Typ = t
	return n
}

func Typedef(name string, t *Type) *Node {
	n := node(rawnode.KindTypedef, name, nil)
	n.Typ = t
	return n
}

func Alias(name string, t *Type) *Node {
	n := node(rawnode.KindTypeAlias, name, nil)
	n.Typ = t
	return n
}

// TypeParam builds a "typename name" template parameter.
func TypeParam(name string) *Node {
	n := node(rawnode.KindTemplateTypeParameter, name, nil)
	n.Toks = []string{"typename", name}
	return n
}

func ExternC(children ...*Node) *Node {
	n := node(rawnode.KindLinkageSpec, "", children)
	n.Val = `"C"`
	return n
}

// UsingNamespace builds a "using namespace a::b;" directive.
func UsingNamespace(path ...string) *Node {
	n := node(rawnode.KindUsingDirective, "", nil)
	n.Qual = path
	return n
}

// Type is a hand-built rawnode.Type.
type Type struct {
	K        rawnode.TypeKind
	Name     string
	Quals    []string
	Elem     *Type
	Size     string
	ConstQ   bool
	Volatile bool
	Restrict bool
	Decl     *Node
	TArgs    []rawnode.TemplateArgument
}

var _ rawnode.Type = (*Type)(nil)

func (t *Type) Kind() rawnode.TypeKind { return t.K }
func (t *Type) Spelling() string       { return t.Name }
func (t *Type) Qualifiers() []string   { return t.Quals }

func (t *Type) Element() rawnode.Type {
	if t.Elem == nil {
		return nil
	}
	return t.Elem
}

func (t *Type) ArraySize() string { return t.Size }
func (t *Type) IsConst() bool     { return t.ConstQ }
func (t *Type) IsVolatile() bool  { return t.Volatile }
func (t *Type) IsRestrict() bool  { return t.Restrict }

func (t *Type) Declaration() rawnode.Node {
	if t.Decl == nil {
		return nil
	}
	return t.Decl
}

func (t *Type) TemplateArguments() []rawnode.TemplateArgument { return t.TArgs }

// Const returns a const-qualified copy of t.
func (t *Type) Const() *Type {
	c := *t
	c.ConstQ = true
	return &c
}

// Args returns a copy of t with type template arguments.
func (t *Type) Args(args ...*Type) *Type {
	c := *t
	c.TArgs = make([]rawnode.TemplateArgument, len(args))
	for i, a := range args {
		c.TArgs[i] = rawnode.TemplateArgument{Type: a}
	}
	return &c
}

// DeclaredBy returns a copy of t resolved to the given declaration.
func (t *Type) DeclaredBy(n *Node) *Type {
	c := *t
	c.Decl = n
	return &c
}

func Builtin(name string) *Type { return &Type{K: rawnode.TypeBuiltin, Name: name} }

// Named builds a named type; qualifiers are the namespace path as written.
func Named(name string, quals ...string) *Type {
	return &Type{K: rawnode.TypeNamed, Name: name, Quals: quals}
}

func Generic(name string) *Type { return &Type{K: rawnode.TypeTemplateParameter, Name: name} }

func Ptr(elem *Type) *Type  { return &Type{K: rawnode.TypePointer, Elem: elem} }
func Ref(elem *Type) *Type  { return &Type{K: rawnode.TypeLValueReference, Elem: elem} }
func RRef(elem *Type) *Type { return &Type{K: rawnode.TypeRValueReference, Elem: elem} }

func Arr(size string, elem *Type) *Type {
	return &Type{K: rawnode.TypeArray, Size: size, Elem: elem}
}

// TypeArg wraps a type as a template argument.
func TypeArg(t *Type) rawnode.TemplateArgument { return rawnode.TemplateArgument{Type: t} }

// ExprArg wraps a non-type template argument.
func ExprArg(expr string) rawnode.TemplateArgument { return rawnode.TemplateArgument{Expr: expr} }
