// Package rawnode defines the read-only view of a C++ parse tree that the
// semantic layer consumes. A parser front end (tree-sitter in this module,
// libclang elsewhere) implements Node and Type; nothing in the semantic layer
// depends on how the tree was produced.
//
// Node values must be comparable and stable: the same declaration must be
// returned as the same Node value on every call, because the semantic layer
// indexes entities by node identity.
package rawnode

// Kind classifies a declaration node.
type Kind int

const (
	KindUnknown Kind = iota
	KindTranslationUnit
	KindNamespace
	KindClass
	KindStruct
	KindUnion
	KindEnum
	KindEnumConstant
	KindFunction
	KindMethod
	KindConstructor
	KindDestructor
	KindField
	KindVariable
	KindParameter
	KindTypedef
	KindTypeAlias
	KindTemplateTypeParameter
	KindTemplateNonTypeParameter
	KindLinkageSpec
	KindUsingDirective
)

var kindNames = map[Kind]string{
	KindUnknown:                  "unknown",
	KindTranslationUnit:          "translation_unit",
	KindNamespace:                "namespace",
	KindClass:                    "class",
	KindStruct:                   "struct",
	KindUnion:                    "union",
	KindEnum:                     "enum",
	KindEnumConstant:             "enum_constant",
	KindFunction:                 "function",
	KindMethod:                   "method",
	KindConstructor:              "constructor",
	KindDestructor:               "destructor",
	KindField:                    "field",
	KindVariable:                 "variable",
	KindParameter:                "parameter",
	KindTypedef:                  "typedef",
	KindTypeAlias:                "type_alias",
	KindTemplateTypeParameter:    "template_type_parameter",
	KindTemplateNonTypeParameter: "template_non_type_parameter",
	KindLinkageSpec:              "linkage_spec",
	KindUsingDirective:           "using_directive",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsRecord reports whether k declares a class-like type with members.
func (k Kind) IsRecord() bool {
	return k == KindClass || k == KindStruct || k == KindUnion
}

// Location is a 1-based source position.
type Location struct {
	File   string
	Line   int
	Column int
}

// Node is one declaration in the parse tree.
type Node interface {
	Kind() Kind
	// Spelling is the unqualified declared name; "" for anonymous entities.
	Spelling() string
	// Children returns the semantic children in source order: members of a
	// namespace or record, parameters of a function, template parameters of
	// a template, enumerators of an enum.
	Children() []Node
	// Parent returns the enclosing declaration, nil for the translation unit.
	Parent() Node
	Location() Location
	// IsDeclarationOnly is true for forward declarations and prototypes.
	IsDeclarationOnly() bool
	// Definition returns the defining node when the parser knows it, or nil.
	Definition() Node
	// Tokens returns the specifier keywords of the declaration, e.g.
	// ["static", "constexpr"]. For functions the specifiers before the name
	// are followed by a ")" marker and then the trailing ones, e.g.
	// ["virtual", ")", "const", "=", "0"].
	Tokens() []string
	// Type is the declared type of a field, variable, parameter, typedef or
	// alias, and the return type of a function. nil otherwise.
	Type() Type
	// IsTemplate is true when the declaration carries a template<...> head,
	// including an empty one for explicit specialisations.
	IsTemplate() bool
	// TemplateArguments are the explicit arguments written on the declared
	// name of a specialisation, e.g. <int> in "template<> void f<int>(int)".
	TemplateArguments() []TemplateArgument
	// Qualifier is the explicit qualification of the declared name, e.g.
	// ["a", "C"] for "void a::C::f() {}". Also the target path of a using
	// directive.
	Qualifier() []string
	// Value is the initializer text of an enumerator or the default of a
	// template parameter or function parameter; "" when absent.
	Value() string
}

// TypeKind classifies one layer of a written type.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeBuiltin
	TypeNamed
	TypeTemplateParameter
	TypePointer
	TypeLValueReference
	TypeRValueReference
	TypeArray
)

var typeKindNames = map[TypeKind]string{
	TypeInvalid:           "invalid",
	TypeBuiltin:           "builtin",
	TypeNamed:             "named",
	TypeTemplateParameter: "template_parameter",
	TypePointer:           "pointer",
	TypeLValueReference:   "lvalue_reference",
	TypeRValueReference:   "rvalue_reference",
	TypeArray:             "array",
}

func (k TypeKind) String() string {
	if s, ok := typeKindNames[k]; ok {
		return s
	}
	return "invalid"
}

// IsIndirection reports whether k wraps an element type.
func (k TypeKind) IsIndirection() bool {
	return k == TypePointer || k == TypeLValueReference || k == TypeRValueReference || k == TypeArray
}

// Type is one layer of a written type. Indirection layers (pointer,
// reference, array) expose their element through Element; the innermost
// layer is a builtin, named or template-parameter type.
type Type interface {
	Kind() TypeKind
	// Spelling is the unqualified name of the innermost layer without
	// template arguments, e.g. "vector" for "std::vector<int>".
	Spelling() string
	// Qualifiers is the namespace path as written, e.g. ["std"].
	Qualifiers() []string
	Element() Type
	// ArraySize is the size expression of an array layer; "" if unspecified.
	ArraySize() string
	IsConst() bool
	IsVolatile() bool
	IsRestrict() bool
	// Declaration is the declaring node when the parser resolved it, or nil.
	Declaration() Node
	TemplateArguments() []TemplateArgument
}

// TemplateArgument is one argument of a template-id: either a type or a
// non-type expression.
type TemplateArgument struct {
	Type Type
	Expr string
}

// Ancestors returns the chain of enclosing nodes from the outermost
// declaration below the translation unit down to n's direct parent.
func Ancestors(n Node) []Node {
	var chain []Node
	for p := n.Parent(); p != nil && p.Kind() != KindTranslationUnit; p = p.Parent() {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
