package cppparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cppmodel/internal/rawnode"
)

// baseType reads the "type" field of a declaration-like node together with
// the cv-qualifiers written beside it. It returns nil when n has no type,
// as for constructors.
func (b *builder) baseType(n *sitter.Node) *Type {
	tn := n.ChildByFieldName("type")
	if tn == nil {
		return nil
	}
	t := b.typeSpecifier(tn)
	for _, c := range allChildren(n) {
		if c.Type() == "type_qualifier" {
			t.qualify(b.text(c))
		}
	}
	return t
}

func (b *builder) typeSpecifier(tn *sitter.Node) *Type {
	switch tn.Type() {
	case "primitive_type", "sized_type_specifier":
		return &Type{kind: rawnode.TypeBuiltin, name: b.text(tn)}
	case "auto", "placeholder_type_specifier":
		return &Type{kind: rawnode.TypeBuiltin, name: "auto"}
	case "type_identifier":
		name := b.text(tn)
		if b.isGeneric(name) {
			return &Type{kind: rawnode.TypeTemplateParameter, name: name}
		}
		return &Type{kind: rawnode.TypeNamed, name: name}
	case "qualified_identifier":
		path, last := b.qualified(tn)
		if last == nil {
			return &Type{kind: rawnode.TypeNamed, name: b.text(tn)}
		}
		t := b.typeSpecifier(last)
		if t.kind == rawnode.TypeTemplateParameter {
			// T::value_type names a member of the parameter, not the parameter.
			t.kind = rawnode.TypeNamed
		}
		t.quals = path
		return t
	case "template_type":
		t := &Type{kind: rawnode.TypeNamed}
		if name := tn.ChildByFieldName("name"); name != nil {
			t.name = b.text(name)
		}
		t.targs = b.templateArguments(tn.ChildByFieldName("arguments"))
		return t
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		name := tn.ChildByFieldName("name")
		if name == nil {
			return &Type{kind: rawnode.TypeNamed}
		}
		return b.typeSpecifier(name)
	case "dependent_type":
		if tn.NamedChildCount() > 0 {
			return b.typeSpecifier(tn.NamedChild(0))
		}
	}
	return &Type{kind: rawnode.TypeNamed, name: b.text(tn)}
}

// declarator applies the layers of declarator d to base and returns the
// resulting type with the innermost name node. For a function declarator
// the returned node is the function_declarator and the type is the return
// type. base may be nil when only the name is wanted.
func (b *builder) declarator(d *sitter.Node, base *Type) (*Type, *sitter.Node) {
	t := base
	invalid := false
	wrap := func(layer *Type) {
		if t == nil || invalid {
			return
		}
		layer.elem = t
		t = layer
	}
	for d != nil {
		switch d.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			layer := &Type{kind: rawnode.TypePointer}
			for _, c := range allChildren(d) {
				if c.Type() == "type_qualifier" {
					layer.qualify(b.text(c))
				}
			}
			wrap(layer)
			d = d.ChildByFieldName("declarator")
		case "reference_declarator", "abstract_reference_declarator":
			kind := rawnode.TypeLValueReference
			if d.ChildCount() > 0 && d.Child(0).Type() == "&&" {
				kind = rawnode.TypeRValueReference
			}
			wrap(&Type{kind: kind})
			named := namedChildren(d)
			if len(named) == 0 {
				d = nil
			} else {
				d = named[len(named)-1]
			}
		case "array_declarator", "abstract_array_declarator":
			layer := &Type{kind: rawnode.TypeArray}
			if size := d.ChildByFieldName("size"); size != nil {
				layer.size = b.text(size)
			}
			wrap(layer)
			d = d.ChildByFieldName("declarator")
		case "init_declarator":
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
			if d.NamedChildCount() == 0 {
				d = nil
			} else {
				d = d.NamedChild(0)
			}
		case "function_declarator", "abstract_function_declarator":
			inner := d.ChildByFieldName("declarator")
			if !invalid && inner != nil && isName(inner) {
				return t, d
			}
			// Pointer to function: the declared type is not modelled.
			if t != nil && !invalid {
				t = &Type{kind: rawnode.TypeInvalid, name: b.text(d)}
				invalid = true
			}
			d = inner
		default:
			return t, d
		}
	}
	return t, nil
}

// descriptor reads a type_descriptor such as "const int*" in a template
// argument or alias declaration.
func (b *builder) descriptor(td *sitter.Node) *Type {
	base := b.baseType(td)
	if base == nil {
		return &Type{kind: rawnode.TypeInvalid, name: b.text(td)}
	}
	t, _ := b.declarator(td.ChildByFieldName("declarator"), base)
	return t
}

// templateArguments reads a template_argument_list. A written but empty
// list yields an empty, non-nil slice.
func (b *builder) templateArguments(list *sitter.Node) []rawnode.TemplateArgument {
	if list == nil {
		return nil
	}
	args := []rawnode.TemplateArgument{}
	for _, a := range namedChildren(list) {
		switch a.Type() {
		case "type_descriptor":
			args = append(args, rawnode.TemplateArgument{Type: b.descriptor(a)})
		case "comment":
		default:
			args = append(args, rawnode.TemplateArgument{Expr: strings.ReplaceAll(b.text(a), " ", "")})
		}
	}
	return args
}
