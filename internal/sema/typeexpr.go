package sema

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jward/cppmodel/internal/rawnode"
	"github.com/jward/cppmodel/internal/typemod"
)

// TypeTarget is what a TypeExpression resolves to: exactly one of
// *BasicType, GenericParameter, EntityTarget or ExternalStub.
type TypeTarget interface {
	isTypeTarget()
	String() string
}

// BasicType is the shared target of every builtin type. The expression's
// name tells "int" from "float".
type BasicType struct{}

// Basic is the single BasicType value.
var Basic = &BasicType{}

// GenericParameter is a use of a template type parameter.
type GenericParameter struct{ Name string }

// EntityTarget is a use of a type declared in the model.
type EntityTarget struct{ Entity *Entity }

// ExternalStub is a type declared outside the analysed sources, named as
// written.
type ExternalStub struct{ Name string }

func (*BasicType) isTypeTarget()       {}
func (GenericParameter) isTypeTarget() {}
func (EntityTarget) isTypeTarget()     {}
func (ExternalStub) isTypeTarget()     {}

func (*BasicType) String() string         { return "basic" }
func (g GenericParameter) String() string { return "generic " + g.Name }
func (t EntityTarget) String() string     { return "entity " + t.Entity.QualifiedName() }
func (s ExternalStub) String() string     { return "external " + s.Name }

// TypeExpression is one use of a type: modifiers, the written name and
// namespace path, template arguments, and a lazily resolved target.
//
// Setters must be called before Details; the first resolution is cached.
type TypeExpression struct {
	model *Model
	scope ScopeID
	owner EntityID
	raw   rawnode.Type

	modification typemod.Modification
	name         string
	namespaces   []string
	templateArgs []*TypeExpression
	value        bool

	explicit TypeTarget
	details  func() (TypeTarget, error)
}

// NewTypeExpression builds an expression for name as written in scope.
func NewTypeExpression(scope *Lexicon, name string) *TypeExpression {
	t := &TypeExpression{
		model: scope.model,
		scope: scope.id,
		name:  normalizeSpace(name),
	}
	t.details = sync.OnceValues(t.resolve)
	return t
}

// NewValueArgument builds a non-type template argument such as "3" or "N".
// It resolves to an ExternalStub carrying the expression text.
func NewValueArgument(scope *Lexicon, expr string) *TypeExpression {
	t := NewTypeExpression(scope, expr)
	t.value = true
	t.explicit = ExternalStub{Name: t.name}
	return t
}

func (t *TypeExpression) SetModification(m typemod.Modification) *TypeExpression {
	t.modification = m
	return t
}

// AddModification ORs m into the current modification.
func (t *TypeExpression) AddModification(m typemod.Modification) *TypeExpression {
	t.modification = t.modification.Or(m)
	return t
}

func (t *TypeExpression) SetNamespaces(ns ...string) *TypeExpression {
	t.namespaces = slices.Clone(ns)
	return t
}

func (t *TypeExpression) SetTemplateArguments(args ...*TypeExpression) *TypeExpression {
	t.templateArgs = args
	if t.templateArgs == nil {
		t.templateArgs = []*TypeExpression{}
	}
	return t
}

// SetDetails fixes the target, bypassing lookup.
func (t *TypeExpression) SetDetails(target TypeTarget) *TypeExpression {
	t.explicit = target
	return t
}

// SetOwner sets the entity whose template parameters are in scope.
func (t *TypeExpression) SetOwner(e *Entity) *TypeExpression {
	if e != nil {
		t.owner = e.id
	}
	return t
}

func (t *TypeExpression) Modification() typemod.Modification { return t.modification }
func (t *TypeExpression) Name() string                       { return t.name }
func (t *TypeExpression) Namespaces() []string               { return slices.Clone(t.namespaces) }
func (t *TypeExpression) Lexicon() *Lexicon                  { return t.model.Scope(t.scope) }
func (t *TypeExpression) IsValue() bool                      { return t.value }

// TemplateArguments returns the template arguments and whether a template
// argument list was written at all.
func (t *TypeExpression) TemplateArguments() ([]*TypeExpression, bool) {
	return t.templateArgs, t.templateArgs != nil
}

// QualifiedName is the namespace path and name as written.
func (t *TypeExpression) QualifiedName() string {
	if len(t.namespaces) == 0 {
		return t.name
	}
	return strings.Join(t.namespaces, "::") + "::" + t.name
}

// Details resolves the expression. The first result, target or error, is
// cached.
func (t *TypeExpression) Details() (TypeTarget, error) { return t.details() }

// Spelling renders the expression in a stable written form, e.g.
// "const a::C<int>*".
func (t *TypeExpression) Spelling() string {
	var b strings.Builder
	m := t.modification
	for _, f := range []typemod.Flag{typemod.FlagConst, typemod.FlagVolatile} {
		if m.Has(f) {
			b.WriteString(f.String())
			b.WriteByte(' ')
		}
	}
	b.WriteString(t.QualifiedName())
	if t.templateArgs != nil {
		b.WriteByte('<')
		for i, a := range t.templateArgs {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.Spelling())
		}
		b.WriteByte('>')
	}
	if m.IsPointer() {
		order, _ := m.PointerOrder()
		b.WriteString(strings.Repeat("*", max(int(order), 1)))
	}
	if m.Has(typemod.FlagRestrict) {
		b.WriteString(" restrict")
	}
	if dims, ok := m.ArrayOrder(); ok {
		for _, d := range dims {
			b.WriteString("[" + d + "]")
		}
	} else if m.IsArray() {
		b.WriteString("[]")
	}
	if m.IsReference() {
		b.WriteByte('&')
	}
	if m.IsRValueReference() {
		b.WriteString("&&")
	}
	return b.String()
}

func (t *TypeExpression) String() string { return t.Spelling() }

func (t *TypeExpression) resolve() (TypeTarget, error) {
	if t.explicit != nil {
		return t.explicit, nil
	}
	if t.raw != nil {
		switch t.raw.Kind() {
		case rawnode.TypeTemplateParameter:
			return GenericParameter{Name: t.name}, nil
		case rawnode.TypeBuiltin:
			return Basic, nil
		}
	}
	if len(t.namespaces) == 0 {
		if t.model.IsBasicType(t.name) {
			return Basic, nil
		}
		if owner := t.model.Entity(t.owner); owner != nil && owner.hasTemplateParameter(t.name) {
			return GenericParameter{Name: t.name}, nil
		}
	}
	if t.raw != nil {
		if e := t.model.EntityForNode(t.raw.Declaration()); e != nil && e.Kind.IsType() {
			return EntityTarget{Entity: e}, nil
		}
	}
	e, err := t.Lexicon().findType(t.name, t.namespaces)
	if err != nil {
		if IsStructural(err) {
			return ExternalStub{Name: t.QualifiedName()}, nil
		}
		return nil, err
	}
	if e == nil {
		return ExternalStub{Name: t.QualifiedName()}, nil
	}
	return EntityTarget{Entity: e.Canonical()}, nil
}

// TypeFromRaw converts a written type. Array layers are stripped first, then
// one run of pointers or a single reference; whatever remains must be a
// builtin, named or template-parameter type. Qualifiers on the outermost
// pointer and on the residual type both become Const, Volatile or Restrict.
// A second indirection kind, or qualifiers on an inner pointer level, is an
// *AmbiguityError wrapping typemod.ErrMixedIndirection.
func TypeFromRaw(scope *Lexicon, owner *Entity, raw rawnode.Type) (*TypeExpression, error) {
	if raw == nil {
		return nil, &StructuralError{Op: "type from raw", Err: ErrUnexpectedShape}
	}
	mixed := func(cur rawnode.Type) error {
		return &AmbiguityError{
			Op:   "type from raw",
			Name: cur.Spelling(),
			Err:  fmt.Errorf("%s inside %s: %w", cur.Kind(), raw.Kind(), typemod.ErrMixedIndirection),
		}
	}

	mod := typemod.None
	cur := raw

	var dims []string
	for cur != nil && cur.Kind() == rawnode.TypeArray {
		dims = append(dims, cur.ArraySize())
		cur = cur.Element()
	}
	if dims != nil {
		mod = mod.Or(typemod.Array(dims...))
	}
	if cur == nil {
		return nil, &StructuralError{Op: "type from raw", Err: ErrUnexpectedShape}
	}

	switch cur.Kind() {
	case rawnode.TypePointer:
		mod = mod.Or(qualifiers(cur))
		var depth uint32
		for cur != nil && cur.Kind() == rawnode.TypePointer {
			if depth > 0 && !qualifiers(cur).IsEmpty() {
				return nil, mixed(cur)
			}
			depth++
			cur = cur.Element()
		}
		mod = mod.Or(typemod.Pointer(depth))
	case rawnode.TypeLValueReference:
		mod = mod.Or(typemod.Reference)
		cur = cur.Element()
	case rawnode.TypeRValueReference:
		mod = mod.Or(typemod.RValueReference)
		cur = cur.Element()
	}
	if cur == nil {
		return nil, &StructuralError{Op: "type from raw", Err: ErrUnexpectedShape}
	}
	if cur.Kind().IsIndirection() {
		return nil, mixed(cur)
	}
	if cur.Kind() == rawnode.TypeInvalid {
		return nil, &StructuralError{Op: "type from raw", Name: cur.Spelling(), Err: ErrUnexpectedShape}
	}
	mod = mod.Or(qualifiers(cur))

	t := NewTypeExpression(scope, cur.Spelling()).
		SetModification(mod).
		SetNamespaces(cur.Qualifiers()...).
		SetOwner(owner)
	t.raw = cur
	if rargs := cur.TemplateArguments(); rargs != nil {
		args := make([]*TypeExpression, 0, len(rargs))
		for _, ra := range rargs {
			if ra.Type == nil {
				args = append(args, NewValueArgument(scope, ra.Expr))
				continue
			}
			a, err := TypeFromRaw(scope, owner, ra.Type)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		t.SetTemplateArguments(args...)
	}
	return t, nil
}

func qualifiers(t rawnode.Type) typemod.Modification {
	m := typemod.None
	if t.IsConst() {
		m = m.Or(typemod.Const)
	}
	if t.IsVolatile() {
		m = m.Or(typemod.Volatile)
	}
	if t.IsRestrict() {
		m = m.Or(typemod.Restrict)
	}
	return m
}

// TypesEqual compares modification, resolved target and template arguments.
// Basic types, generic parameters and external stubs also compare by name;
// entity targets by canonical entity.
func TypesEqual(a, b *TypeExpression) (bool, error) {
	if !a.modification.Equal(b.modification) {
		return false, nil
	}
	return sameDetails(a, b)
}

// sameDetails is TypesEqual without the modification comparison.
func sameDetails(a, b *TypeExpression) (bool, error) {
	da, err := a.Details()
	if err != nil {
		return false, err
	}
	db, err := b.Details()
	if err != nil {
		return false, err
	}
	if !targetsEqual(da, db, a.name, b.name) {
		return false, nil
	}
	if len(a.templateArgs) != len(b.templateArgs) {
		return false, nil
	}
	for i := range a.templateArgs {
		eq, err := TypesEqual(a.templateArgs[i], b.templateArgs[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func targetsEqual(a, b TypeTarget, aname, bname string) bool {
	switch x := a.(type) {
	case *BasicType:
		_, ok := b.(*BasicType)
		return ok && aname == bname
	case GenericParameter:
		y, ok := b.(GenericParameter)
		return ok && x.Name == y.Name
	case EntityTarget:
		y, ok := b.(EntityTarget)
		return ok && x.Entity.Canonical() == y.Entity.Canonical()
	case ExternalStub:
		y, ok := b.(ExternalStub)
		return ok && x.Name == y.Name
	}
	return false
}
