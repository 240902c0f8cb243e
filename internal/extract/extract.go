// Package extract populates a sema.Model from rawnode translation units.
//
// Each declaration is turned into an Entity and registered in the scope it
// belongs to. Problems local to one declaration (an unknown qualifier, a type
// the model cannot express) are logged and the declaration is skipped.
// Ambiguities, such as two definitions of one entity, stop extraction of the
// translation unit and are returned to the caller.
package extract

import (
	"log/slog"

	"github.com/jward/cppmodel/internal/rawnode"
	"github.com/jward/cppmodel/internal/sema"
	"github.com/jward/cppmodel/internal/typemod"
)

// TypeUse records one written type and the entity it was written on.
type TypeUse struct {
	Entity *sema.Entity
	// Role is "type", "return", "argument" or "template_value".
	Role  string
	Index int
	Type  *sema.TypeExpression
}

// Extractor feeds translation units into one model. It is not safe for
// concurrent use; the model itself is single-writer.
type Extractor struct {
	model  *sema.Model
	logger *slog.Logger
	file   string

	uses    []TypeUse
	skipped int
}

// New returns an Extractor writing into m. A nil logger discards output.
func New(m *sema.Model, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{model: m, logger: logger}
}

// Model returns the model being populated.
func (x *Extractor) Model() *sema.Model { return x.model }

// TypeUses returns every type expression created so far, in extraction order.
func (x *Extractor) TypeUses() []TypeUse { return x.uses }

// Skipped is the number of declarations dropped because of structural
// errors.
func (x *Extractor) Skipped() int { return x.skipped }

// File extracts one translation unit. The returned error is always an
// *sema.AmbiguityError; entities extracted before it stay in the model.
func (x *Extractor) File(tu rawnode.Node) error {
	x.file = tu.Location().File
	if x.file == "" {
		x.file = tu.Spelling()
	}
	return x.children(tu, x.model.Root(), nil)
}

func (x *Extractor) children(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	for _, c := range n.Children() {
		if err := x.declaration(c, scope, parent); err != nil {
			if !sema.IsStructural(err) {
				return err
			}
			x.skipped++
			loc := c.Location()
			x.logger.Warn("skipping declaration",
				"file", x.file, "node", c.Spelling(), "kind", c.Kind().String(),
				"line", loc.Line, "error", err)
		}
	}
	return nil
}

func (x *Extractor) declaration(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	switch k := n.Kind(); {
	case k == rawnode.KindNamespace:
		e := x.entity(sema.KindNamespace, n, parent)
		inner, err := x.model.Register(e, scope)
		if err != nil {
			return err
		}
		return x.children(n, inner, e)
	case k.IsRecord():
		return x.record(n, scope, parent)
	case k == rawnode.KindEnum:
		return x.enum(n, scope, parent)
	case k == rawnode.KindFunction, k == rawnode.KindMethod,
		k == rawnode.KindConstructor, k == rawnode.KindDestructor:
		return x.function(n, scope, parent)
	case k == rawnode.KindField, k == rawnode.KindVariable:
		return x.variable(n, scope, parent)
	case k == rawnode.KindTypedef, k == rawnode.KindTypeAlias:
		return x.alias(n, scope, parent)
	case k == rawnode.KindLinkageSpec:
		e := x.entity(sema.KindExternBlock, n, parent)
		e.Name = "extern " + n.Value()
		e.Value = n.Value()
		if _, err := x.model.Register(e, scope); err != nil {
			return err
		}
		return x.children(n, scope, e)
	case k == rawnode.KindUsingDirective:
		return x.model.AddUsingDirective(scope, n.Qualifier())
	}
	return nil
}

// entity allocates an entity for n without registering it.
func (x *Extractor) entity(kind sema.Kind, n rawnode.Node, parent *sema.Entity) *sema.Entity {
	e := x.model.NewEntity(kind, n.Spelling(), parent)
	e.Node = n
	e.Location = n.Location()
	e.IsDeclaration = n.IsDeclarationOnly()
	if e.Location.File == "" {
		e.Location.File = x.file
	}
	return e
}

func (x *Extractor) record(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	kind := sema.KindClass
	switch n.Kind() {
	case rawnode.KindStruct:
		kind = sema.KindStruct
	case rawnode.KindUnion:
		kind = sema.KindUnion
	}
	target, err := scope.Resolve(n.Qualifier())
	if err != nil {
		return err
	}
	e := x.entity(kind, n, parent)
	if err := x.template(n, target, e); err != nil {
		return err
	}
	if e.IsSpecialisation() {
		e.SetDeclaredNamespace(e.Name + e.Template.SpecialisationSuffix())
	}
	inner, err := x.model.Register(e, target)
	if err != nil {
		return err
	}
	return x.children(n, inner, e)
}

func (x *Extractor) enum(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	e := x.entity(sema.KindEnum, n, parent)
	inner, err := x.model.Register(e, scope)
	if err != nil {
		return err
	}
	for _, c := range n.Children() {
		if c.Kind() != rawnode.KindEnumConstant {
			continue
		}
		v := x.entity(sema.KindEnumValue, c, e)
		v.Value = c.Value()
		if _, err := x.model.Register(v, inner); err != nil {
			return err
		}
	}
	return nil
}

// owner finds the record an out-of-line member definition belongs to, e.g.
// C for "void a::C::f() {}". It returns nil when the qualifier names a
// namespace.
func (x *Extractor) owner(scope *sema.Lexicon, qual []string) *sema.Entity {
	if len(qual) == 0 {
		return nil
	}
	last := len(qual) - 1
	found, err := scope.FindContent(qual[last], qual[:last])
	if err != nil {
		return nil
	}
	for _, e := range found {
		if e.Kind.IsRecord() && e.Scope() != nil {
			return e
		}
	}
	return nil
}

func (x *Extractor) function(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	kind := sema.KindFunction
	switch n.Kind() {
	case rawnode.KindMethod:
		kind = sema.KindMethod
	case rawnode.KindConstructor:
		kind = sema.KindConstructor
	case rawnode.KindDestructor:
		kind = sema.KindDestructor
	}

	target := scope
	if qual := n.Qualifier(); len(qual) > 0 {
		if rec := x.owner(scope, qual); rec != nil {
			target = rec.Scope()
			parent = rec
			if kind == sema.KindFunction {
				kind = sema.KindMethod
			}
		} else {
			t, err := scope.Resolve(qual)
			if err != nil {
				return err
			}
			target = t
		}
	}

	e := x.entity(kind, n, parent)
	if err := x.template(n, target, e); err != nil {
		return err
	}
	e.FunctionModification = functionModification(n.Tokens())

	var uses []TypeUse
	if raw := n.Type(); raw != nil {
		t, err := sema.TypeFromRaw(target, e, raw)
		if err != nil {
			return err
		}
		e.ReturnType = t
		uses = append(uses, TypeUse{Entity: e, Role: "return", Type: t})
	}
	for _, c := range n.Children() {
		if c.Kind() != rawnode.KindParameter {
			continue
		}
		t, err := sema.TypeFromRaw(target, e, c.Type())
		if err != nil {
			return err
		}
		uses = append(uses, TypeUse{Entity: e, Role: "argument", Index: len(e.Arguments), Type: t})
		e.Arguments = append(e.Arguments, sema.Argument{Name: c.Spelling(), Type: t, Default: c.Value()})
	}

	if _, err := x.model.Register(e, target); err != nil {
		return err
	}
	x.uses = append(x.uses, uses...)
	return nil
}

// functionModification reads the specifier tokens of a function. Tokens
// after the ")" marker are trailing specifiers, where "const" qualifies the
// implicit object and "= 0" marks a pure virtual.
func functionModification(toks []string) typemod.FunctionModification {
	var flags []typemod.FunctionFlag
	trailing := false
	for i, tok := range toks {
		switch {
		case tok == ")":
			trailing = true
		case trailing && tok == "const":
			flags = append(flags, typemod.FnConst)
		case tok == "0" && i > 0 && toks[i-1] == "=":
			flags = append(flags, typemod.FnPureVirtual, typemod.FnVirtual)
		default:
			if f, ok := typemod.FunctionFlagForToken(tok); ok {
				flags = append(flags, f)
			}
		}
	}
	return typemod.NewFunctionModification(flags...)
}

func (x *Extractor) variable(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	kind := sema.KindGlobalVariable
	if n.Kind() == rawnode.KindField || (parent != nil && parent.Kind.IsRecord()) {
		kind = sema.KindField
	}
	target, err := scope.Resolve(n.Qualifier())
	if err != nil {
		return err
	}
	e := x.entity(kind, n, parent)
	if err := x.template(n, target, e); err != nil {
		return err
	}
	t, err := sema.TypeFromRaw(target, e, n.Type())
	if err != nil {
		return err
	}
	for _, tok := range n.Tokens() {
		if f, ok := typemod.ParseFlag(tok); ok && !typemod.FromFlags(f).HasIndirection() {
			t.AddModification(typemod.FromFlags(f))
		}
	}
	e.Type = t
	if _, err := x.model.Register(e, target); err != nil {
		return err
	}
	x.uses = append(x.uses, TypeUse{Entity: e, Role: "type", Type: t})
	return nil
}

func (x *Extractor) alias(n rawnode.Node, scope *sema.Lexicon, parent *sema.Entity) error {
	kind := sema.KindTypedef
	if n.Kind() == rawnode.KindTypeAlias {
		kind = sema.KindTypeAlias
	}
	e := x.entity(kind, n, parent)
	if err := x.template(n, scope, e); err != nil {
		return err
	}
	t, err := sema.TypeFromRaw(scope, e, n.Type())
	if err != nil {
		return err
	}
	e.Type = t
	if _, err := x.model.Register(e, scope); err != nil {
		return err
	}
	x.uses = append(x.uses, TypeUse{Entity: e, Role: "type", Type: t})
	return nil
}
