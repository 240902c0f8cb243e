package sema

import (
	"slices"
	"strings"
	"sync"

	"github.com/jward/cppmodel/internal/rawnode"
	"github.com/jward/cppmodel/internal/typemod"
)

// Argument is one function parameter.
type Argument struct {
	Name    string
	Type    *TypeExpression
	Default string
}

// Entity is one declared program element.
type Entity struct {
	id    EntityID
	model *Model

	Kind          Kind
	Name          string
	IsDeclaration bool
	Node          rawnode.Node
	Location      rawnode.Location

	// Type is the declared type of a field, variable, typedef or alias.
	Type *TypeExpression
	// ReturnType is set for functions.
	ReturnType *TypeExpression
	Arguments  []Argument
	// FunctionModification holds virtual/const/noexcept and friends.
	FunctionModification typemod.FunctionModification
	// Value is the initializer of an enum value.
	Value string
	// Template is non-nil for templates and their specialisations.
	Template *TemplateInfo

	declaredNamespace string
	introduces        bool
	registered        bool
	parent            EntityID
	canonical         EntityID
	children          []EntityID
	scope             ScopeID
	inner             ScopeID

	overloads       func() ([]*Entity, error)
	specialisations func() ([]*Entity, error)
}

func (e *Entity) initMemo() {
	e.overloads = sync.OnceValues(e.overloadFamily)
	e.specialisations = sync.OnceValues(e.specialisationsOf)
}

func (e *Entity) ID() EntityID { return e.id }

func (e *Entity) Model() *Model { return e.model }

// Canonical returns the entity e was merged into, or e itself.
func (e *Entity) Canonical() *Entity {
	c := e
	for c.canonical != 0 {
		c = c.model.entities[c.canonical]
	}
	return c
}

// IsCanonical reports whether e is the live representative of its identity.
func (e *Entity) IsCanonical() bool { return e.canonical == 0 }

// IsRegistered reports whether e has been registered in a scope.
func (e *Entity) IsRegistered() bool { return e.registered }

// Parent returns the structural parent, nil at the top level.
func (e *Entity) Parent() *Entity {
	p := e.model.Entity(e.parent)
	if p == nil {
		return nil
	}
	return p.Canonical()
}

// Lexicon returns the scope e is registered in, nil before registration.
func (e *Entity) Lexicon() *Lexicon { return e.model.Scope(e.scope) }

// Scope returns the scope e introduces, nil if it introduces none.
func (e *Entity) Scope() *Lexicon { return e.model.Scope(e.inner) }

// DeclaredNamespace is the name of the scope e introduces; "" if none.
func (e *Entity) DeclaredNamespace() string { return e.declaredNamespace }

// Namespace is the "::"-joined path of the scope e is registered in.
func (e *Entity) Namespace() string {
	if l := e.Lexicon(); l != nil {
		return l.Path()
	}
	return ""
}

// NamespacesChain is the scope path e is registered in, outermost first.
func (e *Entity) NamespacesChain() []string {
	if l := e.Lexicon(); l != nil {
		return l.NamespacesChain()
	}
	return nil
}

// QualifiedName joins the namespace chain and the name. in overrides the
// scope used when e is not yet registered.
func (e *Entity) QualifiedName(in ...*Lexicon) string {
	l := e.Lexicon()
	if l == nil && len(in) > 0 {
		l = in[0]
	}
	if l == nil || l.id == RootScope {
		return e.Name
	}
	return l.Path() + "::" + e.Name
}

// Children returns the structural children with merged declarations mapped
// to their canonical entity, in first-seen order.
func (e *Entity) Children() []*Entity {
	seen := make(map[EntityID]bool, len(e.children))
	var out []*Entity
	for _, id := range e.children {
		c := e.model.entities[id].Canonical()
		if seen[c.id] {
			continue
		}
		seen[c.id] = true
		out = append(out, c)
	}
	return out
}

func (e *Entity) childrenOf(match func(Kind) bool) []*Entity {
	var out []*Entity
	for _, c := range e.Children() {
		if match(c.Kind) {
			out = append(out, c)
		}
	}
	return out
}

// Fields returns the data members of a record.
func (e *Entity) Fields() []*Entity {
	return e.childrenOf(func(k Kind) bool { return k == KindField })
}

// Methods returns the member functions, constructors and destructors.
func (e *Entity) Methods() []*Entity {
	return e.childrenOf(Kind.IsFunction)
}

// EnumValues returns the enumerators of an enum.
func (e *Entity) EnumValues() []*Entity {
	return e.childrenOf(func(k Kind) bool { return k == KindEnumValue })
}

// TemplateParameters returns the template parameter entities.
func (e *Entity) TemplateParameters() []*Entity {
	return e.childrenOf(func(k Kind) bool { return k == KindTemplateParameter })
}

// IsTemplate reports whether e is a primary template.
func (e *Entity) IsTemplate() bool {
	return e.Template != nil && !e.Template.IsSpecialisation()
}

// IsSpecialisation reports whether e is a template specialisation.
func (e *Entity) IsSpecialisation() bool { return e.Template.IsSpecialisation() }

// Overloads returns the overload family of a function: same name, same
// namespace chain, one representative per distinct signature with
// definitions preferred. Specialisations are excluded. The result is
// computed once.
func (e *Entity) Overloads() ([]*Entity, error) { return e.overloads() }

// Specialisations returns the specialisations of a primary template that are
// compatible with it. The result is computed once.
func (e *Entity) Specialisations() ([]*Entity, error) { return e.specialisations() }

// signature is the syntactic identity used to merge function redeclarations
// before any type is resolved.
func (e *Entity) signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, a := range e.Arguments {
		if i > 0 {
			b.WriteByte(',')
		}
		if a.Type != nil {
			b.WriteString(a.Type.Spelling())
		}
	}
	b.WriteByte(')')
	if e.FunctionModification.Has(typemod.FnConst) {
		b.WriteString(" const")
	}
	return b.String()
}

// sameIdentity reports whether a and b declare the same mergeable thing.
func sameIdentity(a, b *Entity) bool {
	if a.Name != b.Name || a.Kind.family() != b.Kind.family() {
		return false
	}
	if a.Name == "" {
		// Anonymous records and enums never redeclare one another.
		return false
	}
	if a.Template != nil || b.Template != nil {
		return false
	}
	if a.Kind.IsFunction() {
		return a.signature() == b.signature()
	}
	return true
}

func (e *Entity) templateOwners() []*Entity {
	var out []*Entity
	for c := e; c != nil; c = c.Parent() {
		if c.Template != nil {
			out = append(out, c)
		}
	}
	return out
}

// hasTemplateParameter reports whether name is a template parameter of e
// or of an enclosing template.
func (e *Entity) hasTemplateParameter(name string) bool {
	return slices.ContainsFunc(e.templateOwners(), func(o *Entity) bool {
		return o.Template.ParameterIndex(name) >= 0
	})
}
