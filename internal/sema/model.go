// Package sema is the semantic model of a C++ program: an arena of entities,
// a tree of lexical scopes that answers name lookups, type expressions that
// resolve lazily against those scopes, and the template-specialisation and
// overload-family queries built on top.
//
// Entities and scopes refer to each other through integer handles into the
// Model arena. A Model is built single-threaded; once registration is done,
// lookups and the memoized queries are safe for concurrent use.
package sema

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jward/cppmodel/internal/rawnode"
)

// EntityID is a handle to an Entity in a Model. Zero is no entity.
type EntityID int32

// ScopeID is a handle to a Lexicon in a Model.
type ScopeID int32

const (
	// RootScope is the global namespace.
	RootScope ScopeID = 0
	noScope   ScopeID = -1
)

// DefaultBasicTypes are the names that resolve to the basic-type target.
var DefaultBasicTypes = []string{
	"void", "bool", "char", "wchar_t", "char8_t", "char16_t", "char32_t",
	"short", "int", "long", "float", "double", "auto", "nullptr_t",
	"signed", "unsigned",
	"short int", "long int", "long long", "long long int", "long double",
	"signed char", "unsigned char", "signed int", "unsigned int",
	"unsigned short", "unsigned short int", "unsigned long", "unsigned long int",
	"unsigned long long", "unsigned long long int",
	"int8_t", "int16_t", "int32_t", "int64_t",
	"uint8_t", "uint16_t", "uint32_t", "uint64_t",
	"size_t", "ssize_t", "ptrdiff_t", "intptr_t", "uintptr_t",
}

// Model owns every Entity and Lexicon of one analysed program.
type Model struct {
	entities []*Entity
	scopes   []*Lexicon
	byNode   map[rawnode.Node]EntityID
	basic    map[string]bool
	logger   *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithBasicTypes replaces the set of basic type names.
func WithBasicTypes(names ...string) Option {
	return func(m *Model) {
		m.basic = make(map[string]bool, len(names))
		for _, n := range names {
			m.basic[normalizeSpace(n)] = true
		}
	}
}

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// NewModel returns a Model holding only the global namespace.
func NewModel(opts ...Option) *Model {
	m := &Model{
		entities: []*Entity{nil},
		byNode:   make(map[rawnode.Node]EntityID),
		logger:   slog.New(slog.DiscardHandler),
	}
	WithBasicTypes(DefaultBasicTypes...)(m)
	for _, o := range opts {
		o(m)
	}
	m.scopes = []*Lexicon{newLexicon(m, RootScope, "", false, noScope)}
	return m
}

// Root returns the global namespace scope.
func (m *Model) Root() *Lexicon { return m.scopes[RootScope] }

// Entity returns the entity with the given handle, or nil.
func (m *Model) Entity(id EntityID) *Entity {
	if id <= 0 || int(id) >= len(m.entities) {
		return nil
	}
	return m.entities[id]
}

// Scope returns the scope with the given handle, or nil.
func (m *Model) Scope(id ScopeID) *Lexicon {
	if id < 0 || int(id) >= len(m.scopes) {
		return nil
	}
	return m.scopes[id]
}

// Entities returns the registered canonical entities in creation order.
// Declarations merged into another entity are omitted.
func (m *Model) Entities() []*Entity {
	var out []*Entity
	for _, e := range m.entities[1:] {
		if e.registered && e.canonical == 0 {
			out = append(out, e)
		}
	}
	return out
}

// Scopes returns every scope, the global namespace first.
func (m *Model) Scopes() []*Lexicon { return slices.Clone(m.scopes) }

// IsBasicType reports whether name is one of the configured basic types.
func (m *Model) IsBasicType(name string) bool { return m.basic[normalizeSpace(name)] }

// NewEntity allocates an entity. parent is its structural parent (nil at the
// top level); the new entity is appended to the parent's children. The entity
// is not visible to lookups until it is registered.
func (m *Model) NewEntity(kind Kind, name string, parent *Entity) *Entity {
	e := &Entity{
		id:    EntityID(len(m.entities)),
		model: m,
		Kind:  kind,
		Name:  name,
		scope: noScope,
		inner: noScope,
	}
	if kind.introducesScope() && (name != "" || kind == KindNamespace) {
		e.declaredNamespace = name
		e.introduces = true
	}
	if parent != nil {
		e.parent = parent.id
		parent.children = append(parent.children, e.id)
	}
	e.initMemo()
	m.entities = append(m.entities, e)
	return e
}

// SetDeclaredNamespace overrides the name of the scope e introduces.
// Specialisations of class templates use it to keep their members apart from
// the primary template's.
func (e *Entity) SetDeclaredNamespace(ns string) {
	e.declaredNamespace = ns
}

// Register makes e visible in parent and returns the scope its members belong
// in: the child scope e introduces, or parent itself.
//
// Redeclarations of a mergeable entity are reconciled: the definition takes
// the declaration's place, a second declaration is folded into the first,
// and a second definition is an *AmbiguityError. Namespaces reopen silently.
func (m *Model) Register(e *Entity, parent *Lexicon) (*Lexicon, error) {
	if e.registered {
		return nil, &StructuralError{Op: "register", Name: e.Name, Err: ErrAlreadyRegistered}
	}

	var existing *Entity
	idx := -1
	if e.Kind.mergeable() && e.Template == nil {
		idx, existing = parent.mergeCandidate(e)
	}
	if existing != nil && !existing.IsDeclaration && !e.IsDeclaration && !sameAlias(existing, e) {
		return nil, &AmbiguityError{Op: "register", Name: e.QualifiedName(parent), Err: ErrDuplicateDefinition}
	}

	e.registered = true
	e.scope = parent.id
	if e.Node != nil {
		m.byNode[e.Node] = e.id
	}

	scope := parent
	if e.introduces {
		scope = parent.child(e.declaredNamespace, e.Kind == KindNamespace && e.Name != "")
		e.inner = scope.id
		if e.Kind == KindNamespace && e.Name == "" {
			parent.addUsing(scope.id)
		}
	}

	switch {
	case existing == nil:
		parent.sources = append(parent.sources, e.id)
	case existing.IsDeclaration && !e.IsDeclaration:
		parent.sources[idx] = e.id
		existing.canonical = e.id
		m.logger.Debug("definition replaces declaration",
			"name", e.Name, "kind", e.Kind.String(), "scope", parent.Path())
	default:
		e.canonical = existing.id
		m.logger.Debug("redeclaration merged",
			"name", e.Name, "kind", e.Kind.String(), "scope", parent.Path())
	}
	return scope, nil
}

// AddUsingDirective records "using namespace path;" in scope. The target is
// resolved immediately; an unknown target is a *StructuralError.
func (m *Model) AddUsingDirective(scope *Lexicon, path []string) error {
	if len(path) == 0 {
		return &StructuralError{Op: "using namespace", Name: "", Err: ErrUnexpectedShape}
	}
	target := scope.FindNode(path[0])
	for _, seg := range path[1:] {
		if target == nil {
			break
		}
		target = target.member(seg)
	}
	if target == nil {
		return &StructuralError{Op: "using namespace", Name: strings.Join(path, "::"), Err: ErrUnknownNamespace}
	}
	scope.addUsing(target.id)
	return nil
}

// EntityForNode returns the canonical entity registered for n, or nil.
func (m *Model) EntityForNode(n rawnode.Node) *Entity {
	if n == nil {
		return nil
	}
	id, ok := m.byNode[n]
	if !ok {
		return nil
	}
	return m.entities[id].Canonical()
}

func sameAlias(a, b *Entity) bool {
	if !a.Kind.IsAlias() || !b.Kind.IsAlias() || a.Type == nil || b.Type == nil {
		return false
	}
	return a.Type.Spelling() == b.Type.Spelling()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (m *Model) String() string {
	return fmt.Sprintf("sema.Model{entities: %d, scopes: %d}", len(m.entities)-1, len(m.scopes))
}
