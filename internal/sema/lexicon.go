package sema

import (
	"strings"

	"github.com/jward/cppmodel/internal/rawnode"
)

// Lexicon is one lexical scope: the global namespace, a namespace, or the
// member scope of a record or enum. Reopened namespaces share one Lexicon.
type Lexicon struct {
	id        ScopeID
	model     *Model
	namespace string
	named     bool
	parent    ScopeID
	sources   []EntityID
	children  []ScopeID
	byName    map[string]ScopeID
	usings    []ScopeID
}

func newLexicon(m *Model, id ScopeID, namespace string, named bool, parent ScopeID) *Lexicon {
	return &Lexicon{
		id:        id,
		model:     m,
		namespace: namespace,
		named:     named,
		parent:    parent,
		byName:    make(map[string]ScopeID),
	}
}

func (l *Lexicon) ID() ScopeID { return l.id }

// Namespace is the scope's own name; "" for the global namespace and
// anonymous namespaces.
func (l *Lexicon) Namespace() string { return l.namespace }

// Parent returns the enclosing scope, nil for the global namespace.
func (l *Lexicon) Parent() *Lexicon { return l.model.Scope(l.parent) }

// Named is false for anonymous namespaces and other unnamed scopes.
func (l *Lexicon) Named() bool { return l.named }

// Children returns the nested scopes in creation order.
func (l *Lexicon) Children() []*Lexicon {
	out := make([]*Lexicon, len(l.children))
	for i, c := range l.children {
		out[i] = l.model.scopes[c]
	}
	return out
}

// Sources returns the entities registered directly in this scope.
func (l *Lexicon) Sources() []*Entity {
	out := make([]*Entity, len(l.sources))
	for i, id := range l.sources {
		out[i] = l.model.entities[id]
	}
	return out
}

// UsingDirectives returns the scopes named by using directives in l.
func (l *Lexicon) UsingDirectives() []*Lexicon {
	out := make([]*Lexicon, len(l.usings))
	for i, u := range l.usings {
		out[i] = l.model.scopes[u]
	}
	return out
}

// NamespacesChain is the path of scope names from the global namespace down
// to l, excluding the global namespace itself.
func (l *Lexicon) NamespacesChain() []string {
	var chain []string
	for s := l; s != nil && s.id != RootScope; s = s.Parent() {
		chain = append(chain, s.namespace)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Path is NamespacesChain joined with "::".
func (l *Lexicon) Path() string { return strings.Join(l.NamespacesChain(), "::") }

// child returns the nested scope with the given name, creating it on first
// use.
func (l *Lexicon) child(name string, named bool) *Lexicon {
	if id, ok := l.byName[name]; ok {
		return l.model.scopes[id]
	}
	c := newLexicon(l.model, ScopeID(len(l.model.scopes)), name, named, l.id)
	l.model.scopes = append(l.model.scopes, c)
	l.byName[name] = c.id
	l.children = append(l.children, c.id)
	return c
}

func (l *Lexicon) addUsing(target ScopeID) {
	if target == l.id {
		return
	}
	for _, u := range l.usings {
		if u == target {
			return
		}
	}
	l.usings = append(l.usings, target)
}

// AllowedNamespaces returns l itself when it is named, plus the transitive
// closure of its using directives. Cyclic directives are visited once.
func (l *Lexicon) AllowedNamespaces() []*Lexicon {
	var out []*Lexicon
	seen := map[ScopeID]bool{l.id: true}
	if l.named {
		out = append(out, l)
	}
	queue := append([]ScopeID(nil), l.usings...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		s := l.model.scopes[id]
		out = append(out, s)
		queue = append(queue, s.usings...)
	}
	return out
}

// reachable is AllowedNamespaces without l itself.
func (l *Lexicon) reachable() []*Lexicon {
	all := l.AllowedNamespaces()
	if l.named {
		return all[1:]
	}
	return all
}

// member finds a nested scope of l by name, directly or through l's using
// directives, without consulting enclosing scopes.
func (l *Lexicon) member(name string) *Lexicon {
	if id, ok := l.byName[name]; ok {
		return l.model.scopes[id]
	}
	for _, a := range l.reachable() {
		if id, ok := a.byName[name]; ok {
			return l.model.scopes[id]
		}
	}
	return nil
}

// FindNode finds the scope named name visible from l: a direct child, a
// child of a namespace brought in by a using directive, or the same search
// from the enclosing scope. nil if none.
func (l *Lexicon) FindNode(name string) *Lexicon {
	for s := l; s != nil; s = s.Parent() {
		if c := s.member(name); c != nil {
			return c
		}
	}
	return nil
}

// FindContent returns the entities named name visible from l. With an empty
// path the search climbs enclosing scopes and stops at the first scope that
// has a match. With a path, path[0] is found with FindNode and the lookup
// recurses from there with path[1:], so later segments and the final name
// may also be found in enclosing scopes of the named one. An unknown segment
// is a *StructuralError wrapping ErrUnknownNamespace.
func (l *Lexicon) FindContent(name string, path []string) ([]*Entity, error) {
	if len(path) == 0 {
		for s := l; s != nil; s = s.Parent() {
			if found := s.local(name, nil); len(found) > 0 {
				return found, nil
			}
		}
		return nil, nil
	}
	next, err := l.step(path)
	if err != nil {
		return nil, err
	}
	return next.FindContent(name, path[1:])
}

// step finds the scope path[0] names from l; "" is the leading "::".
func (l *Lexicon) step(path []string) (*Lexicon, error) {
	if path[0] == "" {
		return l.model.Root(), nil
	}
	if next := l.FindNode(path[0]); next != nil {
		return next, nil
	}
	return nil, &StructuralError{Op: "find content", Name: strings.Join(path, "::"), Err: ErrUnknownNamespace}
}

// Resolve returns the scope named by a qualified path as seen from l. The
// first segment is looked up like FindNode and the rest strictly as nested
// members; a leading "" starts at the root. Declarations with a qualifier
// use this to reach the scope they belong to.
func (l *Lexicon) Resolve(path []string) (*Lexicon, error) {
	if len(path) == 0 {
		return l, nil
	}
	target, err := l.step(path)
	if err != nil {
		return nil, err
	}
	for _, seg := range path[1:] {
		if target = target.member(seg); target == nil {
			return nil, &StructuralError{Op: "resolve", Name: strings.Join(path, "::"), Err: ErrUnknownNamespace}
		}
	}
	return target, nil
}

// local collects same-named entities registered in l or in a namespace
// brought in by l's using directives.
func (l *Lexicon) local(name string, keep func(*Entity) bool) []*Entity {
	var out []*Entity
	seen := make(map[EntityID]bool)
	collect := func(s *Lexicon) {
		for _, id := range s.sources {
			e := l.model.entities[id]
			if e.Name != name || seen[id] || (keep != nil && !keep(e)) {
				continue
			}
			seen[id] = true
			out = append(out, e)
		}
	}
	collect(l)
	for _, a := range l.reachable() {
		collect(a)
	}
	return out
}

func isTypeEntity(e *Entity) bool { return e.Kind.IsType() }

// FindType resolves a possibly qualified type name ("C", "a::C", "::a::C")
// from l. Unlike FindContent, an unqualified search keeps climbing past
// scopes whose same-named entities are not types. Definitions win over
// declarations and primary templates over specialisations. nil if none.
func (l *Lexicon) FindType(name string) (*Entity, error) {
	parts := strings.Split(name, "::")
	return l.findType(parts[len(parts)-1], parts[:len(parts)-1])
}

func (l *Lexicon) findType(name string, path []string) (*Entity, error) {
	if len(path) == 0 {
		for s := l; s != nil; s = s.Parent() {
			if found := s.local(name, isTypeEntity); len(found) > 0 {
				return preferType(found), nil
			}
		}
		return nil, nil
	}
	next, err := l.step(path)
	if err != nil {
		return nil, err
	}
	return next.findType(name, path[1:])
}

func preferType(found []*Entity) *Entity {
	var best *Entity
	rank := func(e *Entity) int {
		r := 0
		if !e.IsDeclaration {
			r += 2
		}
		if !e.IsSpecialisation() {
			r += 4
		}
		return r
	}
	for _, e := range found {
		if best == nil || rank(e) > rank(best) {
			best = e
		}
	}
	return best
}

// FindTypeForNode maps a raw declaration back to its type entity by walking
// the raw node's enclosing declarations from the global namespace down. An
// enclosing class template is rejected with ErrTemplateEnclosingNamespace; a
// missing scope with ErrUnknownNamespace. Returns nil when the final scope
// holds no matching type.
func (m *Model) FindTypeForNode(raw rawnode.Node) (*Entity, error) {
	if raw == nil {
		return nil, &StructuralError{Op: "find type for node", Err: ErrUnexpectedShape}
	}
	scope := m.Root()
	for _, anc := range rawnode.Ancestors(raw) {
		switch k := anc.Kind(); {
		case k == rawnode.KindLinkageSpec:
			continue
		case k.IsRecord() && anc.IsTemplate():
			return nil, &StructuralError{Op: "find type for node", Name: anc.Spelling(), Err: ErrTemplateEnclosingNamespace}
		case k == rawnode.KindNamespace || k.IsRecord() || k == rawnode.KindEnum:
			next, ok := scope.byName[anc.Spelling()]
			if !ok {
				return nil, &StructuralError{Op: "find type for node", Name: anc.Spelling(), Err: ErrUnknownNamespace}
			}
			scope = m.scopes[next]
		default:
			return nil, &StructuralError{Op: "find type for node", Name: anc.Spelling(), Err: ErrUnexpectedShape}
		}
	}
	if e := m.EntityForNode(raw); e != nil && e.scope == scope.id && e.Kind.IsType() {
		return e, nil
	}
	return preferType(scope.local(raw.Spelling(), isTypeEntity)), nil
}

// mergeCandidate returns the entity in l that e redeclares, and its position.
func (l *Lexicon) mergeCandidate(e *Entity) (int, *Entity) {
	for i, id := range l.sources {
		c := l.model.entities[id]
		if c.Kind.mergeable() && sameIdentity(c, e) {
			return i, c
		}
	}
	return -1, nil
}
