package cppmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jward/cppmodel/internal/sema"
)

// ErrNotFound is returned when a queried name resolves to nothing.
var ErrNotFound = errors.New("not found")

// QueryBuilder answers name-based questions about the model. Names may be
// qualified ("a::b::C"); a leading "::" is accepted. Lookups start at the
// global namespace.
type QueryBuilder struct {
	model *sema.Model
}

// EntityView is the serialisable summary of an entity.
type EntityView struct {
	ID               int64          `json:"id"`
	Kind             string         `json:"kind"`
	Name             string         `json:"name"`
	QualifiedName    string         `json:"qualified_name"`
	Namespaces       []string       `json:"namespaces,omitempty"`
	File             string         `json:"file,omitempty"`
	Line             int            `json:"line,omitempty"`
	Column           int            `json:"column,omitempty"`
	IsDeclaration    bool           `json:"is_declaration"`
	IsTemplate       bool           `json:"is_template"`
	IsSpecialisation bool           `json:"is_specialisation"`
	Specialisation   string         `json:"specialisation,omitempty"`
	Type             string         `json:"type,omitempty"`
	ReturnType       string         `json:"return_type,omitempty"`
	Arguments        []ArgumentView `json:"arguments,omitempty"`
	Modifiers        string         `json:"modifiers,omitempty"`
	Value            string         `json:"value,omitempty"`
}

// ArgumentView is one function parameter of an EntityView.
type ArgumentView struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

// View summarises e.
func View(e *sema.Entity) EntityView {
	v := EntityView{
		ID:               int64(e.ID()),
		Kind:             e.Kind.String(),
		Name:             e.Name,
		QualifiedName:    e.QualifiedName(),
		Namespaces:       e.NamespacesChain(),
		File:             e.Location.File,
		Line:             e.Location.Line,
		Column:           e.Location.Column,
		IsDeclaration:    e.IsDeclaration,
		IsTemplate:       e.IsTemplate(),
		IsSpecialisation: e.IsSpecialisation(),
		Value:            e.Value,
	}
	if v.IsSpecialisation {
		v.Specialisation = e.Template.SpecialisationSuffix()
	}
	if e.Type != nil {
		v.Type = e.Type.Spelling()
	}
	if e.Kind.IsFunction() {
		if e.ReturnType != nil {
			v.ReturnType = e.ReturnType.Spelling()
		}
		for _, a := range e.Arguments {
			av := ArgumentView{Name: a.Name, Default: a.Default}
			if a.Type != nil {
				av.Type = a.Type.Spelling()
			}
			v.Arguments = append(v.Arguments, av)
		}
	}
	if m := strings.Join(modifiers(e), " "); m != "" {
		v.Modifiers = m
	}
	return v
}

func views(es []*sema.Entity) []EntityView {
	out := make([]EntityView, 0, len(es))
	for _, e := range es {
		out = append(out, View(e))
	}
	return out
}

func splitName(name string) (string, []string) {
	parts := strings.Split(name, "::")
	last := parts[len(parts)-1]
	path := parts[:len(parts)-1]
	return last, path
}

// FindType resolves a type name the way a declaration at global scope
// would. ErrNotFound if nothing matches.
func (q *QueryBuilder) FindType(name string) (*EntityView, error) {
	e, err := q.model.Root().FindType(name)
	if err != nil {
		return nil, lookupError("find type", name, err)
	}
	if e == nil {
		return nil, fmt.Errorf("find type %s: %w", name, ErrNotFound)
	}
	v := View(e)
	return &v, nil
}

// FindContent returns every entity name denotes.
func (q *QueryBuilder) FindContent(name string) ([]EntityView, error) {
	found, err := q.content(name)
	if err != nil {
		return nil, err
	}
	return views(found), nil
}

func (q *QueryBuilder) content(name string) ([]*sema.Entity, error) {
	last, path := splitName(name)
	found, err := q.model.Root().FindContent(last, path)
	if err != nil {
		return nil, lookupError("find content", name, err)
	}
	return found, nil
}

// lookupError wraps err; a qualifier naming an unknown namespace also
// matches ErrNotFound.
func lookupError(op, name string, err error) error {
	if errors.Is(err, sema.ErrUnknownNamespace) {
		return fmt.Errorf("%s %s: %w: %w", op, name, ErrNotFound, err)
	}
	return fmt.Errorf("%s %s: %w", op, name, err)
}

// Overloads returns the overload family of the first function name
// denotes.
func (q *QueryBuilder) Overloads(name string) ([]EntityView, error) {
	found, err := q.content(name)
	if err != nil {
		return nil, err
	}
	for _, e := range found {
		if !e.Kind.IsFunction() {
			continue
		}
		family, err := e.Overloads()
		if err != nil {
			return nil, fmt.Errorf("overloads %s: %w", name, err)
		}
		return views(family), nil
	}
	return nil, fmt.Errorf("overloads %s: %w", name, ErrNotFound)
}

// Specialisations returns the explicit and partial specialisations of the
// primary template name denotes.
func (q *QueryBuilder) Specialisations(name string) ([]EntityView, error) {
	found, err := q.content(name)
	if err != nil {
		return nil, err
	}
	for _, e := range found {
		if !e.IsTemplate() || e.IsSpecialisation() {
			continue
		}
		specs, err := e.Specialisations()
		if err != nil {
			return nil, fmt.Errorf("specialisations %s: %w", name, err)
		}
		return views(specs), nil
	}
	return nil, fmt.Errorf("specialisations %s: %w", name, ErrNotFound)
}

// Entity returns the entity with handle id.
func (q *QueryBuilder) Entity(id int64) (*EntityView, error) {
	e := q.model.Entity(sema.EntityID(id))
	if e == nil {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	v := View(e)
	return &v, nil
}

// Entities lists the canonical entities, optionally only those of kind
// (e.g. "class", "function").
func (q *QueryBuilder) Entities(kind string) ([]EntityView, error) {
	var want sema.Kind
	if kind != "" {
		k, ok := sema.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("entities: unknown kind %q", kind)
		}
		want = k
	}
	var out []*sema.Entity
	for _, e := range q.model.Entities() {
		if want == 0 || e.Kind == want {
			out = append(out, e)
		}
	}
	return views(out), nil
}

// Children lists the members of the entity with handle id.
func (q *QueryBuilder) Children(id int64) ([]EntityView, error) {
	e := q.model.Entity(sema.EntityID(id))
	if e == nil {
		return nil, fmt.Errorf("children %d: %w", id, ErrNotFound)
	}
	return views(e.Children()), nil
}
