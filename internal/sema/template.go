package sema

import "strings"

// ParameterSpecifier says how a template parameter was introduced.
type ParameterSpecifier int

const (
	SpecTypename ParameterSpecifier = iota
	SpecClass
	SpecConcept
	SpecNonType
)

func (s ParameterSpecifier) String() string {
	switch s {
	case SpecTypename:
		return "typename"
	case SpecClass:
		return "class"
	case SpecConcept:
		return "concept"
	case SpecNonType:
		return "non_type"
	}
	return "invalid"
}

// TemplateParameter is one entry of a template parameter list.
type TemplateParameter struct {
	Name      string
	Specifier ParameterSpecifier
	// Concept names the constraining concept when Specifier is SpecConcept.
	Concept string
	// Type is the declared type of a non-type parameter.
	Type     *TypeExpression
	Default  string
	Variadic bool
}

// TemplateValue is one explicit argument of a specialisation.
type TemplateValue struct {
	// Type is set for type arguments, nil for expressions.
	Type *TypeExpression
	Expr string
}

func (v TemplateValue) String() string {
	if v.Type != nil {
		return v.Type.Spelling()
	}
	return v.Expr
}

// TemplateInfo is attached to templates and specialisations.
// SpecialisationValues is nil for a primary template and non-nil, possibly
// empty, for a specialisation.
type TemplateInfo struct {
	Parameters           []TemplateParameter
	SpecialisationValues []TemplateValue
}

// IsSpecialisation is safe on a nil receiver.
func (t *TemplateInfo) IsSpecialisation() bool {
	return t != nil && t.SpecialisationValues != nil
}

// ParameterIndex returns the position of the named parameter, or -1.
func (t *TemplateInfo) ParameterIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, p := range t.Parameters {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// SpecialisationSuffix renders the values as "<int,3>".
func (t *TemplateInfo) SpecialisationSuffix() string {
	vals := make([]string, len(t.SpecialisationValues))
	for i, v := range t.SpecialisationValues {
		vals[i] = v.String()
	}
	return "<" + strings.Join(vals, ",") + ">"
}

func (e *Entity) specialisationsOf() ([]*Entity, error) {
	if !e.IsTemplate() || e.Lexicon() == nil {
		return nil, nil
	}
	var out []*Entity
	for _, c := range e.Lexicon().local(e.Name, nil) {
		if c == e || !c.IsSpecialisation() || c.Kind.IsFunction() != e.Kind.IsFunction() {
			continue
		}
		ok, err := matchesPrimary(e, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// matchesPrimary reports whether spec is a specialisation of primary. A
// class specialisation needs one value per primary parameter. A function
// specialisation must also match argument by argument: a concrete primary
// argument must equal the specialised one, and a primary argument naming a
// template parameter is checked by substituting the bound value.
func matchesPrimary(primary, spec *Entity) (bool, error) {
	values := spec.Template.SpecialisationValues
	if len(values) != len(primary.Template.Parameters) {
		return false, nil
	}
	if !primary.Kind.IsFunction() {
		return true, nil
	}
	if len(spec.Arguments) != len(primary.Arguments) {
		return false, nil
	}
	for i, pa := range primary.Arguments {
		sa := spec.Arguments[i]
		if pa.Type == nil || sa.Type == nil {
			if pa.Type != sa.Type {
				return false, nil
			}
			continue
		}
		ok, err := argumentMatches(primary, pa.Type, sa.Type, values)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func argumentMatches(primary *Entity, pt, st *TypeExpression, values []TemplateValue) (bool, error) {
	pd, err := pt.Details()
	if err != nil {
		return false, err
	}
	g, generic := pd.(GenericParameter)
	j := primary.Template.ParameterIndex(g.Name)
	if !generic || j < 0 {
		return TypesEqual(pt, st)
	}

	bound := values[j].Type
	if bound == nil {
		return false, nil
	}
	pm, sm := pt.Modification(), st.Modification()
	if pm.HasIndirection() && bound.Modification().HasIndirection() {
		return false, nil
	}
	if sm.Flags()&pm.Flags() != pm.Flags() {
		return false, nil
	}
	if !sm.Minus(pm).Equal(bound.Modification()) {
		return false, nil
	}
	return sameDetails(st, bound)
}
