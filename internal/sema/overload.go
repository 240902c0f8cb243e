package sema

import (
	"slices"

	"github.com/jward/cppmodel/internal/typemod"
)

func (e *Entity) overloadFamily() ([]*Entity, error) {
	if !e.Kind.IsFunction() || e.Lexicon() == nil {
		return nil, nil
	}
	candidates, err := e.Lexicon().FindContent(e.Name, nil)
	if err != nil {
		return nil, err
	}
	chain := e.NamespacesChain()

	var groups [][]*Entity
next:
	for _, c := range candidates {
		if !c.Kind.IsFunction() || c.IsSpecialisation() || !slices.Equal(c.NamespacesChain(), chain) {
			continue
		}
		for i, g := range groups {
			same, err := sameSignature(g[0], c)
			if err != nil {
				return nil, err
			}
			if same {
				groups[i] = append(g, c)
				continue next
			}
		}
		groups = append(groups, []*Entity{c})
	}

	out := make([]*Entity, 0, len(groups))
	for _, g := range groups {
		var def *Entity
		for _, c := range g {
			if c.IsDeclaration {
				continue
			}
			if def != nil {
				return nil, &AmbiguityError{Op: "overloads", Name: c.QualifiedName() + c.signature(), Err: ErrDuplicateDefinition}
			}
			def = c
		}
		if def == nil {
			def = g[0]
		}
		out = append(out, def)
	}
	return out, nil
}

func sameSignature(a, b *Entity) (bool, error) {
	if len(a.Arguments) != len(b.Arguments) {
		return false, nil
	}
	if a.FunctionModification.Has(typemod.FnConst) != b.FunctionModification.Has(typemod.FnConst) {
		return false, nil
	}
	for i := range a.Arguments {
		at, bt := a.Arguments[i].Type, b.Arguments[i].Type
		if at == nil || bt == nil {
			if at != bt {
				return false, nil
			}
			continue
		}
		eq, err := TypesEqual(at, bt)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}
