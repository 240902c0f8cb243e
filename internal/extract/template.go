package extract

import (
	"github.com/jward/cppmodel/internal/rawnode"
	"github.com/jward/cppmodel/internal/sema"
)

// template attaches template information to e when n carries a template
// head. Parameters become KindTemplateParameter children of e; they are not
// registered, lookups reach them through the owner instead.
func (x *Extractor) template(n rawnode.Node, scope *sema.Lexicon, e *sema.Entity) error {
	if !n.IsTemplate() && n.TemplateArguments() == nil {
		return nil
	}
	info := &sema.TemplateInfo{}
	e.Template = info

	for _, c := range n.Children() {
		switch c.Kind() {
		case rawnode.KindTemplateTypeParameter:
			info.Parameters = append(info.Parameters, typeParameter(c))
		case rawnode.KindTemplateNonTypeParameter:
			p := sema.TemplateParameter{
				Name:      c.Spelling(),
				Specifier: sema.SpecNonType,
				Default:   c.Value(),
				Variadic:  containsToken(c.Tokens(), "..."),
			}
			if raw := c.Type(); raw != nil {
				t, err := sema.TypeFromRaw(scope, e, raw)
				if err != nil {
					return err
				}
				p.Type = t
			}
			info.Parameters = append(info.Parameters, p)
		default:
			continue
		}
		x.entity(sema.KindTemplateParameter, c, e)
	}

	if args := n.TemplateArguments(); args != nil {
		info.SpecialisationValues = make([]sema.TemplateValue, 0, len(args))
		for i, a := range args {
			if a.Type == nil {
				info.SpecialisationValues = append(info.SpecialisationValues, sema.TemplateValue{Expr: a.Expr})
				continue
			}
			t, err := sema.TypeFromRaw(scope, e, a.Type)
			if err != nil {
				return err
			}
			info.SpecialisationValues = append(info.SpecialisationValues, sema.TemplateValue{Type: t})
			x.uses = append(x.uses, TypeUse{Entity: e, Role: "template_value", Index: i, Type: t})
		}
	} else if len(info.Parameters) == 0 {
		// "template<>" without arguments on the name still specialises.
		info.SpecialisationValues = []sema.TemplateValue{}
	}
	return nil
}

// typeParameter reads a type parameter from its tokens, e.g.
// ["typename", "T"], ["class", "...", "Ts"] or ["std::integral", "N"].
func typeParameter(c rawnode.Node) sema.TemplateParameter {
	p := sema.TemplateParameter{
		Name:      c.Spelling(),
		Specifier: sema.SpecTypename,
		Default:   c.Value(),
	}
	toks := c.Tokens()
	if len(toks) > 0 {
		switch toks[0] {
		case "typename":
		case "class":
			p.Specifier = sema.SpecClass
		default:
			if toks[0] != "..." && toks[0] != p.Name {
				p.Specifier = sema.SpecConcept
				p.Concept = toks[0]
			}
		}
	}
	p.Variadic = containsToken(toks, "...")
	return p
}

func containsToken(toks []string, tok string) bool {
	for _, t := range toks {
		if t == tok {
			return true
		}
	}
	return false
}
