package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/cppmodel/internal/sema"
)

// makeFindTypeFn creates the "find_type" host function.
//
// find_type(name, scope="") → entity map or nil
//
// name may be qualified ("a::C"); scope is the qualified path of the scope
// the lookup starts from.
func makeFindTypeFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("find_type", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsError("find_type", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("find_type: name: %v", err)
		}
		scope, err := scopeArg(m, args[1:])
		if err != nil {
			return object.Errorf("find_type: %v", err)
		}
		e, err := scope.FindType(name)
		if err != nil {
			return object.Errorf("find_type: %v", err)
		}
		if e == nil {
			return object.Nil
		}
		return entityToMap(e)
	})
}

// makeFindContentFn creates the "find_content" host function.
//
// find_content(name, scope="") → [entity map]
func makeFindContentFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("find_content", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsError("find_content", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("find_content: name: %v", err)
		}
		scope, err := scopeArg(m, args[1:])
		if err != nil {
			return object.Errorf("find_content: %v", err)
		}
		parts := strings.Split(name, "::")
		found, err := scope.FindContent(parts[len(parts)-1], parts[:len(parts)-1])
		if err != nil {
			return object.Errorf("find_content: %v", err)
		}
		return entitiesToList(found)
	})
}

// makeEntityFn creates "entity".
//
// entity(id) → entity map or nil
func makeEntityFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("entity", func(ctx context.Context, args ...object.Object) object.Object {
		e, errObj := entityArg(m, "entity", args)
		if errObj != nil {
			return errObj
		}
		if e == nil {
			return object.Nil
		}
		return entityToMap(e)
	})
}

// makeEntitiesFn creates "entities".
//
// entities(kind="") → [entity map]
func makeEntitiesFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("entities", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.NewArgsError("entities", 1, len(args))
		}
		var kind sema.Kind
		if len(args) == 1 {
			s, err := toString(args[0])
			if err != nil {
				return object.Errorf("entities: kind: %v", err)
			}
			k, ok := sema.ParseKind(s)
			if !ok {
				return object.Errorf("entities: unknown kind %q", s)
			}
			kind = k
		}
		var out []*sema.Entity
		for _, e := range m.Entities() {
			if kind == 0 || e.Kind == kind {
				out = append(out, e)
			}
		}
		return entitiesToList(out)
	})
}

// makeChildrenFn creates "children".
//
// children(id) → [entity map]
func makeChildrenFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("children", func(ctx context.Context, args ...object.Object) object.Object {
		e, errObj := entityArg(m, "children", args)
		if errObj != nil {
			return errObj
		}
		if e == nil {
			return object.Errorf("children: no such entity")
		}
		return entitiesToList(e.Children())
	})
}

// makeOverloadsFn creates "overloads".
//
// overloads(id) → [entity map], the function's overload family
func makeOverloadsFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("overloads", func(ctx context.Context, args ...object.Object) object.Object {
		e, errObj := entityArg(m, "overloads", args)
		if errObj != nil {
			return errObj
		}
		if e == nil {
			return object.Errorf("overloads: no such entity")
		}
		family, err := e.Overloads()
		if err != nil {
			return object.Errorf("overloads: %v", err)
		}
		return entitiesToList(family)
	})
}

// makeSpecialisationsFn creates "specialisations".
//
// specialisations(id) → [entity map]
func makeSpecialisationsFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("specialisations", func(ctx context.Context, args ...object.Object) object.Object {
		e, errObj := entityArg(m, "specialisations", args)
		if errObj != nil {
			return errObj
		}
		if e == nil {
			return object.Errorf("specialisations: no such entity")
		}
		specs, err := e.Specialisations()
		if err != nil {
			return object.Errorf("specialisations: %v", err)
		}
		return entitiesToList(specs)
	})
}

// makeNamespacesChainFn creates "namespaces_chain".
//
// namespaces_chain(id) → [string]
func makeNamespacesChainFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("namespaces_chain", func(ctx context.Context, args ...object.Object) object.Object {
		e, errObj := entityArg(m, "namespaces_chain", args)
		if errObj != nil {
			return errObj
		}
		if e == nil {
			return object.Errorf("namespaces_chain: no such entity")
		}
		return stringsToList(e.NamespacesChain())
	})
}

// makeTypeTargetFn creates "type_target".
//
// type_target(id, role="type") → map or nil
//
// role is "type" or "return". The map carries the spelling, the
// modification and what the type resolved to.
func makeTypeTargetFn(m *sema.Model) *object.Builtin {
	return object.NewBuiltin("type_target", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsError("type_target", 1, len(args))
		}
		e, errObj := entityArg(m, "type_target", args[:1])
		if errObj != nil {
			return errObj
		}
		if e == nil {
			return object.Errorf("type_target: no such entity")
		}
		role := "type"
		if len(args) == 2 {
			s, err := toString(args[1])
			if err != nil {
				return object.Errorf("type_target: role: %v", err)
			}
			role = s
		}
		var t *sema.TypeExpression
		switch role {
		case "type":
			t = e.Type
		case "return":
			t = e.ReturnType
		default:
			return object.Errorf("type_target: unknown role %q", role)
		}
		if t == nil {
			return object.Nil
		}
		return typeToMap(t)
	})
}

// scopeArg resolves the optional qualified scope argument; none or "" is
// the global namespace.
func scopeArg(m *sema.Model, args []object.Object) (*sema.Lexicon, error) {
	if len(args) == 0 {
		return m.Root(), nil
	}
	path, err := toString(args[0])
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	path = strings.TrimPrefix(path, "::")
	if path == "" {
		return m.Root(), nil
	}
	return m.Root().Resolve(strings.Split(path, "::"))
}

func entityArg(m *sema.Model, fn string, args []object.Object) (*sema.Entity, object.Object) {
	if len(args) != 1 {
		return nil, object.NewArgsError(fn, 1, len(args))
	}
	id, ok := args[0].(*object.Int)
	if !ok {
		return nil, object.Errorf("%s: id must be an int, got %s", fn, args[0].Type())
	}
	return m.Entity(sema.EntityID(id.Value())), nil
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
