package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/cppmodel/internal/sema"
	"github.com/jward/cppmodel/internal/store"
)

// entityToMap converts an entity to the Risor map scripts see.
func entityToMap(e *sema.Entity) object.Object {
	m := map[string]object.Object{
		"id":                 object.NewInt(int64(e.ID())),
		"name":               object.NewString(e.Name),
		"kind":               object.NewString(e.Kind.String()),
		"qualified_name":     object.NewString(e.QualifiedName()),
		"namespace":          object.NewString(e.Namespace()),
		"declared_namespace": object.NewString(e.DeclaredNamespace()),
		"is_declaration":     object.NewBool(e.IsDeclaration),
		"is_template":        object.NewBool(e.IsTemplate()),
		"is_specialisation":  object.NewBool(e.IsSpecialisation()),
		"file":               object.NewString(e.Location.File),
		"line":               object.NewInt(int64(e.Location.Line)),
		"column":             object.NewInt(int64(e.Location.Column)),
		"value":              object.NewString(e.Value),
	}
	if p := e.Parent(); p != nil {
		m["parent_id"] = object.NewInt(int64(p.ID()))
	}
	if e.Type != nil {
		m["type"] = object.NewString(e.Type.Spelling())
	}
	if e.Kind.IsFunction() {
		if e.ReturnType != nil {
			m["return_type"] = object.NewString(e.ReturnType.Spelling())
		}
		m["function_modification"] = object.NewString(e.FunctionModification.String())
		args := make([]object.Object, 0, len(e.Arguments))
		for _, a := range e.Arguments {
			am := map[string]object.Object{
				"name":    object.NewString(a.Name),
				"default": object.NewString(a.Default),
			}
			if a.Type != nil {
				am["type"] = object.NewString(a.Type.Spelling())
			}
			args = append(args, object.NewMap(am))
		}
		m["arguments"] = object.NewList(args)
	}
	if e.Template != nil {
		params := make([]object.Object, 0, len(e.Template.Parameters))
		for _, p := range e.Template.Parameters {
			params = append(params, object.NewString(p.Name))
		}
		m["template_parameters"] = object.NewList(params)
		if e.IsSpecialisation() {
			m["specialisation"] = object.NewString(e.Template.SpecialisationSuffix())
		}
	}
	return object.NewMap(m)
}

func entitiesToList(es []*sema.Entity) object.Object {
	results := make([]object.Object, 0, len(es))
	for _, e := range es {
		results = append(results, entityToMap(e))
	}
	return object.NewList(results)
}

func stringsToList(ss []string) object.Object {
	results := make([]object.Object, 0, len(ss))
	for _, s := range ss {
		results = append(results, object.NewString(s))
	}
	return object.NewList(results)
}

// typeToMap describes a type expression and its resolved target. A
// resolution failure is reported in the "error" key rather than aborting
// the script.
func typeToMap(t *sema.TypeExpression) object.Object {
	m := map[string]object.Object{
		"spelling":     object.NewString(t.Spelling()),
		"modification": object.NewString(t.Modification().String()),
	}
	target, err := t.Details()
	if err != nil {
		m["error"] = object.NewString(err.Error())
		return object.NewMap(m)
	}
	switch tt := target.(type) {
	case *sema.BasicType:
		m["target_kind"] = object.NewString("basic")
		m["target_name"] = object.NewString(t.Name())
	case sema.GenericParameter:
		m["target_kind"] = object.NewString("generic")
		m["target_name"] = object.NewString(tt.Name)
	case sema.EntityTarget:
		m["target_kind"] = object.NewString("entity")
		m["target_name"] = object.NewString(tt.Entity.QualifiedName())
		m["target_id"] = object.NewInt(int64(tt.Entity.ID()))
	case sema.ExternalStub:
		m["target_kind"] = object.NewString("external")
		m["target_name"] = object.NewString(tt.Name)
	}
	return object.NewMap(m)
}

// makeDBQueryFn creates a db_query bridge that executes read-only SQL
// against the attached snapshot. Returns a list of maps (column name →
// value).
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, queryErr := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if queryErr != nil {
			return object.Errorf("db_query: %v", queryErr)
		}
		defer rows.Close()

		cols, colErr := rows.Columns()
		if colErr != nil {
			return object.Errorf("db_query: columns: %v", colErr)
		}

		results := []object.Object{}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		return object.NewList(results)
	})
}

func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}
