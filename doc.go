// Package cppmodel builds a semantic model of C++ sources: which entities
// are declared where, what each written type refers to, and how templates
// and overloads relate.
//
// # Pipeline
//
//  1. Discover: find C++ sources under a root, honouring .gitignore and the
//     project's exclude patterns.
//  2. Parse: tree-sitter parses files in parallel into declaration trees.
//  3. Extract: declarations are registered one translation unit at a time
//     into a single [Model]. Forward declarations merge with their
//     definitions; out-of-line members join their class.
//
// Type expressions resolve lazily against the scope they were written in,
// and overload families and template specialisations are computed on first
// use and cached.
//
// # Usage
//
//	e := cppmodel.New(cppmodel.WithLogger(logger))
//	if err := e.IndexDirectory(ctx, "path/to/project"); err != nil { ... }
//
//	q := e.Query()
//	c, err := q.FindType("geo::Point")
//	family, err := q.Overloads("geo::distance")
//	specs, err := q.Specialisations("geo::Traits")
//
// # Errors
//
// Problems local to one declaration, such as a qualifier naming an unknown
// namespace, are logged and the declaration is skipped; see [IsStructural].
// Ambiguities, such as two definitions of one class, abandon the offending
// translation unit; see [IsAmbiguity] and [WithStrict].
//
// # Scripts and snapshots
//
// [Engine.RunScript] runs Risor scripts with lookup functions bound to the
// model (find_type, find_content, overloads, specialisations, ...).
// [Engine.Export] writes the model to a SQLite snapshot.
package cppmodel
