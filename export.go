package cppmodel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jward/cppmodel/internal/sema"
	"github.com/jward/cppmodel/internal/store"
)

// Export writes the model to a SQLite snapshot at dbPath, replacing any
// snapshot already there. The whole snapshot is committed in one
// transaction.
func (e *Engine) Export(ctx context.Context, dbPath string) error {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("cppmodel: create store: %w", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("cppmodel: migrate: %w", err)
	}

	batch, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.Clear(); err != nil {
		return fmt.Errorf("cppmodel: clear snapshot: %w", err)
	}
	if err := s.CommitBatch(batch); err != nil {
		return fmt.Errorf("cppmodel: %w", err)
	}

	stats := e.Stats()
	for k, v := range map[string]string{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"skipped":     strconv.Itoa(stats.Skipped),
		"ambiguous":   strconv.Itoa(stats.Ambiguous),
	} {
		if err := s.SetMetadata(k, v); err != nil {
			return fmt.Errorf("cppmodel: metadata %s: %w", k, err)
		}
	}
	e.logger.Info("snapshot exported", "db", dbPath,
		"files", len(batch.Files), "entities", len(batch.Entities), "type_uses", len(batch.TypeUses))
	return nil
}

// exporter assigns batch IDs to model handles. Rows are always inserted
// after the rows they point at, so CommitBatch can remap every reference.
type exporter struct {
	batch    *store.BatchedStore
	files    map[string]int64
	scopes   map[sema.ScopeID]int64
	entities map[sema.EntityID]int64
}

func (e *Engine) snapshot(ctx context.Context) (*store.BatchedStore, error) {
	x := &exporter{
		batch:    store.NewBatchedStore(),
		files:    make(map[string]int64),
		scopes:   make(map[sema.ScopeID]int64),
		entities: make(map[sema.EntityID]int64),
	}

	for _, path := range e.order {
		f := e.files[path]
		id, err := x.batch.InsertFile(&store.File{Path: f.path, Hash: f.hash, HasErrors: f.hasErrors, LastIndexed: f.indexed})
		if err != nil {
			return nil, err
		}
		x.files[path] = id
	}

	// Scope handles are allocated parent-first.
	scopes := e.model.Scopes()
	for _, l := range scopes {
		row := &store.Scope{Namespace: l.Namespace(), Path: l.Path(), Named: l.Named()}
		if p := l.Parent(); p != nil {
			pid := x.scopes[p.ID()]
			row.ParentScopeID = &pid
		}
		id, err := x.batch.InsertScope(row)
		if err != nil {
			return nil, err
		}
		x.scopes[l.ID()] = id
	}
	for _, l := range scopes {
		for _, target := range l.UsingDirectives() {
			if _, err := x.batch.InsertUsingDirective(&store.UsingDirective{
				ScopeID:       x.scopes[l.ID()],
				TargetScopeID: x.scopes[target.ID()],
			}); err != nil {
				return nil, err
			}
		}
	}

	entities := e.model.Entities()
	for _, ent := range entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := x.entity(ent); err != nil {
			return nil, err
		}
	}

	for _, u := range e.extractor.TypeUses() {
		owner, ok := x.entities[u.Entity.ID()]
		if !ok || !u.Entity.IsCanonical() {
			continue
		}
		row := &store.TypeUse{
			EntityID:     owner,
			Role:         u.Role,
			Ordinal:      u.Index,
			Spelling:     u.Type.Spelling(),
			Modification: u.Type.Modification().String(),
		}
		x.target(row, u.Type)
		if _, err := x.batch.InsertTypeUse(row); err != nil {
			return nil, err
		}
	}

	for _, ent := range entities {
		if err := x.families(ent); err != nil {
			return nil, err
		}
	}
	return x.batch, nil
}

// entity inserts ent after its parent and returns its batch ID.
func (x *exporter) entity(ent *sema.Entity) (int64, error) {
	if id, ok := x.entities[ent.ID()]; ok {
		return id, nil
	}
	row := &store.Entity{
		Name:             ent.Name,
		Kind:             ent.Kind.String(),
		QualifiedName:    ent.QualifiedName(),
		IsDeclaration:    ent.IsDeclaration,
		IsTemplate:       ent.IsTemplate(),
		IsSpecialisation: ent.IsSpecialisation(),
		Modifiers:        modifiers(ent),
		Value:            ent.Value,
		Line:             ent.Location.Line,
		Col:              ent.Location.Column,
	}
	if p := ent.Parent(); p != nil && p.IsRegistered() {
		pid, err := x.entity(p)
		if err != nil {
			return 0, err
		}
		row.ParentEntityID = &pid
	}
	if id, ok := x.files[ent.Location.File]; ok {
		row.FileID = &id
	}
	if l := ent.Lexicon(); l != nil {
		id := x.scopes[l.ID()]
		row.ScopeID = &id
	}
	if l := ent.Scope(); l != nil {
		id := x.scopes[l.ID()]
		row.InnerScopeID = &id
	}
	switch {
	case ent.Type != nil:
		row.TypeExpr = ent.Type.Spelling()
	case ent.ReturnType != nil:
		row.TypeExpr = ent.ReturnType.Spelling()
	}

	id, err := x.batch.InsertEntity(row)
	if err != nil {
		return 0, err
	}
	x.entities[ent.ID()] = id
	return id, nil
}

// target fills in what t resolved to. Resolution failures are kept as
// "unresolved" rows rather than failing the export.
func (x *exporter) target(row *store.TypeUse, t *sema.TypeExpression) {
	target, err := t.Details()
	if err != nil {
		row.TargetKind = "unresolved"
		row.TargetName = err.Error()
		return
	}
	switch tt := target.(type) {
	case *sema.BasicType:
		row.TargetKind, row.TargetName = "basic", t.Name()
	case sema.GenericParameter:
		row.TargetKind, row.TargetName = "generic", tt.Name
	case sema.EntityTarget:
		row.TargetKind, row.TargetName = "entity", tt.Entity.QualifiedName()
		if id, ok := x.entities[tt.Entity.Canonical().ID()]; ok {
			row.TargetEntityID = &id
		}
	case sema.ExternalStub:
		row.TargetKind, row.TargetName = "external", tt.Name
	}
}

// families records the overload family of each function and the
// specialisations of each primary template. Ambiguous families are skipped.
func (x *exporter) families(ent *sema.Entity) error {
	id := x.entities[ent.ID()]
	if ent.Kind.IsFunction() && !ent.IsSpecialisation() {
		if members, err := ent.Overloads(); err == nil {
			for _, m := range members {
				mid, ok := x.entities[m.ID()]
				if !ok {
					continue
				}
				if _, err := x.batch.InsertOverload(&store.Overload{EntityID: id, MemberEntityID: mid}); err != nil {
					return err
				}
			}
		}
	}
	if ent.IsTemplate() && !ent.IsSpecialisation() {
		if specs, err := ent.Specialisations(); err == nil {
			for _, sp := range specs {
				sid, ok := x.entities[sp.ID()]
				if !ok {
					continue
				}
				if _, err := x.batch.InsertSpecialisation(&store.Specialisation{
					PrimaryEntityID:        id,
					SpecialisationEntityID: sid,
					Suffix:                 sp.Template.SpecialisationSuffix(),
				}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func modifiers(ent *sema.Entity) []string {
	var s string
	switch {
	case ent.Kind.IsFunction():
		s = ent.FunctionModification.String()
	case ent.Type != nil:
		s = ent.Type.Modification().String()
	}
	if s == "" || s == "none" {
		return nil
	}
	return strings.Fields(s)
}
