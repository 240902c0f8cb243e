package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs, and all FK references within the batch are rewritten using the
// fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Files
//  2. Scopes (parent_scope_id refers to an earlier scope)
//  3. UsingDirectives (scope_id, target_scope_id)
//  4. Entities (file_id, scope ids, parent_entity_id refers to an earlier entity)
//  5. TypeUses (entity_id, target_entity_id)
//  6. Overloads and Specialisations (entity ids)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)
	id := func(fake int64) int64 { return *remap(&fake, fakeToReal) }

	for _, f := range batch.Files {
		fake := f.ID
		realID, err := insertFileTx(tx, &f)
		if err != nil {
			return fmt.Errorf("commit batch: file %q: %w", f.Path, err)
		}
		fakeToReal[fake] = realID
	}

	for _, sc := range batch.Scopes {
		fake := sc.ID
		sc.ParentScopeID = remap(sc.ParentScopeID, fakeToReal)
		realID, err := insertScopeTx(tx, &sc)
		if err != nil {
			return fmt.Errorf("commit batch: scope %q: %w", sc.Path, err)
		}
		fakeToReal[fake] = realID
	}

	for _, u := range batch.UsingDirectives {
		u.ScopeID = id(u.ScopeID)
		u.TargetScopeID = id(u.TargetScopeID)
		if _, err := insertUsingDirectiveTx(tx, &u); err != nil {
			return fmt.Errorf("commit batch: using directive: %w", err)
		}
	}

	for _, e := range batch.Entities {
		fake := e.ID
		e.FileID = remap(e.FileID, fakeToReal)
		e.ScopeID = remap(e.ScopeID, fakeToReal)
		e.InnerScopeID = remap(e.InnerScopeID, fakeToReal)
		e.ParentEntityID = remap(e.ParentEntityID, fakeToReal)
		realID, err := insertEntityTx(tx, &e)
		if err != nil {
			return fmt.Errorf("commit batch: entity %q: %w", e.QualifiedName, err)
		}
		fakeToReal[fake] = realID
	}

	for _, tu := range batch.TypeUses {
		tu.EntityID = id(tu.EntityID)
		tu.TargetEntityID = remap(tu.TargetEntityID, fakeToReal)
		if _, err := insertTypeUseTx(tx, &tu); err != nil {
			return fmt.Errorf("commit batch: type use %q: %w", tu.Spelling, err)
		}
	}

	for _, o := range batch.Overloads {
		o.EntityID = id(o.EntityID)
		o.MemberEntityID = id(o.MemberEntityID)
		if _, err := insertOverloadTx(tx, &o); err != nil {
			return fmt.Errorf("commit batch: overload: %w", err)
		}
	}

	for _, sp := range batch.Specialisations {
		sp.PrimaryEntityID = id(sp.PrimaryEntityID)
		sp.SpecialisationEntityID = id(sp.SpecialisationEntityID)
		if _, err := insertSpecialisationTx(tx, &sp); err != nil {
			return fmt.Errorf("commit batch: specialisation: %w", err)
		}
	}

	return tx.Commit()
}
