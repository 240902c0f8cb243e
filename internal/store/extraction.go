package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	return insertFileTx(s.db, f)
}

const fileCols = "id, path, hash, has_errors, last_indexed"

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT "+fileCols+" FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Hash, &f.HasErrors, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.HasErrors, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Scope operations ---

func (s *Store) InsertScope(scope *Scope) (int64, error) {
	return insertScopeTx(s.db, scope)
}

func (s *Store) ScopeByPath(path string) (*Scope, error) {
	sc := &Scope{}
	err := s.db.QueryRow(
		"SELECT id, parent_scope_id, namespace, path, named FROM scopes WHERE path = ? ORDER BY id LIMIT 1", path,
	).Scan(&sc.ID, &sc.ParentScopeID, &sc.Namespace, &sc.Path, &sc.Named)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scope by path: %w", err)
	}
	return sc, nil
}

func (s *Store) ScopeByID(id int64) (*Scope, error) {
	sc := &Scope{}
	err := s.db.QueryRow(
		"SELECT id, parent_scope_id, namespace, path, named FROM scopes WHERE id = ?", id,
	).Scan(&sc.ID, &sc.ParentScopeID, &sc.Namespace, &sc.Path, &sc.Named)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scope by id: %w", err)
	}
	return sc, nil
}

func (s *Store) InsertUsingDirective(u *UsingDirective) (int64, error) {
	return insertUsingDirectiveTx(s.db, u)
}

// UsingTargets returns the scope IDs brought into scopeID by using
// directives.
func (s *Store) UsingTargets(scopeID int64) ([]int64, error) {
	return s.queryIDs("using targets",
		"SELECT target_scope_id FROM using_directives WHERE scope_id = ? ORDER BY id", scopeID)
}

// --- Entity operations ---

func (s *Store) InsertEntity(e *Entity) (int64, error) {
	return insertEntityTx(s.db, e)
}

// EntityCols is the column list for entity queries.
const EntityCols = `id, file_id, scope_id, inner_scope_id, parent_entity_id, name, kind,
	qualified_name, is_declaration, is_template, is_specialisation, modifiers,
	type_expr, value, line, col`

func scanEntity(scanner interface{ Scan(...any) error }) (*Entity, error) {
	e := &Entity{}
	var mods string
	err := scanner.Scan(
		&e.ID, &e.FileID, &e.ScopeID, &e.InnerScopeID, &e.ParentEntityID, &e.Name, &e.Kind,
		&e.QualifiedName, &e.IsDeclaration, &e.IsTemplate, &e.IsSpecialisation, &mods,
		&e.TypeExpr, &e.Value, &e.Line, &e.Col,
	)
	if err != nil {
		return nil, err
	}
	e.Modifiers = unmarshalModifiers(mods)
	return e, nil
}

func (s *Store) queryEntities(query string, args ...any) ([]*Entity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entities []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *Store) EntityByID(id int64) (*Entity, error) {
	e, err := scanEntity(s.db.QueryRow("SELECT "+EntityCols+" FROM entities WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity by id: %w", err)
	}
	return e, nil
}

func (s *Store) EntitiesByName(name string) ([]*Entity, error) {
	return s.queryEntities("SELECT "+EntityCols+" FROM entities WHERE name = ? ORDER BY id", name)
}

func (s *Store) EntitiesByQualifiedName(qname string) ([]*Entity, error) {
	return s.queryEntities("SELECT "+EntityCols+" FROM entities WHERE qualified_name = ? ORDER BY id", qname)
}

func (s *Store) EntitiesByKind(kind string) ([]*Entity, error) {
	return s.queryEntities("SELECT "+EntityCols+" FROM entities WHERE kind = ? ORDER BY id", kind)
}

func (s *Store) EntitiesByFile(fileID int64) ([]*Entity, error) {
	return s.queryEntities("SELECT "+EntityCols+" FROM entities WHERE file_id = ? ORDER BY line, col", fileID)
}

func (s *Store) EntityChildren(parentID int64) ([]*Entity, error) {
	return s.queryEntities("SELECT "+EntityCols+" FROM entities WHERE parent_entity_id = ? ORDER BY id", parentID)
}

// --- TypeUse operations ---

func (s *Store) InsertTypeUse(tu *TypeUse) (int64, error) {
	return insertTypeUseTx(s.db, tu)
}

const typeUseCols = `id, entity_id, role, ordinal, spelling, modification, target_kind, target_entity_id, target_name`

func (s *Store) queryTypeUses(query string, args ...any) ([]*TypeUse, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var uses []*TypeUse
	for rows.Next() {
		tu := &TypeUse{}
		if err := rows.Scan(&tu.ID, &tu.EntityID, &tu.Role, &tu.Ordinal, &tu.Spelling,
			&tu.Modification, &tu.TargetKind, &tu.TargetEntityID, &tu.TargetName); err != nil {
			return nil, fmt.Errorf("scan type use: %w", err)
		}
		uses = append(uses, tu)
	}
	return uses, rows.Err()
}

func (s *Store) TypeUsesByEntity(entityID int64) ([]*TypeUse, error) {
	return s.queryTypeUses(
		"SELECT "+typeUseCols+" FROM type_uses WHERE entity_id = ? ORDER BY role, ordinal", entityID,
	)
}

func (s *Store) TypeUsesByTarget(entityID int64) ([]*TypeUse, error) {
	return s.queryTypeUses(
		"SELECT "+typeUseCols+" FROM type_uses WHERE target_entity_id = ? ORDER BY entity_id", entityID,
	)
}

// --- Tx-level inserts shared by Store and CommitBatch ---

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// execID runs an INSERT and returns the new row ID.
func execID(db execer, what, query string, args ...any) (int64, error) {
	res, err := db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", what, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func insertFileTx(db execer, f *File) (int64, error) {
	id, err := execID(db, "file",
		"INSERT INTO files (path, hash, has_errors, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Hash, f.HasErrors, f.LastIndexed,
	)
	f.ID = id
	return id, err
}

func insertScopeTx(db execer, sc *Scope) (int64, error) {
	id, err := execID(db, "scope",
		"INSERT INTO scopes (namespace, path, named, parent_scope_id) VALUES (?, ?, ?, ?)",
		sc.Namespace, sc.Path, sc.Named, sc.ParentScopeID,
	)
	sc.ID = id
	return id, err
}

func insertUsingDirectiveTx(db execer, u *UsingDirective) (int64, error) {
	id, err := execID(db, "using directive",
		"INSERT INTO using_directives (scope_id, target_scope_id) VALUES (?, ?)",
		u.ScopeID, u.TargetScopeID,
	)
	u.ID = id
	return id, err
}

func insertEntityTx(db execer, e *Entity) (int64, error) {
	id, err := execID(db, "entity",
		`INSERT INTO entities (file_id, scope_id, inner_scope_id, parent_entity_id, name, kind,
			qualified_name, is_declaration, is_template, is_specialisation, modifiers,
			type_expr, value, line, col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.FileID, e.ScopeID, e.InnerScopeID, e.ParentEntityID, e.Name, e.Kind,
		e.QualifiedName, e.IsDeclaration, e.IsTemplate, e.IsSpecialisation, marshalModifiers(e.Modifiers),
		e.TypeExpr, e.Value, e.Line, e.Col,
	)
	e.ID = id
	return id, err
}

func insertTypeUseTx(db execer, tu *TypeUse) (int64, error) {
	id, err := execID(db, "type use",
		`INSERT INTO type_uses (entity_id, role, ordinal, spelling, modification, target_kind, target_entity_id, target_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tu.EntityID, tu.Role, tu.Ordinal, tu.Spelling, tu.Modification, tu.TargetKind, tu.TargetEntityID, tu.TargetName,
	)
	tu.ID = id
	return id, err
}
