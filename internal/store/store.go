package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for model snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Tables lists the snapshot tables in dependency order.
var Tables = []string{
	"files", "scopes", "using_directives", "entities",
	"type_uses", "overloads", "specialisations", "metadata",
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT,
  has_errors      BOOLEAN DEFAULT FALSE,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scopes (
  id              INTEGER PRIMARY KEY,
  namespace       TEXT NOT NULL,
  path            TEXT NOT NULL,
  named           BOOLEAN DEFAULT TRUE,
  parent_scope_id INTEGER REFERENCES scopes(id)
);

CREATE TABLE IF NOT EXISTS using_directives (
  id              INTEGER PRIMARY KEY,
  scope_id        INTEGER NOT NULL REFERENCES scopes(id),
  target_scope_id INTEGER NOT NULL REFERENCES scopes(id)
);

CREATE TABLE IF NOT EXISTS entities (
  id                INTEGER PRIMARY KEY,
  file_id           INTEGER REFERENCES files(id),
  scope_id          INTEGER REFERENCES scopes(id),
  inner_scope_id    INTEGER REFERENCES scopes(id),
  parent_entity_id  INTEGER REFERENCES entities(id),
  name              TEXT NOT NULL,
  kind              TEXT NOT NULL,
  qualified_name    TEXT NOT NULL,
  is_declaration    BOOLEAN DEFAULT FALSE,
  is_template       BOOLEAN DEFAULT FALSE,
  is_specialisation BOOLEAN DEFAULT FALSE,
  modifiers         TEXT,
  type_expr         TEXT,
  value             TEXT,
  line              INTEGER,
  col               INTEGER
);

CREATE TABLE IF NOT EXISTS type_uses (
  id               INTEGER PRIMARY KEY,
  entity_id        INTEGER NOT NULL REFERENCES entities(id),
  role             TEXT NOT NULL,
  ordinal          INTEGER NOT NULL DEFAULT 0,
  spelling         TEXT NOT NULL,
  modification     TEXT,
  target_kind      TEXT NOT NULL,
  target_entity_id INTEGER REFERENCES entities(id),
  target_name      TEXT
);

CREATE TABLE IF NOT EXISTS overloads (
  id               INTEGER PRIMARY KEY,
  entity_id        INTEGER NOT NULL REFERENCES entities(id),
  member_entity_id INTEGER NOT NULL REFERENCES entities(id)
);

CREATE TABLE IF NOT EXISTS specialisations (
  id                       INTEGER PRIMARY KEY,
  primary_entity_id        INTEGER NOT NULL REFERENCES entities(id),
  specialisation_entity_id INTEGER NOT NULL REFERENCES entities(id),
  suffix                   TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT
);

CREATE INDEX IF NOT EXISTS idx_scopes_parent ON scopes(parent_scope_id);
CREATE INDEX IF NOT EXISTS idx_using_scope ON using_directives(scope_id);
CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(file_id);
CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_entities_qname ON entities(qualified_name);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);
CREATE INDEX IF NOT EXISTS idx_entities_scope ON entities(scope_id);
CREATE INDEX IF NOT EXISTS idx_entities_parent ON entities(parent_entity_id);
CREATE INDEX IF NOT EXISTS idx_type_uses_entity ON type_uses(entity_id);
CREATE INDEX IF NOT EXISTS idx_type_uses_target ON type_uses(target_entity_id);
CREATE INDEX IF NOT EXISTS idx_overloads_entity ON overloads(entity_id);
CREATE INDEX IF NOT EXISTS idx_specialisations_primary ON specialisations(primary_entity_id);
`

// Clear transactionally removes every row from every table. Deletes in
// reverse-dependency order to respect FK constraints.
func (s *Store) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := len(Tables) - 1; i >= 0; i-- {
		if Tables[i] == "entities" {
			// parent_entity_id is self-referential.
			if _, err := tx.Exec("UPDATE entities SET parent_entity_id = NULL"); err != nil {
				return fmt.Errorf("clear entities: %w", err)
			}
		}
		if Tables[i] == "scopes" {
			if _, err := tx.Exec("UPDATE scopes SET parent_scope_id = NULL"); err != nil {
				return fmt.Errorf("clear scopes: %w", err)
			}
		}
		if _, err := tx.Exec("DELETE FROM " + Tables[i]); err != nil {
			return fmt.Errorf("clear %s: %w", Tables[i], err)
		}
	}
	return tx.Commit()
}

// Counts returns the number of rows in each table.
func (s *Store) Counts() (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
