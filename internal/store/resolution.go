package store

import (
	"database/sql"
	"fmt"
)

// --- Overload operations ---

func (s *Store) InsertOverload(o *Overload) (int64, error) {
	return insertOverloadTx(s.db, o)
}

// OverloadsOf returns the overload family recorded for entityID.
func (s *Store) OverloadsOf(entityID int64) ([]*Entity, error) {
	return s.queryEntities(
		`SELECT `+prefixed("e", EntityCols)+` FROM overloads o
		 JOIN entities e ON e.id = o.member_entity_id
		 WHERE o.entity_id = ? ORDER BY e.id`, entityID,
	)
}

// --- Specialisation operations ---

func (s *Store) InsertSpecialisation(sp *Specialisation) (int64, error) {
	return insertSpecialisationTx(s.db, sp)
}

// SpecialisationsOf returns the specialisations recorded for a primary
// template.
func (s *Store) SpecialisationsOf(primaryID int64) ([]*Entity, error) {
	return s.queryEntities(
		`SELECT `+prefixed("e", EntityCols)+` FROM specialisations sp
		 JOIN entities e ON e.id = sp.specialisation_entity_id
		 WHERE sp.primary_entity_id = ? ORDER BY e.id`, primaryID,
	)
}

// --- Metadata ---

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata returns "" when key is absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return v, nil
}

func insertOverloadTx(db execer, o *Overload) (int64, error) {
	id, err := execID(db, "overload",
		"INSERT INTO overloads (entity_id, member_entity_id) VALUES (?, ?)",
		o.EntityID, o.MemberEntityID,
	)
	o.ID = id
	return id, err
}

func insertSpecialisationTx(db execer, sp *Specialisation) (int64, error) {
	id, err := execID(db, "specialisation",
		"INSERT INTO specialisations (primary_entity_id, specialisation_entity_id, suffix) VALUES (?, ?, ?)",
		sp.PrimaryEntityID, sp.SpecialisationEntityID, sp.Suffix,
	)
	sp.ID = id
	return id, err
}
