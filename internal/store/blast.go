package store

import "fmt"

// EntitiesUsingTypes returns the IDs of entities whose written types resolve
// to any of the given entities: the declarations affected when those types
// change.
func (s *Store) EntitiesUsingTypes(entityIDs []int64) ([]int64, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT entity_id FROM type_uses
		WHERE target_entity_id IN (` + placeholderList(len(entityIDs)) + `)
		ORDER BY entity_id`
	return s.queryIDs("entities using types", query, int64sToArgs(entityIDs)...)
}

// FilesUsingTypes returns the IDs of files declaring an entity whose written
// types resolve to any of the given entities.
func (s *Store) FilesUsingTypes(entityIDs []int64) ([]int64, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT e.file_id
		FROM type_uses tu
		JOIN entities e ON e.id = tu.entity_id
		WHERE tu.target_entity_id IN (` + placeholderList(len(entityIDs)) + `)
		AND e.file_id IS NOT NULL
		ORDER BY e.file_id`
	return s.queryIDs("files using types", query, int64sToArgs(entityIDs)...)
}

func (s *Store) queryIDs(what, query string, args ...any) ([]int64, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
