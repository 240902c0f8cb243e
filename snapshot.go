package cppmodel

import (
	"fmt"
	"os"
	"strings"

	"github.com/jward/cppmodel/internal/store"
)

// Snapshot reads a model previously written by Engine.Export. It answers
// from the database alone; nothing is re-parsed. IDs in its results are
// snapshot row IDs, not model handles.
type Snapshot struct {
	store *store.Store
	paths map[int64]string
}

// OpenSnapshot opens the snapshot at path. The file must already exist.
func OpenSnapshot(path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cppmodel: snapshot %s: %w", path, err)
	}
	s, err := store.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: open snapshot: %w", err)
	}
	return &Snapshot{store: s}, nil
}

func (s *Snapshot) Close() error {
	return s.store.Close()
}

// SnapshotSummary describes a snapshot as a whole.
type SnapshotSummary struct {
	ExportedAt string         `json:"exported_at,omitempty"`
	Skipped    string         `json:"skipped,omitempty"`
	Ambiguous  string         `json:"ambiguous,omitempty"`
	Counts     map[string]int `json:"counts"`
	Files      []string       `json:"files"`
}

// TypeUseView is one written type of a stored entity and what it resolved to.
type TypeUseView struct {
	EntityID     int64  `json:"entity_id"`
	Role         string `json:"role"`
	Ordinal      int    `json:"ordinal"`
	Spelling     string `json:"spelling"`
	Modification string `json:"modification,omitempty"`
	TargetKind   string `json:"target_kind"`
	TargetID     int64  `json:"target_id,omitempty"`
	TargetName   string `json:"target_name,omitempty"`
}

// EntityDetail is a stored entity with its members, type uses and families.
type EntityDetail struct {
	Entity          EntityView    `json:"entity"`
	Children        []EntityView  `json:"children,omitempty"`
	Uses            []TypeUseView `json:"uses,omitempty"`
	UsedBy          []TypeUseView `json:"used_by,omitempty"`
	Overloads       []EntityView  `json:"overloads,omitempty"`
	Specialisations []EntityView  `json:"specialisations,omitempty"`
}

// Dependents lists what would be affected by a change to Targets: the
// entities whose written types name one of them and the files declaring
// those entities.
type Dependents struct {
	Targets  []EntityView `json:"targets"`
	Entities []EntityView `json:"entities"`
	Files    []string     `json:"files"`
}

// ScopeView is one stored lexicon node.
type ScopeView struct {
	Path   string   `json:"path"`
	Named  bool     `json:"named"`
	Parent string   `json:"parent,omitempty"`
	Using  []string `json:"using,omitempty"`
}

func (s *Snapshot) Summary() (*SnapshotSummary, error) {
	counts, err := s.store.Counts()
	if err != nil {
		return nil, fmt.Errorf("cppmodel: %w", err)
	}
	sum := &SnapshotSummary{Counts: counts}
	for key, dst := range map[string]*string{
		"exported_at": &sum.ExportedAt,
		"skipped":     &sum.Skipped,
		"ambiguous":   &sum.Ambiguous,
	} {
		if *dst, err = s.store.GetMetadata(key); err != nil {
			return nil, fmt.Errorf("cppmodel: metadata %s: %w", key, err)
		}
	}
	files, err := s.store.Files()
	if err != nil {
		return nil, fmt.Errorf("cppmodel: %w", err)
	}
	sum.Files = make([]string, 0, len(files))
	for _, f := range files {
		sum.Files = append(sum.Files, f.Path)
	}
	return sum, nil
}

// Lookup returns every stored entity called name. A name containing "::"
// is matched against qualified names, anything else against plain names.
func (s *Snapshot) Lookup(name string) ([]EntityView, error) {
	rows, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return s.views(rows)
}

func (s *Snapshot) lookup(name string) ([]*store.Entity, error) {
	name = strings.TrimPrefix(name, "::")
	var (
		rows []*store.Entity
		err  error
	)
	if strings.Contains(name, "::") {
		rows, err = s.store.EntitiesByQualifiedName(name)
	} else {
		rows, err = s.store.EntitiesByName(name)
	}
	if err != nil {
		return nil, fmt.Errorf("cppmodel: lookup %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("lookup %s: %w", name, ErrNotFound)
	}
	return rows, nil
}

// Entities returns every stored entity of kind, e.g. "struct" or "function".
func (s *Snapshot) Entities(kind string) ([]EntityView, error) {
	rows, err := s.store.EntitiesByKind(kind)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: entities %s: %w", kind, err)
	}
	return s.views(rows)
}

// FileEntities returns the entities declared in the file stored as path.
func (s *Snapshot) FileEntities(path string) ([]EntityView, error) {
	f, err := s.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: file %s: %w", path, err)
	}
	if f == nil {
		return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	rows, err := s.store.EntitiesByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: file %s: %w", path, err)
	}
	return s.views(rows)
}

// Detail returns one EntityDetail per entity name denotes.
func (s *Snapshot) Detail(name string) ([]EntityDetail, error) {
	rows, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]EntityDetail, 0, len(rows))
	for _, row := range rows {
		d, err := s.detail(row)
		if err != nil {
			return nil, fmt.Errorf("cppmodel: detail %s: %w", name, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Snapshot) detail(row *store.Entity) (EntityDetail, error) {
	var d EntityDetail
	var err error
	if d.Entity, err = s.view(row); err != nil {
		return d, err
	}

	children, err := s.store.EntityChildren(row.ID)
	if err != nil {
		return d, err
	}
	if d.Children, err = s.views(children); err != nil {
		return d, err
	}

	uses, err := s.store.TypeUsesByEntity(row.ID)
	if err != nil {
		return d, err
	}
	d.Uses = typeUseViews(uses)
	usedBy, err := s.store.TypeUsesByTarget(row.ID)
	if err != nil {
		return d, err
	}
	d.UsedBy = typeUseViews(usedBy)

	overloads, err := s.store.OverloadsOf(row.ID)
	if err != nil {
		return d, err
	}
	if d.Overloads, err = s.views(overloads); err != nil {
		return d, err
	}
	specs, err := s.store.SpecialisationsOf(row.ID)
	if err != nil {
		return d, err
	}
	d.Specialisations, err = s.views(specs)
	return d, err
}

// Dependents returns the blast radius of the entities name denotes.
func (s *Snapshot) Dependents(name string) (*Dependents, error) {
	rows, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	out := &Dependents{Entities: []EntityView{}, Files: []string{}}
	if out.Targets, err = s.views(rows); err != nil {
		return nil, err
	}
	userIDs, err := s.store.EntitiesUsingTypes(ids)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: dependents %s: %w", name, err)
	}
	for _, id := range userIDs {
		row, err := s.store.EntityByID(id)
		if err != nil {
			return nil, fmt.Errorf("cppmodel: dependents %s: %w", name, err)
		}
		if row == nil {
			continue
		}
		v, err := s.view(row)
		if err != nil {
			return nil, err
		}
		out.Entities = append(out.Entities, v)
	}

	fileIDs, err := s.store.FilesUsingTypes(ids)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: dependents %s: %w", name, err)
	}
	paths, err := s.filePaths()
	if err != nil {
		return nil, err
	}
	for _, id := range fileIDs {
		if p, ok := paths[id]; ok {
			out.Files = append(out.Files, p)
		}
	}
	return out, nil
}

// Scope returns the stored scope at path ("" is the global namespace)
// together with the scopes its using directives bring in.
func (s *Snapshot) Scope(path string) (*ScopeView, error) {
	path = strings.TrimPrefix(path, "::")
	sc, err := s.store.ScopeByPath(path)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: scope %s: %w", path, err)
	}
	if sc == nil {
		return nil, fmt.Errorf("scope %s: %w", path, ErrNotFound)
	}
	v := &ScopeView{Path: sc.Path, Named: sc.Named}
	if sc.ParentScopeID != nil {
		parent, err := s.scopePath(*sc.ParentScopeID)
		if err != nil {
			return nil, err
		}
		v.Parent = parent
	}
	targets, err := s.store.UsingTargets(sc.ID)
	if err != nil {
		return nil, fmt.Errorf("cppmodel: scope %s: %w", path, err)
	}
	for _, id := range targets {
		p, err := s.scopePath(id)
		if err != nil {
			return nil, err
		}
		v.Using = append(v.Using, p)
	}
	return v, nil
}

func (s *Snapshot) scopePath(id int64) (string, error) {
	sc, err := s.store.ScopeByID(id)
	if err != nil {
		return "", fmt.Errorf("cppmodel: %w", err)
	}
	if sc == nil {
		return "", fmt.Errorf("cppmodel: scope %d missing from snapshot", id)
	}
	return sc.Path, nil
}

// filePaths maps file IDs to paths, loading them once.
func (s *Snapshot) filePaths() (map[int64]string, error) {
	if s.paths != nil {
		return s.paths, nil
	}
	files, err := s.store.Files()
	if err != nil {
		return nil, fmt.Errorf("cppmodel: %w", err)
	}
	s.paths = make(map[int64]string, len(files))
	for _, f := range files {
		s.paths[f.ID] = f.Path
	}
	return s.paths, nil
}

func (s *Snapshot) view(row *store.Entity) (EntityView, error) {
	v := EntityView{
		ID:               row.ID,
		Kind:             row.Kind,
		Name:             row.Name,
		QualifiedName:    row.QualifiedName,
		Line:             row.Line,
		Column:           row.Col,
		IsDeclaration:    row.IsDeclaration,
		IsTemplate:       row.IsTemplate,
		IsSpecialisation: row.IsSpecialisation,
		Type:             row.TypeExpr,
		Modifiers:        strings.Join(row.Modifiers, " "),
		Value:            row.Value,
	}
	if row.FileID != nil {
		paths, err := s.filePaths()
		if err != nil {
			return v, err
		}
		v.File = paths[*row.FileID]
	}
	return v, nil
}

func (s *Snapshot) views(rows []*store.Entity) ([]EntityView, error) {
	out := make([]EntityView, 0, len(rows))
	for _, row := range rows {
		v, err := s.view(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func typeUseViews(uses []*store.TypeUse) []TypeUseView {
	var out []TypeUseView
	for _, u := range uses {
		v := TypeUseView{
			EntityID:     u.EntityID,
			Role:         u.Role,
			Ordinal:      u.Ordinal,
			Spelling:     u.Spelling,
			Modification: u.Modification,
			TargetKind:   u.TargetKind,
			TargetName:   u.TargetName,
		}
		if u.TargetEntityID != nil {
			v.TargetID = *u.TargetEntityID
		}
		out = append(out, v)
	}
	return out
}
