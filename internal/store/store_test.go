package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Hash: ContentHash([]byte(path)), LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

func insertTestScope(t *testing.T, s *Store, parent *int64, ns, path string) *Scope {
	t.Helper()
	sc := &Scope{ParentScopeID: parent, Namespace: ns, Path: path, Named: true}
	_, err := s.InsertScope(sc)
	require.NoError(t, err)
	return sc
}

// insertTestEntity inserts an entity with minimal required fields.
func insertTestEntity(t *testing.T, s *Store, fileID, scopeID *int64, name, kind, qname string) *Entity {
	t.Helper()
	e := &Entity{
		FileID:        fileID,
		ScopeID:       scopeID,
		Name:          name,
		Kind:          kind,
		QualifiedName: qname,
		Modifiers:     []string{"const"},
		Line:          3, Col: 1,
	}
	id, err := s.InsertEntity(e)
	require.NoError(t, err)
	require.Positive(t, id)
	return e
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range Tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Files & Scopes
// =============================================================================

func TestFileByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/a.hpp")

	got, err := s.FileByPath("/src/a.hpp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, f.Hash, got.Hash)

	missing, err := s.FileByPath("/nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertFile_UniquePath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/a.cpp")
	_, err := s.InsertFile(&File{Path: "/a.cpp"})
	assert.Error(t, err)
}

func TestScopes_UsingTargets(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	root := insertTestScope(t, s, nil, "", "")
	x := insertTestScope(t, s, &root.ID, "x", "x")
	y := insertTestScope(t, s, &root.ID, "y", "y")

	_, err := s.InsertUsingDirective(&UsingDirective{ScopeID: y.ID, TargetScopeID: x.ID})
	require.NoError(t, err)

	targets, err := s.UsingTargets(y.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{x.ID}, targets)

	got, err := s.ScopeByPath("x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, root.ID, *got.ParentScopeID)

	byID, err := s.ScopeByID(x.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "x", byID.Path)

	missing, err := s.ScopeByID(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// =============================================================================
// Entities & Type Uses
// =============================================================================

func TestEntities_Queries(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.hpp")
	root := insertTestScope(t, s, nil, "", "")

	c := insertTestEntity(t, s, &f.ID, &root.ID, "C", "class", "C")
	m := &Entity{FileID: &f.ID, ParentEntityID: &c.ID, Name: "get", Kind: "method", QualifiedName: "C::get", TypeExpr: "int"}
	_, err := s.InsertEntity(m)
	require.NoError(t, err)

	byName, err := s.EntitiesByName("C")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, []string{"const"}, byName[0].Modifiers)

	byQName, err := s.EntitiesByQualifiedName("C::get")
	require.NoError(t, err)
	require.Len(t, byQName, 1)
	assert.Equal(t, "int", byQName[0].TypeExpr)

	children, err := s.EntityChildren(c.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "get", children[0].Name)

	byKind, err := s.EntitiesByKind("method")
	require.NoError(t, err)
	assert.Len(t, byKind, 1)

	byFile, err := s.EntitiesByFile(f.ID)
	require.NoError(t, err)
	assert.Len(t, byFile, 2)

	got, err := s.EntityByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", got.QualifiedName)

	missing, err := s.EntityByID(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTypeUses_AndDependents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.hpp")
	c := insertTestEntity(t, s, &f.ID, nil, "C", "class", "C")
	v := insertTestEntity(t, s, &f.ID, nil, "v", "global_variable", "v")
	w := insertTestEntity(t, s, nil, nil, "w", "global_variable", "w")

	for _, tu := range []*TypeUse{
		{EntityID: v.ID, Role: "type", Spelling: "const C&", Modification: "const reference", TargetKind: "entity", TargetEntityID: &c.ID, TargetName: "C"},
		{EntityID: w.ID, Role: "type", Spelling: "int", TargetKind: "basic", TargetName: "int"},
	} {
		_, err := s.InsertTypeUse(tu)
		require.NoError(t, err)
	}

	uses, err := s.TypeUsesByEntity(v.ID)
	require.NoError(t, err)
	require.Len(t, uses, 1)
	assert.Equal(t, "const C&", uses[0].Spelling)
	assert.Equal(t, c.ID, *uses[0].TargetEntityID)

	byTarget, err := s.TypeUsesByTarget(c.ID)
	require.NoError(t, err)
	assert.Len(t, byTarget, 1)

	dependents, err := s.EntitiesUsingTypes([]int64{c.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{v.ID}, dependents)

	files, err := s.FilesUsingTypes([]int64{c.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{f.ID}, files)

	none, err := s.EntitiesUsingTypes(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// =============================================================================
// Resolution tables & Metadata
// =============================================================================

func TestOverloadsAndSpecialisations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f1 := insertTestEntity(t, s, nil, nil, "f", "function", "f")
	f2 := insertTestEntity(t, s, nil, nil, "f", "function", "f")
	spec := insertTestEntity(t, s, nil, nil, "f", "function", "f")

	for _, member := range []int64{f1.ID, f2.ID} {
		_, err := s.InsertOverload(&Overload{EntityID: f1.ID, MemberEntityID: member})
		require.NoError(t, err)
	}
	_, err := s.InsertSpecialisation(&Specialisation{PrimaryEntityID: f1.ID, SpecialisationEntityID: spec.ID, Suffix: "<int>"})
	require.NoError(t, err)

	overloads, err := s.OverloadsOf(f1.ID)
	require.NoError(t, err)
	require.Len(t, overloads, 2)
	assert.Equal(t, f1.ID, overloads[0].ID)
	assert.Equal(t, []string{"const"}, overloads[0].Modifiers)

	specs, err := s.SpecialisationsOf(f1.ID)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, spec.ID, specs[0].ID)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("root")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("root", "/src"))
	require.NoError(t, s.SetMetadata("root", "/src2"))
	v, err = s.GetMetadata("root")
	require.NoError(t, err)
	assert.Equal(t, "/src2", v)
}

func TestClearAndCounts(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.hpp")
	root := insertTestScope(t, s, nil, "", "")
	insertTestScope(t, s, &root.ID, "a", "a")
	c := insertTestEntity(t, s, &f.ID, &root.ID, "C", "class", "C")
	_, err := s.InsertEntity(&Entity{ParentEntityID: &c.ID, Name: "x", Kind: "field", QualifiedName: "C::x"})
	require.NoError(t, err)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["files"])
	assert.Equal(t, 2, counts["scopes"])
	assert.Equal(t, 2, counts["entities"])

	require.NoError(t, s.Clear())
	counts, err = s.Counts()
	require.NoError(t, err)
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
}

// =============================================================================
// Hashing
// =============================================================================

func TestContentHash(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("int x;"))
	assert.Len(t, a, 32)
	assert.Equal(t, a, ContentHash([]byte("int x;")))
	assert.NotEqual(t, a, ContentHash([]byte("int y;")))
}
