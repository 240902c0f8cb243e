package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_AssignsFakeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	id1, err := batch.InsertEntity(&Entity{Name: "Foo", Kind: "class", QualifiedName: "Foo"})
	require.NoError(t, err)
	assert.Negative(t, id1, "batched IDs should be negative")

	id2, err := batch.InsertScope(&Scope{Namespace: "Foo", Path: "Foo"})
	require.NoError(t, err)
	assert.Negative(t, id2)
	assert.NotEqual(t, id1, id2)

	assert.Len(t, batch.Entities, 1)
	assert.Len(t, batch.Scopes, 1)
}

func TestCommitBatch_RemapsReferences(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore()

	f := &File{Path: "/a.hpp", Hash: "h"}
	_, err := batch.InsertFile(f)
	require.NoError(t, err)

	root := &Scope{Namespace: "", Path: "", Named: true}
	_, err = batch.InsertScope(root)
	require.NoError(t, err)
	a := &Scope{ParentScopeID: &root.ID, Namespace: "a", Path: "a", Named: true}
	_, err = batch.InsertScope(a)
	require.NoError(t, err)
	_, err = batch.InsertUsingDirective(&UsingDirective{ScopeID: root.ID, TargetScopeID: a.ID})
	require.NoError(t, err)

	c := &Entity{FileID: &f.ID, ScopeID: &a.ID, Name: "C", Kind: "class", QualifiedName: "a::C"}
	_, err = batch.InsertEntity(c)
	require.NoError(t, err)
	x := &Entity{FileID: &f.ID, ParentEntityID: &c.ID, Name: "x", Kind: "field", QualifiedName: "a::C::x"}
	_, err = batch.InsertEntity(x)
	require.NoError(t, err)
	_, err = batch.InsertTypeUse(&TypeUse{EntityID: x.ID, Role: "type", Spelling: "C*", TargetKind: "entity", TargetEntityID: &c.ID})
	require.NoError(t, err)
	_, err = batch.InsertOverload(&Overload{EntityID: c.ID, MemberEntityID: c.ID})
	require.NoError(t, err)
	_, err = batch.InsertSpecialisation(&Specialisation{PrimaryEntityID: c.ID, SpecialisationEntityID: x.ID})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["files"])
	assert.Equal(t, 2, counts["scopes"])
	assert.Equal(t, 1, counts["using_directives"])
	assert.Equal(t, 2, counts["entities"])
	assert.Equal(t, 1, counts["type_uses"])

	cs, err := s.EntitiesByQualifiedName("a::C")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Positive(t, cs[0].ID)

	children, err := s.EntityChildren(cs[0].ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "x", children[0].Name)

	deps, err := s.EntitiesUsingTypes([]int64{cs[0].ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{children[0].ID}, deps)

	sc, err := s.ScopeByPath("a")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, *cs[0].ScopeID, sc.ID)
}

func TestCommitBatch_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore()
	_, err := batch.InsertFile(&File{Path: "/dup.hpp"})
	require.NoError(t, err)
	_, err = batch.InsertFile(&File{Path: "/dup.hpp"})
	require.NoError(t, err)

	require.Error(t, s.CommitBatch(batch))

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Zero(t, counts["files"])
}
