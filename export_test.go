package cppmodel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppmodel/internal/store"
)

func exported(t *testing.T, e *Engine) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "model.db")
	require.NoError(t, e.Export(context.Background(), dbPath))
	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func only(t *testing.T, s *store.Store, qname string, keep func(*store.Entity) bool) *store.Entity {
	t.Helper()
	found, err := s.EntitiesByQualifiedName(qname)
	require.NoError(t, err)
	var out []*store.Entity
	for _, e := range found {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	require.Len(t, out, 1, qname)
	return out[0]
}

func TestExport_Snapshot(t *testing.T) {
	t.Parallel()
	s := exported(t, indexed(t, geoSource))

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["files"])
	assert.Positive(t, counts["entities"])
	assert.Positive(t, counts["scopes"])

	f, err := s.FileByPath("geo.hpp")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, store.ContentHash([]byte(geoSource)), f.Hash)

	point := only(t, s, "geo::Point", nil)
	assert.Equal(t, "struct", point.Kind)
	require.NotNil(t, point.FileID)
	assert.Equal(t, f.ID, *point.FileID)

	children, err := s.EntityChildren(point.ID)
	require.NoError(t, err)
	assert.Len(t, children, 2)

	sc, err := s.ScopeByPath("geo::Point")
	require.NoError(t, err)
	require.NotNil(t, sc)
	require.NotNil(t, point.InnerScopeID)
	assert.Equal(t, sc.ID, *point.InnerScopeID)

	v, err := s.GetMetadata("exported_at")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestExport_TypeUsesAndFamilies(t *testing.T) {
	t.Parallel()
	s := exported(t, indexed(t, geoSource))
	point := only(t, s, "geo::Point", nil)

	uses, err := s.TypeUsesByTarget(point.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(uses), 3, "three distance arguments name Point")
	for _, u := range uses {
		assert.Equal(t, "entity", u.TargetKind)
	}

	users, err := s.EntitiesUsingTypes([]int64{point.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, users)

	distances, err := s.EntitiesByQualifiedName("geo::distance")
	require.NoError(t, err)
	require.Len(t, distances, 2)
	family, err := s.OverloadsOf(distances[0].ID)
	require.NoError(t, err)
	assert.Len(t, family, 2)

	primary := only(t, s, "geo::Traits", func(e *store.Entity) bool { return !e.IsSpecialisation })
	assert.True(t, primary.IsTemplate)
	specs, err := s.SpecialisationsOf(primary.ID)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.True(t, specs[0].IsSpecialisation)
}

func TestExport_ReplacesPreviousSnapshot(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "model.db")
	ctx := context.Background()
	require.NoError(t, indexed(t, geoSource).Export(ctx, dbPath))
	require.NoError(t, indexed(t, "struct Only {};").Export(ctx, dbPath))

	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	defer s.Close()
	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["entities"])
}
