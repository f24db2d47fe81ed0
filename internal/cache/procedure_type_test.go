package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/testutil"
	"github.com/tutordesk/tutordesk/internal/types"
)

func TestCachedProcedureRepository_GetType(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewInMemoryProcedureStore()
	repo := NewCachedProcedureRepository(store, NewInMemoryCache())

	for i := 0; i < 3; i++ {
		pt, err := repo.GetType(ctx, types.ProcedureTypeContracting)
		require.NoError(t, err)
		assert.Equal(t, "ptype_contracting", pt.ID)
	}
	assert.Equal(t, 1, store.TypeLookups())

	// misses are not cached
	_, err := repo.GetType(ctx, types.ProcedureTypeCode("UNKNOWN"))
	assert.True(t, ierr.IsNotFound(err))
	_, err = repo.GetType(ctx, types.ProcedureTypeCode("UNKNOWN"))
	assert.True(t, ierr.IsNotFound(err))
	assert.Equal(t, 3, store.TypeLookups())
}

func TestCachedProcedureRepository_ListTypes(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	repo := NewCachedProcedureRepository(testutil.NewInMemoryProcedureStore(), c)

	pts, err := repo.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, pts, 5)

	cached, ok := c.Get(ctx, keyProcedureTypeList)
	require.True(t, ok)
	assert.Len(t, cached, 5)

	c.Flush(ctx)
	_, ok = c.Get(ctx, keyProcedureTypeList)
	assert.False(t, ok)
}

func TestCachedProcedureRepository_DelegatesWrites(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewInMemoryProcedureStore()
	repo := NewCachedProcedureRepository(store, NewInMemoryCache())

	_, err := repo.Get(ctx, "proc_missing")
	assert.True(t, ierr.IsNotFound(err))
}
