package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRetrieveDelete(t *testing.T) {
	m := NewMemory("/data", "/meta")
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, "/data/users/1", []byte("alice"), "a.b.c"))

	got, err := m.Retrieve(ctx, "/data/users/1", "a.b.c")
	require.NoError(t, err)
	assert.Equal(t, []byte("alice"), got)

	require.NoError(t, m.Append(ctx, "/data/users/1", []byte("!"), "a.b.c"))
	got, _ = m.Retrieve(ctx, "/data/users/1", "a.b.c")
	assert.Equal(t, []byte("alice!"), got)

	require.NoError(t, m.Delete(ctx, "/data/users/1", "a.b.c"))
	_, err = m.Retrieve(ctx, "/data/users/1", "a.b.c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListAndStat(t *testing.T) {
	m := NewMemory("/data", "/meta")
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, "/data/users/1", []byte("alice"), "a.b.c"))
	require.NoError(t, m.Store(ctx, "/data/users/2", []byte("bob"), "a.b.c"))
	require.NoError(t, m.Store(ctx, "/data/orders/9", []byte("x"), "a.b.c"))

	// Roots show up under /.
	entries, err := m.List(ctx, "/", "a.b.c")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
		assert.True(t, e.IsDir)
	}
	assert.Equal(t, []string{"data", "meta"}, names)

	entries, err = m.List(ctx, "/data/users", "a.b.c")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].Name)
	assert.False(t, entries[0].IsDir)
	assert.Equal(t, int64(5), entries[0].Size)

	_, err = m.List(ctx, "/data/nothing", "a.b.c")
	assert.ErrorIs(t, err, ErrNotFound)

	info, err := m.Stat(ctx, "/data/users", "a.b.c")
	require.NoError(t, err)
	assert.True(t, info.IsDir)

	info, err = m.Stat(ctx, "/data/users/2", "a.b.c")
	require.NoError(t, err)
	assert.False(t, info.IsDir)
	assert.Equal(t, int64(3), info.Size)

	// Storing over an implicit directory is rejected.
	assert.ErrorIs(t, m.Store(ctx, "/data/users", []byte("clobber"), "a.b.c"), ErrRejected)
}
