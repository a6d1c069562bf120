// cache_test.go
package tern

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DiskCache_StoreAndLookup(t *testing.T) {
	cache := NewDiskCache(t.TempDir())
	ctx := context.Background()
	key := "/some/canonical/target.tern"
	hash := sourceHash(`+40 + +2`)
	expr := norm(t, `+40 + +2`)

	_, ok := cache.Lookup(ctx, key, hash)
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, cache.Store(ctx, key, hash, expr))

	got, ok := cache.Lookup(ctx, key, hash)
	require.True(t, ok)
	assert.Equal(t, `+42`, Render(got))
}

func Test_DiskCache_HashMismatchMisses(t *testing.T) {
	cache := NewDiskCache(t.TempDir())
	ctx := context.Background()
	key := "/target.tern"

	require.NoError(t, cache.Store(ctx, key, sourceHash(`+1`), norm(t, `+1`)))

	// The upstream source changed, so the entry is stale.
	_, ok := cache.Lookup(ctx, key, sourceHash(`+2`))
	assert.False(t, ok)

	// The original hash still hits.
	_, ok = cache.Lookup(ctx, key, sourceHash(`+1`))
	assert.True(t, ok)
}

func Test_DiskCache_KeysDoNotCollide(t *testing.T) {
	cache := NewDiskCache(t.TempDir())
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, "/a.tern", sourceHash(`+1`), norm(t, `+1`)))
	require.NoError(t, cache.Store(ctx, "/b.tern", sourceHash(`+2`), norm(t, `+2`)))

	a, ok := cache.Lookup(ctx, "/a.tern", sourceHash(`+1`))
	require.True(t, ok)
	b, ok := cache.Lookup(ctx, "/b.tern", sourceHash(`+2`))
	require.True(t, ok)
	assert.Equal(t, `+1`, Render(a))
	assert.Equal(t, `+2`, Render(b))
}

func Test_DiskCache_CorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	cache := NewDiskCache(dir)
	ctx := context.Background()
	key := "/c.tern"
	hash := sourceHash(`True`)

	require.NoError(t, cache.Store(ctx, key, hash, norm(t, `True`)))

	// Corrupt the single entry file on disk.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("not json"), 0o644))

	_, ok := cache.Lookup(ctx, key, hash)
	assert.False(t, ok)
}

func Test_SourceHash_Stable(t *testing.T) {
	assert.Equal(t, sourceHash("abc"), sourceHash("abc"))
	assert.NotEqual(t, sourceHash("abc"), sourceHash("abd"))
	assert.Len(t, sourceHash(""), 64)
}
