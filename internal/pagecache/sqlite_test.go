package pagecache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "pages.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	body, hit, err := c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, body)

	require.NoError(t, c.Put(ctx, "https://example.com/a", []byte("<html>a</html>")))

	body, hit, err = c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("<html>a</html>"), body)
}

func TestPut_ReplacesExisting(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "u", []byte("old")))
	require.NoError(t, c.Put(ctx, "u", []byte("new")))

	body, hit, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("new"), body)
}

func TestGet_ExpiredEntryMisses(t *testing.T) {
	c := newTestCache(t, -time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "u", []byte("stale")))

	_, hit, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDeleteExpired(t *testing.T) {
	c := newTestCache(t, -time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", []byte("1")))
	require.NoError(t, c.Put(ctx, "b", []byte("2")))

	n, err := c.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")

	c1, err := New(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c1.Put(context.Background(), "u", []byte("kept")))
	require.NoError(t, c1.Close())

	c2, err := New(path, time.Hour)
	require.NoError(t, err)
	defer c2.Close()

	body, hit, err := c2.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("kept"), body)
}
