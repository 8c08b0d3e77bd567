package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("instruction", "£50M share capital")
	assert.Equal(t, k1, CacheKey("instruction", "£50M share capital"))
	assert.NotEqual(t, k1, CacheKey("instruction", "£60M share capital"))
	assert.NotEqual(t, CacheKey("ab", "c"), CacheKey("a", "bc"))
	assert.Contains(t, k1, "ownfunds:v1:")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("x")

	require.NoError(t, c.Set(key, []byte(`{"facts":[]}`), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, `{"facts":[]}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting a missing key is not an error")
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	require.NoError(t, c.Set("k", []byte("v"), -time.Second))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := CacheKey("scenario")

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, first.Set(key, []byte("payload"), 0))

	// Fresh process: empty memory, same directory
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := second.Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))

	inMemory, ok := second.layers[0].Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(inMemory))
}

// failingCache accepts reads but refuses every write
type failingCache struct{ *MemoryCache }

var errReadOnly = errors.New("read-only layer")

func (f *failingCache) Set(string, []byte, time.Duration) error { return errReadOnly }
func (f *failingCache) Clear() error                            { return errReadOnly }

func TestLayeredCache_BackfillsUpperLayers(t *testing.T) {
	top := NewMemoryCache(time.Minute, time.Minute)
	middle := NewMemoryCache(time.Minute, time.Minute)
	bottom := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("scenario")
	require.NoError(t, bottom.Set(key, []byte("payload"), 0))

	c := NewLayered(top, nil, middle, bottom)
	require.Len(t, c.layers, 3)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))
	assert.Equal(t, 1, top.Len())
	assert.Equal(t, 1, middle.Len())

	require.NoError(t, c.Delete(key))
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestLayeredCache_WritesPastFailingLayer(t *testing.T) {
	broken := &failingCache{MemoryCache: NewMemoryCache(time.Minute, time.Minute)}
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayered(broken, disk)
	key := CacheKey("scenario")

	err := c.Set(key, []byte("payload"), 0)
	assert.ErrorIs(t, err, errReadOnly)

	got, ok := disk.Get(key)
	require.True(t, ok, "lower layer still written")
	assert.Equal(t, "payload", string(got))

	assert.ErrorIs(t, c.Clear(), errReadOnly)
	_, ok = disk.Get(key)
	assert.False(t, ok, "lower layer still cleared")
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(model.CacheConfig{}))

	mem := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute})
	assert.IsType(t, &MemoryCache{}, mem)

	layered := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute, Dir: t.TempDir(), DiskTTL: time.Hour})
	assert.IsType(t, &LayeredCache{}, layered)
}
