package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
)

func writeCatalog(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestLoad_Missing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load()
	assert.ErrorIs(t, err, errors.ErrCatalogUnavailable)
	assert.True(t, errors.IsFatal(err))
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"not json", "{backgrounds"},
		{"array", "[]"},
		{"null", "null"},
		{"backgrounds missing", `{"tags": {}}`},
		{"backgrounds null", `{"backgrounds": null}`},
		{"backgrounds array", `{"backgrounds": []}`},
		{"backgrounds string timestamps", `{"backgrounds": {"a": "yesterday"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCatalog(t, dir, tt.content)

			_, err := NewStore(dir).Load()
			assert.ErrorIs(t, err, errors.ErrCatalogCorrupt)
		})
	}
}

func TestLoad_ToleratesMalformedIndices(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, `{"backgrounds": {"sunset": 1700000000}, "tags": "oops", "names": {"Sunset": ["sunset"]}}`)

	c, err := NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), c.Backgrounds["sunset"])
	assert.Empty(t, c.Tags)
	assert.Equal(t, []identifier.ID{"sunset"}, c.Names["Sunset"])
	assert.Empty(t, c.ExternalRoots)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	c := New()
	c.Backgrounds["sunset"] = 1700000000
	c.Backgrounds["ext::0::beach"] = 1600000000
	c.Tags["landscape"] = []identifier.ID{"sunset", "ext::0::beach"}
	c.Names["Sunset"] = []identifier.ID{"sunset"}
	c.ExternalRoots = []string{"/mnt/a"}

	require.NoError(t, store.Save(c))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.True(t, Equal(c, loaded))
	assert.Equal(t, []identifier.ID{"ext::0::beach", "sunset"}, loaded.Tags["landscape"], "id lists are stored sorted")

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"backgrounds\": {")
}

func TestSave_Deterministic(t *testing.T) {
	store := NewStore(t.TempDir())
	c := New()
	c.Backgrounds["b"] = 2
	c.Backgrounds["a"] = 1
	c.Tags["space"] = []identifier.ID{"b", "a"}

	require.NoError(t, store.Save(c))
	first, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(loaded))
	second, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "data"))

	created, err := store.Init()
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Init()
	require.NoError(t, err)
	assert.False(t, created)

	c, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, c.Backgrounds)
}

func TestReplace(t *testing.T) {
	c := New()
	c.Backgrounds["sunset"] = 10
	c.Tags["landscape"] = []identifier.ID{"a", "sunset"}
	c.Names["Sunset"] = []identifier.ID{"sunset"}

	assert.True(t, c.Replace("sunset", "ext::0::sunset"))
	assert.Equal(t, map[identifier.ID]int64{"ext::0::sunset": 10}, c.Backgrounds)
	assert.Equal(t, []identifier.ID{"a", "ext::0::sunset"}, c.Tags["landscape"])
	assert.Equal(t, []identifier.ID{"ext::0::sunset"}, c.Names["Sunset"])

	assert.False(t, c.Replace("missing", "x"))
}

func TestEqual(t *testing.T) {
	a := New()
	a.Backgrounds["x"] = 1
	a.Tags["space"] = []identifier.ID{"x", "y"}

	b := a.Clone()
	b.Tags["space"] = []identifier.ID{"y", "x"}
	assert.True(t, Equal(a, b), "list order does not matter")

	b.Backgrounds["x"] = 2
	assert.False(t, MembershipEqual(a, b))
	assert.True(t, IndicesEqual(a, b))

	c := a.Clone()
	c.ExternalRoots = []string{"/mnt/a"}
	assert.False(t, Equal(a, c))
}

func TestStamp_ChangesOnSave(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(New()))
	first, err := store.Stamp()
	require.NoError(t, err)

	c := New()
	c.Backgrounds["sunset"] = 1
	require.NoError(t, store.Save(c))
	second, err := store.Stamp()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestFileLock(t *testing.T) {
	dir := t.TempDir()
	lock := NewFileLock(dir)

	ok, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	// Same instance, second holder
	ok, err = lock.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)

	// Separate instance, as another process would hold it
	other := NewFileLock(dir)
	ok, err = other.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.Error(t, other.Lock(ctx))

	require.NoError(t, lock.Unlock())
	require.NoError(t, lock.Unlock(), "unlock when not held is a no-op")

	require.NoError(t, other.Lock(context.Background()))
	require.NoError(t, other.Unlock())
}
