package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/metadata"
)

// makeBackground creates root/folder/bg.json.
func makeBackground(t *testing.T, root, folder string) {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(metadata.Path(dir), []byte(`{"public":{}}`), 0o644))
}

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestEnumerate_AllRoots(t *testing.T) {
	// Given: a primary, legacy default and two external roots
	base := t.TempDir()
	roots := identifier.Roots{
		Primary:  filepath.Join(base, "primary"),
		Default:  filepath.Join(base, "default"),
		External: []string{filepath.Join(base, "ext0"), filepath.Join(base, "ext1")},
	}
	makeBackground(t, roots.Primary, "sunset")
	makeBackground(t, roots.Default, "forest")
	makeBackground(t, roots.External[0], "beach")
	makeBackground(t, roots.External[1], "city")

	// When: enumerating
	got, errs := newScanner(t).Enumerate(context.Background(), roots)

	// Then: every folder is found with the right identifier shape
	assert.Equal(t, 0, errs.Len())
	assert.Equal(t, []identifier.ID{"default::forest", "ext::0::beach", "ext::1::city", "sunset"}, got.Sorted())
}

func TestEnumerate_SkipsNonCandidates(t *testing.T) {
	root := t.TempDir()
	makeBackground(t, root, "keep")
	makeBackground(t, root, ".hidden")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-record"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "loose.json"), []byte("{}"), 0o644))

	got, errs := newScanner(t).Enumerate(context.Background(), identifier.Roots{Primary: root})

	assert.Equal(t, 0, errs.Len())
	assert.Equal(t, []identifier.ID{"keep"}, got.Sorted())
}

func TestEnumerate_ReservedFolderNames(t *testing.T) {
	// Given: primary folders named like identifiers of other roots
	base := t.TempDir()
	roots := identifier.Roots{
		Primary: filepath.Join(base, "primary"),
		Default: filepath.Join(base, "default"),
	}
	makeBackground(t, roots.Primary, "sunset")
	makeBackground(t, roots.Primary, "default::sky")
	makeBackground(t, roots.Primary, "ext::0::sea")
	makeBackground(t, roots.Primary, "ext::x::sea")
	makeBackground(t, roots.Default, "ext::1::lake")

	// When: enumerating
	got, errs := newScanner(t).Enumerate(context.Background(), roots)

	// Then: the ambiguous primary folders are reported, not cataloged
	assert.Equal(t, []identifier.ID{"default::ext::1::lake", "sunset"}, got.Sorted())
	assert.Equal(t, 3, errs.Count(errors.ErrCodeFolderNameReserved))
	for _, id := range got.Sorted() {
		_, err := roots.Resolve(id)
		assert.NoError(t, err, id)
	}
}

func TestEnumerate_MissingRootsSkipped(t *testing.T) {
	base := t.TempDir()
	roots := identifier.Roots{
		Primary:  filepath.Join(base, "not-yet"),
		External: []string{filepath.Join(base, "unplugged"), filepath.Join(base, "ext1")},
	}
	makeBackground(t, roots.External[1], "city")

	got, errs := newScanner(t).Enumerate(context.Background(), roots)

	assert.Equal(t, 0, errs.Len())
	assert.Equal(t, []identifier.ID{"ext::1::city"}, got.Sorted())
}

func TestEnumerate_UnreadableRootCollected(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	base := t.TempDir()
	locked := filepath.Join(base, "locked")
	makeBackground(t, locked, "secret")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, errs := newScanner(t).Enumerate(context.Background(), identifier.Roots{
		Primary:  filepath.Join(base, "primary"),
		External: []string{locked},
	})

	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 1, errs.Count(errors.ErrCodeRootUnreadable))
}

func TestEnumerate_Cancelled(t *testing.T) {
	root := t.TempDir()
	makeBackground(t, root, "sunset")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, errs := newScanner(t).Enumerate(ctx, identifier.Roots{Primary: root})
	assert.Equal(t, 0, got.Len())
	assert.ErrorIs(t, errs.Err(), context.Canceled)
}

func TestRootExists_Cached(t *testing.T) {
	s := newScanner(t)
	dir := filepath.Join(t.TempDir(), "late")

	assert.False(t, s.RootExists(dir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	assert.False(t, s.RootExists(dir), "cached probe")

	s.InvalidateProbes()
	assert.True(t, s.RootExists(dir))
}
