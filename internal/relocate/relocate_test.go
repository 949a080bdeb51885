package relocate

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/logging"
	"github.com/Aman-CERP/backdrops/internal/metadata"
)

type staticRoots identifier.Roots

func (r staticRoots) Roots() identifier.Roots { return identifier.Roots(r) }

type fixture struct {
	roots identifier.Roots
	store *catalog.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	roots := identifier.Roots{
		Primary:  filepath.Join(base, "primary"),
		External: []string{filepath.Join(base, "ext0"), filepath.Join(base, "unplugged")},
	}
	require.NoError(t, os.MkdirAll(roots.Primary, 0o755))
	require.NoError(t, os.MkdirAll(roots.External[0], 0o755))

	store := catalog.NewStore(filepath.Join(base, "data"))
	return &fixture{roots: roots, store: store}
}

func (f *fixture) service(opts ...Option) *Service {
	fast := errors.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	opts = append([]Option{WithLogger(logging.Discard()), WithRetry(fast)}, opts...)
	return New(staticRoots(f.roots), f.store, opts...)
}

func addBackground(t *testing.T, root, folder string) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "media"), 0o755))
	require.NoError(t, os.WriteFile(metadata.Path(dir), []byte(`{"public":{"name":"Sunset"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "media", "sunset.mp4"), []byte("frames"), 0o644))
	return dir
}

func seedCatalog(t *testing.T, store *catalog.Store, id identifier.ID, ts int64) {
	t.Helper()
	c := catalog.New()
	c.Backgrounds[id] = ts
	c.Tags["landscape"] = []identifier.ID{id}
	c.Names["Sunset"] = []identifier.ID{id}
	require.NoError(t, store.Save(c))
}

func TestMove_PrimaryToExternal(t *testing.T) {
	// Given: a cataloged background in the primary root
	f := newFixture(t)
	src := addBackground(t, f.roots.Primary, "sunset")
	seedCatalog(t, f.store, "sunset", 1600000000)

	// When: moving it to ext:0
	newID, err := f.service().Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})

	// Then: the folder moved and the catalog follows with the same timestamp
	require.NoError(t, err)
	assert.Equal(t, identifier.ID("ext::0::sunset"), newID)
	assert.NoDirExists(t, src)
	assert.FileExists(t, filepath.Join(f.roots.External[0], "sunset", "media", "sunset.mp4"))

	c, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[identifier.ID]int64{"ext::0::sunset": 1600000000}, c.Backgrounds)
	assert.Equal(t, []identifier.ID{"ext::0::sunset"}, c.Tags["landscape"])
	assert.Equal(t, []identifier.ID{"ext::0::sunset"}, c.Names["Sunset"])
}

func TestMove_CollisionFreeName(t *testing.T) {
	f := newFixture(t)
	addBackground(t, f.roots.Primary, "sunset")
	addBackground(t, f.roots.External[0], "sunset")
	addBackground(t, f.roots.External[0], "sunset_1")

	newID, err := f.service().Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})
	require.NoError(t, err)
	assert.Equal(t, identifier.ID("ext::0::sunset_2"), newID)
}

func TestMove_NamesExhausted(t *testing.T) {
	f := newFixture(t)
	src := addBackground(t, f.roots.Primary, "sunset")
	addBackground(t, f.roots.External[0], "sunset")
	addBackground(t, f.roots.External[0], "sunset_1")

	_, err := f.service(WithMaxSuffix(1)).Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})
	assert.ErrorIs(t, err, errors.ErrMoveTargetExists)
	assert.DirExists(t, src)
}

func TestMove_Failures(t *testing.T) {
	f := newFixture(t)
	src := addBackground(t, f.roots.Primary, "sunset")

	tests := []struct {
		name    string
		id      identifier.ID
		target  identifier.RootRef
		wantErr error
	}{
		{"source missing", "forest", identifier.RootRef{Kind: identifier.KindExternal}, errors.ErrMoveSourceMissing},
		{"source root unknown", "ext::5::sunset", identifier.RootRef{Kind: identifier.KindPrimary}, errors.ErrMoveSourceMissing},
		{"malformed id", "ext::x", identifier.RootRef{Kind: identifier.KindPrimary}, errors.ErrMoveSourceMissing},
		{"target not configured", "sunset", identifier.RootRef{Kind: identifier.KindExternal, Index: 9}, errors.ErrMoveTargetRootUnknown},
		{"target absent on disk", "sunset", identifier.RootRef{Kind: identifier.KindExternal, Index: 1}, errors.ErrMoveTargetRootUnknown},
		{"legacy root not configured", "sunset", identifier.RootRef{Kind: identifier.KindDefault}, errors.ErrMoveTargetRootUnknown},
		{"same root", "sunset", identifier.RootRef{Kind: identifier.KindPrimary}, errors.ErrMoveTargetExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service().Move(context.Background(), tt.id, tt.target)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.DirExists(t, src, "no partial state change")
		})
	}
}

func TestMove_CopyFallback(t *testing.T) {
	f := newFixture(t)
	src := addBackground(t, f.roots.Primary, "sunset")
	require.NoError(t, os.Symlink("media/sunset.mp4", filepath.Join(src, "preview.mp4")))

	crossDevice := func(string, string) error { return &os.LinkError{Op: "rename", Err: stderrors.New("invalid cross-device link")} }
	svc := f.service(WithFS(crossDevice, nil))

	newID, err := svc.Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})
	require.NoError(t, err)
	assert.Equal(t, identifier.ID("ext::0::sunset"), newID)

	dst := filepath.Join(f.roots.External[0], "sunset")
	data, err := os.ReadFile(filepath.Join(dst, "media", "sunset.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))

	link, err := os.Readlink(filepath.Join(dst, "preview.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "media/sunset.mp4", link)

	assert.True(t, metadata.Exists(dst))
	assert.NoDirExists(t, src)
}

func TestMove_DeferredCleanup(t *testing.T) {
	f := newFixture(t)
	src := addBackground(t, f.roots.Primary, "sunset")

	var calls atomic.Int32
	flakyRemove := func(path string) error {
		if calls.Add(1) <= 2 {
			return stderrors.New("file in use")
		}
		return os.RemoveAll(path)
	}
	crossDevice := func(string, string) error { return stderrors.New("cross-device") }
	svc := f.service(WithFS(crossDevice, flakyRemove))

	_, err := svc.Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})
	require.NoError(t, err, "a failed delete does not fail the move")

	svc.Wait()
	assert.NoDirExists(t, src)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMove_CleanupExhausted(t *testing.T) {
	f := newFixture(t)
	src := addBackground(t, f.roots.Primary, "sunset")

	var calls atomic.Int32
	stuck := func(string) error {
		calls.Add(1)
		return stderrors.New("file in use")
	}
	svc := f.service(WithFS(func(string, string) error { return stderrors.New("cross-device") }, stuck))

	_, err := svc.Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})
	require.NoError(t, err)

	svc.Wait()
	assert.DirExists(t, src, "leftover remains after retries")
	assert.False(t, metadata.Exists(src), "leftover is no longer a background")
	assert.Equal(t, int32(1+4), calls.Load(), "initial delete plus 1+MaxRetries cleanup attempts")
}

func TestMove_CatalogMissingIsSkipped(t *testing.T) {
	f := newFixture(t)
	addBackground(t, f.roots.Primary, "sunset")

	newID, err := f.service().Move(context.Background(), "sunset", identifier.RootRef{Kind: identifier.KindExternal})
	require.NoError(t, err)
	assert.Equal(t, identifier.ID("ext::0::sunset"), newID)
	assert.False(t, f.store.Exists())
	assert.NoFileExists(t, f.store.Lock().Path())
}

func TestMove_ExternalToPrimary(t *testing.T) {
	f := newFixture(t)
	addBackground(t, f.roots.External[0], "beach")
	seedCatalog(t, f.store, "ext::0::beach", 1500000000)

	newID, err := f.service().Move(context.Background(), "ext::0::beach", identifier.RootRef{Kind: identifier.KindPrimary})
	require.NoError(t, err)
	assert.Equal(t, identifier.ID("beach"), newID)

	c, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1500000000), c.Backgrounds["beach"])
}
