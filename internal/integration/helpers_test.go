package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/config"
	"github.com/Aman-CERP/backdrops/internal/logging"
	"github.com/Aman-CERP/backdrops/internal/query"
	"github.com/Aman-CERP/backdrops/internal/reconcile"
	"github.com/Aman-CERP/backdrops/internal/relocate"
	"github.com/Aman-CERP/backdrops/internal/scanner"
)

// system is a fully wired set of components over temp directories.
type system struct {
	home     string
	primary  string
	settings *config.Store
	store    *catalog.Store
	engine   *reconcile.Engine
	query    *query.Engine
	relocate *relocate.Service
}

func newSystem(t *testing.T, external ...string) *system {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BACKDROPS_BACKGROUNDS_DIR", "")
	t.Setenv("BACKDROPS_DATA_DIR", "")

	primary := filepath.Join(home, "backgrounds")
	data := filepath.Join(home, "data")
	require.NoError(t, os.MkdirAll(primary, 0o755))

	cfgPath := filepath.Join(home, "config.yaml")
	yaml := fmt.Sprintf("paths:\n  backgrounds: %s\n  data_dir: %s\n", primary, data)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	settings, err := config.OpenStore(cfgPath)
	require.NoError(t, err)
	if len(external) > 0 {
		require.NoError(t, settings.SaveSettings(config.Partial{ExternalPaths: &external}))
	}

	store := catalog.NewStore(data)
	_, err = store.Init()
	require.NoError(t, err)

	sc, err := scanner.New()
	require.NoError(t, err)

	q, err := query.New(store, 16)
	require.NoError(t, err)

	logger := logging.Discard()
	engine := reconcile.New(store, settings, sc,
		reconcile.WithWidth(4),
		reconcile.WithLogger(logger),
		reconcile.WithObserver(func(res reconcile.Result) {
			if res.Written {
				q.Invalidate()
			}
		}),
	)

	return &system{
		home:     home,
		primary:  primary,
		settings: settings,
		store:    store,
		engine:   engine,
		query:    q,
		relocate: relocate.New(settings, store, relocate.WithLogger(logger)),
	}
}

func writeFolder(t *testing.T, root, folder, record string) {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bg.json"), []byte(record), 0o644))
}

func (s *system) load(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := s.store.Load()
	require.NoError(t, err)
	return c
}
