// Package scanner enumerates background folders under the configured
// storage roots.
//
// A candidate is an immediate, non-hidden subdirectory of a root that holds
// a metadata record. Roots are scanned in order: primary, legacy default,
// then each external root.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/metadata"
)

// probeCacheSize bounds the root existence cache.
const probeCacheSize = 128

// Scanner discovers background folders.
type Scanner struct {
	// probes caches whether a root directory exists, keyed by path.
	// Purged at the start of every Enumerate.
	probes  *lru.Cache[string, bool]
	probeMu sync.Mutex
}

// New creates a new Scanner instance.
func New() (*Scanner, error) {
	cache, err := lru.New[string, bool](probeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create root probe cache: %w", err)
	}
	return &Scanner{probes: cache}, nil
}

// Enumerate lists every background identifier under roots. Missing roots
// are skipped; unreadable roots are skipped and recorded in the returned
// collector. The context is checked between roots.
func (s *Scanner) Enumerate(ctx context.Context, roots identifier.Roots) (identifier.Set, *errors.Collector) {
	s.InvalidateProbes()

	found := identifier.NewSet()
	errs := errors.NewCollector()

	for _, ref := range roots.Refs() {
		if err := ctx.Err(); err != nil {
			errs.Add(err)
			break
		}

		dir, err := roots.RootDir(ref)
		if err != nil {
			continue
		}
		if !s.RootExists(dir) {
			if ref.Kind == identifier.KindPrimary {
				slog.Debug("primary_root_missing", slog.String("path", dir))
			}
			continue
		}

		folders, err := listFolders(dir)
		if err != nil {
			errs.Add(errors.New(errors.ErrCodeRootUnreadable,
				fmt.Sprintf("cannot read root %s", dir), err).
				WithDetail("root", ref.String()))
			continue
		}
		for _, folder := range folders {
			loc := identifier.Location{Kind: ref.Kind, Index: ref.Index, Folder: folder}
			id := identifier.Encode(loc)
			// A primary folder named like "default::x" would decode to
			// another root.
			if back, err := identifier.Decode(id); err != nil || back != loc {
				errs.Add(errors.New(errors.ErrCodeFolderNameReserved,
					fmt.Sprintf("folder %s in %s has a reserved name", folder, dir), err).
					WithDetail("root", ref.String()).
					WithDetail("folder", folder).
					WithSuggestion("Rename the folder so it does not start with 'default::' or 'ext::'"))
				continue
			}
			found.Add(id)
		}
	}

	return found, errs
}

// listFolders returns the names of non-hidden subdirectories of dir that
// contain a metadata record.
func listFolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !isDir(dir, e) {
			continue
		}
		if metadata.Exists(filepath.Join(dir, name)) {
			out = append(out, name)
		}
	}
	return out, nil
}

// isDir follows symlinks so a linked background folder still counts.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

// RootExists reports whether dir is an existing directory, consulting the
// probe cache first.
func (s *Scanner) RootExists(dir string) bool {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if ok, hit := s.probes.Get(dir); hit {
		return ok
	}
	info, err := os.Stat(dir)
	ok := err == nil && info.IsDir()
	s.probes.Add(dir, ok)
	return ok
}

// InvalidateProbes clears the root existence cache.
func (s *Scanner) InvalidateProbes() {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()
	s.probes.Purge()
}
