// Package relocate moves background folders between storage roots and
// patches the catalog to follow.
package relocate

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/metadata"
	"github.com/Aman-CERP/backdrops/internal/metrics"
)

// DefaultMaxSuffix bounds the _<N> names tried for a free target folder.
const DefaultMaxSuffix = 1000

// Settings supplies the configured roots.
type Settings interface {
	Roots() identifier.Roots
}

// Service moves backgrounds. Leftover source folders that could not be
// deleted are retried in the background; Wait blocks until those finish.
type Service struct {
	settings  Settings
	store     *catalog.Store
	logger    *slog.Logger
	retry     errors.RetryConfig
	maxSuffix int

	rename    func(src, dst string) error
	removeAll func(path string) error

	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRetry sets the leftover cleanup backoff.
func WithRetry(cfg errors.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// WithMaxSuffix bounds the collision-free names tried.
func WithMaxSuffix(n int) Option {
	return func(s *Service) { s.maxSuffix = n }
}

// WithFS replaces the rename and recursive delete primitives.
func WithFS(rename func(src, dst string) error, removeAll func(string) error) Option {
	return func(s *Service) {
		if rename != nil {
			s.rename = rename
		}
		if removeAll != nil {
			s.removeAll = removeAll
		}
	}
}

// New creates a Service. store may be nil, in which case the catalog is
// left for the next reindex to pick the move up.
func New(settings Settings, store *catalog.Store, opts ...Option) *Service {
	s := &Service{
		settings:  settings,
		store:     store,
		logger:    slog.Default(),
		retry:     errors.DefaultRetryConfig(),
		maxSuffix: DefaultMaxSuffix,
		rename:    os.Rename,
		removeAll: os.RemoveAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Move relocates id into the target root and returns its new identifier.
// Fails with ErrMoveSourceMissing, ErrMoveTargetRootUnknown or
// ErrMoveTargetExists without touching anything.
func (s *Service) Move(ctx context.Context, id identifier.ID, target identifier.RootRef) (identifier.ID, error) {
	roots := s.settings.Roots()

	src, loc, err := resolveSource(roots, id)
	if err != nil {
		return "", err
	}

	targetRoot, err := roots.RootDir(target)
	if err == nil && !isDir(targetRoot) {
		err = fmt.Errorf("%s does not exist", targetRoot)
	}
	if err != nil {
		return "", errors.New(errors.ErrCodeMoveTargetRootUnknown,
			fmt.Sprintf("target root %s is not available", target), err).
			WithDetail("target", target.String())
	}
	if target == loc.Root() {
		return "", errors.New(errors.ErrCodeMoveTargetExists,
			fmt.Sprintf("%s already lives in %s", id, target), nil).
			WithDetail("id", string(id))
	}

	folder, err := s.freeName(targetRoot, loc.Folder)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(targetRoot, folder)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := s.transfer(ctx, src, dst); err != nil {
		metrics.ObserveMove("failed")
		return "", err
	}

	newID := identifier.Encode(identifier.Location{Kind: target.Kind, Index: target.Index, Folder: folder})
	s.logger.Info("background_moved",
		slog.String("from", string(id)),
		slog.String("to", string(newID)))

	s.updateCatalog(ctx, id, newID)
	return newID, nil
}

func resolveSource(roots identifier.Roots, id identifier.ID) (string, identifier.Location, error) {
	missing := func(cause error) error {
		return errors.New(errors.ErrCodeMoveSourceMissing,
			fmt.Sprintf("background %s not found", id), cause).
			WithDetail("id", string(id))
	}

	loc, err := identifier.Decode(id)
	if err != nil {
		return "", loc, missing(err)
	}
	src, err := roots.Dir(loc)
	if err != nil {
		return "", loc, missing(err)
	}
	if !isDir(src) {
		return "", loc, missing(fmt.Errorf("%s does not exist", src))
	}
	return src, loc, nil
}

// freeName returns folder, or folder_1, folder_2, ... whichever is free
// under root.
func (s *Service) freeName(root, folder string) (string, error) {
	candidate := folder
	for n := 1; ; n++ {
		if _, err := os.Lstat(filepath.Join(root, candidate)); os.IsNotExist(err) {
			return candidate, nil
		}
		if n > s.maxSuffix {
			break
		}
		candidate = folder + "_" + strconv.Itoa(n)
	}
	return "", errors.New(errors.ErrCodeMoveTargetExists,
		fmt.Sprintf("no free folder name for %s in %s", folder, root), nil).
		WithDetail("folder", folder)
}

// transfer renames src to dst, falling back to copy then delete. A failed
// delete does not fail the move; the leftover is retried in the background.
func (s *Service) transfer(ctx context.Context, src, dst string) error {
	renameErr := s.rename(src, dst)
	if renameErr == nil {
		metrics.ObserveMove("rename")
		return nil
	}

	s.logger.Debug("rename_failed_copying",
		slog.String("src", src),
		slog.String("error", renameErr.Error()))

	if err := copyTree(ctx, src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("failed to copy %s", src), stderrors.Join(renameErr, err))
	}
	metrics.ObserveMove("copy")

	if err := s.removeSource(src); err != nil {
		s.logger.Warn("source_cleanup_deferred",
			slog.String("path", src),
			slog.String("error", err.Error()))
		s.scheduleCleanup(context.WithoutCancel(ctx), src)
	}
	return nil
}

// removeSource deletes a copied-away source folder. bg.json goes first so
// a folder that cannot be fully removed is no longer a background.
func (s *Service) removeSource(path string) error {
	if err := os.Remove(metadata.Path(path)); err != nil && !os.IsNotExist(err) {
		s.logger.Debug("source_record_remove_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
	return s.removeAll(path)
}

func (s *Service) scheduleCleanup(ctx context.Context, path string) {
	cfg := s.retry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		metrics.CleanupRetries.Inc()
		s.logger.Debug("source_cleanup_retry",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := errors.Retry(ctx, cfg, func() error { return s.removeSource(path) })
		if err == nil {
			s.logger.Debug("source_cleanup_done", slog.String("path", path))
			return
		}
		metrics.CleanupFailures.Inc()
		exhausted := errors.New(errors.ErrCodeCleanupRetryExhausted,
			fmt.Sprintf("leftover folder %s could not be removed", path), err).
			WithDetail("path", path)
		s.logger.Warn("source_cleanup_exhausted", slog.Any("error", errors.FormatForLog(exhausted)))
	}()
}

// Wait blocks until background cleanups finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// updateCatalog swaps the id in the catalog under the catalog lock. The
// folder has already moved, so failures are logged and the next reindex
// repairs the catalog through move detection.
func (s *Service) updateCatalog(ctx context.Context, oldID, newID identifier.ID) {
	if s.store == nil {
		return
	}
	if !s.store.Exists() {
		s.logger.Debug("catalog_update_skipped", slog.String("reason", "no catalog"))
		return
	}
	lock := s.store.Lock()
	if err := lock.Lock(ctx); err != nil {
		s.logger.Warn("catalog_update_skipped", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = lock.Unlock() }()

	c, err := s.store.Load()
	if err != nil {
		s.logger.Warn("catalog_update_skipped", slog.Any("error", errors.FormatForLog(err)))
		return
	}
	if !c.Replace(oldID, newID) {
		return
	}
	if err := s.store.Save(c); err != nil {
		s.logger.Warn("catalog_update_failed", slog.String("error", err.Error()))
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
