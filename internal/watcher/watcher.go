package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/backdrops/internal/metadata"
	"github.com/Aman-CERP/backdrops/internal/metrics"
)

// Operation represents a filesystem operation type.
type Operation int

const (
	// OpCreate indicates a folder or metadata file appeared.
	OpCreate Operation = iota
	// OpModify indicates a metadata file was written.
	OpModify
	// OpDelete indicates a folder or metadata file was removed.
	OpDelete
	// OpRename indicates a folder or metadata file was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event is a filesystem change relevant to the catalog.
type Event struct {
	// Path is the absolute path of the folder or metadata file.
	Path string

	// Root is the root directory the path belongs to.
	Root string

	Operation Operation

	IsDir bool

	Timestamp time.Time
}

// PassFunc runs one reconciliation pass.
type PassFunc func(ctx context.Context) error

// DefaultDebounce is the quiet window used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Options configures the watcher.
type Options struct {
	// Debounce is the quiet window before a batch triggers a pass.
	// Default: 2s
	Debounce time.Duration

	Logger *slog.Logger
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Watcher triggers passes when background roots change.
type Watcher struct {
	roots  []string
	opts   Options
	logger *slog.Logger

	// OnBatch, if set, is called with every batch before a pass is
	// scheduled for it.
	OnBatch func([]Event)
}

// New creates a watcher over the given root directories.
// Empty entries are ignored.
func New(roots []string, opts Options) *Watcher {
	opts = opts.WithDefaults()
	clean := make([]string, 0, len(roots))
	seen := make(map[string]struct{}, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		r = filepath.Clean(r)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		clean = append(clean, r)
	}
	return &Watcher{roots: clean, opts: opts, logger: opts.Logger}
}

// Roots returns the directories being watched.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Run watches until ctx is cancelled, calling pass once per debounced
// batch. Passes never overlap: batches that arrive while a pass runs are
// folded into one follow-up pass. Run waits for an in-flight pass before
// returning. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context, pass PassFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, root := range w.roots {
		n, err := w.addRoot(fw, root)
		if err != nil {
			w.logger.Warn("root not watched",
				slog.String("root", root),
				slog.String("error", err.Error()))
			continue
		}
		watched += n
	}
	w.logger.Info("watching backgrounds",
		slog.Int("roots", len(w.roots)),
		slog.Int("directories", watched),
		slog.Duration("debounce", w.opts.Debounce))

	d := NewDebouncer(w.opts.Debounce)
	defer d.Stop()

	var (
		done    = make(chan error, 1)
		running bool
		follow  bool
	)
	start := func() {
		running = true
		metrics.WatchPasses.Inc()
		go func() { done <- pass(ctx) }()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if e, keep := w.translate(fw, ev); keep {
				metrics.WatchEvents.Inc()
				d.Add(e)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case batch, ok := <-d.Output():
			if !ok {
				return nil
			}
			w.logger.Debug("change batch", slog.Int("events", len(batch)))
			if w.OnBatch != nil {
				w.OnBatch(batch)
			}
			if running {
				follow = true
				continue
			}
			start()

		case err := <-done:
			running = false
			if err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Warn("watch pass failed", slog.String("error", err.Error()))
			}
			if follow && ctx.Err() == nil {
				follow = false
				start()
			}
		}
	}
}

// addRoot watches root and each visible subdirectory, returning the
// number of directories added.
func (w *Watcher) addRoot(fw *fsnotify.Watcher, root string) (int, error) {
	if err := fw.Add(root); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return 1, nil
	}
	n := 1
	for _, e := range entries {
		if hidden(e.Name()) {
			continue
		}
		full := filepath.Join(root, e.Name())
		if !isDir(full) {
			continue
		}
		if err := fw.Add(full); err != nil {
			w.logger.Debug("folder not watched",
				slog.String("path", full),
				slog.String("error", err.Error()))
			continue
		}
		n++
	}
	return n, nil
}

// translate maps an fsnotify event to an Event, dropping changes that
// cannot affect the catalog. New folders are added to the watch list.
func (w *Watcher) translate(fw *fsnotify.Watcher, ev fsnotify.Event) (Event, bool) {
	name := filepath.Clean(ev.Name)
	if hidden(filepath.Base(name)) {
		return Event{}, false
	}

	parent := filepath.Dir(name)
	root, depth := w.locate(parent)
	switch depth {
	case 1:
		// folder directly under a root
	case 2:
		if filepath.Base(name) != metadata.FileName {
			return Event{}, false
		}
	default:
		return Event{}, false
	}

	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&fsnotify.Remove != 0:
		op = OpDelete
	case ev.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return Event{}, false
	}

	dir := depth == 1 && op == OpCreate && isDir(name)
	if dir {
		if err := fw.Add(name); err != nil {
			w.logger.Debug("folder not watched",
				slog.String("path", name),
				slog.String("error", err.Error()))
		}
	}
	if depth == 1 && op == OpModify {
		return Event{}, false
	}

	return Event{
		Path:      name,
		Root:      root,
		Operation: op,
		IsDir:     depth == 1,
		Timestamp: time.Now(),
	}, true
}

// locate reports which root dir is under and how deep: 1 when dir is the
// root itself, 2 when dir is a folder directly inside it.
func (w *Watcher) locate(dir string) (string, int) {
	for _, root := range w.roots {
		if dir == root {
			return root, 1
		}
		if filepath.Dir(dir) == root && !strings.HasPrefix(filepath.Base(dir), ".") {
			return root, 2
		}
	}
	return "", 0
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
