package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/indexer"
	"github.com/Aman-CERP/backdrops/internal/metadata"
	"github.com/Aman-CERP/backdrops/internal/metrics"
	"github.com/Aman-CERP/backdrops/internal/scanner"
)

// Engine runs reconciliation passes, one at a time.
type Engine struct {
	store    *catalog.Store
	settings Settings
	scanner  *scanner.Scanner
	width    int
	now      func() time.Time
	logger   *slog.Logger

	observers []func(Result)

	mu     sync.Mutex
	active bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWidth sets the index read pool width.
func WithWidth(n int) Option {
	return func(e *Engine) { e.width = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver registers fn to run after every pass that wrote the catalog.
func WithObserver(fn func(Result)) Option {
	return func(e *Engine) { e.observers = append(e.observers, fn) }
}

// New creates an Engine.
func New(store *catalog.Store, settings Settings, sc *scanner.Scanner, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		settings: settings,
		scanner:  sc,
		width:    indexer.DefaultWidth,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pass is one reconciliation run between Begin and Commit or Abort.
type Pass struct {
	engine  *Engine
	trigger Trigger
	start   time.Time

	roots   identifier.Roots
	allowed map[string]struct{}
	loaded  *catalog.Catalog
	added   identifier.Set
	removed identifier.Set

	decision *Decision
	policy   Policy
	closed   bool
}

// Begin loads the catalog and scans the roots. The returned pass holds the
// catalog lock until Commit or Abort. A concurrent pass, in this process or
// another, fails with ErrPassInFlight.
func (e *Engine) Begin(ctx context.Context, trigger Trigger) (*Pass, error) {
	start := e.now()

	// Checked before locking so a missing catalog leaves the data directory
	// untouched.
	if !e.store.Exists() {
		err := errors.CatalogUnavailable(e.store.Path(), os.ErrNotExist)
		metrics.ObservePass(e.now().Sub(start), 0, 0, 0, 0, 0, false, err)
		return nil, err
	}

	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return nil, errors.New(errors.ErrCodePassInFlight, "a reindex pass is already running", nil)
	}
	ok, err := e.store.Lock().TryLock()
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("begin pass: %w", err)
	}
	if !ok {
		e.mu.Unlock()
		return nil, errors.New(errors.ErrCodePassInFlight, "another process holds the catalog lock", nil).
			WithDetail("lock", e.store.Lock().Path())
	}
	e.active = true
	e.mu.Unlock()

	p := &Pass{engine: e, trigger: trigger, start: start, policy: PolicySaved}

	loaded, err := e.store.Load()
	if err != nil {
		p.release()
		metrics.ObservePass(e.now().Sub(start), 0, 0, 0, 0, 0, false, err)
		return nil, err
	}
	p.loaded = loaded
	p.roots = e.settings.Roots()
	p.allowed = e.settings.AllowedTags()

	current, scanErrs := e.scanner.Enumerate(ctx, p.roots)
	scanErrs.Log(e.logger, "root_scan_failed")
	if err := ctx.Err(); err != nil {
		p.release()
		return nil, err
	}

	known := loaded.IDs()
	p.added = current.Minus(known)
	p.removed = known.Minus(current)

	if p.added.Len() > 0 && trigger.RootAdded() {
		p.decision = &Decision{
			Title: fmt.Sprintf("%d backgrounds found in the added folder. "+
				"Treat them as new (indexed now) or keep their saved dates?", p.added.Len()),
			Labels: []string{string(PolicyNew), string(PolicySaved)},
			Added:  p.added.Len(),
		}
	}

	e.logger.Debug("reindex_begin",
		slog.Int("known", known.Len()),
		slog.Int("current", current.Len()),
		slog.Int("added", p.added.Len()),
		slog.Int("removed", p.removed.Len()),
		slog.Bool("decision_pending", p.decision != nil))

	return p, nil
}

// Decision returns the pending choice, or nil.
func (p *Pass) Decision() *Decision {
	return p.decision
}

// Policy returns the import policy in effect.
func (p *Pass) Policy() Policy {
	return p.policy
}

// Resolve answers the pending decision with one of its labels.
func (p *Pass) Resolve(label string) error {
	if p.decision == nil {
		return fmt.Errorf("no decision pending")
	}
	policy, err := ParsePolicy(label)
	if err != nil {
		return err
	}
	p.policy = policy
	p.decision = nil
	return nil
}

// Abort ends the pass without writing anything.
func (p *Pass) Abort() {
	p.release()
}

func (p *Pass) release() {
	if p.closed {
		return
	}
	p.closed = true
	if err := p.engine.store.Lock().Unlock(); err != nil {
		p.engine.logger.Warn("catalog_unlock_failed", slog.String("error", err.Error()))
	}
	p.engine.mu.Lock()
	p.engine.active = false
	p.engine.mu.Unlock()
}

// Commit applies the pass and ends it. With a decision still pending it
// fails with ErrDecisionPending and the pass stays open.
func (p *Pass) Commit(ctx context.Context) (Result, error) {
	if p.closed {
		return Result{}, fmt.Errorf("pass already finished")
	}
	if p.decision != nil {
		return Result{}, errors.New(errors.ErrCodeDecisionPending,
			"import policy has not been chosen", nil)
	}
	defer p.release()

	e := p.engine
	res, err := p.apply(ctx)
	metrics.ObservePass(e.now().Sub(p.start), res.Added, res.Removed, res.Moved, res.Unreadable, res.Total, res.Written, err)
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("reindex_complete",
		slog.Int("added", res.Added),
		slog.Int("removed", res.Removed),
		slog.Int("moved", res.Moved),
		slog.Int("unreadable", res.Unreadable),
		slog.Bool("written", res.Written),
		slog.Duration("duration", e.now().Sub(p.start)))

	if res.Written {
		for _, fn := range e.observers {
			fn(res)
		}
	}
	return res, nil
}

func (p *Pass) apply(ctx context.Context) (Result, error) {
	e := p.engine
	now := e.now()
	next := p.loaded.Clone()
	var res Result

	added := p.added.Sorted()
	removed := p.removed.Sorted()
	records := p.readRecords(added)

	// Moves
	pairs := pairMoves(added, removed)
	for _, pr := range pairs {
		ts := p.loaded.Backgrounds[pr.from]
		if rec := records[pr.to]; rec != nil && metadata.ValidTimestamp(rec.Local.Indexed, now) {
			ts = rec.Local.Indexed
		}
		delete(next.Backgrounds, pr.from)
		next.Backgrounds[pr.to] = ts
		p.writeIndexed(pr.to, records[pr.to], ts)

		e.logger.Debug("background_moved",
			slog.String("from", string(pr.from)),
			slog.String("to", string(pr.to)))
		res.Moved++
	}

	paired := identifier.NewSet()
	for _, pr := range pairs {
		paired.Add(pr.from)
		paired.Add(pr.to)
	}

	// Imports
	for _, id := range added {
		if paired.Contains(id) {
			continue
		}
		ts := now.Unix()
		if rec := records[id]; p.policy == PolicySaved && rec != nil && metadata.ValidTimestamp(rec.Local.Indexed, now) {
			ts = rec.Local.Indexed
		}
		next.Backgrounds[id] = ts
		p.writeIndexed(id, records[id], ts)
		res.Added++
	}

	// Deletions
	for _, id := range removed {
		if paired.Contains(id) {
			continue
		}
		delete(next.Backgrounds, id)
		res.Removed++
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	buildStart := time.Now()
	builder := indexer.New(p.roots, e.width)
	idx, buildErrs, err := builder.Build(ctx, next.IDs().Sorted(), p.allowed)
	if err != nil {
		return Result{}, err
	}
	metrics.ObserveIndexBuild(time.Since(buildStart), min(builder.Width(), len(next.Backgrounds)))
	buildErrs.Log(e.logger, "metadata_unreadable")
	res.Unreadable = buildErrs.Count(errors.ErrCodeRecordUnreadable)

	next.Tags = idx.Tags
	next.Names = idx.Names
	next.ExternalRoots = slices.Clone(p.roots.External)
	if next.ExternalRoots == nil {
		next.ExternalRoots = []string{}
	}
	res.Total = len(next.Backgrounds)

	if catalog.Equal(p.loaded, next) {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := e.store.Save(next); err != nil {
		return Result{}, err
	}
	res.Written = true
	return res, nil
}

// readRecords reads the metadata of ids. Unreadable records map to nil.
func (p *Pass) readRecords(ids []identifier.ID) map[identifier.ID]*metadata.Record {
	out := make(map[identifier.ID]*metadata.Record, len(ids))
	for _, id := range ids {
		dir, err := p.roots.Resolve(id)
		if err != nil {
			out[id] = nil
			continue
		}
		rec, err := metadata.Read(dir)
		if err != nil {
			p.engine.logger.Debug("metadata_read_failed",
				slog.String("id", string(id)),
				slog.String("error", err.Error()))
		}
		out[id] = rec
	}
	return out
}

// writeIndexed brings local.indexed in line with ts. A record that could
// not be read is left as it is. Failures are logged and do not abort the
// pass.
func (p *Pass) writeIndexed(id identifier.ID, rec *metadata.Record, ts int64) {
	if rec == nil {
		p.engine.logger.Debug("indexed_writeback_skipped", slog.String("id", string(id)))
		return
	}
	if rec.Local.Indexed == ts {
		return
	}
	dir, err := p.roots.Resolve(id)
	if err == nil {
		err = metadata.SetIndexed(dir, ts)
	}
	if err != nil {
		werr := errors.New(errors.ErrCodeRecordWrite, "failed to write indexed time", err).
			WithDetail("id", string(id))
		p.engine.logger.Warn("indexed_writeback_failed", slog.Any("error", errors.FormatForLog(werr)))
	}
}

// Reindex runs a full pass, asking ui for the import policy when one is
// needed and notifying it when the catalog was written. ui may be nil, in
// which case a pending decision resolves to "saved".
func (e *Engine) Reindex(ctx context.Context, trigger Trigger, ui UI) (Result, error) {
	p, err := e.Begin(ctx, trigger)
	if err != nil {
		return Result{}, err
	}

	if d := p.Decision(); d != nil {
		label := string(PolicySaved)
		if ui != nil {
			label, err = ui.Choose(ctx, d.Title, d.Labels)
			if err != nil {
				p.Abort()
				return Result{}, fmt.Errorf("import policy prompt: %w", err)
			}
		}
		if err := p.Resolve(label); err != nil {
			p.Abort()
			return Result{}, err
		}
	}

	res, err := p.Commit(ctx)
	if err != nil {
		return Result{}, err
	}
	if res.Written && ui != nil {
		ui.CatalogChanged(res.Summary())
	}
	return res, nil
}
