// Package indexer rebuilds the tag and name indices from metadata records.
package indexer

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/metadata"
)

// DefaultWidth is the read pool width when none is configured.
const DefaultWidth = 50

// Indices are the derived lookup tables stored in the catalog.
type Indices struct {
	// Tags maps a lower-cased allowed tag to ids.
	Tags map[string][]identifier.ID
	// Names maps an exact public name to ids.
	Names map[string][]identifier.ID
}

// ReadFunc reads the metadata record in a folder.
type ReadFunc func(dir string) (*metadata.Record, error)

// Builder reads records through a bounded worker pool.
type Builder struct {
	roots identifier.Roots
	width int
	read  ReadFunc
}

// Option configures a Builder.
type Option func(*Builder)

// WithReader replaces the record reader.
func WithReader(fn ReadFunc) Option {
	return func(b *Builder) { b.read = fn }
}

// New creates a Builder resolving ids against roots. Width < 1 means
// DefaultWidth.
func New(roots identifier.Roots, width int, opts ...Option) *Builder {
	if width < 1 {
		width = DefaultWidth
	}
	b := &Builder{roots: roots, width: width, read: metadata.Read}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Width returns the pool width.
func (b *Builder) Width() int {
	return b.width
}

type partial struct {
	tags  map[string][]identifier.ID
	names map[string][]identifier.ID
}

// Build reads every id's record and returns the indices. Unreadable records
// are collected and excluded; only a cancelled context fails the build.
// The result does not depend on the pool width.
func (b *Builder) Build(ctx context.Context, ids []identifier.ID, allowed map[string]struct{}) (Indices, *errors.Collector, error) {
	start := time.Now()
	errs := errors.NewCollector()

	workers := min(b.width, len(ids))
	parts := make([]partial, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.width)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			p := partial{
				tags:  map[string][]identifier.ID{},
				names: map[string][]identifier.ID{},
			}
			for i := w; i < len(ids); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				b.collect(ids[i], allowed, p, errs)
			}
			parts[w] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Indices{}, errs, err
	}

	idx := merge(parts)
	slog.Debug("index_build_complete",
		slog.Int("ids", len(ids)),
		slog.Int("workers", workers),
		slog.Int("tags", len(idx.Tags)),
		slog.Int("names", len(idx.Names)),
		slog.Int("unreadable", errs.Len()),
		slog.Duration("duration", time.Since(start)))

	return idx, errs, nil
}

func (b *Builder) collect(id identifier.ID, allowed map[string]struct{}, p partial, errs *errors.Collector) {
	dir, err := b.roots.Resolve(id)
	if err != nil {
		errs.Add(errors.RecordUnreadable(string(id), err))
		return
	}
	rec, err := b.read(dir)
	if err != nil {
		errs.Add(errors.RecordUnreadable(string(id), err))
		return
	}

	for _, tag := range rec.Tags() {
		if _, ok := allowed[tag]; ok {
			p.tags[tag] = append(p.tags[tag], id)
		}
	}
	if rec.Public.Name != "" {
		p.names[rec.Public.Name] = append(p.names[rec.Public.Name], id)
	}
}

func merge(parts []partial) Indices {
	idx := Indices{
		Tags:  map[string][]identifier.ID{},
		Names: map[string][]identifier.ID{},
	}
	for _, p := range parts {
		for k, ids := range p.tags {
			idx.Tags[k] = append(idx.Tags[k], ids...)
		}
		for k, ids := range p.names {
			idx.Names[k] = append(idx.Names[k], ids...)
		}
	}
	for k, ids := range idx.Tags {
		idx.Tags[k] = slices.Compact(catalog.SortIDs(ids))
	}
	for k, ids := range idx.Names {
		idx.Names[k] = slices.Compact(catalog.SortIDs(ids))
	}
	return idx
}

// NormalizeTags lower-cases and trims tag names, dropping empties.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
