// Package query answers searches over the catalog: substring and operator
// queries, tag include/exclude filters and pagination.
package query

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/metrics"
)

// ErrNotInResults is returned by FindPage when the id is not part of the
// filtered list.
var ErrNotInResults = stderrors.New("background not in results")

// DefaultCacheSize is the result cache size when none is configured.
const DefaultCacheSize = 256

// Results is one page of ids plus the size of the full filtered list.
type Results struct {
	IDs   []identifier.ID
	Total int
}

// PageLocation locates an id within paged results. Page is 0-based.
type PageLocation struct {
	Page  int
	Index int
	Total int
}

// Engine answers queries from the persisted catalog. The catalog and the
// result cache are reloaded when catalog.json changes on disk or after
// Invalidate.
type Engine struct {
	store *catalog.Store

	mu       sync.Mutex
	cat      *catalog.Catalog
	stamp    catalog.Stamp
	tagsByID map[identifier.ID][]string
	nameByID map[identifier.ID][]string
	cache    *lru.Cache[string, []identifier.ID]
}

// New creates an Engine. cacheSize < 1 means DefaultCacheSize.
func New(store *catalog.Store, cacheSize int) (*Engine, error) {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []identifier.ID](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &Engine{store: store, cache: cache}, nil
}

// Invalidate drops the loaded catalog and cached results.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cat = nil
	e.cache.Purge()
}

// Search returns the ids matching text and the tag filters, newest first,
// ties broken by id.
func (e *Engine) Search(ctx context.Context, text string, include, exclude []string) ([]identifier.ID, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := Parse(text, include, exclude)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.refresh(); err != nil {
		return nil, err
	}

	key := q.key()
	if ids, ok := e.cache.Get(key); ok {
		metrics.ObserveQuery(time.Since(start), true)
		return slices.Clone(ids), nil
	}

	ids := e.filter(q)
	e.cache.Add(key, ids)
	metrics.ObserveQuery(time.Since(start), false)
	return slices.Clone(ids), nil
}

// Page returns limit ids starting at offset. limit <= 0 returns everything
// from offset.
func (e *Engine) Page(ctx context.Context, offset, limit int, text string, include, exclude []string) (Results, error) {
	ids, err := e.Search(ctx, text, include, exclude)
	if err != nil {
		return Results{}, err
	}

	total := len(ids)
	offset = max(offset, 0)
	if offset >= total {
		return Results{IDs: []identifier.ID{}, Total: total}, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return Results{IDs: ids[offset:end], Total: total}, nil
}

// FindPage returns the page holding id for the given page size.
func (e *Engine) FindPage(ctx context.Context, id identifier.ID, pageSize int, text string, include, exclude []string) (PageLocation, error) {
	ids, err := e.Search(ctx, text, include, exclude)
	if err != nil {
		return PageLocation{}, err
	}

	for i, candidate := range ids {
		if candidate != id {
			continue
		}
		loc := PageLocation{Index: i, Total: len(ids)}
		if pageSize > 0 {
			loc.Page = i / pageSize
		}
		return loc, nil
	}
	return PageLocation{Total: len(ids)}, fmt.Errorf("%w: %s", ErrNotInResults, id)
}

// refresh reloads the catalog if it changed on disk. Caller holds mu.
func (e *Engine) refresh() error {
	stamp, err := e.store.Stamp()
	if err == nil && e.cat != nil && stamp == e.stamp {
		return nil
	}

	cat, err := e.store.Load()
	if err != nil {
		e.cat = nil
		return err
	}
	e.cat = cat
	e.stamp = stamp
	e.cache.Purge()

	e.tagsByID = make(map[identifier.ID][]string)
	for tag, ids := range cat.Tags {
		for _, id := range ids {
			e.tagsByID[id] = append(e.tagsByID[id], tag)
		}
	}
	e.nameByID = make(map[identifier.ID][]string)
	for name, ids := range cat.Names {
		for _, id := range ids {
			e.nameByID[id] = append(e.nameByID[id], strings.ToLower(name))
		}
	}
	return nil
}

// filter evaluates q against the loaded catalog. Caller holds mu.
func (e *Engine) filter(q Query) []identifier.ID {
	c := e.cat

	var candidates identifier.Set
	switch q.Field {
	case FieldID:
		candidates = identifier.NewSet()
		if _, ok := c.Backgrounds[identifier.ID(q.Value)]; ok {
			candidates.Add(identifier.ID(q.Value))
		}
	case FieldName:
		candidates = identifier.NewSet(c.Names[q.Value]...)
	case FieldTag:
		candidates = identifier.NewSet(c.Tags[q.Value]...)
	default:
		candidates = identifier.NewSet()
		for id := range c.Backgrounds {
			if e.matchesText(id, q.Value) {
				candidates.Add(id)
			}
		}
	}

	// Include is AND: the id must be under every included tag.
	if len(q.Include) > 0 {
		sets := []identifier.Set{candidates}
		for _, tag := range q.Include {
			sets = append(sets, identifier.NewSet(c.Tags[tag]...))
		}
		candidates = identifier.Intersect(sets...)
	}

	// Exclude is OR: any excluded tag drops the id.
	for _, tag := range q.Exclude {
		for _, id := range c.Tags[tag] {
			candidates.Remove(id)
		}
	}

	out := make([]identifier.ID, 0, candidates.Len())
	for id := range candidates {
		if _, ok := c.Backgrounds[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := c.Backgrounds[out[i]], c.Backgrounds[out[j]]
		if ti != tj {
			return ti > tj
		}
		return out[i] < out[j]
	})
	return out
}

func (e *Engine) matchesText(id identifier.ID, text string) bool {
	if text == "" {
		return true
	}
	if strings.Contains(strings.ToLower(string(id)), text) {
		return true
	}
	for _, tag := range e.tagsByID[id] {
		if strings.Contains(tag, text) {
			return true
		}
	}
	for _, name := range e.nameByID[id] {
		if strings.Contains(name, text) {
			return true
		}
	}
	return false
}
