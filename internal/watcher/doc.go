// Package watcher re-runs reconciliation when background folders change on
// disk.
//
// Each root and its immediate subdirectories are watched with fsnotify.
// Only events that can change the catalog are kept: folders appearing or
// disappearing directly under a root, and changes to a folder's metadata
// file. Events are coalesced by a Debouncer and each batch triggers one pass.
// At most one pass runs at a time; batches arriving during a pass collapse
// into a single follow-up pass.
//
// Usage:
//
//	w := watcher.New(roots, watcher.Options{Debounce: 2 * time.Second})
//	err := w.Run(ctx, func(ctx context.Context) error {
//	    _, err := engine.Reindex(ctx, reconcile.Trigger{}, nil)
//	    return err
//	})
package watcher
