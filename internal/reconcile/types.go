// Package reconcile keeps the catalog consistent with the background
// folders on disk.
//
// A pass loads the catalog, scans every root, pairs newly seen folders
// with vanished ones as moves, inserts and deletes the rest, rebuilds the
// tag and name indices and writes the catalog only if something changed.
//
// The import-policy prompt is a suspension point: Begin returns a Pass that
// may carry a pending Decision, the caller resolves it, then commits.
// Reindex drives the whole sequence against a UI.
package reconcile

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/backdrops/internal/identifier"
)

// Trigger describes why a pass runs.
type Trigger struct {
	// AddedExternalRoot is set right after an external root was configured.
	AddedExternalRoot bool
	// AddedDefaultRoot is set right after the primary root was customised,
	// which brings the legacy default root into the scan.
	AddedDefaultRoot bool
}

// RootAdded reports whether a root was just added.
func (t Trigger) RootAdded() bool {
	return t.AddedExternalRoot || t.AddedDefaultRoot
}

// Policy decides the indexed timestamp of newly imported backgrounds.
type Policy string

const (
	// PolicyNew stamps every import with the current time.
	PolicyNew Policy = "new"
	// PolicySaved keeps a valid saved local.indexed, else the current time.
	PolicySaved Policy = "saved"
)

// ParsePolicy accepts "new" or "saved".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyNew, PolicySaved:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown import policy %q (want %q or %q)", s, PolicyNew, PolicySaved)
}

// Decision is a pending user choice.
type Decision struct {
	Title  string
	Labels []string
	// Added is the number of backgrounds the choice applies to.
	Added int
}

// Result summarises a committed pass.
type Result struct {
	Added      int
	Removed    int
	Moved      int
	Unreadable int
	// Written is true when catalog.json was rewritten.
	Written bool
	// Total is the catalog size after the pass.
	Total int
}

// Summary renders r for notifications and CLI output.
func (r Result) Summary() string {
	return fmt.Sprintf("%d added, %d removed, %d moved, %d unreadable", r.Added, r.Removed, r.Moved, r.Unreadable)
}

// Settings supplies the roots and allowed tags for a pass.
type Settings interface {
	Roots() identifier.Roots
	AllowedTags() map[string]struct{}
}

// UI is the user-facing collaborator.
type UI interface {
	// Choose asks the user to pick one of labels.
	Choose(ctx context.Context, title string, labels []string) (string, error)
	// CatalogChanged is fire-and-forget and must not block.
	CatalogChanged(summary string)
}
