// Package integration holds end-to-end tests that drive reconciliation,
// queries, relocation and the watcher against real directory trees.
package integration
