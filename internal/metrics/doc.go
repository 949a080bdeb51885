// Package metrics provides Prometheus instrumentation for backdrops.
//
// All metrics are prefixed with "backdrops_" and registered on the default
// registry through promauto. `backdrops watch --metrics-addr` serves them
// with promhttp.Handler().
//
// Categories:
//   - Reconciliation: pass counts by outcome, pass duration, per-pass
//     change counts and the catalog size after each pass.
//   - Index builds: build duration and read pool width.
//   - Queries: query count by cache outcome and query duration.
//   - Relocation: moves by method, leftover cleanup retries and failures.
//   - Watcher: filesystem events seen and passes triggered.
package metrics
