package metrics

import "time"

// ObservePass records one finished reindex pass.
func ObservePass(d time.Duration, added, removed, moved, unreadable, total int, written bool, err error) {
	PassDuration.Observe(d.Seconds())

	switch {
	case err != nil:
		PassesTotal.WithLabelValues("failed").Inc()
		return
	case written:
		PassesTotal.WithLabelValues("written").Inc()
	default:
		PassesTotal.WithLabelValues("unchanged").Inc()
	}

	PassChanges.WithLabelValues("added").Add(float64(added))
	PassChanges.WithLabelValues("removed").Add(float64(removed))
	PassChanges.WithLabelValues("moved").Add(float64(moved))
	PassChanges.WithLabelValues("unreadable").Add(float64(unreadable))
	CatalogBackgrounds.Set(float64(total))
}

// ObserveIndexBuild records one index rebuild.
func ObserveIndexBuild(d time.Duration, workers int) {
	IndexBuildDuration.Observe(d.Seconds())
	IndexWorkers.Set(float64(workers))
}

// ObserveQuery records one query.
func ObserveQuery(d time.Duration, cacheHit bool) {
	QueryDuration.Observe(d.Seconds())
	if cacheHit {
		QueriesTotal.WithLabelValues("hit").Inc()
	} else {
		QueriesTotal.WithLabelValues("miss").Inc()
	}
}

// ObserveMove records a move attempt; method is "rename", "copy" or
// "failed".
func ObserveMove(method string) {
	MovesTotal.WithLabelValues(method).Inc()
}

// Initialize pre-populates label combinations so every series is exported
// from the first scrape.
func Initialize() {
	for _, o := range []string{"written", "unchanged", "failed"} {
		PassesTotal.WithLabelValues(o)
	}
	for _, k := range []string{"added", "removed", "moved", "unreadable"} {
		PassChanges.WithLabelValues(k)
	}
	for _, c := range []string{"hit", "miss"} {
		QueriesTotal.WithLabelValues(c)
	}
	for _, m := range []string{"rename", "copy", "failed"} {
		MovesTotal.WithLabelValues(m)
	}
}
