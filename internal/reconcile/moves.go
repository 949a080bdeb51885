package reconcile

import "github.com/Aman-CERP/backdrops/internal/identifier"

type movePair struct {
	from identifier.ID
	to   identifier.ID
}

// pairMoves matches added ids with removed ids that are assumed to be the
// same background relocated. Both inputs must be sorted. Exact folder
// matches are paired first across all added ids, then base names (root
// prefix and trailing _<N> stripped). Within each round the first unpaired
// removed id wins.
func pairMoves(added, removed []identifier.ID) []movePair {
	if len(added) == 0 || len(removed) == 0 {
		return nil
	}

	var pairs []movePair
	usedAdded := make(map[identifier.ID]bool, len(added))
	usedRemoved := make(map[identifier.ID]bool, len(removed))

	rounds := []func(identifier.ID) string{identifier.Folder, identifier.BaseName}
	for _, key := range rounds {
		for _, a := range added {
			if usedAdded[a] {
				continue
			}
			want := key(a)
			for _, r := range removed {
				if usedRemoved[r] || key(r) != want {
					continue
				}
				pairs = append(pairs, movePair{from: r, to: a})
				usedAdded[a] = true
				usedRemoved[r] = true
				break
			}
		}
	}
	return pairs
}
