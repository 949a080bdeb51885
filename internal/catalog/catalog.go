// Package catalog persists the authoritative background catalog: the
// membership map with indexed timestamps, the derived tag and name indices,
// and the external root list the ext::<n> identifiers refer to.
package catalog

import (
	"slices"
	"sort"

	"github.com/Aman-CERP/backdrops/internal/identifier"
)

// Catalog is the persisted catalog record.
type Catalog struct {
	Backgrounds   map[identifier.ID]int64    `json:"backgrounds"`
	Tags          map[string][]identifier.ID `json:"tags"`
	Names         map[string][]identifier.ID `json:"names"`
	ExternalRoots []string                   `json:"externalRoots"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		Backgrounds:   map[identifier.ID]int64{},
		Tags:          map[string][]identifier.ID{},
		Names:         map[string][]identifier.ID{},
		ExternalRoots: []string{},
	}
}

// IDs returns the membership set.
func (c *Catalog) IDs() identifier.Set {
	s := identifier.NewSet()
	for id := range c.Backgrounds {
		s.Add(id)
	}
	return s
}

// Clone returns a deep copy.
func (c *Catalog) Clone() *Catalog {
	out := New()
	for id, ts := range c.Backgrounds {
		out.Backgrounds[id] = ts
	}
	for k, ids := range c.Tags {
		out.Tags[k] = slices.Clone(ids)
	}
	for k, ids := range c.Names {
		out.Names[k] = slices.Clone(ids)
	}
	out.ExternalRoots = append(out.ExternalRoots, c.ExternalRoots...)
	return out
}

// Replace swaps oldID for newID everywhere it appears, keeping the
// timestamp. Reports whether oldID was a member.
func (c *Catalog) Replace(oldID, newID identifier.ID) bool {
	ts, ok := c.Backgrounds[oldID]
	if !ok {
		return false
	}
	delete(c.Backgrounds, oldID)
	c.Backgrounds[newID] = ts

	replaceIn(c.Tags, oldID, newID)
	replaceIn(c.Names, oldID, newID)
	return true
}

func replaceIn(index map[string][]identifier.ID, oldID, newID identifier.ID) {
	for k, ids := range index {
		i := slices.Index(ids, oldID)
		if i < 0 {
			continue
		}
		ids[i] = newID
		index[k] = SortIDs(ids)
	}
}

// Normalize sorts and deduplicates every index list and drops empty keys.
func (c *Catalog) Normalize() {
	if c.Backgrounds == nil {
		c.Backgrounds = map[identifier.ID]int64{}
	}
	if c.ExternalRoots == nil {
		c.ExternalRoots = []string{}
	}
	c.Tags = normalizeIndex(c.Tags)
	c.Names = normalizeIndex(c.Names)
}

func normalizeIndex(index map[string][]identifier.ID) map[string][]identifier.ID {
	out := make(map[string][]identifier.ID, len(index))
	for k, ids := range index {
		if len(ids) == 0 {
			continue
		}
		out[k] = slices.Compact(SortIDs(slices.Clone(ids)))
	}
	return out
}

// SortIDs sorts ids in place and returns it.
func SortIDs(ids []identifier.ID) []identifier.ID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MembershipEqual reports whether a and b hold the same ids with the same
// timestamps.
func MembershipEqual(a, b *Catalog) bool {
	if len(a.Backgrounds) != len(b.Backgrounds) {
		return false
	}
	for id, ts := range a.Backgrounds {
		if other, ok := b.Backgrounds[id]; !ok || other != ts {
			return false
		}
	}
	return true
}

// IndicesEqual compares the tag and name indices structurally, ignoring
// list order.
func IndicesEqual(a, b *Catalog) bool {
	return indexEqual(a.Tags, b.Tags) && indexEqual(a.Names, b.Names)
}

func indexEqual(a, b map[string][]identifier.ID) bool {
	a, b = normalizeIndex(a), normalizeIndex(b)
	if len(a) != len(b) {
		return false
	}
	for k, ids := range a {
		if !slices.Equal(ids, b[k]) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b *Catalog) bool {
	return MembershipEqual(a, b) && IndicesEqual(a, b) && slices.Equal(a.ExternalRoots, b.ExternalRoots)
}
