package identifier

import "sort"

// Set is a set of identifiers.
type Set map[ID]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id ID) {
	s[id] = struct{}{}
}

func (s Set) Remove(id ID) {
	delete(s, id)
}

func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Minus returns the members of s that are not in other.
func (s Set) Minus(other Set) Set {
	out := NewSet()
	for id := range s {
		if !other.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Intersect returns the members common to every set. Iterates the smallest.
func Intersect(sets ...Set) Set {
	if len(sets) == 0 {
		return NewSet()
	}

	smallest := 0
	for i := 1; i < len(sets); i++ {
		if sets[i].Len() < sets[smallest].Len() {
			smallest = i
		}
	}

	out := NewSet()
	for id := range sets[smallest] {
		inAll := true
		for i, s := range sets {
			if i == smallest {
				continue
			}
			if !s.Contains(id) {
				inAll = false
				break
			}
		}
		if inAll {
			out.Add(id)
		}
	}
	return out
}

// Union returns the members of any set.
func Union(sets ...Set) Set {
	out := NewSet()
	for _, s := range sets {
		for id := range s {
			out.Add(id)
		}
	}
	return out
}
