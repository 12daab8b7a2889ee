package appdir

import "path"

// KeepSet is the ordered set of destinations that survive pruning.
type KeepSet struct {
	order []string
	index map[string]struct{}
}

// NewKeepSet builds a keep set from groups in order, skipping duplicates and
// every destination whose base name equals one of exclude.
func NewKeepSet(exclude []string, groups ...[]string) KeepSet {
	excluded := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		excluded[e] = struct{}{}
	}

	ks := KeepSet{index: make(map[string]struct{})}
	for _, group := range groups {
		for _, dest := range group {
			dest = path.Clean("/" + dest)
			if _, skip := excluded[path.Base(dest)]; skip {
				continue
			}
			if _, dup := ks.index[dest]; dup {
				continue
			}
			ks.index[dest] = struct{}{}
			ks.order = append(ks.order, dest)
		}
	}

	return ks
}

// Contains reports whether dest is kept.
func (k KeepSet) Contains(dest string) bool {
	_, ok := k.index[path.Clean("/"+dest)]
	return ok
}

// Len returns the number of kept destinations.
func (k KeepSet) Len() int {
	return len(k.order)
}

// Paths returns the kept destinations in insertion order.
func (k KeepSet) Paths() []string {
	return append([]string(nil), k.order...)
}
