package typeutil

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// IsUnique checks if all elements in the slice are unique.
// It returns false and the first duplicated element if there are duplicates.
// It returns true and a zero value if the slice is empty or all elements are unique.
func IsUnique[T comparable](l []T) (bool, T) {
	var n T
	if len(l) < 2 {
		return true, n
	}
	set := mapset.NewThreadUnsafeSet[T]()
	for _, t := range l {
		if !set.Add(t) {
			return false, t
		}
	}
	return true, n
}
