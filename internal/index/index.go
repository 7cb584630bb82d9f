// Package index builds and searches the sorted view of control points used
// for ring lookups.
package index

import "sort"

const (
	// NotFound is returned by Locate when there are no points to search.
	NotFound = -1

	// LinearThreshold is the window size at which Locate stops bisecting and
	// scans the remaining points linearly.
	LinearThreshold = 25
)

// Build flattens lists into a single slice sorted in ascending order.
// Duplicate points are kept.
func Build(lists [][]uint32) []uint32 {
	var total int
	for _, l := range lists {
		total += len(l)
	}

	res := make([]uint32, 0, total)
	for _, l := range lists {
		res = append(res, l...)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Locate returns the index of the first element of points which is greater
// than or equal to key. points must be sorted in ascending order.
//
// If key is greater than every element, Locate wraps around the ring and
// returns 0. NotFound is returned if points is empty.
func Locate(points []uint32, key uint32) int {
	if len(points) == 0 {
		return NotFound
	}

	lo, hi := 0, len(points)
	for hi-lo > LinearThreshold {
		mid := int(uint(lo+hi) >> 1)
		if points[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	// The answer is now in [lo, hi]; hi is either len(points) or an element
	// known to be >= key.
	for ; lo < hi; lo++ {
		if points[lo] >= key {
			return lo
		}
	}
	if hi == len(points) {
		return 0
	}
	return hi
}
