package main

import (
	"sort"

	"github.com/samber/lo"
)

// rankResults orders the guess history for display. The most recently
// submitted record (highest sequence number) is always pinned first as a
// "you are here" marker, regardless of its similarity; the rest are sorted
// by descending similarity. The sort is stable so equal similarities keep
// their input order.
func rankResults(results []GuessRecord) []GuessRecord {
	if len(results) == 0 {
		return results
	}

	latest := lo.MaxBy(results, func(a, b GuessRecord) bool {
		return a.Seq > b.Seq
	})

	rest := lo.Filter(results, func(r GuessRecord, _ int) bool {
		return r.Seq != latest.Seq
	})
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].Similarity > rest[j].Similarity
	})

	return append([]GuessRecord{latest}, rest...)
}
