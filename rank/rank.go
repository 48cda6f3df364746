// Package rank turns one cell's unordered candidate tiles into the
// deterministic total order that resolves the overlap: rank 0 wins the cell.
package rank

import (
	"sort"

	"github.com/geoseam/geoseam/mathhelp"
	"github.com/geoseam/geoseam/scores"
)

// Rank orders a cell's candidate tiles in three tiers:
//
//  1. a manual override always wins; with several overrides the first one in
//     store order is taken (see OverrideConflict),
//  2. of the remainder, the tile closest to its source raster's center is
//     next (scan edges are distorted and vignetted, centers are not),
//  3. everything else follows by ascending nodata count.
//
// The result is a permutation of the input. All sorts are stable, so equal
// scores keep the store's insertion order and reranking the same input
// reproduces the same order.
func Rank(tiles []scores.Record) []scores.Record {
	rest := append([]scores.Record(nil), tiles...)
	ranked := make([]scores.Record, 0, len(rest))

	sort.SliceStable(rest, func(i, j int) bool {
		return mathhelp.Bool2int(rest[i].Override) > mathhelp.Bool2int(rest[j].Override)
	})
	if len(rest) > 0 && rest[0].Override {
		ranked = append(ranked, rest[0])
		rest = rest[1:]
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].Distance < rest[j].Distance
	})
	if len(rest) > 0 {
		ranked = append(ranked, rest[0])
		rest = rest[1:]
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].NoDatas < rest[j].NoDatas
	})
	return append(ranked, rest...)
}

// OverrideConflict reports whether a cell carries more than one override.
// That is almost certainly a mistake in the hand-edited score store; the
// caller should warn about it rather than silently pick one.
func OverrideConflict(tiles []scores.Record) bool {
	n := 0
	for _, tile := range tiles {
		n += mathhelp.Bool2int(tile.Override)
	}
	return n > 1
}
