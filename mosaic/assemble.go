package mosaic

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/umpc/go-sortedmap"

	"github.com/geoseam/geoseam/fishnet"
	"github.com/geoseam/geoseam/mapslicehelp"
	"github.com/geoseam/geoseam/rank"
	"github.com/geoseam/geoseam/scores"
)

// Flatten ranks every cell and concatenates the per-cell results into the
// global paint sequence. Each cell's ranking is reversed first: the
// compositor paints later entries on top, so the rank 0 tile must come last
// within its cell to end up visible. Cells are visited in row/column order,
// which keeps the sequence reproducible and the painting spatially coherent.
func Flatten(store *scores.Store) ([]scores.Record, error) {
	cellIDs := store.Cells()
	byPosition := sortedmap.New(len(cellIDs), func(x, y interface{}) bool {
		a, b := x.([2]int), y.([2]int)
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	for _, cellID := range cellIDs {
		col, row, err := fishnet.ParseID(cellID)
		if err != nil {
			return nil, err
		}
		byPosition.Insert(cellID, [2]int{row, col})
	}

	var sequence []scores.Record
	for _, key := range byPosition.Keys() {
		cellID := key.(string)
		tiles := store.Tiles(cellID)
		if rank.OverrideConflict(tiles) {
			log.Printf("  warning: cell %s has multiple overrides, first one in store order wins", cellID)
		}
		ranked := rank.Rank(tiles)
		sequence = append(sequence, mapslicehelp.ReverseClone(ranked)...)
	}
	return sequence, nil
}

// WriteManifest writes the global paint sequence as full tile paths, one per
// line, in exactly the order the compositor consumes them.
func WriteManifest(path, tileDir string, sequence []scores.Record) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating manifest %s: %w", path, err)
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	for _, rec := range sequence {
		if err := w.Write([]string{filepath.Join(tileDir, rec.Tile)}); err != nil {
			return fmt.Errorf("writing manifest %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
