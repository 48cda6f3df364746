// Package scores holds the per-tile score records that drive tile selection:
// a flat list of records with an insertion-ordered index per cell.
// The store is persisted as a GeoPackage layer so a human can inspect the
// cells and mark overrides between runs.
package scores

import (
	"path/filepath"
	"strings"

	"github.com/go-spatial/geom"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/geoseam/geoseam/mapslicehelp"
)

// Record is the scored outcome of clipping one source raster to one cell.
type Record struct {
	// Raster is the parent raster file name.
	Raster string
	// Cell is the owning cell id ("col-row").
	Cell string
	// Tile is the tile artifact file name, derived from Cell and Raster.
	Tile string
	// Distance from the cell center to the parent raster center, map units.
	Distance float64
	// NoDatas is the nodata pixel count in the tile, averaged over bands.
	NoDatas float64
	// Override marks a manually asserted winner for the cell.
	Override bool
	// NoData is the sentinel the tile artifact was written with, so the
	// compositor can treat it as transparent without reopening the source.
	NoData float64
	// Extent is the cell bounding box, persisted for visual inspection.
	Extent geom.Extent
}

// TileName derives the tile artifact name for a (cell, raster) pair:
// "{cellID}_{rasterStem}.tif".
func TileName(cellID, rasterName string) string {
	stem := strings.TrimSuffix(rasterName, filepath.Ext(rasterName))
	return cellID + "_" + stem + ".tif"
}

// Store is the cell score store. Records are kept flat in insertion order;
// byCell indexes them per cell, also in insertion order. That order is what
// makes "first override wins" and ranking ties deterministic.
type Store struct {
	records []Record
	byCell  *orderedmap.OrderedMap[string, []int]
}

func NewStore() *Store {
	return &Store{byCell: orderedmap.New[string, []int]()}
}

// Put appends one record.
func (s *Store) Put(r Record) {
	i := len(s.records)
	s.records = append(s.records, r)
	indices, _ := s.byCell.Get(r.Cell)
	s.byCell.Set(r.Cell, append(indices, i))
}

// Merge unions another store into this one. Tile names are unique per
// (cell, raster) so the union is commutative up to record order.
func (s *Store) Merge(other *Store) {
	for _, r := range other.records {
		s.Put(r)
	}
}

// Len is the total number of tile records.
func (s *Store) Len() int {
	return len(s.records)
}

// Cells lists the cell ids in insertion order.
func (s *Store) Cells() []string {
	return mapslicehelp.OrderedMapKeys(s.byCell)
}

// Tiles returns the candidate records of one cell in insertion order.
func (s *Store) Tiles(cellID string) []Record {
	indices, ok := s.byCell.Get(cellID)
	if !ok {
		return nil
	}
	tiles := make([]Record, len(indices))
	for i, idx := range indices {
		tiles[i] = s.records[idx]
	}
	return tiles
}

// Records returns all records in insertion order.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}
