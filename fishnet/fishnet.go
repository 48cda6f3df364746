// Package fishnet divides the combined coverage area of the source rasters
// into a regular grid of cells. Cell identity only depends on the global
// origin and the cell size, so a later run over the same inputs reproduces
// the same ids.
package fishnet

import (
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/geoseam/geoseam/mathhelp"
)

// Cell is one grid unit. Col and Row count from the upper left corner of the
// global extent; Col grows eastward, Row southward.
type Cell struct {
	Col    int
	Row    int
	Extent geom.Extent
}

// ID is the cell identity used in tile names and the score store.
func (c Cell) ID() string {
	return fmt.Sprintf("%d-%d", c.Col, c.Row)
}

// ParseID recovers the column and row from a cell id.
func ParseID(id string) (col, row int, err error) {
	_, err = fmt.Sscanf(id, "%d-%d", &col, &row)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell id %q: %w", id, err)
	}
	return col, row, nil
}

// Size returns the number of columns and rows a fishnet over the given
// extent needs. Ceiling division: the grid always fully covers the extent,
// possibly overshooting past the lower right corner.
func Size(global geom.Extent, cellSize float64) (cols, rows int) {
	cols = mathhelp.CeilDiv(global.XSpan(), cellSize)
	rows = mathhelp.CeilDiv(global.YSpan(), cellSize)
	return cols, rows
}

// Build enumerates all cells of a fishnet over the global extent, row by row
// from the upper left. Pure function of its inputs and bit-reproducible.
func Build(global geom.Extent, cellSize float64) []Cell {
	cols, rows := Size(global, cellSize)
	originX := global.MinX()
	originY := global.MaxY()

	cells := make([]Cell, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cells = append(cells, Cell{
				Col: col,
				Row: row,
				Extent: geom.Extent{
					originX + cellSize*float64(col),
					originY - cellSize*float64(row+1),
					originX + cellSize*float64(col+1),
					originY - cellSize*float64(row),
				},
			})
		}
	}
	return cells
}
