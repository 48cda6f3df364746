package fishnet

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoseam/geoseam/raster"
)

func TestBuildSixteenCells(t *testing.T) {
	// global extent (0,100)-(100,0), cell size 25 -> a 4x4 grid
	global := geom.Extent{0, 0, 100, 100}
	cells := Build(global, 25)
	require.Len(t, cells, 16)

	first := cells[0]
	assert.Equal(t, "0-0", first.ID())
	assert.Equal(t, 0.0, first.Extent.MinX())
	assert.Equal(t, 25.0, first.Extent.MaxX())
	assert.Equal(t, 75.0, first.Extent.MinY())
	assert.Equal(t, 100.0, first.Extent.MaxY())

	last := cells[15]
	assert.Equal(t, "3-3", last.ID())
	assert.Equal(t, 75.0, last.Extent.MinX())
	assert.Equal(t, 0.0, last.Extent.MinY())
}

func TestBuildOvershoots(t *testing.T) {
	global := geom.Extent{0, 0, 101, 60}
	cols, rows := Size(global, 25)
	assert.Equal(t, 5, cols)
	assert.Equal(t, 3, rows)

	cells := Build(global, 25)
	require.Len(t, cells, 15)
	// the grid covers the whole extent, overshooting at the lower right
	var minX, minY, maxX, maxY = cells[0].Extent.MinX(), cells[0].Extent.MinY(), cells[0].Extent.MaxX(), cells[0].Extent.MaxY()
	for _, c := range cells {
		minX = min(minX, c.Extent.MinX())
		minY = min(minY, c.Extent.MinY())
		maxX = max(maxX, c.Extent.MaxX())
		maxY = max(maxY, c.Extent.MaxY())
	}
	assert.LessOrEqual(t, minX, global.MinX())
	assert.LessOrEqual(t, minY, global.MinY())
	assert.GreaterOrEqual(t, maxX, global.MaxX())
	assert.GreaterOrEqual(t, maxY, global.MaxY())
}

func TestBuildEveryPointInExactlyOneCell(t *testing.T) {
	global := geom.Extent{0, 0, 100, 100}
	cells := Build(global, 25)

	probes := [][2]float64{{0.5, 99.5}, {24.9, 75.1}, {50, 50.5}, {99.9, 0.1}, {12.5, 12.5}}
	for _, p := range probes {
		hits := 0
		for _, c := range cells {
			if p[0] >= c.Extent.MinX() && p[0] < c.Extent.MaxX() &&
				p[1] > c.Extent.MinY() && p[1] <= c.Extent.MaxY() {
				hits++
			}
		}
		assert.Equalf(t, 1, hits, "point %v should fall in exactly one cell", p)
	}
}

func TestBuildIndependentOfRasterOrder(t *testing.T) {
	// the same union extent yields identical cells no matter in which order
	// the source extents were combined
	a := geom.Extent{0, 50, 60, 100}
	b := geom.Extent{40, 0, 100, 70}
	c := geom.Extent{20, 20, 80, 90}

	first := Build(raster.Union(a, b, c), 30)
	second := Build(raster.Union(c, a, b), 30)
	assert.Equal(t, first, second)
}
