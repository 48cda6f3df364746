package extract

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoseam/geoseam/mathhelp"
	"github.com/geoseam/geoseam/raster"
)

func TestOverlaps(t *testing.T) {
	rast := geom.Extent{0, 0, 100, 100}
	tests := []struct {
		name string
		cell geom.Extent
		want bool
	}{
		{name: "fully inside", cell: geom.Extent{10, 10, 20, 20}, want: true},
		{name: "sticking out left", cell: geom.Extent{-10, 10, 20, 20}, want: true},
		{name: "sticking out both x", cell: geom.Extent{-10, 10, 110, 20}, want: false},
		{name: "fully outside", cell: geom.Extent{200, 200, 250, 250}, want: false},
		{name: "touching at the edge", cell: geom.Extent{100, 0, 150, 100}, want: false},
		{name: "corner overlap", cell: geom.Extent{90, 90, 150, 150}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.cell, rast))
		})
	}
}

func TestComputeWindowInterior(t *testing.T) {
	tr := raster.Transform{OriginX: 0, OriginY: 100, PixelWidth: 1, PixelHeight: -1}
	cell := geom.Extent{10, 70, 20, 80}

	w, ok := ComputeWindow(cell, tr, 100, 100, 5)
	require.True(t, ok)
	assert.Equal(t, Window{W: 15, H: 15, ReadX: 10, ReadY: 20, ReadW: 15, ReadH: 15}, w)
}

func TestComputeWindowClampsEachAxis(t *testing.T) {
	tr := raster.Transform{OriginX: 0, OriginY: 100, PixelWidth: 1, PixelHeight: -1}

	// cell starts 10 map units left of and 10 above the raster
	cell := geom.Extent{-10, 80, 10, 110}
	w, ok := ComputeWindow(cell, tr, 100, 100, 5)
	require.True(t, ok)
	assert.Equal(t, 25, w.W)
	assert.Equal(t, 35, w.H)
	assert.Equal(t, 0, w.ReadX)
	assert.Equal(t, 0, w.ReadY)
	assert.Equal(t, 15, w.ReadW) // 25 - 10 clamped off
	assert.Equal(t, 25, w.ReadH)
	assert.Equal(t, 10, w.DstX)
	assert.Equal(t, 10, w.DstY)

	// cell overshoots the far edge: read shrinks, destination stays at 0
	cell = geom.Extent{90, 0, 120, 20}
	w, ok = ComputeWindow(cell, tr, 100, 100, 5)
	require.True(t, ok)
	assert.Equal(t, 0, w.DstX)
	assert.Equal(t, 10, w.ReadW)
	assert.Equal(t, 90, w.ReadX)
}

func TestComputeWindowStaysInsideRaster(t *testing.T) {
	tr := raster.Transform{OriginX: 50, OriginY: 220, PixelWidth: 2.5, PixelHeight: -2.5}
	cols, rows := 73, 41
	cells := []geom.Extent{
		{40, 100, 90, 150},
		{49, 207, 60, 221},
		{200, 100, 260, 160},
		{225, 110, 235, 125},
	}
	for _, cell := range cells {
		w, ok := ComputeWindow(cell, tr, cols, rows, 5)
		if !ok {
			continue
		}
		assert.True(t, mathhelp.BetweenInc(w.ReadX, 0, cols-1))
		assert.True(t, mathhelp.BetweenInc(w.ReadY, 0, rows-1))
		assert.True(t, mathhelp.BetweenInc(w.ReadX+w.ReadW, 1, cols))
		assert.True(t, mathhelp.BetweenInc(w.ReadY+w.ReadH, 1, rows))
		assert.True(t, mathhelp.BetweenInc(w.DstX+w.ReadW, 1, w.W))
		assert.True(t, mathhelp.BetweenInc(w.DstY+w.ReadH, 1, w.H))
	}
}

func TestComputeWindowDegenerate(t *testing.T) {
	tr := raster.Transform{OriginX: 0, OriginY: 100, PixelWidth: 1, PixelHeight: -1}
	// cell entirely left of the raster by more than the overscan margin
	cell := geom.Extent{-100, 10, -50, 20}
	_, ok := ComputeWindow(cell, tr, 100, 100, 5)
	assert.False(t, ok)
}

func TestTileTransformAnchoredToSourceGrid(t *testing.T) {
	tr := raster.Transform{OriginX: 1000, OriginY: 2000, PixelWidth: 2.5, PixelHeight: -2.5}

	// interior window: origin is the read window's top left corner
	w := Window{W: 15, H: 15, ReadX: 10, ReadY: 20, ReadW: 15, ReadH: 15}
	tt := TileTransform(w, tr)
	assert.Equal(t, 1025.0, tt.OriginX)
	assert.Equal(t, 1950.0, tt.OriginY)
	assert.Equal(t, tr.PixelWidth, tt.PixelWidth)
	assert.Equal(t, tr.PixelHeight, tt.PixelHeight)

	// clamped window: the buffer's top left sits before the raster origin
	w = Window{W: 20, H: 20, ReadX: 0, ReadY: 0, ReadW: 12, ReadH: 20, DstX: 8, DstY: 0}
	tt = TileTransform(w, tr)
	assert.Equal(t, 1000.0-8*2.5, tt.OriginX)
	assert.Equal(t, 2000.0, tt.OriginY)
}
