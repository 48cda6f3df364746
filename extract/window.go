package extract

import (
	"github.com/go-spatial/geom"

	"github.com/geoseam/geoseam/raster"
)

// DefaultOverscan is the extra read margin in pixels, added to both read
// dimensions so adjacently clipped rasters overlap slightly and small one or
// two pixel seams disappear at composite time.
const DefaultOverscan = 5

// Window describes how one cell maps onto one raster's pixel grid.
// The tile buffer keeps its intended W x H size even when the cell sticks
// out of the raster; then the read window is clamped to the valid pixel
// range and the destination offset shifts inward by the clamped amount.
type Window struct {
	// full tile buffer size in pixels
	W, H int
	// clamped read window in source pixel coordinates
	ReadX, ReadY, ReadW, ReadH int
	// where the read data lands inside the tile buffer
	DstX, DstY int
}

// Overlaps reports whether a cell should produce a tile from a raster:
// the extents must overlap on both axes with at least one of the cell's
// bounds strictly inside the raster's span on each axis. Touching at the
// boundary does not count.
func Overlaps(cell, rast geom.Extent) bool {
	xminInside := cell.MinX() > rast.MinX() && cell.MinX() < rast.MaxX()
	xmaxInside := cell.MaxX() > rast.MinX() && cell.MaxX() < rast.MaxX()
	yminInside := cell.MinY() > rast.MinY() && cell.MinY() < rast.MaxY()
	ymaxInside := cell.MaxY() > rast.MinY() && cell.MaxY() < rast.MaxY()
	return (xminInside || xmaxInside) && (yminInside || ymaxInside)
}

// ComputeWindow converts a cell's map extent into a clamped pixel window on
// a cols x rows raster with the given transform. ok is false when the
// clamped read or write sizes degenerate to nothing.
func ComputeWindow(cell geom.Extent, tr raster.Transform, cols, rows, overscan int) (w Window, ok bool) {
	// cell origin and size on the raster's pixel grid, truncated toward zero
	xOff := int((cell.MinX() - tr.OriginX) / tr.PixelWidth)
	yOff := int((cell.MaxY() - tr.OriginY) / tr.PixelHeight)
	xSize := int(cell.XSpan()/tr.PixelWidth) + overscan
	ySize := int(-cell.YSpan()/tr.PixelHeight) + overscan

	w = Window{
		W: xSize, H: ySize,
		ReadX: xOff, ReadY: yOff,
		ReadW: xSize, ReadH: ySize,
	}

	// clamp each axis independently, shifting the destination inward
	if xOff < 0 {
		w.ReadX = 0
		w.ReadW = xSize + xOff
		w.DstX = -xOff
	}
	if xOff+xSize > cols {
		w.ReadW = cols - w.ReadX
	}
	if yOff < 0 {
		w.ReadY = 0
		w.ReadH = ySize + yOff
		w.DstY = -yOff
	}
	if yOff+ySize > rows {
		w.ReadH = rows - w.ReadY
	}

	if w.ReadW <= 0 || w.ReadH <= 0 || w.W <= 0 || w.H <= 0 {
		return w, false
	}
	return w, true
}

// TileTransform anchors the tile's geotransform to the source raster's own
// pixel grid: the map coordinate of the *unclamped* window origin with the
// source pixel size. Using the cell's nominal bounding box instead would
// shift the tile onto the fishnet's grid and misalign it with its source.
func TileTransform(w Window, tr raster.Transform) raster.Transform {
	x, y := tr.PixelToMap(float64(w.ReadX-w.DstX), float64(w.ReadY-w.DstY))
	return raster.Transform{
		OriginX:     x,
		OriginY:     y,
		PixelWidth:  tr.PixelWidth,
		PixelHeight: tr.PixelHeight,
	}
}
