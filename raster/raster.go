// Package raster is the pixel I/O boundary of the mosaicker.
// Sources and tile artifacts are north-up rasters addressed by an affine
// geotransform without rotation terms.
package raster

import (
	"github.com/go-spatial/geom"
)

// DefaultNoData is the sentinel assumed for sources that do not declare one.
// It deliberately sits just outside the 8-bit range so it can never collide
// with a valid byte sample, at the cost of misclassifying nothing but
// requiring 16-bit tile artifacts.
const DefaultNoData = 256

// Transform maps pixel coordinates to map coordinates.
// OriginX/OriginY is the top left corner of the top left pixel.
// PixelHeight is negative for north-up rasters.
type Transform struct {
	OriginX     float64
	OriginY     float64
	PixelWidth  float64
	PixelHeight float64
}

// PixelToMap returns the map coordinate of the top left corner of pixel (col, row).
func (t Transform) PixelToMap(col, row float64) (x, y float64) {
	return t.OriginX + col*t.PixelWidth, t.OriginY + row*t.PixelHeight
}

// Extent computes the bounding box of a cols x rows raster under this transform.
func (t Transform) Extent(cols, rows int) geom.Extent {
	lrx := float64(cols)*t.PixelWidth + t.OriginX
	lry := float64(rows)*t.PixelHeight + t.OriginY
	return geom.Extent{t.OriginX, lry, lrx, t.OriginY}
}

// Center returns the map coordinate of the middle of a cols x rows raster.
func (t Transform) Center(cols, rows int) [2]float64 {
	x, y := t.PixelToMap(float64(cols)/2, float64(rows)/2)
	return [2]float64{x, y}
}

// Dataset is a readable raster. Implementations are not safe for concurrent
// use; the pipeline reads each dataset from a single goroutine.
type Dataset interface {
	// Name identifies the raster, usually its file name.
	Name() string
	// Size returns the raster dimensions in pixels.
	Size() (cols, rows int)
	Bands() int
	// NoData returns the declared nodata sentinel, if any.
	NoData() (value float64, ok bool)
	Transform() Transform
	// ReadBand reads a w x h pixel window starting at (x, y) from the given
	// 0-based band into a row-major slice of length w*h. The window must lie
	// within the raster.
	ReadBand(band, x, y, w, h int) ([]float64, error)
	Close() error
}

// Extent is the bounding box of a dataset in map units.
func Extent(ds Dataset) geom.Extent {
	cols, rows := ds.Size()
	return ds.Transform().Extent(cols, rows)
}

// Union grows the first extent to cover all the others.
func Union(extents ...geom.Extent) geom.Extent {
	u := extents[0]
	for _, e := range extents[1:] {
		if e.MinX() < u[0] {
			u[0] = e.MinX()
		}
		if e.MinY() < u[1] {
			u[1] = e.MinY()
		}
		if e.MaxX() > u[2] {
			u[2] = e.MaxX()
		}
		if e.MaxY() > u[3] {
			u[3] = e.MaxY()
		}
	}
	return u
}
