package geomhelp

import (
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
	"gonum.org/v1/gonum/floats"
)

// Center returns the middle of an extent in map units.
func Center(e geom.Extent) [2]float64 {
	return [2]float64{
		(e.MaxX()-e.MinX())/2 + e.MinX(),
		(e.MaxY()-e.MinY())/2 + e.MinY(),
	}
}

// Distance is the euclidean distance between two map points.
func Distance(p, q [2]float64) float64 {
	return floats.Distance(p[:], q[:], 2)
}

// ExtentToPolygon returns the extent as a single closed clockwise ring,
// starting at the upper left corner.
func ExtentToPolygon(e geom.Extent) geom.Polygon {
	return geom.Polygon{{
		{e.MinX(), e.MaxY()},
		{e.MaxX(), e.MaxY()},
		{e.MaxX(), e.MinY()},
		{e.MinX(), e.MinY()},
	}}
}

// PolygonExtent is the bounding extent of a polygon's outer ring.
func PolygonExtent(p geom.Polygon) geom.Extent {
	e, err := geom.NewExtentFromGeometry(p)
	if err != nil || e == nil {
		return geom.Extent{}
	}
	return *e
}

func WktMustEncode(g geom.Geometry, maxLen uint) string {
	if maxLen == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), maxLen, "...")
}
