package geomhelp

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
)

func TestCenter(t *testing.T) {
	e := geom.Extent{0, 0, 100, 50}
	assert.Equal(t, [2]float64{50, 25}, Center(e))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance([2]float64{0, 0}, [2]float64{3, 4}), 1e-12)
	assert.Zero(t, Distance([2]float64{7, 7}, [2]float64{7, 7}))
}

func TestExtentToPolygonRoundTrip(t *testing.T) {
	e := geom.Extent{10, 20, 30, 40}
	p := ExtentToPolygon(e)
	assert.Len(t, p, 1)
	assert.Len(t, p[0], 4)
	assert.Equal(t, e, PolygonExtent(p))
}
