package raster

import "fmt"

// Memory is an in-memory Dataset. It backs the unit tests and serves as the
// canvas while compositing.
type Memory struct {
	name      string
	cols      int
	rows      int
	nodata    float64
	hasNoData bool
	transform Transform
	bands     [][]float64 // one row-major plane per band
}

// NewMemory allocates a cols x rows x bands raster. The planes are zero-filled.
func NewMemory(name string, cols, rows, bands int, transform Transform) *Memory {
	planes := make([][]float64, bands)
	for b := range planes {
		planes[b] = make([]float64, cols*rows)
	}
	return &Memory{
		name:      name,
		cols:      cols,
		rows:      rows,
		transform: transform,
		bands:     planes,
	}
}

// SetNoData declares the nodata sentinel.
func (m *Memory) SetNoData(v float64) *Memory {
	m.nodata = v
	m.hasNoData = true
	return m
}

// Fill sets every pixel of every band to v.
func (m *Memory) Fill(v float64) *Memory {
	for _, plane := range m.bands {
		for i := range plane {
			plane[i] = v
		}
	}
	return m
}

// SetPixel sets one pixel in one band.
func (m *Memory) SetPixel(band, x, y int, v float64) {
	m.bands[band][y*m.cols+x] = v
}

// Pixel reads one pixel from one band.
func (m *Memory) Pixel(band, x, y int) float64 {
	return m.bands[band][y*m.cols+x]
}

// Plane exposes a band's backing slice.
func (m *Memory) Plane(band int) []float64 {
	return m.bands[band]
}

func (m *Memory) Name() string               { return m.name }
func (m *Memory) Size() (cols, rows int)     { return m.cols, m.rows }
func (m *Memory) Bands() int                 { return len(m.bands) }
func (m *Memory) NoData() (float64, bool)    { return m.nodata, m.hasNoData }
func (m *Memory) Transform() Transform       { return m.transform }
func (m *Memory) Close() error               { return nil }

func (m *Memory) ReadBand(band, x, y, w, h int) ([]float64, error) {
	if band < 0 || band >= len(m.bands) {
		return nil, fmt.Errorf("raster %s: no band %d", m.name, band)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > m.cols || y+h > m.rows {
		return nil, fmt.Errorf("raster %s: read window %d,%d %dx%d outside %dx%d", m.name, x, y, w, h, m.cols, m.rows)
	}
	out := make([]float64, w*h)
	for row := 0; row < h; row++ {
		src := m.bands[band][(y+row)*m.cols+x:]
		copy(out[row*w:(row+1)*w], src[:w])
	}
	return out, nil
}
