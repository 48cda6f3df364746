package mosaic

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geoseam/geoseam/raster"
	"github.com/geoseam/geoseam/scores"
)

func writeTile(t *testing.T, dir, name string, tr raster.Transform, cols, rows int, planes ...[]float64) scores.Record {
	t.Helper()
	w, err := raster.Create(filepath.Join(dir, name), cols, rows, len(planes), tr, raster.CreateOptions{Compression: "none"})
	require.NoError(t, err)
	for b, plane := range planes {
		require.NoError(t, w.WriteBand(b, plane))
	}
	require.NoError(t, w.Close())
	return scores.Record{Tile: name, NoData: raster.DefaultNoData}
}

func testProfile() Profile {
	return Profile{
		Compression: "none",
		Depth:       "uint16",
		Resampling:  "nearest",
		NoData:      raster.DefaultNoData,
	}
}

func TestPainterComposite(t *testing.T) {
	dir := t.TempDir()

	// Two 2x2 tiles overlapping in one pixel. B is painted last and wins
	// the overlap, except where B holds the nodata sentinel.
	a := writeTile(t, dir, "a.tif",
		raster.Transform{OriginX: 0, OriginY: 2, PixelWidth: 1, PixelHeight: -1},
		2, 2, []float64{10, 10, 10, 10})
	b := writeTile(t, dir, "b.tif",
		raster.Transform{OriginX: 1, OriginY: 3, PixelWidth: 1, PixelHeight: -1},
		2, 2, []float64{256, 20, 20, 20})

	outPath := filepath.Join(dir, "out.tif")
	painter := Painter{Profile: testProfile()}
	require.NoError(t, painter.Composite([]scores.Record{a, b}, dir, outPath))

	out, err := raster.Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	cols, rows := out.Size()
	require.Equal(t, 3, cols)
	require.Equal(t, 3, rows)
	require.Equal(t, raster.Transform{OriginX: 0, OriginY: 3, PixelWidth: 1, PixelHeight: -1}, out.Transform())

	got, err := out.ReadBand(0, 0, 0, 3, 3)
	require.NoError(t, err)
	require.Equal(t, []float64{
		256, 256, 20,
		10, 20, 20,
		10, 10, 256,
	}, got)
}

func TestPainterCompositePaintOrder(t *testing.T) {
	dir := t.TempDir()

	tr := raster.Transform{OriginX: 0, OriginY: 1, PixelWidth: 1, PixelHeight: -1}
	first := writeTile(t, dir, "first.tif", tr, 1, 1, []float64{1})
	second := writeTile(t, dir, "second.tif", tr, 1, 1, []float64{2})

	outPath := filepath.Join(dir, "out.tif")
	painter := Painter{Profile: testProfile()}
	require.NoError(t, painter.Composite([]scores.Record{first, second}, dir, outPath))

	out, err := raster.Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	got, err := out.ReadBand(0, 0, 0, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{2}, got)
}

func TestPainterCompositeMixedDepth(t *testing.T) {
	dir := t.TempDir()

	// A mono tile next to a color tile: the canvas grows to three bands
	// and the mono plane is replicated.
	mono := writeTile(t, dir, "mono.tif",
		raster.Transform{OriginX: 0, OriginY: 1, PixelWidth: 1, PixelHeight: -1},
		1, 1, []float64{7})
	color := writeTile(t, dir, "color.tif",
		raster.Transform{OriginX: 1, OriginY: 1, PixelWidth: 1, PixelHeight: -1},
		1, 1, []float64{1}, []float64{2}, []float64{3})

	outPath := filepath.Join(dir, "out.tif")
	painter := Painter{Profile: testProfile()}
	require.NoError(t, painter.Composite([]scores.Record{mono, color}, dir, outPath))

	out, err := raster.Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, 3, out.Bands())
	for band, want := range map[int][]float64{
		0: {7, 1},
		1: {7, 2},
		2: {7, 3},
	} {
		got, err := out.ReadBand(band, 0, 0, 2, 1)
		require.NoError(t, err)
		require.Equal(t, want, got, "band %d", band)
	}
}

func TestPainterCompositeEmptySequence(t *testing.T) {
	painter := Painter{Profile: testProfile()}
	require.Error(t, painter.Composite(nil, t.TempDir(), "out.tif"))
}

func TestPainterCompositeByteDepthClampsSentinel(t *testing.T) {
	dir := t.TempDir()

	tile := writeTile(t, dir, "a.tif",
		raster.Transform{OriginX: 0, OriginY: 1, PixelWidth: 1, PixelHeight: -1},
		2, 1, []float64{40, 256})

	profile := testProfile()
	profile.Depth = "byte"
	outPath := filepath.Join(dir, "out.tif")
	require.NoError(t, Painter{Profile: profile}.Composite([]scores.Record{tile}, dir, outPath))

	out, err := raster.Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	got, err := out.ReadBand(0, 0, 0, 2, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{40, 255}, got)
}
