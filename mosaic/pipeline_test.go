package mosaic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geoseam/geoseam/raster"
	"github.com/geoseam/geoseam/scores"
)

func writeSource(t *testing.T, dir, name string, tr raster.Transform, cols, rows int, value float64) {
	t.Helper()
	w, err := raster.Create(filepath.Join(dir, name), cols, rows, 1, tr, raster.CreateOptions{Compression: "none"})
	require.NoError(t, err)
	plane := make([]float64, cols*rows)
	for i := range plane {
		plane[i] = value
	}
	require.NoError(t, w.WriteBand(0, plane))
	require.NoError(t, w.Close())
}

func pipelineConfig(t *testing.T) Config {
	sourceDir := t.TempDir()
	writeSource(t, sourceDir, "a.tif",
		raster.Transform{OriginX: 0, OriginY: 20, PixelWidth: 1, PixelHeight: -1}, 20, 20, 100)
	writeSource(t, sourceDir, "b.tif",
		raster.Transform{OriginX: 10, OriginY: 20, PixelWidth: 1, PixelHeight: -1}, 20, 20, 150)

	profile := testProfile()
	profile.Overscan = 5
	profile.Overviews = []int{2}
	profile.SRSID = 28992

	return Config{
		SourceDir: sourceDir,
		OutputDir: t.TempDir(),
		Name:      "demo",
		CellSize:  10,
		Workers:   2,
		Profile:   profile,
	}
}

func TestRunBuild(t *testing.T) {
	cfg := pipelineConfig(t)
	require.NoError(t, Run(cfg))

	paths := Paths{OutputDir: cfg.OutputDir, Name: cfg.Name}

	// The composite covers the union of both sources on their pixel grid,
	// grown by the overscan margins of the outermost tiles.
	cols, rows, tr, err := raster.ReadInfo(paths.Composite(false))
	require.NoError(t, err)
	require.Equal(t, 35, cols)
	require.Equal(t, 25, rows)
	require.Equal(t, raster.Transform{OriginX: 0, OriginY: 20, PixelWidth: 1, PixelHeight: -1}, tr)

	ds, err := raster.Open(paths.Composite(false))
	require.NoError(t, err)
	defer ds.Close()
	data, err := ds.ReadBand(0, 0, 0, cols, rows)
	require.NoError(t, err)
	pixel := func(x, y float64) float64 {
		return data[int(tr.OriginY-y)*cols+int(x-tr.OriginX)]
	}
	// only a covers (5,15), only b covers (25,5), both cover (15,15)
	require.Equal(t, float64(100), pixel(5, 15))
	require.Equal(t, float64(150), pixel(25, 5))
	require.Contains(t, []float64{100, 150}, pixel(15, 15))
	// the overscan margins beyond the sources stay nodata
	require.Equal(t, float64(raster.DefaultNoData), pixel(32, 10))
	require.Equal(t, float64(raster.DefaultNoData), pixel(2, -3))

	// 3x2 fishnet, the outer columns covered by one source each, the
	// middle one by both.
	store, err := scores.Load(paths.ScoreStore())
	require.NoError(t, err)
	require.Len(t, store.Cells(), 6)
	require.Equal(t, 8, store.Len())

	_, err = os.Stat(paths.Manifest(false))
	require.NoError(t, err)
	_, err = os.Stat(paths.Extents())
	require.NoError(t, err)
	_, err = os.Stat(OverviewPath(paths.Composite(false), 2))
	require.NoError(t, err)
}

func TestRunReuse(t *testing.T) {
	cfg := pipelineConfig(t)
	require.NoError(t, Run(cfg))

	cfg.Reuse = true
	require.NoError(t, Run(cfg))

	paths := Paths{OutputDir: cfg.OutputDir, Name: cfg.Name}
	_, err := os.Stat(paths.Composite(true))
	require.NoError(t, err)
	_, err = os.Stat(paths.Manifest(true))
	require.NoError(t, err)

	// The primary composite and the score store survive a reuse run.
	_, err = os.Stat(paths.Composite(false))
	require.NoError(t, err)
	_, err = os.Stat(paths.ScoreStore())
	require.NoError(t, err)
}

func TestRunCleanup(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.Cleanup = true
	require.NoError(t, Run(cfg))

	paths := Paths{OutputDir: cfg.OutputDir, Name: cfg.Name}
	_, err := os.Stat(paths.Composite(false))
	require.NoError(t, err)

	for _, gone := range []string{paths.TileDir(), paths.ScoreStore(), paths.Extents(), paths.Manifest(false)} {
		_, err := os.Stat(gone)
		require.True(t, os.IsNotExist(err), gone)
	}
}

func TestRunRejectsNonPositiveCellSize(t *testing.T) {
	for _, size := range []float64{0, -10} {
		cfg := pipelineConfig(t)
		cfg.CellSize = size
		err := Run(cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "cell size")
	}
}

func TestRunNoSources(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.SourceDir = t.TempDir()
	require.Error(t, Run(cfg))
}

func TestRunReuseWithoutStore(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.Reuse = true
	require.Error(t, Run(cfg))
}
