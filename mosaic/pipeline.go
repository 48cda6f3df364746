// Package mosaic orchestrates a full run: score the sources against the
// fishnet (or reload a persisted score store), flatten the rankings into a
// paint sequence and composite it.
package mosaic

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-spatial/geom"
	"golang.org/x/sync/errgroup"

	"github.com/geoseam/geoseam/extract"
	"github.com/geoseam/geoseam/fishnet"
	"github.com/geoseam/geoseam/geomhelp"
	"github.com/geoseam/geoseam/mapslicehelp"
	"github.com/geoseam/geoseam/raster"
	"github.com/geoseam/geoseam/scores"
)

// Config is one mosaic run.
type Config struct {
	// SourceDir holds the georeferenced source rasters.
	SourceDir string
	// OutputDir receives every artifact of the run.
	OutputDir string
	// Name prefixes all output files.
	Name string
	// CellSize is the fishnet cell edge length in map units.
	CellSize float64
	// Reuse skips extraction and reloads the persisted score store, so
	// overrides edited in it take effect without reclipping anything.
	Reuse bool
	// Cleanup removes the tile directory and the intermediates afterwards,
	// keeping only the composite and its overviews.
	Cleanup bool
	// Workers caps the number of sources extracted concurrently.
	Workers int
	Profile Profile
}

// Run executes one mosaic run end to end.
func Run(cfg Config) error {
	if cfg.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive, got %v", cfg.CellSize)
	}
	start := time.Now()
	paths := Paths{OutputDir: cfg.OutputDir, Name: cfg.Name}

	var store *scores.Store
	var err error
	if cfg.Reuse {
		log.Println("=== reusing score store ===")
		if err = paths.PurgeOverrideOutputs(); err != nil {
			return err
		}
		store, err = scores.Load(paths.ScoreStore())
		if err != nil {
			return err
		}
		log.Printf("  loaded %d records for %d cells", store.Len(), len(store.Cells()))
	} else {
		log.Println("=== start scoring ===")
		store, err = score(cfg, paths)
		if err != nil {
			return err
		}
	}

	log.Println("=== start compositing ===")
	sequence, err := Flatten(store)
	if err != nil {
		return err
	}
	if err := WriteManifest(paths.Manifest(cfg.Reuse), paths.TileDir(), sequence); err != nil {
		return err
	}
	painter := Painter{Profile: cfg.Profile}
	compositePath := paths.Composite(cfg.Reuse)
	if err := painter.Composite(sequence, paths.TileDir(), compositePath); err != nil {
		return err
	}
	if err := painter.BuildOverviews(compositePath); err != nil {
		return err
	}

	if cfg.Cleanup {
		if err := cleanup(paths, cfg.Reuse); err != nil {
			return err
		}
	}

	log.Printf("=== done, %d tiles composited in %s ===", len(sequence), time.Since(start).Round(time.Millisecond))
	return nil
}

// score clips every source against the fishnet and persists the resulting
// score store plus the source extents layer.
func score(cfg Config, paths Paths) (*scores.Store, error) {
	sources, err := listSources(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no source rasters found in %s", cfg.SourceDir)
	}

	// Setup pass over all headers: any unreadable source fails the run
	// before a single tile is written.
	extents := make(map[string]geom.Extent, len(sources))
	names := make([]string, 0, len(sources))
	for _, source := range sources {
		cols, rows, tr, err := raster.ReadInfo(source)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(source)
		names = append(names, name)
		extents[name] = tr.Extent(cols, rows)
		log.Printf("  %s covers %v", name, geomhelp.WktMustEncode(geomhelp.ExtentToPolygon(extents[name]), 120))
	}
	all := make([]geom.Extent, 0, len(names))
	for _, name := range names {
		all = append(all, extents[name])
	}
	global := raster.Union(all...)

	if err := paths.PurgeBuildOutputs(cfg.Profile.Overviews); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(paths.TileDir()); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(paths.TileDir(), 0o755); err != nil {
		return nil, err
	}

	cells := fishnet.Build(global, cfg.CellSize)
	cols, rows := fishnet.Size(global, cfg.CellSize)
	log.Printf("  fishnet of %dx%d cells over %d sources", cols, rows, len(sources))

	extractor := &extract.Extractor{
		TileDir:     paths.TileDir(),
		Overscan:    cfg.Profile.Overscan,
		Compression: cfg.Profile.Compression,
	}

	// One goroutine per source, a failed source degrades the mosaic
	// instead of failing the run. Results are merged in source order so
	// the store is identical regardless of scheduling.
	results := make([]*extract.Result, len(sources))
	var group errgroup.Group
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	group.SetLimit(workers)
	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			ds, err := raster.Open(source)
			if err != nil {
				log.Printf("  skipping %s: %v", filepath.Base(source), err)
				return nil
			}
			defer ds.Close()
			log.Printf("  clipping %s", ds.Name())
			result, err := ds2result(extractor, ds, cells)
			if err != nil {
				log.Printf("  skipping %s: %v", ds.Name(), err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	store := scores.NewStore()
	tiles, skipped, defaulted := 0, 0, 0
	for i, result := range results {
		if result == nil {
			skipped++
			delete(extents, filepath.Base(sources[i]))
			continue
		}
		store.Merge(result.Store)
		tiles += result.Tiles
		if result.DefaultedNoData {
			defaulted++
		}
	}
	log.Printf("  clipped %d tiles, %d sources skipped, %d without nodata value", tiles, skipped, defaulted)
	if store.Len() == 0 {
		return nil, fmt.Errorf("no source raster could be clipped")
	}

	if err := store.Persist(paths.ScoreStore(), cfg.Profile.SRSID); err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(extents))
	for _, name := range names {
		if _, ok := extents[name]; ok {
			kept = append(kept, name)
		}
	}
	if err := scores.WriteExtents(paths.Extents(), cfg.Profile.SRSID, kept, extents); err != nil {
		return nil, err
	}
	return store, nil
}

func ds2result(extractor *extract.Extractor, ds raster.Dataset, cells []fishnet.Cell) (*extract.Result, error) {
	result, err := extractor.ExtractAll(ds, cells)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// listSources returns the TIFF files in dir, sorted by name so runs are
// reproducible independent of directory order.
func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source dir %s: %w", dir, err)
	}
	rasterExts := mapslicehelp.AsKeys([]string{".tif", ".tiff"})
	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := rasterExts[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			sources = append(sources, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(sources)
	return sources, nil
}

func cleanup(paths Paths, reuse bool) error {
	log.Println("=== cleaning up intermediates ===")
	targets := []string{paths.Manifest(reuse)}
	if !reuse {
		targets = append(targets, paths.ScoreStore(), paths.Extents())
	}
	for _, target := range targets {
		log.Printf("  deleting %s", target)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	log.Printf("  deleting %s", paths.TileDir())
	return os.RemoveAll(paths.TileDir())
}
