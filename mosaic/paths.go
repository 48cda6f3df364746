package mosaic

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Paths derives every output location of a run from the output directory and
// the mosaic name. Reuse runs get "_overrides" suffixed outputs so ranking
// iterations never clobber the primary composite.
type Paths struct {
	OutputDir string
	Name      string
}

func (p Paths) TileDir() string {
	return filepath.Join(p.OutputDir, p.Name+"_tiled")
}

func (p Paths) ScoreStore() string {
	return filepath.Join(p.OutputDir, p.Name+"_mosaic.gpkg")
}

func (p Paths) Extents() string {
	return filepath.Join(p.OutputDir, p.Name+"_extents.gpkg")
}

func (p Paths) Manifest(reuse bool) string {
	if reuse {
		return filepath.Join(p.OutputDir, p.Name+"_mosaic_overrides.csv")
	}
	return filepath.Join(p.OutputDir, p.Name+"_mosaic.csv")
}

func (p Paths) Composite(reuse bool) string {
	if reuse {
		return filepath.Join(p.OutputDir, p.Name+"_overrides.tif")
	}
	return filepath.Join(p.OutputDir, p.Name+".tif")
}

// OverviewPath names a reduced-resolution companion of a composite:
// foo.tif -> foo_8.tif for factor 8.
func OverviewPath(compositePath string, factor int) string {
	ext := filepath.Ext(compositePath)
	return fmt.Sprintf("%s_%d%s", compositePath[:len(compositePath)-len(ext)], factor, ext)
}

// PurgeBuildOutputs deletes any prior composite, its overviews for the
// given factors, the score store and the extents so a fresh build starts
// clean. Only artifacts this run derives itself are touched; a sibling
// mosaic whose name merely shares the prefix is left alone.
func (p Paths) PurgeBuildOutputs(overviewFactors []int) error {
	patterns := []string{
		p.Name + ".tif", p.Name + ".tfw",
		p.Name + "_overrides.*", p.Name + "_overrides_*",
		p.Name + "_mosaic.*", p.Name + "_mosaic_overrides.*", p.Name + "_extents.*",
	}
	for _, factor := range overviewFactors {
		overview := filepath.Base(OverviewPath(p.Composite(false), factor))
		ext := filepath.Ext(overview)
		patterns = append(patterns, overview, overview[:len(overview)-len(ext)]+".tfw")
	}
	return p.purge(patterns...)
}

// PurgeOverrideOutputs deletes only the override-specific intermediates,
// keeping the loaded score store and the primary composite.
func (p Paths) PurgeOverrideOutputs() error {
	return p.purge(p.Name+"_overrides.*", p.Name+"_overrides_*", p.Name+"_mosaic_overrides.*")
}

func (p Paths) purge(patterns ...string) error {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(p.OutputDir, pattern))
		if err != nil {
			return fmt.Errorf("globbing %s: %w", pattern, err)
		}
		for _, match := range matches {
			log.Printf("  deleting %s", match)
			if err := os.Remove(match); err != nil {
				return fmt.Errorf("deleting %s: %w", match, err)
			}
		}
	}
	return nil
}
