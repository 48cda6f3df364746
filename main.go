package main

import (
	"log"
	"os"
	"runtime"

	"github.com/carlmjohnson/versioninfo"

	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/geoseam/geoseam/mosaic"
)

const SOURCEDIR string = `sourceDir`
const OUTPUTDIR string = `outputDir`
const NAME string = `name`
const CELLSIZE string = `cellsize`
const REUSE string = `reuse`
const CLEANUP string = `cleanup`
const WORKERS string = `workers`
const PROFILE string = `profile`

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "geoseam"
	app.Usage = "A Golang map scan mosaicking application"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     SOURCEDIR,
			Aliases:  []string{"s"},
			Usage:    "Directory with the georeferenced source rasters (TIFF with world file)",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(SOURCEDIR)},
		},
		&cli.StringFlag{
			Name:     OUTPUTDIR,
			Aliases:  []string{"o"},
			Usage:    "Directory for all outputs. The composite will be {name}.tif",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(OUTPUTDIR)},
		},
		&cli.StringFlag{
			Name:     NAME,
			Aliases:  []string{"n"},
			Usage:    "Mosaic name, prefixes every output file",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(NAME)},
		},
		&cli.Float64Flag{
			Name:     CELLSIZE,
			Aliases:  []string{"c"},
			Usage:    "Fishnet cell edge length in map units",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(CELLSIZE)},
		},
		&cli.BoolFlag{
			Name:     REUSE,
			Aliases:  []string{"r"},
			Usage:    "Reuse the persisted score store instead of reclipping, so overrides edited in it take effect",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(REUSE)},
		},
		&cli.BoolFlag{
			Name:     CLEANUP,
			Usage:    "Remove the tile directory and intermediates afterwards, keeping only the composite and its overviews",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(CLEANUP)},
		},
		&cli.IntFlag{
			Name:     WORKERS,
			Aliases:  []string{"w"},
			Usage:    "How many source rasters are clipped concurrently",
			Value:    runtime.NumCPU(),
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(WORKERS)},
		},
		&cli.StringFlag{
			Name:     PROFILE,
			Aliases:  []string{"p"},
			Usage:    "JSON profile with the encode and extraction knobs, built-in defaults when omitted",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(PROFILE)},
		},
	}

	app.Action = func(c *cli.Context) error {
		profile, err := mosaic.LoadProfile(c.String(PROFILE))
		if err != nil {
			return err
		}

		_, err = os.Stat(c.String(SOURCEDIR))
		if os.IsNotExist(err) {
			log.Fatalf("error opening source directory: %s", err)
		}
		if err := os.MkdirAll(c.String(OUTPUTDIR), 0o755); err != nil {
			log.Fatalf("error creating output directory: %s", err)
		}

		return mosaic.Run(mosaic.Config{
			SourceDir: c.String(SOURCEDIR),
			OutputDir: c.String(OUTPUTDIR),
			Name:      c.String(NAME),
			CellSize:  c.Float64(CELLSIZE),
			Reuse:     c.Bool(REUSE),
			Cleanup:   c.Bool(CLEANUP),
			Workers:   c.Int(WORKERS),
			Profile:   profile,
		})
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
