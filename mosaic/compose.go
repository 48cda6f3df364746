package mosaic

import (
	"fmt"
	"log"
	"math"
	"path/filepath"

	"github.com/go-spatial/geom"

	"github.com/geoseam/geoseam/raster"
	"github.com/geoseam/geoseam/scores"
)

// Compositor assembles the paint sequence into a single output raster and
// derives its reduced-resolution companions.
type Compositor interface {
	Composite(sequence []scores.Record, tileDir, outPath string) error
	BuildOverviews(compositePath string) error
}

// Painter is the in-memory Compositor: it allocates a canvas covering the
// union of all tiles and paints them back to front, treating each tile's
// nodata sentinel as transparent. Later entries in the sequence win, which
// is why Flatten reverses each cell's ranking.
type Painter struct {
	Profile Profile
}

func (p Painter) Composite(sequence []scores.Record, tileDir, outPath string) error {
	if len(sequence) == 0 {
		return fmt.Errorf("compositing %s: empty paint sequence", outPath)
	}

	// Header pass: canvas geometry without decoding any pixels.
	var union geom.Extent
	var tr raster.Transform
	for i, rec := range sequence {
		cols, rows, tileTr, err := raster.ReadInfo(filepath.Join(tileDir, rec.Tile))
		if err != nil {
			return err
		}
		extent := tileTr.Extent(cols, rows)
		if i == 0 {
			union, tr = extent, tileTr
		} else {
			union = raster.Union(union, extent)
		}
	}

	canvasTr := raster.Transform{
		OriginX:     union.MinX(),
		OriginY:     union.MaxY(),
		PixelWidth:  tr.PixelWidth,
		PixelHeight: tr.PixelHeight,
	}
	canvasCols := int(math.Round((union.MaxX() - union.MinX()) / tr.PixelWidth))
	canvasRows := int(math.Round((union.MinY() - union.MaxY()) / tr.PixelHeight))

	canvas := raster.NewMemory(filepath.Base(outPath), canvasCols, canvasRows, 0, canvasTr).
		SetNoData(p.Profile.NoData)
	bands := 0
	for _, rec := range sequence {
		tile, err := raster.Open(filepath.Join(tileDir, rec.Tile), raster.WithNoData(rec.NoData))
		if err != nil {
			return err
		}
		if tile.Bands() > bands {
			// A deeper tile grows the canvas; mono planes painted so far
			// are replicated into the new bands.
			canvas = deepen(canvas, bands, tile.Bands())
			bands = tile.Bands()
		}
		if err := paint(canvas, tile); err != nil {
			tile.Close()
			return err
		}
		tile.Close()
	}

	log.Printf("  painting %d tiles onto %dx%dx%d canvas", len(sequence), canvasCols, canvasRows, bands)
	out, err := raster.Create(outPath, canvasCols, canvasRows, bands, canvasTr, raster.CreateOptions{
		Compression: p.Profile.Compression,
		EightBit:    p.Profile.Depth == "byte",
	})
	if err != nil {
		return err
	}
	for b := 0; b < bands; b++ {
		if err := out.WriteBand(b, canvas.Plane(b)); err != nil {
			return err
		}
	}
	return out.Close()
}

// deepen grows a canvas from have to want bands, replicating the existing
// planes. A zero-band canvas is freshly filled with its nodata sentinel.
func deepen(canvas *raster.Memory, have, want int) *raster.Memory {
	if have >= want {
		return canvas
	}
	cols, rows := canvas.Size()
	nodata, _ := canvas.NoData()
	grown := raster.NewMemory(canvas.Name(), cols, rows, want, canvas.Transform()).
		SetNoData(nodata)
	if have == 0 {
		return grown.Fill(nodata)
	}
	for b := 0; b < want; b++ {
		src := b
		if src >= have {
			src = 0
		}
		copy(grown.Plane(b), canvas.Plane(src))
	}
	return grown
}

// paint copies every non-nodata pixel of tile onto the canvas. The tile is
// aligned by its geotransform; tiles never straddle the canvas edge because
// the canvas covers their union, but the offsets are clipped anyway.
func paint(canvas *raster.Memory, tile raster.Dataset) error {
	canvasCols, canvasRows := canvas.Size()
	tileCols, tileRows := tile.Size()
	canvasTr := canvas.Transform()
	tileTr := tile.Transform()
	offX := int(math.Round((tileTr.OriginX - canvasTr.OriginX) / canvasTr.PixelWidth))
	offY := int(math.Round((tileTr.OriginY - canvasTr.OriginY) / canvasTr.PixelHeight))

	sentinel, _ := tile.NoData()
	for band := 0; band < canvas.Bands(); band++ {
		srcBand := band
		if srcBand >= tile.Bands() {
			srcBand = 0
		}
		data, err := tile.ReadBand(srcBand, 0, 0, tileCols, tileRows)
		if err != nil {
			return err
		}
		for row := 0; row < tileRows; row++ {
			y := offY + row
			if y < 0 || y >= canvasRows {
				continue
			}
			for col := 0; col < tileCols; col++ {
				x := offX + col
				if x < 0 || x >= canvasCols {
					continue
				}
				v := data[row*tileCols+col]
				if v == sentinel {
					continue
				}
				canvas.SetPixel(band, x, y, v)
			}
		}
	}
	return nil
}
