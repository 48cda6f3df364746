// Package extract clips the overlap of one source raster with one fishnet
// cell into an independent tile artifact and scores it. The pixel window
// math lives in window.go and is free of side effects; Extractor adds the
// artifact writing on top.
package extract

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/geoseam/geoseam/fishnet"
	"github.com/geoseam/geoseam/geomhelp"
	"github.com/geoseam/geoseam/raster"
	"github.com/geoseam/geoseam/scores"
)

// Extractor writes tile artifacts for (raster, cell) pairs into TileDir.
type Extractor struct {
	TileDir string
	// Overscan is the extra read margin in pixels (DefaultOverscan when zero-valued Extractor is not used).
	Overscan int
	// Compression for the tile artifacts, "none" or "deflate".
	Compression string
}

// Result tallies one raster's extraction for the run report.
type Result struct {
	Store *scores.Store
	// Tiles is the number of tiles produced.
	Tiles int
	// DefaultedNoData is true when the source had no nodata sentinel and
	// the default was applied. Valid dark pixels may then be counted as
	// nodata, which is worth surfacing, not hiding.
	DefaultedNoData bool
}

// ExtractAll clips one source raster against every cell of the fishnet and
// returns the raster's score store increment. Cells that do not overlap the
// raster, or whose clipped window degenerates, produce no tile.
func (ex *Extractor) ExtractAll(ds raster.Dataset, cells []fishnet.Cell) (Result, error) {
	result := Result{Store: scores.NewStore()}

	nodata, ok := ds.NoData()
	if !ok {
		nodata = raster.DefaultNoData
		result.DefaultedNoData = true
		log.Printf("  %s declares no nodata value, assuming %v", ds.Name(), nodata)
	}

	for _, cell := range cells {
		rec, err := ex.extract(ds, cell, nodata)
		if err != nil {
			return result, err
		}
		if rec == nil {
			continue
		}
		result.Store.Put(*rec)
		result.Tiles++
	}
	return result, nil
}

// extract produces the tile for one (raster, cell) pair, or nil when the
// pair yields none.
func (ex *Extractor) extract(ds raster.Dataset, cell fishnet.Cell, nodata float64) (*scores.Record, error) {
	cols, rows := ds.Size()
	tr := ds.Transform()
	rasterExtent := tr.Extent(cols, rows)

	if !Overlaps(cell.Extent, rasterExtent) {
		return nil, nil
	}
	overscan := ex.Overscan
	if overscan == 0 {
		overscan = DefaultOverscan
	}
	win, ok := ComputeWindow(cell.Extent, tr, cols, rows, overscan)
	if !ok {
		return nil, nil
	}

	tileName := scores.TileName(cell.ID(), ds.Name())
	tilePath := filepath.Join(ex.TileDir, tileName)
	w, err := raster.Create(tilePath, win.W, win.H, ds.Bands(), TileTransform(win, tr), raster.CreateOptions{
		Compression: ex.Compression,
	})
	if err != nil {
		return nil, err
	}

	var nodataCount int
	for band := 0; band < ds.Bands(); band++ {
		plane := make([]float64, win.W*win.H)
		for i := range plane {
			plane[i] = nodata
		}
		read, err := ds.ReadBand(band, win.ReadX, win.ReadY, win.ReadW, win.ReadH)
		if err != nil {
			return nil, fmt.Errorf("reading %s for cell %s: %w", ds.Name(), cell.ID(), err)
		}
		for row := 0; row < win.ReadH; row++ {
			dst := plane[(win.DstY+row)*win.W+win.DstX:]
			copy(dst[:win.ReadW], read[row*win.ReadW:(row+1)*win.ReadW])
		}
		for _, v := range read {
			if v == nodata {
				nodataCount++
			}
		}
		if err := w.WriteBand(band, plane); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return &scores.Record{
		Raster:   ds.Name(),
		Cell:     cell.ID(),
		Tile:     tileName,
		Distance: geomhelp.Distance(geomhelp.Center(cell.Extent), tr.Center(cols, rows)),
		NoDatas:  float64(nodataCount) / float64(ds.Bands()),
		NoData:   nodata,
		Extent:   cell.Extent,
	}, nil
}
