package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// A TIFF world file carries the six geotransform parameters as plain text,
// one per line. Note the origin in a world file is the *center* of the upper
// left pixel, not its corner.
type worldFile struct {
	pixelWidth  float64 // line 1
	rotationY   float64 // line 2
	rotationX   float64 // line 3
	pixelHeight float64 // line 4, negative for north-up
	centerX     float64 // line 5
	centerY     float64 // line 6
}

func parseWorldFile(path string) (worldFile, error) {
	var w worldFile
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("reading world file %s: %w", path, err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 6 {
		return w, fmt.Errorf("world file %s: expected 6 lines, got %d", path, len(lines))
	}
	vals := make([]float64, 6)
	for i := 0; i < 6; i++ {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
		if err != nil {
			return w, fmt.Errorf("world file %s line %d: %w", path, i+1, err)
		}
	}
	w = worldFile{
		pixelWidth:  vals[0],
		rotationY:   vals[1],
		rotationX:   vals[2],
		pixelHeight: vals[3],
		centerX:     vals[4],
		centerY:     vals[5],
	}
	if w.rotationX != 0 || w.rotationY != 0 {
		return w, fmt.Errorf("world file %s: rotated rasters are not supported", path)
	}
	return w, nil
}

func (w worldFile) transform() Transform {
	// shift from pixel center to pixel corner
	return Transform{
		OriginX:     w.centerX - w.pixelWidth/2,
		OriginY:     w.centerY - w.pixelHeight/2,
		PixelWidth:  w.pixelWidth,
		PixelHeight: w.pixelHeight,
	}
}

func worldFileFromTransform(t Transform) worldFile {
	return worldFile{
		pixelWidth:  t.PixelWidth,
		pixelHeight: t.PixelHeight,
		centerX:     t.OriginX + t.PixelWidth/2,
		centerY:     t.OriginY + t.PixelHeight/2,
	}
}

func (w worldFile) format() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return strings.Join([]string{
		f(w.pixelWidth), f(w.rotationY), f(w.rotationX), f(w.pixelHeight), f(w.centerX), f(w.centerY),
	}, "\n") + "\n"
}

func writeWorldFile(path string, t Transform) error {
	return os.WriteFile(path, []byte(worldFileFromTransform(t).format()), 0o644)
}

// worldFilePath derives the sidecar path for a raster: foo.tif -> foo.tfw.
func worldFilePath(rasterPath string) string {
	ext := filepath.Ext(rasterPath)
	return rasterPath[:len(rasterPath)-len(ext)] + ".tfw"
}

// findWorldFile looks for an existing sidecar next to the raster.
func findWorldFile(rasterPath string) string {
	ext := filepath.Ext(rasterPath)
	base := rasterPath[:len(rasterPath)-len(ext)]
	for _, c := range []string{".tfw", ".TFW", ".tifw", ".TIFW"} {
		p := base + c
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
