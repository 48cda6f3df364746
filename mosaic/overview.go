package mosaic

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/draw"

	"github.com/geoseam/geoseam/raster"
)

// BuildOverviews writes one reduced-resolution companion per configured
// factor next to the composite, resampled with the profile's kernel.
func (p Painter) BuildOverviews(compositePath string) error {
	if len(p.Profile.Overviews) == 0 {
		return nil
	}
	src, tr, err := raster.OpenImage(compositePath)
	if err != nil {
		return err
	}
	scaler, err := resampler(p.Profile.Resampling)
	if err != nil {
		return err
	}
	for _, factor := range p.Profile.Overviews {
		outPath := OverviewPath(compositePath, factor)
		log.Printf("  building overview %s", outPath)
		if err := writeOverview(outPath, src, tr, factor, scaler, p.Profile.Compression); err != nil {
			return err
		}
	}
	return nil
}

func writeOverview(path string, src image.Image, tr raster.Transform, factor int, scaler draw.Scaler, compression string) error {
	bounds := src.Bounds()
	cols := (bounds.Dx() + factor - 1) / factor
	rows := (bounds.Dy() + factor - 1) / factor
	rect := image.Rect(0, 0, cols, rows)

	var dst draw.Image
	switch src.(type) {
	case *image.Gray:
		dst = image.NewGray(rect)
	case *image.Gray16:
		dst = image.NewGray16(rect)
	case *image.RGBA64, *image.NRGBA64:
		dst = image.NewRGBA64(rect)
	default:
		dst = image.NewRGBA(rect)
	}
	scaler.Scale(dst, rect, src, bounds, draw.Src, nil)

	overviewTr := raster.Transform{
		OriginX:     tr.OriginX,
		OriginY:     tr.OriginY,
		PixelWidth:  tr.PixelWidth * float64(factor),
		PixelHeight: tr.PixelHeight * float64(factor),
	}
	return raster.SaveImage(path, dst, overviewTr, compression)
}

func resampler(name string) (draw.Scaler, error) {
	switch name {
	case "catmullrom":
		return draw.CatmullRom, nil
	case "bilinear":
		return draw.ApproxBiLinear, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	}
	return nil, fmt.Errorf("unknown resampling kernel %q", name)
}
