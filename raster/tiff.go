package raster

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"github.com/geoseam/geoseam/mathhelp"
)

// File is a GeoTIFF-backed Dataset: a TIFF for the pixels and a world file
// sidecar for the geotransform. The whole image is decoded on open; source
// map scans are modest and the batch reads every pixel anyway.
type File struct {
	name      string
	path      string
	cols      int
	rows      int
	nodata    float64
	hasNoData bool
	transform Transform
	bands     [][]float64
}

// OpenOption tweaks how a raster file is opened.
type OpenOption func(*File)

// WithNoData declares the nodata sentinel for a source that does not carry
// one itself.
func WithNoData(v float64) OpenOption {
	return func(f *File) {
		f.nodata = v
		f.hasNoData = true
	}
}

// Open reads a TIFF raster and its world file sidecar.
func Open(path string, opts ...OpenOption) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raster %s: %w", path, err)
	}
	defer fh.Close()

	img, err := tiff.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decoding raster %s: %w", path, err)
	}

	wfPath := findWorldFile(path)
	if wfPath == "" {
		return nil, fmt.Errorf("raster %s: no world file sidecar found", path)
	}
	wf, err := parseWorldFile(wfPath)
	if err != nil {
		return nil, err
	}

	f := &File{
		name:      filepath.Base(path),
		path:      path,
		transform: wf.transform(),
	}
	f.bands, f.cols, f.rows = imageToPlanes(img)
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *File) Name() string            { return f.name }
func (f *File) Size() (int, int)        { return f.cols, f.rows }
func (f *File) Bands() int              { return len(f.bands) }
func (f *File) NoData() (float64, bool) { return f.nodata, f.hasNoData }
func (f *File) Transform() Transform    { return f.transform }
func (f *File) Close() error            { f.bands = nil; return nil }

func (f *File) ReadBand(band, x, y, w, h int) ([]float64, error) {
	if band < 0 || band >= len(f.bands) {
		return nil, fmt.Errorf("raster %s: no band %d", f.name, band)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > f.cols || y+h > f.rows {
		return nil, fmt.Errorf("raster %s: read window %d,%d %dx%d outside %dx%d", f.name, x, y, w, h, f.cols, f.rows)
	}
	out := make([]float64, w*h)
	for row := 0; row < h; row++ {
		src := f.bands[band][(y+row)*f.cols+x:]
		copy(out[row*w:(row+1)*w], src[:w])
	}
	return out, nil
}

// imageToPlanes splits a decoded image into per-band planes.
// 16-bit images keep their sample values verbatim (that is how the 256
// sentinel survives in tile artifacts); 8-bit images yield 0..255.
func imageToPlanes(img image.Image) (planes [][]float64, cols, rows int) {
	b := img.Bounds()
	cols, rows = b.Dx(), b.Dy()

	switch im := img.(type) {
	case *image.Gray:
		planes = newPlanes(1, cols*rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				planes[0][y*cols+x] = float64(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		planes = newPlanes(1, cols*rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				planes[0][y*cols+x] = float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.RGBA64:
		planes = newPlanes(3, cols*rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				c := im.RGBA64At(b.Min.X+x, b.Min.Y+y)
				i := y*cols + x
				planes[0][i] = float64(c.R)
				planes[1][i] = float64(c.G)
				planes[2][i] = float64(c.B)
			}
		}
	case *image.NRGBA64:
		planes = newPlanes(3, cols*rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				c := im.NRGBA64At(b.Min.X+x, b.Min.Y+y)
				i := y*cols + x
				planes[0][i] = float64(c.R)
				planes[1][i] = float64(c.G)
				planes[2][i] = float64(c.B)
			}
		}
	default:
		// 8-bit RGB(A) and anything else via the generic accessor
		planes = newPlanes(3, cols*rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := y*cols + x
				planes[0][i] = float64(r >> 8)
				planes[1][i] = float64(g >> 8)
				planes[2][i] = float64(bb >> 8)
			}
		}
	}
	return planes, cols, rows
}

func newPlanes(n, size int) [][]float64 {
	planes := make([][]float64, n)
	for i := range planes {
		planes[i] = make([]float64, size)
	}
	return planes
}

// ReadInfo reads a raster's dimensions and geotransform without decoding
// pixel data. It is what the setup pass uses to compute the global extent.
func ReadInfo(path string) (cols, rows int, tr Transform, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, 0, tr, fmt.Errorf("opening raster %s: %w", path, err)
	}
	defer fh.Close()

	cfg, err := tiff.DecodeConfig(fh)
	if err != nil {
		return 0, 0, tr, fmt.Errorf("reading raster header %s: %w", path, err)
	}

	wfPath := findWorldFile(path)
	if wfPath == "" {
		return 0, 0, tr, fmt.Errorf("raster %s: no world file sidecar found", path)
	}
	wf, err := parseWorldFile(wfPath)
	if err != nil {
		return 0, 0, tr, err
	}
	return cfg.Width, cfg.Height, wf.transform(), nil
}

// OpenImage decodes a raster as a plain image together with its
// geotransform, for image-level operations like overview resampling.
func OpenImage(path string) (image.Image, Transform, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, Transform{}, fmt.Errorf("opening raster %s: %w", path, err)
	}
	defer fh.Close()

	img, err := tiff.Decode(fh)
	if err != nil {
		return nil, Transform{}, fmt.Errorf("decoding raster %s: %w", path, err)
	}
	wfPath := findWorldFile(path)
	if wfPath == "" {
		return nil, Transform{}, fmt.Errorf("raster %s: no world file sidecar found", path)
	}
	wf, err := parseWorldFile(wfPath)
	if err != nil {
		return nil, Transform{}, err
	}
	return img, wf.transform(), nil
}

// SaveImage encodes a plain image as a raster artifact with its world file.
func SaveImage(path string, img image.Image, tr Transform, compression string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating raster %s: %w", path, err)
	}
	defer fh.Close()

	c := tiff.Deflate
	if compression == "none" {
		c = tiff.Uncompressed
	}
	if err := tiff.Encode(fh, img, &tiff.Options{Compression: c}); err != nil {
		return fmt.Errorf("encoding raster %s: %w", path, err)
	}
	return writeWorldFile(worldFilePath(path), tr)
}

// CreateOptions steer the encoding of a raster artifact.
type CreateOptions struct {
	// Compression is "none" or "deflate".
	Compression string
	// EightBit clamps samples to 0..255 and writes 8 bits per sample.
	// Without it, 16 bits per sample are written so sentinel values above
	// 255 survive.
	EightBit bool
}

// Writer accumulates band planes for a new raster artifact and encodes them
// on Close, together with the world file sidecar.
type Writer struct {
	path      string
	cols      int
	rows      int
	transform Transform
	opts      CreateOptions
	bands     [][]float64
}

// Create starts a new cols x rows x bands raster artifact at path.
func Create(path string, cols, rows, bands int, transform Transform, opts CreateOptions) (*Writer, error) {
	if cols <= 0 || rows <= 0 || bands <= 0 {
		return nil, fmt.Errorf("creating raster %s: degenerate size %dx%dx%d", path, cols, rows, bands)
	}
	if bands != 1 && bands != 3 {
		return nil, fmt.Errorf("creating raster %s: only 1 or 3 bands supported, got %d", path, bands)
	}
	return &Writer{
		path:      path,
		cols:      cols,
		rows:      rows,
		transform: transform,
		opts:      opts,
		bands:     newPlanes(bands, cols*rows),
	}, nil
}

// WriteBand replaces the full plane of the given 0-based band.
func (w *Writer) WriteBand(band int, data []float64) error {
	if band < 0 || band >= len(w.bands) {
		return fmt.Errorf("raster %s: no band %d", w.path, band)
	}
	if len(data) != w.cols*w.rows {
		return fmt.Errorf("raster %s: plane size %d, want %d", w.path, len(data), w.cols*w.rows)
	}
	copy(w.bands[band], data)
	return nil
}

// Close encodes the TIFF and writes the world file.
func (w *Writer) Close() error {
	img := w.toImage()

	fh, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("creating raster %s: %w", w.path, err)
	}
	defer fh.Close()

	compression := tiff.Deflate
	if w.opts.Compression == "none" {
		compression = tiff.Uncompressed
	}
	err = tiff.Encode(fh, img, &tiff.Options{Compression: compression})
	if err != nil {
		return fmt.Errorf("encoding raster %s: %w", w.path, err)
	}

	return writeWorldFile(worldFilePath(w.path), w.transform)
}

func (w *Writer) toImage() image.Image {
	rect := image.Rect(0, 0, w.cols, w.rows)
	switch {
	case len(w.bands) == 1 && w.opts.EightBit:
		img := image.NewGray(rect)
		for i, v := range w.bands[0] {
			img.Pix[i] = clamp8(v)
		}
		return img
	case len(w.bands) == 1:
		img := image.NewGray16(rect)
		for y := 0; y < w.rows; y++ {
			for x := 0; x < w.cols; x++ {
				img.SetGray16(x, y, color.Gray16{Y: clamp16(w.bands[0][y*w.cols+x])})
			}
		}
		return img
	case w.opts.EightBit:
		img := image.NewRGBA(rect)
		for y := 0; y < w.rows; y++ {
			for x := 0; x < w.cols; x++ {
				i := y*w.cols + x
				img.SetRGBA(x, y, color.RGBA{
					R: clamp8(w.bands[0][i]),
					G: clamp8(w.bands[1][i]),
					B: clamp8(w.bands[2][i]),
					A: 0xff,
				})
			}
		}
		return img
	default:
		img := image.NewRGBA64(rect)
		for y := 0; y < w.rows; y++ {
			for x := 0; x < w.cols; x++ {
				i := y*w.cols + x
				img.SetRGBA64(x, y, color.RGBA64{
					R: clamp16(w.bands[0][i]),
					G: clamp16(w.bands[1][i]),
					B: clamp16(w.bands[2][i]),
					A: 0xffff,
				})
			}
		}
		return img
	}
}

func clamp8(v float64) uint8 {
	return uint8(mathhelp.Clamp(v, 0, 255))
}

func clamp16(v float64) uint16 {
	return uint16(mathhelp.Clamp(v, 0, 65535))
}
