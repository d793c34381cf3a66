// Package imageprep validates uploaded figurine photos and shrinks them into
// the JPEG payload sent to the model.
package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
)

var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image too large")
)

// OutputMIME is the content type of every optimized image.
const OutputMIME = "image/jpeg"

var supportedFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
}

// Limits bound what Inspect accepts. Zero disables a limit.
type Limits struct {
	MaxBytes  int64
	MaxPixels int
}

// Meta describes an accepted upload.
type Meta struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Size is the human readable upload size.
func (m Meta) Size() string {
	return FormatSize(m.SizeBytes)
}

// Inspect checks the upload without decoding pixel data.
func Inspect(data []byte, limits Limits) (Meta, error) {
	if len(data) == 0 {
		return Meta{}, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	size := int64(len(data))
	if limits.MaxBytes > 0 && size > limits.MaxBytes {
		return Meta{}, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, FormatSize(size), FormatSize(limits.MaxBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Meta{}, fmt.Errorf("%w: unknown format", ErrUnsupportedFormat)
		}
		return Meta{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if !supportedFormats[format] {
		return Meta{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Meta{}, fmt.Errorf("%w: zero dimensions", ErrInvalidImage)
	}
	if limits.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(limits.MaxPixels) {
		return Meta{}, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	return Meta{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		SizeBytes: size,
	}, nil
}

// Options control Optimize.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// DefaultOptions fit the image into 1024x1024 at JPEG quality 85.
func DefaultOptions() Options {
	return Options{MaxWidth: 1024, MaxHeight: 1024, Quality: 85}
}

// Prepared is the payload handed to the model.
type Prepared struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Optimize applies the EXIF orientation, fits the image into the bounding box
// without upscaling, flattens transparency onto white and re-encodes as JPEG.
func Optimize(data []byte, opts Options) (Prepared, error) {
	defaults := DefaultOptions()
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaults.MaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = defaults.MaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaults.Quality
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	fitted := imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	b := fitted.Bounds()
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), fitted, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return Prepared{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Prepared{
		Data:   buf.Bytes(),
		MIME:   OutputMIME,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// FormatSize renders a byte count for display, e.g. "1.5 MiB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
