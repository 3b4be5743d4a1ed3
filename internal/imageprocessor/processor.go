package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned when the payload is not a decodable image
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// Supported source formats (as reported by image.Decode)
var supportedFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// Result is a normalized JPEG image
type Result struct {
	Data         []byte
	Width        int
	Height       int
	SourceFormat string
	ContentType  string
}

// Processor handles image processing operations
type Processor struct {
	quality      int // JPEG quality (1-100)
	maxDimension int // Longest side after downscale
}

// NewProcessor creates a new image processor
func NewProcessor(quality, maxDimension int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85 // Default quality
	}
	if maxDimension <= 0 {
		maxDimension = 1536
	}
	return &Processor{quality: quality, maxDimension: maxDimension}
}

// Normalize decodes an uploaded image, downscales it so the longest side
// fits maxDimension and re-encodes it as JPEG. Transparent areas are
// flattened onto white.
func (p *Processor) Normalize(data []byte) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if _, ok := supportedFormats[format]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	width, height := fit(bounds.Dx(), bounds.Dy(), p.maxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		// Resize using high-quality algorithm
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return &Result{
		Data:         buf.Bytes(),
		Width:        width,
		Height:       height,
		SourceFormat: format,
		ContentType:  "image/jpeg",
	}, nil
}

// fit scales (w, h) down so that the longest side is at most max,
// maintaining aspect ratio
func fit(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := int(float64(h) * float64(max) / float64(w))
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := int(float64(w) * float64(max) / float64(h))
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// DetectContentType returns the MIME type of a decodable image header
func DetectContentType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	ct, ok := supportedFormats[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	return ct, nil
}
