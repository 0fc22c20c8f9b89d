package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"JuliaRenderer/misc"
)

const (
	PNG Format = iota
	JPEG
)

type Format int

func (f Format) String() string {
	if f < PNG || f > JPEG {
		return "Unknown"
	}
	return []string{
		"png", "jpeg",
	}[f]
}

// FormatFromPath picks the format from the file extension. Anything that is not a jpeg is saved as png.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG
	default:
		return PNG
	}
}

func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("unknown image format %d", format)
	}
}

// Decode reads a png or jpeg into an RGBA image whose bounds start at the origin.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image - %w", err)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// Encode writes a snapshot of the canvas to w.
func (c *Canvas) Encode(w io.Writer, format Format) error {
	return Encode(w, c.Snapshot(), format)
}

// Bytes encodes a snapshot of the canvas in memory.
func (c *Canvas) Bytes(format Format) ([]byte, error) {
	var buffer bytes.Buffer
	if err := c.Encode(&buffer, format); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Save writes a snapshot of the canvas to path, creating parent directories as needed.
func (c *Canvas) Save(path string) error {
	contents, err := c.Bytes(FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("unable to encode image %s - %w", path, err)
	}
	if _, err = misc.WriteFile(path, contents); err != nil {
		return err
	}

	logger := misc.NewLogger("Canvas")
	logger.Infof("Saved image to %s", path)
	return nil
}
