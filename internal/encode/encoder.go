package encode

import (
	"fmt"
	"image"
)

// Encoder turns a rendered raster into bytes in some image file format.
type Encoder interface {
	// Encode encodes an image to bytes in the target format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png").
	Format() string

	// FileExtension returns the appropriate file extension, including the dot.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality. quality is
// only meaningful for "jpeg" and is ignored otherwise.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q (supported: jpeg, png)", format)
	}
}
