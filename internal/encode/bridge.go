package encode

import (
	"image"
	"image/color"

	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

// ToPixelImage converts a decoded image.Image into an RGB pixel.Image[uint8],
// the format Forest.Create accepts as a source regardless of the original
// sample's own channel layout (it converts internally via pixel.Convert).
func ToPixelImage(img image.Image) (*pixel.Image[uint8], error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out, err := pixel.Create[uint8](pixel.U8, pixel.FormatRGB, w, h, 3, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Set(x, y, 0, uint8(r>>8))
			out.Set(x, y, 1, uint8(g>>8))
			out.Set(x, y, 2, uint8(bl>>8))
		}
	}
	return out, nil
}

// FromPixelImage converts an RGB or grey pixel.Image[uint8] into a standard
// image.Image so it can be handed to an Encoder. Any other format is
// rejected; callers convert to RGB or Grey first via pixel.Convert.
func FromPixelImage(src *pixel.Image[uint8]) (image.Image, error) {
	w, h := src.Width(), src.Height()
	switch src.Format() {
	case pixel.FormatRGB:
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetRGBA(x, y, color.RGBA{
					R: src.At(x, y, 0), G: src.At(x, y, 1), B: src.At(x, y, 2), A: 255,
				})
			}
		}
		return out, nil
	case pixel.FormatGrey, pixel.FormatMono:
		out := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetGray(x, y, color.Gray{Y: src.At(x, y, 0)})
			}
		}
		return out, nil
	default:
		return nil, qferr.Errorf(qferr.NotImplemented, "encode.from_pixel_image", "unsupported format %s", src.Format())
	}
}
