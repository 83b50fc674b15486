package pixel

import (
	"math"

	"github.com/quadforest/quadforest/qferr"
)

// ITU-R BT.601 conversion constants.
const (
	bt601Ry, bt601Gy, bt601By = 0.299, 0.587, 0.114
	bt601Ru, bt601Gu, bt601Bu = -0.14713, -0.28886, 0.436
	bt601Rv, bt601Gv, bt601Bv = 0.615, -0.51499, -0.10001
	uRange, vRange            = 0.436, 0.615
)

// Convert writes a format-converted copy of src into dst. dst and src must
// already have matching dimensions (same W, H); dst.step must match the
// target format's channel count. Convert is the identity (a Copy) when
// formats already match.
func Convert(dst, src *Image[uint8]) error {
	if dst == nil || src == nil {
		return qferr.New(qferr.BadPointer, "pixel_image.convert", "nil image")
	}
	if dst.width != src.width || dst.height != src.height {
		return qferr.New(qferr.BadSize, "pixel_image.convert", "shape mismatch")
	}
	if dst.format == src.format {
		return Copy(dst, src)
	}
	switch {
	case src.format == FormatGrey && dst.format == FormatRGB:
		return greyToRGB(dst, src)
	case src.format == FormatGrey && dst.format == FormatYUV:
		return greyToYUV(dst, src)
	case src.format == FormatRGB && dst.format == FormatGrey:
		return rgbToGrey(dst, src)
	case src.format == FormatRGB && dst.format == FormatYUV:
		return rgbToYUV(dst, src)
	case src.format == FormatYUV && dst.format == FormatRGB:
		return yuvToRGB(dst, src)
	case src.format == FormatYUV && dst.format == FormatGrey:
		return yuvToGrey(dst, src)
	default:
		return qferr.Errorf(qferr.NotImplemented, "pixel_image.convert", "%s -> %s", src.format, dst.format)
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func rgbToYUV(dst, src *Image[uint8]) error {
	if src.step != 3 || dst.step != 3 {
		return qferr.New(qferr.BadType, "pixel_image.convert", "rgb/yuv require step=3")
	}
	for y := 0; y < src.height; y++ {
		s, d := src.Row(y), dst.Row(y)
		for x := 0; x < src.width; x++ {
			r, g, b := float64(s[x*3]), float64(s[x*3+1]), float64(s[x*3+2])
			yy := bt601Ry*r + bt601Gy*g + bt601By*b
			u := bt601Ru*r + bt601Gu*g + bt601Bu*b
			v := bt601Rv*r + bt601Gv*g + bt601Bv*b
			d[x*3] = clampByte(yy)
			d[x*3+1] = clampByte((u/255 + uRange) / (2 * uRange) * 255)
			d[x*3+2] = clampByte((v/255 + vRange) / (2 * vRange) * 255)
		}
	}
	return nil
}

func yuvToRGB(dst, src *Image[uint8]) error {
	if src.step != 3 || dst.step != 3 {
		return qferr.New(qferr.BadType, "pixel_image.convert", "rgb/yuv require step=3")
	}
	for y := 0; y < src.height; y++ {
		s, d := src.Row(y), dst.Row(y)
		for x := 0; x < src.width; x++ {
			yy := float64(s[x*3])
			u := (float64(s[x*3+1])/255*(2*uRange) - uRange) * 255
			v := (float64(s[x*3+2])/255*(2*vRange) - vRange) * 255
			r := yy + 1.13983*v
			g := yy - 0.39465*u - 0.58060*v
			b := yy + 2.03211*u
			d[x*3] = clampByte(r)
			d[x*3+1] = clampByte(g)
			d[x*3+2] = clampByte(b)
		}
	}
	return nil
}

func rgbToGrey(dst, src *Image[uint8]) error {
	if src.step != 3 || dst.step != 1 {
		return qferr.New(qferr.BadType, "pixel_image.convert", "rgb->grey requires step 3->1")
	}
	for y := 0; y < src.height; y++ {
		s, d := src.Row(y), dst.Row(y)
		for x := 0; x < src.width; x++ {
			r, g, b := float64(s[x*3]), float64(s[x*3+1]), float64(s[x*3+2])
			d[x] = clampByte(bt601Ry*r + bt601Gy*g + bt601By*b)
		}
	}
	return nil
}

func greyToRGB(dst, src *Image[uint8]) error {
	if src.step != 1 || dst.step != 3 {
		return qferr.New(qferr.BadType, "pixel_image.convert", "grey->rgb requires step 1->3")
	}
	for y := 0; y < src.height; y++ {
		s, d := src.Row(y), dst.Row(y)
		for x := 0; x < src.width; x++ {
			v := s[x]
			d[x*3], d[x*3+1], d[x*3+2] = v, v, v
		}
	}
	return nil
}

func greyToYUV(dst, src *Image[uint8]) error {
	if src.step != 1 || dst.step != 3 {
		return qferr.New(qferr.BadType, "pixel_image.convert", "grey->yuv requires step 1->3")
	}
	for y := 0; y < src.height; y++ {
		s, d := src.Row(y), dst.Row(y)
		for x := 0; x < src.width; x++ {
			d[x*3] = s[x]
			d[x*3+1] = 128
			d[x*3+2] = 128
		}
	}
	return nil
}

func yuvToGrey(dst, src *Image[uint8]) error {
	if src.step != 3 || dst.step != 1 {
		return qferr.New(qferr.BadType, "pixel_image.convert", "yuv->grey requires step 3->1")
	}
	for y := 0; y < src.height; y++ {
		s, d := src.Row(y), dst.Row(y)
		for x := 0; x < src.width; x++ {
			d[x] = s[x*3]
		}
	}
	return nil
}
