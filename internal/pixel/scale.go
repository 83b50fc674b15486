package pixel

import "github.com/quadforest/quadforest/qferr"

// ScaleDown produces a new owned image at half the width and height of src,
// sampling every other row and column (pure 2x nearest-neighbor).
func ScaleDown[T Element](src *Image[T]) (*Image[T], error) {
	if src == nil {
		return nil, qferr.New(qferr.BadPointer, "pixel_image.scale_down", "nil image")
	}
	w, h := src.width/2, src.height/2
	if w <= 0 || h <= 0 {
		return nil, qferr.New(qferr.BadSize, "pixel_image.scale_down", "image too small to halve")
	}
	dst, err := Create[T](src.typ, src.format, w, h, src.step, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		srow := src.Row(y * 2)
		drow := dst.Row(y)
		for x := 0; x < w; x++ {
			for ch := 0; ch < src.step; ch++ {
				drow[x*src.step+ch] = srow[(x*2)*src.step+ch]
			}
		}
	}
	return dst, nil
}

// ScaleUp produces a new owned image at double the width and height of src,
// replicating every sample into a 2x2 block (pure 2x nearest-neighbor).
func ScaleUp[T Element](src *Image[T]) (*Image[T], error) {
	if src == nil {
		return nil, qferr.New(qferr.BadPointer, "pixel_image.scale_up", "nil image")
	}
	w, h := src.width*2, src.height*2
	dst, err := Create[T](src.typ, src.format, w, h, src.step, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.height; y++ {
		srow := src.Row(y)
		for dy := 0; dy < 2; dy++ {
			drow := dst.Row(y*2 + dy)
			for x := 0; x < src.width; x++ {
				for ch := 0; ch < src.step; ch++ {
					v := srow[x*src.step+ch]
					drow[(x*2)*src.step+ch] = v
					drow[(x*2+1)*src.step+ch] = v
				}
			}
		}
	}
	return dst, nil
}

// Normalize maps src's channel values linearly into [0,255] and writes the
// result into dst (which must be step-compatible U8). When min==max==0,
// the range is auto-detected per channel from src itself.
func Normalize[T Element](dst *Image[uint8], src *Image[T], min, max float64) error {
	if dst == nil || src == nil {
		return qferr.New(qferr.BadPointer, "pixel_image.normalize", "nil image")
	}
	if dst.width != src.width || dst.height != src.height || dst.step != src.step {
		return qferr.New(qferr.BadSize, "pixel_image.normalize", "shape mismatch")
	}
	if min == 0 && max == 0 {
		min, max = float64(1<<62), -float64(1<<62)
		for y := 0; y < src.height; y++ {
			row := src.Row(y)
			for _, v := range row {
				fv := float64(v)
				if fv < min {
					min = fv
				}
				if fv > max {
					max = fv
				}
			}
		}
		if min > max {
			min, max = 0, 0
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	for y := 0; y < src.height; y++ {
		srow, drow := src.Row(y), dst.Row(y)
		for i, v := range srow {
			drow[i] = clampByte((float64(v) - min) / span * 255)
		}
	}
	return nil
}
