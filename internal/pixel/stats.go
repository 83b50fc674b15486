package pixel

import (
	"math"

	"github.com/quadforest/quadforest/qferr"
)

// FindMinByte returns the minimum channel-0 sample over the rectangle
// [x,x+w) x [y,y+h).
func FindMinByte(img *Image[uint8], x, y, w, h int) (uint8, error) {
	if img == nil {
		return 0, qferr.New(qferr.BadPointer, "pixel_image.find_min_byte", "nil image")
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > img.width || y+h > img.height {
		return 0, qferr.New(qferr.BadSize, "pixel_image.find_min_byte", "rect out of range")
	}
	min := uint8(255)
	for dy := 0; dy < h; dy++ {
		row := img.Row(y + dy)
		for dx := 0; dx < w; dx++ {
			if v := row[(x+dx)*img.step]; v < min {
				min = v
			}
		}
	}
	return min, nil
}

// FindMaxByte returns the maximum channel-0 sample over the rectangle.
func FindMaxByte(img *Image[uint8], x, y, w, h int) (uint8, error) {
	if img == nil {
		return 0, qferr.New(qferr.BadPointer, "pixel_image.find_max_byte", "nil image")
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > img.width || y+h > img.height {
		return 0, qferr.New(qferr.BadSize, "pixel_image.find_max_byte", "rect out of range")
	}
	max := uint8(0)
	for dy := 0; dy < h; dy++ {
		row := img.Row(y + dy)
		for dx := 0; dx < w; dx++ {
			if v := row[(x+dx)*img.step]; v > max {
				max = v
			}
		}
	}
	return max, nil
}

// MeanByte returns the arithmetic mean of the channel-0 samples in the
// rectangle, by direct summation (not the integral image).
func MeanByte(img *Image[uint8], x, y, w, h int) (float64, error) {
	if img == nil {
		return 0, qferr.New(qferr.BadPointer, "pixel_image.mean_byte", "nil image")
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > img.width || y+h > img.height {
		return 0, qferr.New(qferr.BadSize, "pixel_image.mean_byte", "rect out of range")
	}
	var sum float64
	for dy := 0; dy < h; dy++ {
		row := img.Row(y + dy)
		for dx := 0; dx < w; dx++ {
			sum += float64(row[(x+dx)*img.step])
		}
	}
	return sum / float64(w*h), nil
}

// VarianceByte returns the (clamped non-negative) variance of the
// channel-0 samples in the rectangle, by direct summation.
func VarianceByte(img *Image[uint8], x, y, w, h int) (float64, error) {
	if img == nil {
		return 0, qferr.New(qferr.BadPointer, "pixel_image.variance_byte", "nil image")
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > img.width || y+h > img.height {
		return 0, qferr.New(qferr.BadSize, "pixel_image.variance_byte", "rect out of range")
	}
	var sum, sum2 float64
	n := float64(w * h)
	for dy := 0; dy < h; dy++ {
		row := img.Row(y + dy)
		for dx := 0; dx < w; dx++ {
			v := float64(row[(x+dx)*img.step])
			sum += v
			sum2 += v * v
		}
	}
	mean := sum / n
	variance := sum2/n - mean*mean
	return math.Max(0, variance), nil
}
