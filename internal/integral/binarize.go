package integral

import (
	"math"

	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

// Feng's fixed parameters, per the formula this package implements.
const (
	fengK1     = 0.25
	fengK2     = 0.04
	fengAlpha1 = 0.12
	fengGamma  = 2.0
)

func neighborhood(w, h, x, y, r int) (x0, y0, nw, nh int) {
	x0, y0 = x-r, y-r
	x1, y1 := x+r+1, y+r+1
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return x0, y0, x1 - x0, y1 - y0
}

// Sauvola adaptively binarizes source using neighborhoods of radius r.
// threshold = mean*(1 + k*(dev/R - 1)). R defaults (when <= 0) to the
// deviation of the whole image.
func Sauvola(ii *Image, source *pixel.Image[uint8], r int, k, R float64) (*pixel.Image[uint8], error) {
	if ii == nil || source == nil {
		return nil, qferr.New(qferr.BadPointer, "integral_image.sauvola", "nil argument")
	}
	if source.Width() != ii.Width() || source.Height() != ii.Height() {
		return nil, qferr.New(qferr.BadSize, "integral_image.sauvola", "shape mismatch")
	}
	w, h := ii.Width(), ii.Height()
	if R <= 0 {
		R = ii.RectStats(0, 0, w, h).Deviation
		if R == 0 {
			R = 1
		}
	}
	out, err := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, w, h, 1, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		srow := source.Row(y)
		drow := out.Row(y)
		for x := 0; x < w; x++ {
			x0, y0, nw, nh := neighborhood(w, h, x, y, r)
			st := ii.RectStats(x0, y0, nw, nh)
			t := st.Mean * (1 + k*(st.Deviation/R-1))
			if float64(srow[x*source.Step()]) > t {
				drow[x] = 255
			} else {
				drow[x] = 0
			}
		}
	}
	return out, nil
}

// Feng adaptively binarizes source using two nested neighborhoods of
// radius r1 and r2 = multiplier*r1.
func Feng(ii *Image, source *pixel.Image[uint8], r1 int, multiplier float64) (*pixel.Image[uint8], error) {
	if ii == nil || source == nil {
		return nil, qferr.New(qferr.BadPointer, "integral_image.feng", "nil argument")
	}
	if source.Width() != ii.Width() || source.Height() != ii.Height() {
		return nil, qferr.New(qferr.BadSize, "integral_image.feng", "shape mismatch")
	}
	w, h := ii.Width(), ii.Height()
	r2 := int(float64(r1) * multiplier)
	if r2 < r1 {
		r2 = r1
	}
	out, err := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, w, h, 1, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		srow := source.Row(y)
		drow := out.Row(y)
		for x := 0; x < w; x++ {
			x0, y0, nw, nh := neighborhood(w, h, x, y, r1)
			local := ii.RectStats(x0, y0, nw, nh)
			ox0, oy0, onw, onh := neighborhood(w, h, x, y, r2)
			outer := ii.RectStats(ox0, oy0, onw, onh)

			devOuter := outer.Deviation
			if devOuter < 1 {
				devOuter = 1
			}
			as := local.Deviation / devOuter

			min, err := pixel.FindMinByte(source, x0, y0, nw, nh)
			minVal := float64(min)
			if err != nil {
				minVal = math.Max(0, local.Mean-fengAlpha1*local.Deviation)
			}

			asg := math.Pow(as, fengGamma)
			t := (1-fengAlpha1)*local.Mean + fengK1*asg*as*(local.Mean-minVal) + fengK2*asg*minVal
			if float64(srow[x*source.Step()]) > t {
				drow[x] = 255
			} else {
				drow[x] = 0
			}
		}
	}
	return out, nil
}
