// Package integral implements the summed-area table engine: running S1/S2
// planes over a PixelImage's first channel, giving O(1) rectangle
// statistics, plus the Sauvola/Feng adaptive-binarization algorithms built
// on top of it.
package integral

import (
	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/internal/stats"
	"github.com/quadforest/quadforest/qferr"
)

// Image is a pair of (W+1)x(H+1) summed-area planes over a source's first
// channel: I1 accumulates identity, I2 accumulates squares.
type Image struct {
	width, height int
	i1, i2        []float64 // row-major, stride width+1
}

// Create allocates the (W+1)x(H+1) planes, zero-initialized (satisfying
// the "top row and left column are zero" invariant for free).
func Create(w, h int) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, qferr.Errorf(qferr.BadSize, "integral_image.create", "non-positive dimensions %dx%d", w, h)
	}
	n := (w + 1) * (h + 1)
	return &Image{width: w, height: h, i1: make([]float64, n), i2: make([]float64, n)}, nil
}

func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

func (img *Image) at(plane []float64, x, y int) float64 {
	return plane[y*(img.width+1)+x]
}

// Update recomputes I1 and I2 from source's channel 0 by one sweep of the
// recurrence I[y+1,x+1] = I[y+1,x] + I[y,x+1] - I[y,x] + f(p(y,x)).
func (img *Image) Update(source *pixel.Image[uint8]) error {
	if source == nil {
		return qferr.New(qferr.BadPointer, "integral_image.update", "nil source")
	}
	if source.Width() != img.width || source.Height() != img.height {
		return qferr.New(qferr.BadSize, "integral_image.update", "source shape mismatch")
	}
	stride := img.width + 1
	for y := 0; y < img.height; y++ {
		row := source.Row(y)
		for x := 0; x < img.width; x++ {
			v := float64(row[x*source.Step()])
			above := img.i1[y*stride+(x+1)]
			left := img.i1[(y+1)*stride+x]
			aboveLeft := img.i1[y*stride+x]
			img.i1[(y+1)*stride+(x+1)] = above + left - aboveLeft + v

			above2 := img.i2[y*stride+(x+1)]
			left2 := img.i2[(y+1)*stride+x]
			aboveLeft2 := img.i2[y*stride+x]
			img.i2[(y+1)*stride+(x+1)] = above2 + left2 - aboveLeft2 + v*v
		}
	}
	return nil
}

// clip restricts [x,x+w) x [y,y+h) to the valid [0,width) x [0,height)
// range, returning ok=false if the result is empty.
func (img *Image) clip(x, y, w, h int) (cx, cy, cw, ch int, ok bool) {
	x1, y1 := x+w, y+h
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x1 > img.width {
		x1 = img.width
	}
	if y1 > img.height {
		y1 = img.height
	}
	if x1 <= x || y1 <= y {
		return 0, 0, 0, 0, false
	}
	return x, y, x1 - x, y1 - y, true
}

// RectStats returns the Statistics of [x,x+w) x [y,y+h), derived in O(1)
// from the four-corner identity. A rectangle entirely outside the image
// yields zeroed stats; a partially-outside rectangle is clipped first.
func (img *Image) RectStats(x, y, w, h int) stats.Statistics {
	cx, cy, cw, ch, ok := img.clip(x, y, w, h)
	if !ok {
		return stats.Zero()
	}
	stride := img.width + 1
	sum := img.i1[(cy+ch)*stride+(cx+cw)] + img.i1[cy*stride+cx] -
		img.i1[(cy+ch)*stride+cx] - img.i1[cy*stride+(cx+cw)]
	sumSq := img.i2[(cy+ch)*stride+(cx+cw)] + img.i2[cy*stride+cx] -
		img.i2[(cy+ch)*stride+cx] - img.i2[cy*stride+(cx+cw)]
	return stats.FromMoments(int64(cw*ch), sum, sumSq)
}
