package pixel

import "github.com/quadforest/quadforest/qferr"

// Image is a view over a contiguous buffer of samples of element type T.
//
// Invariants (enforced at construction and ROI time, per the data model):
// (dx+W)*step <= stride, (dy+H)*stride <= len(data)-offset, and the sample
// index (y+dy)*stride + (x+dx)*step + offset + channel is valid for every
// x in [0,W), y in [0,H), channel in [0,step).
type Image[T Element] struct {
	typ    Type
	format Format

	width, height int
	step          int // elements per pixel
	stride        int // elements from one row to the same column of the next
	offset        int // element offset of the first sample within data

	data   []T
	parent *Image[T] // non-nil for ROI sub-views
	owns   bool       // true if this image allocated data itself
}

// Create allocates a fresh, zero-initialized, owned buffer.
func Create[T Element](typ Type, format Format, w, h, step, stride int) (*Image[T], error) {
	if w <= 0 || h <= 0 {
		return nil, qferr.Errorf(qferr.BadSize, "pixel_image.create", "non-positive dimensions %dx%d", w, h)
	}
	if step <= 0 {
		return nil, qferr.New(qferr.BadParam, "pixel_image.create", "step must be positive")
	}
	if stride == 0 {
		stride = w * step
	}
	if stride < w*step {
		return nil, qferr.New(qferr.BadSize, "pixel_image.create", "stride smaller than w*step")
	}
	return &Image[T]{
		typ: typ, format: format,
		width: w, height: h, step: step, stride: stride,
		data: make([]T, stride*h), owns: true,
	}, nil
}

// CreateFromData wraps a caller-owned buffer without taking ownership; the
// buffer is never freed or reallocated by this package.
func CreateFromData[T Element](data []T, typ Type, format Format, w, h, step, stride int) (*Image[T], error) {
	if data == nil {
		return nil, qferr.New(qferr.BadPointer, "pixel_image.create_from_data", "nil buffer")
	}
	if w <= 0 || h <= 0 {
		return nil, qferr.Errorf(qferr.BadSize, "pixel_image.create_from_data", "non-positive dimensions %dx%d", w, h)
	}
	if step <= 0 {
		return nil, qferr.New(qferr.BadParam, "pixel_image.create_from_data", "step must be positive")
	}
	if stride == 0 {
		stride = w * step
	}
	if stride < w*step {
		return nil, qferr.New(qferr.BadSize, "pixel_image.create_from_data", "stride smaller than w*step")
	}
	if len(data) < stride*h {
		return nil, qferr.Errorf(qferr.BadSize, "pixel_image.create_from_data", "buffer of %d elements too small for %dx%d stride %d", len(data), w, h, stride)
	}
	return &Image[T]{
		typ: typ, format: format,
		width: w, height: h, step: step, stride: stride,
		data: data, owns: false,
	}, nil
}

// CreateROI returns a non-owning sub-view sharing the parent's buffer.
func (img *Image[T]) CreateROI(dx, dy, w, h int) (*Image[T], error) {
	if img == nil {
		return nil, qferr.New(qferr.BadPointer, "pixel_image.create_roi", "nil parent")
	}
	if w <= 0 || h <= 0 || dx < 0 || dy < 0 {
		return nil, qferr.Errorf(qferr.BadSize, "pixel_image.create_roi", "invalid roi %d,%d %dx%d", dx, dy, w, h)
	}
	if dx+w > img.width || dy+h > img.height {
		return nil, qferr.Errorf(qferr.BadSize, "pixel_image.create_roi", "roi %d,%d %dx%d exceeds parent %dx%d", dx, dy, w, h, img.width, img.height)
	}
	return &Image[T]{
		typ: img.typ, format: img.format,
		width: w, height: h, step: img.step, stride: img.stride,
		offset: img.offset + dy*img.stride + dx*img.step,
		data:   img.data, parent: img, owns: false,
	}, nil
}

func (img *Image[T]) Type() Type       { return img.typ }
func (img *Image[T]) Format() Format   { return img.format }
func (img *Image[T]) Width() int       { return img.width }
func (img *Image[T]) Height() int      { return img.height }
func (img *Image[T]) Step() int        { return img.step }
func (img *Image[T]) Stride() int      { return img.stride }
func (img *Image[T]) Data() []T        { return img.data }
func (img *Image[T]) Owns() bool       { return img.owns }

// Continuous reports whether the view covers a contiguous run of the
// backing buffer with no row padding, enabling bulk copy/clear paths.
func (img *Image[T]) Continuous() bool {
	return img.offset == 0 && img.width*img.step == img.stride
}

// index returns the element index of sample (x,y) channel ch within data.
func (img *Image[T]) index(x, y, ch int) int {
	return y*img.stride + x*img.step + img.offset + ch
}

// At reads sample (x,y) channel ch.
func (img *Image[T]) At(x, y, ch int) T {
	return img.data[img.index(x, y, ch)]
}

// Set writes sample (x,y) channel ch.
func (img *Image[T]) Set(x, y, ch int, v T) {
	img.data[img.index(x, y, ch)] = v
}

// Row returns the backing slice for row y, spanning exactly width*step
// elements starting at channel 0 of column 0.
func (img *Image[T]) Row(y int) []T {
	start := img.index(0, y, 0)
	return img.data[start : start+img.width*img.step]
}

// Clear zeroes every addressable sample. Continuous images use a single
// bulk clear; others are cleared row by row.
func (img *Image[T]) Clear() error {
	if img == nil {
		return qferr.New(qferr.BadPointer, "pixel_image.clear", "nil image")
	}
	var zero T
	if img.Continuous() {
		buf := img.data[img.offset : img.offset+img.width*img.step*img.height]
		for i := range buf {
			buf[i] = zero
		}
		return nil
	}
	for y := 0; y < img.height; y++ {
		row := img.Row(y)
		for i := range row {
			row[i] = zero
		}
	}
	return nil
}

// Copy copies source into target. Both views must share type, format,
// dimensions, and step.
func Copy[T Element](dst, src *Image[T]) error {
	if dst == nil || src == nil {
		return qferr.New(qferr.BadPointer, "pixel_image.copy", "nil image")
	}
	if dst.format != src.format {
		return qferr.New(qferr.BadType, "pixel_image.copy", "format mismatch")
	}
	if dst.width != src.width || dst.height != src.height || dst.step != src.step {
		return qferr.New(qferr.BadSize, "pixel_image.copy", "shape mismatch")
	}
	if dst.Continuous() && src.Continuous() {
		n := dst.width * dst.step * dst.height
		copy(dst.data[dst.offset:dst.offset+n], src.data[src.offset:src.offset+n])
		return nil
	}
	for y := 0; y < dst.height; y++ {
		copy(dst.Row(y), src.Row(y))
	}
	return nil
}
