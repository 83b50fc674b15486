package integral

import (
	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

// Small is the multi-channel ("small integral image") variant: one Image
// per source channel, each updated by the same recurrence as the base
// single-channel form.
type Small struct {
	channels []*Image
}

// CreateSmall allocates one Image per channel of a step-N source.
func CreateSmall(w, h, step int) (*Small, error) {
	if step <= 0 {
		return nil, qferr.New(qferr.BadParam, "integral_image.create_small", "step must be positive")
	}
	channels := make([]*Image, step)
	for c := range channels {
		img, err := Create(w, h)
		if err != nil {
			return nil, err
		}
		channels[c] = img
	}
	return &Small{channels: channels}, nil
}

func (s *Small) Channels() int { return len(s.channels) }

// Channel returns the per-channel Image for channel index ch.
func (s *Small) Channel(ch int) (*Image, error) {
	if ch < 0 || ch >= len(s.channels) {
		return nil, qferr.New(qferr.BadParam, "integral_image.channel", "channel index out of range")
	}
	return s.channels[ch], nil
}

// Update recomputes every channel's planes from the corresponding channel
// of a multi-channel source.
func (s *Small) Update(source *pixel.Image[uint8]) error {
	if source == nil {
		return qferr.New(qferr.BadPointer, "integral_image.update_small", "nil source")
	}
	if source.Step() != len(s.channels) {
		return qferr.New(qferr.BadType, "integral_image.update_small", "step does not match channel count")
	}
	for ch, img := range s.channels {
		view, err := channelView(source, ch)
		if err != nil {
			return err
		}
		if err := img.Update(view); err != nil {
			return err
		}
	}
	return nil
}

// channelView produces a synthetic single-channel uint8 view over one
// channel of a multi-channel source, by copying (the source's stride
// makes a zero-copy strided view of a single channel impossible without a
// generalized channel-stride concept the rest of the package doesn't need).
func channelView(source *pixel.Image[uint8], ch int) (*pixel.Image[uint8], error) {
	w, h := source.Width(), source.Height()
	view, err := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, w, h, 1, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		srow := source.Row(y)
		drow := view.Row(y)
		for x := 0; x < w; x++ {
			drow[x] = srow[x*source.Step()+ch]
		}
	}
	return view, nil
}
