package encode

import (
	"testing"

	"github.com/quadforest/quadforest/internal/pixel"
)

func TestToPixelImagePreservesSamples(t *testing.T) {
	src := testImage(5)
	out, err := ToPixelImage(src)
	if err != nil {
		t.Fatalf("to_pixel_image: %v", err)
	}
	if out.Width() != 5 || out.Height() != 5 {
		t.Fatalf("size = %dx%d, want 5x5", out.Width(), out.Height())
	}
	if out.Step() != 3 {
		t.Fatalf("step = %d, want 3 (RGB)", out.Step())
	}
	r, g, b, _ := src.At(2, 3).RGBA()
	if out.At(2, 3, 0) != uint8(r>>8) || out.At(2, 3, 1) != uint8(g>>8) || out.At(2, 3, 2) != uint8(b>>8) {
		t.Fatalf("sample at (2,3) does not match source")
	}
}

func TestFromPixelImageRoundTripsThroughEncoder(t *testing.T) {
	rgb, err := pixel.Create[uint8](pixel.U8, pixel.FormatRGB, 8, 8, 3, 0)
	if err != nil {
		t.Fatalf("pixel.Create: %v", err)
	}
	rgb.Set(2, 3, 0, 10)
	rgb.Set(2, 3, 1, 20)
	rgb.Set(2, 3, 2, 30)

	std, err := FromPixelImage(rgb)
	if err != nil {
		t.Fatalf("FromPixelImage: %v", err)
	}
	enc, err := NewEncoder("png", 0)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	data, err := enc.Encode(std)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Encode produced empty data")
	}
}

func TestFromPixelImageGrey(t *testing.T) {
	grey, err := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, 4, 4, 1, 0)
	if err != nil {
		t.Fatalf("pixel.Create: %v", err)
	}
	grey.Set(1, 1, 0, 200)
	std, err := FromPixelImage(grey)
	if err != nil {
		t.Fatalf("FromPixelImage: %v", err)
	}
	r, _, _, _ := std.At(1, 1).RGBA()
	if uint8(r>>8) != 200 {
		t.Fatalf("grey sample = %d, want 200", r>>8)
	}
}

func TestFromPixelImageRejectsUnsupportedFormat(t *testing.T) {
	yuv, err := pixel.Create[uint8](pixel.U8, pixel.FormatYUV, 2, 2, 3, 0)
	if err != nil {
		t.Fatalf("pixel.Create: %v", err)
	}
	if _, err := FromPixelImage(yuv); err == nil {
		t.Fatalf("expected error for an unsupported format")
	}
}
