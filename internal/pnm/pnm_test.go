package pnm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

func grayImage(w, h int, fill func(x, y int) uint8) *pixel.Image[uint8] {
	img, err := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, w, h, 1, 0)
	if err != nil {
		panic(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, 0, fill(x, y))
		}
	}
	return img
}

func rgbImage(w, h int, fill func(x, y int) [3]uint8) *pixel.Image[uint8] {
	img, err := pixel.Create[uint8](pixel.U8, pixel.FormatRGB, w, h, 3, 0)
	if err != nil {
		panic(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgb := fill(x, y)
			img.Set(x, y, 0, rgb[0])
			img.Set(x, y, 1, rgb[1])
			img.Set(x, y, 2, rgb[2])
		}
	}
	return img
}

func imagesEqual(a, b *pixel.Image[uint8]) bool {
	if a.Width() != b.Width() || a.Height() != b.Height() || a.Step() != b.Step() {
		return false
	}
	for y := 0; y < a.Height(); y++ {
		if !bytes.Equal(a.Row(y), b.Row(y)) {
			return false
		}
	}
	return true
}

func TestRoundTripBinaryGray(t *testing.T) {
	img := grayImage(16, 9, func(x, y int) uint8 { return uint8((x*7 + y*13) % 256) })

	var buf bytes.Buffer
	if err := Write(&buf, img, P5); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !imagesEqual(img, got) {
		t.Fatalf("round trip mismatch for P5")
	}
}

func TestRoundTripBinaryRGB(t *testing.T) {
	img := rgbImage(10, 7, func(x, y int) [3]uint8 {
		return [3]uint8{uint8(x * 20), uint8(y * 30), uint8((x + y) * 5)}
	})

	var buf bytes.Buffer
	if err := Write(&buf, img, P6); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !imagesEqual(img, got) {
		t.Fatalf("round trip mismatch for P6")
	}
}

func TestRoundTripASCIIGray(t *testing.T) {
	img := grayImage(5, 4, func(x, y int) uint8 { return uint8(x*40 + y) })

	var buf bytes.Buffer
	if err := Write(&buf, img, P2); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !imagesEqual(img, got) {
		t.Fatalf("round trip mismatch for P2")
	}
}

func TestRoundTripASCIIRGB(t *testing.T) {
	img := rgbImage(4, 3, func(x, y int) [3]uint8 {
		return [3]uint8{uint8(x * 50), uint8(y * 60), 128}
	})

	var buf bytes.Buffer
	if err := Write(&buf, img, P3); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !imagesEqual(img, got) {
		t.Fatalf("round trip mismatch for P3")
	}
}

func TestRoundTripBitmap(t *testing.T) {
	img := grayImage(8, 5, func(x, y int) uint8 {
		if (x+y)%2 == 0 {
			return 1
		}
		return 0
	})

	var buf bytes.Buffer
	if err := Write(&buf, img, P4); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !imagesEqual(img, got) {
		t.Fatalf("round trip mismatch for P4")
	}
}

func TestWriteStepMismatch(t *testing.T) {
	img := grayImage(4, 4, func(x, y int) uint8 { return 0 })
	var buf bytes.Buffer
	err := Write(&buf, img, P6)
	if !qferr.Is(err, qferr.BadType) {
		t.Fatalf("expected BadType, got %v", err)
	}
}

func TestReadMaxvalTooLarge(t *testing.T) {
	src := "P5\n2 2\n65535\n" + strings.Repeat("\x00", 8)
	_, err := Read(strings.NewReader(src))
	if !qferr.Is(err, qferr.NotImplemented) {
		t.Fatalf("expected NotImplemented, got %v", err)
	}
}

func TestReadMalformedMagic(t *testing.T) {
	_, err := Read(strings.NewReader("XY\n2 2\n255\n\x00\x00\x00\x00"))
	if !qferr.Is(err, qferr.InputError) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestReadHeaderWithComment(t *testing.T) {
	src := "P5\n# a comment\n2 2\n# another\n255\n\x01\x02\x03\x04"
	img, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if img.Width() != 2 || img.Height() != 2 {
		t.Fatalf("unexpected dimensions %dx%d", img.Width(), img.Height())
	}
	if img.At(0, 0, 0) != 1 || img.At(1, 1, 0) != 4 {
		t.Fatalf("unexpected sample values")
	}
}
