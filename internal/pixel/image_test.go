package pixel

import "testing"

func TestCreateContinuous(t *testing.T) {
	img, err := Create[uint8](U8, FormatGrey, 4, 4, 1, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !img.Continuous() {
		t.Error("freshly created image should be continuous")
	}
	if img.Stride() != 4 {
		t.Errorf("Stride() = %d, want 4", img.Stride())
	}
}

func TestCreateFromDataBorrowsBuffer(t *testing.T) {
	buf := make([]uint8, 16)
	img, err := CreateFromData(buf, U8, FormatGrey, 4, 4, 1, 0)
	if err != nil {
		t.Fatalf("CreateFromData: %v", err)
	}
	if img.Owns() {
		t.Error("CreateFromData should not take ownership")
	}
	img.Set(0, 0, 0, 42)
	if buf[0] != 42 {
		t.Error("writes to the view should be visible in the caller's buffer")
	}
}

func TestCreateROIBounds(t *testing.T) {
	img, _ := Create[uint8](U8, FormatGrey, 8, 8, 1, 0)
	if _, err := img.CreateROI(4, 4, 8, 8); err == nil {
		t.Error("expected BadSize for out-of-bounds ROI")
	}
	roi, err := img.CreateROI(2, 2, 4, 4)
	if err != nil {
		t.Fatalf("CreateROI: %v", err)
	}
	roi.Set(0, 0, 0, 99)
	if img.At(2, 2, 0) != 99 {
		t.Error("ROI should share the parent's buffer")
	}
	if roi.Continuous() {
		t.Error("a sub-view with a smaller width than its parent's stride is not continuous")
	}
}

func TestClearContinuousAndStrided(t *testing.T) {
	img, _ := Create[uint8](U8, FormatGrey, 4, 4, 1, 0)
	for i := range img.data {
		img.data[i] = 7
	}
	if err := img.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if img.At(x, y, 0) != 0 {
				t.Fatalf("pixel (%d,%d) not cleared", x, y)
			}
		}
	}

	parent, _ := Create[uint8](U8, FormatGrey, 8, 8, 1, 0)
	for i := range parent.data {
		parent.data[i] = 5
	}
	roi, _ := parent.CreateROI(1, 1, 4, 4)
	if err := roi.Clear(); err != nil {
		t.Fatalf("Clear (roi): %v", err)
	}
	if parent.At(0, 0, 0) != 5 {
		t.Error("Clear on a ROI must not touch pixels outside the ROI")
	}
	if roi.At(0, 0, 0) != 0 {
		t.Error("Clear on a ROI must zero the ROI's own pixels")
	}
}

func TestCopyRequiresMatchingShape(t *testing.T) {
	a, _ := Create[uint8](U8, FormatGrey, 4, 4, 1, 0)
	b, _ := Create[uint8](U8, FormatGrey, 4, 5, 1, 0)
	if err := Copy(a, b); err == nil {
		t.Error("expected BadSize for mismatched shapes")
	}
}

func TestCopyRoundTrip(t *testing.T) {
	src, _ := Create[uint8](U8, FormatGrey, 4, 4, 1, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, 0, uint8(x+y*4))
		}
	}
	dst, _ := Create[uint8](U8, FormatGrey, 4, 4, 1, 0)
	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if dst.At(x, y, 0) != src.At(x, y, 0) {
				t.Fatalf("pixel (%d,%d) mismatch after copy", x, y)
			}
		}
	}
}
