package integral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/quadforest/quadforest/internal/pixel"
)

func gridImage(t *testing.T, w, h int, f func(x, y int) uint8) *pixel.Image[uint8] {
	t.Helper()
	img, err := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, w, h, 1, 0)
	if err != nil {
		t.Fatalf("pixel.Create: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, 0, f(x, y))
		}
	}
	return img
}

func TestRectStatsConstantImage(t *testing.T) {
	src := gridImage(t, 4, 4, func(x, y int) uint8 { return 100 })
	ii, err := Create(4, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := ii.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}
	s := ii.RectStats(0, 0, 4, 4)
	if s.N != 16 || s.Sum != 1600 || s.SumSq != 160000 {
		t.Fatalf("moments = %+v, want N=16 sum=1600 sum2=160000", s)
	}
	if s.Mean != 100 || s.Variance != 0 || s.Deviation != 0 {
		t.Fatalf("derived = %+v, want mean=100 var=0 dev=0", s)
	}
}

func TestRectStatsGradientImage(t *testing.T) {
	src := gridImage(t, 4, 4, func(x, y int) uint8 { return uint8(x * 64) })
	ii, _ := Create(4, 4)
	if err := ii.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}
	s := ii.RectStats(0, 0, 4, 4)
	if math.Abs(s.Mean-96) > 1e-9 {
		t.Errorf("Mean = %v, want 96", s.Mean)
	}
	if math.Abs(s.Variance-5120) > 1e-9 {
		t.Errorf("Variance = %v, want 5120", s.Variance)
	}
	if math.Abs(s.Deviation-71.5541753) > 1e-3 {
		t.Errorf("Deviation = %v, want ~71.554", s.Deviation)
	}
}

func TestRectStatsOutsideImageIsZero(t *testing.T) {
	src := gridImage(t, 4, 4, func(x, y int) uint8 { return 1 })
	ii, _ := Create(4, 4)
	ii.Update(src)
	s := ii.RectStats(10, 10, 2, 2)
	if s.N != 0 {
		t.Errorf("N = %d, want 0 for a fully out-of-range rect", s.N)
	}
}

func TestRectStatsClipsPartiallyOutside(t *testing.T) {
	src := gridImage(t, 4, 4, func(x, y int) uint8 { return 10 })
	ii, _ := Create(4, 4)
	ii.Update(src)
	s := ii.RectStats(2, 2, 4, 4) // clips to the 2x2 region [2,4)x[2,4)
	if s.N != 4 {
		t.Errorf("N = %d, want 4 after clipping", s.N)
	}
	if s.Sum != 40 {
		t.Errorf("Sum = %v, want 40", s.Sum)
	}
}

func TestRectStatsMatchesNaiveSum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	w, h := 17, 13
	src, _ := pixel.Create[uint8](pixel.U8, pixel.FormatGrey, w, h, 1, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.Set(x, y, 0, uint8(rng.Intn(256)))
		}
	}
	ii, _ := Create(w, h)
	if err := ii.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for trial := 0; trial < 20; trial++ {
		x := rng.Intn(w)
		y := rng.Intn(h)
		rw := 1 + rng.Intn(w-x)
		rh := 1 + rng.Intn(h-y)

		var naiveSum, naiveSumSq float64
		for dy := 0; dy < rh; dy++ {
			for dx := 0; dx < rw; dx++ {
				v := float64(src.At(x+dx, y+dy, 0))
				naiveSum += v
				naiveSumSq += v * v
			}
		}
		got := ii.RectStats(x, y, rw, rh)
		tol := 1e-6 * float64(rw*rh) * 255
		if math.Abs(got.Sum-naiveSum) > tol {
			t.Errorf("rect (%d,%d,%d,%d): Sum = %v, want %v", x, y, rw, rh, got.Sum, naiveSum)
		}
		if math.Abs(got.SumSq-naiveSumSq) > tol*255 {
			t.Errorf("rect (%d,%d,%d,%d): SumSq = %v, want %v", x, y, rw, rh, got.SumSq, naiveSumSq)
		}
	}
}

func TestFengPreservesCheckerboardBoundaries(t *testing.T) {
	src := gridImage(t, 16, 16, func(x, y int) uint8 {
		tileX, tileY := x/4, y/4
		if (tileX+tileY)%2 == 0 {
			return 255
		}
		return 0
	})
	ii, _ := Create(16, 16)
	if err := ii.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}
	out, err := Feng(ii, src, 2, 2.0)
	if err != nil {
		t.Fatalf("Feng: %v", err)
	}
	for ty := 0; ty < 4; ty++ {
		for tx := 0; tx < 4; tx++ {
			want := out.At(tx*4, ty*4, 0)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 4; dx++ {
					if got := out.At(tx*4+dx, ty*4+dy, 0); got != want {
						t.Fatalf("tile (%d,%d) not uniform: (%d,%d)=%d want %d", tx, ty, dx, dy, got, want)
					}
				}
			}
		}
	}
}

func TestFengRejectsShapeMismatch(t *testing.T) {
	src := gridImage(t, 8, 8, func(x, y int) uint8 { return 10 })
	ii, _ := Create(4, 4)
	if _, err := Feng(ii, src, 2, 2.0); err == nil {
		t.Fatalf("expected error for shape mismatch")
	}
}

func TestSmallIntegralPerChannel(t *testing.T) {
	src, err := pixel.Create[uint8](pixel.U8, pixel.FormatRGB, 4, 4, 3, 0)
	if err != nil {
		t.Fatalf("pixel.Create: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, 0, 10)
			src.Set(x, y, 1, 20)
			src.Set(x, y, 2, 30)
		}
	}
	small, err := CreateSmall(4, 4, 3)
	if err != nil {
		t.Fatalf("CreateSmall: %v", err)
	}
	if small.Channels() != 3 {
		t.Fatalf("channels = %d, want 3", small.Channels())
	}
	if err := small.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for ch, want := range []float64{10, 20, 30} {
		img, err := small.Channel(ch)
		if err != nil {
			t.Fatalf("Channel(%d): %v", ch, err)
		}
		s := img.RectStats(0, 0, 4, 4)
		if s.Mean != want {
			t.Fatalf("channel %d mean = %v, want %v", ch, s.Mean, want)
		}
	}
	if _, err := small.Channel(3); err == nil {
		t.Fatalf("expected error for out-of-range channel")
	}
}

func TestSmallIntegralRejectsStepMismatch(t *testing.T) {
	src, _ := pixel.Create[uint8](pixel.U8, pixel.FormatRGB, 2, 2, 3, 0)
	small, _ := CreateSmall(2, 2, 2)
	if err := small.Update(src); err == nil {
		t.Fatalf("expected error for step/channel-count mismatch")
	}
}

func TestSauvolaPreservesCheckerboardBoundaries(t *testing.T) {
	// 16x16 checkerboard of 4x4 tiles, alternating 0/255: §8 scenario 6.
	src := gridImage(t, 16, 16, func(x, y int) uint8 {
		tileX, tileY := x/4, y/4
		if (tileX+tileY)%2 == 0 {
			return 255
		}
		return 0
	})
	ii, _ := Create(16, 16)
	if err := ii.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}
	out, err := Sauvola(ii, src, 3, 0.34, 128)
	if err != nil {
		t.Fatalf("Sauvola: %v", err)
	}
	for ty := 0; ty < 4; ty++ {
		for tx := 0; tx < 4; tx++ {
			want := out.At(tx*4, ty*4, 0)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 4; dx++ {
					if got := out.At(tx*4+dx, ty*4+dy, 0); got != want {
						t.Fatalf("tile (%d,%d) not uniform: (%d,%d)=%d want %d", tx, ty, dx, dy, got, want)
					}
				}
			}
			wantWhite := (tx+ty)%2 == 0
			if wantWhite && want != 255 {
				t.Errorf("tile (%d,%d) should binarize white, got %d", tx, ty, want)
			}
			if !wantWhite && want != 0 {
				t.Errorf("tile (%d,%d) should binarize black, got %d", tx, ty, want)
			}
		}
	}
}
