package stats

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFromMomentsConstant(t *testing.T) {
	// 4x4 constant image of value 100: §8 scenario 1.
	s := FromMoments(16, 1600, 160000)
	if s.N != 16 || s.Sum != 1600 || s.SumSq != 160000 {
		t.Fatalf("moments not preserved: %+v", s)
	}
	if s.Mean != 100 {
		t.Errorf("Mean = %v, want 100", s.Mean)
	}
	if s.Variance != 0 {
		t.Errorf("Variance = %v, want 0", s.Variance)
	}
	if s.Deviation != 0 {
		t.Errorf("Deviation = %v, want 0", s.Deviation)
	}
}

func TestFromMomentsGradient(t *testing.T) {
	// 4x4 gradient p(x,y)=x*64, rect (0,0,4,4): §8 scenario 2.
	// columns 0,1,2,3 have value 0,64,128,192, each repeated 4 times (one per row).
	var sum, sumSq float64
	for _, v := range []float64{0, 64, 128, 192} {
		sum += 4 * v
		sumSq += 4 * v * v
	}
	s := FromMoments(16, sum, sumSq)
	if !near(s.Mean, 96, 1e-9) {
		t.Errorf("Mean = %v, want 96", s.Mean)
	}
	if !near(s.Variance, 5120, 1e-9) {
		t.Errorf("Variance = %v, want 5120", s.Variance)
	}
	if !near(s.Deviation, 71.5541753, 1e-4) {
		t.Errorf("Deviation = %v, want ~71.554", s.Deviation)
	}
}

func TestCombineDisjoint(t *testing.T) {
	a := FromMoments(4, 400, 40000)
	b := FromMoments(4, 400, 40000)
	c := Combine(a, b)
	if c.N != 8 {
		t.Errorf("N = %d, want 8", c.N)
	}
	if !near(c.Mean, 100, 1e-9) {
		t.Errorf("Mean = %v, want 100", c.Mean)
	}
	if c.Variance != 0 {
		t.Errorf("Variance = %v, want 0 for two identical halves", c.Variance)
	}
}

func TestCombineWithZero(t *testing.T) {
	a := FromMoments(4, 400, 40000)
	c := Combine(a, Zero())
	if c != a {
		t.Errorf("Combine(a, Zero()) = %+v, want %+v", c, a)
	}
}

func TestVarianceNeverNegative(t *testing.T) {
	// Contrived moments that would produce a tiny negative variance from
	// floating-point cancellation; derive() must clamp to zero.
	s := FromMoments(3, 30, 300.0000000001)
	if s.Variance < 0 {
		t.Errorf("Variance = %v, must be clamped to >= 0", s.Variance)
	}
}
