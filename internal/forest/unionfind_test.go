package forest

import (
	"testing"

	"github.com/quadforest/quadforest/internal/annotation"
)

// TestBoundaryUnionPreservesChainOrderRegardlessOfRankWinner exercises the
// rank-tie-break case directly: it forces b's rank above a's so the
// union-find rank heuristic makes b the surviving root, then checks the
// merged record still reads as "a then b" (a's original StartAngle, b's
// original EndAngle, plain additive CurvatureSum), not the reverse.
func TestBoundaryUnionPreservesChainOrderRegardlessOfRankWinner(t *testing.T) {
	src := uniformImage(t, 8, 8, 0)
	f, err := Create(src, Config{TreeMaxSize: 4, TreeMinSize: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	roots := f.Roots()
	if len(roots) < 2 {
		t.Fatalf("want >= 2 roots, got %d", len(roots))
	}

	a := f.BoundaryCreate(roots[0], 0.1, annotation.DirHorizontal)
	b := f.BoundaryCreate(roots[1], 0.9, annotation.DirHorizontal)

	f.boundaryPool[a].StartAngle, f.boundaryPool[a].EndAngle = 0.1, 0.3
	f.boundaryPool[a].CurvatureSum = 1.0
	f.boundaryPool[b].StartAngle, f.boundaryPool[b].EndAngle = 0.7, 0.9
	f.boundaryPool[b].CurvatureSum = 2.0

	// Force b to outrank a so the union picks b as the surviving root.
	f.boundaryPool[b].Rank = f.boundaryPool[a].Rank + 1

	survivor := f.BoundaryUnion(a, b)
	rec := f.boundaryPool[survivor]

	if rec.StartAngle != 0.1 {
		t.Fatalf("StartAngle = %v, want 0.1 (a's original start)", rec.StartAngle)
	}
	if rec.EndAngle != 0.9 {
		t.Fatalf("EndAngle = %v, want 0.9 (b's original end)", rec.EndAngle)
	}
	if rec.CurvatureSum != 3.0 {
		t.Fatalf("CurvatureSum = %v, want 3.0 (plain additive merge, no extra turn term)", rec.CurvatureSum)
	}
	if rec.Length != 2 {
		t.Fatalf("Length = %d, want 2", rec.Length)
	}
}

// TestBoundaryUnionChainOrderWhenAWinsRank is the mirror case: a's rank
// wins, so the original (pre-fix) code path happened to be correct here —
// this locks in that it still is.
func TestBoundaryUnionChainOrderWhenAWinsRank(t *testing.T) {
	src := uniformImage(t, 8, 8, 0)
	f, err := Create(src, Config{TreeMaxSize: 4, TreeMinSize: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	roots := f.Roots()
	if len(roots) < 2 {
		t.Fatalf("want >= 2 roots, got %d", len(roots))
	}

	a := f.BoundaryCreate(roots[0], 0.1, annotation.DirHorizontal)
	b := f.BoundaryCreate(roots[1], 0.9, annotation.DirHorizontal)

	f.boundaryPool[a].StartAngle, f.boundaryPool[a].EndAngle = 0.1, 0.3
	f.boundaryPool[a].CurvatureSum = 1.0
	f.boundaryPool[b].StartAngle, f.boundaryPool[b].EndAngle = 0.7, 0.9
	f.boundaryPool[b].CurvatureSum = 2.0

	f.boundaryPool[a].Rank = f.boundaryPool[b].Rank + 1

	survivor := f.BoundaryUnion(a, b)
	rec := f.boundaryPool[survivor]

	if rec.StartAngle != 0.1 {
		t.Fatalf("StartAngle = %v, want 0.1 (a's original start)", rec.StartAngle)
	}
	if rec.EndAngle != 0.9 {
		t.Fatalf("EndAngle = %v, want 0.9 (b's original end)", rec.EndAngle)
	}
	if rec.CurvatureSum != 3.0 {
		t.Fatalf("CurvatureSum = %v, want 3.0 (plain additive merge, no extra turn term)", rec.CurvatureSum)
	}
}
