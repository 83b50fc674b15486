package forest

import (
	"math"
	"sort"

	"github.com/quadforest/quadforest/internal/annotation"
	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

// Leaves returns every leaf node's NodeIndex, in pool order.
func (f *Forest) Leaves() []NodeIndex {
	var out []NodeIndex
	for i := range f.pool {
		if f.pool[i].IsLeaf() {
			out = append(out, NodeIndex(i))
		}
	}
	return out
}

// PrimeWithMean seeds acc/acc²/pool/pool² from each leaf's own cached
// intensity mean.
func (f *Forest) PrimeWithMean(leaves []NodeIndex) {
	for _, idx := range leaves {
		t := &f.pool[idx]
		t.Pool, t.PoolSq = t.Stat.Mean, t.Stat.Mean*t.Stat.Mean
		t.Acc, t.AccSq = t.Pool, t.PoolSq
	}
}

// PrimeWithDeviation seeds acc/acc²/pool/pool² from each leaf's own
// cached deviation, the source used ahead of boundary-finding
// propagation.
func (f *Forest) PrimeWithDeviation(leaves []NodeIndex) {
	for _, idx := range leaves {
		t := &f.pool[idx]
		t.Pool, t.PoolSq = t.Stat.Deviation, t.Stat.Deviation*t.Stat.Deviation
		t.Acc, t.AccSq = t.Pool, t.PoolSq
	}
}

// PrimeWithEdgeMagnitude seeds acc/acc²/pool/pool² from each leaf's
// cached EdgeResponse magnitude (see GetEdgeResponse).
func (f *Forest) PrimeWithEdgeMagnitude(leaves []NodeIndex) {
	for _, idx := range leaves {
		e := f.annotationEdgeResponse(idx)
		t := &f.pool[idx]
		t.Pool, t.PoolSq = e.Magnitude, e.Magnitude*e.Magnitude
		t.Acc, t.AccSq = t.Pool, t.PoolSq
	}
}

// PrimeWithConstant seeds every leaf's round state from a fixed value.
func (f *Forest) PrimeWithConstant(leaves []NodeIndex, v float64) {
	for _, idx := range leaves {
		t := &f.pool[idx]
		t.Pool, t.PoolSq = v, v*v
		t.Acc, t.AccSq = t.Pool, t.PoolSq
	}
}

// PrimeWithPool carries the previous round's accumulated value forward at
// half weight, the priming used between rounds 2..N of a propagation run
// (round 1 primes from the chosen source instead).
func (f *Forest) PrimeWithPool(leaves []NodeIndex) {
	for _, idx := range leaves {
		t := &f.pool[idx]
		t.Pool, t.PoolSq = t.Pool*0.5, t.PoolSq*0.5
		t.Acc, t.AccSq = t.Pool, t.PoolSq
	}
}

func (f *Forest) zeroAcc(leaves []NodeIndex) {
	for _, idx := range leaves {
		t := &f.pool[idx]
		t.Acc, t.AccSq = 0, 0
	}
}

// scatter sends each leaf's share/shareSq of its own pool to the leaf
// reached by following dir, or back to itself when there is no neighbor
// in that direction (the image-edge case).
func (f *Forest) scatter(leaves []NodeIndex, dirs []int, divisor float64) {
	f.zeroAcc(leaves)
	for _, idx := range leaves {
		t := f.pool[idx]
		share, shareSq := t.Pool/divisor, t.PoolSq/divisor
		for _, dir := range dirs {
			target := idx
			if n := t.Neighbors[dir]; n != NilNode {
				target = n
			}
			f.pool[target].Acc += share
			f.pool[target].AccSq += shareSq
		}
	}
}

// Propagate runs one round sending pool/4 to each of the four direct
// neighbors (or back to self at the forest's border).
func (f *Forest) Propagate(leaves []NodeIndex) {
	f.scatter(leaves, allDirs, 4)
}

// PropagateH restricts propagation to the east/west pair.
func (f *Forest) PropagateH(leaves []NodeIndex) {
	f.scatter(leaves, horizDirs, 2)
}

// PropagateV restricts propagation to the north/south pair.
func (f *Forest) PropagateV(leaves []NodeIndex) {
	f.scatter(leaves, vertDirs, 2)
}

var allDirs = []int{DirN, DirE, DirS, DirW}
var horizDirs = []int{DirE, DirW}
var vertDirs = []int{DirN, DirS}

// PropagateM runs one round of magnitude-weighted diffusion: a leaf's
// pool splits between its horizontal and vertical neighbor pairs in
// proportion to |dx|/(|dx|+|dy|) and |dy|/(|dx|+|dy|) from its cached
// EdgeResponse, falling back to an even split when dx=dy=0.
func (f *Forest) PropagateM(leaves []NodeIndex) {
	f.zeroAcc(leaves)
	for _, idx := range leaves {
		t := f.pool[idx]
		adx, ady := 0.0, 0.0
		if e, ok := annotation.Get[annotation.EdgeResponsePayload](&f.pool[idx].Annotations, annotation.EdgeResponse); ok {
			adx, ady = math.Abs(e.Dx), math.Abs(e.Dy)
		}
		wx, wy := 0.5, 0.5
		if sum := adx + ady; sum > 0 {
			wx, wy = adx/sum, ady/sum
		}
		hShare, hShareSq := t.Pool*wx/2, t.PoolSq*wx/2
		vShare, vShareSq := t.Pool*wy/2, t.PoolSq*wy/2
		for _, dir := range horizDirs {
			target := idx
			if n := t.Neighbors[dir]; n != NilNode {
				target = n
			}
			f.pool[target].Acc += hShare
			f.pool[target].AccSq += hShareSq
		}
		for _, dir := range vertDirs {
			target := idx
			if n := t.Neighbors[dir]; n != NilNode {
				target = n
			}
			f.pool[target].Acc += vShare
			f.pool[target].AccSq += vShareSq
		}
	}
}

// Accumulate copies each leaf's newly-scattered acc/acc² into pool/pool²,
// completing the round and producing the value the next round's
// PrimeWithPool carries forward.
func (f *Forest) Accumulate(leaves []NodeIndex) {
	for _, idx := range leaves {
		t := &f.pool[idx]
		t.Pool, t.PoolSq = t.Acc, t.AccSq
	}
}

// DeclareEdges marks every leaf whose pool value exceeds threshold as
// having an edge, storing the result in its BoundaryPotential annotation.
// Called after a fixed number of propagation rounds, per the propagation
// engine's edge-declaration rule.
func (f *Forest) DeclareEdges(leaves []NodeIndex, threshold float64) {
	for _, idx := range leaves {
		t := f.pool[idx]
		bp := annotation.EnsureHas[annotation.BoundaryPotentialPayload](&f.pool[idx].Annotations, annotation.BoundaryPotential)
		bp.Potential = t.Pool
		bp.HasEdge = t.Pool > threshold
	}
}

// RefreshSegments walks the pool counting leaf nodes whose segment
// annotation resolves to its own find-root, assigns each such root a
// deterministic pseudo-random RGB triple seeded from its ID (so repeated
// runs over the same forest reproduce the same colors), and sets the
// forest's segment count.
func (f *Forest) RefreshSegments() int {
	seen := make(map[SegmentIndex]bool)
	for i := range f.pool {
		if !f.pool[i].IsLeaf() {
			continue
		}
		si, ok := f.HasSegment(NodeIndex(i))
		if !ok {
			continue
		}
		root := f.SegmentFind(si)
		if seen[root] {
			continue
		}
		seen[root] = true
		f.segmentPool[root].Color = segmentColorTriple(f.colorSeed, f.segmentPool[root].ID)
	}
	f.segments = len(seen)
	return f.segments
}

// GetSegments returns one merged SegmentRecord per distinct segment
// currently present in the forest, sorted by ID for deterministic output
// ordering (the original sorts by pointer address; ID survives union-find
// reparenting and pool growth, pointer address does not).
func (f *Forest) GetSegments() []SegmentRecord {
	seen := make(map[SegmentIndex]bool)
	var out []SegmentRecord
	for i := range f.pool {
		if !f.pool[i].IsLeaf() {
			continue
		}
		si, ok := f.HasSegment(NodeIndex(i))
		if !ok {
			continue
		}
		root := f.SegmentFind(si)
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, f.segmentPool[root])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clampMeanToByte(mean float64) uint8 {
	if mean < 0 {
		return 0
	}
	if mean > 255 {
		return 255
	}
	return uint8(mean)
}

// segmentColorTriple derives a deterministic pseudo-random RGB triple
// from a segment ID and the forest's color seed, via Fibonacci hashing so
// the same (seed, ID) pair always reproduces the same color.
func segmentColorTriple(seed uint32, id SegmentIndex) [3]uint8 {
	h := seed ^ (uint32(id)+1)*2654435761
	h ^= h >> 15
	r := uint8(h & 0xFF)
	h *= 2246822519
	h ^= h >> 13
	g := uint8(h & 0xFF)
	h *= 3266489917
	h ^= h >> 16
	b := uint8(h & 0xFF)
	return [3]uint8{r, g, b}
}

// DrawImage paints each leaf's rectangle into target, an RGB image of the
// same dimensions as the forest's source, with one of: the leaf's own
// statistics mean in gray (useRegions=false, useColors=false), the owning
// segment's merged mean in gray (useRegions=true), or the segment's
// assigned color (useColors=true, which implies useRegions).
func (f *Forest) DrawImage(target *pixel.Image[uint8], useRegions, useColors bool) error {
	if target == nil {
		return qferr.New(qferr.BadPointer, "quad_forest.draw_image", "nil target")
	}
	w, h := f.source.Width(), f.source.Height()
	if target.Width() != w || target.Height() != h {
		return qferr.Errorf(qferr.BadSize, "quad_forest.draw_image", "target %dx%d does not match forest %dx%d", target.Width(), target.Height(), w, h)
	}
	if target.Step() < 3 {
		return qferr.New(qferr.BadType, "quad_forest.draw_image", "target must have at least 3 channels")
	}
	for i := range f.pool {
		t := &f.pool[i]
		if !t.IsLeaf() {
			continue
		}
		var rgb [3]uint8
		switch {
		case useColors:
			rgb[0], rgb[1], rgb[2] = clampMeanToByte(t.Stat.Mean), clampMeanToByte(t.Stat.Mean), clampMeanToByte(t.Stat.Mean)
			if si, ok := f.HasSegment(NodeIndex(i)); ok {
				rgb = f.segmentPool[f.SegmentFind(si)].Color
			}
		case useRegions:
			mean := t.Stat.Mean
			if si, ok := f.HasSegment(NodeIndex(i)); ok {
				mean = f.segmentPool[f.SegmentFind(si)].Stat.Mean
			}
			gray := clampMeanToByte(mean)
			rgb = [3]uint8{gray, gray, gray}
		default:
			gray := clampMeanToByte(t.Stat.Mean)
			rgb = [3]uint8{gray, gray, gray}
		}
		fillRectRGB(target, t.X, t.Y, t.Size, rgb)
	}
	return nil
}

func fillRectRGB(img *pixel.Image[uint8], x, y, size int, rgb [3]uint8) {
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			img.Set(x+col, y+row, 0, rgb[0])
			img.Set(x+col, y+row, 1, rgb[1])
			img.Set(x+col, y+row, 2, rgb[2])
		}
	}
}
