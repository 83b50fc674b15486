package forest

import (
	"math"

	"github.com/quadforest/quadforest/internal/annotation"
	"github.com/quadforest/quadforest/internal/stats"
)

// SegmentIndex is a stable index into a Forest's segment pool, the
// union-find arena for region merging (see NodeIndex for the same pattern
// applied to the tree pool).
type SegmentIndex int32

// NilSegment is the "no segment" sentinel.
const NilSegment SegmentIndex = -1

// SegmentRecord is a union-find node representing one merged region: its
// bounding box, merged statistics, and the additional deviation fields the
// distilled spec left out (devmean/devdev, the spread of each member
// tree's mean from the segment's overall mean).
type SegmentRecord struct {
	// ID is assigned once at creation and never reused or reassigned on
	// merge, giving GetSegments a deterministic sort key independent of
	// pool/arena layout (replacing the original's pointer-address sort).
	ID SegmentIndex

	Parent SegmentIndex
	Rank   int
	Root   NodeIndex

	X1, Y1, X2, Y2 int
	Stat           stats.Statistics

	// Color is the pseudo-random RGB triple RefreshSegments assigns to
	// this segment's current root, seeded deterministically from ID.
	Color [3]uint8

	DevSum   float64 // sum of member |tree.Stat.Mean - Stat.Mean|
	DevSumSq float64
	members  int64
}

// DevMean is the mean absolute deviation of member trees' means from the
// segment's own mean.
func (s *SegmentRecord) DevMean() float64 {
	if s.members == 0 {
		return 0
	}
	return s.DevSum / float64(s.members)
}

// DevDev is the standard deviation of that same quantity.
func (s *SegmentRecord) DevDev() float64 {
	if s.members == 0 {
		return 0
	}
	mean := s.DevMean()
	variance := s.DevSumSq/float64(s.members) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

type segmentRef struct {
	idx SegmentIndex
}

// SegmentCreate ensures tree owns a segment record, creating a new
// singleton segment from the tree's own bbox and statistics if one is not
// already present, and returns its index.
func (f *Forest) SegmentCreate(idx NodeIndex) SegmentIndex {
	if ref, ok := annotation.Get[segmentRef](&f.pool[idx].Annotations, annotation.Segment); ok {
		return ref.idx
	}
	t := f.pool[idx]
	x1, y1, x2, y2 := t.Rect()
	si := SegmentIndex(len(f.segmentPool))
	f.segmentPool = append(f.segmentPool, SegmentRecord{
		ID:     SegmentIndex(f.nextSegmentID),
		Parent: si, Root: idx,
		X1: x1, Y1: y1, X2: x2, Y2: y2,
		Stat:    t.Stat,
		members: 1,
	})
	f.nextSegmentID++
	ref := annotation.EnsureHas[segmentRef](&f.pool[idx].Annotations, annotation.Segment)
	ref.idx = si
	f.segments++
	return si
}

// HasSegment reports whether tree already owns a segment record, and
// returns its index.
func (f *Forest) HasSegment(idx NodeIndex) (SegmentIndex, bool) {
	ref, ok := annotation.Get[segmentRef](&f.pool[idx].Annotations, annotation.Segment)
	if !ok {
		return NilSegment, false
	}
	return ref.idx, true
}

// SegmentFind resolves si to its current root, path-halving along the way.
func (f *Forest) SegmentFind(si SegmentIndex) SegmentIndex {
	for f.segmentPool[si].Parent != si {
		f.segmentPool[si].Parent = f.segmentPool[f.segmentPool[si].Parent].Parent
		si = f.segmentPool[si].Parent
	}
	return si
}

// SegmentUnion merges the segments rooted by a and b (union by rank),
// combining their bounding boxes and statistics additively. A no-op,
// returning the shared root, if a and b already belong to the same
// segment.
func (f *Forest) SegmentUnion(a, b SegmentIndex) SegmentIndex {
	ra, rb := f.SegmentFind(a), f.SegmentFind(b)
	if ra == rb {
		return ra
	}
	if f.segmentPool[ra].Rank < f.segmentPool[rb].Rank {
		ra, rb = rb, ra
	}
	recA, recB := &f.segmentPool[ra], &f.segmentPool[rb]

	recA.Stat = stats.Combine(recA.Stat, recB.Stat)
	if recB.X1 < recA.X1 {
		recA.X1 = recB.X1
	}
	if recB.Y1 < recA.Y1 {
		recA.Y1 = recB.Y1
	}
	if recB.X2 > recA.X2 {
		recA.X2 = recB.X2
	}
	if recB.Y2 > recA.Y2 {
		recA.Y2 = recB.Y2
	}
	recA.DevSum += recB.DevSum
	recA.DevSumSq += recB.DevSumSq
	recA.members += recB.members

	recB.Parent = ra
	if recA.Rank == recB.Rank {
		recA.Rank++
	}
	f.segments--
	return ra
}

// recordDeviation folds tree's own mean into the running devmean/devdev
// accumulators of the segment it belongs to, against the segment's
// overall mean as of the call.
func (f *Forest) recordDeviation(si SegmentIndex, treeMean float64) {
	root := f.SegmentFind(si)
	rec := &f.segmentPool[root]
	d := math.Abs(treeMean - rec.Stat.Mean)
	rec.DevSum += d
	rec.DevSumSq += d * d
}

// Segment returns a copy of the merged record si currently resolves to.
func (f *Forest) Segment(si SegmentIndex) SegmentRecord {
	return f.segmentPool[f.SegmentFind(si)]
}

// BoundaryIndex is a stable index into a Forest's boundary pool.
type BoundaryIndex int32

// NilBoundary is the "no boundary" sentinel.
const NilBoundary BoundaryIndex = -1

// BoundaryCategory classifies a merged boundary chain by its mean
// curvature.
type BoundaryCategory int

const (
	BoundaryStraight BoundaryCategory = iota
	BoundaryCurved
)

func (c BoundaryCategory) String() string {
	if c == BoundaryCurved {
		return "curved"
	}
	return "straight"
}

// curvedThreshold is the |curvature_mean| above which a boundary chain is
// classified as curved rather than straight.
const curvedThreshold = 0.15

// BoundaryRecord is a union-find node representing one merged boundary
// chain: its length, accumulated curvature, endpoint angles, and the
// dominant scan direction it was found in (the dir field the distilled
// spec dropped).
type BoundaryRecord struct {
	Parent BoundaryIndex
	Rank   int
	Root   NodeIndex

	Length       int
	CurvatureSum float64
	StartAngle   float64
	EndAngle     float64
	Dir          annotation.Direction
}

// CurvatureMean is the chain's total curvature divided by its length.
func (b *BoundaryRecord) CurvatureMean() float64 {
	if b.Length == 0 {
		return 0
	}
	return b.CurvatureSum / float64(b.Length)
}

// Category classifies the chain by CurvatureMean against curvedThreshold.
func (b *BoundaryRecord) Category() BoundaryCategory {
	if math.Abs(b.CurvatureMean()) > curvedThreshold {
		return BoundaryCurved
	}
	return BoundaryStraight
}

type boundaryRef struct {
	idx BoundaryIndex
}

// BoundaryCreate ensures tree owns a boundary record seeded with the given
// edge angle and scan direction, and returns its index.
func (f *Forest) BoundaryCreate(idx NodeIndex, angle float64, dir annotation.Direction) BoundaryIndex {
	if ref, ok := annotation.Get[boundaryRef](&f.pool[idx].Annotations, annotation.Boundary); ok {
		return ref.idx
	}
	bi := BoundaryIndex(len(f.boundaryPool))
	f.boundaryPool = append(f.boundaryPool, BoundaryRecord{
		Parent: bi, Root: idx,
		Length:     1,
		StartAngle: angle, EndAngle: angle,
		Dir: dir,
	})
	ref := annotation.EnsureHas[boundaryRef](&f.pool[idx].Annotations, annotation.Boundary)
	ref.idx = bi
	return bi
}

// HasBoundary reports whether tree already owns a boundary record, and
// returns its index.
func (f *Forest) HasBoundary(idx NodeIndex) (BoundaryIndex, bool) {
	ref, ok := annotation.Get[boundaryRef](&f.pool[idx].Annotations, annotation.Boundary)
	if !ok {
		return NilBoundary, false
	}
	return ref.idx, true
}

// BoundaryFind resolves bi to its current root, path-halving along the way.
func (f *Forest) BoundaryFind(bi BoundaryIndex) BoundaryIndex {
	for f.boundaryPool[bi].Parent != bi {
		f.boundaryPool[bi].Parent = f.boundaryPool[f.boundaryPool[bi].Parent].Parent
		bi = f.boundaryPool[bi].Parent
	}
	return bi
}

// BoundaryUnion merges the boundary chains rooted by a and b, treating b
// as the continuation of a: length and curvature sum accumulate, and the
// merged chain's start/end angles are a's original start and b's original
// end, regardless of which side's rank wins the union (so the chain always
// reads as "a then b", never the reverse).
func (f *Forest) BoundaryUnion(a, b BoundaryIndex) BoundaryIndex {
	ra, rb := f.BoundaryFind(a), f.BoundaryFind(b)
	if ra == rb {
		return ra
	}
	startAngle, endAngle := f.boundaryPool[ra].StartAngle, f.boundaryPool[rb].EndAngle
	length := f.boundaryPool[ra].Length + f.boundaryPool[rb].Length
	curvatureSum := f.boundaryPool[ra].CurvatureSum + f.boundaryPool[rb].CurvatureSum

	survivor := ra
	if f.boundaryPool[ra].Rank < f.boundaryPool[rb].Rank {
		f.boundaryPool[ra].Parent = rb
		survivor = rb
	} else {
		f.boundaryPool[rb].Parent = ra
		if f.boundaryPool[ra].Rank == f.boundaryPool[rb].Rank {
			f.boundaryPool[ra].Rank++
		}
	}

	rec := &f.boundaryPool[survivor]
	rec.Length = length
	rec.CurvatureSum = curvatureSum
	rec.StartAngle = startAngle
	rec.EndAngle = endAngle
	return survivor
}

// Boundary returns a copy of the merged record bi currently resolves to.
func (f *Forest) Boundary(bi BoundaryIndex) BoundaryRecord {
	return f.boundaryPool[f.BoundaryFind(bi)]
}

// PruneIsolatedBoundaries demotes any leaf whose boundary chain has
// length 1 and has no boundary-owning direct-or-finer neighbor: its
// Boundary annotation is dropped and it is given a segment instead,
// folding single-tree noise back into the surrounding region rather than
// leaving it as a spurious one-tree boundary.
func (f *Forest) PruneIsolatedBoundaries() {
	for i := range f.pool {
		if !f.pool[i].IsLeaf() {
			continue
		}
		idx := NodeIndex(i)
		bi, ok := f.HasBoundary(idx)
		if !ok {
			continue
		}
		if f.boundaryPool[f.BoundaryFind(bi)].Length > 1 {
			continue
		}
		isolated := true
		for _, nb := range f.GetNeighbors(idx) {
			if _, has := f.HasBoundary(nb); has {
				isolated = false
				break
			}
		}
		if isolated {
			f.pool[i].Annotations.Delete(annotation.Boundary)
			f.SegmentCreate(idx)
		}
	}
}

// ChainBoundaries creates a boundary record on every leaf whose cached
// EdgeResponse magnitude reaches edgeThreshold, classifying its scan
// direction from the dominant gradient component, then unions adjacent
// boundary leaves to a fixpoint whenever their endpoint angles are within
// 45 degrees of each other.
func (f *Forest) ChainBoundaries(leaves []NodeIndex, edgeThreshold float64) {
	for _, idx := range leaves {
		e, ok := annotation.Get[annotation.EdgeResponsePayload](&f.pool[idx].Annotations, annotation.EdgeResponse)
		if !ok || e.Magnitude < edgeThreshold {
			continue
		}
		dir := annotation.DirHorizontal
		if math.Abs(e.Dy) > math.Abs(e.Dx) {
			dir = annotation.DirVertical
		}
		f.BoundaryCreate(idx, e.Angle, dir)
	}
	const alignTolerance = math.Pi / 4
	changed := true
	for changed {
		changed = false
		for _, idx := range leaves {
			bi, ok := f.HasBoundary(idx)
			if !ok {
				continue
			}
			ra := f.BoundaryFind(bi)
			for _, nb := range f.GetNeighbors(idx) {
				bj, ok := f.HasBoundary(nb)
				if !ok {
					continue
				}
				rb := f.BoundaryFind(bj)
				if ra == rb {
					continue
				}
				if math.Abs(angleDelta(f.boundaryPool[ra].EndAngle, f.boundaryPool[rb].StartAngle)) < alignTolerance {
					ra = f.BoundaryUnion(ra, rb)
					changed = true
				}
			}
		}
	}
}

// GetBoundaries returns one merged BoundaryRecord per distinct boundary
// chain currently present in the forest.
func (f *Forest) GetBoundaries() []BoundaryRecord {
	seen := make(map[BoundaryIndex]bool)
	var out []BoundaryRecord
	for i := range f.pool {
		bi, ok := f.HasBoundary(NodeIndex(i))
		if !ok {
			continue
		}
		root := f.BoundaryFind(bi)
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, f.boundaryPool[root])
	}
	return out
}

// angleDelta returns the signed turning angle from a to b, wrapped into
// (-pi, pi].
func angleDelta(a, b float64) float64 {
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
