package forest

import (
	"math"

	"github.com/quadforest/quadforest/internal/stats"
	"github.com/quadforest/quadforest/qferr"
)

// childOrigin returns the (x,y) origin of quadrant q of a size x size
// square rooted at (x,y).
func childOrigin(x, y, half, q int) (int, int) {
	switch q {
	case ChildNW:
		return x, y
	case ChildNE:
		return x + half, y
	case ChildSW:
		return x, y + half
	default: // ChildSE
		return x + half, y + half
	}
}

// ChildStatistics fills out[4] (NW,NE,SW,SE order) with child statistics:
// copied from cached children if the node is already divided, otherwise
// derived directly from the integral image. Not valid for size-1 nodes.
func (f *Forest) ChildStatistics(idx NodeIndex) ([4]stats.Statistics, error) {
	var out [4]stats.Statistics
	t := f.pool[idx]
	if t.Size < 2 {
		return out, qferr.New(qferr.BadParam, "quad_tree.get_child_statistics", "size-1 node has no children")
	}
	if !t.IsLeaf() {
		for i, c := range t.Children {
			out[i] = f.pool[c].Stat
		}
		return out, nil
	}
	half := t.Size / 2
	for q := 0; q < 4; q++ {
		cx, cy := childOrigin(t.X, t.Y, half, q)
		out[q] = f.integral.RectStats(cx, cy, half, half)
	}
	return out, nil
}

// externalNeighbor resolves the neighbor a new child should see on one of
// its non-sibling sides: the matching quadrant of the parent's neighbor
// when that neighbor is itself divided, or the neighbor itself (a coarser
// node) when it is not.
func (f *Forest) externalNeighbor(parentNeighbor NodeIndex, matchingQuadrant int) NodeIndex {
	if parentNeighbor == NilNode {
		return NilNode
	}
	n := f.pool[parentNeighbor]
	if n.IsLeaf() {
		return parentNeighbor
	}
	return n.Children[matchingQuadrant]
}

// Divide subdivides tree into four children, a no-op if it is already
// divided or smaller than twice the forest's minimum size. Child
// statistics come from O(1) integral-image lookups; neighbor links are
// cached coarse-to-fine immediately after creation, with symmetric
// back-links installed into any already-divided neighbor.
func (f *Forest) Divide(idx NodeIndex) error {
	t := f.pool[idx]
	if !t.IsLeaf() {
		return nil
	}
	if t.Size < 2*f.cfg.TreeMinSize {
		return nil
	}

	childStats, err := f.ChildStatistics(idx)
	if err != nil {
		return err
	}

	half := t.Size / 2
	base := NodeIndex(len(f.pool))
	for q := 0; q < 4; q++ {
		cx, cy := childOrigin(t.X, t.Y, half, q)
		f.pool = append(f.pool, QuadTree{
			X: cx, Y: cy, Size: half, Level: t.Level + 1,
			Parent:   idx,
			Stat:     childStats[q],
			Children: [4]NodeIndex{NilNode, NilNode, NilNode, NilNode},
		})
	}
	nw, ne, sw, se := base+ChildNW, base+ChildNE, base+ChildSW, base+ChildSE

	extNorthNW := f.externalNeighbor(t.Neighbors[DirN], ChildSW)
	extNorthNE := f.externalNeighbor(t.Neighbors[DirN], ChildSE)
	extEastNE := f.externalNeighbor(t.Neighbors[DirE], ChildNW)
	extEastSE := f.externalNeighbor(t.Neighbors[DirE], ChildSW)
	extSouthSW := f.externalNeighbor(t.Neighbors[DirS], ChildNW)
	extSouthSE := f.externalNeighbor(t.Neighbors[DirS], ChildNE)
	extWestNW := f.externalNeighbor(t.Neighbors[DirW], ChildNE)
	extWestSW := f.externalNeighbor(t.Neighbors[DirW], ChildSE)

	f.pool[nw].Neighbors = [4]NodeIndex{extNorthNW, ne, sw, extWestNW}
	f.pool[ne].Neighbors = [4]NodeIndex{extNorthNE, extEastNE, se, nw}
	f.pool[sw].Neighbors = [4]NodeIndex{nw, se, extSouthSW, extWestSW}
	f.pool[se].Neighbors = [4]NodeIndex{ne, extEastSE, extSouthSE, sw}

	// Symmetric back-links: only needed where the neighbor already has
	// children (a coarser neighbor's own subdivision will wire its side
	// correctly when it eventually divides).
	if n := t.Neighbors[DirN]; n != NilNode && !f.pool[n].IsLeaf() {
		c := f.pool[n].Children
		f.pool[c[ChildSW]].Neighbors[DirS] = nw
		f.pool[c[ChildSE]].Neighbors[DirS] = ne
	}
	if n := t.Neighbors[DirE]; n != NilNode && !f.pool[n].IsLeaf() {
		c := f.pool[n].Children
		f.pool[c[ChildNW]].Neighbors[DirW] = ne
		f.pool[c[ChildSW]].Neighbors[DirW] = se
	}
	if n := t.Neighbors[DirS]; n != NilNode && !f.pool[n].IsLeaf() {
		c := f.pool[n].Children
		f.pool[c[ChildNW]].Neighbors[DirN] = sw
		f.pool[c[ChildNE]].Neighbors[DirN] = se
	}
	if n := t.Neighbors[DirW]; n != NilNode && !f.pool[n].IsLeaf() {
		c := f.pool[n].Children
		f.pool[c[ChildNE]].Neighbors[DirE] = nw
		f.pool[c[ChildSE]].Neighbors[DirE] = sw
	}

	f.pool[idx].Children = [4]NodeIndex{nw, ne, sw, se}
	return nil
}

// DivideWithDeviation recursively subdivides tree while its own
// statistical deviation exceeds threshold, down to twice the forest's
// minimum size, marking each resulting leaf as a segmentation leaf.
func (f *Forest) DivideWithDeviation(idx NodeIndex, threshold float64) error {
	t := f.pool[idx]
	if !t.IsLeaf() {
		for _, c := range t.Children {
			if err := f.DivideWithDeviation(c, threshold); err != nil {
				return err
			}
		}
		return nil
	}
	if t.Stat.Deviation <= threshold || t.Size < 2*f.cfg.TreeMinSize {
		f.SegmentCreate(idx)
		return nil
	}
	if err := f.Divide(idx); err != nil {
		return err
	}
	t = f.pool[idx]
	for _, c := range t.Children {
		if err := f.DivideWithDeviation(c, threshold); err != nil {
			return err
		}
	}
	return nil
}

// NeighborhoodStatistics returns the statistics of the axis-aligned square
// of side size*(1+2*alpha) centered on tree, via the integral image.
func (f *Forest) NeighborhoodStatistics(idx NodeIndex, alpha float64) stats.Statistics {
	t := f.pool[idx]
	side := float64(t.Size) * (1 + 2*alpha)
	cx := float64(t.X) + float64(t.Size)/2
	cy := float64(t.Y) + float64(t.Size)/2
	w := int(math.Round(side))
	x := int(math.Round(cx - side/2))
	y := int(math.Round(cy - side/2))
	return f.integral.RectStats(x, y, w, w)
}

func intensityInterval(s stats.Statistics, alpha float64) (lo, hi float64) {
	lo = s.Mean - alpha*s.Deviation
	hi = s.Mean + alpha*s.Deviation
	if lo < 0 {
		lo = 0
	}
	if hi > 255 {
		hi = 255
	}
	return
}

// overlapRatio is the intersection-over-union of the four children's
// estimated intensity intervals, collectively.
func overlapRatio(childStats [4]stats.Statistics, alpha float64) float64 {
	var los, his [4]float64
	for i, s := range childStats {
		los[i], his[i] = intensityInterval(s, alpha)
	}
	interLo, interHi := los[0], his[0]
	unionLo, unionHi := los[0], his[0]
	for i := 1; i < 4; i++ {
		if los[i] > interLo {
			interLo = los[i]
		}
		if his[i] < interHi {
			interHi = his[i]
		}
		if los[i] < unionLo {
			unionLo = los[i]
		}
		if his[i] > unionHi {
			unionHi = his[i]
		}
	}
	unionLen := unionHi - unionLo
	if unionLen <= 0 {
		return 1
	}
	interLen := interHi - interLo
	if interLen < 0 {
		interLen = 0
	}
	return interLen / unionLen
}

// IntervalOverlap is the intersection-over-union of a and b's estimated
// intensity intervals [mean-alpha*dev, mean+alpha*dev], clamped to
// [0,255]; used by segment_with_overlap's neighbor-merge phases.
func IntervalOverlap(a, b stats.Statistics, alpha float64) float64 {
	aLo, aHi := intensityInterval(a, alpha)
	bLo, bHi := intensityInterval(b, alpha)
	interLo, interHi := math.Max(aLo, bLo), math.Min(aHi, bHi)
	interLen := math.Max(0, interHi-interLo)
	unionLo, unionHi := math.Min(aLo, bLo), math.Max(aHi, bHi)
	unionLen := unionHi - unionLo
	if unionLen <= 0 {
		return 1
	}
	return interLen / unionLen
}

// DivideWithOverlap recursively subdivides tree while the four candidate
// children's estimated intensity intervals overlap less than tau (i.e.
// they look different enough to be worth separating), down to twice the
// forest's minimum size. Once overlap reaches tau, or minimum size is
// reached, the tree is marked as a segmentation leaf instead.
func (f *Forest) DivideWithOverlap(idx NodeIndex, alpha, tau float64) error {
	t := f.pool[idx]
	if !t.IsLeaf() {
		for _, c := range t.Children {
			if err := f.DivideWithOverlap(c, alpha, tau); err != nil {
				return err
			}
		}
		return nil
	}
	if t.Size < 2*f.cfg.TreeMinSize {
		f.SegmentCreate(idx)
		return nil
	}
	childStats, err := f.ChildStatistics(idx)
	if err != nil {
		return err
	}
	if overlapRatio(childStats, alpha) < tau {
		if err := f.Divide(idx); err != nil {
			return err
		}
		t = f.pool[idx]
		for _, c := range t.Children {
			if err := f.DivideWithOverlap(c, alpha, tau); err != nil {
				return err
			}
		}
		return nil
	}
	f.SegmentCreate(idx)
	return nil
}

// fisherSigned is the signed Fisher discriminant between two equal-sized
// samples: (mean2-mean1)/sqrt(max(1, var1+var2)).
func fisherSigned(a, b stats.Statistics) float64 {
	v := a.Variance + b.Variance
	if v < 1 {
		v = 1
	}
	return (b.Mean - a.Mean) / math.Sqrt(v)
}

// GetEdgeResponse scans box-shaped Fisher-discriminant integrals
// horizontally and vertically across tree, storing dx, dy, magnitude, and
// angle into its EdgeResponse annotation. Each scan slides a pair of
// box_length-thick boxes (box_length = max(tree.Size/2, 4)) across
// box_width = tree.Size positions, one box_length-tall/wide box on either
// side of the slide point, and averages their signed Fisher discriminant.
// The response is left at zero if the scan window would fall outside the
// integral image.
func (f *Forest) GetEdgeResponse(idx NodeIndex) {
	t := f.pool[idx]
	boxWidth := t.Size
	boxLength := boxWidth / 2
	if boxLength < 4 {
		boxLength = 4
	}

	var hsum, vsum float64

	scol := t.X - boxLength
	endcol := scol + boxWidth
	if scol >= 0 && endcol+boxWidth+1 <= f.integral.Width() {
		for col := scol; col < endcol; col++ {
			left := f.integral.RectStats(col, t.Y, boxLength, boxWidth)
			right := f.integral.RectStats(col+boxLength, t.Y, boxLength, boxWidth)
			hsum += fisherSigned(left, right)
		}
		hsum /= float64(boxWidth)
	}

	srow := t.Y - boxLength
	endrow := srow + boxWidth
	if srow >= 0 && endrow+boxWidth+1 <= f.integral.Height() {
		for row := srow; row < endrow; row++ {
			top := f.integral.RectStats(t.X, row, boxWidth, boxLength)
			bottom := f.integral.RectStats(t.X, row+boxLength, boxWidth, boxLength)
			vsum += fisherSigned(top, bottom)
		}
		vsum /= float64(boxWidth)
	}

	mag := math.Sqrt(hsum*hsum + vsum*vsum)
	ang := math.Atan2(hsum, vsum)
	if ang < 0 {
		ang += 2 * math.Pi
	}

	e := f.annotationEdgeResponse(idx)
	e.Dx, e.Dy, e.Magnitude, e.Angle = hsum, vsum, mag, ang
}

// GetNeighbors enumerates tree's direct same-or-finer-level neighbors,
// descending any child-bearing neighbor into the quadrant(s) adjacent to
// tree.
func (f *Forest) GetNeighbors(idx NodeIndex) []NodeIndex {
	t := f.pool[idx]
	var out []NodeIndex
	for dir := 0; dir < 4; dir++ {
		n := t.Neighbors[dir]
		if n == NilNode {
			continue
		}
		out = append(out, f.collectAlongEdge(n, opposite[dir])...)
	}
	return out
}

// collectAlongEdge returns every leaf descending from n that lies along
// the edge of n facing edgeDir (the direction, from n, back toward the
// original tree).
func (f *Forest) collectAlongEdge(n NodeIndex, edgeDir int) []NodeIndex {
	node := f.pool[n]
	if node.IsLeaf() {
		return []NodeIndex{n}
	}
	var a, b int
	switch edgeDir {
	case DirN:
		a, b = ChildNW, ChildNE
	case DirE:
		a, b = ChildNE, ChildSE
	case DirS:
		a, b = ChildSW, ChildSE
	default: // DirW
		a, b = ChildNW, ChildSW
	}
	out := f.collectAlongEdge(node.Children[a], edgeDir)
	out = append(out, f.collectAlongEdge(node.Children[b], edgeDir)...)
	return out
}
