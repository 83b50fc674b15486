// Package segment implements the four forest segmenters (§4.9): each
// drives a QuadForest through a sequence of subdivision and union-find
// merge phases and leaves the forest's segment/boundary annotations
// populated for the caller to read back via Forest.GetSegments.
package segment

import (
	"math"

	"github.com/quadforest/quadforest/internal/annotation"
	"github.com/quadforest/quadforest/internal/forest"
	"github.com/quadforest/quadforest/qferr"
)

// bestNeighborMerge scans leaves, and for each that owns a segment picks
// the direct-neighbor leaf minimizing dist(idx, neighbor); if that
// minimum is below limit it unions the two segments. Used by both
// WithDeviation and WithOverlap's tree-level and segment-level merge
// phases, which differ only in the distance function and comparison
// direction (deviation wants smallest distance below a cap, overlap
// wants largest overlap above a floor) — pickMax selects which.
func bestNeighborMerge(f *forest.Forest, leaves []forest.NodeIndex, dist func(a, b forest.NodeIndex) float64, limit float64, pickMax bool) {
	for _, idx := range leaves {
		si, ok := f.HasSegment(idx)
		if !ok {
			continue
		}
		best := forest.NilNode
		bestScore := math.Inf(1)
		if pickMax {
			bestScore = math.Inf(-1)
		}
		root := f.SegmentFind(si)
		for _, nb := range f.DirectNeighbors(idx) {
			sj, ok := f.HasSegment(nb)
			if !ok || f.SegmentFind(sj) == root {
				continue
			}
			d := dist(idx, nb)
			if pickMax && d > bestScore {
				bestScore, best = d, nb
			} else if !pickMax && d < bestScore {
				bestScore, best = d, nb
			}
		}
		if best == forest.NilNode {
			continue
		}
		pass := (pickMax && bestScore > limit) || (!pickMax && bestScore < limit)
		if pass {
			sj, _ := f.HasSegment(best)
			f.SegmentUnion(si, sj)
		}
	}
}

// WithDeviation implements segment_with_deviation (§4.9): subdivide every
// leaf whose deviation exceeds tau (phase 1), union each leaf with its
// single closest-mean direct neighbor when within alpha*tau (phase 2),
// repeat against the merged segments' running means (phase 3), then
// refresh_segments (phase 4).
func WithDeviation(f *forest.Forest, tau, alpha float64) error {
	for _, root := range f.Roots() {
		if err := f.DivideWithDeviation(root, tau); err != nil {
			return qferr.Wrap(qferr.Fatal, "segment.with_deviation", err)
		}
	}
	leaves := f.Leaves()
	limit := alpha * tau

	treeDist := func(a, b forest.NodeIndex) float64 {
		return math.Abs(f.Node(a).Stat.Mean - f.Node(b).Stat.Mean)
	}
	bestNeighborMerge(f, leaves, treeDist, limit, false)

	segDist := func(a, b forest.NodeIndex) float64 {
		sa, _ := f.HasSegment(a)
		sb, _ := f.HasSegment(b)
		return math.Abs(f.Segment(sa).Stat.Mean - f.Segment(sb).Stat.Mean)
	}
	bestNeighborMerge(f, leaves, segDist, limit, false)

	f.RefreshSegments()
	return nil
}

// WithOverlap implements segment_with_overlap (§4.9): divide_with_overlap
// recursively (phase 1, using tauTree as the child-overlap divide
// threshold), union each leaf with its single best-overlapping direct
// neighbor when overlap exceeds tauTree (phase 2), repeat against merged
// segment intervals with tauSeg (phase 3), then refresh_segments.
func WithOverlap(f *forest.Forest, alpha, tauTree, tauSeg float64) error {
	for _, root := range f.Roots() {
		if err := f.DivideWithOverlap(root, alpha, tauTree); err != nil {
			return qferr.Wrap(qferr.Fatal, "segment.with_overlap", err)
		}
	}
	leaves := f.Leaves()

	treeOverlap := func(a, b forest.NodeIndex) float64 {
		return forest.IntervalOverlap(f.Node(a).Stat, f.Node(b).Stat, alpha)
	}
	bestNeighborMerge(f, leaves, treeOverlap, tauTree, true)

	segOverlap := func(a, b forest.NodeIndex) float64 {
		sa, _ := f.HasSegment(a)
		sb, _ := f.HasSegment(b)
		return forest.IntervalOverlap(f.Segment(sa).Stat, f.Segment(sb).Stat, alpha)
	}
	bestNeighborMerge(f, leaves, segOverlap, tauSeg, true)

	f.RefreshSegments()
	return nil
}

// Edges implements segment_edges (§4.9): runs edge-response propagation
// in the requested direction for rounds iterations, declares an edge on
// every leaf whose final pool exceeds bias, and unions segments across
// leaves that share the has-edge flag along the chosen merge direction.
func Edges(f *forest.Forest, rounds int, bias float64, dir annotation.Direction) error {
	if rounds < 1 {
		return qferr.New(qferr.BadParam, "segment.edges", "rounds must be >= 1")
	}
	leaves := f.Leaves()
	for _, idx := range leaves {
		f.GetEdgeResponse(idx)
	}
	f.PrimeWithEdgeMagnitude(leaves)
	for i := 0; i < rounds; i++ {
		if i > 0 {
			f.PrimeWithPool(leaves)
		}
		switch dir {
		case annotation.DirHorizontal:
			f.PropagateH(leaves)
		case annotation.DirVertical:
			f.PropagateV(leaves)
		default:
			f.PropagateM(leaves)
		}
		f.Accumulate(leaves)
	}
	f.DeclareEdges(leaves, bias)

	mergeDirs := []int{forest.DirN, forest.DirS}
	if dir == annotation.DirHorizontal {
		mergeDirs = []int{forest.DirE, forest.DirW}
	}

	hasEdge := func(idx forest.NodeIndex) bool {
		bp, ok := annotation.Get[annotation.BoundaryPotentialPayload](&f.Node(idx).Annotations, annotation.BoundaryPotential)
		return ok && bp.HasEdge
	}
	for _, idx := range leaves {
		if hasEdge(idx) {
			f.SegmentCreate(idx)
		}
	}
	for _, idx := range leaves {
		if !hasEdge(idx) {
			continue
		}
		si, _ := f.HasSegment(idx)
		t := f.Node(idx)
		for _, d := range mergeDirs {
			nb := t.Neighbors[d]
			if nb == forest.NilNode || !hasEdge(nb) {
				continue
			}
			sj, ok := f.HasSegment(nb)
			if !ok {
				continue
			}
			f.SegmentUnion(si, sj)
		}
	}
	f.RefreshSegments()
	return nil
}

// WithBoundaries implements segment_with_boundaries (§4.9): finds
// boundaries via deviation propagation (with optional hysteresis between
// highBias and highBias*lowFactor), chains adjacent boundary leaves into
// Boundary records, merges consistent non-boundary tree neighbors
// (distance under alphaTree*min(dev_tree, dev_neighbor)), then merges
// consistent segments (alphaSeg), optionally prunes isolated boundary
// leaves, and refreshes segments.
func WithBoundaries(f *forest.Forest, rounds int, highBias, lowFactor, alphaTree, alphaSeg float64, useHysteresis, usePruning bool) error {
	if rounds < 1 {
		return qferr.New(qferr.BadParam, "segment.with_boundaries", "rounds must be >= 1")
	}
	leaves := f.Leaves()
	for _, idx := range leaves {
		f.GetEdgeResponse(idx)
	}
	f.PrimeWithDeviation(leaves)
	for i := 0; i < rounds; i++ {
		if i > 0 {
			f.PrimeWithPool(leaves)
		}
		f.Propagate(leaves)
		f.Accumulate(leaves)
	}

	lowBias := highBias * lowFactor
	for _, idx := range leaves {
		t := f.Node(idx)
		edge := t.Pool > highBias
		if useHysteresis && !edge && t.Pool > lowBias {
			for _, nb := range f.DirectNeighbors(idx) {
				if f.Node(nb).Pool > highBias {
					edge = true
					break
				}
			}
		}
		bp := annotation.EnsureHas[annotation.BoundaryPotentialPayload](&f.Node(idx).Annotations, annotation.BoundaryPotential)
		bp.Potential, bp.HasEdge = t.Pool, edge
		if edge {
			angle := 0.0
			if e, ok := annotation.Get[annotation.EdgeResponsePayload](&t.Annotations, annotation.EdgeResponse); ok {
				angle = e.Angle
			}
			f.BoundaryCreate(idx, angle, annotation.DirN4)
		} else {
			f.SegmentCreate(idx)
		}
	}
	f.ChainBoundaries(leaves, highBias)

	for _, idx := range leaves {
		if _, has := f.HasBoundary(idx); has {
			continue
		}
		si, ok := f.HasSegment(idx)
		if !ok {
			continue
		}
		t := f.Node(idx)
		for _, nb := range f.DirectNeighbors(idx) {
			if _, has := f.HasBoundary(nb); has {
				continue
			}
			sj, ok := f.HasSegment(nb)
			if !ok {
				continue
			}
			nt := f.Node(nb)
			dist := math.Abs(t.Stat.Mean - nt.Stat.Mean)
			limit := alphaTree * math.Min(t.Stat.Deviation, nt.Stat.Deviation)
			if dist < limit {
				f.SegmentUnion(si, sj)
			}
		}
	}

	for _, idx := range leaves {
		si, ok := f.HasSegment(idx)
		if !ok {
			continue
		}
		segA := f.Segment(si)
		for _, nb := range f.DirectNeighbors(idx) {
			sj, ok := f.HasSegment(nb)
			if !ok {
				continue
			}
			segB := f.Segment(sj)
			dist := math.Abs(segA.Stat.Mean - segB.Stat.Mean)
			limit := alphaSeg * math.Min(segA.Stat.Deviation, segB.Stat.Deviation)
			if dist < limit {
				f.SegmentUnion(si, sj)
			}
		}
	}

	if usePruning {
		f.PruneIsolatedBoundaries()
	}
	f.RefreshSegments()
	return nil
}
