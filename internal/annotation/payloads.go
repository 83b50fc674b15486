package annotation

import "github.com/quadforest/quadforest/internal/stats"

// RawMomentsPayload carries N/sum/sum^2 without the derived fields, for
// accumulators that merge repeatedly before deriving mean/variance once.
type RawMomentsPayload struct {
	N     int64
	Sum   float64
	SumSq float64
}

// AccumulatedStatPayload is a running Statistics updated incrementally
// across propagation rounds rather than recomputed from the integral image.
type AccumulatedStatPayload struct {
	Stat stats.Statistics
}

// NeighborhoodStatPayload caches get_neighborhood_statistics' result for a
// given alpha so repeated queries in one round don't re-scan the integral
// image.
type NeighborhoodStatPayload struct {
	Alpha float64
	Stat  stats.Statistics
}

// EdgeResponsePayload is get_edge_response's output.
type EdgeResponsePayload struct {
	Dx, Dy     float64
	Magnitude  float64
	Angle      float64
	Confidence float64
}

// SmoothedGradientPayload holds a propagation-smoothed gradient estimate.
type SmoothedGradientPayload struct {
	Dx, Dy float64
}

// LinkMeasurePayload scores the strength of a directional link between
// adjacent trees (used by edge-chain construction).
type LinkMeasurePayload struct {
	Strength float64
}

// EdgeLinksPayload records which of a tree's four neighbors are consistent
// edge continuations.
type EdgeLinksPayload struct {
	HasLink [4]bool // N, E, S, W
}

// EdgeProfilePayload summarizes edge strength across a scan window.
type EdgeProfilePayload struct {
	Mean      float64
	Deviation float64
}

// RidgePotentialPayload scores a tree's likelihood of belonging to a ridge.
type RidgePotentialPayload struct {
	Potential float64
}

// BoundaryPotentialPayload scores a tree's likelihood of belonging to a
// boundary, feeding segment_with_boundaries' propagation pass.
type BoundaryPotentialPayload struct {
	Potential float64
	HasEdge   bool
}

// BoundaryMessagePayload is the propagation scratch message exchanged
// between neighbors during boundary discovery, distinct from the
// accumulate/pool scratch fields kept directly on the QuadTree.
type BoundaryMessagePayload struct {
	Value float64
	Dir   Direction
}

// SegmentMessagePayload is the analogous propagation scratch message for
// segment merging.
type SegmentMessagePayload struct {
	Value float64
}

// SegmentPotentialPayload scores a tree's likelihood of starting a new
// segment versus merging with a neighbor.
type SegmentPotentialPayload struct {
	Potential float64
}

// StatAccumulatorPayload accumulates statistics across a multi-round
// parsing pass before deriving a final Statistics value.
type StatAccumulatorPayload struct {
	N     int64
	Sum   float64
	SumSq float64
	Round uint32
}

// RegAccumulatorPayload accumulates a linear-regression fit incrementally
// (used by curvature estimation for Boundary merges).
type RegAccumulatorPayload struct {
	N          int64
	SumX, SumY float64
	SumXX      float64
	SumXY      float64
}

// RangeOverlapPayload records the last-computed overlap ratio between a
// tree's and a neighbor's estimated intensity interval.
type RangeOverlapPayload struct {
	Overlap float64
}

// RidgeFinderPayload tracks ridge-following scan state across rounds.
type RidgeFinderPayload struct {
	Active bool
	Length int
}

// PathSnifferPayload tracks boundary-chain-following scan state.
type PathSnifferPayload struct {
	Active    bool
	ChainHead bool
}

// EdgeParserPayload tracks the parsing round's edge-detection state
// machine for a tree.
type EdgeParserPayload struct {
	Round uint32
	State int
}

// Direction is the scan direction that produced a propagation result, per
// the "dir" field original segment/edge records carry.
type Direction int

const (
	DirUndefined Direction = iota
	DirHorizontal
	DirVertical
	DirN4
)
