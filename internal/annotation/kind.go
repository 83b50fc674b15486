// Package annotation implements the heterogeneous per-node annotation bag
// attached to every quad-tree node: a typed-pointer/tuple in the original
// library, modeled here as an AnnotationSet storing a compact slice of
// (Kind, Payload, generation token) entries, per the redesign strategy for
// "heterogeneous per-node annotation via a tagged union plus a tuple of
// tagged unions".
package annotation

// Kind identifies the concrete payload type of an annotation entry.
type Kind int

const (
	Undefined Kind = iota
	Statistics
	RawMoments
	AccumulatedStat
	NeighborhoodStat
	EdgeResponse
	SmoothedGradient
	LinkMeasure
	EdgeLinks
	EdgeProfile
	RidgePotential
	BoundaryPotential
	BoundaryMessage
	Boundary
	SegmentMessage
	SegmentPotential
	Segment
	StatAccumulator
	RegAccumulator
	RangeOverlap
	RidgeFinder
	PathSniffer
	EdgeParser
)

func (k Kind) String() string {
	names := [...]string{
		"undefined", "statistics", "raw_moments", "accumulated_stat",
		"neighborhood_stat", "edge_response", "smoothed_gradient",
		"link_measure", "edge_links", "edge_profile", "ridge_potential",
		"boundary_potential", "boundary_message", "boundary",
		"segment_message", "segment_potential", "segment",
		"stat_accumulator", "reg_accumulator", "range_overlap",
		"ridge_finder", "path_sniffer", "edge_parser",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return names[k]
}
