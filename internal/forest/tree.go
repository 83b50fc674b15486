package forest

import (
	"github.com/quadforest/quadforest/internal/annotation"
	"github.com/quadforest/quadforest/internal/stats"
)

// NodeIndex is a stable index into a Forest's pool, replacing the raw
// self-referential pointers the hierarchy was originally built from (see
// the arena + stable-index strategy in the design notes). Appending to the
// pool never invalidates an existing NodeIndex.
type NodeIndex int32

// NilNode is the "no node" sentinel, analogous to a null pointer.
const NilNode NodeIndex = -1

// Valid reports whether idx refers to an actual pool slot.
func (idx NodeIndex) Valid() bool { return idx >= 0 }

// Child quadrant indices, in the fixed NW,NE,SW,SE order used throughout.
const (
	ChildNW = 0
	ChildNE = 1
	ChildSW = 2
	ChildSE = 3
)

// Neighbor direction indices, in the fixed N,E,S,W order used throughout.
const (
	DirN = 0
	DirE = 1
	DirS = 2
	DirW = 3
)

// opposite maps a direction to the direction a neighbor sees it from.
var opposite = [4]int{DirS, DirW, DirN, DirE}

// QuadTree is one node of the forest: its bbox, cached statistics, child
// and neighbor links (by NodeIndex, not pointer), propagation scratch
// fields, and its annotation bag.
type QuadTree struct {
	X, Y, Size int
	Level      int

	Stat stats.Statistics

	Children  [4]NodeIndex
	Neighbors [4]NodeIndex
	Parent    NodeIndex

	// Propagation scratch (§4.8): Acc/AccSq carry the current round's
	// accumulated value, Pool/PoolSq the value primed for the next round.
	Acc, AccSq   float64
	Pool, PoolSq float64

	Annotations annotation.Set
}

// IsLeaf reports whether the node has not been subdivided.
func (t *QuadTree) IsLeaf() bool {
	return t.Children[ChildNW] == NilNode
}

// Rect returns the node's square as (x1,y1,x2,y2), x2/y2 exclusive.
func (t *QuadTree) Rect() (x1, y1, x2, y2 int) {
	return t.X, t.Y, t.X + t.Size, t.Y + t.Size
}
