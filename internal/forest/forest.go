// Package forest implements the quad-forest: a grid of root quad-trees
// that adaptively subdivide over an integral-image-backed source, plus the
// union-find segmentation layer and synchronous propagation engine used to
// merge trees into regions.
package forest

import (
	"github.com/quadforest/quadforest/internal/annotation"
	"github.com/quadforest/quadforest/internal/integral"
	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

// Config configures a Forest's root grid geometry.
type Config struct {
	TreeMaxSize int // power of two; root tree side length
	TreeMinSize int // power of two, <= TreeMaxSize; subdivision floor
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

func (c Config) validate(w, h int) error {
	if !isPow2(c.TreeMaxSize) {
		return qferr.Errorf(qferr.BadParam, "forest.create", "tree_max_size %d is not a power of two", c.TreeMaxSize)
	}
	if !isPow2(c.TreeMinSize) {
		return qferr.Errorf(qferr.BadParam, "forest.create", "tree_min_size %d is not a power of two", c.TreeMinSize)
	}
	if c.TreeMinSize > c.TreeMaxSize {
		return qferr.New(qferr.BadParam, "forest.create", "tree_min_size > tree_max_size")
	}
	min := w
	if h < min {
		min = h
	}
	if c.TreeMaxSize > min {
		return qferr.Errorf(qferr.BadParam, "forest.create", "tree_max_size %d larger than min(W,H)=%d", c.TreeMaxSize, min)
	}
	return nil
}

// Forest is the top-level handle owning the source image, its derived
// integral image, the root grid, and the append-only pool of every
// QuadTree ever created.
type Forest struct {
	cfg Config

	source   *pixel.Image[uint8]
	integral *integral.Image

	pool       []QuadTree
	rootCount  int
	rows, cols int
	dx, dy     int

	segmentPool   []SegmentRecord
	boundaryPool  []BoundaryRecord
	nextSegmentID uint32

	segments  int
	colorSeed uint32
}

// Create validates the configuration, allocates the root grid centered in
// the source image, derives the integral image, and performs the first
// Update pass.
func Create(source *pixel.Image[uint8], cfg Config) (*Forest, error) {
	if source == nil {
		return nil, qferr.New(qferr.BadPointer, "forest.create", "nil source")
	}
	w, h := source.Width(), source.Height()
	if err := cfg.validate(w, h); err != nil {
		return nil, err
	}

	own, err := pixel.Create[uint8](source.Type(), pixel.FormatGrey, w, h, 1, 0)
	if err != nil {
		return nil, err
	}
	ii, err := integral.Create(w, h)
	if err != nil {
		return nil, err
	}

	f := &Forest{cfg: cfg, source: own, integral: ii, colorSeed: 0x9E3779B9}
	f.buildGrid(w, h)
	if err := f.copySource(source); err != nil {
		return nil, err
	}
	if err := f.Update(); err != nil {
		return nil, err
	}
	return f, nil
}

// buildGrid lays out the root grid, centered with offsets dx,dy, and wires
// each root's grid-adjacent neighbor links.
func (f *Forest) buildGrid(w, h int) {
	size := f.cfg.TreeMaxSize
	cols := w / size
	rows := h / size
	dx := (w - cols*size) / 2
	dy := (h - rows*size) / 2

	f.rows, f.cols, f.dx, f.dy = rows, cols, dx, dy
	f.rootCount = rows * cols
	f.pool = make([]QuadTree, f.rootCount)

	idx := func(r, c int) NodeIndex {
		if r < 0 || r >= rows || c < 0 || c >= cols {
			return NilNode
		}
		return NodeIndex(r*cols + c)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t := &f.pool[idx(r, c)]
			t.X = dx + c*size
			t.Y = dy + r*size
			t.Size = size
			t.Level = 0
			t.Parent = NilNode
			t.Children = [4]NodeIndex{NilNode, NilNode, NilNode, NilNode}
			t.Neighbors = [4]NodeIndex{idx(r-1, c), idx(r, c+1), idx(r+1, c), idx(r, c-1)}
		}
	}
}

// copySource copies (and, when formats differ, converts) the caller's
// pixel buffer into the forest's internally-owned grayscale source.
func (f *Forest) copySource(source *pixel.Image[uint8]) error {
	if source.Format() == pixel.FormatGrey && source.Step() == 1 {
		return pixel.Copy(f.source, source)
	}
	return pixel.Convert(f.source, source)
}

// Reload rebuilds the pool and root grid if the geometry or element type
// changed; otherwise it is a no-op.
func (f *Forest) Reload(cfg Config) error {
	w, h := f.source.Width(), f.source.Height()
	if err := cfg.validate(w, h); err != nil {
		return err
	}
	if cfg == f.cfg {
		return nil
	}
	f.cfg = cfg
	f.buildGrid(w, h)
	return f.Update()
}

// Update re-derives root statistics from the current contents of the
// forest's source buffer (see Source) and discards every node created by
// prior subdivision. Callers write new pixel data into Source() and then
// call Update() to pick it up.
func (f *Forest) Update() error {
	if err := f.integral.Update(f.source); err != nil {
		return qferr.Wrap(qferr.Fatal, "forest.update", err)
	}
	f.pool = f.pool[:f.rootCount]
	for i := range f.pool {
		t := &f.pool[i]
		t.Stat = f.integral.RectStats(t.X, t.Y, t.Size, t.Size)
		t.Children = [4]NodeIndex{NilNode, NilNode, NilNode, NilNode}
		t.Annotations = annotation.Set{}
	}
	f.segments = 0
	f.segmentPool = f.segmentPool[:0]
	f.boundaryPool = f.boundaryPool[:0]
	f.nextSegmentID = 0
	return nil
}

// DirectNeighbors returns tree's cached four neighbor links (at most four,
// fewer at the forest border), without the recursive finer-neighbor
// descent GetNeighbors performs.
func (f *Forest) DirectNeighbors(idx NodeIndex) []NodeIndex {
	t := f.pool[idx]
	var out []NodeIndex
	for _, n := range t.Neighbors {
		if n != NilNode {
			out = append(out, n)
		}
	}
	return out
}

// annotationEdgeResponse returns (allocating if absent) the EdgeResponse
// payload attached to the node at idx.
func (f *Forest) annotationEdgeResponse(idx NodeIndex) *annotation.EdgeResponsePayload {
	return annotation.EnsureHas[annotation.EdgeResponsePayload](&f.pool[idx].Annotations, annotation.EdgeResponse)
}

// Source returns the forest's internally-owned source buffer for direct
// pixel writes ahead of the next Update call.
func (f *Forest) Source() *pixel.Image[uint8] { return f.source }

// Integral returns the forest's derived integral image.
func (f *Forest) Integral() *integral.Image { return f.integral }

func (f *Forest) Config() Config { return f.cfg }

// Node returns a pointer into the pool. The pointer is a transient borrow:
// it must not be retained across the next call to Update, Divide, or any
// segmenter phase, since those may reallocate the pool backing array.
func (f *Forest) Node(idx NodeIndex) *QuadTree {
	return &f.pool[idx]
}

// Len returns the current pool size (roots plus every child ever created
// since the last Update).
func (f *Forest) Len() int { return len(f.pool) }

// Roots returns the NodeIndex of every root tree, in row-major grid order.
func (f *Forest) Roots() []NodeIndex {
	out := make([]NodeIndex, f.rootCount)
	for i := range out {
		out[i] = NodeIndex(i)
	}
	return out
}

func (f *Forest) Rows() int        { return f.rows }
func (f *Forest) Cols() int        { return f.cols }
func (f *Forest) RootCount() int   { return f.rootCount }
func (f *Forest) MinSize() int     { return f.cfg.TreeMinSize }
func (f *Forest) Segments() int    { return f.segments }
