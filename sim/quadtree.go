package sim

const (
	// DefaultQuadCapacity is the number of entities a leaf holds before it splits.
	DefaultQuadCapacity = 8

	// DefaultQuadMaxDepth caps subdivision. Coincident points can never be
	// separated by splitting, so leaves at this depth keep every item past
	// capacity and count the overflow instead of recursing forever.
	DefaultQuadMaxDepth = 24
)

const (
	quadNE = iota
	quadNW
	quadSE
	quadSW
)

const noChild int32 = -1

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Intersects reports whether two rectangles overlap, touching edges included.
func (r Rect) Intersects(o Rect) bool {
	return o.X <= r.X+r.W && o.X+o.W >= r.X && o.Y <= r.Y+r.H && o.Y+o.H >= r.Y
}

// NodeInfo describes one quadtree node for debug drawing.
type NodeInfo struct {
	X, Y          float64
	Width, Height float64
	Depth         int
	EntityCount   int
}

type quadItem struct {
	x, y   float64
	entity *Entity
}

type quadNode struct {
	bounds   Rect
	depth    int
	items    []quadItem
	children [4]int32
}

// Quadtree is a point quadtree rebuilt every frame. Nodes live in an arena
// addressed by index; Reset keeps the arena and each node's item storage so
// steady-state rebuilds do not allocate.
type Quadtree struct {
	nodes     []quadNode
	used      int
	capacity  int
	size      int
	overflows int

	// MaxDepth is the deepest level a node may be created at.
	MaxDepth int
}

// NewQuadtree creates an empty tree covering bounds.
func NewQuadtree(bounds Rect, capacity int) *Quadtree {
	if capacity <= 0 {
		capacity = DefaultQuadCapacity
	}
	q := &Quadtree{
		capacity: capacity,
		MaxDepth: DefaultQuadMaxDepth,
	}
	q.Reset(bounds)
	return q
}

// Reset discards every node and starts a new tree over bounds.
func (q *Quadtree) Reset(bounds Rect) {
	for i := 0; i < q.used; i++ {
		q.nodes[i].items = q.nodes[i].items[:0]
	}
	q.used = 0
	q.size = 0
	q.overflows = 0
	q.newNode(bounds, 0)
}

func (q *Quadtree) newNode(bounds Rect, depth int) int32 {
	if q.used == len(q.nodes) {
		q.nodes = append(q.nodes, quadNode{})
	}
	idx := q.used
	q.used++

	n := &q.nodes[idx]
	n.bounds = bounds
	n.depth = depth
	n.items = n.items[:0]
	n.children = [4]int32{noChild, noChild, noChild, noChild}
	return int32(idx)
}

// Bounds returns the root boundary.
func (q *Quadtree) Bounds() Rect {
	return q.nodes[0].bounds
}

// Insert stores the entity at its current position. It returns false when
// the position is outside the root boundary.
func (q *Quadtree) Insert(e *Entity) bool {
	if !q.nodes[0].bounds.Contains(e.X, e.Y) {
		return false
	}
	q.insertAt(0, quadItem{x: e.X, y: e.Y, entity: e})
	q.size++
	return true
}

func (q *Quadtree) insertAt(idx int32, item quadItem) {
	for {
		n := &q.nodes[idx]
		if n.children[0] == noChild {
			if len(n.items) < q.capacity {
				n.items = append(n.items, item)
				return
			}
			if n.depth >= q.MaxDepth {
				n.items = append(n.items, item)
				q.overflows++
				return
			}
			q.subdivide(idx)
			n = &q.nodes[idx]
		}
		idx = n.children[quadrant(n.bounds, item.x, item.y)]
	}
}

// subdivide splits a leaf into four equal quadrants and moves its items down.
func (q *Quadtree) subdivide(idx int32) {
	b := q.nodes[idx].bounds
	depth := q.nodes[idx].depth + 1
	hw, hh := b.W/2, b.H/2
	midX, midY := b.X+hw, b.Y+hh

	var children [4]int32
	children[quadNE] = q.newNode(Rect{X: midX, Y: b.Y, W: hw, H: hh}, depth)
	children[quadNW] = q.newNode(Rect{X: b.X, Y: b.Y, W: hw, H: hh}, depth)
	children[quadSE] = q.newNode(Rect{X: midX, Y: midY, W: hw, H: hh}, depth)
	children[quadSW] = q.newNode(Rect{X: b.X, Y: midY, W: hw, H: hh}, depth)

	n := &q.nodes[idx]
	n.children = children
	items := n.items
	for _, item := range items {
		q.insertAt(children[quadrant(b, item.x, item.y)], item)
	}
	q.nodes[idx].items = items[:0]
}

// quadrant picks the child a point belongs to by comparing against the
// midpoint, so points on a split line go to exactly one side.
func quadrant(b Rect, x, y float64) int {
	midX, midY := b.X+b.W/2, b.Y+b.H/2
	east := x >= midX
	south := y >= midY
	switch {
	case east && !south:
		return quadNE
	case !east && !south:
		return quadNW
	case east && south:
		return quadSE
	default:
		return quadSW
	}
}

// Query appends to dst every entity whose stored position lies inside r.
func (q *Quadtree) Query(r Rect, dst []*Entity) []*Entity {
	return q.query(0, r, dst)
}

func (q *Quadtree) query(idx int32, r Rect, dst []*Entity) []*Entity {
	n := &q.nodes[idx]
	if !n.bounds.Intersects(r) {
		return dst
	}
	for _, item := range n.items {
		if r.Contains(item.x, item.y) {
			dst = append(dst, item.entity)
		}
	}
	if n.children[0] == noChild {
		return dst
	}
	for _, child := range n.children {
		dst = q.query(child, r, dst)
	}
	return dst
}

// QueryCircle appends to dst every entity within distance radius of (cx, cy).
func (q *Quadtree) QueryCircle(cx, cy, radius float64, dst []*Entity) []*Entity {
	if radius < 0 {
		return dst
	}
	return q.queryCircle(0, cx, cy, radius*radius, dst)
}

func (q *Quadtree) queryCircle(idx int32, cx, cy, radiusSq float64, dst []*Entity) []*Entity {
	n := &q.nodes[idx]

	// Closest point of the node to the circle centre.
	px := clamp(cx, n.bounds.X, n.bounds.X+n.bounds.W)
	py := clamp(cy, n.bounds.Y, n.bounds.Y+n.bounds.H)
	dx, dy := cx-px, cy-py
	if dx*dx+dy*dy > radiusSq {
		return dst
	}

	for _, item := range n.items {
		ix, iy := item.x-cx, item.y-cy
		if ix*ix+iy*iy <= radiusSq {
			dst = append(dst, item.entity)
		}
	}
	if n.children[0] == noChild {
		return dst
	}
	for _, child := range n.children {
		dst = q.queryCircle(child, cx, cy, radiusSq, dst)
	}
	return dst
}

// Size returns the number of entities stored in the tree.
func (q *Quadtree) Size() int {
	return q.size
}

// Depth returns the number of levels in the tree; a lone root is depth 1.
func (q *Quadtree) Depth() int {
	depth := 0
	for i := 0; i < q.used; i++ {
		if d := q.nodes[i].depth + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// NodeCount returns the number of nodes built since the last Reset.
func (q *Quadtree) NodeCount() int {
	return q.used
}

// Overflows returns how many items were stored past capacity at MaxDepth.
func (q *Quadtree) Overflows() int {
	return q.overflows
}

// Dump lists every node for debug visualisation.
func (q *Quadtree) Dump() []NodeInfo {
	out := make([]NodeInfo, 0, q.used)
	for i := 0; i < q.used; i++ {
		n := &q.nodes[i]
		out = append(out, NodeInfo{
			X:           n.bounds.X,
			Y:           n.bounds.Y,
			Width:       n.bounds.W,
			Height:      n.bounds.H,
			Depth:       n.depth,
			EntityCount: len(n.items),
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
