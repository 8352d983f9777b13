// Package arena implements the store's destruction primitive: pool-backed
// Regions arranged in a parent/child tree. Destroying a region destroys
// every descendant atomically and returns its standard-size blocks to the
// pool, which is
// how the engine frees a changes-stack frame's whole subtree in one step
// instead of walking and releasing each tracked object individually.
package arena

const (
	// RegionDynamic allocates blocks from the Go heap.
	RegionDynamic = iota
)

const (
	BlockStartSize    = 64
	BlockStandardSize = 8000
)

// DefaultPool backs standard-sized region blocks with a sync.Pool.
var DefaultPool = NewBufferPool(BlockStandardSize)

// Region is a pool-backed node in a destruction tree, with an optional
// parent. A region with no parent is a root region; each changes-stack
// nesting level owns a child of the stack's root region (changes.newFrame).
type Region struct {
	parent     *Region
	children   []*Region
	blocks     []*regionBlock
	regionType int
	totalSize  int
	pool       *BufferPool
	destroyed  bool
}

type regionBlock struct {
	buf  []byte
	used int
}

// New creates a root region with a dynamic allocation strategy.
func New(sizeHint int) *Region {
	return NewWithPool(sizeHint, RegionDynamic, DefaultPool)
}

// NewChild creates a region whose lifetime is bounded by its parent: when
// the parent is destroyed, this region (and its own children) are destroyed
// first.
func NewChild(parent *Region, sizeHint int) *Region {
	child := NewWithPool(sizeHint, RegionDynamic, DefaultPool)
	child.parent = parent
	if parent != nil {
		parent.children = append(parent.children, child)
	}
	return child
}

// NewWithPool creates a root region with an explicit block pool.
func NewWithPool(size int, regionType int, pool *BufferPool) *Region {
	if size <= 0 {
		size = BlockStartSize
	}
	r := &Region{regionType: regionType, pool: pool}
	r.addBlock(size)
	return r
}

// NewChild allocates a child region bounded by r's lifetime.
func (r *Region) NewChild(sizeHint int) *Region {
	return NewChild(r, sizeHint)
}

// Destroy releases the region, recursively destroying every descendant
// first, and detaches it from its parent's child list. Safe to call more
// than once.
func (r *Region) Destroy() {
	if r == nil || r.destroyed {
		return
	}
	for _, child := range r.children {
		child.Destroy()
	}
	r.children = nil
	for _, block := range r.blocks {
		r.releaseBlock(block)
	}
	r.blocks = nil
	r.totalSize = 0
	r.destroyed = true
	if r.parent != nil {
		r.parent.removeChild(r)
		r.parent = nil
	}
}

// Destroyed reports whether Destroy has already run on this region.
func (r *Region) Destroyed() bool {
	return r == nil || r.destroyed
}

// BytesInUse reports the bytes reserved by this region's own blocks, not
// including children.
func (r *Region) BytesInUse() int {
	if r == nil {
		return 0
	}
	return r.totalSize
}

// ChildCount reports the number of live children, mainly for tests.
func (r *Region) ChildCount() int {
	if r == nil {
		return 0
	}
	return len(r.children)
}

func (r *Region) removeChild(child *Region) {
	for i, c := range r.children {
		if c == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return
		}
	}
}

func (r *Region) addBlock(size int) *regionBlock {
	block := &regionBlock{buf: r.allocBlock(size)}
	r.blocks = append(r.blocks, block)
	r.totalSize += len(block.buf)
	return block
}

func (r *Region) allocBlock(size int) []byte {
	if r.pool != nil && size == r.pool.Size() {
		return r.pool.Get()
	}
	return make([]byte, size)
}

func (r *Region) releaseBlock(block *regionBlock) {
	if block == nil {
		return
	}
	if r.pool != nil && cap(block.buf) == r.pool.Size() {
		r.pool.Put(block.buf)
	}
}
