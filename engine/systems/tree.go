package systems

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
	"github.com/spaghettifunk/meshpart/engine/splitter"
)

// Node is a node of a bounding volume hierarchy. Leaves have Left == Right == -1.
type Node struct {
	Bounds math.AABox     `json:"bounds"`
	Range  splitter.Range `json:"range"`
	Left   int32          `json:"left"`
	Right  int32          `json:"right"`
}

func (n Node) IsLeaf() bool {
	return n.Left < 0
}

// Tree is a flattened hierarchy. Nodes[0] is the root and children always
// come after their parent. Leaves lists the leaf ranges in depth-first order,
// left to right, which is also the order of the sorted triangle indices.
type Tree struct {
	Nodes  []Node           `json:"nodes"`
	Leaves []splitter.Range `json:"leaves"`
	Stats  splitter.Stats   `json:"stats"`
}

// Depth returns the number of levels of the tree.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var depth func(i int32) int
	depth = func(i int32) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 1
		}
		return 1 + max(depth(n.Left), depth(n.Right))
	}
	return depth(0)
}

// DefaultParallelChunk is the range size below which BuildParallel hands a
// whole subtree to a single job.
const DefaultParallelChunk = 4096

// TreeBuilder drives a splitter until every range holds at most MaxLeafSize triangles.
type TreeBuilder struct {
	splitter    splitter.Splitter
	maxLeafSize uint32
	chunk       uint32
}

func NewTreeBuilder(s splitter.Splitter, maxLeafSize int) (*TreeBuilder, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil splitter", core.ErrInvalidArgument)
	}
	if maxLeafSize < 1 {
		return nil, fmt.Errorf("%w: max leaf size must be at least 1, got %d", core.ErrInvalidArgument, maxLeafSize)
	}
	return &TreeBuilder{
		splitter:    s,
		maxLeafSize: uint32(maxLeafSize),
		chunk:       DefaultParallelChunk,
	}, nil
}

// SetParallelChunk changes the subtree size handed to a single job by BuildParallel.
func (tb *TreeBuilder) SetParallelChunk(chunk int) {
	if chunk > 0 {
		tb.chunk = uint32(chunk)
	}
}

// subtree is a tree fragment whose child indices are relative to its own slice.
type subtree struct {
	nodes  []Node
	leaves []splitter.Range
}

type buildResult struct {
	tree *subtree
	err  error
}

type future func() (*subtree, error)

// Build builds the tree on the calling goroutine.
func (tb *TreeBuilder) Build(ctx context.Context) (*Tree, error) {
	clock := core.NewClock()
	clock.Start()

	st, err := tb.build(ctx, tb.splitter.InitialRange())
	if err != nil {
		return nil, err
	}

	clock.Stop()
	core.MetricsRecordBuild("tree", clock.Elapsed())
	return tb.finish(st), nil
}

// BuildParallel builds the tree using js. The upper levels are split on the
// calling goroutine, every range of at most the parallel chunk size becomes
// one job. Jobs work on disjoint ranges of the splitter's index list.
func (tb *TreeBuilder) BuildParallel(ctx context.Context, js *JobSystem) (*Tree, error) {
	if js == nil {
		return tb.Build(ctx)
	}
	clock := core.NewClock()
	clock.Start()

	st, err := tb.buildAsync(ctx, tb.splitter.InitialRange(), js)()
	if err != nil {
		return nil, err
	}

	clock.Stop()
	core.MetricsRecordBuild("tree", clock.Elapsed())
	return tb.finish(st), nil
}

func (tb *TreeBuilder) finish(st *subtree) *Tree {
	for _, leaf := range st.leaves {
		core.MetricsRecordLeaf(leaf.Count())
	}
	stats := tb.splitter.Stats()
	core.LogDebug("tree: %d nodes, %d leaves, %d splits (%d fallback)",
		len(st.nodes), len(st.leaves), stats.NumSplits, stats.NumFallbackSplits)
	return &Tree{Nodes: st.nodes, Leaves: st.leaves, Stats: stats}
}

func (tb *TreeBuilder) bounds(r splitter.Range) math.AABox {
	b := math.NewEmptyAABox()
	vertices := tb.splitter.Vertices()
	for i := r.Begin; i < r.End; i++ {
		b.EncapsulateTriangle(vertices, tb.splitter.Triangle(i))
	}
	return b
}

// splitNode returns the node for r and, unless r is a leaf, its two children.
func (tb *TreeBuilder) splitNode(ctx context.Context, r splitter.Range) (Node, splitter.Range, splitter.Range, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, splitter.Range{}, splitter.Range{}, err
	}
	node := Node{Bounds: tb.bounds(r), Range: r, Left: -1, Right: -1}
	if r.Count() <= tb.maxLeafSize {
		return node, splitter.Range{}, splitter.Range{}, nil
	}
	left, right, err := tb.splitter.Split(r)
	if err != nil {
		return Node{}, splitter.Range{}, splitter.Range{}, fmt.Errorf("tree: splitting %s: %w", r, err)
	}
	return node, left, right, nil
}

func (tb *TreeBuilder) build(ctx context.Context, r splitter.Range) (*subtree, error) {
	node, left, right, err := tb.splitNode(ctx, r)
	if err != nil {
		return nil, err
	}
	if left.IsEmpty() {
		return &subtree{nodes: []Node{node}, leaves: []splitter.Range{r}}, nil
	}

	lt, err := tb.build(ctx, left)
	if err != nil {
		return nil, err
	}
	rt, err := tb.build(ctx, right)
	if err != nil {
		return nil, err
	}
	return join(node, lt, rt), nil
}

func (tb *TreeBuilder) buildAsync(ctx context.Context, r splitter.Range, js *JobSystem) future {
	if r.Count() <= tb.chunk {
		return tb.submit(ctx, r, js)
	}

	node, left, right, err := tb.splitNode(ctx, r)
	if err != nil {
		return func() (*subtree, error) { return nil, err }
	}
	if left.IsEmpty() {
		leaf := &subtree{nodes: []Node{node}, leaves: []splitter.Range{r}}
		return func() (*subtree, error) { return leaf, nil }
	}

	lf := tb.buildAsync(ctx, left, js)
	rf := tb.buildAsync(ctx, right, js)
	return func() (*subtree, error) {
		lt, lerr := lf()
		rt, rerr := rf()
		if lerr != nil {
			return nil, lerr
		}
		if rerr != nil {
			return nil, rerr
		}
		return join(node, lt, rt), nil
	}
}

func (tb *TreeBuilder) submit(ctx context.Context, r splitter.Range, js *JobSystem) future {
	done := make(chan buildResult, 1)
	forward := func(results <-chan interface{}) {
		done <- (<-results).(buildResult)
	}
	err := js.Submit(metadata.JobTask{
		InputParams: r,
		OnStart: func(params interface{}, results chan<- interface{}) error {
			st, err := tb.build(ctx, params.(splitter.Range))
			results <- buildResult{tree: st, err: err}
			return err
		},
		OnComplete: forward,
		OnFailure:  forward,
	})
	if err != nil {
		return func() (*subtree, error) { return nil, err }
	}
	return func() (*subtree, error) {
		res := <-done
		return res.tree, res.err
	}
}

// join puts node on top of two subtrees, shifting their child indices.
func join(node Node, left, right *subtree) *subtree {
	out := &subtree{
		nodes:  make([]Node, 0, 1+len(left.nodes)+len(right.nodes)),
		leaves: make([]splitter.Range, 0, len(left.leaves)+len(right.leaves)),
	}
	node.Left = 1
	node.Right = int32(1 + len(left.nodes))
	out.nodes = append(out.nodes, node)
	out.nodes = appendShifted(out.nodes, left.nodes, node.Left)
	out.nodes = appendShifted(out.nodes, right.nodes, node.Right)
	out.leaves = append(out.leaves, left.leaves...)
	out.leaves = append(out.leaves, right.leaves...)
	return out
}

func appendShifted(dst, nodes []Node, offset int32) []Node {
	for _, n := range nodes {
		if !n.IsLeaf() {
			n.Left += offset
			n.Right += offset
		}
		dst = append(dst, n)
	}
	return dst
}
