package scene

import (
	"math"
	"sort"
	"time"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/log"
	"github.com/achilleasa/meshtrace/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// The BVH builder will not attempt to calculate split candidates if the
// node bbox along an axis is less than this threshold.
const minSideLength = 1e-9

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic = surfaceAreaHeuristic{}
)

// The BoundedVolume interface is implemented by all items that can be
// partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() [2]types.Vec3
	Center() types.Vec3
}

// A BVH node. Leaf nodes have no children and hold the items passed to the
// leaf callback.
type BvhNode struct {
	Bounds *geometry.Box

	// Child node indices; -1 for leaves.
	Left, Right int

	// Scene entries in this leaf.
	entries []*entry
}

// Returns true if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.Left < 0
}

// A callback that is called whenever the BVH builder creates a new leaf.
type LeafCallback func(leaf *BvhNode, itemList []BoundedVolume)

// A split scoring strategy.
type ScoreStrategy interface {
	// Calculate a score for splitting workList at splitPoint along a particular Axis.
	ScoreSplit(workList []BoundedVolume, splitAxis Axis, splitPoint float64) (leftCount, rightCount int, score float64)

	// Calculate a score for all items in workList.
	ScorePartition(workList []BoundedVolume) (score float64)
}

type splitScore struct {
	axis       Axis
	splitPoint float64

	leftCount, rightCount int
	score                 float64
}

// Order candidates with equal scores so builds are deterministic.
func (s splitScore) less(other splitScore) bool {
	if s.axis != other.axis {
		return s.axis < other.axis
	}
	return s.splitPoint < other.splitPoint
}

type bvhStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type bvhBuilder struct {
	logger log.Logger

	// Bvh nodes stored as a contiguous list
	nodes []BvhNode

	// A callback invoked to set up BVH leafs
	leafCb LeafCallback

	// The minimum number of items that are required for creating a leaf.
	minLeafItems int

	// A channel for receiving score results.
	scoreChan chan splitScore

	// The split scoring strategy to use.
	scoreStrategy ScoreStrategy

	stats bvhStats
}

// Construct a BVH from a set of bounded volumes. The root is always the
// first node in the returned list.
//
// The minLeafItems param specifies the minimum number of items that can
// form a leaf. The BVH builder will automatically generate leafs if the
// incoming work length is <= minLeafItems or if no split improves the score
// of the node.
func BuildBVH(workList []BoundedVolume, minLeafItems int, leafCb LeafCallback, scoreStrategy ScoreStrategy) []BvhNode {
	if len(workList) == 0 {
		return nil
	}

	b := &bvhBuilder{
		logger:        log.New("bvh"),
		nodes:         make([]BvhNode, 0, 2*len(workList)),
		leafCb:        leafCb,
		minLeafItems:  minLeafItems,
		scoreChan:     make(chan splitScore),
		scoreStrategy: scoreStrategy,
	}

	start := time.Now()
	b.partition(workList, 0)
	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return b.nodes
}

// Partition worklist and return node index.
func (b *bvhBuilder) partition(workList []BoundedVolume, depth int) int {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	min, max := bounds(workList)
	node := BvhNode{Left: -1, Right: -1}
	node.Bounds, _ = geometry.NewBoxFromPoints([]types.Vec3{min, max})

	// Do we have enough items for partitioning? If not create a leaf
	if len(workList) <= b.minLeafItems {
		return b.createLeaf(&node, workList)
	}

	bestScore := b.scoreStrategy.ScorePartition(workList)
	var bestSplit *splitScore

	// Split candidates are placed halfway between neighboring item centers
	// and scored in parallel
	pendingScores := 0
	side := max.Sub(min)
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		centers := make([]float64, len(workList))
		for index, item := range workList {
			centers[index] = item.Center()[axis]
		}
		sort.Float64s(centers)

		for index := 1; index < len(centers); index++ {
			if centers[index] == centers[index-1] {
				continue
			}
			pendingScores++
			go func(axis Axis, splitPoint float64) {
				lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
				b.scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,

					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, 0.5*(centers[index-1]+centers[index]))
		}
	}

	// Process all scores and pick the best split
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate.score < bestScore || (bestSplit != nil && candidate.score == bestScore && candidate.less(*bestSplit)) {
			bestScore = candidate.score
			bestSplit = &candidate
		}
	}

	// If we can't find a split that improves the current node score create a leaf
	if bestSplit == nil {
		return b.createLeaf(&node, workList)
	}

	// split work list into two sets
	leftWorkList := make([]BoundedVolume, 0, bestSplit.leftCount)
	rightWorkList := make([]BoundedVolume, 0, bestSplit.rightCount)
	for _, item := range workList {
		if item.Center()[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, item)
		} else {
			rightWorkList = append(rightWorkList, item)
		}
	}

	// Add node to list
	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, node)
	b.stats.nodes++

	// Partition children and update node indices
	leftNodeIndex := b.partition(leftWorkList, depth+1)
	rightNodeIndex := b.partition(rightWorkList, depth+1)
	b.nodes[nodeIndex].Left = leftNodeIndex
	b.nodes[nodeIndex].Right = rightNodeIndex

	return nodeIndex
}

// Setup the given node item as a leaf node containing all items in the work list.
// Returns the index to the node in the bvh node array.
func (b *bvhBuilder) createLeaf(node *BvhNode, workList []BoundedVolume) int {
	if b.leafCb != nil {
		b.leafCb(node, workList)
	}

	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, *node)

	b.stats.nodes++
	b.stats.leafs++

	return nodeIndex
}

func bounds(workList []BoundedVolume) (min, max types.Vec3) {
	min = types.XYZ(math.MaxFloat64, math.MaxFloat64, math.MaxFloat64)
	max = types.XYZ(-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64)
	for _, item := range workList {
		itemBBox := item.BBox()
		min = types.MinVec3(min, itemBBox[0])
		max = types.MaxVec3(max, itemBBox[1])
	}
	return min, max
}

func halfSurfaceArea(min, max types.Vec3) float64 {
	side := max.Sub(min)
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

// A score implementation that uses surface area heuristic for calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a BVH split based on the surface area heuristic. The SAH calculates
// the split score using the formula (lower score is better):
//
// left count * left BBOX area + rightCount * right BBOX area.
//
// SAH avoids splits that generate empty partitions by assigning the worst
// possible score (MaxFloat64) when it encounters such cases.
func (h surfaceAreaHeuristic) ScoreSplit(workList []BoundedVolume, axis Axis, splitPoint float64) (leftCount, rightCount int, score float64) {
	var left, right []BoundedVolume
	for _, item := range workList {
		if item.Center()[axis] < splitPoint {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}

	// Make sure that we don't generate empty partitions
	if len(left) == 0 || len(right) == 0 {
		return len(left), len(right), math.MaxFloat64
	}

	lmin, lmax := bounds(left)
	rmin, rmax := bounds(right)
	score = float64(len(left))*halfSurfaceArea(lmin, lmax) + float64(len(right))*halfSurfaceArea(rmin, rmax)

	return len(left), len(right), score
}

// Calculate score for a partitioned workList using formula:
// count * BBOX area
//
// If the workList is empty, then this method returns the worst possible
// score (MaxFloat64).
func (h surfaceAreaHeuristic) ScorePartition(workList []BoundedVolume) (score float64) {
	if len(workList) == 0 {
		return math.MaxFloat64
	}

	min, max := bounds(workList)
	return float64(len(workList)) * halfSurfaceArea(min, max)
}
