package octree

import (
	"fmt"
	"time"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/log"
	"github.com/achilleasa/meshtrace/types"
)

// A leaf box hit by a ray together with the travel interval the ray spends
// inside it.
type LeafHit struct {
	Box  *geometry.Box
	Near float64
	Far  float64
}

// Index is an octree of box nodes built over the facets of a triangle mesh.
// An index is immutable once built; geometry changes require a new index.
type Index struct {
	// All boxes in breadth-first order; the root comes first.
	nodes []*geometry.Box

	// Leaf boxes in breadth-first order.
	leaves []*geometry.Box

	// Leaf boxes that hold at least one facet. Empty leaves can never
	// produce a hit so queries skip them.
	occupied []*geometry.Box

	facetCount int
	stats      Stats
}

// Build an octree over the given vertices and triangle facets.
//
// The root box bounds all vertices and holds every facet. Boxes holding
// more than maxFacetsPerLeaf facets are subdivided until maxDepth is
// reached; each child keeps the parent facets that geometrically overlap it.
func Build(vertices []types.Vec3, facets [][3]int, maxFacetsPerLeaf, maxDepth int) (*Index, error) {
	switch {
	case maxFacetsPerLeaf <= 0:
		return nil, fmt.Errorf("%w; got %d", ErrInvalidLeafSize, maxFacetsPerLeaf)
	case maxDepth < 0:
		return nil, fmt.Errorf("%w; got %d", ErrInvalidDepth, maxDepth)
	case len(vertices) == 0:
		return nil, ErrNoVertices
	case len(facets) == 0:
		return nil, ErrNoFacets
	}

	if err := ValidateFacets(facets, len(vertices)); err != nil {
		return nil, err
	}

	logger := log.New("octree")
	start := time.Now()

	root, err := geometry.NewBoxFromPoints(vertices)
	if err != nil {
		return nil, err
	}
	root.Facets = make([]int, len(facets))
	for index := range facets {
		root.Facets[index] = index
	}

	// Breadth-first work queue; children are appended behind the box
	// currently being processed.
	nodes := []*geometry.Box{root}
	for next := 0; next < len(nodes); next++ {
		box := nodes[next]
		if len(box.Facets) <= maxFacetsPerLeaf || box.Depth() >= maxDepth {
			continue
		}

		for _, child := range box.Subdivide() {
			for _, facetIndex := range box.Facets {
				f := facets[facetIndex]
				if child.TriangleOverlap(vertices[f[0]], vertices[f[1]], vertices[f[2]]) {
					child.Facets = append(child.Facets, facetIndex)
				}
			}
			nodes = append(nodes, child)
		}
	}

	idx := &Index{
		nodes:      nodes,
		facetCount: len(facets),
	}
	for _, box := range nodes {
		if !box.IsLeaf() {
			continue
		}
		idx.leaves = append(idx.leaves, box)
		if len(box.Facets) != 0 {
			idx.occupied = append(idx.occupied, box)
		}
	}

	idx.stats = idx.collectStats(time.Since(start))
	logger.Debugf(
		"octree build time: %d ms, facets: %d, nodes: %d, leafs: %d (%d occupied), maxDepth: %d",
		idx.stats.BuildTime.Nanoseconds()/1e6,
		idx.facetCount, idx.stats.Nodes, idx.stats.Leaves, idx.stats.OccupiedLeaves, idx.stats.MaxDepth,
	)

	return idx, nil
}

// Verify that every facet references vertices in [0, vertexCount).
func ValidateFacets(facets [][3]int, vertexCount int) error {
	for facetIndex, f := range facets {
		for _, vertexIndex := range f {
			if vertexIndex < 0 || vertexIndex >= vertexCount {
				return fmt.Errorf("%w: facet %d references vertex %d; vertex count is %d", ErrFacetOutOfRange, facetIndex, vertexIndex, vertexCount)
			}
		}
	}
	return nil
}

// Get the root box.
func (idx *Index) Root() *geometry.Box {
	return idx.nodes[0]
}

// Get all boxes in breadth-first order.
func (idx *Index) Nodes() []*geometry.Box {
	return idx.nodes
}

// Get all leaf boxes, including the ones that hold no facets.
func (idx *Index) Leaves() []*geometry.Box {
	return idx.leaves
}

// Get the number of facets indexed by the tree.
func (idx *Index) FacetCount() int {
	return idx.facetCount
}

// Find the leaf boxes hit by a ray. The result is not ordered.
func (idx *Index) QueryRay(origin, dir types.Vec3) []LeafHit {
	out := make([]LeafHit, 0, 8)
	for _, box := range idx.occupied {
		if hit, near, far := box.RayIntersect(origin, dir); hit {
			out = append(out, LeafHit{Box: box, Near: near, Far: far})
		}
	}
	return out
}

// Check that every child box lies inside its parent and that the facets of
// every non-leaf box are covered by the union of its children's facets.
func (idx *Index) Validate() error {
	for _, box := range idx.nodes {
		if box.IsLeaf() {
			continue
		}

		covered := make(map[int]struct{}, len(box.Facets))
		for _, child := range box.Children {
			if !box.ContainsPoint(child.Center) {
				return fmt.Errorf("%w: box %v lies outside its parent", ErrCoverage, child.Path)
			}
			for _, facetIndex := range child.Facets {
				covered[facetIndex] = struct{}{}
			}
		}

		for _, facetIndex := range box.Facets {
			if _, ok := covered[facetIndex]; !ok {
				return fmt.Errorf("%w: facet %d is missing from the children of box %v", ErrCoverage, facetIndex, box.Path)
			}
		}
	}
	return nil
}
