package octree

import "errors"

var (
	ErrInvalidLeafSize = errors.New("octree: max facets per leaf must be > 0")
	ErrInvalidDepth    = errors.New("octree: max depth must be >= 0")
	ErrNoVertices      = errors.New("octree: no vertices defined")
	ErrNoFacets        = errors.New("octree: no facets defined")
	ErrFacetOutOfRange = errors.New("octree: facet references an out of range vertex")
	ErrCoverage        = errors.New("octree: child boxes do not cover the facets of their parent")
)
