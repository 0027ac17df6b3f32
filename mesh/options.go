package mesh

import "fmt"

// Options controls how a mesh partitions its facets and how ray queries
// treat the hits they find.
type Options struct {
	// Octree budget. Boxes holding more than MaxFacetsPerLeaf facets are
	// subdivided until MaxDepth is reached.
	MaxFacetsPerLeaf int
	MaxDepth         int

	// The determinant threshold below which a ray is considered parallel
	// to a facet.
	Epsilon float64

	// Accept hits on the back side of facets.
	BackFaceIntersectionAllowed bool

	// Interpolate texture coordinates for hits.
	UVComputationEnabled bool

	// Consult the alpha test passed to Intersect. Implies UV computation.
	AlphaTestEnabled bool
}

// Get the default mesh options.
func DefaultOptions() Options {
	return Options{
		MaxFacetsPerLeaf:            20,
		MaxDepth:                    4,
		Epsilon:                     1e-9,
		BackFaceIntersectionAllowed: true,
	}
}

// Validate option values.
func (o Options) Validate() error {
	if o.MaxFacetsPerLeaf <= 0 {
		return fmt.Errorf("%w: max facets per leaf must be > 0; got %d", ErrInvalidOptions, o.MaxFacetsPerLeaf)
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must be >= 0; got %d", ErrInvalidOptions, o.MaxDepth)
	}
	if !(o.Epsilon >= 0) {
		return fmt.Errorf("%w: epsilon must be >= 0; got %v", ErrInvalidOptions, o.Epsilon)
	}
	return nil
}
