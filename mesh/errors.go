package mesh

import "errors"

var (
	ErrInvalidOptions    = errors.New("mesh: invalid options")
	ErrNoVertices        = errors.New("mesh: no vertices defined")
	ErrNoFacets          = errors.New("mesh: no facets defined")
	ErrSingularTransform = errors.New("mesh: world transform is not invertible")
)
