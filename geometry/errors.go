package geometry

import "errors"

var (
	ErrNegativeHalfLength = errors.New("geometry: box half-lengths must be >= 0")
	ErrNoPoints           = errors.New("geometry: cannot bound an empty point set")
)
