package bench

import "errors"

var (
	ErrInvalidOptions = errors.New("bench: invalid options")
	ErrNotBuilt       = errors.New("bench: mesh has not been built")
)
