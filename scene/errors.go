package scene

import "errors"

var (
	ErrNilMesh       = errors.New("scene: mesh is nil")
	ErrDuplicateName = errors.New("scene: a mesh with the same name already exists")
	ErrDuplicateMesh = errors.New("scene: mesh already added")
	ErrUnknownMesh   = errors.New("scene: unknown mesh")
	ErrNotBuilt      = errors.New("scene: mesh has not been built")
)
