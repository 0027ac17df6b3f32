package geometry

import (
	"fmt"

	"github.com/achilleasa/meshtrace/types"
)

// A ray with an origin and a direction. The direction does not need to be
// normalized; travel values are expressed in multiples of its length.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// Create a new ray.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// Get the point at travel t along the ray.
func (r Ray) At(t float64) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

func (r Ray) String() string {
	return fmt.Sprintf("ray(origin: %v, dir: %v)", r.Origin, r.Dir)
}
