package types

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

type Vec2 f64.Vec2
type Vec3 f64.Vec3
type Vec4 f64.Vec4

// Define a 2 component vector.
func XY(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Define a 3 component vector.
func XYZ(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Define a 4 component vector.
func XYZW(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// Add a vector.
func (v Vec2) Add(v2 Vec2) Vec2 {
	return Vec2{v[0] + v2[0], v[1] + v2[1]}
}

// Subtract a vector.
func (v Vec2) Sub(v2 Vec2) Vec2 {
	return Vec2{v[0] - v2[0], v[1] - v2[1]}
}

// Multiply a 2 component vector with a scalar.
func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

// Expand a 3 component vector to a Vec4.
func (v Vec3) Vec4(w float64) Vec4 {
	return Vec4{v[0], v[1], v[2], w}
}

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Multiply two vectors component-wise.
func (v Vec3) MulVec(v2 Vec3) Vec3 {
	return Vec3{v[0] * v2[0], v[1] * v2[1], v[2] * v2[2]}
}

// Get 3 component vector length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize 3 component vector. A zero-length vector normalizes to the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < floatCmpEpsilon {
		return Vec3{}
	}
	l = 1.0 / l
	return Vec3{v[0] * l, v[1] * l, v[2] * l}
}

// Calculate dot product of 2 vectors
func (v Vec3) Dot(v2 Vec3) float64 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{v[1]*v2[2] - v[2]*v2[1], v[2]*v2[0] - v[0]*v2[2], v[0]*v2[1] - v[1]*v2[0]}
}

// Negate all vector components.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// Get a vector with the absolute value of each component.
func (v Vec3) Abs() Vec3 {
	return Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

// Get the max component.
func (v Vec3) MaxComponent() float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}

// Returns true if all components of v and v2 differ by at most epsilon.
func (v Vec3) ApproxEqual(v2 Vec3, epsilon float64) bool {
	return math.Abs(v[0]-v2[0]) <= epsilon &&
		math.Abs(v[1]-v2[1]) <= epsilon &&
		math.Abs(v[2]-v2[2]) <= epsilon
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

// Reduce a 4 component vector to a Vec3.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] < out[0] {
		out[0] = v2[0]
	}
	if v2[1] < out[1] {
		out[1] = v2[1]
	}
	if v2[2] < out[2] {
		out[2] = v2[2]
	}
	return out
}

// Calc max component from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] > out[0] {
		out[0] = v2[0]
	}
	if v2[1] > out[1] {
		out[1] = v2[1]
	}
	if v2[2] > out[2] {
		out[2] = v2[2]
	}
	return out
}

// Interpolate three vectors using barycentric weights: (1-u-v)*v0 + u*v1 + v*v2.
func BarycentricVec3(v0, v1, v2 Vec3, u, v float64) Vec3 {
	w := 1.0 - u - v
	return Vec3{
		w*v0[0] + u*v1[0] + v*v2[0],
		w*v0[1] + u*v1[1] + v*v2[1],
		w*v0[2] + u*v1[2] + v*v2[2],
	}
}

// Interpolate three 2 component vectors using barycentric weights.
func BarycentricVec2(v0, v1, v2 Vec2, u, v float64) Vec2 {
	w := 1.0 - u - v
	return Vec2{
		w*v0[0] + u*v1[0] + v*v2[0],
		w*v0[1] + u*v1[1] + v*v2[1],
	}
}
