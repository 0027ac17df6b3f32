package types

import "math"

// A rotation quaternion with vector part V and scalar part W.
type Quat struct {
	V Vec3
	W float64
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{
		V: Vec3{},
		W: 1.0,
	}
}

// Create a quaternion from a unit axis vector and an angle in radians.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	sin, cos := math.Sincos(angle * 0.5)
	return Quat{
		V: axis.Mul(sin),
		W: cos,
	}
}

// Create a quaternion from yaw (x axis), pitch (y axis) and roll (z axis)
// angles in radians. Yaw is applied first and roll last.
func QuatFromEuler(yaw, pitch, roll float64) Quat {
	yawQuat := QuatFromAxisAngle(Vec3{1, 0, 0}, yaw)
	pitchQuat := QuatFromAxisAngle(Vec3{0, 1, 0}, pitch)
	rollQuat := QuatFromAxisAngle(Vec3{0, 0, 1}, roll)
	return rollQuat.Mul(pitchQuat.Mul(yawQuat)).Normalize()
}

// Multiply two quaternions. The result applies q2 first and q1 second.
// Quaternion multiplication is not commutative.
func (q1 Quat) Mul(q2 Quat) Quat {
	return Quat{
		q1.V.Cross(q2.V).Add(q2.V.Mul(q1.W)).Add(q1.V.Mul(q2.W)),
		q1.W*q2.W - q1.V.Dot(q2.V),
	}
}

// Get the quaternion norm.
func (q1 Quat) Len() float64 {
	return math.Sqrt(q1.W*q1.W + q1.V.Dot(q1.V))
}

// Normalize the quaternion. A zero quaternion normalizes to the identity.
func (q1 Quat) Normalize() Quat {
	length := q1.Len()
	if math.Abs(1-length) < floatCmpEpsilon {
		return q1
	}
	if length == 0 {
		return QuatIdent()
	}
	if math.IsInf(length, 1) {
		length = math.MaxFloat64
	}

	return Quat{q1.V.Mul(1 / length), q1.W / length}
}

// Get the homogeneous rotation matrix for this quaternion. The quaternion
// must be normalized.
func (q1 Quat) Mat4() Mat4 {
	w, x, y, z := q1.W, q1.V[0], q1.V[1], q1.V[2]
	return Mat4{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*w*z, 2*x*z + 2*w*y, 0,
		2*x*y + 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z - 2*w*x, 0,
		2*x*z - 2*w*y, 2*y*z + 2*w*x, 1 - 2*x*x - 2*y*y, 0,
		0, 0, 0, 1,
	}
}
