package types

import (
	"math"

	"golang.org/x/image/math/f64"
)

const floatCmpEpsilon = 1e-12

// A 4x4 matrix stored in row-major order; m[4*r+c] is the element in row r
// and column c. Matrices transform column vectors: p' = M * p.
type Mat4 f64.Mat4

// Create a 4x4 identity matrix.
func Ident4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Create a 4x4 translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, v[0],
		0, 1, 0, v[1],
		0, 0, 1, v[2],
		0, 0, 0, 1,
	}
}

// Create a 4x4 scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4{
		v[0], 0, 0, 0,
		0, v[1], 0, 0,
		0, 0, v[2], 0,
		0, 0, 0, 1,
	}
}

// Create a 4x4 matrix for a counter-clockwise rotation of angle radians
// around axis.
func Rotate4(axis Vec3, angle float64) Mat4 {
	return QuatFromAxisAngle(axis.Normalize(), angle).Mat4()
}

// Multiply two 4x4 matrices. The resulting matrix applies m2 first and m second.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[4*r+c] = m[4*r+0]*m2[c] +
				m[4*r+1]*m2[4+c] +
				m[4*r+2]*m2[8+c] +
				m[4*r+3]*m2[12+c]
		}
	}
	return out
}

// Multiply a 4x4 matrix with a 4 component column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3]*v[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7]*v[3],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11]*v[3],
		m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15]*v[3],
	}
}

// Transform a point (w = 1). If the matrix has a projective row the result
// is divided by w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	out := m.Mul4x1(p.Vec4(1))
	if out[3] != 1 && math.Abs(out[3]) > floatCmpEpsilon {
		return out.Vec3().Mul(1.0 / out[3])
	}
	return out.Vec3()
}

// Transform a direction (w = 0); translation is ignored.
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// Transpose matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	}
}

// Calculate the matrix determinant.
func (m Mat4) Det() float64 {
	_, det := m.adjugate()
	return det
}

// Invert matrix. Returns the zero matrix if m is singular.
func (m Mat4) Inv() Mat4 {
	inv, det := m.adjugate()
	if math.Abs(det) < floatCmpEpsilon {
		return Mat4{}
	}

	det = 1.0 / det
	for i := range inv {
		inv[i] *= det
	}
	return inv
}

// The matrix used for transforming surface normals: the inverse transpose of m.
func (m Mat4) NormalMat() Mat4 {
	return m.Inv().Transpose()
}

// Returns true if all elements of m and m2 differ by at most epsilon.
func (m Mat4) ApproxEqual(m2 Mat4, epsilon float64) bool {
	for i := range m {
		if math.Abs(m[i]-m2[i]) > epsilon {
			return false
		}
	}
	return true
}

// Calculate the adjugate matrix (transposed cofactors) and the determinant.
func (m Mat4) adjugate() (Mat4, float64) {
	var inv Mat4

	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]

	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]

	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]

	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	return inv, det
}
