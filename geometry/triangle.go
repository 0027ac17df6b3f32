package geometry

import (
	"math"

	"github.com/achilleasa/meshtrace/types"
)

// RayTriangleIntersect tests a ray against the triangle with first vertex v0
// and edges edge1 = v1 - v0, edge2 = v2 - v0 (Möller–Trumbore).
//
// On a hit it returns the travel t along dir and the barycentric coordinates
// (u, v) of the hit point; the point equals (1-u-v)*v0 + u*v1 + v*v2. Both
// triangle windings are accepted. Rays parallel to the triangle plane and
// degenerate triangles (a zero faceNormal) fail the |det| < epsilon check
// and are reported as misses with t = +Inf.
func RayTriangleIntersect(origin, dir, v0, edge1, edge2, faceNormal types.Vec3, epsilon float64) (hit bool, t, u, v float64) {
	pvec := dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if math.Abs(det) < epsilon || faceNormal == (types.Vec3{}) {
		return false, math.Inf(1), 0, 0
	}

	// Fold the sign of det into u and v so a single set of range checks
	// works for both windings.
	sign := 1.0
	if det < 0 {
		sign = -1.0
	}
	absDet := det * sign

	tvec := origin.Sub(v0)
	u = tvec.Dot(pvec) * sign
	if u < 0 || u > absDet {
		return false, math.Inf(1), 0, 0
	}

	qvec := tvec.Cross(edge1)
	v = dir.Dot(qvec) * sign
	if v < 0 || u+v > absDet {
		return false, math.Inf(1), 0, 0
	}

	t = edge2.Dot(qvec) / det
	if math.IsNaN(t) {
		return false, math.Inf(1), 0, 0
	}

	return true, t, u / absDet, v / absDet
}
