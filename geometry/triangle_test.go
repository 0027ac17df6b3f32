package geometry

import (
	"math"
	"testing"

	"github.com/achilleasa/meshtrace/types"
)

const testEpsilon = 1e-9

type testTriangle struct {
	v0, edge1, edge2, normal types.Vec3
}

func makeTestTriangle(v0, v1, v2 types.Vec3) testTriangle {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	return testTriangle{v0, e1, e2, e1.Cross(e2).Normalize()}
}

func TestRayTriangleIntersect(t *testing.T) {
	ccw := makeTestTriangle(types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0})
	cw := makeTestTriangle(types.Vec3{0, 0, 0}, types.Vec3{0, 1, 0}, types.Vec3{1, 0, 0})

	type spec struct {
		descr       string
		tri         testTriangle
		origin, dir types.Vec3
		expHit      bool
		expT        float64
		expU, expV  float64
	}

	inf := math.Inf(1)
	specs := []spec{
		{"front hit", ccw, types.Vec3{0.25, 0.25, 1}, types.Vec3{0, 0, -1}, true, 1, 0.25, 0.25},
		{"back hit", ccw, types.Vec3{0.25, 0.25, -1}, types.Vec3{0, 0, 1}, true, 1, 0.25, 0.25},
		{"opposite winding", cw, types.Vec3{0.25, 0.5, 1}, types.Vec3{0, 0, -1}, true, 1, 0.5, 0.25},
		{"scaled direction", ccw, types.Vec3{0.5, 0.25, 4}, types.Vec3{0, 0, -2}, true, 2, 0.5, 0.25},
		{"hit behind origin", ccw, types.Vec3{0.25, 0.25, -1}, types.Vec3{0, 0, -1}, true, -1, 0.25, 0.25},
		{"vertex hit", ccw, types.Vec3{1, 0, 1}, types.Vec3{0, 0, -1}, true, 1, 1, 0},
		{"outside u", ccw, types.Vec3{-0.1, 0.5, 1}, types.Vec3{0, 0, -1}, false, inf, 0, 0},
		{"outside u+v", ccw, types.Vec3{0.6, 0.6, 1}, types.Vec3{0, 0, -1}, false, inf, 0, 0},
		{"parallel", ccw, types.Vec3{0.25, 0.25, 1}, types.Vec3{1, 0, 0}, false, inf, 0, 0},
		{"zero direction", ccw, types.Vec3{0.25, 0.25, 1}, types.Vec3{}, false, inf, 0, 0},
	}

	for _, s := range specs {
		hit, tt, u, v := RayTriangleIntersect(s.origin, s.dir, s.tri.v0, s.tri.edge1, s.tri.edge2, s.tri.normal, testEpsilon)
		if hit != s.expHit {
			t.Fatalf("[%s] expected hit to be %t; got %t", s.descr, s.expHit, hit)
		}
		if math.IsNaN(tt) || math.IsNaN(u) || math.IsNaN(v) {
			t.Fatalf("[%s] expected no NaN values; got t=%v u=%v v=%v", s.descr, tt, u, v)
		}
		if !hit {
			if !math.IsInf(tt, 1) {
				t.Fatalf("[%s] expected miss to report +Inf travel; got %v", s.descr, tt)
			}
			continue
		}
		if math.Abs(tt-s.expT) > testEpsilon || math.Abs(u-s.expU) > testEpsilon || math.Abs(v-s.expV) > testEpsilon {
			t.Fatalf("[%s] expected (t, u, v) = (%v, %v, %v); got (%v, %v, %v)", s.descr, s.expT, s.expU, s.expV, tt, u, v)
		}
	}
}

func TestDegenerateTriangle(t *testing.T) {
	tri := makeTestTriangle(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 0}, types.Vec3{2, 2, 0})
	if tri.normal != (types.Vec3{}) {
		t.Fatalf("expected collinear triangle to have a zero normal; got %v", tri.normal)
	}

	hit, tt, _, _ := RayTriangleIntersect(types.Vec3{1, 1, 1}, types.Vec3{0, 0, -1}, tri.v0, tri.edge1, tri.edge2, tri.normal, testEpsilon)
	if hit || !math.IsInf(tt, 1) {
		t.Fatalf("expected degenerate triangle to be missed; got hit=%t t=%v", hit, tt)
	}
}

func TestRayTriangleBarycentricRange(t *testing.T) {
	tri := makeTestTriangle(types.Vec3{-1, -1, 2}, types.Vec3{3, -0.5, 2.5}, types.Vec3{0.5, 2, 1.5})

	hits := 0
	for x := -2.0; x <= 4.0; x += 0.05 {
		for y := -2.0; y <= 3.0; y += 0.05 {
			origin := types.Vec3{x, y, -5}
			hit, tt, u, v := RayTriangleIntersect(origin, types.Vec3{0, 0, 1}, tri.v0, tri.edge1, tri.edge2, tri.normal, testEpsilon)
			if !hit {
				continue
			}
			hits++

			if u < -testEpsilon || v < -testEpsilon || u+v > 1+testEpsilon {
				t.Fatalf("expected barycentric coords inside the triangle; got u=%v v=%v", u, v)
			}

			// The barycentric point must match the point along the ray
			p := types.BarycentricVec3(tri.v0, tri.v0.Add(tri.edge1), tri.v0.Add(tri.edge2), u, v)
			q := origin.Add(types.Vec3{0, 0, tt})
			if !p.ApproxEqual(q, 1e-6) {
				t.Fatalf("expected barycentric point %v to match ray point %v", p, q)
			}
		}
	}

	if hits == 0 {
		t.Fatal("expected the ray grid to hit the triangle")
	}
}
