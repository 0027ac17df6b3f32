package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/meshtrace/types"
)

func unitBox(t *testing.T) *Box {
	b, err := NewBox(types.Vec3{}, types.Vec3{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNewBox(t *testing.T) {
	_, err := NewBox(types.Vec3{}, types.Vec3{1, -0.1, 1})
	if !errors.Is(err, ErrNegativeHalfLength) {
		t.Fatalf("expected to get ErrNegativeHalfLength; got %v", err)
	}

	b, err := NewBox(types.Vec3{1, 2, 3}, types.Vec3{0, 0, 0})
	if err != nil {
		t.Fatalf("expected a zero-sized box to be valid; got %v", err)
	}
	if !b.ContainsPoint(types.Vec3{1, 2, 3}) {
		t.Fatal("expected zero-sized box to contain its center")
	}
}

func TestNewBoxFromPoints(t *testing.T) {
	_, err := NewBoxFromPoints(nil)
	if !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected to get ErrNoPoints; got %v", err)
	}

	b, err := NewBoxFromPoints([]types.Vec3{
		{-1, 0, 2},
		{3, -4, 2},
		{1, 2, 6},
	})
	if err != nil {
		t.Fatal(err)
	}

	expMin, expMax := types.Vec3{-1, -4, 2}, types.Vec3{3, 2, 6}
	if b.Min() != expMin || b.Max() != expMax {
		t.Fatalf("expected box extents [%v, %v]; got [%v, %v]", expMin, expMax, b.Min(), b.Max())
	}
}

func TestSubdivide(t *testing.T) {
	root := unitBox(t)
	children := root.Subdivide()

	if len(children) != ChildCount {
		t.Fatalf("expected %d children; got %d", ChildCount, len(children))
	}

	min := types.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	max := min.Neg()
	for index, child := range children {
		if child.Parent != root {
			t.Fatalf("[child %d] expected parent link to point to root", index)
		}
		if child.Depth() != 1 || child.Path[0] != uint8(index) {
			t.Fatalf("[child %d] expected path [%d]; got %v", index, index, child.Path)
		}
		if child.HalfLength != (types.Vec3{0.5, 0.5, 0.5}) {
			t.Fatalf("[child %d] expected half-length 0.5; got %v", index, child.HalfLength)
		}
		for axis := 0; axis < Dimensions; axis++ {
			expOffset := -0.5
			if index&(1<<uint(axis)) != 0 {
				expOffset = 0.5
			}
			if child.Center[axis] != expOffset {
				t.Fatalf("[child %d] expected center offset %v along axis %d; got %v", index, expOffset, axis, child.Center[axis])
			}
		}

		min = types.MinVec3(min, child.Min())
		max = types.MaxVec3(max, child.Max())
	}

	if min != root.Min() || max != root.Max() {
		t.Fatalf("expected children to cover [%v, %v]; got [%v, %v]", root.Min(), root.Max(), min, max)
	}

	grandChildren := children[5].Subdivide()
	if grandChildren[3].Depth() != 2 || grandChildren[3].Path[0] != 5 || grandChildren[3].Path[1] != 3 {
		t.Fatalf("expected grand child path [5 3]; got %v", grandChildren[3].Path)
	}

	// Extending a child path must not alias a sibling path
	if children[5].Path[0] != 5 || len(children[5].Path) != 1 {
		t.Fatalf("expected child path to remain [5]; got %v", children[5].Path)
	}
}

func TestBoxRayIntersect(t *testing.T) {
	type spec struct {
		origin, dir types.Vec3
		expHit      bool
		expNear     float64
		expFar      float64
	}

	inf := math.Inf(1)
	negZero := math.Copysign(0, -1)
	specs := []spec{
		// Straight through along +z / -z
		{types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, true, 4, 6},
		{types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1}, true, 4, 6},
		// Origin inside the box
		{types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, true, -1, 1},
		// Diagonal
		{types.Vec3{-2, -2, -2}, types.Vec3{1, 1, 1}, true, 1, 3},
		// Parallel to an axis but outside the slab
		{types.Vec3{-5, 2, 0}, types.Vec3{1, 0, 0}, false, inf, inf},
		// Parallel and grazing a face plane
		{types.Vec3{-5, 1, 0}, types.Vec3{1, 0, 0}, true, 4, 6},
		// Pointing away; the box lies behind the origin
		{types.Vec3{0, 0, 5}, types.Vec3{0, 0, 1}, true, -6, -4},
		// Missing the corner
		{types.Vec3{-3, 0, 0}, types.Vec3{1, 2, 0}, false, inf, inf},
		// Negative zero components with the origin on a face plane
		{types.Vec3{-5, 1, 0}, types.Vec3{1, negZero, negZero}, true, 4, 6},
		{types.Vec3{1, -1, -5}, types.Vec3{negZero, negZero, 1}, true, 4, 6},
		{types.Vec3{0, 0, -5}, types.Vec3{negZero, 0, 1}, true, 4, 6},
		// Negative zero component outside the slab
		{types.Vec3{-5, 2, 0}, types.Vec3{1, negZero, 0}, false, inf, inf},
	}

	b := unitBox(t)
	for index, s := range specs {
		hit, near, far := b.RayIntersect(s.origin, s.dir)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if near != s.expNear || far != s.expFar {
			t.Fatalf("[spec %d] expected interval [%v, %v]; got [%v, %v]", index, s.expNear, s.expFar, near, far)
		}
	}
}

func TestFlatBoxRayIntersect(t *testing.T) {
	b, err := NewBox(types.Vec3{}, types.Vec3{1, 1, 0})
	if err != nil {
		t.Fatal(err)
	}

	hit, near, far := b.RayIntersect(types.Vec3{0.5, 0.5, -3}, types.Vec3{0, 0, 1})
	if !hit || near != 3 || far != 3 {
		t.Fatalf("expected flat box hit at [3, 3]; got %t [%v, %v]", hit, near, far)
	}

	// A ray travelling inside the plane of the flat box
	hit, near, far = b.RayIntersect(types.Vec3{-3, 0, 0}, types.Vec3{1, 0, 0})
	if !hit || near != 2 || far != 4 {
		t.Fatalf("expected in-plane hit at [2, 4]; got %t [%v, %v]", hit, near, far)
	}
	if math.IsNaN(near) || math.IsNaN(far) {
		t.Fatal("expected slab test not to produce NaN values")
	}
}

func TestTriangleOverlap(t *testing.T) {
	type spec struct {
		descr string
		tri   [3]types.Vec3
		exp   bool
	}

	specs := []spec{
		{"fully inside", [3]types.Vec3{{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0, 0.5, 0.2}}, true},
		{"encloses the box cross-section", [3]types.Vec3{{-10, -10, 0}, {10, -10, 0}, {0, 10, 0}}, true},
		{"flush with the top face", [3]types.Vec3{{-2, -2, 1}, {2, -2, 1}, {0, 2, 1}}, true},
		{"just above the top face", [3]types.Vec3{{-2, -2, 1 + 1e-9}, {2, -2, 1 + 1e-9}, {0, 2, 1 + 1e-9}}, false},
		{"straddles a face", [3]types.Vec3{{0.5, 0, 0}, {3, 0.5, 0}, {3, -0.5, 0}}, true},
		{"far away", [3]types.Vec3{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}}, false},
		{"touches a corner with a vertex", [3]types.Vec3{{1, 1, 1}, {3, 1, 1}, {1, 3, 2}}, true},
		{"separated by the triangle plane", [3]types.Vec3{{3.5, 0, 0}, {0, 3.5, 0}, {0, 0, 3.5}}, false},
		{"separated by an edge axis", [3]types.Vec3{{1.2, 0.9, 0}, {0.9, 1.2, 0}, {1.5, 1.5, 0}}, false},
		{"degenerate segment crossing the box", [3]types.Vec3{{-3, 0, 0}, {3, 0, 0}, {0, 0, 0}}, true},
	}

	b := unitBox(t)
	for _, s := range specs {
		if got := b.TriangleOverlap(s.tri[0], s.tri[1], s.tri[2]); got != s.exp {
			t.Fatalf("[%s] expected overlap to be %t; got %t", s.descr, s.exp, got)
		}
	}
}

// Reference SAT check projecting all 8 box corners on every candidate axis.
func bruteForceOverlap(b *Box, tri [3]types.Vec3) bool {
	var corners [ChildCount]types.Vec3
	for index := range corners {
		c := b.Center
		for axis := 0; axis < Dimensions; axis++ {
			if index&(1<<uint(axis)) != 0 {
				c[axis] += b.HalfLength[axis]
			} else {
				c[axis] -= b.HalfLength[axis]
			}
		}
		corners[index] = c
	}

	edges := [3]types.Vec3{tri[1].Sub(tri[0]), tri[2].Sub(tri[1]), tri[0].Sub(tri[2])}
	boxAxes := [3]types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	axes := []types.Vec3{edges[0].Cross(edges[1])}
	axes = append(axes, boxAxes[:]...)
	for _, ba := range boxAxes {
		for _, e := range edges {
			axes = append(axes, ba.Cross(e))
		}
	}

	for _, axis := range axes {
		if axis.Len() < minAxisLength {
			continue
		}

		boxMin, boxMax := math.Inf(1), math.Inf(-1)
		for _, c := range corners {
			d := c.Sub(b.Center).Dot(axis)
			boxMin, boxMax = math.Min(boxMin, d), math.Max(boxMax, d)
		}
		triMin, triMax := math.Inf(1), math.Inf(-1)
		for _, p := range tri {
			d := p.Sub(b.Center).Dot(axis)
			triMin, triMax = math.Min(triMin, d), math.Max(triMax, d)
		}

		if triMin > boxMax || triMax < boxMin {
			return false
		}
	}
	return true
}

func TestTriangleOverlapMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randVec := func(scale float64) types.Vec3 {
		return types.Vec3{
			(rng.Float64()*2 - 1) * scale,
			(rng.Float64()*2 - 1) * scale,
			(rng.Float64()*2 - 1) * scale,
		}
	}

	overlaps := 0
	for i := 0; i < 20000; i++ {
		b, err := NewBox(randVec(1), randVec(1).Abs())
		if err != nil {
			t.Fatal(err)
		}
		tri := [3]types.Vec3{randVec(3), randVec(3), randVec(3)}

		exp := bruteForceOverlap(b, tri)
		if got := b.TriangleOverlap(tri[0], tri[1], tri[2]); got != exp {
			t.Fatalf("[iteration %d] expected overlap of %v with %v to be %t; got %t", i, b, tri, exp, got)
		}
		if exp {
			overlaps++
		}
	}

	// Make sure both outcomes were exercised
	if overlaps == 0 || overlaps == 20000 {
		t.Fatalf("expected a mix of overlapping and separated cases; got %d overlaps", overlaps)
	}
}

func TestBoxClone(t *testing.T) {
	root := unitBox(t)
	root.Facets = []int{0, 1, 2}
	for _, child := range root.Subdivide() {
		child.Facets = []int{1}
	}

	shallow := root.Clone(false)
	if len(shallow.Children) != 0 {
		t.Fatalf("expected shallow clone to have no children; got %d", len(shallow.Children))
	}

	deep := root.Clone(true)
	if len(deep.Children) != ChildCount {
		t.Fatalf("expected deep clone to have %d children; got %d", ChildCount, len(deep.Children))
	}
	for index, child := range deep.Children {
		if child == root.Children[index] {
			t.Fatalf("[child %d] expected deep clone to copy child nodes", index)
		}
		if child.Parent != deep {
			t.Fatalf("[child %d] expected cloned child to link to the cloned parent", index)
		}
	}

	// Mutating the copy must not affect the original
	deep.Facets[0] = 99
	deep.Children[0].Path[0] = 7
	if root.Facets[0] != 0 || root.Children[0].Path[0] != 0 {
		t.Fatal("expected clone to be independent of the original")
	}
}
