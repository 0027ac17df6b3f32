package geometry

import (
	"fmt"
	"math"

	"github.com/achilleasa/meshtrace/types"
)

const (
	// The number of spatial dimensions partitioned by a box.
	Dimensions = 3

	// The number of children produced when subdividing a box.
	ChildCount = 1 << Dimensions

	// Cross product axes shorter than this are skipped by the overlap test.
	minAxisLength = 1e-12
)

// Box is an axis-aligned box node defined by its center and its per-axis
// half-lengths. Boxes are linked into a tree: a box either has no children
// (a leaf) or exactly ChildCount of them.
type Box struct {
	Center     types.Vec3
	HalfLength types.Vec3

	Parent   *Box
	Children []*Box

	// The child index chosen at each level on the way down from the root.
	// The root box has an empty path.
	Path []uint8

	// Indices of the facets that overlap this box.
	Facets []int
}

// Create a new box. Returns an error if any half-length is negative.
func NewBox(center, halfLength types.Vec3) (*Box, error) {
	for axis := 0; axis < Dimensions; axis++ {
		if !(halfLength[axis] >= 0) {
			return nil, fmt.Errorf("%w; got %v", ErrNegativeHalfLength, halfLength)
		}
	}

	return &Box{
		Center:     center,
		HalfLength: halfLength,
	}, nil
}

// Create the tightest box that encloses all points.
func NewBoxFromPoints(points []types.Vec3) (*Box, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min = types.MinVec3(min, p)
		max = types.MaxVec3(max, p)
	}

	return NewBox(min.Add(max).Mul(0.5), max.Sub(min).Mul(0.5))
}

// Get the min corner.
func (b *Box) Min() types.Vec3 {
	return b.Center.Sub(b.HalfLength)
}

// Get the max corner.
func (b *Box) Max() types.Vec3 {
	return b.Center.Add(b.HalfLength)
}

// Get the depth of this box in its tree; the root is at depth 0.
func (b *Box) Depth() int {
	return len(b.Path)
}

// Returns true if the box has no children.
func (b *Box) IsLeaf() bool {
	return len(b.Children) == 0
}

// Returns true if p lies inside the closed box region.
func (b *Box) ContainsPoint(p types.Vec3) bool {
	for axis := 0; axis < Dimensions; axis++ {
		if math.Abs(p[axis]-b.Center[axis]) > b.HalfLength[axis] {
			return false
		}
	}
	return true
}

// Split the box into ChildCount children, one per octant. Bit a of a
// child's index selects the positive (1) or negative (0) half along axis a.
// The new children are attached to the box and also returned; their facet
// sets are left empty.
func (b *Box) Subdivide() []*Box {
	half := b.HalfLength.Mul(0.5)

	b.Children = make([]*Box, ChildCount)
	for index := 0; index < ChildCount; index++ {
		center := b.Center
		for axis := 0; axis < Dimensions; axis++ {
			if index&(1<<uint(axis)) != 0 {
				center[axis] += half[axis]
			} else {
				center[axis] -= half[axis]
			}
		}

		path := make([]uint8, len(b.Path), len(b.Path)+1)
		copy(path, b.Path)

		b.Children[index] = &Box{
			Center:     center,
			HalfLength: half,
			Parent:     b,
			Path:       append(path, uint8(index)),
		}
	}

	return b.Children
}

// Intersect the box with a ray using the slab method. On a hit, tNear and
// tFar delimit the travel interval spent inside the box; tNear is negative
// when the origin lies inside. A zero direction component leaves that
// slab unbounded as long as the origin lies within it.
func (b *Box) RayIntersect(origin, dir types.Vec3) (hit bool, tNear, tFar float64) {
	tNear, tFar = math.Inf(-1), math.Inf(1)

	for axis := 0; axis < Dimensions; axis++ {
		min := b.Center[axis] - b.HalfLength[axis]
		max := b.Center[axis] + b.HalfLength[axis]

		// The ray runs parallel to this slab (dir may be +0 or -0)
		if dir[axis] == 0 {
			if origin[axis] < min || origin[axis] > max {
				return false, math.Inf(1), math.Inf(1)
			}
			continue
		}

		t0 := (min - origin[axis]) / dir[axis]
		t1 := (max - origin[axis]) / dir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return false, math.Inf(1), math.Inf(1)
		}
	}

	return true, tNear, tFar
}

// Test whether the triangle (p0, p1, p2) overlaps the closed box region
// using the separating axis theorem. The candidate axes are the 3 box face
// normals, the triangle normal and the 9 cross products between box edges
// and triangle edges. Touching shapes are considered overlapping.
func (b *Box) TriangleOverlap(p0, p1, p2 types.Vec3) bool {
	// Work in box space
	v0 := p0.Sub(b.Center)
	v1 := p1.Sub(b.Center)
	v2 := p2.Sub(b.Center)
	h := b.HalfLength

	// Box face normals; this is a plain AABB-vs-AABB check.
	for axis := 0; axis < Dimensions; axis++ {
		min := math.Min(v0[axis], math.Min(v1[axis], v2[axis]))
		max := math.Max(v0[axis], math.Max(v1[axis], v2[axis]))
		if min > h[axis] || max < -h[axis] {
			return false
		}
	}

	f0 := v1.Sub(v0)
	f1 := v2.Sub(v1)
	f2 := v0.Sub(v2)

	// Triangle normal
	if separatedOnAxis(f0.Cross(f1), v0, v1, v2, h) {
		return false
	}

	// Cross products of the box edge directions (unit axes) with the triangle edges.
	for _, edge := range [3]types.Vec3{f0, f1, f2} {
		axes := [3]types.Vec3{
			{0, -edge[2], edge[1]},
			{edge[2], 0, -edge[0]},
			{-edge[1], edge[0], 0},
		}
		for _, axis := range axes {
			if separatedOnAxis(axis, v0, v1, v2, h) {
				return false
			}
		}
	}

	return true
}

// Returns true if axis separates the triangle (v0, v1, v2) from a box
// centered at the origin with half-lengths h. Degenerate axes never separate.
func separatedOnAxis(axis, v0, v1, v2, h types.Vec3) bool {
	if axis.Len() < minAxisLength {
		return false
	}

	d0 := v0.Dot(axis)
	d1 := v1.Dot(axis)
	d2 := v2.Dot(axis)
	triMin := math.Min(d0, math.Min(d1, d2))
	triMax := math.Max(d0, math.Max(d1, d2))

	r := h.Dot(axis.Abs())
	return triMin > r || triMax < -r
}

// Copy the box. If deep is true, the subtree rooted at this box is copied
// as well and the copies are linked to each other; otherwise the copy has
// no children. The copy keeps the original parent link.
func (b *Box) Clone(deep bool) *Box {
	out := &Box{
		Center:     b.Center,
		HalfLength: b.HalfLength,
		Parent:     b.Parent,
		Path:       append([]uint8(nil), b.Path...),
		Facets:     append([]int(nil), b.Facets...),
	}

	if deep && len(b.Children) != 0 {
		out.Children = make([]*Box, len(b.Children))
		for index, child := range b.Children {
			out.Children[index] = child.Clone(true)
			out.Children[index].Parent = out
		}
	}

	return out
}

func (b *Box) String() string {
	return fmt.Sprintf("box(path: %v, center: %v, half: %v, facets: %d, children: %d)", b.Path, b.Center, b.HalfLength, len(b.Facets), len(b.Children))
}
