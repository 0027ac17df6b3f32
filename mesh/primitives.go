package mesh

import (
	"fmt"
	"math"

	"github.com/achilleasa/meshtrace/types"
)

// Generate a square quad centered at the origin and lying on the z=0 plane.
// Both facets are wound so that their normal points towards +z.
func Quad(size float64) ([]Vertex, [][3]int) {
	h := 0.5 * size
	normal := types.XYZ(0, 0, 1)
	vertices := []Vertex{
		{Position: types.XYZ(-h, -h, 0), Normal: normal, UV: types.XY(0, 0)},
		{Position: types.XYZ(h, -h, 0), Normal: normal, UV: types.XY(1, 0)},
		{Position: types.XYZ(h, h, 0), Normal: normal, UV: types.XY(1, 1)},
		{Position: types.XYZ(-h, h, 0), Normal: normal, UV: types.XY(0, 1)},
	}
	facets := [][3]int{{0, 1, 2}, {0, 2, 3}}
	return vertices, facets
}

// Generate an axis-aligned cube centered at the origin. Each face gets its
// own 4 vertices so that face normals are not smoothed across edges. All
// facets are wound so that their normals point outwards.
func Cube(size float64) ([]Vertex, [][3]int) {
	h := 0.5 * size

	// Face normal followed by two in-plane axes with u x w = normal
	faces := [6][3]types.Vec3{
		{types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.XYZ(0, 0, 1)},
		{types.XYZ(-1, 0, 0), types.XYZ(0, 0, 1), types.XYZ(0, 1, 0)},
		{types.XYZ(0, 1, 0), types.XYZ(0, 0, 1), types.XYZ(1, 0, 0)},
		{types.XYZ(0, -1, 0), types.XYZ(1, 0, 0), types.XYZ(0, 0, 1)},
		{types.XYZ(0, 0, 1), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0)},
		{types.XYZ(0, 0, -1), types.XYZ(0, 1, 0), types.XYZ(1, 0, 0)},
	}

	vertices := make([]Vertex, 0, 24)
	facets := make([][3]int, 0, 12)
	for _, face := range faces {
		n, u, w := face[0], face[1], face[2]
		base := len(vertices)
		vertices = append(vertices,
			Vertex{Position: n.Sub(u).Sub(w).Mul(h), Normal: n, UV: types.XY(0, 0)},
			Vertex{Position: n.Add(u).Sub(w).Mul(h), Normal: n, UV: types.XY(1, 0)},
			Vertex{Position: n.Add(u).Add(w).Mul(h), Normal: n, UV: types.XY(1, 1)},
			Vertex{Position: n.Sub(u).Add(w).Mul(h), Normal: n, UV: types.XY(0, 1)},
		)
		facets = append(facets,
			[3]int{base, base + 1, base + 2},
			[3]int{base, base + 2, base + 3},
		)
	}

	return vertices, facets
}

// Generate a UV sphere centered at the origin with its poles on the y axis.
// Rings must be at least 2 and segments at least 3. A seam column of
// vertices is duplicated so that texture coordinates wrap cleanly.
func UVSphere(radius float64, rings, segments int) ([]Vertex, [][3]int, error) {
	if rings < 2 {
		return nil, nil, fmt.Errorf("mesh: sphere needs at least 2 rings; got %d", rings)
	}
	if segments < 3 {
		return nil, nil, fmt.Errorf("mesh: sphere needs at least 3 segments; got %d", segments)
	}

	vertices := make([]Vertex, 0, (rings+1)*(segments+1))
	for r := 0; r <= rings; r++ {
		sinTheta, cosTheta := math.Sincos(math.Pi * float64(r) / float64(rings))
		for s := 0; s <= segments; s++ {
			sinPhi, cosPhi := math.Sincos(2 * math.Pi * float64(s) / float64(segments))
			n := types.XYZ(sinTheta*cosPhi, cosTheta, sinTheta*sinPhi)
			vertices = append(vertices, Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				UV:       types.XY(float64(s)/float64(segments), float64(r)/float64(rings)),
			})
		}
	}

	facets := make([][3]int, 0, 2*rings*segments)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := r*(segments+1) + s
			b := a + segments + 1
			c := b + 1
			d := a + 1

			// Skip the triangles that collapse at the poles
			if r != 0 {
				facets = append(facets, [3]int{a, d, b})
			}
			if r != rings-1 {
				facets = append(facets, [3]int{d, c, b})
			}
		}
	}

	return vertices, facets, nil
}
