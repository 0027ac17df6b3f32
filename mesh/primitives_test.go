package mesh

import "testing"

func TestPrimitiveWinding(t *testing.T) {
	sphereVertices, sphereFacets, err := UVSphere(2, 6, 8)
	if err != nil {
		t.Fatal(err)
	}
	cubeVertices, cubeFacets := Cube(2)

	type spec struct {
		name      string
		vertices  []Vertex
		facets    [][3]int
		expFacets int
	}
	specs := []spec{
		{"cube", cubeVertices, cubeFacets, 12},
		{"sphere", sphereVertices, sphereFacets, 2*6*8 - 2*8},
	}

	for _, s := range specs {
		if len(s.facets) != s.expFacets {
			t.Fatalf("[%s] expected %d facets; got %d", s.name, s.expFacets, len(s.facets))
		}

		for facetIndex, f := range s.facets {
			p0, p1, p2 := s.vertices[f[0]].Position, s.vertices[f[1]].Position, s.vertices[f[2]].Position
			n := p1.Sub(p0).Cross(p2.Sub(p0))
			if n.Len() == 0 {
				t.Fatalf("[%s] facet %d is degenerate", s.name, facetIndex)
			}

			// Both shapes are convex and centered at the origin
			centroid := p0.Add(p1).Add(p2).Mul(1.0 / 3)
			if n.Dot(centroid) <= 0 {
				t.Fatalf("[%s] expected facet %d to face outwards", s.name, facetIndex)
			}
			for _, vertexIndex := range f {
				if s.vertices[vertexIndex].Normal.Dot(n) <= 0 {
					t.Fatalf("[%s] expected vertex normal of facet %d to agree with its winding", s.name, facetIndex)
				}
			}
		}
	}

	quadVertices, quadFacets := Quad(1)
	for facetIndex, f := range quadFacets {
		p0, p1, p2 := quadVertices[f[0]].Position, quadVertices[f[1]].Position, quadVertices[f[2]].Position
		if n := p1.Sub(p0).Cross(p2.Sub(p0)); n[2] <= 0 {
			t.Fatalf("[quad] expected facet %d to face +z; got %v", facetIndex, n)
		}
	}
}
