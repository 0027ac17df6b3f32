package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/types"
)

// AlphaTest reports whether the surface is transparent at texture
// coordinates (u, v). Transparent hits are skipped and the search continues
// behind them.
type AlphaTest func(u, v float64) (transparent bool)

// Intersection describes the closest hit found by a ray query.
type Intersection struct {
	Hit bool

	// Travel along the ray direction; +Inf on a miss.
	Travel float64

	Point types.Vec3

	// The interpolated vertex normal. For back face hits it is flipped to
	// face the incoming ray.
	Normal types.Vec3

	// The geometric facet normal as defined by the facet winding.
	FaceNormal types.Vec3

	// The absolute cosine of the angle between the ray and the facet normal.
	CosIncidence float64

	// True if the ray struck the back side of the facet.
	BackFace bool

	// Barycentric coordinates of the hit within the facet.
	U, V float64

	// Interpolated texture coordinates; only set when UV computation or
	// alpha testing is enabled.
	TexU, TexV float64

	// Index of the hit facet or -1 on a miss.
	FacetIndex int
}

func miss() Intersection {
	return Intersection{
		Travel:     math.Inf(1),
		FacetIndex: -1,
	}
}

func (in Intersection) String() string {
	if !in.Hit {
		return "miss"
	}
	return fmt.Sprintf(
		"hit(facet: %d, travel: %g, point: %v, normal: %v, cos: %g, uv: (%g, %g), backface: %t)",
		in.FacetIndex, in.Travel, in.Point, in.Normal, in.CosIncidence, in.U, in.V, in.BackFace,
	)
}

// Find the closest hit with a travel in [minTravel, closestTravel). The
// closestTravel argument lets callers prune the search using hits already
// found on other geometry; pass +Inf if there are none.
//
// Leaf boxes crossed by the ray are visited in order of increasing entry
// distance and the search stops at the first box that starts beyond the
// best hit so far. A mesh that has not been built never reports a hit.
func (m *Mesh) Intersect(ray geometry.Ray, minTravel, closestTravel float64, alpha AlphaTest) Intersection {
	snap := m.current.Load()
	if snap == nil {
		return miss()
	}

	hit, near, far := snap.index.Root().RayIntersect(ray.Origin, ray.Dir)
	if !hit || far < minTravel || near >= closestTravel {
		return miss()
	}

	leaves := snap.index.QueryRay(ray.Origin, ray.Dir)
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].Near < leaves[j].Near
	})

	q := snap.newQuery(&m.opts, ray, minTravel, closestTravel, alpha)
	q.visited = make([]bool, len(snap.facets))
	for _, lh := range leaves {
		if lh.Near >= q.closest {
			break
		}
		if lh.Far < minTravel {
			continue
		}

		for _, facetIndex := range lh.Box.Facets {
			if q.visited[facetIndex] {
				continue
			}
			q.visited[facetIndex] = true
			q.testFacet(facetIndex)
		}
	}

	return q.result()
}

// The state of a single ray query. Each query owns its scratch buffers so
// concurrent queries never share mutable state.
type query struct {
	snap  *snapshot
	opts  *Options
	ray   geometry.Ray
	alpha AlphaTest

	dirUnit   types.Vec3
	minTravel float64
	closest   float64

	// Facets already tested by this query; facets overlapping several
	// leaves are only tested once.
	visited []bool

	bestFacet int
	bestU     float64
	bestV     float64
	bestCos   float64
}

func (s *snapshot) newQuery(opts *Options, ray geometry.Ray, minTravel, closestTravel float64, alpha AlphaTest) *query {
	return &query{
		snap:      s,
		opts:      opts,
		ray:       ray,
		alpha:     alpha,
		dirUnit:   ray.Dir.Normalize(),
		minTravel: minTravel,
		closest:   closestTravel,
		bestFacet: -1,
	}
}

// Test a facet and record it if it is the closest acceptable hit so far.
func (q *query) testFacet(facetIndex int) {
	fd := &q.snap.facetData[facetIndex]
	v0 := q.snap.positions[q.snap.facets[facetIndex][0]]

	hit, t, u, v := geometry.RayTriangleIntersect(q.ray.Origin, q.ray.Dir, v0, fd.edge1, fd.edge2, fd.normal, q.opts.Epsilon)
	if !hit || t < q.minTravel || t >= q.closest {
		return
	}

	cos := -q.dirUnit.Dot(fd.normal)
	if cos < 0 && !q.opts.BackFaceIntersectionAllowed {
		return
	}

	if q.opts.AlphaTestEnabled && q.alpha != nil {
		tex := q.snap.texCoords(facetIndex, u, v)
		if q.alpha(tex[0], tex[1]) {
			return
		}
	}

	q.closest = t
	q.bestFacet = facetIndex
	q.bestU, q.bestV = u, v
	q.bestCos = cos
}

// Assemble the intersection record for the best hit.
func (q *query) result() Intersection {
	if q.bestFacet == -1 {
		return miss()
	}

	s := q.snap
	f := s.facets[q.bestFacet]
	fd := &s.facetData[q.bestFacet]

	normal := types.BarycentricVec3(s.normals[f[0]], s.normals[f[1]], s.normals[f[2]], q.bestU, q.bestV).Normalize()
	if normal == (types.Vec3{}) {
		normal = fd.normal
	}

	out := Intersection{
		Hit:          true,
		Travel:       q.closest,
		Point:        q.ray.At(q.closest),
		Normal:       normal,
		FaceNormal:   fd.normal,
		CosIncidence: math.Abs(q.bestCos),
		BackFace:     q.bestCos < 0,
		U:            q.bestU,
		V:            q.bestV,
		FacetIndex:   q.bestFacet,
	}

	if out.BackFace {
		out.Normal = out.Normal.Neg()
	}

	if q.opts.UVComputationEnabled || q.opts.AlphaTestEnabled {
		tex := s.texCoords(q.bestFacet, q.bestU, q.bestV)
		out.TexU, out.TexV = tex[0], tex[1]
	}

	return out
}

// Interpolate the texture coordinates of a facet.
func (s *snapshot) texCoords(facetIndex int, u, v float64) types.Vec2 {
	f := s.facets[facetIndex]
	return types.BarycentricVec2(s.uvs[f[0]], s.uvs[f[1]], s.uvs[f[2]], u, v)
}
