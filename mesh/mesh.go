package mesh

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/log"
	"github.com/achilleasa/meshtrace/octree"
	"github.com/achilleasa/meshtrace/types"
)

// Transforms whose determinant magnitude is below this value are rejected.
const minTransformDet = 1e-12

// A mesh vertex in model space. A zero normal is replaced by the
// area-weighted average of the normals of the facets sharing the vertex.
type Vertex struct {
	Position types.Vec3
	Normal   types.Vec3
	UV       types.Vec2
}

// Precomputed world-space facet data.
type facetData struct {
	edge1  types.Vec3
	edge2  types.Vec3
	normal types.Vec3
}

// An immutable view of the mesh geometry in world space. Rebuild replaces
// the published snapshot as a whole; queries hold on to the snapshot they
// started with.
type snapshot struct {
	transform types.Mat4

	positions []types.Vec3
	normals   []types.Vec3
	facetData []facetData

	// Shared with the mesh; never modified.
	facets [][3]int
	uvs    []types.Vec2

	index *octree.Index
}

// Mesh is a triangle mesh that answers ray intersection queries.
//
// Rebuild must be called before querying the mesh and every time its world
// transform changes. Any number of goroutines may call Intersect
// concurrently, including while a Rebuild is in progress.
type Mesh struct {
	logger log.Logger
	opts   Options

	// Model space data; immutable after construction.
	vertices []Vertex
	facets   [][3]int
	uvs      []types.Vec2

	rebuildMutex sync.Mutex
	current      atomic.Pointer[snapshot]
}

// Create a new mesh from a list of model space vertices and triangle
// facets. The input slices are copied. Facet indices are validated eagerly.
func New(vertices []Vertex, facets [][3]int, opts Options) (*Mesh, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(vertices) == 0 {
		return nil, ErrNoVertices
	}
	if len(facets) == 0 {
		return nil, ErrNoFacets
	}
	if err := octree.ValidateFacets(facets, len(vertices)); err != nil {
		return nil, err
	}

	m := &Mesh{
		logger:   log.New("mesh"),
		opts:     opts,
		vertices: append([]Vertex(nil), vertices...),
		facets:   append([][3]int(nil), facets...),
		uvs:      make([]types.Vec2, len(vertices)),
	}

	for index, v := range m.vertices {
		m.uvs[index] = v.UV
	}
	m.fillMissingNormals()

	return m, nil
}

// Replace zero vertex normals with the area-weighted average of the
// normals of the facets that share each vertex.
func (m *Mesh) fillMissingNormals() {
	var accum []types.Vec3
	for index, v := range m.vertices {
		if v.Normal != (types.Vec3{}) {
			continue
		}

		if accum == nil {
			accum = make([]types.Vec3, len(m.vertices))
			for _, f := range m.facets {
				p0 := m.vertices[f[0]].Position
				// The cross product length is twice the facet area.
				n := m.vertices[f[1]].Position.Sub(p0).Cross(m.vertices[f[2]].Position.Sub(p0))
				for _, vertexIndex := range f {
					accum[vertexIndex] = accum[vertexIndex].Add(n)
				}
			}
		}
		m.vertices[index].Normal = accum[index].Normalize()
	}
}

// Get the mesh options.
func (m *Mesh) Options() Options {
	return m.opts
}

// Get the number of facets.
func (m *Mesh) FacetCount() int {
	return len(m.facets)
}

// Get the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// Get the currently published octree or nil if the mesh has not been built.
func (m *Mesh) Index() *octree.Index {
	if snap := m.current.Load(); snap != nil {
		return snap.index
	}
	return nil
}

// Get the world transform used by the last Rebuild.
func (m *Mesh) Transform() types.Mat4 {
	if snap := m.current.Load(); snap != nil {
		return snap.transform
	}
	return types.Ident4()
}

// Get the world space vertex positions computed by the last Rebuild. The
// returned slice must not be modified.
func (m *Mesh) WorldVertices() []types.Vec3 {
	if snap := m.current.Load(); snap != nil {
		return snap.positions
	}
	return nil
}

// Get the world space bounding box. Returns false if the mesh has not been built.
func (m *Mesh) BoundingBox() (min, max types.Vec3, ok bool) {
	idx := m.Index()
	if idx == nil {
		return min, max, false
	}
	return idx.Root().Min(), idx.Root().Max(), true
}

// Transform the model space geometry to world space, rebuild the octree and
// publish the result. Queries that are already running keep using the
// previous geometry until they complete.
func (m *Mesh) Rebuild(transform types.Mat4) error {
	m.rebuildMutex.Lock()
	defer m.rebuildMutex.Unlock()

	if det := transform.Det(); math.Abs(det) < minTransformDet {
		return fmt.Errorf("%w; determinant is %g", ErrSingularTransform, det)
	}

	start := time.Now()
	normalMat := transform.NormalMat()
	snap := &snapshot{
		transform: transform,
		positions: make([]types.Vec3, len(m.vertices)),
		normals:   make([]types.Vec3, len(m.vertices)),
		facetData: make([]facetData, len(m.facets)),
		facets:    m.facets,
		uvs:       m.uvs,
	}

	for index, v := range m.vertices {
		snap.positions[index] = transform.TransformPoint(v.Position)
		snap.normals[index] = normalMat.TransformDir(v.Normal).Normalize()
	}

	for index, f := range m.facets {
		v0 := snap.positions[f[0]]
		e1 := snap.positions[f[1]].Sub(v0)
		e2 := snap.positions[f[2]].Sub(v0)
		snap.facetData[index] = facetData{
			edge1:  e1,
			edge2:  e2,
			normal: e1.Cross(e2).Normalize(),
		}
	}

	idx, err := octree.Build(snap.positions, m.facets, m.opts.MaxFacetsPerLeaf, m.opts.MaxDepth)
	if err != nil {
		return fmt.Errorf("mesh: could not build octree: %w", err)
	}
	snap.index = idx

	m.current.Store(snap)
	m.logger.Debugf("rebuilt mesh with %d vertices and %d facets in %d ms", len(m.vertices), len(m.facets), time.Since(start).Nanoseconds()/1e6)

	return nil
}

// Create a copy of the mesh. Model space data is copied; the published
// world space snapshot is immutable and therefore shared.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		logger:   m.logger,
		opts:     m.opts,
		vertices: append([]Vertex(nil), m.vertices...),
		facets:   append([][3]int(nil), m.facets...),
		uvs:      append([]types.Vec2(nil), m.uvs...),
	}
	out.current.Store(m.current.Load())
	return out
}

// Cast a ray against every facet without consulting the octree. The result
// matches Intersect; it is meant for verifying the index.
func (m *Mesh) IntersectBruteForce(ray geometry.Ray, minTravel, closestTravel float64, alpha AlphaTest) Intersection {
	snap := m.current.Load()
	if snap == nil {
		return miss()
	}

	q := snap.newQuery(&m.opts, ray, minTravel, closestTravel, alpha)
	for facetIndex := range snap.facets {
		q.testFacet(facetIndex)
	}
	return q.result()
}
