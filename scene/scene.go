package scene

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/log"
	"github.com/achilleasa/meshtrace/mesh"
	"github.com/achilleasa/meshtrace/types"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
)

type entry struct {
	name      string
	mesh      *mesh.Mesh
	transform types.Mat4
	alpha     mesh.AlphaTest
}

// Wraps a scene entry with its world space bounds so it can be partitioned
// by the BVH builder.
type meshVolume struct {
	entry *entry
	bbox  [2]types.Vec3
}

func (v *meshVolume) BBox() [2]types.Vec3 {
	return v.bbox
}

func (v *meshVolume) Center() types.Vec3 {
	return v.bbox[0].Add(v.bbox[1]).Mul(0.5)
}

// Scene is a named collection of meshes placed in world space. Ray queries
// return the closest hit across all meshes.
//
// Meshes should only be rebuilt through the scene; the BVH used for culling
// meshes is built from the mesh bounds computed by the last scene Rebuild.
type Scene struct {
	logger log.Logger

	mutex   sync.RWMutex
	entries []*entry

	// Incremented whenever the entry list changes. A BVH is only published
	// if the entry list did not change while it was being built.
	generation uint64

	// A BVH over the world space bounds of all built meshes or nil if the
	// entry list changed since the last Rebuild.
	bvh []BvhNode
}

// Create a new empty scene.
func New() *Scene {
	return &Scene{
		logger: log.New("scene"),
	}
}

// Add a mesh to the scene. The world transform is applied on the next call
// to Rebuild. Each mesh may only be added once.
func (s *Scene) Add(name string, m *mesh.Mesh, transform types.Mat4) error {
	if m == nil {
		return ErrNilMesh
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, e := range s.entries {
		if e.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		if e.mesh == m {
			return fmt.Errorf("%w: already registered as %q", ErrDuplicateMesh, e.name)
		}
	}

	s.entries = append(s.entries, &entry{
		name:      name,
		mesh:      m,
		transform: transform,
	})
	s.invalidate()
	return nil
}

// Must be called with the write lock held.
func (s *Scene) invalidate() {
	s.generation++
	s.bvh = nil
}

// Remove a mesh from the scene.
func (s *Scene) Remove(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for index, e := range s.entries {
		if e.name == name {
			s.entries = append(s.entries[:index], s.entries[index+1:]...)
			s.invalidate()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownMesh, name)
}

// Update the world transform of a mesh. The change takes effect on the
// next call to Rebuild.
func (s *Scene) SetTransform(name string, transform types.Mat4) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e := s.lookup(name)
	if e == nil {
		return fmt.Errorf("%w: %q", ErrUnknownMesh, name)
	}
	e.transform = transform
	return nil
}

// Attach an alpha test to a mesh. It is only consulted if the mesh was
// created with alpha testing enabled.
func (s *Scene) SetAlphaTest(name string, alpha mesh.AlphaTest) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e := s.lookup(name)
	if e == nil {
		return fmt.Errorf("%w: %q", ErrUnknownMesh, name)
	}
	e.alpha = alpha
	return nil
}

// Get a mesh by name or nil if no such mesh exists.
func (s *Scene) Mesh(name string) *mesh.Mesh {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if e := s.lookup(name); e != nil {
		return e.mesh
	}
	return nil
}

// Get the mesh names in insertion order.
func (s *Scene) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, len(s.entries))
	for index, e := range s.entries {
		names[index] = e.name
	}
	return names
}

func (s *Scene) lookup(name string) *entry {
	for _, e := range s.entries {
		if e.name == name {
			return e
		}
	}
	return nil
}

// Take a copy of the entry list so callers can work without holding the
// lock. Returns the entry pointers, a copy of each entry and the current
// generation.
func (s *Scene) snapshot() ([]*entry, []entry, uint64) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ptrs := append([]*entry(nil), s.entries...)
	out := make([]entry, len(s.entries))
	for index, e := range s.entries {
		out[index] = *e
	}
	return ptrs, out, s.generation
}

// Rebuild all meshes in parallel using their current world transforms and
// then build a BVH over their world space bounds. The first error cancels
// any rebuilds that have not started yet.
func (s *Scene) Rebuild(ctx context.Context) error {
	ptrs, entries, generation := s.snapshot()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for index := range entries {
		e := entries[index]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := e.mesh.Rebuild(e.transform); err != nil {
				return fmt.Errorf("scene: could not rebuild mesh %q: %w", e.name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Errorf("rebuild failed: %v", err)
		return err
	}

	workList := make([]BoundedVolume, 0, len(ptrs))
	for _, e := range ptrs {
		min, max, ok := e.mesh.BoundingBox()
		if !ok {
			continue
		}
		workList = append(workList, &meshVolume{entry: e, bbox: [2]types.Vec3{min, max}})
	}
	bvh := BuildBVH(workList, 1, func(leaf *BvhNode, itemList []BoundedVolume) {
		for _, item := range itemList {
			leaf.entries = append(leaf.entries, item.(*meshVolume).entry)
		}
	}, SurfaceAreaHeuristic)

	s.mutex.Lock()
	if s.generation == generation {
		s.bvh = bvh
	}
	s.mutex.Unlock()

	s.logger.Infof("rebuilt %d meshes in %d ms", len(entries), time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Find the closest hit across all meshes with a travel of at least
// minTravel. Returns the intersection and the name of the mesh that was hit.
// Meshes that have not been built are ignored.
func (s *Scene) Intersect(ray geometry.Ray, minTravel float64) (mesh.Intersection, string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var (
		best = mesh.Intersection{Travel: math.Inf(1), FacetIndex: -1}
		name string
	)
	test := func(e *entry) {
		in := e.mesh.Intersect(ray, minTravel, best.Travel, e.alpha)
		if in.Hit {
			best, name = in, e.name
		}
	}

	if s.bvh == nil {
		for _, e := range s.entries {
			test(e)
		}
		return best, name
	}

	stack := []int{0}
	for len(stack) > 0 {
		node := &s.bvh[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		hit, near, far := node.Bounds.RayIntersect(ray.Origin, ray.Dir)
		if !hit || far < minTravel || near >= best.Travel {
			continue
		}

		if node.IsLeaf() {
			for _, e := range node.entries {
				test(e)
			}
			continue
		}
		stack = append(stack, node.Right, node.Left)
	}
	return best, name
}

// Get the world space bounding box enclosing all built meshes. Returns
// false if no mesh has been built.
func (s *Scene) BoundingBox() (min, max types.Vec3, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, e := range s.entries {
		mMin, mMax, built := e.mesh.BoundingBox()
		if !built {
			continue
		}
		if !ok {
			min, max, ok = mMin, mMax, true
			continue
		}
		min = types.MinVec3(min, mMin)
		max = types.MaxVec3(max, mMax)
	}
	return min, max, ok
}

// Build a tabular summary of the octree built for each mesh.
func (s *Scene) StatsTable() (string, error) {
	_, entries, _ := s.snapshot()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Facets", "Nodes", "Occupied leaves", "Max depth", "Avg facets/leaf", "Build time"})

	var (
		totalFacets int
		totalNodes  int
		totalTime   time.Duration
	)
	for _, e := range entries {
		idx := e.mesh.Index()
		if idx == nil {
			return "", fmt.Errorf("%w: %q", ErrNotBuilt, e.name)
		}
		st := idx.Stats()
		totalFacets += idx.FacetCount()
		totalNodes += st.Nodes
		totalTime += st.BuildTime
		table.Append([]string{
			e.name,
			fmt.Sprintf("%d", idx.FacetCount()),
			fmt.Sprintf("%d", st.Nodes),
			fmt.Sprintf("%d", st.OccupiedLeaves),
			fmt.Sprintf("%d", st.MaxDepth),
			fmt.Sprintf("%.2f", st.AvgFacetsPerLeaf),
			st.BuildTime.String(),
		})
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", totalFacets), fmt.Sprintf("%d", totalNodes), "", "", "", totalTime.String()})

	table.Render()
	return buf.String(), nil
}
