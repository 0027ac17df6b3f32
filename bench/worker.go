package bench

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/mesh"
)

// Number of rays traced between context checks.
const cancelCheckInterval = 256

// Worker statistics for the last processed batch.
type Stats struct {
	// The number of rays in the batch.
	BatchSize int

	// The time spent tracing the batch through the octree.
	BatchTime time.Duration

	Hits int

	// Rays where the octree and brute force results disagree.
	Mismatches int
}

type Worker interface {
	// Get worker id.
	ID() string

	// Get the worker's computation speed estimate compared to a
	// baseline implementation.
	SpeedEstimate() float64

	// Retrieve last batch statistics.
	Stats() *Stats
}

// A worker that traces batches of rays against a mesh.
type rayWorker struct {
	id     string
	mesh   *mesh.Mesh
	verify bool
	stats  Stats
}

func newRayWorker(index int, m *mesh.Mesh, verify bool) *rayWorker {
	return &rayWorker{
		id:     fmt.Sprintf("worker-%d", index),
		mesh:   m,
		verify: verify,
	}
}

func (w *rayWorker) ID() string {
	return w.id
}

func (w *rayWorker) SpeedEstimate() float64 {
	return 1.0
}

func (w *rayWorker) Stats() *Stats {
	return &w.stats
}

// Trace a batch of rays and update the worker statistics.
func (w *rayWorker) process(ctx context.Context, batch []geometry.Ray) error {
	results := make([]mesh.Intersection, len(batch))

	start := time.Now()
	for index, ray := range batch {
		if index%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		results[index] = w.mesh.Intersect(ray, 0, math.Inf(1), nil)
	}
	w.stats = Stats{
		BatchSize: len(batch),
		BatchTime: time.Since(start),
	}

	for index, in := range results {
		if in.Hit {
			w.stats.Hits++
		}
		if !w.verify {
			continue
		}
		if index%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !sameHit(in, w.mesh.IntersectBruteForce(batch[index], 0, math.Inf(1), nil)) {
			w.stats.Mismatches++
		}
	}

	return nil
}

// Facet indices may legitimately differ when a ray crosses a shared edge so
// only the hit flag and the travel are compared.
func sameHit(a, b mesh.Intersection) bool {
	if a.Hit != b.Hit {
		return false
	}
	return !a.Hit || math.Abs(a.Travel-b.Travel) <= 1e-9
}
