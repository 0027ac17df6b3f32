package bench

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/log"
	"github.com/achilleasa/meshtrace/mesh"
	"github.com/achilleasa/meshtrace/types"
	"golang.org/x/sync/errgroup"
)

// Options controls a benchmark run.
type Options struct {
	// The number of rays traced in each round.
	Rays int

	// The number of rounds. Batch sizes for each round after the first are
	// assigned by the scheduler using the timings of the previous round.
	Rounds int

	// The number of parallel workers.
	Workers int

	// Seed for the ray generator.
	Seed int64

	// Compare each octree result against a brute force scan.
	Verify bool
}

// Get the default benchmark options.
func DefaultOptions() Options {
	return Options{
		Rays:    10000,
		Rounds:  3,
		Workers: runtime.NumCPU(),
		Seed:    1,
		Verify:  true,
	}
}

// Validate option values.
func (o Options) Validate() error {
	if o.Rays <= 0 {
		return fmt.Errorf("%w: rays must be > 0; got %d", ErrInvalidOptions, o.Rays)
	}
	if o.Rounds <= 0 {
		return fmt.Errorf("%w: rounds must be > 0; got %d", ErrInvalidOptions, o.Rounds)
	}
	if o.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0; got %d", ErrInvalidOptions, o.Workers)
	}
	return nil
}

// Bench traces random rays through a mesh using a pool of workers.
type Bench struct {
	logger    log.Logger
	mesh      *mesh.Mesh
	scheduler BatchScheduler
	opts      Options

	rays    []geometry.Ray
	workers []*rayWorker
}

// Create a new benchmark for a mesh that has already been built.
func New(m *mesh.Mesh, scheduler BatchScheduler, opts Options) (*Bench, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	min, max, ok := m.BoundingBox()
	if !ok {
		return nil, ErrNotBuilt
	}

	b := &Bench{
		logger:    log.New("bench"),
		mesh:      m,
		scheduler: scheduler,
		opts:      opts,
		rays:      generateRays(min, max, opts.Rays, opts.Seed),
		workers:   make([]*rayWorker, opts.Workers),
	}
	for index := range b.workers {
		b.workers[index] = newRayWorker(index, m, opts.Verify)
	}

	return b, nil
}

// Get the generated rays.
func (b *Bench) Rays() []geometry.Ray {
	return b.rays
}

// Generate rays that start outside the bounding box and aim at random points
// inside it.
func generateRays(min, max types.Vec3, count int, seed int64) []geometry.Ray {
	rng := rand.New(rand.NewSource(seed))

	center := min.Add(max).Mul(0.5)
	extent := max.Sub(min)
	radius := extent.Len()
	if radius == 0 {
		radius = 1
	}

	rays := make([]geometry.Ray, count)
	for index := range rays {
		target := min.Add(extent.MulVec(types.XYZ(rng.Float64(), rng.Float64(), rng.Float64())))
		origin := center.Add(randomUnitVec(rng).Mul(2 * radius))
		rays[index] = geometry.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

func randomUnitVec(rng *rand.Rand) types.Vec3 {
	for {
		v := types.XYZ(2*rng.Float64()-1, 2*rng.Float64()-1, 2*rng.Float64()-1)
		if l := v.Len(); l > 1e-3 && l <= 1 {
			return v.Mul(1 / l)
		}
	}
}

// Run the benchmark.
func (b *Bench) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		Facets: b.mesh.FacetCount(),
		Rays:   len(b.rays),
		Rounds: make([]RoundStats, 0, b.opts.Rounds),
	}

	workers := make([]Worker, len(b.workers))
	for index, w := range b.workers {
		workers[index] = w
	}

	for round := 0; round < b.opts.Rounds; round++ {
		rs, err := b.runRound(ctx, workers)
		if err != nil {
			return nil, err
		}
		report.Rounds = append(report.Rounds, rs)
		b.logger.Infof("round %d: traced %d rays in %d ms", round+1, len(b.rays), rs.RoundTime.Nanoseconds()/1e6)
	}

	if mismatches := report.Mismatches(); mismatches > 0 {
		b.logger.Warningf("octree and brute force results disagree for %d rays", mismatches)
	}

	return report, nil
}

func (b *Bench) runRound(ctx context.Context, workers []Worker) (RoundStats, error) {
	batchAssignment := b.scheduler.Schedule(workers, len(b.rays))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	offset := 0
	for index, w := range b.workers {
		w := w
		batch := b.rays[offset : offset+batchAssignment[index]]
		offset += batchAssignment[index]

		g.Go(func() error {
			return w.process(gctx, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return RoundStats{}, err
	}

	rs := RoundStats{
		Workers:   make([]WorkerStat, len(b.workers)),
		RoundTime: time.Since(start),
	}
	for index, w := range b.workers {
		rs.Workers[index] = WorkerStat{
			ID:           w.id,
			BatchSize:    w.stats.BatchSize,
			RoundPercent: 100 * float64(w.stats.BatchSize) / float64(len(b.rays)),
			BatchTime:    w.stats.BatchTime,
			Hits:         w.stats.Hits,
			Mismatches:   w.stats.Mismatches,
		}
	}

	return rs, nil
}
