package bench

import "math"

// The BatchScheduler interface is implemented by all batch scheduling algorithms.
type BatchScheduler interface {
	// Split the rays of a round into batches of variable size and assign
	// them to the pool of workers using feedback collected from previous
	// rounds.
	//
	// This function returns the batch size assignment for each worker in
	// the input list.
	Schedule(workers []Worker, rays int) []int
}

// The naive scheduler splits rays according to the speed estimate of each worker.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NewNaiveScheduler() BatchScheduler {
	return naiveScheduler{}
}

func (naiveScheduler) Schedule(workers []Worker, rays int) []int {
	return splitBySpeedEstimate(workers, rays)
}

// The perfect scheduler assumes that the volume of work between two
// subsequent rounds is approximately the same.
type perfectScheduler struct {
	batchAssignment []int
}

// Create a new perfect scheduler instance.
func NewPerfectScheduler() BatchScheduler {
	return &perfectScheduler{}
}

// Split rays into batches and assign them to the pool of workers using
// feedback collected from the previous round.
//
// When previous round information is available the scheduler uses the
// following formula for estimating the workload for worker w and round i+1:
// w_i, r_i+1 = (batch,w_i / time,w_i) / Σ(batch_i / time_i)
func (sch *perfectScheduler) Schedule(workers []Worker, rays int) []int {
	// If this is the first time we try to schedule or the number of workers
	// has changed we need to reset the batch assignments
	if len(sch.batchAssignment) != len(workers) {
		sch.batchAssignment = splitBySpeedEstimate(workers, rays)
		return sch.batchAssignment
	}

	// Use last round statistics
	var total float64
	throughput := make([]float64, len(workers))
	for idx, w := range workers {
		stats := w.Stats()
		batchTime := math.Max(1, float64(stats.BatchTime))
		throughput[idx] = float64(stats.BatchSize) / batchTime
		total += throughput[idx]
	}

	if total == 0 {
		sch.batchAssignment = splitBySpeedEstimate(workers, rays)
		return sch.batchAssignment
	}

	scaler := float64(rays) / total
	for idx := range workers {
		sch.batchAssignment[idx] = int(math.Max(1.0, math.Floor(throughput[idx]*scaler)))
	}

	balance(sch.batchAssignment, rays)
	return sch.batchAssignment
}

func splitBySpeedEstimate(workers []Worker, rays int) []int {
	assignment := make([]int, len(workers))
	if len(workers) == 0 {
		return assignment
	}

	var total float64
	for _, w := range workers {
		total += w.SpeedEstimate()
	}
	scaler := float64(rays) / total

	for idx, w := range workers {
		assignment[idx] = int(math.Max(1.0, math.Floor(w.SpeedEstimate()*scaler)))
	}

	balance(assignment, rays)
	return assignment
}

// Adjust assignments so they add up to the number of rays. Missing rays are
// appended to the first worker; excess rays are taken from the busiest ones
// starting with the last.
func balance(assignment []int, rays int) {
	var scheduled int
	for _, n := range assignment {
		scheduled += n
	}

	if scheduled <= rays {
		assignment[0] += rays - scheduled
		return
	}

	for excess := scheduled - rays; excess > 0; excess-- {
		busiest := 0
		for idx, n := range assignment {
			if n >= assignment[busiest] {
				busiest = idx
			}
		}
		assignment[busiest]--
	}
}
