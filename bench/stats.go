package bench

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type WorkerStat struct {
	// The worker id.
	ID string

	// The batch size and the percentage of the round rays it represents.
	BatchSize    int
	RoundPercent float64

	// Trace time for the assigned batch.
	BatchTime time.Duration

	Hits       int
	Mismatches int
}

type RoundStats struct {
	// Individual worker stats.
	Workers []WorkerStat

	// Wall time for the entire round including verification.
	RoundTime time.Duration
}

// Rays traced per second across all workers. Verification time is not
// included; a round completes when its slowest worker does.
func (rs RoundStats) RaysPerSecond() float64 {
	var (
		rays    int
		longest time.Duration
	)
	for _, ws := range rs.Workers {
		rays += ws.BatchSize
		if ws.BatchTime > longest {
			longest = ws.BatchTime
		}
	}
	if longest <= 0 {
		return 0
	}
	return float64(rays) / longest.Seconds()
}

// The results of a benchmark run.
type Report struct {
	Facets int
	Rays   int
	Rounds []RoundStats
}

// Get the total number of mismatches across all rounds.
func (r *Report) Mismatches() int {
	var total int
	for _, rs := range r.Rounds {
		for _, ws := range rs.Workers {
			total += ws.Mismatches
		}
	}
	return total
}

// Build a tabular representation of the report.
func (r *Report) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoMergeCells(true)
	table.SetHeader([]string{"Round", "Worker", "Batch", "% of round", "Time", "Hits", "Mismatches", "Rays/sec"})

	var totalTime time.Duration
	for index, rs := range r.Rounds {
		totalTime += rs.RoundTime
		round := fmt.Sprintf("%d", index+1)
		for _, ws := range rs.Workers {
			table.Append([]string{
				round,
				ws.ID,
				fmt.Sprintf("%d", ws.BatchSize),
				fmt.Sprintf("%.1f", ws.RoundPercent),
				ws.BatchTime.String(),
				fmt.Sprintf("%d", ws.Hits),
				fmt.Sprintf("%d", ws.Mismatches),
				fmt.Sprintf("%.0f", rs.RaysPerSecond()),
			})
		}
	}
	table.SetFooter([]string{"", "", fmt.Sprintf("%d facets", r.Facets), "", totalTime.String(), "", fmt.Sprintf("%d", r.Mismatches()), ""})

	table.Render()
	return buf.String()
}
