package cmd

import (
	"context"
	"fmt"

	"github.com/achilleasa/meshtrace/bench"
	"github.com/urfave/cli"
)

// Trace random rays through a mesh and compare the octree results against a
// brute force scan.
func Bench(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	m, err := buildShape(ctx)
	if err != nil {
		return err
	}

	var scheduler bench.BatchScheduler
	switch name := ctx.String("scheduler"); name {
	case "naive":
		scheduler = bench.NewNaiveScheduler()
	case "perfect":
		scheduler = bench.NewPerfectScheduler()
	default:
		return fmt.Errorf("unknown scheduler %q", name)
	}

	opts := bench.Options{
		Rays:    ctx.Int("rays"),
		Rounds:  ctx.Int("rounds"),
		Workers: ctx.Int("workers"),
		Seed:    ctx.Int64("seed"),
		Verify:  !ctx.Bool("no-verify"),
	}

	b, err := bench.New(m, scheduler, opts)
	if err != nil {
		return err
	}

	report, err := b.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Noticef("benchmark results\n%s", report.Table())
	if mismatches := report.Mismatches(); mismatches > 0 {
		return fmt.Errorf("octree results differ from brute force for %d rays", mismatches)
	}
	return nil
}
