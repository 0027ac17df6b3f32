package cmd

import (
	"context"
	"fmt"
	"math"

	"github.com/achilleasa/meshtrace/scene"
	"github.com/achilleasa/meshtrace/types"
	"github.com/urfave/cli"
)

// Place copies of a mesh on a grid, build the scene and cast a probe ray.
func SceneProbe(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	ray, err := probeRay(ctx)
	if err != nil {
		return err
	}

	m, err := buildShape(ctx)
	if err != nil {
		return err
	}

	count := ctx.Int("count")
	if count <= 0 {
		return fmt.Errorf("count must be > 0; got %d", count)
	}
	spacing := ctx.Float64("spacing")
	twist := ctx.Float64("twist") * math.Pi / 180
	base := m.Transform()

	// Lay out instances on a square grid in the xz plane; each instance is
	// rotated around the y axis by twist degrees more than the previous one
	sc := scene.New()
	cols := int(math.Ceil(math.Sqrt(float64(count))))
	for index := 0; index < count; index++ {
		row, col := index/cols, index%cols
		offset := types.XYZ(float64(col)*spacing, 0, float64(row)*spacing)
		instance := m
		if index > 0 {
			instance = m.Clone()
		}
		transform := types.Translate4(offset).Mul4(types.Rotate4(types.XYZ(0, 1, 0), float64(index)*twist)).Mul4(base)
		if err = sc.Add(fmt.Sprintf("instance-%d", index), instance, transform); err != nil {
			return err
		}
	}

	if err = sc.Rebuild(context.Background()); err != nil {
		return err
	}

	table, err := sc.StatsTable()
	if err != nil {
		return err
	}
	logger.Noticef("scene statistics\n%s", table)

	in, name := sc.Intersect(ray, ctx.Float64("min-travel"))
	if !in.Hit {
		logger.Noticef("%v: miss", ray)
		return nil
	}
	logger.Noticef("%v: %v on %s", ray, in, name)
	return nil
}
