package cmd

import (
	"math"
	"sort"

	"github.com/achilleasa/meshtrace/geometry"
	"github.com/achilleasa/meshtrace/log"
	"github.com/urfave/cli"
)

// Cast a single ray through a mesh and display the closest hit.
func Probe(ctx *cli.Context) error {
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

	if log.Enabled(log.Debug) {
		leaves := m.Index().QueryRay(ray.Origin, ray.Dir)
		sort.Slice(leaves, func(i, j int) bool {
			return leaves[i].Near < leaves[j].Near
		})
		for _, lh := range leaves {
			logger.Debugf("crossing leaf %v at [%g, %g] with %d facets", lh.Box.Path, lh.Near, lh.Far, len(lh.Box.Facets))
		}
	}

	minTravel := ctx.Float64("min-travel")
	in := m.Intersect(ray, minTravel, math.Inf(1), nil)
	logger.Noticef("%v: %v", ray, in)

	if ctx.Bool("verify") {
		if bf := m.IntersectBruteForce(ray, minTravel, math.Inf(1), nil); bf.Hit != in.Hit || bf.Travel != in.Travel {
			logger.Warningf("brute force scan reports %v", bf)
		}
	}
	return nil
}

func probeRay(ctx *cli.Context) (geometry.Ray, error) {
	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return geometry.Ray{}, err
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return geometry.Ray{}, err
	}
	return geometry.NewRay(origin, dir), nil
}
