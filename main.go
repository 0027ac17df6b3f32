package main

import (
	"os"
	"runtime"

	"github.com/achilleasa/meshtrace/cmd"
	"github.com/achilleasa/meshtrace/log"
	"github.com/urfave/cli"
)

var logger = log.New("meshtrace")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	probeFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "origin",
			Value: "0,0,-10",
			Usage: "ray origin as x,y,z",
		},
		cli.StringFlag{
			Name:  "dir",
			Value: "0,0,1",
			Usage: "ray direction as x,y,z",
		},
		cli.Float64Flag{
			Name:  "min-travel",
			Value: 0,
			Usage: "ignore hits closer than this distance",
		},
	}

	app := cli.NewApp()
	app.Name = "meshtrace"
	app.Usage = "ray intersection queries against octree accelerated meshes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set the log level (debug, info, notice, warning or error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "stats",
			Usage: "build a procedural mesh and display octree statistics",
			Description: `
Generate a quad, cube or UV sphere, apply the requested world transform and
partition its facets into an octree. The node, leaf and facet distribution
statistics are then displayed.`,
			Flags:  cmd.ShapeFlags,
			Action: cmd.MeshStats,
		},
		{
			Name:        "probe",
			Usage:       "cast a single ray through a procedural mesh",
			Description: `Cast a ray and display the closest intersection.`,
			Flags: append(append([]cli.Flag{
				cli.BoolFlag{
					Name:  "verify",
					Usage: "compare the result against a brute force scan",
				},
			}, probeFlags...), cmd.ShapeFlags...),
			Action: cmd.Probe,
		},
		{
			Name:  "scene",
			Usage: "cast a single ray through a grid of mesh instances",
			Description: `
Place copies of a procedural mesh on a square grid, rebuild all instances in
parallel and display the closest intersection across the scene.`,
			Flags: append(append([]cli.Flag{
				cli.IntFlag{
					Name:  "count",
					Value: 4,
					Usage: "number of mesh instances",
				},
				cli.Float64Flag{
					Name:  "spacing",
					Value: 3.0,
					Usage: "distance between neighboring instances",
				},
				cli.Float64Flag{
					Name:  "twist",
					Value: 0,
					Usage: "rotation around the y axis added to each successive instance, in degrees",
				},
			}, probeFlags...), cmd.ShapeFlags...),
			Action: cmd.SceneProbe,
		},
		{
			Name:  "bench",
			Usage: "trace random rays through a procedural mesh",
			Description: `
Trace random rays through a mesh using a pool of workers. Rays are split
into per-worker batches by the selected scheduler; the perfect scheduler
uses the timings of the previous round to balance the next one. Each result
is optionally compared against a brute force scan of all facets.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 100000,
					Usage: "rays per round",
				},
				cli.IntFlag{
					Name:  "rounds",
					Value: 3,
					Usage: "number of rounds",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: runtime.NumCPU(),
					Usage: "number of parallel workers",
				},
				cli.StringFlag{
					Name:  "scheduler",
					Value: "perfect",
					Usage: "batch scheduler (naive or perfect)",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for ray generation",
				},
				cli.BoolFlag{
					Name:  "no-verify",
					Usage: "skip brute force verification",
				},
			}, cmd.ShapeFlags...),
			Action: cmd.Bench,
		},
	}

	return app
}
