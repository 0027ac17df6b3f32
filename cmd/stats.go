package cmd

import "github.com/urfave/cli"

// Build a mesh and display its octree statistics.
func MeshStats(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	m, err := buildShape(ctx)
	if err != nil {
		return err
	}

	idx := m.Index()
	logger.Noticef("octree statistics\n%s", idx.StatsTable())
	if err = idx.Validate(); err != nil {
		logger.Errorf("octree validation failed: %v", err)
		return err
	}
	logger.Notice("octree validation passed")
	return nil
}
