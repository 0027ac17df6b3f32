package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/achilleasa/meshtrace/mesh"
	"github.com/achilleasa/meshtrace/types"
	"github.com/urfave/cli"
)

var (
	errUnknownShape  = errors.New("unknown shape")
	errInvalidVector = errors.New("invalid vector")
)

// Flags shared by all commands that build a mesh.
var ShapeFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "shape",
		Value: "sphere",
		Usage: "procedural mesh to build (quad, cube or sphere)",
	},
	cli.Float64Flag{
		Name:  "size",
		Value: 1.0,
		Usage: "quad/cube edge length or sphere radius",
	},
	cli.IntFlag{
		Name:  "rings",
		Value: 32,
		Usage: "sphere rings",
	},
	cli.IntFlag{
		Name:  "segments",
		Value: 64,
		Usage: "sphere segments",
	},
	cli.IntFlag{
		Name:  "leaf",
		Value: mesh.DefaultOptions().MaxFacetsPerLeaf,
		Usage: "max facets per octree leaf",
	},
	cli.IntFlag{
		Name:  "depth",
		Value: mesh.DefaultOptions().MaxDepth,
		Usage: "max octree depth",
	},
	cli.BoolFlag{
		Name:  "cull-backfaces",
		Usage: "reject hits on the back side of facets",
	},
	cli.StringFlag{
		Name:  "translate",
		Value: "0,0,0",
		Usage: "world space translation as x,y,z",
	},
	cli.StringFlag{
		Name:  "rotate",
		Value: "0,0,0",
		Usage: "world space rotation as yaw,pitch,roll in degrees (x, y and z axis)",
	},
	cli.StringFlag{
		Name:  "scale",
		Value: "1,1,1",
		Usage: "world space scale as x,y,z",
	},
}

// Build the mesh described by the shape flags and apply its world transform.
func buildShape(ctx *cli.Context) (*mesh.Mesh, error) {
	opts := mesh.DefaultOptions()
	opts.MaxFacetsPerLeaf = ctx.Int("leaf")
	opts.MaxDepth = ctx.Int("depth")
	opts.BackFaceIntersectionAllowed = !ctx.Bool("cull-backfaces")
	opts.UVComputationEnabled = true

	var (
		vertices []mesh.Vertex
		facets   [][3]int
		err      error
	)
	size := ctx.Float64("size")
	switch shape := ctx.String("shape"); shape {
	case "quad":
		vertices, facets = mesh.Quad(size)
	case "cube":
		vertices, facets = mesh.Cube(size)
	case "sphere":
		vertices, facets, err = mesh.UVSphere(size, ctx.Int("rings"), ctx.Int("segments"))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w %q", errUnknownShape, shape)
	}

	transform, err := shapeTransform(ctx)
	if err != nil {
		return nil, err
	}

	m, err := mesh.New(vertices, facets, opts)
	if err != nil {
		return nil, err
	}
	if err = m.Rebuild(transform); err != nil {
		return nil, err
	}

	logger.Infof("built %s with %d vertices and %d facets", ctx.String("shape"), m.VertexCount(), m.FacetCount())
	return m, nil
}

func shapeTransform(ctx *cli.Context) (types.Mat4, error) {
	translation, err := parseVec3(ctx.String("translate"))
	if err != nil {
		return types.Mat4{}, fmt.Errorf("translate: %w", err)
	}
	rotation, err := parseVec3(ctx.String("rotate"))
	if err != nil {
		return types.Mat4{}, fmt.Errorf("rotate: %w", err)
	}
	scale, err := parseVec3(ctx.String("scale"))
	if err != nil {
		return types.Mat4{}, fmt.Errorf("scale: %w", err)
	}
	return worldTransform(translation, rotation, scale), nil
}

// Compose a transform that scales first, then rotates by the yaw, pitch and
// roll angles (in degrees) and finally translates.
func worldTransform(translation, rotation, scale types.Vec3) types.Mat4 {
	rad := rotation.Mul(math.Pi / 180)
	rot := types.QuatFromEuler(rad[0], rad[1], rad[2]).Mat4()
	return types.Translate4(translation).Mul4(rot).Mul4(types.Scale4(scale))
}

// Parse a vector in x,y,z format.
func parseVec3(value string) (types.Vec3, error) {
	var out types.Vec3

	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return out, fmt.Errorf("%w %q; expected x,y,z", errInvalidVector, value)
	}

	for index, token := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return out, fmt.Errorf("%w %q: %v", errInvalidVector, value, err)
		}
		out[index] = v
	}

	return out, nil
}
