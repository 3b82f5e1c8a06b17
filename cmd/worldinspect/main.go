// Command worldinspect is a small REPL for driving a streaming World from
// the terminal: recentering, forcing a remesh pass, and inspecting
// individual blocks and chunk extents without a renderer attached.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world"
	"github.com/voxelkit/world/world/mesh"
	"github.com/voxelkit/world/world/voxel"
)

func main() {
	definitions := flag.String("blocks", "", "path to a YAML block/material definitions file")
	configPath := flag.String("config", "", "path to a TOML config overrides file")
	seed := flag.Int64("seed", 1, "seed for the built-in Perlin terrain loader")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	registry, stone, err := loadRegistry(*definitions)
	if err != nil {
		log.Error("load registry", "err", err)
		os.Exit(1)
	}

	conf, err := world.Config{
		Log:       log,
		Registry:  registry,
		Mesher:    noopMesher{},
		LoadChunk: perlinLoader(*seed, stone),
		Bedrock:   stone,
	}.New()
	if err != nil {
		log.Error("build config", "err", err)
		os.Exit(1)
	}
	if *configPath != "" {
		conf, err = world.LoadConfigFile(conf, *configPath)
		if err != nil {
			log.Error("load config file", "err", err)
			os.Exit(1)
		}
	}

	w := world.New(conf)
	w.Recenter(0, 0, 0, true)

	runREPL(os.Stdin, os.Stdout, w, log)
}

// loadRegistry builds a Registry either from a YAML definitions file, or a
// built-in registry holding a single stone block if path is empty.
func loadRegistry(path string) (*block.Registry, block.ID, error) {
	if path == "" {
		r := block.NewRegistry()
		if _, err := r.AddMaterialOfColor("stone", [4]float64{0.5, 0.5, 0.5, 1}, false); err != nil {
			return nil, 0, err
		}
		stone, err := r.AddBlock("stone", []string{"stone"}, true)
		if err != nil {
			return nil, 0, err
		}
		return r, stone, nil
	}

	r := block.NewRegistry()
	if err := block.LoadDefinitions(r, path, nil, nil); err != nil {
		return nil, 0, err
	}
	stone, ok := r.BlockByName("stone")
	if !ok {
		return nil, 0, fmt.Errorf("worldinspect: definitions file must register a block named \"stone\"")
	}
	return r, stone, nil
}

func perlinLoader(seed int64, stone block.ID) voxel.Loader {
	p := perlin.NewPerlin(2, 2, 3, seed)
	return func(ax, az int32, col *voxel.Column) {
		n := p.Noise2D(float64(ax)*0.05, float64(az)*0.05)
		height := int32(64 + n*24)
		if height < 1 {
			height = 1
		}
		col.Push(stone, height)
	}
}

// noopMesher satisfies mesh.Mesher with no geometry, since worldinspect has
// no renderer attached; it exists to exercise the remesh path without a GPU.
type noopMesher struct{}

func (noopMesher) MeshChunk(mesh.ChunkInputs) (solid, water mesh.Mesh) { return nil, nil }
func (noopMesher) MeshFrontier(strip []uint16, maskIndex, px, pz, nx, nz, lod int, old mesh.Mesh, isSolid bool) mesh.Mesh {
	return nil
}

func runREPL(in *os.File, out *os.File, w *world.World, log *slog.Logger) {
	fmt.Fprintln(out, "worldinspect ready. commands: recenter x y z | remesh | get x y z | height x z | quit")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return
		case "recenter":
			x, y, z, err := parseXYZFloat(fields[1:])
			if err != nil {
				fmt.Fprintln(out, "usage: recenter x y z:", err)
				continue
			}
			w.Recenter(x, y, z, false)
			fmt.Fprintln(out, "ok")
		case "remesh":
			w.Remesh()
			fmt.Fprintln(out, "ok")
		case "get":
			x, y, z, err := parseXYZInt(fields[1:])
			if err != nil {
				fmt.Fprintln(out, "usage: get x y z:", err)
				continue
			}
			id := w.GetBlock(x, y, z)
			fmt.Fprintf(out, "block %d lit=%v\n", id, w.IsBlockLit(x, y, z))
		case "height":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: height x z")
				continue
			}
			x, err1 := strconv.Atoi(fields[1])
			z, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Fprintln(out, "usage: height x z")
				continue
			}
			for y := voxel.WorldHeight - 1; y >= 0; y-- {
				if w.GetBlock(x, y, z) != block.Empty {
					fmt.Fprintf(out, "%d\n", y+1)
					break
				}
			}
		default:
			fmt.Fprintln(out, "unknown command:", fields[0])
		}
	}
}

func parseXYZFloat(args []string) (x, y, z float64, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	vals := make([]float64, 3)
	for i, a := range args {
		vals[i], err = strconv.ParseFloat(a, 64)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return vals[0], vals[1], vals[2], nil
}

func parseXYZInt(args []string) (x, y, z int, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	vals := make([]int, 3)
	for i, a := range args {
		vals[i], err = strconv.Atoi(a)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return vals[0], vals[1], vals[2], nil
}
