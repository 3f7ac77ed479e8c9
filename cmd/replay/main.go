package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "commons.ai/internal/persistence/log"
	"commons.ai/internal/sim/maps"
	"commons.ai/internal/sim/tuning"
	"commons.ai/internal/sim/world"
)

var errStop = errors.New("stop")

func main() {
	var (
		worldDir   = flag.String("dir", "", "world data dir containing ticks/ticks-*.jsonl.zst")
		worldID    = flag.String("world", "", "world id (default: base name of -dir)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning.yaml the world ran with")
		mapPath    = flag.String("map", "", "layout file (overrides tuning map_path)")
		seed       = flag.Int64("seed", 0, "rng seed (0 keeps the tuning value)")
		toTick     = flag.Uint64("to_tick", 0, "stop after this tick (inclusive, optional)")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -dir")
		os.Exit(2)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if *mapPath != "" {
		tune.MapPath = *mapPath
	}
	m, err := maps.Load(tune.MapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load map:", err)
		os.Exit(1)
	}

	id := *worldID
	if id == "" {
		id = filepath.Base(filepath.Clean(*worldDir))
	}
	w, err := world.New(world.ConfigFromTuning(id, tune), m.Layout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	files, err := persistlog.Segments(*worldDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list segments:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick segments found in", *worldDir)
		os.Exit(1)
	}

	var checked, resets uint64
	for _, path := range files {
		err := persistlog.ReadSegment(path, func(e world.TickLogEntry) error {
			if *toTick != 0 && !e.Reset && e.Tick > *toTick {
				return errStop
			}
			got, err := w.ApplyLogEntry(e)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			if got != e.Digest {
				return fmt.Errorf("digest mismatch at tick %d episode %d: got=%s want=%s", e.Tick, e.Episode, got, e.Digest)
			}
			if e.Reset {
				resets++
			} else {
				checked++
			}
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: checked=%d ticks resets=%d episode=%d tick=%d\n", checked, resets, w.Episode(), w.CurrentTick())
}
