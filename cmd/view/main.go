// Command view runs a harvest world locally and draws it in the terminal.
// Arrow keys move agent-0 relative to its facing, a/d turn, space fires,
// r resets the episode and q quits. The other agents act at random.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"commons.ai/internal/render/term"
	"commons.ai/internal/sim/maps"
	"commons.ai/internal/sim/tuning"
	"commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/feature/actions"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		mapPath    = flag.String("map", "", "layout file (overrides tuning map_path)")
		seed       = flag.Int64("seed", 0, "rng seed (0 keeps the tuning value)")
		hz         = flag.Int("hz", 0, "ticks per second (0 keeps the tuning value)")
	)
	flag.Parse()

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fatal("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if *hz > 0 {
		tune.TickRateHz = *hz
	}
	if *mapPath != "" {
		tune.MapPath = *mapPath
	}
	m, err := maps.Load(tune.MapPath)
	if err != nil {
		fatal("load map: %v", err)
	}
	w, err := world.New(world.ConfigFromTuning("view", tune), m.Layout)
	if err != nil {
		fatal("world: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fatal("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		fatal("screen init: %v", err)
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	policy := rand.New(rand.NewPCG(uint64(tune.Seed), 0x5eed))
	player := w.Agents()[0].ID
	var next actions.Name = actions.Stay

	ticker := time.NewTicker(time.Second / time.Duration(w.TickRateHz()))
	defer ticker.Stop()

	draw := func() {
		term.Draw(screen, term.FrameOf(w))
		screen.Show()
	}
	draw()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				draw()
			case *tcell.EventKey:
				switch keyAction(ev) {
				case "quit":
					return
				case "reset":
					if err := w.Reset(); err != nil {
						screen.Fini()
						fatal("reset: %v", err)
					}
					draw()
				case "":
				default:
					next = actions.Name(keyAction(ev))
				}
			}
		case <-ticker.C:
			batch := make(map[string]string, len(w.Agents()))
			for _, a := range w.Agents() {
				if a.ID == player {
					batch[a.ID] = string(next)
					continue
				}
				batch[a.ID] = string(actions.Names[policy.IntN(len(actions.Names))])
			}
			next = actions.Stay
			if err := w.Step(batch); err != nil {
				screen.Fini()
				fatal("step: %v", err)
			}
			if w.Config().EpisodeTicks > 0 && w.EpisodeTick() >= uint64(w.Config().EpisodeTicks) {
				if err := w.Reset(); err != nil {
					screen.Fini()
					fatal("reset: %v", err)
				}
			}
			draw()
		}
	}
}

// keyAction maps a key to an action name, "reset", "quit" or "".
func keyAction(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "quit"
	case tcell.KeyUp:
		return string(actions.MoveUp)
	case tcell.KeyDown:
		return string(actions.MoveDown)
	case tcell.KeyLeft:
		return string(actions.MoveLeft)
	case tcell.KeyRight:
		return string(actions.MoveRight)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return "quit"
		case 'r':
			return "reset"
		case 'a':
			return string(actions.TurnCounterclockwise)
		case 'd':
			return string(actions.TurnClockwise)
		case ' ':
			return string(actions.Fire)
		case '.':
			return string(actions.Stay)
		}
	}
	return ""
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
