package world

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync/atomic"

	"commons.ai/internal/protocol"
	"commons.ai/internal/sim/world/feature/reservation"
	"commons.ai/internal/sim/world/kernel/grid"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

type JoinRequest struct {
	// AgentID asks for a specific agent; empty takes the first free one.
	AgentID string
	Out     chan []byte
	Resp    chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Err     string // protocol error code, empty on success
}

type ActionEnvelope struct {
	AgentID string
	Action  string
}

type ResetRequest struct {
	Resp chan error
}

type RecordedAction struct {
	AgentID string `json:"agent_id"`
	Action  string `json:"action"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry is one line of the tick log. Reset entries carry no actions.
type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Episode uint64           `json:"episode"`
	Reset   bool             `json:"reset,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Stats   TickStats        `json:"stats"`
	Rewards map[string]int   `json:"rewards,omitempty"`
	Digest  string           `json:"digest"`
}

// TickStats summarises one tick.
type TickStats struct {
	Moved     int `json:"moved"`
	Contested int `json:"contested"`
	Blocked   int `json:"blocked"`
	Swaps     int `json:"swaps"`
	Harvested int `json:"harvested"`
	Fired     int `json:"fired"`
	BeamCells int `json:"beam_cells"`
	Hits      int `json:"hits"`
	Spawned   int `json:"spawned"`
	Resources int `json:"resources"`
}

type clientState struct {
	Out chan []byte
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine, or from a
// single caller when driven directly through Step and Reset.
type World struct {
	cfg    Config
	layout model.Layout
	rng    model.Rand

	grid   *grid.Grid
	agents map[string]*Agent
	order  []string // agent ids by index

	buf    reservation.Buffer
	firing []model.Pos
	hidden map[model.Pos]bool

	phase  Phase
	inTick bool

	tick         atomic.Uint64
	episode      atomic.Uint64
	episodeStart uint64
	lastStats    TickStats

	clients   map[string]*clientState
	observers map[string]*observerClient

	inbox         chan ActionEnvelope
	join          chan JoinRequest
	leave         chan string
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	resetReq      chan ResetRequest
	stop          chan struct{}

	// Optional (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger
	logger     *log.Logger

	metrics atomic.Value // WorldMetrics
}

// New builds a world on layout and performs the first reset.
func New(cfg Config, layout model.Layout) (*World, error) {
	cfg.applyDefaults()
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(cfg.Seed)
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	w := &World{
		cfg:           cfg,
		layout:        layout,
		rng:           rng,
		agents:        map[string]*Agent{},
		hidden:        map[model.Pos]bool{},
		clients:       map[string]*clientState{},
		observers:     map[string]*observerClient{},
		inbox:         make(chan ActionEnvelope, 1024),
		join:          make(chan JoinRequest, 64),
		leave:         make(chan string, 64),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
		resetReq:      make(chan ResetRequest, 4),
		stop:          make(chan struct{}),
	}
	if err := w.rebuild(); err != nil {
		return nil, err
	}
	w.publishMetrics(0)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) SetLogger(l *log.Logger) { w.logger = l }

func (w *World) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

// Reset rebuilds the grid from the layout and respawns every agent at a
// random free spawn site with a random facing. Rewards return to zero and the
// episode counter advances. The layout is fully validated before any random
// draw, so on error the world and its random source are left unchanged.
func (w *World) Reset() error {
	_, err := w.reset()
	return err
}

func (w *World) reset() (TickLogEntry, error) {
	if err := w.rebuild(); err != nil {
		return TickLogEntry{}, err
	}
	entry := TickLogEntry{
		Tick:    w.tick.Load(),
		Episode: w.episode.Load(),
		Reset:   true,
		Stats:   w.lastStats,
		Digest:  w.StateDigest(),
	}
	w.writeTick(entry)
	return entry, nil
}

func (w *World) rebuild() error {
	if w.inTick {
		return ErrTickInProgress
	}
	l := w.layout
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: empty layout %dx%d", ErrMapInconsistency, l.Width, l.Height)
	}
	if len(l.SpawnSites) < w.cfg.NumAgents {
		return fmt.Errorf("%w: %d spawn sites for %d agents", ErrMapInconsistency, len(l.SpawnSites), w.cfg.NumAgents)
	}

	g := grid.New(l.Width, l.Height)
	for _, p := range l.Walls {
		if err := g.Set(p, model.Cell{Kind: model.Wall}); err != nil {
			return fmt.Errorf("%w: wall %s: %v", ErrMapInconsistency, p, err)
		}
	}
	for _, p := range l.ResourceSites {
		if err := g.Set(p, model.Cell{Kind: model.Resource}); err != nil {
			return fmt.Errorf("%w: resource site %s: %v", ErrMapInconsistency, p, err)
		}
	}

	free := 0
	seen := make(map[model.Pos]bool, len(l.SpawnSites))
	for _, p := range l.SpawnSites {
		if !l.InBounds(p) {
			return fmt.Errorf("%w: spawn site %s out of bounds", ErrMapInconsistency, p)
		}
		if !seen[p] && g.Kind(p) == model.Empty {
			free++
		}
		seen[p] = true
	}
	if free < w.cfg.NumAgents {
		return fmt.Errorf("%w: %d free spawn sites for %d agents", ErrMapInconsistency, free, w.cfg.NumAgents)
	}

	agents := make(map[string]*Agent, w.cfg.NumAgents)
	order := make([]string, 0, w.cfg.NumAgents)
	for i := 0; i < w.cfg.NumAgents; i++ {
		id := agentID(i)
		p, ok := w.pickSpawn(g)
		if !ok {
			return fmt.Errorf("%w: no free spawn site for %s", ErrMapInconsistency, id)
		}
		a := &Agent{ID: id, Index: i, Pos: p, Facing: orient.All[w.rng.IntN(len(orient.All))]}
		if err := g.Set(p, model.OccupiedBy(id)); err != nil {
			return fmt.Errorf("%w: spawn %s: %v", ErrMapInconsistency, p, err)
		}
		agents[id] = a
		order = append(order, id)
	}

	w.grid = g
	w.agents = agents
	w.order = order
	w.buf.Reset()
	w.firing = w.firing[:0]
	clear(w.hidden)
	w.phase = PhaseIdle
	w.lastStats = TickStats{Resources: g.CountAll(model.Resource)}
	w.episodeStart = w.tick.Load()
	ep := w.episode.Add(1)
	w.logf("episode %d reset at tick %d: %d agents, %d resources", ep, w.episodeStart, len(order), w.lastStats.Resources)
	return nil
}

func (w *World) pickSpawn(g *grid.Grid) (model.Pos, bool) {
	sites := w.layout.SpawnSites
	for attempt := 0; attempt < w.cfg.SpawnAttempts; attempt++ {
		p := sites[w.rng.IntN(len(sites))]
		if g.Kind(p) == model.Empty {
			return p, true
		}
	}
	// Random attempts exhausted: take the first free site in layout order.
	for _, p := range sites {
		if g.Kind(p) == model.Empty {
			return p, true
		}
	}
	return model.Pos{}, false
}

func (w *World) ID() string { return w.cfg.ID }

func (w *World) Config() Config { return w.cfg }

func (w *World) Layout() model.Layout { return w.layout }

func (w *World) TickRateHz() int { return w.cfg.TickRateHz }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Episode() uint64 { return w.episode.Load() }

// EpisodeTick is the number of ticks stepped since the last reset.
func (w *World) EpisodeTick() uint64 { return w.tick.Load() - w.episodeStart }

func (w *World) Phase() Phase { return w.phase }

func (w *World) LastStats() TickStats { return w.lastStats }

// Grid returns a copy of the cells, row-major.
func (w *World) Grid() [][]model.Cell { return w.grid.Rows() }

// Rows renders the grid as symbol rows.
func (w *World) Rows() []string { return w.grid.Symbols() }

// Agents returns every agent ordered by index.
func (w *World) Agents() []AgentState {
	out := make([]AgentState, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.agents[id].State())
	}
	return out
}

func (w *World) Agent(id string) (AgentState, bool) {
	a := w.agents[id]
	if a == nil {
		return AgentState{}, false
	}
	return a.State(), true
}

func (w *World) agentAt(p model.Pos) *Agent {
	for _, id := range w.order {
		if a := w.agents[id]; a.Pos == p {
			return a
		}
	}
	return nil
}

func (w *World) rewards() map[string]int {
	out := make(map[string]int, len(w.agents))
	for id, a := range w.agents {
		out[id] = a.Reward
	}
	return out
}
