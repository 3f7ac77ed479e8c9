package world

import (
	"fmt"
	"sort"

	"commons.ai/internal/sim/world/feature/actions"
	"commons.ai/internal/sim/world/feature/beam"
	"commons.ai/internal/sim/world/feature/movement"
	"commons.ai/internal/sim/world/feature/reservation"
	"commons.ai/internal/sim/world/feature/respawn"
	"commons.ai/internal/sim/world/kernel/model"
)

// intent is one agent's validated and interpreted action for the tick.
type intent struct {
	agent  *Agent
	action actions.Name
	effect actions.Effect
}

// Step advances the world by one tick. actions maps agent id to action name;
// agents without an entry hold still. The whole batch is validated before
// anything is mutated, so a rejected batch leaves the world untouched.
func (w *World) Step(acts map[string]string) error {
	_, err := w.step(acts)
	return err
}

// StepOnce steps and returns the tick that was processed and the state digest
// after it. It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(acts map[string]string) (tick uint64, digest string, err error) {
	tick = w.tick.Load()
	entry, err := w.step(acts)
	if err != nil {
		return tick, "", err
	}
	return tick, entry.Digest, nil
}

func (w *World) step(acts map[string]string) (TickLogEntry, error) {
	if w.inTick {
		return TickLogEntry{}, ErrTickInProgress
	}
	batch, err := w.freeze(acts)
	if err != nil {
		return TickLogEntry{}, err
	}

	w.inTick = true
	defer func() {
		w.inTick = false
		w.phase = PhaseIdle
	}()

	nowTick := w.tick.Load()
	var st TickStats

	w.phase = PhaseClearBeams
	w.clearBeams()

	w.phase = PhaseInterpretActions
	var turns, fires []intent
	for _, in := range batch {
		switch in.effect.Kind {
		case actions.EffectMove:
			w.buf.Add(reservation.Move{Target: in.effect.Target, AgentID: in.agent.ID})
		case actions.EffectTurn:
			turns = append(turns, in)
		case actions.EffectFire:
			fires = append(fires, in)
		}
	}

	w.phase = PhaseResolveMovement
	w.systemMovement(&st)

	w.phase = PhaseApplyRotations
	for _, in := range turns {
		in.agent.Facing = in.effect.Facing
	}

	w.phase = PhasePropagateBeams
	w.systemBeams(fires, &st)

	w.phase = PhaseSpawnAndRespawn
	for _, s := range respawn.Sample(w.grid, w.layout.ResourceSites, w.cfg.ResourceRadius, w.cfg.SpawnProb, w.rng) {
		w.buf.Add(s)
	}

	w.phase = PhaseCommitReservations
	w.buf.Commit(func(r reservation.Reservation) {
		if s, ok := r.(reservation.Spawn); ok && w.commitSpawn(s) {
			st.Spawned++
		}
	})
	w.buf.Reset()

	st.Resources = w.grid.CountAll(model.Resource)
	w.lastStats = st
	w.tick.Add(1)

	recorded := make([]RecordedAction, 0, len(batch))
	for _, in := range batch {
		recorded = append(recorded, RecordedAction{AgentID: in.agent.ID, Action: string(in.action)})
	}
	entry := TickLogEntry{
		Tick:    nowTick,
		Episode: w.episode.Load(),
		Actions: recorded,
		Stats:   st,
		Rewards: w.rewards(),
		Digest:  w.StateDigest(),
	}
	w.writeTick(entry)
	return entry, nil
}

// freeze validates the batch and interprets every action against the
// pre-tick state, in agent id order.
func (w *World) freeze(acts map[string]string) ([]intent, error) {
	ids := make([]string, 0, len(acts))
	for id := range acts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	batch := make([]intent, 0, len(ids))
	for _, id := range ids {
		a := w.agents[id]
		if a == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
		}
		n, err := actions.Parse(acts[id])
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", id, err)
		}
		eff, err := actions.Interpret(n, a.Pos, a.Facing)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", id, err)
		}
		batch = append(batch, intent{agent: a, action: n, effect: eff})
	}
	return batch, nil
}

// clearBeams restores every cell marked by last tick's beams.
func (w *World) clearBeams() {
	for _, p := range w.firing {
		c := model.Cell{Kind: model.Empty}
		if w.hidden[p] {
			c = model.Cell{Kind: model.Resource}
		} else if a := w.agentAt(p); a != nil {
			c = model.OccupiedBy(a.ID)
		}
		_ = w.grid.Set(p, c)
	}
	w.firing = w.firing[:0]
	clear(w.hidden)
	for _, a := range w.agents {
		a.Masked = false
	}
}

func (w *World) passable(p model.Pos) bool {
	return w.grid.InBounds(p) && w.grid.Kind(p) != model.Wall
}

// systemMovement resolves the tick's move claims and applies the result
// atomically: all vacated cells are cleared before any cell is entered.
func (w *World) systemMovement(st *TickStats) {
	claims := w.buf.Moves()
	if len(claims) == 0 {
		return
	}
	pre := make(map[string]model.Pos, len(w.agents))
	for id, a := range w.agents {
		pre[id] = a.Pos
	}
	res := movement.Resolve(pre, claims, w.passable, w.rng)
	st.Moved, st.Contested, st.Blocked, st.Swaps = res.Moved, res.Contested, res.Blocked, res.Swaps

	var movers []*Agent
	for _, id := range w.order {
		a := w.agents[id]
		if res.Final[id] != a.Pos {
			movers = append(movers, a)
		}
	}
	for _, a := range movers {
		if c, _ := w.grid.At(a.Pos); c.Kind == model.Occupant && c.AgentID == a.ID {
			_ = w.grid.Set(a.Pos, model.Cell{Kind: model.Empty})
		}
	}
	for _, a := range movers {
		to := res.Final[a.ID]
		if w.grid.Kind(to) == model.Resource {
			a.Reward += w.cfg.ResourceReward
			st.Harvested++
		}
		a.Pos = to
		_ = w.grid.Set(to, model.OccupiedBy(a.ID))
	}
}

// systemBeams traces every firing agent's beam on the post-movement grid and
// marks the cells immediately, so the respawn density count sees them.
func (w *World) systemBeams(fires []intent, st *TickStats) {
	for _, in := range fires {
		a := in.agent
		cells := beam.Trace(w.grid, a.Pos, in.effect.Facing.Vector(), w.cfg.BeamLength, a.ID)
		for _, c := range cells {
			w.buf.Add(c)
		}
		a.Reward -= w.cfg.FireCost
		st.Fired++
	}
	w.buf.Commit(func(r reservation.Reservation) {
		b, ok := r.(reservation.Beam)
		if !ok {
			return
		}
		cur, _ := w.grid.At(b.At)
		if cur.Kind == model.Occupant && cur.AgentID != b.AgentID {
			if hit := w.agents[cur.AgentID]; hit != nil && !hit.Masked {
				hit.Masked = true
				hit.Reward -= w.cfg.HitPenalty
				st.Hits++
			}
		}
		if b.Hidden {
			w.hidden[b.At] = true
		}
		if cur.Kind != model.Beam {
			w.firing = append(w.firing, b.At)
			st.BeamCells++
		}
		_ = w.grid.Set(b.At, model.Cell{Kind: model.Beam})
	})
}

// commitSpawn writes a resource unless an agent or a beam holds the site.
// A site that already holds a resource is left as is.
func (w *World) commitSpawn(s reservation.Spawn) bool {
	if w.grid.Kind(s.At) != model.Empty {
		return false
	}
	return w.grid.Set(s.At, model.Cell{Kind: model.Resource}) == nil
}

func (w *World) writeTick(entry TickLogEntry) {
	if w.tickLogger == nil {
		return
	}
	if err := w.tickLogger.WriteTick(entry); err != nil {
		w.logf("tick log write failed at tick %d: %v", entry.Tick, err)
	}
}
