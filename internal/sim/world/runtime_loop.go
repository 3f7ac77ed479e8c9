package world

import (
	"context"
	"errors"
	"time"

	"commons.ai/internal/protocol"
	"commons.ai/internal/sim/world/feature/actions"
)

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }

func (w *World) Join() chan<- JoinRequest { return w.join }

func (w *World) Leave() chan<- string { return w.leave }

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }

func (w *World) ObserverLeave() chan<- string { return w.observerLeave }

// Run owns the world until ctx is cancelled or Stop is called. Actions received
// between two ticker edges are frozen into one batch; the latest action per
// agent wins.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := map[string]string{}
	var pendingResets []ResetRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			w.handleLeave(id)
			delete(pending, id)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case req := <-w.resetReq:
			pendingResets = append(pendingResets, req)
		case env := <-w.inbox:
			pending[env.AgentID] = env.Action
		case <-ticker.C:
			w.stepInternal(pending)
			w.handleResetRequests(pendingResets)
			clear(pending)
			pendingResets = pendingResets[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// stepInternal runs one loop tick: the frozen batch, then the automatic
// episode reset when the episode is over.
func (w *World) stepInternal(pending map[string]string) {
	stepStart := time.Now()

	batch := make(map[string]string, len(pending))
	for id, act := range pending {
		if w.agents[id] == nil {
			w.logf("dropping action for unknown agent %q", id)
			continue
		}
		if _, err := actions.Parse(act); err != nil {
			w.logf("dropping action for %s: %v", id, err)
			continue
		}
		batch[id] = act
	}

	entry, err := w.step(batch)
	if err != nil {
		w.logf("step tick %d: %v", w.tick.Load(), err)
		return
	}
	w.broadcastObs()
	w.stepObservers(entry)

	if w.cfg.EpisodeTicks > 0 && w.EpisodeTick() >= uint64(w.cfg.EpisodeTicks) {
		w.resetAndNotify()
	}
	w.publishMetrics(float64(time.Since(stepStart).Microseconds()) / 1000.0)
}

func (w *World) handleResetRequests(reqs []ResetRequest) {
	if len(reqs) == 0 {
		return
	}
	errs := make([]error, len(reqs))
	for i := range reqs {
		errs[i] = w.resetAndNotify()
	}
	// Publish before answering so callers observe the new episode.
	w.publishMetrics(w.Metrics().StepMS)
	for i, req := range reqs {
		if req.Resp != nil {
			req.Resp <- errs[i]
		}
	}
}

func (w *World) resetAndNotify() error {
	entry, err := w.reset()
	if err != nil {
		w.logf("reset: %v", err)
		return err
	}
	w.broadcastObs()
	w.stepObservers(entry)
	return nil
}

func (w *World) handleJoin(req JoinRequest) {
	resp := w.joinClient(req)
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (w *World) joinClient(req JoinRequest) JoinResponse {
	id := req.AgentID
	switch {
	case id != "" && w.agents[id] == nil:
		return JoinResponse{Err: protocol.ErrUnknownAgent}
	case id != "" && w.clients[id] != nil:
		return JoinResponse{Err: protocol.ErrAgentTaken}
	case id == "":
		for _, cand := range w.order {
			if w.clients[cand] == nil {
				id = cand
				break
			}
		}
		if id == "" {
			return JoinResponse{Err: protocol.ErrWorldBusy}
		}
	}
	if req.Out != nil {
		w.clients[id] = &clientState{Out: req.Out}
	}
	names := make([]string, 0, len(actions.Names))
	for _, n := range actions.Names {
		names = append(names, string(n))
	}
	w.logf("client attached to %s", id)
	return JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         id,
		WorldParams:     w.worldParams(),
		Actions:         names,
	}}
}

func (w *World) handleLeave(agentID string) {
	if _, ok := w.clients[agentID]; ok {
		delete(w.clients, agentID)
		w.logf("client detached from %s", agentID)
	}
}

// RequestReset asks the loop to reset at the next tick boundary and waits for
// the outcome.
func (w *World) RequestReset(ctx context.Context) error {
	req := ResetRequest{Resp: make(chan error, 1)}
	select {
	case w.resetReq <- req:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("reset queue full")
	}
	select {
	case err := <-req.Resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
