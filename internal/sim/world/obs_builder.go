package world

import (
	"encoding/json"

	"commons.ai/internal/observerproto"
	"commons.ai/internal/protocol"
	simenc "commons.ai/internal/sim/encoding"
	"commons.ai/internal/sim/world/kernel/model"
	"commons.ai/internal/sim/world/logic/orient"
)

// ObserverJoinRequest registers a read-only observer session that receives
// one TickMsg per tick on TickOut.
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
	WithRows  bool
}

type observerClient struct {
	tickOut  chan []byte
	withRows bool
}

// GridCodes returns the grid as observation codes, row-major:
// 0 empty, 1 wall, 2 resource, 3 beam, 4+i agent with index i.
func (w *World) GridCodes() []uint16 {
	out := make([]uint16, 0, w.grid.Width()*w.grid.Height())
	for _, row := range w.grid.Rows() {
		for _, c := range row {
			out = append(out, w.cellCode(c))
		}
	}
	return out
}

func (w *World) cellCode(c model.Cell) uint16 {
	switch c.Kind {
	case model.Wall:
		return protocol.CodeWall
	case model.Resource:
		return protocol.CodeResource
	case model.Beam:
		return protocol.CodeBeam
	case model.Occupant:
		if a := w.agents[c.AgentID]; a != nil {
			return uint16(protocol.CodeAgent0 + a.Index)
		}
	}
	return protocol.CodeEmpty
}

func (w *World) gridObs() (protocol.GridObs, error) {
	data, err := simenc.EncodeGrid(w.grid.Width(), w.grid.Height(), w.GridCodes())
	if err != nil {
		return protocol.GridObs{}, err
	}
	return protocol.GridObs{Width: w.grid.Width(), Height: w.grid.Height(), Encoding: "RLE", Data: data}, nil
}

func agentObs(a *Agent) protocol.AgentObs {
	return protocol.AgentObs{
		ID:     a.ID,
		Pos:    [2]int{a.Pos.Row, a.Pos.Col},
		Facing: a.Facing.String(),
		Reward: a.Reward,
		Masked: a.Masked,
	}
}

func (w *World) agentsObs() []protocol.AgentObs {
	out := make([]protocol.AgentObs, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, agentObs(w.agents[id]))
	}
	return out
}

// viewObs is the egocentric window of radius r around a, rotated so the
// agent's facing is up: row 0 is the farthest row ahead. Cells off the grid
// read as walls.
func (w *World) viewObs(a *Agent, r int) (protocol.GridObs, error) {
	n := 2*r + 1
	codes := make([]uint16, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := orient.Rotate(model.Pos{Row: i - r, Col: j - r}, a.Facing)
			c, ok := w.grid.At(model.Pos{Row: a.Pos.Row + d.Row, Col: a.Pos.Col + d.Col})
			if !ok {
				codes = append(codes, protocol.CodeWall)
				continue
			}
			codes = append(codes, w.cellCode(c))
		}
	}
	data, err := simenc.EncodeGrid(n, n, codes)
	if err != nil {
		return protocol.GridObs{}, err
	}
	return protocol.GridObs{Width: n, Height: n, Encoding: "RLE", Data: data}, nil
}

// obsFor builds a's observation around the already encoded full grid and
// agent list, which are shared across every client in a tick.
func (w *World) obsFor(a *Agent, g protocol.GridObs, all []protocol.AgentObs) (protocol.ObsMsg, error) {
	msg := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick.Load(),
		Episode:         w.episode.Load(),
		AgentID:         a.ID,
		Self:            agentObs(a),
		Grid:            g,
		Agents:          all,
	}
	if r := w.cfg.ViewRadius; r > 0 {
		v, err := w.viewObs(a, r)
		if err != nil {
			return protocol.ObsMsg{}, err
		}
		msg.View = &v
	}
	return msg, nil
}

func (w *World) worldParams() protocol.WorldParams {
	return protocol.WorldParams{
		WorldID:      w.cfg.ID,
		Width:        w.layout.Width,
		Height:       w.layout.Height,
		NumAgents:    w.cfg.NumAgents,
		TickRateHz:   w.cfg.TickRateHz,
		EpisodeTicks: w.cfg.EpisodeTicks,
		BeamLength:   w.cfg.BeamLength,
		ViewRadius:   w.cfg.ViewRadius,
		Seed:         w.cfg.Seed,
	}
}

// WorldParams is safe to call from any goroutine; it reads only immutable config.
func (w *World) WorldParams() protocol.WorldParams { return w.worldParams() }

// broadcastObs sends the current observation to every connected client.
func (w *World) broadcastObs() {
	if len(w.clients) == 0 {
		return
	}
	g, err := w.gridObs()
	if err != nil {
		w.logf("obs grid encode: %v", err)
		return
	}
	all := w.agentsObs()
	for id, cl := range w.clients {
		a := w.agents[id]
		if a == nil {
			continue
		}
		msg, err := w.obsFor(a, g, all)
		if err != nil {
			w.logf("obs %s: %v", id, err)
			continue
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.TickOut == nil {
		return
	}
	w.observers[req.SessionID] = &observerClient{tickOut: req.TickOut, withRows: req.WithRows}
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

// stepObservers streams one TickMsg for entry to every observer.
func (w *World) stepObservers(entry TickLogEntry) {
	if len(w.observers) == 0 {
		return
	}
	g, err := w.gridObs()
	if err != nil {
		w.logf("observer grid encode: %v", err)
		return
	}
	msg := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            entry.Tick,
		Episode:         entry.Episode,
		Reset:           entry.Reset,
		Grid:            g,
		Agents:          w.agentsObs(),
		Stats: observerproto.TickStats{
			Moved:     entry.Stats.Moved,
			Contested: entry.Stats.Contested,
			Harvested: entry.Stats.Harvested,
			Fired:     entry.Stats.Fired,
			Hits:      entry.Stats.Hits,
			Spawned:   entry.Stats.Spawned,
			Resources: entry.Stats.Resources,
		},
	}
	for _, a := range entry.Actions {
		msg.Actions = append(msg.Actions, observerproto.RecordedAction{AgentID: a.AgentID, Action: a.Action})
	}
	plain, err := json.Marshal(msg)
	if err != nil {
		return
	}
	var withRows []byte
	for _, o := range w.observers {
		if !o.withRows {
			sendLatest(o.tickOut, plain)
			continue
		}
		if withRows == nil {
			msg.Rows = w.grid.Symbols()
			if withRows, err = json.Marshal(msg); err != nil {
				return
			}
		}
		sendLatest(o.tickOut, withRows)
	}
}
