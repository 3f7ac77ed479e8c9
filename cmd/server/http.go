package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"time"

	"commons.ai/internal/persistence/indexdb"
	"commons.ai/internal/sim/world"
	"commons.ai/internal/transport/observer"
	"commons.ai/internal/transport/ws"
)

type httpDeps struct {
	world     *world.World
	index     *indexdb.SQLiteIndex
	mapDigest string
	logger    *log.Logger

	enableAdmin bool
	enablePprof bool
}

func newMux(d httpDeps) *http.ServeMux {
	w := d.world
	worldID := w.ID()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, worldID, w.Metrics(), d.index)
	})

	if d.enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !observer.IsLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				Tick    uint64             `json:"tick"`
				Episode uint64             `json:"episode"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: worldID,
				Tick:    w.CurrentTick(),
				Episode: w.Episode(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/reset", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !observer.IsLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			err := w.RequestReset(ctx)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": w.CurrentTick(), "episode": w.Episode()})
		})
		mux.HandleFunc("/admin/v1/episodes", func(rw http.ResponseWriter, r *http.Request) {
			if !observer.IsLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if d.index == nil {
				http.Error(rw, "index disabled", http.StatusNotFound)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			rw.Header().Set("Content-Type", "application/json")

			// ?episode=N returns per-agent reward totals for one episode.
			if s := strings.TrimSpace(r.URL.Query().Get("episode")); s != "" {
				ep, err := strconv.ParseUint(s, 10, 64)
				if err != nil {
					http.Error(rw, "bad episode", http.StatusBadRequest)
					return
				}
				rewards, err := d.index.Rewards(ctx, ep)
				if err != nil {
					http.Error(rw, err.Error(), http.StatusInternalServerError)
					return
				}
				_ = json.NewEncoder(rw).Encode(map[string]any{"episode": ep, "rewards": rewards})
				return
			}
			eps, err := d.index.Episodes(ctx)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"episodes": eps})
		})

		obsSrv := observer.NewServer(w, d.logger)
		obsSrv.MapDigest = d.mapDigest
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	}
	if d.enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, d.logger).Handler())
	return mux
}

// writeMetrics renders the minimal Prometheus exposition format.
func writeMetrics(rw http.ResponseWriter, worldID string, m world.WorldMetrics, idx *indexdb.SQLiteIndex) {
	fmt.Fprintf(rw, "# HELP commons_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_tick gauge\n")
	fmt.Fprintf(rw, "commons_world_tick{world=%q} %d\n", worldID, m.Tick)

	fmt.Fprintf(rw, "# HELP commons_world_episode Current episode number.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_episode gauge\n")
	fmt.Fprintf(rw, "commons_world_episode{world=%q} %d\n", worldID, m.Episode)

	fmt.Fprintf(rw, "# HELP commons_world_agents Number of agents in the world.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_agents gauge\n")
	fmt.Fprintf(rw, "commons_world_agents{world=%q} %d\n", worldID, m.Agents)

	fmt.Fprintf(rw, "# HELP commons_world_clients Current number of connected clients.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_clients gauge\n")
	fmt.Fprintf(rw, "commons_world_clients{world=%q} %d\n", worldID, m.Clients)

	fmt.Fprintf(rw, "# HELP commons_world_resources Resources currently on the grid.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_resources gauge\n")
	fmt.Fprintf(rw, "commons_world_resources{world=%q} %d\n", worldID, m.Resources)

	fmt.Fprintf(rw, "# HELP commons_world_resource_occupancy Fraction of resource sites holding a resource.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_resource_occupancy gauge\n")
	fmt.Fprintf(rw, "commons_world_resource_occupancy{world=%q} %.6f\n", worldID, m.ResourceOccupancy)

	fmt.Fprintf(rw, "# HELP commons_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "commons_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "commons_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(rw, "commons_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)
	fmt.Fprintf(rw, "commons_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "reset", m.QueueDepths.Reset)

	fmt.Fprintf(rw, "# HELP commons_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE commons_world_step_ms gauge\n")
	fmt.Fprintf(rw, "commons_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(rw, "# HELP commons_last_tick Events in the last stepped tick.\n")
	fmt.Fprintf(rw, "# TYPE commons_last_tick gauge\n")
	fmt.Fprintf(rw, "commons_last_tick{world=%q,event=%q} %d\n", worldID, "moved", m.LastTick.Moved)
	fmt.Fprintf(rw, "commons_last_tick{world=%q,event=%q} %d\n", worldID, "contested", m.LastTick.Contested)
	fmt.Fprintf(rw, "commons_last_tick{world=%q,event=%q} %d\n", worldID, "harvested", m.LastTick.Harvested)
	fmt.Fprintf(rw, "commons_last_tick{world=%q,event=%q} %d\n", worldID, "fired", m.LastTick.Fired)
	fmt.Fprintf(rw, "commons_last_tick{world=%q,event=%q} %d\n", worldID, "hits", m.LastTick.Hits)
	fmt.Fprintf(rw, "commons_last_tick{world=%q,event=%q} %d\n", worldID, "spawned", m.LastTick.Spawned)

	if idx != nil {
		fmt.Fprintf(rw, "# HELP commons_index_queue_depth Pending index writes.\n")
		fmt.Fprintf(rw, "# TYPE commons_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "commons_index_queue_depth{world=%q} %d\n", worldID, idx.QueueDepth())

		fmt.Fprintf(rw, "# HELP commons_index_dropped_total Tick entries dropped by the index under backpressure.\n")
		fmt.Fprintf(rw, "# TYPE commons_index_dropped_total counter\n")
		fmt.Fprintf(rw, "commons_index_dropped_total{world=%q} %d\n", worldID, idx.Dropped())
	}
}
