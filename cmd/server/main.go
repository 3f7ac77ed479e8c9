package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "commons.ai/internal/persistence/log"
	"commons.ai/internal/sim/maps"
	"commons.ai/internal/sim/tuning"
	"commons.ai/internal/sim/world"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "harvest_1", "world id")
		seed       = flag.Int64("seed", 0, "rng seed (0 keeps the tuning value)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		mapPath    = flag.String("map", "", "layout file (overrides tuning map_path; empty uses the built-in map)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite episode index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if strings.TrimSpace(*mapPath) != "" {
		tune.MapPath = *mapPath
	}

	m, err := maps.Load(tune.MapPath)
	if err != nil {
		logger.Fatalf("load map: %v", err)
	}

	w, err := world.New(world.ConfigFromTuning(*worldID, tune), m.Layout)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertConfig(tune, m.Rows); err != nil {
			logger.Printf("index backend: upsert config: %v", err)
		}
		w.SetTickLogger(persistlog.Tee(tickLog, idx))
	} else {
		w.SetTickLogger(tickLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := newMux(httpDeps{
		world:       w,
		index:       idx,
		mapDigest:   m.Digest,
		logger:      logger,
		enableAdmin: envBool("COMMONS_ENABLE_ADMIN_HTTP", true),
		enablePprof: envBool("COMMONS_ENABLE_PPROF_HTTP", false),
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world=%s map=%dx%d agents=%d seed=%d digest=%s", *worldID, m.Layout.Width, m.Layout.Height, tune.NumAgents, tune.Seed, m.Digest[:12])
	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
