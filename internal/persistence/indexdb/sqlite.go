package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"commons.ai/internal/sim/tuning"
	"commons.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the tick log. Writes are
// queued and applied by a single writer goroutine in batched transactions.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.TickLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

// EpisodeRow summarises one episode.
type EpisodeRow struct {
	Episode     uint64 `json:"episode"`
	StartTick   uint64 `json:"start_tick"`
	LastTick    uint64 `json:"last_tick"`
	Ticks       int    `json:"ticks"`
	Harvested   int    `json:"harvested"`
	Fired       int    `json:"fired"`
	Hits        int    `json:"hits"`
	TotalReward int    `json:"total_reward"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan world.TickLogEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS config (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER NOT NULL,
			reset INTEGER NOT NULL,
			episode INTEGER NOT NULL,
			digest TEXT NOT NULL,
			actions INTEGER NOT NULL,
			moved INTEGER NOT NULL,
			contested INTEGER NOT NULL,
			harvested INTEGER NOT NULL,
			fired INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			spawned INTEGER NOT NULL,
			resources INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, reset)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_episode ON ticks(episode, tick);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			action TEXT NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_agent_tick ON actions(agent_id, tick);`,
		`CREATE TABLE IF NOT EXISTS rewards (
			episode INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			reward INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			PRIMARY KEY (episode, agent_id)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropped.Add(1)
	}
	return nil
}

// Dropped reports how many entries were discarded because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) QueueDepth() int { return len(s.ch) }

// UpsertConfig stores the tuning values and map rows the world runs with.
func (s *SQLiteIndex) UpsertConfig(tune tuning.Tuning, mapRows []string) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name string
		json []byte
	}
	var rows []kv
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, kv{name: "tuning", json: b})
	}
	if b, err := json.Marshal(mapRows); err == nil && len(mapRows) > 0 {
		rows = append(rows, kv{name: "map", json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO config(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		sum := sha256.Sum256(r.json)
		if _, err := stmt.Exec(r.name, hex.EncodeToString(sum[:]), string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Episodes returns every indexed episode, oldest first.
func (s *SQLiteIndex) Episodes(ctx context.Context) ([]EpisodeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT episode, MIN(tick), MAX(tick), SUM(1 - reset),
		       SUM(harvested), SUM(fired), SUM(hits)
		FROM ticks GROUP BY episode ORDER BY episode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeRow
	for rows.Next() {
		var r EpisodeRow
		var start, last int64
		if err := rows.Scan(&r.Episode, &start, &last, &r.Ticks, &r.Harvested, &r.Fired, &r.Hits); err != nil {
			return nil, err
		}
		r.StartTick, r.LastTick = uint64(start), uint64(last)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totals, err := s.rewardTotals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TotalReward = totals[out[i].Episode]
	}
	return out, nil
}

func (s *SQLiteIndex) rewardTotals(ctx context.Context) (map[uint64]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT episode, SUM(reward) FROM rewards GROUP BY episode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64]int{}
	for rows.Next() {
		var ep uint64
		var total int
		if err := rows.Scan(&ep, &total); err != nil {
			return nil, err
		}
		out[ep] = total
	}
	return out, rows.Err()
}

// Rewards returns the latest reward per agent for one episode.
func (s *SQLiteIndex) Rewards(ctx context.Context, episode uint64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT agent_id, reward FROM rewards WHERE episode=?`, int64(episode))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var r int
		if err := rows.Scan(&id, &r); err != nil {
			return nil, err
		}
		out[id] = r
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,reset,episode,digest,actions,moved,contested,harvested,fired,hits,spawned,resources,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertAction, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(tick,agent_id,action) VALUES(?,?,?)`)
	upsertReward, _ := s.db.Prepare(`INSERT OR REPLACE INTO rewards(episode,agent_id,reward,tick) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertAction, upsertReward} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		if err := writeEntry(tx, insertTick, insertAction, upsertReward, e); err != nil {
			rollback()
			continue
		}
		opCount += 1 + len(e.Actions) + len(e.Rewards)
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

func writeEntry(tx *sql.Tx, insertTick, insertAction, upsertReward *sql.Stmt, e world.TickLogEntry) error {
	if insertTick == nil || insertAction == nil || upsertReward == nil {
		return fmt.Errorf("statements not prepared")
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	reset := 0
	if e.Reset {
		reset = 1
	}
	st := e.Stats
	if _, err := tx.Stmt(insertTick).Exec(
		int64(e.Tick), reset, int64(e.Episode), e.Digest, len(e.Actions),
		st.Moved, st.Contested, st.Harvested, st.Fired, st.Hits, st.Spawned, st.Resources,
		string(raw),
	); err != nil {
		return err
	}
	for _, a := range e.Actions {
		if _, err := tx.Stmt(insertAction).Exec(int64(e.Tick), a.AgentID, a.Action); err != nil {
			return err
		}
	}
	ids := make([]string, 0, len(e.Rewards))
	for id := range e.Rewards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := tx.Stmt(upsertReward).Exec(int64(e.Episode), id, e.Rewards[id], int64(e.Tick)); err != nil {
			return err
		}
	}
	return nil
}
