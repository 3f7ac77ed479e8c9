package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"commons.ai/internal/sim/world"
)

// Segments lists the tick segments under worldDir in episode order.
func Segments(worldDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(worldDir, "ticks", "ticks-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadSegment decodes every entry in one segment file, in order.
func ReadSegment(path string, fn func(world.TickLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var e world.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadAll decodes every segment under worldDir in order.
func ReadAll(worldDir string, fn func(world.TickLogEntry) error) error {
	files, err := Segments(worldDir)
	if err != nil {
		return err
	}
	for _, p := range files {
		if err := ReadSegment(p, fn); err != nil {
			return err
		}
	}
	return nil
}
