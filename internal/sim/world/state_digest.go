package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// StateDigest hashes the grid, the agents and the pending beam state at the
// current tick.
func (w *World) StateDigest() string { return w.stateDigest(w.tick.Load()) }

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, w.episode.Load())
	digestWriteU64(h, &tmp, uint64(w.grid.Width()))
	digestWriteU64(h, &tmp, uint64(w.grid.Height()))
	for _, row := range w.grid.Symbols() {
		h.Write([]byte(row))
	}
	for _, id := range w.order {
		a := w.agents[id]
		h.Write([]byte(a.ID))
		digestWriteI64(h, &tmp, int64(a.Pos.Row))
		digestWriteI64(h, &tmp, int64(a.Pos.Col))
		h.Write([]byte{byte(a.Facing), boolByte(a.Masked)})
		digestWriteI64(h, &tmp, int64(a.Reward))
	}
	// Hidden resources are not visible in the symbol rows.
	for _, p := range w.firing {
		if w.hidden[p] {
			digestWriteI64(h, &tmp, int64(p.Row))
			digestWriteI64(h, &tmp, int64(p.Col))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
