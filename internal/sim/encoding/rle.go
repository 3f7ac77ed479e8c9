package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrShape = errors.New("encoding: grid shape mismatch")

// EncodeGrid encodes a row-major grid of cell codes as
// base64(varint width, varint height, (code, run)...).
// Runs may cross row boundaries.
func EncodeGrid(width, height int, codes []uint16) (string, error) {
	if width < 0 || height < 0 || width*height != len(codes) {
		return "", fmt.Errorf("%w: %dx%d with %d codes", ErrShape, width, height, len(codes))
	}
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}
	put(uint64(width))
	put(uint64(height))

	for i := 0; i < len(codes); {
		c := codes[i]
		run := 1
		for j := i + 1; j < len(codes) && codes[j] == c; j++ {
			run++
		}
		put(uint64(c))
		put(uint64(run))
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeGrid reverses EncodeGrid.
func DecodeGrid(b64 string) (width, height int, codes []uint16, err error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return 0, 0, nil, err
	}
	i := 0
	next := func() (uint64, error) {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return 0, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		return v, nil
	}
	w, err := next()
	if err != nil {
		return 0, 0, nil, err
	}
	h, err := next()
	if err != nil {
		return 0, 0, nil, err
	}
	total := w * h
	if total > 1<<24 {
		return 0, 0, nil, fmt.Errorf("%w: %dx%d too large", ErrShape, w, h)
	}
	codes = make([]uint16, 0, total)
	for i < len(raw) {
		c, err := next()
		if err != nil {
			return 0, 0, nil, err
		}
		run, err := next()
		if err != nil {
			return 0, 0, nil, err
		}
		if c > 0xFFFF {
			return 0, 0, nil, fmt.Errorf("cell code too large: %d", c)
		}
		if uint64(len(codes))+run > total {
			return 0, 0, nil, fmt.Errorf("%w: runs exceed %d cells", ErrShape, total)
		}
		for k := uint64(0); k < run; k++ {
			codes = append(codes, uint16(c))
		}
	}
	if uint64(len(codes)) != total {
		return 0, 0, nil, fmt.Errorf("%w: got %d cells want %d", ErrShape, len(codes), total)
	}
	return int(w), int(h), codes, nil
}
