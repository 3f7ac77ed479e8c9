package encoding

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestGrid_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 60)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 0)
	}
	in = append(in, 4, 5, 5, 1)

	enc, err := EncodeGrid(10, 6, in)
	if err != nil {
		t.Fatalf("EncodeGrid: %v", err)
	}
	w, h, out, err := DecodeGrid(enc)
	if err != nil {
		t.Fatalf("DecodeGrid: %v", err)
	}
	if w != 10 || h != 6 {
		t.Fatalf("shape: got %dx%d", w, h)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestGrid_ShapeMismatch(t *testing.T) {
	if _, err := EncodeGrid(3, 3, make([]uint16, 8)); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	if _, _, _, err := DecodeGrid("!!"); err == nil {
		t.Fatalf("expected base64 error")
	}
	// header 2x2, one run of 5 cells
	bad := base64.StdEncoding.EncodeToString([]byte{2, 2, 0, 5})
	if _, _, _, err := DecodeGrid(bad); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for overlong run, got %v", err)
	}
	// header 2x2, one run of 3 cells
	short := base64.StdEncoding.EncodeToString([]byte{2, 2, 0, 3})
	if _, _, _, err := DecodeGrid(short); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for short body, got %v", err)
	}
}

func TestGrid_Empty(t *testing.T) {
	enc, err := EncodeGrid(0, 0, nil)
	if err != nil {
		t.Fatalf("EncodeGrid: %v", err)
	}
	w, h, out, err := DecodeGrid(enc)
	if err != nil || w != 0 || h != 0 || len(out) != 0 {
		t.Fatalf("unexpected: %d %d %v %v", w, h, out, err)
	}
}
