package wirefmt_test

import (
	"strings"
	"testing"

	"pkt.systems/shutdownmeta/internal/wirefmt"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	var w wirefmt.Writer
	w.String("node-1")
	w.Uint8(7)
	w.Bool(true)
	w.Int64(-42)
	w.Uint32(123456)
	w.OptionalInt64(300000, true)
	w.OptionalInt64(0, false)
	w.Bytes32([]byte{0xde, 0xad})
	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	r := wirefmt.NewReader(data)
	if got := r.String(); got != "node-1" {
		t.Fatalf("expected node-1, got %q", got)
	}
	if got := r.Uint8(); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if !r.Bool() {
		t.Fatal("expected true")
	}
	if got := r.Int64(); got != -42 {
		t.Fatalf("expected -42, got %d", got)
	}
	if got := r.Uint32(); got != 123456 {
		t.Fatalf("expected 123456, got %d", got)
	}
	if v, ok := r.OptionalInt64(); !ok || v != 300000 {
		t.Fatalf("expected present 300000, got %d (present=%v)", v, ok)
	}
	if v, ok := r.OptionalInt64(); ok || v != 0 {
		t.Fatalf("expected absent optional, got %d (present=%v)", v, ok)
	}
	if got := r.Bytes32(); len(got) != 2 || got[0] != 0xde || got[1] != 0xad {
		t.Fatalf("unexpected bytes %x", got)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("reader: %v", err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected fully consumed buffer, %d bytes left", r.Remaining())
	}
}

func TestReaderShortReadSticks(t *testing.T) {
	t.Parallel()

	r := wirefmt.NewReader([]byte{0x05, 0x00, 'a'})
	if got := r.String(); got != "" {
		t.Fatalf("expected empty string on short read, got %q", got)
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "short read") {
		t.Fatalf("expected short read error, got %v", err)
	}
	// Subsequent reads keep returning zero values and the original error.
	if got := r.Int64(); got != 0 {
		t.Fatalf("expected 0 after sticky error, got %d", got)
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "short read") {
		t.Fatalf("expected sticky short read error, got %v", err)
	}
}

func TestReaderRejectsInvalidBool(t *testing.T) {
	t.Parallel()

	r := wirefmt.NewReader([]byte{0x02})
	if r.Bool() {
		t.Fatal("expected false on invalid bool byte")
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "invalid bool") {
		t.Fatalf("expected invalid bool error, got %v", err)
	}
}

func TestWriterRejectsOversizedString(t *testing.T) {
	t.Parallel()

	var w wirefmt.Writer
	w.String(strings.Repeat("x", 1<<16))
	if _, err := w.Bytes(); err == nil {
		t.Fatal("expected error for oversized string")
	}
}
