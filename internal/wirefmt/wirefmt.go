// Package wirefmt provides the low-level binary stream primitives shared by
// the versioned shutdown-metadata wire codecs: little-endian integers,
// length-prefixed strings, and explicit presence markers for optional
// values. Errors are sticky so codecs can chain field operations and check
// once at the end.
package wirefmt

import (
	"encoding/binary"
	"fmt"
	"math"
)

const maxStringLen = math.MaxUint16

// Writer accumulates an encoded buffer. The zero Writer is ready for use.
type Writer struct {
	buf []byte
	err error
}

// Uint8 appends a single byte.
func (w *Writer) Uint8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, v)
}

// Bool appends 1 or 0.
func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Int64 appends a little-endian int64.
func (w *Writer) Int64(v int64) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// String appends a uint16 length prefix followed by the raw bytes.
func (w *Writer) String(s string) {
	if w.err != nil {
		return
	}
	if len(s) > maxStringLen {
		w.err = fmt.Errorf("wirefmt: string length %d exceeds %d", len(s), maxStringLen)
		return
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// Bytes32 appends a uint32 length prefix followed by the raw bytes.
func (w *Writer) Bytes32(b []byte) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// OptionalInt64 appends a presence byte followed by the value when present.
// Absent values carry no payload; there is no sentinel encoding.
func (w *Writer) OptionalInt64(v int64, present bool) {
	w.Bool(present)
	if present {
		w.Int64(v)
	}
}

// Bytes returns the accumulated buffer, or the first write error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// Reader consumes an encoded buffer. The first decode failure sticks and
// every subsequent read returns a zero value.
type Reader struct {
	data []byte
	off  int
	err  error
}

// NewReader wraps data for decoding.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = fmt.Errorf("wirefmt: short read: need %d bytes at offset %d of %d", n, r.off, len(r.data))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads a presence/flag byte, rejecting values other than 0 and 1.
func (r *Reader) Bool() bool {
	v := r.Uint8()
	if r.err != nil {
		return false
	}
	switch v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.err = fmt.Errorf("wirefmt: invalid bool byte %d", v)
		return false
	}
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Int64 reads a little-endian int64.
func (r *Reader) Int64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// String reads a uint16 length prefix followed by the raw bytes.
func (r *Reader) String() string {
	b := r.take(2)
	if b == nil {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(b))
	s := r.take(n)
	if s == nil {
		return ""
	}
	return string(s)
}

// Bytes32 reads a uint32 length prefix followed by the raw bytes.
func (r *Reader) Bytes32() []byte {
	b := r.take(4)
	if b == nil {
		return nil
	}
	n := int(binary.LittleEndian.Uint32(b))
	p := r.take(n)
	if p == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

// OptionalInt64 reads a presence byte and, when set, the value.
func (r *Reader) OptionalInt64() (int64, bool) {
	if !r.Bool() {
		return 0, false
	}
	if r.err != nil {
		return 0, false
	}
	return r.Int64(), r.err == nil
}

// Err returns the first decode error, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int {
	if r.err != nil {
		return 0
	}
	return len(r.data) - r.off
}
