package clusterstate

import (
	"fmt"

	"pkt.systems/shutdownmeta"
	"pkt.systems/shutdownmeta/internal/wirefmt"
)

const (
	stateMagic      = uint32(0x53444d31) // "SDM1"
	stateFormatByte = uint8(1)
)

// DecodeCustomFunc reconstructs a custom-metadata value from its wire
// payload at the given protocol version.
type DecodeCustomFunc func(payload []byte, v shutdownmeta.WireVersion) (Custom, error)

// Codec encodes and decodes whole cluster-state snapshots. Decoding is
// driven by the per-key decoder registry, so unknown customs fail the whole
// decode instead of being silently dropped.
type Codec struct {
	decoders map[string]DecodeCustomFunc
}

// NewCodec returns a codec with no registered customs.
func NewCodec() *Codec {
	return &Codec{decoders: make(map[string]DecodeCustomFunc)}
}

// DefaultCodec returns a codec with the shutdown registry slot registered.
func DefaultCodec() *Codec {
	c := NewCodec()
	_ = c.Register(shutdownmeta.MetadataKey, func(payload []byte, v shutdownmeta.WireVersion) (Custom, error) {
		return shutdownmeta.DecodeRegistryWire(payload, v)
	})
	return c
}

// Register installs the decoder for a custom-metadata key.
func (c *Codec) Register(key string, fn DecodeCustomFunc) error {
	if key == "" || fn == nil {
		return fmt.Errorf("clusterstate: decoder registration requires key and func")
	}
	if _, dup := c.decoders[key]; dup {
		return fmt.Errorf("clusterstate: decoder for %q already registered", key)
	}
	c.decoders[key] = fn
	return nil
}

// EncodeState encodes a snapshot at wire version v. The header records v so
// the stream is self-describing for local persistence.
func (c *Codec) EncodeState(s State, v shutdownmeta.WireVersion) ([]byte, error) {
	if !v.Supported() {
		return nil, fmt.Errorf("%w: unsupported wire version %d", shutdownmeta.ErrMalformed, v)
	}
	var w wirefmt.Writer
	w.Uint32(stateMagic)
	w.Uint8(stateFormatByte)
	w.Uint32(uint32(v))
	w.Int64(s.version)
	keys := s.CustomKeys()
	w.Uint32(uint32(len(keys)))
	for _, key := range keys {
		payload, err := s.customs[key].EncodeWire(v)
		if err != nil {
			return nil, fmt.Errorf("clusterstate: encode custom %q: %w", key, err)
		}
		w.String(key)
		w.Bytes32(payload)
	}
	return w.Bytes()
}

// DecodeState decodes a snapshot previously produced by EncodeState. Any
// failure aborts the whole decode; no partial state is returned.
func (c *Codec) DecodeState(data []byte) (State, error) {
	rd := wirefmt.NewReader(data)
	if magic := rd.Uint32(); rd.Err() == nil && magic != stateMagic {
		return State{}, fmt.Errorf("%w: cluster state magic mismatch", shutdownmeta.ErrMalformed)
	}
	if format := rd.Uint8(); rd.Err() == nil && format != stateFormatByte {
		return State{}, fmt.Errorf("%w: unsupported cluster state format %d", shutdownmeta.ErrMalformed, format)
	}
	v := shutdownmeta.WireVersion(rd.Uint32())
	version := rd.Int64()
	count := rd.Uint32()
	if err := rd.Err(); err != nil {
		return State{}, fmt.Errorf("%w: %v", shutdownmeta.ErrMalformed, err)
	}
	if !v.Supported() {
		return State{}, fmt.Errorf("%w: unsupported wire version %d", shutdownmeta.ErrMalformed, v)
	}
	state := State{version: version}
	for i := uint32(0); i < count; i++ {
		key := rd.String()
		payload := rd.Bytes32()
		if err := rd.Err(); err != nil {
			return State{}, fmt.Errorf("%w: %v", shutdownmeta.ErrMalformed, err)
		}
		decode, ok := c.decoders[key]
		if !ok {
			return State{}, fmt.Errorf("%w: no decoder for custom %q", shutdownmeta.ErrMalformed, key)
		}
		custom, err := decode(payload, v)
		if err != nil {
			return State{}, fmt.Errorf("clusterstate: decode custom %q: %w", key, err)
		}
		if custom.MetadataKeyName() != key {
			return State{}, fmt.Errorf("%w: custom %q decoded under key %q", shutdownmeta.ErrMalformed, custom.MetadataKeyName(), key)
		}
		state = state.WithCustom(custom)
	}
	if rd.Remaining() != 0 {
		return State{}, fmt.Errorf("%w: %d trailing bytes after cluster state", shutdownmeta.ErrMalformed, rd.Remaining())
	}
	return state, nil
}
