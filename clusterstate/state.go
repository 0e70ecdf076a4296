// Package clusterstate carries the shutdown registry inside versioned,
// replicated cluster-state snapshots and applies committed diffs in strict
// commit order on receiving nodes.
package clusterstate

import (
	"sort"

	"pkt.systems/shutdownmeta"
)

// Custom is a named custom-metadata value carried inside a cluster-state
// snapshot. shutdownmeta.Registry satisfies it; other subsystems can
// register their own entries alongside.
type Custom interface {
	// MetadataKeyName returns the well-known type key the value lives
	// under in the customs map.
	MetadataKeyName() string
	// EncodeWire encodes the value for a peer negotiated at version v.
	EncodeWire(v shutdownmeta.WireVersion) ([]byte, error)
}

// State is one immutable cluster-state snapshot: a monotonic commit version
// plus the extensible custom-metadata map. Every mutation returns a new
// snapshot; the owning replication layer swaps the current pointer and never
// mutates a snapshot in place.
type State struct {
	version int64
	customs map[string]Custom
}

// Empty returns the bootstrap snapshot: version zero, no customs.
func Empty() State { return State{} }

// Version returns the snapshot's commit version.
func (s State) Version() int64 { return s.version }

// WithVersion returns a snapshot identical to the receiver at version v.
func (s State) WithVersion(v int64) State {
	s.version = v
	return s
}

// Custom returns the custom-metadata value under key, if present.
func (s State) Custom(key string) (Custom, bool) {
	c, ok := s.customs[key]
	return c, ok
}

// WithCustom returns a snapshot with c installed under its own key.
func (s State) WithCustom(c Custom) State {
	customs := make(map[string]Custom, len(s.customs)+1)
	for key, existing := range s.customs {
		customs[key] = existing
	}
	customs[c.MetadataKeyName()] = c
	return State{version: s.version, customs: customs}
}

// CustomKeys returns the keys present in the customs map, sorted.
func (s State) CustomKeys() []string {
	keys := make([]string, 0, len(s.customs))
	for key := range s.customs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NodeShutdowns returns the shutdown registry slot. An absent slot is the
// empty registry.
func (s State) NodeShutdowns() shutdownmeta.Registry {
	c, ok := s.customs[shutdownmeta.MetadataKey]
	if !ok {
		return shutdownmeta.Registry{}
	}
	reg, ok := c.(shutdownmeta.Registry)
	if !ok {
		return shutdownmeta.Registry{}
	}
	return reg
}
