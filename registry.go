package shutdownmeta

import "sort"

// MetadataKey is the well-known type key under which the registry lives in
// the cluster's extensible custom metadata map.
const MetadataKey = "node_shutdowns"

// Registry is an immutable mapping from node ID to that node's current
// shutdown record. Every mutating-looking operation returns a fresh snapshot
// and leaves the receiver untouched, so a snapshot can be shared by any
// number of concurrent readers without locking. The zero Registry is the
// empty registry.
type Registry struct {
	records map[string]Record
}

// NewRegistry builds a registry holding the supplied records, keyed by node
// ID. Later records overwrite earlier ones with the same node ID.
func NewRegistry(records ...Record) Registry {
	if len(records) == 0 {
		return Registry{}
	}
	m := make(map[string]Record, len(records))
	for _, rec := range records {
		m[rec.NodeID()] = rec
	}
	return Registry{records: m}
}

// MetadataKeyName identifies the registry inside generic custom metadata.
func (Registry) MetadataKeyName() string { return MetadataKey }

// Get returns the record for nodeID, if present.
func (r Registry) Get(nodeID string) (Record, bool) {
	rec, ok := r.records[nodeID]
	return rec, ok
}

// Contains reports whether any shutdown record exists for nodeID, regardless
// of the record's type.
func (r Registry) Contains(nodeID string) bool {
	_, ok := r.records[nodeID]
	return ok
}

// MarkedForRemoval reports whether nodeID has a shutdown record whose type
// permanently removes the node. Nodes without a record are not marked.
func (r Registry) MarkedForRemoval(nodeID string) bool {
	rec, ok := r.records[nodeID]
	return ok && rec.MarkedForRemoval()
}

// Len returns the number of records in the snapshot.
func (r Registry) Len() int { return len(r.records) }

// Put returns a new snapshot with rec inserted under its node ID. An
// existing entry for the same node ID is replaced outright; prior attributes
// are not merged.
func (r Registry) Put(rec Record) Registry {
	m := make(map[string]Record, len(r.records)+1)
	for id, existing := range r.records {
		m[id] = existing
	}
	m[rec.NodeID()] = rec
	return Registry{records: m}
}

// Remove returns a new snapshot without an entry for nodeID. Removing an
// absent key is a no-op that still yields a fresh snapshot.
func (r Registry) Remove(nodeID string) Registry {
	if _, ok := r.records[nodeID]; !ok {
		return Registry{records: r.records}
	}
	m := make(map[string]Record, len(r.records)-1)
	for id, existing := range r.records {
		if id != nodeID {
			m[id] = existing
		}
	}
	return Registry{records: m}
}

// All returns every record ordered by node ID.
func (r Registry) All() []Record {
	out := make([]Record, 0, len(r.records))
	for _, id := range r.NodeIDs() {
		out = append(out, r.records[id])
	}
	return out
}

// NodeIDs returns the node IDs present in the snapshot, sorted.
func (r Registry) NodeIDs() []string {
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Equal reports whether both snapshots hold the same records.
func (r Registry) Equal(other Registry) bool {
	if len(r.records) != len(other.records) {
		return false
	}
	for id, rec := range r.records {
		otherRec, ok := other.records[id]
		if !ok || !rec.Equal(otherRec) {
			return false
		}
	}
	return true
}
