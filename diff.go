package shutdownmeta

import "sort"

// Diff captures the delta between two registry snapshots: full records for
// every node that was added or changed, and the node IDs whose records were
// removed. A Diff exists only for the duration of one replication step; it
// is never persisted.
type Diff struct {
	upserts map[string]Record
	removed []string
}

// NewDiff builds a diff from explicit upserts and removals, primarily for
// the transport layer reconstructing a decoded delta.
func NewDiff(upserts []Record, removed []string) Diff {
	d := Diff{}
	if len(upserts) > 0 {
		d.upserts = make(map[string]Record, len(upserts))
		for _, rec := range upserts {
			d.upserts[rec.NodeID()] = rec
		}
	}
	if len(removed) > 0 {
		d.removed = append([]string(nil), removed...)
		sort.Strings(d.removed)
	}
	return d
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool { return len(d.upserts) == 0 && len(d.removed) == 0 }

// Upserts returns the added or changed records ordered by node ID.
func (d Diff) Upserts() []Record {
	ids := make([]string, 0, len(d.upserts))
	for id := range d.upserts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.upserts[id])
	}
	return out
}

// Removed returns the removed node IDs, sorted.
func (d Diff) Removed() []string {
	return append([]string(nil), d.removed...)
}

// DiffSince computes the minimal delta that turns base into the receiver.
// A record counts as changed under plain value inequality; there is no
// partial-field diffing.
func (r Registry) DiffSince(base Registry) Diff {
	var upserts map[string]Record
	for id, rec := range r.records {
		baseRec, ok := base.records[id]
		if ok && rec.Equal(baseRec) {
			continue
		}
		if upserts == nil {
			upserts = make(map[string]Record)
		}
		upserts[id] = rec
	}
	var removed []string
	for id := range base.records {
		if _, ok := r.records[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return Diff{upserts: upserts, removed: removed}
}

// ApplyDiff replays the diff against the receiver: upserts overwrite and
// removals delete. Applied to the same base the diff was computed against,
// the result equals the sender's post-diff snapshot exactly.
func (r Registry) ApplyDiff(d Diff) Registry {
	m := make(map[string]Record, len(r.records)+len(d.upserts))
	for id, rec := range r.records {
		m[id] = rec
	}
	for id, rec := range d.upserts {
		m[id] = rec
	}
	for _, id := range d.removed {
		delete(m, id)
	}
	return Registry{records: m}
}
