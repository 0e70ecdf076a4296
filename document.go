package shutdownmeta

import (
	"encoding/json"
	"time"
)

// recordDocument is the self-describing field/value form of a Record,
// consumed by the HTTP-facing and diagnostic layers. Parsing funnels
// through Builder so document and wire input share one validator.
type recordDocument struct {
	NodeID                string `json:"node_id"`
	NodeEphemeralID       string `json:"node_ephemeral_id"`
	Type                  string `json:"type"`
	Reason                string `json:"reason"`
	StartedAtMillis       int64  `json:"shutdown_startedmillis"`
	NodeSeen              bool   `json:"node_seen"`
	AllocationDelayMillis *int64 `json:"allocation_delay_millis,omitempty"`
	TargetNodeName        string `json:"target_node_name,omitempty"`
	GracePeriodMillis     *int64 `json:"grace_period_millis,omitempty"`
}

// MarshalJSON renders the record as its structured document form.
func (r Record) MarshalJSON() ([]byte, error) {
	doc := recordDocument{
		NodeID:          r.nodeID,
		NodeEphemeralID: r.nodeEphemeralID,
		Type:            r.typ.String(),
		Reason:          r.reason,
		StartedAtMillis: r.startedAtMillis,
		NodeSeen:        r.nodeSeen,
		TargetNodeName:  r.targetNodeName,
	}
	if r.hasAllocationDelay {
		millis := r.allocationDelay.Milliseconds()
		doc.AllocationDelayMillis = &millis
	}
	if r.typ == TypeSigterm {
		millis := r.gracePeriod.Milliseconds()
		doc.GracePeriodMillis = &millis
	}
	return json.Marshal(doc)
}

// UnmarshalJSON parses the structured document form, applying the same
// validation as Builder construction.
func (r *Record) UnmarshalJSON(data []byte) error {
	var doc recordDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return malformed("%v", err)
	}
	typ, err := ParseType(doc.Type)
	if err != nil {
		return err
	}
	b := NewBuilder().
		NodeID(doc.NodeID).
		NodeEphemeralID(doc.NodeEphemeralID).
		Type(typ).
		Reason(doc.Reason).
		StartedAtMillis(doc.StartedAtMillis).
		NodeSeen(doc.NodeSeen)
	if doc.AllocationDelayMillis != nil {
		b.AllocationDelay(time.Duration(*doc.AllocationDelayMillis) * time.Millisecond)
	}
	if doc.TargetNodeName != "" {
		b.TargetNodeName(doc.TargetNodeName)
	}
	if doc.GracePeriodMillis != nil {
		b.GracePeriod(time.Duration(*doc.GracePeriodMillis) * time.Millisecond)
	}
	rec, err := b.Build()
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// registryDocument mirrors the cluster metadata view: one entry per node,
// keyed by node ID.
type registryDocument struct {
	Nodes map[string]Record `json:"nodes"`
}

// MarshalJSON renders the registry as a node-keyed document.
func (r Registry) MarshalJSON() ([]byte, error) {
	doc := registryDocument{Nodes: make(map[string]Record, len(r.records))}
	for id, rec := range r.records {
		doc.Nodes[id] = rec
	}
	return json.Marshal(doc)
}

// UnmarshalJSON parses a node-keyed registry document. Entries whose key
// disagrees with the embedded node ID make the whole document invalid.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var doc registryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	records := make(map[string]Record, len(doc.Nodes))
	for id, rec := range doc.Nodes {
		if id != rec.NodeID() {
			return malformed("registry key %q does not match record node id %q", id, rec.NodeID())
		}
		records[id] = rec
	}
	if len(records) == 0 {
		*r = Registry{}
		return nil
	}
	*r = Registry{records: records}
	return nil
}
