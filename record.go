package shutdownmeta

import (
	"strings"
	"time"
)

// Type classifies the shutdown lifecycle event a node is undergoing.
type Type uint8

const (
	// TypeRestart marks a node that is expected to return with the same
	// role. Shard allocation should wait rather than evacuate permanently.
	TypeRestart Type = iota + 1
	// TypeRemove marks a node being removed from the cluster for good.
	TypeRemove
	// TypeReplace marks a node whose data is handed over to a named
	// replacement node before it leaves.
	TypeReplace
	// TypeSigterm marks a node that received a termination signal and will
	// be force-killed once its grace period elapses.
	TypeSigterm
)

func (t Type) String() string {
	switch t {
	case TypeRestart:
		return "restart"
	case TypeRemove:
		return "remove"
	case TypeReplace:
		return "replace"
	case TypeSigterm:
		return "sigterm"
	default:
		return "unknown"
	}
}

// ParseType resolves a textual shutdown type, case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "restart":
		return TypeRestart, nil
	case "remove":
		return TypeRemove, nil
	case "replace":
		return TypeReplace, nil
	case "sigterm":
		return TypeSigterm, nil
	default:
		return 0, malformed("unknown shutdown type %q", s)
	}
}

// MarkedForRemoval reports whether shard allocation must treat a node with
// this shutdown type as leaving the cluster permanently. Only a restarting
// node is expected back.
func (t Type) MarkedForRemoval() bool {
	return t == TypeRemove || t == TypeReplace || t == TypeSigterm
}

// Record is an immutable description of one node's shutdown intent. Records
// are built through Builder, which enforces that exactly the parameter set
// belonging to the record's type is present.
type Record struct {
	nodeID          string
	nodeEphemeralID string
	typ             Type
	reason          string
	startedAtMillis int64
	nodeSeen        bool

	// Exactly one of the following groups is populated, per typ.
	allocationDelay    time.Duration
	hasAllocationDelay bool
	targetNodeName     string
	gracePeriod        time.Duration
}

// NodeID returns the stable cluster identity of the shutting-down node.
func (r Record) NodeID() string { return r.nodeID }

// NodeEphemeralID returns the identity of the specific process instance,
// distinguishing a restarted process from its predecessor.
func (r Record) NodeEphemeralID() string { return r.nodeEphemeralID }

// Type returns the shutdown lifecycle type.
func (r Record) Type() Type { return r.typ }

// Reason returns the free-text reason supplied when the shutdown was
// registered.
func (r Record) Reason() string { return r.reason }

// StartedAtMillis returns the epoch timestamp at which the shutdown was
// registered.
func (r Record) StartedAtMillis() int64 { return r.startedAtMillis }

// NodeSeen reports whether the cluster has observed the node leave since the
// shutdown was registered.
func (r Record) NodeSeen() bool { return r.nodeSeen }

// AllocationDelay returns the reallocation delay for restart shutdowns. The
// second return is false when the record carries no explicit delay.
func (r Record) AllocationDelay() (time.Duration, bool) {
	return r.allocationDelay, r.hasAllocationDelay
}

// TargetNodeName returns the replacement node name for replace shutdowns.
func (r Record) TargetNodeName() string { return r.targetNodeName }

// GracePeriod returns the termination grace period for sigterm shutdowns.
func (r Record) GracePeriod() time.Duration { return r.gracePeriod }

// MarkedForRemoval reports whether this record marks the node as leaving the
// cluster permanently.
func (r Record) MarkedForRemoval() bool { return r.typ.MarkedForRemoval() }

// Equal reports plain value equality over every attribute.
func (r Record) Equal(other Record) bool { return r == other }

// WithNodeSeen returns a copy of the record with the node-seen flag set.
// All other attributes are unchanged, so the copy is valid by construction.
func (r Record) WithNodeSeen(seen bool) Record {
	r.nodeSeen = seen
	return r
}

// Builder assembles a Record. Build validates the required fields and the
// exhaustive-and-exclusive pairing of shutdown type and type-specific
// parameter; the zero Builder is ready for use.
type Builder struct {
	rec            Record
	hasType        bool
	hasStartedAt   bool
	hasGracePeriod bool
}

// NewBuilder returns an empty record builder.
func NewBuilder() *Builder { return &Builder{} }

// NodeID sets the stable node identity.
func (b *Builder) NodeID(id string) *Builder {
	b.rec.nodeID = id
	return b
}

// NodeEphemeralID sets the process-instance identity.
func (b *Builder) NodeEphemeralID(id string) *Builder {
	b.rec.nodeEphemeralID = id
	return b
}

// Type sets the shutdown lifecycle type.
func (b *Builder) Type(t Type) *Builder {
	b.rec.typ = t
	b.hasType = true
	return b
}

// Reason sets the free-text shutdown reason.
func (b *Builder) Reason(reason string) *Builder {
	b.rec.reason = reason
	return b
}

// StartedAtMillis sets the epoch timestamp of shutdown registration.
func (b *Builder) StartedAtMillis(millis int64) *Builder {
	b.rec.startedAtMillis = millis
	b.hasStartedAt = true
	return b
}

// NodeSeen records whether the node has already been observed leaving.
func (b *Builder) NodeSeen(seen bool) *Builder {
	b.rec.nodeSeen = seen
	return b
}

// AllocationDelay sets the restart reallocation delay. Valid only for
// restart records.
func (b *Builder) AllocationDelay(d time.Duration) *Builder {
	b.rec.allocationDelay = d
	b.rec.hasAllocationDelay = true
	return b
}

// TargetNodeName sets the replacement node name. Required for replace
// records and forbidden elsewhere.
func (b *Builder) TargetNodeName(name string) *Builder {
	b.rec.targetNodeName = name
	return b
}

// GracePeriod sets the termination grace period. Required for sigterm
// records and forbidden elsewhere.
func (b *Builder) GracePeriod(d time.Duration) *Builder {
	b.rec.gracePeriod = d
	b.hasGracePeriod = true
	return b
}

// Build validates the assembled attributes and returns the immutable record.
func (b *Builder) Build() (Record, error) {
	if strings.TrimSpace(b.rec.nodeID) == "" {
		return Record{}, ValidationError{Field: "node_id", Detail: "required"}
	}
	if strings.TrimSpace(b.rec.nodeEphemeralID) == "" {
		return Record{}, ValidationError{Field: "node_ephemeral_id", Detail: "required"}
	}
	if !b.hasType {
		return Record{}, ValidationError{Field: "type", Detail: "required"}
	}
	if strings.TrimSpace(b.rec.reason) == "" {
		return Record{}, ValidationError{Field: "reason", Detail: "required"}
	}
	if !b.hasStartedAt {
		return Record{}, ValidationError{Field: "shutdown_startedmillis", Detail: "required"}
	}
	if b.rec.startedAtMillis < 0 {
		return Record{}, ValidationError{Field: "shutdown_startedmillis", Detail: "must be non-negative"}
	}

	switch b.rec.typ {
	case TypeRestart:
		if b.rec.hasAllocationDelay && b.rec.allocationDelay < 0 {
			return Record{}, ValidationError{Field: "allocation_delay", Detail: "must be non-negative"}
		}
		if b.rec.targetNodeName != "" {
			return Record{}, ValidationError{Field: "target_node_name", Detail: "only valid for replace shutdowns"}
		}
		if b.hasGracePeriod {
			return Record{}, ValidationError{Field: "grace_period", Detail: "only valid for sigterm shutdowns"}
		}
	case TypeRemove:
		if b.rec.hasAllocationDelay {
			return Record{}, ValidationError{Field: "allocation_delay", Detail: "only valid for restart shutdowns"}
		}
		if b.rec.targetNodeName != "" {
			return Record{}, ValidationError{Field: "target_node_name", Detail: "only valid for replace shutdowns"}
		}
		if b.hasGracePeriod {
			return Record{}, ValidationError{Field: "grace_period", Detail: "only valid for sigterm shutdowns"}
		}
	case TypeReplace:
		if strings.TrimSpace(b.rec.targetNodeName) == "" {
			return Record{}, ValidationError{Field: "target_node_name", Detail: "required for replace shutdowns"}
		}
		if b.rec.hasAllocationDelay {
			return Record{}, ValidationError{Field: "allocation_delay", Detail: "only valid for restart shutdowns"}
		}
		if b.hasGracePeriod {
			return Record{}, ValidationError{Field: "grace_period", Detail: "only valid for sigterm shutdowns"}
		}
	case TypeSigterm:
		if !b.hasGracePeriod {
			return Record{}, ValidationError{Field: "grace_period", Detail: "required for sigterm shutdowns"}
		}
		if b.rec.gracePeriod <= 0 {
			return Record{}, ValidationError{Field: "grace_period", Detail: "must be positive"}
		}
		if b.rec.hasAllocationDelay {
			return Record{}, ValidationError{Field: "allocation_delay", Detail: "only valid for restart shutdowns"}
		}
		if b.rec.targetNodeName != "" {
			return Record{}, ValidationError{Field: "target_node_name", Detail: "only valid for replace shutdowns"}
		}
	default:
		return Record{}, ValidationError{Field: "type", Detail: "unknown shutdown type"}
	}
	return b.rec, nil
}
