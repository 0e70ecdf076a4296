package shutdownmeta

import (
	"time"

	"pkt.systems/shutdownmeta/internal/wirefmt"
)

// WireVersion is the negotiated binary protocol version between two cluster
// members. Senders encode at the lowest version the receiver understands;
// the gates below describe what each version added.
type WireVersion uint32

const (
	// WireVersionBase carries the registry with restart, remove, and
	// replace records.
	WireVersionBase WireVersion = 1
	// WireVersionNodeSeen added the node-seen flag. Streams below this
	// version omit it and decode as node_seen=false.
	WireVersionNodeSeen WireVersion = 2
	// WireVersionSigterm added the sigterm type and its grace period.
	WireVersionSigterm WireVersion = 3
	// CurrentWireVersion is the version this build encodes by default.
	CurrentWireVersion = WireVersionSigterm
)

// Supported reports whether this build can encode and decode at v.
func (v WireVersion) Supported() bool {
	return v >= WireVersionBase && v <= CurrentWireVersion
}

// wireDowngrades maps newer shutdown types onto the closest older
// equivalent when encoding for a peer below the introducing version. The
// mapping is deliberately lossy and one-directional: a downgraded stream
// can never reconstruct the original type.
var wireDowngrades = []struct {
	below WireVersion
	from  Type
	to    Type
}{
	{below: WireVersionSigterm, from: TypeSigterm, to: TypeRemove},
}

// Minimum encoded sizes, used to bound count prefixes before allocating.
// A record is at least three length-prefixed strings, the type tag, and the
// start timestamp; a keyed entry adds the key's length prefix and a removed
// node ID is at least its own prefix.
const (
	minWireRecordLen = 2 + 2 + 1 + 2 + 8
	minWireEntryLen  = 2 + minWireRecordLen
	minWireNodeIDLen = 2
)

// checkWireCount rejects a count prefix that could not possibly be satisfied
// by the remaining payload, so a malformed stream can never drive
// allocation or looping beyond the input's own size.
func checkWireCount(rd *wirefmt.Reader, count uint32, minEntryLen int, what string) error {
	if int64(count)*int64(minEntryLen) > int64(rd.Remaining()) {
		return malformed("%s count %d exceeds %d-byte payload", what, count, rd.Remaining())
	}
	return nil
}

func (t Type) wireType(v WireVersion) Type {
	for _, d := range wireDowngrades {
		if v < d.below && t == d.from {
			return d.to
		}
	}
	return t
}

// EncodeWire encodes the record for a peer negotiated at version v.
func (r Record) EncodeWire(v WireVersion) ([]byte, error) {
	if !v.Supported() {
		return nil, malformed("unsupported wire version %d", v)
	}
	var w wirefmt.Writer
	r.encodeWire(&w, v)
	return w.Bytes()
}

func (r Record) encodeWire(w *wirefmt.Writer, v WireVersion) {
	typ := r.typ.wireType(v)
	w.String(r.nodeID)
	w.String(r.nodeEphemeralID)
	w.Uint8(uint8(typ))
	w.String(r.reason)
	w.Int64(r.startedAtMillis)
	if v >= WireVersionNodeSeen {
		w.Bool(r.nodeSeen)
	}
	switch typ {
	case TypeRestart:
		w.OptionalInt64(r.allocationDelay.Milliseconds(), r.hasAllocationDelay)
	case TypeReplace:
		w.String(r.targetNodeName)
	case TypeSigterm:
		w.Int64(r.gracePeriod.Milliseconds())
	case TypeRemove:
		// No type-specific parameter.
	}
}

// DecodeRecordWire decodes a single record produced at version v. The whole
// buffer must be consumed.
func DecodeRecordWire(data []byte, v WireVersion) (Record, error) {
	rd := wirefmt.NewReader(data)
	rec, err := decodeRecordWire(rd, v)
	if err != nil {
		return Record{}, err
	}
	if rd.Remaining() != 0 {
		return Record{}, malformed("%d trailing bytes after record", rd.Remaining())
	}
	return rec, nil
}

func decodeRecordWire(rd *wirefmt.Reader, v WireVersion) (Record, error) {
	if !v.Supported() {
		return Record{}, malformed("unsupported wire version %d", v)
	}
	b := NewBuilder().
		NodeID(rd.String()).
		NodeEphemeralID(rd.String())
	tag := Type(rd.Uint8())
	b.Reason(rd.String()).StartedAtMillis(rd.Int64())
	if v >= WireVersionNodeSeen {
		b.NodeSeen(rd.Bool())
	}
	switch tag {
	case TypeRestart:
		if millis, ok := rd.OptionalInt64(); ok {
			b.AllocationDelay(time.Duration(millis) * time.Millisecond)
		}
	case TypeReplace:
		b.TargetNodeName(rd.String())
	case TypeSigterm:
		if v < WireVersionSigterm {
			return Record{}, malformed("type tag %d not valid at wire version %d", tag, v)
		}
		b.GracePeriod(time.Duration(rd.Int64()) * time.Millisecond)
	case TypeRemove:
	default:
		return Record{}, malformed("unknown type tag %d", uint8(tag))
	}
	if err := rd.Err(); err != nil {
		return Record{}, malformed("%v", err)
	}
	b.Type(tag)
	rec, err := b.Build()
	if err != nil {
		return Record{}, malformed("decoded record invalid: %v", err)
	}
	return rec, nil
}

// EncodeWire encodes the full registry as a count-prefixed sequence of
// (node ID, record) pairs, version-gated per record. A peer below the
// sigterm version transparently sees every sigterm entry as remove.
func (r Registry) EncodeWire(v WireVersion) ([]byte, error) {
	if !v.Supported() {
		return nil, malformed("unsupported wire version %d", v)
	}
	var w wirefmt.Writer
	ids := r.NodeIDs()
	w.Uint32(uint32(len(ids)))
	for _, id := range ids {
		w.String(id)
		r.records[id].encodeWire(&w, v)
	}
	return w.Bytes()
}

// DecodeRegistryWire decodes a registry produced at version v. Any format
// error aborts the whole decode; no partial registry is returned.
func DecodeRegistryWire(data []byte, v WireVersion) (Registry, error) {
	rd := wirefmt.NewReader(data)
	reg, err := decodeRegistryWire(rd, v)
	if err != nil {
		return Registry{}, err
	}
	if rd.Remaining() != 0 {
		return Registry{}, malformed("%d trailing bytes after registry", rd.Remaining())
	}
	return reg, nil
}

func decodeRegistryWire(rd *wirefmt.Reader, v WireVersion) (Registry, error) {
	count := rd.Uint32()
	if err := rd.Err(); err != nil {
		return Registry{}, malformed("%v", err)
	}
	if err := checkWireCount(rd, count, minWireEntryLen, "registry"); err != nil {
		return Registry{}, err
	}
	records := make(map[string]Record, count)
	for i := uint32(0); i < count; i++ {
		key := rd.String()
		rec, err := decodeRecordWire(rd, v)
		if err != nil {
			return Registry{}, err
		}
		if key != rec.NodeID() {
			return Registry{}, malformed("registry key %q does not match record node id %q", key, rec.NodeID())
		}
		if _, dup := records[key]; dup {
			return Registry{}, malformed("duplicate registry key %q", key)
		}
		records[key] = rec
	}
	if len(records) == 0 {
		return Registry{}, nil
	}
	return Registry{records: records}, nil
}

// EncodeWire encodes the diff: upserted (node ID, record) pairs followed by
// removed node IDs.
func (d Diff) EncodeWire(v WireVersion) ([]byte, error) {
	if !v.Supported() {
		return nil, malformed("unsupported wire version %d", v)
	}
	var w wirefmt.Writer
	upserts := d.Upserts()
	w.Uint32(uint32(len(upserts)))
	for _, rec := range upserts {
		w.String(rec.NodeID())
		rec.encodeWire(&w, v)
	}
	w.Uint32(uint32(len(d.removed)))
	for _, id := range d.removed {
		w.String(id)
	}
	return w.Bytes()
}

// DecodeDiffWire decodes a diff produced at version v.
func DecodeDiffWire(data []byte, v WireVersion) (Diff, error) {
	if !v.Supported() {
		return Diff{}, malformed("unsupported wire version %d", v)
	}
	rd := wirefmt.NewReader(data)
	count := rd.Uint32()
	if err := rd.Err(); err != nil {
		return Diff{}, malformed("%v", err)
	}
	if err := checkWireCount(rd, count, minWireEntryLen, "diff upsert"); err != nil {
		return Diff{}, err
	}
	var upserts map[string]Record
	for i := uint32(0); i < count; i++ {
		key := rd.String()
		rec, err := decodeRecordWire(rd, v)
		if err != nil {
			return Diff{}, err
		}
		if key != rec.NodeID() {
			return Diff{}, malformed("diff key %q does not match record node id %q", key, rec.NodeID())
		}
		if upserts == nil {
			upserts = make(map[string]Record, count)
		}
		if _, dup := upserts[key]; dup {
			return Diff{}, malformed("duplicate diff key %q", key)
		}
		upserts[key] = rec
	}
	removedCount := rd.Uint32()
	if err := rd.Err(); err != nil {
		return Diff{}, malformed("%v", err)
	}
	if err := checkWireCount(rd, removedCount, minWireNodeIDLen, "diff removal"); err != nil {
		return Diff{}, err
	}
	var removed []string
	for i := uint32(0); i < removedCount; i++ {
		removed = append(removed, rd.String())
	}
	if err := rd.Err(); err != nil {
		return Diff{}, malformed("%v", err)
	}
	if rd.Remaining() != 0 {
		return Diff{}, malformed("%d trailing bytes after diff", rd.Remaining())
	}
	return NewDiff(recordsFromMap(upserts), removed), nil
}

func recordsFromMap(m map[string]Record) []Record {
	if len(m) == 0 {
		return nil
	}
	out := make([]Record, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	return out
}
