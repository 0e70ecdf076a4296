// Package shutdownmeta models which cluster nodes are undergoing a shutdown
// lifecycle event (restart, remove, replace, or signal-triggered
// termination) inside the replicated control-plane state, so shard
// allocation and request routing can react before the node actually
// disappears.
//
// The package provides three value types. Record is an immutable,
// builder-validated description of one node's shutdown intent. Registry is
// an immutable node-ID-keyed collection of records with copy-on-write
// mutation, so a snapshot can be shared by any number of concurrent readers
// without locking. Diff is the minimal delta between two registry snapshots,
// used to replicate changes incrementally instead of re-sending the full
// collection on every cluster-state version.
//
// All three encode to a version-gated binary wire form. Encoding for a peer
// below WireVersionSigterm silently downgrades sigterm records to remove;
// the loss is intentional and one-directional. Records also convert to and
// from a JSON document form for diagnostic and HTTP-facing views; both
// decode paths funnel through the same Builder validation.
//
// Nothing in this package performs I/O, blocks, or logs. The surrounding
// replication layer (see the clusterstate package) owns ordering: diffs must
// be applied in strict commit order against the base they were computed
// from.
package shutdownmeta
