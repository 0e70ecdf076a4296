package clusterstate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"
	"pkt.systems/pslog"
	"pkt.systems/shutdownmeta"
	"pkt.systems/shutdownmeta/internal/clock"
	"pkt.systems/shutdownmeta/internal/logfields"
)

// ErrOutOfOrder indicates a committed update whose version does not
// immediately follow the current snapshot. Diffs are only valid against the
// snapshot they were computed from, so such updates must not be applied.
var ErrOutOfOrder = errors.New("clusterstate: update out of order")

// Listener observes every snapshot swap.
type Listener func(State)

// ApplierOptions configures an Applier.
type ApplierOptions struct {
	// Initial is the bootstrap snapshot. The zero value starts empty at
	// version zero.
	Initial State
	// Logger receives structured apply/reject events. Nil disables logging.
	Logger pslog.Logger
	// Clock stamps apply latency. Nil uses the system clock.
	Clock clock.Clock
	// Metrics counts outcomes. Nil disables collection.
	Metrics *Metrics
}

// Applier is the receiving side of cluster-state replication. It holds the
// current snapshot and replays committed shutdown-registry diffs in strict
// commit order. Application is all-or-nothing: a decode or ordering failure
// leaves the prior snapshot untouched. Readers take immutable snapshots and
// need no further synchronization.
type Applier struct {
	logger  pslog.Logger
	clk     clock.Clock
	metrics *Metrics

	mu        sync.RWMutex
	current   State
	listeners []Listener
}

// NewApplier constructs an applier from opts.
func NewApplier(opts ApplierOptions) *Applier {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Applier{
		logger:  logfields.WithSubsystem(logfields.Ensure(opts.Logger), "clusterstate.applier"),
		clk:     clk,
		metrics: opts.Metrics,
		current: opts.Initial,
	}
}

// Current returns the current snapshot.
func (a *Applier) Current() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Subscribe registers a listener invoked after every snapshot swap.
func (a *Applier) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Reset installs a full snapshot, bypassing ordering checks. Used at
// bootstrap and when a full state transfer replaces incremental catch-up.
func (a *Applier) Reset(s State) {
	a.mu.Lock()
	a.current = s
	listeners := append([]Listener(nil), a.listeners...)
	a.mu.Unlock()
	a.logger.Info("clusterstate.reset", "version", s.Version())
	for _, fn := range listeners {
		fn(s)
	}
}

// ApplyCommitted replays one committed shutdown-registry diff. version must
// be exactly one past the current snapshot's version; anything else is
// rejected with ErrOutOfOrder and the snapshot stays as it was.
func (a *Applier) ApplyCommitted(version int64, diff shutdownmeta.Diff) (State, error) {
	started := a.clk.Now()
	updateID := xid.New().String()

	a.mu.Lock()
	if version != a.current.Version()+1 {
		current := a.current
		a.mu.Unlock()
		a.metrics.observeRejected(RejectOutOfOrder)
		a.logger.Warn("clusterstate.apply.rejected",
			"update_id", updateID,
			"reason", RejectOutOfOrder,
			"version", version,
			"current_version", current.Version())
		return current, fmt.Errorf("%w: got version %d, current %d", ErrOutOfOrder, version, current.Version())
	}
	next := a.current.
		WithCustom(a.current.NodeShutdowns().ApplyDiff(diff)).
		WithVersion(version)
	a.current = next
	listeners := append([]Listener(nil), a.listeners...)
	a.mu.Unlock()

	a.metrics.observeApplied()
	a.logger.Info("clusterstate.apply",
		"update_id", updateID,
		"version", version,
		"upserts", len(diff.Upserts()),
		"removed", len(diff.Removed()),
		"shutdowns", next.NodeShutdowns().Len(),
		"elapsed", a.clk.Now().Sub(started))
	for _, fn := range listeners {
		fn(next)
	}
	return next, nil
}

// ApplyCommittedWire decodes a diff received at wire version wv and applies
// it. A malformed payload rejects the whole update; the prior snapshot is
// untouched.
func (a *Applier) ApplyCommittedWire(version int64, payload []byte, wv shutdownmeta.WireVersion) (State, error) {
	diff, err := shutdownmeta.DecodeDiffWire(payload, wv)
	if err != nil {
		a.metrics.observeRejected(RejectDecode)
		a.logger.Error("clusterstate.apply.rejected",
			"reason", RejectDecode,
			"version", version,
			"error", err)
		return a.Current(), err
	}
	return a.ApplyCommitted(version, diff)
}
