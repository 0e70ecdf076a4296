// Package gateway persists the latest committed cluster-state snapshot to
// the node's data directory so a restarting node can resume from its last
// known state before the replication layer catches it up.
package gateway

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pkt.systems/pslog"
	"pkt.systems/shutdownmeta"
	"pkt.systems/shutdownmeta/clusterstate"
	"pkt.systems/shutdownmeta/internal/clock"
	"pkt.systems/shutdownmeta/internal/logfields"
)

const stateFileName = "cluster-state.bin"

// Store writes and reads cluster-state snapshots under a data directory.
// Writes go through a temp file, fsync, and rename, so a crash can never
// leave a half-written state file behind.
type Store struct {
	dir    string
	codec  *clusterstate.Codec
	logger pslog.Logger
	clk    clock.Clock
}

// NewStore prepares dir and returns a store using codec for the state wire
// form. A nil codec uses the default with the shutdown registry registered.
func NewStore(dir string, codec *clusterstate.Codec, logger pslog.Logger, clk clock.Clock) (*Store, error) {
	if dir == "" {
		return nil, errors.New("gateway: data directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("gateway: create data dir: %w", err)
	}
	if codec == nil {
		codec = clusterstate.DefaultCodec()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Store{
		dir:    dir,
		codec:  codec,
		logger: logfields.WithSubsystem(logfields.Ensure(logger), "gateway"),
		clk:    clk,
	}, nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Save persists st at the current wire version.
func (s *Store) Save(st clusterstate.State) error {
	started := s.clk.Now()
	data, err := s.codec.EncodeState(st, shutdownmeta.CurrentWireVersion)
	if err != nil {
		return fmt.Errorf("gateway: encode state: %w", err)
	}
	path := s.Path()
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("gateway: open temp state file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("gateway: write state: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("gateway: sync state: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("gateway: close state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("gateway: install state file: %w", err)
	}
	_ = syncDir(s.dir)
	s.logger.Debug("gateway.save",
		"version", st.Version(),
		"bytes", len(data),
		"elapsed", s.clk.Now().Sub(started))
	return nil
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer dir.Close()
	return dir.Sync()
}

// Load reads the persisted snapshot. The second return is false when no
// state file exists yet; a malformed file is surfaced as an error and never
// partially applied.
func (s *Store) Load() (clusterstate.State, bool, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return clusterstate.Empty(), false, nil
	}
	if err != nil {
		return clusterstate.Empty(), false, fmt.Errorf("gateway: read state file: %w", err)
	}
	st, err := s.codec.DecodeState(data)
	if err != nil {
		return clusterstate.Empty(), false, fmt.Errorf("gateway: decode state file: %w", err)
	}
	s.logger.Debug("gateway.load", "version", st.Version(), "bytes", len(data))
	return st, true, nil
}
