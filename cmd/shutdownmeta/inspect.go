package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"pkt.systems/pslog"
	"pkt.systems/shutdownmeta"
	"pkt.systems/shutdownmeta/clusterstate"
	"pkt.systems/shutdownmeta/gateway"
)

type inspectFlags struct {
	dataDir string
}

func registerInspectFlags(flags *pflag.FlagSet, opts *inspectFlags) {
	flags.StringVar(&opts.dataDir, "data-dir", "", "node data directory holding the persisted cluster state")
}

func newInspectCommand(logger pslog.Logger) *cobra.Command {
	var opts inspectFlags
	cmd := &cobra.Command{
		Use:   "inspect [state-file]",
		Short: "Decode a persisted cluster-state file and print the shutdown registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadState(logger, args, opts)
			if err != nil {
				return err
			}
			out := struct {
				Version       int64                 `json:"version"`
				NodeShutdowns shutdownmeta.Registry `json:"node_shutdowns"`
			}{
				Version:       st.Version(),
				NodeShutdowns: st.NodeShutdowns(),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	registerInspectFlags(cmd.Flags(), &opts)
	return cmd
}

func loadState(logger pslog.Logger, args []string, opts inspectFlags) (clusterstate.State, error) {
	switch {
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return clusterstate.Empty(), fmt.Errorf("read state file: %w", err)
		}
		return clusterstate.DefaultCodec().DecodeState(data)
	case opts.dataDir != "":
		store, err := gateway.NewStore(opts.dataDir, nil, logger, nil)
		if err != nil {
			return clusterstate.Empty(), err
		}
		st, ok, err := store.Load()
		if err != nil {
			return clusterstate.Empty(), err
		}
		if !ok {
			return clusterstate.Empty(), fmt.Errorf("no cluster state at %s", store.Path())
		}
		return st, nil
	default:
		return clusterstate.Empty(), errors.New("a state file argument or --data-dir is required")
	}
}
