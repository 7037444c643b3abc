package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tavern-tools/loresync/internal/config"
	"github.com/tavern-tools/loresync/internal/diffengine"
	"github.com/tavern-tools/loresync/internal/localstore"
	"github.com/tavern-tools/loresync/internal/normalize"
	"github.com/tavern-tools/loresync/internal/remote"
	"github.com/tavern-tools/loresync/internal/syncer"
	"github.com/tavern-tools/loresync/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "loresync",
	Short: "Sync lore books and characters between local files and a live remote store",
	Long: `loresync keeps a local file-tree representation of lore books and
characters synchronized with the authoritative live copy behind a remote API.

Pull materializes a remote collection as editable local files (remote wins,
orphans are cleaned up). Push replaces the remote collection wholesale from
the local files (local wins). Status and diff report what changed without
touching either side, and watch auto-pushes on local edits.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./loresync.yaml or $HOME/.config/loresync/loresync.yaml)")
	rootCmd.PersistentFlags().String("server", "", "remote API root URL (overrides config)")
	rootCmd.PersistentFlags().String("api-key", "", "remote API key (overrides config)")
}

// loadConfig builds the one explicit Config value for this invocation, with
// flag values layered over the file/env configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.ServerURL = server
	}
	if key, _ := cmd.Flags().GetString("api-key"); key != "" {
		cfg.APIKey = key
	}
	return cfg, nil
}

// buildSyncer wires the constructor graph for one command invocation.
func buildSyncer(cfg *config.Config, logger *log.Logger, reporter ui.Reporter) (*syncer.Syncer, error) {
	client, err := remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.ServerURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	policy := diffengine.Policy{
		Normalize:         normalize.Policy{ZeroMeansUnset: cfg.Policies.ZeroMeansUnset},
		DuplicateIdentity: diffengine.DuplicateIdentityPolicy(cfg.Policies.DuplicateIdentity),
	}
	local := localstore.New(logger)
	return syncer.New(client, local, syncer.Options{
		Logger:   logger,
		Reporter: reporter,
		Policy:   &policy,
	}), nil
}

// fail prints err and exits non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
