package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tavern-tools/loresync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Summarize differences between local files and the remote",
	Long: `Compare the local lore book against the remote collection and print a
summary: entries only present locally, entries only present remotely, and
entries whose content differs. Neither side is modified.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		name, _ := cmd.Flags().GetString("name")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(err)
		}
		logger := log.New(os.Stderr, "[status] ", log.LstdFlags)
		reporter := ui.NewConsole(os.Stderr)
		s, err := buildSyncer(cfg, logger, reporter)
		if err != nil {
			fail(err)
		}

		result, err := s.Compare(cmd.Context(), dir, name)
		if err != nil {
			fail(err)
		}

		if result.Empty() {
			reporter.Successf("Local and remote are in sync")
			return
		}
		for _, id := range result.AddedLocally {
			fmt.Printf("added locally:   %s\n", id)
		}
		for _, id := range result.AddedRemotely {
			fmt.Printf("added remotely:  %s\n", id)
		}
		for _, m := range result.Modified {
			fmt.Printf("modified:        %s\n", m.ID)
		}
	},
}

func init() {
	statusCmd.Flags().String("name", "", "remote collection name (default: name from the local index)")
	rootCmd.AddCommand(statusCmd)
}
