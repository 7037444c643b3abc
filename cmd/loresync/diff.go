package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tavern-tools/loresync/internal/diffengine"
	"github.com/tavern-tools/loresync/internal/ui"
)

var diffCmd = &cobra.Command{
	Use:   "diff [dir]",
	Short: "Show line-level differences between local files and the remote",
	Long: `Compare the local lore book against the remote collection and print a
line diff of every modified entry. The remote is the diff base and the local
files are the revision: lines prefixed '-' exist only on the remote, lines
prefixed '+' only locally. Neither side is modified.`,
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
		logger := log.New(os.Stderr, "[diff] ", log.LstdFlags)
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
			fmt.Printf("+++ %s (only local)\n", id)
		}
		for _, id := range result.AddedRemotely {
			fmt.Printf("--- %s (only remote)\n", id)
		}
		for _, m := range result.Modified {
			fmt.Printf("=== %s\n", m.ID)
			for _, line := range m.Lines {
				switch line.Op {
				case diffengine.OpDelete:
					fmt.Printf("- %s\n", line.Text)
				case diffengine.OpInsert:
					fmt.Printf("+ %s\n", line.Text)
				default:
					fmt.Printf("  %s\n", line.Text)
				}
			}
		}
	},
}

func init() {
	diffCmd.Flags().String("name", "", "remote collection name (default: name from the local index)")
	rootCmd.AddCommand(diffCmd)
}
