package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tavern-tools/loresync/internal/localstore"
	"github.com/tavern-tools/loresync/internal/ui"
)

var generateCmd = &cobra.Command{
	Use:   "generate <prefix> <count> [dir]",
	Short: "Scaffold empty entries in a local lore book",
	Long: `Create <count> empty content files named <prefix>_1 .. <prefix>_N under
the entries subtree and append matching index entries. Ids that collide with
existing entries are skipped with a warning.`,
	Args: cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		prefix := args[0]
		count, err := strconv.Atoi(args[1])
		if err != nil || count < 1 {
			fail(fmt.Errorf("count must be a positive integer (got %q)", args[1]))
		}
		dir := "."
		if len(args) == 3 {
			dir = args[2]
		}

		logger := log.New(os.Stderr, "[generate] ", log.LstdFlags)
		local := localstore.New(logger)
		reporter := ui.NewConsole(os.Stderr)

		created, err := local.ScaffoldEntries(dir, prefix, count)
		if err != nil {
			fail(err)
		}
		reporter.Successf("Created %d of %d entries with prefix %q", created, count, prefix)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
