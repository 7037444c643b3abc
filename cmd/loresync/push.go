package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tavern-tools/loresync/internal/ui"
)

var pushCmd = &cobra.Command{
	Use:   "push [dir]",
	Short: "Push local files to the remote as a whole-collection replacement",
	Long: `Read the local file set into fully-formed records and replace the remote
collection wholesale. Validation failure aborts the entire push; nothing is
written to the remote unless every record validates.

An index entry whose content file has been deleted is treated as an
intentional deletion and is dropped from the pushed set, so the remote side
drops it too.

With --character the directory is a character root; the existing remote
record is fetched first so remote-owned fields survive, and any books under
linked_worldbooks/ are pushed first.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		name, _ := cmd.Flags().GetString("name")
		character, _ := cmd.Flags().GetBool("character")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(err)
		}
		logger := log.New(os.Stderr, "[push] ", log.LstdFlags)
		s, err := buildSyncer(cfg, logger, ui.NewConsole(os.Stderr))
		if err != nil {
			fail(err)
		}

		if character {
			err = s.PushCharacter(cmd.Context(), name, dir, dryRun)
		} else {
			err = s.PushBook(cmd.Context(), dir, name, dryRun)
		}
		if err != nil {
			fail(err)
		}
	},
}

func init() {
	pushCmd.Flags().String("name", "", "remote collection name (default: name from the local files)")
	pushCmd.Flags().Bool("character", false, "push a character instead of a lore book")
	pushCmd.Flags().Bool("dry-run", false, "validate and report without writing to the remote")
	rootCmd.AddCommand(pushCmd)
}
