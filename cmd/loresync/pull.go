package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tavern-tools/loresync/internal/ui"
)

var pullCmd = &cobra.Command{
	Use:   "pull <name> [dir]",
	Short: "Pull a lore book or character from the remote into local files",
	Long: `Fetch the named collection from the remote store and materialize it as a
local file set. The local directory is overwritten: existing entry files are
rewritten in place and files that no longer correspond to a remote entry are
removed.

With --character the name refers to a character; its long text fields are
split into individual markdown files, the avatar is downloaded best-effort,
and an embedded lore book is pulled into linked_worldbooks/.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		dir := name
		if len(args) == 2 {
			dir = args[1]
		}
		character, _ := cmd.Flags().GetBool("character")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(err)
		}
		logger := log.New(os.Stderr, "[pull] ", log.LstdFlags)
		s, err := buildSyncer(cfg, logger, ui.NewConsole(os.Stderr))
		if err != nil {
			fail(err)
		}

		if character {
			err = s.PullCharacter(cmd.Context(), name, dir)
		} else {
			err = s.PullBook(cmd.Context(), name, dir)
		}
		if err != nil {
			fail(err)
		}
	},
}

func init() {
	pullCmd.Flags().Bool("character", false, "pull a character instead of a lore book")
	rootCmd.AddCommand(pullCmd)
}
