package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tavern-tools/loresync/internal/ui"
	"github.com/tavern-tools/loresync/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch local files and push automatically on change",
	Long: `Watch the index file and the entries subtree of a local lore book and
push to the remote whenever files change. Bursts of saves are debounced into
one push, and changes that arrive while a push is in flight are coalesced
into exactly one follow-up push. A push failure is logged and watching
continues. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		name, _ := cmd.Flags().GetString("name")
		logFile, _ := cmd.Flags().GetString("log-file")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(err)
		}
		if logFile == "" {
			logFile = cfg.LogFile
		}

		var out io.Writer = os.Stderr
		if logFile != "" {
			out = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
			}
		}
		logger := log.New(out, "[watch] ", log.LstdFlags)

		s, err := buildSyncer(cfg, logger, ui.Noop{})
		if err != nil {
			fail(err)
		}

		push := func(ctx context.Context) error {
			return s.PushBook(ctx, dir, name, false)
		}
		w, err := watcher.New(dir, push, &watcher.Config{
			Debounce: cfg.Debounce,
			Poll:     cfg.Poll,
			Logger:   logger,
		})
		if err != nil {
			fail(err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := w.Run(ctx); err != nil {
			fail(err)
		}
	},
}

func init() {
	watchCmd.Flags().String("name", "", "remote collection name (default: name from the local index)")
	watchCmd.Flags().String("log-file", "", "write watch logs to this rotated file instead of stderr")
	rootCmd.AddCommand(watchCmd)
}
