package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/operator-ingest/wardround-cli/internal/importer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the imports folder and process new rounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("watch"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		w := importer.NewWatcher(env.Importer,
			time.Duration(cfg.Watch.IntervalSecs)*time.Second,
			cfg.Watch.Notify,
		)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
