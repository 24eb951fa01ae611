package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var keepAliveInterval time.Duration

var keepAliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Refresh the access token periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := cfg.KeepAliveInterval
		if keepAliveInterval > 0 {
			interval = keepAliveInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, cmd.ErrOrStderr(), func(a *app) error {
			if _, err := a.auth.Restore(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Keeping session alive every %s\n", interval)

			err := a.auth.KeepAlive(ctx, interval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(keepAliveCmd)
	keepAliveCmd.Flags().DurationVar(&keepAliveInterval, "interval", 0, "Refresh interval (overrides TURF_KEEPALIVE_INTERVAL)")
}
