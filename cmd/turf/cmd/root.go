package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layer-3/turfbook/config"
)

var (
	cfg config.Config

	flagAPIURL string
	flagStore  string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "turf",
	Short: "turf is a command line client for the turf booking service",
	Long: `Browse and manage turfs and bookings from the terminal.
Expired access tokens are refreshed transparently; when the session cannot be
renewed the stored credentials are removed and you are asked to log in again.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if flagAPIURL != "" {
			loaded.APIURL = flagAPIURL
		}
		if flagStore != "" {
			loaded.Store = flagStore
		}
		if flagDebug {
			loaded.Debug = true
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Base URL of the turf API (overrides TURF_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Credential store: bolt, redis or memory (overrides TURF_STORE)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}
