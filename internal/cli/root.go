// Package cli wires the ledgerpane commands.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ledgerpane",
	Short: "LedgerPane billing event feed service",
	Long: `ledgerpane serves the billing console's event feed: merged
history and live events, notification subscription settings, and
per-tenant feed statistics.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus LEDGERPANE_* env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(configCmd)
}
