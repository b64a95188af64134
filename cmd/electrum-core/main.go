// Package main is the entry point for electrum-core.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type rootFlags struct {
	configPath string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "electrum-core",
		Short:         "Electrum client for wallet queries, fees, OTP and support servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		// the monitor is the default command
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), flags, false)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")

	root.AddCommand(
		newMonitorCmd(flags),
		newBalanceCmd(flags),
		newHistoryCmd(flags),
		newTxCmd(flags),
		newDecodeCmd(flags),
		newFeesCmd(flags),
		newBroadcastCmd(flags),
		newProfileCmd(flags),
		newDecryptCmd(flags),
		newProbeCmd(flags),
		newSupportCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "electrum-core %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}
