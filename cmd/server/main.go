package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decision-service",
		Short: "Intervention study decision service",
		Long: `Assigns at most one action per participant and decision window, keeps
the decision ledger and reconciles uploaded outcomes against it.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newIndexCommand())
	cmd.AddCommand(newReplayCommand())
	return cmd
}
