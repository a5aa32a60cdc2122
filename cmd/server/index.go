package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/intervention-decision-service/internal/service"
	"github.com/iliyamo/intervention-decision-service/internal/window"
)

type indexOptions struct {
	Anchor    string
	At        string
	PerDay    int
	ShowStart bool
}

// newIndexCommand prints the decision index a timestamp maps to.  It needs
// no configuration and is meant for support staff checking uploads by hand.
func newIndexCommand() *cobra.Command {
	opts := &indexOptions{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Compute the decision index of a timestamp",
		Long: `Compute the decision index a timestamp falls into for a given anchor.

Examples:
  decision-service index --anchor 2024-01-01 --at 2024-01-31T16:00:00
  decision-service index --anchor 2024-01-01T00:00:00 --at 2024-01-02T04:00:00 --per-day 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor, err := service.ParseDate(opts.Anchor)
			if err != nil {
				return fmt.Errorf("invalid --anchor %q: %w", opts.Anchor, err)
			}
			at, err := service.ParseTimestamp(opts.At)
			if err != nil {
				return fmt.Errorf("invalid --at %q: %w", opts.At, err)
			}
			if opts.PerDay < 1 || 24%opts.PerDay != 0 {
				return fmt.Errorf("--per-day must be a positive divisor of 24")
			}
			idx := window.Index(anchor, at, opts.PerDay)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", idx)
			if opts.ShowStart {
				fmt.Fprintf(cmd.OutOrStdout(), "window start %s\n", service.FormatTimestamp(window.Start(anchor, idx, opts.PerDay)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Anchor, "anchor", "", "enrollment anchor (required)")
	cmd.Flags().StringVar(&opts.At, "at", "", "timestamp to index (required)")
	cmd.Flags().IntVar(&opts.PerDay, "per-day", window.DefaultPerDay, "decision windows per day")
	cmd.Flags().BoolVar(&opts.ShowStart, "show-start", false, "also print when the window starts")
	_ = cmd.MarkFlagRequired("anchor")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
