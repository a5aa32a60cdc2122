package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/intervention-decision-service/internal/assign"
	"github.com/iliyamo/intervention-decision-service/internal/config"
	"github.com/iliyamo/intervention-decision-service/internal/model"
	"github.com/iliyamo/intervention-decision-service/internal/policy"
	"github.com/iliyamo/intervention-decision-service/internal/repository"
)

type replayOptions struct {
	UserID string
	Index  int
}

type replayResult struct {
	UserID        string `json:"user_id"`
	DecisionIndex int    `json:"decision_index"`
	RandomSeed    int64  `json:"random_seed"`
	Reproduced    bool   `json:"reproduced"`
	Stored        any    `json:"stored"`
	Replayed      any    `json:"replayed"`
}

// newReplayCommand re-derives a stored decision from its seed and reports
// whether the ledger entry is reproduced exactly.
func newReplayCommand() *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:          "replay",
		Short:        "Re-derive a ledger entry from its stored seed",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, _, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := replayDecision(cmd.Context(), repository.NewUserRepo(db), repository.NewDecisionRepo(db), opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Reproduced {
				return fmt.Errorf("decision %s/%d does not reproduce from seed %d", res.UserID, res.DecisionIndex, res.RandomSeed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id (required)")
	cmd.Flags().IntVar(&opts.Index, "idx", 0, "decision index (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("idx")
	return cmd
}

type outcomeFields struct {
	Action       int     `json:"action"`
	ActionProb   float64 `json:"action_prob"`
	DecisionHour int     `json:"decision_hour"`
	Reward       float64 `json:"reward"`
}

func fieldsOf(d model.Decision) outcomeFields {
	return outcomeFields{Action: d.Action, ActionProb: d.ActionProb, DecisionHour: d.DecisionHour, Reward: d.Reward}
}

func replayDecision(ctx context.Context, users *repository.UserRepo, ledger *repository.DecisionRepo, opts *replayOptions) (replayResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	u, err := users.GetByID(ctx, opts.UserID)
	if err != nil {
		return replayResult{}, err
	}
	stored, err := ledger.Get(ctx, opts.UserID, opts.Index)
	if err != nil {
		return replayResult{}, err
	}
	engine := assign.NewEngine(policy.RandomPolicy{}, policy.FixedSeed(stored.RandomSeed))
	replayed, err := engine.Replay(u, stored.DecisionIndex, stored.WindowStart, stored.RequestedAt, stored.RandomSeed)
	if err != nil {
		return replayResult{}, err
	}
	s, r := fieldsOf(stored), fieldsOf(replayed)
	return replayResult{
		UserID:        u.UserID,
		DecisionIndex: stored.DecisionIndex,
		RandomSeed:    stored.RandomSeed,
		Reproduced:    s == r,
		Stored:        s,
		Replayed:      r,
	}, nil
}
