// Package assign turns a decision request into a fully populated ledger
// entry.  It decides but never persists: duplicate detection and storage
// belong to the decision ledger.
package assign

import (
	"fmt"
	"time"

	"github.com/iliyamo/intervention-decision-service/internal/model"
	"github.com/iliyamo/intervention-decision-service/internal/policy"
	"github.com/iliyamo/intervention-decision-service/internal/window"
)

// StateFunc builds the feature vector the policy decides on.
type StateFunc func(u model.User, decisionIndex int) []float64

// Engine assigns actions.  Policy and Seeds must be set; State defaults to
// a zero vector.
type Engine struct {
	Policy policy.Policy
	Seeds  policy.SeedSource
	State  StateFunc
}

// NewEngine constructs an Engine and panics on nil dependencies.
func NewEngine(p policy.Policy, seeds policy.SeedSource) *Engine {
	if p == nil || seeds == nil {
		panic("nil dependency passed to assign.NewEngine")
	}
	return &Engine{Policy: p, Seeds: seeds}
}

// Assign produces the decision for user u at decisionIndex.  windowStart
// must be a canonical window start (04:00 or 16:00), otherwise
// window.ErrInvalidWindowHour is returned.
func (e *Engine) Assign(u model.User, decisionIndex int, windowStart, requestedAt time.Time) (model.Decision, error) {
	if _, err := window.SlotOf(windowStart); err != nil {
		return model.Decision{}, err
	}
	return e.Replay(u, decisionIndex, windowStart, requestedAt, e.Seeds.Seed())
}

// Replay re-derives a decision from its seed.  Given the same user bounds,
// window start and seed it returns the same action, probability, decision
// hour and reward that Assign produced.
func (e *Engine) Replay(u model.User, decisionIndex int, windowStart, requestedAt time.Time, seed int64) (model.Decision, error) {
	slot, err := window.SlotOf(windowStart)
	if err != nil {
		return model.Decision{}, err
	}
	rng := policy.NewRand(seed)

	state := policy.ZeroVector()
	if e.State != nil {
		state = e.State(u, decisionIndex)
	}
	action, prob, err := e.Policy.Choose(state, rng)
	if err != nil {
		return model.Decision{}, fmt.Errorf("policy choose: %w", err)
	}
	if err := policy.Validate(action, prob); err != nil {
		return model.Decision{}, err
	}

	start, end := u.MorningStart, u.MorningEnd
	if slot == window.Evening {
		start, end = u.EveningStart, u.EveningEnd
	}
	offset := 0
	if end > start {
		offset = rng.IntN(end - start + 1)
	}

	return model.Decision{
		UserID:        u.UserID,
		DecisionIndex: decisionIndex,
		Action:        action,
		ActionProb:    prob,
		DecisionHour:  start + offset,
		RandomSeed:    seed,
		State:         state,
		Reward:        rng.Float64(),
		WindowStart:   windowStart,
		ModelParams:   e.Policy.Params(),
		RequestedAt:   requestedAt,
	}, nil
}
