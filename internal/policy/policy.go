// Package policy defines the capability the assignment engine uses to pick
// an intervention action.  The statistical learning algorithm that would
// normally sit behind Policy lives outside this service; RandomPolicy is the
// placeholder used until one is plugged in.
package policy

import (
	"errors"
	"math/rand/v2"
)

// StateSize is the length of the feature vector handed to a Policy and of
// the parameter snapshot stored with each decision.
const StateSize = 10

// ErrBadProbability is returned when a policy produces a probability outside (0,1).
var ErrBadProbability = errors.New("policy: action probability must be in (0,1)")

// Policy chooses a binary action for a state vector.  All randomness must
// be drawn from rng so that a decision can be replayed from its seed.
type Policy interface {
	Choose(state []float64, rng *rand.Rand) (action int, prob float64, err error)
	// Params returns a snapshot of the parameters the policy decides with.
	Params() []float64
}

// RandomPolicy draws a selection probability uniformly from (0,1) and
// assigns action 1 when it exceeds one half.
type RandomPolicy struct{}

func (RandomPolicy) Choose(_ []float64, rng *rand.Rand) (int, float64, error) {
	p := rng.Float64()
	for p == 0 {
		p = rng.Float64()
	}
	action := 0
	if p > 0.5 {
		action = 1
	}
	return action, p, nil
}

func (RandomPolicy) Params() []float64 { return ZeroVector() }

// ZeroVector returns a StateSize vector of zeros.
func ZeroVector() []float64 { return make([]float64, StateSize) }

// Validate checks a policy result.
func Validate(action int, prob float64) error {
	if action != 0 && action != 1 {
		return errors.New("policy: action must be 0 or 1")
	}
	if !(prob > 0 && prob < 1) {
		return ErrBadProbability
	}
	return nil
}
