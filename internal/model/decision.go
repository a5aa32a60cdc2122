package model

import "time"

// Decision is one entry of the decision ledger: the action assigned to a
// user for a single decision index.  There is at most one Decision per
// (UserID, DecisionIndex) and entries are never updated once written.
//
// Fields:
//  UserID        – participant the decision was made for.
//  DecisionIndex – ordinal window since the user's anchor.
//  Action        – assigned action, 0 or 1.
//  ActionProb    – probability with which the action was selected.
//  DecisionHour  – hour of day at which the intervention is delivered.
//  RandomSeed    – seed of the PRNG that produced this decision.
//  State         – feature vector handed to the policy.
//  Reward        – reward placeholder.
//  WindowStart   – start of the decision window (04:00 or 16:00).
//  ModelParams   – snapshot of the policy parameters used.
//  RequestedAt   – timestamp of the originating request.
//  CreatedAt     – when the entry was written.
type Decision struct {
	UserID        string    `json:"user_id"`        // decisions.user_id
	DecisionIndex int       `json:"decision_index"` // decisions.decision_idx
	Action        int       `json:"action"`         // decisions.action
	ActionProb    float64   `json:"action_prob"`    // decisions.action_prob
	DecisionHour  int       `json:"decision_hour"`  // decisions.decision_time
	RandomSeed    int64     `json:"random_seed"`    // decisions.random_state
	State         []float64 `json:"state"`          // decisions.state (JSON)
	Reward        float64   `json:"reward"`         // decisions.reward
	WindowStart   time.Time `json:"window_start"`   // decisions.decision_timestamp
	ModelParams   []float64 `json:"model_params"`   // decisions.model_parameters (JSON)
	RequestedAt   time.Time `json:"requested_at"`   // decisions.request_timestamp
	CreatedAt     time.Time `json:"created_at"`     // decisions.created_at
}

// StudyData is a reconciled observation: an outcome uploaded by the client
// joined with the ledger entry of the decision window it fell into.
type StudyData struct {
	ID            uint64    // study_data.id
	UserID        string    // study_data.user_id
	DecisionIndex int       // study_data.decision_idx
	Action        int       // study_data.action
	ActionProb    float64   // study_data.action_prob
	DecisionHour  int       // study_data.decision_time
	State         []float64 // study_data.state (JSON)
	Reward        float64   // study_data.reward
	Outcome       int       // study_data.outcome
	ObservedAt    time.Time // study_data.observed_at
	UploadedAt    time.Time // study_data.request_timestamp
	CreatedAt     time.Time // study_data.created_at
}

// Engagement is a timestamped app-engagement event sent along with an
// action request.  Engagements are append-only and carry no uniqueness.
type Engagement struct {
	ID         uint64    // engagements.id
	UserID     string    // engagements.user_id
	EngagedAt  time.Time // engagements.engagement_time
	UploadedAt time.Time // engagements.upload_time
}
