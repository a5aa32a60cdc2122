// Package queue defines message payloads exchanged over the message broker
// and the background consumer that audits them.
package queue

// DecisionQueueName is the durable queue decision events are published to.
const DecisionQueueName = "decision.assigned"

// DecisionAssignedEvent is published after a ledger entry commits.  It
// carries enough of the decision for downstream consumers to audit or
// schedule delivery without querying the primary database.
type DecisionAssignedEvent struct {
	EventID       string  `json:"event_id"`
	UserID        string  `json:"user_id"`
	DecisionIndex int     `json:"decision_index"`
	Action        int     `json:"action"`
	ActionProb    float64 `json:"action_prob"`
	DecisionHour  int     `json:"decision_hour"`
	RandomSeed    int64   `json:"random_seed"`
	WindowStart   string  `json:"window_start"`
	RequestedAt   string  `json:"requested_at"`
	Phase         string  `json:"phase"`
	AssignedAt    string  `json:"assigned_at"`
}
