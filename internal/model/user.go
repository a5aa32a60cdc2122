package model

import "time"

// User represents an enrolled study participant as stored in the
// `users` table.  The anchor is the enrollment timestamp every decision
// index is computed from; the four hour bounds describe when the
// participant may receive a morning or evening intervention.
//
// Fields:
//  UserID       – opaque identifier supplied by the client.
//  AnchorAt     – enrollment anchor (rl_start_date).
//  EndAt        – end of the participant's study period (exclusive).
//  MorningStart – first hour of the morning window, in [4,16].
//  MorningEnd   – last hour of the morning window, in [4,16].
//  EveningStart – first hour of the evening window, in [16,24] or [0,4].
//  EveningEnd   – last hour of the evening window, in [16,24] or [0,4].
//  CreatedAt    – timestamp of registration.
type User struct {
	UserID       string    // users.user_id
	AnchorAt     time.Time // users.rl_start_date
	EndAt        time.Time // users.rl_end_date
	MorningStart int       // users.morning_start_hour
	MorningEnd   int       // users.morning_end_hour
	EveningStart int       // users.evening_start_hour
	EveningEnd   int       // users.evening_end_hour
	CreatedAt    time.Time // users.created_at
}

// InStudy reports whether t falls inside [AnchorAt, EndAt).
func (u User) InStudy(t time.Time) bool {
	return !t.Before(u.AnchorAt) && t.Before(u.EndAt)
}

// StudyPhase is the lifecycle stage of a participant.  Phases only move
// forward: REGISTERED → STARTED → ENDED.
type StudyPhase string

const (
	PhaseRegistered StudyPhase = "REGISTERED"
	PhaseStarted    StudyPhase = "STARTED"
	PhaseEnded      StudyPhase = "ENDED"
)

// Rank orders phases; unknown values rank 0.
func (p StudyPhase) Rank() int {
	switch p {
	case PhaseRegistered:
		return 1
	case PhaseStarted:
		return 2
	case PhaseEnded:
		return 3
	}
	return 0
}

// Valid reports whether p is a known phase.
func (p StudyPhase) Valid() bool { return p.Rank() > 0 }

// Advance returns the later of p and next, so a phase never moves backwards.
func (p StudyPhase) Advance(next StudyPhase) StudyPhase {
	if next.Rank() > p.Rank() {
		return next
	}
	return p
}

// UserStatus mirrors the `user_status` table.  CurrentDecisionIndex is the
// last index successfully assigned; it is advisory and the decision ledger
// remains the source of truth.
type UserStatus struct {
	UserID               string     // user_status.user_id
	Phase                StudyPhase // user_status.study_phase
	CurrentDecisionIndex int        // user_status.current_decision_index
	UpdatedAt            time.Time  // user_status.updated_at
}
