package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/intervention-decision-service/internal/assign"
	"github.com/iliyamo/intervention-decision-service/internal/logger"
	"github.com/iliyamo/intervention-decision-service/internal/model"
	q "github.com/iliyamo/intervention-decision-service/internal/queue"
	"github.com/iliyamo/intervention-decision-service/internal/repository"
	"github.com/iliyamo/intervention-decision-service/internal/window"
)

// AssignRequest asks for the action of one decision window.  Timestamps are
// kept raw so a non-string value can be reported distinctly.
type AssignRequest struct {
	UserID              string            `json:"user_id"`
	RequestTimestamp    json.RawMessage   `json:"request_timestamp"`
	DecisionWindowStart json.RawMessage   `json:"decision_window_start"`
	EngagementData      []json.RawMessage `json:"engagement_data"`
}

// AssignResult is returned for a newly recorded decision.
type AssignResult struct {
	Action        int              `json:"action"`
	DecisionHour  int              `json:"decision_hour"`
	DecisionIndex int              `json:"decision_index"`
	Phase         model.StudyPhase `json:"phase"`
	Decision      model.Decision   `json:"-"`
}

// StatusResult reports a user's lifecycle state.  CurrentDecisionIndex is
// derived from the ledger; StoredIndex is the registry's advisory pointer.
type StatusResult struct {
	UserID               string           `json:"user_id"`
	Phase                model.StudyPhase `json:"phase"`
	CurrentDecisionIndex int              `json:"current_decision_index"`
	StoredIndex          int              `json:"stored_decision_index"`
	UpdatedAt            string           `json:"updated_at"`
}

// DecisionService runs the action request workflow and the ledger reads.
type DecisionService struct {
	DB          *sql.DB
	Users       *repository.UserRepo
	Ledger      *repository.DecisionRepo
	Engagements *repository.EngagementRepo
	Engine      *assign.Engine
	PerDay      int
	Publisher   EventPublisher
	Log         *logger.Logger
}

func NewDecisionService(db *sql.DB, engine *assign.Engine, perDay int, pub EventPublisher, log *logger.Logger) *DecisionService {
	if pub == nil {
		pub = NopPublisher{}
	}
	if !window.ValidPerDay(perDay) {
		perDay = window.DefaultPerDay
	}
	return &DecisionService{
		DB:          db,
		Users:       repository.NewUserRepo(db),
		Ledger:      repository.NewDecisionRepo(db),
		Engagements: repository.NewEngagementRepo(db),
		Engine:      engine,
		PerDay:      perDay,
		Publisher:   pub,
		Log:         log,
	}
}

type assignInput struct {
	userID      string
	requestedAt time.Time
	windowStart time.Time
	engagements []time.Time
}

func (r AssignRequest) parse() (assignInput, *Error) {
	in := assignInput{userID: strings.TrimSpace(r.UserID)}
	if in.userID == "" {
		return in, invalid(100, "'user_id' is missing")
	}
	if isAbsent(r.RequestTimestamp) {
		return in, invalid(101, "'request_timestamp' is missing")
	}
	if isAbsent(r.DecisionWindowStart) {
		return in, invalid(102, "'decision_window_start' is missing")
	}
	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *time.Time
	}{
		{"request_timestamp", r.RequestTimestamp, &in.requestedAt},
		{"decision_window_start", r.DecisionWindowStart, &in.windowStart},
	}
	for _, f := range fields {
		t, err := rawTimestamp(f.raw)
		switch {
		case errors.Is(err, errNotString):
			return in, invalid(105, "'%s' must be a timestamp string", f.name)
		case err != nil:
			return in, invalid(107, "'%s' must be formatted as %s", f.name, TimestampLayout)
		}
		*f.dst = t
	}
	if in.requestedAt.After(in.windowStart) {
		return in, invalid(106, "request timestamp is later than decision window start")
	}
	for _, raw := range r.EngagementData {
		t, err := rawTimestamp(raw)
		if err != nil {
			return in, invalid(108, "engagement timestamps must be formatted as %s", TimestampLayout)
		}
		in.engagements = append(in.engagements, t)
	}
	return in, nil
}

// nextPhase is ENDED when no later 04:00/16:00 window of the user's study
// starts before EndAt, STARTED otherwise.
func nextPhase(u model.User, windowStart time.Time) model.StudyPhase {
	if !window.NextStart(windowStart).Before(u.EndAt) {
		return model.PhaseEnded
	}
	return model.PhaseStarted
}

// RequestAction assigns and records the action for the decision window in
// req.  Validation, indexing and assignment happen before the transaction;
// the ledger insert, the engagement rows and the registry advance commit
// together.  A second request for the same window fails with code 304 and
// leaves the first entry untouched.
func (s *DecisionService) RequestAction(ctx context.Context, req AssignRequest) (AssignResult, error) {
	in, verr := req.parse()
	if verr != nil {
		return AssignResult{}, verr
	}
	log := s.Log.With("user_id", in.userID)

	u, err := s.Users.GetByID(ctx, in.userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AssignResult{}, missing(203, err, "user %s does not exist", in.userID)
		}
		log.Error("load user failed", "error", err)
		return AssignResult{}, internal(208, err)
	}
	slot, err := window.SlotOf(in.windowStart)
	if err != nil {
		return AssignResult{}, invalid(204, "requested decision window does not start at 4 AM or 4 PM")
	}
	if in.windowStart.Before(u.AnchorAt) {
		return AssignResult{}, invalid(205, "decision window starts before the user's study start")
	}
	if !in.windowStart.Before(u.EndAt) {
		return AssignResult{}, invalid(206, "decision window starts after the user's study end")
	}

	idx := window.Index(u.AnchorAt, in.windowStart, s.PerDay)
	d, err := s.Engine.Assign(u, idx, in.windowStart, in.requestedAt)
	if err != nil {
		if errors.Is(err, window.ErrInvalidWindowHour) {
			return AssignResult{}, invalid(204, "requested decision window does not start at 4 AM or 4 PM")
		}
		log.Error("assign action failed", "decision_index", idx, "error", err)
		return AssignResult{}, internal(208, err)
	}

	engagements := make([]model.Engagement, 0, len(in.engagements))
	for _, t := range in.engagements {
		engagements = append(engagements, model.Engagement{UserID: u.UserID, EngagedAt: t, UploadedAt: in.requestedAt})
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Error("begin tx failed", "error", err)
		return AssignResult{}, internal(208, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.Ledger.RecordOnceTx(ctx, tx, &d); err != nil {
		if errors.Is(err, repository.ErrDuplicateDecision) {
			log.Warn("duplicate action request", "decision_index", idx)
			return AssignResult{}, conflict(304, err, "action already exists for user %s at decision index %d", u.UserID, idx)
		}
		log.Error("record decision failed", "decision_index", idx, "error", err)
		return AssignResult{}, internal(208, err)
	}
	if err := s.Engagements.CreateMultipleTx(ctx, tx, engagements); err != nil {
		log.Error("record engagements failed", "error", err)
		return AssignResult{}, internal(208, err)
	}
	st, err := s.Users.AdvanceTx(ctx, tx, u.UserID, idx, nextPhase(u, in.windowStart))
	if err != nil {
		log.Error("advance status failed", "error", err)
		return AssignResult{}, internal(208, err)
	}
	if err := tx.Commit(); err != nil {
		log.Error("commit failed", "error", err)
		return AssignResult{}, internal(208, err)
	}
	committed = true

	log.Info("decision recorded", "decision_index", idx, "slot", slot.String(), "action", d.Action, "decision_hour", d.DecisionHour, "phase", string(st.Phase))
	s.publish(d, st.Phase)

	return AssignResult{
		Action:        d.Action,
		DecisionHour:  d.DecisionHour,
		DecisionIndex: d.DecisionIndex,
		Phase:         st.Phase,
		Decision:      d,
	}, nil
}

// publish emits the DecisionAssigned event.  Failures are logged only; the
// decision is already committed.
func (s *DecisionService) publish(d model.Decision, phase model.StudyPhase) {
	ev := q.DecisionAssignedEvent{
		EventID:       uuid.NewString(),
		UserID:        d.UserID,
		DecisionIndex: d.DecisionIndex,
		Action:        d.Action,
		ActionProb:    d.ActionProb,
		DecisionHour:  d.DecisionHour,
		RandomSeed:    d.RandomSeed,
		WindowStart:   FormatTimestamp(d.WindowStart),
		RequestedAt:   FormatTimestamp(d.RequestedAt),
		Phase:         string(phase),
		AssignedAt:    FormatTimestamp(d.CreatedAt),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Publisher.PublishDecisionAssigned(ctx, ev); err != nil {
		s.Log.Warn("publish decision event failed", "event_id", ev.EventID, "user_id", d.UserID, "error", err)
	}
}

// Lookup returns the ledger entry for (userID, idx).
func (s *DecisionService) Lookup(ctx context.Context, userID string, idx int) (model.Decision, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Decision{}, invalid(500, "please provide a valid user id")
	}
	if idx < 1 {
		return model.Decision{}, invalid(501, "decision index must be a positive integer")
	}
	d, err := s.Ledger.Get(ctx, userID, idx)
	if err != nil {
		if errors.Is(err, repository.ErrDecisionNotFound) {
			return model.Decision{}, missing(502, err, "no decision recorded for user %s at index %d", userID, idx)
		}
		s.Log.Error("ledger lookup failed", "user_id", userID, "decision_index", idx, "error", err)
		return model.Decision{}, internal(503, err)
	}
	return d, nil
}

// Status reports the user's phase with the decision pointer re-derived from
// the ledger.  Disagreement with the stored pointer is logged.
func (s *DecisionService) Status(ctx context.Context, userID string) (StatusResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return StatusResult{}, invalid(500, "please provide a valid user id")
	}
	st, err := s.Users.GetStatus(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return StatusResult{}, missing(504, err, "user %s does not exist", userID)
		}
		s.Log.Error("load status failed", "user_id", userID, "error", err)
		return StatusResult{}, internal(503, err)
	}
	maxIdx, err := s.Ledger.MaxIndex(ctx, userID)
	if err != nil {
		s.Log.Error("ledger max index failed", "user_id", userID, "error", err)
		return StatusResult{}, internal(503, err)
	}
	if maxIdx != st.CurrentDecisionIndex {
		s.Log.Warn("status pointer drift", "user_id", userID, "stored", st.CurrentDecisionIndex, "ledger", maxIdx)
	}
	return StatusResult{
		UserID:               userID,
		Phase:                st.Phase,
		CurrentDecisionIndex: maxIdx,
		StoredIndex:          st.CurrentDecisionIndex,
		UpdatedAt:            FormatTimestamp(st.UpdatedAt),
	}, nil
}
