package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/intervention-decision-service/internal/logger"
	"github.com/iliyamo/intervention-decision-service/internal/model"
	"github.com/iliyamo/intervention-decision-service/internal/repository"
	"github.com/iliyamo/intervention-decision-service/internal/window"
)

// UploadRequest carries outcome observations as [timestamp, value] pairs.
type UploadRequest struct {
	UserID                  string          `json:"user_id"`
	UploadTimestamp         json.RawMessage `json:"upload_timestamp"`
	PreviousUploadTimestamp json.RawMessage `json:"previous_upload_timestamp"`
	OutcomeData             json.RawMessage `json:"outcome_data"`
}

// Observation is one validated outcome.
type Observation struct {
	At    time.Time
	Value int
}

// UploadService reconciles uploaded outcomes with the decision ledger.
type UploadService struct {
	DB        *sql.DB
	Users     *repository.UserRepo
	Ledger    *repository.DecisionRepo
	StudyData *repository.StudyDataRepo
	PerDay    int
	Log       *logger.Logger
}

func NewUploadService(db *sql.DB, perDay int, log *logger.Logger) *UploadService {
	if !window.ValidPerDay(perDay) {
		perDay = window.DefaultPerDay
	}
	return &UploadService{
		DB:        db,
		Users:     repository.NewUserRepo(db),
		Ledger:    repository.NewDecisionRepo(db),
		StudyData: repository.NewStudyDataRepo(db),
		PerDay:    perDay,
		Log:       log,
	}
}

type uploadInput struct {
	userID       string
	uploadedAt   time.Time
	previousAt   time.Time
	observations []Observation
}

func (r UploadRequest) parse() (uploadInput, *Error) {
	in := uploadInput{userID: strings.TrimSpace(r.UserID)}
	if in.userID == "" {
		return in, invalid(200, "please provide a valid user id")
	}
	var err error
	if in.uploadedAt, err = rawTimestamp(r.UploadTimestamp); err != nil {
		return in, invalid(201, "upload timestamp must be a string formatted as %s", TimestampLayout)
	}
	if in.previousAt, err = rawTimestamp(r.PreviousUploadTimestamp); err != nil {
		return in, invalid(202, "previous upload timestamp must be a string formatted as %s", TimestampLayout)
	}
	if in.previousAt.After(in.uploadedAt) {
		return in, invalid(203, "previous upload timestamp cannot be greater than upload timestamp")
	}

	var items []json.RawMessage
	if isAbsent(r.OutcomeData) || json.Unmarshal(r.OutcomeData, &items) != nil {
		return in, invalid(204, "outcome data must be a list of items")
	}
	if len(items) == 0 {
		return in, invalid(204, "outcome data must not be empty")
	}
	seen := make(map[time.Time]struct{}, len(items))
	for _, item := range items {
		var pair []json.RawMessage
		if json.Unmarshal(item, &pair) != nil || len(pair) != 2 {
			return in, invalid(205, "each outcome item must be a list of two elements")
		}
		at, err := rawTimestamp(pair[0])
		if err != nil {
			return in, invalid(206, "invalid timestamp in outcome item %s", string(item))
		}
		var value int
		if err := json.Unmarshal(pair[1], &value); err != nil {
			return in, invalid(207, "invalid value in outcome item %s: must be an integer", string(item))
		}
		if _, dup := seen[at]; dup {
			return in, invalid(208, "duplicate timestamp %s in outcome data", FormatTimestamp(at))
		}
		seen[at] = struct{}{}
		in.observations = append(in.observations, Observation{At: at, Value: value})
	}
	return in, nil
}

// Upload validates every observation, joins each one with the ledger entry
// of the window it falls into and writes all rows in one transaction.  Any
// failure aborts the whole batch.  It returns the number of rows written.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (int, error) {
	in, verr := req.parse()
	if verr != nil {
		return 0, verr
	}
	log := s.Log.With("user_id", in.userID)

	u, err := s.Users.GetByID(ctx, in.userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, missing(300, err, "user %s does not exist", in.userID)
		}
		log.Error("load user failed", "error", err)
		return 0, internal(209, err)
	}

	rows := make([]model.StudyData, 0, len(in.observations))
	for _, ob := range in.observations {
		if !u.InStudy(ob.At) {
			return 0, invalid(301, "outcome at %s is not within the user's study period", FormatTimestamp(ob.At))
		}
		if ob.Value < 0 {
			return 0, invalid(302, "invalid outcome value %d", ob.Value)
		}
		idx := window.Index(u.AnchorAt, ob.At, s.PerDay)
		d, err := s.Ledger.Get(ctx, u.UserID, idx)
		if err != nil {
			if errors.Is(err, repository.ErrDecisionNotFound) {
				log.Warn("no decision for outcome", "decision_index", idx, "observed_at", FormatTimestamp(ob.At))
				return 0, missing(303, err, "no decision found for decision index %d", idx)
			}
			log.Error("ledger lookup failed", "decision_index", idx, "error", err)
			return 0, internal(209, err)
		}
		rows = append(rows, model.StudyData{
			UserID:        u.UserID,
			DecisionIndex: idx,
			Action:        d.Action,
			ActionProb:    d.ActionProb,
			DecisionHour:  d.DecisionHour,
			State:         d.State,
			Reward:        d.Reward,
			Outcome:       ob.Value,
			ObservedAt:    ob.At,
			UploadedAt:    in.uploadedAt,
		})
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Error("begin tx failed", "error", err)
		return 0, internal(209, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.StudyData.CreateBulkTx(ctx, tx, rows); err != nil {
		log.Error("write study data failed", "error", err)
		return 0, internal(209, err)
	}
	if err := tx.Commit(); err != nil {
		log.Error("commit failed", "error", err)
		return 0, internal(209, err)
	}
	committed = true

	log.Info("outcomes reconciled", "rows", len(rows))
	return len(rows), nil
}
