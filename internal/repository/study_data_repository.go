package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/intervention-decision-service/internal/model"
)

// StudyDataRepo stores reconciled observations.
type StudyDataRepo struct {
	db *sql.DB
}

func NewStudyDataRepo(db *sql.DB) *StudyDataRepo { return &StudyDataRepo{db: db} }

// CreateBulkTx inserts all rows in a single statement within the caller's
// transaction.  Passing an empty slice has no effect and returns nil.
func (r *StudyDataRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, rows []model.StudyData) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC().Truncate(time.Second)
	var sb strings.Builder
	sb.WriteString(`INSERT INTO study_data (user_id, decision_idx, action, action_prob, decision_time,
		state, reward, outcome, observed_at, request_timestamp, created_at) VALUES `)
	args := make([]any, 0, len(rows)*11)
	for i, s := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?)")
		state, err := encodeVector(s.State)
		if err != nil {
			return err
		}
		created := s.CreatedAt
		if created.IsZero() {
			created = now
		}
		args = append(args, s.UserID, s.DecisionIndex, s.Action, s.ActionProb, s.DecisionHour,
			state, s.Reward, s.Outcome, fmtTime(s.ObservedAt), fmtTime(s.UploadedAt), fmtTime(created))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByUser returns the user's reconciled rows ordered by observation time.
func (r *StudyDataRepo) ListByUser(ctx context.Context, userID string) ([]model.StudyData, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, decision_idx, action, action_prob, decision_time, state, reward, outcome,
			observed_at, request_timestamp, created_at
		FROM study_data WHERE user_id=? ORDER BY observed_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.StudyData{}
	for rows.Next() {
		var (
			s     model.StudyData
			state string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.DecisionIndex, &s.Action, &s.ActionProb, &s.DecisionHour,
			&state, &s.Reward, &s.Outcome, dbTime{&s.ObservedAt}, dbTime{&s.UploadedAt}, dbTime{&s.CreatedAt}); err != nil {
			return nil, err
		}
		if s.State, err = decodeVector(state); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
