package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/intervention-decision-service/internal/model"
)

// EngagementRepo stores engagement events sent alongside action requests.
type EngagementRepo struct {
	db *sql.DB
}

func NewEngagementRepo(db *sql.DB) *EngagementRepo { return &EngagementRepo{db: db} }

// CreateMultipleTx appends the events within the caller's transaction.
func (r *EngagementRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, events []model.Engagement) error {
	if len(events) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO engagements (user_id, engagement_time, upload_time) VALUES ")
	args := make([]any, 0, len(events)*3)
	for i, e := range events {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?)")
		args = append(args, e.UserID, fmtTime(e.EngagedAt), fmtTime(e.UploadedAt))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByUser returns the user's engagement events, oldest first.
func (r *EngagementRepo) ListByUser(ctx context.Context, userID string) ([]model.Engagement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, engagement_time, upload_time FROM engagements WHERE user_id=? ORDER BY engagement_time, id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Engagement{}
	for rows.Next() {
		var e model.Engagement
		if err := rows.Scan(&e.ID, &e.UserID, dbTime{&e.EngagedAt}, dbTime{&e.UploadedAt}); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
