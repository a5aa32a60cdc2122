package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/intervention-decision-service/internal/model"
)

// UserRepo is the user enrollment and status registry.  It owns the
// users and user_status tables.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Register inserts the user together with a REGISTERED status row in one
// transaction.  It returns ErrUserExists if the id is already enrolled.
func (r *UserRepo) Register(ctx context.Context, u model.User) (err error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (user_id, rl_start_date, rl_end_date, morning_start_hour, morning_end_hour,
			evening_start_hour, evening_end_hour, created_at) VALUES (?,?,?,?,?,?,?,?)`,
		u.UserID, fmtTime(u.AnchorAt), fmtTime(u.EndAt), u.MorningStart, u.MorningEnd,
		u.EveningStart, u.EveningEnd, fmtTime(u.CreatedAt))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrUserExists
		}
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_status (user_id, study_phase, current_decision_index, updated_at) VALUES (?,?,?,?)",
		u.UserID, string(model.PhaseRegistered), 0, fmtTime(u.CreatedAt))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrUserExists
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const userCols = `user_id, rl_start_date, rl_end_date, morning_start_hour, morning_end_hour,
	evening_start_hour, evening_end_hour, created_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.UserID, dbTime{&u.AnchorAt}, dbTime{&u.EndAt}, &u.MorningStart, &u.MorningEnd,
		&u.EveningStart, &u.EveningEnd, dbTime{&u.CreatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE user_id=? LIMIT 1", id))
}

// GetStatus fetches the status row for a user.
func (r *UserRepo) GetStatus(ctx context.Context, id string) (model.UserStatus, error) {
	return scanStatus(r.db.QueryRowContext(ctx,
		"SELECT user_id, study_phase, current_decision_index, updated_at FROM user_status WHERE user_id=? LIMIT 1", id))
}

func scanStatus(row *sql.Row) (model.UserStatus, error) {
	var (
		st    model.UserStatus
		phase string
	)
	err := row.Scan(&st.UserID, &phase, &st.CurrentDecisionIndex, dbTime{&st.UpdatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserStatus{}, ErrUserNotFound
	}
	st.Phase = model.StudyPhase(phase)
	return st, err
}

// phaseRankSQL ranks the stored study_phase the same way StudyPhase.Rank does.
const phaseRankSQL = `CASE study_phase WHEN 'REGISTERED' THEN 1 WHEN 'STARTED' THEN 2 WHEN 'ENDED' THEN 3 ELSE 0 END`

// AdvanceTx records idx as the user's current decision index and moves the
// phase forward to next.  A phase earlier than the stored one is ignored,
// as is an index lower than the stored pointer.  Both comparisons run
// against the stored row inside the UPDATE.  The caller must commit or
// rollback the transaction.
func (r *UserRepo) AdvanceTx(ctx context.Context, tx *sql.Tx, id string, idx int, next model.StudyPhase) (model.UserStatus, error) {
	now := time.Now().UTC().Truncate(time.Second)
	_, err := tx.ExecContext(ctx,
		`UPDATE user_status SET
			study_phase = CASE WHEN `+phaseRankSQL+` < ? THEN ? ELSE study_phase END,
			current_decision_index = CASE WHEN current_decision_index < ? THEN ? ELSE current_decision_index END,
			updated_at = ?
		WHERE user_id = ?`,
		next.Rank(), string(next), idx, idx, fmtTime(now), id)
	if err != nil {
		return model.UserStatus{}, err
	}
	return scanStatus(tx.QueryRowContext(ctx,
		"SELECT user_id, study_phase, current_decision_index, updated_at FROM user_status WHERE user_id=? LIMIT 1", id))
}
