package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/intervention-decision-service/internal/model"
)

// DecisionRepo is the decision ledger.  Entries are keyed by
// (user_id, decision_idx), guarded by a unique index, and never updated.
type DecisionRepo struct {
	db *sql.DB
}

// NewDecisionRepo returns a new DecisionRepo bound to the given database.
func NewDecisionRepo(db *sql.DB) *DecisionRepo { return &DecisionRepo{db: db} }

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const insertDecision = `INSERT INTO decisions (user_id, decision_idx, decision_time, action, action_prob,
	random_state, state, reward, decision_timestamp, model_parameters, request_timestamp, created_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`

// RecordOnceTx inserts d within the caller's transaction.  The existence
// check and the write are the same statement: a second writer for the same
// key fails on the unique index and receives ErrDuplicateDecision.  The
// caller must commit or rollback the transaction.
func (r *DecisionRepo) RecordOnceTx(ctx context.Context, tx *sql.Tx, d *model.Decision) error {
	return recordOnce(ctx, tx, d)
}

// RecordOnce is the self-committing variant of RecordOnceTx.
func (r *DecisionRepo) RecordOnce(ctx context.Context, d *model.Decision) error {
	return recordOnce(ctx, r.db, d)
}

func recordOnce(ctx context.Context, ex execer, d *model.Decision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	state, err := encodeVector(d.State)
	if err != nil {
		return err
	}
	params, err := encodeVector(d.ModelParams)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, insertDecision,
		d.UserID, d.DecisionIndex, d.DecisionHour, d.Action, d.ActionProb,
		d.RandomSeed, state, d.Reward, fmtTime(d.WindowStart), params,
		fmtTime(d.RequestedAt), fmtTime(d.CreatedAt))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateDecision
		}
		return err
	}
	return nil
}

const decisionCols = `user_id, decision_idx, decision_time, action, action_prob, random_state, state,
	reward, decision_timestamp, model_parameters, request_timestamp, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(s rowScanner) (model.Decision, error) {
	var (
		d             model.Decision
		state, params string
	)
	err := s.Scan(&d.UserID, &d.DecisionIndex, &d.DecisionHour, &d.Action, &d.ActionProb,
		&d.RandomSeed, &state, &d.Reward, dbTime{&d.WindowStart}, &params,
		dbTime{&d.RequestedAt}, dbTime{&d.CreatedAt})
	if err != nil {
		return model.Decision{}, err
	}
	if d.State, err = decodeVector(state); err != nil {
		return model.Decision{}, err
	}
	if d.ModelParams, err = decodeVector(params); err != nil {
		return model.Decision{}, err
	}
	return d, nil
}

func getDecision(ctx context.Context, q queryer, userID string, idx int) (model.Decision, error) {
	d, err := scanDecision(q.QueryRowContext(ctx,
		"SELECT "+decisionCols+" FROM decisions WHERE user_id=? AND decision_idx=? LIMIT 1",
		userID, idx))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Decision{}, ErrDecisionNotFound
	}
	return d, err
}

// Get returns the ledger entry for (userID, idx) or ErrDecisionNotFound.
func (r *DecisionRepo) Get(ctx context.Context, userID string, idx int) (model.Decision, error) {
	return getDecision(ctx, r.db, userID, idx)
}

// GetTx is Get within the caller's transaction.
func (r *DecisionRepo) GetTx(ctx context.Context, tx *sql.Tx, userID string, idx int) (model.Decision, error) {
	return getDecision(ctx, tx, userID, idx)
}

// MaxIndex returns the highest committed decision index for the user, or 0
// when the ledger has no entries for them.
func (r *DecisionRepo) MaxIndex(ctx context.Context, userID string) (int, error) {
	var maxIdx sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(decision_idx) FROM decisions WHERE user_id=?", userID).Scan(&maxIdx)
	if err != nil {
		return 0, err
	}
	if !maxIdx.Valid {
		return 0, nil
	}
	return int(maxIdx.Int64), nil
}

// ListByUser returns the user's ledger ordered by decision index.
func (r *DecisionRepo) ListByUser(ctx context.Context, userID string) ([]model.Decision, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+decisionCols+" FROM decisions WHERE user_id=? ORDER BY decision_idx", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Decision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
