package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/intervention-decision-service/internal/assign"
	"github.com/iliyamo/intervention-decision-service/internal/database"
	"github.com/iliyamo/intervention-decision-service/internal/model"
	"github.com/iliyamo/intervention-decision-service/internal/policy"
	"github.com/iliyamo/intervention-decision-service/internal/repository"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestIndexCommand(t *testing.T) {
	tests := []struct {
		at   string
		want string
	}{
		{"2024-01-01T04:00:00", "1"},
		{"2024-01-01T16:00:00", "2"},
		{"2024-01-02T04:00:00", "3"},
		{"2024-01-31T16:00:00", "62"},
	}
	for _, tt := range tests {
		out, err := runCommand(t, "index", "--anchor", "2024-01-01", "--at", tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, tt.at)
	}
}

func TestIndexCommand_ShowStart(t *testing.T) {
	out, err := runCommand(t, "index", "--anchor", "2024-01-01", "--at", "2024-01-02T09:30:00", "--show-start")
	require.NoError(t, err)
	assert.Equal(t, "3\nwindow start 2024-01-02T04:00:00", out)
}

func TestIndexCommand_RejectsBadInput(t *testing.T) {
	_, err := runCommand(t, "index", "--anchor", "yesterday", "--at", "2024-01-01T04:00:00")
	assert.Error(t, err)
	_, err = runCommand(t, "index", "--anchor", "2024-01-01", "--at", "2024-01-01T04:00:00", "--per-day", "5")
	assert.Error(t, err)
}

func TestMigrateCommand_SQLite(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "data", "cli.db"))

	out, err := runCommand(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")
}

func TestReplayDecision(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "replay.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db, database.SQLite))

	users := repository.NewUserRepo(db)
	ledger := repository.NewDecisionRepo(db)
	u := model.User{
		UserID:       "u1",
		AnchorAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		MorningStart: 6, MorningEnd: 11, EveningStart: 18, EveningEnd: 23,
	}
	require.NoError(t, users.Register(ctx, u))

	engine := assign.NewEngine(policy.RandomPolicy{}, policy.FixedSeed(99))
	d, err := engine.Assign(u, 2, time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, ledger.RecordOnce(ctx, &d))

	res, err := replayDecision(ctx, users, ledger, &replayOptions{UserID: "u1", Index: 2})
	require.NoError(t, err)
	assert.True(t, res.Reproduced)
	assert.Equal(t, int64(99), res.RandomSeed)
}
