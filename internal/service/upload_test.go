package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignWindow(t *testing.T, f *fixture, user, request, start string) AssignResult {
	t.Helper()
	res, err := f.decide.RequestAction(context.Background(), AssignRequest{
		UserID: user, RequestTimestamp: str(request), DecisionWindowStart: str(start),
	})
	require.NoError(t, err)
	return res
}

func TestUpload_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enroll(t, f, "u1", "2024-01-01", "2024-02-01")
	morning := assignWindow(t, f, "u1", "2024-01-01T03:59:00", "2024-01-01T04:00:00")
	evening := assignWindow(t, f, "u1", "2024-01-01T15:00:00", "2024-01-01T16:00:00")

	n, err := f.upload.Upload(ctx, UploadRequest{
		UserID:                  "u1",
		UploadTimestamp:         str("2024-01-02T08:00:00"),
		PreviousUploadTimestamp: str("2024-01-01T00:00:00"),
		OutcomeData:             raw(`[["2024-01-01T09:12:00", 120], ["2024-01-01T21:40:00", 0]]`),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := f.upload.StudyData.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, morning.DecisionIndex, rows[0].DecisionIndex)
	assert.Equal(t, morning.Action, rows[0].Action)
	assert.Equal(t, morning.Decision.ActionProb, rows[0].ActionProb)
	assert.Equal(t, morning.DecisionHour, rows[0].DecisionHour)
	assert.Equal(t, 120, rows[0].Outcome)
	assert.Equal(t, evening.DecisionIndex, rows[1].DecisionIndex)
	assert.Equal(t, evening.Decision.Reward, rows[1].Reward)
}

func TestUpload_DuplicateTimestampsCommitNothing(t *testing.T) {
	f := newFixture(t)
	enroll(t, f, "u1", "2024-01-01", "2024-02-01")
	assignWindow(t, f, "u1", "2024-01-01T03:59:00", "2024-01-01T04:00:00")

	_, err := f.upload.Upload(context.Background(), UploadRequest{
		UserID:                  "u1",
		UploadTimestamp:         str("2024-01-02T08:00:00"),
		PreviousUploadTimestamp: str("2024-01-01T00:00:00"),
		OutcomeData:             raw(`[["2024-01-01T09:12:00", 1], ["2024-01-01T09:12:00", 2]]`),
	})
	requireCode(t, err, KindValidation, 208)
	assert.Equal(t, 0, countRows(t, f.db, "study_data"))
}

func TestUpload_MissingDecisionAbortsBatch(t *testing.T) {
	f := newFixture(t)
	enroll(t, f, "u1", "2024-01-01", "2024-02-01")
	assignWindow(t, f, "u1", "2024-01-01T03:59:00", "2024-01-01T04:00:00")

	_, err := f.upload.Upload(context.Background(), UploadRequest{
		UserID:                  "u1",
		UploadTimestamp:         str("2024-01-02T08:00:00"),
		PreviousUploadTimestamp: str("2024-01-01T00:00:00"),
		OutcomeData:             raw(`[["2024-01-01T09:12:00", 1], ["2024-01-01T20:00:00", 2]]`),
	})
	requireCode(t, err, KindReferential, 303)
	assert.Equal(t, 0, countRows(t, f.db, "study_data"))
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t)
	enroll(t, f, "u1", "2024-01-01", "2024-02-01")

	base := func() UploadRequest {
		return UploadRequest{
			UserID:                  "u1",
			UploadTimestamp:         str("2024-01-02T08:00:00"),
			PreviousUploadTimestamp: str("2024-01-01T00:00:00"),
			OutcomeData:             raw(`[["2024-01-01T09:12:00", 1]]`),
		}
	}
	tests := []struct {
		name   string
		mutate func(*UploadRequest)
		kind   Kind
		code   int
	}{
		{"missing user", func(r *UploadRequest) { r.UserID = "" }, KindValidation, 200},
		{"bad upload timestamp", func(r *UploadRequest) { r.UploadTimestamp = raw("42") }, KindValidation, 201},
		{"fractional upload timestamp", func(r *UploadRequest) { r.UploadTimestamp = str("2024-01-02T00:00:00.5") }, KindValidation, 201},
		{"space separated upload timestamp", func(r *UploadRequest) { r.UploadTimestamp = str("2024-01-02 00:00:00") }, KindValidation, 201},
		{"bad previous timestamp", func(r *UploadRequest) { r.PreviousUploadTimestamp = str("yesterday") }, KindValidation, 202},
		{"previous after upload", func(r *UploadRequest) { r.PreviousUploadTimestamp = str("2024-01-03T00:00:00") }, KindValidation, 203},
		{"missing outcomes", func(r *UploadRequest) { r.OutcomeData = nil }, KindValidation, 204},
		{"empty outcomes", func(r *UploadRequest) { r.OutcomeData = raw(`[]`) }, KindValidation, 204},
		{"outcomes not a list", func(r *UploadRequest) { r.OutcomeData = raw(`{"a":1}`) }, KindValidation, 204},
		{"item not a pair", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-01-01T09:12:00"]]`) }, KindValidation, 205},
		{"bad item timestamp", func(r *UploadRequest) { r.OutcomeData = raw(`[["noon", 1]]`) }, KindValidation, 206},
		{"fractional item timestamp", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-01-01T09:12:00.5", 1]]`) }, KindValidation, 206},
		{"space separated item timestamp", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-01-01 09:12:00", 1]]`) }, KindValidation, 206},
		{"fractional value", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-01-01T09:12:00", 1.5]]`) }, KindValidation, 207},
		{"string value", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-01-01T09:12:00", "1"]]`) }, KindValidation, 207},
		{"unknown user", func(r *UploadRequest) { r.UserID = "ghost" }, KindReferential, 300},
		{"before study", func(r *UploadRequest) { r.OutcomeData = raw(`[["2023-12-31T23:00:00", 1]]`) }, KindValidation, 301},
		{"at study end", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-02-01T00:00:00", 1]]`) }, KindValidation, 301},
		{"negative outcome", func(r *UploadRequest) { r.OutcomeData = raw(`[["2024-01-01T09:12:00", -1]]`) }, KindValidation, 302},
		{"no decision", func(r *UploadRequest) {}, KindReferential, 303},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			_, err := f.upload.Upload(context.Background(), req)
			requireCode(t, err, tt.kind, tt.code)
		})
	}
	assert.Equal(t, 0, countRows(t, f.db, "study_data"))
}
