package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/intervention-decision-service/internal/model"
)

func validRegister() RegisterRequest {
	return RegisterRequest{
		UserID:       "u1",
		StartDate:    "2024-01-01",
		EndDate:      "2024-02-01T00:00:00",
		MorningStart: intp(6),
		MorningEnd:   intp(11),
		EveningStart: intp(18),
		EveningEnd:   intp(23),
	}
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.register.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00", FormatTimestamp(u.AnchorAt))

	st, err := f.register.Users.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseRegistered, st.Phase)

	_, err = f.register.Register(ctx, validRegister())
	requireCode(t, err, KindConflict, 114)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		code   int
	}{
		{"missing user", func(r *RegisterRequest) { r.UserID = " " }, 100},
		{"missing start", func(r *RegisterRequest) { r.StartDate = "" }, 101},
		{"missing end", func(r *RegisterRequest) { r.EndDate = "" }, 102},
		{"missing morning start", func(r *RegisterRequest) { r.MorningStart = nil }, 103},
		{"missing morning end", func(r *RegisterRequest) { r.MorningEnd = nil }, 104},
		{"missing evening start", func(r *RegisterRequest) { r.EveningStart = nil }, 105},
		{"missing evening end", func(r *RegisterRequest) { r.EveningEnd = nil }, 106},
		{"morning start range", func(r *RegisterRequest) { r.MorningStart = intp(3) }, 107},
		{"morning end range", func(r *RegisterRequest) { r.MorningEnd = intp(17) }, 108},
		{"evening start range", func(r *RegisterRequest) { r.EveningStart = intp(10) }, 109},
		{"evening end range", func(r *RegisterRequest) { r.EveningEnd = intp(5) }, 110},
		{"morning start equals end", func(r *RegisterRequest) { r.MorningStart, r.MorningEnd = intp(8), intp(8) }, 111},
		{"evening start after end", func(r *RegisterRequest) { r.EveningStart, r.EveningEnd = intp(22), intp(20) }, 112},
		{"end before start", func(r *RegisterRequest) { r.EndDate = "2023-12-01" }, 115},
		{"bad date", func(r *RegisterRequest) { r.StartDate = "01/01/2024" }, 116},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(&req)
			_, err := f.register.Register(context.Background(), req)
			requireCode(t, err, KindValidation, tt.code)
		})
	}
	assert.Equal(t, 0, countRows(t, f.db, "users"))
}

func TestRegister_EveningHoursAcrossMidnight(t *testing.T) {
	req := validRegister()
	req.EveningStart, req.EveningEnd = intp(0), intp(3)
	_, verr := req.Validate()
	assert.Nil(t, verr)

	req.EveningStart, req.EveningEnd = intp(16), intp(24)
	_, verr = req.Validate()
	assert.Nil(t, verr)
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-01-01T04:00:00")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Hour())

	for _, s := range []string{"2024-01-01", "2024-01-01 04:00:00", "2024-01-01T04:00:00.5", "2024-01-01T04:00:00Z", " 2024-01-01T04:00:00"} {
		_, err := ParseTimestamp(s)
		assert.Error(t, err, s)
	}

	d, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00", FormatTimestamp(d))
}
