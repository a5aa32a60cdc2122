package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/intervention-decision-service/internal/assign"
	"github.com/iliyamo/intervention-decision-service/internal/database"
	"github.com/iliyamo/intervention-decision-service/internal/handler"
	"github.com/iliyamo/intervention-decision-service/internal/logger"
	"github.com/iliyamo/intervention-decision-service/internal/middleware"
	"github.com/iliyamo/intervention-decision-service/internal/policy"
	"github.com/iliyamo/intervention-decision-service/internal/service"
)

const secret = "router-test-secret"

type api struct {
	e     *echo.Echo
	token string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))

	log := logger.NewNop()
	engine := assign.NewEngine(policy.RandomPolicy{}, policy.NewSequentialSeeds(7))
	dec := service.NewDecisionService(db, engine, 2, nil, log)
	h := handler.NewStudyHandler(
		service.NewRegistrationService(dec.Users, log),
		dec,
		service.NewUploadService(db, 2, log),
		log,
	)

	e := echo.New()
	e.Use(middleware.RequestLogger(log))
	RegisterRoutes(e, db)
	RegisterStudy(e, h, StudyDeps{JWTSecret: secret})

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "study-backend", "role": middleware.RoleStudyClient,
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return &api{e: e, token: tok}
}

func (a *api) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

const registerBody = `{"user_id":"u1","rl_start_date":"2024-01-01","rl_end_date":"2024-02-01",
	"morning_start_hour":6,"morning_end_hour":11,"evening_start_hour":18,"evening_end_hour":23}`

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStudyFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/v1/register", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.EqualValues(t, 114, decode(t, rec)["error_code"])

	action := `{"user_id":"u1","request_timestamp":"2024-01-01T03:59:00","decision_window_start":"2024-01-01T04:00:00"}`
	rec = a.do(http.MethodPost, "/v1/actions", action)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["decision_index"])
	assert.Contains(t, []any{0.0, 1.0}, body["action"])

	rec = a.do(http.MethodPost, "/v1/actions", action)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.EqualValues(t, 304, decode(t, rec)["error_code"])

	rec = a.do(http.MethodGet, "/v1/users/u1/decisions/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["decision_index"])

	rec = a.do(http.MethodGet, "/v1/users/u1/decisions/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 502, decode(t, rec)["error_code"])

	rec = a.do(http.MethodPost, "/v1/upload", `{"user_id":"u1","upload_timestamp":"2024-01-02T00:00:00",
		"previous_upload_timestamp":"2024-01-01T00:00:00","outcome_data":[["2024-01-01T08:00:00",90]]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["reconciled"])

	rec = a.do(http.MethodGet, "/v1/users/u1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode(t, rec)
	assert.Equal(t, "STARTED", st["phase"])
	assert.EqualValues(t, 1, st["current_decision_index"])
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/actions", `{"user_id":"ghost","request_timestamp":"2024-01-01T03:00:00","decision_window_start":"2024-01-01T04:00:00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 203, decode(t, rec)["error_code"])

	rec = a.do(http.MethodPost, "/v1/actions", `{"request_timestamp":"2024-01-01T03:00:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 100, decode(t, rec)["error_code"])

	for _, idx := range []string{"abc", "1.5", "0", "-3"} {
		rec = a.do(http.MethodGet, "/v1/users/u1/decisions/"+idx, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, idx)
		assert.EqualValues(t, 501, decode(t, rec)["error_code"], idx)
	}

	rec = a.do(http.MethodPost, "/v1/upload", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 10, decode(t, rec)["error_code"])
}

func TestStudyRoutesRequireToken(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/register", strings.NewReader(registerBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
