package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/intervention-decision-service/internal/logger"
	"github.com/iliyamo/intervention-decision-service/internal/service"
)

// codeMalformedBody is reported when the request body is not valid JSON for
// the endpoint.
const codeMalformedBody = 10

// codeBadIndex matches the lookup service's code for an invalid index.
const codeBadIndex = 501

// StudyHandler exposes the study workflows over HTTP.
type StudyHandler struct {
	Registration *service.RegistrationService
	Decisions    *service.DecisionService
	Uploads      *service.UploadService
	Log          *logger.Logger
}

// NewStudyHandler constructs a StudyHandler and panics if any dependency is nil.
func NewStudyHandler(reg *service.RegistrationService, dec *service.DecisionService, up *service.UploadService, log *logger.Logger) *StudyHandler {
	if reg == nil || dec == nil || up == nil || log == nil {
		panic("nil dependency passed to NewStudyHandler")
	}
	return &StudyHandler{Registration: reg, Decisions: dec, Uploads: up, Log: log}
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindReferential:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the JSON error body for err.  Errors that are not
// *service.Error are treated as internal.
func (h *StudyHandler) fail(c echo.Context, err error) error {
	se, ok := service.AsError(err)
	if !ok {
		h.Log.Error("unclassified handler error", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "error_code": 0})
	}
	return c.JSON(statusFor(se.Kind), echo.Map{"error": se.Message, "error_code": se.Code})
}

func malformed(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed JSON body", "error_code": codeMalformedBody})
}

// Register handles POST /v1/register.
func (h *StudyHandler) Register(c echo.Context) error {
	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return malformed(c)
	}
	u, err := h.Registration.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user " + u.UserID + " was added",
		"user_id": u.UserID,
	})
}

// RequestAction handles POST /v1/actions.
func (h *StudyHandler) RequestAction(c echo.Context) error {
	var req service.AssignRequest
	if err := c.Bind(&req); err != nil {
		return malformed(c)
	}
	res, err := h.Decisions.RequestAction(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Upload handles POST /v1/upload.
func (h *StudyHandler) Upload(c echo.Context) error {
	var req service.UploadRequest
	if err := c.Bind(&req); err != nil {
		return malformed(c)
	}
	n, err := h.Uploads.Upload(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reconciled": n})
}

// GetDecision handles GET /v1/users/:user_id/decisions/:idx.
func (h *StudyHandler) GetDecision(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision index must be a positive integer", "error_code": codeBadIndex})
	}
	d, err := h.Decisions.Lookup(c.Request().Context(), c.Param("user_id"), idx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// GetStatus handles GET /v1/users/:user_id/status.
func (h *StudyHandler) GetStatus(c echo.Context) error {
	st, err := h.Decisions.Status(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
