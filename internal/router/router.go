package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/intervention-decision-service/internal/handler"
	"github.com/iliyamo/intervention-decision-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// StudyDeps bundles the middleware applied to the study API.
type StudyDeps struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterStudy registers the study API under /v1.  Every route requires a
// bearer token with the STUDY_CLIENT role and passes through the rate
// limiter; only ledger lookups are cached since entries never change.
func RegisterStudy(e *echo.Echo, h *handler.StudyHandler, deps StudyDeps) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(deps.JWTSecret))
	g.Use(middleware.RequireRole(middleware.RoleStudyClient))
	if deps.RateLimit != nil {
		g.Use(deps.RateLimit)
	}

	g.POST("/register", h.Register)
	g.POST("/actions", h.RequestAction)
	g.POST("/upload", h.Upload)

	lookup := []echo.MiddlewareFunc{}
	if deps.Cache != nil {
		lookup = append(lookup, deps.Cache)
	}
	g.GET("/users/:user_id/decisions/:idx", h.GetDecision, lookup...)
	g.GET("/users/:user_id/status", h.GetStatus)
}
