package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aeroscout/fareengine/internal/credentials"
	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/ratelimit"
	"github.com/aeroscout/fareengine/internal/search"
	"github.com/aeroscout/fareengine/internal/session"
)

// SearchService is the engine surface the HTTP layer depends on.
type SearchService interface {
	Search(ctx context.Context, user search.AuthorizedUser, req *models.SearchRequest) (*models.SearchSession, error)
	Probe(ctx context.Context, user search.AuthorizedUser, searchID string) (*models.SearchSession, error)
	Session(ctx context.Context, searchID string) (*models.SearchSession, error)
}

type SearchHandler struct {
	service SearchService
	logger  *zap.Logger
}

func NewSearchHandler(service SearchService, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{service: service, logger: logger}
}

// Register mounts the search routes on the echo instance.
func (h *SearchHandler) Register(e *echo.Echo) {
	api := e.Group("/api/v2")
	api.POST("/flights/search", h.Search)
	api.POST("/flights/search/:id/probe", h.Probe)
	api.GET("/flights/search/:id", h.Session)
	e.GET("/health", HealthHandler)
}

func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	sess, err := h.service.Search(ctx, userFrom(c), &req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SearchHandler) Probe(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := h.service.Probe(ctx, userFrom(c), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SearchHandler) Session(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := h.service.Session(ctx, c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SearchHandler) errorResponse(c echo.Context, err error) error {
	var validationErr models.ValidationError
	var quotaErr *ratelimit.QuotaExceededError

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
			Code:    http.StatusBadRequest,
		})
	case errors.As(err, &quotaErr):
		return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:   "quota_exceeded",
			Message: quotaErr.Error(),
			Code:    http.StatusTooManyRequests,
		})
	case errors.Is(err, session.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "No search session with that id.",
			Code:    http.StatusNotFound,
		})
	case errors.Is(err, credentials.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "provider_unavailable",
			Message: "Flight provider credentials are unavailable, try again shortly.",
			Code:    http.StatusServiceUnavailable,
		})
	default:
		h.logger.Error("search request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to search flights: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
}

// userContextKey is where an auth middleware deposits the caller. Without
// one, identity falls back to gateway-style headers.
const userContextKey = "authorized_user"

type headerUser struct {
	id    string
	admin bool
}

func (u headerUser) UserID() string { return u.id }
func (u headerUser) IsAdmin() bool  { return u.admin }

func userFrom(c echo.Context) search.AuthorizedUser {
	if u, ok := c.Get(userContextKey).(search.AuthorizedUser); ok {
		return u
	}
	id := c.Request().Header.Get("X-User-ID")
	if id == "" {
		id = "anonymous"
	}
	return headerUser{
		id:    id,
		admin: c.Request().Header.Get("X-User-Role") == "admin",
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
