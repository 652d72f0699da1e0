package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeroscout/fareengine/internal/credentials"
	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/ratelimit"
	"github.com/aeroscout/fareengine/internal/search"
	"github.com/aeroscout/fareengine/internal/session"
)

type stubService struct {
	searchErr error
	probeErr  error
	getErr    error
	session   *models.SearchSession

	lastUser search.AuthorizedUser
	lastReq  *models.SearchRequest
	lastID   string
}

func (s *stubService) Search(_ context.Context, user search.AuthorizedUser, req *models.SearchRequest) (*models.SearchSession, error) {
	s.lastUser = user
	s.lastReq = req
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.session, nil
}

func (s *stubService) Probe(_ context.Context, user search.AuthorizedUser, searchID string) (*models.SearchSession, error) {
	s.lastUser = user
	s.lastID = searchID
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	return s.session, nil
}

func (s *stubService) Session(_ context.Context, searchID string) (*models.SearchSession, error) {
	s.lastID = searchID
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.session, nil
}

func doRequest(h *SearchHandler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	h.Register(e)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSearchReturnsSession(t *testing.T) {
	svc := &stubService{session: &models.SearchSession{
		SearchID: "s-1",
		Status:   models.SessionCompleted,
	}}
	h := NewSearchHandler(svc, nil)

	body := `{"origin":"CAN","destination":"PEK","departure_date":"2026-04-01"}`
	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", body, map[string]string{
		"X-User-ID": "u-42",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.SearchSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "s-1", got.SearchID)

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "CAN", svc.lastReq.Origin)
	assert.Equal(t, "u-42", svc.lastUser.UserID())
	assert.False(t, svc.lastUser.IsAdmin())
}

func TestSearchAnonymousUserFallback(t *testing.T) {
	svc := &stubService{session: &models.SearchSession{SearchID: "s-1"}}
	h := NewSearchHandler(svc, nil)

	body := `{"origin":"CAN","destination":"PEK","departure_date":"2026-04-01"}`
	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", svc.lastUser.UserID())
}

func TestSearchAdminRoleHeader(t *testing.T) {
	svc := &stubService{session: &models.SearchSession{SearchID: "s-1"}}
	h := NewSearchHandler(svc, nil)

	body := `{"origin":"CAN","destination":"PEK","departure_date":"2026-04-01"}`
	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", body, map[string]string{
		"X-User-ID":   "ops",
		"X-User-Role": "admin",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.lastUser.IsAdmin())
}

func TestSearchValidationErrorIs400(t *testing.T) {
	svc := &stubService{searchErr: models.ErrMissingOrigin}
	h := NewSearchHandler(svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error)
	assert.Equal(t, models.ErrMissingOrigin.Error(), resp.Message)
}

func TestSearchMalformedBodyIs400(t *testing.T) {
	svc := &stubService{}
	h := NewSearchHandler(svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", `{"origin":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestSearchQuotaExceededIs429(t *testing.T) {
	svc := &stubService{searchErr: &ratelimit.QuotaExceededError{UserID: "u-1", MaxCalls: 5}}
	h := NewSearchHandler(svc, nil)

	body := `{"origin":"CAN","destination":"PEK","departure_date":"2026-04-01"}`
	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", body, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quota_exceeded", resp.Error)
}

func TestProbeDelegatesSearchID(t *testing.T) {
	svc := &stubService{session: &models.SearchSession{
		SearchID: "s-9",
		Phase:    models.PhaseTwo,
	}}
	h := NewSearchHandler(svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search/s-9/probe", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-9", svc.lastID)
}

func TestProbeUnknownSessionIs404(t *testing.T) {
	svc := &stubService{probeErr: session.ErrNotFound}
	h := NewSearchHandler(svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search/nope/probe", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestSessionLookupByID(t *testing.T) {
	svc := &stubService{session: &models.SearchSession{SearchID: "s-3"}}
	h := NewSearchHandler(svc, nil)

	rec := doRequest(h, http.MethodGet, "/api/v2/flights/search/s-3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-3", svc.lastID)
}

func TestCredentialsUnavailableIs503(t *testing.T) {
	svc := &stubService{searchErr: credentials.ErrUnavailable}
	h := NewSearchHandler(svc, nil)

	body := `{"origin":"CAN","destination":"PEK","departure_date":"2026-04-01"}`
	rec := doRequest(h, http.MethodPost, "/api/v2/flights/search", body, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	h := NewSearchHandler(&stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
