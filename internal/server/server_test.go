package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/assistant/rules"
	"github.com/spigell/lendmatch/internal/filtering"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/sheets"
	"github.com/spigell/lendmatch/internal/store"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory(true)
	svc := assistant.NewService(st, rules.NewExtractor(), rules.NewResponder(func(int) int { return 0 }),
		matching.NewScorer(matching.VariantAdditive), filtering.Config{}, zap.NewNop())
	return New(Config{}, st, svc, zap.NewNop(), opts...), st
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status         string             `json:"status"`
		ScoringVariant string             `json:"scoringVariant"`
		Filters        []filtering.Status `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "a", health.ScoringVariant)
	require.Len(t, health.Filters, 4)
	assert.Equal(t, "active", health.Filters[0].Name)
	assert.True(t, health.Filters[0].Enabled)
	assert.Equal(t, "loan_types", health.Filters[2].Name)
	assert.False(t, health.Filters[2].Enabled)
	assert.Equal(t, "no loan types configured", health.Filters[2].Reason)

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	do(t, s, http.MethodGet, "/health", nil)
	rec := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lendmatch_http_requests_total")
}

func TestPartnerLifecycle(t *testing.T) {
	s, st := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/lending-partners", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]matching.Partner](t, rec), 5)

	rec = do(t, s, http.MethodPost, "/api/lending-partners", map[string]any{
		"name":               "Invoice Lender",
		"loanType":           "Invoice Factoring",
		"minLoanAmount":      10000,
		"maxLoanAmount":      300000,
		"minCreditScore":     600,
		"minAnnualRevenue":   120000,
		"minYearsInBusiness": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[matching.Partner](t, rec)
	assert.Equal(t, 6, created.ID)
	assert.True(t, created.Active, "active by default")

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/lending-partners/%d", created.ID), map[string]any{
		"minCreditScore": 640,
		"active":         false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[matching.Partner](t, rec)
	assert.Equal(t, 640, updated.MinCreditScore)
	assert.Equal(t, "Invoice Lender", updated.Name)
	assert.False(t, updated.Active)

	rec = do(t, s, http.MethodGet, "/api/lending-partners", nil)
	assert.Len(t, decodeBody[[]matching.Partner](t, rec), 5, "inactive partners are not listed")

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/lending-partners/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, st.Partners(), 5)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/lending-partners/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPartnerValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "missing name", method: http.MethodPost, path: "/api/lending-partners", body: map[string]any{"loanType": "Term Loan"}, status: http.StatusBadRequest},
		{
			name: "inverted amounts", method: http.MethodPost, path: "/api/lending-partners",
			body:   map[string]any{"name": "X", "loanType": "Term Loan", "minLoanAmount": 5000, "maxLoanAmount": 100},
			status: http.StatusBadRequest,
		},
		{name: "malformed json", method: http.MethodPost, path: "/api/lending-partners", body: "{", status: http.StatusBadRequest},
		{name: "bad id", method: http.MethodPut, path: "/api/lending-partners/abc", body: map[string]any{}, status: http.StatusBadRequest},
		{name: "unknown partner", method: http.MethodPut, path: "/api/lending-partners/99", body: map[string]any{}, status: http.StatusNotFound},
		{name: "inverted update", method: http.MethodPut, path: "/api/lending-partners/1", body: map[string]any{"maxLoanAmount": 10}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[errorBody](t, rec).Message)
		})
	}
}

func TestLeads(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/leads", map[string]any{"businessType": "Retail"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/leads", map[string]any{"businessName": "Acme", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/leads", map[string]any{
		"businessName": "Acme",
		"email":        "owner@acme.test",
		"creditScore":  "720",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lead := decodeBody[store.Lead](t, rec)
	assert.Equal(t, store.LeadStatusNew, lead.Status)
	require.NotNil(t, lead.Profile.CreditScore)
	assert.Equal(t, 720, *lead.Profile.CreditScore)

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/leads/%d", lead.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decodeBody[store.Lead](t, rec).Profile.BusinessName)

	rec = do(t, s, http.MethodGet, "/api/leads", nil)
	assert.Len(t, decodeBody[[]store.Lead](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/leads/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/leads/42/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatFlowAndMatches(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/chat/message", map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/chat/message", map[string]any{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/chat/message", map[string]any{"message": "hi", "leadId": 77})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/chat/message", map[string]any{
		"message": "I own a retail shop, 6 years, revenue is $800k, need a $100k loan for inventory, credit score 760",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reply := decodeBody[assistant.Reply](t, rec)
	require.NotNil(t, reply.Lead)
	require.Len(t, reply.Matches, 5)
	assert.NotEmpty(t, reply.Message)

	leadID := reply.Lead.ID

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/leads/%d/messages", leadID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeBody[[]store.Message](t, rec)
	require.Len(t, messages, 2)
	assert.Equal(t, store.RoleUser, messages[0].Role)
	assert.Equal(t, store.RoleAssistant, messages[1].Role)

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/leads/%d/matches", leadID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matches := decodeBody[[]matchResponse](t, rec)
	require.Len(t, matches, 5)
	for _, m := range matches {
		require.NotNil(t, m.Partner)
		require.NotNil(t, m.Explanation)
		assert.Equal(t, m.Score, m.Explanation.Score)
		assert.True(t, m.Explanation.Eligible)
	}

	partnerID := matches[0].PartnerID
	path := fmt.Sprintf("/api/leads/%d/matches/%d", leadID, partnerID)

	rec = do(t, s, http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, path, map[string]any{"selected": true, "submitted": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[store.Match](t, rec)
	assert.True(t, updated.Selected)
	assert.True(t, updated.Submitted)
	assert.NotNil(t, updated.SubmittedAt)

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/leads/%d/matches/999", leadID), map[string]any{"selected": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncPartners(t *testing.T) {
	var got sheets.Config
	factory := func(_ context.Context, cfg sheets.Config) (sheets.Fetcher, error) {
		got = cfg
		return sheets.FetcherFunc(func(context.Context) ([][]any, error) {
			return [][]any{
				{"Brand New Lender", "Invoice Factoring", "10000", "500000", "600", "120000", "1", "", "", "", "", "", "2", "4", "days", "TRUE"},
			}, nil
		}), nil
	}

	s, st := newTestServer(t,
		WithSheets(sheets.Config{SpreadsheetID: "configured", Range: "Sheet1!A2:P"}),
		WithFetcherFactory(factory),
	)

	rec := do(t, s, http.MethodPost, "/api/sync/lending-partners", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no api key configured")

	rec = do(t, s, http.MethodPost, "/api/sync/lending-partners", map[string]any{"apiKey": "key"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, sheets.Result{Added: 1}, decodeBody[sheets.Result](t, rec))
	assert.Equal(t, "configured", got.SpreadsheetID)
	assert.Equal(t, "key", got.APIKey)
	assert.Len(t, st.Partners(), 6)
}

func TestSyncPartnersFactoryError(t *testing.T) {
	s, _ := newTestServer(t,
		WithSheets(sheets.Config{SpreadsheetID: "id", APIKey: "key"}),
		WithFetcherFactory(func(context.Context, sheets.Config) (sheets.Fetcher, error) {
			return nil, errors.New("no network")
		}),
	)

	rec := do(t, s, http.MethodPost, "/api/sync/lending-partners", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), decodeBody[errorBody](t, rec).Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: nil, status: http.StatusOK},
		{err: fmt.Errorf("lead 1: %w", store.ErrNotFound), status: http.StatusNotFound},
		{err: store.ErrAlreadyExists, status: http.StatusConflict},
		{err: assistant.ErrEmptyMessage, status: http.StatusBadRequest},
		{err: &ErrValidation{Field: "id"}, status: http.StatusBadRequest},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), fmt.Sprint(tt.err))
	}
}
