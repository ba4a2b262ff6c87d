package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// stubProvider serves a fixed session or error.
type stubProvider struct {
	session *services.Session
	err     error
}

func (s *stubProvider) Session(ctx context.Context) (*services.Session, error) {
	return s.session, s.err
}

func testSession() *services.Session {
	month := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &services.Session{
		Fingerprint: "abc123",
		Table: &domain.CleanedTable{
			Records:     make([]domain.CleanedRecord, 3),
			Fingerprint: "abc123",
		},
		Views: &dataprocessing.Views{
			Monthly:   []dataprocessing.PeriodSales{{Period: month, Sales: 690}},
			TopCities: []dataprocessing.CitySales{{City: "Bengaluru", Sales: 320}},
			States:    []dataprocessing.StateSales{},
		},
		KPIs: dataprocessing.KPIs{
			TotalSales:        690,
			TotalOrders:       3,
			AverageRating:     4.43,
			AverageOrderValue: 230,
		},
		LoadedAt: time.Now().UTC(),
	}
}

func newTestRouter(provider SessionProvider) http.Handler {
	cfg := config.Default()
	cfg.Server.RateLimit.Enabled = false
	return NewRouter(RouterDeps{
		Config:   &cfg,
		Provider: provider,
		Registry: prometheus.NewRegistry(),
	})
}

func TestSummaryHandler_GetKPIs(t *testing.T) {
	router := newTestRouter(&stubProvider{session: testSession()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		KPIs        dataprocessing.KPIs `json:"kpis"`
		Records     int                 `json:"records"`
		Fingerprint string              `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 690.0, body.KPIs.TotalSales)
	assert.Equal(t, 3, body.Records)
	assert.Equal(t, "abc123", body.Fingerprint)
}

func TestSummaryHandler_GetView(t *testing.T) {
	router := newTestRouter(&stubProvider{session: testSession()})

	tests := []struct {
		view string
		rows int
	}{
		{"monthly", 1},
		{"top-cities", 1},
		{"states", 0},
		{"daily", 0},
		{"weekly", 0},
		{"foodtype-monthly", 0},
		{"quarters", 0},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary/"+tt.view, nil))

			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				View string            `json:"view"`
				Rows []json.RawMessage `json:"rows"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.view, body.View)
			assert.Len(t, body.Rows, tt.rows)
		})
	}
}

func TestSummaryHandler_UnknownView(t *testing.T) {
	router := newTestRouter(&stubProvider{session: testSession()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary/bogus", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem apperrors.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apperrors.TypeNotFound, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestSummaryHandler_StorageErrorMapsTo503(t *testing.T) {
	provider := &stubProvider{err: apperrors.NewStorageError("read input file", nil)}
	router := newTestRouter(provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var problem apperrors.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apperrors.TypeDataUnreadable, problem.Type)
}

func TestSummaryHandler_ParsingErrorMapsTo422(t *testing.T) {
	provider := &stubProvider{err: apperrors.NewMissingColumnError("Order Date")}
	router := newTestRouter(provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary/monthly", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(&stubProvider{session: testSession()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	dataprocessing.NewMetrics(reg)

	cfg := config.Default()
	cfg.Server.RateLimit.Enabled = false
	router := NewRouter(RouterDeps{
		Config:   &cfg,
		Provider: &stubProvider{session: testSession()},
		Registry: reg,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter(&stubProvider{session: testSession()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
