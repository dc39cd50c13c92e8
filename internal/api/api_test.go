package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/domain"
	rediscache "github.com/webpulse/webpulse/internal/repository/redis"
)

type fakeAuditor struct {
	lastOpts analyzer.Options
	err      error
}

func (f *fakeAuditor) Analyze(_ context.Context, rawURL string, opts analyzer.Options) (*domain.AuditReport, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return auditedReport(rawURL, 84), nil
}

func (f *fakeAuditor) AnalyzeModule(_ context.Context, rawURL string, module domain.Module, opts analyzer.Options) (*domain.ModuleResult, error) {
	if !module.IsValid() {
		return nil, domain.ValidationError("module", "unknown module")
	}
	return &domain.ModuleResult{Module: module, Score: 90, RiskLevel: domain.RiskLow}, nil
}

type fakeReportStore struct {
	reports map[uuid.UUID]*domain.AuditReport
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: map[uuid.UUID]*domain.AuditReport{}}
}

func (f *fakeReportStore) Save(_ context.Context, report *domain.AuditReport) error {
	f.reports[report.ID] = report
	return nil
}

func (f *fakeReportStore) GetReport(_ context.Context, id uuid.UUID) (*domain.AuditReport, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, domain.NotFoundError("report", id)
	}
	return report, nil
}

type fakeComparisonStore struct {
	comparisons map[uuid.UUID]*domain.CompetitorComparison
}

func newFakeComparisonStore() *fakeComparisonStore {
	return &fakeComparisonStore{comparisons: map[uuid.UUID]*domain.CompetitorComparison{}}
}

func (f *fakeComparisonStore) GetComparison(_ context.Context, id uuid.UUID) (*domain.CompetitorComparison, error) {
	c, ok := f.comparisons[id]
	if !ok {
		return nil, domain.NotFoundError("comparison", id)
	}
	return c, nil
}

func (f *fakeComparisonStore) GetLatestByReport(_ context.Context, reportID uuid.UUID) (*domain.CompetitorComparison, error) {
	var latest *domain.CompetitorComparison
	for _, c := range f.comparisons {
		if c.UserReportID != reportID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.NotFoundError("comparison", reportID)
	}
	return latest, nil
}

type fakePipeline struct {
	store *fakeComparisonStore
}

func (f *fakePipeline) Start(_ context.Context, userReport *domain.AuditReport) (*domain.CompetitorComparison, error) {
	c := domain.NewCompetitorComparison(userReport.ID, userReport.Domain)
	f.store.comparisons[c.ID] = c
	return c, nil
}

type fakeLinker struct{}

func (fakeLinker) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://cdn.local/" + key, nil
}

func auditedReport(rawURL string, score int) *domain.AuditReport {
	report := domain.NewAuditReport(rawURL, domain.ScanModeDesktop)
	report.Modules[domain.ModuleSEO] = &domain.ModuleResult{
		Module:    domain.ModuleSEO,
		Score:     score,
		RiskLevel: domain.RiskLow,
	}
	report.Aggregate = &domain.AggregateReport{
		HealthScore:  score,
		ModuleScores: map[domain.Module]int{domain.ModuleSEO: score},
	}
	return report
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func setupRouter(t *testing.T) (*Router, *fakeReportStore, *fakeComparisonStore) {
	t.Helper()
	reports := newFakeReportStore()
	comparisons := newFakeComparisonStore()

	router := NewRouter(RouterConfig{
		Auditor:     &fakeAuditor{},
		Reports:     reports,
		Comparisons: comparisons,
		Pipeline:    &fakePipeline{store: comparisons},
		Logger:      zap.NewNop(),
	})
	return router, reports, comparisons
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestAnalyzeEndpoints(t *testing.T) {
	t.Run("analyze returns a full report and persists it", func(t *testing.T) {
		router, reports, _ := setupRouter(t)

		body := bytes.NewBufferString(`{"url": "https://example.com"}`)
		req := httptest.NewRequest("POST", "/api/analyze", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		require.True(t, env.Success)

		var report domain.AuditReport
		require.NoError(t, json.Unmarshal(env.Data, &report))
		assert.Equal(t, 84, report.HealthScore())
		assert.Len(t, reports.reports, 1)
	})

	t.Run("analyze without url is a 400", func(t *testing.T) {
		router, _, _ := setupRouter(t)

		req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "url is required", env.Error.Message)
	})

	t.Run("single module analyze", func(t *testing.T) {
		router, _, _ := setupRouter(t)

		body := bytes.NewBufferString(`{"url": "https://example.com"}`)
		req := httptest.NewRequest("POST", "/api/analyze/seo", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var result domain.ModuleResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, domain.ModuleSEO, result.Module)
	})

	t.Run("unknown module is a 400", func(t *testing.T) {
		router, _, _ := setupRouter(t)

		body := bytes.NewBufferString(`{"url": "https://example.com"}`)
		req := httptest.NewRequest("POST", "/api/analyze/security", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReportEndpoints(t *testing.T) {
	router, reports, _ := setupRouter(t)
	report := auditedReport("https://example.com", 77)
	reports.reports[report.ID] = report

	t.Run("get stored report", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/report/"+report.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var got domain.AuditReport
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, report.ID, got.ID)
	})

	t.Run("get one module of a report", func(t *testing.T) {
		req := httptest.NewRequest("GET", fmt.Sprintf("/api/report/%s/seo", report.ID), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var result domain.ModuleResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, 77, result.Score)
	})

	t.Run("module not in report is a 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", fmt.Sprintf("/api/report/%s/performance", report.ID), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stored artifacts come back as download links", func(t *testing.T) {
		linked := newFakeReportStore()
		archived := auditedReport("https://example.com", 66)
		archived.Artifacts = &domain.ArtifactRefs{
			ScreenshotKey: "screenshots/" + archived.ID.String() + ".jpg",
			HTMLKey:       "pages/" + archived.ID.String() + ".html",
		}
		linked.reports[archived.ID] = archived

		linkedRouter := NewRouter(RouterConfig{
			Auditor:   &fakeAuditor{},
			Reports:   linked,
			Artifacts: fakeLinker{},
			Logger:    zap.NewNop(),
		})

		req := httptest.NewRequest("GET", "/api/report/"+archived.ID.String(), nil)
		rec := httptest.NewRecorder()
		linkedRouter.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var got struct {
			ArtifactURLs *struct {
				Screenshot string `json:"screenshot"`
				HTML       string `json:"html"`
			} `json:"artifactUrls"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &got))
		require.NotNil(t, got.ArtifactURLs)
		assert.Equal(t, "https://cdn.local/"+archived.Artifacts.ScreenshotKey, got.ArtifactURLs.Screenshot)
		assert.Equal(t, "https://cdn.local/"+archived.Artifacts.HTMLKey, got.ArtifactURLs.HTML)
	})

	t.Run("unknown report is a 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/report/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/report/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompetitorEndpoints(t *testing.T) {
	t.Run("empty body is a 400 with the exact message", func(t *testing.T) {
		router, _, _ := setupRouter(t)

		req := httptest.NewRequest("POST", "/api/competitor/analyze-3-1", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "userReportId is required", env.Error.Message)
	})

	t.Run("unknown report is a 404", func(t *testing.T) {
		router, _, _ := setupRouter(t)

		body := bytes.NewBufferString(fmt.Sprintf(`{"userReportId": %q}`, uuid.NewString()))
		req := httptest.NewRequest("POST", "/api/competitor/analyze-3-1", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("valid report starts the pipeline", func(t *testing.T) {
		router, reports, comparisons := setupRouter(t)
		report := auditedReport("https://example.com", 70)
		reports.reports[report.ID] = report

		body := bytes.NewBufferString(fmt.Sprintf(`{"userReportId": %q}`, report.ID))
		req := httptest.NewRequest("POST", "/api/competitor/analyze-3-1", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var resp struct {
			ComparisonID uuid.UUID `json:"comparisonId"`
			Status       string    `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "analyzing", resp.Status)
		assert.Contains(t, comparisons.comparisons, resp.ComparisonID)
	})

	t.Run("comparison lookup round trip", func(t *testing.T) {
		router, reports, comparisons := setupRouter(t)
		report := auditedReport("https://example.com", 70)
		reports.reports[report.ID] = report
		comparison := domain.NewCompetitorComparison(report.ID, report.Domain)
		comparisons.comparisons[comparison.ID] = comparison

		req := httptest.NewRequest("GET", "/api/competitor/comparison/"+comparison.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest("GET", "/api/competitor/by-report/"+report.ID.String(), nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		env := decodeEnvelope(t, rec)
		var got domain.CompetitorComparison
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, comparison.ID, got.ID)
	})

	t.Run("unknown comparison is a 404", func(t *testing.T) {
		router, _, _ := setupRouter(t)

		req := httptest.NewRequest("GET", "/api/competitor/comparison/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestComparisonStatusEndpoint(t *testing.T) {
	t.Run("without a cache it falls through to the store", func(t *testing.T) {
		router, _, comparisons := setupRouter(t)
		comparison := domain.NewCompetitorComparison(uuid.New(), "example.com")
		comparisons.comparisons[comparison.ID] = comparison

		req := httptest.NewRequest("GET", "/api/competitor/comparison/"+comparison.ID.String()+"/status", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var resp struct {
			ComparisonID uuid.UUID `json:"comparisonId"`
			Status       string    `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, comparison.ID, resp.ComparisonID)
		assert.Equal(t, "analyzing", resp.Status)
	})

	t.Run("non-terminal status is served from the cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		reports := newFakeReportStore()
		comparisons := newFakeComparisonStore()
		router := NewRouter(RouterConfig{
			Auditor:     &fakeAuditor{},
			Reports:     reports,
			Comparisons: comparisons,
			Pipeline:    &fakePipeline{store: comparisons},
			Cache:       rediscache.NewFromClient(client),
			Logger:      zap.NewNop(),
		})

		comparison := domain.NewCompetitorComparison(uuid.New(), "example.com")
		comparisons.comparisons[comparison.ID] = comparison

		poll := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest("GET", "/api/competitor/comparison/"+comparison.ID.String()+"/status", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec
		}

		// First poll misses the cache and warms it from the store.
		require.Equal(t, http.StatusOK, poll().Code)

		// The second poll answers from the cache alone.
		delete(comparisons.comparisons, comparison.ID)
		rec := poll()
		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var resp struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "analyzing", resp.Status)

		// Once the entry expires the handler is back on the store.
		mr.FastForward(rediscache.StatusTTL + time.Second)
		assert.Equal(t, http.StatusNotFound, poll().Code)
	})

	t.Run("fetching a terminal comparison drops the cached status", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		cache := rediscache.NewFromClient(client)

		reports := newFakeReportStore()
		comparisons := newFakeComparisonStore()
		router := NewRouter(RouterConfig{
			Auditor:     &fakeAuditor{},
			Reports:     reports,
			Comparisons: comparisons,
			Pipeline:    &fakePipeline{store: comparisons},
			Cache:       cache,
			Logger:      zap.NewNop(),
		})

		comparison := domain.NewCompetitorComparison(uuid.New(), "example.com")
		require.NoError(t, comparison.Complete(&domain.ComparisonResult{}))
		comparisons.comparisons[comparison.ID] = comparison
		require.NoError(t, cache.SetComparisonStatus(context.Background(), comparison.ID, domain.ComparisonAnalyzing))

		req := httptest.NewRequest("GET", "/api/competitor/comparison/"+comparison.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		status, err := cache.GetComparisonStatus(context.Background(), comparison.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ComparisonStatus(""), status)
	})
}
