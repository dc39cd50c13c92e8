package competitor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/domain"
)

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]bool
	scores map[string]int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, rawURL string, opts analyzer.Options) (*domain.AuditReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	host := domain.DomainOf(rawURL)
	if f.fail[host] {
		return nil, domain.UpstreamError("crawler", errors.New("unreachable"))
	}
	if !opts.ReducedCost {
		return nil, errors.New("competitor audits must run in reduced-cost mode")
	}

	score := 75
	if s, ok := f.scores[host]; ok {
		score = s
	}
	return reportWithScore(rawURL, score), nil
}

func reportWithScore(rawURL string, score int) *domain.AuditReport {
	report := domain.NewAuditReport(rawURL, domain.ScanModeDesktop)
	report.Modules[domain.ModulePerformance] = &domain.ModuleResult{
		Module: domain.ModulePerformance,
		Score:  score,
	}
	report.Aggregate = &domain.AggregateReport{
		HealthScore:  score,
		ModuleScores: map[domain.Module]int{domain.ModulePerformance: score},
	}
	return report
}

type fakeStore struct {
	mu      sync.Mutex
	created []*domain.CompetitorComparison
	updates []domain.ComparisonStatus
	failOn  string
}

func (f *fakeStore) CreateComparison(_ context.Context, c *domain.CompetitorComparison) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "create" {
		return errors.New("db down")
	}
	f.created = append(f.created, c)
	return nil
}

func (f *fakeStore) UpdateComparison(_ context.Context, c *domain.CompetitorComparison) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, c.Status)
	return nil
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []*domain.AuditReport
}

func (f *fakeSaver) Save(_ context.Context, report *domain.AuditReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, report)
	return nil
}

type fakeStarter struct {
	comparisonID uuid.UUID
	reportID     uuid.UUID
	userDomain   string
	err          error
}

func (f *fakeStarter) StartComparison(_ context.Context, comparisonID, userReportID uuid.UUID, userDomain string) error {
	if f.err != nil {
		return f.err
	}
	f.comparisonID = comparisonID
	f.reportID = userReportID
	f.userDomain = userDomain
	return nil
}

func testCandidates() []Candidate {
	return []Candidate{
		{Domain: "alpha.example", Reason: "same vertical", Method: domain.DiscoveryAI},
		{Domain: "beta.example", Reason: "same vertical", Method: domain.DiscoveryAI},
		{Domain: "gamma.example", Reason: "same vertical", Method: domain.DiscoveryAI},
	}
}

func TestAnalyzeBatch(t *testing.T) {
	t.Run("one failure out of three proceeds", func(t *testing.T) {
		fa := &fakeAnalyzer{
			fail:   map[string]bool{"beta.example": true},
			scores: map[string]int{"alpha.example": 90, "gamma.example": 60},
		}
		saver := &fakeSaver{}
		svc := NewService(nil, fa, &fakeStore{}, saver, nil, zap.NewNop())

		entries, err := svc.AnalyzeBatch(context.Background(), testCandidates())
		require.NoError(t, err)
		require.Len(t, entries, 2)

		byDomain := map[string]domain.CompetitorEntry{}
		for _, e := range entries {
			byDomain[e.Domain] = e
		}
		assert.Equal(t, 90, byDomain["alpha.example"].HealthScore)
		assert.Equal(t, 60, byDomain["gamma.example"].HealthScore)
		assert.NotEqual(t, uuid.Nil, byDomain["alpha.example"].ReportRef)
		assert.Equal(t, domain.DiscoveryAI, byDomain["alpha.example"].DiscoveryMethod)
		assert.Len(t, saver.saved, 2)
	})

	t.Run("two failures out of three is insufficient", func(t *testing.T) {
		fa := &fakeAnalyzer{
			fail: map[string]bool{"alpha.example": true, "gamma.example": true},
		}
		svc := NewService(nil, fa, &fakeStore{}, nil, nil, zap.NewNop())

		entries, err := svc.AnalyzeBatch(context.Background(), testCandidates())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInsufficientDataVal))
		assert.Nil(t, entries)
	})

	t.Run("runs audits in reduced cost mode", func(t *testing.T) {
		fa := &fakeAnalyzer{}
		svc := NewService(nil, fa, &fakeStore{}, nil, nil, zap.NewNop())

		_, err := svc.AnalyzeBatch(context.Background(), testCandidates())
		require.NoError(t, err)
		assert.Len(t, fa.calls, 3)
	})
}

func TestDiscoverFallback(t *testing.T) {
	svc := NewService(nil, &fakeAnalyzer{}, &fakeStore{}, nil, nil, zap.NewNop())

	t.Run("industry bucket match", func(t *testing.T) {
		candidates := svc.Discover(context.Background(), "myshop.example")
		require.Len(t, candidates, 3)
		domains := make([]string, 0, 3)
		for _, c := range candidates {
			domains = append(domains, c.Domain)
			assert.Equal(t, domain.DiscoveryFallback, c.Method)
			assert.NotEmpty(t, c.Reason)
		}
		assert.Contains(t, domains, "shopify.com")
	})

	t.Run("generic bucket when nothing matches", func(t *testing.T) {
		candidates := svc.Discover(context.Background(), "plumbing.example")
		require.Len(t, candidates, 3)
		assert.Equal(t, "wix.com", candidates[0].Domain)
	})

	t.Run("never includes the user domain", func(t *testing.T) {
		candidates := svc.Discover(context.Background(), "squarespace.com")
		for _, c := range candidates {
			assert.NotEqual(t, "squarespace.com", c.Domain)
		}
	})
}

func TestCompareRuleBased(t *testing.T) {
	svc := NewService(nil, &fakeAnalyzer{}, &fakeStore{}, nil, nil, zap.NewNop())
	competitors := []domain.CompetitorEntry{
		{Domain: "alpha.example", HealthScore: 90},
		{Domain: "gamma.example", HealthScore: 60},
	}

	result := svc.Compare(context.Background(), reportWithScore("https://user.example", 80), competitors)
	require.NotNil(t, result)
	assert.False(t, result.AIGenerated)

	require.Len(t, result.OverallRanking, 3)
	assert.Equal(t, "alpha.example", result.OverallRanking[0].Domain)
	assert.True(t, result.OverallRanking[1].IsUser)
	assert.Equal(t, 2, result.OverallRanking[1].Rank)
	assert.Equal(t, "Ranked 2 of 3 analyzed sites", result.Position)
	assert.InDelta(t, 33, result.Percentile, 0.5)
	assert.NotEmpty(t, result.Weaknesses)
	assert.NotEmpty(t, result.QuickWins)

	t.Run("top ranked user gets strengths only", func(t *testing.T) {
		top := svc.Compare(context.Background(), reportWithScore("https://user.example", 95), competitors)
		assert.Equal(t, 1, top.OverallRanking[0].Rank)
		assert.True(t, top.OverallRanking[0].IsUser)
		assert.Equal(t, float64(67), top.Percentile)
		assert.NotEmpty(t, top.Strengths)
		assert.Empty(t, top.Weaknesses)
	})
}

func TestServiceRun(t *testing.T) {
	t.Run("completes with rule based fallbacks", func(t *testing.T) {
		fa := &fakeAnalyzer{scores: map[string]int{"wix.com": 85, "squarespace.com": 70, "godaddy.com": 65}}
		store := &fakeStore{}
		svc := NewService(nil, fa, store, &fakeSaver{}, nil, zap.NewNop())

		userReport := reportWithScore("https://plumbing.example", 80)
		comparison := domain.NewCompetitorComparison(userReport.ID, userReport.Domain)
		svc.Run(context.Background(), comparison, userReport)

		assert.Equal(t, domain.ComparisonCompleted, comparison.Status)
		assert.Len(t, comparison.Competitors, 3)
		require.NotNil(t, comparison.Comparison)
		assert.Len(t, comparison.Comparison.OverallRanking, 4)
		assert.False(t, comparison.Comparison.AIGenerated)

		ranks := map[string]int{}
		for _, e := range comparison.Competitors {
			ranks[e.Domain] = e.Rank
		}
		assert.Equal(t, 1, ranks["wix.com"])
	})

	t.Run("fails when too few audits succeed", func(t *testing.T) {
		fa := &fakeAnalyzer{fail: map[string]bool{"wix.com": true, "squarespace.com": true}}
		store := &fakeStore{}
		svc := NewService(nil, fa, store, nil, nil, zap.NewNop())

		userReport := reportWithScore("https://plumbing.example", 80)
		comparison := domain.NewCompetitorComparison(userReport.ID, userReport.Domain)
		svc.Run(context.Background(), comparison, userReport)

		assert.Equal(t, domain.ComparisonFailed, comparison.Status)
		assert.NotEmpty(t, comparison.FailureReason)
		assert.Contains(t, store.updates, domain.ComparisonFailed)
	})
}

func TestServiceStart(t *testing.T) {
	t.Run("creates record in analyzing state and dispatches", func(t *testing.T) {
		store := &fakeStore{}
		starter := &fakeStarter{}
		svc := NewService(nil, &fakeAnalyzer{}, store, nil, starter, zap.NewNop())

		userReport := reportWithScore("https://user.example", 80)
		comparison, err := svc.Start(context.Background(), userReport)
		require.NoError(t, err)
		require.NotNil(t, comparison)

		assert.Equal(t, domain.ComparisonAnalyzing, comparison.Status)
		assert.Equal(t, userReport.ID, comparison.UserReportID)
		assert.Equal(t, "user.example", comparison.UserDomain)
		require.Len(t, store.created, 1)
		assert.Equal(t, comparison.ID, starter.comparisonID)
		assert.Equal(t, userReport.ID, starter.reportID)
		assert.Equal(t, "user.example", starter.userDomain)
	})

	t.Run("store failure surfaces to the caller", func(t *testing.T) {
		store := &fakeStore{failOn: "create"}
		svc := NewService(nil, &fakeAnalyzer{}, store, nil, nil, zap.NewNop())

		comparison, err := svc.Start(context.Background(), reportWithScore("https://user.example", 80))
		require.Error(t, err)
		assert.Nil(t, comparison)
	})
}
