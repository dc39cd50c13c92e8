package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpulse/webpulse/internal/domain"
)

func TestScorePerformance(t *testing.T) {
	t.Run("fast page scores clean", func(t *testing.T) {
		res := ScorePerformance(PerformanceSignals{
			LCPMs:        1200,
			FCPMs:        900,
			TTFBMs:       200,
			TBTMs:        50,
			CLS:          0.01,
			PageWeightKB: 600,
			RequestCount: 30,
		}, domain.ScanModeDesktop)

		assert.Equal(t, 100, res.Score)
		assert.Equal(t, domain.RiskLow, res.RiskLevel)
		assert.Empty(t, res.Issues)
	})

	t.Run("slow LCP drives high risk", func(t *testing.T) {
		res := ScorePerformance(PerformanceSignals{
			LCPMs:  6500,
			FCPMs:  3000,
			TTFBMs: 900,
		}, domain.ScanModeDesktop)

		assert.Equal(t, domain.RiskHigh, res.RiskLevel)
		require.NotEmpty(t, res.Issues)
		assert.Equal(t, "perf-lcp", res.Issues[0].ID)
		assert.Equal(t, domain.SeverityCritical, res.Issues[0].Severity)
	})

	t.Run("unmeasured metrics are skipped not scored", func(t *testing.T) {
		res := ScorePerformance(PerformanceSignals{LCPMs: 2000}, domain.ScanModeDesktop)
		assert.Equal(t, 100, res.Score, "a lone good metric should not be dragged down by absent ones")
	})

	t.Run("mobile bands are looser on latency", func(t *testing.T) {
		sig := PerformanceSignals{LCPMs: 2800}
		desktop := ScorePerformance(sig, domain.ScanModeDesktop)
		mobile := ScorePerformance(sig, domain.ScanModeMobile)
		assert.Greater(t, mobile.Score, desktop.Score)
	})

	t.Run("auditor and estimated scores pass through unblended", func(t *testing.T) {
		auditor, estimated := 63, 71
		res := ScorePerformance(PerformanceSignals{
			LCPMs:          2000,
			AuditorScore:   &auditor,
			EstimatedScore: &estimated,
		}, domain.ScanModeDesktop)

		require.NotNil(t, res.AuditorScore)
		require.NotNil(t, res.EstimatedScore)
		assert.Equal(t, 63, *res.AuditorScore)
		assert.Equal(t, 71, *res.EstimatedScore)
		assert.Equal(t, 100, res.Score, "the threshold score ignores both external scores")
	})
}

func TestScoreSEO(t *testing.T) {
	healthy := SEOSignals{
		TitleLength:       45,
		DescriptionLength: 120,
		HasCanonical:      true,
		HasRobotsMeta:     true,
		H1Count:           1,
		HasStructuredData: true,
		WordCount:         800,
		InternalLinks:     20,
	}

	t.Run("well formed page scores clean", func(t *testing.T) {
		res := ScoreSEO(healthy)
		assert.Equal(t, 100, res.Score)
		assert.Equal(t, domain.RiskLow, res.RiskLevel)
		assert.Empty(t, res.Issues)
	})

	t.Run("absent robots meta is noted without a penalty", func(t *testing.T) {
		sig := healthy
		sig.HasRobotsMeta = false

		res := ScoreSEO(sig)
		assert.Equal(t, 100, res.Score)
		assert.Contains(t, issueIDs(res.Issues), "seo-robots")
	})

	t.Run("noindex is always high risk", func(t *testing.T) {
		sig := healthy
		sig.NoIndex = true

		res := ScoreSEO(sig)
		assert.Equal(t, domain.RiskHigh, res.RiskLevel)
		assert.Equal(t, domain.RecommendCriticalFixes, res.Recommendation)
		require.NotEmpty(t, res.Issues)
		assert.Equal(t, "seo-noindex", res.Issues[0].ID)
	})

	t.Run("missing title penalized harder than long title", func(t *testing.T) {
		missing := healthy
		missing.TitleLength = 0
		long := healthy
		long.TitleLength = 75

		assert.Less(t, ScoreSEO(missing).Score, ScoreSEO(long).Score)
	})

	t.Run("thin content flagged", func(t *testing.T) {
		sig := healthy
		sig.WordCount = 100

		res := ScoreSEO(sig)
		assert.Less(t, res.Score, 100)
		ids := issueIDs(res.Issues)
		assert.Contains(t, ids, "seo-thin")
	})
}

func TestScoreContent(t *testing.T) {
	healthy := ContentSignals{
		WordCount:     900,
		ReadingGrade:  8,
		MediaCount:    4,
		ListCount:     2,
		HasAuthorInfo: true,
		HasFreshDate:  true,
	}

	t.Run("rich page scores clean", func(t *testing.T) {
		res := ScoreContent(healthy)
		assert.Equal(t, 100, res.Score)
		assert.Equal(t, domain.RiskLow, res.RiskLevel)
	})

	t.Run("heavy duplication is high risk", func(t *testing.T) {
		sig := healthy
		sig.DuplicateRatio = 0.5

		res := ScoreContent(sig)
		assert.Equal(t, domain.RiskHigh, res.RiskLevel)
		assert.Contains(t, issueIDs(res.Issues), "content-duplicate")
	})

	t.Run("dense copy flagged by grade level", func(t *testing.T) {
		sig := healthy
		sig.ReadingGrade = 17

		res := ScoreContent(sig)
		assert.Less(t, res.Score, 100)
		assert.Contains(t, issueIDs(res.Issues), "content-readability")
	})

	t.Run("diffuse copy is penalized when focus is measured", func(t *testing.T) {
		diffuse := 0.05
		sig := healthy
		sig.KeywordFocus = &diffuse

		res := ScoreContent(sig)
		assert.Less(t, res.Score, 100)
		assert.Contains(t, issueIDs(res.Issues), "content-focus")
	})

	t.Run("unmeasured focus is not penalized", func(t *testing.T) {
		res := ScoreContent(healthy)
		assert.Equal(t, 100, res.Score)
		assert.NotContains(t, issueIDs(res.Issues), "content-focus")
	})

	t.Run("short copy recommends expansion first", func(t *testing.T) {
		sig := healthy
		sig.WordCount = 120

		res := ScoreContent(sig)
		require.NotEmpty(t, res.Fixes)
		assert.Equal(t, "fix-depth", res.Fixes[0].ID)
	})
}

func issueIDs(issues []domain.Issue) []string {
	ids := make([]string, 0, len(issues))
	for _, is := range issues {
		ids = append(ids, is.ID)
	}
	return ids
}
