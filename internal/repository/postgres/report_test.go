package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpulse/webpulse/internal/domain"
)

func storedReport(url string, score int) *domain.AuditReport {
	report := domain.NewAuditReport(url, domain.ScanModeDesktop)
	report.Modules[domain.ModulePerformance] = &domain.ModuleResult{
		Module:         domain.ModulePerformance,
		Score:          score,
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendMinorFixes,
	}
	report.Aggregate = &domain.AggregateReport{
		HealthScore:  score,
		ModuleScores: map[domain.Module]int{domain.ModulePerformance: score},
	}
	return report
}

func TestReportRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	db := sqlx.NewDb(testDB.DB, "postgres")
	repo := NewReportRepository(db)
	ctx := context.Background()

	t.Run("Save and GetReport", func(t *testing.T) {
		testDB.TruncateTables(t)

		report := storedReport("https://example.com", 82)
		require.NoError(t, repo.Save(ctx, report))

		got, err := repo.GetReport(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)
		assert.Equal(t, "example.com", got.Domain)
		assert.Equal(t, 82, got.HealthScore())
		require.Contains(t, got.Modules, domain.ModulePerformance)
		assert.Equal(t, 82, got.Modules[domain.ModulePerformance].Score)
	})

	t.Run("Save duplicate is a conflict", func(t *testing.T) {
		testDB.TruncateTables(t)

		report := storedReport("https://example.com", 75)
		require.NoError(t, repo.Save(ctx, report))

		err := repo.Save(ctx, report)
		require.Error(t, err)
		assert.True(t, domain.IsSentinelError(err, domain.ErrConflictVal))
	})

	t.Run("GetReport missing", func(t *testing.T) {
		testDB.TruncateTables(t)

		_, err := repo.GetReport(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, domain.IsSentinelError(err, domain.ErrNotFoundVal))
	})

	t.Run("ListByDomain newest first", func(t *testing.T) {
		testDB.TruncateTables(t)

		first := storedReport("https://example.com", 60)
		second := storedReport("https://example.com/pricing", 70)
		second.CreatedAt = first.CreatedAt.Add(time.Millisecond)
		other := storedReport("https://other.example", 90)

		require.NoError(t, repo.Save(ctx, first))
		require.NoError(t, repo.Save(ctx, second))
		require.NoError(t, repo.Save(ctx, other))

		reports, err := repo.ListByDomain(ctx, "example.com", 10)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, second.ID, reports[0].ID)
		assert.Equal(t, first.ID, reports[1].ID)
	})
}
