package workflows

import (
	"context"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/competitor"
	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/internal/observability"
)

// ReportStore loads persisted audit reports for the activities.
type ReportStore interface {
	GetReport(ctx context.Context, id uuid.UUID) (*domain.AuditReport, error)
}

// ComparisonStore loads persisted comparison records for the activities.
type ComparisonStore interface {
	GetComparison(ctx context.Context, id uuid.UUID) (*domain.CompetitorComparison, error)
}

// Activities implements the comparison workflow activities. Each activity
// reloads the comparison record from storage so retries observe persisted
// state rather than workflow-local copies.
type Activities struct {
	svc         *competitor.Service
	reports     ReportStore
	comparisons ComparisonStore
	logger      *zap.Logger
}

// NewActivities wires the activity implementations.
func NewActivities(svc *competitor.Service, reports ReportStore, comparisons ComparisonStore, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{svc: svc, reports: reports, comparisons: comparisons, logger: logger}
}

// recordActivity counts one activity execution by outcome.
func recordActivity(name string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.GetMetrics().RecordActivityExecution(name, status)
}

// DiscoverCompetitors finds candidate rival domains. It never fails; the
// static fallback guarantees candidates.
func (a *Activities) DiscoverCompetitors(ctx context.Context, input DiscoveryInput) (*DiscoveryOutput, error) {
	candidates := a.svc.Discover(ctx, input.UserDomain)
	fallback := len(candidates) > 0 && candidates[0].Method == domain.DiscoveryFallback
	recordActivity(DiscoveryActivityName, nil)
	return &DiscoveryOutput{Candidates: candidates, Fallback: fallback}, nil
}

// AnalyzeCompetitors audits the candidates concurrently and persists the
// surviving entries on the comparison record. An insufficient-data outcome is
// terminal; retrying the same unreachable sites will not change it.
func (a *Activities) AnalyzeCompetitors(ctx context.Context, input BatchInput) (out *BatchOutput, err error) {
	defer func() { recordActivity(BatchActivityName, err) }()

	entries, err := a.svc.AnalyzeBatch(ctx, input.Candidates)
	if err != nil {
		if domain.IsSentinelError(err, domain.ErrInsufficientDataVal) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), domain.ErrCodeInsufficientData, err)
		}
		return nil, err
	}

	comparison, err := a.comparisons.GetComparison(ctx, input.ComparisonID)
	if err != nil {
		return nil, err
	}
	if err := a.svc.Attach(ctx, comparison, entries); err != nil {
		return nil, err
	}
	return &BatchOutput{Entries: entries}, nil
}

// CompareCompetitors runs the comparative analysis and completes the record.
func (a *Activities) CompareCompetitors(ctx context.Context, input CompareInput) (out *CompareOutput, err error) {
	defer func() { recordActivity(CompareActivityName, err) }()

	comparison, err := a.comparisons.GetComparison(ctx, input.ComparisonID)
	if err != nil {
		return nil, err
	}
	userReport, err := a.reports.GetReport(ctx, input.UserReportID)
	if err != nil {
		return nil, err
	}
	if err := a.svc.Finalize(ctx, comparison, userReport); err != nil {
		return nil, err
	}
	observability.GetMetrics().RecordWorkflowComplete("CompetitorComparisonWorkflow", "completed")
	return &CompareOutput{
		Position:   comparison.Comparison.Position,
		Percentile: comparison.Comparison.Percentile,
	}, nil
}

// FailComparison records a terminal failure on the comparison record.
func (a *Activities) FailComparison(ctx context.Context, input FailInput) (err error) {
	defer func() { recordActivity(FailActivityName, err) }()

	comparison, err := a.comparisons.GetComparison(ctx, input.ComparisonID)
	if err != nil {
		return err
	}
	a.svc.MarkFailed(comparison, input.Reason)
	observability.GetMetrics().RecordWorkflowComplete("CompetitorComparisonWorkflow", "failed")
	a.logger.Warn("comparison marked failed",
		zap.String("comparison_id", input.ComparisonID.String()),
		zap.String("reason", input.Reason))
	return nil
}
