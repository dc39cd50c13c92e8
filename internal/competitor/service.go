// Package competitor implements the asynchronous competitor comparison
// pipeline: discovery, concurrent batch analysis, and comparative analysis,
// driving a persisted forward-only state machine.
package competitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/internal/llm"
	"github.com/webpulse/webpulse/internal/observability"
)

// Analyzer runs one reduced-cost audit per competitor.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string, opts analyzer.Options) (*domain.AuditReport, error)
}

// Store persists comparison records.
type Store interface {
	CreateComparison(ctx context.Context, c *domain.CompetitorComparison) error
	UpdateComparison(ctx context.Context, c *domain.CompetitorComparison) error
}

// ReportSaver persists the audit reports produced for competitor sites so
// CompetitorEntry.ReportRef stays resolvable.
type ReportSaver interface {
	Save(ctx context.Context, report *domain.AuditReport) error
}

// Starter dispatches the background continuation to an external workflow
// engine. When nil the service runs the pipeline in-process on a detached
// goroutine.
type Starter interface {
	StartComparison(ctx context.Context, comparisonID, userReportID uuid.UUID, userDomain string) error
}

// pipelineTimeout bounds one full background run.
const pipelineTimeout = 5 * time.Minute

// Service runs competitor comparisons.
type Service struct {
	chain    *llm.Chain
	analyzer Analyzer
	store    Store
	reports  ReportSaver
	starter  Starter
	logger   *zap.Logger
}

// NewService wires the pipeline. chain, reports, and starter may be nil.
func NewService(chain *llm.Chain, a Analyzer, store Store, reports ReportSaver, starter Starter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chain:    chain,
		analyzer: a,
		store:    store,
		reports:  reports,
		starter:  starter,
		logger:   logger,
	}
}

// Start creates the comparison record in the analyzing state, persists it,
// and dispatches the background continuation. It returns as soon as the
// record exists; callers observe progress by polling the persisted record.
func (s *Service) Start(ctx context.Context, userReport *domain.AuditReport) (*domain.CompetitorComparison, error) {
	comparison := domain.NewCompetitorComparison(userReport.ID, userReport.Domain)
	if err := s.store.CreateComparison(ctx, comparison); err != nil {
		return nil, err
	}
	observability.GetMetrics().RecordComparisonStart()

	if s.starter != nil {
		err := s.starter.StartComparison(ctx, comparison.ID, userReport.ID, userReport.Domain)
		if err == nil {
			return comparison, nil
		}
		s.logger.Warn("workflow dispatch failed, running pipeline in-process",
			zap.String("comparison_id", comparison.ID.String()),
			zap.Error(err))
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
		defer cancel()
		s.Run(runCtx, comparison, userReport)
	}()

	return comparison, nil
}

// Run executes the pipeline steps against an already persisted comparison.
// Any failure or panic flips the record to failed; nothing is silently
// dropped. Also invoked by the workflow worker.
func (s *Service) Run(ctx context.Context, comparison *domain.CompetitorComparison, userReport *domain.AuditReport) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("comparison pipeline panicked",
				zap.String("comparison_id", comparison.ID.String()),
				zap.Any("panic", r))
			s.MarkFailed(comparison, fmt.Sprintf("internal error: %v", r))
		}
	}()

	candidates := s.Discover(ctx, userReport.Domain)

	entries, err := s.AnalyzeBatch(ctx, candidates)
	if err != nil {
		s.logger.Warn("comparison pipeline failed during batch analysis",
			zap.String("comparison_id", comparison.ID.String()),
			zap.Error(err))
		s.MarkFailed(comparison, err.Error())
		return
	}

	if err := s.Attach(ctx, comparison, entries); err != nil {
		s.MarkFailed(comparison, err.Error())
		return
	}

	if err := s.Finalize(ctx, comparison, userReport); err != nil {
		s.MarkFailed(comparison, err.Error())
		return
	}

	observability.GetMetrics().RecordComparisonComplete("completed",
		len(comparison.Competitors), time.Since(comparison.CreatedAt))

	s.logger.Info("comparison pipeline completed",
		zap.String("comparison_id", comparison.ID.String()),
		zap.Int("competitors", len(comparison.Competitors)))
}

// Attach records the batch outcome on the comparison and persists it. The
// record stays in the analyzing state.
func (s *Service) Attach(ctx context.Context, comparison *domain.CompetitorComparison, entries []domain.CompetitorEntry) error {
	if err := comparison.AttachCompetitors(entries); err != nil {
		return err
	}
	return s.store.UpdateComparison(ctx, comparison)
}

// Finalize runs the comparative analysis, ranks the competitors, and flips
// the record to completed.
func (s *Service) Finalize(ctx context.Context, comparison *domain.CompetitorComparison, userReport *domain.AuditReport) error {
	result := s.Compare(ctx, userReport, comparison.Competitors)
	rankCompetitors(comparison.Competitors, result)
	if err := comparison.Complete(result); err != nil {
		return err
	}
	return s.store.UpdateComparison(ctx, comparison)
}

// MarkFailed flips the comparison to failed and persists the transition.
func (s *Service) MarkFailed(comparison *domain.CompetitorComparison, reason string) {
	if err := comparison.Fail(reason); err != nil {
		return
	}
	observability.GetMetrics().RecordComparisonComplete("failed",
		len(comparison.Competitors), time.Since(comparison.CreatedAt))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.UpdateComparison(ctx, comparison); err != nil {
		s.logger.Error("persisting failed comparison state",
			zap.String("comparison_id", comparison.ID.String()),
			zap.Error(err))
	}
}

// rankCompetitors copies ranks from the final ranking onto the entries.
func rankCompetitors(entries []domain.CompetitorEntry, result *domain.ComparisonResult) {
	ranks := make(map[string]int, len(result.OverallRanking))
	for _, site := range result.OverallRanking {
		ranks[site.Domain] = site.Rank
	}
	for i := range entries {
		if r, ok := ranks[entries[i].Domain]; ok {
			entries[i].Rank = r
		}
	}
}
