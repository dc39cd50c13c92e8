package competitor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/domain"
)

// minBatchSuccesses is the minimum number of competitor audits that must
// succeed for the pipeline to continue.
const minBatchSuccesses = 2

// AnalyzeBatch audits every candidate concurrently in reduced-cost mode.
// Failures are isolated per candidate; fewer than minBatchSuccesses
// successes returns an InsufficientDataError.
func (s *Service) AnalyzeBatch(ctx context.Context, candidates []Candidate) ([]domain.CompetitorEntry, error) {
	type outcome struct {
		entry domain.CompetitorEntry
		err   error
	}

	results := make([]outcome, len(candidates))
	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand Candidate) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].err = fmt.Errorf("audit panicked: %v", r)
				}
			}()
			results[i].entry, results[i].err = s.analyzeOne(ctx, cand)
		}(i, cand)
	}
	wg.Wait()

	entries := make([]domain.CompetitorEntry, 0, len(candidates))
	for i, res := range results {
		if res.err != nil {
			s.logger.Warn("competitor audit failed, continuing with the rest",
				zap.String("domain", candidates[i].Domain),
				zap.Error(res.err))
			continue
		}
		entries = append(entries, res.entry)
	}

	if len(entries) < minBatchSuccesses {
		return nil, domain.InsufficientDataError(len(entries), minBatchSuccesses)
	}
	return entries, nil
}

func (s *Service) analyzeOne(ctx context.Context, cand Candidate) (domain.CompetitorEntry, error) {
	normalized, err := domain.NormalizeURL(cand.Domain)
	if err != nil {
		return domain.CompetitorEntry{}, err
	}

	report, err := s.analyzer.Analyze(ctx, normalized, analyzer.Options{ReducedCost: true})
	if err != nil {
		return domain.CompetitorEntry{}, err
	}

	if s.reports != nil {
		if saveErr := s.reports.Save(ctx, report); saveErr != nil {
			s.logger.Warn("saving competitor report failed, keeping scores in the entry",
				zap.String("domain", cand.Domain),
				zap.Error(saveErr))
		}
	}

	return domain.CompetitorEntry{
		Domain:          cand.Domain,
		ReportRef:       report.ID,
		DiscoveryMethod: cand.Method,
		Reason:          cand.Reason,
		HealthScore:     report.HealthScore(),
		ModuleScores:    report.ModuleScores(),
	}, nil
}
