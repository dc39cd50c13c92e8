// Package analyzer runs the full audit pipeline: capture a page snapshot,
// score the four modules, aggregate, and enrich with AI insights and NLP.
package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/collector"
	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/internal/llm"
	"github.com/webpulse/webpulse/internal/nlp"
	"github.com/webpulse/webpulse/internal/observability"
	"github.com/webpulse/webpulse/internal/scoring"
)

// Options controls one audit run.
type Options struct {
	// EmulateMobile audits with the mobile threshold profiles and viewport.
	EmulateMobile bool

	// ReducedCost skips artifact capture, the external auditor, NLP, and AI
	// insight enhancement. Used when auditing competitor sites in bulk.
	ReducedCost bool
}

// ExternalAuditor produces an independent performance score from a separate
// audit engine. Optional; its score is surfaced next to the heuristic
// estimate without blending.
type ExternalAuditor interface {
	Audit(ctx context.Context, pageURL string, mobile bool) (int, error)
}

// ArtifactSaver archives the raw capture artifacts for a report. Optional;
// when absent artifacts are discarded after scoring.
type ArtifactSaver interface {
	SaveArtifacts(ctx context.Context, reportID uuid.UUID, screenshot, html []byte) (*domain.ArtifactRefs, error)
}

// Service runs audits. The browser collector is preferred; the HTTP
// collector serves reduced-cost runs and doubles as the fallback when no
// browser is configured.
type Service struct {
	full      collector.Collector
	reduced   collector.Collector
	chain     *llm.Chain
	nlp       *nlp.Orchestrator
	auditor   ExternalAuditor
	artifacts ArtifactSaver
	logger    *zap.Logger
}

// NewService wires an analyzer. full, auditor, and artifacts may be nil.
func NewService(full, reduced collector.Collector, chain *llm.Chain, orchestrator *nlp.Orchestrator, auditor ExternalAuditor, artifacts ArtifactSaver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		full:      full,
		reduced:   reduced,
		chain:     chain,
		nlp:       orchestrator,
		auditor:   auditor,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Analyze audits rawURL across all four modules and returns the assembled
// report. The report is not persisted here.
func (s *Service) Analyze(ctx context.Context, rawURL string, opts Options) (*domain.AuditReport, error) {
	started := time.Now()

	normalized, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	mode := domain.ScanModeDesktop
	if opts.EmulateMobile {
		mode = domain.ScanModeMobile
	}

	snap, err := s.collect(ctx, normalized, opts)
	if err != nil {
		observability.GetMetrics().RecordAudit(string(mode), "error", time.Since(started))
		return nil, err
	}

	report := domain.NewAuditReport(normalized, mode)

	perfSig := performanceSignals(snap)
	if !opts.ReducedCost && s.auditor != nil {
		if score, auditErr := s.auditor.Audit(ctx, normalized, opts.EmulateMobile); auditErr == nil {
			perfSig.AuditorScore = &score
		} else {
			s.logger.Warn("external auditor failed, continuing without its score",
				zap.String("url", normalized),
				zap.Error(auditErr))
		}
	}

	report.Modules[domain.ModulePerformance] = scoring.ScorePerformance(perfSig, mode)
	report.Modules[domain.ModuleSEO] = scoring.ScoreSEO(seoSignals(snap))
	report.Modules[domain.ModuleUX] = scoring.ScoreUX(uxSignals(snap), mode)
	report.Modules[domain.ModuleContent] = scoring.ScoreContent(contentSignals(snap))
	report.Aggregate = scoring.Aggregate(report.Modules)

	if !opts.ReducedCost {
		report.Insights = s.generateInsights(ctx, report)
		if s.nlp != nil && snap.TextContent != "" {
			report.NLP = s.nlp.Analyze(ctx, snap.TextContent)
		}
		if s.artifacts != nil {
			refs, artifactErr := s.artifacts.SaveArtifacts(ctx, report.ID, snap.Screenshot, snap.HTML)
			if artifactErr != nil {
				s.logger.Warn("archiving capture artifacts failed",
					zap.String("url", normalized),
					zap.Error(artifactErr))
			} else {
				report.Artifacts = refs
			}
		}
	}

	metrics := observability.GetMetrics()
	metrics.RecordAudit(string(mode), "success", time.Since(started))
	metrics.RecordHealthScore("overall", report.HealthScore())
	for module, result := range report.Modules {
		metrics.RecordHealthScore(string(module), result.Score)
	}

	s.logger.Info("audit complete",
		zap.String("url", normalized),
		zap.String("mode", string(mode)),
		zap.Bool("reduced_cost", opts.ReducedCost),
		zap.Int("health_score", report.HealthScore()))

	return report, nil
}

// AnalyzeModule audits a single module. Insights and NLP are skipped except
// for the content module, which still runs NLP in full mode.
func (s *Service) AnalyzeModule(ctx context.Context, rawURL string, module domain.Module, opts Options) (*domain.ModuleResult, error) {
	normalized, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if !module.IsValid() {
		return nil, domain.ValidationError("module", "unknown module: "+string(module))
	}

	snap, err := s.collect(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}

	mode := domain.ScanModeDesktop
	if opts.EmulateMobile {
		mode = domain.ScanModeMobile
	}

	switch module {
	case domain.ModulePerformance:
		return scoring.ScorePerformance(performanceSignals(snap), mode), nil
	case domain.ModuleSEO:
		return scoring.ScoreSEO(seoSignals(snap)), nil
	case domain.ModuleUX:
		return scoring.ScoreUX(uxSignals(snap), mode), nil
	case domain.ModuleContent:
		return scoring.ScoreContent(contentSignals(snap)), nil
	default:
		return nil, domain.ValidationError("module", "unknown module: "+string(module))
	}
}

func (s *Service) collect(ctx context.Context, pageURL string, opts Options) (*collector.Snapshot, error) {
	c := s.full
	captureArtifacts := true
	if opts.ReducedCost || c == nil {
		c = s.reduced
		captureArtifacts = false
	}
	return c.Collect(ctx, pageURL, collector.Options{
		EmulateMobile:    opts.EmulateMobile,
		CaptureArtifacts: captureArtifacts,
	})
}
