package scoring

import (
	"fmt"

	"github.com/webpulse/webpulse/internal/domain"
)

// PerformanceSignals are the raw inputs to the performance scorer. Metrics
// left at zero are treated as unmeasured and skipped rather than scored as
// perfect or terrible.
//
// AuditorScore (external auditor) and EstimatedScore (fast heuristic) are two
// independently computed optional scores surfaced side by side on the result;
// no blending rule is applied.
type PerformanceSignals struct {
	LCPMs        float64
	FCPMs        float64
	TTFBMs       float64
	TBTMs        float64
	CLS          float64
	PageWeightKB float64
	RequestCount float64

	AuditorScore   *int
	EstimatedScore *int
}

// ScorePerformance scores the performance module for the given scan mode.
func ScorePerformance(sig PerformanceSignals, mode domain.ScanMode) *domain.ModuleResult {
	p := PerformanceProfileFor(mode)

	loading := weightedMeasured(
		measured{0.5, sig.LCPMs, p.LCP},
		measured{0.3, sig.FCPMs, p.FCP},
		measured{0.2, sig.TTFBMs, p.TTFB},
	)
	interactivity := weightedMeasured(
		measured{0.6, sig.TBTMs, p.TBT},
		measured{0.4, sig.CLS, p.CLS},
	)
	weight := weightedMeasured(
		measured{0.6, sig.PageWeightKB, p.PageWeight},
		measured{0.4, sig.RequestCount, p.Requests},
	)

	total := p.LoadingWeight*loading + p.InteractivityWeight*interactivity + p.WeightWeight*weight
	score := scoreFromPenalty(total)

	factors := topFactors([]domain.PenaltyFactor{
		{Name: "loading_speed", ObservedValue: sig.LCPMs, Penalty: loading},
		{Name: "interactivity", ObservedValue: sig.TBTMs, Penalty: interactivity},
		{Name: "page_weight", ObservedValue: sig.PageWeightKB, Penalty: weight},
	}, 5)

	risk := domain.RiskLow
	switch {
	case score < 50 || sig.LCPMs >= p.LCP.Bad:
		risk = domain.RiskHigh
	case score < 75:
		risk = domain.RiskMedium
	}

	rec := domain.RecommendMinorFixes
	switch {
	case score < 50:
		rec = domain.RecommendCriticalFixes
	case score < 70:
		rec = domain.RecommendPriorityFixes
	}

	return &domain.ModuleResult{
		Module:         domain.ModulePerformance,
		Score:          score,
		RiskLevel:      risk,
		Recommendation: rec,
		Factors:        factors,
		Issues:         performanceIssues(sig, p),
		Fixes:          performanceFixes(sig, p),
		AuditorScore:   sig.AuditorScore,
		EstimatedScore: sig.EstimatedScore,
	}
}

type measured struct {
	weight    float64
	value     float64
	threshold MetricThreshold
}

// weightedMeasured composes penalties for the metrics that were actually
// measured, renormalizing weights so missing metrics do not dilute the rest.
func weightedMeasured(parts ...measured) float64 {
	var sum, weightSum float64
	for _, m := range parts {
		if m.value <= 0 {
			continue
		}
		sum += m.weight * m.threshold.Penalty(m.value)
		weightSum += m.weight
	}
	if weightSum == 0 {
		return 0
	}
	return clampUnit(sum / weightSum)
}

func performanceIssues(sig PerformanceSignals, p PerformanceProfile) []domain.Issue {
	var issues []domain.Issue
	if sig.LCPMs >= p.LCP.Bad {
		issues = append(issues, domain.Issue{
			ID:          "perf-lcp",
			Severity:    domain.SeverityCritical,
			Category:    "loading",
			Description: fmt.Sprintf("Largest Contentful Paint of %.0fms is far above the %.0fms budget", sig.LCPMs, p.LCP.Good),
		})
	} else if sig.LCPMs > p.LCP.Good {
		issues = append(issues, domain.Issue{
			ID:          "perf-lcp",
			Severity:    domain.SeverityMedium,
			Category:    "loading",
			Description: fmt.Sprintf("Largest Contentful Paint of %.0fms exceeds the %.0fms budget", sig.LCPMs, p.LCP.Good),
		})
	}
	if sig.PageWeightKB > p.PageWeight.Good {
		issues = append(issues, domain.Issue{
			ID:          "perf-weight",
			Severity:    domain.SeverityMedium,
			Category:    "weight",
			Description: fmt.Sprintf("Page transfers %.0fKB against a %.0fKB budget", sig.PageWeightKB, p.PageWeight.Good),
		})
	}
	if sig.CLS > p.CLS.Good {
		issues = append(issues, domain.Issue{
			ID:          "perf-cls",
			Severity:    domain.SeverityMedium,
			Category:    "stability",
			Description: fmt.Sprintf("Cumulative Layout Shift of %.2f causes visible content jumps", sig.CLS),
		})
	}
	return issues
}

func performanceFixes(sig PerformanceSignals, p PerformanceProfile) []domain.Fix {
	var fixes []domain.Fix
	if sig.LCPMs > p.LCP.Good {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-lcp",
			Title:       "Optimize the largest contentful element",
			Description: "Preload the hero image, serve modern formats, and eliminate render-blocking resources ahead of it.",
			Priority:    1,
			ImpactPct:   20,
		})
	}
	if sig.PageWeightKB > p.PageWeight.Good {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-weight",
			Title:       "Reduce page weight",
			Description: "Compress images, defer non-critical scripts, and drop unused CSS.",
			Priority:    2,
			ImpactPct:   12,
		})
	}
	return fixes
}
