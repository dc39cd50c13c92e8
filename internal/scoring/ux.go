package scoring

import (
	"fmt"
	"sort"

	"github.com/webpulse/webpulse/internal/domain"
)

// UXSignals are the raw inputs to the UX/accessibility scorer. Touch-target
// and text-size counts are only meaningful in mobile mode.
type UXSignals struct {
	ViolationsCritical int
	ViolationsSerious  int
	ViolationsModerate int

	CTAAboveFold int
	DOMNodeCount int
	ViewportMeta bool

	ImagesTotal      int
	ImagesMissingAlt int

	TouchTargetViolations int
	SmallTextViolations   int
}

// ScoreUX scores the UX/accessibility module for the given scan mode.
func ScoreUX(sig UXSignals, mode domain.ScanMode) *domain.ModuleResult {
	p := UXProfileFor(mode)

	accessibility := 0.5*p.ViolationsCritical.Penalty(float64(sig.ViolationsCritical)) +
		0.3*p.ViolationsSerious.Penalty(float64(sig.ViolationsSerious)) +
		0.2*p.ViolationsModerate.Penalty(float64(sig.ViolationsModerate))

	usability := p.DOMNodes.Penalty(float64(sig.DOMNodeCount))
	if sig.CTAAboveFold == 0 {
		usability += p.MissingCTAPenalty
	}
	if !sig.ViewportMeta {
		usability += p.MissingViewportPenalty
	}
	usability = clampUnit(usability)

	trust := 0.0
	if sig.ImagesTotal > 0 {
		trust = clampUnit(float64(sig.ImagesMissingAlt) / float64(sig.ImagesTotal))
	}

	total := p.AccessibilityWeight*accessibility + p.UsabilityWeight*usability + p.TrustWeight*trust

	factors := []domain.PenaltyFactor{
		{Name: "accessibility_violations", ObservedValue: float64(sig.ViolationsCritical + sig.ViolationsSerious + sig.ViolationsModerate), Penalty: accessibility},
		{Name: "usability", ObservedValue: float64(sig.DOMNodeCount), Penalty: usability},
		{Name: "missing_alt_text", ObservedValue: float64(sig.ImagesMissingAlt), Penalty: trust},
	}

	if mode == domain.ScanModeMobile {
		mobile := clampUnit(0.6*p.TouchTargets.Penalty(float64(sig.TouchTargetViolations)) +
			0.4*p.SmallText.Penalty(float64(sig.SmallTextViolations)))
		total += p.MobileWeight * mobile
		factors = append(factors, domain.PenaltyFactor{
			Name:          "mobile_ergonomics",
			ObservedValue: float64(sig.TouchTargetViolations + sig.SmallTextViolations),
			Penalty:       mobile,
		})
	}

	score := scoreFromPenalty(total)

	risk := domain.RiskLow
	switch {
	case sig.ViolationsCritical > 0 || sig.ViolationsSerious > 2:
		risk = domain.RiskHigh
	case sig.ViolationsSerious > 0 || sig.ViolationsModerate > 5:
		risk = domain.RiskMedium
	}

	rec := domain.RecommendMinorFixes
	switch {
	case score < 50 || sig.ViolationsCritical > 0:
		rec = domain.RecommendCriticalFixes
	case score < 70 || sig.ViolationsSerious > 2:
		rec = domain.RecommendPriorityFixes
	}

	return &domain.ModuleResult{
		Module:         domain.ModuleUX,
		Score:          score,
		RiskLevel:      risk,
		Recommendation: rec,
		Factors:        topFactors(factors, 5),
		Issues:         uxIssues(sig),
		Fixes:          uxFixes(sig, mode),
	}
}

// topFactors sorts contributors by penalty descending and keeps the top n.
func topFactors(factors []domain.PenaltyFactor, n int) []domain.PenaltyFactor {
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Penalty > factors[j].Penalty
	})
	if len(factors) > n {
		factors = factors[:n]
	}
	return factors
}

func uxIssues(sig UXSignals) []domain.Issue {
	var issues []domain.Issue
	if sig.ViolationsCritical > 0 {
		issues = append(issues, domain.Issue{
			ID:          "ux-a11y-critical",
			Severity:    domain.SeverityCritical,
			Category:    "accessibility",
			Description: fmt.Sprintf("%d critical accessibility violations block assistive technology users", sig.ViolationsCritical),
		})
	}
	if sig.ViolationsSerious > 0 {
		issues = append(issues, domain.Issue{
			ID:          "ux-a11y-serious",
			Severity:    domain.SeverityHigh,
			Category:    "accessibility",
			Description: fmt.Sprintf("%d serious accessibility violations detected", sig.ViolationsSerious),
		})
	}
	if !sig.ViewportMeta {
		issues = append(issues, domain.Issue{
			ID:          "ux-no-viewport",
			Severity:    domain.SeverityHigh,
			Category:    "usability",
			Description: "Page has no viewport meta tag; mobile rendering falls back to desktop layout",
		})
	}
	if sig.CTAAboveFold == 0 {
		issues = append(issues, domain.Issue{
			ID:          "ux-no-cta",
			Severity:    domain.SeverityMedium,
			Category:    "usability",
			Description: "No call-to-action element visible above the fold",
		})
	}
	if sig.ImagesTotal > 0 && sig.ImagesMissingAlt > 0 {
		issues = append(issues, domain.Issue{
			ID:          "ux-missing-alt",
			Severity:    domain.SeverityMedium,
			Category:    "trust",
			Description: fmt.Sprintf("%d of %d images are missing alt text", sig.ImagesMissingAlt, sig.ImagesTotal),
		})
	}
	return issues
}

func uxFixes(sig UXSignals, mode domain.ScanMode) []domain.Fix {
	var fixes []domain.Fix
	if sig.ViolationsCritical > 0 {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-a11y-critical",
			Title:       "Resolve critical accessibility violations",
			Description: "Critical violations make parts of the page unusable with assistive technology and carry the largest score penalty.",
			Priority:    1,
			ImpactPct:   25,
		})
	}
	if !sig.ViewportMeta {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-viewport",
			Title:       "Add a viewport meta tag",
			Description: `Add <meta name="viewport" content="width=device-width, initial-scale=1"> to the document head.`,
			Priority:    2,
			ImpactPct:   15,
		})
	}
	if sig.ImagesMissingAlt > 0 {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-alt-text",
			Title:       "Add alt text to images",
			Description: "Describe each informative image; use empty alt attributes for decorative ones.",
			Priority:    3,
			ImpactPct:   10,
		})
	}
	if mode == domain.ScanModeMobile && sig.TouchTargetViolations > 0 {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-touch-targets",
			Title:       "Enlarge small touch targets",
			Description: "Interactive elements should be at least 44x44 CSS pixels on mobile.",
			Priority:    3,
			ImpactPct:   8,
		})
	}
	return fixes
}
