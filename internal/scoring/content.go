package scoring

import (
	"fmt"

	"github.com/webpulse/webpulse/internal/domain"
)

// ContentSignals are the raw inputs to the content scorer. Ratios are 0..1.
// KeywordFocus is nil when the capture yielded no extractable keywords.
type ContentSignals struct {
	WordCount      int
	ReadingGrade   float64
	DuplicateRatio float64
	KeywordFocus   *float64
	ThinRatio      float64
	MediaCount     int
	ListCount      int
	HasAuthorInfo  bool
	HasFreshDate   bool
}

// ScoreContent scores the content module.
func ScoreContent(sig ContentSignals) *domain.ModuleResult {
	p := DefaultContentProfile()

	depth := p.WordShortfall.Penalty(shortfall(float64(sig.WordCount), p.MinWordCount))
	readability := p.Readability.Penalty(sig.ReadingGrade)
	uniqueness := clampUnit(0.6*p.DuplicateRatio.Penalty(sig.DuplicateRatio) + 0.4*p.ThinRatio.Penalty(sig.ThinRatio))
	richness := contentRichnessPenalty(sig, p)
	focus := 0.0
	if sig.KeywordFocus != nil {
		focus = p.Diffuseness.Penalty(1 - *sig.KeywordFocus)
	}

	total := p.DepthWeight*depth + p.ReadabilityWeight*readability + p.UniquenessWeight*uniqueness + p.RichnessWeight*richness + p.FocusWeight*focus
	score := scoreFromPenalty(total)

	factors := []domain.PenaltyFactor{
		{Name: "content_depth", ObservedValue: float64(sig.WordCount), Penalty: depth},
		{Name: "readability", ObservedValue: sig.ReadingGrade, Penalty: readability},
		{Name: "uniqueness", ObservedValue: sig.DuplicateRatio, Penalty: uniqueness},
		{Name: "richness", ObservedValue: float64(sig.MediaCount), Penalty: richness},
	}
	if sig.KeywordFocus != nil {
		factors = append(factors, domain.PenaltyFactor{Name: "keyword_focus", ObservedValue: *sig.KeywordFocus, Penalty: focus})
	}
	factors = topFactors(factors, 5)

	risk := domain.RiskLow
	switch {
	case score < 50 || sig.DuplicateRatio >= p.DuplicateRatio.Bad:
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
		Module:         domain.ModuleContent,
		Score:          score,
		RiskLevel:      risk,
		Recommendation: rec,
		Factors:        factors,
		Issues:         contentIssues(sig, p),
		Fixes:          contentFixes(sig, p),
	}
}

func contentRichnessPenalty(sig ContentSignals, p ContentProfile) float64 {
	pen := 0.6 * p.MediaShortfall.Penalty(shortfall(float64(sig.MediaCount), p.MinMedia))
	if sig.ListCount == 0 {
		pen += 0.2
	}
	if !sig.HasAuthorInfo {
		pen += 0.1
	}
	if !sig.HasFreshDate {
		pen += 0.1
	}
	return clampUnit(pen)
}

func contentIssues(sig ContentSignals, p ContentProfile) []domain.Issue {
	var issues []domain.Issue
	if float64(sig.WordCount) < p.MinWordCount {
		issues = append(issues, domain.Issue{
			ID:          "content-thin",
			Severity:    domain.SeverityHigh,
			Category:    "depth",
			Description: fmt.Sprintf("Page has %d words, below the %d needed to cover a topic in depth", sig.WordCount, int(p.MinWordCount)),
		})
	}
	if sig.ReadingGrade > p.Readability.Good {
		sev := domain.SeverityMedium
		if sig.ReadingGrade >= p.Readability.Bad {
			sev = domain.SeverityHigh
		}
		issues = append(issues, domain.Issue{
			ID:          "content-readability",
			Severity:    sev,
			Category:    "readability",
			Description: fmt.Sprintf("Copy reads at grade level %.1f, harder than most visitors will follow", sig.ReadingGrade),
		})
	}
	if sig.DuplicateRatio > p.DuplicateRatio.Good {
		issues = append(issues, domain.Issue{
			ID:          "content-duplicate",
			Severity:    domain.SeverityMedium,
			Category:    "uniqueness",
			Description: fmt.Sprintf("%.0f%% of the copy repeats text found elsewhere on the page", sig.DuplicateRatio*100),
		})
	}
	if sig.KeywordFocus != nil && 1-*sig.KeywordFocus > p.Diffuseness.Good {
		issues = append(issues, domain.Issue{
			ID:          "content-focus",
			Severity:    domain.SeverityLow,
			Category:    "focus",
			Description: "Copy spreads across many terms with no clear primary topic",
		})
	}
	return issues
}

func contentFixes(sig ContentSignals, p ContentProfile) []domain.Fix {
	var fixes []domain.Fix
	if float64(sig.WordCount) < p.MinWordCount {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-depth",
			Title:       "Expand the core copy",
			Description: fmt.Sprintf("Grow the page past %d words by answering the questions visitors arrive with.", int(p.MinWordCount)),
			Priority:    1,
			ImpactPct:   15,
		})
	}
	if sig.ReadingGrade > p.Readability.Good {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-readability",
			Title:       "Simplify the writing",
			Description: "Shorten sentences and swap jargon for plain words to bring the reading level down.",
			Priority:    2,
			ImpactPct:   8,
		})
	}
	if float64(sig.MediaCount) < p.MinMedia {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-media",
			Title:       "Add supporting media",
			Description: "Break up long text with images, diagrams, or short clips.",
			Priority:    3,
			ImpactPct:   5,
		})
	}
	return fixes
}
