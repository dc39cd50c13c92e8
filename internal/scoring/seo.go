package scoring

import (
	"fmt"

	"github.com/webpulse/webpulse/internal/domain"
)

// SEOSignals are the raw inputs to the SEO scorer, extracted from the page
// head and body during collection.
type SEOSignals struct {
	TitleLength       int
	DescriptionLength int
	HasCanonical      bool
	HasRobotsMeta     bool
	NoIndex           bool

	H1Count           int
	HeadingSkips      int
	HasStructuredData bool

	WordCount     int
	InternalLinks int
	ExternalLinks int
	BrokenAnchors int
}

// ScoreSEO scores the seo module. SEO bands do not vary by scan mode.
func ScoreSEO(sig SEOSignals) *domain.ModuleResult {
	p := DefaultSEOProfile()

	metadata := seoMetadataPenalty(sig, p)
	structure := seoStructurePenalty(sig)
	content := p.WordCount.Penalty(shortfall(float64(sig.WordCount), p.MinWordCount))
	links := seoLinkPenalty(sig, p)

	total := p.MetadataWeight*metadata + p.StructureWeight*structure + p.ContentWeight*content + p.LinksWeight*links
	score := scoreFromPenalty(total)

	factors := topFactors([]domain.PenaltyFactor{
		{Name: "metadata", ObservedValue: float64(sig.TitleLength), Penalty: metadata},
		{Name: "heading_structure", ObservedValue: float64(sig.H1Count), Penalty: structure},
		{Name: "content_depth", ObservedValue: float64(sig.WordCount), Penalty: content},
		{Name: "link_graph", ObservedValue: float64(sig.InternalLinks), Penalty: links},
	}, 5)

	risk := domain.RiskLow
	switch {
	case sig.NoIndex || score < 50:
		risk = domain.RiskHigh
	case score < 75:
		risk = domain.RiskMedium
	}

	rec := domain.RecommendMinorFixes
	switch {
	case score < 50 || sig.NoIndex:
		rec = domain.RecommendCriticalFixes
	case score < 70:
		rec = domain.RecommendPriorityFixes
	}

	return &domain.ModuleResult{
		Module:         domain.ModuleSEO,
		Score:          score,
		RiskLevel:      risk,
		Recommendation: rec,
		Factors:        factors,
		Issues:         seoIssues(sig, p),
		Fixes:          seoFixes(sig, p),
	}
}

// seoMetadataPenalty penalizes deviation from the ideal title and description
// bands. A missing tag counts as maximal deviation.
func seoMetadataPenalty(sig SEOSignals, p SEOProfile) float64 {
	title := p.TitleLength.Penalty(bandDeviation(sig.TitleLength, p.TitleIdealMin, p.TitleIdealMax))
	desc := p.DescriptionLength.Penalty(bandDeviation(sig.DescriptionLength, p.DescriptionIdealMin, p.DescriptionIdealMax))

	pen := 0.5*title + 0.4*desc
	if !sig.HasCanonical {
		pen += 0.1
	}
	if sig.NoIndex {
		pen = 1
	}
	return clampUnit(pen)
}

func seoStructurePenalty(sig SEOSignals) float64 {
	var pen float64
	switch sig.H1Count {
	case 0:
		pen += 0.5
	case 1:
		// ideal
	default:
		pen += 0.25
	}
	pen += 0.1 * float64(sig.HeadingSkips)
	if !sig.HasStructuredData {
		pen += 0.2
	}
	return clampUnit(pen)
}

func seoLinkPenalty(sig SEOSignals, p SEOProfile) float64 {
	pen := p.InternalLinks.Penalty(shortfall(float64(sig.InternalLinks), p.MinInternalLinks))
	pen += 0.15 * float64(sig.BrokenAnchors)
	return clampUnit(pen)
}

// bandDeviation returns how far n falls outside [min, max], or 0 inside it.
// n == 0 means the tag is absent and is treated as min below the band.
func bandDeviation(n, min, max int) float64 {
	switch {
	case n == 0:
		return float64(min)
	case n < min:
		return float64(min - n)
	case n > max:
		return float64(n - max)
	default:
		return 0
	}
}

// shortfall returns how far value falls below want, never negative.
func shortfall(value, want float64) float64 {
	if value >= want {
		return 0
	}
	return want - value
}

func seoIssues(sig SEOSignals, p SEOProfile) []domain.Issue {
	var issues []domain.Issue
	if sig.NoIndex {
		issues = append(issues, domain.Issue{
			ID:          "seo-noindex",
			Severity:    domain.SeverityCritical,
			Category:    "indexing",
			Description: "Page carries a noindex directive and is invisible to search engines",
		})
	}
	if sig.TitleLength == 0 {
		issues = append(issues, domain.Issue{
			ID:          "seo-title",
			Severity:    domain.SeverityHigh,
			Category:    "metadata",
			Description: "Page has no title tag",
		})
	} else if sig.TitleLength < p.TitleIdealMin || sig.TitleLength > p.TitleIdealMax {
		issues = append(issues, domain.Issue{
			ID:          "seo-title",
			Severity:    domain.SeverityMedium,
			Category:    "metadata",
			Description: fmt.Sprintf("Title is %d characters, outside the %d-%d recommendation", sig.TitleLength, p.TitleIdealMin, p.TitleIdealMax),
		})
	}
	if sig.DescriptionLength == 0 {
		issues = append(issues, domain.Issue{
			ID:          "seo-description",
			Severity:    domain.SeverityMedium,
			Category:    "metadata",
			Description: "Page has no meta description",
		})
	}
	if !sig.HasRobotsMeta {
		issues = append(issues, domain.Issue{
			ID:          "seo-robots",
			Severity:    domain.SeverityLow,
			Category:    "indexing",
			Description: "Page sets no robots meta directive; crawler behavior relies on defaults",
		})
	}
	if sig.H1Count != 1 {
		issues = append(issues, domain.Issue{
			ID:          "seo-h1",
			Severity:    domain.SeverityMedium,
			Category:    "structure",
			Description: fmt.Sprintf("Page has %d h1 headings, expected exactly one", sig.H1Count),
		})
	}
	if float64(sig.WordCount) < p.MinWordCount {
		issues = append(issues, domain.Issue{
			ID:          "seo-thin",
			Severity:    domain.SeverityMedium,
			Category:    "content",
			Description: fmt.Sprintf("Page has %d words of indexable text, below the %d minimum", sig.WordCount, int(p.MinWordCount)),
		})
	}
	return issues
}

func seoFixes(sig SEOSignals, p SEOProfile) []domain.Fix {
	var fixes []domain.Fix
	if sig.NoIndex {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-noindex",
			Title:       "Remove the noindex directive",
			Description: "Drop the noindex robots meta tag so search engines can index the page.",
			Priority:    1,
			ImpactPct:   40,
		})
	}
	if sig.TitleLength < p.TitleIdealMin || sig.TitleLength > p.TitleIdealMax {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-title",
			Title:       "Rewrite the title tag",
			Description: fmt.Sprintf("Write a %d-%d character title that leads with the primary keyword.", p.TitleIdealMin, p.TitleIdealMax),
			Priority:    2,
			ImpactPct:   10,
		})
	}
	if sig.DescriptionLength == 0 {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-description",
			Title:       "Add a meta description",
			Description: fmt.Sprintf("Summarize the page in %d-%d characters to control the search snippet.", p.DescriptionIdealMin, p.DescriptionIdealMax),
			Priority:    3,
			ImpactPct:   6,
		})
	}
	if float64(sig.InternalLinks) < p.MinInternalLinks {
		fixes = append(fixes, domain.Fix{
			ID:          "fix-links",
			Title:       "Add internal links",
			Description: "Link to related pages from body copy so crawlers can discover the rest of the site.",
			Priority:    4,
			ImpactPct:   5,
		})
	}
	return fixes
}
