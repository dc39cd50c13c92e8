package analyzer

import (
	"math"
	"regexp"
	"strings"

	"github.com/webpulse/webpulse/internal/collector"
	"github.com/webpulse/webpulse/internal/nlp"
	"github.com/webpulse/webpulse/internal/scoring"
)

// uxSignals maps a snapshot onto the UX scorer inputs. Accessibility
// violation counts are derived from markup-level checks; a capture without a
// browser reports no touch-target data and those metrics stay zero.
func uxSignals(snap *collector.Snapshot) scoring.UXSignals {
	sig := scoring.UXSignals{
		CTAAboveFold:          snap.CTAAboveFold,
		DOMNodeCount:          snap.DOMNodeCount,
		ViewportMeta:          snap.ViewportMeta,
		ImagesTotal:           snap.ImagesTotal,
		ImagesMissingAlt:      snap.ImagesMissingAlt,
		TouchTargetViolations: snap.TouchTargetViolations,
		SmallTextViolations:   snap.SmallTextViolations,
	}

	// Markup-derived violation proxies. Missing alt text on most images and
	// absent document structure grade as serious; broken anchors as moderate.
	if snap.ImagesTotal > 0 && snap.ImagesMissingAlt*2 > snap.ImagesTotal {
		sig.ViolationsSerious++
	}
	if snap.H1Count == 0 {
		sig.ViolationsSerious++
	}
	sig.ViolationsModerate += snap.BrokenAnchors
	sig.ViolationsModerate += snap.HeadingSkips

	return sig
}

func seoSignals(snap *collector.Snapshot) scoring.SEOSignals {
	return scoring.SEOSignals{
		TitleLength:       len(snap.Title),
		DescriptionLength: len(snap.MetaDescription),
		HasCanonical:      snap.HasCanonical,
		HasRobotsMeta:     snap.HasRobotsMeta,
		NoIndex:           snap.RobotsNoIndex,
		H1Count:           snap.H1Count,
		HeadingSkips:      snap.HeadingSkips,
		HasStructuredData: snap.StructuredData,
		WordCount:         snap.WordCount,
		InternalLinks:     snap.InternalLinks,
		ExternalLinks:     snap.ExternalLinks,
		BrokenAnchors:     snap.BrokenAnchors,
	}
}

func contentSignals(snap *collector.Snapshot) scoring.ContentSignals {
	metrics := nlp.AnalyzeReadability(snap.TextContent)
	return scoring.ContentSignals{
		WordCount:      snap.WordCount,
		ReadingGrade:   nlp.ReadingGrade(metrics),
		DuplicateRatio: duplicateRatio(snap.TextContent),
		KeywordFocus:   keywordFocus(snap.TextContent),
		ThinRatio:      thinRatio(snap),
		MediaCount:     snap.ImagesTotal,
		ListCount:      snap.ListCount,
		HasAuthorInfo:  snap.HasAuthorInfo,
		HasFreshDate:   snap.HasFreshDate,
	}
}

var textSegmentSplit = regexp.MustCompile(`[.!?\n]+`)

// minSegmentLen filters out headings and stray fragments so only
// paragraph-grade segments count toward duplication.
const minSegmentLen = 40

// duplicateRatio measures the share of repeated text segments in the visible
// copy. Segments are sentence-sized chunks normalized to lowercase; boilerplate
// repeated across the page raises the ratio toward 1.
func duplicateRatio(text string) float64 {
	seen := make(map[string]struct{})
	total, dupes := 0, 0
	for _, seg := range textSegmentSplit.Split(text, -1) {
		seg = strings.ToLower(strings.TrimSpace(seg))
		if len(seg) < minSegmentLen {
			continue
		}
		total++
		if _, ok := seen[seg]; ok {
			dupes++
		} else {
			seen[seg] = struct{}{}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dupes) / float64(total)
}

// keywordFocus measures how concentrated the copy is on its leading terms:
// the share of keyword occurrences captured by the three most relevant ones.
// Returns nil when the page has no extractable keywords.
func keywordFocus(text string) *float64 {
	keywords := nlp.ExtractKeywords(text)
	if len(keywords) == 0 {
		return nil
	}

	var top, total float64
	for i, kw := range keywords {
		total += float64(kw.Frequency)
		if i < 3 {
			top += float64(kw.Frequency)
		}
	}
	if total == 0 {
		return nil
	}

	focus := top / total
	return &focus
}

// thinRatio estimates how much of the page is boilerplate rather than copy:
// pages with many links but few words read as thin.
func thinRatio(snap *collector.Snapshot) float64 {
	links := snap.InternalLinks + snap.ExternalLinks
	if snap.WordCount == 0 {
		return 1
	}
	ratio := float64(links*8) / float64(snap.WordCount)
	if ratio > 1 {
		return 1
	}
	return ratio
}

func performanceSignals(snap *collector.Snapshot) scoring.PerformanceSignals {
	sig := scoring.PerformanceSignals{
		LCPMs:        snap.LCPMs,
		FCPMs:        snap.FCPMs,
		TTFBMs:       snap.TTFBMs,
		TBTMs:        snap.TBTMs,
		CLS:          snap.CLS,
		PageWeightKB: snap.PageWeightKB,
		RequestCount: float64(snap.RequestCount),
	}
	if est := estimatePerformanceScore(snap); est >= 0 {
		sig.EstimatedScore = &est
	}
	return sig
}

// estimatePerformanceScore is the fast heuristic estimator: a coarse score
// from TTFB and transfer size alone, available even to reduced-cost captures.
// Returns -1 when neither input was measured.
func estimatePerformanceScore(snap *collector.Snapshot) int {
	if snap.TTFBMs <= 0 && snap.PageWeightKB <= 0 {
		return -1
	}
	penalty := 0.6*scoring.Penalty(snap.TTFBMs, 300, 1800) +
		0.4*scoring.Penalty(snap.PageWeightKB, 1000, 5000)
	return int(math.Round(100 * (1 - penalty)))
}
