package scoring

import "github.com/webpulse/webpulse/internal/domain"

// UXProfile is one threshold profile for the UX scorer. Desktop and mobile
// profiles differ: mobile tolerates more DOM nodes but penalizes small touch
// targets and text, and treats a missing viewport more harshly.
type UXProfile struct {
	ViolationsCritical MetricThreshold
	ViolationsSerious  MetricThreshold
	ViolationsModerate MetricThreshold
	DOMNodes           MetricThreshold
	TouchTargets       MetricThreshold
	SmallText          MetricThreshold

	MissingCTAPenalty      float64
	MissingViewportPenalty float64

	AccessibilityWeight float64
	UsabilityWeight     float64
	TrustWeight         float64
	MobileWeight        float64
}

// DesktopUXProfile returns the desktop threshold profile.
func DesktopUXProfile() UXProfile {
	return UXProfile{
		ViolationsCritical: MetricThreshold{Good: 0, Bad: 2},
		ViolationsSerious:  MetricThreshold{Good: 0, Bad: 5},
		ViolationsModerate: MetricThreshold{Good: 0, Bad: 12},
		DOMNodes:           MetricThreshold{Good: 800, Bad: 2800},

		MissingCTAPenalty:      0.4,
		MissingViewportPenalty: 0.3,

		AccessibilityWeight: 0.5,
		UsabilityWeight:     0.3,
		TrustWeight:         0.2,
	}
}

// MobileUXProfile returns the mobile threshold profile.
func MobileUXProfile() UXProfile {
	return UXProfile{
		ViolationsCritical: MetricThreshold{Good: 0, Bad: 2},
		ViolationsSerious:  MetricThreshold{Good: 0, Bad: 5},
		ViolationsModerate: MetricThreshold{Good: 0, Bad: 12},
		DOMNodes:           MetricThreshold{Good: 1200, Bad: 3500},
		TouchTargets:       MetricThreshold{Good: 0, Bad: 8},
		SmallText:          MetricThreshold{Good: 0, Bad: 10},

		MissingCTAPenalty:      0.4,
		MissingViewportPenalty: 0.5,

		AccessibilityWeight: 0.4,
		UsabilityWeight:     0.25,
		TrustWeight:         0.15,
		MobileWeight:        0.2,
	}
}

// UXProfileFor selects the profile for a scan mode.
func UXProfileFor(mode domain.ScanMode) UXProfile {
	if mode == domain.ScanModeMobile {
		return MobileUXProfile()
	}
	return DesktopUXProfile()
}

// PerformanceProfile holds the bands for the performance scorer. Times are
// milliseconds, weight is kilobytes.
type PerformanceProfile struct {
	LCP        MetricThreshold
	FCP        MetricThreshold
	TTFB       MetricThreshold
	TBT        MetricThreshold
	CLS        MetricThreshold
	PageWeight MetricThreshold
	Requests   MetricThreshold

	LoadingWeight       float64
	InteractivityWeight float64
	WeightWeight        float64
}

// PerformanceProfileFor selects performance bands for a scan mode. Mobile
// bands are looser on latency (cellular budgets) but tighter on page weight.
func PerformanceProfileFor(mode domain.ScanMode) PerformanceProfile {
	p := PerformanceProfile{
		LCP:        MetricThreshold{Good: 2500, Bad: 6000},
		FCP:        MetricThreshold{Good: 1800, Bad: 4500},
		TTFB:       MetricThreshold{Good: 500, Bad: 2000},
		TBT:        MetricThreshold{Good: 200, Bad: 1200},
		CLS:        MetricThreshold{Good: 0.1, Bad: 0.5},
		PageWeight: MetricThreshold{Good: 1500, Bad: 6000},
		Requests:   MetricThreshold{Good: 50, Bad: 180},

		LoadingWeight:       0.5,
		InteractivityWeight: 0.3,
		WeightWeight:        0.2,
	}
	if mode == domain.ScanModeMobile {
		p.LCP = MetricThreshold{Good: 3000, Bad: 7000}
		p.FCP = MetricThreshold{Good: 2200, Bad: 5500}
		p.PageWeight = MetricThreshold{Good: 1000, Bad: 4000}
	}
	return p
}

// SEOProfile holds the bands for the SEO scorer.
type SEOProfile struct {
	TitleLength       MetricThreshold // penalty on deviation from the ideal band midpoint
	DescriptionLength MetricThreshold
	WordCount         MetricThreshold // inverted: applied to the shortfall
	InternalLinks     MetricThreshold // inverted: applied to the shortfall

	TitleIdealMin       int
	TitleIdealMax       int
	DescriptionIdealMin int
	DescriptionIdealMax int
	MinWordCount        float64
	MinInternalLinks    float64

	MetadataWeight  float64
	StructureWeight float64
	ContentWeight   float64
	LinksWeight     float64
}

// DefaultSEOProfile returns the SEO bands. SEO thresholds do not vary by
// scan mode.
func DefaultSEOProfile() SEOProfile {
	return SEOProfile{
		TitleLength:       MetricThreshold{Good: 0, Bad: 30},
		DescriptionLength: MetricThreshold{Good: 0, Bad: 80},
		WordCount:         MetricThreshold{Good: 0, Bad: 300},
		InternalLinks:     MetricThreshold{Good: 0, Bad: 10},

		TitleIdealMin:       30,
		TitleIdealMax:       60,
		DescriptionIdealMin: 70,
		DescriptionIdealMax: 160,
		MinWordCount:        300,
		MinInternalLinks:    10,

		MetadataWeight:  0.35,
		StructureWeight: 0.25,
		ContentWeight:   0.25,
		LinksWeight:     0.15,
	}
}

// ContentProfile holds the bands for the content scorer.
type ContentProfile struct {
	WordShortfall  MetricThreshold
	Readability    MetricThreshold // grade level above which comprehension suffers
	DuplicateRatio MetricThreshold
	ThinRatio      MetricThreshold
	MediaShortfall MetricThreshold
	Diffuseness    MetricThreshold // 1-focus above which the copy has no clear theme

	MinWordCount float64
	MinMedia     float64

	DepthWeight       float64
	ReadabilityWeight float64
	UniquenessWeight  float64
	RichnessWeight    float64
	FocusWeight       float64
}

// DefaultContentProfile returns the content bands.
func DefaultContentProfile() ContentProfile {
	return ContentProfile{
		WordShortfall:  MetricThreshold{Good: 0, Bad: 500},
		Readability:    MetricThreshold{Good: 9, Bad: 16},
		DuplicateRatio: MetricThreshold{Good: 0.05, Bad: 0.4},
		ThinRatio:      MetricThreshold{Good: 0.1, Bad: 0.6},
		MediaShortfall: MetricThreshold{Good: 0, Bad: 3},
		Diffuseness:    MetricThreshold{Good: 0.65, Bad: 0.9},

		MinWordCount: 500,
		MinMedia:     3,

		DepthWeight:       0.3,
		ReadabilityWeight: 0.3,
		UniquenessWeight:  0.2,
		RichnessWeight:    0.15,
		FocusWeight:       0.05,
	}
}
