// Package collector captures raw page signals for the audit scorers. Two
// implementations exist: a headless-browser collector for full audits and a
// plain HTTP collector used in reduced-cost mode, where browser-only metrics
// stay unmeasured and the scorers skip them.
package collector

import (
	"context"
	"time"
)

// Options controls how a page is captured.
type Options struct {
	// EmulateMobile captures with a mobile viewport and user agent.
	EmulateMobile bool

	// CaptureArtifacts keeps the raw HTML and a screenshot on the snapshot
	// for archival. Reduced-cost runs leave it off.
	CaptureArtifacts bool
}

// Snapshot is everything one capture learned about a page. Zero numeric
// metrics mean unmeasured, not perfect.
type Snapshot struct {
	URL        string
	FinalURL   string
	StatusCode int

	Title           string
	MetaDescription string
	HasCanonical    bool
	HasRobotsMeta   bool
	RobotsNoIndex   bool
	ViewportMeta    bool
	StructuredData  bool

	H1Count       int
	HeadingSkips  int
	InternalLinks int
	ExternalLinks int
	BrokenAnchors int

	ImagesTotal      int
	ImagesMissingAlt int
	CTAAboveFold     int
	DOMNodeCount     int

	// Browser-only mobile ergonomics signals.
	TouchTargetViolations int
	SmallTextViolations   int

	TextContent   string
	WordCount     int
	ListCount     int
	HasAuthorInfo bool
	HasFreshDate  bool

	TTFBMs       float64
	FCPMs        float64
	LCPMs        float64
	TBTMs        float64
	CLS          float64
	PageWeightKB float64
	RequestCount int

	HTML       []byte
	Screenshot []byte

	Mobile      bool
	CollectedAt time.Time
	LoadTime    time.Duration
}

// Collector captures a snapshot of one page.
type Collector interface {
	Collect(ctx context.Context, pageURL string, opts Options) (*Snapshot, error)
}
