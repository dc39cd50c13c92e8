package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PenaltyFactor is one contributor to a module's score. Immutable once
// produced by a scorer.
type PenaltyFactor struct {
	Name          string  `json:"name"`
	ObservedValue float64 `json:"observed_value"`
	Penalty       float64 `json:"penalty"`
}

// Issue describes one negative finding on the audited page.
type Issue struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	AIGenerated bool     `json:"ai_generated"`
}

// Fix is a recommended remediation, optionally AI-authored.
type Fix struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    int     `json:"priority"`
	ImpactPct   float64 `json:"impact_pct"`
	AIGenerated bool    `json:"ai_generated"`
}

// ModuleResult is the outcome of scoring one audit dimension. A new run
// produces a new ModuleResult; results are never mutated after creation.
type ModuleResult struct {
	Module         Module          `json:"module"`
	Score          int             `json:"score"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Recommendation Recommendation  `json:"recommendation"`
	Factors        []PenaltyFactor `json:"factors"`
	Issues         []Issue         `json:"issues"`
	Fixes          []Fix           `json:"fixes"`

	// Performance only: two independently computed scores surfaced side by
	// side. Neither supersedes the other.
	AuditorScore   *int `json:"auditor_score,omitempty"`
	EstimatedScore *int `json:"estimated_score,omitempty"`
}

// AggregateReport combines the four module scores into one health score.
// Derived solely from the ModuleResults of one audit run; recomputed, never
// patched.
type AggregateReport struct {
	HealthScore  int            `json:"health_score"`
	ModuleScores map[Module]int `json:"module_scores"`
	RiskDomains  []string       `json:"risk_domains"`
}

// Insights holds the AI-generated strategic summary for a report.
type Insights struct {
	Summary             string   `json:"summary"`
	StrategicPriorities []string `json:"strategic_priorities"`
	QuickWins           []string `json:"quick_wins"`
	AIGenerated         bool     `json:"ai_generated"`
}

// ArtifactRefs points at archived capture artifacts in object storage.
type ArtifactRefs struct {
	ScreenshotKey string `json:"screenshot_key,omitempty"`
	HTMLKey       string `json:"html_key,omitempty"`
}

// AuditReport is the persisted outcome of one full page audit.
type AuditReport struct {
	ID        uuid.UUID                `json:"id"`
	URL       string                   `json:"url"`
	Domain    string                   `json:"domain"`
	Mode      ScanMode                 `json:"mode"`
	Modules   map[Module]*ModuleResult `json:"modules"`
	Aggregate *AggregateReport         `json:"aggregate"`
	Insights  *Insights                `json:"insights,omitempty"`
	NLP       *NLPResult               `json:"nlp,omitempty"`
	Artifacts *ArtifactRefs            `json:"artifacts,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// NewAuditReport creates a report shell for the given target.
func NewAuditReport(rawURL string, mode ScanMode) *AuditReport {
	return &AuditReport{
		ID:        uuid.New(),
		URL:       rawURL,
		Domain:    DomainOf(rawURL),
		Mode:      mode,
		Modules:   make(map[Module]*ModuleResult),
		CreatedAt: time.Now().UTC(),
	}
}

// HealthScore returns the aggregate health score, or 0 before aggregation.
func (r *AuditReport) HealthScore() int {
	if r.Aggregate == nil {
		return 0
	}
	return r.Aggregate.HealthScore
}

// ModuleScores returns the per-module score map used in comparisons.
func (r *AuditReport) ModuleScores() map[Module]int {
	scores := make(map[Module]int, len(r.Modules))
	for m, res := range r.Modules {
		scores[m] = res.Score
	}
	return scores
}

// NormalizeURL prepends https:// when the scheme is missing and validates the
// result parses as an absolute URL with a host.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ValidationError("url", "url is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ValidationError("url", "invalid url")
	}
	return u.String(), nil
}

// DomainOf extracts the bare hostname from a URL or domain string.
func DomainOf(raw string) string {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	u, _ := url.Parse(normalized)
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
