package domain

import (
	"time"

	"github.com/google/uuid"
)

// ComparisonStatus is the lifecycle state of a competitor comparison.
// Transitions are monotone forward only.
type ComparisonStatus string

const (
	ComparisonPending   ComparisonStatus = "pending"
	ComparisonAnalyzing ComparisonStatus = "analyzing"
	ComparisonCompleted ComparisonStatus = "completed"
	ComparisonFailed    ComparisonStatus = "failed"
)

// ComparisonTTL is how long a comparison record stays readable. Expiry is a
// read-time check, not active deletion.
const ComparisonTTL = 7 * 24 * time.Hour

func (s ComparisonStatus) IsValid() bool {
	switch s {
	case ComparisonPending, ComparisonAnalyzing, ComparisonCompleted, ComparisonFailed:
		return true
	}
	return false
}

func (s ComparisonStatus) IsTerminal() bool {
	return s == ComparisonCompleted || s == ComparisonFailed
}

func (s ComparisonStatus) order() int {
	switch s {
	case ComparisonPending:
		return 0
	case ComparisonAnalyzing:
		return 1
	case ComparisonCompleted, ComparisonFailed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving to next preserves forward-only
// ordering. Terminal states accept no further transitions.
func (s ComparisonStatus) CanTransitionTo(next ComparisonStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	return next.order() > s.order()
}

// DiscoveryMethod records whether a competitor came from the AI provider or
// the static fallback list.
type DiscoveryMethod string

const (
	DiscoveryAI       DiscoveryMethod = "ai"
	DiscoveryFallback DiscoveryMethod = "fallback"
)

// CompetitorEntry is one analyzed rival site within a comparison.
type CompetitorEntry struct {
	Domain          string          `json:"domain"`
	ReportRef       uuid.UUID       `json:"report_ref"`
	DiscoveryMethod DiscoveryMethod `json:"discovery_method"`
	Rank            int             `json:"rank"`
	Reason          string          `json:"reason"`
	HealthScore     int             `json:"health_score"`
	ModuleScores    map[Module]int  `json:"module_scores"`
}

// RankedSite is one row of the overall ranking inside a ComparisonResult.
type RankedSite struct {
	Domain      string `json:"domain"`
	HealthScore int    `json:"health_score"`
	Rank        int    `json:"rank"`
	IsUser      bool   `json:"is_user"`
}

// ComparisonResult is the 1-vs-N outcome of the comparative analysis step.
type ComparisonResult struct {
	OverallRanking []RankedSite `json:"overall_ranking"`
	Position       string       `json:"your_competitive_position"`
	Percentile     float64      `json:"percentile"`
	Strengths      []string     `json:"strengths"`
	Weaknesses     []string     `json:"weaknesses"`
	QuickWins      []string     `json:"quick_wins"`
	AIGenerated    bool         `json:"ai_generated"`
}

// CompetitorComparison is the persisted state machine driving the async
// competitor pipeline. It is created in the analyzing state by the API call
// and mutated exactly twice by the background continuation.
type CompetitorComparison struct {
	ID            uuid.UUID         `json:"id"`
	UserReportID  uuid.UUID         `json:"user_report_id"`
	UserDomain    string            `json:"user_domain"`
	Status        ComparisonStatus  `json:"status"`
	Competitors   []CompetitorEntry `json:"competitors,omitempty"`
	Comparison    *ComparisonResult `json:"comparison,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

// NewCompetitorComparison creates a comparison record already in the
// analyzing state, synchronously with the API call that starts the pipeline.
func NewCompetitorComparison(userReportID uuid.UUID, userDomain string) *CompetitorComparison {
	now := time.Now().UTC()
	return &CompetitorComparison{
		ID:           uuid.New(),
		UserReportID: userReportID,
		UserDomain:   userDomain,
		Status:       ComparisonAnalyzing,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(ComparisonTTL),
	}
}

// AttachCompetitors records the batch-analysis outcome. The record stays in
// the analyzing state.
func (c *CompetitorComparison) AttachCompetitors(entries []CompetitorEntry) error {
	if c.Status != ComparisonAnalyzing {
		return ConflictError("comparison", string(c.Status), "cannot attach competitors")
	}
	c.Competitors = entries
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete attaches the comparison result and flips the record to completed.
func (c *CompetitorComparison) Complete(result *ComparisonResult) error {
	if !c.Status.CanTransitionTo(ComparisonCompleted) {
		return ConflictError("comparison", string(c.Status), "cannot complete")
	}
	c.Comparison = result
	c.Status = ComparisonCompleted
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail flips the record to failed with a reason.
func (c *CompetitorComparison) Fail(reason string) error {
	if !c.Status.CanTransitionTo(ComparisonFailed) {
		return ConflictError("comparison", string(c.Status), "cannot fail")
	}
	c.FailureReason = reason
	c.Status = ComparisonFailed
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsExpired reports whether the record is stale at read time.
func (c *CompetitorComparison) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
