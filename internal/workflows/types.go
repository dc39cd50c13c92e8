package workflows

import (
	"time"

	"github.com/google/uuid"

	"github.com/webpulse/webpulse/internal/competitor"
	"github.com/webpulse/webpulse/internal/domain"
)

// ComparisonInput is the input for the competitor comparison workflow.
type ComparisonInput struct {
	ComparisonID uuid.UUID `json:"comparison_id"`
	UserReportID uuid.UUID `json:"user_report_id"`
	UserDomain   string    `json:"user_domain"`
}

// ComparisonOutput is the terminal result of the workflow. The workflow
// returns it even on failure so the run history stays inspectable.
type ComparisonOutput struct {
	ComparisonID  uuid.UUID     `json:"comparison_id"`
	Status        string        `json:"status"`
	Competitors   int           `json:"competitors"`
	Error         string        `json:"error,omitempty"`
	CompletedAt   time.Time     `json:"completed_at"`
	TotalDuration time.Duration `json:"total_duration"`
}

// DiscoveryInput is input for the discovery activity.
type DiscoveryInput struct {
	ComparisonID uuid.UUID `json:"comparison_id"`
	UserDomain   string    `json:"user_domain"`
}

// DiscoveryOutput is output from the discovery activity.
type DiscoveryOutput struct {
	Candidates []competitor.Candidate `json:"candidates"`
	Fallback   bool                   `json:"fallback"`
}

// BatchInput is input for the batch analysis activity.
type BatchInput struct {
	ComparisonID uuid.UUID              `json:"comparison_id"`
	Candidates   []competitor.Candidate `json:"candidates"`
}

// BatchOutput is output from the batch analysis activity.
type BatchOutput struct {
	Entries []domain.CompetitorEntry `json:"entries"`
}

// CompareInput is input for the comparative analysis activity.
type CompareInput struct {
	ComparisonID uuid.UUID `json:"comparison_id"`
	UserReportID uuid.UUID `json:"user_report_id"`
}

// CompareOutput is output from the comparative analysis activity.
type CompareOutput struct {
	Position   string  `json:"position"`
	Percentile float64 `json:"percentile"`
}

// FailInput is input for the failure-recording activity.
type FailInput struct {
	ComparisonID uuid.UUID `json:"comparison_id"`
	Reason       string    `json:"reason"`
}
