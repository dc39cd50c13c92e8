package domain

import (
	"time"
)

// Module identifies one of the four audit dimensions.
type Module string

const (
	ModulePerformance Module = "performance"
	ModuleSEO         Module = "seo"
	ModuleUX          Module = "ux"
	ModuleContent     Module = "content"
)

// Modules lists all audit modules in aggregation order.
var Modules = []Module{ModulePerformance, ModuleSEO, ModuleUX, ModuleContent}

func (m Module) IsValid() bool {
	switch m {
	case ModulePerformance, ModuleSEO, ModuleUX, ModuleContent:
		return true
	}
	return false
}

// ScanMode selects the threshold profile used when scoring.
type ScanMode string

const (
	ScanModeDesktop ScanMode = "desktop"
	ScanModeMobile  ScanMode = "mobile"
)

// RiskLevel classifies how urgently a module needs attention.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Recommendation is the action bucket derived from a module score.
type Recommendation string

const (
	RecommendCriticalFixes Recommendation = "critical_fixes"
	RecommendPriorityFixes Recommendation = "priority_fixes"
	RecommendMinorFixes    Recommendation = "minor_fixes"
)

// Severity grades individual issues.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Timestamps provides common time tracking fields
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Touch updates the UpdatedAt timestamp
func (t *Timestamps) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// InitTimestamps sets creation timestamps
func (t *Timestamps) InitTimestamps() {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}
