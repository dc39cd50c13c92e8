package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

const insightsSystemPrompt = `You are a website health consultant. Given module scores and issues for a page, produce strategic guidance as JSON:
{"summary": "...", "strategic_priorities": ["..."], "quick_wins": ["..."]}`

var insightsRequiredKeys = []string{"summary", "strategic_priorities", "quick_wins"}

// generateInsights asks the completion chain for strategic guidance and
// falls back to rule-based insights when no usable AI response arrives.
func (s *Service) generateInsights(ctx context.Context, report *domain.AuditReport) *domain.Insights {
	if s.chain != nil && s.chain.Available() {
		var out struct {
			Summary             string   `json:"summary"`
			StrategicPriorities []string `json:"strategic_priorities"`
			QuickWins           []string `json:"quick_wins"`
		}
		provider, err := s.chain.CompleteInto(ctx, insightsSystemPrompt, insightsPrompt(report), insightsRequiredKeys, &out)
		if err == nil && provider != "" && out.Summary != "" {
			return &domain.Insights{
				Summary:             out.Summary,
				StrategicPriorities: out.StrategicPriorities,
				QuickWins:           out.QuickWins,
				AIGenerated:         true,
			}
		}
		if err != nil {
			s.logger.Warn("insight generation fell back to rule-based",
				zap.String("url", report.URL),
				zap.Error(err))
		}
	}
	return ruleBasedInsights(report)
}

func insightsPrompt(report *domain.AuditReport) string {
	payload := map[string]any{
		"url":          report.URL,
		"health_score": report.HealthScore(),
		"modules":      map[string]any{},
	}
	modules := payload["modules"].(map[string]any)
	for m, res := range report.Modules {
		issues := make([]string, 0, len(res.Issues))
		for _, is := range res.Issues {
			issues = append(issues, fmt.Sprintf("[%s] %s", is.Severity, is.Description))
		}
		modules[string(m)] = map[string]any{
			"score":  res.Score,
			"risk":   res.RiskLevel,
			"issues": issues,
		}
	}
	encoded, _ := json.Marshal(payload)
	return fmt.Sprintf("Audit results:\n%s", encoded)
}

// ruleBasedInsights synthesizes deterministic guidance from the scored
// modules: priorities from the weakest modules, quick wins from the highest
// impact fixes.
func ruleBasedInsights(report *domain.AuditReport) *domain.Insights {
	type scored struct {
		module domain.Module
		result *domain.ModuleResult
	}
	ordered := make([]scored, 0, len(report.Modules))
	for m, res := range report.Modules {
		ordered = append(ordered, scored{module: m, result: res})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].result.Score < ordered[j].result.Score })

	insights := &domain.Insights{
		Summary: fmt.Sprintf("Overall health score is %d/100 across %d audited dimensions.",
			report.HealthScore(), len(report.Modules)),
	}
	for _, s := range ordered {
		if s.result.Score >= 70 {
			continue
		}
		insights.StrategicPriorities = append(insights.StrategicPriorities,
			fmt.Sprintf("Improve %s (currently %d/100, %s risk)", s.module, s.result.Score, s.result.RiskLevel))
	}
	if len(insights.StrategicPriorities) == 0 {
		insights.StrategicPriorities = []string{"Maintain current standards; no module scored below 70"}
	}

	var fixes []domain.Fix
	for _, s := range ordered {
		fixes = append(fixes, s.result.Fixes...)
	}
	sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].ImpactPct > fixes[j].ImpactPct })
	for i, f := range fixes {
		if i == 3 {
			break
		}
		insights.QuickWins = append(insights.QuickWins, f.Title)
	}
	if len(insights.QuickWins) == 0 {
		insights.QuickWins = []string{"No outstanding fixes detected"}
	}
	return insights
}
