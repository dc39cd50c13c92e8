package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

const comparativeSystemPrompt = `You compare a website's audit scores against its competitors. Respond with JSON:
{"overall_ranking": [{"domain": "...", "health_score": 0, "rank": 1, "is_user": false}],
 "your_competitive_position": "...",
 "percentile": 0,
 "strengths": ["..."],
 "weaknesses": ["..."],
 "quick_wins": ["..."]}`

var comparativeRequiredKeys = []string{"overall_ranking", "your_competitive_position"}

// Compare produces the 1-vs-N comparison result, preferring the AI chain and
// falling back to a rule-based ranking when the response is unusable.
func (s *Service) Compare(ctx context.Context, user *domain.AuditReport, competitors []domain.CompetitorEntry) *domain.ComparisonResult {
	if s.chain != nil && s.chain.Available() {
		var out domain.ComparisonResult
		_, err := s.chain.CompleteInto(ctx, comparativeSystemPrompt, comparativePrompt(user, competitors), comparativeRequiredKeys, &out)
		if err == nil && len(out.OverallRanking) > 0 && out.Position != "" {
			out.AIGenerated = true
			return &out
		}
		if err != nil {
			s.logger.Warn("ai comparative analysis failed, using rule-based ranking",
				zap.String("user_domain", user.Domain),
				zap.Error(err))
		}
	}
	return ruleBasedComparison(user, competitors)
}

func comparativePrompt(user *domain.AuditReport, competitors []domain.CompetitorEntry) string {
	payload := map[string]any{
		"user": map[string]any{
			"domain":        user.Domain,
			"health_score":  user.HealthScore(),
			"module_scores": user.ModuleScores(),
		},
		"competitors": competitors,
	}
	encoded, _ := json.Marshal(payload)
	return fmt.Sprintf("Compare these audit results:\n%s", encoded)
}

// ruleBasedComparison sorts all sites by health score descending, computes
// the user's rank and percentile, and synthesizes minimal guidance.
func ruleBasedComparison(user *domain.AuditReport, competitors []domain.CompetitorEntry) *domain.ComparisonResult {
	sites := make([]domain.RankedSite, 0, len(competitors)+1)
	sites = append(sites, domain.RankedSite{
		Domain:      user.Domain,
		HealthScore: user.HealthScore(),
		IsUser:      true,
	})
	for _, c := range competitors {
		sites = append(sites, domain.RankedSite{Domain: c.Domain, HealthScore: c.HealthScore})
	}

	sort.SliceStable(sites, func(i, j int) bool { return sites[i].HealthScore > sites[j].HealthScore })
	userRank := 0
	for i := range sites {
		sites[i].Rank = i + 1
		if sites[i].IsUser {
			userRank = i + 1
		}
	}

	total := len(sites)
	percentile := 100 * float64(total-userRank) / float64(total)
	result := &domain.ComparisonResult{
		OverallRanking: sites,
		Position:       fmt.Sprintf("Ranked %d of %d analyzed sites", userRank, total),
		Percentile:     math.Round(percentile),
	}

	if userRank == 1 {
		result.Strengths = []string{"Highest overall health score in the comparison set"}
	} else {
		result.Strengths = []string{"See module scores for dimensions above the competitor median"}
		result.Weaknesses = []string{fmt.Sprintf("%d competitor(s) score higher overall", userRank-1)}
	}
	result.QuickWins = []string{"Address the highest impact fixes from the underlying audit report"}
	return result
}
