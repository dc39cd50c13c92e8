package scoring

import (
	"math"

	"github.com/webpulse/webpulse/internal/domain"
)

// Aggregation weights. Performance carries the most because it is the
// dimension visitors feel first.
var moduleWeights = map[domain.Module]float64{
	domain.ModulePerformance: 0.30,
	domain.ModuleSEO:         0.25,
	domain.ModuleUX:          0.25,
	domain.ModuleContent:     0.20,
}

// maxAboveWorst caps the health score relative to the worst module. A site
// with one failing dimension is not healthy no matter how the others average.
const maxAboveWorst = 25

// Aggregate folds the module results of one run into a single health score.
// Missing modules are skipped and the remaining weights renormalized.
func Aggregate(modules map[domain.Module]*domain.ModuleResult) *domain.AggregateReport {
	agg := &domain.AggregateReport{
		ModuleScores: make(map[domain.Module]int, len(modules)),
	}

	var weighted, weightSum float64
	worst := 100
	for _, m := range domain.Modules {
		res, ok := modules[m]
		if !ok || res == nil {
			continue
		}
		agg.ModuleScores[m] = res.Score
		weighted += moduleWeights[m] * float64(res.Score)
		weightSum += moduleWeights[m]
		if res.Score < worst {
			worst = res.Score
		}
		if res.RiskLevel != domain.RiskLow {
			agg.RiskDomains = append(agg.RiskDomains, string(m))
		}
	}
	if weightSum == 0 {
		return agg
	}

	health := int(math.Round(weighted / weightSum))
	if ceiling := worst + maxAboveWorst; health > ceiling {
		health = ceiling
	}
	agg.HealthScore = health
	return agg
}
