package competitor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

// Candidate is a discovered rival domain before analysis.
type Candidate struct {
	Domain string
	Reason string
	Method domain.DiscoveryMethod
}

const discoveryCount = 3

// minParsedCandidates is the acceptance bar for an AI discovery response;
// below it the static industry fallback is used instead.
const minParsedCandidates = 2

const discoverySystemPrompt = `You identify direct competitors of a website. Given a domain, respond with JSON:
{"competitors": [{"domain": "...", "reason": "..."}]}
Return exactly 3 real competitor domains. Never include the input domain itself.`

// industryBuckets map domain keywords to static fallback competitor sets.
// Matched by substring against the user's domain; the generic bucket applies
// when nothing matches.
var industryBuckets = []struct {
	keywords    []string
	competitors []Candidate
}{
	{
		keywords: []string{"shop", "store", "cart", "buy", "commerce"},
		competitors: []Candidate{
			{Domain: "shopify.com", Reason: "Leading hosted e-commerce platform"},
			{Domain: "bigcommerce.com", Reason: "Established e-commerce platform"},
			{Domain: "squarespace.com", Reason: "Popular storefront site builder"},
		},
	},
	{
		keywords: []string{"blog", "news", "media", "press", "magazine"},
		competitors: []Candidate{
			{Domain: "medium.com", Reason: "Large general publishing platform"},
			{Domain: "substack.com", Reason: "Leading newsletter publishing platform"},
			{Domain: "wordpress.com", Reason: "Dominant blogging platform"},
		},
	},
	{
		keywords: []string{"app", "tech", "soft", "dev", "cloud", "data"},
		competitors: []Candidate{
			{Domain: "atlassian.com", Reason: "Established software tooling vendor"},
			{Domain: "notion.so", Reason: "Popular productivity software"},
			{Domain: "monday.com", Reason: "Widely used work management platform"},
		},
	},
	{
		keywords: []string{"travel", "hotel", "trip", "tour", "flight"},
		competitors: []Candidate{
			{Domain: "booking.com", Reason: "Dominant travel booking site"},
			{Domain: "expedia.com", Reason: "Major online travel agency"},
			{Domain: "tripadvisor.com", Reason: "Leading travel review platform"},
		},
	},
}

var genericBucket = []Candidate{
	{Domain: "wix.com", Reason: "General purpose website builder"},
	{Domain: "squarespace.com", Reason: "General purpose website builder"},
	{Domain: "godaddy.com", Reason: "Mass market web presence provider"},
}

// Discover finds competitor domains for userDomain, preferring the AI
// provider chain and falling back to the static industry buckets.
func (s *Service) Discover(ctx context.Context, userDomain string) []Candidate {
	if candidates := s.discoverAI(ctx, userDomain); len(candidates) >= minParsedCandidates {
		return candidates
	}
	s.logger.Info("competitor discovery using static fallback",
		zap.String("user_domain", userDomain))
	return fallbackCandidates(userDomain)
}

func (s *Service) discoverAI(ctx context.Context, userDomain string) []Candidate {
	if s.chain == nil || !s.chain.Available() {
		return nil
	}

	var out struct {
		Competitors []struct {
			Domain string `json:"domain"`
			Reason string `json:"reason"`
		} `json:"competitors"`
	}
	prompt := fmt.Sprintf("Find the top %d direct competitors of %s.", discoveryCount, userDomain)
	if _, err := s.chain.CompleteInto(ctx, discoverySystemPrompt, prompt, []string{"competitors"}, &out); err != nil {
		s.logger.Warn("ai competitor discovery failed",
			zap.String("user_domain", userDomain),
			zap.Error(err))
		return nil
	}

	seen := map[string]bool{userDomain: true}
	candidates := make([]Candidate, 0, discoveryCount)
	for _, c := range out.Competitors {
		d := domain.DomainOf(c.Domain)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		candidates = append(candidates, Candidate{Domain: d, Reason: c.Reason, Method: domain.DiscoveryAI})
		if len(candidates) == discoveryCount {
			break
		}
	}
	return candidates
}

func fallbackCandidates(userDomain string) []Candidate {
	lower := strings.ToLower(userDomain)
	picked := genericBucket
outer:
	for _, bucket := range industryBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				picked = bucket.competitors
				break outer
			}
		}
	}

	out := make([]Candidate, 0, len(picked))
	for _, c := range picked {
		if c.Domain == userDomain {
			continue
		}
		c.Method = domain.DiscoveryFallback
		out = append(out, c)
	}
	return out
}
