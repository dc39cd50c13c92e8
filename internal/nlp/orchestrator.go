package nlp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/internal/llm"
	"github.com/webpulse/webpulse/internal/observability"
)

// CompletionClient is the slice of the llm chain the orchestrator needs.
type CompletionClient interface {
	Available() bool
	CompleteInto(ctx context.Context, systemPrompt, userPrompt string, required []string, out any) (string, error)
}

// promptTextLimit bounds how much page text is sent to a provider per task.
const promptTextLimit = 4000

// Orchestrator runs the NLP tasks for a page's text content. The four
// AI-backed tasks settle independently; each failure is replaced by its
// neutral default, so Analyze always returns a usable result.
type Orchestrator struct {
	client CompletionClient
	cache  *Cache
	logger *zap.Logger
}

// NewOrchestrator creates an orchestrator. A nil cache gets the default
// bounds; a nil client degrades every AI task to its neutral default.
func NewOrchestrator(client CompletionClient, cache *Cache, logger *zap.Logger) *Orchestrator {
	if cache == nil {
		cache = NewCache(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{client: client, cache: cache, logger: logger}
}

// Analyze produces the combined NLP result for text, served from cache when
// an identical fingerprint was analyzed inside the TTL.
func (o *Orchestrator) Analyze(ctx context.Context, text string) *domain.NLPResult {
	key := Fingerprint(text)
	if cached, ok := o.cache.Get(key); ok {
		o.logger.Debug("nlp cache hit", zap.Int("fingerprint_len", len(key)))
		observability.GetMetrics().RecordNLPCache(true)
		return cached
	}
	observability.GetMetrics().RecordNLPCache(false)

	result := &domain.NLPResult{Sentiment: domain.NeutralSentiment()}
	excerpt := text
	if len(excerpt) > promptTextLimit {
		excerpt = excerpt[:promptTextLimit]
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		result.Sentiment = o.sentiment(ctx, excerpt)
	}()
	go func() {
		defer wg.Done()
		result.Entities = o.entities(ctx, excerpt)
	}()
	go func() {
		defer wg.Done()
		result.Summary = o.summary(ctx, excerpt)
	}()
	go func() {
		defer wg.Done()
		result.Topics = o.topics(ctx, excerpt)
	}()
	wg.Wait()

	result.Keywords = ExtractKeywords(text)
	result.Readability = AnalyzeReadability(text)

	o.cache.Set(key, result)
	return result
}

func (o *Orchestrator) sentiment(ctx context.Context, text string) domain.Sentiment {
	var out struct {
		Label      string `json:"label"`
		Confidence int    `json:"confidence"`
	}
	if !o.completeTask(ctx, "sentiment",
		"You classify the sentiment of website copy. Respond with {\"label\": \"POSITIVE\"|\"NEUTRAL\"|\"NEGATIVE\", \"confidence\": 0-100}.",
		text, []string{"label", "confidence"}, &out) {
		return domain.NeutralSentiment()
	}

	label := domain.SentimentLabel(strings.ToUpper(out.Label))
	switch label {
	case domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative:
	default:
		return domain.NeutralSentiment()
	}
	if out.Confidence < 0 || out.Confidence > 100 {
		out.Confidence = 50
	}
	return domain.Sentiment{Label: label, Confidence: out.Confidence}
}

func (o *Orchestrator) entities(ctx context.Context, text string) []domain.Entity {
	var out struct {
		Entities []domain.Entity `json:"entities"`
	}
	if !o.completeTask(ctx, "entities",
		"You extract named entities from website copy. Respond with {\"entities\": [{\"text\": ..., \"type\": \"ORG\"|\"PERSON\"|\"PRODUCT\"|\"LOCATION\"|\"OTHER\"}]}.",
		text, []string{"entities"}, &out) {
		return nil
	}
	return out.Entities
}

func (o *Orchestrator) summary(ctx context.Context, text string) string {
	var out struct {
		Summary string `json:"summary"`
	}
	if !o.completeTask(ctx, "summary",
		"You summarize website copy in at most two sentences. Respond with {\"summary\": ...}.",
		text, []string{"summary"}, &out) {
		return ""
	}
	return out.Summary
}

func (o *Orchestrator) topics(ctx context.Context, text string) []string {
	var out struct {
		Topics []string `json:"topics"`
	}
	if !o.completeTask(ctx, "topics",
		"You classify website copy into up to five topical categories. Respond with {\"topics\": [...]}.",
		text, []string{"topics"}, &out) {
		return nil
	}
	return out.Topics
}

// completeTask runs one AI task, reporting whether a usable structured
// response arrived. The static provider terminal returns prose that fails
// decoding, which routes the task to its neutral default as intended.
func (o *Orchestrator) completeTask(ctx context.Context, task, systemPrompt, text string, required []string, out any) bool {
	if o.client == nil || !o.client.Available() {
		return false
	}
	provider, err := o.client.CompleteInto(ctx, systemPrompt, fmt.Sprintf("Text:\n%s", text), required, out)
	if err != nil {
		o.logger.Debug("nlp task fell back to neutral default",
			zap.String("task", task),
			zap.Error(err))
		observability.GetMetrics().RecordNLPTask(task, "fallback")
		return false
	}
	if provider == llm.StaticName {
		observability.GetMetrics().RecordNLPTask(task, "fallback")
		return false
	}
	observability.GetMetrics().RecordNLPTask(task, "success")
	return true
}
