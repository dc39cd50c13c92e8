package domain

// SentimentLabel is the coarse sentiment classification of page content.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
	SentimentNegative SentimentLabel = "NEGATIVE"
)

// Sentiment is the outcome of the sentiment NLP task. The neutral default
// (NEUTRAL, confidence 50) is used when the provider call fails.
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Confidence int            `json:"confidence"`
}

// NeutralSentiment is the documented fallback for a failed sentiment task.
func NeutralSentiment() Sentiment {
	return Sentiment{Label: SentimentNeutral, Confidence: 50}
}

// Entity is a named entity extracted from page content.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Keyword is a locally computed keyword with frequency and relevance.
type Keyword struct {
	Term      string  `json:"term"`
	Frequency int     `json:"frequency"`
	Relevance float64 `json:"relevance"`
}

// ReadabilityMetrics is the locally computed advanced readability set.
type ReadabilityMetrics struct {
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	ComplexWordRatio  float64 `json:"complex_word_ratio"`
	PassiveVoiceRatio float64 `json:"passive_voice_ratio"`
	JargonDensity     float64 `json:"jargon_density"`
	QuestionCount     int     `json:"question_count"`
	ParagraphCount    int     `json:"paragraph_count"`
}

// NLPResult is the combined outcome of one NLP orchestrator run.
type NLPResult struct {
	Sentiment   Sentiment          `json:"sentiment"`
	Entities    []Entity           `json:"entities"`
	Summary     string             `json:"summary"`
	Topics      []string           `json:"topics"`
	Keywords    []Keyword          `json:"keywords"`
	Readability ReadabilityMetrics `json:"readability"`
}
