package nlp

import (
	"regexp"
	"strings"

	"github.com/webpulse/webpulse/internal/domain"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)
	passivePhrase = regexp.MustCompile(`(?i)\b(?:is|are|was|were|be|been|being)\s+\w+(?:ed|en)\b`)
	wordPattern   = regexp.MustCompile(`[A-Za-z']+`)
)

const (
	complexWordSyllables = 3
	jargonWordLen        = 12
)

// AnalyzeReadability computes the advanced readability metric set locally,
// with no network calls.
func AnalyzeReadability(text string) domain.ReadabilityMetrics {
	var m domain.ReadabilityMetrics

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return m
	}

	for _, p := range strings.Split(trimmed, "\n\n") {
		if strings.TrimSpace(p) != "" {
			m.ParagraphCount++
		}
	}
	m.QuestionCount = strings.Count(trimmed, "?")

	sentences := sentenceSplit.Split(trimmed, -1)
	nonEmpty := 0
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			nonEmpty++
		}
	}

	words := wordPattern.FindAllString(trimmed, -1)
	if len(words) == 0 {
		return m
	}

	if nonEmpty > 0 {
		m.AvgSentenceLength = float64(len(words)) / float64(nonEmpty)
		m.PassiveVoiceRatio = float64(len(passivePhrase.FindAllString(trimmed, -1))) / float64(nonEmpty)
	}

	complexCount, jargonCount := 0, 0
	for _, w := range words {
		if syllables(w) >= complexWordSyllables {
			complexCount++
		}
		if len(w) >= jargonWordLen {
			jargonCount++
		}
	}
	m.ComplexWordRatio = float64(complexCount) / float64(len(words))
	m.JargonDensity = float64(jargonCount) / float64(len(words))

	return m
}

// ReadingGrade maps the metric set to an approximate US grade level, used by
// the content scorer.
func ReadingGrade(m domain.ReadabilityMetrics) float64 {
	// Flesch-Kincaid style blend of sentence length and word complexity.
	grade := 0.39*m.AvgSentenceLength + 29*m.ComplexWordRatio - 3
	if grade < 0 {
		return 0
	}
	return grade
}

// syllables approximates the syllable count by counting vowel groups.
func syllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
