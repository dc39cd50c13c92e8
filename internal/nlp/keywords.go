package nlp

import (
	"sort"
	"strings"

	"github.com/webpulse/webpulse/internal/domain"
)

const maxKeywords = 10

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "of", "to", "in", "on", "at",
		"for", "with", "by", "from", "as", "is", "are", "was", "were", "be",
		"been", "it", "its", "this", "that", "these", "those", "we", "you",
		"your", "our", "their", "they", "he", "she", "his", "her", "not",
		"no", "do", "does", "did", "have", "has", "had", "will", "would",
		"can", "could", "should", "may", "more", "most", "other", "than",
		"then", "so", "if", "about", "into", "out", "up", "down", "all",
		"also", "just", "only", "very", "what", "when", "which", "who",
		"how", "there", "here",
	} {
		stopwords[w] = struct{}{}
	}
}

// ExtractKeywords performs local frequency and relevance based keyword
// extraction. Relevance favors frequent terms, boosted for longer words and
// for appearing early in the text.
func ExtractKeywords(text string) []domain.Keyword {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return nil
	}

	freq := make(map[string]int)
	firstPos := make(map[string]int)
	kept := 0
	for _, w := range words {
		if len(w) < 4 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
		if _, seen := firstPos[w]; !seen {
			firstPos[w] = kept
		}
		kept++
	}
	if len(freq) == 0 {
		return nil
	}

	maxFreq := 0
	for _, n := range freq {
		if n > maxFreq {
			maxFreq = n
		}
	}

	keywords := make([]domain.Keyword, 0, len(freq))
	for term, n := range freq {
		relevance := float64(n) / float64(maxFreq)
		if len(term) >= 8 {
			relevance *= 1.2
		}
		if kept > 0 && firstPos[term] < kept/4 {
			relevance *= 1.1
		}
		if relevance > 1 {
			relevance = 1
		}
		keywords = append(keywords, domain.Keyword{Term: term, Frequency: n, Relevance: relevance})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Relevance != keywords[j].Relevance {
			return keywords[i].Relevance > keywords[j].Relevance
		}
		return keywords[i].Term < keywords[j].Term
	})
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}
