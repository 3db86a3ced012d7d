// Package summarizer produces the short corpus summary shown after ingest.
package summarizer

import (
	"math"
	"sort"
	"strings"

	"ragchat/internal/text"
)

// FrequencySummarizer ranks sentences by normalized token frequency,
// stopwords filtered, and keeps the top sentences in document order.
type FrequencySummarizer struct{}

func NewFrequencySummarizer() *FrequencySummarizer { return &FrequencySummarizer{} }

func (s *FrequencySummarizer) Summarize(input string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := text.SplitSentences(input)
	if len(sentences) == 0 {
		return "", nil
	}
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range contentTokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sent := range sentences {
		tokens := contentTokens(sent)
		score := 0.0
		for _, tok := range tokens {
			score += freq[tok]
		}
		// dampen long-sentence bias
		if n := float64(len(tokens)); n > 0 {
			score /= math.Sqrt(n)
		}
		scores[i] = ranked{i, score}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func contentTokens(s string) []string {
	raw := text.Tokenize(s)
	out := raw[:0]
	for _, t := range raw {
		if text.IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
