package assemble

import "strings"

// WordMeasure budgets in whitespace-separated words. It is the default unit;
// callers counting real model tokens can plug in their own Measure.
type WordMeasure struct{}

func (WordMeasure) Count(text string) int {
	return len(strings.Fields(text))
}

func (WordMeasure) Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= budget {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:budget], " ")
}
