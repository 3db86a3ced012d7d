// Package text holds the tokenization helpers shared by the lexical
// components: TF-IDF embedding, BM25 scoring, summarization and re-ranking.
package text

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// Tokenize lowercases the input and extracts unicode word tokens.
func Tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// TokenSet returns the set of distinct tokens in s.
func TokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// SplitSentences splits text on terminal punctuation. A text without any
// sentence terminator comes back as a single trimmed sentence.
func SplitSentences(s string) []string {
	sentences := sentenceRe.FindAllString(s, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	return sentences
}

// IsStopword reports whether the token carries no retrieval signal.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was",
		"were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than",
		"so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
