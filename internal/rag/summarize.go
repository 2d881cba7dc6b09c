package rag

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"doclens/internal/keyphrase"
	"doclens/internal/models"
)

// SummarySize selects how much material a summary should carry.
type SummarySize string

const (
	SizeSmall  SummarySize = "small"
	SizeMedium SummarySize = "medium"
	SizeLarge  SummarySize = "large"
)

var summaryTargetWords = map[SummarySize]int{
	SizeSmall:  150,
	SizeMedium: 300,
	SizeLarge:  500,
}

var summaryWordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9\-]+`)

// Summarizer produces extractive summaries by frequency-scoring sentences.
// No model call involved, so it is cheap enough to run during ingestion.
type Summarizer struct {
	stopwords map[string]struct{}
}

func NewSummarizer() *Summarizer {
	return &Summarizer{stopwords: keyphrase.Stopwords()}
}

// Summarize scores each sentence by its stopword-filtered word frequencies
// (normalized by the most frequent word, dampened by sentence length) and
// keeps the best until the size target is met. Selected sentences come back
// in their original document order.
func (s *Summarizer) Summarize(sections []models.Section, size SummarySize) string {
	target, ok := summaryTargetWords[size]
	if !ok {
		target = summaryTargetWords[SizeMedium]
	}

	type scored struct {
		pos   int
		text  string
		score float64
		words int
	}

	var sentences []scored
	freq := make(map[string]float64)

	for _, sec := range sections {
		for _, raw := range sentencePattern.FindAllString(sec.Text, -1) {
			sentence := strings.TrimSpace(raw)
			if sentence == "" {
				continue
			}
			words := summaryWordPattern.FindAllString(strings.ToLower(sentence), -1)
			for _, w := range words {
				if _, stop := s.stopwords[w]; stop {
					continue
				}
				freq[w]++
			}
			sentences = append(sentences, scored{
				pos:   len(sentences),
				text:  sentence,
				words: len(words),
			})
		}
	}
	if len(sentences) == 0 {
		return ""
	}

	var maxFreq float64
	for _, f := range freq {
		if f > maxFreq {
			maxFreq = f
		}
	}
	if maxFreq == 0 {
		maxFreq = 1
	}

	for i := range sentences {
		words := summaryWordPattern.FindAllString(strings.ToLower(sentences[i].text), -1)
		var sum float64
		for _, w := range words {
			if _, stop := s.stopwords[w]; stop {
				continue
			}
			sum += freq[w] / maxFreq
		}
		// Dampen by length so long sentences do not win on bulk alone.
		sentences[i].score = sum / math.Sqrt(float64(len(words)+1))
	}

	ranked := make([]scored, len(sentences))
	copy(ranked, sentences)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	chosen := make(map[int]bool)
	budget := target
	for _, sc := range ranked {
		if budget <= 0 {
			break
		}
		chosen[sc.pos] = true
		budget -= sc.words
	}

	var out []string
	for _, sc := range sentences {
		if chosen[sc.pos] {
			out = append(out, sc.text)
		}
	}
	return strings.Join(out, " ")
}
