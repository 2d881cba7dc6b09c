package keyphrase

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"doclens/internal/models"
)

// Extractor computes per-section salient phrases with a TF-IDF scheme:
// term weight is frequency within the section scaled inversely by frequency
// across all sections of the corpus. Phrases are unigrams through trigrams.
type Extractor struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
	maxNgram     int
}

// New creates a keyphrase extractor with the default English stop-word set.
func New() *Extractor {
	return &Extractor{
		// words with letters and numbers, no single letters
		tokenPattern: regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9\-]+`),
		stopwords:    defaultStopwords(),
		maxNgram:     3,
	}
}

// Phrases returns the top perSection phrases for each section, parallel to
// the input slice. Deterministic: ties break by term, ascending.
func (e *Extractor) Phrases(sections []models.Section, perSection int) [][]string {
	if perSection <= 0 {
		perSection = 6
	}

	termsPerSection := make([]map[string]int, len(sections))
	totals := make([]int, len(sections))
	df := make(map[string]int)

	for i, sec := range sections {
		counts := e.ngramCounts(sec.Text)
		termsPerSection[i] = counts
		for term, n := range counts {
			totals[i] += n
			df[term]++
		}
	}

	n := float64(len(sections))
	out := make([][]string, len(sections))
	for i := range sections {
		counts := termsPerSection[i]
		if totals[i] == 0 {
			out[i] = []string{}
			continue
		}

		type scored struct {
			term   string
			weight float64
		}
		ranked := make([]scored, 0, len(counts))
		for term, count := range counts {
			tf := float64(count) / float64(totals[i])
			// smoothed IDF
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1.0
			ranked = append(ranked, scored{term: term, weight: tf * idf})
		}
		sort.Slice(ranked, func(a, b int) bool {
			if ranked[a].weight != ranked[b].weight {
				return ranked[a].weight > ranked[b].weight
			}
			return ranked[a].term < ranked[b].term
		})

		phrases := make([]string, 0, perSection)
		for _, s := range ranked {
			phrases = append(phrases, s.term)
			if len(phrases) >= perSection {
				break
			}
		}
		out[i] = phrases
	}
	return out
}

// ngramCounts tokenizes text and counts unigrams through maxNgram-grams,
// discarding n-grams made entirely of stop words.
func (e *Extractor) ngramCounts(text string) map[string]int {
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	counts := make(map[string]int)
	for size := 1; size <= e.maxNgram; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			gram := tokens[i : i+size]
			if e.allStopwords(gram) {
				continue
			}
			counts[strings.Join(gram, " ")]++
		}
	}
	return counts
}

func (e *Extractor) allStopwords(words []string) bool {
	for _, w := range words {
		if _, ok := e.stopwords[w]; !ok {
			return false
		}
	}
	return true
}
