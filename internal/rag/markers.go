package rag

import (
	"regexp"
	"strings"

	"doclens/internal/models"
)

// Discourse markers that flag tension or an alternative framing in prose.
// Mining them is the offline fallback when the model gives no parseable
// insight JSON.
var (
	contradictionMarkers = []string{
		"however", "but", "although", "nevertheless", "on the contrary",
		"in contrast", "conversely", "despite", "whereas", "contradicts",
	}
	viewpointMarkers = []string{
		"alternatively", "another perspective", "some argue", "others believe",
		"on the other hand", "a different view", "critics suggest", "proponents claim",
	}

	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

const maxMinedPerCategory = 5

// mineInsights scans the passage and retrieved snippets for marker-bearing
// sentences and buckets them. Purely lexical, so it works with no model at
// all.
func mineInsights(text string, snippets []models.Snippet) models.InsightBundle {
	corpus := []string{text}
	for _, sn := range snippets {
		corpus = append(corpus, sn.Section.Text)
	}

	bundle := models.InsightBundle{
		Contradictions:           []string{},
		AlternateApplications:    []string{},
		ContextualNotes:          []string{},
		CrossDocumentConnections: []string{},
	}
	seen := make(map[string]bool)

	for _, body := range corpus {
		for _, raw := range sentencePattern.FindAllString(body, -1) {
			sentence := strings.TrimSpace(raw)
			if sentence == "" || seen[sentence] {
				continue
			}
			lower := strings.ToLower(sentence)
			switch {
			case hasMarker(lower, contradictionMarkers):
				if len(bundle.Contradictions) < maxMinedPerCategory {
					bundle.Contradictions = append(bundle.Contradictions, sentence)
					seen[sentence] = true
				}
			case hasMarker(lower, viewpointMarkers):
				if len(bundle.AlternateApplications) < maxMinedPerCategory {
					bundle.AlternateApplications = append(bundle.AlternateApplications, sentence)
					seen[sentence] = true
				}
			}
		}
	}
	return bundle
}

// hasMarker checks for a marker as a whole word (single-word markers would
// otherwise match inside words like "distribution").
func hasMarker(sentence string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(m, " ") {
			if strings.Contains(sentence, m) {
				return true
			}
			continue
		}
		for _, word := range strings.FieldsFunc(sentence, func(r rune) bool {
			return !('a' <= r && r <= 'z')
		}) {
			if word == m {
				return true
			}
		}
	}
	return false
}
