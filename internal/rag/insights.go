package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"doclens/internal/models"
)

// minInsightChars is the floor below which a passage carries too little
// signal to analyze; such requests return an empty bundle, not an error.
const minInsightChars = 20

type insightPayload struct {
	Contradictions           []string `json:"contradictions"`
	AlternateApplications    []string `json:"alternate_applications"`
	ContextualNotes          []string `json:"contextual_notes"`
	CrossDocumentConnections []string `json:"cross_document_connections"`
}

// Insights analyzes a passage against the snippets retrieved for it and
// returns categorized findings. The model is asked for strict JSON; a reply
// that cannot be parsed falls back to keyword-mined findings so the caller
// always gets a usable bundle.
func (o *Orchestrator) Insights(ctx context.Context, text string, documentIDs ...string) (models.InsightBundle, error) {
	text = strings.TrimSpace(text)
	if len(text) < minInsightChars {
		return models.InsightBundle{}, nil
	}

	snippets, err := o.engine.Search(ctx, text, o.topK, documentIDs...)
	if err != nil {
		return models.InsightBundle{}, &models.GenerationError{Stage: "insights", Err: err}
	}

	contextBlock, _ := o.assembleContext(snippets)
	reply, err := o.llm.Generate(ctx, insightsPrompt(text, contextBlock))
	if err != nil {
		return models.InsightBundle{}, &models.GenerationError{Stage: "insights", Err: err}
	}

	bundle, ok := parseInsightReply(reply)
	if !ok {
		o.log.Warn("Insight reply was not valid JSON, falling back to keyword mining")
		bundle = mineInsights(text, snippets)
	}
	return bundle, nil
}

// parseInsightReply tolerates markdown fences and leading chatter around the
// JSON object. Missing categories come back as empty lists.
func parseInsightReply(reply string) (models.InsightBundle, bool) {
	raw := stripCodeFences(reply)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.InsightBundle{}, false
	}

	var payload insightPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return models.InsightBundle{}, false
	}
	return models.InsightBundle{
		Contradictions:           nonNil(payload.Contradictions),
		AlternateApplications:    nonNil(payload.AlternateApplications),
		ContextualNotes:          nonNil(payload.ContextualNotes),
		CrossDocumentConnections: nonNil(payload.CrossDocumentConnections),
	}, true
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func insightsPrompt(text, contextBlock string) string {
	return fmt.Sprintf(`You are a research assistant analyzing a passage against a corpus of documents.

Passage under analysis:
%q

Relevant sections from the corpus:
%s
Analyze the passage and respond with ONLY a JSON object, no prose, using exactly these keys:
{
  "contradictions": ["statements in the corpus that conflict with the passage"],
  "alternate_applications": ["different uses or viewpoints on the same idea"],
  "contextual_notes": ["background that situates the passage"],
  "cross_document_connections": ["links between this passage and other documents"]
}

Each list holds short standalone sentences. Use an empty list for a category with no findings.`, text, contextBlock)
}
