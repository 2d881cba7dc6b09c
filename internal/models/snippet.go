package models

// Snippet pairs a retrieved section with the similarity score it earned
// against a query. Snippets are ephemeral: produced by the retrieval engine,
// consumed immediately by callers, never persisted or mutated.
type Snippet struct {
	Section *Section `json:"section"`
	Score   float64  `json:"score"`
	Query   string   `json:"query"`
}

// InsightBundle holds four independent lists of generated observations.
// Any list may be empty; a missing category in the model output degrades to
// an empty list rather than failing the whole call.
type InsightBundle struct {
	Contradictions           []string `json:"contradictions"`
	AlternateApplications    []string `json:"alternate_applications"`
	ContextualNotes          []string `json:"contextual_notes"`
	CrossDocumentConnections []string `json:"cross_document_connections"`
}

// Empty reports whether no category produced any entries.
func (b *InsightBundle) Empty() bool {
	return len(b.Contradictions) == 0 &&
		len(b.AlternateApplications) == 0 &&
		len(b.ContextualNotes) == 0 &&
		len(b.CrossDocumentConnections) == 0
}
