package models

// MindmapNode is one section-derived branch of a mindmap: the section title
// plus its highest-weight keyphrases and a short text preview.
type MindmapNode struct {
	Title   string   `json:"title"`
	Phrases []string `json:"phrases"`
	Preview string   `json:"content_preview,omitempty"`
}

// Mindmap is a bounded-depth hierarchy derived from a document's sections.
// FreeMind and Mermaid are two renderings of the same node tree; re-parsing
// either yields the same (title, phrase-set) list.
type Mindmap struct {
	RootTitle     string        `json:"root_title"`
	SectionsCount int           `json:"sections_count"`
	Nodes         []MindmapNode `json:"sections"`
	FreeMind      string        `json:"freemind"`
	Mermaid       string        `json:"mermaid"`
}
