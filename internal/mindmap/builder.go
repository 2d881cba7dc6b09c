package mindmap

import (
	"sort"
	"strings"

	"doclens/internal/keyphrase"
	"doclens/internal/models"
	"doclens/pkg/logger"
)

const previewChars = 120

// Builder turns a document's sections into a two-level mindmap: the document
// title at the root, one child per selected section, keyphrases beneath each.
type Builder struct {
	phrases           *keyphrase.Extractor
	maxSections       int
	phrasesPerSection int
	log               *logger.Logger
}

// NewBuilder creates a mindmap builder. maxSections caps how many sections
// make it into the map, phrasesPerSection how many phrases each node carries.
func NewBuilder(maxSections, phrasesPerSection int, log *logger.Logger) *Builder {
	if maxSections <= 0 {
		maxSections = 12
	}
	if phrasesPerSection <= 0 {
		phrasesPerSection = 6
	}
	return &Builder{
		phrases:           keyphrase.New(),
		maxSections:       maxSections,
		phrasesPerSection: phrasesPerSection,
		log:               log,
	}
}

// Build selects the most informative sections, extracts their keyphrases,
// and renders both serialized formats. Selection is by informativeness score
// with ties going to the earlier section; survivors keep document order.
func (b *Builder) Build(rootTitle string, sections []models.Section) *models.Mindmap {
	phrases := b.phrases.Phrases(sections, b.phrasesPerSection)
	selected := b.selectSections(sections, phrases)

	nodes := make([]models.MindmapNode, 0, len(selected))
	for _, i := range selected {
		nodes = append(nodes, models.MindmapNode{
			Title:   cleanLabel(sections[i].Title),
			Phrases: phrases[i],
			Preview: preview(sections[i].Text),
		})
	}

	m := &models.Mindmap{
		RootTitle:     cleanLabel(rootTitle),
		SectionsCount: len(nodes),
		Nodes:         nodes,
	}
	m.FreeMind = encodeFreeMind(m)
	m.Mermaid = encodeMermaid(m)

	b.log.WithPayload(map[string]interface{}{
		"sections": len(sections),
		"selected": len(nodes),
	}).Info("Built mindmap")
	return m
}

// selectSections ranks sections by text length weighted by how many distinct
// high-weight phrases the section yielded, keeps the top maxSections, and
// returns their indices in original order.
func (b *Builder) selectSections(sections []models.Section, phrases [][]string) []int {
	if len(sections) <= b.maxSections {
		all := make([]int, len(sections))
		for i := range all {
			all[i] = i
		}
		return all
	}

	type ranked struct {
		idx   int
		score int
	}
	order := make([]ranked, len(sections))
	for i, sec := range sections {
		distinct := make(map[string]struct{}, len(phrases[i]))
		for _, p := range phrases[i] {
			distinct[p] = struct{}{}
		}
		order[i] = ranked{idx: i, score: len(sec.Text) * (1 + len(distinct))}
	}
	sort.SliceStable(order, func(a, b int) bool {
		if order[a].score != order[b].score {
			return order[a].score > order[b].score
		}
		return order[a].idx < order[b].idx
	})

	keep := make([]int, 0, b.maxSections)
	for _, r := range order[:b.maxSections] {
		keep = append(keep, r.idx)
	}
	sort.Ints(keep)
	return keep
}

// cleanLabel collapses whitespace so node text is a single line. Newlines
// would break the line-oriented Mermaid rendering while surviving XML, and
// the two formats must parse back to the same tree.
func cleanLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return strings.TrimSpace(string(runes[:previewChars])) + "..."
}
