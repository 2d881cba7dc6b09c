package mindmap

import (
	"encoding/xml"
	"fmt"
	"strings"

	"doclens/internal/models"
)

// FreeMind document model. Only the attributes the desktop tools rely on are
// represented; unknown attributes survive a decode as zero values.
type fmMap struct {
	XMLName xml.Name `xml:"map"`
	Version string   `xml:"version,attr"`
	Root    fmNode   `xml:"node"`
}

type fmNode struct {
	Text     string   `xml:"TEXT,attr"`
	Position string   `xml:"POSITION,attr,omitempty"`
	Folded   string   `xml:"FOLDED,attr,omitempty"`
	Children []fmNode `xml:"node"`
}

// encodeFreeMind renders the mindmap as a FreeMind .mm document. Each section
// node carries its phrases as leaf children plus one folded preview child.
func encodeFreeMind(m *models.Mindmap) string {
	root := fmNode{Text: m.RootTitle}
	for i, node := range m.Nodes {
		position := "right"
		if i%2 == 1 {
			position = "left"
		}
		child := fmNode{Text: node.Title, Position: position}
		for _, phrase := range node.Phrases {
			child.Children = append(child.Children, fmNode{Text: phrase})
		}
		if node.Preview != "" {
			child.Children = append(child.Children, fmNode{Text: node.Preview, Folded: "true"})
		}
		root.Children = append(root.Children, child)
	}

	doc := fmMap{Version: "1.0.1", Root: root}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Marshal of this static shape cannot fail; keep the formats in sync
		// anyway by returning an empty map rather than panicking.
		return `<map version="1.0.1"></map>`
	}
	return xml.Header + string(out)
}

// ParseFreeMind decodes a FreeMind document back into a mindmap. The folded
// preview child is recognized by its FOLDED attribute; every other leaf is a
// phrase.
func ParseFreeMind(data []byte) (*models.Mindmap, error) {
	var doc fmMap
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid freemind document: %w", err)
	}
	if strings.TrimSpace(doc.Root.Text) == "" {
		return nil, fmt.Errorf("freemind document has no root node")
	}

	m := &models.Mindmap{RootTitle: doc.Root.Text}
	for _, section := range doc.Root.Children {
		node := models.MindmapNode{Title: section.Text, Phrases: []string{}}
		for _, leaf := range section.Children {
			if leaf.Folded == "true" {
				node.Preview = leaf.Text
				continue
			}
			node.Phrases = append(node.Phrases, leaf.Text)
		}
		m.Nodes = append(m.Nodes, node)
	}
	m.SectionsCount = len(m.Nodes)
	return m, nil
}
