package mindmap

import (
	"fmt"
	"regexp"
	"strings"

	"doclens/internal/models"
)

var mermaidNodePattern = regexp.MustCompile(`^(\S+)\["(.*)"\]$`)
var mermaidEdgePattern = regexp.MustCompile(`^(\S+)\s*-->\s*(\S+)$`)

// A literal quote would close the label early; Mermaid reads #quot; as an
// entity, so labels survive encoding without losing characters.
var mermaidEscaper = strings.NewReplacer(`"`, "#quot;")
var mermaidUnescaper = strings.NewReplacer("#quot;", `"`)

// encodeMermaid renders the mindmap as a Mermaid flowchart. Node ids are
// positional (root, sec0, sec0_p1) so the text survives round-tripping even
// when titles collide. Every phrase is emitted; the flowchart and the
// FreeMind document parse back to the same node tree.
func encodeMermaid(m *models.Mindmap) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    root[\"%s\"]\n", mermaidEscaper.Replace(m.RootTitle)))

	for i, node := range m.Nodes {
		secID := fmt.Sprintf("sec%d", i)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", secID, mermaidEscaper.Replace(node.Title)))
		sb.WriteString(fmt.Sprintf("    root --> %s\n", secID))

		for j, phrase := range node.Phrases {
			phraseID := fmt.Sprintf("%s_p%d", secID, j)
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", phraseID, mermaidEscaper.Replace(phrase)))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", secID, phraseID))
		}
	}
	return sb.String()
}

// ParseMermaid decodes a flowchart produced by encodeMermaid. Edges define
// structure, node lines define labels; phrase order follows edge order.
func ParseMermaid(data []byte) (*models.Mindmap, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "graph TD" {
		return nil, fmt.Errorf("not a mermaid flowchart")
	}

	labels := make(map[string]string)
	var edges [][2]string
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if match := mermaidNodePattern.FindStringSubmatch(line); match != nil {
			labels[match[1]] = mermaidUnescaper.Replace(match[2])
			continue
		}
		if match := mermaidEdgePattern.FindStringSubmatch(line); match != nil {
			edges = append(edges, [2]string{match[1], match[2]})
		}
	}

	rootLabel, ok := labels["root"]
	if !ok {
		return nil, fmt.Errorf("mermaid flowchart has no root node")
	}

	m := &models.Mindmap{RootTitle: rootLabel}
	nodeBySection := make(map[string]int)
	for _, edge := range edges {
		from, to := edge[0], edge[1]
		if from == "root" {
			nodeBySection[to] = len(m.Nodes)
			m.Nodes = append(m.Nodes, models.MindmapNode{Title: labels[to], Phrases: []string{}})
			continue
		}
		if i, ok := nodeBySection[from]; ok {
			m.Nodes[i].Phrases = append(m.Nodes[i].Phrases, labels[to])
		}
	}
	m.SectionsCount = len(m.Nodes)
	return m, nil
}
