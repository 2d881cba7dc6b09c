package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"doclens/internal/models"
	"doclens/pkg/logger"
)

// Extractor parses raw PDF bytes into an ordered list of titled sections.
// Extraction is a single linear pass over the text; documents with hundreds
// of sections still complete in O(total characters).
type Extractor struct {
	sectionCap int
	log        *logger.Logger
}

// New creates an Extractor. sectionCap bounds the number of sections a
// single document may produce; past the cap, text accumulates into the last
// section instead of opening new ones.
func New(sectionCap int, log *logger.Logger) *Extractor {
	if sectionCap <= 0 {
		sectionCap = 500
	}
	return &Extractor{sectionCap: sectionCap, log: log}
}

type pageText struct {
	page  int
	lines []string
}

// Extract reads a PDF and returns its sections in document order.
// Returns models.ErrNoTextLayer when no text is recoverable (scanned or
// malformed PDFs), never a silent empty result.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64, filename string) (sections []models.Section, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			sections = nil
			err = fmt.Errorf("%w: %v", models.ErrNoTextLayer, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNoTextLayer, err)
	}

	var pages []pageText
	total := 0
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			e.log.WithError(err).Warn(fmt.Sprintf("Skipping unreadable page %d of %s", i, filename))
			continue
		}
		lines := splitLines(text)
		total += len(lines)
		pages = append(pages, pageText{page: i, lines: lines})
	}
	if total == 0 {
		return nil, models.ErrNoTextLayer
	}

	sections = e.sectionize(pages, fallbackTitle(filename))
	if len(sections) == 0 {
		return nil, models.ErrNoTextLayer
	}
	return sections, nil
}

// ExtractText sectionizes pre-extracted plain text. Used by the raw-text
// mindmap path, where the caller already holds the document body.
func (e *Extractor) ExtractText(text, title string) []models.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pages := []pageText{{page: 1, lines: splitLines(text)}}
	return e.sectionize(pages, title)
}

// sectionize walks the page lines once, opening a new section at each
// detected heading and accumulating everything else into the current body.
// Headings closer than two lines apart collapse into the first one.
func (e *Extractor) sectionize(pages []pageText, fallback string) []models.Section {
	var sections []models.Section
	var body []string

	currentTitle := ""
	currentPage := 1
	lastHeadingAt := -10
	lineNo := 0

	flush := func() {
		text := strings.Join(body, " ")
		if strings.TrimSpace(text) == "" && currentTitle == "" {
			body = body[:0]
			return
		}
		title := currentTitle
		if title == "" {
			title = fmt.Sprintf("Section %d", len(sections)+1)
		}
		sections = append(sections, models.Section{
			Ordinal:   len(sections),
			Title:     title,
			Text:      text,
			Page:      currentPage,
			WordCount: countWords(text),
		})
		body = body[:0]
	}

	for _, pg := range pages {
		for _, raw := range pg.lines {
			line := normalizeLine(raw)
			if line == "" {
				lineNo++
				continue
			}
			// len(sections)+1 counts the section currently open.
			if isHeading(line) && lineNo-lastHeadingAt >= 2 && len(sections)+1 < e.sectionCap {
				if len(body) > 0 || currentTitle != "" {
					flush()
				}
				currentTitle = line
				currentPage = pg.page
				lastHeadingAt = lineNo
			} else {
				body = append(body, line)
			}
			lineNo++
		}
	}
	if len(body) > 0 || currentTitle != "" {
		flush()
	}

	// No boundaries detected: the whole document is one section titled
	// from the filename.
	if len(sections) == 1 && sections[0].Title == "Section 1" {
		sections[0].Title = fallback
	}
	return sections
}

func fallbackTitle(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "Document"
	}
	return base
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
