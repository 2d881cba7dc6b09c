package tts

import (
	"context"
	"strings"
)

// Synthesizer converts one piece of text spoken by one voice into WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// SplitText breaks text into chunks of at most maxChars, preferring sentence
// boundaries and falling back to word boundaries for oversized sentences.
// Synthesis backends reject payloads past their limit, so every chunk must
// stay under it.
func SplitText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range splitSentences(text) {
		if len(sentence) > maxChars {
			flush()
			chunks = append(chunks, splitWords(sentence, maxChars)...)
			continue
		}
		if current.Len()+len(sentence)+1 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()
	return chunks
}

// splitSentences cuts at terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && (text[i+1] == ' ' || text[i+1] == '\n') {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func splitWords(sentence string, maxChars int) []string {
	var chunks []string
	var current strings.Builder
	for _, word := range strings.Fields(sentence) {
		if current.Len()+len(word)+1 > maxChars && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
