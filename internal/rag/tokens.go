package rag

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter measures prompt context cost. The real encoder needs its BPE
// table fetched once; when that is unavailable we fall back to a rune-based
// approximation so the budget still bounds the context.
type tokenCounter interface {
	Count(text string) int
}

func newTokenCounter() tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return approxCounter{}
	}
	return &tiktokenCounter{enc: enc}
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// approxCounter estimates ~4 characters per token, the usual rule of thumb
// for English prose.
type approxCounter struct{}

func (approxCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return n/4 + 1
}
