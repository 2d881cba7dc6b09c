package keyphrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doclens/internal/models"
)

func TestPhrasesRankDistinctiveTerms(t *testing.T) {
	e := New()
	sections := []models.Section{
		{Ordinal: 0, Text: "Garbage collection pauses dominate tail latency. Garbage collection tuning reduces pauses."},
		{Ordinal: 1, Text: "Connection pooling amortizes handshake cost. Pooling keeps sockets warm."},
		{Ordinal: 2, Text: "Both systems share a common configuration loader and a common deployment story."},
	}

	phrases := e.Phrases(sections, 6)
	require.Len(t, phrases, 3)

	assert.Contains(t, phrases[0], "garbage collection")
	assert.Contains(t, phrases[1], "pooling")
	for _, list := range phrases {
		assert.LessOrEqual(t, len(list), 6)
	}
}

func TestPhrasesSkipStopwordOnlyText(t *testing.T) {
	e := New()
	sections := []models.Section{{Ordinal: 0, Text: "the and of with from into"}}
	phrases := e.Phrases(sections, 6)
	require.Len(t, phrases, 1)
	assert.Empty(t, phrases[0])
}

func TestPhrasesDeterministic(t *testing.T) {
	e := New()
	sections := []models.Section{
		{Ordinal: 0, Text: "alpha beta gamma delta epsilon zeta alpha beta"},
	}
	first := e.Phrases(sections, 4)
	second := e.Phrases(sections, 4)
	assert.Equal(t, first, second, "ranking must be stable across runs")
}

func TestPhrasesRespectsPerSectionLimit(t *testing.T) {
	e := New()
	sections := []models.Section{
		{Ordinal: 0, Text: "kernel scheduler preemption quantum runqueue migration affinity balancing"},
	}
	phrases := e.Phrases(sections, 3)
	require.Len(t, phrases, 1)
	assert.Len(t, phrases[0], 3)
}

func TestStopwordsCopyIsIndependent(t *testing.T) {
	a := Stopwords()
	delete(a, "the")
	b := Stopwords()
	_, ok := b["the"]
	assert.True(t, ok, "mutating one copy must not affect another")
}
