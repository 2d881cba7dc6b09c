package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doclens/internal/artifact"
	"doclens/internal/models"
	"doclens/pkg/logger"
)

var testFormat = wavFormat{channels: 1, sampleRate: 16000, bitsPerSample: 16}

// fakeSynth returns a short valid WAV per call and counts invocations.
type fakeSynth struct {
	calls   int64
	failAt  int64 // 1-based call number that fails; 0 disables
	latency time.Duration
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	n := atomic.AddInt64(&f.calls, 1)
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	if f.failAt > 0 && n == f.failAt {
		return nil, fmt.Errorf("synthesis backend unavailable")
	}
	pcm := make([]byte, 320) // 10ms at 16kHz mono 16-bit
	return encodeWAV(testFormat, pcm), nil
}

func testPipeline(t *testing.T, synth *fakeSynth) *Pipeline {
	t.Helper()
	blobs, err := artifact.NewFSStore(t.TempDir())
	require.NoError(t, err)
	store := artifact.NewStore(blobs, artifact.NewMemoryCache(), logger.New("artifact"))
	return NewPipeline(synth, store, 3000, logger.New("audio"))
}

func twoTurnScript() models.Script {
	return models.Script{Turns: []models.ScriptTurn{
		{Role: models.RoleHost, Text: "Welcome to the show."},
		{Role: models.RoleGuest, Text: "Happy to be here."},
	}}
}

func TestMergeSegmentsAddsPauses(t *testing.T) {
	seg := encodeWAV(testFormat, make([]byte, 3200)) // 100ms
	merged, duration, err := mergeSegments([][]byte{seg, seg})
	require.NoError(t, err)

	f, pcm, err := decodeWAV(merged)
	require.NoError(t, err)
	assert.Equal(t, testFormat, f)

	// 500ms lead-in + 100ms + 300ms pause + 100ms
	want := 1000 * time.Millisecond
	assert.InDelta(t, float64(want), float64(duration), float64(5*time.Millisecond))
	assert.Equal(t, int(float64(f.byteRate())*want.Seconds()), len(pcm))
}

func TestMergeSegmentsRejectsMixedFormats(t *testing.T) {
	a := encodeWAV(testFormat, make([]byte, 320))
	b := encodeWAV(wavFormat{channels: 2, sampleRate: 16000, bitsPerSample: 16}, make([]byte, 320))
	_, _, err := mergeSegments([][]byte{a, b})
	assert.Error(t, err)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := decodeWAV([]byte("definitely not audio"))
	assert.Error(t, err)
}

func TestMergeSegmentsRejectsZeroFormat(t *testing.T) {
	// A backend handing back a fmt chunk with zero channels or zero bit
	// depth must surface as an error, not a divide-by-zero panic.
	broken := encodeWAV(wavFormat{}, make([]byte, 320))
	_, _, err := mergeSegments([][]byte{broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 0")

	_, _, err = decodeWAV(encodeWAV(wavFormat{channels: 1, bitsPerSample: 16}, nil))
	assert.Error(t, err, "zero sample rate is rejected too")
}

func TestSynthesizeCachesByContent(t *testing.T) {
	synth := &fakeSynth{}
	p := testPipeline(t, synth)
	ctx := context.Background()

	first, err := p.Synthesize(ctx, twoTurnScript(), models.DefaultVoiceConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, first.SegmentCount)
	assert.EqualValues(t, 2, atomic.LoadInt64(&synth.calls))

	// Identical request: zero further synthesis calls, same artifact.
	second, err := p.Synthesize(ctx, twoTurnScript(), models.DefaultVoiceConfig())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&synth.calls))
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.Data, second.Data)
}

func TestSynthesizeCoalescesConcurrentRequests(t *testing.T) {
	synth := &fakeSynth{latency: 20 * time.Millisecond}
	p := testPipeline(t, synth)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*models.AudioArtifact, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Synthesize(context.Background(), twoTurnScript(), models.DefaultVoiceConfig())
		}(i)
	}
	wg.Wait()
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}

	assert.EqualValues(t, 2, atomic.LoadInt64(&synth.calls),
		"concurrent identical requests must share one synthesis")
	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0].ContentHash, results[i].ContentHash)
	}
}

func TestSynthesizeAbortsOnSegmentFailure(t *testing.T) {
	synth := &fakeSynth{failAt: 2}
	p := testPipeline(t, synth)
	ctx := context.Background()

	_, err := p.Synthesize(ctx, twoTurnScript(), models.DefaultVoiceConfig())
	require.Error(t, err)

	var partial *models.PartialSynthesisError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 1, partial.Segment)
	assert.Equal(t, 2, partial.Total)

	// Nothing partial was stored: a retry synthesizes from scratch.
	synth.failAt = 0
	art, err := p.Synthesize(ctx, twoTurnScript(), models.DefaultVoiceConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, art.SegmentCount)
}

func TestContentHashNormalizesWhitespace(t *testing.T) {
	a := models.Script{Turns: []models.ScriptTurn{{Role: models.RoleHost, Text: "hello   there\nfriend"}}}
	b := models.Script{Turns: []models.ScriptTurn{{Role: models.RoleHost, Text: "hello there friend"}}}
	voices := models.DefaultVoiceConfig()
	assert.Equal(t, ContentHash(a, voices), ContentHash(b, voices))

	other := voices
	other.GuestVoice = "en-US-AriaNeural"
	assert.NotEqual(t, ContentHash(a, voices), ContentHash(a, other))
}

func TestContentHashDistinguishesSpeakers(t *testing.T) {
	a := models.Script{Turns: []models.ScriptTurn{{Role: models.RoleHost, Text: "same line"}}}
	b := models.Script{Turns: []models.ScriptTurn{{Role: models.RoleGuest, Text: "same line"}}}
	voices := models.DefaultVoiceConfig()
	assert.NotEqual(t, ContentHash(a, voices), ContentHash(b, voices))
}
