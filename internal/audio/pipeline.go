package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"doclens/internal/artifact"
	"doclens/internal/models"
	"doclens/internal/tts"
	"doclens/pkg/logger"
)

// Pipeline turns scripts into cached audio artifacts. Requests are
// deduplicated two ways: the content-hash cache makes repeats free, and a
// singleflight group collapses concurrent identical requests into one
// synthesis.
type Pipeline struct {
	synth    tts.Synthesizer
	store    *artifact.Store
	group    singleflight.Group
	maxChars int
	log      *logger.Logger
}

// NewPipeline creates an audio pipeline. maxChars bounds text per synthesis
// call; longer turns are split at sentence boundaries.
func NewPipeline(synth tts.Synthesizer, store *artifact.Store, maxChars int, log *logger.Logger) *Pipeline {
	if maxChars <= 0 {
		maxChars = 3000
	}
	return &Pipeline{synth: synth, store: store, maxChars: maxChars, log: log}
}

// ContentHash derives the dedupe key from the normalized script and the
// canonical voice config. Whitespace-only differences between scripts hash
// identically.
func ContentHash(script models.Script, voices models.VoiceConfig) string {
	h := sha256.New()
	for _, turn := range script.Turns {
		h.Write([]byte(turn.Role))
		h.Write([]byte{0x1f})
		h.Write([]byte(strings.Join(strings.Fields(turn.Text), " ")))
		h.Write([]byte{0x1e})
	}
	fmt.Fprintf(h, "%s|%s|%s", voices.Language, voices.HostVoice, voices.GuestVoice)
	return hex.EncodeToString(h.Sum(nil))
}

// Synthesize returns the artifact for (script, voices), synthesizing at most
// once per content hash regardless of how many callers race. A cache hit
// costs zero synthesis calls. Any failed segment aborts the whole artifact
// with a *models.PartialSynthesisError; nothing partial is ever stored.
func (p *Pipeline) Synthesize(ctx context.Context, script models.Script, voices models.VoiceConfig) (*models.AudioArtifact, error) {
	if len(script.Turns) == 0 {
		return nil, fmt.Errorf("script has no turns")
	}
	hash := ContentHash(script, voices)

	if art, err := p.store.ByHash(ctx, hash); err == nil {
		p.log.WithField("hash", hash).Debug("Audio cache hit")
		return art, nil
	} else if !errors.Is(err, models.ErrArtifactNotFound) {
		return nil, err
	}

	// The flight is shared by every coalesced caller, so it must not die with
	// the one that happened to start it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(hash, func() (interface{}, error) {
		// A coalesced caller may arrive after the winner stored the artifact.
		if art, err := p.store.ByHash(flightCtx, hash); err == nil {
			return art, nil
		}
		return p.synthesize(flightCtx, script, voices, hash)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AudioArtifact), nil
}

func (p *Pipeline) synthesize(ctx context.Context, script models.Script, voices models.VoiceConfig, hash string) (*models.AudioArtifact, error) {
	var chunks []struct {
		voice string
		text  string
	}
	for _, turn := range script.Turns {
		for _, part := range tts.SplitText(turn.Text, p.maxChars) {
			chunks = append(chunks, struct {
				voice string
				text  string
			}{voices.Voice(turn.Role), part})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("script has no speakable text")
	}

	segments := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		data, err := p.synth.Synthesize(ctx, chunk.text, chunk.voice)
		if err != nil {
			return nil, &models.PartialSynthesisError{Segment: i, Total: len(chunks), Err: err}
		}
		segments = append(segments, data)
	}

	merged, duration, err := mergeSegments(segments)
	if err != nil {
		return nil, fmt.Errorf("failed to merge segments: %w", err)
	}

	art := &models.AudioArtifact{
		ID:           uuid.NewString(),
		ContentHash:  hash,
		Voices:       voices,
		Data:         merged,
		Duration:     duration,
		SegmentCount: len(segments),
		CreatedAt:    time.Now().UTC(),
	}

	// First successful writer wins: if another instance stored this hash
	// while we synthesized, keep theirs and discard ours.
	if existing, err := p.store.ByHash(ctx, hash); err == nil {
		return existing, nil
	}
	if err := p.store.Save(ctx, art); err != nil {
		return nil, err
	}

	p.log.WithPayload(map[string]interface{}{
		"hash":     hash,
		"segments": len(segments),
		"duration": duration.String(),
	}).Info("Synthesized audio artifact")
	return art, nil
}
