package models

import "time"

// SpeakerRole tags a script turn with the voice that reads it.
type SpeakerRole string

const (
	RoleHost  SpeakerRole = "HOST"
	RoleGuest SpeakerRole = "GUEST"
)

// ScriptTurn is one spoken turn of a generated narrative script.
type ScriptTurn struct {
	Role SpeakerRole `json:"role"`
	Text string      `json:"text"`
}

// Script is an ordered multi-voice narrative produced by the orchestrator
// and consumed by the audio pipeline. Turn order is preserved end to end.
type Script struct {
	Turns []ScriptTurn `json:"turns"`
}

// VoiceConfig selects the synthesis voices for a script. Part of the audio
// artifact's dedupe key, so two configs that differ in any field produce
// distinct artifacts.
type VoiceConfig struct {
	Language   string `json:"language" yaml:"language"`
	HostVoice  string `json:"host_voice" yaml:"hostVoice"`
	GuestVoice string `json:"guest_voice" yaml:"guestVoice"`
}

// DefaultVoiceConfig mirrors the voices the original service shipped with.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Language:   "en-US",
		HostVoice:  "en-US-JennyNeural",
		GuestVoice: "en-US-DavisNeural",
	}
}

// Voice returns the configured voice for a speaker role.
func (v VoiceConfig) Voice(role SpeakerRole) string {
	if role == RoleGuest {
		return v.GuestVoice
	}
	return v.HostVoice
}

// AudioArtifact is a generated, cacheable audio output keyed by the content
// hash of its inputs. Identical (normalized script, voice config) requests
// return the same artifact without re-synthesizing.
type AudioArtifact struct {
	ID           string        `json:"id"`
	ContentHash  string        `json:"content_hash"`
	Voices       VoiceConfig   `json:"voices"`
	Data         []byte        `json:"-"`
	Duration     time.Duration `json:"duration"`
	SegmentCount int           `json:"segment_count"`
	CreatedAt    time.Time     `json:"created_at"`
}
