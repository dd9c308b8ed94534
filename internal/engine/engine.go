// Package engine defines the speech-to-text engine boundary and the gateway
// that serializes access to a single shared engine instance.
package engine

import (
	"context"

	"github.com/snarg/whisper-serve/internal/audio"
)

// Request carries one fully assembled transcription call. Optional string
// fields use "" for absent; Temperature uses nil so an unset value is
// distinguishable from 0.
type Request struct {
	Audio         audio.Buffer // must be mono at audio.TargetRate
	Language      string
	InitialPrompt string
	Temperature   *float64

	// Engine flags sourced from configuration, not the HTTP request.
	ConditionOnPreviousText bool
	VadFilter               bool
}

// Segment is one contiguous span of transcribed text. Segments are emitted
// in order; concatenating their text yields the transcript.
type Segment struct {
	Text  string
	Start float64 // seconds
	End   float64 // seconds
}

// Info is per-call metadata reported alongside the segments.
type Info struct {
	Language string
	Duration float64 // audio duration in seconds
}

// Engine is the interface for speech-to-text backends. Implementations are
// NOT required to be safe for concurrent use; the Gateway serializes calls.
type Engine interface {
	Transcribe(ctx context.Context, req Request) ([]Segment, Info, error)
}
