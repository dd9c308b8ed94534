package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/whisper-serve/internal/audio"
)

// ErrUnavailable is returned when no engine is loaded.
var ErrUnavailable = errors.New("transcription engine not available")

// Result is an assembled transcript.
type Result struct {
	Text     string
	Language string
	Duration float64
}

// Stats reports gateway counters.
type Stats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Gateway dispatches requests to the single shared engine. The underlying
// model runtime is stateful and not reentrant, so at most one transcription
// is in flight at a time; the lock covers only the engine call, never body
// reading or audio decoding.
type Gateway struct {
	mu  sync.Mutex
	eng Engine
	log zerolog.Logger

	completed atomic.Int64
	failed    atomic.Int64
}

// NewGateway wraps an engine. A nil engine is valid: the gateway stays up
// and reports ErrUnavailable per call, so the server can run without a model
// loaded.
func NewGateway(eng Engine, log zerolog.Logger) *Gateway {
	return &Gateway{eng: eng, log: log}
}

// Ready reports whether an engine is loaded.
func (g *Gateway) Ready() bool {
	return g != nil && g.eng != nil
}

// Stats returns completion counters.
func (g *Gateway) Stats() Stats {
	return Stats{Completed: g.completed.Load(), Failed: g.failed.Load()}
}

// Invoke runs one transcription. The request context is checked before the
// engine call; the call itself is not interruptible mid-flight and carries
// no deadline. Segments are joined in emission order and the joined text is
// trimmed of surrounding whitespace.
func (g *Gateway) Invoke(ctx context.Context, req Request) (Result, error) {
	if !g.Ready() {
		return Result{}, ErrUnavailable
	}
	if len(req.Audio.Samples) == 0 {
		return Result{}, fmt.Errorf("empty audio buffer")
	}
	if req.Audio.Rate != audio.TargetRate {
		return Result{}, fmt.Errorf("audio rate %d, engine requires %d", req.Audio.Rate, audio.TargetRate)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	g.log.Info().
		Float64("audio_seconds", req.Audio.Duration()).
		Str("language", req.Language).
		Msg("transcribing")

	start := time.Now()

	g.mu.Lock()
	segments, info, err := g.eng.Transcribe(ctx, req)
	g.mu.Unlock()

	if err != nil {
		g.failed.Add(1)
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Text)
	}
	text := strings.TrimSpace(b.String())

	duration := info.Duration
	if duration == 0 {
		duration = req.Audio.Duration()
	}

	g.completed.Add(1)
	g.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("segments", len(segments)).
		Msg("transcription completed")

	return Result{Text: text, Language: info.Language, Duration: duration}, nil
}
