// Package whispercpp implements engine.Engine on the whisper.cpp Go
// bindings. The model is loaded once at startup; contexts are created per
// call and the shared model state makes the engine unsafe for concurrent
// use, which is why callers go through engine.Gateway.
package whispercpp

import (
	"context"
	"fmt"
	"io"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/snarg/whisper-serve/internal/engine"
)

type Engine struct {
	model whisper.Model
	log   zerolog.Logger
}

// Load reads a ggml model from disk. Close must be called to release it.
func Load(modelPath string, log zerolog.Logger) (*Engine, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", modelPath, err)
	}
	log.Info().Str("model", modelPath).Msg("whisper model loaded")
	return &Engine{model: model, log: log}, nil
}

// Close releases the model.
func (e *Engine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

// Transcribe runs the model over mono 16 kHz float32 samples and returns the
// emitted segments in order. The underlying Process call is not
// interruptible, so ctx is only consulted up front.
func (e *Engine) Transcribe(ctx context.Context, req engine.Request) ([]engine.Segment, engine.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, engine.Info{}, err
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("create context: %w", err)
	}

	if req.Language != "" {
		if err := wctx.SetLanguage(req.Language); err != nil {
			return nil, engine.Info{}, fmt.Errorf("set language %q: %w", req.Language, err)
		}
	}
	if req.InitialPrompt != "" {
		wctx.SetInitialPrompt(req.InitialPrompt)
	}
	if req.Temperature != nil {
		wctx.SetTemperature(float32(*req.Temperature))
	}
	if !req.ConditionOnPreviousText {
		// A zero text-context window stops the decoder from conditioning on
		// previously emitted text.
		wctx.SetMaxContext(0)
	}
	// req.VadFilter: the bindings expose no VAD toggle; the flag is accepted
	// and ignored by this engine.

	if err := wctx.Process(req.Audio.Samples, nil, nil, nil); err != nil {
		return nil, engine.Info{}, fmt.Errorf("process: %w", err)
	}

	var segments []engine.Segment
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, engine.Info{}, fmt.Errorf("next segment: %w", err)
		}
		segments = append(segments, engine.Segment{
			Text:  seg.Text,
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
		})
	}

	info := engine.Info{
		Language: req.Language,
		Duration: req.Audio.Duration(),
	}
	return segments, info, nil
}
