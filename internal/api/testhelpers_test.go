package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/whisper-serve/internal/audio"
	"github.com/snarg/whisper-serve/internal/config"
	"github.com/snarg/whisper-serve/internal/engine"
)

// stubEngine returns canned segments and records the requests it saw.
type stubEngine struct {
	segments []engine.Segment
	err      error
	delay    time.Duration

	inFlight   atomic.Int32
	overlapped atomic.Bool
	calls      atomic.Int32
	lastReq    atomic.Pointer[engine.Request]
}

func (s *stubEngine) Transcribe(_ context.Context, req engine.Request) ([]engine.Segment, engine.Info, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	defer s.inFlight.Add(-1)

	s.calls.Add(1)
	r := req
	s.lastReq.Store(&r)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.segments, engine.Info{Duration: req.Audio.Duration()}, s.err
}

// stubDecoder ignores the payload and returns one second of mono 16 kHz
// silence, so any bytes count as decodable audio.
type stubDecoder struct {
	err error
}

func (d stubDecoder) Decode([]byte) ([]float64, int, int, error) {
	if d.err != nil {
		return nil, 0, 0, d.err
	}
	return make([]float64, audio.TargetRate), 1, audio.TargetRate, nil
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:                "127.0.0.1:0",
		ReadTimeout:             5 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             30 * time.Second,
		MaxBodyBytes:            32 << 20,
		ModelName:               "whisper-local",
		ConditionOnPreviousText: true,
		LogLevel:                "info",
	}
}

// newTestServer wires a Server around the given engine and decoder. A nil
// eng leaves the gateway without an engine (503 path).
func newTestServer(t *testing.T, eng engine.Engine, dec audio.Decoder) *Server {
	t.Helper()
	gw := engine.NewGateway(eng, zerolog.Nop())
	return New(Options{
		Addr:      "127.0.0.1:0",
		Gateway:   gw,
		Decoder:   dec,
		Config:    testConfig(),
		Version:   "test",
		StartTime: time.Now(),
		Log:       zerolog.Nop(),
	})
}

// multipartBody builds a body with a file part plus extra text fields.
func multipartBody(t *testing.T, fileField string, fileContent []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "clip.wav")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(fileContent)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}
