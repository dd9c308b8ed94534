package api

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/snarg/whisper-serve/internal/engine"
)

// These tests drive the server with the stock go-openai client, the same way
// third-party tools pointed at a local base URL do.

func newCompatClient(ts *httptest.Server) *openai.Client {
	cfg := openai.DefaultConfig("unused-local-token")
	cfg.BaseURL = ts.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestOpenAIClient_CreateTranscription(t *testing.T) {
	eng := &stubEngine{segments: []engine.Segment{{Text: " all"}, {Text: " clear"}}}
	srv := newTestServer(t, eng, stubDecoder{})
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	client := newCompatClient(ts)
	resp, err := client.CreateTranscription(context.Background(), openai.AudioRequest{
		Model:    "whisper-local",
		FilePath: "clip.wav",
		Reader:   bytes.NewReader([]byte("fake-wav-bytes")),
		Language: "en",
		Prompt:   "dispatch",
	})
	if err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}
	if resp.Text != "all clear" {
		t.Errorf("Text = %q, want %q", resp.Text, "all clear")
	}

	req := eng.lastReq.Load()
	if req == nil {
		t.Fatal("engine never invoked")
	}
	if req.Language != "en" || req.InitialPrompt != "dispatch" {
		t.Errorf("language, prompt = %q, %q", req.Language, req.InitialPrompt)
	}
}

func TestOpenAIClient_ListModels(t *testing.T) {
	srv := newTestServer(t, nil, stubDecoder{})
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	models, err := newCompatClient(ts).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models.Models) != 1 {
		t.Fatalf("len(models) = %d, want 1", len(models.Models))
	}
	if models.Models[0].ID != "whisper-local" {
		t.Errorf("model id = %q", models.Models[0].ID)
	}
}

func TestOpenAIClient_ErrorSurface(t *testing.T) {
	// With no engine loaded the client should see a typed API error carrying
	// the 503 and the server's message.
	srv := newTestServer(t, nil, stubDecoder{})
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	_, err := newCompatClient(ts).CreateTranscription(context.Background(), openai.AudioRequest{
		Model:    "whisper-local",
		FilePath: "clip.wav",
		Reader:   bytes.NewReader([]byte("x")),
	})
	if err == nil {
		t.Fatal("expected error with no engine loaded")
	}
	apiErr, ok := err.(*openai.APIError)
	if !ok {
		t.Fatalf("err type = %T, want *openai.APIError", err)
	}
	if apiErr.HTTPStatusCode != 503 {
		t.Errorf("status = %d, want 503", apiErr.HTTPStatusCode)
	}
	if apiErr.Message != "Local model not available" {
		t.Errorf("message = %q", apiErr.Message)
	}
}
