package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes 16-bit PCM frames to a temp file and returns its bytes.
func writeWAV(t *testing.T, rate, channels int, frames []int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           frames,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestWAVDecoder_RoundTrip(t *testing.T) {
	// Half-amplitude square wave, mono 8 kHz.
	frames := make([]int, 800)
	for i := range frames {
		if i%2 == 0 {
			frames[i] = 16384
		} else {
			frames[i] = -16384
		}
	}
	data := writeWAV(t, 8000, 1, frames)

	samples, channels, rate, err := WAVDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	if rate != 8000 {
		t.Errorf("rate = %d, want 8000", rate)
	}
	if len(samples) != len(frames) {
		t.Fatalf("len = %d, want %d", len(samples), len(frames))
	}
	// 16384/32768 = 0.5
	if math.Abs(samples[0]-0.5) > 1e-3 || math.Abs(samples[1]+0.5) > 1e-3 {
		t.Errorf("samples[0:2] = %f, %f, want ±0.5", samples[0], samples[1])
	}
}

func TestWAVDecoder_Stereo(t *testing.T) {
	frames := []int{0, 16384, 0, 16384, 0, 16384}
	data := writeWAV(t, 16000, 2, frames)

	samples, channels, rate, err := WAVDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if channels != 2 || rate != 16000 {
		t.Errorf("channels, rate = %d, %d, want 2, 16000", channels, rate)
	}
	if len(samples) != 6 {
		t.Errorf("len = %d, want 6", len(samples))
	}
}

func TestWAVDecoder_Garbage(t *testing.T) {
	if _, _, _, err := (WAVDecoder{}).Decode([]byte("definitely not a wav file")); err == nil {
		t.Error("Decode succeeded on garbage input")
	}
}

func TestWAVDecoder_ThroughNormalize(t *testing.T) {
	frames := make([]int, 16000)
	data := writeWAV(t, 16000, 1, frames)

	buf, err := Normalize(WAVDecoder{}, data)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if buf.Rate != TargetRate || len(buf.Samples) != 16000 {
		t.Errorf("got rate=%d len=%d, want rate=%d len=16000", buf.Rate, len(buf.Samples), TargetRate)
	}
}
