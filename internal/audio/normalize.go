// Package audio converts uploaded audio into the mono 16 kHz float32 PCM the
// transcription engine consumes.
package audio

import (
	"errors"
	"fmt"
	"math"
)

// TargetRate is the sample rate the engine expects.
const TargetRate = 16000

// Buffer is a mono PCM buffer.
type Buffer struct {
	Samples []float32
	Rate    int
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.Rate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Rate)
}

// ErrEmptyAudio is returned when a payload decodes to zero frames.
var ErrEmptyAudio = errors.New("decoded audio is empty")

// Normalize decodes raw audio bytes and converts them to a mono float32
// buffer at TargetRate: multi-channel input is downmixed by per-frame
// arithmetic mean, and off-rate input is resampled by linear interpolation.
// The resampler is a deliberately simple one (no anti-aliasing); its output
// length may differ by ±1 sample from duration*TargetRate.
func Normalize(dec Decoder, data []byte) (Buffer, error) {
	samples, channels, rate, err := dec.Decode(data)
	if err != nil {
		return Buffer{}, err
	}
	if len(samples) == 0 {
		return Buffer{}, ErrEmptyAudio
	}
	if channels <= 0 || rate <= 0 {
		return Buffer{}, fmt.Errorf("invalid audio format: channels=%d rate=%d", channels, rate)
	}

	mono := downmix(samples, channels)
	if len(mono) == 0 {
		return Buffer{}, ErrEmptyAudio
	}

	if rate != TargetRate {
		mono = resample(mono, rate, TargetRate)
	}

	out := make([]float32, len(mono))
	for i, s := range mono {
		out[i] = float32(s)
	}
	return Buffer{Samples: out, Rate: TargetRate}, nil
}

// downmix averages interleaved channels into a single channel. Mono input is
// returned as-is.
func downmix(samples []float64, channels int) []float64 {
	if channels == 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// resample converts a mono buffer from one rate to another by linear
// interpolation at evenly spaced positions over the source index range.
// Positions past the final source index clamp to the last sample.
func resample(in []float64, from, to int) []float64 {
	duration := float64(len(in)) / float64(from)
	n := int(math.Round(duration * float64(to)))
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{in[0]}
	}

	out := make([]float64, n)
	step := float64(len(in)) / float64(n-1)
	last := len(in) - 1
	for i := range out {
		pos := step * float64(i)
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
