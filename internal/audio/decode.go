package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

// Decoder turns container-encoded audio bytes into interleaved float frames
// in [-1, 1] plus the channel count and native sample rate.
type Decoder interface {
	Decode(data []byte) (samples []float64, channels, rate int, err error)
}

// WAVDecoder decodes RIFF/WAV payloads.
type WAVDecoder struct{}

// Decode reads a whole WAV payload into interleaved float samples.
func (WAVDecoder) Decode(data []byte) ([]float64, int, int, error) {
	d := wav.NewDecoder(bytes.NewReader(data))

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, 0, fmt.Errorf("decode wav: no audio frames")
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float64(s) / scale
	}

	return samples, buf.Format.NumChannels, buf.Format.SampleRate, nil
}
