package exporter

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WriteWAV writes interleaved samples as a PCM RIFF/WAVE stream. 8-bit
// samples are unsigned (0..255); wider ones are signed.
func WriteWAV(w io.WriteSeeker, sampleRate, bitDepth, channels int, samples []int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}
	return nil
}
