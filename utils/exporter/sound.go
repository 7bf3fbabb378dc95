package exporter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"haruki-swf-extractor/utils/swf"
	"haruki-swf-extractor/utils/swfcodecs/adpcm"
)

// Sound collects the payload of one event sound or one timeline stream.
// ADPCM and uncompressed data become PCM samples; anything else is kept as
// raw bytes.
type Sound struct {
	Format swf.SoundFormat
	pcm    []int
	raw    []byte
	blocks int
}

func NewSound(format swf.SoundFormat) *Sound {
	return &Sound{Format: format}
}

// AppendBlock adds one payload. frameLimit caps the frames decoded from an
// ADPCM block; zero means the whole block.
func (s *Sound) AppendBlock(data []byte, frameLimit int) error {
	s.blocks++
	switch s.Format.Compression {
	case swf.AudioADPCM:
		var opts []adpcm.Option
		if frameLimit > 0 {
			opts = append(opts, adpcm.WithFrameLimit(frameLimit))
		}
		dec, err := adpcm.NewDecoder(data, s.Format.IsStereo, opts...)
		if err != nil {
			return fmt.Errorf("adpcm block %d: %w", s.blocks, err)
		}
		for f := range dec.Frames() {
			s.pcm = append(s.pcm, int(f[0]))
			if s.Format.IsStereo {
				s.pcm = append(s.pcm, int(f[1]))
			}
		}
	case swf.AudioUncompressed, swf.AudioUncompressedNativeEndian:
		s.pcm = appendLinear(s.pcm, data, s.Format.Is16Bit)
	default:
		s.raw = append(s.raw, data...)
	}
	return nil
}

// appendLinear widens little-endian PCM. A dangling odd byte is dropped.
func appendLinear(dst []int, data []byte, is16Bit bool) []int {
	if !is16Bit {
		for _, b := range data {
			dst = append(dst, int(b))
		}
		return dst
	}
	for i := 0; i+1 < len(data); i += 2 {
		dst = append(dst, int(int16(binary.LittleEndian.Uint16(data[i:]))))
	}
	return dst
}

// Blocks returns how many payloads were appended.
func (s *Sound) Blocks() int {
	return s.blocks
}

// Empty reports whether nothing decodable was collected.
func (s *Sound) Empty() bool {
	return len(s.pcm) == 0 && len(s.raw) == 0
}

// Samples returns the interleaved PCM collected so far.
func (s *Sound) Samples() []int {
	return s.pcm
}

// Extension returns the file extension Save will use.
func (s *Sound) Extension(decodeMP3 bool) string {
	switch s.Format.Compression {
	case swf.AudioADPCM, swf.AudioUncompressed, swf.AudioUncompressedNativeEndian:
		return "wav"
	case swf.AudioMP3:
		if decodeMP3 {
			return "wav"
		}
		return "mp3"
	default:
		return "bin"
	}
}

// BitDepth is the sample width of the WAV output.
func (s *Sound) BitDepth() int {
	if s.Format.Compression == swf.AudioADPCM {
		return 16
	}
	return s.Format.BitDepth()
}

// Save writes the sound to basePath plus the extension and returns the path.
func (s *Sound) Save(basePath string, decodeMP3 bool) (string, error) {
	ext := s.Extension(decodeMP3)
	path := basePath + "." + ext

	if ext != "wav" {
		if err := os.WriteFile(path, s.raw, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if s.Format.Compression == swf.AudioMP3 {
		err = writeMP3AsWAV(f, s.raw)
	} else {
		err = WriteWAV(f, int(s.Format.SampleRate), s.BitDepth(), s.Format.Channels(), s.pcm)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// writeMP3AsWAV decodes MP3 frames to 16-bit stereo PCM.
func writeMP3AsWAV(w io.WriteSeeker, data []byte) error {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to open MP3 stream: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return fmt.Errorf("failed to decode MP3 stream: %w", err)
	}
	samples := appendLinear(make([]int, 0, len(raw)/2), raw, true)
	return WriteWAV(w, dec.SampleRate(), 16, 2, samples)
}

// StripMP3SoundHeader drops the 2-byte seek-samples prefix of a DefineSound
// MP3 payload.
func StripMP3SoundHeader(data []byte) []byte {
	if len(data) < 2 {
		return nil
	}
	return data[2:]
}

// StripMP3StreamHeader drops the sample-count and seek-samples fields of a
// SoundStreamBlock MP3 payload.
func StripMP3StreamHeader(data []byte) []byte {
	if len(data) < 4 {
		return nil
	}
	return data[4:]
}
