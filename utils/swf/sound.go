package swf

import (
	"fmt"

	"haruki-swf-extractor/utils/bitstream"
)

// AudioCompression is the 4-bit codec field of a sound format.
type AudioCompression uint8

const (
	AudioUncompressedNativeEndian AudioCompression = 0
	AudioADPCM                    AudioCompression = 1
	AudioMP3                      AudioCompression = 2
	AudioUncompressed             AudioCompression = 3
	AudioNellymoser16k            AudioCompression = 4
	AudioNellymoser8k             AudioCompression = 5
	AudioNellymoser               AudioCompression = 6
	AudioSpeex                    AudioCompression = 11
)

func (c AudioCompression) String() string {
	switch c {
	case AudioUncompressedNativeEndian:
		return "uncompressed-native"
	case AudioADPCM:
		return "adpcm"
	case AudioMP3:
		return "mp3"
	case AudioUncompressed:
		return "uncompressed"
	case AudioNellymoser16k:
		return "nellymoser-16k"
	case AudioNellymoser8k:
		return "nellymoser-8k"
	case AudioNellymoser:
		return "nellymoser"
	case AudioSpeex:
		return "speex"
	default:
		return fmt.Sprintf("AudioCompression(%d)", uint8(c))
	}
}

var sampleRates = [4]uint32{5512, 11025, 22050, 44100}

// SoundFormat is the decoded 8-bit format descriptor shared by DefineSound
// and the stream head tags.
type SoundFormat struct {
	Compression AudioCompression
	SampleRate  uint32
	Is16Bit     bool
	IsStereo    bool
}

// Channels returns 1 or 2.
func (f SoundFormat) Channels() int {
	if f.IsStereo {
		return 2
	}
	return 1
}

// BitDepth returns 8 or 16.
func (f SoundFormat) BitDepth() int {
	if f.Is16Bit {
		return 16
	}
	return 8
}

func (f SoundFormat) String() string {
	return fmt.Sprintf("%s %dHz %dbit %dch", f.Compression, f.SampleRate, f.BitDepth(), f.Channels())
}

// readSoundFormat consumes compression(4) rate(2) size(1) type(1).
func readSoundFormat(br *bitstream.Reader) (SoundFormat, error) {
	var f SoundFormat
	comp, err := br.Read(4)
	if err != nil {
		return f, err
	}
	rate, err := br.Read(2)
	if err != nil {
		return f, err
	}
	if f.Is16Bit, err = br.ReadBool(); err != nil {
		return f, err
	}
	if f.IsStereo, err = br.ReadBool(); err != nil {
		return f, err
	}
	f.Compression = AudioCompression(comp)
	f.SampleRate = sampleRates[rate]
	switch f.Compression {
	case AudioNellymoser16k, AudioSpeex:
		f.SampleRate = 16000
	case AudioNellymoser8k:
		f.SampleRate = 8000
	}
	return f, nil
}

// ParseSoundFormat decodes a single sound format byte.
func ParseSoundFormat(b byte) SoundFormat {
	f, _ := readSoundFormat(bitstream.NewReader([]byte{b}))
	return f
}
