package swf

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func parseBody(t *testing.T, version uint8, body []byte, opts ...Option) *Movie {
	t.Helper()
	m, err := Parse(Header{Compression: CompressionNone, Version: version, FileLength: uint32(len(body) + headerSize)}, body, opts...)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return m
}

func TestParse_FrameRect(t *testing.T) {
	t.Parallel()

	var w bitWriter
	w.write(15, 5)
	for _, v := range []uint32{0, 11000, 0, 8000} {
		w.write(v, 15)
	}
	body := cat(w.buf, []byte{0x80, 0x18, 0x02, 0x00}, tagRecord(TagEnd, nil, false))

	m := parseBody(t, 10, body)
	want := Rect{XMin: 0, XMax: 11000, YMin: 0, YMax: 8000}
	if m.FrameSize != want {
		t.Errorf("FrameSize = %+v, want %+v", m.FrameSize, want)
	}
	if m.FrameRate != 24.5 {
		t.Errorf("FrameRate = %v, want 24.5", m.FrameRate)
	}
	if m.FrameCount != 2 {
		t.Errorf("FrameCount = %d, want 2", m.FrameCount)
	}
	if len(m.Tags) != 1 || m.Tags[0].Code() != TagEnd {
		t.Errorf("Tags = %v, want [End]", m.Tags)
	}
}

func TestParse_TagHeaderForms(t *testing.T) {
	t.Parallel()

	small := cat(u16(1), u32(0), []byte{1, 2, 3})
	large := cat(u16(2), u32(0), bytes.Repeat([]byte{7}, 100))
	forced := cat(u16(3), u32(0), []byte{9})
	m := parseBody(t, 10, movieBody(
		tagRecord(TagDefineBinaryData, small, false),
		tagRecord(TagDefineBinaryData, large, false),
		tagRecord(TagDefineBinaryData, forced, true),
		tagRecord(TagEnd, nil, false),
	))

	if len(m.Tags) != 4 {
		t.Fatalf("len(Tags) = %d, want 4", len(m.Tags))
	}
	wantLens := []int{3, 100, 1}
	for i, want := range wantLens {
		bin, ok := m.Tags[i].(*DefineBinaryData)
		if !ok {
			t.Fatalf("Tags[%d] = %T, want *DefineBinaryData", i, m.Tags[i])
		}
		if bin.ID != uint16(i+1) || len(bin.Data) != want {
			t.Errorf("Tags[%d] = id %d len %d, want id %d len %d", i, bin.ID, len(bin.Data), i+1, want)
		}
	}
}

func TestParse_StopsAtEnd(t *testing.T) {
	t.Parallel()

	m := parseBody(t, 10, movieBody(
		tagRecord(TagEnd, nil, false),
		tagRecord(TagShowFrame, nil, false),
	))
	if len(m.Tags) != 1 {
		t.Errorf("len(Tags) = %d, want 1", len(m.Tags))
	}
}

func TestParse_ShortTag(t *testing.T) {
	t.Parallel()

	body := movieBody(
		tagRecord(TagShowFrame, nil, false),
		u16(uint16(TagDefineBinaryData)<<6|10), []byte{1, 2, 3},
	)
	m, err := Parse(Header{Version: 10}, body)
	if !errors.Is(err, ErrShortTag) {
		t.Fatalf("Parse() error = %v, want ErrShortTag", err)
	}
	if m == nil || len(m.Tags) != 1 {
		t.Fatalf("Parse() should keep the records read before the short one")
	}
}

func TestParse_DefineSound(t *testing.T) {
	t.Parallel()

	data := []byte{0xFF, 0xFB, 0x90}
	// MP3, 44.1kHz, 16-bit, mono.
	body := cat(u16(7), []byte{0x2E}, u32(1152), data)
	m := parseBody(t, 10, movieBody(tagRecord(TagDefineSound, body, false)))

	snd, ok := m.Tags[0].(*DefineSound)
	if !ok {
		t.Fatalf("Tags[0] = %T, want *DefineSound", m.Tags[0])
	}
	want := SoundFormat{Compression: AudioMP3, SampleRate: 44100, Is16Bit: true, IsStereo: false}
	if snd.ID != 7 || snd.Format != want || snd.SampleCount != 1152 {
		t.Errorf("DefineSound = id %d %v count %d, want id 7 %v count 1152", snd.ID, snd.Format, snd.SampleCount, want)
	}
	if !bytes.Equal(snd.Data, data) {
		t.Errorf("Data = %x, want %x", snd.Data, data)
	}
}

func TestParse_SoundStreamHead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    TagCode
		body    []byte
		version int
		stream  SoundFormat
		latency int16
	}{
		{
			name:    "adpcm stereo",
			code:    TagSoundStreamHead2,
			body:    cat([]byte{0x0A, 0x17}, u16(1470)),
			version: 2,
			stream:  SoundFormat{Compression: AudioADPCM, SampleRate: 11025, Is16Bit: true, IsStereo: true},
		},
		{
			name:    "mp3 with latency seek",
			code:    TagSoundStreamHead,
			body:    cat([]byte{0x0E, 0x2E}, u16(1152), u16(0xFFFE)),
			version: 1,
			stream:  SoundFormat{Compression: AudioMP3, SampleRate: 44100, Is16Bit: true},
			latency: -2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := parseBody(t, 10, movieBody(tagRecord(tt.code, tt.body, false)))
			head, ok := m.Tags[0].(*SoundStreamHead)
			if !ok {
				t.Fatalf("Tags[0] = %T, want *SoundStreamHead", m.Tags[0])
			}
			if head.Version != tt.version || head.Code() != tt.code {
				t.Errorf("Version = %d Code = %v, want %d %v", head.Version, head.Code(), tt.version, tt.code)
			}
			if head.StreamFormat != tt.stream {
				t.Errorf("StreamFormat = %v, want %v", head.StreamFormat, tt.stream)
			}
			if head.LatencySeek != tt.latency {
				t.Errorf("LatencySeek = %d, want %d", head.LatencySeek, tt.latency)
			}
		})
	}
}

func TestParseSoundFormat_RateOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		b    byte
		want uint32
	}{
		{0x10, 5512},
		{0x14, 11025},
		{0x18, 22050},
		{0x1C, 44100},
		{0x4C, 16000}, // Nellymoser 16k ignores the rate field
		{0x5C, 8000},
		{0xBC, 16000}, // Speex
	}
	for _, tt := range tests {
		if got := ParseSoundFormat(tt.b).SampleRate; got != tt.want {
			t.Errorf("ParseSoundFormat(%#x).SampleRate = %d, want %d", tt.b, got, tt.want)
		}
	}
}

func TestParse_SpriteNesting(t *testing.T) {
	t.Parallel()

	inner := cat(u16(5), u16(3),
		tagRecord(TagSoundStreamBlock, []byte{1, 2}, false),
		tagRecord(TagShowFrame, nil, false),
		tagRecord(TagEnd, nil, false),
	)
	m := parseBody(t, 10, movieBody(
		tagRecord(TagDefineSprite, inner, false),
		tagRecord(TagShowFrame, nil, false),
		tagRecord(TagEnd, nil, false),
	))

	if len(m.Tags) != 3 {
		t.Fatalf("len(Tags) = %d, want 3", len(m.Tags))
	}
	sprite, ok := m.Tags[0].(*DefineSprite)
	if !ok {
		t.Fatalf("Tags[0] = %T, want *DefineSprite", m.Tags[0])
	}
	if sprite.ID != 5 || sprite.FrameCount != 3 || len(sprite.Tags) != 3 {
		t.Errorf("sprite = id %d frames %d tags %d, want 5 3 3", sprite.ID, sprite.FrameCount, len(sprite.Tags))
	}
	if blk, ok := sprite.Tags[0].(*SoundStreamBlock); !ok || !bytes.Equal(blk.Data, []byte{1, 2}) {
		t.Errorf("sprite.Tags[0] = %#v, want stream block [1 2]", sprite.Tags[0])
	}
}

func TestParse_BrokenSpriteKeepsTimeline(t *testing.T) {
	t.Parallel()

	inner := cat(u16(9), u16(1), u16(uint16(TagSoundStreamBlock)<<6|20), []byte{1})
	m := parseBody(t, 10, movieBody(
		tagRecord(TagDefineSprite, inner, false),
		tagRecord(TagShowFrame, nil, false),
		tagRecord(TagEnd, nil, false),
	))
	if len(m.Tags) != 3 {
		t.Fatalf("len(Tags) = %d, want 3", len(m.Tags))
	}
	sprite := m.Tags[0].(*DefineSprite)
	last, ok := sprite.Tags[len(sprite.Tags)-1].(*Malformed)
	if !ok || !errors.Is(last, ErrShortTag) {
		t.Errorf("last sprite tag = %#v, want Malformed wrapping ErrShortTag", sprite.Tags[len(sprite.Tags)-1])
	}
}

func TestParse_MalformedBody(t *testing.T) {
	t.Parallel()

	m := parseBody(t, 10, movieBody(tagRecord(TagDefineSound, []byte{1}, false)))
	bad, ok := m.Tags[0].(*Malformed)
	if !ok {
		t.Fatalf("Tags[0] = %T, want *Malformed", m.Tags[0])
	}
	if bad.Code() != TagDefineSound {
		t.Errorf("Code() = %v, want DefineSound", bad.Code())
	}
}

func TestParse_Bitmaps(t *testing.T) {
	t.Parallel()

	jpeg3 := cat(u16(11), u32(3), []byte{0xFF, 0xD8, 0xFF}, []byte{0x78, 0x9C})
	jpeg4 := cat(u16(12), u32(1), u16(0x0100), []byte{0xAA}, []byte{0xBB})
	lossless := cat(u16(13), []byte{3}, u16(4), u16(2), []byte{15}, []byte{0x78})
	lossless2 := cat(u16(14), []byte{5}, u16(1), u16(1), []byte{0x78, 0x01})
	m := parseBody(t, 10, movieBody(
		tagRecord(TagDefineBitsJPEG3, jpeg3, false),
		tagRecord(TagDefineBitsJPEG4, jpeg4, false),
		tagRecord(TagDefineBitsLossless, lossless, false),
		tagRecord(TagDefineBitsLossless2, lossless2, false),
		tagRecord(TagDefineBitsJPEG3, cat(u16(15), u32(99), []byte{1}), false),
	))

	j3 := m.Tags[0].(*DefineBitsJPEG)
	if j3.Version != 3 || !bytes.Equal(j3.Data, []byte{0xFF, 0xD8, 0xFF}) || !bytes.Equal(j3.AlphaData, []byte{0x78, 0x9C}) {
		t.Errorf("JPEG3 = %+v", j3)
	}
	j4 := m.Tags[1].(*DefineBitsJPEG)
	if j4.Deblocking != 0x0100 || !bytes.Equal(j4.Data, []byte{0xAA}) || !bytes.Equal(j4.AlphaData, []byte{0xBB}) {
		t.Errorf("JPEG4 = %+v", j4)
	}
	l1 := m.Tags[2].(*DefineBitsLossless)
	if l1.Format != LosslessColormapped || l1.Width != 4 || l1.Height != 2 || l1.NumColors != 15 || len(l1.ZlibData) != 1 {
		t.Errorf("Lossless = %+v", l1)
	}
	l2 := m.Tags[3].(*DefineBitsLossless)
	if l2.Version != 2 || l2.Code() != TagDefineBitsLossless2 || l2.NumColors != 0 || len(l2.ZlibData) != 2 {
		t.Errorf("Lossless2 = %+v", l2)
	}
	if _, ok := m.Tags[4].(*Malformed); !ok {
		t.Errorf("Tags[4] = %T, want *Malformed for alpha offset past the body", m.Tags[4])
	}
}

func TestParse_SymbolStrings(t *testing.T) {
	t.Parallel()

	// "あ" in Shift-JIS, then UTF-8.
	sjis := cat(u16(1), u16(3), []byte{0x82, 0xA0, 0})
	utf := cat(u16(1), u16(4), []byte("あ"), []byte{0})

	old := parseBody(t, 5, movieBody(tagRecord(TagExportAssets, sjis, false)), WithLegacyEncoding(japanese.ShiftJIS))
	if got := old.Tags[0].(*ExportAssets).Symbols; len(got) != 1 || got[0] != (Symbol{ID: 3, Name: "あ"}) {
		t.Errorf("legacy ExportAssets = %+v, want [{3 あ}]", got)
	}
	modern := parseBody(t, 9, movieBody(tagRecord(TagSymbolClass, utf, false)))
	if got := modern.Tags[0].(*SymbolClass).Symbols; len(got) != 1 || got[0] != (Symbol{ID: 4, Name: "あ"}) {
		t.Errorf("SymbolClass = %+v, want [{4 あ}]", got)
	}
}

func TestLegacyEncoding(t *testing.T) {
	t.Parallel()

	if LegacyEncoding("Shift_JIS") != japanese.ShiftJIS {
		t.Errorf("LegacyEncoding(Shift_JIS) is not Shift-JIS")
	}
	if LegacyEncoding("") == nil {
		t.Errorf("LegacyEncoding(\"\") = nil, want a default")
	}
}
