package swf

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"

	"haruki-swf-extractor/utils"
	"haruki-swf-extractor/utils/bitstream"
)

// Rect is a RECT record in twips.
type Rect struct {
	XMin, XMax, YMin, YMax int32
}

// Movie is a parsed container.
type Movie struct {
	Header     Header
	FrameSize  Rect
	FrameRate  float32
	FrameCount uint16
	Tags       []Tag
}

// Option configures Parse.
type Option func(*parser)

// WithLegacyEncoding sets the text encoding used for strings in movies
// older than version 6.
func WithLegacyEncoding(enc encoding.Encoding) Option {
	return func(p *parser) {
		p.legacy = enc
	}
}

// WithVersion overrides the version used for string decoding. Parse takes it
// from the header otherwise.
func WithVersion(v uint8) Option {
	return func(p *parser) {
		p.version = v
	}
}

type parser struct {
	version uint8
	legacy  encoding.Encoding
}

// Open reads and parses the movie at path.
func Open(path string, opts ...Option) (*Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, opts...)
}

// Read decompresses and parses a whole movie from r.
func Read(r io.Reader, opts ...Option) (*Movie, error) {
	h, body, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	return Parse(*h, body, opts...)
}

// Parse decodes the uncompressed body that follows header h. When a tag
// record runs past the end of the body, the tags read so far are returned
// together with an error wrapping ErrShortTag.
func Parse(h Header, body []byte, opts ...Option) (*Movie, error) {
	p := &parser{version: h.Version}
	for _, opt := range opts {
		opt(p)
	}

	m := &Movie{Header: h}
	br := bitstream.NewReader(body)
	rect, err := readRect(br)
	if err != nil {
		return nil, fmt.Errorf("swf: read frame size: %w", err)
	}
	m.FrameSize = rect

	bs := utils.NewBinaryStream(body[br.BytePos():], "little")
	if m.FrameRate, err = bs.ReadFixed8(); err != nil {
		return nil, fmt.Errorf("swf: read frame rate: %w", err)
	}
	if m.FrameCount, err = bs.ReadUInt16(); err != nil {
		return nil, fmt.Errorf("swf: read frame count: %w", err)
	}

	m.Tags, err = p.readTags(bs)
	return m, err
}

func readRect(br *bitstream.Reader) (Rect, error) {
	var r Rect
	n, err := br.Read(5)
	if err != nil {
		return r, err
	}
	for _, dst := range []*int32{&r.XMin, &r.XMax, &r.YMin, &r.YMax} {
		if *dst, err = br.ReadSigned(int(n)); err != nil {
			return r, err
		}
	}
	br.Align()
	return r, nil
}

type tagHeader struct {
	code   TagCode
	length int
}

func readTagHeader(bs *utils.BinaryStream) (tagHeader, error) {
	v, err := bs.ReadUInt16()
	if err != nil {
		return tagHeader{}, err
	}
	th := tagHeader{code: TagCode(v >> 6), length: int(v & 0x3F)}
	if th.length == 0x3F {
		long, err := bs.ReadUInt32()
		if err != nil {
			return tagHeader{}, err
		}
		th.length = int(long)
	}
	return th, nil
}

// readTags reads records until End or the end of data.
func (p *parser) readTags(bs *utils.BinaryStream) ([]Tag, error) {
	var tags []Tag
	for bs.Len() > 0 {
		th, err := readTagHeader(bs)
		if err != nil {
			return tags, fmt.Errorf("%w: header at offset %d", ErrShortTag, bs.Pos())
		}
		if th.length > bs.Len() {
			return tags, fmt.Errorf("%w: %s wants %d bytes, %d left", ErrShortTag, th.code, th.length, bs.Len())
		}
		body, _ := bs.ReadBytes(th.length)
		tag, err := p.decodeTag(th.code, body)
		if err != nil {
			tag = &Malformed{TagCode: th.code, Err: err}
		}
		tags = append(tags, tag)
		if th.code == TagEnd {
			break
		}
	}
	return tags, nil
}

func (p *parser) decodeTag(code TagCode, body []byte) (Tag, error) {
	bs := utils.NewBinaryStream(body, "little")
	switch code {
	case TagEnd:
		return End{}, nil
	case TagShowFrame:
		return ShowFrame{}, nil
	case TagDefineSound:
		return readDefineSound(bs)
	case TagSoundStreamHead, TagSoundStreamHead2:
		version := 1
		if code == TagSoundStreamHead2 {
			version = 2
		}
		return readSoundStreamHead(bs, version)
	case TagSoundStreamBlock:
		return &SoundStreamBlock{Data: bs.ReadRest()}, nil
	case TagDefineBits:
		id, err := bs.ReadUInt16()
		if err != nil {
			return nil, err
		}
		return &DefineBits{ID: id, Data: bs.ReadRest()}, nil
	case TagJPEGTables:
		return &JPEGTables{Data: bs.ReadRest()}, nil
	case TagDefineBitsJPEG2:
		return readDefineBitsJPEG(bs, 2)
	case TagDefineBitsJPEG3:
		return readDefineBitsJPEG(bs, 3)
	case TagDefineBitsJPEG4:
		return readDefineBitsJPEG(bs, 4)
	case TagDefineBitsLossless:
		return readDefineBitsLossless(bs, 1)
	case TagDefineBitsLossless2:
		return readDefineBitsLossless(bs, 2)
	case TagDefineBinaryData:
		id, err := bs.ReadUInt16()
		if err != nil {
			return nil, err
		}
		if err := bs.Skip(4); err != nil {
			return nil, err
		}
		return &DefineBinaryData{ID: id, Data: bs.ReadRest()}, nil
	case TagDefineSprite:
		return p.readDefineSprite(bs)
	case TagExportAssets:
		symbols, err := p.readSymbols(bs)
		if err != nil {
			return nil, err
		}
		return &ExportAssets{Symbols: symbols}, nil
	case TagSymbolClass:
		symbols, err := p.readSymbols(bs)
		if err != nil {
			return nil, err
		}
		return &SymbolClass{Symbols: symbols}, nil
	default:
		return &Unknown{TagCode: code, Data: bs.ReadRest()}, nil
	}
}

func readDefineSound(bs *utils.BinaryStream) (*DefineSound, error) {
	id, err := bs.ReadUInt16()
	if err != nil {
		return nil, err
	}
	fb, err := bs.ReadUInt8()
	if err != nil {
		return nil, err
	}
	count, err := bs.ReadUInt32()
	if err != nil {
		return nil, err
	}
	return &DefineSound{
		ID:          id,
		Format:      ParseSoundFormat(fb),
		SampleCount: count,
		Data:        bs.ReadRest(),
	}, nil
}

func readSoundStreamHead(bs *utils.BinaryStream, version int) (*SoundStreamHead, error) {
	raw, err := bs.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	h := &SoundStreamHead{Version: version}
	// The playback byte reserves the top nibble; its compression is unused.
	h.PlaybackFormat = ParseSoundFormat(raw[0] & 0x0F)
	h.StreamFormat = ParseSoundFormat(raw[1])
	if h.SampleCount, err = bs.ReadUInt16(); err != nil {
		return nil, err
	}
	if h.StreamFormat.Compression == AudioMP3 && bs.Len() >= 2 {
		h.LatencySeek, _ = bs.ReadInt16()
	}
	return h, nil
}

func readDefineBitsJPEG(bs *utils.BinaryStream, version int) (*DefineBitsJPEG, error) {
	id, err := bs.ReadUInt16()
	if err != nil {
		return nil, err
	}
	j := &DefineBitsJPEG{ID: id, Version: version}
	if version == 2 {
		j.Data = bs.ReadRest()
		return j, nil
	}
	alphaOffset, err := bs.ReadUInt32()
	if err != nil {
		return nil, err
	}
	if version == 4 {
		if j.Deblocking, err = bs.ReadUInt16(); err != nil {
			return nil, err
		}
	}
	if int64(alphaOffset) > int64(bs.Len()) {
		return nil, fmt.Errorf("alpha offset %d beyond %d image bytes", alphaOffset, bs.Len())
	}
	j.Data, _ = bs.ReadBytes(int(alphaOffset))
	j.AlphaData = bs.ReadRest()
	return j, nil
}

func readDefineBitsLossless(bs *utils.BinaryStream, version int) (*DefineBitsLossless, error) {
	l := &DefineBitsLossless{Version: version}
	var err error
	if l.ID, err = bs.ReadUInt16(); err != nil {
		return nil, err
	}
	format, err := bs.ReadUInt8()
	if err != nil {
		return nil, err
	}
	l.Format = LosslessFormat(format)
	if l.Width, err = bs.ReadUInt16(); err != nil {
		return nil, err
	}
	if l.Height, err = bs.ReadUInt16(); err != nil {
		return nil, err
	}
	if l.Format == LosslessColormapped {
		if l.NumColors, err = bs.ReadUInt8(); err != nil {
			return nil, err
		}
	}
	l.ZlibData = bs.ReadRest()
	return l, nil
}

func (p *parser) readDefineSprite(bs *utils.BinaryStream) (*DefineSprite, error) {
	s := &DefineSprite{}
	var err error
	if s.ID, err = bs.ReadUInt16(); err != nil {
		return nil, err
	}
	if s.FrameCount, err = bs.ReadUInt16(); err != nil {
		return nil, err
	}
	// A broken nested record ends the sprite but not the enclosing timeline.
	s.Tags, err = p.readTags(bs)
	if err != nil {
		s.Tags = append(s.Tags, &Malformed{TagCode: TagDefineSprite, Err: err})
	}
	return s, nil
}

func (p *parser) readSymbols(bs *utils.BinaryStream) ([]Symbol, error) {
	count, err := bs.ReadUInt16()
	if err != nil {
		return nil, err
	}
	symbols := make([]Symbol, 0, count)
	for range count {
		id, err := bs.ReadUInt16()
		if err != nil {
			return symbols, err
		}
		name, err := bs.ReadStringToNull()
		if err != nil {
			return symbols, err
		}
		symbols = append(symbols, Symbol{ID: id, Name: p.decodeString(name)})
	}
	return symbols, nil
}
