package swf

import "fmt"

// TagCode is the 10-bit record type from a tag header.
type TagCode uint16

const (
	TagEnd                 TagCode = 0
	TagShowFrame           TagCode = 1
	TagDefineBits          TagCode = 6
	TagJPEGTables          TagCode = 8
	TagDefineSound         TagCode = 14
	TagSoundStreamHead     TagCode = 18
	TagSoundStreamBlock    TagCode = 19
	TagDefineBitsLossless  TagCode = 20
	TagDefineBitsJPEG2     TagCode = 21
	TagDefineBitsJPEG3     TagCode = 35
	TagDefineBitsLossless2 TagCode = 36
	TagDefineSprite        TagCode = 39
	TagSoundStreamHead2    TagCode = 45
	TagExportAssets        TagCode = 56
	TagFileAttributes      TagCode = 69
	TagSymbolClass         TagCode = 76
	TagDefineBinaryData    TagCode = 87
	TagDefineBitsJPEG4     TagCode = 90
)

var tagNames = map[TagCode]string{
	TagEnd:                 "End",
	TagShowFrame:           "ShowFrame",
	TagDefineBits:          "DefineBits",
	TagJPEGTables:          "JPEGTables",
	TagDefineSound:         "DefineSound",
	TagSoundStreamHead:     "SoundStreamHead",
	TagSoundStreamBlock:    "SoundStreamBlock",
	TagDefineBitsLossless:  "DefineBitsLossless",
	TagDefineBitsJPEG2:     "DefineBitsJPEG2",
	TagDefineBitsJPEG3:     "DefineBitsJPEG3",
	TagDefineBitsLossless2: "DefineBitsLossless2",
	TagDefineSprite:        "DefineSprite",
	TagSoundStreamHead2:    "SoundStreamHead2",
	TagExportAssets:        "ExportAssets",
	TagFileAttributes:      "FileAttributes",
	TagSymbolClass:         "SymbolClass",
	TagDefineBinaryData:    "DefineBinaryData",
	TagDefineBitsJPEG4:     "DefineBitsJPEG4",
}

func (c TagCode) String() string {
	if name, ok := tagNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint16(c))
}

// Tag is one decoded record. Concrete types are the structs below.
type Tag interface {
	Code() TagCode
}

type End struct{}

type ShowFrame struct{}

// DefineSound is an event sound with its whole payload in one record.
type DefineSound struct {
	ID          uint16
	Format      SoundFormat
	SampleCount uint32
	Data        []byte
}

// SoundStreamHead announces the format of the blocks that follow on the same
// timeline. Version is 1 or 2 depending on the tag code.
type SoundStreamHead struct {
	Version        int
	PlaybackFormat SoundFormat
	StreamFormat   SoundFormat
	SampleCount    uint16
	LatencySeek    int16
}

type SoundStreamBlock struct {
	Data []byte
}

// DefineBits holds JPEG data that relies on the movie's JPEGTables.
type DefineBits struct {
	ID   uint16
	Data []byte
}

type JPEGTables struct {
	Data []byte
}

// DefineBitsJPEG covers DefineBitsJPEG2, 3 and 4. AlphaData, when present,
// is a zlib stream of one alpha byte per pixel.
type DefineBitsJPEG struct {
	ID         uint16
	Version    int
	Deblocking uint16
	Data       []byte
	AlphaData  []byte
}

// LosslessFormat is the BitmapFormat byte of DefineBitsLossless.
type LosslessFormat uint8

const (
	LosslessColormapped LosslessFormat = 3
	LosslessRGB15       LosslessFormat = 4
	LosslessRGB24       LosslessFormat = 5
)

// DefineBitsLossless covers both versions; Version 2 carries alpha.
type DefineBitsLossless struct {
	ID        uint16
	Version   int
	Format    LosslessFormat
	Width     uint16
	Height    uint16
	NumColors uint8 // colormapped only; the table holds NumColors+1 entries
	ZlibData  []byte
}

type DefineBinaryData struct {
	ID   uint16
	Data []byte
}

// DefineSprite is a nested timeline.
type DefineSprite struct {
	ID         uint16
	FrameCount uint16
	Tags       []Tag
}

// Symbol links a character id to a name.
type Symbol struct {
	ID   uint16
	Name string
}

type ExportAssets struct {
	Symbols []Symbol
}

type SymbolClass struct {
	Symbols []Symbol
}

// Unknown is any record this package does not decode.
type Unknown struct {
	TagCode TagCode
	Data    []byte
}

// Malformed is a known record whose body could not be decoded.
type Malformed struct {
	TagCode TagCode
	Err     error
}

func (End) Code() TagCode {
	return TagEnd
}

func (ShowFrame) Code() TagCode {
	return TagShowFrame
}

func (*DefineSound) Code() TagCode {
	return TagDefineSound
}

func (*SoundStreamBlock) Code() TagCode {
	return TagSoundStreamBlock
}

func (*DefineBits) Code() TagCode {
	return TagDefineBits
}

func (*JPEGTables) Code() TagCode {
	return TagJPEGTables
}

func (*DefineBinaryData) Code() TagCode {
	return TagDefineBinaryData
}

func (*DefineSprite) Code() TagCode {
	return TagDefineSprite
}

func (*ExportAssets) Code() TagCode {
	return TagExportAssets
}

func (*SymbolClass) Code() TagCode {
	return TagSymbolClass
}

func (u *Unknown) Code() TagCode {
	return u.TagCode
}

func (m *Malformed) Code() TagCode {
	return m.TagCode
}

func (h *SoundStreamHead) Code() TagCode {
	if h.Version == 2 {
		return TagSoundStreamHead2
	}
	return TagSoundStreamHead
}

func (j *DefineBitsJPEG) Code() TagCode {
	switch j.Version {
	case 3:
		return TagDefineBitsJPEG3
	case 4:
		return TagDefineBitsJPEG4
	default:
		return TagDefineBitsJPEG2
	}
}

func (l *DefineBitsLossless) Code() TagCode {
	if l.Version == 2 {
		return TagDefineBitsLossless2
	}
	return TagDefineBitsLossless
}

func (m *Malformed) Error() string {
	return fmt.Sprintf("%s: %v", m.TagCode, m.Err)
}

func (m *Malformed) Unwrap() error {
	return m.Err
}
