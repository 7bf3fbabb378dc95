package extractor

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"haruki-swf-extractor/config"
)

const (
	codeEnd              = 0
	codeShowFrame        = 1
	codeDefineSound      = 14
	codeSoundStreamHead  = 18
	codeSoundStreamBlock = 19
	codeLossless         = 20
	codeDefineSprite     = 39
	codeExportAssets     = 56
	codeDefineBinaryData = 87
)

// rampBlock is a 2-bit mono ADPCM block decoding to 3, 6, 9, 12.
var rampBlock = []byte{0x00, 0x00, 0x00, 0x00}

// Sound format bytes for ADPCM, 22 kHz, 16-bit.
const (
	adpcmMono22k   = 0x1A
	adpcmStereo22k = 0x1B
)

func u16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func tagRecord(code uint16, body []byte) []byte {
	if len(body) < 0x3F {
		return cat(u16(code<<6|uint16(len(body))), body)
	}
	return cat(u16(code<<6|0x3F), u32(uint32(len(body))), body)
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// movie builds an uncompressed SWF 10 file around the given records.
func movie(records ...[]byte) []byte {
	body := cat([]byte{0x00, 0x00, 0x18, 0x01, 0x00}, cat(records...), tagRecord(codeEnd, nil))
	return cat([]byte{'F', 'W', 'S', 10}, u32(uint32(len(body)+8)), body)
}

func defineSound(id uint16, samples uint32, data []byte) []byte {
	return tagRecord(codeDefineSound, cat(u16(id), []byte{adpcmMono22k}, u32(samples), data))
}

func streamHead() []byte {
	return streamHeadFormat(adpcmMono22k)
}

func streamHeadFormat(format byte) []byte {
	return tagRecord(codeSoundStreamHead, cat([]byte{0x0A, format}, u16(4)))
}

func streamBlock(data []byte) []byte {
	return tagRecord(codeSoundStreamBlock, data)
}

// colormapped is a 2x2 DefineBitsLossless with a red and blue palette.
func colormapped(t *testing.T, id uint16) []byte {
	payload := []byte{
		0xFF, 0x00, 0x00,
		0x00, 0x00, 0xFF,
		0, 1, 0, 0,
		1, 0, 0, 0,
	}
	return tagRecord(codeLossless, cat(u16(id), []byte{3}, u16(2), u16(2), []byte{1}, deflate(t, payload)))
}

func binaryData(id uint16, data []byte) []byte {
	return tagRecord(codeDefineBinaryData, cat(u16(id), u32(0), data))
}

func sprite(id uint16, records ...[]byte) []byte {
	return tagRecord(codeDefineSprite, cat(u16(id), u16(1), cat(records...), tagRecord(codeEnd, nil)))
}

func exportAssets(id uint16, name string) []byte {
	return tagRecord(codeExportAssets, cat(u16(1), u16(id), []byte(name), []byte{0}))
}

func writeMovie(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.swf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Extractor.OutputDir = t.TempDir()
	cfg.Extractor.ExtractedRecordFile = filepath.Join(t.TempDir(), "records.json")
	return cfg
}

func newTestExtractor(t *testing.T, cfg config.Config) *HarukiSWFExtractor {
	t.Helper()
	ex, err := NewHarukiSWFExtractor(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewHarukiSWFExtractor() error = %v", err)
	}
	t.Cleanup(ex.Close)
	return ex
}
