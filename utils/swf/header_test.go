package swf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

func TestReadHeader_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"short", []byte("FWS"), ErrInvalidSignature},
		{"bad magic", []byte{'F', 'X', 'S', 10, 8, 0, 0, 0}, ErrInvalidSignature},
		{"unknown compression", []byte{'Q', 'W', 'S', 10, 8, 0, 0, 0}, ErrUnsupportedCompression},
		{"length below header", []byte{'F', 'W', 'S', 10, 4, 0, 0, 0}, ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ReadHeader(bytes.NewReader(tt.in)); !errors.Is(err, tt.want) {
				t.Errorf("ReadHeader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecompress_Uncompressed(t *testing.T) {
	t.Parallel()

	body := movieBody(tagRecord(TagEnd, nil, false))
	h, got, err := Decompress(bytes.NewReader(cat(fileHeader('F', 10, len(body)), body)))
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if h.Compression != CompressionNone || h.Version != 10 {
		t.Errorf("header = %+v, want uncompressed version 10", h)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Decompress() body = %x, want %x", got, body)
	}
}

func TestDecompress_Zlib(t *testing.T) {
	t.Parallel()

	body := movieBody(tagRecord(TagDefineBinaryData, cat(u16(1), u32(0), []byte("payload")), false))
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(body)
	zw.Close()

	h, got, err := Decompress(bytes.NewReader(cat(fileHeader('C', 9, len(body)), z.Bytes())))
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if h.Compression != CompressionZlib {
		t.Errorf("Compression = %v, want zlib", h.Compression)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Decompress() body = %x, want %x", got, body)
	}
}

func TestDecompress_LZMA(t *testing.T) {
	t.Parallel()

	body := movieBody(tagRecord(TagDefineBinaryData, cat(u16(2), u32(0), bytes.Repeat([]byte("abc"), 40)), false))
	var classic bytes.Buffer
	cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(body))}
	lw, err := cfg.NewWriter(&classic)
	if err != nil {
		t.Fatalf("lzma writer: %v", err)
	}
	lw.Write(body)
	lw.Close()

	// Classic header: props(1) dict(4) size(8). SWF keeps props+dict only.
	raw := classic.Bytes()
	stream := raw[13:]
	swfFile := cat(fileHeader('Z', 13, len(body)), u32(uint32(len(stream))), raw[:5], stream)

	h, got, err := Decompress(bytes.NewReader(swfFile))
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if h.Compression != CompressionLZMA {
		t.Errorf("Compression = %v, want lzma", h.Compression)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Decompress() body length = %d, want %d", len(got), len(body))
	}
}

func TestDecompress_ShortUncompressedBody(t *testing.T) {
	t.Parallel()

	body := movieBody()
	in := cat(fileHeader('F', 10, len(body)+100), body)
	_, got, err := Decompress(bytes.NewReader(in))
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Decompress() body = %x, want %x", got, body)
	}
}
