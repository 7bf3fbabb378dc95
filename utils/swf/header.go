// Package swf reads Flash movie containers: the file header, the optionally
// compressed body and the tag records it holds. Only the tags that carry
// media payloads are decoded into typed bodies.
package swf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// Compression identifies how the movie body following the header is stored.
type Compression byte

const (
	CompressionNone Compression = 'F'
	CompressionZlib Compression = 'C'
	CompressionLZMA Compression = 'Z'
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionLZMA:
		return "lzma"
	default:
		return fmt.Sprintf("Compression(%q)", byte(c))
	}
}

// Header is the fixed 8-byte file header.
type Header struct {
	Compression Compression
	Version     uint8
	// FileLength is the uncompressed length including the header itself.
	FileLength uint32
}

const headerSize = 8

// ReadHeader reads and validates the 8-byte file header.
func ReadHeader(r io.Reader) (*Header, error) {
	var raw [headerSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if raw[1] != 'W' || raw[2] != 'S' {
		return nil, ErrInvalidSignature
	}
	h := &Header{
		Compression: Compression(raw[0]),
		Version:     raw[3],
		FileLength:  binary.LittleEndian.Uint32(raw[4:]),
	}
	switch h.Compression {
	case CompressionNone, CompressionZlib, CompressionLZMA:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, h.Compression)
	}
	if h.FileLength < headerSize {
		return nil, fmt.Errorf("%w: file length %d", ErrInvalidSignature, h.FileLength)
	}
	return h, nil
}

// Decompress reads the header from r and returns the uncompressed movie body
// (everything after the 8-byte header). A body shorter than FileLength is
// returned as-is when at least some of it could be read.
func Decompress(r io.Reader) (*Header, []byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}

	var body io.Reader
	switch h.Compression {
	case CompressionNone:
		body = r
	case CompressionZlib:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("swf: open zlib body: %w", err)
		}
		defer zr.Close()
		body = zr
	case CompressionLZMA:
		lr, err := newLZMAReader(r, h.FileLength-headerSize)
		if err != nil {
			return nil, nil, err
		}
		body = lr
	}

	want := int64(h.FileLength - headerSize)
	data, err := io.ReadAll(io.LimitReader(body, want))
	if err != nil && !(errors.Is(err, io.ErrUnexpectedEOF) && len(data) > 0) {
		return nil, nil, fmt.Errorf("swf: read %s body: %w", h.Compression, err)
	}
	return h, data, nil
}

// newLZMAReader converts the SWF LZMA preamble (compressed length, 5 property
// bytes) into the classic .lzma header the decoder expects.
func newLZMAReader(r io.Reader, size uint32) (io.Reader, error) {
	var pre [9]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, fmt.Errorf("swf: read lzma preamble: %w", err)
	}
	var hdr [13]byte
	copy(hdr[:5], pre[4:9])
	binary.LittleEndian.PutUint64(hdr[5:], uint64(size))
	lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr[:]), r))
	if err != nil {
		return nil, fmt.Errorf("swf: open lzma body: %w", err)
	}
	return lr, nil
}
