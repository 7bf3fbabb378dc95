package swf

import (
	"bytes"
	"encoding/binary"
)

// bitWriter packs MSB-first bit fields.
type bitWriter struct {
	buf  []byte
	used int
}

func (w *bitWriter) write(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.used%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.used%8)
		}
		w.used++
	}
}

func u16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// tagRecord encodes a tag using the short header form when possible.
func tagRecord(code TagCode, body []byte, forceLong bool) []byte {
	if len(body) < 0x3F && !forceLong {
		return cat(u16(uint16(code)<<6|uint16(len(body))), body)
	}
	return cat(u16(uint16(code)<<6|0x3F), u32(uint32(len(body))), body)
}

// movieBody is an empty frame RECT, 24 fps, one frame, then the records.
func movieBody(records ...[]byte) []byte {
	return cat([]byte{0x00, 0x00, 0x18, 0x01, 0x00}, cat(records...))
}

func fileHeader(sig byte, version uint8, bodyLen int) []byte {
	return cat([]byte{sig, 'W', 'S', version}, u32(uint32(bodyLen+headerSize)))
}
