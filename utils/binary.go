package utils

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrShortBuffer is returned when a field runs past the end of the stream.
var ErrShortBuffer = errors.New("binary stream: unexpected end of data")

// BinaryStream reads fixed-width fields from an in-memory record body.
type BinaryStream struct {
	BaseStream *bytes.Reader
	Endian     binary.ByteOrder
}

func NewBinaryStream(data []byte, endian string) *BinaryStream {
	bs := &BinaryStream{
		BaseStream: bytes.NewReader(data),
	}
	if endian == "big" {
		bs.Endian = binary.BigEndian
	} else {
		bs.Endian = binary.LittleEndian
	}
	return bs
}

func (bs *BinaryStream) readFull(n int) ([]byte, error) {
	if n < 0 || n > bs.BaseStream.Len() {
		return nil, ErrShortBuffer
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(bs.BaseStream, buf); err != nil {
		return nil, ErrShortBuffer
	}
	return buf, nil
}

// Len returns the number of unread bytes.
func (bs *BinaryStream) Len() int {
	return bs.BaseStream.Len()
}

// Pos returns the current offset from the start of the stream.
func (bs *BinaryStream) Pos() int64 {
	pos, _ := bs.BaseStream.Seek(0, io.SeekCurrent)
	return pos
}

func (bs *BinaryStream) ReadByte() (byte, error) {
	b, err := bs.BaseStream.ReadByte()
	if err != nil {
		return 0, ErrShortBuffer
	}
	return b, nil
}

func (bs *BinaryStream) ReadBytes(length int) ([]byte, error) {
	return bs.readFull(length)
}

// ReadRest returns every unread byte. The result does not alias the input.
func (bs *BinaryStream) ReadRest() []byte {
	buf, _ := bs.readFull(bs.Len())
	return buf
}

func (bs *BinaryStream) ReadUInt8() (uint8, error) {
	return bs.ReadByte()
}

func (bs *BinaryStream) ReadInt16() (int16, error) {
	v, err := bs.ReadUInt16()
	return int16(v), err
}

func (bs *BinaryStream) ReadUInt16() (uint16, error) {
	buf, err := bs.readFull(2)
	if err != nil {
		return 0, err
	}
	return bs.Endian.Uint16(buf), nil
}

func (bs *BinaryStream) ReadInt32() (int32, error) {
	v, err := bs.ReadUInt32()
	return int32(v), err
}

func (bs *BinaryStream) ReadUInt32() (uint32, error) {
	buf, err := bs.readFull(4)
	if err != nil {
		return 0, err
	}
	return bs.Endian.Uint32(buf), nil
}

func (bs *BinaryStream) ReadFloat32() (float32, error) {
	v, err := bs.ReadUInt32()
	return math.Float32frombits(v), err
}

// ReadFixed8 reads an 8.8 fixed point value (fraction byte first in little endian).
func (bs *BinaryStream) ReadFixed8() (float32, error) {
	v, err := bs.ReadUInt16()
	if err != nil {
		return 0, err
	}
	return float32(v) / 256, nil
}

// ReadStringToNull reads bytes up to and excluding a NUL terminator.
func (bs *BinaryStream) ReadStringToNull() ([]byte, error) {
	var result []byte
	for {
		b, err := bs.ReadByte()
		if err != nil {
			return result, err
		}
		if b == 0 {
			break
		}
		result = append(result, b)
	}
	return result, nil
}

func (bs *BinaryStream) Skip(n int) error {
	if n < 0 || n > bs.Len() {
		return ErrShortBuffer
	}
	_, err := bs.BaseStream.Seek(int64(n), io.SeekCurrent)
	return err
}
