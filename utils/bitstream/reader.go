// Package bitstream reads most-significant-bit-first bit fields from a byte
// slice. SWF stores every packed field (RECT coordinates, sound format
// nibbles, ADPCM codes) in this order regardless of the byte order used for
// whole integers.
package bitstream

import (
	"errors"
	"fmt"
)

// ErrOverrun is returned when a read asks for more bits than remain.
var ErrOverrun = errors.New("bitstream: not enough bits")

// Reader is a cursor over a byte slice. It never copies the slice.
type Reader struct {
	data []byte
	size int // total bits
	bit  int // next bit position
}

// NewReader returns a Reader positioned at the first bit of data.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
		size: len(data) * 8,
	}
}

// Remaining reports how many unread bits are left.
func (r *Reader) Remaining() int {
	return r.size - r.bit
}

// BitPos returns the absolute bit position of the cursor.
func (r *Reader) BitPos() int {
	return r.bit
}

// BytePos returns the index of the byte holding the next bit.
func (r *Reader) BytePos() int {
	return r.bit >> 3
}

// Peek returns the next n bits (n <= 32) without consuming them.
func (r *Reader) Peek(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, fmt.Errorf("bitstream: invalid width %d", n)
	}
	if n == 0 {
		return 0, nil
	}
	if r.bit+n > r.size {
		return 0, ErrOverrun
	}

	var v uint32
	pos := r.bit
	left := n
	for left > 0 {
		cur := r.data[pos>>3]
		used := pos & 7
		avail := 8 - used
		take := min(avail, left)
		chunk := (uint32(cur) >> (avail - take)) & ((1 << take) - 1)
		v = v<<take | chunk
		pos += take
		left -= take
	}
	return v, nil
}

// Read consumes n bits (n <= 32) and returns them as an unsigned value.
// On ErrOverrun the cursor does not move.
func (r *Reader) Read(n int) (uint32, error) {
	v, err := r.Peek(n)
	if err != nil {
		return 0, err
	}
	r.bit += n
	return v, nil
}

// ReadSigned consumes n bits and sign-extends them from bit n-1.
func (r *Reader) ReadSigned(n int) (int32, error) {
	v, err := r.Read(n)
	if err != nil {
		return 0, err
	}
	if n == 0 || n == 32 {
		return int32(v), nil
	}
	shift := 32 - n
	return int32(v<<shift) >> shift, nil
}

// ReadBool consumes a single bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.Read(1)
	return v == 1, err
}

// Skip advances the cursor by n bits.
func (r *Reader) Skip(n int) error {
	if r.bit+n > r.size {
		return ErrOverrun
	}
	r.bit += n
	return nil
}

// Align moves the cursor to the next byte boundary.
func (r *Reader) Align() {
	if rem := r.bit & 7; rem != 0 {
		r.bit += 8 - rem
	}
	if r.bit > r.size {
		r.bit = r.size
	}
}
