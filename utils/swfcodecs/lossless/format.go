// Package lossless rebuilds canonical pixel buffers from the raw (already
// inflated) payload of SWF lossless bitmaps.
//
// Row padding: every row is padded to a multiple of 4 bytes, except for
// 4-byte pixel formats whose rows are always aligned. Padding is read and
// dropped, it never reaches the returned buffer.
package lossless

import (
	"encoding/binary"
	"fmt"
)

// PixelFormat is the closed set of payload layouts. Each variant supplies its
// own reconstruct method, so a new variant must implement it to compile.
type PixelFormat interface {
	fmt.Stringer
	requiredSize(width, height int) int
	reconstruct(width, height int, payload []byte) (*PixelBuffer, error)
}

// Indexed8 is an 8-bit colormapped image. NumColors is the declared color
// count, the palette holds NumColors+1 entries. HasAlpha selects RGBA palette
// entries instead of RGB.
type Indexed8 struct {
	NumColors int
	HasAlpha  bool
}

// Rgb15 is a big-endian 0RRRRRGG GGGBBBBB word per pixel.
type Rgb15 struct{}

// Rgb24 is 8-bit RGB. Packed3Byte selects tightly packed R,G,B triples with
// row padding; otherwise every pixel is a reserved byte followed by R,G,B.
type Rgb24 struct {
	Packed3Byte bool
}

// Rgba32 is four bytes per pixel copied through as RGBA. AlphaFirst reads
// A,R,G,B sources; Premultiplied divides color channels by alpha.
type Rgba32 struct {
	AlphaFirst    bool
	Premultiplied bool
}

// Cmyk32 is recognised so callers can name it, and always rejected.
type Cmyk32 struct{}

func (f Indexed8) String() string {
	if f.HasAlpha {
		return fmt.Sprintf("indexed8+alpha(%d)", f.NumColors+1)
	}
	return fmt.Sprintf("indexed8(%d)", f.NumColors+1)
}

func (Rgb15) String() string { return "rgb15" }

func (f Rgb24) String() string {
	if f.Packed3Byte {
		return "rgb24"
	}
	return "xrgb32"
}

func (f Rgba32) String() string {
	if f.AlphaFirst {
		return "argb32"
	}
	return "rgba32"
}

func (Cmyk32) String() string { return "cmyk32" }

func (f Indexed8) requiredSize(width, height int) int {
	return f.paletteBytes() + PaddedRowBytes(width)*height
}

func (Rgb15) requiredSize(width, height int) int {
	return PaddedRowBytes(2*width) * height
}

func (f Rgb24) requiredSize(width, height int) int {
	if f.Packed3Byte {
		return PaddedRowBytes(3*width) * height
	}
	return 4 * width * height
}

func (Rgba32) requiredSize(width, height int) int {
	return 4 * width * height
}

func (Cmyk32) requiredSize(width, height int) int {
	return 4 * width * height
}

// PaddedRowBytes rounds a raw row length up to the 4-byte boundary.
func PaddedRowBytes(rowBytes int) int {
	return (rowBytes + 3) &^ 3
}

// Scale5To8 widens a 5-bit channel to 8 bits as v*255/31, truncating.
func Scale5To8(v uint16) uint8 {
	return uint8(uint32(v&0x1F) * 255 / 31)
}

// Reconstruct decodes payload according to format.
func Reconstruct(width, height int, format PixelFormat, payload []byte) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return format.reconstruct(width, height, payload)
}

// RequiredSize returns the payload length a format needs for the given size.
func RequiredSize(width, height int, format PixelFormat) int {
	return format.requiredSize(width, height)
}

func shortRead(format PixelFormat, need, have int) error {
	return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrShortRead, format, need, have)
}

func (f Indexed8) components() int {
	if f.HasAlpha {
		return 4
	}
	return 3
}

func (f Indexed8) paletteBytes() int {
	return f.components() * (f.NumColors + 1)
}

func (f Indexed8) reconstruct(width, height int, payload []byte) (*PixelBuffer, error) {
	if f.NumColors < 0 || f.NumColors > 255 {
		return nil, fmt.Errorf("%w: %d palette colors", ErrUnsupportedFormat, f.NumColors+1)
	}
	need := f.requiredSize(width, height)
	if len(payload) < need {
		return nil, shortRead(f, need, len(payload))
	}

	comps := f.components()
	pal := &Palette{
		Colors:   make([]Color, f.NumColors+1),
		HasAlpha: f.HasAlpha,
	}
	for i := range pal.Colors {
		e := payload[i*comps : i*comps+comps]
		c := Color{R: e[0], G: e[1], B: e[2], A: 0xFF}
		if f.HasAlpha {
			c.A = e[3]
		}
		pal.Colors[i] = c
	}

	src := payload[f.paletteBytes():]
	stride := PaddedRowBytes(width)
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		copy(pix[y*width:(y+1)*width], src[y*stride:y*stride+width])
	}

	return &PixelBuffer{
		Width:   width,
		Height:  height,
		Layout:  LayoutIndexed,
		Palette: pal,
		Pix:     pix,
	}, nil
}

func (f Rgb15) reconstruct(width, height int, payload []byte) (*PixelBuffer, error) {
	need := f.requiredSize(width, height)
	if len(payload) < need {
		return nil, shortRead(f, need, len(payload))
	}

	stride := PaddedRowBytes(2 * width)
	pix := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		row := payload[y*stride:]
		out := pix[y*width*3:]
		for x := 0; x < width; x++ {
			word := binary.BigEndian.Uint16(row[x*2:])
			out[x*3+0] = Scale5To8(word >> 10)
			out[x*3+1] = Scale5To8(word >> 5)
			out[x*3+2] = Scale5To8(word)
		}
	}

	return &PixelBuffer{Width: width, Height: height, Layout: LayoutRGB, Pix: pix}, nil
}

func (f Rgb24) reconstruct(width, height int, payload []byte) (*PixelBuffer, error) {
	need := f.requiredSize(width, height)
	if len(payload) < need {
		return nil, shortRead(f, need, len(payload))
	}

	pix := make([]byte, width*height*3)
	if f.Packed3Byte {
		stride := PaddedRowBytes(3 * width)
		for y := 0; y < height; y++ {
			copy(pix[y*width*3:(y+1)*width*3], payload[y*stride:y*stride+width*3])
		}
	} else {
		for i := 0; i < width*height; i++ {
			copy(pix[i*3:i*3+3], payload[i*4+1:i*4+4])
		}
	}

	return &PixelBuffer{Width: width, Height: height, Layout: LayoutRGB, Pix: pix}, nil
}

func (f Rgba32) reconstruct(width, height int, payload []byte) (*PixelBuffer, error) {
	need := f.requiredSize(width, height)
	if len(payload) < need {
		return nil, shortRead(f, need, len(payload))
	}

	pix := make([]byte, need)
	if f.AlphaFirst {
		for i := 0; i < width*height; i++ {
			s := payload[i*4 : i*4+4]
			pix[i*4+0] = s[1]
			pix[i*4+1] = s[2]
			pix[i*4+2] = s[3]
			pix[i*4+3] = s[0]
		}
	} else {
		copy(pix, payload[:need])
	}
	if f.Premultiplied {
		unpremultiply(pix)
	}

	return &PixelBuffer{Width: width, Height: height, Layout: LayoutRGBA, Pix: pix}, nil
}

func (f Cmyk32) reconstruct(int, int, []byte) (*PixelBuffer, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// unpremultiply converts RGBA quadruples in place. Fully transparent pixels
// keep zero color.
func unpremultiply(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		a := uint32(pix[i+3])
		if a == 0 || a == 0xFF {
			continue
		}
		for c := 0; c < 3; c++ {
			v := (uint32(pix[i+c])*0xFF + a/2) / a
			if v > 0xFF {
				v = 0xFF
			}
			pix[i+c] = uint8(v)
		}
	}
}
