package lossless

import (
	"image"
	"image/color"
)

// Layout describes how PixelBuffer.Pix is organised.
type Layout int

const (
	// LayoutIndexed stores one palette index per pixel.
	LayoutIndexed Layout = iota
	// LayoutRGB stores R, G, B bytes per pixel.
	LayoutRGB
	// LayoutRGBA stores straight (non-premultiplied) R, G, B, A bytes per pixel.
	LayoutRGBA
	// LayoutGrayAlpha stores a gray byte then an alpha byte per pixel.
	LayoutGrayAlpha
	// LayoutGray16Alpha stores big-endian 16-bit gray then 16-bit alpha per pixel.
	LayoutGray16Alpha
)

// BytesPerPixel returns the stride of one pixel in Pix.
func (l Layout) BytesPerPixel() int {
	switch l {
	case LayoutIndexed:
		return 1
	case LayoutRGB:
		return 3
	case LayoutRGBA, LayoutGray16Alpha:
		return 4
	case LayoutGrayAlpha:
		return 2
	}
	return 0
}

func (l Layout) String() string {
	switch l {
	case LayoutIndexed:
		return "indexed"
	case LayoutRGB:
		return "rgb"
	case LayoutRGBA:
		return "rgba"
	case LayoutGrayAlpha:
		return "gray+alpha"
	case LayoutGray16Alpha:
		return "gray16+alpha"
	}
	return "unknown"
}

// Color is a palette entry. A is 0xFF for palettes without alpha.
type Color struct {
	R, G, B, A uint8
}

// Palette is the color table of an indexed image.
type Palette struct {
	Colors   []Color
	HasAlpha bool
}

// PixelBuffer is a decoded image without row padding, top row first.
type PixelBuffer struct {
	Width   int
	Height  int
	Layout  Layout
	Palette *Palette // set only for LayoutIndexed
	Pix     []byte
}

// Stride returns the length of one unpadded row in Pix.
func (b *PixelBuffer) Stride() int {
	return b.Width * b.Layout.BytesPerPixel()
}

// Image converts the buffer into a standard library image for encoding.
// Indexed buffers become *image.Paletted; 8-bit layouts become *image.NRGBA
// (or *image.RGBA for opaque RGB) and 16-bit gray becomes *image.NRGBA64.
func (b *PixelBuffer) Image() image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)
	n := b.Width * b.Height

	switch b.Layout {
	case LayoutIndexed:
		// Every byte value must be addressable; indices past the table
		// render as black, transparent when the table carries alpha.
		pad := color.NRGBA{A: 0xFF}
		pal := make(color.Palette, 256)
		for i := range pal {
			pal[i] = pad
		}
		if b.Palette != nil {
			if b.Palette.HasAlpha {
				for i := range pal {
					pal[i] = color.NRGBA{}
				}
			}
			for i, c := range b.Palette.Colors {
				if i < len(pal) {
					pal[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
				}
			}
		}
		img := image.NewPaletted(rect, pal)
		copy(img.Pix, b.Pix)
		return img
	case LayoutRGB:
		img := image.NewRGBA(rect)
		for i := 0; i < n; i++ {
			img.Pix[i*4+0] = b.Pix[i*3+0]
			img.Pix[i*4+1] = b.Pix[i*3+1]
			img.Pix[i*4+2] = b.Pix[i*3+2]
			img.Pix[i*4+3] = 0xFF
		}
		return img
	case LayoutRGBA:
		img := image.NewNRGBA(rect)
		copy(img.Pix, b.Pix)
		return img
	case LayoutGrayAlpha:
		img := image.NewNRGBA(rect)
		for i := 0; i < n; i++ {
			g, a := b.Pix[i*2], b.Pix[i*2+1]
			img.Pix[i*4+0] = g
			img.Pix[i*4+1] = g
			img.Pix[i*4+2] = g
			img.Pix[i*4+3] = a
		}
		return img
	case LayoutGray16Alpha:
		img := image.NewNRGBA64(rect)
		for i := 0; i < n; i++ {
			gh, gl := b.Pix[i*4], b.Pix[i*4+1]
			ah, al := b.Pix[i*4+2], b.Pix[i*4+3]
			o := img.Pix[i*8 : i*8+8]
			o[0], o[1] = gh, gl
			o[2], o[3] = gh, gl
			o[4], o[5] = gh, gl
			o[6], o[7] = ah, al
		}
		return img
	}
	return image.NewNRGBA(rect)
}
