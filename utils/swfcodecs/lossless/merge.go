package lossless

import "fmt"

// ColorModel is the channel layout of an opaque decoded image that receives a
// separate alpha plane.
type ColorModel int

const (
	ModelGray ColorModel = iota
	ModelGray16
	ModelRGB
	ModelCMYK
)

func (m ColorModel) String() string {
	switch m {
	case ModelGray:
		return "gray"
	case ModelGray16:
		return "gray16"
	case ModelRGB:
		return "rgb"
	case ModelCMYK:
		return "cmyk"
	}
	return fmt.Sprintf("ColorModel(%d)", int(m))
}

// MergeAlpha interleaves an 8-bit alpha plane (one byte per pixel, no
// padding) into opaque pixels. Gray16 samples are big-endian and the alpha
// byte is duplicated to 16 bits.
func MergeAlpha(model ColorModel, width, height int, pixels, alpha []byte) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	n := width * height
	if len(alpha) != n {
		return nil, fmt.Errorf("%w: alpha plane has %d bytes, want %d", ErrShortRead, len(alpha), n)
	}

	var (
		srcBPP int
		layout Layout
	)
	switch model {
	case ModelGray:
		srcBPP, layout = 1, LayoutGrayAlpha
	case ModelGray16:
		srcBPP, layout = 2, LayoutGray16Alpha
	case ModelRGB:
		srcBPP, layout = 3, LayoutRGBA
	default:
		return nil, fmt.Errorf("%w: %s pixels cannot take an alpha plane", ErrUnsupportedFormat, model)
	}
	if len(pixels) < n*srcBPP {
		return nil, fmt.Errorf("%w: %s pixels have %d bytes, want %d", ErrShortRead, model, len(pixels), n*srcBPP)
	}

	dstBPP := layout.BytesPerPixel()
	pix := make([]byte, n*dstBPP)
	for i := 0; i < n; i++ {
		s := pixels[i*srcBPP : i*srcBPP+srcBPP]
		d := pix[i*dstBPP : i*dstBPP+dstBPP]
		a := alpha[i]
		switch model {
		case ModelGray:
			d[0], d[1] = s[0], a
		case ModelGray16:
			d[0], d[1], d[2], d[3] = s[0], s[1], a, a
		case ModelRGB:
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], a
		}
	}

	return &PixelBuffer{Width: width, Height: height, Layout: layout, Pix: pix}, nil
}
