package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/klauspost/compress/zlib"

	"haruki-swf-extractor/utils/swf"
	"haruki-swf-extractor/utils/swfcodecs/lossless"
)

const (
	KindPNG     = "png"
	KindJPEG    = "jpeg"
	KindGIF     = "gif"
	KindWebP    = "webp"
	KindUnknown = "bin"
)

var (
	gifMagic  = []byte("GIF8")
	jpegMagic = []byte{0xFF, 0xD8}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	// Flash writes this EOI+SOI pair in front of some JPEG payloads.
	erroneousJPEGHeader = []byte{0xFF, 0xD9, 0xFF, 0xD8}
)

// DetectImageKind sniffs the container of an embedded image payload.
func DetectImageKind(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return KindPNG
	case bytes.HasPrefix(data, gifMagic):
		return KindGIF
	case bytes.HasPrefix(data, erroneousJPEGHeader), bytes.HasPrefix(data, jpegMagic):
		return KindJPEG
	default:
		return KindUnknown
	}
}

// StripErroneousJPEGHeader removes a leading EOI+SOI marker pair.
func StripErroneousJPEGHeader(data []byte) []byte {
	if bytes.HasPrefix(data, erroneousJPEGHeader) {
		return data[len(erroneousJPEGHeader):]
	}
	return data
}

// JoinJPEGTables builds a standalone JPEG from the movie's shared encoding
// tables and a DefineBits payload: the tables' EOI and the image's SOI are
// dropped so both halves form one stream.
func JoinJPEGTables(tables, data []byte) []byte {
	tables = StripErroneousJPEGHeader(tables)
	data = StripErroneousJPEGHeader(data)
	if len(tables) < 4 {
		return data
	}
	if bytes.HasSuffix(tables, []byte{0xFF, 0xD9}) {
		tables = tables[:len(tables)-2]
	}
	data = bytes.TrimPrefix(data, jpegMagic)
	joined := make([]byte, 0, len(tables)+len(data))
	return append(append(joined, tables...), data...)
}

// Bitmap is one image ready to be written: either an embedded file passed
// through unchanged, or pixels rebuilt from the movie's own formats.
type Bitmap struct {
	ID      uint16
	Kind    string
	Encoded []byte
	Pixels  *lossless.PixelBuffer
}

// Extension returns the file extension Save will use.
func (b *Bitmap) Extension(webp bool) string {
	if b.Pixels == nil {
		return b.Kind
	}
	if webp {
		return KindWebP
	}
	return KindPNG
}

// Save writes the bitmap to basePath plus the extension and returns the path.
// Rebuilt pixels are encoded as PNG, or lossless WebP when webp is set.
func (b *Bitmap) Save(basePath string, webp bool) (string, error) {
	path := basePath + "." + b.Extension(webp)
	if b.Pixels == nil {
		if err := os.WriteFile(path, b.Encoded, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeImage(f, b.Pixels.Image(), webp); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// EncodeImage writes img as PNG or lossless WebP.
func EncodeImage(w io.Writer, img image.Image, webp bool) error {
	if img.Bounds().Empty() {
		return fmt.Errorf("invalid image size %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if webp {
		return nativewebp.Encode(w, img, &nativewebp.Options{})
	}
	return png.Encode(w, img)
}

// inflate decompresses data, failing once the output exceeds limit bytes.
func inflate(data []byte, limit int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open zlib stream: %w", err)
	}
	defer func(zr io.ReadCloser) {
		_ = zr.Close()
	}(zr)
	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate: %w", err)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrOversizedPayload, limit)
	}
	return out, nil
}

// LosslessPixelFormat maps a DefineBitsLossless record to its payload layout.
// unpremultiply applies to the 32-bit alpha format only.
func LosslessPixelFormat(tag *swf.DefineBitsLossless, unpremultiply bool) (lossless.PixelFormat, error) {
	alpha := tag.Version == 2
	switch tag.Format {
	case swf.LosslessColormapped:
		return lossless.Indexed8{NumColors: int(tag.NumColors), HasAlpha: alpha}, nil
	case swf.LosslessRGB15:
		if alpha {
			break
		}
		return lossless.Rgb15{}, nil
	case swf.LosslessRGB24:
		if alpha {
			return lossless.Rgba32{AlphaFirst: true, Premultiplied: unpremultiply}, nil
		}
		return lossless.Rgb24{}, nil
	}
	return nil, fmt.Errorf("%w: lossless v%d format %d", lossless.ErrUnsupportedFormat, tag.Version, tag.Format)
}

// DecodeLossless inflates and rebuilds a DefineBitsLossless record.
func DecodeLossless(tag *swf.DefineBitsLossless, unpremultiply bool) (*Bitmap, error) {
	format, err := LosslessPixelFormat(tag, unpremultiply)
	if err != nil {
		return nil, err
	}
	payload, err := inflate(tag.ZlibData, lossless.RequiredSize(int(tag.Width), int(tag.Height), format))
	if err != nil {
		return nil, fmt.Errorf("bitmap %d: %w", tag.ID, err)
	}
	buf, err := lossless.Reconstruct(int(tag.Width), int(tag.Height), format, payload)
	if err != nil {
		return nil, fmt.Errorf("bitmap %d: %w", tag.ID, err)
	}
	return &Bitmap{ID: tag.ID, Kind: KindPNG, Pixels: buf}, nil
}

// DecodeEmbedded handles JPEG, PNG and GIF payloads. Without an alpha plane
// the file passes through; with one, the JPEG is decoded and the inflated
// plane merged into its pixels.
func DecodeEmbedded(id uint16, data, alphaZlib []byte) (*Bitmap, error) {
	data = StripErroneousJPEGHeader(data)
	kind := DetectImageKind(data)
	if len(alphaZlib) == 0 || kind != KindJPEG {
		return &Bitmap{ID: id, Kind: kind, Encoded: data}, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bitmap %d: failed to decode JPEG: %w", id, err)
	}
	b := img.Bounds()
	alpha, err := inflate(alphaZlib, b.Dx()*b.Dy())
	if err != nil {
		return nil, fmt.Errorf("bitmap %d alpha: %w", id, err)
	}
	model, pix := opaquePixels(img)
	buf, err := lossless.MergeAlpha(model, b.Dx(), b.Dy(), pix, alpha)
	if err != nil {
		return nil, fmt.Errorf("bitmap %d: %w", id, err)
	}
	return &Bitmap{ID: id, Kind: KindPNG, Pixels: buf}, nil
}

// opaquePixels flattens a decoded JPEG into unpadded rows for MergeAlpha.
func opaquePixels(img image.Image) (lossless.ColorModel, []byte) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := img.(type) {
	case *image.Gray:
		pix := make([]byte, 0, w*h)
		for y := 0; y < h; y++ {
			off := y * src.Stride
			pix = append(pix, src.Pix[off:off+w]...)
		}
		return lossless.ModelGray, pix
	case *image.Gray16:
		pix := make([]byte, 0, w*h*2)
		for y := 0; y < h; y++ {
			off := y * src.Stride
			pix = append(pix, src.Pix[off:off+w*2]...)
		}
		return lossless.ModelGray16, pix
	case *image.CMYK:
		return lossless.ModelCMYK, src.Pix
	}

	pix := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			pix = append(pix, c.R, c.G, c.B)
		}
	}
	return lossless.ModelRGB, pix
}
