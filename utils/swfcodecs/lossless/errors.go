package lossless

import "errors"

var (
	// ErrShortRead reports a payload or alpha plane smaller than the layout needs.
	ErrShortRead = errors.New("lossless: not enough bytes available")
	// ErrUnsupportedFormat reports pixel data this package will not convert, such as CMYK.
	ErrUnsupportedFormat = errors.New("lossless: unsupported pixel format")
	// ErrInvalidDimensions reports a negative width or height.
	ErrInvalidDimensions = errors.New("lossless: invalid dimensions")
)
