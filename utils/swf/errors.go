package swf

import "errors"

var (
	ErrInvalidSignature       = errors.New("swf: invalid file signature")
	ErrUnsupportedCompression = errors.New("swf: unsupported body compression")
	ErrShortTag               = errors.New("swf: tag record extends past end of data")
)
