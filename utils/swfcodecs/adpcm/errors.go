package adpcm

import "errors"

var (
	// ErrInvalidHeader reports a block too short for its channel headers or
	// carrying a code width outside 2..5 bits.
	ErrInvalidHeader = errors.New("adpcm: invalid block header")
)
