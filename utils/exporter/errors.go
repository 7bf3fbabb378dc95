package exporter

import "errors"

// ErrOversizedPayload reports a compressed bitmap or alpha plane that
// inflates past the size its record declares.
var ErrOversizedPayload = errors.New("inflated payload exceeds declared size")
