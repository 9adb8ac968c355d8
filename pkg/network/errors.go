package network

import "errors"

// Read errors.
var (
	ErrEOF           = errors.New("network: connection closed")
	ErrReadTimeout   = errors.New("network: read timeout")
	ErrIncomplete    = errors.New("network: incomplete read")
	ErrReadIO        = errors.New("network: read I/O error")
	ErrPayloadTooBig = errors.New("network: payload exceeds maximum size")
	ErrInvalidChecksum = errors.New("network: payload checksum mismatch")
	ErrWrongNetwork  = errors.New("network: network magic mismatch")
	ErrUnknownCommand = errors.New("network: unknown command")
)

// Write errors.
var (
	ErrWriteIO      = errors.New("network: write I/O error")
	ErrWriteTimeout = errors.New("network: write timeout")
)

// Connection errors.
var (
	ErrConnectError = errors.New("network: connect failed")
	ErrNotConnected = errors.New("network: not connected")
)

// Protocol errors.
var (
	ErrDoubleHandshake         = errors.New("network: duplicate version message")
	ErrUnsupportedProtoVersion = errors.New("network: unsupported protocol version")
	ErrPingTimeout             = errors.New("network: ping timed out")
)

// nonFatal is the closed set of errors that do not terminate a Peer.
// Everything else returned from the codec or the connection is fatal.
var nonFatal = map[error]struct{}{
	ErrReadTimeout:    {},
	ErrIncomplete:     {},
	ErrUnknownCommand: {},
}

// IsFatal classifies err per the taxonomy in this package: a nil error
// is never fatal, the handful of errors above are never fatal, and
// everything else (including errors wrapping one of these via %w) is
// fatal and must terminate the affected Peer.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for sentinel := range nonFatal {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}
