package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rustybit-go/rustybit/pkg/wire"
)

// readTimeout bounds each individual socket read FrameReader performs.
// A read that times out is non-fatal: it gives the Peer's main loop a
// chance to run its periodic tasks between waits for data.
const readTimeout = 500 * time.Millisecond

const readChunkSize = 4096

// FrameReader turns a byte stream into one complete typed Message at a
// time. It owns a bounded internal buffer (HeaderSize+MaxPayloadSize)
// that persists across calls, so a per-read timeout loses no partial
// progress: the next ReadMessage call resumes exactly where the last
// one left off.
type FrameReader struct {
	conn  net.Conn
	magic uint32
	buf   []byte
}

// NewFrameReader returns a FrameReader that validates incoming headers
// against magic.
func NewFrameReader(conn net.Conn, magic uint32) *FrameReader {
	return &FrameReader{conn: conn, magic: magic}
}

// ReadMessage reads and decodes one message. While no complete message
// is buffered it keeps issuing socket Reads, each bounded by readTimeout;
// a Read that times out returns ErrReadTimeout so the caller can
// interleave periodic work, then call ReadMessage again to resume.
func (f *FrameReader) ReadMessage() (*Message, error) {
	for {
		if msg, err, ok := f.tryParse(); ok {
			return msg, err
		}

		if err := f.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadIO, err)
		}
		chunk := make([]byte, readChunkSize)
		n, err := f.conn.Read(chunk)
		if n > 0 {
			f.buf = append(f.buf, chunk[:n]...)
			if err == nil {
				continue
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, ErrReadTimeout
			}
			if errors.Is(err, io.EOF) {
				return nil, ErrEOF
			}
			return nil, fmt.Errorf("%w: %v", ErrReadIO, err)
		}
	}
}

// tryParse attempts to parse one message out of the already-buffered
// bytes without touching the network. ok is false when more data is
// needed; when ok is true, the caller should return (msg, err)
// immediately (err may be the fatal PayloadTooBig/InvalidChecksum/
// WrongNetwork cases, or the non-fatal UnknownCommand).
func (f *FrameReader) tryParse() (*Message, error, bool) {
	if len(f.buf) < HeaderSize {
		return nil, nil, false
	}
	var hdr Header
	hr := wire.NewBinReaderFromBuf(f.buf[:HeaderSize])
	hdr.Decode(hr)

	if hdr.Length > MaxPayloadSize {
		f.buf = nil
		return nil, ErrPayloadTooBig, true
	}

	total := HeaderSize + int(hdr.Length)
	if len(f.buf) < total {
		return nil, nil, false
	}

	payload := f.buf[HeaderSize:total]
	checksum := wire.Checksum4(payload)
	leftover := f.buf[total:]

	switch {
	case checksum != hdr.Checksum:
		f.advance(leftover)
		return nil, ErrInvalidChecksum, true
	case hdr.Magic != f.magic:
		f.advance(leftover)
		return nil, ErrWrongNetwork, true
	}

	body, err := decodeBody(hdr.Command, payload)
	if err != nil {
		// Unknown command: the whole buffer is cleared, not just the
		// bytes of this message, per this node's framing contract.
		f.buf = nil
		return nil, ErrUnknownCommand, true
	}
	f.advance(leftover)
	return &Message{Header: hdr, Body: body}, nil, true
}

func (f *FrameReader) advance(leftover []byte) {
	next := make([]byte, len(leftover))
	copy(next, leftover)
	f.buf = next
}
