package network

import (
	"io"

	"github.com/rustybit-go/rustybit/pkg/network/payload"
	"github.com/rustybit-go/rustybit/pkg/wire"
)

// HeaderSize is the fixed size in bytes of a Message header.
const HeaderSize = 24

// MaxPayloadSize is the largest payload this node will accept, 4 MiB.
const MaxPayloadSize = 4 * 1024 * 1024

// Payload is satisfied by every message variant.
type Payload interface {
	Encode(*wire.BinWriter)
	Decode(*wire.BinReader)
}

// Header is the fixed 24-byte envelope preceding every payload: network
// magic, a 12-byte padded command name, the payload length, and the
// first 4 bytes of the payload's double-SHA-256 checksum.
type Header struct {
	Magic    uint32
	Command  string
	Length   uint32
	Checksum uint32
}

// Encode writes the header.
func (h Header) Encode(w *wire.BinWriter) {
	w.WriteU32LE(h.Magic)
	w.WriteString12(h.Command)
	w.WriteU32LE(h.Length)
	w.WriteU32LE(h.Checksum)
}

// Decode reads the header.
func (h *Header) Decode(r *wire.BinReader) {
	h.Magic = r.ReadU32LE()
	h.Command = r.ReadString12()
	h.Length = r.ReadU32LE()
	h.Checksum = r.ReadU32LE()
}

// Message is a header paired with its decoded body.
type Message struct {
	Header Header
	Body   Payload
}

// newMessage encodes body and builds the Message envelope around it,
// computing the length and checksum fields.
func newMessage(magic uint32, command string, body Payload) (*Message, error) {
	bw := wire.NewBufBinWriter()
	body.Encode(bw.BinWriter)
	if err := bw.Error(); err != nil {
		return nil, err
	}
	raw := bw.Bytes()
	return &Message{
		Header: Header{
			Magic:    magic,
			Command:  command,
			Length:   uint32(len(raw)),
			Checksum: wire.Checksum4(raw),
		},
		Body: body,
	}, nil
}

// encode writes the full header+payload to w.
func (m *Message) encode(w io.Writer) error {
	bw := wire.NewBufBinWriter()
	m.Header.Encode(bw.BinWriter)
	if err := bw.Error(); err != nil {
		return err
	}
	m.Body.Encode(bw.BinWriter)
	if err := bw.Error(); err != nil {
		return err
	}
	_, err := w.Write(bw.Bytes())
	return err
}

// decode reads one full header+payload message from r (assumed to
// already hold a complete message, e.g. a bytes.Buffer in tests) and
// dispatches to the correct variant decoder by command name.
func (m *Message) decode(r io.Reader) error {
	hdrBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return err
	}
	hr := wire.NewBinReaderFromBuf(hdrBuf)
	m.Header.Decode(hr)
	if hr.Err != nil {
		return hr.Err
	}
	if m.Header.Length > MaxPayloadSize {
		return ErrPayloadTooBig
	}
	payloadBuf := make([]byte, m.Header.Length)
	if _, err := io.ReadFull(r, payloadBuf); err != nil {
		return err
	}
	if wire.Checksum4(payloadBuf) != m.Header.Checksum {
		return ErrInvalidChecksum
	}
	body, err := decodeBody(m.Header.Command, payloadBuf)
	if err != nil {
		return err
	}
	m.Body = body
	return nil
}

// decodeBody dispatches on command and decodes body from raw payload
// bytes, returning ErrUnknownCommand for anything outside the
// recognized set.
func decodeBody(command string, raw []byte) (Payload, error) {
	var body Payload
	switch command {
	case CmdVersion:
		body = &payload.Version{}
	case CmdVerAck:
		body = &payload.VerAck{}
	case CmdPing:
		body = &payload.Ping{}
	case CmdPong:
		body = &payload.Pong{}
	case CmdAddr:
		body = &payload.Addr{}
	case CmdInv:
		body = &payload.Inv{}
	case CmdGetData:
		body = &payload.GetData{}
	case CmdReject:
		body = &payload.Reject{}
	case CmdTx:
		body = &payload.Tx{}
	case CmdGetAddr:
		body = &payload.GetAddr{}
	default:
		return nil, ErrUnknownCommand
	}
	r := wire.NewBinReaderFromBuf(raw)
	body.Decode(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return body, nil
}
