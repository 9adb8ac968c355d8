// Package wire implements the primitive binary encoders and decoders
// shared by every message on the wire. Readers and writers accumulate a
// sticky error: once set, subsequent operations become no-ops so callers
// can chain a sequence of writes/reads and check the error once at the
// end, the way pkg/io's BinReader/BinWriter do in the wider ecosystem.
package wire

import (
	"bytes"
	"errors"
	"io"
)

// ErrVarIntTooBig is returned when a decoded VarInt's leading byte
// implies an encoding this codec does not recognize.
var ErrVarIntTooBig = errors.New("wire: invalid varint prefix")

// ErrStringTooLong is returned when a varstr's declared length exceeds
// the protocol-tolerant maximum.
var ErrStringTooLong = errors.New("wire: varstr length exceeds maximum")

// ErrNegativeValue is returned when an encoder is asked to write a
// negative signed integer; the wire format has no representation for one.
var ErrNegativeValue = errors.New("wire: negative value cannot be encoded")

// maxVarStrLen is the decode-time ceiling on varstr's declared length.
const maxVarStrLen = 256

// sanitizeSet is the set of bytes a str12/varstr payload may legally
// contain; anything else is dropped by the decoder (protocol-tolerant).
const sanitizeSet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,;_/:?@"

var sanitizeTable [256]bool

func init() {
	for i := 0; i < len(sanitizeSet); i++ {
		sanitizeTable[sanitizeSet[i]] = true
	}
}

func sanitize(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if sanitizeTable[c] {
			out = append(out, c)
		}
	}
	return out
}

// BinWriter accumulates writes against an underlying io.Writer, sticking
// to the first error encountered.
type BinWriter struct {
	w   io.Writer
	err error
}

// NewBinWriterFromIO wraps w in a BinWriter.
func NewBinWriterFromIO(w io.Writer) *BinWriter {
	return &BinWriter{w: w}
}

// Error returns the first error this writer encountered, if any.
func (w *BinWriter) Error() error {
	return w.err
}

func (w *BinWriter) writeBytes(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

// WriteBytes writes p verbatim, with no length prefix.
func (w *BinWriter) WriteBytes(p []byte) {
	w.writeBytes(p)
}

// WriteBool writes a single 0x00/0x01 byte.
func (w *BinWriter) WriteBool(b bool) {
	if b {
		w.writeBytes([]byte{1})
	} else {
		w.writeBytes([]byte{0})
	}
}

// WriteU8 writes a single byte.
func (w *BinWriter) WriteU8(v uint8) {
	w.writeBytes([]byte{v})
}

// WriteU16LE writes v little-endian.
func (w *BinWriter) WriteU16LE(v uint16) {
	w.writeBytes([]byte{byte(v), byte(v >> 8)})
}

// WriteU16BE writes v big-endian (used only for NetAddr's port field).
func (w *BinWriter) WriteU16BE(v uint16) {
	w.writeBytes([]byte{byte(v >> 8), byte(v)})
}

// WriteU32LE writes v little-endian.
func (w *BinWriter) WriteU32LE(v uint32) {
	w.writeBytes([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// WriteU64LE writes v little-endian.
func (w *BinWriter) WriteU64LE(v uint64) {
	w.writeBytes([]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	})
}

// WriteI32LE writes v little-endian; v must not be negative.
func (w *BinWriter) WriteI32LE(v int32) {
	if w.err != nil {
		return
	}
	if v < 0 {
		w.err = ErrNegativeValue
		return
	}
	w.WriteU32LE(uint32(v))
}

// WriteI64LE writes v little-endian; v must not be negative.
func (w *BinWriter) WriteI64LE(v int64) {
	if w.err != nil {
		return
	}
	if v < 0 {
		w.err = ErrNegativeValue
		return
	}
	w.WriteU64LE(uint64(v))
}

// WriteVarUint writes v as a VarInt: 1 byte if <=252, 0xFD+u16LE if
// <=0xFFFF, 0xFE+u32LE if <=0xFFFFFFFF, else 0xFF+u64LE.
func (w *BinWriter) WriteVarUint(v uint64) {
	switch {
	case v <= 252:
		w.WriteU8(uint8(v))
	case v <= 0xFFFF:
		w.WriteU8(0xFD)
		w.WriteU16LE(uint16(v))
	case v <= 0xFFFFFFFF:
		w.WriteU8(0xFE)
		w.WriteU32LE(uint32(v))
	default:
		w.WriteU8(0xFF)
		w.WriteU64LE(v)
	}
}

// WriteVarBytes writes a VarInt length followed by p.
func (w *BinWriter) WriteVarBytes(p []byte) {
	w.WriteVarUint(uint64(len(p)))
	w.writeBytes(p)
}

// WriteString12 writes s sanitized and zero-padded to exactly 12 bytes.
// s must already fit within 12 sanitized bytes; callers (command names)
// are all fixed literals so this never overflows in practice.
func (w *BinWriter) WriteString12(s string) {
	clean := sanitize([]byte(s))
	if len(clean) > 12 {
		clean = clean[:12]
	}
	var buf [12]byte
	copy(buf[:], clean)
	w.writeBytes(buf[:])
}

// WriteVarString writes s sanitized, as a VarInt length then raw bytes.
func (w *BinWriter) WriteVarString(s string) {
	w.WriteVarBytes(sanitize([]byte(s)))
}

// BufBinWriter is a BinWriter backed by an in-memory buffer, convenient
// for building a payload before it is framed.
type BufBinWriter struct {
	*BinWriter
	buf *bytes.Buffer
}

// NewBufBinWriter returns a BufBinWriter ready to accumulate writes.
func NewBufBinWriter() *BufBinWriter {
	buf := new(bytes.Buffer)
	return &BufBinWriter{BinWriter: NewBinWriterFromIO(buf), buf: buf}
}

// Bytes returns the accumulated bytes. It does not reset the writer.
func (w *BufBinWriter) Bytes() []byte {
	b := w.buf.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// BinReader consumes reads from an underlying byte slice, sticking to
// the first error encountered. Once Err is set, every Read* method
// becomes a no-op returning the zero value, and the read position does
// not advance further.
type BinReader struct {
	Err error

	buf []byte
	pos int
}

// NewBinReaderFromBuf returns a BinReader over buf.
func NewBinReaderFromBuf(buf []byte) *BinReader {
	return &BinReader{buf: buf}
}

func (r *BinReader) readBytes(n int) []byte {
	if r.Err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.Err = io.ErrUnexpectedEOF
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadBytes reads and returns exactly n raw bytes.
func (r *BinReader) ReadBytes(n int) []byte {
	b := r.readBytes(n)
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// ReadBool reads a single 0/1 byte.
func (r *BinReader) ReadBool() bool {
	b := r.readBytes(1)
	if b == nil {
		return false
	}
	return b[0] != 0
}

// ReadU8 reads a single byte.
func (r *BinReader) ReadU8() uint8 {
	b := r.readBytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadU16LE reads a little-endian uint16.
func (r *BinReader) ReadU16LE() uint16 {
	b := r.readBytes(2)
	if b == nil {
		return 0
	}
	return uint16(b[0]) | uint16(b[1])<<8
}

// ReadU16BE reads a big-endian uint16 (NetAddr's port field).
func (r *BinReader) ReadU16BE() uint16 {
	b := r.readBytes(2)
	if b == nil {
		return 0
	}
	return uint16(b[1]) | uint16(b[0])<<8
}

// ReadU32LE reads a little-endian uint32.
func (r *BinReader) ReadU32LE() uint32 {
	b := r.readBytes(4)
	if b == nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// ReadU64LE reads a little-endian uint64.
func (r *BinReader) ReadU64LE() uint64 {
	b := r.readBytes(8)
	if b == nil {
		return 0
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// ReadI32LE reads a little-endian int32.
func (r *BinReader) ReadI32LE() int32 {
	return int32(r.ReadU32LE())
}

// ReadI64LE reads a little-endian int64.
func (r *BinReader) ReadI64LE() int64 {
	return int64(r.ReadU64LE())
}

// ReadVarUint reads a VarInt. Every leading byte value is a valid VarInt
// prefix, so no prefix is rejected; only a read past the end of the
// buffer fails. Overflow cannot happen since Go's uint64 covers the
// full 9-byte range.
func (r *BinReader) ReadVarUint() uint64 {
	if r.Err != nil {
		return 0
	}
	b := r.ReadU8()
	switch b {
	case 0xFD:
		return uint64(r.ReadU16LE())
	case 0xFE:
		return uint64(r.ReadU32LE())
	case 0xFF:
		return r.ReadU64LE()
	default:
		return uint64(b)
	}
}

// ReadVarBytes reads a VarInt length then that many raw bytes. If max is
// given, a declared length above max[0] is a decode error.
func (r *BinReader) ReadVarBytes(max ...int) []byte {
	n := r.ReadVarUint()
	if r.Err != nil {
		return nil
	}
	if len(max) > 0 && n > uint64(max[0]) {
		r.Err = ErrStringTooLong
		return nil
	}
	return r.ReadBytes(int(n))
}

// ReadString12 reads 12 raw bytes, trims trailing NULs, and sanitizes.
func (r *BinReader) ReadString12() string {
	b := r.readBytes(12)
	if b == nil {
		return ""
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(sanitize(b[:end]))
}

// ReadVarString reads a varstr: VarInt length (rejected if >256),
// raw bytes, sanitized.
func (r *BinReader) ReadVarString() string {
	b := r.ReadVarBytes(maxVarStrLen)
	if b == nil {
		return ""
	}
	return string(sanitize(b))
}
