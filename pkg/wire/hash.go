package wire

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the length in bytes of a Hash.
const HashSize = 32

// Hash is a 32-byte double-SHA-256 digest. Its wire encoding is the
// byte-reverse of its logical value; its display form (String) is hex,
// big-endian, matching how block explorers print Bitcoin hashes.
type Hash [HashSize]byte

// DoubleSHA256 returns the double-SHA-256 digest of p as a Hash.
func DoubleSHA256(p []byte) Hash {
	first := sha256.Sum256(p)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Checksum4 returns the first 4 bytes of the double-SHA-256 of p,
// interpreted little-endian, as used for the message header checksum.
func Checksum4(p []byte) uint32 {
	h := DoubleSHA256(p)
	return uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16 | uint32(h[3])<<24
}

// Encode writes the hash in wire order (byte-reversed).
func (h Hash) Encode(w *BinWriter) {
	var rev [HashSize]byte
	for i := range h {
		rev[i] = h[HashSize-1-i]
	}
	w.WriteBytes(rev[:])
}

// Decode reads a hash in wire order (byte-reversed).
func (h *Hash) Decode(r *BinReader) {
	b := r.ReadBytes(HashSize)
	if b == nil {
		return
	}
	for i := range b {
		h[i] = b[HashSize-1-i]
	}
}

// String renders the hash as hex in its logical (big-endian display)
// order — the order callers construct and compare Hash values in. The
// wire encoding of the same value is this slice reversed; see Encode.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Equals reports whether h and o hold the same logical value.
func (h Hash) Equals(o Hash) bool {
	return h == o
}
