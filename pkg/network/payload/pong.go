package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// Pong echoes the nonce of the Ping it answers.
type Pong struct {
	Nonce uint64
}

// NewPong returns a Pong echoing nonce.
func NewPong(nonce uint64) *Pong {
	return &Pong{Nonce: nonce}
}

// Encode writes the 8-byte LE nonce.
func (p Pong) Encode(w *wire.BinWriter) {
	w.WriteU64LE(p.Nonce)
}

// Decode reads the 8-byte LE nonce.
func (p *Pong) Decode(r *wire.BinReader) {
	p.Nonce = r.ReadU64LE()
}
