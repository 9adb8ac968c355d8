package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// Ping carries an 8-byte nonce the remote must echo back in a Pong.
// The Peer engine encodes the nonce as a (seconds, milliseconds) send
// time to infer round-trip lag from the Pong alone — see
// network.encodePingNonce.
type Ping struct {
	Nonce uint64
}

// NewPing returns a Ping carrying nonce.
func NewPing(nonce uint64) *Ping {
	return &Ping{Nonce: nonce}
}

// Encode writes the 8-byte LE nonce.
func (p Ping) Encode(w *wire.BinWriter) {
	w.WriteU64LE(p.Nonce)
}

// Decode reads the 8-byte LE nonce.
func (p *Ping) Decode(r *wire.BinReader) {
	p.Nonce = r.ReadU64LE()
}
