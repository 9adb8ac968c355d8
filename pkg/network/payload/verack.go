package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// VerAck carries no payload; its presence on the wire is the entire
// message.
type VerAck struct{}

// Encode is a no-op: VerAck has an empty payload.
func (VerAck) Encode(*wire.BinWriter) {}

// Decode is a no-op: VerAck has an empty payload.
func (*VerAck) Decode(*wire.BinReader) {}
