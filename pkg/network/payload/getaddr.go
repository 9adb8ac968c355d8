package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// GetAddr requests that the remote peer share addresses it knows
// about; it carries no payload.
type GetAddr struct{}

// Encode is a no-op: GetAddr has an empty payload.
func (GetAddr) Encode(*wire.BinWriter) {}

// Decode is a no-op: GetAddr has an empty payload.
func (*GetAddr) Decode(*wire.BinReader) {}
