package payload

import (
	"errors"

	"github.com/rustybit-go/rustybit/pkg/wire"
)

// MaxInvSize is the maximum number of entries an InvVect may carry.
const MaxInvSize = 50000

// ErrInvTooBig is returned when a decoded InvVect's declared count
// exceeds MaxInvSize.
var ErrInvTooBig = errors.New("payload: inv vector exceeds maximum size")

// InvKind identifies what an InvItem's hash refers to.
type InvKind uint32

// Recognized inventory kinds.
const (
	InvError InvKind = 0
	InvTx    InvKind = 1
	InvBlock InvKind = 2
)

// InvItem is one (kind, hash) entry of an InvVect.
type InvItem struct {
	Kind InvKind
	Hash wire.Hash
}

// InvVect is an ordered sequence of InvItems, capped at MaxInvSize.
type InvVect struct {
	Items []InvItem
}

// Encode writes a VarInt count followed by each item's (u32 kind, hash).
func (v InvVect) Encode(w *wire.BinWriter) {
	w.WriteVarUint(uint64(len(v.Items)))
	for _, item := range v.Items {
		w.WriteU32LE(uint32(item.Kind))
		item.Hash.Encode(w)
	}
}

// Decode reads an InvVect, failing with ErrInvTooBig if the declared
// count exceeds MaxInvSize before any item is read.
func (v *InvVect) Decode(r *wire.BinReader) {
	count := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if count > MaxInvSize {
		r.Err = ErrInvTooBig
		return
	}
	items := make([]InvItem, count)
	for i := range items {
		items[i].Kind = InvKind(r.ReadU32LE())
		items[i].Hash.Decode(r)
		if r.Err != nil {
			return
		}
	}
	v.Items = items
}
