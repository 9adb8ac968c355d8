package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// Inv announces inventory the sender has available.
type Inv struct {
	InvVect InvVect
}

// NewInv wraps items in an Inv message.
func NewInv(items ...InvItem) *Inv {
	return &Inv{InvVect: InvVect{Items: items}}
}

// Encode writes the underlying InvVect.
func (i Inv) Encode(w *wire.BinWriter) {
	i.InvVect.Encode(w)
}

// Decode reads the underlying InvVect.
func (i *Inv) Decode(r *wire.BinReader) {
	i.InvVect.Decode(r)
}
