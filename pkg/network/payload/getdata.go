package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// GetData requests full objects for the inventory items it lists.
type GetData struct {
	InvVect InvVect
}

// NewGetData wraps items in a GetData message.
func NewGetData(items ...InvItem) *GetData {
	return &GetData{InvVect: InvVect{Items: items}}
}

// Encode writes the underlying InvVect.
func (g GetData) Encode(w *wire.BinWriter) {
	g.InvVect.Encode(w)
}

// Decode reads the underlying InvVect.
func (g *GetData) Decode(r *wire.BinReader) {
	g.InvVect.Decode(r)
}
