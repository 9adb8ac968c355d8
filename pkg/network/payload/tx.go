package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// Tx carries a single relayed transaction.
type Tx struct {
	Transaction Transaction
}

// Encode writes the underlying Transaction.
func (t Tx) Encode(w *wire.BinWriter) {
	t.Transaction.Encode(w)
}

// Decode reads the underlying Transaction.
func (t *Tx) Decode(r *wire.BinReader) {
	t.Transaction.Decode(r)
}
