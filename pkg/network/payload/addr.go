package payload

import (
	"errors"

	"github.com/rustybit-go/rustybit/pkg/wire"
)

// MaxAddrListSize bounds both the Addr message the wire accepts and the
// Address Manager's own replies (GetSomeAddresses/GetManyAddresses).
const MaxAddrListSize = 1000

// ErrAddrListTooBig is returned when a decoded Addr message declares
// more entries than MaxAddrListSize.
var ErrAddrListTooBig = errors.New("payload: addr list exceeds maximum size")

// Addr carries a list of timestamped NetAddrs, announcing addresses
// the sender knows about.
type Addr struct {
	Addrs []NetAddr
}

// Encode writes a VarInt count followed by each timestamped NetAddr.
func (a Addr) Encode(w *wire.BinWriter) {
	w.WriteVarUint(uint64(len(a.Addrs)))
	for _, addr := range a.Addrs {
		addr.EncodeWithTime(w)
	}
}

// Decode reads an Addr message, failing if the declared count exceeds
// MaxAddrListSize.
func (a *Addr) Decode(r *wire.BinReader) {
	count := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if count > MaxAddrListSize {
		r.Err = ErrAddrListTooBig
		return
	}
	addrs := make([]NetAddr, count)
	for i := range addrs {
		addrs[i].DecodeWithTime(r)
		if r.Err != nil {
			return
		}
	}
	a.Addrs = addrs
}
