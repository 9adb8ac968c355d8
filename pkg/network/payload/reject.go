package payload

import "github.com/rustybit-go/rustybit/pkg/wire"

// Reject codes, mirroring the handful the reference node distinguishes
// in logs; this node does not act on them beyond logging.
const (
	RejectMalformed       = 0x01
	RejectInvalid         = 0x10
	RejectObsolete        = 0x11
	RejectDuplicate       = 0x12
	RejectNonStandard     = 0x40
	RejectInsufficientFee = 0x42
)

// Reject tells the recipient why a prior message was refused.
type Reject struct {
	Message string
	Code    uint8
	Reason  string
}

// Encode writes the Reject payload.
func (rj Reject) Encode(w *wire.BinWriter) {
	w.WriteVarString(rj.Message)
	w.WriteU8(rj.Code)
	w.WriteVarString(rj.Reason)
}

// Decode reads the Reject payload.
func (rj *Reject) Decode(r *wire.BinReader) {
	rj.Message = r.ReadVarString()
	rj.Code = r.ReadU8()
	rj.Reason = r.ReadVarString()
}
