package payload

import (
	"github.com/rustybit-go/rustybit/pkg/wire"
)

// LockKind classifies how a Transaction's lock field constrains it.
// The boundaries below are deliberately exact — see the original
// reference's lock field decoding notes — and must not be adjusted.
type LockKind int

// Recognized lock kinds.
const (
	// LockLocked is the sentinel value 0: the transaction is not
	// final and has no time or height constraint of its own.
	LockLocked LockKind = iota
	// LockBlock means the transaction is final at or after the given
	// block height (values 1..=500_000_000).
	LockBlock
	// LockTime means the transaction is final at or after the given
	// Unix timestamp in seconds (values 500_000_001..=0xFFFFFFFE).
	LockTime
	// LockUnlocked is the sentinel value 0xFFFFFFFF: no lock applies.
	LockUnlocked
)

const lockBlockMax = 500_000_000

// Lock is the decoded form of a Transaction's raw u32 lock field.
type Lock struct {
	Kind  LockKind
	Value uint32
}

// DecodeLock classifies a raw lock field value per the fixed boundaries:
// 0 is Locked; 1..=500_000_000 is a block height; 500_000_001..=0xFFFFFFFE
// is a Unix timestamp; 0xFFFFFFFF is Unlocked.
func DecodeLock(raw uint32) Lock {
	switch {
	case raw == 0:
		return Lock{Kind: LockLocked}
	case raw <= lockBlockMax:
		return Lock{Kind: LockBlock, Value: raw}
	case raw == 0xFFFFFFFF:
		return Lock{Kind: LockUnlocked}
	default:
		return Lock{Kind: LockTime, Value: raw}
	}
}

// Encode returns the raw u32 lock field for l.
func (l Lock) Encode() uint32 {
	switch l.Kind {
	case LockLocked:
		return 0
	case LockUnlocked:
		return 0xFFFFFFFF
	default:
		return l.Value
	}
}

// TxIn is one transaction input: the outpoint it spends, an opaque
// script (never parsed — script semantics are out of this node's
// scope), and a sequence number.
type TxIn struct {
	PrevHash  wire.Hash
	PrevIndex uint32
	Script    []byte
	Sequence  uint32
}

func (in TxIn) encode(w *wire.BinWriter) {
	in.PrevHash.Encode(w)
	w.WriteU32LE(in.PrevIndex)
	w.WriteVarBytes(in.Script) // opaque bytes, never sanitized
	w.WriteU32LE(in.Sequence)
}

func (in *TxIn) decode(r *wire.BinReader) {
	in.PrevHash.Decode(r)
	in.PrevIndex = r.ReadU32LE()
	in.Script = r.ReadVarBytes()
	in.Sequence = r.ReadU32LE()
}

// TxOut is one transaction output: a value and an opaque script.
type TxOut struct {
	Value  uint64
	Script []byte
}

func (out TxOut) encode(w *wire.BinWriter) {
	w.WriteU64LE(out.Value)
	w.WriteVarBytes(out.Script)
}

func (out *TxOut) decode(r *wire.BinReader) {
	out.Value = r.ReadU64LE()
	out.Script = r.ReadVarBytes()
}

// Transaction is the transaction skeleton this node understands: just
// enough structure to relay it, with scripts carried opaquely. Full
// validation, signing, and script execution are out of scope.
type Transaction struct {
	Version uint32
	Inputs  []TxIn
	Outputs []TxOut
	Lock    uint32
}

// LockField classifies t.Lock via DecodeLock.
func (t Transaction) LockField() Lock {
	return DecodeLock(t.Lock)
}

// Encode writes the transaction.
func (t Transaction) Encode(w *wire.BinWriter) {
	w.WriteU32LE(t.Version)
	w.WriteVarUint(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		in.encode(w)
	}
	w.WriteVarUint(uint64(len(t.Outputs)))
	for _, out := range t.Outputs {
		out.encode(w)
	}
	w.WriteU32LE(t.Lock)
}

// Decode reads a transaction.
func (t *Transaction) Decode(r *wire.BinReader) {
	t.Version = r.ReadU32LE()
	inCount := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	t.Inputs = make([]TxIn, inCount)
	for i := range t.Inputs {
		t.Inputs[i].decode(r)
		if r.Err != nil {
			return
		}
	}
	outCount := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	t.Outputs = make([]TxOut, outCount)
	for i := range t.Outputs {
		t.Outputs[i].decode(r)
		if r.Err != nil {
			return
		}
	}
	t.Lock = r.ReadU32LE()
}
