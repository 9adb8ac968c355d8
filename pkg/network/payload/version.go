package payload

import (
	"time"

	"github.com/rustybit-go/rustybit/pkg/wire"
)

// MinProtoVersion is the lowest protocol version this node accepts from
// a remote peer during the handshake.
const MinProtoVersion = 70002

// Version is the first message exchanged on every connection.
type Version struct {
	ProtoVersion uint32
	Services     uint64
	Timestamp    time.Time
	AddrRecv     NetAddr
	AddrFrom     NetAddr
	Nonce        uint64
	UserAgent    string
	StartHeight  uint32
	Relay        bool
}

// NewVersion builds a Version payload for this node to send.
func NewVersion(protoVersion uint32, services uint64, userAgent string, startHeight uint32, relay bool, addrRecv, addrFrom NetAddr, nonce uint64, timestamp time.Time) *Version {
	return &Version{
		ProtoVersion: protoVersion,
		Services:     services,
		Timestamp:    timestamp,
		AddrRecv:     addrRecv,
		AddrFrom:     addrFrom,
		Nonce:        nonce,
		UserAgent:    userAgent,
		StartHeight:  startHeight,
		Relay:        relay,
	}
}

// Encode writes the Version payload.
func (v Version) Encode(w *wire.BinWriter) {
	w.WriteU32LE(v.ProtoVersion)
	w.WriteU64LE(v.Services)
	w.WriteI64LE(v.Timestamp.Unix())
	v.AddrRecv.EncodeNoTime(w)
	v.AddrFrom.EncodeNoTime(w)
	w.WriteU64LE(v.Nonce)
	w.WriteVarString(v.UserAgent)
	w.WriteU32LE(v.StartHeight)
	w.WriteBool(v.Relay)
}

// Decode reads a Version payload.
func (v *Version) Decode(r *wire.BinReader) {
	v.ProtoVersion = r.ReadU32LE()
	v.Services = r.ReadU64LE()
	v.Timestamp = time.Unix(r.ReadI64LE(), 0).UTC()
	v.AddrRecv.DecodeNoTime(r)
	v.AddrFrom.DecodeNoTime(r)
	v.Nonce = r.ReadU64LE()
	v.UserAgent = r.ReadVarString()
	v.StartHeight = r.ReadU32LE()
	v.Relay = r.ReadBool()
}
