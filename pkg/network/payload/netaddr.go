// Package payload implements the message payload types of the Bitcoin
// P2P wire protocol: the shared data types (NetAddr, InvVect,
// Transaction) and the ten recognized message variants.
package payload

import (
	"net"
	"strconv"
	"time"

	"github.com/rustybit-go/rustybit/pkg/wire"
)

// Endpoint is the comparable (IPv4, port) pair used as the equality and
// hashing key for a NetAddr or Address Manager entry.
type Endpoint struct {
	IP   [4]byte
	Port uint16
}

// String renders the endpoint as "a.b.c.d:port".
func (e Endpoint) String() string {
	return net.IPv4(e.IP[0], e.IP[1], e.IP[2], e.IP[3]).String() + ":" + strconv.Itoa(int(e.Port))
}

// NetAddr describes a peer's advertised network endpoint: an optional
// timestamp (zero Time means absent), a services bitfield, and an
// optional IPv4 socket address. Equality and hashing are keyed solely
// on the socket address (Endpoint).
type NetAddr struct {
	Timestamp time.Time
	Services  uint64
	IP        net.IP
	Port      uint16
}

// Endpoint returns the (IP, port) equality/hash key for n. The caller
// must have already verified n.IP is a 4-byte address (see IsValidIPv4).
func (n NetAddr) Endpoint() Endpoint {
	var e Endpoint
	ip4 := n.IP.To4()
	copy(e.IP[:], ip4)
	e.Port = n.Port
	return e
}

// IsValidIPv4 reports whether n carries a usable IPv4 unicast endpoint
// with a non-zero port. IPv6 addresses are rejected here per this
// node's scope (see Non-goals): it never accepts or stores them.
func (n NetAddr) IsValidIPv4() bool {
	if n.Port == 0 {
		return false
	}
	ip4 := n.IP.To4()
	if ip4 == nil {
		return false
	}
	if ip4.IsUnspecified() || ip4.IsMulticast() || ip4.IsBroadcast() {
		return false
	}
	return true
}

// encode writes n. When withTimestamp is false (the Version message's
// embedded NetAddrs), the 4-byte timestamp field is omitted — matching
// the wire protocol's version payload, which carries untimed addresses.
func (n NetAddr) encode(w *wire.BinWriter, withTimestamp bool) {
	if withTimestamp {
		w.WriteU32LE(uint32(n.Timestamp.Unix()))
	}
	w.WriteU64LE(n.Services)
	var mapped [16]byte
	mapped[10] = 0xFF
	mapped[11] = 0xFF
	ip4 := n.IP.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	copy(mapped[12:16], ip4)
	w.WriteBytes(mapped[:])
	w.WriteU16BE(n.Port)
}

func (n *NetAddr) decode(r *wire.BinReader, withTimestamp bool) {
	if withTimestamp {
		ts := r.ReadU32LE()
		if r.Err != nil {
			return
		}
		n.Timestamp = time.Unix(int64(ts), 0).UTC()
	}
	n.Services = r.ReadU64LE()
	raw := r.ReadBytes(16)
	if r.Err != nil {
		return
	}
	n.IP = decodeIP(raw)
	n.Port = r.ReadU16BE()
}

// decodeIP interprets the wire's 16-byte address field. Only the
// ::ffff:0:0/96 IPv4-mapped prefix (bytes 0-9 zero, bytes 10-11
// 0xFF 0xFF) is unwrapped to a 4-byte net.IP; anything else — a
// genuine IPv6 address — is kept as a full 16-byte net.IP so
// IsValidIPv4's ip.To4() correctly rejects it instead of silently
// reinterpreting its trailing 4 bytes as an IPv4 address.
func decodeIP(raw []byte) net.IP {
	mapped := raw[0] == 0 && raw[1] == 0 && raw[2] == 0 && raw[3] == 0 &&
		raw[4] == 0 && raw[5] == 0 && raw[6] == 0 && raw[7] == 0 &&
		raw[8] == 0 && raw[9] == 0 && raw[10] == 0xFF && raw[11] == 0xFF
	if !mapped {
		ip := make(net.IP, 16)
		copy(ip, raw)
		return ip
	}
	ip := make(net.IP, 4)
	copy(ip, raw[12:16])
	return ip
}

// EncodeWithTime writes n including its 4-byte timestamp (used by the
// Addr message).
func (n NetAddr) EncodeWithTime(w *wire.BinWriter) {
	n.encode(w, true)
}

// DecodeWithTime reads n including its timestamp.
func (n *NetAddr) DecodeWithTime(r *wire.BinReader) {
	n.decode(r, true)
}

// EncodeNoTime writes n without a timestamp (used inside Version).
func (n NetAddr) EncodeNoTime(w *wire.BinWriter) {
	n.encode(w, false)
}

// DecodeNoTime reads n without a timestamp.
func (n *NetAddr) DecodeNoTime(r *wire.BinReader) {
	n.decode(r, false)
}
