package addrmgr

import (
	"net"

	"github.com/rustybit-go/rustybit/pkg/network/payload"
)

// RequestChannelCap bounds the peer-to-manager request direction; a
// Peer that outruns the manager blocks on send, which is the intended
// backpressure.
const RequestChannelCap = 8

// Channel is the duplex link between one Peer and the Address Manager:
// a bounded request sender (Peer -> Manager) and a bounded reply
// receiver (Manager -> Peer).
type Channel struct {
	Requests chan Request
	Replies  chan Reply
}

// NewChannel allocates a fresh, unregistered Channel.
func NewChannel() *Channel {
	return &Channel{
		Requests: make(chan Request, RequestChannelCap),
		Replies:  make(chan Reply, RequestChannelCap),
	}
}

// Request is the closed set of messages a Peer may send the manager.
type Request interface {
	isRequest()
}

// AddAddressesReq reports addresses the peer at PeerIP just announced.
// It has no reply.
type AddAddressesReq struct {
	PeerIP net.IP
	Addrs  []payload.NetAddr
}

func (AddAddressesReq) isRequest() {}

// AddAddresses builds a request to remember addrs as announced by peerIP.
func AddAddresses(peerIP net.IP, addrs []payload.NetAddr) Request {
	return AddAddressesReq{PeerIP: peerIP, Addrs: addrs}
}

// AddPeerChannelReq registers a newly created Peer channel with the
// manager. It has no reply and is only ever sent on the manager's
// registration channel, never on an already-registered peer Channel.
type AddPeerChannelReq struct {
	Channel *Channel
}

func (AddPeerChannelReq) isRequest() {}

// AddPeerChannel builds a request to register ch with the manager.
func AddPeerChannel(ch *Channel) Request {
	return AddPeerChannelReq{Channel: ch}
}

// GetSomeAddressesReq asks for a small announce-sized batch (5-25).
type GetSomeAddressesReq struct{}

func (GetSomeAddressesReq) isRequest() {}

// GetSomeAddresses builds a GetSomeAddressesReq.
func GetSomeAddresses() Request { return GetSomeAddressesReq{} }

// GetManyAddressesReq asks for a large bootstrap-sized batch (200-500).
type GetManyAddressesReq struct{}

func (GetManyAddressesReq) isRequest() {}

// GetManyAddresses builds a GetManyAddressesReq.
func GetManyAddresses() Request { return GetManyAddressesReq{} }

// Reply is the closed set of messages the manager may send a Peer.
type Reply interface {
	isReply()
}

// AddressesReply answers GetSomeAddressesReq/GetManyAddressesReq.
type AddressesReply struct {
	Addrs []payload.NetAddr
}

func (AddressesReply) isReply() {}
