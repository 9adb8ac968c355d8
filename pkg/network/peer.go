package network

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/rustybit-go/rustybit/pkg/network/addrmgr"
	"github.com/rustybit-go/rustybit/pkg/network/metrics"
	"github.com/rustybit-go/rustybit/pkg/network/payload"
)

// recentInvCacheSize bounds the per-peer set of inventory hashes this
// node remembers having already requested. The set only lets a peer
// re-announcing the same Inv entry (common during propagation) be
// logged as such; the GetData reply still lists every announced entry.
const recentInvCacheSize = 5000

// State is a Peer's position in its connection lifecycle.
type State int

const (
	StateDialing State = iota
	StateHandshaking
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDialing:
		return "dialing"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Minute

	schedulerTick = 5 * time.Second

	pingInterval        = 120 * time.Second
	pingTimeoutCheck    = 10 * time.Second
	pingTimeoutAfter    = 10 * time.Minute
	announceInterval    = 15 * time.Minute
	requestAddrInterval = 30 * time.Minute
)

// Config carries the process-wide constants a Peer needs that never
// change after startup.
type Config struct {
	Magic       uint32
	Services    uint64
	UserAgent   string
	StartHeight uint32
	BestHeight  func() uint32
}

// Peer drives one outbound TCP connection through Dialing,
// Handshaking, Connected and Closed, dispatching inbound messages and
// running its periodic task scheduler. Exactly one goroutine (the one
// running Run) ever touches its non-atomic fields.
type Peer struct {
	cfg    Config
	log    *zap.Logger
	addrCh *addrmgr.Channel

	conn   net.Conn
	fr     *FrameReader
	remote net.Addr

	state      atomic.Int32
	versionSet bool

	outstandingPing   bool
	outstandingNonce  uint64
	outstandingSentAt time.Time
	lastLag           time.Duration

	lastAddrTime time.Time

	sched     *scheduler
	recentInv *lru.Cache

	mu      sync.Mutex
	closeCh chan struct{}
	closed  bool
}

// NewPeer constructs a Peer in the Dialing state, ready for Run.
func NewPeer(cfg Config, log *zap.Logger, addrCh *addrmgr.Channel) *Peer {
	recentInv, _ := lru.New(recentInvCacheSize)
	p := &Peer{
		cfg:       cfg,
		log:       log.With(zap.String("conn_id", uuid.NewString())),
		addrCh:    addrCh,
		closeCh:   make(chan struct{}),
		recentInv: recentInv,
	}
	p.state.Store(int32(StateDialing))
	p.sched = newScheduler(p)
	return p
}

// State reports the Peer's current lifecycle state. Safe to call from
// any goroutine.
func (p *Peer) State() State {
	return State(p.state.Load())
}

func (p *Peer) setState(s State) {
	p.state.Store(int32(s))
}

// Run dials addr, performs the handshake, and then services the
// connection until a fatal error, ping timeout, or explicit Close. It
// returns the error that ended the connection (nil only if Close was
// called deliberately).
func (p *Peer) Run(addr string) error {
	if err := p.connect(addr); err != nil {
		p.setState(StateClosed)
		return err
	}
	if err := p.handshake(); err != nil {
		p.setState(StateClosed)
		p.conn.Close()
		return err
	}
	p.setState(StateConnected)
	err := p.serve()
	p.setState(StateClosed)
	p.conn.Close()
	return err
}

func (p *Peer) connect(addr string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectError, err)
	}
	p.conn = conn
	p.remote = conn.RemoteAddr()
	p.fr = NewFrameReader(conn, p.cfg.Magic)
	p.setState(StateHandshaking)
	return nil
}

// handshake sends this node's Version as the connection's first bytes,
// then loops reading until it has processed the remote's Version and
// exchanged VerAck in both directions.
func (p *Peer) handshake() error {
	local := payload.NewVersion(
		payload.MinProtoVersion, p.cfg.Services, p.cfg.UserAgent,
		p.cfg.StartHeight, true,
		payload.NetAddr{}, payload.NetAddr{},
		newNonce(), time.Now(),
	)
	if err := p.sendVersion(local); err != nil {
		return err
	}

	gotVersion := false
	gotVerAck := false
	for !gotVersion || !gotVerAck {
		msg, err := p.fr.ReadMessage()
		if err != nil {
			if IsFatal(err) {
				return err
			}
			continue
		}
		switch body := msg.Body.(type) {
		case *payload.Version:
			if err := p.handleVersionDuringHandshake(body); err != nil {
				return err
			}
			gotVersion = true
			if err := p.sendVerAck(); err != nil {
				return err
			}
		case *payload.VerAck:
			gotVerAck = true
		default:
			// Anything else before the handshake completes is ignored;
			// the remote is not yet fully Connected from our side.
		}
	}
	return nil
}

func (p *Peer) handleVersionDuringHandshake(v *payload.Version) error {
	if p.versionSet {
		return ErrDoubleHandshake
	}
	if v.ProtoVersion < payload.MinProtoVersion {
		return ErrUnsupportedProtoVersion
	}
	p.versionSet = true
	p.informAddrManagerOfSelfAddress(v)
	return nil
}

func (p *Peer) informAddrManagerOfSelfAddress(v *payload.Version) {
	if p.addrCh == nil || !v.AddrFrom.IsValidIPv4() {
		return
	}
	announced := v.AddrFrom
	announced.Timestamp = time.Now()
	p.addrCh.Requests <- addrmgr.AddAddresses(p.remoteIP(), []payload.NetAddr{announced})
}

func (p *Peer) remoteIP() net.IP {
	tcpAddr, ok := p.remote.(*net.TCPAddr)
	if !ok {
		return nil
	}
	return tcpAddr.IP
}

func (p *Peer) sendVersion(v *payload.Version) error {
	return p.writeMessage(CmdVersion, v)
}

func (p *Peer) sendVerAck() error {
	return p.writeMessage(CmdVerAck, &payload.VerAck{})
}

// serve is the Connected-state loop: it alternates reading the next
// message (bounded to 500ms) with polling the scheduler, so periodic
// tasks run even while idle on the socket.
func (p *Peer) serve() error {
	lastSchedulerRun := time.Now()
	p.sched.start(lastSchedulerRun)
	for {
		select {
		case <-p.closeCh:
			return nil
		default:
		}

		msg, err := p.fr.ReadMessage()
		if err != nil {
			if IsFatal(err) {
				return err
			}
		} else if err := p.dispatch(msg); err != nil {
			return err
		}

		if time.Since(lastSchedulerRun) >= schedulerTick {
			lastSchedulerRun = time.Now()
			if err := p.sched.runDue(); err != nil {
				return err
			}
		}
	}
}

func (p *Peer) dispatch(msg *Message) error {
	metrics.ObserveMessageReceived(msg.Header.Command)
	switch body := msg.Body.(type) {
	case *payload.Version:
		return ErrDoubleHandshake
	case *payload.VerAck:
		// No reply.
	case *payload.Ping:
		return p.writeMessage(CmdPong, payload.NewPong(body.Nonce))
	case *payload.Pong:
		p.handlePong(body)
	case *payload.Addr:
		p.handleAddr(body)
	case *payload.Inv:
		return p.replyGetData(body)
	case *payload.GetData:
		// Data serving is out of scope; accept and ignore.
	case *payload.Reject:
		p.log.Info("peer sent reject", zap.String("message", body.Message), zap.String("reason", body.Reason))
	case *payload.Tx:
		p.log.Debug("peer sent tx")
	case *payload.GetAddr:
		return p.handleGetAddr()
	}
	return nil
}

// replyGetData echoes inv's InvVect back as a GetData request,
// byte-for-byte: the wire protocol always fetches every announced
// entry, regardless of whether this connection has seen the hash
// before. recentInv only tracks which hashes are re-announcements, so
// logging can stay quiet on the noisy re-broadcast case; it never
// changes what gets requested.
func (p *Peer) replyGetData(inv *payload.Inv) error {
	for _, item := range inv.InvVect.Items {
		if p.recentInv == nil {
			continue
		}
		key := item.Hash.String()
		if _, ok := p.recentInv.Get(key); ok {
			p.log.Debug("peer re-announced inventory item", zap.String("hash", key))
			continue
		}
		p.recentInv.Add(key, struct{}{})
	}
	return p.writeMessage(CmdGetData, payload.NewGetData(inv.InvVect.Items...))
}

func (p *Peer) handlePong(pong *payload.Pong) {
	if !p.outstandingPing || pong.Nonce != p.outstandingNonce {
		return
	}
	sentAt := decodePingNonce(pong.Nonce)
	p.lastLag = time.Since(sentAt)
	p.outstandingPing = false
	metrics.ObservePingLag(p.lastLag)
	p.log.Debug("pong received", zap.Duration("lag", p.lastLag))
}

func (p *Peer) handleAddr(a *payload.Addr) {
	p.lastAddrTime = time.Now()
	if p.addrCh == nil {
		return
	}
	p.addrCh.Requests <- addrmgr.AddAddresses(p.remoteIP(), a.Addrs)
}

func (p *Peer) handleGetAddr() error {
	if p.addrCh == nil {
		return p.writeMessage(CmdAddr, &payload.Addr{})
	}
	p.addrCh.Requests <- addrmgr.GetSomeAddresses()
	reply := (<-p.addrCh.Replies).(addrmgr.AddressesReply)
	return p.writeMessage(CmdAddr, &payload.Addr{Addrs: reply.Addrs})
}

func (p *Peer) writeMessage(command string, body Payload) error {
	m, err := newMessage(p.cfg.Magic, command, body)
	if err != nil {
		return err
	}
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteIO, err)
	}
	if err := m.encode(p.conn); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrWriteTimeout
		}
		return fmt.Errorf("%w: %v", ErrWriteIO, err)
	}
	metrics.ObserveMessageSent(command)
	return nil
}

// Close terminates the Peer's serve loop at its next opportunity.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.closeCh)
}

// newNonce returns the current time in Unix nanoseconds as the value
// of Version's nonce field. It is not random, and this node does not
// compare it against incoming nonces to detect self-connections.
func newNonce() uint64 {
	return uint64(time.Now().UnixNano())
}

// encodePingNonce packs t into the (seconds<<10 | millis&0x3FF) form a
// Ping's nonce carries, so the eventual Pong can be turned back into a
// lag measurement without any side-channel state.
func encodePingNonce(t time.Time) uint64 {
	seconds := uint64(t.Unix())
	millis := uint64(t.Nanosecond()/1_000_000) & 0x3FF
	return (seconds << 10) | millis
}

// decodePingNonce reverses encodePingNonce, losing sub-millisecond
// precision (the original encoding already discarded it).
func decodePingNonce(nonce uint64) time.Time {
	seconds := int64(nonce >> 10)
	millis := int64(nonce & 0x3FF)
	return time.Unix(seconds, millis*int64(time.Millisecond))
}
