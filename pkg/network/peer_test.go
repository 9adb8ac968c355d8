package network

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rustybit-go/rustybit/pkg/network/payload"
	"github.com/rustybit-go/rustybit/pkg/wire"
)

func testHash(b byte) wire.Hash {
	var h wire.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func testConfig() Config {
	return Config{
		Magic:       mainnetMagic,
		Services:    1,
		UserAgent:   "/rustybit:0.0.0_dev/",
		StartHeight: 0,
		BestHeight:  func() uint32 { return 0 },
	}
}

// remoteHandshake drives the "other side" of a handshake over conn: it
// reads our Version, sends its own, expects our VerAck, then sends its
// VerAck. net.Pipe has no buffering, so the remote must read our VerAck
// before writing its own, or both ends would block in Write.
func remoteHandshake(t *testing.T, conn net.Conn, protoVersion uint32) {
	t.Helper()
	var m Message
	require.NoError(t, m.decode(connReader(conn)))
	require.Equal(t, CmdVersion, m.Header.Command)

	v := payload.NewVersion(protoVersion, 1, "/remote:0.0.0/", 0, true, payload.NetAddr{}, payload.NetAddr{}, 1, time.Now())
	require.NoError(t, writeRaw(conn, mainnetMagic, CmdVersion, v))

	var ack Message
	require.NoError(t, ack.decode(connReader(conn)))
	require.Equal(t, CmdVerAck, ack.Header.Command)

	require.NoError(t, writeRaw(conn, mainnetMagic, CmdVerAck, &payload.VerAck{}))
}

func connReader(conn net.Conn) *boundedReader {
	return &boundedReader{conn: conn}
}

// boundedReader adapts a net.Conn to io.Reader for Message.decode,
// which in tests always has exactly one message's worth of bytes
// available synchronously over net.Pipe.
type boundedReader struct {
	conn net.Conn
}

func (b *boundedReader) Read(p []byte) (int, error) {
	return b.conn.Read(p)
}

func writeRaw(conn net.Conn, magic uint32, command string, body Payload) error {
	m, err := newMessage(magic, command, body)
	if err != nil {
		return err
	}
	return m.encode(conn)
}

func TestPeerHandshakeSucceeds(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.conn = server
	p.remote = &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 8333}
	p.fr = NewFrameReader(server, mainnetMagic)
	p.setState(StateHandshaking)

	done := make(chan error, 1)
	go func() { done <- p.handshake() }()

	remoteHandshake(t, client, payload.MinProtoVersion)
	require.NoError(t, <-done)
}

func TestPeerHandshakeRejectsLowProtoVersion(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.conn = server
	p.remote = &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 8333}
	p.fr = NewFrameReader(server, mainnetMagic)

	done := make(chan error, 1)
	go func() { done <- p.handshake() }()

	var m Message
	require.NoError(t, m.decode(connReader(client)))

	v := payload.NewVersion(60000, 1, "/old/", 0, true, payload.NetAddr{}, payload.NetAddr{}, 1, time.Now())
	require.NoError(t, writeRaw(client, mainnetMagic, CmdVersion, v))

	err := <-done
	require.ErrorIs(t, err, ErrUnsupportedProtoVersion)
}

func TestPingNonceRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	nonce := encodePingNonce(now)
	back := decodePingNonce(nonce)
	require.WithinDuration(t, now, back, time.Millisecond)
}

func TestSchedulerSendsPingWhenNoneOutstanding(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.conn = server
	p.setState(StateConnected)

	readDone := make(chan *Message, 1)
	go func() {
		var m Message
		if err := m.decode(connReader(client)); err == nil {
			readDone <- &m
		}
	}()

	require.NoError(t, p.sched.maybeSendPing())
	require.True(t, p.outstandingPing)

	msg := <-readDone
	require.Equal(t, CmdPing, msg.Header.Command)
}

func TestSchedulerSkipsPingWhenOneOutstanding(t *testing.T) {
	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.outstandingPing = true
	p.outstandingNonce = 42

	require.NoError(t, p.sched.maybeSendPing())
	require.Equal(t, uint64(42), p.outstandingNonce)
}

func TestSchedulerPingTimeoutIsFatal(t *testing.T) {
	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.outstandingPing = true
	p.outstandingSentAt = time.Now().Add(-11 * time.Minute)

	err := p.sched.checkPingTimeout()
	require.ErrorIs(t, err, ErrPingTimeout)
	require.True(t, IsFatal(err))
}

// TestSchedulerStartDefersFirstRun guards against a zero-valued
// lastRun making every task look overdue on the first poll after
// Connected: once start() seeds lastRun to "now", a runDue() moments
// later must not fire any interval-gated task.
func TestSchedulerStartDefersFirstRun(t *testing.T) {
	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	p.conn = server

	now := time.Now()
	p.sched.start(now)

	// requestAddresses' due override still fires on first contact
	// (lastAddrTime is zero), so drain that one expected write.
	readDone := make(chan *Message, 1)
	go func() {
		var m Message
		if err := m.decode(connReader(client)); err == nil {
			readDone <- &m
		}
	}()

	require.NoError(t, p.sched.runDue())

	select {
	case msg := <-readDone:
		require.Equal(t, CmdGetAddr, msg.Header.Command)
	case <-time.After(time.Second):
		t.Fatal("expected the due GetAddr request, got nothing")
	}

	require.False(t, p.outstandingPing, "ping must not fire before pingInterval elapses")
}

func TestDispatchInvElicitsGetData(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.conn = server
	p.setState(StateConnected)

	item := payload.InvItem{Kind: payload.InvTx, Hash: testHash(1)}
	inv := payload.NewInv(item)

	readDone := make(chan *Message, 1)
	go func() {
		var m Message
		if err := m.decode(connReader(client)); err == nil {
			readDone <- &m
		}
	}()

	require.NoError(t, p.dispatch(&Message{Body: inv}))
	msg := <-readDone
	require.Equal(t, CmdGetData, msg.Header.Command)
	gd := msg.Body.(*payload.GetData)
	require.Equal(t, inv.InvVect, gd.InvVect)
}

// TestDispatchReannouncedInvStillElicitsFullGetData guards against
// recentInv ever suppressing an already-seen hash from GetData: a
// second Inv carrying a hash this connection has already requested
// must still echo the full InvVect byte-for-byte.
func TestDispatchReannouncedInvStillElicitsFullGetData(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.conn = server
	p.setState(StateConnected)

	item1 := payload.InvItem{Kind: payload.InvTx, Hash: testHash(1)}
	item2 := payload.InvItem{Kind: payload.InvTx, Hash: testHash(2)}
	inv := payload.NewInv(item1, item2)

	drain := func() *payload.GetData {
		readDone := make(chan *Message, 1)
		go func() {
			var m Message
			if err := m.decode(connReader(client)); err == nil {
				readDone <- &m
			}
		}()
		msg := <-readDone
		require.Equal(t, CmdGetData, msg.Header.Command)
		return msg.Body.(*payload.GetData)
	}

	require.NoError(t, p.dispatch(&Message{Body: inv}))
	gd1 := drain()
	require.Equal(t, inv.InvVect, gd1.InvVect)

	// Re-announce the same two hashes on the same connection.
	require.NoError(t, p.dispatch(&Message{Body: inv}))
	gd2 := drain()
	require.Equal(t, inv.InvVect, gd2.InvVect)
}

func TestDispatchPingRepliesPong(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	p.conn = server
	p.setState(StateConnected)

	readDone := make(chan *Message, 1)
	go func() {
		var m Message
		if err := m.decode(connReader(client)); err == nil {
			readDone <- &m
		}
	}()

	require.NoError(t, p.dispatch(&Message{Body: payload.NewPing(7)}))
	msg := <-readDone
	require.Equal(t, CmdPong, msg.Header.Command)
	require.Equal(t, uint64(7), msg.Body.(*payload.Pong).Nonce)
}

func TestDispatchSecondVersionIsFatal(t *testing.T) {
	p := NewPeer(testConfig(), zaptest.NewLogger(t), nil)
	err := p.dispatch(&Message{Body: &payload.Version{}})
	require.ErrorIs(t, err, ErrDoubleHandshake)
}
