package network

import (
	"net"
	"testing"
	"time"

	"github.com/rustybit-go/rustybit/pkg/network/payload"
	"github.com/rustybit-go/rustybit/pkg/wire"
	"github.com/stretchr/testify/require"
)

func writeMessage(t *testing.T, conn net.Conn, magic uint32, command string, body Payload) {
	t.Helper()
	m, err := newMessage(magic, command, body)
	require.NoError(t, err)
	require.NoError(t, m.encode(conn))
}

func TestFrameReaderReadsOneMessage(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go writeMessage(t, client, mainnetMagic, CmdPing, payload.NewPing(42))

	fr := NewFrameReader(server, mainnetMagic)
	msg, err := fr.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, CmdPing, msg.Header.Command)
	require.Equal(t, uint64(42), msg.Body.(*payload.Ping).Nonce)
}

func TestFrameReaderPayloadTooBigBeforePayloadRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	hdr := Header{Magic: mainnetMagic, Command: CmdPing, Length: 5 * 1024 * 1024, Checksum: 0}
	done := make(chan struct{})
	go func() {
		bw := wire.NewBinWriterFromIO(client)
		hdr.Encode(bw)
		close(done)
	}()

	fr := NewFrameReader(server, mainnetMagic)
	msg, err := fr.ReadMessage()
	<-done
	require.Nil(t, msg)
	require.ErrorIs(t, err, ErrPayloadTooBig)
	require.True(t, IsFatal(err))
}

func TestFrameReaderInvalidChecksumIsFatal(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		m, err := newMessage(mainnetMagic, CmdPing, payload.NewPing(1))
		require.NoError(t, err)
		m.Header.Checksum ^= 0xFFFFFFFF
		_ = m.encode(client)
	}()

	fr := NewFrameReader(server, mainnetMagic)
	_, err := fr.ReadMessage()
	require.ErrorIs(t, err, ErrInvalidChecksum)
	require.True(t, IsFatal(err))
}

func TestFrameReaderWrongNetworkIsFatal(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go writeMessage(t, client, 0xAABBCCDD, CmdPing, payload.NewPing(1))

	fr := NewFrameReader(server, mainnetMagic)
	_, err := fr.ReadMessage()
	require.ErrorIs(t, err, ErrWrongNetwork)
	require.True(t, IsFatal(err))
}

func TestFrameReaderUnknownCommandIsNonFatal(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		bw := wire.NewBufBinWriter()
		payload.NewPing(1).Encode(bw.BinWriter)
		raw := bw.Bytes()
		hdr := Header{Magic: mainnetMagic, Command: "notacommand", Length: uint32(len(raw)), Checksum: wire.Checksum4(raw)}
		w := wire.NewBinWriterFromIO(client)
		hdr.Encode(w)
		w.WriteBytes(raw)
	}()

	fr := NewFrameReader(server, mainnetMagic)
	msg, err := fr.ReadMessage()
	require.Nil(t, msg)
	require.ErrorIs(t, err, ErrUnknownCommand)
	require.False(t, IsFatal(err))
}

func TestFrameReaderTimeoutIsNonFatalAndResumable(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	fr := NewFrameReader(server, mainnetMagic)

	start := time.Now()
	_, err := fr.ReadMessage()
	elapsed := time.Since(start)
	require.ErrorIs(t, err, ErrReadTimeout)
	require.False(t, IsFatal(err))
	require.GreaterOrEqual(t, elapsed, readTimeout-50*time.Millisecond)

	go writeMessage(t, client, mainnetMagic, CmdPong, payload.NewPong(9))
	msg, err := fr.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, CmdPong, msg.Header.Command)
}
