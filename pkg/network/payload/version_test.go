package payload

import (
	"net"
	"testing"
	"time"

	"github.com/rustybit-go/rustybit/pkg/wire"
	"github.com/stretchr/testify/require"
)

func TestVersionEncodeDecode(t *testing.T) {
	recv := NetAddr{IP: net.IPv4zero, Port: 0}
	from := NetAddr{IP: net.IPv4zero, Port: 0}
	ts := time.Unix(1_412_833_399, 0).UTC()
	p := NewVersion(70002, 1, "/rustybit:0.0.0_dev/", 0, true, recv, from, 0xababeface, ts)

	bw := wire.NewBufBinWriter()
	p.Encode(bw.BinWriter)
	require.NoError(t, bw.Error())

	pd := &Version{}
	br := wire.NewBinReaderFromBuf(bw.Bytes())
	pd.Decode(br)
	require.NoError(t, br.Err)

	require.Equal(t, p.ProtoVersion, pd.ProtoVersion)
	require.Equal(t, p.Services, pd.Services)
	require.Equal(t, p.Timestamp.Unix(), pd.Timestamp.Unix())
	require.Equal(t, p.Nonce, pd.Nonce)
	require.Equal(t, p.UserAgent, pd.UserAgent)
	require.Equal(t, p.StartHeight, pd.StartHeight)
	require.Equal(t, p.Relay, pd.Relay)
}

func TestVersionMinProtocolVersionConstant(t *testing.T) {
	require.Equal(t, uint32(70002), uint32(MinProtoVersion))
}
