package payload

import (
	"testing"

	"github.com/rustybit-go/rustybit/pkg/wire"
	"github.com/stretchr/testify/require"
)

func TestPingEncodeDecode(t *testing.T) {
	p := NewPing(0x0123456789ABCDEF)

	bw := wire.NewBufBinWriter()
	p.Encode(bw.BinWriter)
	require.NoError(t, bw.Error())
	require.Equal(t, 8, len(bw.Bytes()))

	pd := &Ping{}
	br := wire.NewBinReaderFromBuf(bw.Bytes())
	pd.Decode(br)
	require.NoError(t, br.Err)
	require.Equal(t, p.Nonce, pd.Nonce)
}

func TestPongEncodeDecode(t *testing.T) {
	p := NewPong(42)

	bw := wire.NewBufBinWriter()
	p.Encode(bw.BinWriter)
	require.NoError(t, bw.Error())

	pd := &Pong{}
	br := wire.NewBinReaderFromBuf(bw.Bytes())
	pd.Decode(br)
	require.NoError(t, br.Err)
	require.Equal(t, uint64(42), pd.Nonce)
}
