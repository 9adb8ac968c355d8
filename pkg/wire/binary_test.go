package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteU64LE(t *testing.T) {
	var (
		val = uint64(0xbadc0de15a11dead)
		bin = []byte{0xad, 0xde, 0x11, 0x5a, 0xe1, 0x0d, 0xdc, 0xba}
	)
	bw := NewBufBinWriter()
	bw.WriteU64LE(val)
	assert.Nil(t, bw.Error())
	assert.Equal(t, bin, bw.Bytes())

	br := NewBinReaderFromBuf(bin)
	assert.Equal(t, val, br.ReadU64LE())
	assert.Nil(t, br.Err)
}

func TestWriteU16BE(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteU16BE(0xbabe)
	assert.Equal(t, []byte{0xba, 0xbe}, bw.Bytes())

	br := NewBinReaderFromBuf([]byte{0xba, 0xbe})
	assert.Equal(t, uint16(0xbabe), br.ReadU16BE())
}

func TestWriteNegativeFails(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteI32LE(-1)
	require.Error(t, bw.Error())

	bw2 := NewBufBinWriter()
	bw2.WriteI64LE(-1)
	require.Error(t, bw2.Error())
}

func TestVarIntBoundaries(t *testing.T) {
	cases := []struct {
		val   uint64
		bytes int
	}{
		{0, 1},
		{252, 1},
		{253, 3},
		{0xFFFF, 3},
		{0x10000, 5},
		{0xFFFFFFFF, 5},
		{0x100000000, 9},
		{0xFFFFFFFFFFFFFFFF, 9},
	}
	for _, c := range cases {
		bw := NewBufBinWriter()
		bw.WriteVarUint(c.val)
		require.NoError(t, bw.Error())
		assert.Equal(t, c.bytes, len(bw.Bytes()), "value %d", c.val)

		br := NewBinReaderFromBuf(bw.Bytes())
		got := br.ReadVarUint()
		require.NoError(t, br.Err)
		assert.Equal(t, c.val, got)
	}
}

func TestVarBytesRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	bw := NewBufBinWriter()
	bw.WriteVarBytes(data)
	require.NoError(t, bw.Error())

	br := NewBinReaderFromBuf(bw.Bytes())
	got := br.ReadVarBytes()
	require.NoError(t, br.Err)
	assert.Equal(t, data, got)
}

func TestVarBytesTooLong(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteVarUint(300)
	bw.WriteBytes(make([]byte, 300))

	br := NewBinReaderFromBuf(bw.Bytes())
	got := br.ReadVarBytes(256)
	require.Error(t, br.Err)
	assert.Nil(t, got)
}

func TestString12SanitizesAndPads(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteString12("version")
	require.NoError(t, bw.Error())
	require.Equal(t, 12, len(bw.Bytes()))

	br := NewBinReaderFromBuf(bw.Bytes())
	assert.Equal(t, "version", br.ReadString12())
}

func TestString12DropsUnsanitizedBytes(t *testing.T) {
	raw := make([]byte, 12)
	copy(raw, []byte{'a', 0x01, 'b', 0x02})
	br := NewBinReaderFromBuf(raw)
	assert.Equal(t, "ab", br.ReadString12())
}

func TestVarStringSanitizesOnDecode(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteVarUint(4)
	bw.WriteBytes([]byte{'a', 0x01, 'b', 0x02})

	br := NewBinReaderFromBuf(bw.Bytes())
	assert.Equal(t, "ab", br.ReadVarString())
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		bw := NewBufBinWriter()
		bw.WriteBool(v)
		br := NewBinReaderFromBuf(bw.Bytes())
		assert.Equal(t, v, br.ReadBool())
	}
}

func TestReadPastEndIsSticky(t *testing.T) {
	br := NewBinReaderFromBuf([]byte{1, 2})
	_ = br.ReadU32LE()
	require.Error(t, br.Err)
	// Further reads are no-ops, not partial reads.
	assert.Equal(t, uint8(0), br.ReadU8())
	require.Error(t, br.Err)
}

func TestWriteStopsOnFirstError(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteI32LE(-5)
	before := bw.Bytes()
	bw.WriteU32LE(42)
	after := bw.Bytes()
	assert.Equal(t, before, after)
}
