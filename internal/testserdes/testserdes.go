// Package testserdes provides a round-trip assertion helper for
// wire-codec tests: encode expected, decode into actual, assert
// equality. The VerAck, GetAddr and Reject payload tests use it.
package testserdes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustybit-go/rustybit/pkg/wire"
)

// codec is satisfied by every payload.* message type.
type codec interface {
	Encode(*wire.BinWriter)
}

type decoder interface {
	Decode(*wire.BinReader)
}

// EncodeDecodeBinary checks that expected survives an encode/decode
// round trip unchanged, writing the result into actual.
func EncodeDecodeBinary(t *testing.T, expected codec, actual decoder) {
	t.Helper()
	data, err := EncodeBinary(expected)
	require.NoError(t, err)
	require.NoError(t, DecodeBinary(data, actual))
	require.Equal(t, expected, actual)
}

// EncodeBinary serializes v to a byte slice.
func EncodeBinary(v codec) ([]byte, error) {
	w := wire.NewBufBinWriter()
	v.Encode(w.BinWriter)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeBinary deserializes data into v.
func DecodeBinary(data []byte, v decoder) error {
	r := wire.NewBinReaderFromBuf(data)
	v.Decode(r)
	return r.Err
}
