package codec

import (
	"bytes"
	"testing"

	"github.com/spacemeshos/go-scale"
	"github.com/stretchr/testify/require"
)

type pair struct {
	a uint32
	b bool
}

func (p *pair) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact32(enc, p.a)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeBool(enc, p.b)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (p *pair) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.a = field
	}
	{
		field, n, err := scale.DecodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.b = field
	}
	return total, nil
}

func TestEncodeDecode(t *testing.T) {
	in := pair{a: 70000, b: true}
	buf, err := Encode(&in)
	require.NoError(t, err)

	var out pair
	require.NoError(t, Decode(buf, &out))
	require.Equal(t, in, out)

	var stream bytes.Buffer
	n, err := EncodeTo(&stream, &in)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, buf, stream.Bytes())
}

func TestEncode_BufferNotShared(t *testing.T) {
	first := MustEncode(&pair{a: 1})
	second := MustEncode(&pair{a: 2, b: true})
	require.NotEqual(t, first, second)
	require.Equal(t, MustEncode(&pair{a: 1}), first)
}

func TestDecode_Errors(t *testing.T) {
	buf := MustEncode(&pair{a: 5, b: true})

	var out pair
	require.ErrorContains(t, Decode(append(buf, 0), &out), "trailing")
	require.Error(t, Decode(buf[:1], &out))
}
