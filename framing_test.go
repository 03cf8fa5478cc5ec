package goserdes

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramingRoundTripConcrete(t *testing.T) {
	buf := make([]byte, 5)
	n, err := writeFraming(FramingCP1, buf, 0x01020304)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04}, buf)

	id, read, err := readFraming(FramingCP1, buf)
	require.NoError(t, err)
	assert.Equal(t, int32(0x01020304), id)
	assert.Equal(t, 5, read)
}

func TestFramingRoundTripProperty(t *testing.T) {
	f := func(id int32) bool {
		buf := make([]byte, 5)
		if _, err := writeFraming(FramingCP1, buf, id); err != nil {
			return false
		}
		got, _, err := readFraming(FramingCP1, buf)
		return err == nil && got == id
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestFramingWriteAlwaysFiveBytes(t *testing.T) {
	buf := make([]byte, 5)
	n, err := writeFraming(FramingCP1, buf, 42)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestFramingWriteShortBuffer(t *testing.T) {
	buf := make([]byte, 4)
	_, err := writeFraming(FramingCP1, buf, 1)
	require.Error(t, err)
	assert.Equal(t, ErrBufferSize, CodeOf(err))
}

func TestFramingReadBadMagic(t *testing.T) {
	buf := []byte{1, 0, 0, 0, 7}
	_, _, err := readFraming(FramingCP1, buf)
	require.Error(t, err)
	assert.Equal(t, ErrFramingInvalid, CodeOf(err))
}

func TestFramingReadNoneReturnsZero(t *testing.T) {
	id, n, err := readFraming(FramingNone, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int32(0), id)
	assert.Equal(t, 0, n)
}

func TestFramingSizeByMode(t *testing.T) {
	assert.Equal(t, 5, framingSize(FramingCP1))
	assert.Equal(t, 0, framingSize(FramingNone))
}
