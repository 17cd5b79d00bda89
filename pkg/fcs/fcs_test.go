package fcs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	// X.25 check value over "123456789"
	require.Equal(t, uint16(0x906e), Sum([]byte("123456789")))
}

func TestAppendVerify(t *testing.T) {
	for _, payload := range [][]byte{
		{},
		{0x02},
		[]byte("hello world"),
	} {
		frame := Append(append([]byte(nil), payload...))
		require.Len(t, frame, len(payload)+Size)
		got, err := Verify(frame)
		require.NoError(t, err)
		require.Equal(t, payload, got)
	}
}

func TestVerifyErrors(t *testing.T) {
	_, err := Verify([]byte{1})
	require.Equal(t, ErrShort, err)

	frame := Append([]byte("abc"))
	frame[1] ^= 0x20
	_, err = Verify(frame)
	require.Equal(t, ErrMismatch, err)
}
