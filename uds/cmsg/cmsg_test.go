//go:build unix

package cmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestBufferAddMessageRoundTrips(t *testing.T) {
	fds := []int{3, 7, 11}
	b := NewBuffer(64)
	b.AddRawMessage(unix.SOL_SOCKET, unix.SCM_RIGHTS, EncodeRights(fds))

	msgs, err := Parse(b.Bytes())
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got, err := cmsgDecodeRightsForTest(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, fds, got)
}

func TestBufferMultipleMessages(t *testing.T) {
	b := NewBuffer(0)
	b.AddRawMessage(unix.SOL_SOCKET, unix.SCM_RIGHTS, EncodeRights([]int{5}))
	b.AddRawMessage(unix.SOL_SOCKET, unix.SCM_RIGHTS, EncodeRights([]int{9, 10}))

	msgs, err := Parse(b.Bytes())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	first, err := cmsgDecodeRightsForTest(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, []int{5}, first)

	second, err := cmsgDecodeRightsForTest(msgs[1])
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, second)
}

func TestParseTruncatedBufferReportsError(t *testing.T) {
	b := NewBuffer(0)
	b.AddRawMessage(unix.SOL_SOCKET, unix.SCM_RIGHTS, EncodeRights([]int{5}))
	raw := b.Bytes()

	// Cut one byte short of the record's declared length; losing only
	// trailing alignment padding would not truncate the record.
	_, err := Parse(raw[:unix.CmsgLen(4)-1])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeWrongLevel(t *testing.T) {
	m := Cmsg{Level: 999, Type: unix.SCM_RIGHTS, Data: nil}
	_, err := Decode(RightsDecoder, m)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, WrongLevel, pe.Kind)
}

func TestDecodeWrongType(t *testing.T) {
	m := Cmsg{Level: unix.SOL_SOCKET, Type: 999, Data: nil}
	_, err := Decode(RightsDecoder, m)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, WrongType, pe.Kind)
}

func cmsgDecodeRightsForTest(m Cmsg) ([]int, error) {
	return Decode(RightsDecoder, m)
}
