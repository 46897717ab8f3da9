package backlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreFetch(t *testing.T) {
	b := New(4)

	b.Store(10, 100, []byte{1, 2, 3})

	got, ok := b.Fetch(10)
	require.True(t, ok)
	require.Equal(t, uint16(10), got.Seq)
	require.Equal(t, uint32(100), got.Timestamp)
	require.Equal(t, []byte{1, 2, 3}, got.Payload)

	_, ok = b.Fetch(11)
	require.False(t, ok)
}

func TestWraparoundEviction(t *testing.T) {
	b := New(4)

	b.Store(0, 0, []byte{0})
	b.Store(4, 400, []byte{4}) // same slot as seq 0

	_, ok := b.Fetch(0)
	require.False(t, ok, "seq 0 must be evicted once seq 4 reuses its slot")

	got, ok := b.Fetch(4)
	require.True(t, ok)
	require.Equal(t, []byte{4}, got.Payload)
}

func TestClear(t *testing.T) {
	b := New(4)
	b.Store(1, 0, []byte{1})
	b.Clear()

	_, ok := b.Fetch(1)
	require.False(t, ok)
}

func TestSeqWraparoundNearUint16Max(t *testing.T) {
	b := New(DefaultSize)
	b.Store(65535, 0, []byte{0xFF})

	got, ok := b.Fetch(65535)
	require.True(t, ok)
	require.Equal(t, []byte{0xFF}, got.Payload)
}
