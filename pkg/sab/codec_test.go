package sab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	in := PositionFrame{
		Tick:  42,
		Alpha: 0.25,
		Nodes: []NodePosition{
			{X: 1.5, Y: -2, Kind: KindTag, Flags: FlagHighlighted},
			{X: 400, Y: 300, Kind: KindSite, Flags: FlagHighlighted | FlagSelected},
		},
	}
	data := EncodeFrame(in)
	assert.Len(t, data, 12+2*12)

	out, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEmptyFrame(t *testing.T) {
	out, err := DecodeFrame(EncodeFrame(PositionFrame{Tick: 1}))
	require.NoError(t, err)
	assert.Empty(t, out.Nodes)
	assert.Equal(t, uint32(1), out.Tick)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	data := EncodeFrame(PositionFrame{Nodes: make([]NodePosition, 3)})

	_, err := DecodeFrame(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrShortPayload)

	_, err = DecodeFrame(data[:4])
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestMaxNodes(t *testing.T) {
	if got := MaxNodes(DefaultBufferSz); got != (DefaultBufferSz-28)/12 {
		t.Errorf("MaxNodes(%d) = %d", DefaultBufferSz, got)
	}
	if got := MaxNodes(8); got != 0 {
		t.Errorf("MaxNodes(8) = %d, want 0", got)
	}
}
