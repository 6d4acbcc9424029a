// Package sab encodes layout frames for a SharedArrayBuffer shared with the
// browser, and on js/wasm gives zero-copy access to that buffer.
package sab

import (
	"encoding/binary"
	"errors"
	"math"
)

// Message types for the binary protocol
const (
	MsgTypeNone  uint32 = 0
	MsgTypeFrame uint32 = 1
)

// Node kinds as encoded on the wire.
const (
	KindSite uint16 = 0
	KindTag  uint16 = 1
)

// Node flags.
const (
	FlagHighlighted uint16 = 1 << 0
	FlagSelected    uint16 = 1 << 1
)

const (
	frameHeaderSize = 12
	nodeRecordSize  = 12
)

// ErrShortPayload is returned when a payload is smaller than its header claims.
var ErrShortPayload = errors.New("sab: payload too short")

// NodePosition is one node of a position frame. Nodes are sent in the
// order the host last received with the JSON frame, so no id travels here.
type NodePosition struct {
	X     float32
	Y     float32
	Kind  uint16
	Flags uint16
}

// PositionFrame is the per-tick payload.
type PositionFrame struct {
	Tick  uint32
	Alpha float32
	Nodes []NodePosition
}

// EncodeFrame encodes a frame into binary format
// Header: [count:4][tick:4][alpha:4]
// Format per node: [x:4][y:4][kind:2][flags:2] = 12 bytes
func EncodeFrame(f PositionFrame) []byte {
	data := make([]byte, frameHeaderSize+len(f.Nodes)*nodeRecordSize)

	binary.LittleEndian.PutUint32(data[0:4], uint32(len(f.Nodes)))
	binary.LittleEndian.PutUint32(data[4:8], f.Tick)
	binary.LittleEndian.PutUint32(data[8:12], math.Float32bits(f.Alpha))

	offset := frameHeaderSize
	for _, n := range f.Nodes {
		binary.LittleEndian.PutUint32(data[offset:offset+4], math.Float32bits(n.X))
		binary.LittleEndian.PutUint32(data[offset+4:offset+8], math.Float32bits(n.Y))
		binary.LittleEndian.PutUint16(data[offset+8:offset+10], n.Kind)
		binary.LittleEndian.PutUint16(data[offset+10:offset+12], n.Flags)
		offset += nodeRecordSize
	}

	return data
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(data []byte) (PositionFrame, error) {
	if len(data) < frameHeaderSize {
		return PositionFrame{}, ErrShortPayload
	}
	count := int(binary.LittleEndian.Uint32(data[0:4]))
	if len(data) < frameHeaderSize+count*nodeRecordSize {
		return PositionFrame{}, ErrShortPayload
	}

	f := PositionFrame{
		Tick:  binary.LittleEndian.Uint32(data[4:8]),
		Alpha: math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])),
		Nodes: make([]NodePosition, count),
	}
	offset := frameHeaderSize
	for i := range f.Nodes {
		f.Nodes[i] = NodePosition{
			X:     math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4])),
			Y:     math.Float32frombits(binary.LittleEndian.Uint32(data[offset+4 : offset+8])),
			Kind:  binary.LittleEndian.Uint16(data[offset+8 : offset+10]),
			Flags: binary.LittleEndian.Uint16(data[offset+10 : offset+12]),
		}
		offset += nodeRecordSize
	}
	return f, nil
}

// MaxNodes returns how many nodes fit a buffer of bufLen bytes after the
// message header.
func MaxNodes(bufLen int) int {
	n := (bufLen - OffsetPayload - frameHeaderSize) / nodeRecordSize
	if n < 0 {
		return 0
	}
	return n
}

// Header offsets (first 16 bytes are header)
const (
	OffsetReady     = 0  // int32: 0 = idle, 1 = data ready
	OffsetLength    = 4  // uint32: payload length
	OffsetMsgType   = 8  // uint32: message type
	OffsetReserved  = 12 // uint32: reserved
	OffsetPayload   = 16 // payload starts here
	DefaultBufferSz = 65536
)
