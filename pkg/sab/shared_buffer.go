//go:build js && wasm

package sab

import (
	"encoding/binary"
	"syscall/js"
)

// SharedBuffer writes frames into a JS SharedArrayBuffer. The browser polls
// the ready flag (or waits on it with Atomics) and clears it once read.
type SharedBuffer struct {
	uint8View js.Value // Uint8Array view for byte access
	int32View js.Value // Int32Array view for Atomics
	length    int
}

// New wraps a JavaScript SharedArrayBuffer. It returns nil for a missing
// buffer so hosts can fall back to JSON frames.
func New(sabValue js.Value) *SharedBuffer {
	if sabValue.IsUndefined() || sabValue.IsNull() {
		return nil
	}
	return &SharedBuffer{
		uint8View: js.Global().Get("Uint8Array").New(sabValue),
		int32View: js.Global().Get("Int32Array").New(sabValue),
		length:    sabValue.Get("byteLength").Int(),
	}
}

// WriteFrame encodes f and publishes it as a MsgTypeFrame message. It
// returns false when the frame does not fit the buffer.
func (s *SharedBuffer) WriteFrame(f PositionFrame) bool {
	if len(f.Nodes) > MaxNodes(s.length) {
		return false
	}
	s.writeMessage(MsgTypeFrame, EncodeFrame(f))
	return true
}

// writeMessage copies header and payload, then raises the ready flag.
func (s *SharedBuffer) writeMessage(msgType uint32, payload []byte) {
	msg := make([]byte, OffsetPayload+len(payload))
	binary.LittleEndian.PutUint32(msg[OffsetLength:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(msg[OffsetMsgType:], msgType)
	copy(msg[OffsetPayload:], payload)

	// ready stays 0 until the whole message is in place
	js.CopyBytesToJS(s.uint8View.Call("subarray", 0, len(msg)), msg)

	atomics := js.Global().Get("Atomics")
	atomics.Call("store", s.int32View, OffsetReady/4, 1)
	atomics.Call("notify", s.int32View, OffsetReady/4, 1)
}
