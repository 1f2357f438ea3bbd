// Package testengine embeds a loopback engine module with the export surface
// of the KCP wasm build. engine.wasm is assembled from engine.wat.
//
// The module does not implement ARQ. send frames messages into a send
// queue, flush hands each message to env.output, input stores datagrams in a
// receive buffer, and update moves that buffer to the queue recv drains and
// flushes pending sends. Data fed through input is therefore only readable
// after the next update.
package testengine

import (
	_ "embed"
)

//go:embed engine.wasm
var wasm []byte

// Session control block offsets readable through the inspect export.
const (
	OffsetInUse    = 0
	OffsetConv     = 4
	OffsetCurrent  = 8
	OffsetSendLen  = 12
	OffsetRecvBuf  = 16
	OffsetRecvLen  = 20
	OffsetNoDelay  = 24
	OffsetInterval = 28
	OffsetResend   = 32
	OffsetNC       = 36
	OffsetSndWnd   = 40
	OffsetRcvWnd   = 44
	OffsetMTU      = 48
	OffsetUpdates  = 52
)

// Diagnostics exports.
const (
	ExportInspect = "inspect"
	ExportLive    = "live"
)

// MaxSessions is the number of session slots in the module.
const MaxSessions = 8

// MinMTU is the smallest MTU setmtu accepts.
const MinMTU = 50

// Wasm returns a copy of the module binary.
func Wasm() []byte {
	out := make([]byte, len(wasm))
	copy(out, wasm)
	return out
}
