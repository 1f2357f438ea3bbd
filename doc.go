// Package wasmkcp hosts a KCP-style reliable transport engine compiled to
// WebAssembly and exposes its sessions to Go code.
//
// The engine runs inside an isolated wazero module. This library creates and
// destroys protocol sessions in that module, copies datagrams across the
// linear memory boundary, drives the engine clock on a timer and lets callers
// block until a complete message has been reassembled.
//
// # Architecture Overview
//
//	wasmkcp/             Root package with the Memory and Allocator interfaces
//	├── engine/          wazero host: load-once runtime, exports, env.output
//	├── session/         Session facade: Send, Input, Recv, Flush, Release
//	├── bridge/          Copies bytes in and out of module memory
//	├── registry/        Handle to output callback table
//	├── scheduler/       Periodic update ticker
//	├── gate/            Broadcast wait/notify used by Recv
//	├── errors/          Structured error types
//	└── cmd/kcpchat/     Loopback driver and TUI
//
// # Quick Start
//
//	rt, err := engine.NewRuntime(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	if _, err := rt.Load(ctx, kcpWasm); err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := session.New(ctx, rt, func(datagram []byte) {
//	    conn.Write(datagram)
//	}, &session.Config{Conv: 42, NoDelay: true, Interval: 10})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Release()
//
//	_ = s.Send([]byte("hello"))
//	_ = s.Flush()
//	msg, err := s.Recv(ctx, 0)
//
// Network I/O is the application's job: every datagram the engine emits is
// handed to the session callback, and datagrams read from the network are
// passed to Session.Input.
package wasmkcp
