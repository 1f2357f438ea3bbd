// Package session is the host-facing facade over one engine session.
//
// A Session is created on a loaded engine.Runtime and lives until Release:
//
//	s, err := session.New(ctx, rt, func(b []byte) { conn.Write(b) }, &session.Config{Conv: 7})
//	...
//	s.Input(datagram)      // bytes from the network
//	s.Send(msg)            // queue a message
//	msg, err := s.Recv(ctx, 0)
//	s.Release()
//
// Each session runs its own update scheduler at half the configured interval.
// Every tick calls the engine's update and then wakes pending Recv calls, which
// poll again. Datagrams the engine emits are handed to the session callback
// after the engine call that produced them returns.
package session
