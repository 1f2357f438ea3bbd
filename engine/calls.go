package engine

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"

	"github.com/wippyai/wasm-kcp/errors"
)

// Calls exposes the engine exports to an Exec callback. It is only valid for
// the duration of that callback.
type Calls struct {
	in *Instance
}

// Create creates a session for conv and returns its handle.
func (c *Calls) Create(conv uint32) (uint32, error) {
	res, err := c.in.invoke(ExportCreate, 0, api.EncodeU32(conv))
	if err != nil {
		return 0, err
	}
	h := api.DecodeU32(res[0])
	if h == 0 {
		return 0, errors.New(errors.PhaseEngine, errors.KindAllocation).
			Op(ExportCreate).
			Value(conv).
			Detail("engine returned a null session").
			Build()
	}
	return h, nil
}

// Destroy releases the session. The handle is invalid afterwards.
func (c *Calls) Destroy(h uint32) error {
	_, err := c.in.invoke(ExportRelease, h, api.EncodeU32(h))
	return err
}

// Update advances the session clock to current milliseconds.
func (c *Calls) Update(h, current uint32) error {
	_, err := c.in.invoke(ExportUpdate, h, api.EncodeU32(h), api.EncodeU32(current))
	return err
}

// Input feeds one datagram received from the network.
func (c *Calls) Input(h uint32, data []byte) (err error) {
	ptr, err := c.in.bridge.WriteIn(data)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, c.in.bridge.Free(ptr)) }()

	_, err = c.in.invoke(ExportInput, h, api.EncodeU32(h), api.EncodeU32(ptr), api.EncodeI32(int32(len(data))))
	return err
}

// Send enqueues an application message and returns the engine status.
// The engine copies the payload, so the boundary buffer is freed on return.
func (c *Calls) Send(h uint32, data []byte) (status int32, err error) {
	ptr, err := c.in.bridge.WriteIn(data)
	if err != nil {
		return 0, err
	}
	defer func() { err = multierr.Append(err, c.in.bridge.Free(ptr)) }()

	res, err := c.in.invoke(ExportSend, h, api.EncodeU32(h), api.EncodeU32(ptr), api.EncodeI32(int32(len(data))))
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res[0]), nil
}

// Recv drains one reassembled message into the buffer at ptr. A negative
// result means no complete message fits or is ready.
func (c *Calls) Recv(h, ptr, capacity uint32) (int32, error) {
	res, err := c.in.invoke(ExportRecv, h, api.EncodeU32(h), api.EncodeU32(ptr), api.EncodeU32(capacity))
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res[0]), nil
}

// Flush emits pending segments immediately.
func (c *Calls) Flush(h uint32) error {
	_, err := c.in.invoke(ExportFlush, h, api.EncodeU32(h))
	return err
}

// NoDelay configures nodelay mode, the internal interval, fast resend and
// congestion control.
func (c *Calls) NoDelay(h uint32, nodelay bool, interval, resend int, nc bool) (int32, error) {
	res, err := c.in.invoke(ExportNoDelay, h,
		api.EncodeU32(h),
		api.EncodeI32(boolToI32(nodelay)),
		api.EncodeI32(int32(interval)),
		api.EncodeI32(int32(resend)),
		api.EncodeI32(boolToI32(nc)))
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res[0]), nil
}

// WndSize sets the send and receive windows in packets.
func (c *Calls) WndSize(h uint32, snd, rcv int) (int32, error) {
	res, err := c.in.invoke(ExportWndSize, h, api.EncodeU32(h), api.EncodeI32(int32(snd)), api.EncodeI32(int32(rcv)))
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res[0]), nil
}

// SetMTU sets the maximum transmission unit.
func (c *Calls) SetMTU(h uint32, mtu int) (int32, error) {
	res, err := c.in.invoke(ExportSetMTU, h, api.EncodeU32(h), api.EncodeI32(int32(mtu)))
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res[0]), nil
}

// Alloc allocates a boundary buffer in engine memory.
func (c *Calls) Alloc(size uint32) (uint32, error) {
	return c.in.bridge.Alloc(size)
}

// WriteIn copies data into a fresh boundary buffer the caller must Free.
func (c *Calls) WriteIn(data []byte) (uint32, error) {
	return c.in.bridge.WriteIn(data)
}

// Free releases a boundary buffer.
func (c *Calls) Free(ptr uint32) error {
	return c.in.bridge.Free(ptr)
}

// ReadOut copies n bytes at ptr out of engine memory.
func (c *Calls) ReadOut(ptr, n uint32) ([]byte, error) {
	return c.in.bridge.ReadOut(ptr, n)
}

// Invoke calls any function export by name, including diagnostics exports
// outside the bound set.
func (c *Calls) Invoke(name string, params ...uint64) ([]uint64, error) {
	if fn := c.in.exports[name]; fn == nil && c.in.module != nil {
		if fn = c.in.module.ExportedFunction(name); fn == nil {
			return nil, errors.MissingExport(name)
		}
		c.in.exports[name] = fn
	}
	return c.in.invoke(name, 0, params...)
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
