package session

import "time"

// Configuration defaults.
const (
	DefaultInterval   = 40
	MinInterval       = 10
	DefaultSendWindow = 32
	DefaultRecvWindow = 32
	DefaultMTU        = 1400

	// DefaultRecvSize is the receive buffer size used when Recv is called
	// with a non-positive size.
	DefaultRecvSize = 1 << 20
)

// Config is the per-session engine configuration. Zero values select the
// defaults. It is applied once at construction.
type Config struct {
	// Conv is the conversation id. Both peers must use the same value.
	Conv uint32 `yaml:"conv"`

	// Interval is the internal update interval in milliseconds. Values below
	// MinInterval are raised to it. The session ticks every Interval/2.
	Interval int `yaml:"interval"`

	NoDelay      bool `yaml:"nodelay"`
	Resend       int  `yaml:"resend"`
	NoCongestion bool `yaml:"nc"`

	// Window sizes in packets.
	SendWindow int `yaml:"sndwnd"`
	RecvWindow int `yaml:"rcvwnd"`

	MTU int `yaml:"mtu"`
}

// DefaultConfig returns the configuration used for a nil *Config.
func DefaultConfig() Config {
	return Config{
		Interval:   DefaultInterval,
		SendWindow: DefaultSendWindow,
		RecvWindow: DefaultRecvWindow,
		MTU:        DefaultMTU,
	}
}

// Normalize returns c with defaults filled in and the interval clamped.
func (c Config) Normalize() Config {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.Interval < MinInterval {
		c.Interval = MinInterval
	}
	if c.SendWindow <= 0 {
		c.SendWindow = DefaultSendWindow
	}
	if c.RecvWindow <= 0 {
		c.RecvWindow = DefaultRecvWindow
	}
	if c.MTU <= 0 {
		c.MTU = DefaultMTU
	}
	return c
}

// TickPeriod is the update scheduler period, half the interval.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond / 2
}
