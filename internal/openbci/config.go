package openbci

import (
	"errors"
	"fmt"
)

// Defaults for the 8-channel Daisy board.
const (
	DefaultBoardName    = "Daisy"
	DefaultPortName     = "/dev/ttyUSB0"
	DefaultBaudRate     = 115200
	DefaultChannelCount = 8
	DefaultAuxCount     = 3
	DefaultSampleRate   = 250.0
)

var (
	// ErrBadPacketSize reports a packet size that does not match the
	// configured channel and aux counts.
	ErrBadPacketSize = errors.New("openbci: packet size inconsistent with channel and aux counts")

	// ErrNoTransport reports that no serial transport capability was
	// supplied at device construction.
	ErrNoTransport = errors.New("openbci: no serial transport available")

	// ErrNotConfigured is returned by Initialize before Configure has run.
	ErrNotConfigured = errors.New("openbci: device not configured")

	// ErrNotInitialized is returned by Start before Initialize has run.
	ErrNotInitialized = errors.New("openbci: device not initialized")
)

// Config describes one board connection. PacketSize is derived from the
// channel and aux counts; leave it zero and Normalize fills it in. A
// non-zero PacketSize that disagrees with the counts is a configuration
// error, never tolerated at runtime.
type Config struct {
	BoardName    string
	PortName     string
	BaudRate     int
	ChannelCount int
	AuxCount     int
	SampleRate   float64
	PacketSize   int
}

// Normalize applies board defaults to unset fields and validates the result.
func (c Config) Normalize() (Config, error) {
	cfg := c

	if cfg.BoardName == "" {
		cfg.BoardName = DefaultBoardName
	}
	if cfg.PortName == "" {
		cfg.PortName = DefaultPortName
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ChannelCount == 0 {
		cfg.ChannelCount = DefaultChannelCount
	}
	if cfg.AuxCount == 0 {
		cfg.AuxCount = DefaultAuxCount
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if cfg.ChannelCount < 1 {
		return cfg, fmt.Errorf("invalid channel count %d", cfg.ChannelCount)
	}
	if cfg.AuxCount < 0 {
		return cfg, fmt.Errorf("invalid aux count %d", cfg.AuxCount)
	}
	if cfg.SampleRate <= 0 {
		return cfg, fmt.Errorf("invalid sample rate %g", cfg.SampleRate)
	}

	want := 3 + 3*cfg.ChannelCount + 2*cfg.AuxCount
	if cfg.PacketSize == 0 {
		cfg.PacketSize = want
	}
	if cfg.PacketSize != want {
		return cfg, fmt.Errorf("%w: got %d, want %d for %d channels and %d aux",
			ErrBadPacketSize, cfg.PacketSize, want, cfg.ChannelCount, cfg.AuxCount)
	}

	return cfg, nil
}

// BodySize is the number of frame bytes between the START and END sentinels:
// the sample tag plus the channel and aux blocks.
func (c Config) BodySize() int {
	return c.PacketSize - 2
}

// StreamSpec describes the shape and rate of one output stream, recorded at
// configure time for downstream consumers declaring their ports.
type StreamSpec struct {
	ChannelCount int
	SampleRate   float64
}
