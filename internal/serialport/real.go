package serialport

import (
	"bytes"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// availableProbeTimeout bounds the non-blocking read used by BytesAvailable.
const availableProbeTimeout = 50 * time.Millisecond

// realPort wraps a go.bug.st serial port. The library offers no equivalent
// of a pending-byte count, so BytesAvailable probes the port with a short
// read timeout and stashes whatever arrives; later Reads drain the stash
// before touching the hardware again.
type realPort struct {
	port  serial.Port
	stash bytes.Buffer
}

// Open opens the serial port at path with the given options and returns it
// as a Port. Our Opener signature matches this function.
func Open(path string, opts Options) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return &realPort{port: port}, nil
}

func (p *realPort) Read(buf []byte) (int, error) {
	if p.stash.Len() > 0 {
		return p.stash.Read(buf)
	}
	return p.port.Read(buf)
}

func (p *realPort) Write(buf []byte) (int, error) {
	return p.port.Write(buf)
}

func (p *realPort) Close() error {
	return p.port.Close()
}

// BytesAvailable reports how many bytes can be read without blocking. Bytes
// pulled off the wire by the probe are kept in the stash, not discarded.
func (p *realPort) BytesAvailable() (int, error) {
	if err := p.port.SetReadTimeout(availableProbeTimeout); err != nil {
		return p.stash.Len(), fmt.Errorf("set probe timeout: %w", err)
	}

	buf := make([]byte, 512)
	n, readErr := p.port.Read(buf)
	if n > 0 {
		p.stash.Write(buf[:n])
	}

	if err := p.port.SetReadTimeout(serial.NoTimeout); err != nil {
		return p.stash.Len(), fmt.Errorf("restore blocking reads: %w", err)
	}
	if readErr != nil {
		return p.stash.Len(), readErr
	}
	return p.stash.Len(), nil
}
