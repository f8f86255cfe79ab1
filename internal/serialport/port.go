// Package serialport provides the byte-level serial link used to talk to an
// acquisition board. The Port interface is intentionally narrow so the frame
// decoding layers can be tested against in-memory ports without hardware.
package serialport

import (
	"errors"
	"io"
)

// ErrPortClosed is returned by operations on a port that has been closed.
var ErrPortClosed = errors.New("serialport: port closed")

// Port is the minimal surface the acquisition layers need from a serial
// link: blocking reads and writes, close, and a non-blocking probe for
// pending input used when draining device handshake responses.
type Port interface {
	io.ReadWriter
	io.Closer

	// BytesAvailable reports how many bytes can currently be read without
	// blocking.
	BytesAvailable() (int, error)
}

// Opener is a function that opens a serial port at the given path. It exists
// so device construction can inject alternative transports (mock ports, the
// simulated board) in place of real hardware.
type Opener func(path string, opts Options) (Port, error)
