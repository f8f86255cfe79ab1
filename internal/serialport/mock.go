package serialport

import (
	"bytes"
	"io"
	"sync"
)

// MockPort implements Port with configurable behaviour for testing. It
// provides fine-grained control over reads, writes, errors, and blocking.
type MockPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls.
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port.
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error

	// WriteError is returned by the next Write call if set.
	WriteError error

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// BlockReads causes Read on an empty buffer to wait until data is added
	// or the port is closed, like a real serial port with no traffic. When
	// false an exhausted buffer returns io.EOF.
	BlockReads bool

	// ReadCalls and WriteCalls record call counts.
	ReadCalls  int
	WriteCalls int

	readCond *sync.Cond
}

// NewMockPort creates a MockPort preloaded with the given read data.
func NewMockPort(data []byte) *MockPort {
	p := &MockPort{
		ReadBuffer:  bytes.NewBuffer(data),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

func (p *MockPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadCalls++

	if p.Closed {
		return 0, ErrPortClosed
	}
	if p.ReadError != nil {
		err := p.ReadError
		p.ReadError = nil
		return 0, err
	}

	if p.ReadBuffer.Len() == 0 {
		if !p.BlockReads {
			return 0, io.EOF
		}
		for !p.Closed && p.ReadBuffer.Len() == 0 {
			p.readCond.Wait()
		}
		if p.Closed {
			return 0, ErrPortClosed
		}
	}

	return p.ReadBuffer.Read(buf)
}

func (p *MockPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.WriteCalls++

	if p.Closed {
		return 0, ErrPortClosed
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}

	return p.WriteBuffer.Write(buf)
}

func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Closed = true
	p.readCond.Broadcast()
	return p.CloseError
}

// BytesAvailable reports how much scripted data remains unread.
func (p *MockPort) BytesAvailable() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Closed {
		return 0, ErrPortClosed
	}
	return p.ReadBuffer.Len(), nil
}

// AddReadData appends data to be returned by subsequent Read calls and wakes
// any blocked reader.
func (p *MockPort) AddReadData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadBuffer.Write(data)
	p.readCond.Signal()
}

// WrittenData returns a copy of all data written to the port.
func (p *MockPort) WrittenData() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]byte(nil), p.WriteBuffer.Bytes()...)
}
