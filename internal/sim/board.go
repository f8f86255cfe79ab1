// Package sim provides an in-memory stand-in for an OpenBCI amplifier. The
// Board implements serialport.Port and speaks enough of the board protocol
// for the daemon and the acquisition tests to run without hardware: it
// answers a soft reset with a "$$$"-terminated banner, frames a synthetic
// sine wave while streaming, and supports fault injection for the
// resynchronization and corruption paths.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/samuelgarcia/pyacq/internal/openbci"
	"github.com/samuelgarcia/pyacq/internal/serialport"
)

const banner = "OpenBCI V3 Simulator\nOn Board ADS1299 Device ID: 0x3E\n$$$"

// waveFrequencyHz is the synthetic test tone frequency.
const waveFrequencyHz = 440.0

// waveAmplitude keeps channel values well inside the 24-bit range.
const waveAmplitude = 100000

// Board is a protocol-accurate fake amplifier. Frames are synthesized
// lazily as the consumer reads, so an idle consumer costs nothing and the
// pending buffer stays bounded by the reader's pace.
type Board struct {
	channelCount int
	auxCount     int
	sampleRate   float64

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []byte
	stream   bool
	closed   bool
	tag      byte
	tick     uint64
	corrupt  int
	commands []byte
	nextDue  time.Time
}

// NewBoard creates a simulated board with the given geometry.
func NewBoard(channelCount, auxCount int, sampleRate float64) *Board {
	b := &Board{
		channelCount: channelCount,
		auxCount:     auxCount,
		sampleRate:   sampleRate,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Opener returns a serialport.Opener that hands out this board regardless
// of the requested path, for wiring into a Device.
func (b *Board) Opener() serialport.Opener {
	return func(string, serialport.Options) (serialport.Port, error) {
		return b, nil
	}
}

// Read serves queued bytes, synthesizing frames on demand while streaming.
// Frame production is paced at the configured sample rate so the consumer
// experiences the back-pressure of a real link. With no data and no stream,
// Read blocks like a quiet serial line until a command or Close wakes it.
func (b *Board) Read(buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if b.closed {
			return 0, serialport.ErrPortClosed
		}
		if len(b.pending) > 0 {
			n := copy(buf, b.pending)
			b.pending = b.pending[n:]
			return n, nil
		}
		if b.stream {
			now := time.Now()
			if b.nextDue.IsZero() {
				b.nextDue = now
			}
			if wait := b.nextDue.Sub(now); wait > 0 {
				b.mu.Unlock()
				time.Sleep(wait)
				b.mu.Lock()
				continue
			}
			b.pending = append(b.pending, b.nextFrame()...)
			b.nextDue = b.nextDue.Add(time.Duration(float64(time.Second) / b.sampleRate))
			continue
		}
		b.cond.Wait()
	}
}

// Write interprets each byte as a board command. Unknown commands are
// ignored, as the firmware does.
func (b *Board) Write(buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, serialport.ErrPortClosed
	}

	for _, c := range buf {
		b.commands = append(b.commands, c)
		switch c {
		case openbci.CmdSoftReset:
			b.stream = false
			b.pending = append(b.pending[:0], banner...)
		case openbci.CmdStreamStart:
			b.stream = true
			b.nextDue = time.Time{} // restart pacing from now
		case openbci.CmdStreamStop:
			// Queue one final frame so a reader blocked on a quiet line can
			// finish its cycle and observe its own stop flag.
			if b.stream && len(b.pending) == 0 {
				b.pending = append(b.pending, b.nextFrame()...)
			}
			b.stream = false
		}
	}
	b.cond.Broadcast()
	return len(buf), nil
}

// Close wakes any blocked reader and marks the board gone.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
	return nil
}

// BytesAvailable reports only bytes already queued; it does not synthesize.
func (b *Board) BytesAvailable() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, serialport.ErrPortClosed
	}
	return len(b.pending), nil
}

// InjectNoise queues junk bytes ahead of the next frame, exercising the
// consumer's lost-byte resynchronization.
func (b *Board) InjectNoise(junk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, junk...)
	b.cond.Broadcast()
}

// CorruptNextFrame makes the next synthesized frame carry a wrong END byte.
func (b *Board) CorruptNextFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.corrupt++
}

// Commands returns a copy of every command byte written to the board.
func (b *Board) Commands() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.commands...)
}

// nextFrame builds one wire frame for the current tick. Channels carry a
// sine wave with per-channel phase offsets; aux values carry a slow ramp.
// Caller holds b.mu.
func (b *Board) nextFrame() []byte {
	packetSize := 3 + 3*b.channelCount + 2*b.auxCount
	frame := make([]byte, 0, packetSize)
	frame = append(frame, openbci.StartByte, b.tag)
	b.tag++

	t := float64(b.tick) / b.sampleRate
	for i := 0; i < b.channelCount; i++ {
		phase := 2 * math.Pi * float64(i) / float64(b.channelCount)
		v := int32(math.Round(waveAmplitude * math.Sin(2*math.Pi*waveFrequencyHz*t+phase)))
		u := uint32(v)
		frame = append(frame, byte(u>>16), byte(u>>8), byte(u))
	}
	for i := 0; i < b.auxCount; i++ {
		v := int16(b.tick % 1024)
		frame = append(frame, byte(uint16(v)>>8), byte(uint16(v)))
	}

	end := byte(openbci.EndByte)
	if b.corrupt > 0 {
		b.corrupt--
		end = 0x00
	}
	frame = append(frame, end)
	b.tick++
	return frame
}
