package openbci

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/samuelgarcia/pyacq/internal/serialport"
)

// resetSettleDelay is how long the board needs after a soft reset before it
// is ready to answer. Hardware value; tests shorten it with an option.
const resetSettleDelay = 2 * time.Second

// Device is the node-facing surface for one OpenBCI amplifier. It owns the
// configuration, the serial port lifecycle, and the acquisition worker. The
// lifecycle is Configure → Initialize → Start → Stop → Wait → Close; Close
// must not be called while the worker is still running.
type Device struct {
	open        serialport.Opener
	logf        func(string, ...any)
	settleDelay time.Duration
	out         Outputs

	cfg        Config
	configured bool
	chanSpec   StreamSpec
	auxSpec    StreamSpec

	port   serialport.Port
	worker *Worker
}

// Option configures a Device at construction.
type Option func(*Device)

// WithOpener substitutes the transport opener, e.g. with a mock port or the
// simulated board.
func WithOpener(open serialport.Opener) Option {
	return func(d *Device) { d.open = open }
}

// WithLogf sets the instance-scoped diagnostic logger. Passing nil mutes
// diagnostics.
func WithLogf(logf func(string, ...any)) Option {
	return func(d *Device) {
		if logf == nil {
			logf = func(string, ...any) {}
		}
		d.logf = logf
	}
}

// WithSettleDelay overrides the post-reset settle delay.
func WithSettleDelay(delay time.Duration) Option {
	return func(d *Device) { d.settleDelay = delay }
}

// NewDevice builds a Device bound to the given output sinks. It fails fast,
// before any configuration, if the serial transport capability has been
// explicitly removed.
func NewDevice(out Outputs, opts ...Option) (*Device, error) {
	d := &Device{
		open:        serialport.Open,
		logf:        log.Printf,
		settleDelay: resetSettleDelay,
		out:         out,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.open == nil {
		return nil, ErrNoTransport
	}
	return d, nil
}

// Configure validates and stores the device configuration and records the
// output stream shapes. It does not touch the transport.
func (d *Device) Configure(cfg Config) error {
	normalized, err := cfg.Normalize()
	if err != nil {
		return err
	}

	d.cfg = normalized
	d.chanSpec = StreamSpec{ChannelCount: normalized.ChannelCount, SampleRate: normalized.SampleRate}
	d.auxSpec = StreamSpec{ChannelCount: normalized.AuxCount, SampleRate: normalized.SampleRate}
	d.configured = true
	return nil
}

// ChanSpec returns the declared shape of the channel output stream.
func (d *Device) ChanSpec() StreamSpec { return d.chanSpec }

// AuxSpec returns the declared shape of the aux output stream.
func (d *Device) AuxSpec() StreamSpec { return d.auxSpec }

// Config returns the normalized configuration applied by Configure.
func (d *Device) Config() Config { return d.cfg }

// Initialize opens the serial port at the configured identity and baud,
// soft-resets the board, drains its handshake response, and constructs the
// acquisition worker.
func (d *Device) Initialize() error {
	if !d.configured {
		return ErrNotConfigured
	}

	port, err := d.open(d.cfg.PortName, serialport.Options{BaudRate: d.cfg.BaudRate})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", d.cfg.PortName, err)
	}
	d.port = port

	if err := d.resetBoard(); err != nil {
		port.Close()
		d.port = nil
		return err
	}

	d.worker = newWorker(port, d.cfg, d.out, d.logf)
	return nil
}

// resetBoard issues a soft reset, gives the board time to settle, then
// drains the free-form banner it sends back.
func (d *Device) resetBoard() error {
	if _, err := d.port.Write([]byte{CmdSoftReset}); err != nil {
		return fmt.Errorf("send soft reset command: %w", err)
	}
	time.Sleep(d.settleDelay)
	return d.drainHandshake()
}

// drainHandshake reads and logs any pending board response, one byte at a
// time, up to the "$$$" terminator. A board with nothing queued is normal.
func (d *Device) drainHandshake() error {
	pending, err := d.port.BytesAvailable()
	if err != nil {
		return fmt.Errorf("probe handshake response: %w", err)
	}
	if pending == 0 {
		d.logf("no message recv")
		return nil
	}

	var msg []byte
	var b [1]byte
	for !bytes.Contains(msg, []byte(HandshakeTerminator)) {
		if _, err := io.ReadFull(d.port, b[:]); err != nil {
			return fmt.Errorf("read handshake response: %w", err)
		}
		msg = append(msg, b[0])
	}
	d.logf("recv message %s", msg)
	return nil
}

// Start delegates to the acquisition worker.
func (d *Device) Start() error {
	if d.worker == nil {
		return ErrNotInitialized
	}
	return d.worker.Start()
}

// Stop delegates to the acquisition worker. It returns before the worker
// has necessarily exited; use Wait for quiescence.
func (d *Device) Stop() {
	if d.worker != nil {
		d.worker.Stop()
	}
}

// Wait blocks until the worker has exited and returns its terminal status:
// nil after a cooperative stop, the transport fault otherwise.
func (d *Device) Wait() error {
	if d.worker == nil {
		return nil
	}
	return d.worker.Wait()
}

// Close closes the serial port. Safe to call after Stop and Wait have
// completed, and safe to call on a device that never initialized.
func (d *Device) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}
