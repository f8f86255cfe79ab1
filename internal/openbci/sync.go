package openbci

import (
	"fmt"
	"io"
)

// frameSync turns the raw byte stream into per-frame emissions. All of its
// state is owned by the single goroutine driving it; nothing here is shared
// across goroutines.
//
// Each call to step runs at most one frame cycle: Seeking consumes a single
// byte looking for the START sentinel, ReadingBody pulls the fixed-size body
// plus the END candidate, and Emit pushes one row to each sink under the
// next sample index. A sentinel mismatch after a full body read emits zeroed
// rows instead of resynchronizing mid-frame, keeping the index continuous
// for downstream consumers.
type frameSync struct {
	r    io.Reader
	cfg  Config
	dec  *Decoder
	out  Outputs
	logf func(string, ...any)

	lostBytes uint64
	index     uint64
}

func newFrameSync(r io.Reader, cfg Config, out Outputs, logf func(string, ...any)) *frameSync {
	return &frameSync{
		r:    r,
		cfg:  cfg,
		dec:  NewDecoder(cfg.ChannelCount, cfg.AuxCount),
		out:  out.normalize(),
		logf: logf,
	}
}

// step consumes one byte in the Seeking state and, when it is the START
// sentinel, reads and emits the whole frame. Any transport error, including
// a short read, is returned unchanged in meaning and terminates the caller's
// loop; partial frames are never emitted.
func (f *frameSync) step() error {
	var b [1]byte
	if _, err := io.ReadFull(f.r, b[:]); err != nil {
		return fmt.Errorf("read frame start: %w", err)
	}

	if b[0] != StartByte {
		f.lostBytes++
		return nil
	}

	if f.lostBytes != 0 {
		f.logf("lost %d bytes before reading the beginning of a packet", f.lostBytes)
		f.lostBytes = 0
	}

	body := make([]byte, f.cfg.BodySize())
	if _, err := io.ReadFull(f.r, body); err != nil {
		return fmt.Errorf("read frame body: %w", err)
	}
	if _, err := io.ReadFull(f.r, b[:]); err != nil {
		return fmt.Errorf("read frame end: %w", err)
	}

	var s Sample
	if b[0] == EndByte {
		s = f.dec.Decode(body)
	} else {
		f.logf("wrong packet: end byte 0x%02X, emitting zeroed sample", b[0])
		s = Sample{
			Chan: make([]int64, f.cfg.ChannelCount),
			Aux:  make([]int16, f.cfg.AuxCount),
		}
	}

	f.index++
	f.out.Chan.Send(s.Chan, f.index)
	f.out.Aux.Send(s.Aux, f.index)
	return nil
}
