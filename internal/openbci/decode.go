package openbci

import "encoding/binary"

// Frame sentinels.
const (
	StartByte = 0xA0 // start of data packet
	EndByte   = 0xC0 // end of data packet
)

// Single-byte commands understood by the board firmware.
const (
	CmdStreamStart = 'b'
	CmdStreamStop  = 's'
	CmdSoftReset   = 'v'
)

// HandshakeTerminator ends the free-form text the board sends after a reset.
const HandshakeTerminator = "$$$"

// Sample is one decoded frame: a row of channel readings and a row of aux
// readings. Rows are freshly allocated per frame, so ownership passes to
// whichever sink receives them.
type Sample struct {
	Tag  byte // device sequence tag, wraps at 255; not the emission index
	Chan []int64
	Aux  []int16
}

// Decoder converts a raw frame body into channel and aux rows. It performs
// no I/O and has no failure path: the synchronizer only hands it bodies
// whose length and END sentinel have already been verified.
type Decoder struct {
	channelCount int
	auxCount     int
}

// NewDecoder returns a decoder for the given channel and aux counts.
func NewDecoder(channelCount, auxCount int) *Decoder {
	return &Decoder{channelCount: channelCount, auxCount: auxCount}
}

// Decode parses a frame body (sample tag + channel block + aux block, the
// sentinels excluded). Channels are 3-byte big-endian two's-complement
// values sign-extended to 32 bits before widening.
//
// The sign prefix is chosen with the firmware reference's `>= 127` test,
// which treats a leading 0x7F as negative. Strict two's-complement would
// test `>= 128`; the off-by-one boundary is preserved bit-for-bit.
func (d *Decoder) Decode(body []byte) Sample {
	s := Sample{
		Tag:  body[0],
		Chan: make([]int64, d.channelCount),
		Aux:  make([]int16, d.auxCount),
	}

	j := 1
	for i := range s.Chan {
		var prefix uint32
		if body[j] >= 127 {
			prefix = 0xFF
		}
		v := int32(prefix<<24 | uint32(body[j])<<16 | uint32(body[j+1])<<8 | uint32(body[j+2]))
		s.Chan[i] = int64(v)
		j += 3
	}

	j = 1 + 3*d.channelCount
	for i := range s.Aux {
		s.Aux[i] = int16(binary.BigEndian.Uint16(body[j : j+2]))
		j += 2
	}

	return s
}
