// Package openbci acquires multi-channel analog samples from an OpenBCI
// amplifier over a serial link and republishes them as two indexed output
// streams (channel data and auxiliary data).
//
// WIRE FORMAT (33 bytes for the default 8-channel/3-aux board):
//
//	┌──────────────┬──────┬───────────────────────┬──────────────────┬──────────────┐
//	│ START (0xA0) │ tag  │ channels (3 B each)   │ aux (2 B each)   │ END (0xC0)   │
//	│ 1 byte       │ 1 B  │ 3 × channelCount      │ 2 × auxCount     │ 1 byte       │
//	└──────────────┴──────┴───────────────────────┴──────────────────┴──────────────┘
//
// Channel values are 3-byte big-endian two's-complement; aux values are
// big-endian int16. The board is driven with single-byte commands ('b' to
// begin streaming, 's' to stop, 'v' to soft-reset) and answers a reset with
// free-form text terminated by "$$$".
//
// The stream has no framing beyond the sentinels, so the synchronizer has to
// self-heal: bytes seen outside a frame are counted and discarded until the
// next START byte, and a frame whose END byte fails verification is emitted
// as an all-zero sample so the output index never gaps. Transport failures
// are fatal to the acquisition loop and surface through Device.Wait.
package openbci
