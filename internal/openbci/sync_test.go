package openbci

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// collector records every row and index a sink receives.
type collector[T any] struct {
	rows    [][]T
	indices []uint64
}

func (c *collector[T]) Send(row []T, index uint64) {
	c.rows = append(c.rows, row)
	c.indices = append(c.indices, index)
}

// encodeFrame builds a complete wire frame. Channel values must fit in 24
// bits; the end byte is caller-supplied so tests can corrupt it.
func encodeFrame(tag byte, chans []int32, aux []int16, end byte) []byte {
	frame := []byte{StartByte, tag}
	for _, v := range chans {
		u := uint32(v)
		frame = append(frame, byte(u>>16), byte(u>>8), byte(u))
	}
	for _, v := range aux {
		u := uint16(v)
		frame = append(frame, byte(u>>8), byte(u))
	}
	return append(frame, end)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := Config{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	return cfg
}

func runSync(t *testing.T, cfg Config, stream []byte) (*collector[int64], *collector[int16], []string) {
	t.Helper()

	chanOut := &collector[int64]{}
	auxOut := &collector[int16]{}
	var logs []string
	logf := func(format string, v ...any) { logs = append(logs, fmt.Sprintf(format, v...)) }

	fs := newFrameSync(bytes.NewReader(stream), cfg, Outputs{Chan: chanOut, Aux: auxOut}, logf)
	for {
		if err := fs.step(); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("step returned unexpected error: %v", err)
			}
			break
		}
	}
	return chanOut, auxOut, logs
}

func TestSyncValidFrame(t *testing.T) {
	cfg := testConfig(t)
	chans := []int32{100, -100, 0, 1, -1, 50000, -50000, 7}
	aux := []int16{1, -2, 3}

	chanOut, auxOut, _ := runSync(t, cfg, encodeFrame(1, chans, aux, EndByte))

	if len(chanOut.rows) != 1 || len(auxOut.rows) != 1 {
		t.Fatalf("got %d chan rows, %d aux rows, want 1 and 1", len(chanOut.rows), len(auxOut.rows))
	}
	if chanOut.indices[0] != 1 || auxOut.indices[0] != 1 {
		t.Errorf("first indices = %d, %d, want 1, 1", chanOut.indices[0], auxOut.indices[0])
	}
	for i, v := range chans {
		if chanOut.rows[0][i] != int64(v) {
			t.Errorf("chan[%d] = %d, want %d", i, chanOut.rows[0][i], v)
		}
	}
	for i, v := range aux {
		if auxOut.rows[0][i] != v {
			t.Errorf("aux[%d] = %d, want %d", i, auxOut.rows[0][i], v)
		}
	}
}

func TestSyncLostBytesCountedAndReset(t *testing.T) {
	cfg := testConfig(t)

	junk := []byte{0x01, 0x02, 0x03, 0xC0, 0xFF} // exactly 5 non-START bytes
	stream := append(junk, encodeFrame(0, make([]int32, 8), make([]int16, 3), EndByte)...)
	stream = append(stream, encodeFrame(1, make([]int32, 8), make([]int16, 3), EndByte)...)

	chanOut, _, logs := runSync(t, cfg, stream)

	if len(chanOut.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(chanOut.rows))
	}

	var lossLogs []string
	for _, l := range logs {
		if strings.Contains(l, "lost") {
			lossLogs = append(lossLogs, l)
		}
	}
	if len(lossLogs) != 1 {
		t.Fatalf("got %d loss diagnostics, want 1: %v", len(lossLogs), logs)
	}
	if !strings.Contains(lossLogs[0], "lost 5 bytes") {
		t.Errorf("loss diagnostic = %q, want it to report 5 bytes", lossLogs[0])
	}
}

func TestSyncCorruptedFrameEmitsZeroes(t *testing.T) {
	cfg := testConfig(t)
	chans := []int32{123, 456, 789, 1, 2, 3, 4, 5}
	aux := []int16{9, 8, 7}

	stream := encodeFrame(0, chans, aux, 0x00) // bad END byte
	stream = append(stream, encodeFrame(1, chans, aux, EndByte)...)

	chanOut, auxOut, logs := runSync(t, cfg, stream)

	if len(chanOut.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(chanOut.rows))
	}
	for i, v := range chanOut.rows[0] {
		if v != 0 {
			t.Errorf("corrupted chan[%d] = %d, want 0", i, v)
		}
	}
	for i, v := range auxOut.rows[0] {
		if v != 0 {
			t.Errorf("corrupted aux[%d] = %d, want 0", i, v)
		}
	}

	// Index still advanced through the corruption.
	if chanOut.indices[0] != 1 || chanOut.indices[1] != 2 {
		t.Errorf("indices = %v, want [1 2]", chanOut.indices)
	}
	if chanOut.rows[1][0] != 123 {
		t.Errorf("frame after corruption decoded %d, want 123", chanOut.rows[1][0])
	}

	var sawCorruption bool
	for _, l := range logs {
		if strings.Contains(l, "wrong packet") {
			sawCorruption = true
		}
	}
	if !sawCorruption {
		t.Error("corruption was not logged")
	}
}

func TestSyncIndexGapFreeAcrossMixedFrames(t *testing.T) {
	cfg := testConfig(t)

	var stream []byte
	const frames = 50
	for i := 0; i < frames; i++ {
		end := byte(EndByte)
		if i%7 == 3 {
			end = 0xA5 // corrupt every seventh-ish frame
		}
		if i%11 == 5 {
			stream = append(stream, 0xDE, 0xAD) // interleave junk
		}
		stream = append(stream, encodeFrame(byte(i), make([]int32, 8), make([]int16, 3), end)...)
	}

	chanOut, auxOut, _ := runSync(t, cfg, stream)

	if len(chanOut.rows) != frames {
		t.Fatalf("got %d rows, want %d", len(chanOut.rows), frames)
	}
	for i := range chanOut.indices {
		if chanOut.indices[i] != uint64(i+1) {
			t.Fatalf("chan index[%d] = %d, want %d", i, chanOut.indices[i], i+1)
		}
		if auxOut.indices[i] != uint64(i+1) {
			t.Fatalf("aux index[%d] = %d, want %d", i, auxOut.indices[i], i+1)
		}
	}
}

// TestSyncTruncatedBodyIsFault checks that a frame cut off mid-body is a
// transport error, not a corrupted-frame emission.
func TestSyncTruncatedBodyIsFault(t *testing.T) {
	cfg := testConfig(t)

	full := encodeFrame(0, make([]int32, 8), make([]int16, 3), EndByte)
	truncated := full[:10]

	chanOut := &collector[int64]{}
	fs := newFrameSync(bytes.NewReader(truncated), cfg, Outputs{Chan: chanOut}, func(string, ...any) {})

	err := fs.step()
	if err == nil {
		t.Fatal("step on truncated frame succeeded, want error")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("step error = %v, want io.ErrUnexpectedEOF", err)
	}
	if len(chanOut.rows) != 0 {
		t.Errorf("truncated frame emitted %d rows, want 0", len(chanOut.rows))
	}
}

// TestSyncSingleZeroFrame pins the default 8-channel/3-aux shape: one
// well-formed all-zero frame yields zero rows under index 1.
func TestSyncSingleZeroFrame(t *testing.T) {
	cfg := testConfig(t)
	if cfg.PacketSize != 33 {
		t.Fatalf("packet size = %d, want 33", cfg.PacketSize)
	}

	frame := append([]byte{StartByte, 0x01}, make([]byte, 30)...)
	frame = append(frame, EndByte)
	if len(frame) != 33 {
		t.Fatalf("frame length = %d, want 33", len(frame))
	}

	chanOut, auxOut, _ := runSync(t, cfg, frame)

	if len(chanOut.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(chanOut.rows))
	}
	if chanOut.indices[0] != 1 {
		t.Errorf("index = %d, want 1", chanOut.indices[0])
	}
	for i, v := range chanOut.rows[0] {
		if v != 0 {
			t.Errorf("chan[%d] = %d, want 0", i, v)
		}
	}
	if len(auxOut.rows[0]) != 3 {
		t.Errorf("aux row length = %d, want 3", len(auxOut.rows[0]))
	}
}
