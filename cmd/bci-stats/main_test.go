package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelgarcia/pyacq/internal/openbci"
	"github.com/samuelgarcia/pyacq/internal/recorder"
)

func setupRecording(t *testing.T) (*recorder.DB, string) {
	t.Helper()

	db, err := recorder.Open(filepath.Join(t.TempDir(), "recordings.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg, err := openbci.Config{}.Normalize()
	if err != nil {
		t.Fatalf("failed to normalize config: %v", err)
	}
	rec, err := db.NewSession(cfg)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	rec.ChanSink().Send([]int64{1, 2, 3, 4, 5, 6, 7, 8}, 1)
	rec.AuxSink().Send([]int16{10, 20, 30}, 1)
	if err := rec.Close(); err != nil {
		t.Fatalf("failed to close recorder: %v", err)
	}

	return db, rec.SessionID()
}

func TestListSessions(t *testing.T) {
	db, sessionID := setupRecording(t)

	var buf bytes.Buffer
	if err := listSessions(&buf, db); err != nil {
		t.Fatalf("listSessions returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, sessionID) {
		t.Errorf("output does not mention session %s:\n%s", sessionID, out)
	}
	if !strings.Contains(out, "Daisy") {
		t.Errorf("output does not mention the board name:\n%s", out)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	db, err := recorder.Open(filepath.Join(t.TempDir(), "recordings.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer db.Close()

	var buf bytes.Buffer
	if err := listSessions(&buf, db); err != nil {
		t.Fatalf("listSessions returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "no sessions recorded") {
		t.Errorf("output = %q, want empty-database notice", buf.String())
	}
}

func TestPrintStats(t *testing.T) {
	db, sessionID := setupRecording(t)

	var buf bytes.Buffer
	if err := printStats(&buf, db, sessionID); err != nil {
		t.Fatalf("printStats returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "channel stream:") {
		t.Errorf("output missing channel stream section:\n%s", out)
	}
	if !strings.Contains(out, "aux stream:") {
		t.Errorf("output missing aux stream section:\n%s", out)
	}
	if !strings.Contains(out, "zeroed frames: 0") {
		t.Errorf("output missing zeroed-frame count:\n%s", out)
	}
}

func TestPrintStatsUnknownSession(t *testing.T) {
	db, _ := setupRecording(t)

	var buf bytes.Buffer
	if err := printStats(&buf, db, "no-such-session"); err != nil {
		t.Fatalf("printStats returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "no samples recorded") {
		t.Errorf("output = %q, want no-samples notice", buf.String())
	}
}
