package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/samuelgarcia/pyacq/internal/openbci"
)

// flushThreshold is the number of buffered rows that triggers a write.
const flushThreshold = 256

type sampleRow struct {
	index   uint64
	channel int
	value   int64
}

// Recorder buffers decoded rows and writes them to the database in batched
// transactions. Its sinks never fail the acquisition loop: a write error is
// latched and reported by Err and Close instead.
type Recorder struct {
	db        *sql.DB
	sessionID string

	mu      sync.Mutex
	chanBuf []sampleRow
	auxBuf  []sampleRow
	err     error
}

// SessionID returns the session this recorder writes under.
func (r *Recorder) SessionID() string { return r.sessionID }

// ChanSink returns the sink that persists channel rows.
func (r *Recorder) ChanSink() openbci.Sink[int64] {
	return openbci.SinkFunc[int64](func(row []int64, index uint64) {
		r.mu.Lock()
		defer r.mu.Unlock()
		for ch, v := range row {
			r.chanBuf = append(r.chanBuf, sampleRow{index: index, channel: ch, value: v})
		}
		r.maybeFlushLocked()
	})
}

// AuxSink returns the sink that persists aux rows.
func (r *Recorder) AuxSink() openbci.Sink[int16] {
	return openbci.SinkFunc[int16](func(row []int16, index uint64) {
		r.mu.Lock()
		defer r.mu.Unlock()
		for ch, v := range row {
			r.auxBuf = append(r.auxBuf, sampleRow{index: index, channel: ch, value: int64(v)})
		}
		r.maybeFlushLocked()
	})
}

func (r *Recorder) maybeFlushLocked() {
	if len(r.chanBuf)+len(r.auxBuf) < flushThreshold {
		return
	}
	if err := r.flushLocked(); err != nil && r.err == nil {
		r.err = err
	}
}

func (r *Recorder) flushLocked() error {
	if len(r.chanBuf) == 0 && len(r.auxBuf) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin sample batch: %w", err)
	}
	defer tx.Rollback()

	if err := insertRows(tx, "channel_samples", r.sessionID, r.chanBuf); err != nil {
		return err
	}
	if err := insertRows(tx, "aux_samples", r.sessionID, r.auxBuf); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sample batch: %w", err)
	}

	r.chanBuf = r.chanBuf[:0]
	r.auxBuf = r.auxBuf[:0]
	return nil
}

func insertRows(tx *sql.Tx, table, sessionID string, rows []sampleRow) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (session_id, sample_index, channel, value) VALUES (?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(sessionID, row.index, row.channel, row.value); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

// Err returns the first write error latched by the sinks, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes remaining rows and reports any latched write error. It does
// not close the underlying database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.flushLocked(); err != nil {
		return err
	}
	return r.err
}
