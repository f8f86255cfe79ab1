package openbci

import (
	"fmt"
	"sync"

	"github.com/samuelgarcia/pyacq/internal/serialport"
)

// Worker owns the goroutine that pumps frames from the serial port into the
// output sinks. Exactly one goroutine touches the port while the worker
// runs. Stop is cooperative: the running flag is checked once per loop
// iteration, never mid-frame, so Stop may return while the loop is still
// finishing its current read. Wait joins the loop and reports how it ended.
type Worker struct {
	port serialport.Port
	sync *frameSync
	logf func(string, ...any)

	mu      sync.Mutex
	running bool
	started bool

	done chan struct{}
	err  error
}

func newWorker(port serialport.Port, cfg Config, out Outputs, logf func(string, ...any)) *Worker {
	return &Worker{
		port: port,
		sync: newFrameSync(port, cfg, out, logf),
		logf: logf,
		done: make(chan struct{}),
	}
}

// Start commands the board to begin streaming and launches the acquisition
// loop in its own goroutine.
func (w *Worker) Start() error {
	w.mu.Lock()
	w.running = true
	w.started = true
	w.mu.Unlock()

	if _, err := w.port.Write([]byte{CmdStreamStart}); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.done)
		return fmt.Errorf("send stream start command: %w", err)
	}

	go w.run()
	return nil
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if !running {
			return
		}

		if err := w.sync.step(); err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			w.err = err
			return
		}
	}
}

// Stop commands the board to stop streaming and clears the running flag
// under the same lock the loop checks it with. It does not interrupt an
// in-flight blocking read; callers needing full quiescence must Wait.
func (w *Worker) Stop() {
	if _, err := w.port.Write([]byte{CmdStreamStop}); err != nil {
		w.logf("send stream stop command: %v", err)
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// Wait blocks until the acquisition loop has exited. It returns nil after a
// cooperative stop and the transport fault that killed the loop otherwise.
// A worker that was never started returns nil immediately.
func (w *Worker) Wait() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return nil
	}

	<-w.done
	return w.err
}
