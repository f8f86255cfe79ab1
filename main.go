package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samuelgarcia/pyacq/internal/openbci"
	"github.com/samuelgarcia/pyacq/internal/recorder"
	"github.com/samuelgarcia/pyacq/internal/sim"
)

var (
	devMode  = flag.Bool("dev", false, "Use the simulated board instead of real hardware")
	portName = flag.String("port", openbci.DefaultPortName, "Serial port of the board (ignored in dev mode)")
	baud     = flag.Int("baud", openbci.DefaultBaudRate, "Serial baud rate")
	channels = flag.Int("channels", openbci.DefaultChannelCount, "Number of EEG channels")
	auxCount = flag.Int("aux", openbci.DefaultAuxCount, "Number of auxiliary channels")
	rate     = flag.Float64("rate", openbci.DefaultSampleRate, "Board sample rate in Hz")
	dbFile   = flag.String("db", "", "Record samples to this SQLite file")
	duration = flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
	logEvery = flag.Uint64("log-every", 250, "Log one sample every N frames (0 = never)")
)

func main() {
	flag.Parse()

	cfg := openbci.Config{
		PortName:     *portName,
		BaudRate:     *baud,
		ChannelCount: *channels,
		AuxCount:     *auxCount,
		SampleRate:   *rate,
	}

	chanSinks := []openbci.Sink[int64]{logSink(*logEvery)}
	var auxSinks []openbci.Sink[int16]

	var rec *recorder.Recorder
	if *dbFile != "" {
		db, err := recorder.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open recording database: %v", err)
		}
		defer db.Close()

		normalized, err := cfg.Normalize()
		if err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
		rec, err = db.NewSession(normalized)
		if err != nil {
			log.Fatalf("failed to create recording session: %v", err)
		}
		log.Printf("recording to %s session %s", *dbFile, rec.SessionID())
		chanSinks = append(chanSinks, rec.ChanSink())
		auxSinks = append(auxSinks, rec.AuxSink())
	}

	outputs := openbci.Outputs{
		Chan: openbci.FanOut(chanSinks...),
		Aux:  openbci.FanOut(auxSinks...),
	}

	var opts []openbci.Option
	if *devMode {
		board := sim.NewBoard(*channels, *auxCount, *rate)
		opts = append(opts,
			openbci.WithOpener(board.Opener()),
			openbci.WithSettleDelay(10*time.Millisecond),
		)
	}

	device, err := openbci.NewDevice(outputs, opts...)
	if err != nil {
		log.Fatalf("failed to create device: %v", err)
	}
	if err := device.Configure(cfg); err != nil {
		log.Fatalf("failed to configure device: %v", err)
	}
	if err := device.Initialize(); err != nil {
		log.Fatalf("failed to initialize device: %v", err)
	}
	if err := device.Start(); err != nil {
		log.Fatalf("failed to start acquisition: %v", err)
	}
	applied := device.Config()
	log.Printf("streaming %d channels + %d aux at %g Hz", applied.ChannelCount, applied.AuxCount, applied.SampleRate)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	workerDone := make(chan error, 1)
	go func() { workerDone <- device.Wait() }()

	var runErr error
	select {
	case sig := <-sigs:
		log.Printf("received %v, stopping", sig)
		device.Stop()
		runErr = <-workerDone
	case <-timeout:
		log.Printf("duration elapsed, stopping")
		device.Stop()
		runErr = <-workerDone
	case runErr = <-workerDone:
		// worker died on its own; anything but nil is a transport fault
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Printf("failed to flush recording: %v", err)
		}
	}
	if err := device.Close(); err != nil {
		log.Printf("failed to close device: %v", err)
	}

	if runErr != nil {
		log.Fatalf("acquisition terminated: %v", runErr)
	}
	log.Printf("graceful shutdown complete")
}

// logSink returns a channel sink that logs every nth sample row as a
// heartbeat. n == 0 disables logging.
func logSink(n uint64) openbci.Sink[int64] {
	return openbci.SinkFunc[int64](func(row []int64, index uint64) {
		if n == 0 || index%n != 0 {
			return
		}
		log.Printf("sample %d: %v", index, row)
	})
}
