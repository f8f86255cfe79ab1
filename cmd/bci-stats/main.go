// bci-stats summarizes recorded acquisition sessions: without a session ID
// it lists the sessions in a recording database, with one it prints
// per-channel statistics for the channel and aux streams.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/samuelgarcia/pyacq/internal/recorder"
)

var (
	dbFile  = flag.String("db", "recordings.db", "Path to the recording database")
	session = flag.String("session", "", "Session ID to summarize (empty lists sessions)")
)

func main() {
	flag.Parse()

	db, err := recorder.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open recording database: %v", err)
	}
	defer db.Close()

	if *session == "" {
		if err := listSessions(os.Stdout, db); err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		return
	}

	if err := printStats(os.Stdout, db, *session); err != nil {
		log.Fatalf("failed to summarize session: %v", err)
	}
}

func listSessions(w io.Writer, db *recorder.DB) error {
	sessions, err := db.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tBOARD\tCHANNELS\tAUX\tRATE\tSTARTED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%g\t%s\n",
			s.ID, s.BoardName, s.ChannelCount, s.AuxCount, s.SampleRate,
			s.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func printStats(w io.Writer, db *recorder.DB, sessionID string) error {
	chanStats, err := db.SessionStats(sessionID)
	if err != nil {
		return err
	}
	auxStats, err := db.SessionAuxStats(sessionID)
	if err != nil {
		return err
	}

	if len(chanStats) == 0 && len(auxStats) == 0 {
		fmt.Fprintf(w, "no samples recorded for session %s\n", sessionID)
		return nil
	}

	if err := printStatsTable(w, "channel", chanStats); err != nil {
		return err
	}
	if err := printStatsTable(w, "aux", auxStats); err != nil {
		return err
	}

	zeroed, err := db.SessionZeroedFrames(sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "zeroed frames: %d\n", zeroed)
	return nil
}

func printStatsTable(w io.Writer, stream string, stats []recorder.ChannelStats) error {
	if len(stats) == 0 {
		return nil
	}

	fmt.Fprintf(w, "%s stream:\n", stream)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tCOUNT\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, s := range stats {
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\t%d\t%d\n",
			s.Channel, s.Count, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return tw.Flush()
}
