package recorder

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ChannelStats summarizes one recorded channel within a session.
type ChannelStats struct {
	Channel int
	Count   int
	Mean    float64
	StdDev  float64
	Min     int64
	Max     int64
}

// SessionStats computes per-channel summary statistics over the recorded
// channel stream of a session. Channels with no samples are omitted.
func (db *DB) SessionStats(sessionID string) ([]ChannelStats, error) {
	return db.streamStats("channel_samples", sessionID)
}

// SessionAuxStats is SessionStats for the auxiliary stream.
func (db *DB) SessionAuxStats(sessionID string) ([]ChannelStats, error) {
	return db.streamStats("aux_samples", sessionID)
}

// SessionZeroedFrames counts recorded frames whose channel row is all zeros.
// Zeroed rows stand in for corrupted frames, so this approximates how many
// frames the synchronizer discarded during the session.
func (db *DB) SessionZeroedFrames(sessionID string) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM (
			SELECT sample_index FROM channel_samples
			WHERE session_id = ?
			GROUP BY sample_index
			HAVING MIN(value) = 0 AND MAX(value) = 0
		)`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count zeroed frames: %w", err)
	}
	return count, nil
}

func (db *DB) streamStats(table, sessionID string) ([]ChannelStats, error) {
	rows, err := db.Query(fmt.Sprintf(
		`SELECT channel, value FROM %s WHERE session_id = ? ORDER BY channel, sample_index`, table),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	values := map[int][]float64{}
	mins := map[int]int64{}
	maxs := map[int]int64{}
	var channels []int

	for rows.Next() {
		var channel int
		var value int64
		if err := rows.Scan(&channel, &value); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		if _, seen := values[channel]; !seen {
			channels = append(channels, channel)
			mins[channel] = value
			maxs[channel] = value
		}
		values[channel] = append(values[channel], float64(value))
		if value < mins[channel] {
			mins[channel] = value
		}
		if value > maxs[channel] {
			maxs[channel] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]ChannelStats, 0, len(channels))
	for _, ch := range channels {
		mean, std := stat.MeanStdDev(values[ch], nil)
		stats = append(stats, ChannelStats{
			Channel: ch,
			Count:   len(values[ch]),
			Mean:    mean,
			StdDev:  std,
			Min:     mins[ch],
			Max:     maxs[ch],
		})
	}
	return stats, nil
}
