package pet

import "context"

// StatsStore loads and saves gauges between runs. The engine never calls it;
// the host loads once at start and saves on its own schedule.
type StatsStore interface {
	// LoadStats returns ok=false when nothing has been saved yet.
	LoadStats(ctx context.Context) (stats Stats, ok bool, err error)
	SaveStats(ctx context.Context, stats Stats) error
	Close() error
}
