package screentime

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Usage is a snapshot of tracked screen time, in minutes.
type Usage struct {
	Day       string  // local date the Today counter belongs to
	Today     float64 // minutes logged since local midnight
	Total     float64 // minutes logged since start
	Logged    float64 // minutes added by the latest tick
	LateNight bool    // latest tick fell inside the sleep window
	OverLimit bool    // Today exceeds the daily limit
}

// Config for the tracker.
type Config struct {
	Interval   time.Duration
	SleepTime  string // "HH:MM", start of the sleep window
	WakeTime   string // "HH:MM", end of the sleep window
	DailyLimit float64
}

// Tracker logs one interval of screen time per tick while the host runs and
// stores the totals atomically.
type Tracker struct {
	usage    atomic.Pointer[Usage]
	interval time.Duration
	limit    float64
	sleepAt  int // minutes after midnight
	wakeAt   int
	onUpdate func(Usage) // callback when usage is logged

	mu  sync.Mutex
	now func() time.Time
}

// New creates a tracker. onUpdate is called after every logged interval.
func New(cfg Config, onUpdate func(Usage)) (*Tracker, error) {
	sleepAt, err := ParseClock(cfg.SleepTime)
	if err != nil {
		return nil, fmt.Errorf("sleep time: %w", err)
	}
	wakeAt, err := ParseClock(cfg.WakeTime)
	if err != nil {
		return nil, fmt.Errorf("wake time: %w", err)
	}
	t := &Tracker{
		interval: cfg.Interval,
		limit:    cfg.DailyLimit,
		sleepAt:  sleepAt,
		wakeAt:   wakeAt,
		onUpdate: onUpdate,
		now:      time.Now,
	}
	t.usage.Store(&Usage{})
	return t, nil
}

// Usage returns the latest totals without blocking.
func (t *Tracker) Usage() Usage {
	return *t.usage.Load()
}

// Run logs screen time until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.log(t.interval.Minutes())
		}
	}
}

func (t *Tracker) log(minutes float64) {
	t.mu.Lock()
	now := t.now()
	prev := t.usage.Load()
	u := &Usage{
		Day:       now.Format("2006-01-02"),
		Today:     prev.Today,
		Total:     prev.Total + minutes,
		Logged:    minutes,
		LateNight: InWindow(now, t.sleepAt, t.wakeAt),
	}
	if u.Day != prev.Day {
		u.Today = 0
	}
	u.Today += minutes
	u.OverLimit = t.limit > 0 && u.Today > t.limit
	t.usage.Store(u)
	t.mu.Unlock()

	slog.Debug("screentime: logged", "minutes", minutes, "today", u.Today, "late_night", u.LateNight)
	if t.onUpdate != nil {
		t.onUpdate(*u)
	}
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// InWindow reports whether now falls in [start, end) minutes after midnight.
// Windows may wrap past midnight (22:00–07:00). An empty window never matches.
func InWindow(now time.Time, start, end int) bool {
	m := now.Hour()*60 + now.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return m >= start && m < end
	default:
		return m >= start || m < end
	}
}

// FormatUsage returns a human-readable summary.
func FormatUsage(u Usage, limit float64) string {
	if limit <= 0 {
		return fmt.Sprintf("screen time today: %.0f min", u.Today)
	}
	return fmt.Sprintf("screen time today: %.0f / %.0f min", u.Today, limit)
}
