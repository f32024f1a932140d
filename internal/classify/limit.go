package classify

import (
	"context"
	"sync"
	"time"
)

// Limited wraps a classifier with a sliding-window rate limit. Model calls
// cost money; a chat channel can spam photos.
type Limited struct {
	next Classifier

	mu      sync.Mutex
	window  []time.Time
	rateMax int
	rateDur time.Duration
	now     func() time.Time
}

// Limit allows at most max calls per window through to c.
func Limit(c Classifier, max int, window time.Duration) *Limited {
	return &Limited{
		next:    c,
		rateMax: max,
		rateDur: window,
		now:     time.Now,
	}
}

func (l *Limited) Classify(ctx context.Context, image []byte) (Classification, error) {
	if !l.allow() {
		return Classification{}, ErrRateLimited
	}
	return l.next.Classify(ctx, image)
}

func (l *Limited) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.rateDur)

	// Remove expired entries
	valid := l.window[:0]
	for _, t := range l.window {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	l.window = valid

	if len(l.window) >= l.rateMax {
		return false
	}

	l.window = append(l.window, now)
	return true
}
