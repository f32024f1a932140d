package pet

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness the engine draws on. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Config tunes the simulation. Zero values are not filled in; start from
// DefaultConfig.
type Config struct {
	// Screen extent in pixels and the margin the pet keeps from every edge.
	Width   float64
	Height  float64
	Padding float64

	WalkSpeed                  float64 // pixels per motion tick
	DirectionChangeProbability float64 // per motion tick
	ActionChangeProbability    float64 // per motion tick

	MotionInterval time.Duration
	DecayInterval  time.Duration
	DecayRates     Stats // subtracted per decay tick

	// Low-energy rest: when Energy drops below RecoveryThreshold it is lifted
	// to RecoveryLevel and Sleep gains RecoverySleepBoost. After a rest the
	// decay tick cannot trigger it again until Energy has climbed back to
	// RecoveryThreshold+RecoveryMargin; explicit stat updates always can.
	// A zero margin re-arms immediately. A zero threshold disables the rule.
	RecoveryThreshold  float64
	RecoveryLevel      float64
	RecoverySleepBoost float64
	RecoveryMargin     float64

	// Rand defaults to a time-seeded source.
	Rand Rand
}

// DefaultConfig matches the observed client behavior: 50ms motion ticks,
// a 10s decay tick losing 2 points per minute split across the gauges.
func DefaultConfig() Config {
	const decayPerTick = 2.0
	return Config{
		Width:                      800,
		Height:                     600,
		Padding:                    50,
		WalkSpeed:                  2,
		DirectionChangeProbability: 0.01,
		ActionChangeProbability:    0.005,
		MotionInterval:             50 * time.Millisecond,
		DecayInterval:              10 * time.Second,
		DecayRates: Stats{
			Energy:   decayPerTick / 6,
			Diet:     decayPerTick / 4,
			Sleep:    decayPerTick / 3,
			Exercise: decayPerTick / 5,
		},
		RecoveryThreshold:  20,
		RecoveryLevel:      20,
		RecoverySleepBoost: 30,
		RecoveryMargin:     10,
	}
}

// Engine owns the pet state and advances it over time. All methods are safe
// for concurrent use; mutations are serialized by a single mutex.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	rng    Rand
	bounds bounds

	seq       uint64
	action    Action
	direction Direction
	pos       Position
	stats     Stats

	// false after a rest until Energy reaches threshold+margin
	recoveryArmed bool

	listeners map[int]func(State)
	nextID    int

	cancel context.CancelFunc
	closed bool
}

type bounds struct {
	minX, maxX float64
	minY, maxY float64
}

func newBounds(width, height, padding float64) bounds {
	b := bounds{
		minX: padding, maxX: width - padding,
		minY: padding, maxY: height - padding,
	}
	// Screen narrower than the padding: pin the axis to its middle.
	if b.maxX < b.minX {
		b.minX, b.maxX = width/2, width/2
	}
	if b.maxY < b.minY {
		b.minY, b.maxY = height/2, height/2
	}
	return b
}

// New creates an engine idle and facing right at a random point inside the
// padded screen.
func New(cfg Config, initial Stats) *Engine {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := newBounds(cfg.Width, cfg.Height, cfg.Padding)
	return &Engine{
		cfg:       cfg,
		rng:       rng,
		bounds:    b,
		action:    ActionIdle,
		direction: DirectionRight,
		pos: Position{
			X: b.minX + rng.Float64()*(b.maxX-b.minX),
			Y: b.minY + rng.Float64()*(b.maxY-b.minY),
		},
		stats:         initial.Clamped(),
		recoveryArmed: true,
		listeners:     make(map[int]func(State)),
	}
}

// Snapshot copies the current state under the lock.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() State {
	return State{
		Seq:       e.seq,
		Mood:      ClassifyMood(e.stats),
		Action:    e.action,
		Direction: e.direction,
		Position:  e.pos,
		Stats:     e.stats,
	}
}

// Tick advances motion by one step: a possible direction flip, a possible
// random action, and a walk step when walking.
func (e *Engine) Tick() {
	e.mu.Lock()
	changed := false

	if e.rng.Float64() < e.cfg.DirectionChangeProbability {
		e.direction = e.direction.Flip()
		changed = true
	}

	if e.rng.Float64() < e.cfg.ActionChangeProbability {
		next := randomActions[e.rng.Intn(len(randomActions))]
		if next != e.action {
			e.action = next
			changed = true
		}
	}

	if e.action == ActionWalk && e.cfg.WalkSpeed > 0 {
		x := e.pos.X + e.cfg.WalkSpeed
		if e.direction == DirectionLeft {
			x = e.pos.X - e.cfg.WalkSpeed
		}
		// Hitting an edge turns the pet around instead of moving it.
		if x <= e.bounds.minX || x >= e.bounds.maxX {
			e.direction = e.direction.Flip()
		} else {
			e.pos.X = x
		}
		changed = true
	}

	e.commit(changed)
}

// Decay lowers every gauge by its rate and publishes the result. A rest
// triggered by the lower energy follows as a separate state.
func (e *Engine) Decay() {
	e.mu.Lock()
	before := e.stats
	e.stats = e.stats.Decay(e.cfg.DecayRates)
	e.commit(e.stats != before)

	e.mu.Lock()
	e.commit(e.recoverLocked(false))
}

// UpdateStats merges a partial update. Touched gauges are clamped and the
// low-energy rule is evaluated against the merged result.
func (e *Engine) UpdateStats(p StatsPatch) {
	e.mu.Lock()
	before := e.stats
	e.stats = e.stats.Merge(p)
	e.recoverLocked(true)
	e.commit(e.stats != before)
}

// Adjust adds signed deltas to the current gauges atomically.
func (e *Engine) Adjust(delta Stats) {
	e.mu.Lock()
	before := e.stats
	e.stats = e.stats.Add(delta)
	e.recoverLocked(true)
	e.commit(e.stats != before)
}

// SetAction overrides the current action. Setting the current action again
// is a no-op.
func (e *Engine) SetAction(a Action) {
	if !a.Valid() {
		slog.Warn("engine: ignoring unknown action", "action", a)
		return
	}
	e.mu.Lock()
	changed := e.action != a
	e.action = a
	e.commit(changed)
}

// recoverLocked applies the low-energy rest rule. A disarmed rule only fires
// for explicit updates. Caller holds e.mu.
func (e *Engine) recoverLocked(explicit bool) bool {
	rearm := e.cfg.RecoveryThreshold + e.cfg.RecoveryMargin
	if e.stats.Energy >= rearm {
		e.recoveryArmed = true
	}
	if e.stats.Energy >= e.cfg.RecoveryThreshold || !(e.recoveryArmed || explicit) {
		return false
	}
	if e.stats.Energy < e.cfg.RecoveryLevel {
		e.stats.Energy = clamp(e.cfg.RecoveryLevel)
	}
	e.stats.Sleep = clamp(e.stats.Sleep + e.cfg.RecoverySleepBoost)
	e.recoveryArmed = e.stats.Energy >= rearm
	slog.Debug("engine: low energy, pet is resting",
		"energy", e.stats.Energy, "sleep", e.stats.Sleep)
	return true
}

// commit bumps the sequence when something changed, releases the lock and
// notifies listeners outside it. Caller holds e.mu.
func (e *Engine) commit(changed bool) {
	if !changed {
		e.mu.Unlock()
		return
	}
	e.seq++
	snap := e.snapshotLocked()
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Subscribe registers fn to receive the latest state after every change.
// Listeners run on the mutating goroutine, outside the engine lock, so
// snapshots may arrive out of order; compare State.Seq to drop stale ones.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return func() {}
	}
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// Run drives Tick and Decay from two tickers until ctx is cancelled or the
// engine is closed.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	motion := time.NewTicker(e.cfg.MotionInterval)
	defer motion.Stop()
	decay := time.NewTicker(e.cfg.DecayInterval)
	defer decay.Stop()

	slog.Info("engine: running",
		"motion_interval", e.cfg.MotionInterval, "decay_interval", e.cfg.DecayInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine: stopped")
			return
		case <-motion.C:
			e.Tick()
		case <-decay.C:
			e.Decay()
		}
	}
}

// Close stops Run and drops every listener. It is safe to call twice.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	e.listeners = make(map[int]func(State))
}
