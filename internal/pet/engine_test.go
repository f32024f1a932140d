package pet

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Rand = rand.New(rand.NewSource(seed))
	return cfg
}

// fixedRand always returns the same draw, so no probability below f fires.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(int) int     { return r.n }

func inBounds(t *testing.T, cfg Config, p Position) {
	t.Helper()
	if p.X < cfg.Padding || p.X > cfg.Width-cfg.Padding ||
		p.Y < cfg.Padding || p.Y > cfg.Height-cfg.Padding {
		t.Fatalf("position %+v outside padded screen %vx%v (padding %v)",
			p, cfg.Width, cfg.Height, cfg.Padding)
	}
}

func TestNewEngine(t *testing.T) {
	cfg := testConfig(7)
	e := New(cfg, Stats{Energy: 80, Diet: 65, Sleep: 90, Exercise: 999})
	s := e.Snapshot()

	if s.Action != ActionIdle {
		t.Errorf("initial action = %s, want idle", s.Action)
	}
	if s.Direction != DirectionRight {
		t.Errorf("initial direction = %s, want right", s.Direction)
	}
	if s.Stats.Exercise != MaxStat {
		t.Errorf("initial stats not clamped: %+v", s.Stats)
	}
	if s.Mood != ClassifyMood(s.Stats) {
		t.Errorf("initial mood %s not derived from stats", s.Mood)
	}
	inBounds(t, cfg, s.Position)
}

func TestPositionStaysInBounds(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfg := testConfig(seed)
		cfg.Width, cfg.Height = 300, 200
		cfg.DirectionChangeProbability = 0.05
		cfg.ActionChangeProbability = 0.02
		e := New(cfg, uniform(80))
		e.SetAction(ActionWalk)

		for i := 0; i < 5000; i++ {
			e.Tick()
			inBounds(t, cfg, e.Snapshot().Position)
		}
	}
}

func TestWalkTurnsAtEdge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 200, 200
	cfg.Rand = fixedRand{f: 0.5}
	e := New(cfg, uniform(80))
	e.SetAction(ActionWalk)

	if x := e.Snapshot().Position.X; x != 100 {
		t.Fatalf("start x = %v, want 100", x)
	}

	for i := 0; i < 24; i++ {
		e.Tick()
	}
	if x := e.Snapshot().Position.X; x != 148 {
		t.Fatalf("after 24 steps x = %v, want 148", x)
	}

	e.Tick()
	s := e.Snapshot()
	if s.Direction != DirectionLeft || s.Position.X != 148 {
		t.Fatalf("at edge: direction %s x %v, want left 148", s.Direction, s.Position.X)
	}

	e.Tick()
	if x := e.Snapshot().Position.X; x != 146 {
		t.Errorf("after turning, x = %v, want 146", x)
	}
}

func TestOnlyWalkMoves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rand = fixedRand{f: 0.5}
	e := New(cfg, uniform(80))
	start := e.Snapshot()

	for _, a := range []Action{ActionIdle, ActionEat, ActionSleep, ActionPlay} {
		e.SetAction(a)
		e.Tick()
		if got := e.Snapshot().Position; got != start.Position {
			t.Errorf("action %s moved the pet: %+v -> %+v", a, start.Position, got)
		}
	}
}

func TestDirectionFlipsWhileIdle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rand = fixedRand{f: 0.5}
	cfg.DirectionChangeProbability = 1
	cfg.ActionChangeProbability = 0
	e := New(cfg, uniform(80))
	start := e.Snapshot()

	e.Tick()
	s := e.Snapshot()
	if s.Direction != DirectionLeft || s.Action != ActionIdle {
		t.Fatalf("after tick: direction %s action %s, want left idle", s.Direction, s.Action)
	}
	if s.Position != start.Position {
		t.Errorf("idle pet moved: %+v -> %+v", start.Position, s.Position)
	}
	if s.Seq <= start.Seq {
		t.Errorf("flip did not bump seq")
	}

	e.Tick()
	if d := e.Snapshot().Direction; d != DirectionRight {
		t.Errorf("second flip: direction %s, want right", d)
	}
}

func TestRandomActionExcludesEatAndSleep(t *testing.T) {
	cfg := testConfig(3)
	cfg.ActionChangeProbability = 1
	e := New(cfg, uniform(80))

	for i := 0; i < 1000; i++ {
		e.Tick()
		switch a := e.Snapshot().Action; a {
		case ActionIdle, ActionWalk, ActionPlay:
		default:
			t.Fatalf("random action picked %s", a)
		}
	}
}

func TestCollapsedBounds(t *testing.T) {
	cfg := testConfig(5)
	cfg.Width, cfg.Height = 60, 400
	e := New(cfg, uniform(80))
	e.SetAction(ActionWalk)
	for i := 0; i < 100; i++ {
		e.Tick()
	}
	if x := e.Snapshot().Position.X; x != 30 {
		t.Errorf("x = %v, want centre 30 on a screen narrower than the padding", x)
	}
}

func TestLowEnergyRest(t *testing.T) {
	e := New(testConfig(1), Stats{Energy: 50, Diet: 50, Sleep: 40, Exercise: 50})
	e.UpdateStats(StatsPatch{Energy: Value(15)})

	s := e.Snapshot().Stats
	if s.Energy != 20 || s.Sleep != 70 {
		t.Errorf("after rest: energy %v sleep %v, want 20 70", s.Energy, s.Sleep)
	}
}

func TestLowEnergyRestClampsSleep(t *testing.T) {
	e := New(testConfig(1), Stats{Energy: 50, Diet: 50, Sleep: 90, Exercise: 50})
	e.UpdateStats(StatsPatch{Energy: Value(0)})
	if s := e.Snapshot().Stats; s.Sleep != MaxStat || s.Energy != 20 {
		t.Errorf("after rest: %+v", s)
	}
}

func TestRestDisarmsUntilEnergyRecovers(t *testing.T) {
	cfg := testConfig(1)
	cfg.DecayRates = Stats{Energy: 1}
	e := New(cfg, Stats{Energy: 20.5, Diet: 50, Sleep: 0, Exercise: 50})

	e.Decay()
	if s := e.Snapshot().Stats; s.Energy != 20 || s.Sleep != 30 {
		t.Fatalf("first rest: %+v", s)
	}

	for i := 0; i < 10; i++ {
		e.Decay()
	}
	if s := e.Snapshot().Stats; s.Energy != 10 || s.Sleep != 30 {
		t.Fatalf("rest fired again before energy recovered: %+v", s)
	}

	// Back above threshold+margin re-arms the rule.
	e.Adjust(Stats{Energy: 25})
	for i := 0; i < 16; i++ {
		e.Decay()
	}
	if s := e.Snapshot().Stats; s.Energy != 20 || s.Sleep != 60 {
		t.Errorf("rest did not fire after re-arming: %+v", s)
	}
}

func TestExplicitUpdateRestsWhileDisarmed(t *testing.T) {
	cfg := testConfig(1)
	cfg.DecayRates = Stats{Energy: 1}
	e := New(cfg, Stats{Energy: 20.5, Diet: 50, Sleep: 0, Exercise: 50})
	e.Decay()
	e.Decay()

	e.UpdateStats(StatsPatch{Energy: Value(15)})
	if s := e.Snapshot().Stats; s.Energy != 20 || s.Sleep != 60 {
		t.Errorf("explicit update skipped the rest: %+v", s)
	}
}

func TestRestWithoutMargin(t *testing.T) {
	cfg := testConfig(1)
	cfg.RecoveryMargin = 0
	cfg.DecayRates = Stats{Energy: 1}
	e := New(cfg, Stats{Energy: 20.5, Diet: 50, Sleep: 0, Exercise: 50})

	e.Decay()
	e.Decay()
	if s := e.Snapshot().Stats; s.Energy != 20 || s.Sleep != 60 {
		t.Errorf("with no margin every dip should rest: %+v", s)
	}
}

func noneRaised(prev, cur Stats) bool {
	return cur.Energy <= prev.Energy && cur.Diet <= prev.Diet &&
		cur.Sleep <= prev.Sleep && cur.Exercise <= prev.Exercise
}

func TestDecayPublishesBeforeRest(t *testing.T) {
	e := New(testConfig(1), Stats{Energy: 20.1, Diet: 50, Sleep: 40, Exercise: 50})
	var states []State
	e.Subscribe(func(s State) { states = append(states, s) })

	before := e.Snapshot()
	e.Decay()

	if len(states) != 2 {
		t.Fatalf("got %d states, want decay then rest", len(states))
	}
	decayed, rest := states[0], states[1]
	if !noneRaised(before.Stats, decayed.Stats) {
		t.Errorf("decay raised a gauge: %+v -> %+v", before.Stats, decayed.Stats)
	}
	if !approx(decayed.Stats.Energy, 19.77) || !approx(decayed.Stats.Sleep, 39.33) {
		t.Errorf("decayed = %+v", decayed.Stats)
	}
	if rest.Seq <= decayed.Seq {
		t.Errorf("rest seq %d not after decay seq %d", rest.Seq, decayed.Seq)
	}
	if rest.Stats.Energy != 20 || !approx(rest.Stats.Sleep, 69.33) {
		t.Errorf("rest = %+v", rest.Stats)
	}
}

func TestEngineDecayMonotonic(t *testing.T) {
	e := New(testConfig(1), Stats{Energy: 25, Diet: 20, Sleep: 30, Exercise: 40})
	var states []State
	e.Subscribe(func(s State) { states = append(states, s) })

	for i := 0; i < 200; i++ {
		prev := e.Snapshot().Stats
		n := len(states)
		e.Decay()
		if len(states) == n {
			continue
		}
		if cur := states[n].Stats; !noneRaised(prev, cur) {
			t.Fatalf("decay %d raised a gauge: %+v -> %+v", i, prev, cur)
		}
	}
}

func TestEngineDecayScenario(t *testing.T) {
	e := New(testConfig(1), Stats{Energy: 80, Diet: 65, Sleep: 90, Exercise: 70})
	e.Decay()
	s := e.Snapshot().Stats
	if !approx(s.Energy, 79.67) || !approx(s.Diet, 64.5) || !approx(s.Sleep, 89.33) || !approx(s.Exercise, 69.6) {
		t.Errorf("after one decay: %+v", s)
	}
}

func TestAdjust(t *testing.T) {
	e := New(testConfig(1), uniform(50))
	e.Adjust(Stats{Diet: 80, Exercise: -70})
	s := e.Snapshot()
	if s.Stats.Diet != 100 || s.Stats.Exercise != 0 {
		t.Errorf("Adjust = %+v", s.Stats)
	}
	if s.Mood != ClassifyMood(s.Stats) {
		t.Errorf("mood %s not recomputed", s.Mood)
	}
}

func TestSetActionIdempotent(t *testing.T) {
	e := New(testConfig(1), uniform(80))
	var calls int
	e.Subscribe(func(State) { calls++ })

	e.SetAction(ActionEat)
	first := e.Snapshot()
	e.SetAction(ActionEat)
	second := e.Snapshot()

	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("second SetAction changed state: %+v -> %+v", first, second)
	}
}

func TestSetActionRejectsUnknown(t *testing.T) {
	e := New(testConfig(1), uniform(80))
	e.SetAction(Action("dance"))
	if a := e.Snapshot().Action; a != ActionIdle {
		t.Errorf("action = %s, want idle", a)
	}
}

func TestSubscribe(t *testing.T) {
	e := New(testConfig(1), uniform(80))
	var got []State
	unsub := e.Subscribe(func(s State) { got = append(got, s) })

	e.UpdateStats(StatsPatch{Diet: Value(10)})
	e.SetAction(ActionSleep)
	unsub()
	unsub()
	e.SetAction(ActionIdle)

	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2", len(got))
	}
	if got[0].Stats.Diet != 10 || got[1].Action != ActionSleep {
		t.Errorf("unexpected notifications: %+v", got)
	}
	if got[1].Seq <= got[0].Seq {
		t.Errorf("seq did not increase: %d then %d", got[0].Seq, got[1].Seq)
	}
}

func TestListenerMayCallEngine(t *testing.T) {
	e := New(testConfig(1), uniform(80))
	e.Subscribe(func(s State) {
		if s.Action == ActionEat {
			e.SetAction(ActionIdle)
		}
	})
	e.SetAction(ActionEat)
	if a := e.Snapshot().Action; a != ActionIdle {
		t.Errorf("action = %s, want idle", a)
	}
}

func TestRunAndClose(t *testing.T) {
	cfg := testConfig(1)
	cfg.MotionInterval = time.Millisecond
	cfg.DecayInterval = 2 * time.Millisecond
	e := New(cfg, uniform(80))

	var n atomic.Int64
	e.Subscribe(func(State) { n.Add(1) })

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for n.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no state change while running")
		case <-time.After(5 * time.Millisecond):
		}
	}

	e.Close()
	e.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	before := n.Load()
	e.UpdateStats(StatsPatch{Diet: Value(1)})
	if n.Load() != before {
		t.Error("listener still called after Close")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(1)
	cfg.MotionInterval = time.Millisecond
	e := New(cfg, uniform(80))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
