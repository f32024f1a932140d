package care

import (
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/tamapet/internal/classify"
	"github.com/moorebrett0/tamapet/internal/pet"
)

// Engine is the part of the behavior engine the caretaker drives.
type Engine interface {
	Adjust(delta pet.Stats)
	SetAction(a pet.Action)
	Snapshot() pet.State
}

// Kind names a user interaction.
type Kind string

const (
	Feed     Kind = "feed"
	Play     Kind = "play"
	Sleep    Kind = "sleep"
	Exercise Kind = "exercise"
)

// interaction is what one button press does to the pet.
type interaction struct {
	delta  pet.Stats
	action pet.Action
}

var interactions = map[Kind]interaction{
	Feed:     {delta: pet.Stats{Diet: 20, Energy: 5}, action: pet.ActionEat},
	Play:     {delta: pet.Stats{Exercise: 10, Energy: -5}, action: pet.ActionPlay},
	Sleep:    {delta: pet.Stats{Sleep: 25, Energy: 10}, action: pet.ActionSleep},
	Exercise: {delta: pet.Stats{Exercise: 20, Energy: -10, Diet: -5}, action: pet.ActionWalk},
}

// Config tunes the caretaker.
type Config struct {
	ActionDuration     time.Duration // how long an explicit action shows before idling
	UnhealthyFoodLimit int           // unhealthy meals per day before the heavier penalty
}

// Caretaker turns user interactions into engine calls. Explicit actions last
// ActionDuration; the caretaker, not the engine, puts the pet back to idle.
type Caretaker struct {
	engine    Engine
	cfg       Config
	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer

	mu              sync.Mutex
	reset           *time.Timer
	resetGen        uint64 // bumped by every action; stale reset callbacks compare it
	lastInteraction time.Time
	mealDay         string
	unhealthyToday  int
}

// New creates a caretaker for an engine.
func New(e Engine, cfg Config) *Caretaker {
	return &Caretaker{
		engine:          e,
		cfg:             cfg,
		now:             time.Now,
		afterFunc:       time.AfterFunc,
		lastInteraction: time.Now(),
	}
}

// Do performs a named interaction and returns the resulting state.
func (c *Caretaker) Do(kind Kind) (pet.State, bool) {
	in, ok := interactions[kind]
	if !ok {
		return c.engine.Snapshot(), false
	}
	c.engine.Adjust(in.delta)
	c.perform(in.action)
	slog.Debug("care: interaction", "kind", kind)
	return c.engine.Snapshot(), true
}

// MealOutcome reports what a classified meal did.
type MealOutcome struct {
	Healthy        bool
	DietDelta      float64
	UnhealthyToday int
	OverLimit      bool
	State          pet.State
}

// EatMeal feeds the pet a classified meal. Healthy meals raise Diet by up to
// 20 points depending on the nutrition score; unhealthy ones lower it, three
// times harder once the daily limit is passed.
func (c *Caretaker) EatMeal(meal classify.Classification) MealOutcome {
	out := MealOutcome{Healthy: meal.Healthy()}

	switch {
	case out.Healthy && meal.HasScore:
		out.DietDelta = 5 + meal.NutritionScore*1.5
	case out.Healthy:
		out.DietDelta = 15
	default:
		out.DietDelta = -5
	}

	if !out.Healthy {
		c.mu.Lock()
		day := c.now().Format("2006-01-02")
		if day != c.mealDay {
			c.mealDay = day
			c.unhealthyToday = 0
		}
		c.unhealthyToday++
		out.UnhealthyToday = c.unhealthyToday
		c.mu.Unlock()

		if out.UnhealthyToday > c.cfg.UnhealthyFoodLimit {
			out.OverLimit = true
			out.DietDelta = -15
		}
	}

	c.engine.Adjust(pet.Stats{Diet: out.DietDelta})
	c.perform(pet.ActionEat)
	out.State = c.engine.Snapshot()
	slog.Info("care: meal eaten", "label", meal.Label, "healthy", out.Healthy, "diet_delta", out.DietDelta)
	return out
}

// LogScreenTime drains the pet for time the owner spent on screens. Minutes
// inside the sleep window also cost sleep.
func (c *Caretaker) LogScreenTime(minutes float64, lateNight bool) {
	if minutes <= 0 {
		return
	}
	delta := pet.Stats{
		Energy:   -0.2 * minutes,
		Exercise: -0.1 * minutes,
	}
	if lateNight {
		delta.Sleep = -0.5 * minutes
	}
	c.engine.Adjust(delta)
}

// LastInteraction is when the owner last did something with the pet.
func (c *Caretaker) LastInteraction() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastInteraction
}

// Touch records an interaction that changes no stats (a greeting).
func (c *Caretaker) Touch() {
	c.mu.Lock()
	c.lastInteraction = c.now()
	c.mu.Unlock()
}

// Close cancels a pending return to idle.
func (c *Caretaker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetGen++
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

// perform sets the action and schedules the return to idle. The action is
// set under c.mu so a reset callback that already started cannot undo it.
func (c *Caretaker) perform(a pet.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetGen++
	gen := c.resetGen
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
	c.engine.SetAction(a)
	c.lastInteraction = c.now()
	if c.cfg.ActionDuration <= 0 {
		return
	}
	c.reset = c.afterFunc(c.cfg.ActionDuration, func() { c.endAction(gen, a) })
}

func (c *Caretaker) endAction(gen uint64, a pet.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.resetGen {
		return
	}
	c.reset = nil
	// Leave the pet alone if something else changed its action meanwhile.
	if c.engine.Snapshot().Action == a {
		c.engine.SetAction(pet.ActionIdle)
	}
}
