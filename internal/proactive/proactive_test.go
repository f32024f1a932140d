package proactive

import (
	"strings"
	"testing"
	"time"

	"github.com/moorebrett0/tamapet/internal/pet"
	"github.com/moorebrett0/tamapet/internal/screentime"
)

type fakeSender struct {
	channel   string
	messages  []string
	presences []pet.Mood
}

func (f *fakeSender) SendMessage(_, text string)   { f.messages = append(f.messages, text) }
func (f *fakeSender) UpdatePresence(mood pet.Mood) { f.presences = append(f.presences, mood) }
func (f *fakeSender) ChannelID() string            { return f.channel }

type fixedState struct{ s pet.State }

func (f *fixedState) Snapshot() pet.State { return f.s }

type fixedInteraction struct{ at time.Time }

func (f fixedInteraction) LastInteraction() time.Time { return f.at }

type fixedUsage struct{ u screentime.Usage }

func (f *fixedUsage) Usage() screentime.Usage { return f.u }

func healthy() pet.State {
	st := pet.Stats{Energy: 80, Diet: 80, Sleep: 80, Exercise: 80}
	return pet.State{Stats: st, Mood: pet.ClassifyMood(st)}
}

func newScheduler(sender *fakeSender, state *fixedState, last time.Time, usage *fixedUsage, now *time.Time) *Scheduler {
	s := New(sender, state, fixedInteraction{at: last}, usage, Config{
		Name:               "Tama",
		CheckInterval:      time.Minute,
		DistressThreshold:  25,
		DistressCooldown:   30 * time.Minute,
		BoredomMinutes:     120,
		ScreenTimeLimit:    60,
		ScreenTimeCooldown: time.Hour,
	})
	s.now = func() time.Time { return *now }
	return s
}

func TestPresenceFollowsMood(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	state := &fixedState{s: healthy()}
	s := newScheduler(sender, state, now, &fixedUsage{}, &now)

	s.check()
	s.check()
	sad := pet.Stats{Energy: 40, Diet: 40, Sleep: 40, Exercise: 40}
	state.s = pet.State{Stats: sad, Mood: pet.ClassifyMood(sad)}
	s.check()

	if len(sender.presences) != 2 || sender.presences[0] != pet.MoodHappy || sender.presences[1] != pet.MoodSad {
		t.Errorf("presences = %v", sender.presences)
	}
	if len(sender.messages) != 0 {
		t.Errorf("no channel configured but sent %v", sender.messages)
	}
}

func TestDistressCooldown(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{channel: "c"}
	low := healthy()
	low.Stats.Sleep = 10
	s := newScheduler(sender, &fixedState{s: low}, now, &fixedUsage{}, &now)

	s.check()
	now = now.Add(10 * time.Minute)
	s.check()
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "sleep") {
		t.Fatalf("messages = %v", sender.messages)
	}

	now = now.Add(31 * time.Minute)
	s.check()
	if len(sender.messages) != 2 {
		t.Errorf("distress not repeated after cooldown: %v", sender.messages)
	}
}

func TestScreenTimeAlert(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{channel: "c"}
	usage := &fixedUsage{u: screentime.Usage{Today: 90, Logged: 1, OverLimit: true}}
	s := newScheduler(sender, &fixedState{s: healthy()}, now, usage, &now)

	s.check()
	now = now.Add(5 * time.Minute)
	s.check()
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "90 minutes") {
		t.Errorf("messages = %v", sender.messages)
	}
}

func TestBoredom(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{channel: "c"}
	s := newScheduler(sender, &fixedState{s: healthy()}, now.Add(-3*time.Hour), &fixedUsage{}, &now)

	s.check()
	s.check()
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "bored") {
		t.Errorf("messages = %v", sender.messages)
	}
}

func TestQuietWhenAllIsWell(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{channel: "c"}
	s := newScheduler(sender, &fixedState{s: healthy()}, now, &fixedUsage{}, &now)
	s.check()
	if len(sender.messages) != 0 {
		t.Errorf("messages = %v", sender.messages)
	}
}
