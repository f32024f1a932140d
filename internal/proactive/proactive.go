package proactive

import (
	"context"
	"sync"
	"time"

	"github.com/moorebrett0/tamapet/internal/discord"
	"github.com/moorebrett0/tamapet/internal/pet"
	"github.com/moorebrett0/tamapet/internal/screentime"
)

// MessageSender can send messages and update presence.
type MessageSender interface {
	SendMessage(channelID, text string)
	UpdatePresence(mood pet.Mood)
	ChannelID() string
}

// StateSource is read-only access to the behavior engine.
type StateSource interface {
	Snapshot() pet.State
}

// InteractionSource reports when the owner last cared for the pet.
type InteractionSource interface {
	LastInteraction() time.Time
}

// UsageSource reports tracked screen time.
type UsageSource interface {
	Usage() screentime.Usage
}

// Scheduler sends proactive messages based on pet state and screen time.
type Scheduler struct {
	sender MessageSender
	name   string
	state  StateSource
	care   InteractionSource
	usage  UsageSource // nil when screen time is not tracked

	checkInterval      time.Duration
	distressThreshold  float64
	distressCooldown   time.Duration
	boredomMinutes     int
	screenTimeLimit    float64
	screenTimeCooldown time.Duration

	now func() time.Time

	mu             sync.Mutex
	lastDistress   time.Time
	lastBoredom    time.Time
	lastScreenTime time.Time
	lastMood       pet.Mood
}

// Config for the proactive scheduler.
type Config struct {
	Name               string
	CheckInterval      time.Duration
	DistressThreshold  float64
	DistressCooldown   time.Duration
	BoredomMinutes     int
	ScreenTimeLimit    float64
	ScreenTimeCooldown time.Duration
}

// New creates a proactive scheduler.
func New(sender MessageSender, state StateSource, care InteractionSource, usage UsageSource, cfg Config) *Scheduler {
	return &Scheduler{
		sender:             sender,
		name:               cfg.Name,
		state:              state,
		care:               care,
		usage:              usage,
		checkInterval:      cfg.CheckInterval,
		distressThreshold:  cfg.DistressThreshold,
		distressCooldown:   cfg.DistressCooldown,
		boredomMinutes:     cfg.BoredomMinutes,
		screenTimeLimit:    cfg.ScreenTimeLimit,
		screenTimeCooldown: cfg.ScreenTimeCooldown,
		now:                time.Now,
	}
}

// Run starts the tick loop. Blocks until context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check()
		}
	}
}

func (s *Scheduler) check() {
	snap := s.state.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Always update presence when mood changes
	if snap.Mood != s.lastMood {
		s.lastMood = snap.Mood
		s.sender.UpdatePresence(snap.Mood)
	}

	channelID := s.sender.ChannelID()
	if channelID == "" {
		return
	}

	now := s.now()

	// Distress: weakest gauge below threshold
	if gauge, value := snap.Stats.Lowest(); value < s.distressThreshold &&
		(s.lastDistress.IsZero() || now.Sub(s.lastDistress) > s.distressCooldown) {
		s.lastDistress = now
		s.sender.SendMessage(channelID, discord.TemplateDistressAlert(s.name, snap, gauge, value))
		return
	}

	// Screen time over the daily limit
	if s.usage != nil {
		u := s.usage.Usage()
		if (u.OverLimit || (u.LateNight && u.Logged > 0)) &&
			(s.lastScreenTime.IsZero() || now.Sub(s.lastScreenTime) > s.screenTimeCooldown) {
			s.lastScreenTime = now
			s.sender.SendMessage(channelID, discord.TemplateScreenTimeAlert(s.name, u, s.screenTimeLimit))
			return
		}
	}

	// Boredom
	if s.boredomMinutes > 0 && s.care != nil {
		threshold := time.Duration(s.boredomMinutes) * time.Minute
		if now.Sub(s.care.LastInteraction()) > threshold && now.Sub(s.lastBoredom) > threshold {
			s.lastBoredom = now
			s.sender.SendMessage(channelID, discord.TemplateBoredomMessage(s.name, snap))
		}
	}
}
