package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/moorebrett0/tamapet/internal/care"
	"github.com/moorebrett0/tamapet/internal/classify"
	"github.com/moorebrett0/tamapet/internal/config"
	"github.com/moorebrett0/tamapet/internal/discord"
	"github.com/moorebrett0/tamapet/internal/onboarding"
	"github.com/moorebrett0/tamapet/internal/pet"
	"github.com/moorebrett0/tamapet/internal/proactive"
	"github.com/moorebrett0/tamapet/internal/screentime"
	"github.com/moorebrett0/tamapet/internal/sprite"
	"github.com/moorebrett0/tamapet/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	quiet := flag.Bool("quiet", false, "skip the terminal greeting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log)

	if err := run(cfg, *quiet); err != nil {
		slog.Error("tamapet: exiting", "err", err)
		os.Exit(1)
	}
}

func setupLogging(lc config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(lc.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config, quiet bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	initial, saved, err := st.LoadStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if !saved {
		initial = cfg.Pet.InitialStats
	}

	engine := pet.New(cfg.PetEngine(), initial)
	defer engine.Close()
	go engine.Run(ctx)

	animator := sprite.NewAnimator(engine.Snapshot())
	engine.Subscribe(animator.Update)

	caretaker := care.New(engine, care.Config{
		ActionDuration:     cfg.Pet.ActionDuration,
		UnhealthyFoodLimit: cfg.Settings.UnhealthyFoodLimit,
	})
	defer caretaker.Close()

	var tracker *screentime.Tracker
	if cfg.ScreenTime.Enabled {
		tracker, err = screentime.New(screentime.Config{
			Interval:   cfg.ScreenTime.Interval,
			SleepTime:  cfg.Settings.SleepTime,
			WakeTime:   cfg.Settings.WakeTime,
			DailyLimit: float64(cfg.Settings.ScreenTimeLimit),
		}, func(u screentime.Usage) {
			caretaker.LogScreenTime(u.Logged, u.LateNight)
		})
		if err != nil {
			return fmt.Errorf("screen time: %w", err)
		}
		go tracker.Run(ctx)
	}

	classifier, err := classify.New(ctx, classify.Config{
		Provider:     cfg.Classifier.Provider,
		HTTPURL:      cfg.Classifier.URL,
		HTTPTimeout:  cfg.Classifier.Timeout,
		ClaudeAPIKey: cfg.Claude.APIKey,
		ClaudeModel:  cfg.Claude.Model,
		GeminiAPIKey: cfg.Gemini.APIKey,
		GeminiModel:  cfg.Gemini.Model,
		MaxTokens:    cfg.Classifier.MaxTokens,
		RateLimit:    cfg.Classifier.RateLimit,
		RateWindow:   cfg.Classifier.RateWindow,
	})
	switch {
	case errors.Is(err, classify.ErrNoProvider):
		slog.Info("classify: no backend configured, meal photos disabled", "reason", err)
		classifier = nil
	case err != nil:
		return fmt.Errorf("classifier: %w", err)
	}

	connected := cfg.Discord.BotToken != ""
	if connected {
		if err := startDiscord(ctx, cfg, engine, caretaker, classifier, animator, tracker, !saved); err != nil {
			return err
		}
	} else {
		slog.Info("discord: no token, running headless")
		logMoodChanges(engine)
	}

	if !quiet {
		p := onboarding.Printer{Out: os.Stdout, Delay: 40 * time.Millisecond}
		if !saved {
			p.Hatch(cfg.Pet.Name, engine.Snapshot())
		}
		p.Startup(cfg.Pet.Name, []onboarding.Check{
			{Label: "engine running", OK: true},
			{Label: "screen time tracked", OK: tracker != nil},
			{Label: "meal classifier ready", OK: classifier != nil},
			{Label: "discord connected", OK: connected},
			{Label: "stats loaded", OK: saved},
		})
	}

	save := func(ctx context.Context) {
		if err := st.SaveStats(ctx, engine.Snapshot().Stats); err != nil {
			slog.Error("store: save failed", "err", err)
			return
		}
		slog.Debug("store: stats saved")
	}

	ticker := time.NewTicker(cfg.Store.SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("tamapet: shutting down")
			// ctx is already cancelled; give the final save its own deadline.
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			save(saveCtx)
			cancel()
			return nil
		case <-ticker.C:
			save(ctx)
		}
	}
}

func startDiscord(ctx context.Context, cfg *config.Config, engine *pet.Engine, caretaker *care.Caretaker,
	classifier classify.Classifier, animator *sprite.Animator, tracker *screentime.Tracker, firstRun bool) error {
	bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.ChannelID, cfg.Discord.OwnerIDs, cfg.Discord.AllowSpectatorCare)
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}

	// A nil *Tracker must not become a non-nil interface.
	var usage interface{ Usage() screentime.Usage }
	if tracker != nil {
		usage = tracker
	}

	deps := discord.Deps{
		Name:            cfg.Pet.Name,
		Engine:          engine,
		Care:            caretaker,
		Classifier:      classifier,
		Animator:        animator,
		Usage:           usage,
		ScreenTimeLimit: float64(cfg.Settings.ScreenTimeLimit),
	}
	discord.NewRouter(bot, deps)
	if firstRun {
		bot.Introduce(cfg.Pet.Name, engine.Snapshot())
	}
	go bot.Start(ctx)

	if cfg.Proactive.Enabled {
		sched := proactive.New(bot, engine, caretaker, usage, proactive.Config{
			Name:               cfg.Pet.Name,
			CheckInterval:      cfg.Proactive.CheckInterval,
			DistressThreshold:  cfg.Proactive.DistressThreshold,
			DistressCooldown:   cfg.Proactive.DistressCooldown,
			BoredomMinutes:     cfg.Proactive.BoredomMinutes,
			ScreenTimeLimit:    float64(cfg.Settings.ScreenTimeLimit),
			ScreenTimeCooldown: cfg.Proactive.ScreenTimeCooldown,
		})
		go sched.Run(ctx)
	}
	return nil
}

// logMoodChanges stands in for the Discord presence when running headless.
func logMoodChanges(engine *pet.Engine) {
	var mu sync.Mutex
	last := engine.Snapshot().Mood
	engine.Subscribe(func(s pet.State) {
		mu.Lock()
		defer mu.Unlock()
		if s.Mood == last {
			return
		}
		slog.Info("engine: mood changed", "from", last, "to", s.Mood,
			"energy", s.Stats.Energy, "diet", s.Stats.Diet, "sleep", s.Stats.Sleep, "exercise", s.Stats.Exercise)
		last = s.Mood
	})
}
