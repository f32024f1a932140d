package discord

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/tamapet/internal/care"
	"github.com/moorebrett0/tamapet/internal/classify"
	"github.com/moorebrett0/tamapet/internal/pet"
	"github.com/moorebrett0/tamapet/internal/screentime"
	"github.com/moorebrett0/tamapet/internal/sprite"
)

// progressBar renders a visual bar like ████████░░ 78%
func progressBar(value float64, width int) string {
	filled := int(value / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled
	return fmt.Sprintf("%s%s %.0f%%", strings.Repeat("█", filled), strings.Repeat("░", empty), value)
}

// moodColor returns a Discord embed color for the mood.
func moodColor(mood pet.Mood) int {
	switch mood {
	case pet.MoodHappy:
		return 0x57F287 // green
	case pet.MoodNeutral:
		return 0xFEE75C // yellow
	case pet.MoodSad:
		return 0xED4245 // red
	default:
		return 0x5865F2
	}
}

func moodEmoji(mood pet.Mood) string {
	switch mood {
	case pet.MoodHappy:
		return "\U0001F60A"
	case pet.MoodNeutral:
		return "\U0001F610"
	case pet.MoodSad:
		return "\U0001F622"
	default:
		return "\U0001F610"
	}
}

// StatusEmbed builds a rich embed for /status.
func StatusEmbed(name string, s pet.State, frame sprite.Frame, usage screentime.Usage, limit float64) *discordgo.MessageEmbed {
	stats := fmt.Sprintf(
		"energy   %s\ndiet     %s\nsleep    %s\nexercise %s",
		progressBar(s.Stats.Energy, 10),
		progressBar(s.Stats.Diet, 10),
		progressBar(s.Stats.Sleep, 10),
		progressBar(s.Stats.Exercise, 10),
	)

	return &discordgo.MessageEmbed{
		Title:       name,
		Description: fmt.Sprintf("```\n%s\n```mood: %s %s | %s, facing %s", frame.Text, moodEmoji(s.Mood), s.Mood, s.Action, s.Direction),
		Color:       moodColor(s.Mood),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stats", Value: "```\n" + stats + "\n```", Inline: false},
			{Name: "Screen time", Value: screentime.FormatUsage(usage, limit), Inline: false},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

var interactionLines = map[care.Kind][]string{
	care.Feed:     {"munches happily", "gobbles it all up", "licks the bowl clean"},
	care.Play:     {"chases the ball", "pounces on a string", "does a little spin"},
	care.Sleep:    {"curls up for a nap", "snores softly", "dreams of snacks"},
	care.Exercise: {"goes for a brisk walk", "stretches its legs", "trots around the room"},
}

func TemplateInteraction(name string, kind care.Kind, s pet.State) string {
	lines := interactionLines[kind]
	line := "looks at you"
	if len(lines) > 0 {
		line = lines[rand.Intn(len(lines))]
	}
	return fmt.Sprintf("%s %s %s! (energy %.0f, diet %.0f, sleep %.0f, exercise %.0f)",
		moodEmoji(s.Mood), name, line,
		s.Stats.Energy, s.Stats.Diet, s.Stats.Sleep, s.Stats.Exercise)
}

func TemplateMeal(name string, meal classify.Classification, out care.MealOutcome) string {
	switch {
	case out.OverLimit:
		return fmt.Sprintf("\U0001F354 %s ate %s. That's unhealthy meal #%d today... diet is now %.0f%%.",
			name, meal.Summary(), out.UnhealthyToday, out.State.Stats.Diet)
	case !out.Healthy:
		return fmt.Sprintf("\U0001F35F %s ate %s. Tasty, but not great. Diet %.0f%%.",
			name, meal.Summary(), out.State.Stats.Diet)
	default:
		return fmt.Sprintf("\U0001F957 %s ate %s. Yum! Diet %.0f%%.",
			name, meal.Summary(), out.State.Stats.Diet)
	}
}

func TemplateDistressAlert(name string, s pet.State, gauge string, value float64) string {
	return fmt.Sprintf("⚠️ %s %s is running low on %s (%.0f%%)! %s",
		moodEmoji(s.Mood), name, gauge, value, distressHint(gauge))
}

func distressHint(gauge string) string {
	switch gauge {
	case "diet":
		return "Try `/feed` or send a healthy `/meal`."
	case "sleep":
		return "Maybe it's time for `/sleep`."
	case "exercise":
		return "How about some `/exercise`?"
	default:
		return "Some `/play` and rest would help."
	}
}

func TemplateScreenTimeAlert(name string, u screentime.Usage, limit float64) string {
	if u.LateNight {
		return fmt.Sprintf("\U0001F319 %s is yawning... %.0f minutes of screens today and it's past bedtime.", name, u.Today)
	}
	return fmt.Sprintf("\U0001F4F1 %s noticed %.0f minutes of screen time today (limit %.0f). Stretch break?", name, u.Today, limit)
}

func TemplateBoredomMessage(name string, s pet.State) string {
	return fmt.Sprintf("%s %s is getting bored... Come say hi!", moodEmoji(s.Mood), name)
}

func TemplateGreeting(name string, s pet.State) string {
	return fmt.Sprintf("%s %s waves at you! (%s)", moodEmoji(s.Mood), name, s.Mood)
}

func TemplateHelp(name string) string {
	if name == "" {
		name = "your pet"
	}
	return fmt.Sprintf("**Tamapet Commands**\n\n"+
		"`/status` — See %s's stats and mood\n"+
		"`/mood` — Current mood\n"+
		"`/feed` — Give %s a snack\n"+
		"`/play` — Play with %s\n"+
		"`/sleep` — Tuck %s in for a nap\n"+
		"`/exercise` — Take %s for a walk\n"+
		"`/meal` — Upload a photo of your meal\n"+
		"`/help` — This message", name, name, name, name, name)
}
