package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/tamapet/internal/care"
	"github.com/moorebrett0/tamapet/internal/classify"
	"github.com/moorebrett0/tamapet/internal/pet"
	"github.com/moorebrett0/tamapet/internal/screentime"
	"github.com/moorebrett0/tamapet/internal/sprite"
)

// maxPhotoBytes caps meal photo downloads.
const maxPhotoBytes = 10 << 20

// StateSource is read-only access to the behavior engine.
type StateSource interface {
	Snapshot() pet.State
}

// UsageSource reports tracked screen time.
type UsageSource interface {
	Usage() screentime.Usage
}

// Deps are what the router needs to answer commands.
type Deps struct {
	Name            string
	Engine          StateSource
	Care            *care.Caretaker
	Classifier      classify.Classifier // nil disables /meal
	Animator        *sprite.Animator
	Usage           UsageSource
	ScreenTimeLimit float64
}

// Router dispatches Discord messages and slash commands.
type Router struct {
	bot     *Bot
	deps    Deps
	started time.Time
	http    *http.Client
}

// NewRouter creates a router and wires it to the bot.
func NewRouter(bot *Bot, deps Deps) *Router {
	r := &Router{
		bot:     bot,
		deps:    deps,
		started: time.Now(),
		http:    &http.Client{Timeout: 20 * time.Second},
	}
	bot.SetRouter(r)
	return r
}

var careCommands = map[string]care.Kind{
	"feed":     care.Feed,
	"play":     care.Play,
	"sleep":    care.Sleep,
	"exercise": care.Exercise,
}

// HandleInteraction dispatches a slash command interaction.
func (r *Router) HandleInteraction(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	userID := interactionUserID(i)
	mayCare := r.bot.mayCare(userID)
	name := r.deps.Name
	snap := r.deps.Engine.Snapshot()

	if kind, ok := careCommands[data.Name]; ok {
		if !mayCare {
			r.respondEphemeral(i, fmt.Sprintf("%s only my owner can do that.", moodEmoji(snap.Mood)))
			return
		}
		snap, _ = r.deps.Care.Do(kind)
		r.respond(i, TemplateInteraction(name, kind, snap))
		return
	}

	switch data.Name {
	case "status":
		frame := r.deps.Animator.OnFrame(time.Since(r.started))
		var usage screentime.Usage
		if r.deps.Usage != nil {
			usage = r.deps.Usage.Usage()
		}
		r.respondEmbed(i, StatusEmbed(name, snap, frame, usage, r.deps.ScreenTimeLimit))

	case "mood":
		r.respond(i, fmt.Sprintf("%s %s is feeling %s", moodEmoji(snap.Mood), name, snap.Mood))

	case "meal":
		if !mayCare {
			r.respondEphemeral(i, fmt.Sprintf("%s only my owner can feed me.", moodEmoji(snap.Mood)))
			return
		}
		if r.deps.Classifier == nil {
			r.respond(i, fmt.Sprintf("%s I can't look at photos right now. (No classifier configured)", moodEmoji(snap.Mood)))
			return
		}
		url := attachmentURL(data)
		if url == "" {
			r.respondEphemeral(i, "Attach a photo of your meal.")
			return
		}
		r.respondDeferred(i)
		r.followup(i, r.classifyMeal(context.Background(), url))

	case "help":
		r.respond(i, TemplateHelp(name))

	default:
		r.respond(i, "Unknown command.")
	}
}

// classifyMeal downloads and classifies a photo, feeding the result to the
// pet. Failures become a retry prompt; nothing is retried automatically.
func (r *Router) classifyMeal(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	image, err := r.download(ctx, url)
	if err != nil {
		slog.Error("router: meal photo download failed", "err", err)
		return "I couldn't open that photo. Please try again."
	}

	meal, err := r.deps.Classifier.Classify(ctx, image)
	if err != nil {
		slog.Error("router: meal classification failed", "err", err)
		if errors.Is(err, classify.ErrRateLimited) {
			return "Too many photos at once! Try again in a minute."
		}
		return "Failed to classify meal. Please try again."
	}

	out := r.deps.Care.EatMeal(meal)
	return TemplateMeal(r.deps.Name, meal, out)
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get attachment: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("attachment larger than %d bytes", maxPhotoBytes)
	}
	return data, nil
}

// HandleMessage dispatches a free-form channel message.
func (r *Router) HandleMessage(m *discordgo.MessageCreate) {
	text := r.bot.stripMention(m)
	if text == "" {
		return
	}

	reply := r.replyTo(strings.ToLower(text), r.bot.mayCare(m.Author.ID))
	if reply != "" {
		r.bot.SendMessage(m.ChannelID, reply)
	}
}

// replyTo matches chat patterns that work without a slash command. Only
// callers allowed to care for the pet can change its stats this way.
func (r *Router) replyTo(lower string, mayCare bool) string {
	name := r.deps.Name

	if mayCare {
		if matchesFeeding(lower) {
			snap, _ := r.deps.Care.Do(care.Feed)
			return TemplateInteraction(name, care.Feed, snap)
		}
		if matchesPlay(lower) {
			snap, _ := r.deps.Care.Do(care.Play)
			return TemplateInteraction(name, care.Play, snap)
		}
	}

	if matchesGreeting(lower) {
		r.deps.Care.Touch()
		return TemplateGreeting(name, r.deps.Engine.Snapshot())
	}

	// No pattern match — stay quiet.
	return ""
}

// --- Interaction response helpers ---

func (r *Router) respond(i *discordgo.InteractionCreate, content string) {
	r.bot.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func (r *Router) respondEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	r.bot.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func (r *Router) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	r.bot.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *Router) respondDeferred(i *discordgo.InteractionCreate) {
	r.bot.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (r *Router) followup(i *discordgo.InteractionCreate, content string) {
	if _, err := r.bot.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	}); err != nil {
		slog.Error("discord: followup failed", "err", err)
	}
}

// --- Pattern matchers ---

func matchesGreeting(text string) bool {
	patterns := []string{
		"hello", "hi", "hey", "howdy", "sup",
		"good morning", "good evening", "good night",
		"yo", "hiya", "heya", "what's up", "whats up",
	}
	return containsAny(text, patterns)
}

func matchesFeeding(text string) bool {
	patterns := []string{
		"feed", "food", "eat", "treat",
		"snack", "dinner", "lunch", "breakfast",
		"hungry", "nom",
	}
	return containsAny(text, patterns)
}

func matchesPlay(text string) bool {
	patterns := []string{
		"play", "fetch", "ball", "game", "zoomies",
	}
	return containsAny(text, patterns)
}

// containsAny matches single-word patterns against whole words, so "hi"
// does not fire on "this". Multi-word patterns match as substrings.
func containsAny(text string, patterns []string) bool {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	for _, p := range patterns {
		if strings.Contains(p, " ") {
			if strings.Contains(text, p) {
				return true
			}
			continue
		}
		if set[p] {
			return true
		}
	}
	return false
}

func attachmentURL(data discordgo.ApplicationCommandInteractionData) string {
	if data.Resolved == nil {
		return ""
	}
	for _, opt := range data.Options {
		if opt.Type != discordgo.ApplicationCommandOptionAttachment {
			continue
		}
		id, _ := opt.Value.(string)
		if a, ok := data.Resolved.Attachments[id]; ok && a != nil {
			return a.URL
		}
	}
	return ""
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
