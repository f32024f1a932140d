package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/moorebrett0/tamapet/internal/pet"
)

// Bot owns the Discord session: connection, slash command registration,
// presence, and delivery of messages to the pet's channel.
type Bot struct {
	session   *discordgo.Session
	channelID string
	owners    map[string]bool

	allowSpectatorCare bool

	router *Router

	mu     sync.Mutex
	cancel context.CancelFunc
	intro  string // sent once on the first Ready, then cleared
}

// NewBot prepares a session. Nothing connects until Start.
func NewBot(token, channelID string, ownerIDs []string, allowSpectatorCare bool) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("invalid bot token: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuilds

	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}

	b := &Bot{
		session:            session,
		channelID:          channelID,
		owners:             owners,
		allowSpectatorCare: allowSpectatorCare,
	}
	session.AddHandler(b.onReady)
	return b, nil
}

// SetRouter routes channel messages and slash commands to r.
func (b *Bot) SetRouter(r *Router) {
	b.router = r
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)
}

// Introduce queues a hello for the first time the session becomes ready.
func (b *Bot) Introduce(name string, s pet.State) {
	b.mu.Lock()
	b.intro = introduction(name, s)
	b.mu.Unlock()
}

// Start connects, registers commands and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	if err := b.session.Open(); err != nil {
		slog.Error("discord: failed to open session", "err", err)
		return
	}
	defer b.session.Close()

	appID := b.session.State.User.ID
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, "", commandSet)
	if err != nil {
		slog.Error("discord: failed to register commands", "err", err)
	} else {
		slog.Info("discord: commands registered", "count", len(registered))
	}

	<-ctx.Done()
	slog.Info("discord: shutting down")
}

// ChannelID is the channel the pet lives in.
func (b *Bot) ChannelID() string {
	return b.channelID
}

// SendMessage posts text to a channel. Empty text is dropped.
func (b *Bot) SendMessage(channelID, text string) {
	if text == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(channelID, text); err != nil {
		slog.Error("discord: send message failed", "channel", channelID, "err", err)
	}
}

// UpdatePresence shows the pet's mood as the bot's status.
func (b *Bot) UpdatePresence(mood pet.Mood) {
	p, ok := presences[mood]
	if !ok {
		p = presences[pet.MoodNeutral]
	}
	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: p.status,
		Activities: []*discordgo.Activity{
			{Name: p.activity, Type: discordgo.ActivityTypeCustom},
		},
	})
	if err != nil {
		slog.Debug("discord: update presence failed", "mood", mood, "err", err)
	}
}

// IsOwner reports whether the user may always care for the pet.
func (b *Bot) IsOwner(userID string) bool {
	return b.owners[userID]
}

// mayCare reports whether the user may change the pet's stats: owners always,
// anyone else only when spectator care is enabled.
func (b *Bot) mayCare(userID string) bool {
	return b.allowSpectatorCare || b.IsOwner(userID)
}

func (b *Bot) selfID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

// stripMention removes a leading or inline @mention of the bot.
func (b *Bot) stripMention(m *discordgo.MessageCreate) string {
	text := m.Content
	self := b.selfID()
	if self == "" {
		return strings.TrimSpace(text)
	}
	for _, u := range m.Mentions {
		if u.ID != self {
			continue
		}
		// <@id> and the legacy nickname form <@!id>
		text = strings.ReplaceAll(text, "<@"+self+">", "")
		text = strings.ReplaceAll(text, "<@!"+self+">", "")
		break
	}
	return strings.TrimSpace(text)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("discord: ready", "user", r.User.Username, "guilds", len(r.Guilds))

	b.mu.Lock()
	intro := b.intro
	b.intro = ""
	b.mu.Unlock()
	b.SendMessage(b.channelID, intro)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == b.selfID() {
		return
	}
	if m.ChannelID != b.channelID || b.router == nil {
		return
	}
	b.router.HandleMessage(m)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || b.router == nil {
		return
	}
	b.router.HandleInteraction(i)
}

type presence struct {
	status   string
	activity string
}

var presences = map[pet.Mood]presence{
	pet.MoodHappy:   {"online", "feeling great!"},
	pet.MoodNeutral: {"online", "just vibing"},
	pet.MoodSad:     {"dnd", "needs some care..."},
}

var commandSet = []*discordgo.ApplicationCommand{
	{Name: "status", Description: "Check your pet's stats and mood"},
	{Name: "mood", Description: "Check your pet's current mood"},
	{Name: "feed", Description: "Give your pet a snack"},
	{Name: "play", Description: "Play with your pet"},
	{Name: "sleep", Description: "Tuck your pet in for a nap"},
	{Name: "exercise", Description: "Take your pet for a walk"},
	{
		Name:        "meal",
		Description: "Show your pet a photo of what you ate",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "photo",
				Description: "Photo of your meal",
				Required:    true,
			},
		},
	},
	{Name: "help", Description: "Show available commands"},
}

func introduction(name string, s pet.State) string {
	return fmt.Sprintf("%s hi everyone, i'm %s. feed me, play with me, and show me what you eat!",
		moodEmoji(s.Mood), name)
}
