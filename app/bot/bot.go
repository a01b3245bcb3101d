package bot

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/dokibot/club-assistant/app/cfg"
	"github.com/dokibot/club-assistant/app/liveness"
	"github.com/dokibot/club-assistant/app/notify"
	"github.com/dokibot/club-assistant/app/quotes"
	"github.com/dokibot/club-assistant/app/source"
)

// Bot owns the Discord session: slash-command registration, interaction
// dispatch and notification delivery into the configured channel.
type Bot struct {
	session     *discordgo.Session
	serverCfg   *notify.ServerConfig
	configCache *source.ConfigCache
	fetcher     source.FetcherInterface
	checker     liveness.CheckerInterface
	quotes      *quotes.Store

	onDemandLinkCheck bool
	version           string
	startedAt         time.Time
}

func New(serverCfg *notify.ServerConfig, configCache *source.ConfigCache,
	fetcher source.FetcherInterface, checker liveness.CheckerInterface,
	quoteStore *quotes.Store) (*Bot, error) {
	appCfg := cfg.Get()

	session, err := discordgo.New("Bot " + appCfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Bot{
		session:           session,
		serverCfg:         serverCfg,
		configCache:       configCache,
		fetcher:           fetcher,
		checker:           checker,
		quotes:            quoteStore,
		onDemandLinkCheck: appCfg.OnDemandLinkCheck,
		version:           appCfg.Version,
		startedAt:         time.Now(),
	}, nil
}

// Run opens the gateway connection and registers the slash commands. It
// returns once the session is ready; Close shuts the connection down.
func (b *Bot) Run() error {
	ready := make(chan struct{})
	b.session.AddHandlerOnce(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Discord session ready", "user", r.User.Username)
		close(ready)
	})
	b.session.AddHandler(b.handleInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(30 * time.Second):
		b.session.Close()
		return fmt.Errorf("timed out waiting for discord ready event")
	}

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commandDefinitions()); err != nil {
		b.session.Close()
		return fmt.Errorf("failed to register slash commands: %w", err)
	}
	slog.Info("Slash commands registered", "count", len(commandDefinitions()))

	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Delivery returns the notification sink bound to this session.
func (b *Bot) Delivery() notify.Delivery {
	return &ChannelDelivery{session: b.session, serverCfg: b.serverCfg}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	handler, ok := b.commandHandlers()[name]
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Command handler panicked", "command", name, "panic", r)
			b.replyError(i)
		}
	}()

	if err := handler(i); err != nil {
		slog.Error("Command failed", "command", name, "error", err)
		b.replyError(i)
	}
}

// replyError surfaces a generic failure to the user, trying the edit path
// first in case the handler already deferred its reply.
func (b *Bot) replyError(i *discordgo.InteractionCreate) {
	content := "❌ Error ejecutando comando."
	_, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	if err != nil {
		b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
