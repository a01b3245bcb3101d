package bot

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/dokibot/club-assistant/app/source"
)

type commandHandler func(i *discordgo.InteractionCreate) error

// merchSubreddits maps the user-facing store choice to the subreddit that
// carries its merch posts.
var merchSubreddits = map[string]string{
	"pclub": "ProjectClub",
	"ddlc":  "DDLC",
	"mods":  "DDLCMods",
}

const (
	newsPerSubreddit = 3
	newsTotalLimit   = 8
	merchEntryLimit  = 5
	embedColor       = 0xfbb6ce
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	adminPermission := int64(discordgo.PermissionAdministrator)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "config",
			Description:              "Configura el canal y rol de notificaciones",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "canal",
					Description:  "Canal donde se publican las notificaciones",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					Required:     true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "rol",
					Description: "Rol a mencionar en cada notificación",
				},
			},
		},
		{
			Name:        "fanart",
			Description: "Muestra un fanart aleatorio",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "doki",
					Description: "Personaje a buscar",
				},
			},
		},
		{
			Name:        "cita",
			Description: "Una cita de un personaje",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "personaje",
					Description: "Personaje (o random)",
				},
			},
		},
		{
			Name:        "trivia",
			Description: "Responde una pregunta de trivia",
		},
		{
			Name:        "merch",
			Description: "Últimas publicaciones de merch",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "fuente",
					Description: "Tienda a consultar",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "ProjectClub", Value: "pclub"},
						{Name: "DDLC", Value: "ddlc"},
						{Name: "DDLCMods", Value: "mods"},
						{Name: "Aleatoria", Value: "random"},
					},
				},
			},
		},
		{
			Name:        "video",
			Description: "Último video relacionado",
		},
		{
			Name:        "noticias",
			Description: "Resumen de noticias recientes",
		},
		{
			Name:        "estado",
			Description: "Estado del bot",
		},
		{
			Name:        "version",
			Description: "Versión del bot",
		},
		{
			Name:        "ayuda",
			Description: "Lista de comandos disponibles",
		},
	}
}

func (b *Bot) commandHandlers() map[string]commandHandler {
	return map[string]commandHandler{
		"config":   b.handleConfig,
		"fanart":   b.handleFanart,
		"cita":     b.handleCita,
		"trivia":   b.handleTrivia,
		"merch":    b.handleMerch,
		"video":    b.handleVideo,
		"noticias": b.handleNoticias,
		"estado":   b.handleEstado,
		"version":  b.handleVersion,
		"ayuda":    b.handleAyuda,
	}
}

func (b *Bot) handleConfig(i *discordgo.InteractionCreate) error {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return b.replyEphemeral(i, "❌ Necesitas permisos de administrador.")
	}

	var channelID, roleID string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "canal":
			channelID = opt.Value.(string)
		case "rol":
			roleID = opt.Value.(string)
		}
	}
	if channelID == "" {
		return b.replyEphemeral(i, "❌ Debes indicar un canal.")
	}

	b.serverCfg.Set(channelID, roleID)
	slog.Info("Notification target configured", "channel", channelID, "role", roleID)

	msg := fmt.Sprintf("✅ Notificaciones configuradas en <#%s>.", channelID)
	if roleID != "" {
		msg = fmt.Sprintf("✅ Notificaciones configuradas en <#%s> mencionando a <@&%s>.", channelID, roleID)
	}
	return b.replyEphemeral(i, msg)
}

func (b *Bot) handleFanart(i *discordgo.InteractionCreate) error {
	if err := b.deferReply(i); err != nil {
		return err
	}

	character := optionString(i, "doki")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	configs := b.configCache.GetRedditConfigs()
	if len(configs) == 0 {
		return b.editReplyContent(i, "❌ No hay fuentes de reddit configuradas.")
	}

	var pool []source.Post
	for _, sourceConfig := range configs {
		hotConfig := *sourceConfig
		hotConfig.Reddit.Sort = "hot"

		posts, err := b.fetcher.Fetch(ctx, &hotConfig)
		if err != nil {
			slog.Warn("Fanart fetch failed", "source", sourceConfig.Key, "error", err)
			continue
		}

		for _, post := range posts {
			if post.NSFW || post.ImageURL == "" {
				continue
			}
			if !source.MatchesKeywords(post, source.FanartKeywords) {
				continue
			}
			if character != "" && !strings.Contains(strings.ToLower(post.Title+" "+post.Body), strings.ToLower(character)) {
				continue
			}
			pool = append(pool, post)
		}
	}

	if len(pool) == 0 {
		return b.editReplyContent(i, "❌ No encontré fanarts recientes. Inténtalo más tarde.")
	}

	post := pool[rand.Intn(len(pool))]

	if !b.checker.IsAlive(ctx, post.ImageURL) {
		return b.editReplyContent(i, "❌ No encontré fanarts recientes. Inténtalo más tarde.")
	}
	if b.onDemandLinkCheck && !b.checker.IsAlive(ctx, post.URL) {
		return b.editReplyContent(i, "❌ No encontré fanarts recientes. Inténtalo más tarde.")
	}

	embed := &discordgo.MessageEmbed{
		Title: source.TruncateTitle(post.Title, 250),
		URL:   post.URL,
		Color: embedColor,
		Image: &discordgo.MessageEmbedImage{URL: post.ImageURL},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("r/%s • u/%s", post.SourceName, post.Author),
		},
	}
	return b.editReplyEmbed(i, "🎨 ¡Aquí tienes un fanart!", embed)
}

func (b *Bot) handleCita(i *discordgo.InteractionCreate) error {
	character := strings.ToLower(strings.TrimSpace(optionString(i, "personaje")))

	name, quote, err := b.quotes.Random(character)
	if err != nil {
		available := strings.Join(b.quotes.Characters(), ", ")
		return b.replyEphemeral(i, fmt.Sprintf("❌ Personaje no disponible. Prueba con: %s.", available))
	}

	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("💬 *\"%s\"*\n\n— **%s**", quote, name),
		Color:       embedColor,
	}
	return b.replyEmbed(i, embed)
}

func (b *Bot) handleMerch(i *discordgo.InteractionCreate) error {
	if err := b.deferReply(i); err != nil {
		return err
	}

	choice := optionString(i, "fuente")
	subreddit, ok := merchSubreddits[choice]
	if !ok {
		names := make([]string, 0, len(merchSubreddits))
		for _, name := range merchSubreddits {
			names = append(names, name)
		}
		subreddit = names[rand.Intn(len(names))]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	merchConfig := &source.Config{
		Key:  "merch_" + strings.ToLower(subreddit),
		Type: source.TypeReddit,
		Reddit: source.ConfigReddit{
			Subreddit: subreddit,
			Sort:      "new",
			TimeRange: "month",
		},
		Settings: source.ConfigSettings{Limit: 25, Timeout: 10},
	}

	posts, err := b.fetcher.Fetch(ctx, merchConfig)
	if err != nil {
		return fmt.Errorf("failed to fetch merch listing: %w", err)
	}

	entries := collectMerch(posts)
	if len(entries) == 0 {
		return b.editReplyContent(i, fmt.Sprintf("❌ No encontré merch reciente en r/%s.", subreddit))
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🛍️ Merch reciente de r/%s", subreddit),
		Color: embedColor,
	}
	for _, entry := range entries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  source.TruncateTitle(entry.Title, 100),
			Value: fmt.Sprintf("r/%s • u/%s • [ver publicación](%s)", entry.SourceName, entry.Author, entry.URL),
		})
	}
	return b.editReplyEmbed(i, "", embed)
}

// collectMerch keeps SFW keyword-matching posts in listing order, capped at
// the embed field limit.
func collectMerch(posts []source.Post) []source.Post {
	entries := make([]source.Post, 0, merchEntryLimit)
	for _, post := range posts {
		if post.NSFW || !source.MatchesKeywords(post, source.MerchKeywords) {
			continue
		}
		entries = append(entries, post)
		if len(entries) == merchEntryLimit {
			break
		}
	}
	return entries
}

func (b *Bot) handleVideo(i *discordgo.InteractionCreate) error {
	if err := b.deferReply(i); err != nil {
		return err
	}

	var videoConfig *source.Config
	for _, key := range b.configCache.GetEnabledKeys() {
		sourceConfig, err := b.configCache.GetConfig(key)
		if err != nil {
			continue
		}
		if sourceConfig.Type == source.TypeYouTube {
			videoConfig = sourceConfig
			break
		}
	}
	if videoConfig == nil {
		return b.editReplyContent(i, "❌ No hay fuentes de video configuradas.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	posts, err := b.fetcher.Fetch(ctx, videoConfig)
	if err != nil {
		return fmt.Errorf("failed to fetch video listing: %w", err)
	}
	if len(posts) == 0 {
		return b.editReplyContent(i, "❌ No encontré videos recientes.")
	}

	post := posts[0]
	embed := &discordgo.MessageEmbed{
		Title: source.TruncateTitle(post.Title, 250),
		URL:   post.URL,
		Color: embedColor,
	}
	if post.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: post.ImageURL}
	}
	if post.Author != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: post.Author}
	}
	return b.editReplyEmbed(i, "🎥 Último video encontrado:", embed)
}

func (b *Bot) handleNoticias(i *discordgo.InteractionCreate) error {
	if err := b.deferReply(i); err != nil {
		return err
	}

	configs := b.configCache.GetRedditConfigs()
	if len(configs) == 0 {
		return b.editReplyContent(i, "❌ No hay fuentes de reddit configuradas.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	news := collectNews(ctx, b.fetcher, configs)
	if len(news) == 0 {
		return b.editReplyContent(i, "❌ No encontré noticias recientes.")
	}

	embed := &discordgo.MessageEmbed{
		Title: "📰 Noticias recientes",
		Color: embedColor,
	}
	for _, post := range news {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  source.TruncateTitle(post.Title, 100),
			Value: fmt.Sprintf("r/%s • [ver publicación](%s)", post.SourceName, post.URL),
		})
	}
	return b.editReplyEmbed(i, "", embed)
}

// collectNews aggregates keyword-matching posts across subreddits, capped per
// subreddit and overall, most recent first.
func collectNews(ctx context.Context, fetcher source.FetcherInterface, configs []*source.Config) []source.Post {
	var news []source.Post
	for _, sourceConfig := range configs {
		posts, err := fetcher.Fetch(ctx, sourceConfig)
		if err != nil {
			slog.Warn("News fetch failed", "source", sourceConfig.Key, "error", err)
			continue
		}

		count := 0
		for _, post := range posts {
			if !source.MatchesKeywords(post, source.NewsKeywords) {
				continue
			}
			news = append(news, post)
			count++
			if count == newsPerSubreddit {
				break
			}
		}
	}

	sort.Slice(news, func(a, b int) bool {
		return news[a].CreatedAt.After(news[b].CreatedAt)
	})
	if len(news) > newsTotalLimit {
		news = news[:newsTotalLimit]
	}
	return news
}

func (b *Bot) handleEstado(i *discordgo.InteractionCreate) error {
	channelLine := "sin configurar"
	if b.serverCfg.Configured() {
		channelLine = fmt.Sprintf("<#%s>", b.serverCfg.ChannelID())
	}

	embed := &discordgo.MessageEmbed{
		Title: "📊 Estado",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Versión", Value: b.version, Inline: true},
			{Name: "Tiempo activo", Value: formatUptime(time.Since(b.startedAt)), Inline: true},
			{Name: "Fuentes activas", Value: fmt.Sprintf("%d de %d", b.configCache.GetEnabledCount(), b.configCache.GetConfigCount()), Inline: true},
			{Name: "Canal de notificaciones", Value: channelLine, Inline: true},
		},
	}
	return b.replyEmbed(i, embed)
}

func (b *Bot) handleVersion(i *discordgo.InteractionCreate) error {
	return b.replyEphemeral(i, fmt.Sprintf("ClubAssistant v%s", b.version))
}

func (b *Bot) handleAyuda(i *discordgo.InteractionCreate) error {
	embed := &discordgo.MessageEmbed{
		Title: "📖 Comandos disponibles",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "/config", Value: "Configura el canal y rol de notificaciones (admin)."},
			{Name: "/fanart [doki]", Value: "Muestra un fanart aleatorio, opcionalmente de un personaje."},
			{Name: "/cita [personaje]", Value: "Una cita de un personaje."},
			{Name: "/trivia", Value: "Responde una pregunta de trivia en 20 segundos."},
			{Name: "/merch [fuente]", Value: "Últimas publicaciones de merch."},
			{Name: "/video", Value: "Último video relacionado."},
			{Name: "/noticias", Value: "Resumen de noticias recientes."},
			{Name: "/estado", Value: "Estado del bot."},
			{Name: "/version", Value: "Versión del bot."},
		},
	}
	return b.replyEmbed(i, embed)
}

// formatUptime renders a duration as days, hours and minutes.
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func optionString(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			if s, ok := opt.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Reply helpers

func (b *Bot) deferReply(i *discordgo.InteractionCreate) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) replyEphemeral(i *discordgo.InteractionCreate, content string) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) replyEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func (b *Bot) editReplyContent(i *discordgo.InteractionCreate, content string) error {
	_, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	return err
}

func (b *Bot) editReplyEmbed(i *discordgo.InteractionCreate, content string, embed *discordgo.MessageEmbed) error {
	edit := &discordgo.WebhookEdit{Embeds: &[]*discordgo.MessageEmbed{embed}}
	if content != "" {
		edit.Content = &content
	}
	_, err := b.session.InteractionResponseEdit(i.Interaction, edit)
	return err
}
