package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/acchub/acchub/internal/config"
	"github.com/acchub/acchub/internal/service"
)

const (
	colorGreen   = 0x57f287
	colorBlurple = 0x5865f2
	colorRed     = 0xed4245
	colorGold    = 0xffd700

	commandErrorReply = "❌ There was an error while executing this command!"

	defaultCommandTimeout = 30 * time.Second
	setupCommandTimeout   = 3 * time.Minute
)

type Bot struct {
	cfg        config.Config
	session    *discordgo.Session
	log        *slog.Logger
	catalog    *service.CatalogService
	generation *service.GenerationService
	promos     *service.PromoService
	profiles   *service.ProfileService
	stats      *service.StatsService
	settings   service.SettingsStore
	prefix     string
	adminIDs   map[string]struct{}
}

func NewBot(
	cfg config.Config,
	session *discordgo.Session,
	log *slog.Logger,
	catalog *service.CatalogService,
	generation *service.GenerationService,
	promos *service.PromoService,
	profiles *service.ProfileService,
	stats *service.StatsService,
	settings service.SettingsStore,
) *Bot {
	prefix := cfg.DiscordPrefix
	if prefix == "" {
		prefix = "!"
	}
	adminIDs := make(map[string]struct{}, len(cfg.AdminUserIDs))
	for _, id := range cfg.AdminUserIDs {
		adminIDs[id] = struct{}{}
	}
	return &Bot{
		cfg:        cfg,
		session:    session,
		log:        log,
		catalog:    catalog,
		generation: generation,
		promos:     promos,
		profiles:   profiles,
		stats:      stats,
		settings:   settings,
		prefix:     prefix,
		adminIDs:   adminIDs,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	b.session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentGuildMembers

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer b.session.Close()

	if err := b.registerSlashCommands(ctx); err != nil {
		b.log.Error("register slash commands", "err", err)
	}

	b.log.Info("discord bot started", "prefix", b.prefix, "guild", b.cfg.DiscordGuildID)
	<-ctx.Done()
	return ctx.Err()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("gateway ready", "user", r.User.Username)
	if b.cfg.AutoSetup {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), setupCommandTimeout)
			defer cancel()
			if _, err := b.runSetup(ctx); err != nil {
				b.log.Error("auto setup", "err", err)
			}
		}()
	}
}

// invocation carries who issued a command, independent of whether it arrived
// as a prefix message or a slash interaction.
type invocation struct {
	userID    string
	username  string
	channelID string
	guildID   string
	admin     bool
	sentAt    time.Time
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, b.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(m.Content, b.prefix))
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	inv := invocation{
		userID:    m.Author.ID,
		username:  m.Author.Username,
		channelID: m.ChannelID,
		guildID:   m.GuildID,
		admin:     b.isAdmin(m.Author.ID, m.ChannelID),
		sentAt:    m.Timestamp,
	}
	r := &messageResponder{session: s, channelID: m.ChannelID, ref: m.Reference(), log: b.log}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout(name))
	defer cancel()
	b.dispatch(ctx, name, args, r, inv)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()

	args := make([]string, 0, len(data.Options))
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			args = append(args, opt.StringValue())
		}
	}

	inv := invocation{
		channelID: i.ChannelID,
		guildID:   i.GuildID,
		sentAt:    time.Now(),
	}
	if i.Member != nil && i.Member.User != nil {
		inv.userID = i.Member.User.ID
		inv.username = i.Member.User.Username
		inv.admin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	} else if i.User != nil {
		inv.userID = i.User.ID
		inv.username = i.User.Username
	}
	if _, ok := b.adminIDs[inv.userID]; ok {
		inv.admin = true
	}

	r := &interactionResponder{session: s, interaction: i.Interaction, log: b.log}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout(data.Name))
	defer cancel()
	b.dispatch(ctx, data.Name, args, r, inv)
}

// isAdmin accepts either the configured allow-list or the member's
// Administrator permission in the channel's guild.
func (b *Bot) isAdmin(userID, channelID string) bool {
	if _, ok := b.adminIDs[userID]; ok {
		return true
	}
	perms, err := b.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		b.log.Error("resolve member permissions", "user", userID, "err", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func commandTimeout(name string) time.Duration {
	if name == "setup" {
		return setupCommandTimeout
	}
	return defaultCommandTimeout
}

// responder abstracts replying so command handlers serve prefix messages and
// slash interactions the same way.
type responder interface {
	text(content string)
	embed(e *discordgo.MessageEmbed)
}

type messageResponder struct {
	session   *discordgo.Session
	channelID string
	ref       *discordgo.MessageReference
	log       *slog.Logger
}

func (r *messageResponder) text(content string) {
	if _, err := r.session.ChannelMessageSendReply(r.channelID, content, r.ref); err != nil {
		r.log.Error("send reply", "err", err)
	}
}

func (r *messageResponder) embed(e *discordgo.MessageEmbed) {
	if _, err := r.session.ChannelMessageSendEmbedReply(r.channelID, e, r.ref); err != nil {
		r.log.Error("send embed reply", "err", err)
	}
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	log         *slog.Logger
	acked       bool
}

func (r *interactionResponder) text(content string) {
	r.send(content, nil)
}

func (r *interactionResponder) embed(e *discordgo.MessageEmbed) {
	r.send("", []*discordgo.MessageEmbed{e})
}

func (r *interactionResponder) send(content string, embeds []*discordgo.MessageEmbed) {
	if !r.acked {
		err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content, Embeds: embeds},
		})
		if err != nil {
			r.log.Error("respond to interaction", "err", err)
			return
		}
		r.acked = true
		return
	}
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: content,
		Embeds:  embeds,
	})
	if err != nil {
		r.log.Error("send interaction followup", "err", err)
	}
}
