package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	logoURL    = "https://cdn.discordapp.com/attachments/1441466120631488754/1441474372614492232/acchub.png"
	footerText = "Acc Hub - Account Generator Platform"

	welcomeTitle = "🎉 Welcome to Acc Hub Discord Server!"
	rulesTitle   = "📜 Acc Hub Server Rules"
)

// guildAPI is the slice of the Discord REST surface the provisioning needs.
// *discordgo.Session satisfies it.
type guildAPI interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildRoleDelete(guildID, roleID string, options ...discordgo.RequestOption) error
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error)
	WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

type roleSpec struct {
	name        string
	color       int
	mentionable bool
	permissions int64
}

type overwriteSpec struct {
	subject string // role name, or "@everyone"
	allow   int64
	deny    int64
}

type channelSpec struct {
	name       string
	category   string
	topic      string
	voice      bool
	overwrites []overwriteSpec
}

var roleSpecs = []roleSpec{
	{name: "🎁 FREE", color: 0x3498db, mentionable: true},
	{name: "👑 VIP", color: 0xffd700, mentionable: true},
	{name: "🔧 Staff", color: 0x00ff00, mentionable: true},
	{name: "👮 Moderator", color: 0xff0000, mentionable: true,
		permissions: discordgo.PermissionManageMessages | discordgo.PermissionKickMembers | discordgo.PermissionBanMembers | discordgo.PermissionModerateMembers},
	{name: "⚡ Admin", color: 0x9b59b6, mentionable: true, permissions: discordgo.PermissionAdministrator},
	{name: "🤖 Bot", color: 0x7289da},
	{name: "🎉 Giveaway Winner", color: 0xff69b4},
	{name: "⭐ Early Supporter", color: 0x1abc9c},
}

var categoryNames = []string{
	"📢 INFORMATION",
	"💬 GENERAL",
	"🎁 PROMO & CODES",
	"📈 STATISTICS",
	"🔐 ADMIN",
	"🎤 VOICE",
}

const (
	everyone  = "@everyone"
	viewRead  = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
	sendAllow = discordgo.PermissionSendMessages
)

func readOnly() []overwriteSpec {
	return []overwriteSpec{{subject: everyone, allow: viewRead, deny: sendAllow}}
}

func readOnlyWithBot() []overwriteSpec {
	return []overwriteSpec{
		{subject: everyone, allow: viewRead, deny: sendAllow},
		{subject: "🤖 Bot", allow: sendAllow},
	}
}

var channelSpecs = []channelSpec{
	{name: "👋-welcome", category: "📢 INFORMATION",
		topic: "👋 Welcome to Acc Hub! Read the rules and introduce yourself",
		overwrites: []overwriteSpec{{subject: everyone, allow: viewRead | sendAllow}}},
	{name: "📜-rules", category: "📢 INFORMATION",
		topic:      "📋 Server rules and guidelines - Read before participating",
		overwrites: readOnly()},
	{name: "📢-announcements", category: "📢 INFORMATION",
		topic:      "📢 Platform updates, new features, and important news",
		overwrites: readOnlyWithBot()},
	{name: "📝-updates", category: "📢 INFORMATION",
		topic:      "📝 Changelog and version updates",
		overwrites: readOnly()},
	{name: "📊-status", category: "📢 INFORMATION",
		topic:      "📊 Platform status and maintenance notices",
		overwrites: readOnlyWithBot()},

	{name: "🎮-account-generation", category: "💬 GENERAL",
		topic: "🎮 Discussion about account generation, tips & tricks"},
	{name: "💬-general", category: "💬 GENERAL",
		topic: "💬 Chat about anything related to Acc Hub platform!"},
	{name: "❓-questions", category: "💬 GENERAL",
		topic: "❓ Get help with issues, ask questions"},
	{name: "💡-suggestions", category: "💬 GENERAL",
		topic: "💡 Suggest new features or improvements"},
	{name: "🆘-support", category: "💬 GENERAL",
		topic: "🆘 Need help? Create a support ticket or ask here"},
	{name: "🐛-bug-reports", category: "💬 GENERAL",
		topic: "🐛 Report bugs and issues you found"},

	{name: "🎫-promo-codes", category: "🎁 PROMO & CODES",
		topic:      "🎁 Admin posts promo codes for VIP upgrades - Check regularly!",
		overwrites: readOnly()},
	{name: "🎉-giveaways", category: "🎁 PROMO & CODES",
		topic: "🎉 VIP account giveaways - React to enter!",
		overwrites: []overwriteSpec{
			{subject: everyone, allow: viewRead | discordgo.PermissionAddReactions, deny: sendAllow}}},
	{name: "🏆-winners", category: "🎁 PROMO & CODES",
		topic:      "🏆 Announce giveaway winners",
		overwrites: readOnly()},
	{name: "💎-vip-accounts", category: "🎁 PROMO & CODES",
		topic: "💎 Exclusive VIP account announcements",
		overwrites: []overwriteSpec{
			{subject: everyone, deny: discordgo.PermissionViewChannel},
			{subject: "👑 VIP", allow: viewRead}}},

	{name: "📊-platform-stats", category: "📈 STATISTICS",
		topic:      "📊 Auto-updated platform statistics",
		overwrites: readOnlyWithBot()},
	{name: "📈-account-stats", category: "📈 STATISTICS",
		topic:      "📈 Account generation statistics",
		overwrites: readOnlyWithBot()},
	{name: "🏅-leaderboard", category: "📈 STATISTICS",
		topic:      "🏅 Top users leaderboard",
		overwrites: readOnlyWithBot()},

	{name: "📋-logs", category: "🔐 ADMIN",
		topic: "📋 Server logs and moderation actions",
		overwrites: []overwriteSpec{
			{subject: everyone, deny: discordgo.PermissionViewChannel},
			{subject: "⚡ Admin", allow: viewRead | sendAllow},
			{subject: "👮 Moderator", allow: viewRead},
			{subject: "🤖 Bot", allow: discordgo.PermissionViewChannel | sendAllow}}},
	{name: "🔐-admin-logs", category: "🔐 ADMIN",
		topic: "🔐 Admin activity logs",
		overwrites: []overwriteSpec{
			{subject: everyone, deny: discordgo.PermissionViewChannel},
			{subject: "⚡ Admin", allow: discordgo.PermissionViewChannel | sendAllow},
			{subject: "👮 Moderator", allow: viewRead}}},
	{name: "🤖-bot-commands", category: "🔐 ADMIN",
		topic: "🤖 Bot command channel - Use !help to see commands"},
	{name: "📨-reports", category: "🔐 ADMIN",
		topic: "📋 User reports (abuse, scams, etc.)"},

	{name: "🔊 General Voice", category: "🎤 VOICE", voice: true},
	{name: "🎮 Gaming Voice", category: "🎤 VOICE", voice: true},
}

type webhookSpec struct {
	channel string
	name    string
}

var webhookSpecs = []webhookSpec{
	{channel: "🎫-promo-codes", name: "Acc Hub - Promo Codes"},
	{channel: "📊-platform-stats", name: "Acc Hub - Statistics"},
}

// SetupReport summarizes one provisioning run.
type SetupReport struct {
	Roles      int
	Categories int
	Channels   int
	Webhooks   []string

	DeletedChannels int
	DeletedRoles    int
}

// Setup provisions a guild to the expected layout. Safe to run repeatedly:
// everything is get-or-create keyed by name, and the welcome/rules embeds are
// deduped by title. Individual failures are logged and skipped so a partial
// earlier run is recovered by running again.
type Setup struct {
	api          guildAPI
	log          *slog.Logger
	guildID      string
	adminUserIDs []string
	platformURL  string
}

func NewSetup(api guildAPI, log *slog.Logger, guildID string, adminUserIDs []string, platformURL string) *Setup {
	if platformURL == "" {
		platformURL = "https://your-platform-url.com"
	}
	return &Setup{api: api, log: log, guildID: guildID, adminUserIDs: adminUserIDs, platformURL: platformURL}
}

func (s *Setup) Run(ctx context.Context) (*SetupReport, error) {
	report := &SetupReport{}
	opt := discordgo.WithContext(ctx)

	s.cleanup(report, opt)

	roleIDs, err := s.ensureRoles(report, opt)
	if err != nil {
		return nil, err
	}
	s.assignAdminRole(roleIDs["⚡ Admin"], opt)

	channelIDs, err := s.ensureChannels(roleIDs, report, opt)
	if err != nil {
		return nil, err
	}

	s.ensureWebhooks(channelIDs, report, opt)
	s.ensureEmbed(channelIDs["👋-welcome"], s.welcomeEmbed(channelIDs), opt)
	s.ensureEmbed(channelIDs["📜-rules"], rulesEmbed(), opt)

	return report, nil
}

// cleanup deletes channels, categories, and roles outside the expected
// layout. Managed roles and the default Discord categories survive.
func (s *Setup) cleanup(report *SetupReport, opt discordgo.RequestOption) {
	expectedChannels := make(map[string]bool, len(channelSpecs))
	for _, spec := range channelSpecs {
		expectedChannels[spec.name] = true
	}
	expectedCategories := make(map[string]bool, len(categoryNames))
	for _, name := range categoryNames {
		expectedCategories[name] = true
	}
	expectedRoles := make(map[string]bool, len(roleSpecs))
	for _, spec := range roleSpecs {
		expectedRoles[spec.name] = true
	}

	channels, err := s.api.GuildChannels(s.guildID, opt)
	if err != nil {
		s.log.Error("list channels for cleanup", "err", err)
	} else {
		for _, ch := range channels {
			keep := false
			if ch.Type == discordgo.ChannelTypeGuildCategory {
				keep = expectedCategories[ch.Name] || ch.Name == "Text Channels" || ch.Name == "Voice Channels"
			} else {
				keep = expectedChannels[ch.Name]
			}
			if keep {
				continue
			}
			if _, err := s.api.ChannelDelete(ch.ID, opt); err != nil {
				s.log.Warn("delete old channel", "channel", ch.Name, "err", err)
				continue
			}
			report.DeletedChannels++
			s.log.Info("deleted old channel", "channel", ch.Name)
		}
	}

	roles, err := s.api.GuildRoles(s.guildID, opt)
	if err != nil {
		s.log.Error("list roles for cleanup", "err", err)
		return
	}
	for _, role := range roles {
		if role.ID == s.guildID || role.Managed || expectedRoles[role.Name] {
			continue
		}
		if err := s.api.GuildRoleDelete(s.guildID, role.ID, opt); err != nil {
			s.log.Warn("delete old role", "role", role.Name, "err", err)
			continue
		}
		report.DeletedRoles++
		s.log.Info("deleted old role", "role", role.Name)
	}
}

func (s *Setup) ensureRoles(report *SetupReport, opt discordgo.RequestOption) (map[string]string, error) {
	existing, err := s.api.GuildRoles(s.guildID, opt)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, role := range existing {
		byName[role.Name] = role.ID
	}

	ids := map[string]string{everyone: s.guildID}
	for _, spec := range roleSpecs {
		if id, ok := byName[spec.name]; ok {
			ids[spec.name] = id
			report.Roles++
			continue
		}
		color := spec.color
		mentionable := spec.mentionable
		params := &discordgo.RoleParams{
			Name:        spec.name,
			Color:       &color,
			Mentionable: &mentionable,
		}
		if spec.permissions != 0 {
			perms := spec.permissions
			params.Permissions = &perms
		}
		role, err := s.api.GuildRoleCreate(s.guildID, params, opt)
		if err != nil {
			return nil, fmt.Errorf("create role %s: %w", spec.name, err)
		}
		ids[spec.name] = role.ID
		report.Roles++
		s.log.Info("created role", "role", spec.name)
	}
	return ids, nil
}

func (s *Setup) assignAdminRole(roleID string, opt discordgo.RequestOption) {
	if roleID == "" {
		return
	}
	for _, userID := range s.adminUserIDs {
		if err := s.api.GuildMemberRoleAdd(s.guildID, userID, roleID, opt); err != nil {
			s.log.Warn("assign admin role", "user", userID, "err", err)
			continue
		}
		s.log.Info("assigned admin role", "user", userID)
	}
}

func (s *Setup) ensureChannels(roleIDs map[string]string, report *SetupReport, opt discordgo.RequestOption) (map[string]string, error) {
	existing, err := s.api.GuildChannels(s.guildID, opt)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	categoriesByName := make(map[string]string)
	channelsByName := make(map[string]string)
	for _, ch := range existing {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categoriesByName[ch.Name] = ch.ID
		} else {
			channelsByName[ch.Name] = ch.ID
		}
	}

	for i, name := range categoryNames {
		if _, ok := categoriesByName[name]; ok {
			report.Categories++
			continue
		}
		ch, err := s.api.GuildChannelCreateComplex(s.guildID, discordgo.GuildChannelCreateData{
			Name:     name,
			Type:     discordgo.ChannelTypeGuildCategory,
			Position: i,
		}, opt)
		if err != nil {
			return nil, fmt.Errorf("create category %s: %w", name, err)
		}
		categoriesByName[name] = ch.ID
		report.Categories++
		s.log.Info("created category", "category", name)
	}

	ids := make(map[string]string, len(channelSpecs))
	position := map[string]int{}
	for _, spec := range channelSpecs {
		pos := position[spec.category]
		position[spec.category] = pos + 1

		if id, ok := channelsByName[spec.name]; ok {
			ids[spec.name] = id
			report.Channels++
			continue
		}

		data := discordgo.GuildChannelCreateData{
			Name:     spec.name,
			Type:     discordgo.ChannelTypeGuildText,
			Topic:    spec.topic,
			ParentID: categoriesByName[spec.category],
			Position: pos,
		}
		if spec.voice {
			data.Type = discordgo.ChannelTypeGuildVoice
		}
		for _, ow := range spec.overwrites {
			roleID, ok := roleIDs[ow.subject]
			if !ok {
				continue
			}
			data.PermissionOverwrites = append(data.PermissionOverwrites, &discordgo.PermissionOverwrite{
				ID:    roleID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: ow.allow,
				Deny:  ow.deny,
			})
		}

		ch, err := s.api.GuildChannelCreateComplex(s.guildID, data, opt)
		if err != nil {
			return nil, fmt.Errorf("create channel %s: %w", spec.name, err)
		}
		ids[spec.name] = ch.ID
		report.Channels++
		s.log.Info("created channel", "channel", spec.name)
	}
	return ids, nil
}

func (s *Setup) ensureWebhooks(channelIDs map[string]string, report *SetupReport, opt discordgo.RequestOption) {
	for _, spec := range webhookSpecs {
		channelID := channelIDs[spec.channel]
		if channelID == "" {
			continue
		}
		hooks, err := s.api.ChannelWebhooks(channelID, opt)
		if err != nil {
			s.log.Warn("list webhooks", "channel", spec.channel, "err", err)
			continue
		}
		found := false
		for _, hook := range hooks {
			if hook.Name == spec.name {
				found = true
				break
			}
		}
		if !found {
			if _, err := s.api.WebhookCreate(channelID, spec.name, "", opt); err != nil {
				s.log.Warn("create webhook", "channel", spec.channel, "err", err)
				continue
			}
			s.log.Info("created webhook", "name", spec.name)
		}
		report.Webhooks = append(report.Webhooks, spec.name)
	}
}

// ensureEmbed posts an embed unless one with the same title already sits in
// the channel's recent history.
func (s *Setup) ensureEmbed(channelID string, embed *discordgo.MessageEmbed, opt discordgo.RequestOption) {
	if channelID == "" {
		return
	}
	messages, err := s.api.ChannelMessages(channelID, 10, "", "", "", opt)
	if err != nil {
		s.log.Warn("list channel messages", "err", err)
		return
	}
	for _, msg := range messages {
		for _, e := range msg.Embeds {
			if e.Title == embed.Title {
				return
			}
		}
	}
	if _, err := s.api.ChannelMessageSendEmbed(channelID, embed, opt); err != nil {
		s.log.Warn("send embed", "title", embed.Title, "err", err)
	}
}

func (s *Setup) welcomeEmbed(channelIDs map[string]string) *discordgo.MessageEmbed {
	mention := func(name string) string {
		if id := channelIDs[name]; id != "" {
			return fmt.Sprintf("<#%s>", id)
		}
		return "#" + strings.TrimLeft(name, "👋📜📢🎫🆘🎉-")
	}
	description := fmt.Sprintf(`**Acc Hub** - Account Generator Platform

📋 **Server Info:**
• Platform: %s
• FREE Generator: 10%% Success Rate
• VIP Generator: 90%% Success Rate - €5 Lifetime

📢 **Important Channels:**
• %s - Read the rules
• %s - Platform updates
• %s - VIP promo codes
• %s - Get help

🎁 **New to Acc Hub?**
1. Visit our platform and create an account
2. Check %s for free VIP codes
3. Join our giveaways in %s

💡 **Need help?** Check %s or create a post!

**Enjoy your stay!** 🚀`,
		s.platformURL,
		mention("📜-rules"), mention("📢-announcements"), mention("🎫-promo-codes"), mention("🆘-support"),
		mention("🎫-promo-codes"), mention("🎉-giveaways"), mention("🆘-support"))

	return &discordgo.MessageEmbed{
		Title:       welcomeTitle,
		Description: description,
		Color:       colorBlurple,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText, IconURL: logoURL},
	}
}

func rulesEmbed() *discordgo.MessageEmbed {
	rules := []struct{ name, value string }{
		{"1️⃣ **Be Respectful**", "Treat all members with respect. No harassment, bullying, or hate speech."},
		{"2️⃣ **No Spam**", "Do not spam messages, emojis, or links. Keep conversations on-topic."},
		{"3️⃣ **No Advertising**", "Self-promotion and advertising of other services is not allowed without admin permission."},
		{"4️⃣ **Appropriate Content**", "Keep all content appropriate. No NSFW content, illegal activities, or dangerous links."},
		{"5️⃣ **Follow Discord ToS**", "All Discord Terms of Service and Community Guidelines apply here."},
		{"6️⃣ **Account Generation Guidelines**", "Generated accounts are for personal use only. Do not resell or redistribute accounts."},
		{"7️⃣ **No Scamming**", "Any form of scamming, fraud, or deception will result in an immediate ban."},
		{"8️⃣ **Listen to Staff**", "Follow instructions from moderators and administrators. Their decisions are final."},
	}
	fields := make([]*discordgo.MessageEmbedField, 0, len(rules))
	for _, rule := range rules {
		fields = append(fields, &discordgo.MessageEmbedField{Name: rule.name, Value: rule.value})
	}
	return &discordgo.MessageEmbed{
		Title:       rulesTitle,
		Description: "Please read and follow these rules to maintain a friendly and safe community!",
		Fields:      fields,
		Color:       colorRed,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText, IconURL: logoURL},
	}
}
