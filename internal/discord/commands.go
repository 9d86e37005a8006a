package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/service"
)

func (b *Bot) dispatch(ctx context.Context, name string, args []string, r responder, inv invocation) {
	var err error
	switch name {
	case "setup":
		err = b.cmdSetup(ctx, r, inv)
	case "stats":
		err = b.cmdStats(ctx, r)
	case "promocode", "promo", "code":
		err = b.cmdPromoCode(ctx, args, r, inv)
	case "ping":
		b.cmdPing(r, inv)
	case "help", "h", "commands":
		b.cmdHelp(r)
	case "generate", "gen":
		err = b.cmdGenerate(ctx, args, r, inv)
	case "categories", "cats":
		err = b.cmdCategories(ctx, r)
	case "profile", "profil":
		err = b.cmdProfile(ctx, args, r, inv)
	case "serverinfo":
		err = b.cmdServerInfo(r, inv)
	case "userinfo":
		err = b.cmdUserInfo(ctx, r, inv)
	case "links":
		err = b.cmdLinks(ctx, r)
	default:
		r.text(fmt.Sprintf("❌ Unknown command. Use `%shelp` to list commands.", b.prefix))
		return
	}
	if err != nil {
		b.log.Error("command failed", "command", name, "user", inv.userID, "err", err)
		r.text(commandErrorReply)
	}
}

func (b *Bot) cmdSetup(ctx context.Context, r responder, inv invocation) error {
	if !inv.admin {
		r.text("❌ You need Administrator permission to run this command!")
		return nil
	}
	r.text("🔧 Starting server setup... This may take a minute.")

	report, err := b.runSetup(ctx)
	if err != nil {
		r.text(fmt.Sprintf("❌ Error setting up server: %s", err))
		return nil
	}

	roleList := make([]string, 0, len(roleSpecs))
	for _, spec := range roleSpecs {
		roleList = append(roleList, "• "+spec.name)
	}
	webhookList := make([]string, 0, len(report.Webhooks))
	for _, name := range report.Webhooks {
		webhookList = append(webhookList, "• "+name)
	}

	description := fmt.Sprintf(`**Successfully configured Acc Hub Discord server!**

✅ **Roles (%d):**
%s

✅ **Categories (%d) / Channels (%d):**
%s

✅ **Webhooks Configured:**
%s

📋 **Next Steps:**
1. Add webhook URLs to your platform settings
2. Configure auto-moderation in server settings
3. Set up reaction roles (optional)`,
		report.Roles, strings.Join(roleList, "\n"),
		report.Categories, report.Channels, "• "+strings.Join(categoryNames, "\n• "),
		strings.Join(webhookList, "\n"))

	r.embed(&discordgo.MessageEmbed{
		Title:       "✅ Server Setup Complete!",
		Description: description,
		Color:       colorGreen,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (b *Bot) runSetup(ctx context.Context) (*SetupReport, error) {
	platformURL := ""
	if settings, err := b.settings.Get(ctx); err != nil {
		b.log.Error("load settings for setup", "err", err)
	} else {
		platformURL = settings.PlatformURL
	}
	return NewSetup(b.session, b.log, b.cfg.DiscordGuildID, b.cfg.AdminUserIDs, platformURL).Run(ctx)
}

func (b *Bot) cmdStats(ctx context.Context, r responder) error {
	stats, err := b.stats.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("stats snapshot: %w", err)
	}
	r.embed(&discordgo.MessageEmbed{
		Title: "📊 Acc Hub Platform Statistics",
		Color: colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📦 Total Accounts", Value: fmt.Sprintf("%d", stats.TotalAccounts), Inline: true},
			{Name: "✅ Available", Value: fmt.Sprintf("%d", stats.AvailableAccounts), Inline: true},
			{Name: "🔒 Used", Value: fmt.Sprintf("%d", stats.UsedAccounts), Inline: true},
			{Name: "📂 Categories", Value: fmt.Sprintf("%d", stats.Categories), Inline: true},
			{Name: "👥 Users", Value: fmt.Sprintf("%d", stats.Users), Inline: true},
			{Name: "⚡ Generated Today", Value: fmt.Sprintf("%d", stats.GeneratedToday), Inline: true},
			{Name: "📈 Generated Total", Value: fmt.Sprintf("%d", stats.GeneratedTotal), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	})
	return nil
}

func (b *Bot) cmdPromoCode(ctx context.Context, args []string, r responder, inv invocation) error {
	if !inv.admin {
		r.text("❌ You need Administrator permission!")
		return nil
	}
	if len(args) == 0 {
		r.text(fmt.Sprintf("❌ Please specify a plan type: `%spromocode vip` or `%spromocode free`", b.prefix, b.prefix))
		return nil
	}
	plan := models.Plan(strings.ToLower(args[0]))
	if !plan.Valid() {
		r.text(fmt.Sprintf("❌ Please specify a plan type: `%spromocode vip` or `%spromocode free`", b.prefix, b.prefix))
		return nil
	}

	promo, err := b.promos.Create(ctx, &models.PromoCode{Plan: plan, MaxUses: 1})
	if err != nil {
		return fmt.Errorf("create promo code: %w", err)
	}

	r.embed(&discordgo.MessageEmbed{
		Title: "🎁 Promo Code Generated",
		Color: colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Code", Value: fmt.Sprintf("```%s```", promo.Code)},
			{Name: "Plan", Value: planLabel(promo.Plan), Inline: true},
			{Name: "Max Uses", Value: fmt.Sprintf("%d", promo.MaxUses), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	})
	return nil
}

func (b *Bot) cmdPing(r responder, inv invocation) {
	latency := time.Since(inv.sentAt).Round(time.Millisecond)
	api := b.session.HeartbeatLatency().Round(time.Millisecond)
	r.embed(&discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Bot Latency", Value: fmt.Sprintf("%dms", latency.Milliseconds()), Inline: true},
			{Name: "API Latency", Value: fmt.Sprintf("%dms", api.Milliseconds()), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *Bot) cmdHelp(r responder) {
	p := b.prefix
	r.embed(&discordgo.MessageEmbed{
		Title:       "🤖 Acc Hub Bot Commands",
		Description: fmt.Sprintf("Prefix: **%s**", p),
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: p + "generate <category> [free|vip]", Value: "🎮 Generate an account from a category"},
			{Name: p + "categories", Value: "📂 List categories with current stock"},
			{Name: p + "stats", Value: "📊 Show platform statistics"},
			{Name: p + "profile [email]", Value: "👤 Show your platform profile"},
			{Name: p + "promocode <vip|free>", Value: "🎁 Generate a promo code (Admin only)"},
			{Name: p + "setup", Value: "🔧 Setup Acc Hub Discord server (Admin only)"},
			{Name: p + "serverinfo", Value: "🏠 Show server information"},
			{Name: p + "userinfo", Value: "👤 Show your Discord account information"},
			{Name: p + "links", Value: "🔗 Platform links"},
			{Name: p + "ping", Value: "🏓 Check bot latency"},
			{Name: p + "help", Value: "📖 Show this help message"},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *Bot) cmdGenerate(ctx context.Context, args []string, r responder, inv invocation) error {
	if len(args) == 0 {
		r.text(fmt.Sprintf("❌ Usage: `%sgenerate <category> [free|vip]`", b.prefix))
		return nil
	}

	var tier models.Plan
	if last := models.Plan(strings.ToLower(args[len(args)-1])); len(args) > 1 && last.Valid() {
		tier = last
		args = args[:len(args)-1]
	}
	if tier != "" && !inv.admin {
		r.text("❌ Picking a tier requires Administrator permission. Your plan decides the tier.")
		return nil
	}
	categoryName := strings.Join(args, " ")

	if _, err := b.profiles.Touch(ctx, inv.userID, inv.username, ""); err != nil {
		b.log.Error("touch profile", "user", inv.userID, "err", err)
	}

	category, err := b.catalog.FindByName(ctx, categoryName)
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		r.text(fmt.Sprintf("❌ Unknown category **%s**. Use `%scategories` to see what's available.", categoryName, b.prefix))
		return nil
	}

	result, err := b.generation.Generate(ctx, service.GenerateRequest{
		CategoryID: category.ID,
		UserID:     inv.userID,
		Username:   inv.username,
		Tier:       tier,
	})
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			r.text(fmt.Sprintf("❌ Unknown category **%s**.", categoryName))
			return nil
		}
		return fmt.Errorf("generate: %w", err)
	}
	if result.SoldOut {
		r.text(fmt.Sprintf("❌ No **%s** accounts on the **%s** tier right now. Check back soon!",
			result.CategoryName, strings.ToUpper(string(result.Plan))))
		return nil
	}

	r.embed(&discordgo.MessageEmbed{
		Title: "✅ Account Generated Successfully!",
		Description: fmt.Sprintf("**Category:** %s\n\n%s **%s** Generator - Successfully generated!",
			result.CategoryName, planEmoji(result.Plan), strings.ToUpper(string(result.Plan))),
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📧 Email", Value: fmt.Sprintf("`%s`", result.Account.Email)},
			{Name: "🔑 Password", Value: fmt.Sprintf("||`%s`||", result.Account.Password)},
			{Name: "📋 Plan", Value: planLabel(result.Plan), Inline: true},
			{Name: "🎯 Success Rate", Value: fmt.Sprintf("%d%%", result.Account.SuccessRate), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText, IconURL: logoURL},
	})
	return nil
}

func (b *Bot) cmdCategories(ctx context.Context, r responder) error {
	categories, err := b.catalog.ListWithStock(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		r.text("❌ No categories yet.")
		return nil
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(categories))
	for _, cat := range categories {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   cat.Name,
			Value:  fmt.Sprintf("🎁 Free: %d | 👑 VIP: %d", cat.FreeStock, cat.VIPStock),
			Inline: true,
		})
	}
	r.embed(&discordgo.MessageEmbed{
		Title:     "📂 Account Categories",
		Color:     colorBlurple,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	})
	return nil
}

func (b *Bot) cmdProfile(ctx context.Context, args []string, r responder, inv invocation) error {
	var profile *models.UserProfile
	var err error
	switch {
	case len(args) > 0:
		// Email lookup exposes other users, so it stays admin-only.
		if !inv.admin {
			r.text("❌ Looking up profiles by email requires Administrator permission.")
			return nil
		}
		profile, err = b.profiles.FindByEmail(ctx, args[0])
	default:
		profile, err = b.profiles.Get(ctx, inv.userID)
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		r.text(fmt.Sprintf("❌ No profile found. Generate an account with `%sgenerate` to create one.", b.prefix))
		return nil
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "📋 Plan", Value: planLabel(profile.Plan), Inline: true},
	}
	if profile.Username != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "👤 Username", Value: profile.Username, Inline: true})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name: "📅 Member Since", Value: fmt.Sprintf("<t:%d:R>", profile.CreatedAt.Unix()), Inline: true,
	})

	r.embed(&discordgo.MessageEmbed{
		Title:     "👤 User Profile",
		Color:     colorBlurple,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	})
	return nil
}

func (b *Bot) cmdServerInfo(r responder, inv invocation) error {
	if inv.guildID == "" {
		r.text("❌ This command only works inside a server.")
		return nil
	}
	guild, err := b.session.State.Guild(inv.guildID)
	if err != nil {
		guild, err = b.session.Guild(inv.guildID)
		if err != nil {
			return fmt.Errorf("fetch guild: %w", err)
		}
	}

	created, _ := discordgo.SnowflakeTimestamp(guild.ID)
	r.embed(&discordgo.MessageEmbed{
		Title:     "🏠 " + guild.Name,
		Color:     colorBlurple,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🆔 Server ID", Value: guild.ID, Inline: true},
			{Name: "👥 Members", Value: fmt.Sprintf("%d", guild.MemberCount), Inline: true},
			{Name: "🎭 Roles", Value: fmt.Sprintf("%d", len(guild.Roles)), Inline: true},
			{Name: "📅 Created", Value: fmt.Sprintf("<t:%d:F>", created.Unix()), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	})
	return nil
}

func (b *Bot) cmdUserInfo(ctx context.Context, r responder, inv invocation) error {
	plan := "No platform profile yet"
	profile, err := b.profiles.Get(ctx, inv.userID)
	if err != nil {
		b.log.Error("load profile for userinfo", "user", inv.userID, "err", err)
	} else if profile != nil {
		plan = planLabel(profile.Plan)
	}

	created, _ := discordgo.SnowflakeTimestamp(inv.userID)
	r.embed(&discordgo.MessageEmbed{
		Title: "👤 " + inv.username,
		Color: colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🆔 User ID", Value: inv.userID, Inline: true},
			{Name: "📋 Platform Plan", Value: plan, Inline: true},
			{Name: "📅 Account Created", Value: fmt.Sprintf("<t:%d:F>", created.Unix()), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	})
	return nil
}

func (b *Bot) cmdLinks(ctx context.Context, r responder) error {
	settings, err := b.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.PlatformURL == "" {
		r.text("❌ Platform URL is not configured yet.")
		return nil
	}
	r.embed(&discordgo.MessageEmbed{
		Title:       "🔗 Acc Hub Links",
		Description: fmt.Sprintf("🌐 **Platform:** %s", settings.PlatformURL),
		Color:       colorBlurple,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText, IconURL: logoURL},
	})
	return nil
}

func planEmoji(plan models.Plan) string {
	if plan == models.PlanVIP {
		return "👑"
	}
	return "🎁"
}

func planLabel(plan models.Plan) string {
	return fmt.Sprintf("%s %s", planEmoji(plan), strings.ToUpper(string(plan)))
}

func (b *Bot) registerSlashCommands(ctx context.Context) error {
	planChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "VIP", Value: "vip"},
		{Name: "Free", Value: "free"},
	}
	commands := []*discordgo.ApplicationCommand{
		{Name: "generate", Description: "🎮 Generate an account from a category",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "Category name", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "tier", Description: "Tier override (Admin only)", Choices: planChoices},
			}},
		{Name: "categories", Description: "📂 List categories with current stock"},
		{Name: "stats", Description: "📊 Show platform statistics"},
		{Name: "profile", Description: "👤 Show your platform profile",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "email", Description: "Look up by email (Admin only)"},
			}},
		{Name: "promocode", Description: "🎁 Generate a promo code (Admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "plan", Description: "Plan the code grants", Required: true, Choices: planChoices},
			}},
		{Name: "setup", Description: "🔧 Setup Acc Hub Discord server (Admin only)"},
		{Name: "serverinfo", Description: "🏠 Show server information"},
		{Name: "userinfo", Description: "👤 Show your Discord account information"},
		{Name: "links", Description: "🔗 Platform links"},
		{Name: "ping", Description: "🏓 Check bot latency"},
		{Name: "help", Description: "📖 Show all available commands"},
	}

	appID := b.session.State.User.ID
	_, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.DiscordGuildID, commands, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}
	b.log.Info("registered slash commands", "count", len(commands))
	return nil
}
