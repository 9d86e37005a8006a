// Package notify sends best-effort Discord webhook notifications. Failures
// are logged and swallowed; a broken webhook never fails a generation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/acchub/acchub/internal/models"
)

const logoURL = "https://cdn.discordapp.com/attachments/1441466120631488754/1441474372614492232/acchub.png"

type Notifier struct {
	httpClient *http.Client
	log        *slog.Logger
}

func NewNotifier(timeout time.Duration, log *slog.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Generation describes one successful hand-out for the webhook embed.
type Generation struct {
	AccountEmail string
	CategoryName string
	UserName     string
	Plan         models.Plan
	PlatformURL  string
	At           time.Time
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Thumbnail   *embedMedia  `json:"thumbnail,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Author      *embedAuthor `json:"author,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedMedia struct {
	URL string `json:"url"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
	URL     string `json:"url,omitempty"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// SendGeneration posts the success embed to the configured webhook. An empty
// webhookURL is a silent no-op so unconfigured installs stay quiet.
func (n *Notifier) SendGeneration(ctx context.Context, webhookURL string, gen Generation) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil
	}

	planEmoji := "🎁"
	if gen.Plan == models.PlanVIP {
		planEmoji = "👑"
	}
	planLabel := strings.ToUpper(string(gen.Plan))
	user := gen.UserName
	if user == "" {
		user = "Anonymous"
	}
	unix := gen.At.Unix()

	payload := struct {
		Embeds []embed `json:"embeds"`
	}{
		Embeds: []embed{{
			Title: "✅ Account Generated Successfully!",
			Description: fmt.Sprintf(
				"**Category:** %s\n**Account Email:** `%s`\n\n%s **%s** Generator - Successfully generated!",
				gen.CategoryName, gen.AccountEmail, planEmoji, planLabel,
			),
			Color:     0x00ff00,
			Thumbnail: &embedMedia{URL: logoURL},
			Fields: []embedField{
				{Name: "👤 User", Value: user, Inline: true},
				{Name: "📋 Plan", Value: fmt.Sprintf("%s **%s**", planEmoji, planLabel), Inline: true},
				{Name: "⏰ Generated At", Value: fmt.Sprintf("<t:%d:F>\n<t:%d:R>", unix, unix), Inline: false},
			},
			Author: &embedAuthor{Name: "Acc Hub", IconURL: logoURL, URL: gen.PlatformURL},
			Footer: &embedFooter{Text: "Acc Hub - Account Generator Platform", IconURL: logoURL},
			Timestamp: gen.At.UTC().Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if n.log != nil {
			n.log.Error("discord webhook rejected", "status", resp.StatusCode, "body", strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("webhook error: status=%d", resp.StatusCode)
	}
	return nil
}
