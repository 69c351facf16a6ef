package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

const (
	colorNewItem   = 16753920 // orange
	colorPriceDrop = 3066993  // green
	colorPriceUp   = 15158332 // red
)

// Discord posts embeds to an incoming webhook.
type Discord struct {
	name       string
	webhookURL string
	client     *http.Client
}

func NewDiscord(name, webhookURL string) *Discord {
	return &Discord{
		name:       name,
		webhookURL: webhookURL,
		client:     newHTTPClient(),
	}
}

func (d *Discord) Name() string {
	return "discord/" + d.name
}

type discordEmbedThumbnail struct {
	URL string `json:"url,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string                `json:"title,omitempty"`
	Description string                `json:"description,omitempty"`
	URL         string                `json:"url,omitempty"`
	Timestamp   string                `json:"timestamp,omitempty"`
	Color       int                   `json:"color,omitempty"`
	Thumbnail   discordEmbedThumbnail `json:"thumbnail,omitempty"`
	Fields      []discordEmbedField   `json:"fields,omitempty"`
	Footer      discordEmbedFooter    `json:"footer,omitempty"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

func (d *Discord) SendNewItem(ctx context.Context, l listing.Listing) error {
	embed := discordEmbed{
		Title:     fmt.Sprintf("%s %s", emojiFor(l.Platform), l.Title),
		URL:       l.URL,
		Color:     colorNewItem,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Thumbnail: discordEmbedThumbnail{URL: l.Thumbnail},
		Fields: []discordEmbedField{
			{Name: "가격", Value: l.Price, Inline: true},
			{Name: "플랫폼", Value: l.Platform, Inline: true},
		},
		Footer: discordEmbedFooter{Text: "키워드: " + l.Keyword},
	}
	if l.Location != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "지역", Value: l.Location, Inline: true})
	}
	if len(l.AutoTags) > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "태그", Value: strings.Join(l.AutoTags, ", ")})
	}
	return d.post(ctx, discordPayload{Embeds: []discordEmbed{embed}})
}

func (d *Discord) SendPriceChange(ctx context.Context, l listing.Listing, change listing.PriceChange) error {
	color := colorPriceUp
	title := "📈 가격 인상"
	if change.Dropped() {
		color = colorPriceDrop
		title = "📉 가격 인하"
	}
	embed := discordEmbed{
		Title:       title,
		Description: l.Title,
		URL:         l.URL,
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []discordEmbedField{
			{Name: "이전 가격", Value: change.OldPrice, Inline: true},
			{Name: "현재 가격", Value: change.NewPrice, Inline: true},
		},
	}
	if change.TargetPrice > 0 {
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "🎯 목표가 도달", Value: listing.FormatPriceKR(change.TargetPrice)})
	}
	return d.post(ctx, discordPayload{Embeds: []discordEmbed{embed}})
}

func (d *Discord) SendMessage(ctx context.Context, text string) error {
	return d.post(ctx, discordPayload{Content: text})
}

func (d *Discord) post(ctx context.Context, payload discordPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Channel: d.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return &SendError{Channel: d.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return &SendError{Channel: d.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SendError{
			Channel: d.Name(),
			Err:     fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, detail),
		}
	}
	return nil
}
