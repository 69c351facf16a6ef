package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// Slack posts Block Kit messages to an incoming webhook.
type Slack struct {
	name       string
	webhookURL string
	client     *http.Client
}

func NewSlack(name, webhookURL string) *Slack {
	return &Slack{
		name:       name,
		webhookURL: webhookURL,
		client:     newHTTPClient(),
	}
}

func (s *Slack) Name() string {
	return "slack/" + s.name
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

func (s *Slack) SendNewItem(ctx context.Context, l listing.Listing) error {
	text := FormatNewItem(l)
	payload := slackPayload{
		Text: fmt.Sprintf("[%s] 새 상품: %s", l.Platform, l.Title),
		Blocks: []slackBlock{
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}},
		},
	}
	return s.post(ctx, payload)
}

func (s *Slack) SendPriceChange(ctx context.Context, l listing.Listing, change listing.PriceChange) error {
	text := FormatPriceChange(l, change)
	payload := slackPayload{
		Text: fmt.Sprintf("가격 변동: %s", l.Title),
		Blocks: []slackBlock{
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}},
		},
	}
	return s.post(ctx, payload)
}

func (s *Slack) SendMessage(ctx context.Context, text string) error {
	return s.post(ctx, slackPayload{Text: text})
}

func (s *Slack) post(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Channel: s.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return &SendError{Channel: s.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &SendError{Channel: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SendError{
			Channel: s.Name(),
			Err:     fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, detail),
		}
	}
	return nil
}
