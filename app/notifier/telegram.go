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

const telegramAPIURL = "https://api.telegram.org"

// Telegram sends messages through the Bot API. Listings with a thumbnail
// go out as a photo with caption, the rest as plain messages.
type Telegram struct {
	name    string
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegram(name, token, chatID string) *Telegram {
	return &Telegram{
		name:    name,
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPIURL,
		client:  newHTTPClient(),
	}
}

func (t *Telegram) Name() string {
	return "telegram/" + t.name
}

func (t *Telegram) SendNewItem(ctx context.Context, l listing.Listing) error {
	text := FormatNewItem(l)
	if l.Thumbnail != "" {
		return t.call(ctx, "sendPhoto", map[string]string{
			"chat_id": t.chatID,
			"photo":   l.Thumbnail,
			"caption": text,
		})
	}
	return t.SendMessage(ctx, text)
}

func (t *Telegram) SendPriceChange(ctx context.Context, l listing.Listing, change listing.PriceChange) error {
	return t.SendMessage(ctx, FormatPriceChange(l, change))
}

func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	return t.call(ctx, "sendMessage", map[string]string{
		"chat_id":                  t.chatID,
		"text":                     text,
		"disable_web_page_preview": "true",
	})
}

func (t *Telegram) call(ctx context.Context, method string, params map[string]string) error {
	body, err := json.Marshal(params)
	if err != nil {
		return &SendError{Channel: t.Name(), Err: err}
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &SendError{Channel: t.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return &SendError{Channel: t.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SendError{
			Channel: t.Name(),
			Err:     fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, detail),
		}
	}
	return nil
}
