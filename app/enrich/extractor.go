package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability"

	"github.com/danbi-labs/joonggo-radar/app/sources"
)

const maxDescriptionLength = 1000

// Extractor fetches a listing's detail page and distills a readable
// description. Enrichment is best effort: a failure leaves the listing
// without a description, it never fails the cycle.
type Extractor struct {
	client *sources.Client
}

func NewExtractor(client *sources.Client) *Extractor {
	return &Extractor{client: client}
}

// Describe returns a plain-text description for the page at pageURL.
func (e *Extractor) Describe(ctx context.Context, pageURL string) (string, error) {
	resp, err := e.client.Get(ctx, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch detail page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("read detail page: %w", err)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from %s", pageURL)
	}
	if runes := []rune(text); len(runes) > maxDescriptionLength {
		text = string(runes[:maxDescriptionLength])
	}

	slog.Debug("Extracted listing description",
		"url", pageURL,
		"length", len(text))

	return text, nil
}
