package sources

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// RSSSource adapts a marketplace that exposes its search as an RSS or Atom
// feed. The feed URL template must contain %s which is replaced with the
// URL-escaped keyword.
type RSSSource struct {
	client      *Client
	name        string
	urlTemplate string
	parser      *gofeed.Parser
}

func NewRSSSource(client *Client, name, urlTemplate string) *RSSSource {
	return &RSSSource{
		client:      client,
		name:        name,
		urlTemplate: urlTemplate,
		parser:      gofeed.NewParser(),
	}
}

func (s *RSSSource) Name() string { return s.name }

func (s *RSSSource) Search(ctx context.Context, keyword, _ string) ([]listing.Listing, error) {
	feedURL := fmt.Sprintf(s.urlTemplate, url.QueryEscape(keyword))

	resp, err := s.client.Get(ctx, feedURL, nil)
	if err != nil {
		return nil, &SourceError{Platform: s.name, Keyword: keyword, Err: err}
	}
	defer resp.Body.Close()

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, &SourceError{Platform: s.name, Keyword: keyword, Err: fmt.Errorf("parse feed: %w", err)}
	}

	var listings []listing.Listing
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if !validTitle(title) {
			continue
		}

		link := item.Link
		articleID := cmp.Or(item.GUID, link)
		if articleID == "" {
			continue
		}
		// Feed GUIDs can be arbitrarily long URLs; a digest keeps the
		// identity key compact and stable.
		digest := sha256.Sum256([]byte(articleID))
		articleID = hex.EncodeToString(digest[:8])

		l := listing.Listing{
			Platform:    s.name,
			ArticleID:   articleID,
			Keyword:     keyword,
			Title:       title,
			Price:       "가격문의",
			URL:         link,
			SaleStatus:  listing.DetectSaleStatus(title),
			Description: item.Description,
		}
		if item.Image != nil {
			l.Thumbnail = item.Image.URL
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			l.Seller = item.Authors[0].Name
		}
		listings = append(listings, l)
	}
	return listings, nil
}
