package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

const danggeunSearchURL = "https://www.daangn.com/kr/buy-sell/"

// DanggeunSource scrapes Danggeun Market search results. The result page
// embeds a JSON-LD ItemList which is far more stable than the markup, so
// that is parsed first with an HTML fallback.
type DanggeunSource struct {
	client  *Client
	baseURL string
}

func NewDanggeunSource(client *Client) *DanggeunSource {
	return &DanggeunSource{client: client, baseURL: danggeunSearchURL}
}

func (s *DanggeunSource) Name() string { return "danggeun" }

type jsonLDOffer struct {
	Price         json.Number `json:"price"`
	PriceCurrency string      `json:"priceCurrency"`
}

type jsonLDProduct struct {
	Type        string       `json:"@type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Image       string       `json:"image"`
	Offers      *jsonLDOffer `json:"offers"`
}

type jsonLDListItem struct {
	Item jsonLDProduct `json:"item"`
}

type jsonLDItemList struct {
	Type            string           `json:"@type"`
	ItemListElement []jsonLDListItem `json:"itemListElement"`
}

func (s *DanggeunSource) Search(ctx context.Context, keyword, location string) ([]listing.Listing, error) {
	query := url.Values{}
	query.Set("search", keyword)
	query.Set("sort", "recent")

	resp, err := s.client.Get(ctx, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Platform: s.Name(), Keyword: keyword, Err: err}
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &SourceError{Platform: s.Name(), Keyword: keyword, Err: fmt.Errorf("parse html: %w", err)}
	}

	listings := s.parseJSONLD(doc, keyword, location)
	if len(listings) == 0 {
		listings = s.parseHTML(doc, keyword, location)
	}
	return listings, nil
}

func (s *DanggeunSource) parseJSONLD(doc *goquery.Document, keyword, location string) []listing.Listing {
	var listings []listing.Listing

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var itemList jsonLDItemList
		if err := json.Unmarshal([]byte(sel.Text()), &itemList); err != nil {
			return
		}
		if itemList.Type != "ItemList" {
			return
		}

		for _, element := range itemList.ItemListElement {
			product := element.Item
			articleID := articleIDFromURL(product.URL)
			if articleID == "" || !validTitle(product.Name) {
				continue
			}

			price := "가격문의"
			if product.Offers != nil && product.Offers.Price != "" {
				if n := listing.ParsePriceKR(string(product.Offers.Price) + "원"); n > 0 {
					price = listing.FormatPriceKR(n)
				}
			}

			loc := location
			if loc == "" {
				loc = "지역정보없음"
			}

			listings = append(listings, listing.Listing{
				Platform:    s.Name(),
				ArticleID:   articleID,
				Keyword:     keyword,
				Title:       strings.TrimSpace(product.Name),
				Price:       price,
				URL:         product.URL,
				Thumbnail:   product.Image,
				Location:    loc,
				SaleStatus:  listing.DetectSaleStatus(product.Name),
				Description: product.Description,
			})
		}
	})
	return listings
}

func (s *DanggeunSource) parseHTML(doc *goquery.Document, keyword, location string) []listing.Listing {
	var listings []listing.Listing
	seen := make(map[string]bool)

	doc.Find(`a[href*="/kr/buy-sell/"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.Contains(href, "search=") {
			return
		}

		articleID := articleIDFromURL(href)
		if articleID == "" || seen[articleID] {
			return
		}

		lines := nonEmptyLines(sel.Text())
		if len(lines) == 0 {
			return
		}
		title := lines[0]
		if !validTitle(title) {
			return
		}

		price := "가격문의"
		for _, line := range lines[1:] {
			if strings.Contains(line, "원") {
				price = line
				break
			}
		}

		thumbnail, _ := sel.Find("img").First().Attr("src")

		if strings.HasPrefix(href, "/") {
			href = "https://www.daangn.com" + href
		}

		loc := location
		if loc == "" {
			loc = "지역정보없음"
		}

		seen[articleID] = true
		listings = append(listings, listing.Listing{
			Platform:   s.Name(),
			ArticleID:  articleID,
			Keyword:    keyword,
			Title:      title,
			Price:      price,
			URL:        href,
			Thumbnail:  thumbnail,
			Location:   loc,
			SaleStatus: listing.DetectSaleStatus(title),
		})
	})
	return listings
}

// articleIDFromURL pulls the trailing numeric-ish segment out of a listing
// URL like /kr/buy-sell/맥북-프로-m3-1234567/.
func articleIDFromURL(raw string) string {
	trimmed := strings.TrimRight(raw, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndex(trimmed, "-"); idx >= 0 && idx < len(trimmed)-1 {
		return trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx < len(trimmed)-1 {
		return trimmed[idx+1:]
	}
	return ""
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
