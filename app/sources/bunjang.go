package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

const bunjangAPIURL = "https://api.bunjang.co.kr/api/1/find_v2.json"

// Title fragments that mark ads and placeholder cards rather than real
// postings.
var invalidTitleMarkers = []string{
	"배송비포함", "검수가능", "제목 없음", "no title", "광고",
}

func validTitle(title string) bool {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < 2 {
		return false
	}
	lower := strings.ToLower(title)
	for _, marker := range invalidTitleMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// BunjangSource queries the Bunjang search API. Bunjang is nationwide, so
// the location argument is ignored.
type BunjangSource struct {
	client  *Client
	baseURL string
}

func NewBunjangSource(client *Client) *BunjangSource {
	return &BunjangSource{client: client, baseURL: bunjangAPIURL}
}

func (s *BunjangSource) Name() string { return "bunjang" }

type bunjangProduct struct {
	PID          string `json:"pid"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	ProductImage string `json:"product_image"`
	Location     string `json:"location"`
	Status       string `json:"status"`
	Ad           bool   `json:"ad"`
	UID          int64  `json:"uid"`
}

type bunjangResponse struct {
	List []bunjangProduct `json:"list"`
}

func (s *BunjangSource) Search(ctx context.Context, keyword, _ string) ([]listing.Listing, error) {
	query := url.Values{}
	query.Set("q", keyword)
	query.Set("order", "date")
	query.Set("page", "0")
	query.Set("n", "50")

	resp, err := s.client.Get(ctx, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Platform: s.Name(), Keyword: keyword, Err: err}
	}
	defer resp.Body.Close()

	var payload bunjangResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &SourceError{Platform: s.Name(), Keyword: keyword, Err: fmt.Errorf("decode response: %w", err)}
	}

	var listings []listing.Listing
	for _, p := range payload.List {
		if p.PID == "" || p.Ad || !validTitle(p.Name) {
			continue
		}

		price := "가격문의"
		if p.Price != "" && p.Price != "0" {
			if n := listing.ParsePriceKR(p.Price + "원"); n > 0 {
				price = listing.FormatPriceKR(n)
			}
		}

		status := listing.StatusForSale
		if p.Status == "1" {
			status = listing.StatusSold
		}

		listings = append(listings, listing.Listing{
			Platform:   s.Name(),
			ArticleID:  p.PID,
			Keyword:    keyword,
			Title:      strings.TrimSpace(p.Name),
			Price:      price,
			URL:        "https://m.bunjang.co.kr/products/" + p.PID,
			Thumbnail:  p.ProductImage,
			Location:   p.Location,
			SaleStatus: status,
		})
	}
	return listings, nil
}
