package sources

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

const naverSearchURL = "https://search.naver.com/search.naver"

// JoonggonaraSource searches the Joonggonara cafe through Naver article
// search. Direct cafe access requires login, the search tab does not.
type JoonggonaraSource struct {
	client  *Client
	baseURL string
}

func NewJoonggonaraSource(client *Client) *JoonggonaraSource {
	return &JoonggonaraSource{client: client, baseURL: naverSearchURL}
}

func (s *JoonggonaraSource) Name() string { return "joonggonara" }

var articleIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)articleid=(\d+)`),
	regexp.MustCompile(`/(\d+)\?`),
	regexp.MustCompile(`/(\d+)$`),
}

var titleSelectors = []string{
	"a.title_link",
	"a.api_txt_lines.total_tit",
	"ul.lst_total > li a.link_tit",
	"div.total_area a.api_txt_lines",
}

func (s *JoonggonaraSource) Search(ctx context.Context, keyword, _ string) ([]listing.Listing, error) {
	query := url.Values{}
	query.Set("where", "article")
	query.Set("query", keyword+" site:cafe.naver.com/joonggonara")

	resp, err := s.client.Get(ctx, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Platform: s.Name(), Keyword: keyword, Err: err}
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &SourceError{Platform: s.Name(), Keyword: keyword, Err: fmt.Errorf("parse html: %w", err)}
	}

	links := s.findArticleLinks(doc)

	var listings []listing.Listing
	seen := make(map[string]bool)
	for _, sel := range links {
		href, ok := sel.Attr("href")
		if !ok {
			continue
		}
		if !strings.Contains(href, "cafe.naver.com") {
			continue
		}

		title := strings.TrimSpace(sel.Text())
		if idx := strings.IndexByte(title, '\n'); idx >= 0 {
			title = strings.TrimSpace(title[:idx])
		}
		title = strings.Join(strings.Fields(title), " ")
		if !validTitle(title) {
			continue
		}

		articleID := cafeArticleID(href)
		if seen[articleID] {
			continue
		}
		seen[articleID] = true

		// Naver search results carry no price, the detail page does.
		listings = append(listings, listing.Listing{
			Platform:   s.Name(),
			ArticleID:  articleID,
			Keyword:    keyword,
			Title:      title,
			Price:      "가격문의",
			URL:        href,
			SaleStatus: listing.DetectSaleStatus(title),
		})
	}
	return listings, nil
}

func (s *JoonggonaraSource) findArticleLinks(doc *goquery.Document) []*goquery.Selection {
	var links []*goquery.Selection
	for _, selector := range titleSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			links = append(links, sel)
		})
		if len(links) > 0 {
			return links
		}
	}
	// Last resort: any cafe link with visible text.
	doc.Find(`a[href*="cafe.naver.com/joonggonara"]`).Each(func(_ int, sel *goquery.Selection) {
		if strings.TrimSpace(sel.Text()) != "" {
			links = append(links, sel)
		}
	})
	return links
}

// cafeArticleID extracts the article number from a cafe URL, falling back
// to a stable hash so reposts of the same URL dedupe.
func cafeArticleID(link string) string {
	for _, pattern := range articleIDPatterns {
		if m := pattern.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	h := fnv.New32a()
	h.Write([]byte(link))
	return fmt.Sprintf("h%d", h.Sum32())
}
