package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient() *Client {
	return NewClient(5*time.Second, "test-agent", 100)
}

func TestRegistry(t *testing.T) {
	client := testClient()
	registry := NewRegistry()
	registry.Register(NewBunjangSource(client))
	registry.Register(NewDanggeunSource(client))

	if _, ok := registry.Get("bunjang"); !ok {
		t.Error("Get(bunjang) not found")
	}
	if _, ok := registry.Get("nope"); ok {
		t.Error("Get(nope) found unexpected source")
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "bunjang" || names[1] != "danggeun" {
		t.Errorf("Names() = %v, want [bunjang danggeun]", names)
	}
}

func TestClientRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testClient().Get(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Get() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestClientSetsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	resp, err := testClient().Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotAgent != "test-agent" {
		t.Errorf("User-Agent = %q, want test-agent", gotAgent)
	}
}

func TestBunjangSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "맥북 프로" {
			t.Errorf("q = %q, want 맥북 프로", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"list": [
			{"pid": "111", "name": "맥북 프로 M3 팝니다", "price": "1500000", "product_image": "https://img/1.jpg", "location": "서울", "status": "0"},
			{"pid": "222", "name": "맥북 광고 특가", "price": "1000", "status": "0"},
			{"pid": "333", "name": "무료나눔 키보드", "price": "0", "status": "0"},
			{"pid": "444", "name": "맥북 에어 급처", "price": "800000", "status": "0", "ad": true}
		]}`))
	}))
	defer server.Close()

	source := NewBunjangSource(testClient())
	source.baseURL = server.URL

	listings, err := source.Search(context.Background(), "맥북 프로", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// The ad-marked and 광고-titled cards are dropped.
	if len(listings) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(listings))
	}

	first := listings[0]
	if first.ArticleID != "111" || first.Platform != "bunjang" {
		t.Errorf("first = %+v", first)
	}
	if first.Price != "1,500,000원" {
		t.Errorf("Price = %q, want 1,500,000원", first.Price)
	}
	if first.URL != "https://m.bunjang.co.kr/products/111" {
		t.Errorf("URL = %q", first.URL)
	}

	free := listings[1]
	if free.ArticleID != "333" || free.Price != "가격문의" {
		t.Errorf("free item = %+v", free)
	}
}

func TestBunjangSearchServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := NewBunjangSource(testClient())
	source.baseURL = server.URL

	_, err := source.Search(context.Background(), "맥북", "")
	if err == nil {
		t.Fatal("Search() error = nil, want failure")
	}
	var sourceErr *SourceError
	if !errors.As(err, &sourceErr) {
		t.Fatalf("Search() error = %T, want *SourceError", err)
	}
	if sourceErr.Platform != "bunjang" || sourceErr.Keyword != "맥북" {
		t.Errorf("SourceError = %+v", sourceErr)
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Error("error does not wrap ErrSourceUnavailable")
	}
}

func TestDanggeunSearchJSONLD(t *testing.T) {
	page := `<html><head>
	<script type="application/ld+json">
	{"@type": "ItemList", "itemListElement": [
		{"item": {"@type": "Product", "name": "맥북 프로 14인치 M3", "url": "https://www.daangn.com/kr/buy-sell/맥북-프로-14인치-9876543/", "image": "https://img/a.jpg", "offers": {"price": "1800000", "priceCurrency": "KRW"}}},
		{"item": {"@type": "Product", "name": "판매완료 맥북", "url": "https://www.daangn.com/kr/buy-sell/맥북-111/"}}
	]}
	</script>
	</head><body></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	source := NewDanggeunSource(testClient())
	source.baseURL = server.URL

	listings, err := source.Search(context.Background(), "맥북 프로", "강남구")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(listings))
	}

	first := listings[0]
	if first.ArticleID != "9876543" {
		t.Errorf("ArticleID = %q, want 9876543", first.ArticleID)
	}
	if first.Price != "1,800,000원" {
		t.Errorf("Price = %q", first.Price)
	}
	if first.Location != "강남구" {
		t.Errorf("Location = %q, want 강남구", first.Location)
	}

	if listings[1].SaleStatus != "sold" {
		t.Errorf("SaleStatus = %q, want sold", listings[1].SaleStatus)
	}
}

func TestDanggeunSearchHTMLFallback(t *testing.T) {
	page := `<html><body>
	<a href="/kr/buy-sell/아이패드-프로-555555/"><img src="https://img/b.jpg">
아이패드 프로 11인치
850,000원
서초동</a>
	<a href="/kr/buy-sell/?search=skip">navigation</a>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	source := NewDanggeunSource(testClient())
	source.baseURL = server.URL

	listings, err := source.Search(context.Background(), "아이패드", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("len(listings) = %d, want 1", len(listings))
	}
	got := listings[0]
	if got.ArticleID != "555555" || got.Title != "아이패드 프로 11인치" {
		t.Errorf("listing = %+v", got)
	}
	if got.Price != "850,000원" {
		t.Errorf("Price = %q", got.Price)
	}
	if got.Thumbnail != "https://img/b.jpg" {
		t.Errorf("Thumbnail = %q", got.Thumbnail)
	}
}

func TestJoonggonaraSearch(t *testing.T) {
	page := `<html><body>
	<a class="title_link" href="https://cafe.naver.com/joonggonara?articleid=123456">맥북 프로 16인치 팝니다</a>
	<a class="title_link" href="https://cafe.naver.com/joonggonara?articleid=123456">맥북 프로 16인치 팝니다 (중복)</a>
	<a class="title_link" href="https://cafe.naver.com/joonggonara?articleid=777">판매완료 맥북 에어</a>
	<a class="title_link" href="https://other-site.example.com/x">맥북 외부 링크</a>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	source := NewJoonggonaraSource(testClient())
	source.baseURL = server.URL

	listings, err := source.Search(context.Background(), "맥북 프로", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// The duplicate article id collapses and the off-site link is skipped.
	if len(listings) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(listings))
	}
	got := listings[0]
	if got.ArticleID != "123456" {
		t.Errorf("ArticleID = %q, want 123456", got.ArticleID)
	}
	if got.Price != "가격문의" {
		t.Errorf("Price = %q", got.Price)
	}
	if listings[1].SaleStatus != "sold" {
		t.Errorf("SaleStatus = %q, want sold", listings[1].SaleStatus)
	}
}

func TestCafeArticleID(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://cafe.naver.com/joonggonara?articleid=99887", "99887"},
		{"https://cafe.naver.com/joonggonara/12345?ref=search", "12345"},
		{"https://cafe.naver.com/joonggonara/54321", "54321"},
	}
	for _, tt := range tests {
		if got := cafeArticleID(tt.link); got != tt.want {
			t.Errorf("cafeArticleID(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}

	// Unextractable IDs still get a stable value.
	a := cafeArticleID("https://cafe.naver.com/joonggonara/ArticleRead.nhn")
	b := cafeArticleID("https://cafe.naver.com/joonggonara/ArticleRead.nhn")
	if a == "" || a != b {
		t.Errorf("hash fallback unstable: %q vs %q", a, b)
	}
}

func TestRSSSearch(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>search feed</title>
<item><title>맥북 프로 M2 13인치</title><link>https://market.example.com/items/1</link><guid>item-1</guid><description>급처분합니다</description></item>
<item><title>광고 맥북 최저가</title><link>https://market.example.com/items/2</link><guid>item-2</guid></item>
</channel></rss>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer server.Close()

	source := NewRSSSource(testClient(), "rssmarket", server.URL+"?q=%s")
	listings, err := source.Search(context.Background(), "맥북 프로", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("len(listings) = %d, want 1", len(listings))
	}
	got := listings[0]
	if got.Platform != "rssmarket" || got.Title != "맥북 프로 M2 13인치" {
		t.Errorf("listing = %+v", got)
	}
	if got.ArticleID == "" {
		t.Error("ArticleID is empty")
	}
	if got.Description != "급처분합니다" {
		t.Errorf("Description = %q", got.Description)
	}
}

func TestValidTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"맥북 프로 M3", true},
		{"광고 맥북", false},
		{"제목 없음", false},
		{"No Title here", false},
		{"a", false},
		{"  ", false},
	}
	for _, tt := range tests {
		if got := validTitle(tt.title); got != tt.want {
			t.Errorf("validTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
