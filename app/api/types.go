package api

import (
	"context"

	"github.com/danbi-labs/joonggo-radar/app/config"
	"github.com/danbi-labs/joonggo-radar/app/database"
	"github.com/danbi-labs/joonggo-radar/app/engine"
)

type EngineInterface interface {
	RunOnce(ctx context.Context) error
	RunContext() context.Context
	State() engine.State
	Busy() bool
}

var _ EngineInterface = (*engine.Engine)(nil)

type Handler struct {
	listings      database.ListingRepository
	notifications database.NotificationRepository
	stats         database.StatsRepository
	configCache   *config.Cache
	engine        EngineInterface
}

type listingsResponse struct {
	Listings []listingJSON `json:"listings"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type listingJSON struct {
	ID           int64    `json:"id"`
	Platform     string   `json:"platform"`
	ArticleID    string   `json:"article_id"`
	Keyword      string   `json:"keyword"`
	Title        string   `json:"title"`
	Price        string   `json:"price"`
	PriceNumeric int64    `json:"price_numeric"`
	URL          string   `json:"url"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	Seller       string   `json:"seller,omitempty"`
	Location     string   `json:"location,omitempty"`
	SaleStatus   string   `json:"sale_status"`
	AutoTags     []string `json:"auto_tags,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type priceHistoryJSON struct {
	OldPrice   string `json:"old_price"`
	NewPrice   string `json:"new_price"`
	OldNumeric int64  `json:"old_price_numeric"`
	NewNumeric int64  `json:"new_price_numeric"`
	ChangedAt  string `json:"changed_at"`
}
