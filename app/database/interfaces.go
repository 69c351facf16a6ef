package database

import (
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

// ListingRepository is the authoritative record of all listings. It is the
// sole decision-maker for "is this new" and "did the price change".
type ListingRepository interface {
	// UpsertListing inserts a listing or refreshes the existing record for
	// its (platform, article id) key. The returned change is non-nil only
	// when both old and new numeric prices are known and differ, in which
	// case exactly one price-history row was appended.
	UpsertListing(l *listing.Listing) (isNew bool, change *listing.PriceChange, id int64, err error)

	// IsFuzzyDuplicate reports whether a recent listing on the same
	// platform has a near-identical title. Advisory: callers suppress
	// new-item notifications but still persist the listing.
	IsFuzzyDuplicate(l listing.Listing) (bool, error)

	GetListingByID(id int64) (*listing.Listing, error)
	GetListingsPaginated(q ListingQuery) ([]listing.Listing, int, error)
	GetPriceHistory(listingID int64) ([]listing.PriceHistoryEntry, error)

	SetAutoTags(listingID int64, tags []string) error
	SetDescription(listingID int64, description string) error
	UpdateSaleStatus(listingID int64, status listing.SaleStatus) error

	AddFavorite(listingID int64, notes string, targetPrice int64) error
	RemoveFavorite(listingID int64) error
	GetFavorite(listingID int64) (*Favorite, error)

	// CleanupOlderThan purges listings last seen more than maxAge ago,
	// cascading to price history and notification log. Favorited listings
	// survive when keepFavorites is set.
	CleanupOlderThan(maxAge time.Duration, keepFavorites bool) (int64, error)
}

// NotificationRepository enforces at-most-one successful notification per
// (listing, channel, event type) and tracks lifetime attempt counts.
type NotificationRepository interface {
	HasNotified(listingID int64, channel, eventType string) (bool, error)
	RecordNotification(listingID int64, channel, eventType string, success bool, preview string) error
	AttemptCount(listingID int64, channel, eventType string) (int, error)
	GetRecentLogs(limit, offset int) ([]NotificationLogEntry, error)
}

// StatsRepository records per-search statistics and serves aggregates for
// the presentation layer.
type StatsRepository interface {
	RecordSearch(keyword, platform string, itemsFound, newItems int) error
	GetLastSearchTime(keyword string) (*time.Time, error)
	GetDailyStats(days int) ([]DailyStat, error)
	GetKeywordPriceStats() ([]KeywordPriceStat, error)
	GetTotalListings() (int, error)
	GetListingsByPlatform() (map[string]int, error)
}
