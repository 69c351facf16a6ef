package listing

import (
	"strings"
	"time"
)

// SaleStatus tracks the lifecycle of a marketplace posting.
type SaleStatus string

const (
	StatusForSale  SaleStatus = "for_sale"
	StatusReserved SaleStatus = "reserved"
	StatusSold     SaleStatus = "sold"
	StatusUnknown  SaleStatus = "unknown"
)

// Listing is a single marketplace posting observed at a point in time.
// (Platform, ArticleID) is the identity key; everything else may change
// between observations.
type Listing struct {
	ID           int64
	Platform     string
	ArticleID    string
	Keyword      string
	Title        string
	Price        string // raw display string, e.g. "1,500,000원"
	PriceNumeric int64  // parsed amount in won, 0 = unknown
	URL          string
	Thumbnail    string
	Seller       string
	Location     string
	SaleStatus   SaleStatus
	Description  string
	AutoTags     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParsePrice fills PriceNumeric from the raw price string if not already set.
func (l *Listing) ParsePrice() int64 {
	if l.PriceNumeric != 0 {
		return l.PriceNumeric
	}
	l.PriceNumeric = ParsePriceKR(l.Price)
	return l.PriceNumeric
}

// PriceChange describes a detected price transition for an existing listing.
// TargetPrice is set when the new price reached a favorite's target, 0
// otherwise.
type PriceChange struct {
	OldPrice    string
	NewPrice    string
	OldNumeric  int64
	NewNumeric  int64
	TargetPrice int64
}

// Dropped reports whether the price went down.
func (pc PriceChange) Dropped() bool {
	return pc.OldNumeric > 0 && pc.NewNumeric > 0 && pc.NewNumeric < pc.OldNumeric
}

// PriceHistoryEntry is an append-only record of one price change.
type PriceHistoryEntry struct {
	ID         int64
	ListingID  int64
	OldPrice   string
	OldNumeric int64
	NewPrice   string
	NewNumeric int64
	ChangedAt  time.Time
}

var statusMarkers = []struct {
	marker string
	status SaleStatus
}{
	{"판매완료", StatusSold},
	{"거래완료", StatusSold},
	{"팔렸", StatusSold},
	{"예약중", StatusReserved},
	{"예약완료", StatusReserved},
}

// DetectSaleStatus infers a sale status from title text. Marketplace pages
// often encode status only as a title prefix.
func DetectSaleStatus(title string) SaleStatus {
	for _, m := range statusMarkers {
		if strings.Contains(title, m.marker) {
			return m.status
		}
	}
	return StatusForSale
}
