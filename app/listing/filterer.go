package listing

import (
	"fmt"
	"strings"
)

// Filters holds the per-keyword constraints applied to source results before
// classification. Zero values disable the corresponding check.
type Filters struct {
	MinPrice        int64
	MaxPrice        int64
	Location        string
	ExcludeKeywords []string
	BlockedSellers  map[string]bool // key: "seller|platform"
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run returns the candidates that pass all filters. Rejected candidates are
// dropped, not persisted; sale-status handling happens later so sold items
// still reach the store.
func (f *Filterer) Run(items []Listing, filters Filters) []Listing {
	kept := make([]Listing, 0, len(items))
	for _, item := range items {
		if ok, _ := f.Match(item, filters); ok {
			kept = append(kept, item)
		}
	}
	return kept
}

// Match reports whether a single candidate passes, with a human-readable
// reason when it does not.
func (f *Filterer) Match(item Listing, filters Filters) (bool, string) {
	price := item.ParsePrice()
	// Unknown prices pass the bounds check so "가격문의" listings are kept.
	if price > 0 {
		if filters.MinPrice > 0 && price < filters.MinPrice {
			return false, fmt.Sprintf("price %d below minimum %d", price, filters.MinPrice)
		}
		if filters.MaxPrice > 0 && price > filters.MaxPrice {
			return false, fmt.Sprintf("price %d above maximum %d", price, filters.MaxPrice)
		}
	}

	titleLower := strings.ToLower(item.Title)
	for _, ex := range filters.ExcludeKeywords {
		if ex == "" {
			continue
		}
		if strings.Contains(titleLower, strings.ToLower(ex)) {
			return false, fmt.Sprintf("title contains excluded keyword '%s'", ex)
		}
	}

	if filters.Location != "" && item.Location != "" {
		if !strings.Contains(strings.ToLower(item.Location), strings.ToLower(filters.Location)) {
			return false, fmt.Sprintf("location '%s' does not match '%s'", item.Location, filters.Location)
		}
	}

	if len(filters.BlockedSellers) > 0 && item.Seller != "" {
		if filters.BlockedSellers[BlockedSellerKey(item.Seller, item.Platform)] {
			return false, fmt.Sprintf("seller '%s' is blocked", item.Seller)
		}
	}

	return true, ""
}

// BlockedSellerKey builds the lookup key for Filters.BlockedSellers.
func BlockedSellerKey(seller, platform string) string {
	return seller + "|" + platform
}
