package database

import (
	"testing"
)

func TestRecordSearchAndLastSearchTime(t *testing.T) {
	repo := NewStatsRepository(newTestDB(t))

	got, err := repo.GetLastSearchTime("맥북 프로")
	if err != nil {
		t.Fatalf("GetLastSearchTime() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetLastSearchTime() = %v before any search, want nil", got)
	}

	if err := repo.RecordSearch("맥북 프로", "danggeun", 10, 2); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}

	got, err = repo.GetLastSearchTime("맥북 프로")
	if err != nil {
		t.Fatalf("GetLastSearchTime() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetLastSearchTime() = nil after search")
	}

	other, err := repo.GetLastSearchTime("아이폰")
	if err != nil {
		t.Fatalf("GetLastSearchTime() error = %v", err)
	}
	if other != nil {
		t.Errorf("GetLastSearchTime() for unsearched keyword = %v, want nil", other)
	}
}

func TestDailyStatsAggregation(t *testing.T) {
	repo := NewStatsRepository(newTestDB(t))

	if err := repo.RecordSearch("맥북 프로", "danggeun", 10, 2); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}
	if err := repo.RecordSearch("맥북 프로", "bunjang", 5, 1); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}

	stats, err := repo.GetDailyStats(7)
	if err != nil {
		t.Fatalf("GetDailyStats() error = %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("len(stats) = %d, want 1", len(stats))
	}
	if stats[0].ItemsFound != 15 || stats[0].NewItems != 3 {
		t.Errorf("stats[0] = %+v, want 15 found and 3 new", stats[0])
	}
}

func TestKeywordPriceStats(t *testing.T) {
	db := newTestDB(t)
	listings := NewListingRepository(db, nil)
	repo := NewStatsRepository(db)

	prices := []string{"1,000,000원", "2,000,000원", "가격협의"}
	for i, price := range prices {
		l := sampleListing()
		l.ArticleID = string(rune('a' + i))
		l.Price = price
		if _, _, _, err := listings.UpsertListing(l); err != nil {
			t.Fatalf("UpsertListing() error = %v", err)
		}
	}

	stats, err := repo.GetKeywordPriceStats()
	if err != nil {
		t.Fatalf("GetKeywordPriceStats() error = %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("len(stats) = %d, want 1", len(stats))
	}
	s := stats[0]
	if s.Keyword != "맥북 프로" {
		t.Errorf("Keyword = %q", s.Keyword)
	}
	// The unparseable price is excluded from aggregates.
	if s.Count != 2 || s.MinPrice != 1000000 || s.MaxPrice != 2000000 || s.AvgPrice != 1500000 {
		t.Errorf("stats = %+v", s)
	}

	total, err := repo.GetTotalListings()
	if err != nil {
		t.Fatalf("GetTotalListings() error = %v", err)
	}
	if total != 3 {
		t.Errorf("GetTotalListings() = %d, want 3", total)
	}

	byPlatform, err := repo.GetListingsByPlatform()
	if err != nil {
		t.Fatalf("GetListingsByPlatform() error = %v", err)
	}
	if byPlatform["danggeun"] != 3 {
		t.Errorf("GetListingsByPlatform() = %v", byPlatform)
	}
}
