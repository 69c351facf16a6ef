package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func sampleListing() *listing.Listing {
	return &listing.Listing{
		Platform:  "danggeun",
		ArticleID: "12345",
		Keyword:   "맥북 프로",
		Title:     "맥북 프로 M3 팝니다",
		Price:     "1,500,000원",
		URL:       "https://example.com/12345",
		Seller:    "tester",
		Location:  "강남구",
	}
}

func TestUpsertListingInsertThenRefresh(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	l := sampleListing()
	isNew, change, id, err := repo.UpsertListing(l)
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}
	if !isNew {
		t.Error("first upsert: isNew = false, want true")
	}
	if change != nil {
		t.Errorf("first upsert: change = %+v, want nil", change)
	}
	if id == 0 {
		t.Error("first upsert: id = 0")
	}

	isNew, change, id2, err := repo.UpsertListing(sampleListing())
	if err != nil {
		t.Fatalf("second UpsertListing() error = %v", err)
	}
	if isNew {
		t.Error("second upsert: isNew = true, want false")
	}
	if change != nil {
		t.Errorf("second upsert with same price: change = %+v, want nil", change)
	}
	if id2 != id {
		t.Errorf("second upsert: id = %d, want %d", id2, id)
	}
}

func TestUpsertListingPriceChange(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	_, _, id, err := repo.UpsertListing(sampleListing())
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}

	dropped := sampleListing()
	dropped.Price = "1,350,000원"
	_, change, _, err := repo.UpsertListing(dropped)
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}
	if change == nil {
		t.Fatal("change = nil, want price drop")
	}
	if change.OldNumeric != 1500000 || change.NewNumeric != 1350000 {
		t.Errorf("change = %d -> %d, want 1500000 -> 1350000", change.OldNumeric, change.NewNumeric)
	}
	if !change.Dropped() {
		t.Error("Dropped() = false, want true")
	}

	history, err := repo.GetPriceHistory(id)
	if err != nil {
		t.Fatalf("GetPriceHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if history[0].OldPrice != "1,500,000원" || history[0].NewPrice != "1,350,000원" {
		t.Errorf("history[0] = %q -> %q", history[0].OldPrice, history[0].NewPrice)
	}
}

func TestUpsertListingNoHistoryWhenPriceUnknown(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	first := sampleListing()
	first.Price = "가격협의"
	_, _, id, err := repo.UpsertListing(first)
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}

	second := sampleListing()
	second.Price = "1,500,000원"
	_, change, _, err := repo.UpsertListing(second)
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}
	if change != nil {
		t.Errorf("change = %+v, want nil when old price was unparseable", change)
	}

	history, err := repo.GetPriceHistory(id)
	if err != nil {
		t.Fatalf("GetPriceHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("len(history) = %d, want 0", len(history))
	}
}

func TestUpsertListingRequiresKey(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	l := sampleListing()
	l.ArticleID = ""
	if _, _, _, err := repo.UpsertListing(l); err == nil {
		t.Error("UpsertListing() with empty article id: err = nil, want error")
	}
}

func TestIsFuzzyDuplicate(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	original := sampleListing()
	original.Title = "아이폰 15 프로 팝니다"
	if _, _, _, err := repo.UpsertListing(original); err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}

	repost := sampleListing()
	repost.ArticleID = "67890"
	repost.Title = "아이폰 15 프로 팝니다!!"
	dup, err := repo.IsFuzzyDuplicate(*repost)
	if err != nil {
		t.Fatalf("IsFuzzyDuplicate() error = %v", err)
	}
	if !dup {
		t.Error("IsFuzzyDuplicate() = false for near-identical title, want true")
	}

	other := sampleListing()
	other.ArticleID = "99999"
	other.Title = "갤럭시 S24 울트라 새상품"
	dup, err = repo.IsFuzzyDuplicate(*other)
	if err != nil {
		t.Fatalf("IsFuzzyDuplicate() error = %v", err)
	}
	if dup {
		t.Error("IsFuzzyDuplicate() = true for unrelated title, want false")
	}

	crossPlatform := sampleListing()
	crossPlatform.Platform = "bunjang"
	crossPlatform.ArticleID = "67890"
	crossPlatform.Title = "아이폰 15 프로 팝니다!!"
	dup, err = repo.IsFuzzyDuplicate(*crossPlatform)
	if err != nil {
		t.Fatalf("IsFuzzyDuplicate() error = %v", err)
	}
	if dup {
		t.Error("IsFuzzyDuplicate() = true across platforms, want false")
	}
}

func TestGetListingsPaginated(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	for i := 0; i < 5; i++ {
		l := sampleListing()
		l.ArticleID = string(rune('a' + i))
		if i%2 == 0 {
			l.Platform = "bunjang"
		}
		if _, _, _, err := repo.UpsertListing(l); err != nil {
			t.Fatalf("UpsertListing() error = %v", err)
		}
	}

	listings, total, err := repo.GetListingsPaginated(ListingQuery{Page: 1, PageSize: 3})
	if err != nil {
		t.Fatalf("GetListingsPaginated() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(listings) != 3 {
		t.Errorf("len(listings) = %d, want 3", len(listings))
	}

	listings, total, err = repo.GetListingsPaginated(ListingQuery{Platform: "bunjang", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("GetListingsPaginated() error = %v", err)
	}
	if total != 3 || len(listings) != 3 {
		t.Errorf("bunjang filter: total = %d, len = %d, want 3 and 3", total, len(listings))
	}
	for _, l := range listings {
		if l.Platform != "bunjang" {
			t.Errorf("platform = %q, want bunjang", l.Platform)
		}
	}
}

func TestSetAutoTagsRoundTrip(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	_, _, id, err := repo.UpsertListing(sampleListing())
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}

	if err := repo.SetAutoTags(id, []string{"미개봉", "애플케어"}); err != nil {
		t.Fatalf("SetAutoTags() error = %v", err)
	}

	got, err := repo.GetListingByID(id)
	if err != nil {
		t.Fatalf("GetListingByID() error = %v", err)
	}
	if len(got.AutoTags) != 2 || got.AutoTags[0] != "미개봉" {
		t.Errorf("AutoTags = %v, want [미개봉 애플케어]", got.AutoTags)
	}
}

func TestCleanupOlderThanKeepsFavorites(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db, nil)

	_, _, oldID, err := repo.UpsertListing(sampleListing())
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}
	fav := sampleListing()
	fav.ArticleID = "fav-1"
	_, _, favID, err := repo.UpsertListing(fav)
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}
	if err := repo.AddFavorite(favID, "keep this", 1200000); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}

	// Age both rows past the cutoff.
	stale := time.Now().UTC().Add(-48 * time.Hour).Unix()
	if _, err := db.Exec(`UPDATE listings SET updated_at = ?`, stale); err != nil {
		t.Fatalf("aging rows: %v", err)
	}

	deleted, err := repo.CleanupOlderThan(24*time.Hour, true)
	if err != nil {
		t.Fatalf("CleanupOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if got, err := repo.GetListingByID(oldID); err != nil || got != nil {
		t.Errorf("stale listing still present: %+v, err = %v", got, err)
	}
	if got, err := repo.GetListingByID(favID); err != nil || got == nil {
		t.Errorf("favorited listing deleted, err = %v", err)
	}
}

func TestFavoriteLifecycle(t *testing.T) {
	repo := NewListingRepository(newTestDB(t), nil)

	_, _, id, err := repo.UpsertListing(sampleListing())
	if err != nil {
		t.Fatalf("UpsertListing() error = %v", err)
	}

	if err := repo.AddFavorite(id, "note", 1000000); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	fav, err := repo.GetFavorite(id)
	if err != nil {
		t.Fatalf("GetFavorite() error = %v", err)
	}
	if fav == nil || fav.TargetPrice != 1000000 {
		t.Fatalf("GetFavorite() = %+v, want target price 1000000", fav)
	}

	// Re-adding updates in place.
	if err := repo.AddFavorite(id, "updated", 900000); err != nil {
		t.Fatalf("AddFavorite() update error = %v", err)
	}
	fav, err = repo.GetFavorite(id)
	if err != nil {
		t.Fatalf("GetFavorite() error = %v", err)
	}
	if fav.Notes != "updated" || fav.TargetPrice != 900000 {
		t.Errorf("GetFavorite() after update = %+v", fav)
	}

	if err := repo.RemoveFavorite(id); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	fav, err = repo.GetFavorite(id)
	if err != nil {
		t.Fatalf("GetFavorite() error = %v", err)
	}
	if fav != nil {
		t.Errorf("GetFavorite() after remove = %+v, want nil", fav)
	}
}
