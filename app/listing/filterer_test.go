package listing

import "testing"

func TestFiltererPriceBounds(t *testing.T) {
	filterer := NewFilterer()
	filters := Filters{MinPrice: 1_000_000, MaxPrice: 2_000_000}

	tests := []struct {
		name  string
		price string
		want  bool
	}{
		{"within bounds", "1,500,000원", true},
		{"below minimum", "900,000원", false},
		{"above maximum", "2,100,000원", false},
		{"at minimum", "1,000,000원", true},
		{"at maximum", "2,000,000원", true},
		{"unknown price passes", "가격문의", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := filterer.Match(Listing{Title: "맥북 프로", Price: tt.price}, filters)
			if ok != tt.want {
				t.Errorf("Match(price=%s) = %v, want %v", tt.price, ok, tt.want)
			}
		})
	}
}

func TestFiltererExcludeKeywords(t *testing.T) {
	filterer := NewFilterer()
	filters := Filters{ExcludeKeywords: []string{"부품", "고장"}}

	ok, reason := filterer.Match(Listing{Title: "맥북 프로 부품용 팝니다", Price: "100,000원"}, filters)
	if ok {
		t.Error("expected item with excluded keyword to be rejected")
	}
	if reason == "" {
		t.Error("expected a rejection reason")
	}

	// Case-insensitive match against latin keywords.
	filters = Filters{ExcludeKeywords: []string{"PARTS"}}
	if ok, _ := filterer.Match(Listing{Title: "macbook parts only"}, filters); ok {
		t.Error("expected case-insensitive exclude match")
	}

	if ok, _ := filterer.Match(Listing{Title: "맥북 프로 A급"}, Filters{ExcludeKeywords: []string{"부품"}}); !ok {
		t.Error("expected clean title to pass")
	}
}

func TestFiltererLocation(t *testing.T) {
	filterer := NewFilterer()
	filters := Filters{Location: "강남"}

	if ok, _ := filterer.Match(Listing{Title: "t", Location: "서울 강남구"}, filters); !ok {
		t.Error("expected matching location to pass")
	}
	if ok, _ := filterer.Match(Listing{Title: "t", Location: "부산 해운대구"}, filters); ok {
		t.Error("expected non-matching location to be rejected")
	}
	// Unknown location passes.
	if ok, _ := filterer.Match(Listing{Title: "t"}, filters); !ok {
		t.Error("expected listing without location to pass")
	}
}

func TestFiltererBlockedSellers(t *testing.T) {
	filterer := NewFilterer()
	filters := Filters{BlockedSellers: map[string]bool{
		BlockedSellerKey("업자왕", "bunjang"): true,
	}}

	if ok, _ := filterer.Match(Listing{Title: "t", Seller: "업자왕", Platform: "bunjang"}, filters); ok {
		t.Error("expected blocked seller to be rejected")
	}
	if ok, _ := filterer.Match(Listing{Title: "t", Seller: "업자왕", Platform: "danggeun"}, filters); !ok {
		t.Error("block is per-platform, other platform should pass")
	}
}

func TestFiltererRun(t *testing.T) {
	filterer := NewFilterer()
	items := []Listing{
		{Title: "맥북 프로 16인치", Price: "1,500,000원"},
		{Title: "맥북 프로", Price: "900,000원"},
		{Title: "맥북 프로 부품", Price: "1,800,000원"},
	}
	filters := Filters{MinPrice: 1_000_000, MaxPrice: 2_000_000, ExcludeKeywords: []string{"부품"}}

	kept := filterer.Run(items, filters)
	if len(kept) != 1 {
		t.Fatalf("expected 1 surviving item, got %d", len(kept))
	}
	if kept[0].Title != "맥북 프로 16인치" {
		t.Errorf("wrong item survived: %s", kept[0].Title)
	}
}
