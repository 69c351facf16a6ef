package listing

import "testing"

func TestParsePriceKR(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"10,000원", 10000},
		{"1,500,000원", 1500000},
		{"10만", 100000},
		{"10만원", 100000},
		{"1.2만", 12000},
		{"2만5천", 25000},
		{"2만5", 25000},
		{"2만5000", 25000},
		{"무료나눔", 0},
		{"나눔", 0},
		{"가격문의", 0},
		{"", 0},
		{"0", 0},
		{"5천", 5000},
		{"KRW 3,000", 3000},
		{"  12,345원 ", 12345},
	}

	for _, tt := range tests {
		got := ParsePriceKR(tt.input)
		if got != tt.expected {
			t.Errorf("ParsePriceKR(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestFormatPriceKR(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{10000, "10,000원"},
		{1500000, "1,500,000원"},
		{500, "500원"},
		{0, "가격문의"},
		{-1, "가격문의"},
	}

	for _, tt := range tests {
		got := FormatPriceKR(tt.amount)
		if got != tt.expected {
			t.Errorf("FormatPriceKR(%d) = %q, want %q", tt.amount, got, tt.expected)
		}
	}
}

func TestListingParsePrice(t *testing.T) {
	l := Listing{Price: "15만"}
	if got := l.ParsePrice(); got != 150000 {
		t.Errorf("ParsePrice() = %d, want 150000", got)
	}
	// Cached value wins over the raw string.
	l2 := Listing{Price: "15만", PriceNumeric: 99}
	if got := l2.ParsePrice(); got != 99 {
		t.Errorf("ParsePrice() = %d, want cached 99", got)
	}
}
