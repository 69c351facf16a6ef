package listing

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"아이폰 14 Pro 팝니다", "아이폰14pro팝니다"},
		{"아이폰14 Pro 팝니다 (급처)", "아이폰14pro팝니다급처"},
		{"ＭａｃＢｏｏｋ Ｐｒｏ", "macbookpro"},
		{"  spaced   out  ", "spacedout"},
		{"", ""},
	}

	for _, tt := range tests {
		got := NormalizeTitle(tt.input)
		if got != tt.expected {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "아이폰 14 Pro 팝니다", "아이폰 14 Pro 팝니다", 1.0, 1.0},
		{"whitespace variant", "아이폰 14 Pro 팝니다", "아이폰14 Pro 팝니다", 1.0, 1.0},
		{"repost with suffix", "아이폰 14 Pro 팝니다", "아이폰14 Pro 팝니다 (급처)", 0.9, 1.0},
		{"different items", "아이폰 14 Pro 팝니다", "갤럭시 S23 울트라 판매", 0.0, 0.6},
		{"both empty", "", "", 1.0, 1.0},
		{"one empty", "아이폰", "", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("TitleSimilarity(%q, %q) = %.3f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestTitleSimilaritySymmetric(t *testing.T) {
	a, b := "맥북 프로 16인치 M2", "맥북프로 16인치 M2 급처"
	if TitleSimilarity(a, b) != TitleSimilarity(b, a) {
		t.Error("similarity should be symmetric")
	}
}
