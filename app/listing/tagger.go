package listing

import "strings"

// TagRule decorates listings whose title contains one of its trigger
// keywords. Tags are classification metadata only and never affect dedup or
// notification decisions.
type TagRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Color    string   `yaml:"color"`
	Icon     string   `yaml:"icon"`
	Enabled  bool     `yaml:"enabled"`
}

// DefaultTagRules mirrors the tags used-market buyers look for first.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{Name: "A급", Keywords: []string{"A급", "에이급", "상태좋음", "매우깨끗", "최상", "S급"}, Color: "#a6e3a1", Icon: "✨", Enabled: true},
		{Name: "풀박스", Keywords: []string{"풀박스", "풀박", "미개봉", "새제품", "미사용"}, Color: "#89b4fa", Icon: "📦", Enabled: true},
		{Name: "급처", Keywords: []string{"급처", "급매", "급급", "빨리", "오늘만"}, Color: "#f38ba8", Icon: "🔥", Enabled: true},
		{Name: "네고가능", Keywords: []string{"네고가능", "네고", "협의가능", "가격협의", "흥정"}, Color: "#f9e2af", Icon: "💬", Enabled: true},
		{Name: "택포", Keywords: []string{"택포", "택배포함", "배송비포함", "무배"}, Color: "#94e2d5", Icon: "📮", Enabled: true},
		{Name: "직거래", Keywords: []string{"직거래", "직거래만", "직거래전용", "직거래희망"}, Color: "#cba6f7", Icon: "🤝", Enabled: true},
		{Name: "정품", Keywords: []string{"정품", "정품확인", "구매영수증", "보증서"}, Color: "#fab387", Icon: "✅", Enabled: true},
	}
}

// Tagger matches listing titles against tag rules.
type Tagger struct {
	rules []TagRule
}

func NewTagger(rules []TagRule) *Tagger {
	if len(rules) == 0 {
		rules = DefaultTagRules()
	}
	return &Tagger{rules: rules}
}

// Analyze returns the names of all rules triggered by the title, each at
// most once, in rule order.
func (t *Tagger) Analyze(title string) []string {
	if title == "" {
		return nil
	}
	titleLower := strings.ToLower(title)

	var tags []string
	for _, rule := range t.rules {
		if !rule.Enabled {
			continue
		}
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(titleLower, strings.ToLower(kw)) {
				tags = append(tags, rule.Name)
				break
			}
		}
	}
	return tags
}
