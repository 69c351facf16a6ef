package notifier

import (
	"fmt"
	"strings"

	"github.com/danbi-labs/joonggo-radar/app/listing"
)

var platformEmoji = map[string]string{
	"danggeun":    "🥕",
	"bunjang":     "⚡",
	"joonggonara": "🛒",
}

func emojiFor(platform string) string {
	if e, ok := platformEmoji[platform]; ok {
		return e
	}
	return "📦"
}

// FormatNewItem renders the plain-text notification body shared by all
// channels.
func FormatNewItem(l listing.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] 새 상품!\n\n", emojiFor(l.Platform), strings.ToUpper(l.Platform))
	fmt.Fprintf(&b, "🔍 키워드: %s\n", l.Keyword)
	fmt.Fprintf(&b, "📦 제목: %s\n", l.Title)
	fmt.Fprintf(&b, "💰 가격: %s\n", l.Price)
	if l.Location != "" {
		fmt.Fprintf(&b, "📍 지역: %s\n", l.Location)
	}
	if l.Seller != "" {
		fmt.Fprintf(&b, "👤 판매자: %s\n", l.Seller)
	}
	if len(l.AutoTags) > 0 {
		fmt.Fprintf(&b, "🏷 태그: %s\n", strings.Join(l.AutoTags, ", "))
	}
	fmt.Fprintf(&b, "\n🔗 %s", l.URL)
	return b.String()
}

// FormatPriceChange renders a price transition notification.
func FormatPriceChange(l listing.Listing, change listing.PriceChange) string {
	emoji, direction := "📈", "인상"
	if change.Dropped() {
		emoji, direction = "📉", "인하"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 가격 %s!\n\n", emoji, direction)
	fmt.Fprintf(&b, "📦 %s\n", l.Title)
	fmt.Fprintf(&b, "💰 %s → %s\n", change.OldPrice, change.NewPrice)
	if change.TargetPrice > 0 {
		fmt.Fprintf(&b, "🎯 목표가 %s 도달!\n", listing.FormatPriceKR(change.TargetPrice))
	}
	fmt.Fprintf(&b, "\n🔗 %s", l.URL)
	return b.String()
}

// Preview shortens a message body for the notification log.
func Preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if runes := []rune(text); len(runes) > 100 {
		return string(runes[:100])
	}
	return text
}
