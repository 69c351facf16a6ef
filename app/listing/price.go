package listing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Korean price strings come in many shapes: "10,000원", "10만", "1.2만",
// "2만5천", "2만5" (tail in 천 units), "무료나눔". Parsing is kept in one
// place so scrapers, store and API agree on the numeric value.

var (
	freeKeywords = []string{"무료나눔", "무료", "나눔", "무나"}

	manPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)만`)
	thousandPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)천`)
	digitsPattern   = regexp.MustCompile(`\d+`)
)

// ParsePriceKR parses a KRW price string into won. Returns 0 when the price
// is unknown, free, or unparsable.
func ParsePriceKR(text string) int64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ToLower(s)
	for _, cut := range []string{",", "krw", "￦", "원"} {
		s = strings.ReplaceAll(s, cut, "")
	}

	if !digitsPattern.MatchString(s) {
		for _, k := range freeKeywords {
			if strings.Contains(s, k) {
				return 0
			}
		}
		return 0
	}

	if m := manPattern.FindStringSubmatchIndex(s); m != nil {
		man, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			return 0
		}
		total := int64(man * 10_000)
		rest := s[m[1]:]

		if t := thousandPattern.FindStringSubmatch(rest); t != nil {
			if th, err := strconv.ParseFloat(t[1], 64); err == nil {
				total += int64(th * 1_000)
			}
			return max(total, 0)
		}

		if d := digitsPattern.FindString(rest); d != "" {
			if tail, err := strconv.ParseInt(d, 10, 64); err == nil {
				// A short tail after 만 means 천 units: "2만5" -> 25,000.
				if tail < 1000 {
					total += tail * 1000
				} else {
					total += tail
				}
			}
		}
		return max(total, 0)
	}

	if t := thousandPattern.FindStringSubmatch(s); t != nil {
		th, err := strconv.ParseFloat(t[1], 64)
		if err != nil {
			return 0
		}
		return max(int64(th*1_000), 0)
	}

	digits := digitsPattern.FindAllString(s, -1)
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(strings.Join(digits, ""), 10, 64)
	if err != nil {
		return 0
	}
	return max(n, 0)
}

// FormatPriceKR formats a won amount for display.
func FormatPriceKR(amount int64) string {
	if amount <= 0 {
		return "가격문의"
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s원", b.String())
}
