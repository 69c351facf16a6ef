package listing

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// SimilarityFunc scores two titles on a 0..1 scale. It is pluggable so the
// dedup policy in the store does not depend on a particular algorithm.
type SimilarityFunc func(a, b string) float64

// NormalizeTitle prepares a title for similarity comparison: full-width
// characters are folded, the string is NFKC-normalized and lowercased, and
// whitespace/punctuation is stripped. "아이폰 14 Pro" and "아이폰14  Ｐｒｏ"
// normalize to the same string.
func NormalizeTitle(s string) string {
	s = width.Fold.String(s)
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleSimilarity is the default SimilarityFunc: the ratio of the longest
// common subsequence to the combined length of both normalized titles,
// 2*LCS/(len(a)+len(b)). Identical strings score 1.0.
func TitleSimilarity(a, b string) float64 {
	ra := []rune(NormalizeTitle(a))
	rb := []rune(NormalizeTitle(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	return 2.0 * float64(lcsLength(ra, rb)) / float64(len(ra)+len(rb))
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
