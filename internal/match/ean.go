package match

import (
	"regexp"

	"receipt-recon/internal/settings"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// EANSimilarity scores how alike two numeric barcodes are, 0-100. Exact digit
// matches score 100, a single leading zero pad 95, and anything else maps the
// matching leading-digit prefix through a tiered table. The floor is 10, not
// 0: EAN prefixes encode country and manufacturer, so even short overlaps
// carry signal.
func EANSimilarity(a, b string, s settings.Settings) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	da := nonDigitRe.ReplaceAllString(a, "")
	db := nonDigitRe.ReplaceAllString(b, "")
	if da == db {
		return 100
	}
	if da == "0"+db || db == "0"+da {
		return 95
	}

	prefix := 0
	for prefix < len(da) && prefix < len(db) && da[prefix] == db[prefix] {
		prefix++
	}

	switch {
	case prefix >= 12:
		return 95
	case prefix == 11:
		return 92
	case prefix == 10:
		return s.EANScore10Plus
	case prefix >= 8:
		return s.EANScore8Plus
	case prefix >= 6:
		return s.EANScore6Plus
	case prefix >= 4:
		return s.EANScore4Plus
	}
	return 10
}
