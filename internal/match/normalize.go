package match

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// abbreviation is one entry of the receipt vocabulary expansion table. The
// table is data, not control flow: extend it without touching CleanReceiptName.
type abbreviation struct {
	re   *regexp.Regexp
	repl string
}

// receiptAbbreviations expands the abbreviated product names printed on
// receipts into searchable terms. Order matters: earlier entries run first.
var receiptAbbreviations = []abbreviation{
	{regexp.MustCompile(`(?i)\bJUM\.`), "jumbo "},
	{regexp.MustCompile(`(?i)\bGESN\b\.?`), "gesneden"},
	{regexp.MustCompile(`(?i)\bGEM\b\.?`), "gemengd"},
	{regexp.MustCompile(`(?i)\bRASP\b`), "geraspte"},
	{regexp.MustCompile(`(?i)\bCHAMP\b`), "champignons"},
	{regexp.MustCompile(`(?i)\bA\.ANDERS\b`), "aardappel anders"},
	{regexp.MustCompile(`(?i)\bCC\b`), "con carne"},
	{regexp.MustCompile(`(?i)\bSPAGH\b\.?`), "spaghetti"},
	{regexp.MustCompile(`(?i)\bMAC\b\.?`), "macaroni"},
	{regexp.MustCompile(`(?i)\bGEHAKTBAL\b\.?`), "gehaktballen"},
	{regexp.MustCompile(`(?i)\bZILVERVLIESR\b\.?`), "zilvervliesrijst"},
	{regexp.MustCompile(`(?i)\bWITTER\b\.?`), "witte rijst"},
	{regexp.MustCompile(`(?i)\bAARDB\b\.?`), "aardbeien"},
	{regexp.MustCompile(`(?i)\bSINAASAPP\b\.?`), "sinaasappel"},
	{regexp.MustCompile(`(?i)\bTOMAT\b\.?`), "tomaten"},
	{regexp.MustCompile(`(?i)\bKIPFIL\b\.?`), "kipfilet"},
	{regexp.MustCompile(`(?i)\bDROGH\b\.?`), "droghe"},
	{regexp.MustCompile(`(?i)\bMH\b`), ""},
	{regexp.MustCompile(`(?i)\b6PK\b`), ""},
	{regexp.MustCompile(`(?i)\b4PK\b`), ""},
	{regexp.MustCompile(`(?i)\b12PK\b`), ""},
}

var (
	letterDigitRe  = regexp.MustCompile(`([a-zA-Z])(\d)`)
	decimalSizeRe  = regexp.MustCompile(`(?i)\b\d+[,.]\d+\s*(L|KG|G|ML)\b`)
	integerSizeRe  = regexp.MustCompile(`(?i)\b\d+\s*(G|ML|L|KG|PK|PAK|ST|STK|CL|GR)\b`)
	percentTokenRe = regexp.MustCompile(`\b\d+%`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nameWordRe     = regexp.MustCompile(`[a-záàâäéèêëíìîïóòôöúùûüýñç]+`)
)

// stopWords are determiners and conjunctions that carry no matching signal,
// plus the store brand that every own-label product shares.
var stopWords = map[string]bool{
	"jumbo": true, "de": true, "het": true, "een": true, "van": true,
	"voor": true, "met": true, "en": true, "of": true, "in": true,
}

// CleanReceiptName expands an abbreviated receipt product name into a
// searchable query string: abbreviations expanded, trailing size and unit
// tokens stripped, whitespace collapsed. Pure and deterministic.
func CleanReceiptName(name string) string {
	s := strings.TrimSpace(name)
	for _, a := range receiptAbbreviations {
		s = a.re.ReplaceAllString(s, a.repl)
	}
	// Expansions can glue letters onto a following quantity.
	s = letterDigitRe.ReplaceAllString(s, "$1 $2")
	s = decimalSizeRe.ReplaceAllString(s, "")
	s = integerSizeRe.ReplaceAllString(s, "")
	s = percentTokenRe.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NameWords extracts the set of meaningful words from a product name:
// lower-cased alphabetic runs of at least two letters, stop words removed.
func NameWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range nameWordRe.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(w) >= 2 && !stopWords[w] {
			words[w] = true
		}
	}
	return words
}
