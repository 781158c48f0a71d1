package match

import (
	"regexp"
	"strconv"
	"strings"
)

var sizeRe = regexp.MustCompile(`(?i)(\d+[,.]\d+|\d+)\s*(KG|G|GR|ML|L|CL)\b`)

// sizeMultipliers normalize each unit to grams or millilitres.
var sizeMultipliers = map[string]float64{
	"G":  1,
	"GR": 1,
	"ML": 1,
	"CL": 10,
	"KG": 1000,
	"L":  1000,
}

// ExtractSize finds the first weight or volume mention in text and returns its
// magnitude normalized to grams/millilitres. Only the first match counts.
func ExtractSize(text string) (float64, bool) {
	m := sizeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return value * sizeMultipliers[strings.ToUpper(m[2])], true
}
