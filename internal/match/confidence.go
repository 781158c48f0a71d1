package match

import (
	"math"

	"receipt-recon/internal/catalog"
	"receipt-recon/internal/settings"
)

// Confidence computes a 0-100 match score between a receipt line item and a
// candidate catalog product. Three independently toggleable sub-scores are
// summed and clamped:
//
//   - price:  0..PriceMatchWeight, stepped down by percentage difference
//   - size:   0..WeightMatchWeight, ratio of extracted magnitudes
//   - name:   0..NameMatchWeight, token overlap relative to the receipt name
func Confidence(receiptName string, receiptPriceCents int, p catalog.Product, s settings.Settings) int {
	score := 0.0
	fullText := p.Title + " " + p.Subtitle

	if s.UsePriceMatching && receiptPriceCents > 0 {
		score += priceScore(receiptPriceCents, p.Price, float64(s.PriceMatchWeight))
	}
	if s.UseWeightMatching {
		score += sizeScore(receiptName, fullText, float64(s.WeightMatchWeight))
	}
	if s.UseNameMatching {
		score += nameScore(receiptName, fullText, float64(s.NameMatchWeight))
	}

	return clampScore(int(math.Round(score)))
}

// priceScore compares the receipt price against the candidate's list price
// and, when present, its promo price, taking the smaller difference.
func priceScore(receiptCents int, price catalog.Price, weight float64) float64 {
	bestDiff := abs(price.Price - receiptCents)
	if price.PromoPrice != nil {
		if d := abs(*price.PromoPrice - receiptCents); d < bestDiff {
			bestDiff = d
		}
	}
	pctDiff := float64(bestDiff) / float64(max(receiptCents, 1)) * 100

	switch {
	case bestDiff == 0:
		return weight
	case pctDiff <= 5:
		return weight * 0.8
	case pctDiff <= 10:
		return weight * 0.625
	case pctDiff <= 20:
		return weight * 0.375
	case pctDiff <= 30:
		return weight * 0.25
	case pctDiff <= 50:
		return weight * 0.125
	}
	return 0
}

// sizeScore compares extracted weight/volume magnitudes. When neither side
// mentions a size the score is neutral (half the cap); when exactly one side
// does, the asymmetry earns nothing.
func sizeScore(receiptName, productText string, weight float64) float64 {
	receiptSize, receiptOK := ExtractSize(receiptName)
	productSize, productOK := ExtractSize(productText)

	switch {
	case receiptOK && productOK:
		larger := math.Max(receiptSize, productSize)
		if larger <= 0 {
			return 0
		}
		ratio := math.Min(receiptSize, productSize) / larger
		switch {
		case ratio >= 0.99:
			return weight
		case ratio >= 0.9:
			return weight * 0.67
		case ratio >= 0.7:
			return weight * 0.33
		}
		return 0
	case !receiptOK && !productOK:
		return weight * 0.5
	}
	return 0
}

// nameScore weighs token overlap relative to the receipt's own vocabulary,
// since the receipt name is the ground truth being matched against.
func nameScore(receiptName, productText string, weight float64) float64 {
	receiptWords := NameWords(receiptName)
	productWords := NameWords(productText)
	if len(receiptWords) == 0 || len(productWords) == 0 {
		return 0
	}
	overlap := 0
	for w := range receiptWords {
		if productWords[w] {
			overlap++
		}
	}
	return math.Round(float64(overlap) / float64(len(receiptWords)) * weight)
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
