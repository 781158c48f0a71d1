package layout

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Receipt vocabulary markers. The print layout has no grammar, only these
// positional and lexical cues.
const (
	descriptionMarker = "OMSCHRIJVING"
	amountMarker      = "BEDRAG"
	totalMarker       = "Totaal"
	paymentMarker     = "Betaald"
	vatHeaderMarker   = "BTW%"
	vatExclMarker     = "Bedrag excl"
	vatTotalMarker    = "BTW Totaal"
	promoMarker       = "P"
	depositMarker     = "STATIEGELD"
)

var (
	quantityLineRe = regexp.MustCompile(`^\s*(\d+)\s*[Xx]\s*(\d+[,.]\d+)`)
	itemCountRe    = regexp.MustCompile(`Aantal artikelen.*?:\s*(\d+)`)
)

// printDocument mirrors the nested print-layout JSON supplied by the remote
// receipt API.
type printDocument struct {
	Documents []struct {
		Documents []struct {
			PrintSections []struct {
				TextObjects []struct {
					TextLines []struct {
						Texts []struct {
							Text string `json:"text"`
						} `json:"texts"`
					} `json:"textLines"`
				} `json:"textObjects"`
			} `json:"printSections"`
		} `json:"documents"`
	} `json:"documents"`
}

// Parse converts a raw print-layout receipt document into structured line
// items and receipt-level metadata. It never fails: malformed input yields an
// empty result with a diagnostic ParseError string.
func Parse(raw []byte) *ParseResult {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return &ParseResult{Items: []*LineItem{}, ParseError: "Invalid receipt JSON"}
	}

	var doc printDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ParseResult{Items: []*LineItem{}, ParseError: "Unexpected receipt structure"}
	}
	if len(doc.Documents) == 0 || len(doc.Documents[0].Documents) == 0 {
		return &ParseResult{Items: []*LineItem{}, ParseError: "Unexpected receipt structure"}
	}

	// Flatten everything into rows of raw tokens, one row per text line.
	var rows [][]string
	for _, section := range doc.Documents[0].Documents[0].PrintSections {
		for _, obj := range section.TextObjects {
			for _, line := range obj.TextLines {
				texts := make([]string, 0, len(line.Texts))
				for _, t := range line.Texts {
					texts = append(texts, t.Text)
				}
				rows = append(rows, texts)
			}
		}
	}

	return scanRows(rows)
}

// scanRows walks the flattened rows with a single cursor. inItems tracks
// whether the cursor is inside the item section; last points at the most
// recently appended item so quantity lines can back-fill it without ever
// creating an item of their own.
func scanRows(rows [][]string) *ParseResult {
	var (
		items         []*LineItem
		last          *LineItem
		total         *float64
		paymentMethod string
		vatRows       [][]string
		itemCount     *int
	)

	i := 0
	inItems := false
	for i < len(rows) {
		texts := rows[i]
		joined := joinTokens(texts)

		// Items section header.
		if strings.Contains(joined, descriptionMarker) && strings.Contains(joined, amountMarker) {
			inItems = true
			i++
			if i < len(rows) && isSeparator(strings.Join(rows[i], "")) {
				i++
			}
			continue
		}

		// End of items section; the total rides on the same line.
		if inItems && strings.HasPrefix(joined, totalMarker) {
			inItems = false
			for _, t := range texts {
				if v, ok := parseAmount(t); ok {
					total = &v
				}
			}
			i++
			continue
		}

		if inItems {
			first := ""
			if len(texts) > 0 {
				first = strings.TrimSpace(texts[0])
			}

			if first == "" || isSeparator(first) {
				i++
				continue
			}

			// Quantity line, e.g. "2 X 0,94": back-fills the previous item and
			// never creates one. Dropped when no item precedes it.
			if m := quantityLineRe.FindStringSubmatch(first); m != nil {
				if last != nil {
					qty, _ := strconv.Atoi(m[1])
					unitPrice, _ := parseAmount(m[2])
					last.Quantity = qty
					last.UnitPrice = &unitPrice
					for j := len(texts) - 1; j >= 0; j-- {
						if v, ok := parseAmount(texts[j]); ok {
							last.Price = &v
							break
						}
					}
				}
				i++
				continue
			}

			// Regular product line.
			var price *float64
			for j := len(texts) - 1; j >= 0; j-- {
				if v, ok := parseAmount(texts[j]); ok {
					price = &v
					break
				}
			}
			isPromo := len(texts) > 1 && strings.TrimSpace(texts[1]) == promoMarker

			item := &LineItem{
				Name:      first,
				Price:     price,
				Quantity:  1,
				UnitPrice: price,
				IsPromo:   isPromo,
				IsDeposit: strings.EqualFold(first, depositMarker),
			}
			items = append(items, item)
			last = item
			i++
			continue
		}

		// Payment method lives on the line after the marker.
		if strings.HasPrefix(joined, paymentMarker) {
			i++
			if i < len(rows) && len(rows[i]) > 0 {
				paymentMethod = strings.TrimSpace(rows[i][0])
			}
			i++
			continue
		}

		// VAT block: header row, then per-rate rows until a separator or blank.
		if strings.HasPrefix(joined, vatHeaderMarker) || strings.Contains(joined, vatExclMarker) {
			i++
			for i < len(rows) {
				vj := joinTokens(rows[i])
				if vj == "" || isSeparator(vj) {
					break
				}
				if strings.Contains(vj, "%") || strings.HasPrefix(vj, vatTotalMarker) {
					var parts []string
					for _, t := range rows[i] {
						if s := strings.TrimSpace(t); s != "" {
							parts = append(parts, s)
						}
					}
					vatRows = append(vatRows, parts)
				}
				i++
			}
			continue
		}

		if m := itemCountRe.FindStringSubmatch(joined); m != nil {
			n, _ := strconv.Atoi(m[1])
			itemCount = &n
			i++
			continue
		}

		i++
	}

	result := &ParseResult{
		Items:         make([]*LineItem, 0, len(items)),
		Total:         total,
		PaymentMethod: paymentMethod,
		ItemCount:     itemCount,
	}
	for _, it := range items {
		if it.IsDeposit {
			result.Deposits = append(result.Deposits, it)
		} else {
			result.Items = append(result.Items, it)
		}
	}

	// The "Totaal" VAT row is the grand total, not a per-rate line.
	for _, parts := range vatRows {
		if len(parts) >= 3 && !strings.Contains(parts[0], totalMarker) {
			result.VATSummary = append(result.VATSummary, VATLine{
				Rate:       parts[0],
				AmountExcl: parts[1],
				VATAmount:  parts[2],
			})
		}
	}

	return result
}

// joinTokens space-joins the trimmed, non-empty tokens of a row.
func joinTokens(texts []string) string {
	var parts []string
	for _, t := range texts {
		if s := strings.TrimSpace(t); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func isSeparator(s string) bool {
	return strings.HasPrefix(s, "=") || strings.HasPrefix(s, "-")
}

// parseAmount parses a locale-formatted number (decimal comma or dot).
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
