package settings

// Settings holds the matching configuration: sub-score toggles, weights,
// thresholds, and barcode lookup options. Loaded once per resolution call and
// threaded as a value; the engine never mutates it.
type Settings struct {
	MatchingEnabled          bool `json:"productMatchingEnabled"`
	StrictMatching           bool `json:"strictMatching"`
	ConfidenceThreshold      int  `json:"confidenceThreshold"`
	UseWeightMatching        bool `json:"useWeightMatching"`
	UsePriceMatching         bool `json:"usePriceMatching"`
	UseNameMatching          bool `json:"useNameMatching"`
	UseOpenFoodFactsFallback bool `json:"useOpenFoodFactsFallback"`
	MaxProductCandidates     int  `json:"maxProductCandidates"`

	// OpenFoodFacts search options
	UseQuantityInSearch bool `json:"useQuantityInSearch"`
	UseBrandInSearch    bool `json:"useBrandInSearch"`

	// Caching
	UseBarcodeCache bool `json:"useBarcodeCache"`

	// Matching weights (max points per category)
	PriceMatchWeight  int `json:"priceMatchWeight"`
	WeightMatchWeight int `json:"weightMatchWeight"`
	NameMatchWeight   int `json:"nameMatchWeight"`

	// EAN similarity scores for digit prefix matches
	EANScore10Plus int `json:"eanScore10Plus"`
	EANScore8Plus  int `json:"eanScore8Plus"`
	EANScore6Plus  int `json:"eanScore6Plus"`
	EANScore4Plus  int `json:"eanScore4Plus"`
}

// Default returns the default settings document.
func Default() Settings {
	return Settings{
		MatchingEnabled:          true,
		StrictMatching:           false,
		ConfidenceThreshold:      50,
		UseWeightMatching:        true,
		UsePriceMatching:         true,
		UseNameMatching:          true,
		UseOpenFoodFactsFallback: true,
		MaxProductCandidates:     15,
		UseQuantityInSearch:      true,
		UseBrandInSearch:         false,
		UseBarcodeCache:          true,
		PriceMatchWeight:         40,
		WeightMatchWeight:        30,
		NameMatchWeight:          30,
		EANScore10Plus:           90,
		EANScore8Plus:            70,
		EANScore6Plus:            50,
		EANScore4Plus:            30,
	}
}

// EffectiveThreshold is the confidence cutoff below which a match is recorded
// but not used for enrichment. Strict matching raises it to at least 70.
func (s Settings) EffectiveThreshold() int {
	if s.StrictMatching && s.ConfidenceThreshold < 70 {
		return 70
	}
	return s.ConfidenceThreshold
}
