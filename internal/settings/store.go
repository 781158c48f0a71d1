package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// settingsSchema constrains the settings document. Weights and thresholds are
// bounded so a bad PUT cannot wedge the scorer.
func settingsSchema() map[string]any {
	boolProp := map[string]any{"type": "boolean"}
	scoreProp := map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"productMatchingEnabled":   boolProp,
			"strictMatching":           boolProp,
			"confidenceThreshold":      scoreProp,
			"useWeightMatching":        boolProp,
			"usePriceMatching":         boolProp,
			"useNameMatching":          boolProp,
			"useOpenFoodFactsFallback": boolProp,
			"maxProductCandidates":     map[string]any{"type": "integer", "minimum": 1, "maximum": 50},
			"useQuantityInSearch":      boolProp,
			"useBrandInSearch":         boolProp,
			"useBarcodeCache":          boolProp,
			"priceMatchWeight":         scoreProp,
			"weightMatchWeight":        scoreProp,
			"nameMatchWeight":          scoreProp,
			"eanScore10Plus":           scoreProp,
			"eanScore8Plus":            scoreProp,
			"eanScore6Plus":            scoreProp,
			"eanScore4Plus":            scoreProp,
		},
	}
}

// Validate checks a raw settings document against the schema.
func Validate(data []byte) error {
	schemaBytes, err := json.Marshal(settingsSchema())
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("settings.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("adding schema: %w", err)
	}
	schema, err := compiler.Compile("settings.json")
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshaling settings: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("settings do not match schema: %w", err)
	}
	return nil
}

// Store persists the settings document as a JSON file.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads saved settings merged over defaults. A missing or invalid file
// yields the defaults.
func (s *Store) Load() Settings {
	merged := Default()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return merged
	}
	if err := Validate(data); err != nil {
		return merged
	}
	// Unmarshal over the defaults so absent fields keep their default values.
	if err := json.Unmarshal(data, &merged); err != nil {
		return Default()
	}
	return merged
}

// Save writes the settings document to disk.
func (s *Store) Save(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
