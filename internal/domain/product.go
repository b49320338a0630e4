package domain

import "strings"

// SpecKind discriminates the shape of an extracted spec value
type SpecKind string

const (
	SpecText       SpecKind = "text"       // e.g. "4K", "WiFi 6E", "5.1"
	SpecNumber     SpecKind = "number"     // e.g. refresh rate 120
	SpecMeasure    SpecKind = "measure"    // value + unit, e.g. {8, "Ω"}
	SpecRange      SpecKind = "range"      // min/max + unit, e.g. frequency response
	SpecDimensions SpecKind = "dimensions" // width x height x depth
)

// SpecValue is one normalized technical attribute extracted from product text.
// Only the fields matching Kind are meaningful.
type SpecValue struct {
	Kind   SpecKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Min    float64  `json:"min,omitempty"`
	Max    float64  `json:"max,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Height float64  `json:"height,omitempty"`
	Depth  float64  `json:"depth,omitempty"`
}

// NormalizedSpecs maps attribute name (e.g. "hdmi", "impedance") to its
// extracted value. Attributes that failed extraction are absent, never
// null-filled.
type NormalizedSpecs map[string]SpecValue

// Product represents one candidate item from the catalog/search service.
// Immutable once fetched; cached with a TTL.
type Product struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description,omitempty"`
	Price                float64         `json:"price"`
	Currency             string          `json:"currency,omitempty"`
	Retailer             string          `json:"retailer"`
	URL                  string          `json:"url,omitempty"`
	Rating               float64         `json:"rating,omitempty"`  // 0-5, 0 = unknown
	Reviews              int             `json:"reviews,omitempty"` // 0 = unknown
	Availability         string          `json:"availability,omitempty"`
	NormalizedSpecs      NormalizedSpecs `json:"normalizedSpecs,omitempty"`
	ExtractionConfidence float64         `json:"extractionConfidence,omitempty"`
}

// InStock reports whether the product's availability text indicates it can
// currently be purchased. An empty status counts as not in stock.
func (p Product) InStock() bool {
	if p.Availability == "" {
		return false
	}
	status := strings.ToLower(p.Availability)
	return !strings.Contains(status, "out of stock") && !strings.Contains(status, "unavailable")
}

// HasRating reports whether the product carries usable quality signals.
func (p Product) HasRating() bool {
	return p.Rating > 0 && p.Reviews > 0
}

// ComponentRequest is one entry of a decomposed purchasing intent, as
// produced by the intent-decomposition collaborator.
type ComponentRequest struct {
	ComponentName string            `json:"componentName"`
	Category      string            `json:"category"`
	Priority      string            `json:"priority,omitempty"` // essential | recommended | optional
	Quantity      int               `json:"quantity,omitempty"`
	Specs         map[string]string `json:"specifications,omitempty"`
	SearchQuery   string            `json:"searchQuery,omitempty"`
}
