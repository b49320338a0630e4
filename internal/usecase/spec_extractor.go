package usecase

import (
	"log"
	"regexp"
	"strconv"

	"github.com/bundleup/backend/internal/domain"
)

// patternKind selects how a matched pattern is turned into a SpecValue
type patternKind int

const (
	patternLiteral patternKind = iota // regex present => fixed text value
	patternText                       // single capture kept as text (versions etc.)
	patternNumber                     // single capture parsed as number
	patternMeasure                    // numeric capture tagged with a unit
	patternRange                      // two captures => {min, max, unit}
	patternDims                       // three captures => {width, height, depth}
)

// specPattern is one extraction rule. Patterns for an attribute are tried in
// order and the first match wins; no accumulation across patterns.
type specPattern struct {
	re     *regexp.Regexp
	kind   patternKind
	value  string  // literal value
	prefix string  // prepended to a text capture
	scale  float64 // multiplier for numeric captures (0 = none)
	unit   string
}

// specPatterns maps attribute name to its ordered pattern rules. Ported from
// the product taxonomy: display, connectivity, audio, power, storage and
// physical attributes commonly found in listing titles.
var specPatterns = map[string][]specPattern{
	"resolution": {
		{re: regexp.MustCompile(`(?i)8K|7680\s*[x×]\s*4320`), kind: patternLiteral, value: "8K"},
		{re: regexp.MustCompile(`(?i)4K|UHD|Ultra\s*HD|3840\s*[x×]\s*2160`), kind: patternLiteral, value: "4K"},
		{re: regexp.MustCompile(`(?i)QHD|1440p|2560\s*[x×]\s*1440`), kind: patternLiteral, value: "QHD"},
		{re: regexp.MustCompile(`(?i)1080p|Full\s*HD|FHD|1920\s*[x×]\s*1080`), kind: patternLiteral, value: "1080p"},
		{re: regexp.MustCompile(`(?i)720p|1280\s*[x×]\s*720`), kind: patternLiteral, value: "720p"},
	},
	"refreshRate": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*hz\b`), kind: patternNumber},
		{re: regexp.MustCompile(`(?i)(\d+)\s*hertz\b`), kind: patternNumber},
	},
	"screenSize": {
		{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*["']?\s*(?:inch|in)\b`), kind: patternNumber},
	},
	"hdmi": {
		{re: regexp.MustCompile(`(?i)HDMI\s*(\d+\.\d+)`), kind: patternText},
		{re: regexp.MustCompile(`(?i)HDMI\s*(\d+)`), kind: patternText},
	},
	"usb": {
		{re: regexp.MustCompile(`(?i)USB-C|USB\s*C\b|Type-C`), kind: patternLiteral, value: "USB-C"},
		{re: regexp.MustCompile(`(?i)USB\s*4`), kind: patternLiteral, value: "USB 4"},
		{re: regexp.MustCompile(`(?i)USB\s*3\.2`), kind: patternLiteral, value: "USB 3.2"},
		{re: regexp.MustCompile(`(?i)USB\s*3\.1`), kind: patternLiteral, value: "USB 3.1"},
		{re: regexp.MustCompile(`(?i)USB\s*3\.0`), kind: patternLiteral, value: "USB 3.0"},
		{re: regexp.MustCompile(`(?i)USB\s*2\.0`), kind: patternLiteral, value: "USB 2.0"},
		{re: regexp.MustCompile(`(?i)Thunderbolt\s*(\d+)`), kind: patternText, prefix: "Thunderbolt "},
	},
	"bluetooth": {
		{re: regexp.MustCompile(`(?i)Bluetooth\s*(\d+\.\d+)`), kind: patternText},
		{re: regexp.MustCompile(`(?i)\bBT\s*(\d+\.\d+)`), kind: patternText},
	},
	"wifi": {
		{re: regexp.MustCompile(`(?i)WiFi\s*7|Wi-Fi\s*7|802\.11be`), kind: patternLiteral, value: "WiFi 7"},
		{re: regexp.MustCompile(`(?i)WiFi\s*6E|Wi-Fi\s*6E`), kind: patternLiteral, value: "WiFi 6E"},
		{re: regexp.MustCompile(`(?i)WiFi\s*6|Wi-Fi\s*6|802\.11ax`), kind: patternLiteral, value: "WiFi 6"},
		{re: regexp.MustCompile(`(?i)WiFi\s*5|Wi-Fi\s*5|802\.11ac`), kind: patternLiteral, value: "WiFi 5"},
		{re: regexp.MustCompile(`(?i)802\.11n`), kind: patternLiteral, value: "WiFi 4"},
	},
	// Channel counts need surrounding audio context; a bare "2.1" would
	// collide with HDMI/Bluetooth version numbers in the same title.
	"channels": {
		{re: regexp.MustCompile(`(?i)(\d+\.\d+(?:\.\d+)?)\s*(?:-?\s*ch\b|channels?\b)`), kind: patternText},
		{re: regexp.MustCompile(`(?i)(\d+\.\d+(?:\.\d+)?)\s*(?:surround|speaker|audio)`), kind: patternText},
		{re: regexp.MustCompile(`(?i)\bstereo\b`), kind: patternLiteral, value: "2.0"},
	},
	"impedance": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*(?:Ω|ohms?)\b`), kind: patternMeasure, unit: "Ω"},
	},
	"frequency": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*(?:hz|hertz)\s*-\s*(\d+)\s*khz`), kind: patternRange, unit: "Hz-kHz"},
	},
	"power": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*(?:watts?|w)\b`), kind: patternMeasure, unit: "W"},
	},
	"voltage": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*(?:volts?|v)\b`), kind: patternMeasure, unit: "V"},
		{re: regexp.MustCompile(`(?i)(\d+)-(\d+)\s*v\b`), kind: patternRange, unit: "V"},
	},
	"storage": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*TB\b`), kind: patternMeasure, scale: 1000, unit: "GB"},
		{re: regexp.MustCompile(`(?i)(\d+)\s*GB\b`), kind: patternMeasure, unit: "GB"},
		{re: regexp.MustCompile(`(?i)(\d+)\s*MB\b`), kind: patternMeasure, scale: 0.001, unit: "GB"},
	},
	"ram": {
		{re: regexp.MustCompile(`(?i)(\d+)\s*GB\s*(?:RAM|Memory|DDR\d?)`), kind: patternMeasure, unit: "GB"},
		{re: regexp.MustCompile(`(?i)DDR5-(\d+)`), kind: patternText, prefix: "DDR5-"},
		{re: regexp.MustCompile(`(?i)DDR4-(\d+)`), kind: patternText, prefix: "DDR4-"},
	},
	"dimensions": {
		{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)\s*(?:in|inch|"|cm)`), kind: patternDims},
	},
	"weight": {
		{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:lbs?|pounds?)\b`), kind: patternMeasure, unit: "lbs"},
		{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|kilograms?)\b`), kind: patternMeasure, scale: 2.205, unit: "lbs"},
	},
}

// criticalSpecs are the attributes that matter most for compatibility
// checking; extracting them earns a confidence bonus.
var criticalSpecs = []string{"resolution", "hdmi", "power", "channels"}

// versionNumberRegex parses version-like strings ("2.1", "5.3") for ordering
var versionNumberRegex = regexp.MustCompile(`(\d+)\.?(\d+)?`)

// leadingFloatRegex pulls the leading numeric part of values like "7.1.2"
var leadingFloatRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)

// SpecExtractor extracts normalized technical attributes from free-text
// product titles and descriptions
type SpecExtractor struct {
	enableDebugLogging bool
}

// NewSpecExtractor creates a new spec extractor
func NewSpecExtractor(enableDebugLogging bool) *SpecExtractor {
	return &SpecExtractor{enableDebugLogging: enableDebugLogging}
}

// Extract applies the pattern tables to the given text and returns the
// attributes that matched. Unmatched attributes are absent from the result.
func (e *SpecExtractor) Extract(text string) domain.NormalizedSpecs {
	specs := make(domain.NormalizedSpecs)

	for attr, patterns := range specPatterns {
		if value, ok := extractAttribute(text, patterns); ok {
			specs[attr] = value
		}
	}

	if e.enableDebugLogging {
		log.Printf("[SPECS] Extracted %d/%d attributes from %q", len(specs), len(specPatterns), truncateText(text, 60))
	}

	return specs
}

// Normalize returns a copy of the product with NormalizedSpecs and
// ExtractionConfidence populated from its title and description. Products
// that already carry specs are returned unchanged.
func (e *SpecExtractor) Normalize(p domain.Product) domain.Product {
	if len(p.NormalizedSpecs) > 0 {
		return p
	}

	text := p.Title
	if p.Description != "" {
		text += " " + p.Description
	}

	p.NormalizedSpecs = e.Extract(text)
	p.ExtractionConfidence = extractionConfidence(p.NormalizedSpecs)
	return p
}

// NormalizeAll normalizes a batch of products
func (e *SpecExtractor) NormalizeAll(products []domain.Product) []domain.Product {
	normalized := make([]domain.Product, len(products))
	for i, p := range products {
		normalized[i] = e.Normalize(p)
	}
	return normalized
}

// extractAttribute tries each pattern in order; the first match wins
func extractAttribute(text string, patterns []specPattern) (domain.SpecValue, bool) {
	for _, p := range patterns {
		match := p.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		switch p.kind {
		case patternLiteral:
			return domain.SpecValue{Kind: domain.SpecText, Text: p.value}, true

		case patternText:
			return domain.SpecValue{Kind: domain.SpecText, Text: p.prefix + match[1]}, true

		case patternNumber:
			n, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			if p.scale != 0 {
				n *= p.scale
			}
			return domain.SpecValue{Kind: domain.SpecNumber, Number: n}, true

		case patternMeasure:
			n, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			if p.scale != 0 {
				n *= p.scale
			}
			return domain.SpecValue{Kind: domain.SpecMeasure, Number: n, Unit: p.unit}, true

		case patternRange:
			lo, err1 := strconv.ParseFloat(match[1], 64)
			hi, err2 := strconv.ParseFloat(match[2], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			return domain.SpecValue{Kind: domain.SpecRange, Min: lo, Max: hi, Unit: p.unit}, true

		case patternDims:
			w, err1 := strconv.ParseFloat(match[1], 64)
			h, err2 := strconv.ParseFloat(match[2], 64)
			d, err3 := strconv.ParseFloat(match[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				continue
			}
			return domain.SpecValue{Kind: domain.SpecDimensions, Width: w, Height: h, Depth: d}, true
		}
	}

	return domain.SpecValue{}, false
}

// extractionConfidence scores how much of the pattern table was extracted,
// with a bonus (up to +0.2) for covering the critical attribute subset.
// Always in [0,1].
func extractionConfidence(specs domain.NormalizedSpecs) float64 {
	base := float64(len(specs)) / float64(len(specPatterns))

	critical := 0
	for _, attr := range criticalSpecs {
		if _, ok := specs[attr]; ok {
			critical++
		}
	}
	bonus := float64(critical) / float64(len(criticalSpecs)) * 0.2

	confidence := base + bonus
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// SpecComparison classifies how two products relate on one attribute
type SpecComparison string

const (
	SpecCompatible   SpecComparison = "compatible"
	SpecIncompatible SpecComparison = "incompatible"
	SpecWarning      SpecComparison = "warning"
	SpecUnknown      SpecComparison = "unknown"
)

// CompareSpec compares two products on a single attribute:
//   - version-like text: A compatible with B when A's version >= B's
//     (backward compatibility assumption)
//   - numbers: equal => compatible, unequal => warning (presumed non-fatal)
//   - ranges: compatible iff the ranges overlap
//   - missing data on either side => unknown
func CompareSpec(a, b domain.Product, attr string) SpecComparison {
	va, okA := a.NormalizedSpecs[attr]
	vb, okB := b.NormalizedSpecs[attr]
	if !okA || !okB {
		return SpecUnknown
	}

	switch {
	case va.Kind == domain.SpecText && vb.Kind == domain.SpecText:
		verA, ok1 := parseVersionNumber(va.Text)
		verB, ok2 := parseVersionNumber(vb.Text)
		if ok1 && ok2 {
			if verA >= verB {
				return SpecCompatible
			}
			return SpecIncompatible
		}

	case isNumericSpec(va) && isNumericSpec(vb):
		if va.Number == vb.Number {
			return SpecCompatible
		}
		return SpecWarning

	case va.Kind == domain.SpecRange && vb.Kind == domain.SpecRange:
		if va.Max >= vb.Min && vb.Max >= va.Min {
			return SpecCompatible
		}
		return SpecIncompatible
	}

	return SpecUnknown
}

func isNumericSpec(v domain.SpecValue) bool {
	return v.Kind == domain.SpecNumber || v.Kind == domain.SpecMeasure
}

// parseVersionNumber converts "2.1" to 21, "5.3" to 53. Minor defaults to 0.
func parseVersionNumber(s string) (int, bool) {
	match := versionNumberRegex.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}

	major, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	minor := 0
	if match[2] != "" {
		minor, err = strconv.Atoi(match[2])
		if err != nil {
			return 0, false
		}
	}

	return major*10 + minor, true
}

// parseLeadingFloat reads the leading numeric portion of strings like
// "7.1.2" (-> 7.1) or "5.1" (-> 5.1)
func parseLeadingFloat(s string) (float64, bool) {
	match := leadingFloatRegex.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
