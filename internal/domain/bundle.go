package domain

// Bundle is one complete selection of products, exactly one per category.
// Created by the bundle generator; annotated by the optimizer; never mutated
// after ranking.
type Bundle struct {
	Products   map[string]Product `json:"bundle"` // category -> chosen product
	TotalPrice float64            `json:"totalPrice"`
}

// Weights control the contribution of each objective to the total score.
// They should sum to 1 so the total stays bounded in [0,1].
type Weights struct {
	Price         float64 `json:"price"`
	Quality       float64 `json:"quality"`
	Compatibility float64 `json:"compatibility"`
	Availability  float64 `json:"availability"`
}

// IsZero reports whether no weight has been set
func (w Weights) IsZero() bool {
	return w.Price == 0 && w.Quality == 0 && w.Compatibility == 0 && w.Availability == 0
}

// Sum returns the total of all four weights
func (w Weights) Sum() float64 {
	return w.Price + w.Quality + w.Compatibility + w.Availability
}

// ObjectiveScores holds the per-objective scores for one bundle, each in
// [0,1], plus the weighted total.
type ObjectiveScores struct {
	Price         float64 `json:"price"`
	Quality       float64 `json:"quality"`
	Compatibility float64 `json:"compatibility"`
	Availability  float64 `json:"availability"`
	Total         float64 `json:"total"`
}

// RankedBundle is a bundle annotated with scores, rank and deterministic
// rule-based explanations.
type RankedBundle struct {
	Bundle
	Scores         ObjectiveScores      `json:"scores"`
	Rank           int                  `json:"rank"`
	Explanation    string               `json:"explanation"`
	Tradeoffs      string               `json:"tradeoffs"`
	Recommendation string               `json:"recommendation,omitempty"`
	Compatibility  *CompatibilityReport `json:"compatibility,omitempty"`
}

// ScoreRange summarizes min/max/average of one metric across bundles
type ScoreRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// RetailerCount is one entry of the retailer frequency table
type RetailerCount struct {
	Retailer string `json:"retailer"`
	Count    int    `json:"count"`
}

// Insights aggregates statistics across the ranked bundle set.
// DiversityScore = distinct products used / (bundles x components per
// bundle); 1.0 means every bundle uses entirely different products.
type Insights struct {
	PriceRange     ScoreRange      `json:"priceRange"`
	QualityRange   ScoreRange      `json:"qualityRange"`
	TopRetailers   []RetailerCount `json:"topRetailers,omitempty"`
	DiversityScore float64         `json:"diversityScore"`
}

// OptimizationResult is the full output of the optimize operation. Degraded
// paths (rule table unavailable, failed category searches) and combinatorial
// truncation are reported here rather than raised as errors, so the caller
// can render partial results with a warning.
type OptimizationResult struct {
	Bundles         []RankedBundle `json:"optimizedBundles"`
	Insights        *Insights      `json:"insights,omitempty"`
	Degraded        bool           `json:"degraded,omitempty"`
	Truncated       bool           `json:"truncated,omitempty"`
	ConsideredCount int            `json:"consideredCount"`
	TotalPossible   int            `json:"totalPossible"`
}
