package domain

import "time"

// RuleStatus is the outcome of a single rule evaluation
type RuleStatus string

const (
	StatusPass    RuleStatus = "PASS"
	StatusWarning RuleStatus = "WARNING"
	StatusError   RuleStatus = "ERROR"
)

// RuleArity tags how a rule is dispatched by the engine
type RuleArity string

const (
	ArityPairwise   RuleArity = "pairwise"   // evaluated for every unordered product pair
	ArityCollective RuleArity = "collective" // evaluated once over the whole product set
)

// RuleDefinition describes one compatibility rule as data. The rule's logic
// lives in a registered handler keyed by ID; the definition controls whether
// and how the engine dispatches it.
type RuleDefinition struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Arity   RuleArity `json:"arity"`
	Enabled bool      `json:"enabled"`
}

// RuleResult is what a rule handler returns. A nil result means the rule is
// not applicable to the given products and must not affect any counts.
type RuleResult struct {
	Status         RuleStatus `json:"status"`
	Message        string     `json:"message,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
}

// Finding is one recorded rule evaluation in a compatibility report
type Finding struct {
	Rule           string `json:"rule"`
	ProductA       string `json:"productA,omitempty"`
	ProductB       string `json:"productB,omitempty"`
	Issue          string `json:"issue,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// CompatibilityReport is the result of checking one product set.
// Compatible is true iff Issues is empty. CompatibilityScore is
// (passes + 0.5*warnings) / totalChecks, 1.0 when no rule applied.
type CompatibilityReport struct {
	Compatible         bool      `json:"compatible"`
	CompatibilityScore float64   `json:"compatibilityScore"`
	Issues             []Finding `json:"issues"`
	Warnings           []Finding `json:"warnings"`
	Passes             []Finding `json:"passes"`
	RulesUnavailable   bool      `json:"rulesUnavailable,omitempty"`
	CheckedAt          time.Time `json:"checkedAt"`
}
