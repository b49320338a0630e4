package usecase

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/bundleup/backend/internal/domain"
)

// Household circuit budget used by the collective power rule:
// 15A @ 120V = 1800W, with an 80% continuous-load safety margin.
const (
	circuitLimitWatts = 1800.0
	safeLimitWatts    = circuitLimitWatts * 0.8 // 1440W
	warnLimitWatts    = circuitLimitWatts * 0.6 // 1080W
)

// pairwiseRule evaluates one rule over a product pair. A nil result means
// the rule does not apply to this pair and must not affect any counts.
type pairwiseRule func(a, b domain.Product) *domain.RuleResult

// collectiveRule evaluates one rule over the whole product set at once
type collectiveRule func(products []domain.Product) *domain.RuleResult

// Rule logic is registered here keyed by stable rule id; definitions loaded
// from the rule store only toggle and name what is registered.
var (
	pairwiseHandlers = map[string]pairwiseRule{
		"hdmi_version":            checkHDMIVersion,
		"hdmi_cable":              checkHDMICable,
		"impedance_match":         checkImpedanceMatch,
		"physical_fit":            checkPhysicalFit,
		"wifi_compatibility":      checkWiFi,
		"bluetooth_compatibility": checkBluetooth,
		"usb_compatibility":       checkUSB,
		"audio_channels":          checkAudioChannels,
		"resolution_refresh":      checkResolutionRefresh,
	}

	collectiveHandlers = map[string]collectiveRule{
		"power_total": checkTotalPower,
	}
)

// DefaultRuleDefinitions returns the built-in rule set in evaluation order
func DefaultRuleDefinitions() []domain.RuleDefinition {
	return []domain.RuleDefinition{
		{ID: "hdmi_version", Name: "HDMI Version Compatibility", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "hdmi_cable", Name: "HDMI Cable Requirements", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "impedance_match", Name: "Speaker Impedance Matching", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "power_total", Name: "Total Power Consumption", Arity: domain.ArityCollective, Enabled: true},
		{ID: "physical_fit", Name: "Physical Compatibility", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "wifi_compatibility", Name: "WiFi Network Compatibility", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "bluetooth_compatibility", Name: "Bluetooth Compatibility", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "usb_compatibility", Name: "USB Compatibility", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "audio_channels", Name: "Audio Channel Configuration", Arity: domain.ArityPairwise, Enabled: true},
		{ID: "resolution_refresh", Name: "Resolution & Refresh Rate Support", Arity: domain.ArityPairwise, Enabled: true},
	}
}

// CompatibilityService evaluates the rule set over product sets
type CompatibilityService struct {
	defs             []domain.RuleDefinition
	rulesUnavailable bool
}

// NewCompatibilityService creates a service with the given rule definitions.
// A nil slice selects the built-in defaults; an empty or fully-disabled set
// is remembered as "rules unavailable" so vacuously perfect reports remain
// distinguishable.
func NewCompatibilityService(defs []domain.RuleDefinition) *CompatibilityService {
	if defs == nil {
		defs = DefaultRuleDefinitions()
	}

	enabled := 0
	for _, d := range defs {
		if d.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		log.Printf("[COMPAT] No enabled compatibility rules; reports will be vacuous")
	}

	return &CompatibilityService{
		defs:             defs,
		rulesUnavailable: enabled == 0,
	}
}

// RulesUnavailable reports whether the service is running without any
// enabled rules
func (s *CompatibilityService) RulesUnavailable() bool {
	return s.rulesUnavailable
}

// CheckCompatibility evaluates every enabled rule: pairwise rules over every
// unordered product pair, collective rules once over the whole set. Missing
// or malformed spec data makes a rule inapplicable, never a failure.
func (s *CompatibilityService) CheckCompatibility(products []domain.Product) *domain.CompatibilityReport {
	report := &domain.CompatibilityReport{
		Issues:           []domain.Finding{},
		Warnings:         []domain.Finding{},
		Passes:           []domain.Finding{},
		RulesUnavailable: s.rulesUnavailable,
		CheckedAt:        time.Now().UTC(),
	}

	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			for _, def := range s.defs {
				if !def.Enabled || def.Arity != domain.ArityPairwise {
					continue
				}
				handler, ok := pairwiseHandlers[def.ID]
				if !ok {
					continue
				}

				result := handler(products[i], products[j])
				if result == nil {
					continue
				}
				s.record(report, def, result, products[i].Title, products[j].Title)
			}
		}
	}

	for _, def := range s.defs {
		if !def.Enabled || def.Arity != domain.ArityCollective {
			continue
		}
		handler, ok := collectiveHandlers[def.ID]
		if !ok {
			continue
		}

		result := handler(products)
		if result == nil {
			continue
		}
		s.record(report, def, result, "", "")
	}

	report.CompatibilityScore = compatibilityScore(report)
	report.Compatible = len(report.Issues) == 0

	return report
}

func (s *CompatibilityService) record(report *domain.CompatibilityReport, def domain.RuleDefinition, result *domain.RuleResult, titleA, titleB string) {
	finding := domain.Finding{
		Rule:           def.Name,
		ProductA:       titleA,
		ProductB:       titleB,
		Issue:          result.Message,
		Recommendation: result.Recommendation,
	}

	switch result.Status {
	case domain.StatusError:
		report.Issues = append(report.Issues, finding)
	case domain.StatusWarning:
		report.Warnings = append(report.Warnings, finding)
	case domain.StatusPass:
		report.Passes = append(report.Passes, domain.Finding{Rule: def.Name})
	}
}

// compatibilityScore weights PASS=1.0, WARNING=0.5, ERROR=0.0 over all
// recorded checks; 1.0 when nothing applied. Rounded to two decimals.
func compatibilityScore(report *domain.CompatibilityReport) float64 {
	total := len(report.Issues) + len(report.Warnings) + len(report.Passes)
	if total == 0 {
		return 1.0
	}

	score := (float64(len(report.Passes)) + 0.5*float64(len(report.Warnings))) / float64(total)
	return math.Round(score*100) / 100
}

// ---- spec accessors ----

func specText(p domain.Product, attr string) (string, bool) {
	v, ok := p.NormalizedSpecs[attr]
	if !ok || v.Kind != domain.SpecText {
		return "", false
	}
	return v.Text, true
}

// specNumber returns the numeric value of a number or measure attribute
func specNumber(p domain.Product, attr string) (float64, bool) {
	v, ok := p.NormalizedSpecs[attr]
	if !ok {
		return 0, false
	}
	if v.Kind != domain.SpecNumber && v.Kind != domain.SpecMeasure {
		return 0, false
	}
	return v.Number, true
}

func specDimensions(p domain.Product, attr string) (domain.SpecValue, bool) {
	v, ok := p.NormalizedSpecs[attr]
	if !ok || v.Kind != domain.SpecDimensions {
		return domain.SpecValue{}, false
	}
	return v, true
}

func titleContains(p domain.Product, word string) bool {
	return strings.Contains(strings.ToLower(p.Title), word)
}

// ---- rule handlers ----

func checkHDMIVersion(a, b domain.Product) *domain.RuleResult {
	hdmiA, okA := specText(a, "hdmi")
	hdmiB, okB := specText(b, "hdmi")
	if !okA || !okB {
		return nil
	}

	verA, okA := parseLeadingFloat(hdmiA)
	verB, okB := parseLeadingFloat(hdmiB)
	if !okA || !okB {
		return nil
	}
	minVersion := math.Min(verA, verB)

	resA, _ := specText(a, "resolution")
	resB, _ := specText(b, "resolution")
	if minVersion < 2.0 && (resA == "4K" || resB == "4K") {
		needs4K, other := a, b
		if resB == "4K" {
			needs4K, other = b, a
		}
		return &domain.RuleResult{
			Status: domain.StatusError,
			Message: fmt.Sprintf("HDMI version mismatch: %s requires HDMI 2.0+ for 4K, but %s has HDMI %g",
				needs4K.Title, other.Title, minVersion),
			Recommendation: "Upgrade to HDMI 2.0 or higher for full 4K support",
		}
	}

	maxRefresh := 0.0
	if r, ok := specNumber(a, "refreshRate"); ok && r > maxRefresh {
		maxRefresh = r
	}
	if r, ok := specNumber(b, "refreshRate"); ok && r > maxRefresh {
		maxRefresh = r
	}
	if minVersion < 2.1 && maxRefresh > 60 {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("HDMI 2.1 recommended for %gHz refresh rate", maxRefresh),
			Recommendation: "Consider HDMI 2.1 for best performance",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

func checkHDMICable(a, b domain.Product) *domain.RuleResult {
	hdmiA, okA := specText(a, "hdmi")
	hdmiB, okB := specText(b, "hdmi")
	if !okA || !okB {
		return nil
	}

	verA, okA := parseLeadingFloat(hdmiA)
	verB, okB := parseLeadingFloat(hdmiB)
	if !okA || !okB {
		return nil
	}

	if math.Max(verA, verB) >= 2.1 {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        "HDMI 2.1 requires Ultra High Speed cables",
			Recommendation: "Purchase certified Ultra High Speed HDMI cables (48Gbps)",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

// Mismatched impedance is usable with caveats, so a warning rather than an
// error.
func checkImpedanceMatch(a, b domain.Product) *domain.RuleResult {
	impA, okA := specNumber(a, "impedance")
	impB, okB := specNumber(b, "impedance")
	if !okA || !okB {
		return nil
	}

	if impA != impB {
		return &domain.RuleResult{
			Status: domain.StatusWarning,
			Message: fmt.Sprintf("Impedance mismatch: %s (%gΩ) and %s (%gΩ)",
				a.Title, impA, b.Title, impB),
			Recommendation: "Ensure amplifier supports both impedances or match impedance ratings",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

func checkTotalPower(products []domain.Product) *domain.RuleResult {
	total := 0.0
	rated := 0
	for _, p := range products {
		if watts, ok := specNumber(p, "power"); ok {
			total += watts
			rated++
		}
	}
	if rated == 0 {
		return nil
	}

	if total > safeLimitWatts {
		return &domain.RuleResult{
			Status: domain.StatusError,
			Message: fmt.Sprintf("Total power consumption (%gW) exceeds safe circuit limit (%gW)",
				total, safeLimitWatts),
			Recommendation: "Distribute devices across multiple circuits or reduce total power draw",
		}
	}

	if total > warnLimitWatts {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("Total power consumption (%gW) is high", total),
			Recommendation: "Consider dedicated circuit or power management",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

func checkPhysicalFit(a, b domain.Product) *domain.RuleResult {
	var soundbar, tv domain.Product
	switch {
	case titleContains(a, "soundbar") && titleContains(b, "tv"):
		soundbar, tv = a, b
	case titleContains(b, "soundbar") && titleContains(a, "tv"):
		soundbar, tv = b, a
	default:
		return nil
	}

	dimsSB, okA := specDimensions(soundbar, "dimensions")
	dimsTV, okB := specDimensions(tv, "dimensions")
	if !okA || !okB {
		return nil
	}

	if dimsSB.Width > dimsTV.Width {
		return &domain.RuleResult{
			Status: domain.StatusWarning,
			Message: fmt.Sprintf("Soundbar width (%g\") exceeds TV width (%g\")",
				dimsSB.Width, dimsTV.Width),
			Recommendation: "Soundbar will extend beyond TV edges",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

func checkWiFi(a, b domain.Product) *domain.RuleResult {
	wifiA, okA := specText(a, "wifi")
	wifiB, okB := specText(b, "wifi")
	if !okA || !okB {
		return nil
	}

	supports6GHz := func(v string) bool { return v == "WiFi 6E" || v == "WiFi 7" }

	if supports6GHz(wifiA) != supports6GHz(wifiB) {
		newer, older := a.Title, wifiB
		if supports6GHz(wifiB) {
			newer, older = b.Title, wifiA
		}
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("%s supports WiFi 6E but the paired device only supports %s", newer, older),
			Recommendation: "Device will work but won't utilize 6GHz band",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

// Bluetooth is backward compatible; only a large version gap is worth
// flagging.
func checkBluetooth(a, b domain.Product) *domain.RuleResult {
	btA, okA := specText(a, "bluetooth")
	btB, okB := specText(b, "bluetooth")
	if !okA || !okB {
		return nil
	}

	verA, okA := parseLeadingFloat(btA)
	verB, okB := parseLeadingFloat(btB)
	if !okA || !okB {
		return nil
	}

	if math.Abs(verA-verB) > 2.0 {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("Large Bluetooth version gap: %s and %s", btA, btB),
			Recommendation: "Devices will connect but may not support latest features",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

func checkUSB(a, b domain.Product) *domain.RuleResult {
	usbA, okA := specText(a, "usb")
	usbB, okB := specText(b, "usb")
	if !okA || !okB {
		return nil
	}

	if usbA == "USB-C" && !strings.Contains(usbB, "USB-C") {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("%s requires USB-C but %s uses %s", a.Title, b.Title, usbB),
			Recommendation: "Use USB-C adapter or different cable",
		}
	}
	if usbB == "USB-C" && !strings.Contains(usbA, "USB-C") {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("%s requires USB-C but %s uses %s", b.Title, a.Title, usbA),
			Recommendation: "Use USB-C adapter or different cable",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

func checkAudioChannels(a, b domain.Product) *domain.RuleResult {
	chA, okA := specText(a, "channels")
	chB, okB := specText(b, "channels")
	if !okA || !okB {
		return nil
	}

	var receiverCh, speakerCh string
	switch {
	case titleContains(a, "receiver"):
		receiverCh, speakerCh = chA, chB
	case titleContains(b, "receiver"):
		receiverCh, speakerCh = chB, chA
	default:
		return nil
	}

	recv, okA := parseLeadingFloat(receiverCh)
	spk, okB := parseLeadingFloat(speakerCh)
	if !okA || !okB {
		return nil
	}

	if spk > recv {
		return &domain.RuleResult{
			Status:         domain.StatusError,
			Message:        fmt.Sprintf("Receiver supports %s but speakers require %s", receiverCh, speakerCh),
			Recommendation: "Upgrade receiver or reduce speaker configuration",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}

// checkResolutionRefresh treats the first product of the pair as the source
// and the second as the display; pair order follows category order.
func checkResolutionRefresh(a, b domain.Product) *domain.RuleResult {
	resA, okA := specText(a, "resolution")
	resB, okB := specText(b, "resolution")
	if !okA || !okB {
		return nil
	}

	sourceIs4K := resA == "4K" || resA == "8K"
	displayIs4K := resB == "4K" || resB == "8K"

	if sourceIs4K && !displayIs4K {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("Source outputs %s but display only supports %s", resA, resB),
			Recommendation: "Display will downscale to native resolution",
		}
	}

	refreshA, okA := specNumber(a, "refreshRate")
	refreshB, okB := specNumber(b, "refreshRate")
	if okA && okB && refreshA > refreshB {
		return &domain.RuleResult{
			Status:         domain.StatusWarning,
			Message:        fmt.Sprintf("Source outputs %gHz but display only supports %gHz", refreshA, refreshB),
			Recommendation: "Display will limit refresh rate",
		}
	}

	return &domain.RuleResult{Status: domain.StatusPass}
}
