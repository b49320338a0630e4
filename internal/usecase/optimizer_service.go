package usecase

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bundleup/backend/internal/domain"
)

// Scoring defaults. The weight defaults are the canonical ones; callers
// override them through config or per request.
var defaultWeights = domain.Weights{
	Price:         0.35,
	Quality:       0.25,
	Compatibility: 0.30,
	Availability:  0.10,
}

const (
	defaultTargetPrice    = 750.0
	defaultPriceSpread    = 200.0
	defaultMaxResults     = 10
	defaultScoringWorkers = 4
	fullWeightReviews     = 100.0 // review count for full quality weight
)

// OptimizerConfig holds configuration for the optimizer service
type OptimizerConfig struct {
	Weights        domain.Weights
	TargetPrice    float64
	PriceSpread    float64
	MaxResults     int
	ScoringWorkers int
	Quality        domain.QualitySource
}

// OptimizerService scores bundles on price/quality/compatibility/
// availability, filters dominated bundles and ranks the rest.
type OptimizerService struct {
	weights        domain.Weights
	targetPrice    float64
	priceSpread    float64
	maxResults     int
	scoringWorkers int
	quality        domain.QualitySource
}

// NewOptimizerService creates an optimizer with the given configuration,
// falling back to defaults for unset values
func NewOptimizerService(config OptimizerConfig) *OptimizerService {
	weights := config.Weights
	if weights.IsZero() {
		weights = defaultWeights
	}

	targetPrice := config.TargetPrice
	if targetPrice <= 0 {
		targetPrice = defaultTargetPrice
	}

	priceSpread := config.PriceSpread
	if priceSpread <= 0 {
		priceSpread = defaultPriceSpread
	}

	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	workers := config.ScoringWorkers
	if workers <= 0 {
		workers = defaultScoringWorkers
	}

	return &OptimizerService{
		weights:        weights,
		targetPrice:    targetPrice,
		priceSpread:    priceSpread,
		maxResults:     maxResults,
		scoringWorkers: workers,
		quality:        config.Quality,
	}
}

// scoredBundle carries the per-bundle scoring state through filtering and
// ranking. genIndex is the bundle's position in generation order and serves
// as the final tie-break key.
type scoredBundle struct {
	bundle   domain.Bundle
	scores   domain.ObjectiveScores
	report   *domain.CompatibilityReport
	genIndex int
}

// RankBundles scores every bundle, removes Pareto-dominated ones, sorts the
// remainder by total score and returns the annotated top bundles with
// rank 1..N. Scoring is a pure function of each bundle, so it is spread
// across workers without affecting the result.
//
// Ordering is deterministic: total score descending, then total price
// ascending, then generation order.
func (s *OptimizerService) RankBundles(
	ctx context.Context,
	bundles []domain.Bundle,
	compat *CompatibilityService,
	weights *domain.Weights,
) ([]domain.RankedBundle, error) {
	if len(bundles) == 0 {
		return []domain.RankedBundle{}, nil
	}

	w := s.weights
	if weights != nil && !weights.IsZero() {
		w = *weights
	}

	scored := make([]scoredBundle, len(bundles))

	// Bundles sharing a product set share one compatibility report
	var reportMu sync.Mutex
	reports := make(map[string]*domain.CompatibilityReport)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.scoringWorkers)

	for i := range bundles {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			bundle := bundles[i]
			report := memoizedReport(bundle, compat, &reportMu, reports)
			scored[i] = scoredBundle{
				bundle:   bundle,
				scores:   s.scoreBundle(gCtx, bundle, report, w),
				report:   report,
				genIndex: i,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	retained := paretoFilter(scored)

	sort.SliceStable(retained, func(i, j int) bool {
		if retained[i].scores.Total != retained[j].scores.Total {
			return retained[i].scores.Total > retained[j].scores.Total
		}
		if retained[i].bundle.TotalPrice != retained[j].bundle.TotalPrice {
			return retained[i].bundle.TotalPrice < retained[j].bundle.TotalPrice
		}
		return retained[i].genIndex < retained[j].genIndex
	})

	if len(retained) > s.maxResults {
		retained = retained[:s.maxResults]
	}

	ranked := make([]domain.RankedBundle, len(retained))
	for i, sb := range retained {
		ranked[i] = domain.RankedBundle{
			Bundle:        sb.bundle,
			Scores:        sb.scores,
			Rank:          i + 1,
			Explanation:   buildExplanation(sb.scores),
			Tradeoffs:     buildTradeoffs(sb.scores),
			Compatibility: sb.report,
		}
	}
	attachRecommendations(ranked)

	return ranked, nil
}

func memoizedReport(
	bundle domain.Bundle,
	compat *CompatibilityService,
	mu *sync.Mutex,
	reports map[string]*domain.CompatibilityReport,
) *domain.CompatibilityReport {
	key := productSetKey(bundle)

	mu.Lock()
	report, ok := reports[key]
	mu.Unlock()
	if ok {
		return report
	}

	report = compat.CheckCompatibility(bundleProducts(bundle))

	mu.Lock()
	reports[key] = report
	mu.Unlock()
	return report
}

// bundleProducts returns the bundle's products in category order, so rule
// evaluation sees pairs in a deterministic orientation
func bundleProducts(bundle domain.Bundle) []domain.Product {
	categories := make([]string, 0, len(bundle.Products))
	for category := range bundle.Products {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	products := make([]domain.Product, len(categories))
	for i, category := range categories {
		products[i] = bundle.Products[category]
	}
	return products
}

func productSetKey(bundle domain.Bundle) string {
	ids := make([]string, 0, len(bundle.Products))
	for _, p := range bundle.Products {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// scoreBundle computes the four objective scores plus the weighted total.
// The total is the exact weighted sum of the stored component scores.
func (s *OptimizerService) scoreBundle(ctx context.Context, bundle domain.Bundle, report *domain.CompatibilityReport, w domain.Weights) domain.ObjectiveScores {
	products := bundleProducts(bundle)

	scores := domain.ObjectiveScores{
		Price:         s.priceScore(bundle.TotalPrice),
		Quality:       qualityScore(s.applyQualitySignals(ctx, products)),
		Compatibility: report.CompatibilityScore,
		Availability:  availabilityScore(products),
	}

	scores.Total = scores.Price*w.Price +
		scores.Quality*w.Quality +
		scores.Compatibility*w.Compatibility +
		scores.Availability*w.Availability

	return scores
}

// applyQualitySignals overlays store-provided quality signals on the
// ratings embedded in the listings. Products the store does not know keep
// their own rating.
func (s *OptimizerService) applyQualitySignals(ctx context.Context, products []domain.Product) []domain.Product {
	if s.quality == nil {
		return products
	}

	out := make([]domain.Product, len(products))
	copy(out, products)
	for i := range out {
		if signal, ok := s.quality.QualitySignal(ctx, out[i].ID); ok {
			out[i].Rating = signal.Rating
			out[i].Reviews = signal.Reviews
		}
	}
	return out
}

// priceScore normalizes total bundle price on a sigmoid centered at the
// target price: cheaper bundles approach 1, expensive ones approach 0.
func (s *OptimizerService) priceScore(totalPrice float64) float64 {
	score := 1 / (1 + math.Exp((totalPrice-s.targetPrice)/s.priceSpread))
	return round2(score)
}

// qualityScore averages ratings normalized to [0,1], each weighted by a
// review-count confidence factor. Products without quality signals are
// excluded; a bundle with none scores a neutral 0.5.
func qualityScore(products []domain.Product) float64 {
	rated := 0
	sum := 0.0
	for _, p := range products {
		if !p.HasRating() {
			continue
		}
		reviewWeight := math.Min(float64(p.Reviews)/fullWeightReviews, 1)
		sum += p.Rating * reviewWeight
		rated++
	}

	if rated == 0 {
		return 0.5
	}

	avgRating := sum / float64(rated)
	return round2(avgRating / 5)
}

// availabilityScore is the fraction of the bundle's products that are in
// stock
func availabilityScore(products []domain.Product) float64 {
	if len(products) == 0 {
		return 0
	}

	available := 0
	for _, p := range products {
		if p.InStock() {
			available++
		}
	}
	return round2(float64(available) / float64(len(products)))
}

// paretoFilter retains the bundles not dominated by any bundle in the
// original candidate set. A dominates B when A scores >= B on every
// objective and > on at least one. Filtering an already Pareto-optimal set
// returns it unchanged.
func paretoFilter(candidates []scoredBundle) []scoredBundle {
	retained := make([]scoredBundle, 0, len(candidates))
	for i := range candidates {
		dominated := false
		for j := range candidates {
			if i == j {
				continue
			}
			if dominates(candidates[j].scores, candidates[i].scores) {
				dominated = true
				break
			}
		}
		if !dominated {
			retained = append(retained, candidates[i])
		}
	}
	return retained
}

func dominates(a, b domain.ObjectiveScores) bool {
	if a.Price < b.Price || a.Quality < b.Quality ||
		a.Compatibility < b.Compatibility || a.Availability < b.Availability {
		return false
	}
	return a.Price > b.Price || a.Quality > b.Quality ||
		a.Compatibility > b.Compatibility || a.Availability > b.Availability
}

// Explanation thresholds are fixed so output is deterministic and testable
func buildExplanation(s domain.ObjectiveScores) string {
	var strengths []string

	if s.Price > 0.8 {
		strengths = append(strengths, "excellent value")
	}
	if s.Quality > 0.8 {
		strengths = append(strengths, "highly rated components")
	}
	if s.Compatibility == 1.0 {
		strengths = append(strengths, "fully compatible")
	}
	if s.Availability == 1.0 {
		strengths = append(strengths, "all items in stock")
	}

	if len(strengths) == 0 {
		return "Balanced option across price, quality, and compatibility"
	}

	sentence := strings.Join(strengths, ", ")
	return strings.ToUpper(sentence[:1]) + sentence[1:]
}

func buildTradeoffs(s domain.ObjectiveScores) string {
	var tradeoffs []string

	if s.Price < 0.5 && s.Quality > 0.7 {
		tradeoffs = append(tradeoffs, "Higher price for better quality")
	}
	if s.Quality < 0.5 && s.Price > 0.7 {
		tradeoffs = append(tradeoffs, "Lower cost at the expense of ratings")
	}
	if s.Compatibility < 0.7 {
		tradeoffs = append(tradeoffs, "Compatibility warnings to review")
	}
	if s.Availability < 1.0 {
		tradeoffs = append(tradeoffs, "Some items may be out of stock")
	}

	if len(tradeoffs) == 0 {
		return "No significant tradeoffs"
	}
	return strings.Join(tradeoffs, "; ")
}

// attachRecommendations labels the rank-1 bundle as the top pick, the
// cheapest as best value and the highest-quality as premium choice. Each
// bundle gets at most one label.
func attachRecommendations(ranked []domain.RankedBundle) {
	if len(ranked) == 0 {
		return
	}

	ranked[0].Recommendation = "Top Pick"

	cheapest, premium := 0, 0
	for i := range ranked {
		if ranked[i].TotalPrice < ranked[cheapest].TotalPrice {
			cheapest = i
		}
		if ranked[i].Scores.Quality > ranked[premium].Scores.Quality {
			premium = i
		}
	}

	if ranked[cheapest].Recommendation == "" {
		ranked[cheapest].Recommendation = "Best Value"
	}
	if ranked[premium].Recommendation == "" {
		ranked[premium].Recommendation = "Premium Choice"
	}
}

// BuildInsights aggregates statistics across the ranked bundle set
func (s *OptimizerService) BuildInsights(ranked []domain.RankedBundle) *domain.Insights {
	if len(ranked) == 0 {
		return nil
	}

	insights := &domain.Insights{
		PriceRange:   scoreRange(ranked, func(b domain.RankedBundle) float64 { return b.TotalPrice }),
		QualityRange: scoreRange(ranked, func(b domain.RankedBundle) float64 { return b.Scores.Quality }),
	}

	retailerCounts := make(map[string]int)
	distinct := make(map[string]bool)
	componentsPerBundle := 0
	for _, bundle := range ranked {
		if componentsPerBundle == 0 {
			componentsPerBundle = len(bundle.Products)
		}
		for _, p := range bundle.Products {
			retailerCounts[p.Retailer]++
			distinct[p.ID] = true
		}
	}

	insights.TopRetailers = topRetailers(retailerCounts, 3)

	if componentsPerBundle > 0 {
		insights.DiversityScore = round2(float64(len(distinct)) / float64(len(ranked)*componentsPerBundle))
	}

	return insights
}

func scoreRange(ranked []domain.RankedBundle, metric func(domain.RankedBundle) float64) domain.ScoreRange {
	r := domain.ScoreRange{Min: metric(ranked[0]), Max: metric(ranked[0])}

	sum := 0.0
	for _, bundle := range ranked {
		v := metric(bundle)
		sum += v
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	r.Average = round2(sum / float64(len(ranked)))
	return r
}

func topRetailers(counts map[string]int, limit int) []domain.RetailerCount {
	retailers := make([]domain.RetailerCount, 0, len(counts))
	for retailer, count := range counts {
		retailers = append(retailers, domain.RetailerCount{Retailer: retailer, Count: count})
	}

	sort.Slice(retailers, func(i, j int) bool {
		if retailers[i].Count != retailers[j].Count {
			return retailers[i].Count > retailers[j].Count
		}
		return retailers[i].Retailer < retailers[j].Retailer
	})

	if len(retailers) > limit {
		retailers = retailers[:limit]
	}
	return retailers
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
