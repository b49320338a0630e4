package usecase

import (
	"context"
	"log"
	"sort"

	"github.com/bundleup/backend/internal/domain"
)

// defaultMaxCombinations bounds the combinatorial space of bundles
const defaultMaxCombinations = 1000

// GenerationResult is the bundle generator's output. When the true cartesian
// product exceeds the cap, Bundles holds the first maxCombinations
// combinations in generation order and Truncated is set.
type GenerationResult struct {
	Bundles       []domain.Bundle
	Truncated     bool
	TotalPossible int
}

// BundleGenerator enumerates the cartesian product of per-category candidate
// lists, one bundle per combination.
type BundleGenerator struct {
	maxCombinations int
}

// NewBundleGenerator creates a generator with the given combination cap.
// Zero or negative selects the default cap of 1000.
func NewBundleGenerator(maxCombinations int) *BundleGenerator {
	if maxCombinations <= 0 {
		maxCombinations = defaultMaxCombinations
	}
	return &BundleGenerator{maxCombinations: maxCombinations}
}

// Generate enumerates bundles in odometer order: categories sorted
// lexicographically, candidates in their given order, last category varying
// fastest. The order is deterministic for identical inputs, which makes the
// first-N truncation reproducible. A category with zero candidates yields an
// empty result.
func (g *BundleGenerator) Generate(ctx context.Context, productOptions map[string][]domain.Product) (*GenerationResult, error) {
	result := &GenerationResult{Bundles: []domain.Bundle{}}

	if len(productOptions) == 0 {
		return result, nil
	}

	categories := make([]string, 0, len(productOptions))
	for category, candidates := range productOptions {
		if len(candidates) == 0 {
			// Cartesian product with an empty set is empty
			return result, nil
		}
		categories = append(categories, category)
	}
	sort.Strings(categories)

	result.TotalPossible = totalCombinations(productOptions, categories)

	indices := make([]int, len(categories))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(result.Bundles) >= g.maxCombinations {
			result.Truncated = true
			log.Printf("[BUNDLES] Combination cap reached: kept %d of %d possible bundles",
				g.maxCombinations, result.TotalPossible)
			break
		}

		bundle := domain.Bundle{Products: make(map[string]domain.Product, len(categories))}
		for i, category := range categories {
			product := productOptions[category][indices[i]]
			bundle.Products[category] = product
			bundle.TotalPrice += product.Price
		}
		result.Bundles = append(result.Bundles, bundle)

		// Advance the odometer; last category varies fastest
		pos := len(categories) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(productOptions[categories[pos]]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return result, nil
}

// totalCombinations computes the full cartesian product size, saturating
// instead of overflowing for absurd inputs.
func totalCombinations(productOptions map[string][]domain.Product, categories []string) int {
	const saturation = 1 << 40

	total := 1
	for _, category := range categories {
		total *= len(productOptions[category])
		if total > saturation {
			return saturation
		}
	}
	return total
}
