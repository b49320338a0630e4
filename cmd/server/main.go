package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/bundleup/backend/config"
	httpDelivery "github.com/bundleup/backend/internal/delivery/http"
	"github.com/bundleup/backend/internal/domain"
	"github.com/bundleup/backend/internal/infrastructure/cache"
	"github.com/bundleup/backend/internal/infrastructure/catalog"
	"github.com/bundleup/backend/internal/infrastructure/rulestore"
	"github.com/bundleup/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting BundleUp Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()

	catalogClient := catalog.NewClient(cfg.Catalog.APIKey, cfg.Catalog.BaseURL)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		catalogClient.SetDebug(true)
		log.Printf("Catalog client debug mode enabled")
	}

	if cfg.Catalog.APIKey != "" {
		log.Printf("Catalog API configured: %s (key: %s...)", cfg.Catalog.BaseURL, cfg.Catalog.APIKey[:8])
	} else {
		log.Printf("WARNING: Catalog API configured: %s (key: NOT CONFIGURED - API calls will fail!)", cfg.Catalog.BaseURL)
	}

	// Rule store is optional: a failed open falls back to the built-in
	// rule set and the server still comes up.
	var ruleRepo domain.RuleRepository
	store, err := rulestore.NewStore(cfg.Rules.DBPath, usecase.DefaultRuleDefinitions())
	if err != nil {
		log.Printf("WARNING: Rule store unavailable (%v), using built-in rules", err)
	} else {
		defer store.Close()
		ruleRepo = store
		log.Printf("Rule store: %s", cfg.Rules.DBPath)
	}

	// Initialize usecase layer
	extractor := usecase.NewSpecExtractor(cfg.Server.Environment == "development")
	generator := usecase.NewBundleGenerator(cfg.Optimizer.MaxCombinations)
	optimizer := usecase.NewOptimizerService(usecase.OptimizerConfig{
		Weights: domain.Weights{
			Price:         cfg.Optimizer.Weights.Price,
			Quality:       cfg.Optimizer.Weights.Quality,
			Compatibility: cfg.Optimizer.Weights.Compatibility,
			Availability:  cfg.Optimizer.Weights.Availability,
		},
		TargetPrice:    cfg.Optimizer.TargetPrice,
		PriceSpread:    cfg.Optimizer.PriceSpread,
		MaxResults:     cfg.Optimizer.MaxResults,
		ScoringWorkers: cfg.Optimizer.ScoringWorkers,
	})

	solutionService := usecase.NewSolutionService(
		memoryCache,
		catalogClient,
		ruleRepo,
		extractor,
		generator,
		optimizer,
		usecase.SolutionServiceConfig{
			CacheTTL:          cfg.Cache.TTL,
			SearchConcurrency: cfg.Optimizer.SearchConcurrency,
		},
	)

	log.Printf("Optimizer: weights=%.2f/%.2f/%.2f/%.2f, cap=%d, top=%d",
		cfg.Optimizer.Weights.Price,
		cfg.Optimizer.Weights.Quality,
		cfg.Optimizer.Weights.Compatibility,
		cfg.Optimizer.Weights.Availability,
		cfg.Optimizer.MaxCombinations,
		cfg.Optimizer.MaxResults)

	// The standalone compatibility endpoint uses the built-in rule set so it
	// stays usable even when the rule store is down.
	compat := usecase.NewCompatibilityService(usecase.DefaultRuleDefinitions())

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(solutionService, extractor, compat)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)

	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()
}
