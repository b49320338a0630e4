package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bundleup/backend/internal/domain"
	"github.com/bundleup/backend/internal/usecase"
)

// optimizeTimeout bounds the full search-generate-rank pipeline per request.
const optimizeTimeout = 30 * time.Second

// Handler holds dependencies for HTTP handlers
type Handler struct {
	solutions *usecase.SolutionService
	extractor *usecase.SpecExtractor
	compat    *usecase.CompatibilityService
}

// NewHandler creates a new HTTP handler
func NewHandler(solutions *usecase.SolutionService, extractor *usecase.SpecExtractor, compat *usecase.CompatibilityService) *Handler {
	return &Handler{
		solutions: solutions,
		extractor: extractor,
		compat:    compat,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "bundleup-backend",
		"version": "1.0.0",
	})
}

// OptimizeRequest is the body for POST /api/v1/solutions/optimize. Callers
// supply either decomposed components to search for, or explicit per-category
// candidate lists, plus optional objective weights.
type OptimizeRequest struct {
	Components     []domain.ComponentRequest   `json:"components"`
	ProductOptions map[string][]domain.Product `json:"productOptions"`
	Weights        *domain.Weights             `json:"weights"`
}

// OptimizeSolutions runs the bundle optimization pipeline
func (h *Handler) OptimizeSolutions(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if len(req.Components) == 0 && len(req.ProductOptions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Request must include components or productOptions",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), optimizeTimeout)
	defer cancel()

	var (
		result *domain.OptimizationResult
		err    error
	)
	if len(req.ProductOptions) > 0 {
		result, err = h.solutions.Optimize(ctx, req.ProductOptions, req.Weights)
	} else {
		result, err = h.solutions.Solve(ctx, req.Components, req.Weights)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// CheckCompatibilityRequest is the body for POST /api/v1/compatibility/check.
type CheckCompatibilityRequest struct {
	Products []domain.Product `json:"products" binding:"required,min=2"`
}

// CheckCompatibility evaluates the rule set over an explicit product set
func (h *Handler) CheckCompatibility(c *gin.Context) {
	var req CheckCompatibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Request must include at least two products",
			"details": err.Error(),
		})
		return
	}

	products := h.extractor.NormalizeAll(req.Products)
	report := h.compat.CheckCompatibility(products)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// ExtractSpecsRequest is the body for POST /api/v1/specs/extract.
type ExtractSpecsRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// ExtractSpecs extracts normalized specifications from free-form product text
func (h *Handler) ExtractSpecs(c *gin.Context) {
	var req ExtractSpecsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Request must include a title",
			"details": err.Error(),
		})
		return
	}

	product := h.extractor.Normalize(domain.Product{
		Title:       req.Title,
		Description: req.Description,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"specifications": product.NormalizedSpecs,
			"confidence":     product.ExtractionConfidence,
		},
	})
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Request must include at least one component",
		})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Catalog provider rate limit exceeded, please retry later",
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "Optimization timed out",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to optimize solutions",
		})
	}
}
