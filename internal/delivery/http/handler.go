package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pricescope/backend/internal/domain"
)

// Comparer resolves a product's price across all configured sources.
type Comparer interface {
	Compare(ctx context.Context, q domain.ProductQuery) (*domain.AggregatedResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	compare Comparer
	log     zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(compare Comparer, log zerolog.Logger) *Handler {
	return &Handler{
		compare: compare,
		log:     log.With().Str("component", "http_handler").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricescope-backend",
		"version": "1.0.0",
	})
}

// ComparePrices handles price comparison requests
func (h *Handler) ComparePrices(c *gin.Context) {
	var req domain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	query := domain.ProductQuery{
		Description:  req.Description,
		ExpectedName: req.ExpectedName,
		Category:     domain.ParseCategory(req.Category),
	}

	result, err := h.compare.Compare(c.Request.Context(), query)
	if err != nil {
		h.respondCompareError(c, query, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondCompareError maps pipeline errors onto HTTP status codes. Not
// finding a product is a well-formed outcome, not a server fault.
func (h *Handler) respondCompareError(c *gin.Context, query domain.ProductQuery, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "a product description is required",
		})

	case errors.Is(err, domain.ErrAmbiguousCategory):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "results conflict with the requested product category",
			"product": query.Title(),
		})

	case errors.Is(err, domain.ErrNoMatchFound):
		body := gin.H{
			"error":   "no matching product found",
			"product": query.Title(),
		}
		var noMatch *domain.NoMatchError
		if errors.As(err, &noMatch) {
			body["attemptedQueries"] = noMatch.Variants
		}
		c.JSON(http.StatusNotFound, body)

	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "comparison timed out",
		})

	default:
		h.log.Error().Err(err).Str("product", query.Title()).Msg("comparison failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
	}
}
