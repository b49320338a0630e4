package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bundleup/backend/internal/domain"
	"github.com/google/uuid"
)

// shoppingResponse is the Serper shopping search payload
type shoppingResponse struct {
	Shopping []shoppingItem `json:"shopping"`
}

// shoppingItem is a single shopping result
type shoppingItem struct {
	Title    string  `json:"title"`
	Price    string  `json:"price"`
	Link     string  `json:"link"`
	Source   string  `json:"source"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
	ImageURL string  `json:"imageUrl"`
	Delivery string  `json:"delivery"`
}

// priceRegex pulls the numeric part out of price strings like "$1,299.99"
var priceRegex = regexp.MustCompile(`[\d,]+\.?\d*`)

// MapToProducts converts a shopping search response to domain products.
// Normalized specs are left empty; extraction happens in the usecase layer.
func MapToProducts(resp *shoppingResponse) []domain.Product {
	products := make([]domain.Product, 0, len(resp.Shopping))

	for _, item := range resp.Shopping {
		products = append(products, domain.Product{
			ID:           productID(item),
			Title:        item.Title,
			Price:        parsePrice(item.Price),
			Currency:     "USD",
			Retailer:     retailerName(item.Source),
			URL:          item.Link,
			Rating:       item.Rating,
			Reviews:      item.Reviews,
			Availability: availabilityStatus(item.Delivery),
		})
	}

	return products
}

// productID keys a product by its listing URL so the same listing maps to
// the same id across searches; listings without a URL get a random id
func productID(item shoppingItem) string {
	if item.Link != "" {
		return item.Link
	}
	return uuid.NewString()
}

// parsePrice converts price strings like "$1,299.99" to a numeric value.
// Unparseable prices become 0.
func parsePrice(price string) float64 {
	match := priceRegex.FindString(price)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return value
}

func retailerName(source string) string {
	if source == "" {
		return "Unknown"
	}
	return source
}

func availabilityStatus(delivery string) string {
	if delivery == "" {
		return "Check with seller"
	}
	return delivery
}
