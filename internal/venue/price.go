package venue

import (
	"math"
	"strings"
)

// DefaultCoffeePrice is used for unknown price tiers.
const DefaultCoffeePrice = 2.5

var priceTiers = map[string]float64{
	"free":           0,
	"inexpensive":    1.8,
	"moderate":       2.5,
	"expensive":      3.5,
	"very-expensive": 4.5,
}

// PriceTierToAmount maps a price tier to a representative coffee price in
// euros. Places API spellings such as PRICE_LEVEL_VERY_EXPENSIVE are accepted.
func PriceTierToAmount(tier string) float64 {
	key := strings.ToLower(strings.TrimSpace(tier))
	key = strings.TrimPrefix(key, "price_level_")
	key = strings.ReplaceAll(key, "_", "-")
	if amount, ok := priceTiers[key]; ok {
		return amount
	}
	return DefaultCoffeePrice
}

// FallbackScore turns a 0-5 star rating into a casi score when no review
// synthesis is available: the rounded rating clamped to 1..10, or 5 when the
// place has no rating.
func FallbackScore(rating float64) int {
	if rating <= 0 || math.IsNaN(rating) {
		return 5
	}
	score := int(math.Round(rating))
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
