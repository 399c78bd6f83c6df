package usecase

import (
	"strings"

	"github.com/rs/zerolog"
)

// priceFloor is one price-plausibility rule: when every keyword matches
// the product name, the floor applies. First matching rule wins, so more
// specific rules belong earlier.
type priceFloor struct {
	class    string
	keywords []string
	floor    float64
}

// priceFloors encodes coarse category floors. Upstream sources sometimes
// return a cheap accessory or a mismatched listing that slips past name
// matching; a sanity floor is the second line of defense. Values are
// tunable configuration.
var priceFloors = []priceFloor{
	{"flagship-phone", []string{"iphone", "pro"}, 400},
	{"flagship-phone", []string{"galaxy", "ultra"}, 400},
	{"flagship-phone", []string{"pixel", "pro"}, 350},
	{"phone", []string{"iphone"}, 200},
	{"phone", []string{"galaxy s"}, 200},
	{"console", []string{"playstation"}, 200},
	{"console", []string{"xbox series"}, 200},
	{"console", []string{"nintendo switch"}, 150},
	{"laptop", []string{"macbook"}, 400},
	{"laptop", []string{"laptop"}, 200},
	{"tv", []string{"qled"}, 250},
	{"tv", []string{"oled"}, 400},
	{"tv", []string{"tv"}, 100},
	{"tablet", []string{"ipad"}, 150},
}

// PriceValidator vetoes candidate prices that are implausibly low for the
// product class. It never raises or adjusts a price.
type PriceValidator struct {
	log zerolog.Logger
}

// NewPriceValidator creates a new price validator.
func NewPriceValidator(log zerolog.Logger) *PriceValidator {
	return &PriceValidator{log: log.With().Str("component", "price_validator").Logger()}
}

// Validate reports whether price is plausible for the named product. The
// floor derives from the expected product name, not the candidate title,
// so a mislabeled cheap listing cannot pick its own lenient floor.
func (v *PriceValidator) Validate(productName string, price float64) (bool, string) {
	if price <= 0 {
		return false, "non-positive price"
	}

	class, floor := floorFor(productName)
	if floor > 0 && price < floor {
		v.log.Debug().
			Str("product", productName).
			Str("class", class).
			Float64("price", price).
			Float64("floor", floor).
			Msg("candidate rejected by price floor")
		return false, "below " + class + " price floor"
	}

	return true, ""
}

// floorFor returns the first matching floor rule for a product name.
func floorFor(productName string) (string, float64) {
	lower := strings.ToLower(productName)
	for _, rule := range priceFloors {
		matched := true
		for _, kw := range rule.keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if matched {
			return rule.class, rule.floor
		}
	}
	return "", 0
}
