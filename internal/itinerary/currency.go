package itinerary

import (
	"slices"
	"strings"

	"github.com/itinero-app/itinero/internal/model"
)

// converter turns native costs into the display currency. A missing rate
// converts 1:1.
type converter struct {
	target string
	rates  map[string]float64 // base currency -> rate into target
}

func newConverter(target string, rates map[string]float64) converter {
	clean := make(map[string]float64, len(rates))
	for base, rate := range rates {
		if finite(rate) {
			clean[strings.ToUpper(base)] = rate
		}
	}
	return converter{target: target, rates: clean}
}

func (c converter) convert(amount float64, native string) float64 {
	cur := strings.ToUpper(native)
	if cur == "" || cur == c.target {
		return amount
	}
	if rate, ok := c.rates[cur]; ok {
		return amount * rate
	}
	return amount
}

// foreignCurrencies returns the distinct, sorted native currencies in places
// other than target.
func foreignCurrencies(places []model.Place, target string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range places {
		if p.CostCurrency == nil {
			continue
		}
		cur := strings.ToUpper(strings.TrimSpace(*p.CostCurrency))
		if cur == "" || cur == target {
			continue
		}
		if _, ok := seen[cur]; !ok {
			seen[cur] = struct{}{}
			out = append(out, cur)
		}
	}
	slices.Sort(out)
	return out
}
