package itinerary

import (
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/model"
)

const (
	poolBoundDelta     = 0.35 // degrees around the anchor
	defaultPopularity  = 50.0
	defaultNativeCost  = 10.0
	unknownDistKm      = 6.0
	unknownProximity   = 0.5
	proximityHorizonKm = 25.0
)

// candidate is a catalog place with its request-scoped precomputation.
type candidate struct {
	place model.Place

	point    orb.Point
	hasPoint bool

	catLower  string
	tagsLower []string

	cost   float64 // in the display currency
	distKm float64
	base   float64

	hours model.WeeklyHours
}

// buildPool precomputes the static part of every candidate's score. Order
// follows places.
func buildPool(places []model.Place, hours map[string]model.WeeklyHours, conv converter, t *trip) []candidate {
	pool := make([]candidate, len(places))
	for i, p := range places {
		c := candidate{place: p, hours: hours[p.ID]}
		if p.HasCoords() {
			c.point = geo.Point(*p.Lat, *p.Lng)
			c.hasPoint = true
		}
		if p.Category != nil {
			c.catLower = strings.ToLower(*p.Category)
		}
		c.tagsLower = make([]string, len(p.Tags))
		for j, tag := range p.Tags {
			c.tagsLower[j] = strings.ToLower(tag)
		}

		pop := defaultPopularity
		if p.Popularity != nil && finite(*p.Popularity) {
			pop = *p.Popularity
		}
		nativeCost := defaultNativeCost
		if p.CostTypical != nil && finite(*p.CostTypical) {
			nativeCost = *p.CostTypical
		}
		native := t.currency
		if p.CostCurrency != nil && strings.TrimSpace(*p.CostCurrency) != "" {
			native = strings.TrimSpace(*p.CostCurrency)
		}
		c.cost = conv.convert(nativeCost, native)

		c.distKm = unknownDistKm
		prox := unknownProximity
		if t.anchor != nil && c.hasPoint {
			c.distKm = geo.HaversineKm(*t.anchor, c.point)
			prox = math.Max(0, 1-math.Min(c.distKm, proximityHorizonKm)/proximityHorizonKm)
		}
		farPenalty := math.Max(0, (c.distKm-t.softAnchorKm)/20)
		c.base = prox*0.9 + (pop/100)*0.5 - 0.3*farPenalty

		pool[i] = c
	}
	return pool
}

// catKey is the category used for per-day diversity counting.
func (c *candidate) catKey() string {
	if c.catLower == "" {
		return "other"
	}
	return c.catLower
}

// avoided reports whether any avoid term is a substring of the category or
// of a tag.
func (c *candidate) avoided(avoid []string) bool {
	for _, a := range avoid {
		if strings.Contains(c.catLower, a) {
			return true
		}
		for _, tag := range c.tagsLower {
			if strings.Contains(tag, a) {
				return true
			}
		}
	}
	return false
}
