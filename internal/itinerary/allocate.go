package itinerary

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/model"
)

const (
	openBonus       = 0.4
	maxAlternatives = 3
	missingHopKm    = 3.0
)

var (
	slotShare = map[model.Slot]float64{
		model.SlotMorning:   0.35,
		model.SlotAfternoon: 0.35,
		model.SlotEvening:   0.30,
	}

	// slotMinute is the canonical minute-of-day checked against opening hours.
	slotMinute = map[model.Slot]int{
		model.SlotMorning:   9 * 60,
		model.SlotAfternoon: 14 * 60,
		model.SlotEvening:   19 * 60,
	}

	slotThemes = map[model.Slot][]string{
		model.SlotMorning:   {"coffee", "culture", "outdoors", "park", "viewpoint"},
		model.SlotAfternoon: {"museum", "shopping", "food", "market"},
		model.SlotEvening:   {"nightlife", "bar", "music", "dining"},
	}
)

// stop is a located point a hop is measured from. ok is false when the
// stop exists but has no coordinates.
type stop struct {
	point orb.Point
	ok    bool
}

// scored is a candidate evaluated for one slot.
type scored struct {
	c     *candidate
	score float64
	hopKm float64
}

// slotPick is the outcome of one slot. best is nil when no candidate was
// eligible. alts is ordered by score descending.
type slotPick struct {
	slot     model.Slot
	target   float64
	interest string
	best     *scored
	alts     []scored
	eligible int
}

// dayPlan is the allocation for one date, before routing.
type dayPlan struct {
	date    string
	dow     int
	lodging *model.Lodging
	anchor  *orb.Point // lodging coordinates, else the trip anchor
	picks   [3]slotPick
}

// allocator assigns candidates to slots. chosen spans the whole trip.
type allocator struct {
	t      *trip
	pool   []candidate
	chosen map[string]struct{}
}

func newAllocator(t *trip, pool []candidate) *allocator {
	return &allocator{t: t, pool: pool, chosen: make(map[string]struct{})}
}

// allocateDay fills the three slots of date in order, committing each
// winner before the next slot is scored.
func (a *allocator) allocateDay(date time.Time) dayPlan {
	d := dayPlan{
		date:   date.Format(dateLayout),
		dow:    int(date.Weekday()),
		anchor: a.t.anchor,
	}
	d.lodging = a.t.lodgingFor(d.date)
	if d.lodging != nil && d.lodging.HasCoords() {
		p := geo.Point(*d.lodging.Lat, *d.lodging.Lng)
		d.anchor = &p
	}

	var last *stop
	if d.anchor != nil {
		last = &stop{point: *d.anchor, ok: true}
	}
	catCount := make(map[string]int)

	for i, slot := range model.Slots {
		pick := a.scoreSlot(slot, d.dow, last, catCount)
		if pick.best != nil {
			c := pick.best.c
			a.chosen[c.place.ID] = struct{}{}
			st := c.stop()
			last = &st
			catCount[c.catKey()]++
		}
		d.picks[i] = pick
	}
	return d
}

func (a *allocator) scoreSlot(slot model.Slot, dow int, last *stop, catCount map[string]int) slotPick {
	pick := slotPick{
		slot:     slot,
		target:   a.t.dailyBudgetTotal * slotShare[slot],
		interest: slotInterest(slot, a.t.interests),
	}
	minute := slotMinute[slot]

	var best *scored
	var buf altBuffer
	for i := range a.pool {
		c := &a.pool[i]
		if _, used := a.chosen[c.place.ID]; used {
			continue
		}
		if !c.hours.OpenAt(dow, minute) {
			continue
		}
		if c.avoided(a.t.avoidTags) {
			continue
		}
		pick.eligible++

		hop := hopKm(last, c)
		s := scored{c: c, score: a.score(c, pick, hop, catCount), hopKm: hop}
		if best == nil || s.score > best.score {
			if best != nil {
				buf.offer(*best)
			}
			best = &s
		} else {
			buf.offer(s)
		}
	}
	pick.best = best
	pick.alts = buf.items
	return pick
}

func (a *allocator) score(c *candidate, pick slotPick, hop float64, catCount map[string]int) float64 {
	interestScore := 0.0
	if pick.interest != "" {
		if strings.Contains(c.catLower, pick.interest) {
			interestScore += 1.2
		}
		if slices.Contains(c.tagsLower, pick.interest) {
			interestScore += 1.0
		}
	}

	catPenalty := 0.0
	switch n := catCount[c.catKey()]; {
	case n == 1:
		catPenalty = 0.25
	case n >= 2:
		catPenalty = 0.6
	}

	pricePenalty := math.Min(1, math.Abs(c.cost-pick.target)/math.Max(10, pick.target))
	hopPenalty := math.Max(0, (hop-a.t.hopPrefKm)/(2*a.t.hopPrefKm))

	return c.base + interestScore + openBonus - 0.6*pricePenalty - 0.3*hopPenalty - catPenalty
}

// slotInterest binds a slot to the first interest overlapping its theme,
// else the first interest.
func slotInterest(slot model.Slot, interests []string) string {
	if len(interests) == 0 {
		return ""
	}
	for _, in := range interests {
		for _, theme := range slotThemes[slot] {
			if strings.Contains(in, theme) || strings.Contains(theme, in) {
				return in
			}
		}
	}
	return interests[0]
}

// hopKm measures the hop from the previous stop. With no previous stop the
// hop is 0.
func hopKm(from *stop, c *candidate) float64 {
	if from == nil {
		return 0
	}
	return from.kmTo(c.stop())
}

// kmTo is the haversine distance between two stops, or missingHopKm when
// either lacks coordinates.
func (s stop) kmTo(o stop) float64 {
	if !s.ok || !o.ok {
		return missingHopKm
	}
	return geo.HaversineKm(s.point, o.point)
}

func (c *candidate) stop() stop { return stop{point: c.point, ok: c.hasPoint} }

// altBuffer keeps the best maxAlternatives runner-ups, highest score first.
// A later candidate only displaces an earlier one with a strictly higher
// score.
type altBuffer struct {
	items []scored
}

func (b *altBuffer) offer(s scored) {
	i := len(b.items)
	for i > 0 && s.score > b.items[i-1].score {
		i--
	}
	if i >= maxAlternatives {
		return
	}
	b.items = slices.Insert(b.items, i, s)
	if len(b.items) > maxAlternatives {
		b.items = b.items[:maxAlternatives]
	}
}
