package itinerary

import (
	"math"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/model"
)

// placeholderCost is charged for a slot with no pick, in the display currency.
const placeholderCost = 10.0

var placelessTitle = map[model.Slot]string{
	model.SlotMorning:   "Explore",
	model.SlotAfternoon: "Local walk",
	model.SlotEvening:   "Dinner",
}

// assembler builds the output payload. chosen must be the final trip-wide
// set so that no alternative names any block's pick.
type assembler struct {
	t      *trip
	chosen map[string]struct{}
	kmph   float64
}

func (a *assembler) day(d *dayPlan, r dayRoute) (model.Day, *model.DebugDay) {
	out := model.Day{
		Date:        d.date,
		Blocks:      make([]model.Block, 0, len(model.Slots)),
		Lodging:     d.lodging,
		BudgetDaily: a.t.dailyBudgetTotal,
	}

	var lodge *stop
	if d.lodging != nil {
		lodge = lodgingStop(d.lodging)
	}

	primary := make(map[string]struct{}, len(r.order))
	for _, c := range r.order {
		if c != nil {
			primary[c.place.ID] = struct{}{}
		}
	}
	altUsed := make(map[string]struct{})

	dayCost := 0.0
	for i, slot := range model.Slots {
		c := r.order[i]
		block := model.Block{
			When:              slot,
			Title:             placelessTitle[slot],
			EstCost:           placeholderCost,
			DurationMin:       a.t.durationMin(),
			TravelMinFromPrev: a.travelMin(i, r, lodge),
			Alternatives:      a.alternatives(d.picks[i].alts, primary, altUsed),
		}
		if c != nil {
			id := c.place.ID
			block.PlaceID = &id
			if c.place.Name != "" {
				block.Title = c.place.Name
			}
			block.EstCost = c.cost
			if c.place.Description != nil {
				block.Notes = *c.place.Description
			}
		}
		dayCost += block.EstCost
		out.Blocks = append(out.Blocks, block)
	}

	if lodge != nil {
		if last := lastPick(r.order); last != nil {
			m := travelMinutes(last.stop().kmTo(*lodge), a.kmph)
			out.ReturnToLodgingMin = &m
		}
	}

	out.EstDayCost = dayCost
	out.BudgetStatus = budgetStatus(dayCost, a.t.dailyBudgetTotal)
	if r.polyline != "" {
		out.MapPolyline = r.polyline
		out.MapPolylinePrecision = r.precision
	}

	if !a.t.req.Debug {
		return out, nil
	}
	dbg := &model.DebugDay{
		Date:             d.date,
		DayCost:          dayCost,
		BudgetDailyTotal: a.t.dailyBudgetTotal,
		BudgetStatus:     out.BudgetStatus,
		RouteSource:      r.source,
		Slots:            make([]model.DebugSlot, 0, len(d.picks)),
	}
	for _, p := range d.picks {
		ds := model.DebugSlot{Slot: p.slot, BudgetTargetSlot: p.target, Eligible: p.eligible}
		if p.best != nil {
			id, name, score, cost := p.best.c.place.ID, p.best.c.place.Name, p.best.score, p.best.c.cost
			ds.ChosenID, ds.ChosenName, ds.ChosenScore, ds.ChosenCostConverted = &id, &name, &score, &cost
		}
		dbg.Slots = append(dbg.Slots, ds)
	}
	return out, dbg
}

// travelMin is the travel time into block i: the routed leg when there is
// one, else the hop from the previous pick (or lodging for the first block)
// at mode speed, else defaultLegMin.
func (a *assembler) travelMin(i int, r dayRoute, lodge *stop) int {
	if i < len(r.legs) {
		return r.legs[i]
	}
	c := r.order[i]
	if c == nil {
		return defaultLegMin
	}
	if i == 0 {
		if lodge == nil {
			return defaultLegMin
		}
		return travelMinutes(lodge.kmTo(c.stop()), a.kmph)
	}
	prev := r.order[i-1]
	if prev == nil {
		return defaultLegMin
	}
	return travelMinutes(prev.stop().kmTo(c.stop()), a.kmph)
}

// alternatives prunes a slot's runner-ups against the day's picks, the
// trip-wide chosen set and alternatives already emitted this day.
func (a *assembler) alternatives(alts []scored, primary, used map[string]struct{}) []model.Alternative {
	out := make([]model.Alternative, 0, maxAlternatives)
	for _, s := range alts {
		id := s.c.place.ID
		if id == "" {
			continue
		}
		if _, ok := primary[id]; ok {
			continue
		}
		if _, ok := a.chosen[id]; ok {
			continue
		}
		if _, ok := used[id]; ok {
			continue
		}
		if len(out) == maxAlternatives {
			break
		}
		used[id] = struct{}{}

		name := s.c.place.Name
		if name == "" {
			name = "Alternative"
		}
		out = append(out, model.Alternative{
			ID:       id,
			Name:     name,
			Lat:      s.c.place.Lat,
			Lng:      s.c.place.Lng,
			Category: s.c.place.Category,
			Tags:     s.c.place.Tags,
			EstCost:  s.c.cost,
			Hint: model.AlternativeHint{
				HopKm: math.Round(s.hopKm*10) / 10,
				Score: math.Round(s.score*100) / 100,
			},
		})
	}
	return out
}

// budgetStatus compares against the thresholds directly so that a cost of
// exactly 0.6 or 1.2 times the budget is balanced.
func budgetStatus(cost, total float64) model.BudgetStatus {
	total = math.Max(1, total)
	switch {
	case cost > 1.2*total:
		return model.BudgetOver
	case cost < 0.6*total:
		return model.BudgetUnder
	default:
		return model.BudgetBalanced
	}
}

func lastPick(order [3]*candidate) *candidate {
	for i := len(order) - 1; i >= 0; i-- {
		if order[i] != nil {
			return order[i]
		}
	}
	return nil
}

func lodgingStop(l *model.Lodging) *stop {
	if !l.HasCoords() {
		return &stop{}
	}
	return &stop{point: geo.Point(*l.Lat, *l.Lng), ok: true}
}
