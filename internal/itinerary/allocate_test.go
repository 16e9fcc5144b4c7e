package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/model"
)

func mustTrip(t *testing.T, req model.TripRequest) *trip {
	t.Helper()
	tr, err := normalize(req, DefaultMaxDays)
	require.NoError(t, err)
	return tr
}

func TestAltBuffer_KeepsTopThreeStable(t *testing.T) {
	mk := func(id string, score float64) scored {
		return scored{c: &candidate{place: model.Place{ID: id}}, score: score}
	}
	var b altBuffer
	for _, s := range []scored{mk("a", 1), mk("b", 3), mk("c", 2), mk("d", 3), mk("e", 0.5), mk("f", 2.5)} {
		b.offer(s)
	}
	require.Len(t, b.items, 3)
	assert.Equal(t, "b", b.items[0].c.place.ID)
	assert.Equal(t, "d", b.items[1].c.place.ID, "equal score keeps the earlier candidate first")
	assert.Equal(t, "f", b.items[2].c.place.ID)
}

func TestSlotInterest(t *testing.T) {
	interests := []string{"food", "coffee", "bars"}
	assert.Equal(t, "coffee", slotInterest(model.SlotMorning, interests))
	assert.Equal(t, "food", slotInterest(model.SlotAfternoon, interests))
	assert.Equal(t, "bars", slotInterest(model.SlotEvening, interests), "theme is a substring of the interest")
	assert.Equal(t, "art", slotInterest(model.SlotEvening, []string{"art"}), "falls back to the first interest")
	assert.Equal(t, "", slotInterest(model.SlotMorning, nil))
}

func TestBuildPool_BaseScore(t *testing.T) {
	tr := mustTrip(t, cityRequest())

	centre := place("c", "museum", 0, 0, 100, 10)
	unplaced := model.Place{ID: "u", Name: "Nowhere"}
	far := place("f", "park", 0.27, 0, 40, 10) // about 30 km north

	pool := buildPool([]model.Place{centre, unplaced, far}, nil, newConverter("USD", nil), tr)
	require.Len(t, pool, 3)

	assert.InDelta(t, 1.4, pool[0].base, 1e-9)

	assert.Equal(t, 6.0, pool[1].distKm)
	assert.InDelta(t, 0.5*0.9+0.5*0.5, pool[1].base, 1e-9)
	assert.Equal(t, 10.0, pool[1].cost, "missing cost defaults to 10")
	assert.Equal(t, "other", pool[1].catKey())

	d := geo.HaversineKm(geo.Point(anchorLat, anchorLng), geo.Point(anchorLat+0.27, anchorLng))
	require.Greater(t, d, 25.0)
	assert.InDelta(t, d, pool[2].distKm, 1e-9)
	assert.InDelta(t, 0.4*0.5-0.3*(d-12)/20, pool[2].base, 1e-9)
}

func TestScore_Components(t *testing.T) {
	tr := mustTrip(t, cityRequest())
	a := newAllocator(tr, nil)
	c := &candidate{catLower: "art museum", tagsLower: []string{"museum", "history"}, cost: 70, base: 1}
	pick := slotPick{target: 70}
	none := map[string]int{}

	base := a.score(c, pick, 0, none)
	assert.InDelta(t, 1.4, base, 1e-9, "base plus open bonus")

	withInterest := pick
	withInterest.interest = "museum"
	assert.InDelta(t, 2.2, a.score(c, withInterest, 0, none)-base, 1e-9)

	withInterest.interest = "histor"
	assert.InDelta(t, 0.0, a.score(c, withInterest, 0, none)-base, 1e-9, "tag match is exact")

	assert.InDelta(t, -0.25, a.score(c, pick, 0, map[string]int{"art museum": 1})-base, 1e-9)
	assert.InDelta(t, -0.6, a.score(c, pick, 0, map[string]int{"art museum": 2})-base, 1e-9)
	assert.InDelta(t, -0.6, a.score(c, pick, 0, map[string]int{"art museum": 7})-base, 1e-9)

	pricey := *c
	pricey.cost = 5000
	assert.InDelta(t, -0.6, a.score(&pricey, pick, 0, none)-base, 1e-9, "price penalty is capped at 1")
	pricey.cost = 35
	assert.InDelta(t, -0.6*0.5, a.score(&pricey, pick, 0, none)-base, 1e-9)

	assert.InDelta(t, 0.0, a.score(c, pick, tr.hopPrefKm, none)-base, 1e-9)
	assert.InDelta(t, -0.3, a.score(c, pick, 3*tr.hopPrefKm, none)-base, 1e-9)
}

func TestAllocateDay_Eligibility(t *testing.T) {
	req := cityRequest()
	req.AvoidTags = []string{"night"}
	tr := mustTrip(t, req)

	closedAtNine := place("late", "museum", 0, 0, 100, 70, "museum")
	avoided := place("club", "club", 0, 0, 100, 70, "nightlife")
	noHours := place("nohours", "museum", 0, 0, 100, 70, "museum")
	ok := place("ok", "gallery", 0.01, 0.01, 10, 70)

	hours := map[string]model.WeeklyHours{
		"late": allWeek(10*60, 23*60),
		"club": allWeek(0, 1439),
		"ok":   allWeek(0, 1439),
	}
	pool := buildPool([]model.Place{closedAtNine, avoided, noHours, ok}, hours, newConverter("USD", nil), tr)
	a := newAllocator(tr, pool)

	d := a.allocateDay(time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, d.dow, "2025-07-20 is a Sunday")

	require.NotNil(t, d.picks[0].best)
	assert.Equal(t, "ok", d.picks[0].best.c.place.ID)
	assert.Equal(t, 1, d.picks[0].eligible)

	require.NotNil(t, d.picks[1].best)
	assert.Equal(t, "late", d.picks[1].best.c.place.ID, "open at 14:00")
	assert.Nil(t, d.picks[2].best)
}

func TestAllocateDay_TieGoesToFirst(t *testing.T) {
	tr := mustTrip(t, cityRequest())
	first := place("first", "x", 0.01, 0.01, 60, 20)
	second := place("second", "y", 0.01, 0.01, 60, 20)
	hours := map[string]model.WeeklyHours{"first": allWeek(0, 1439), "second": allWeek(0, 1439)}

	pool := buildPool([]model.Place{first, second}, hours, newConverter("USD", nil), tr)
	d := newAllocator(tr, pool).allocateDay(tr.dates[0])

	require.NotNil(t, d.picks[0].best)
	assert.Equal(t, "first", d.picks[0].best.c.place.ID)
	require.Len(t, d.picks[0].alts, 1)
	assert.Equal(t, "second", d.picks[0].alts[0].c.place.ID)
	assert.Equal(t, "second", d.picks[1].best.c.place.ID)
}

func TestAllocateDay_NoRepeatsAcrossDays(t *testing.T) {
	tr := mustTrip(t, cityRequest())
	places, hours := cityFixture()
	pool := buildPool(places[:4], hours, newConverter("USD", nil), tr)
	a := newAllocator(tr, pool)

	d1 := a.allocateDay(tr.dates[0])
	d2 := a.allocateDay(tr.dates[1])

	seen := map[string]bool{}
	count := 0
	for _, d := range []dayPlan{d1, d2} {
		for _, p := range d.picks {
			if p.best == nil {
				continue
			}
			id := p.best.c.place.ID
			assert.False(t, seen[id], "%s picked twice", id)
			seen[id] = true
			count++
		}
	}
	assert.Equal(t, 4, count)
	assert.Nil(t, d2.picks[1].best)
	assert.Nil(t, d2.picks[2].best)
	assert.Len(t, a.chosen, 4)
}

func TestAllocateDay_HopStartsAtAnchor(t *testing.T) {
	tr := mustTrip(t, cityRequest())
	places, hours := cityFixture()
	pool := buildPool(places, hours, newConverter("USD", nil), tr)
	d := newAllocator(tr, pool).allocateDay(tr.dates[0])

	best := d.picks[0].best
	require.NotNil(t, best)
	want := geo.HaversineKm(geo.Point(anchorLat, anchorLng), best.c.point)
	assert.InDelta(t, want, best.hopKm, 1e-9)

	noAnchor := cityRequest()
	noAnchor.Destinations = []model.Destination{{Name: "Accra"}}
	tr2 := mustTrip(t, noAnchor)
	d2 := newAllocator(tr2, buildPool(places, hours, newConverter("USD", nil), tr2)).allocateDay(tr2.dates[0])
	assert.Equal(t, 0.0, d2.picks[0].best.hopKm, "no anchor means the first hop is free")
}

func TestHopKm_MissingCoordinates(t *testing.T) {
	located := &candidate{point: geo.Point(anchorLat, anchorLng), hasPoint: true}
	unlocated := &candidate{}

	assert.Equal(t, 0.0, hopKm(nil, located))
	assert.Equal(t, missingHopKm, hopKm(&stop{}, located))
	from := located.stop()
	assert.Equal(t, missingHopKm, hopKm(&from, unlocated))
	assert.Equal(t, 0.0, hopKm(&from, located))
}
