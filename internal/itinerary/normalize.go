package itinerary

import (
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/model"
)

const (
	dateLayout = "2006-01-02"

	defaultCurrency        = "USD"
	defaultBudgetPerPerson = 100.0
	defaultSoftAnchorKm    = 12.0
)

// trip is a validated, normalized TripRequest. It is owned by one
// Generate call.
type trip struct {
	req model.TripRequest

	currency  string
	interests []string
	avoidTags []string
	pace      model.Pace
	mode      model.Mode

	partySize        int
	budgetPerPerson  float64
	dailyBudgetTotal float64

	dates []time.Time

	// anchor is the first destination's coordinate, if it has one.
	anchor *orb.Point

	softAnchorKm float64
	hopPrefKm    float64
}

func normalize(req model.TripRequest, maxDays int) (*trip, error) {
	if len(req.Destinations) == 0 {
		return nil, model.Invalid("destinations", "at least one destination is required")
	}
	if strings.TrimSpace(req.StartDate) == "" {
		return nil, model.Invalid("start_date", "start_date and end_date are required")
	}
	if strings.TrimSpace(req.EndDate) == "" {
		return nil, model.Invalid("end_date", "start_date and end_date are required")
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return nil, model.Invalid("start_date", "must be YYYY-MM-DD, got %q", req.StartDate)
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(req.EndDate))
	if err != nil {
		return nil, model.Invalid("end_date", "must be YYYY-MM-DD, got %q", req.EndDate)
	}
	if start.After(end) {
		return nil, model.Invalid("start_date", "must not be after end_date")
	}
	if days := int(end.Sub(start).Hours()/24) + 1; maxDays > 0 && days > maxDays {
		return nil, model.Invalid("end_date", "trip spans %d days, maximum is %d", days, maxDays)
	}

	pace := model.Pace(strings.ToLower(strings.TrimSpace(string(req.Pace))))
	switch pace {
	case "":
		pace = model.PaceBalanced
	case model.PaceChill, model.PaceBalanced, model.PacePacked:
	default:
		return nil, model.Invalid("pace", "must be one of chill, balanced, packed, got %q", req.Pace)
	}

	t := &trip{
		req:          req,
		currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
		interests:    cleanTerms(req.Interests),
		avoidTags:    cleanTerms(req.AvoidTags),
		pace:         pace,
		mode:         model.ParseMode(req.Mode),
		softAnchorKm: defaultSoftAnchorKm,
		hopPrefKm:    hopPrefForPace(pace),
	}
	if t.currency == "" {
		t.currency = defaultCurrency
	}

	if sd := req.SoftDistance; sd != nil {
		if sd.AnchorKm != nil {
			if *sd.AnchorKm < 0 || !finite(*sd.AnchorKm) {
				return nil, model.Invalid("soft_distance.anchor_km", "must be a non-negative number")
			}
			t.softAnchorKm = *sd.AnchorKm
		}
		if sd.HopKm != nil {
			if *sd.HopKm <= 0 || !finite(*sd.HopKm) {
				return nil, model.Invalid("soft_distance.hop_km", "must be a positive number")
			}
			t.hopPrefKm = *sd.HopKm
		}
	}

	adults, children := 1, 0
	if req.Party != nil {
		if req.Party.Adults != nil {
			adults = *req.Party.Adults
		}
		if req.Party.Children != nil {
			children = *req.Party.Children
		}
	}
	t.partySize = max(1, adults+children)

	t.budgetPerPerson = defaultBudgetPerPerson
	if req.BudgetDaily != nil && finite(*req.BudgetDaily) {
		t.budgetPerPerson = *req.BudgetDaily
	}
	t.dailyBudgetTotal = t.budgetPerPerson * float64(t.partySize)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		t.dates = append(t.dates, d)
	}

	if dest := req.Destinations[0]; dest.HasCoords() {
		p := geo.Point(*dest.Lat, *dest.Lng)
		t.anchor = &p
	}
	return t, nil
}

// lodgingFor returns the lodging for date. A per-date entry always wins;
// the trip-wide lodging applies only when it has coordinates.
func (t *trip) lodgingFor(date string) *model.Lodging {
	if l, ok := t.req.LodgingByDate[date]; ok {
		return &l
	}
	if t.req.Lodging != nil && t.req.Lodging.HasCoords() {
		l := *t.req.Lodging
		return &l
	}
	return nil
}

func (t *trip) durationMin() int {
	switch t.pace {
	case model.PacePacked:
		return 150
	case model.PaceChill:
		return 90
	default:
		return 120
	}
}

func hopPrefForPace(p model.Pace) float64 {
	switch p {
	case model.PaceChill:
		return 12
	case model.PacePacked:
		return 18
	default:
		return 15
	}
}

// cleanTerms trims and lower-cases terms, dropping blanks.
func cleanTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
