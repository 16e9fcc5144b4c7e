package model

// Slot is one of the three fixed daily time windows.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

// Slots lists the daily slots in emission order.
var Slots = [3]Slot{SlotMorning, SlotAfternoon, SlotEvening}

// BudgetStatus classifies a day's spend against its total daily budget.
type BudgetStatus string

const (
	BudgetUnder    BudgetStatus = "under"
	BudgetBalanced BudgetStatus = "balanced"
	BudgetOver     BudgetStatus = "over"
)

// Itinerary is the generated trip plan.
type Itinerary struct {
	TripSummary TripSummary `json:"trip_summary"`
	Days        []Day       `json:"days"`
	Places      []Place     `json:"places"`
	Debug       *Debug      `json:"debug,omitempty"`
}

// TripSummary holds trip-level totals and the normalized inputs.
type TripSummary struct {
	TotalDays            int        `json:"total_days"`
	EstTotalCost         float64    `json:"est_total_cost"`
	Currency             string     `json:"currency"`
	StartDate            string     `json:"start_date"`
	EndDate              string     `json:"end_date"`
	PrimaryDestinationID *string    `json:"primary_destination_id"`
	BudgetDailyPerPerson float64    `json:"budget_daily_per_person"`
	BudgetDailyTotal     float64    `json:"budget_daily_total"`
	PartySize            int        `json:"party_size"`
	Inputs               TripInputs `json:"inputs"`
}

// TripInputs echoes the normalized request.
type TripInputs struct {
	Destinations  []Destination      `json:"destinations"`
	Interests     []string           `json:"interests"`
	AvoidTags     []string           `json:"avoid_tags"`
	Pace          Pace               `json:"pace"`
	Mode          Mode               `json:"mode"`
	Lodging       *Lodging           `json:"lodging"`
	LodgingByDate map[string]Lodging `json:"lodging_by_date"`
	SoftDistance  *SoftDistance      `json:"soft_distance"`
}

// Day is one calendar day of the itinerary. Blocks always has one entry per slot.
type Day struct {
	Date                 string       `json:"date"`
	Blocks               []Block      `json:"blocks"`
	Lodging              *Lodging     `json:"lodging"`
	ReturnToLodgingMin   *int         `json:"return_to_lodging_min"`
	EstDayCost           float64      `json:"est_day_cost"`
	BudgetDaily          float64      `json:"budget_daily"`
	BudgetStatus         BudgetStatus `json:"budget_status"`
	MapPolyline          string       `json:"map_polyline,omitempty"`
	MapPolylinePrecision int          `json:"map_polyline_precision,omitempty"`
}

// Block is a single slot of a day. PlaceID is nil when no candidate was eligible.
type Block struct {
	When              Slot          `json:"when"`
	PlaceID           *string       `json:"place_id"`
	Title             string        `json:"title"`
	EstCost           float64       `json:"est_cost"`
	DurationMin       int           `json:"duration_min"`
	TravelMinFromPrev int           `json:"travel_min_from_prev"`
	Notes             string        `json:"notes,omitempty"`
	Alternatives      []Alternative `json:"alternatives"`
}

// Alternative is a runner-up candidate offered next to a block's pick.
type Alternative struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Lat      *float64        `json:"lat"`
	Lng      *float64        `json:"lng"`
	Category *string         `json:"category"`
	Tags     []string        `json:"tags"`
	EstCost  float64         `json:"est_cost"`
	Hint     AlternativeHint `json:"hint"`
}

// AlternativeHint carries the rounded values that ranked the alternative.
type AlternativeHint struct {
	HopKm float64 `json:"hop_km"`
	Score float64 `json:"score"`
}

// Debug is emitted only when the request sets debug.
type Debug struct {
	FXUsed map[string]float64 `json:"fx_used"`
	Days   []DebugDay         `json:"days"`
}

// DebugDay is the scoring trace of one day.
type DebugDay struct {
	Date             string       `json:"date"`
	DayCost          float64      `json:"day_cost"`
	BudgetDailyTotal float64      `json:"budget_daily_total"`
	BudgetStatus     BudgetStatus `json:"budget_status"`
	RouteSource      string       `json:"route_source"`
	Slots            []DebugSlot  `json:"slots"`
}

// DebugSlot is the scoring trace of one slot.
type DebugSlot struct {
	Slot                Slot     `json:"slot"`
	ChosenID            *string  `json:"chosen_id"`
	ChosenName          *string  `json:"chosen_name"`
	ChosenScore         *float64 `json:"chosen_score"`
	ChosenCostConverted *float64 `json:"chosen_cost_converted"`
	BudgetTargetSlot    float64  `json:"budget_target_slot"`
	Eligible            int      `json:"eligible"`
}
