package itinero

// TripRequest is the body of POST /v1/itineraries/preview. Optional numeric
// fields are pointers so the server can apply its defaults.
type TripRequest struct {
	Destinations  []Destination      `json:"destinations"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	BudgetDaily   *float64           `json:"budget_daily,omitempty"`
	Currency      string             `json:"currency,omitempty"`
	Party         *Party             `json:"party,omitempty"`
	Interests     []string           `json:"interests,omitempty"`
	Pace          string             `json:"pace,omitempty"`
	Mode          string             `json:"mode,omitempty"`
	Lodging       *Lodging           `json:"lodging,omitempty"`
	LodgingByDate map[string]Lodging `json:"lodging_by_date,omitempty"`
	SoftDistance  *SoftDistance      `json:"soft_distance,omitempty"`
	AvoidTags     []string           `json:"avoid_tags,omitempty"`
	Debug         bool               `json:"debug,omitempty"`
}

// Destination is a trip destination. Only the first one anchors the search.
type Destination struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Party describes who is travelling.
type Party struct {
	Adults   *int `json:"adults,omitempty"`
	Children *int `json:"children,omitempty"`
}

// Lodging is where the party sleeps on a given night.
type Lodging struct {
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Address string   `json:"address,omitempty"`
}

// SoftDistance overrides the distance preferences used in scoring.
type SoftDistance struct {
	AnchorKm *float64 `json:"anchor_km,omitempty"`
	HopKm    *float64 `json:"hop_km,omitempty"`
}

// Itinerary is the generated trip plan.
type Itinerary struct {
	TripSummary TripSummary    `json:"trip_summary"`
	Days        []Day          `json:"days"`
	Places      []Place        `json:"places"`
	Debug       map[string]any `json:"debug,omitempty"`
}

// TripSummary holds trip-level totals.
type TripSummary struct {
	TotalDays            int     `json:"total_days"`
	EstTotalCost         float64 `json:"est_total_cost"`
	Currency             string  `json:"currency"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	PrimaryDestinationID *string `json:"primary_destination_id"`
	BudgetDailyPerPerson float64 `json:"budget_daily_per_person"`
	BudgetDailyTotal     float64 `json:"budget_daily_total"`
	PartySize            int     `json:"party_size"`
}

// Day is one calendar day. Blocks holds morning, afternoon and evening in order.
type Day struct {
	Date                 string   `json:"date"`
	Blocks               []Block  `json:"blocks"`
	Lodging              *Lodging `json:"lodging"`
	ReturnToLodgingMin   *int     `json:"return_to_lodging_min"`
	EstDayCost           float64  `json:"est_day_cost"`
	BudgetDaily          float64  `json:"budget_daily"`
	BudgetStatus         string   `json:"budget_status"`
	MapPolyline          string   `json:"map_polyline,omitempty"`
	MapPolylinePrecision int      `json:"map_polyline_precision,omitempty"`
}

// Block is a single slot of a day. PlaceID is nil when nothing was eligible.
type Block struct {
	When              string        `json:"when"`
	PlaceID           *string       `json:"place_id"`
	Title             string        `json:"title"`
	EstCost           float64       `json:"est_cost"`
	DurationMin       int           `json:"duration_min"`
	TravelMinFromPrev int           `json:"travel_min_from_prev"`
	Notes             string        `json:"notes,omitempty"`
	Alternatives      []Alternative `json:"alternatives"`
}

// Alternative is a runner-up candidate for a block.
type Alternative struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
	EstCost  float64  `json:"est_cost"`
	Hint     struct {
		HopKm float64 `json:"hop_km"`
		Score float64 `json:"score"`
	} `json:"hint"`
}

// Place is a catalog place referenced by the itinerary.
type Place struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Category     *string  `json:"category"`
	Tags         []string `json:"tags"`
	Popularity   *float64 `json:"popularity"`
	CostTypical  *float64 `json:"cost_typical"`
	CostCurrency *string  `json:"cost_currency"`
	Description  *string  `json:"description"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Postgres      string `json:"postgres"`
	Routing       string `json:"routing"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
