package model

// Catalog is a full snapshot of the reference data the engine reads. Both
// catalog stores can be seeded from one.
type Catalog struct {
	Places []CatalogPlace
	Rates  []FXRate
	Speeds map[Mode]float64
}

// CatalogPlace is a place with its weekly opening hours.
type CatalogPlace struct {
	Place Place
	Hours WeeklyHours
}

// FXRate converts one unit of Base into Rate units of Quote.
type FXRate struct {
	Base  string  `json:"base_currency"`
	Quote string  `json:"quote_currency"`
	Rate  float64 `json:"rate"`
}
