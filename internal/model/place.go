package model

import "github.com/paulmach/orb"

// Place is a read-only catalog row. Nullable columns are pointers so that
// the engine can apply its own defaults.
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

// HasCoords reports whether both coordinates are present.
func (p Place) HasCoords() bool { return p.Lat != nil && p.Lng != nil }

// OpeningWindow is an open/close pair in minutes after midnight.
type OpeningWindow struct {
	Open  int `json:"open_min"`
	Close int `json:"close_min"`
}

// WeeklyHours maps day of week (0 = Sunday) to that day's opening window.
type WeeklyHours map[int]OpeningWindow

// OpenAt reports whether the place is open at minute-of-day m on dow.
// Both window edges are inclusive. A day with no window is closed.
// Windows never cross midnight: a bar open 18:00-02:00 must be stored as
// 18:00-24:00, otherwise Open > Close and it is never open, not even at 19:00.
func (w WeeklyHours) OpenAt(dow, m int) bool {
	win, ok := w[dow]
	if !ok {
		return false
	}
	return m >= win.Open && m <= win.Close
}

// PlaceQuery selects candidate places from the catalog. A nil Bound means
// no spatial filter. Results are ordered by popularity descending, then id.
type PlaceQuery struct {
	Bound *orb.Bound
	Limit int
}
