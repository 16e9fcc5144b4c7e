package model

import (
	"strings"
)

// Pace is the requested trip intensity.
type Pace string

const (
	PaceChill    Pace = "chill"
	PaceBalanced Pace = "balanced"
	PacePacked   Pace = "packed"
)

// Mode is the canonical travel mode used for routing and speed lookups.
type Mode string

const (
	ModeWalking   Mode = "walking"
	ModeBicycling Mode = "bicycling"
	ModeDriving   Mode = "driving"
	ModeTransit   Mode = "transit"
)

// ParseMode resolves a caller-supplied travel mode to its canonical value.
// Unrecognized values resolve to ModeWalking.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walk", "walking":
		return ModeWalking
	case "bike", "bicycle", "bicycling", "cycling":
		return ModeBicycling
	case "car", "drive", "driving":
		return ModeDriving
	case "transit":
		return ModeTransit
	default:
		return ModeWalking
	}
}

// TripRequest is the input to itinerary generation.
type TripRequest struct {
	Destinations  []Destination      `json:"destinations"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	BudgetDaily   *float64           `json:"budget_daily,omitempty"` // per person
	Currency      string             `json:"currency,omitempty"`
	Party         *Party             `json:"party,omitempty"`
	Interests     []string           `json:"interests,omitempty"`
	Pace          Pace               `json:"pace,omitempty"`
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

// HasCoords reports whether both coordinates are present.
func (d Destination) HasCoords() bool { return d.Lat != nil && d.Lng != nil }

// Party describes who is travelling. Nil counts fall back to 1 adult, 0 children.
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

// HasCoords reports whether both coordinates are present.
func (l Lodging) HasCoords() bool { return l.Lat != nil && l.Lng != nil }

// SoftDistance overrides the distance preferences used in scoring.
type SoftDistance struct {
	AnchorKm *float64 `json:"anchor_km,omitempty"`
	HopKm    *float64 `json:"hop_km,omitempty"`
}
