package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItineraryDay is one entry of a tour's day-by-day plan.
type ItineraryDay struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Itinerary is ordered by Day.
type Itinerary []ItineraryDay

// Validate checks that days start at 1, increase strictly and carry a title.
func (it Itinerary) Validate() error {
	prev := 0
	for i, d := range it {
		if d.Day <= prev {
			return fmt.Errorf("itinerary[%d]: day %d must be greater than %d", i, d.Day, prev)
		}
		if i == 0 && d.Day != 1 {
			return errors.New("itinerary must start at day 1")
		}
		if strings.TrimSpace(d.Title) == "" {
			return fmt.Errorf("itinerary[%d]: title required", i)
		}
		prev = d.Day
	}
	return nil
}

// Tour is a sellable package. Slug is the unique public key used by the
// site's tour pages.
type Tour struct {
	ID           uint64          `json:"id"`
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Region       string          `json:"region"`
	DurationDays int             `json:"duration_days"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Summary      string          `json:"summary"`
	Description  string          `json:"description"`
	Itinerary    Itinerary       `json:"itinerary"`
	Highlights   []string        `json:"highlights"`
	Inclusions   []string        `json:"inclusions"`
	Exclusions   []string        `json:"exclusions"`
	Images       []string        `json:"images"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Destination aggregates active tours by region for the destinations page.
type Destination struct {
	Region    string          `json:"region"`
	TourCount int             `json:"tour_count"`
	FromPrice decimal.Decimal `json:"from_price"`
}
