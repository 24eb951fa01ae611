package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// TurfImage is an uploaded picture of a turf
type TurfImage struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// Turf is a bookable sports field
type Turf struct {
	ID                int64           `json:"id"`
	Owner             int64           `json:"owner"`
	Name              string          `json:"name"`
	Location          string          `json:"location"`
	Description       string          `json:"description,omitempty"`
	DayPricePerHour   decimal.Decimal `json:"day_price_per_hour"`
	NightPricePerHour decimal.Decimal `json:"night_price_per_hour"`
	DayStartTime      string          `json:"day_start_time,omitempty"`
	NightStartTime    string          `json:"night_start_time,omitempty"`
	IsActive          bool            `json:"is_active"`
	Images            []TurfImage     `json:"images"`
}

// TurfInput is the writable part of a turf
type TurfInput struct {
	Name              string          `json:"name"`
	Location          string          `json:"location"`
	Description       string          `json:"description"`
	DayPricePerHour   decimal.Decimal `json:"day_price_per_hour"`
	NightPricePerHour decimal.Decimal `json:"night_price_per_hour"`
	DayStartTime      string          `json:"day_start_time,omitempty"`
	NightStartTime    string          `json:"night_start_time,omitempty"`
	IsActive          *bool           `json:"is_active,omitempty"`
}

// Validate checks a turf form before it is sent
func (in TurfInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return invalid("location is required")
	}
	if in.DayPricePerHour.IsNegative() || in.NightPricePerHour.IsNegative() {
		return invalid("prices must not be negative")
	}
	for _, t := range []string{in.DayStartTime, in.NightStartTime} {
		if t == "" {
			continue
		}
		if _, err := ParseClock(t); err != nil {
			return invalid("times must be HH:MM")
		}
	}
	return nil
}

// TurfFilter narrows a turf listing
type TurfFilter struct {
	Owner  bool
	Search string
}

// BookingTurf is the turf summary embedded in a booking
type BookingTurf struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Booking is a reserved time slot on a turf
type Booking struct {
	ID         int64           `json:"id"`
	Turf       BookingTurf     `json:"turf"`
	Date       string          `json:"date"`
	StartTime  string          `json:"start_time"`
	EndTime    string          `json:"end_time"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BookingRequest is the body of POST /bookings/
type BookingRequest struct {
	Turf      int64  `json:"turf"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Validate checks a booking form before it is sent
func (r BookingRequest) Validate() error {
	if r.Turf <= 0 {
		return invalid("turf is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return invalid("date must be YYYY-MM-DD")
	}
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return invalid("start time must be HH:MM")
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return invalid("end time must be HH:MM")
	}
	if !end.After(start) {
		return invalid("end time must be after start time")
	}
	return nil
}

// Hours returns the booked duration in hours
func (r BookingRequest) Hours() decimal.Decimal {
	start, err1 := ParseClock(r.StartTime)
	end, err2 := ParseClock(r.EndTime)
	if err1 != nil || err2 != nil || !end.After(start) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(end.Sub(start).Hours())
}

// ParseClock parses HH:MM or HH:MM:SS
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", s)
}
