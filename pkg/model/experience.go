package model

import (
	"time"
)

// Slot is the seat inventory for one experience on one calendar day.
// available is mutated only through the inventory repository's atomic
// operations; 0 <= available <= max_capacity holds at all times.
type Slot struct {
	Date        time.Time `json:"date" bson:"date" validate:"required"`
	Available   int       `json:"available" bson:"available" validate:"min=0"`
	MaxCapacity int       `json:"max_capacity" bson:"max_capacity" validate:"required,min=1,gtefield=Available"`
}

type Experience struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title         string    `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Description   string    `json:"description" bson:"description" validate:"required"`
	Price         float64   `json:"price" bson:"price" validate:"required,gt=0"`
	OriginalPrice *float64  `json:"original_price,omitempty" bson:"original_price,omitempty" validate:"omitempty,gt=0"`
	Image         string    `json:"image" bson:"image" validate:"required,url"`
	Location      string    `json:"location" bson:"location" validate:"required"`
	Duration      string    `json:"duration" bson:"duration" validate:"required"`
	Category      string    `json:"category" bson:"category" validate:"required"`
	Slots         []Slot    `json:"slots" bson:"slots" validate:"dive"`
	Rating        float64   `json:"rating" bson:"rating" validate:"min=0,max=5"`
	ReviewCount   int       `json:"review_count" bson:"review_count" validate:"min=0"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// DayStart truncates a timestamp to UTC midnight. Slot matching is by
// calendar day; two requests naming different times on the same day resolve
// to the same slot.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayRange returns the half-open [start, end) interval covering the calendar
// day of t.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := DayStart(t)
	return start, start.Add(24 * time.Hour)
}

// SlotForDate returns the slot matching the calendar day of date, or nil.
func (e *Experience) SlotForDate(date time.Time) *Slot {
	start, end := DayRange(date)
	for i := range e.Slots {
		d := e.Slots[i].Date.UTC()
		if !d.Before(start) && d.Before(end) {
			return &e.Slots[i]
		}
	}
	return nil
}
