package model

import (
	"time"
)

// Booking is immutable once created; only status may change later.
type Booking struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ExperienceID     string    `json:"experience_id" bson:"experience_id" validate:"required,mongodb"`
	UserName         string    `json:"user_name" bson:"user_name" validate:"required,min=2,max=100"`
	UserEmail        string    `json:"user_email" bson:"user_email" validate:"required,email"`
	UserPhone        string    `json:"user_phone" bson:"user_phone" validate:"required,e164"`
	SelectedDate     time.Time `json:"selected_date" bson:"selected_date" validate:"required"`
	NumberOfSlots    int       `json:"number_of_slots" bson:"number_of_slots" validate:"required,min=1"`
	TotalAmount      float64   `json:"total_amount" bson:"total_amount" validate:"min=0"`
	DiscountAmount   float64   `json:"discount_amount" bson:"discount_amount" validate:"min=0"`
	FinalAmount      float64   `json:"final_amount" bson:"final_amount" validate:"min=0"`
	PromoCode        string    `json:"promo_code,omitempty" bson:"promo_code,omitempty"`
	Status           string    `json:"status" bson:"status" validate:"required,oneof=confirmed pending cancelled"`
	BookingReference string    `json:"booking_reference" bson:"booking_reference" validate:"required"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingRequest is the inbound shape for booking creation. Contact fields
// are sanitized before validation; UserPhone must normalize to E.164.
type BookingRequest struct {
	ExperienceID  string    `json:"experience_id" validate:"required,mongodb"`
	UserName      string    `json:"user_name" validate:"required,min=2,max=100"`
	UserEmail     string    `json:"user_email" validate:"required,email"`
	UserPhone     string    `json:"user_phone" validate:"required,e164"`
	SelectedDate  time.Time `json:"selected_date" validate:"required"`
	NumberOfSlots int       `json:"number_of_slots" validate:"required,min=1"`
	PromoCode     string    `json:"promo_code,omitempty" validate:"omitempty,min=3,max=20"`
}
