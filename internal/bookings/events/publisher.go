package events

import (
	"context"
	"time"

	"bookit/pkg/config"
	"bookit/pkg/kafka"
	"bookit/pkg/logger"
	"bookit/pkg/model"
)

const (
	EventTypeBookingCreated = "booking.created"

	source = "bookit-server"
)

// BookingCreatedEvent is the payload published after a booking is persisted.
type BookingCreatedEvent struct {
	BookingID        string    `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	ExperienceID     string    `json:"experience_id"`
	UserEmail        string    `json:"user_email"`
	SelectedDate     time.Time `json:"selected_date"`
	NumberOfSlots    int       `json:"number_of_slots"`
	FinalAmount      float64   `json:"final_amount"`
	PromoCode        string    `json:"promo_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Publisher emits booking lifecycle events. Publishing is best effort: the
// booking is already committed when this runs, so failures are logged, not
// propagated.
type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher returns a Kafka-backed publisher, or a noop one when no
// brokers are configured.
func NewPublisher(cfg *config.Config, log *logger.Logger) (Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("No Kafka brokers configured, booking events disabled")
		return &noopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), cfg.KafkaBookingTopic)
	if err != nil {
		return nil, err
	}

	log.Info("Booking event publisher initialized",
		"topic", cfg.KafkaBookingTopic,
		"brokers", len(cfg.KafkaBrokers),
	)

	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}, nil
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	event := BookingCreatedEvent{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		ExperienceID:     booking.ExperienceID,
		UserEmail:        booking.UserEmail,
		SelectedDate:     booking.SelectedDate,
		NumberOfSlots:    booking.NumberOfSlots,
		FinalAmount:      booking.FinalAmount,
		PromoCode:        booking.PromoCode,
		CreatedAt:        booking.CreatedAt,
	}

	msg, err := kafka.NewMessage(EventTypeBookingCreated, source).
		WithKey(booking.BookingReference).
		WithJSON(event).
		Build()
	if err != nil {
		p.log.Error("Failed to build booking created event",
			"booking_reference", booking.BookingReference,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking created event",
			"booking_reference", booking.BookingReference,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

func (noopPublisher) BookingCreated(context.Context, *model.Booking) {}

func (noopPublisher) Close() error { return nil }
