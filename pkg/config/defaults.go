package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "bookit"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultReferenceRetryLimit = 3
	DefaultMaxSlotsPerBooking  = 50

	DefaultKafkaBookingTopic = "bookit.bookings.created"

	DefaultPaginationLimit = 50
)

const (
	// FixedDiscountClamp caps a fixed discount at the subtotal so the final
	// amount never goes negative.
	FixedDiscountClamp = "clamp"
	// FixedDiscountReject refuses a fixed promo whose value exceeds the
	// subtotal.
	FixedDiscountReject = "reject"

	DefaultFixedDiscountPolicy = FixedDiscountClamp
)

// Booking status values.
const (
	Confirmed = "confirmed"
	Pending   = "pending"
	Cancelled = "cancelled"
)
