package kafka

import (
	"fmt"
	"time"
)

// ProducerConfig holds the tunables for a Kafka writer.
type ProducerConfig struct {
	Brokers      []string
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	Compression  string // "none", "gzip", "snappy", "lz4", "zstd"
	Async        bool
}

func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		MaxAttempts:  3,
		BatchTimeout: 100 * time.Millisecond,
		RequireAcks:  -1,
		Compression:  "snappy",
	}
}

func (cfg ProducerConfig) Validate() error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required")
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.RequireAcks < -1 || cfg.RequireAcks > 1 {
		return fmt.Errorf("require acks must be -1, 0 or 1, got %d", cfg.RequireAcks)
	}
	return nil
}
