package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReaderConfig selects what Tail reads.
type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// FromStart reads from the earliest offset instead of only new messages.
	// Without a GroupID only partition 0 is read.
	FromStart bool
}

// Tail reads messages from a topic and passes each value to fn until ctx is
// cancelled or fn returns an error.
func Tail(ctx context.Context, cfg ReaderConfig, fn func(key, value []byte) error) error {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return fmt.Errorf("brokers and topic are required")
	}
	start := kafka.LastOffset
	if cfg.FromStart {
		start = kafka.FirstOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: start,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		MaxWait:     500 * time.Millisecond,
	})
	defer r.Close()
	if cfg.GroupID == "" && !cfg.FromStart {
		if err := r.SetOffset(kafka.LastOffset); err != nil {
			return fmt.Errorf("kafka seek %s: %w", cfg.Topic, err)
		}
	}

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("kafka read %s: %w", cfg.Topic, err)
		}
		if err := fn(m.Key, m.Value); err != nil {
			return err
		}
	}
}
