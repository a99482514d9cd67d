package repository

import (
	"context"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
)

// Publisher is the part of the Kafka producer the sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
	Close() error
}

// KafkaBriefSink publishes every brief to a topic keyed by instrument, so one
// instrument's briefs stay ordered within a partition.
type KafkaBriefSink struct {
	pub   Publisher
	topic string
}

// NewKafkaBriefSink creates a Kafka brief sink.
func NewKafkaBriefSink(pub Publisher, topic string) repository.BriefSink {
	return &KafkaBriefSink{pub: pub, topic: topic}
}

func (s *KafkaBriefSink) Name() string { return "kafka" }

func (s *KafkaBriefSink) Save(ctx context.Context, b *models.Brief) error {
	key := b.Instrument
	if key == "" {
		key = "none"
	}
	return s.pub.Publish(ctx, s.topic, []byte(key), b)
}

func (s *KafkaBriefSink) Close() error {
	if s.pub != nil {
		return s.pub.Close()
	}
	return nil
}
