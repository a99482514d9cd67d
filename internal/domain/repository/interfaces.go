package repository

import (
	"context"
	"time"

	"MarketBrief/internal/domain/models"
)

// PriceSource fetches a live quote for a canonical symbol.
type PriceSource interface {
	Name() string
	Supports(t models.InstrumentType) bool
	Quote(ctx context.Context, symbol string) (models.MarketDataSnapshot, error)
}

// NewsQuery narrows a news lookup.
type NewsQuery struct {
	Symbol   string
	Keywords []string
	Limit    int
}

// NewsSource fetches recent headlines.
type NewsSource interface {
	Name() string
	News(ctx context.Context, q NewsQuery) ([]models.NewsItem, error)
}

// CalendarQuery narrows an economic calendar lookup.
type CalendarQuery struct {
	From       time.Time
	To         time.Time
	Currencies []string
}

// CalendarSource fetches scheduled economic releases.
type CalendarSource interface {
	Name() string
	Events(ctx context.Context, q CalendarQuery) ([]models.CalendarEvent, error)
}

// BriefSink records produced briefs (message bus, analytics store).
type BriefSink interface {
	Name() string
	Save(ctx context.Context, b *models.Brief) error
	Close() error
}

// BriefHistory reads previously stored briefs, newest first.
type BriefHistory interface {
	Recent(ctx context.Context, instrument string, limit int) ([]models.BriefRecord, error)
}

// Metrics records pipeline and source observations.
type Metrics interface {
	RecordSourceResult(kind, source, result string)
	RecordSourceLatency(kind, source string, seconds float64)
	RecordBreakerState(source string, state int)
	RecordBrief(instrument string, seconds float64)
	RecordIntent(intent string)
	RecordWarning(kind string)
	RecordSinkError(sink string)
}
