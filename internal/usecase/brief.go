package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"MarketBrief/internal/domain/models"
	drepo "MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/marketdata"
	"MarketBrief/internal/services/assembler"
	"MarketBrief/internal/services/catalyst"
	"MarketBrief/internal/services/hints"
	"MarketBrief/internal/services/intent"
	"MarketBrief/internal/services/levels"
	"MarketBrief/internal/services/normalizer"
	"MarketBrief/internal/services/session"
	"MarketBrief/internal/services/sizing"
	"MarketBrief/pkg/logger"

	"github.com/google/uuid"
)

// ErrEmptyMessage is returned when the message has no text.
var ErrEmptyMessage = errors.New("message is empty")

// Fetcher gathers market data for one run.
type Fetcher interface {
	Fetch(ctx context.Context, req marketdata.Request) marketdata.Bundle
}

// BriefUseCase runs the full pipeline: normalize, classify, fetch, rank, size, assemble.
type BriefUseCase struct {
	fetcher     Fetcher
	ranker      *catalyst.Ranker
	sinks       []drepo.BriefSink
	metrics     drepo.Metrics
	log         *logger.Logger
	now         func() time.Time
	sinkTimeout time.Duration

	wg sync.WaitGroup
}

// BriefOption configures a BriefUseCase.
type BriefOption func(*BriefUseCase)

func WithBriefSinks(s ...drepo.BriefSink) BriefOption {
	return func(u *BriefUseCase) { u.sinks = append(u.sinks, s...) }
}

func WithBriefMetrics(m drepo.Metrics) BriefOption {
	return func(u *BriefUseCase) { u.metrics = m }
}

func WithBriefLogger(l *logger.Logger) BriefOption {
	return func(u *BriefUseCase) { u.log = l }
}

func WithBriefClock(now func() time.Time) BriefOption {
	return func(u *BriefUseCase) { u.now = now }
}

func WithSinkTimeout(d time.Duration) BriefOption {
	return func(u *BriefUseCase) { u.sinkTimeout = d }
}

// NewBriefUseCase creates a BriefUseCase. A nil ranker uses default scoring.
func NewBriefUseCase(fetcher Fetcher, ranker *catalyst.Ranker, opts ...BriefOption) *BriefUseCase {
	if ranker == nil {
		ranker = catalyst.NewRanker(catalyst.DefaultScoringConfig())
	}
	u := &BriefUseCase{
		fetcher:     fetcher,
		ranker:      ranker,
		metrics:     nopMetrics{},
		log:         logger.Nop(),
		now:         time.Now,
		sinkTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Generate answers one message. Upstream failures degrade the brief but never fail it.
func (u *BriefUseCase) Generate(ctx context.Context, req models.BriefRequest) (*models.Brief, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	start := u.now()

	instrument := resolveInstrument(req.Instrument, msg)
	tf := normalizer.ExtractTimeframe(msg)
	if req.Timeframe != "" {
		tf = normalizer.NormalizeTimeframe(string(req.Timeframe))
	}

	intents := intent.DetectIntents(msg)
	h := mergeHints(hints.Extract(msg), req)
	sizingRequested := models.HasIntent(intents, models.IntentPositionSize) || h.Any()

	b := &models.Brief{
		ID:        uuid.NewString(),
		Message:   msg,
		Timeframe: tf,
		Intents:   intents,
		Session:   session.GetMarketSession(start),
		CreatedAt: start,
	}

	fr := marketdata.Request{
		NeedPrice:    intent.NeedsPrice(intents) || (sizingRequested && h.EntryPrice == 0),
		NeedNews:     intent.NeedsNews(intents),
		NeedCalendar: intent.NeedsNews(intents),
		Currencies:   []string{"USD"},
	}
	if instrument != "" {
		spec := normalizer.GetInstrumentSpecs(instrument)
		b.Instrument, b.Spec = instrument, &spec
		fr.Symbol, fr.Type = instrument, spec.Type
		fr.Keywords = normalizer.Keywords(instrument)
		fr.Currencies = normalizer.Currencies(instrument)
	} else {
		fr.NeedPrice = false
	}

	bundle := u.fetcher.Fetch(ctx, fr)
	b.MarketData = bundle.Price
	b.SourceStatus = bundle.Status

	if fr.NeedNews || fr.NeedCalendar {
		b.Catalysts = u.ranker.Rank(bundle.News, bundle.Events, instrument, start)
		for _, e := range bundle.Events {
			if e.Time.After(start) {
				b.UpcomingEvents = append(b.UpcomingEvents, e)
			}
		}
	}
	if b.Catalysts == nil {
		b.Catalysts = []models.Catalyst{}
	}

	decimals := 2
	if b.Spec != nil {
		decimals = b.Spec.DecimalPlaces
	}
	if b.MarketData != nil {
		if lv, ok := levels.Compute(*b.MarketData, decimals); ok {
			b.Levels = &lv
		}
	}

	if sizingRequested {
		entry := h.EntryPrice
		if entry == 0 && b.MarketData != nil && b.MarketData.HasPrice() {
			entry = b.MarketData.Price
		}
		res := sizing.CalculatePositionSize(models.PositionSizeRequest{
			Instrument:  instrument,
			AccountSize: h.AccountSize,
			RiskPercent: h.RiskPercent,
			EntryPrice:  entry,
			StopLoss:    h.StopLoss,
		})
		b.Position = &res
	}

	in := assembler.Input{
		Instrument:      b.Instrument,
		Spec:            b.Spec,
		Timeframe:       tf,
		Intents:         intents,
		Session:         b.Session,
		MarketData:      b.MarketData,
		Catalysts:       b.Catalysts,
		UpcomingEvents:  b.UpcomingEvents,
		Levels:          b.Levels,
		Position:        b.Position,
		SizingRequested: sizingRequested,
		SourceStatus:    b.SourceStatus,
		Now:             start,
	}
	b.Sections = assembler.Assemble(in)
	b.Text = assembler.Render(b.Sections)
	warnings := assembler.Validate(in, b.Sections)
	b.ValidationWarnings = assembler.Messages(warnings)

	elapsed := u.now().Sub(start)
	b.LatencyMs = elapsed.Milliseconds()
	u.record(b, warnings, elapsed)
	u.publish(b)

	u.log.Info("brief generated",
		logger.String("id", b.ID),
		logger.String("instrument", b.Instrument),
		logger.Int("intents", len(intents)),
		logger.Int("catalysts", len(b.Catalysts)),
		logger.Int("warnings", len(warnings)),
		logger.Duration("latency", elapsed),
	)
	return b, nil
}

func resolveInstrument(override, msg string) string {
	if override != "" {
		if s, ok := normalizer.NormalizeSymbol(override); ok {
			return s
		}
	}
	s, _ := normalizer.ExtractInstrument(msg)
	return s
}

func mergeHints(h hints.Hints, req models.BriefRequest) hints.Hints {
	if req.AccountSize > 0 {
		h.AccountSize = req.AccountSize
	}
	if req.RiskPercent > 0 {
		h.RiskPercent = req.RiskPercent
	}
	if req.EntryPrice > 0 {
		h.EntryPrice = req.EntryPrice
	}
	if req.StopLoss > 0 {
		h.StopLoss = req.StopLoss
	}
	return h
}

func (u *BriefUseCase) record(b *models.Brief, warnings []assembler.Warning, elapsed time.Duration) {
	name := b.Instrument
	if name == "" {
		name = "none"
	}
	u.metrics.RecordBrief(name, elapsed.Seconds())
	for _, it := range b.Intents {
		u.metrics.RecordIntent(string(it.Type))
	}
	for _, w := range warnings {
		u.metrics.RecordWarning(w.Kind)
	}
}

// publish hands the brief to every sink without delaying the caller.
func (u *BriefUseCase) publish(b *models.Brief) {
	for _, s := range u.sinks {
		u.wg.Add(1)
		go func(s drepo.BriefSink) {
			defer u.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), u.sinkTimeout)
			defer cancel()
			if err := s.Save(ctx, b); err != nil {
				u.metrics.RecordSinkError(s.Name())
				u.log.Warn("brief sink failed",
					logger.String("sink", s.Name()),
					logger.String("id", b.ID),
					logger.Error(err),
				)
			}
		}(s)
	}
}

// Close waits for in-flight sink writes and closes the sinks.
func (u *BriefUseCase) Close() error {
	u.wg.Wait()
	var errs []error
	for _, s := range u.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopMetrics struct{}

func (nopMetrics) RecordSourceResult(string, string, string)   {}
func (nopMetrics) RecordSourceLatency(string, string, float64) {}
func (nopMetrics) RecordBreakerState(string, int)              {}
func (nopMetrics) RecordBrief(string, float64)                 {}
func (nopMetrics) RecordIntent(string)                         {}
func (nopMetrics) RecordWarning(string)                        {}
func (nopMetrics) RecordSinkError(string)                      {}
