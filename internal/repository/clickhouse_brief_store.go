package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketBrief/internal/domain/models"
	applogger "MarketBrief/pkg/logger"
)

// DB is the subset of *sql.DB the store uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// BriefSchema returns the DDL for the briefs table.
func BriefSchema(database string, retentionDays int) []string {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.briefs (
    id           String,
    created_at   DateTime64(3, 'UTC'),
    instrument   LowCardinality(String),
    timeframe    LowCardinality(String),
    message      String,
    intents      Array(LowCardinality(String)),
    session      LowCardinality(String),
    price        Float64,
    price_source LowCardinality(String),
    top_catalyst String,
    warnings     Array(String),
    text         String,
    latency_ms   UInt32
) ENGINE = MergeTree
ORDER BY (instrument, created_at)
TTL toDateTime(created_at) + INTERVAL %d DAY`, database, retentionDays),
	}
}

// CHBriefStore records briefs in ClickHouse and reads them back.
type CHBriefStore struct {
	db    DB
	table string
	close func() error
	l     *applogger.Logger
}

// NewCHBriefStore creates a store over database.briefs. closeFn may be nil.
func NewCHBriefStore(db DB, database string, closeFn func() error) *CHBriefStore {
	return &CHBriefStore{db: db, table: database + ".briefs", close: closeFn, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHBriefStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBriefStore) Name() string { return "clickhouse" }

func (s *CHBriefStore) Save(ctx context.Context, b *models.Brief) error {
	r := b.Record()
	q := fmt.Sprintf(`INSERT INTO %s (id, created_at, instrument, timeframe, message, intents, session,
        price, price_source, top_catalyst, warnings, text, latency_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.CreatedAt, r.Instrument, r.Timeframe, r.Message, r.Intents, r.Session,
		r.Price, r.PriceSource, r.TopCatalyst, r.Warnings, r.Text, uint32(r.LatencyMs),
	)
	if err != nil {
		s.l.Error("clickhouse insert brief error",
			applogger.String("table", s.table),
			applogger.String("id", r.ID),
			applogger.Error(err),
		)
		return fmt.Errorf("insert brief: %w", err)
	}
	return nil
}

// Recent returns the newest briefs, optionally for one instrument.
func (s *CHBriefStore) Recent(ctx context.Context, instrument string, limit int) ([]models.BriefRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT id, created_at, instrument, timeframe, message, intents, session,
        price, price_source, top_catalyst, warnings, text, latency_ms
        FROM %s`, s.table)
	args := []any{}
	if instrument != "" {
		q += " WHERE instrument = ?"
		args = append(args, instrument)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recent briefs: %w", err)
	}
	defer rows.Close()

	out := make([]models.BriefRecord, 0, limit)
	for rows.Next() {
		var (
			r       models.BriefRecord
			created time.Time
			latency uint32
		)
		if err := rows.Scan(&r.ID, &created, &r.Instrument, &r.Timeframe, &r.Message, &r.Intents, &r.Session,
			&r.Price, &r.PriceSource, &r.TopCatalyst, &r.Warnings, &r.Text, &latency); err != nil {
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		r.CreatedAt, r.LatencyMs = created, int64(latency)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHBriefStore) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}
