package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"MarketBrief/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	topic  string
	key    []byte
	value  any
	err    error
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, topic string, key []byte, value any) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakePublisher) Close() error { f.closed = true; return nil }

type fakeDB struct {
	query string
	args  []any
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	f.query, f.args = q, args
	return nil, f.err
}

func (f *fakeDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func sampleBrief() *models.Brief {
	return &models.Brief{
		ID:         "b-1",
		Message:    "why did gold drop?",
		Instrument: "XAUUSD",
		Timeframe:  models.TFH1,
		Intents:    []models.Intent{{Type: models.IntentWhyMoved}},
		Session:    models.MarketSession{Name: "London/New York overlap"},
		MarketData: &models.MarketDataSnapshot{Price: 2645.5, Source: "twelvedata"},
		Catalysts:  []models.Catalyst{{Title: "US CPI m/m"}},
		Text:       "XAUUSD · H1",
		CreatedAt:  time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC),
		LatencyMs:  42,
	}
}

func TestKafkaBriefSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaBriefSink(pub, "briefs")
	require.NoError(t, sink.Save(context.Background(), sampleBrief()))
	assert.Equal(t, "kafka", sink.Name())
	assert.Equal(t, "briefs", pub.topic)
	assert.Equal(t, []byte("XAUUSD"), pub.key)

	b := sampleBrief()
	b.Instrument = ""
	require.NoError(t, sink.Save(context.Background(), b))
	assert.Equal(t, []byte("none"), pub.key)

	require.NoError(t, sink.Close())
	assert.True(t, pub.closed)
}

func TestCHBriefStoreSave(t *testing.T) {
	db := &fakeDB{}
	store := NewCHBriefStore(db, "marketbrief", nil)
	require.NoError(t, store.Save(context.Background(), sampleBrief()))

	assert.True(t, strings.HasPrefix(db.query, "INSERT INTO marketbrief.briefs"))
	require.Len(t, db.args, 13)
	assert.Equal(t, "b-1", db.args[0])
	assert.Equal(t, "XAUUSD", db.args[2])
	assert.Equal(t, []string{"WHY_MOVED"}, db.args[5])
	assert.Equal(t, 2645.5, db.args[7])
	assert.Equal(t, "US CPI m/m", db.args[9])
	assert.Equal(t, []string{}, db.args[10])
	assert.Equal(t, uint32(42), db.args[12])
}

func TestCHBriefStoreSaveError(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	store := NewCHBriefStore(db, "marketbrief", nil)
	err := store.Save(context.Background(), sampleBrief())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert brief")
}

func TestBriefSchema(t *testing.T) {
	stmts := BriefSchema("marketbrief", 30)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS marketbrief", stmts[0])
	assert.Contains(t, stmts[1], "marketbrief.briefs")
	assert.Contains(t, stmts[1], "INTERVAL 30 DAY")
}
