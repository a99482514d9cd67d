package yahoo

import (
	"context"
	"errors"
	"testing"

	finance "github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	var asked string
	c := NewWithQuoteFunc(Config{RatePerMinute: 600}, func(symbol string) (*finance.Quote, error) {
		asked = symbol
		return &finance.Quote{
			RegularMarketPrice:         2661.5,
			RegularMarketDayHigh:       2675,
			RegularMarketDayLow:        2650,
			RegularMarketPreviousClose: 2670,
			RegularMarketChangePercent: -0.32,
			RegularMarketTime:          1704117600,
		}, nil
	})

	snap, err := c.Quote(context.Background(), "xauusd")
	require.NoError(t, err)
	assert.Equal(t, "GC=F", asked)
	assert.Equal(t, "XAUUSD", snap.Symbol)
	assert.Equal(t, 2661.5, snap.Price)
	assert.Equal(t, Name, snap.Source)
	assert.Equal(t, int64(1704117600), snap.Timestamp.Unix())
}

func TestQuoteErrors(t *testing.T) {
	failing := NewWithQuoteFunc(Config{}, func(string) (*finance.Quote, error) { return nil, errors.New("429") })
	_, err := failing.Quote(context.Background(), "EURUSD")
	assert.Error(t, err)

	empty := NewWithQuoteFunc(Config{}, func(string) (*finance.Quote, error) { return &finance.Quote{}, nil })
	_, err = empty.Quote(context.Background(), "EURUSD")
	assert.ErrorIs(t, err, errNoQuote)
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "EURUSD=X", Symbol("EURUSD"))
	assert.Equal(t, "BTC-USD", Symbol("btcusd"))
	assert.Equal(t, "^GSPC", Symbol("SPX500"))
	assert.Equal(t, "AAPL", Symbol("AAPL"))
}
