package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/pkg/logger"

	"github.com/gorilla/websocket"
)

const StreamName = "finnhub_stream"

type StreamConfig struct {
	Enabled        bool          `yaml:"enabled"`
	WebsocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
	Symbols        []string      `yaml:"symbols" default:"[\"BTCUSD\",\"ETHUSD\"]"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	MaxAge         time.Duration `yaml:"max_age" default:"1m"`
}

type lastTrade struct {
	price float64
	at    time.Time
}

// Stream keeps the last trade per subscribed crypto symbol from the Finnhub
// websocket and serves it as a price source.
type Stream struct {
	apiKey string
	cfg    StreamConfig
	log    *logger.Logger
	now    func() time.Time

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	last      map[string]lastTrade
	vendor    map[string]string // vendor symbol -> canonical

	cancel context.CancelFunc
	done   chan struct{}
}

func NewStream(apiKey string, cfg StreamConfig, log *logger.Logger) *Stream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	vendor := make(map[string]string, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		vendor[Symbol(s)] = strings.ToUpper(s)
	}
	return &Stream{
		apiKey: apiKey,
		cfg:    cfg,
		log:    log.With(logger.String("source", StreamName)),
		now:    time.Now,
		last:   make(map[string]lastTrade),
		vendor: vendor,
	}
}

func (s *Stream) Name() string { return StreamName }

func (s *Stream) Supports(t models.InstrumentType) bool { return t == models.InstrumentCrypto }

var errStale = errors.New("finnhub stream: no recent trade")

// Quote returns the last streamed trade if it is younger than MaxAge.
func (s *Stream) Quote(_ context.Context, symbol string) (models.MarketDataSnapshot, error) {
	sym := strings.ToUpper(symbol)
	s.mu.RLock()
	lt, ok := s.last[sym]
	s.mu.RUnlock()
	if !ok || s.now().Sub(lt.at) > s.cfg.MaxAge {
		return models.MarketDataSnapshot{}, fmt.Errorf("%s: %w", sym, errStale)
	}
	return models.MarketDataSnapshot{
		Symbol:    sym,
		Price:     lt.price,
		Timestamp: lt.at,
		Source:    StreamName,
	}, nil
}

// Start connects and keeps the stream alive in the background until Close.
func (s *Stream) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	for {
		if err := s.session(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("stream session ended", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// session runs one connect-subscribe-read cycle.
func (s *Stream) session(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	defer s.closeConn()
	if err := s.subscribe(); err != nil {
		return err
	}

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go s.ping(pingCtx)

	go func() {
		<-pingCtx.Done()
		s.closeConn()
	}()
	return s.read()
}

func (s *Stream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.cfg.WebsocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("stream connected")
	return nil
}

func (s *Stream) subscribe() error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	for v := range s.vendor {
		msg := map[string]string{"type": "subscribe", "symbol": v}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", v, err)
		}
	}
	return nil
}

func (s *Stream) ping(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn != nil {
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

func (s *Stream) read() error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("finnhub read: %w", err)
		}
		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			continue
		}
		s.mu.Lock()
		for _, d := range m.Data {
			sym, ok := s.vendor[d.S]
			if !ok || d.P <= 0 {
				continue
			}
			at := time.UnixMilli(d.T).UTC()
			if prev, ok := s.last[sym]; ok && prev.at.After(at) {
				continue
			}
			s.last[sym] = lastTrade{price: d.P, at: at}
		}
		s.mu.Unlock()
	}
}

func (s *Stream) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Close stops the background loop and closes the connection.
func (s *Stream) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.closeConn()
	return nil
}
