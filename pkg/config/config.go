package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"MarketBrief/internal/service/cache"
	"MarketBrief/internal/service/finnhub"
	"MarketBrief/internal/service/forexfactory"
	"MarketBrief/internal/service/googlenews"
	"MarketBrief/internal/service/marketdata"
	"MarketBrief/internal/service/twelvedata"
	"MarketBrief/internal/service/yahoo"
	"MarketBrief/internal/services/catalyst"
	"MarketBrief/pkg/clickhouse"
	"MarketBrief/pkg/kafka"
	"MarketBrief/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "MARKETBRIEF_"

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"20s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
		RateLimit       struct {
			Burst        float64       `yaml:"burst" default:"20" validate:"gte=0"`
			RefillPerSec float64       `yaml:"refill_per_sec" default:"2" validate:"gte=0"`
			SweepEvery   time.Duration `yaml:"sweep_every" default:"1m"`
			IdleAfter    time.Duration `yaml:"idle_after" default:"10m"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Log logger.Config `yaml:"log"`

	LogCollector struct {
		Enabled     bool          `yaml:"enabled"`
		Interval    time.Duration `yaml:"interval" default:"1m"`
		Threshold   int           `yaml:"threshold" default:"50" validate:"gte=1"`
		IncludeWarn bool          `yaml:"include_warn"`
	} `yaml:"log_collector"`

	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`

	Sources struct {
		TwelveData   twelvedata.Config   `yaml:"twelvedata"`
		Yahoo        yahoo.Config        `yaml:"yahoo"`
		Finnhub      finnhub.Config      `yaml:"finnhub"`
		GoogleNews   googlenews.Config   `yaml:"googlenews"`
		ForexFactory forexfactory.Config `yaml:"forexfactory"`
	} `yaml:"sources"`

	Fetch marketdata.Config `yaml:"fetch"`

	Cache struct {
		MaxEntries int `yaml:"max_entries" default:"10000" validate:"gte=1"`
		Redis      struct {
			Enabled           bool `yaml:"enabled"`
			cache.RedisConfig `yaml:",inline"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Scoring catalyst.ScoringConfig `yaml:"scoring"`

	Brief struct {
		SinkTimeout time.Duration `yaml:"sink_timeout" default:"5s"`
	} `yaml:"brief"`

	Kafka      kafka.Config      `yaml:"kafka"`
	ClickHouse clickhouse.Config `yaml:"clickhouse"`
}

// Default returns a config populated from struct tag defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML without validating it.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then environment overrides.
// A missing file falls back to defaults so the binary runs with env alone.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		c, err = Default()
	} else {
		var b []byte
		if b, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		c, err = Parse(b)
	}
	if err != nil {
		return nil, err
	}

	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("FINNHUB_API_KEY"); ok {
		c.Sources.Finnhub.APIKey = v
		c.Sources.Finnhub.Enabled = true
	}
	if v, ok := get("TWELVEDATA_API_KEY"); ok {
		c.Sources.TwelveData.APIKey = v
		c.Sources.TwelveData.Enabled = true
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := get(EnvPrefix + "ENV"); ok {
		c.Environment = v
	}
	if v, ok := get(EnvPrefix + "PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Server.Port = p
	}
	if v, ok := get(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get(EnvPrefix + "LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}
	if v, ok := get(EnvPrefix + "REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v, ok := get(EnvPrefix + "REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := get(EnvPrefix + "CLICKHOUSE_HOST"); ok {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v, ok := get(EnvPrefix + "CLICKHOUSE_PASSWORD"); ok {
		c.ClickHouse.Password = v
	}
	if v, ok := get(EnvPrefix + "STREAM_SYMBOLS"); ok {
		c.Sources.Finnhub.Stream.Symbols = splitList(v)
	}
	return nil
}

// Validate checks struct rules and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Sources.TwelveData.Enabled && c.Sources.TwelveData.APIKey == "" {
		return errors.New("sources.twelvedata.api_key is required when enabled")
	}
	if c.Sources.Finnhub.Enabled && c.Sources.Finnhub.APIKey == "" {
		return errors.New("sources.finnhub.api_key is required when enabled")
	}
	if c.Sources.Finnhub.Stream.Enabled && !c.Sources.Finnhub.Enabled {
		return errors.New("sources.finnhub.stream requires sources.finnhub.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when enabled")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool { return c.Environment == "production" }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
