package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port               string   `yaml:"port"`
	RequestTimeoutSec  int      `yaml:"request_timeout_sec"`
	ShutdownTimeoutSec int      `yaml:"shutdown_timeout_sec"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AlphaVantage struct {
	APIKey               string `yaml:"api_key"`
	Endpoint             string `yaml:"endpoint"`
	MaxRequestsPerMinute int    `yaml:"max_requests_per_minute"`
	Burst                int    `yaml:"burst"`
}

type CoinGecko struct {
	APIKey               string            `yaml:"api_key"`
	Endpoint             string            `yaml:"endpoint"`
	SymbolMap            map[string]string `yaml:"symbol_map"`
	MaxRequestsPerMinute int               `yaml:"max_requests_per_minute"`
	Burst                int               `yaml:"burst"`
}

type Quotes struct {
	CacheTTLSec     int `yaml:"cache_ttl_sec"`
	ErrorTTLSec     int `yaml:"error_ttl_sec"`
	CacheMaxItems   int `yaml:"cache_max_items"`
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`
}

type RateLimit struct {
	MaxRequests int `yaml:"max_requests"`
	WindowSec   int `yaml:"window_sec"`
	MaxClients  int `yaml:"max_clients"`
}

type Sweep struct {
	// IntervalSec > 0 runs the sweep inside the server on a ticker.
	IntervalSec int    `yaml:"interval_sec"`
	CronSecret  string `yaml:"cron_secret"`
	BatchSize   int    `yaml:"batch_size"`
}

type Database struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Server       Server       `yaml:"server"`
	Log          Log          `yaml:"log"`
	AlphaVantage AlphaVantage `yaml:"alphavantage"`
	CoinGecko    CoinGecko    `yaml:"coingecko"`
	Quotes       Quotes       `yaml:"quotes"`
	RateLimit    RateLimit    `yaml:"rate_limit"`
	Sweep        Sweep        `yaml:"sweep"`
	Database     Database     `yaml:"database"`
	Kafka        Kafka        `yaml:"kafka"`
	Metrics      Metrics      `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, ShutdownTimeoutSec: 5},
		Log:    Log{Level: "info", Format: "json"},
		AlphaVantage: AlphaVantage{
			Endpoint:             "https://www.alphavantage.co",
			MaxRequestsPerMinute: 5,
			Burst:                5,
		},
		CoinGecko: CoinGecko{
			Endpoint: "https://api.coingecko.com/api/v3",
			SymbolMap: map[string]string{
				"BTC":   "bitcoin",
				"ETH":   "ethereum",
				"SOL":   "solana",
				"BNB":   "binancecoin",
				"XRP":   "ripple",
				"ADA":   "cardano",
				"DOGE":  "dogecoin",
				"DOT":   "polkadot",
				"AVAX":  "avalanche-2",
				"LTC":   "litecoin",
				"LINK":  "chainlink",
				"MATIC": "matic-network",
				"USDT":  "tether",
				"USDC":  "usd-coin",
			},
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		Quotes: Quotes{
			CacheTTLSec:     60,
			ErrorTTLSec:     10,
			CacheMaxItems:   100,
			FetchTimeoutSec: 8,
		},
		RateLimit: RateLimit{MaxRequests: 30, WindowSec: 60, MaxClients: 500},
		Sweep:     Sweep{BatchSize: 10},
		Kafka:     Kafka{Topic: "pricewatch.mail"},
		Metrics:   Metrics{Enabled: true},
	}
}

// Load reads YAML config from path. If path is empty, config.yaml in the
// working directory is used when present; otherwise defaults apply.
// Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			dec := yaml.NewDecoder(bytes.NewReader(b))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_ENDPOINT"); v != "" {
		cfg.AlphaVantage.Endpoint = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINGECKO_ENDPOINT"); v != "" {
		cfg.CoinGecko.Endpoint = v
	}
	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Sweep.CronSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}

	ints := []struct {
		name string
		min  int
		dst  *int
	}{
		{"REQUEST_TIMEOUT_SEC", 1, &cfg.Server.RequestTimeoutSec},
		{"QUOTES_CACHE_TTL_SEC", 1, &cfg.Quotes.CacheTTLSec},
		{"QUOTES_ERROR_TTL_SEC", 0, &cfg.Quotes.ErrorTTLSec},
		{"RATE_LIMIT_MAX_REQUESTS", 1, &cfg.RateLimit.MaxRequests},
		{"SWEEP_INTERVAL_SEC", 0, &cfg.Sweep.IntervalSec},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || x < e.min {
			return fmt.Errorf("env %s: want an integer >= %d, got %q", e.name, e.min, v)
		}
		*e.dst = x
	}

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Metrics.Enabled = true
		case "0", "false", "no", "n":
			cfg.Metrics.Enabled = false
		}
	}
	return nil
}

// NewLogger builds the slog logger described by l.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
