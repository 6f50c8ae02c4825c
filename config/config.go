package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
)

const (
	defaultWSEndpoint    = "wss://api.bsdex.de/consumer/ws"
	defaultSubscriptions = "orderbook:btc-eur,quote:btc-eur"
	defaultGRPCAddr      = ":50051"
	defaultMetricsAddr   = ":8080"
	defaultKafkaTopic    = "bsdex-events"
	defaultLogLevel      = "info"
)

// DebugMode enables verbose logging of the feed lifecycle.
var DebugMode = false

type Subscription struct {
	Channel    string
	Instrument domain.Instrument
}

type Config struct {
	WSEndpoint    string
	AccessToken   string
	Subscriptions []Subscription
	GRPCAddr      string
	MetricsAddr   string
	KafkaBrokers  []string
	KafkaTopic    string
	LogLevel      logrus.Level
}

// Instruments returns the distinct instruments subscribed on channel, in config order.
func (c *Config) Instruments(channel string) []domain.Instrument {
	var out []domain.Instrument
	seen := map[domain.Instrument]bool{}
	for _, s := range c.Subscriptions {
		if s.Channel == channel && !seen[s.Instrument] {
			seen[s.Instrument] = true
			out = append(out, s.Instrument)
		}
	}
	return out
}

// Load reads the optional .env file at path and builds Config from environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	subscriptions, err := parseSubscriptions(getString("BSDEX_SUBSCRIPTIONS", defaultSubscriptions))
	if err != nil {
		return nil, fmt.Errorf("parse BSDEX_SUBSCRIPTIONS: %w", err)
	}

	level, err := logrus.ParseLevel(getString("LOG_LEVEL", defaultLogLevel))
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	debug, err := getBool("DEBUG", false)
	if err != nil {
		return nil, fmt.Errorf("parse DEBUG: %w", err)
	}
	DebugMode = debug

	return &Config{
		WSEndpoint:    getString("BSDEX_WS_ENDPOINT", defaultWSEndpoint),
		AccessToken:   os.Getenv("BSDEX_ACCESS_TOKEN"),
		Subscriptions: subscriptions,
		GRPCAddr:      getString("GRPC_ADDR", defaultGRPCAddr),
		MetricsAddr:   getString("METRICS_ADDR", defaultMetricsAddr),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getString("KAFKA_TOPIC", defaultKafkaTopic),
		LogLevel:      level,
	}, nil
}

// parseSubscriptions reads "channel:symbol" pairs separated by commas.
func parseSubscriptions(value string) ([]Subscription, error) {
	var out []Subscription
	for _, item := range splitList(value) {
		channel, symbol, ok := strings.Cut(item, ":")
		if !ok || channel == "" {
			return nil, fmt.Errorf("invalid subscription %q, expected channel:symbol", item)
		}

		instrument, err := domain.NewInstrument(symbol)
		if err != nil {
			return nil, fmt.Errorf("invalid subscription %q: %w", item, err)
		}
		out = append(out, Subscription{Channel: channel, Instrument: instrument})
	}

	if len(out) == 0 {
		return nil, errors.New("at least one subscription is required")
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("convert %s value %q to bool: %w", key, value, err)
	}
	return parsed, nil
}
