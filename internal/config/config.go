package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
)

type Config struct {
	Port            string
	Mode            string
	Environment     string
	OTelServiceName string
	OTelEndpoint    string

	Floors                 int
	SpotsPerFloor          map[parking.SpotClass]int
	BaseRates              map[parking.SpotClass]float64
	OverstayThresholdHours int
	OverstayFine           float64
	HourlyFine             float64
	FineScheme             parking.FineScheme
}

// Load reads an optional .env file and then the process environment.
// Malformed values are logged and replaced by their defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn(context.Background(), "failed to load .env file", "error", err)
	}

	defaults := parking.DefaultConfig()

	return &Config{
		Port:            envOr("APP_PORT", "8080"),
		Mode:            envOr("APP_MODE", "cli"),
		Environment:     envOr("ENVIRONMENT", "development"),
		OTelServiceName: envOr("OTEL_SERVICE_NAME", parking.DefaultServiceName),
		OTelEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", parking.DefaultOTLPEndpoint),

		Floors:                 envOrInt("PARKING_FLOORS", defaults.Floors),
		SpotsPerFloor:          envOrSpotCounts("PARKING_SPOTS_PER_FLOOR", defaults.SpotsPerFloor),
		BaseRates:              envOrRates("PARKING_BASE_RATES", defaults.BaseRates),
		OverstayThresholdHours: envOrInt("PARKING_OVERSTAY_THRESHOLD_HOURS", defaults.OverstayThresholdHours),
		OverstayFine:           envOrFloat("PARKING_OVERSTAY_FINE", defaults.OverstayFine),
		HourlyFine:             envOrFloat("PARKING_HOURLY_FINE", defaults.HourlyFine),
		FineScheme:             envOrFineScheme("PARKING_FINE_SCHEME", defaults.FineScheme),
	}
}

func (c *Config) Facility() parking.Config {
	return parking.Config{
		Floors:                 c.Floors,
		SpotsPerFloor:          c.SpotsPerFloor,
		BaseRates:              c.BaseRates,
		OverstayThresholdHours: c.OverstayThresholdHours,
		OverstayFine:           c.OverstayFine,
		HourlyFine:             c.HourlyFine,
		FineScheme:             c.FineScheme,
	}
}

func (c *Config) Telemetry() parking.TelemetryConfig {
	return parking.TelemetryConfig{
		ServiceName: c.OTelServiceName,
		Endpoint:    c.OTelEndpoint,
		Environment: c.Environment,
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		warnInvalid(key, v, err)
		return fallback
	}
	return i
}

func envOrFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		warnInvalid(key, v, err)
		return fallback
	}
	return f
}

func envOrFineScheme(key string, fallback parking.FineScheme) parking.FineScheme {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	scheme, err := parking.ParseFineScheme(v)
	if err != nil {
		warnInvalid(key, v, err)
		return fallback
	}
	return scheme
}

// envOrSpotCounts overlays "class=n" pairs on the fallback counts, so
// "reserved=0" removes reserved spots and leaves the rest untouched.
func envOrSpotCounts(key string, fallback map[parking.SpotClass]int) map[parking.SpotClass]int {
	out := make(map[parking.SpotClass]int, len(fallback))
	for class, n := range fallback {
		out[class] = n
	}

	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return out
	}
	pairs, err := parseClassPairs(v)
	if err != nil {
		warnInvalid(key, v, err)
		return out
	}

	parsed := make(map[parking.SpotClass]int, len(pairs))
	for class, raw := range pairs {
		n, err := strconv.Atoi(raw)
		if err != nil {
			warnInvalid(key, v, err)
			return out
		}
		parsed[class] = n
	}
	for class, n := range parsed {
		out[class] = n
	}
	return out
}

func envOrRates(key string, fallback map[parking.SpotClass]float64) map[parking.SpotClass]float64 {
	out := make(map[parking.SpotClass]float64, len(fallback))
	for class, rate := range fallback {
		out[class] = rate
	}

	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return out
	}
	pairs, err := parseClassPairs(v)
	if err != nil {
		warnInvalid(key, v, err)
		return out
	}

	parsed := make(map[parking.SpotClass]float64, len(pairs))
	for class, raw := range pairs {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			warnInvalid(key, v, err)
			return out
		}
		parsed[class] = rate
	}
	for class, rate := range parsed {
		out[class] = rate
	}
	return out
}

func parseClassPairs(s string) (map[parking.SpotClass]string, error) {
	pairs := make(map[parking.SpotClass]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("expected class=value, got %q", item)
		}
		class, err := parking.ParseSpotClass(name)
		if err != nil {
			return nil, err
		}
		pairs[class] = strings.TrimSpace(value)
	}
	return pairs, nil
}

func warnInvalid(key, value string, err error) {
	logging.Warn(context.Background(), "invalid configuration value, using default",
		"key", key,
		"value", value,
		"error", err,
	)
}
