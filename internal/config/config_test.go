package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-facility/internal/parking"
)

var envKeys = []string{
	"APP_PORT",
	"APP_MODE",
	"ENVIRONMENT",
	"OTEL_SERVICE_NAME",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"PARKING_FLOORS",
	"PARKING_SPOTS_PER_FLOOR",
	"PARKING_BASE_RATES",
	"PARKING_OVERSTAY_THRESHOLD_HOURS",
	"PARKING_OVERSTAY_FINE",
	"PARKING_HOURLY_FINE",
	"PARKING_FINE_SCHEME",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "cli", cfg.Mode)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "parking-facility", cfg.OTelServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTelEndpoint)
	assert.Equal(t, 3, cfg.Floors)
	assert.Equal(t, parking.DefaultSpotsPerFloor(), cfg.SpotsPerFloor)
	assert.Equal(t, parking.DefaultBaseRates(), cfg.BaseRates)
	assert.Equal(t, 24, cfg.OverstayThresholdHours)
	assert.InDelta(t, 50.0, cfg.OverstayFine, 0.001)
	assert.InDelta(t, 5.0, cfg.HourlyFine, 0.001)
	assert.Equal(t, parking.FineFixed, cfg.FineScheme)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_MODE", "both")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PARKING_FLOORS", "2")
	t.Setenv("PARKING_SPOTS_PER_FLOOR", "compact=1, reserved=0")
	t.Setenv("PARKING_BASE_RATES", "regular=7.5")
	t.Setenv("PARKING_OVERSTAY_THRESHOLD_HOURS", "12")
	t.Setenv("PARKING_OVERSTAY_FINE", "80")
	t.Setenv("PARKING_HOURLY_FINE", "2.5")
	t.Setenv("PARKING_FINE_SCHEME", "Progressive")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "both", cfg.Mode)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 2, cfg.Floors)
	assert.Equal(t, 1, cfg.SpotsPerFloor[parking.Compact])
	assert.Equal(t, 5, cfg.SpotsPerFloor[parking.Regular])
	assert.Equal(t, 0, cfg.SpotsPerFloor[parking.Reserved])
	assert.InDelta(t, 7.5, cfg.BaseRates[parking.Regular], 0.001)
	assert.InDelta(t, 10.0, cfg.BaseRates[parking.Reserved], 0.001)
	assert.Equal(t, 12, cfg.OverstayThresholdHours)
	assert.InDelta(t, 80.0, cfg.OverstayFine, 0.001)
	assert.InDelta(t, 2.5, cfg.HourlyFine, 0.001)
	assert.Equal(t, parking.FineProgressive, cfg.FineScheme)
}

func TestInvalidValuesFallBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARKING_FLOORS", "three")
	t.Setenv("PARKING_OVERSTAY_FINE", "lots")
	t.Setenv("PARKING_FINE_SCHEME", "lottery")
	t.Setenv("PARKING_SPOTS_PER_FLOOR", "compact=1,garage=4")
	t.Setenv("PARKING_BASE_RATES", "regular")

	cfg := Load()

	assert.Equal(t, 3, cfg.Floors)
	assert.InDelta(t, 50.0, cfg.OverstayFine, 0.001)
	assert.Equal(t, parking.FineFixed, cfg.FineScheme)
	assert.Equal(t, parking.DefaultSpotsPerFloor(), cfg.SpotsPerFloor)
	assert.Equal(t, parking.DefaultBaseRates(), cfg.BaseRates)
}

func TestFacilityAndTelemetryConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARKING_FLOORS", "1")
	t.Setenv("OTEL_SERVICE_NAME", "garage-east")
	t.Setenv("ENVIRONMENT", "staging")

	cfg := Load()

	fc := cfg.Facility()
	require.NoError(t, fc.Validate())
	assert.Equal(t, 1, fc.Floors)

	f, err := parking.NewFacility(fc)
	require.NoError(t, err)
	assert.Equal(t, 14, f.Capacity())

	tc := cfg.Telemetry()
	assert.Equal(t, "garage-east", tc.ServiceName)
	assert.Equal(t, "staging", tc.Environment)
	assert.Equal(t, "http://localhost:4318", tc.Endpoint)
}
