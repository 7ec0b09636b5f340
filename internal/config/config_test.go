package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "60s", cfg.TickInterval)
	assert.Equal(t, int64(0), cfg.TickSeed)
	assert.Equal(t, "telemetry.readings", cfg.TelemetryTopic)
	assert.Empty(t, cfg.KafkaBrokersList())
}

func TestLoadEnvOverride(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TICK_INTERVAL", "5s")
	t.Setenv("TICK_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.TickPeriod())
	assert.Equal(t, int64(42), cfg.TickSeed)
}

func TestLoadInvalidTickInterval(t *testing.T) {
	os.Clearenv()
	t.Setenv("TICK_INTERVAL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}

func TestTickPeriodFallback(t *testing.T) {
	cfg := &Config{TickInterval: "-3s"}
	assert.Equal(t, 60*time.Second, cfg.TickPeriod())

	cfg = &Config{}
	assert.Equal(t, 60*time.Second, cfg.TickPeriod())
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: "localhost:9092, broker2:9092 ,"}
	assert.Equal(t, []string{"localhost:9092", "broker2:9092"}, cfg.KafkaBrokersList())

	cfg = &Config{}
	assert.Nil(t, cfg.KafkaBrokersList())
}
