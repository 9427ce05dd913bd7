package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	assert.Equal(t, "5000", getEnv(key, "5000"))

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	assert.Equal(t, "8080", getEnv(key, "5000"))
}

func TestParseTickersJSON(t *testing.T) {
	raw := `[{"symbol": "BTC-USD", "name": "BTC/USD"}, {"symbol": "CNY=X", "name": "USD/CNY"}]`
	list := parseTickers(raw)

	require.Len(t, list, 2)
	assert.Equal(t, "BTC-USD", list[0].Symbol)
	assert.Equal(t, "BTC/USD", list[0].Name)
	assert.Equal(t, "USD/CNY", list[1].Name)
}

func TestParseTickersCommaFallback(t *testing.T) {
	// 非 JSON 时退回逗号分隔格式，symbol 同时作为展示名
	list := parseTickers("SGDCNY=X, BTC-USD")

	require.Len(t, list, 2)
	assert.Equal(t, "SGDCNY=X", list[0].Symbol)
	assert.Equal(t, "SGDCNY=X", list[0].Name)
	assert.Equal(t, "BTC-USD", list[1].Symbol)
}

func TestLoadReadsTTLAndTimeouts(t *testing.T) {
	t.Setenv("CACHE_TTL_WEATHER", "120")
	t.Setenv("TIMEOUT_CALENDAR", "3")
	t.Setenv("LANGUAGE", "EN")
	t.Setenv("RENDER_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, 2*time.Minute, cfg.CacheTTLWeather)
	assert.Equal(t, 3*time.Second, cfg.TimeoutCalendar)
	assert.Equal(t, "EN", cfg.Language)
	assert.False(t, cfg.RenderEnabled)

	// 未设置的字段应保留默认值
	assert.Equal(t, 15*time.Second, cfg.TimeoutNews)
	assert.Equal(t, "Singapore", cfg.CityName)
}
