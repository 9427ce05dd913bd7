package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Ticker 一个行情条目：symbol 用于行情源查询，name 用于展示（价格格式化也按 name 判断资产类型）
type Ticker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// 默认自选行情，与 FINANCE_TICKERS 环境变量格式一致
const defaultTickersRaw = `[{"symbol": "SGDCNY=X", "name": "SGD/CNY"}, {"symbol": "CNY=X", "name": "USD/CNY"}, {"symbol": "BTC-USD", "name": "BTC/USD"}]`

type Config struct {
	Host    string
	AppPort string

	// 位置与时区
	Latitude  float64
	Longitude float64
	CityName  string
	Timezone  string

	// 展示语言：CN / EN
	Language       string
	HolidayCountry string

	// 各数据域缓存 TTL
	CacheTTLWeather time.Duration
	CacheTTLFinance time.Duration
	CacheTTLNews    time.Duration
	CacheTTLRender  time.Duration

	Tickers []Ticker

	// 通勤时段，用于第三个预报槽位的吸附逻辑
	WorkStartHour int
	WorkEndHour   int

	// 配置后跳过 Hacker News 排序，直接透传外部已排序的新闻源
	NewsExternalURL string

	// 墨水屏分辨率（横向）
	ScreenWidth  int
	ScreenHeight int

	// 各数据域独立的等待超时
	TimeoutWeather  time.Duration
	TimeoutCalendar time.Duration
	TimeoutNews     time.Duration
	TimeoutFinance  time.Duration

	// 共享工作池大小
	PoolSize int

	WarmCronSpec  string
	RenderEnabled bool
	WebRoot       string
}

func Load() *Config {
	// .env 仅做补充，不覆盖真实环境变量
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg := &Config{
		Host:    getEnv("HOST", "0.0.0.0"),
		AppPort: getEnv("APP_PORT", "5000"),

		Latitude:  getEnvFloat("LATITUDE", 1.27710),
		Longitude: getEnvFloat("LONGITUDE", 103.84610),
		CityName:  getEnv("CITY_NAME", "Singapore"),
		Timezone:  getEnv("TIMEZONE", "Asia/Singapore"),

		Language:       getEnv("LANGUAGE", "CN"),
		HolidayCountry: getEnv("HOLIDAY_COUNTRY", "SG"),

		CacheTTLWeather: getEnvSeconds("CACHE_TTL_WEATHER", 600),
		CacheTTLFinance: getEnvSeconds("CACHE_TTL_FINANCE", 900),
		CacheTTLNews:    getEnvSeconds("CACHE_TTL_NEWS", 300),
		CacheTTLRender:  getEnvSeconds("CACHE_TTL_RENDER", 60),

		Tickers: parseTickers(getEnv("FINANCE_TICKERS", defaultTickersRaw)),

		WorkStartHour: getEnvInt("WORK_START_HOUR", 10),
		WorkEndHour:   getEnvInt("WORK_END_HOUR", 18),

		NewsExternalURL: getEnv("NEWS_EXTERNAL_URL", ""),

		ScreenWidth:  getEnvInt("SCREEN_WIDTH", 1680),
		ScreenHeight: getEnvInt("SCREEN_HEIGHT", 1264),

		TimeoutWeather:  getEnvSeconds("TIMEOUT_WEATHER", 15),
		TimeoutCalendar: getEnvSeconds("TIMEOUT_CALENDAR", 5),
		TimeoutNews:     getEnvSeconds("TIMEOUT_NEWS", 15),
		TimeoutFinance:  getEnvSeconds("TIMEOUT_FINANCE", 15),

		PoolSize: getEnvInt("POOL_SIZE", 20),

		WarmCronSpec:  getEnv("WARM_CRON_SPEC", "*/5 * * * *"),
		RenderEnabled: getEnvBool("RENDER_ENABLED", true),
		WebRoot:       getEnv("WEB_ROOT", "web"),
	}

	log.Info().
		Str("port", cfg.AppPort).
		Str("city", cfg.CityName).
		Str("language", cfg.Language).
		Int("tickers", len(cfg.Tickers)).
		Msg("config loaded")
	return cfg
}

// parseTickers 解析 FINANCE_TICKERS：优先按 JSON 数组解析，失败则退回逗号分隔的 symbol 列表（symbol 同时作为展示名）
func parseTickers(raw string) []Ticker {
	var list []Ticker
	if err := json.Unmarshal([]byte(raw), &list); err == nil && len(list) > 0 {
		return list
	}

	out := make([]Ticker, 0)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, Ticker{Symbol: s, Name: s})
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvSeconds(key string, def int) time.Duration {
	return time.Duration(getEnvInt(key, def)) * time.Second
}
