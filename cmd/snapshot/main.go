package main

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/cache"
	"github.com/LJTian/InkDash/internal/collector"
	"github.com/LJTian/InkDash/internal/config"
	"github.com/LJTian/InkDash/internal/orchestrator"
	"github.com/LJTian/InkDash/internal/processor"
	"github.com/LJTian/InkDash/internal/workpool"
)

// 一个只构建一次快照并输出 JSON 的命令行入口：适合调试各数据源与降级行为
func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.Load()

	weatherCache := cache.New[collector.WeatherData](cfg.CacheTTLWeather)
	financeCache := cache.New[collector.FinanceQuote](cfg.CacheTTLFinance)
	newsCache := cache.New[[]processor.RankedStory](cfg.CacheTTLNews)

	ranker := processor.NewRanker(processor.DefaultConfig())

	weatherFetcher := collector.NewWeatherFetcher(weatherCache,
		cfg.Latitude, cfg.Longitude, cfg.CityName, cfg.Timezone, cfg.Language,
		cfg.WorkStartHour, cfg.WorkEndHour, logger)
	calendarFetcher := collector.NewCalendarFetcher(cfg.Timezone, cfg.Language, cfg.HolidayCountry, logger)
	financeFetcher := collector.NewFinanceFetcher(financeCache, logger)
	newsFetcher := collector.NewNewsFetcher(newsCache, ranker, cfg.NewsExternalURL, logger)

	pool := workpool.New(cfg.PoolSize)
	orch := orchestrator.New(cfg, pool, weatherFetcher, calendarFetcher, financeFetcher, newsFetcher, logger)

	snap := orch.BuildSnapshot()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		logger.Fatal().Err(err).Msg("encode snapshot failed")
	}
}
