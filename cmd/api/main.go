package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/api"
	"github.com/LJTian/InkDash/internal/cache"
	"github.com/LJTian/InkDash/internal/collector"
	"github.com/LJTian/InkDash/internal/config"
	"github.com/LJTian/InkDash/internal/orchestrator"
	"github.com/LJTian/InkDash/internal/processor"
	"github.com/LJTian/InkDash/internal/render"
	"github.com/LJTian/InkDash/internal/scheduler"
	"github.com/LJTian/InkDash/internal/workpool"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()

	// 每个数据域一个独立的 TTL 缓存实例，显式构造后按引用传入各 fetcher，
	// 不使用任何包级全局状态
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

	// 渲染流水线可选：无浏览器环境时可以关掉，只保留 JSON / HTML
	var renderer *render.Renderer
	if cfg.RenderEnabled {
		renderCache := cache.New[[]byte](cfg.CacheTTLRender)
		var err error
		renderer, err = render.New(cfg.ScreenWidth, cfg.ScreenHeight, renderCache, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("init renderer failed")
		}
		defer renderer.Close()
	}

	// 缓存预热任务
	s, err := scheduler.New(cfg.WarmCronSpec, orch, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init scheduler failed")
	}
	s.Start()
	defer s.Stop()

	// API
	r := gin.Default()
	r.LoadHTMLGlob(filepath.Join(cfg.WebRoot, "templates", "*.html"))

	dashboardURL := "http://127.0.0.1:" + cfg.AppPort + "/dashboard"
	apiServer := api.NewServer(orch, renderer, dashboardURL)
	apiServer.RegisterRoutes(r)

	addr := cfg.Host + ":" + cfg.AppPort
	logger.Info().Str("addr", addr).Msg("starting api server")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server exit")
	}
}
