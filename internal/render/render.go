// Package render 把仪表盘页面变成适合墨水屏的灰度 PNG：
// 无头浏览器截图 -> 16 级灰度量化 + Floyd-Steinberg 抖动 -> PNG 编码。
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/cache"
)

const (
	captureTimeout = 20 * time.Second

	renderCacheKey = "dashboard_png"
)

// Renderer 整个进程复用一个 headless 浏览器实例，每次截图用独立的超时上下文
type Renderer struct {
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	width       int
	height      int
	cache       *cache.Cache[[]byte]
	log         zerolog.Logger
}

func New(width, height int, c *cache.Cache[[]byte], log zerolog.Logger) (*Renderer, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	r := &Renderer{
		browserCtx:  browserCtx,
		cancelCtx:   cancelBrowser,
		cancelAlloc: cancelAlloc,
		width:       width,
		height:      height,
		cache:       c,
		log:         log.With().Str("component", "render").Logger(),
	}

	// 预热浏览器，避免首个请求耗时过长
	if err := chromedp.Run(browserCtx); err != nil {
		r.log.Warn().Err(err).Msg("warmup headless browser failed")
	}

	return r, nil
}

func (r *Renderer) Close() {
	r.cancelCtx()
	r.cancelAlloc()
}

// Render 截图并做墨水屏处理，结果按短 TTL 缓存，频繁刷新的设备不会
// 每次都触发完整的截图流水线
func (r *Renderer) Render(url string) ([]byte, error) {
	if v, ok := r.cache.Get(renderCacheKey); ok {
		return v, nil
	}

	started := time.Now()

	raw, err := r.capture(url)
	if err != nil {
		return nil, fmt.Errorf("capture dashboard: %w", err)
	}

	processed, err := ProcessForEInk(raw)
	if err != nil {
		return nil, fmt.Errorf("process for e-ink: %w", err)
	}

	r.log.Info().
		Dur("elapsed", time.Since(started)).
		Int("bytes", len(processed)).
		Msg("render finished")

	r.cache.Set(renderCacheKey, processed)
	return processed, nil
}

// capture 用与页面 CSS 一致的视口尺寸截图
func (r *Renderer) capture(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(r.browserCtx, captureTimeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(r.width), int64(r.height)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
