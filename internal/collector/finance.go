package collector

import (
	"bytes"
	"encoding/base64"
	"sync"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/rs/zerolog"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/LJTian/InkDash/internal/cache"
)

const (
	// 行情回看窗口与采样间隔
	financeLookbackDays = 5

	sparklineWidth  = 400
	sparklineHeight = 100
	sparklineStroke = 3.0
)

// marketDataMu 行情客户端不支持并发调用，所有下载在进程内串行。
// 这是比缓存锁更严格的约束，必须持锁跨越整个网络请求。
var marketDataMu sync.Mutex

// FinanceQuote 单个 ticker 的行情结果
type FinanceQuote struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	// Chart base64 编码的 PNG 折线图，可直接内嵌到页面
	Chart string `json:"chart"`
}

// FinanceFetcher 按 ticker 下载短周期收盘价序列，计算涨跌幅并渲染迷你折线图
type FinanceFetcher struct {
	Cache *cache.Cache[FinanceQuote]

	// Download 可注入的行情下载函数，默认走 Yahoo Finance；测试时替换
	Download func(symbol string) ([]float64, error)

	Log zerolog.Logger
}

func NewFinanceFetcher(c *cache.Cache[FinanceQuote], log zerolog.Logger) *FinanceFetcher {
	return &FinanceFetcher{
		Cache:    c,
		Download: downloadClosePrices,
		Log:      log.With().Str("fetcher", "finance").Logger(),
	}
}

func (f *FinanceFetcher) Name() string {
	return "finance"
}

// Fetch 抓取单个 ticker。价格序列为空视为失败而不是部分结果。
func (f *FinanceFetcher) Fetch(symbol, name string) Result[FinanceQuote] {
	key := "spark_" + symbol
	if v, ok := f.Cache.Get(key); ok {
		return Ok(v)
	}

	prices, err := f.Download(symbol)
	if err != nil {
		f.Log.Warn().Err(err).Str("symbol", symbol).Msg("download price history failed")
		return Failed[FinanceQuote]()
	}
	if len(prices) == 0 {
		f.Log.Warn().Str("symbol", symbol).Msg("empty price series")
		return Failed[FinanceQuote]()
	}

	first, last := prices[0], prices[len(prices)-1]
	change := 0.0
	if first != 0 {
		change = (last - first) / first * 100
	}

	quote := FinanceQuote{
		Symbol: symbol,
		Name:   name,
		Price:  last,
		Change: change,
		Chart:  renderSparkline(prices),
	}

	f.Cache.Set(key, quote)
	return Ok(quote)
}

// downloadClosePrices 从 Yahoo Finance 下载近 5 天的小时级收盘价
func downloadClosePrices(symbol string) ([]float64, error) {
	marketDataMu.Lock()
	defer marketDataMu.Unlock()

	end := time.Now()
	start := end.AddDate(0, 0, -financeLookbackDays)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneHour,
	})

	var prices []float64
	for iter.Next() {
		bar := iter.Bar()
		v, _ := bar.Close.Float64()
		prices = append(prices, v)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}

// renderSparkline 渲染隐藏坐标轴的黑色折线图并编码为 base64 PNG。
// 序列不足两个点时无法画线，返回空字符串。
func renderSparkline(prices []float64) string {
	if len(prices) < 2 {
		return ""
	}

	xs := make([]float64, len(prices))
	for i := range prices {
		xs[i] = float64(i)
	}

	graph := gochart.Chart{
		Width:  sparklineWidth,
		Height: sparklineHeight,
		XAxis:  gochart.XAxis{Style: gochart.Hidden()},
		YAxis:  gochart.YAxis{Style: gochart.Hidden()},
		Background: gochart.Style{
			FillColor: drawing.ColorTransparent,
		},
		Canvas: gochart.Style{
			FillColor: drawing.ColorTransparent,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				XValues: xs,
				YValues: prices,
				Style: gochart.Style{
					StrokeColor: drawing.ColorBlack,
					StrokeWidth: sparklineStroke,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		// 渲染失败只丢图，价格与涨跌幅仍然有效
		return ""
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
