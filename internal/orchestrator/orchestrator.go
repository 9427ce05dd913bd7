// Package orchestrator 每个请求把四个数据域的抓取任务并发提交到共享工作池，
// 对每个任务独立计超时，把失败 / 超时替换为各域固定的降级值，
// 最终拼装出展示层可以直接渲染的 Snapshot。本包是唯一把 Failed
// 转换成降级值的地方，Snapshot 保证完整可展示，下游永远不需要判空。
package orchestrator

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/collector"
	"github.com/LJTian/InkDash/internal/config"
	"github.com/LJTian/InkDash/internal/processor"
	"github.com/LJTian/InkDash/internal/workpool"
)

// Snapshot 单次请求的聚合结果。组装完成后不再修改，生命周期只有一个请求
type Snapshot struct {
	Weather     collector.WeatherData   `json:"weather"`
	Calendar    collector.CalendarInfo  `json:"calendar"`
	Finance     []FinanceDisplay        `json:"finance"`
	News        []processor.RankedStory `json:"news"`
	GeneratedAt string                  `json:"generated_at"`
}

// FinanceDisplay 行情条目的展示形态：价格已按资产类型格式化成字符串
type FinanceDisplay struct {
	Name   string  `json:"name"`
	Price  string  `json:"price"`
	Change float64 `json:"change"`
	Chart  string  `json:"chart"`
}

// Orchestrator 持有全部抓取函数与超时配置。抓取函数做成可注入的字段，
// 便于在测试里替换成假实现。
type Orchestrator struct {
	Pool *workpool.Pool

	FetchWeather  func() collector.Result[collector.WeatherData]
	FetchCalendar func() collector.Result[collector.CalendarInfo]
	FetchNews     func() collector.Result[[]processor.RankedStory]
	FetchQuote    func(symbol, name string) collector.Result[collector.FinanceQuote]

	Tickers []config.Ticker

	TimeoutWeather  time.Duration
	TimeoutCalendar time.Duration
	TimeoutNews     time.Duration
	TimeoutFinance  time.Duration

	// 降级值需要的展示参数
	CityName string
	Language string

	Log zerolog.Logger

	// now 可注入的时钟，测试用
	Now func() time.Time
}

// New 用具体的 fetcher 实例组装 orchestrator，依赖全部显式传入
func New(cfg *config.Config, pool *workpool.Pool,
	weather *collector.WeatherFetcher,
	calendar *collector.CalendarFetcher,
	finance *collector.FinanceFetcher,
	news *collector.NewsFetcher,
	log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Pool:            pool,
		FetchWeather:    weather.Fetch,
		FetchCalendar:   calendar.Fetch,
		FetchNews:       news.Fetch,
		FetchQuote:      finance.Fetch,
		Tickers:         cfg.Tickers,
		TimeoutWeather:  cfg.TimeoutWeather,
		TimeoutCalendar: cfg.TimeoutCalendar,
		TimeoutNews:     cfg.TimeoutNews,
		TimeoutFinance:  cfg.TimeoutFinance,
		CityName:        cfg.CityName,
		Language:        cfg.Language,
		Log:             log.With().Str("component", "orchestrator").Logger(),
		Now:             time.Now,
	}
}

// BuildSnapshot 构建一次快照。从不返回错误：所有失败路径在这里都
// 已经被替换成降级值。
func (o *Orchestrator) BuildSnapshot() Snapshot {
	started := o.Now()

	// 并发提交全部抓取任务
	weatherCh := workpool.Submit(o.Pool, o.FetchWeather)
	calendarCh := workpool.Submit(o.Pool, o.FetchCalendar)
	newsCh := workpool.Submit(o.Pool, o.FetchNews)

	quoteChs := make([]<-chan collector.Result[collector.FinanceQuote], len(o.Tickers))
	for i, t := range o.Tickers {
		t := t
		quoteChs[i] = workpool.Submit(o.Pool, func() collector.Result[collector.FinanceQuote] {
			return o.FetchQuote(t.Symbol, t.Name)
		})
	}

	// 按各自的超时独立等待
	snap := Snapshot{
		Weather:  o.awaitWeather(weatherCh),
		Calendar: o.awaitCalendar(calendarCh),
		News:     o.awaitNews(newsCh),
		Finance:  make([]FinanceDisplay, 0, len(o.Tickers)),
	}
	for i, t := range o.Tickers {
		snap.Finance = append(snap.Finance, o.awaitQuote(quoteChs[i], t))
	}
	snap.GeneratedAt = o.Now().Format("15:04")

	o.Log.Info().
		Dur("elapsed", o.Now().Sub(started)).
		Int("news", len(snap.News)).
		Msg("snapshot built")
	return snap
}

func (o *Orchestrator) awaitWeather(ch <-chan collector.Result[collector.WeatherData]) collector.WeatherData {
	r, ok := workpool.Await(ch, o.TimeoutWeather)
	if !ok || !r.OK() {
		o.logDegraded("weather", ok)
		return collector.FallbackWeather(o.CityName, o.Language)
	}
	return r.Value
}

func (o *Orchestrator) awaitCalendar(ch <-chan collector.Result[collector.CalendarInfo]) collector.CalendarInfo {
	r, ok := workpool.Await(ch, o.TimeoutCalendar)
	if !ok || !r.OK() {
		o.logDegraded("calendar", ok)
		return collector.FallbackCalendar()
	}
	return r.Value
}

func (o *Orchestrator) awaitNews(ch <-chan collector.Result[[]processor.RankedStory]) []processor.RankedStory {
	r, ok := workpool.Await(ch, o.TimeoutNews)
	if !ok || !r.OK() {
		o.logDegraded("news", ok)
		return []processor.RankedStory{}
	}
	if r.Value == nil {
		return []processor.RankedStory{}
	}
	return r.Value
}

// awaitQuote 行情超时 / 失败时：图置空、价格 "--"、涨跌归零。
// 明确的“未知”状态比偷偷复用过期缓存值更不容易误导。
func (o *Orchestrator) awaitQuote(ch <-chan collector.Result[collector.FinanceQuote], t config.Ticker) FinanceDisplay {
	r, ok := workpool.Await(ch, o.TimeoutFinance)
	if !ok || !r.OK() {
		o.logDegraded("finance:"+t.Symbol, ok)
		return FinanceDisplay{
			Name:   t.Name,
			Price:  "--",
			Change: 0,
			Chart:  "",
		}
	}
	return FinanceDisplay{
		Name:   t.Name,
		Price:  FormatPrice(t.Name, r.Value.Price),
		Change: r.Value.Change,
		Chart:  r.Value.Chart,
	}
}

func (o *Orchestrator) logDegraded(domain string, completed bool) {
	if completed {
		o.Log.Warn().Str("domain", domain).Msg("fetch failed, using fallback")
		return
	}
	o.Log.Warn().Str("domain", domain).Msg("fetch timed out, abandoned (may still warm cache)")
}

// FormatPrice 行情价格的展示格式化，必须与展示层的历史行为严格一致：
// BTC 类资产按千分位取整展示，货币对固定 4 位小数，
// 其余异常情况兜底成普通字符串。
func FormatPrice(name string, price float64) string {
	if strings.Contains(name, "BTC") {
		return groupThousands(strconv.FormatFloat(price, 'f', 0, 64))
	}
	if s := strconv.FormatFloat(price, 'f', 4, 64); s != "" {
		return s
	}
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// groupThousands 给整数字符串加千分位分隔符
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	n := len(s)
	if n <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
