package collector

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/cache"
	"github.com/LJTian/InkDash/internal/processor"
)

const (
	hnBaseURL = "https://hacker-news.firebaseio.com/v0"

	// top / best 两个榜单各取前多少个 ID
	hnMaxIDs = 20
	// 条目详情的并发抓取数（嵌套在单次 Fetch 内的小工作池）
	hnItemConcurrency  = 10
	hnMaxResponseBytes = 1 << 20 // 1MB
	hnClientTimeout    = 5 * time.Second

	externalMaxItems = 10

	newsCacheKey = "hn_top10"
)

// NewsFetcher 抓取 Hacker News 的 top/best 两个榜单并交给 processor 排序；
// 配置了 ExternalURL 时改为透传外部已排序的新闻源，跳过排序。
type NewsFetcher struct {
	Cache  *cache.Cache[[]processor.RankedStory]
	Ranker *processor.Ranker

	// 测试时可指向 httptest server
	BaseURL     string
	ExternalURL string

	Client *http.Client
	Log    zerolog.Logger
}

func NewNewsFetcher(c *cache.Cache[[]processor.RankedStory], ranker *processor.Ranker, externalURL string, log zerolog.Logger) *NewsFetcher {
	return &NewsFetcher{
		Cache:       c,
		Ranker:      ranker,
		BaseURL:     hnBaseURL,
		ExternalURL: externalURL,
		Client:      &http.Client{Timeout: hnClientTimeout},
		Log:         log.With().Str("fetcher", "news").Logger(),
	}
}

func (n *NewsFetcher) Name() string {
	return "news"
}

// hnItem Hacker News item 接口的原始结构
type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// externalItem 外部新闻源的条目：仅标题 + 元信息
type externalItem struct {
	Title string `json:"title"`
	Meta  string `json:"meta"`
}

func (n *NewsFetcher) Fetch() Result[[]processor.RankedStory] {
	if n.ExternalURL != "" {
		return n.fetchExternal()
	}
	return n.fetchHackerNews()
}

// fetchExternal 透传外部已排序的新闻源，取前 10 条并打上外部来源标记
func (n *NewsFetcher) fetchExternal() Result[[]processor.RankedStory] {
	key := "external_" + n.ExternalURL
	if v, ok := n.Cache.Get(key); ok {
		return Ok(v)
	}

	var items []externalItem
	if err := getJSON(n.Client, n.ExternalURL, hnMaxResponseBytes, &items); err != nil {
		n.Log.Warn().Err(err).Msg("fetch external news failed")
		return Failed[[]processor.RankedStory]()
	}

	if len(items) > externalMaxItems {
		items = items[:externalMaxItems]
	}
	stories := make([]processor.RankedStory, 0, len(items))
	for _, it := range items {
		stories = append(stories, processor.RankedStory{
			Title:      it.Title,
			Meta:       it.Meta,
			IsExternal: true,
		})
	}

	n.Cache.Set(key, stories)
	return Ok(stories)
}

func (n *NewsFetcher) fetchHackerNews() Result[[]processor.RankedStory] {
	if v, ok := n.Cache.Get(newsCacheKey); ok {
		return Ok(v)
	}

	// top / best 两个榜单都拿不到就没法组榜，任一失败视为整体失败
	var topIDs, bestIDs []int
	if err := getJSON(n.Client, n.BaseURL+"/topstories.json", hnMaxResponseBytes, &topIDs); err != nil {
		n.Log.Warn().Err(err).Msg("fetch top stories failed")
		return Failed[[]processor.RankedStory]()
	}
	if err := getJSON(n.Client, n.BaseURL+"/beststories.json", hnMaxResponseBytes, &bestIDs); err != nil {
		n.Log.Warn().Err(err).Msg("fetch best stories failed")
		return Failed[[]processor.RankedStory]()
	}
	if len(topIDs) > hnMaxIDs {
		topIDs = topIDs[:hnMaxIDs]
	}
	if len(bestIDs) > hnMaxIDs {
		bestIDs = bestIDs[:hnMaxIDs]
	}

	items := n.fetchItems(unionIDs(topIDs, bestIDs))

	stories := n.Ranker.Rank(resolve(topIDs, items), resolve(bestIDs, items))

	n.Cache.Set(newsCacheKey, stories)
	return Ok(stories)
}

// fetchItems 并发抓取条目详情；单条失败或已删除 / 已屏蔽的条目直接丢弃
func (n *NewsFetcher) fetchItems(ids []int) map[int]processor.StoryRecord {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		sem   = make(chan struct{}, hnItemConcurrency)
		items = make(map[int]processor.StoryRecord, len(ids))
	)

	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id int) {
			defer wg.Done()
			defer func() { <-sem }()

			var it hnItem
			url := fmt.Sprintf("%s/item/%d.json", n.BaseURL, id)
			if err := getJSON(n.Client, url, hnMaxResponseBytes, &it); err != nil {
				n.Log.Debug().Err(err).Int("id", id).Msg("fetch item failed, dropped")
				return
			}
			if it.Deleted || it.Dead || it.Title == "" {
				return
			}

			itemURL := it.URL
			if itemURL == "" {
				itemURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
			}

			mu.Lock()
			items[it.ID] = processor.StoryRecord{
				ID:          it.ID,
				Title:       it.Title,
				Score:       it.Score,
				Descendants: it.Descendants,
				URL:         itemURL,
				CreatedAt:   time.Unix(it.Time, 0),
			}
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return items
}

// unionIDs 合并两个榜单的 ID，去重后只抓一次详情
func unionIDs(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// resolve 按榜单原顺序把 ID 列表换成已抓到的记录，缺失的条目跳过
func resolve(ids []int, items map[int]processor.StoryRecord) []processor.StoryRecord {
	out := make([]processor.StoryRecord, 0, len(ids))
	for _, id := range ids {
		if s, ok := items[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
