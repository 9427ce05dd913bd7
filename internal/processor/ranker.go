// Package processor 把原始新闻记录加工成可展示的榜单：
// 速度（velocity）排序、语义加权、去重、截断，以及单条“breaking”提升。
// 纯计算，不做任何 I/O。
package processor

import (
	"math"
	"sort"
	"strings"
	"time"
)

// StoryRecord 新闻源返回的原始条目
type StoryRecord struct {
	ID          int
	Title       string
	Score       int
	Descendants int
	URL         string
	CreatedAt   time.Time
}

// RankedStory 排序后的展示条目
type RankedStory struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	URL        string  `json:"url"`
	Velocity   float64 `json:"velocity"`
	Time       int64   `json:"time"`
	IsBreaking bool    `json:"is_breaking"`
	IsExternal bool    `json:"is_external"`
	Meta       string  `json:"meta,omitempty"`
}

// Config 排序算法的全部常数。阈值与阻尼都是源算法调出来的经验值，
// 目标是行为一致而不是统计最优，所以做成可覆盖的具名参数而不是重新推导。
type Config struct {
	// 候选硬过滤：只看 MaxAgeHours 小时内、分数不低于 MinScore 的条目
	MaxAgeHours float64
	MinScore    int

	// impact = score + CommentWeight * descendants。
	// 评论权重压到 0.2：大新闻靠赞，吵架贴靠评论，我们要前者。
	CommentWeight float64

	// 标题含个人叙事词时 impact 打的折扣
	SubjectivePenalty float64
	// 标题含发布 / 事故类关键词时的加成
	EventBoost float64

	// velocity = impact' / (age + DampingHours)^DecayExponent。
	// 阻尼项抑制刚发几分钟、样本太小的帖子冲榜
	DampingHours  float64
	DecayExponent float64

	// 只有第一名的 velocity 超过该阈值才标记 breaking
	BreakingThreshold float64

	// 榜单长度上限
	ListSize int
}

func DefaultConfig() Config {
	return Config{
		MaxAgeHours:       12,
		MinScore:          50,
		CommentWeight:     0.2,
		SubjectivePenalty: 0.4,
		EventBoost:        1.5,
		DampingHours:      1.5,
		DecayExponent:     1.8,
		BreakingThreshold: 30,
		ListSize:          10,
	}
}

// 个人叙事类标题的特征词（小写、含边界空格做粗糙分词）
var subjectiveWords = []string{" i ", " me ", " my ", " how i ", " why i ", "forced me"}

// 发布 / 版本 / 事故类标题的特征词
var eventWords = []string{
	"release", "launch", "announce", "available", "open source",
	"v1.", "v2.", "v3.", "v4.", "gpt", "claude", "llama", "deepseek",
	"cve-", "zero-day", "hack", "outage",
}

// Ranker 无状态的榜单生成器
type Ranker struct {
	cfg Config

	// now 可注入的时钟，测试用
	now func() time.Time
}

func NewRanker(cfg Config) *Ranker {
	return &Ranker{cfg: cfg, now: time.Now}
}

// SemanticModifier 标题语义权重：惩罚与奖励相互独立、可叠乘
func (r *Ranker) SemanticModifier(title string) float64 {
	lower := strings.ToLower(title)
	modifier := 1.0

	for _, w := range subjectiveWords {
		if strings.Contains(lower, w) {
			modifier *= r.cfg.SubjectivePenalty
			break
		}
	}
	for _, w := range eventWords {
		if strings.Contains(lower, w) {
			modifier *= r.cfg.EventBoost
			break
		}
	}
	return modifier
}

// Velocity 单条新闻的时间衰减热度
func (r *Ranker) Velocity(s StoryRecord, now time.Time) float64 {
	ageHours := now.Sub(s.CreatedAt).Hours()
	impact := float64(s.Score) + r.cfg.CommentWeight*float64(s.Descendants)
	impact *= r.SemanticModifier(s.Title)
	return impact / math.Pow(ageHours+r.cfg.DampingHours, r.cfg.DecayExponent)
}

// Rank 把 top 榜与 best 榜合成最终榜单：
//  1. top 榜中 12 小时内且分数达标的条目按 velocity 排序，第一名超过阈值则置顶为 breaking
//  2. 其余位置先按 best 榜原顺序填充
//  3. 不足时用剩余的 velocity 候选补齐
//  4. 仍不足时用 top 榜全量按原始分数倒序兜底
//
// 全程按 ID 去重，只有置顶的那一条携带 breaking 标记。
func (r *Ranker) Rank(top, best []StoryRecord) []RankedStory {
	now := r.now()

	// 候选过滤 + velocity
	velocityByID := make(map[int]float64)
	candidates := make([]StoryRecord, 0, len(top))
	for _, s := range top {
		ageHours := now.Sub(s.CreatedAt).Hours()
		if ageHours > r.cfg.MaxAgeHours || s.Score < r.cfg.MinScore {
			continue
		}
		velocityByID[s.ID] = r.Velocity(s, now)
		candidates = append(candidates, s)
	}
	sortByVelocity(candidates, velocityByID)

	final := make([]RankedStory, 0, r.cfg.ListSize)
	seen := make(map[int]bool)

	emit := func(s StoryRecord, breaking bool) {
		final = append(final, RankedStory{
			ID:         s.ID,
			Title:      s.Title,
			Score:      s.Score,
			URL:        s.URL,
			Velocity:   velocityByID[s.ID],
			Time:       s.CreatedAt.Unix(),
			IsBreaking: breaking,
		})
		seen[s.ID] = true
	}

	// 1. breaking 提升：只看 velocity 第一名，且必须真的“快”，
	// 否则只是垃圾堆里最新的那条
	if len(candidates) > 0 && velocityByID[candidates[0].ID] > r.cfg.BreakingThreshold {
		emit(candidates[0], true)
	}

	// 2. best 榜按给定顺序填充
	for _, s := range best {
		if len(final) >= r.cfg.ListSize {
			break
		}
		if !seen[s.ID] {
			emit(s, false)
		}
	}

	// 3. 剩余 velocity 候选补齐
	for _, s := range candidates {
		if len(final) >= r.cfg.ListSize {
			break
		}
		if !seen[s.ID] {
			emit(s, false)
		}
	}

	// 4. top 榜全量按原始分数兜底
	if len(final) < r.cfg.ListSize {
		byScore := make([]StoryRecord, len(top))
		copy(byScore, top)
		sortByScore(byScore)
		for _, s := range byScore {
			if len(final) >= r.cfg.ListSize {
				break
			}
			if !seen[s.ID] {
				emit(s, false)
			}
		}
	}

	return final
}

// 稳定排序：同速 / 同分的条目保持 top 榜原顺序
func sortByVelocity(list []StoryRecord, velocity map[int]float64) {
	sort.SliceStable(list, func(i, j int) bool {
		return velocity[list[i].ID] > velocity[list[j].ID]
	})
}

func sortByScore(list []StoryRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
}
