package processor

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rankNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRanker() *Ranker {
	r := NewRanker(DefaultConfig())
	r.now = func() time.Time { return rankNow }
	return r
}

func story(id int, title string, score, descendants int, ageHours float64) StoryRecord {
	return StoryRecord{
		ID:          id,
		Title:       title,
		Score:       score,
		Descendants: descendants,
		URL:         fmt.Sprintf("https://example.com/%d", id),
		CreatedAt:   rankNow.Add(-time.Duration(ageHours * float64(time.Hour))),
	}
}

func TestVelocityMatchesFormula(t *testing.T) {
	r := newTestRanker()
	s := story(1, "plain title", 80, 50, 4)

	// velocity = (score + 0.2*descendants) / (age + 1.5)^1.8
	want := (80 + 0.2*50) / math.Pow(4+1.5, 1.8)
	assert.InDelta(t, want, r.Velocity(s, rankNow), 1e-9)
}

func TestSemanticModifier(t *testing.T) {
	r := newTestRanker()

	// 个人叙事词打 4 折
	assert.InDelta(t, 0.4, r.SemanticModifier("Why I quit my job"), 1e-9)
	// 发布 / 事故类关键词 1.5 倍
	assert.InDelta(t, 1.5, r.SemanticModifier("Company announces new release"), 1e-9)
	// 两类修正相互独立、可叠乘
	assert.InDelta(t, 0.4*1.5, r.SemanticModifier("Why I love the new GPT release"), 1e-9)
	// 无命中
	assert.InDelta(t, 1.0, r.SemanticModifier("Understanding B-trees"), 1e-9)
}

// 高影响力但衰减后低于阈值：不标 breaking
func TestHighImpactBelowThresholdNotBreaking(t *testing.T) {
	r := newTestRanker()
	s := story(1, "Company announces new release", 80, 50, 1)

	// impact = 80 + 10 = 90；事件加成 1.5 -> 135；velocity = 135 / 2.5^1.8 ≈ 25.9
	v := r.Velocity(s, rankNow)
	assert.InDelta(t, 135/math.Pow(2.5, 1.8), v, 1e-9)
	assert.Less(t, v, 30.0)

	out := r.Rank([]StoryRecord{s}, nil)
	require.Len(t, out, 1)
	assert.False(t, out[0].IsBreaking)
}

// 新鲜高速条目超过阈值：标 breaking 并置顶
func TestFreshHighVelocityPromotedBreaking(t *testing.T) {
	r := newTestRanker()
	breaking := story(1, "CVE-2024-31337 disclosed in popular library", 120, 10, 0.5)
	older := story(2, "Some best story", 300, 100, 20)

	// impact = 122；加成 1.5 -> 183；velocity = 183 / 2^1.8 ≈ 52.6
	v := r.Velocity(breaking, rankNow)
	assert.InDelta(t, 183/math.Pow(2.0, 1.8), v, 1e-9)
	assert.Greater(t, v, 30.0)

	out := r.Rank([]StoryRecord{breaking}, []StoryRecord{older})
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ID)
	assert.True(t, out[0].IsBreaking)
	assert.False(t, out[1].IsBreaking)
}

func TestCandidateHardFilter(t *testing.T) {
	r := newTestRanker()
	top := []StoryRecord{
		story(1, "too old", 500, 10, 13),  // 超过 12 小时
		story(2, "too weak", 49, 10, 1),   // 分数不足 50
		story(3, "eligible", 50, 0, 12),   // 边界值：恰好 12 小时 / 恰好 50 分仍然合格
	}

	out := r.Rank(top, nil)
	// 三条都会进入最终榜单（兜底阶段不过滤），但只有合格候选有 velocity
	require.Len(t, out, 3)
	for _, s := range out {
		if s.ID == 3 {
			assert.Greater(t, s.Velocity, 0.0)
		} else {
			assert.Zero(t, s.Velocity)
		}
	}
}

func TestCapDedupAndSingleBreaking(t *testing.T) {
	r := newTestRanker()

	// 12 条 top 候选全部合格，其中第一名速度超阈值；best 榜与 top 榜有交集
	top := make([]StoryRecord, 0, 12)
	top = append(top, story(1, "Big outage at cloud provider", 800, 50, 0.5))
	for i := 2; i <= 12; i++ {
		top = append(top, story(i, fmt.Sprintf("story %d", i), 100+i, 10, 2))
	}
	best := []StoryRecord{
		story(1, "Big outage at cloud provider", 800, 50, 0.5), // 与 breaking 重复
		story(2, "story 2", 102, 10, 2),
		story(100, "best only", 90, 5, 30),
	}

	out := r.Rank(top, best)
	require.Len(t, out, 10)

	seen := make(map[int]bool)
	breakingCount := 0
	for _, s := range out {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
		if s.IsBreaking {
			breakingCount++
		}
	}
	assert.Equal(t, 1, breakingCount)
	assert.True(t, out[0].IsBreaking)
}

// 组榜顺序：breaking -> best 原顺序 -> 剩余候选按速度 -> top 按分数兜底
func TestAssemblyOrder(t *testing.T) {
	r := newTestRanker()

	fast := story(1, "Huge outage hits provider", 400, 0, 0.5) // velocity 远超阈值
	slowA := story(2, "alpha", 60, 0, 10)
	slowB := story(3, "beta", 90, 0, 10)
	tooOld := story(4, "gamma", 70, 0, 20) // 不进候选，只能走兜底

	best := []StoryRecord{story(5, "best first", 10, 0, 40), story(6, "best second", 20, 0, 40)}

	out := r.Rank([]StoryRecord{fast, slowA, slowB, tooOld}, best)
	require.Len(t, out, 6)

	ids := make([]int, 0, len(out))
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	// breaking=1，best 榜 5、6，随后候选按速度 beta(90) > alpha(60)，最后兜底 gamma
	assert.Equal(t, []int{1, 5, 6, 3, 2, 4}, ids)
}

func TestEmptyInputEmptyList(t *testing.T) {
	r := newTestRanker()
	out := r.Rank(nil, nil)
	assert.Empty(t, out)
}
