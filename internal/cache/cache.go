// Package cache 提供一个按 TTL 过期的泛型内存缓存。
// 每个数据域（天气 / 行情 / 新闻 / 渲染结果）持有独立实例，键的基数很小且有界，
// 因此不设容量上限，也不做 TTL 之外的淘汰策略。
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache 线程安全的 TTL 缓存。读写都只在持锁状态下做 map 操作，
// 绝不在持锁状态下发起网络请求。
type Cache[V any] struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry[V]

	// now 可注入的时钟，测试时用固定时间替换
	now func() time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get 返回键对应的值；条目不存在或已过期（now - storedAt >= ttl）时视为缺失，
// 过期条目在此处顺手删除。
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set 总是以当前时间写入，覆盖任何旧条目（无论旧条目是否仍然有效），
// 因此重复 Set 会重置该键的 TTL 窗口。
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: v, storedAt: c.now()}
}

// Len 返回当前物理存在的条目数（可能包含尚未被懒删除的过期条目），仅用于观测
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
