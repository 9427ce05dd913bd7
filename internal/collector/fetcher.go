// Package collector 聚合四个外部数据源（天气+空气质量、日历/节假日、行情、新闻）。
// 每个 fetcher 遵循同一套模板：确定性的缓存键 -> 缓存命中直接返回 ->
// 远程调用 -> 转换为领域结构 -> 写缓存。任何网络 / 解析错误在 fetcher 边界
// 统一收敛为 Failed，由 orchestrator 决定降级值。
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Status 一次抓取的最终状态
type Status int

const (
	// StatusOk 正常取得数据（含缓存命中）
	StatusOk Status = iota
	// StatusFallback 由 orchestrator 替换为降级值，fetcher 本身不产生该状态
	StatusFallback
	// StatusFailed 网络 / 解析 / 空数据失败，值不可用
	StatusFailed
)

// Result 抓取结果的带标签返回值：失败是普通返回值而非异常，
// orchestrator 必须显式处理每一种状态。
type Result[T any] struct {
	Status Status
	Value  T
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Status: StatusOk, Value: v}
}

func Failed[T any]() Result[T] {
	return Result[T]{Status: StatusFailed}
}

// Fallback 标记一个由调用方代入的降级值
func Fallback[T any](v T) Result[T] {
	return Result[T]{Status: StatusFallback, Value: v}
}

// OK 是否携带可用值（Ok 或 Fallback 都可直接展示）
func (r Result[T]) OK() bool {
	return r.Status != StatusFailed
}

// getJSON 发起 GET 请求并把响应体解析到 out。统一限制响应体大小，
// 非 2xx 一律视为错误。
func getJSON(client *http.Client, url string, maxBytes int64, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
