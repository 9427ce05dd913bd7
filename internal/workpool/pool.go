// Package workpool 固定大小的共享工作池。抓取任务在池内执行，
// 调用方只在结果 channel 上带超时等待；超时即放弃等待，任务本身
// 不被取消，跑完后仍可把结果写回缓存供下一次请求使用。
package workpool

import "time"

type Pool struct {
	sem chan struct{}
}

func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Submit 提交一个任务，返回容量为 1 的结果 channel。
// 池满时任务在 goroutine 里排队等待空位；结果 channel 有缓冲，
// 因此调用方放弃等待后任务也能正常结束，不会泄漏 goroutine。
func Submit[T any](p *Pool, fn func() T) <-chan T {
	out := make(chan T, 1)
	go func() {
		p.sem <- struct{}{}
		defer func() { <-p.sem }()
		out <- fn()
	}()
	return out
}

// Await 在结果 channel 上等待至多 timeout；超时返回零值和 false
func Await[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}
