package workpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndAwait(t *testing.T) {
	p := New(4)

	ch := Submit(p, func() int { return 42 })
	v, ok := Await(ch, time.Second)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestAwaitTimeout(t *testing.T) {
	p := New(1)
	release := make(chan struct{})

	ch := Submit(p, func() string {
		<-release
		return "late"
	})

	v, ok := Await(ch, 20*time.Millisecond)
	assert.False(t, ok)
	assert.Equal(t, "", v)

	// 放弃等待后任务仍会跑完，结果进入缓冲 channel，不阻塞
	close(release)
	v, ok = Await(ch, time.Second)
	require.True(t, ok)
	assert.Equal(t, "late", v)
}

func TestBoundedConcurrency(t *testing.T) {
	const size = 3
	p := New(size)

	var (
		running int32
		peak    int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		ch := Submit(p, func() struct{} {
			cur := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}
		})
		go func() {
			defer wg.Done()
			Await(ch, time.Second)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(size))
}
