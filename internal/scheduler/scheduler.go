package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/orchestrator"
)

// Scheduler 周期性在后台构建一次快照，让各域缓存保持温热：
// 设备长时间不刷新后首次打开页面时，命中的仍是较新的缓存数据
type Scheduler struct {
	cron *cron.Cron
	orch *orchestrator.Orchestrator
	log  zerolog.Logger
}

func New(spec string, orch *orchestrator.Orchestrator, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron: c,
		orch: orch,
		log:  log.With().Str("component", "scheduler").Logger(),
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮预热，避免与用户首次打开页面的请求争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发预热
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	s.log.Info().Msg("start cache warm job...")
	started := time.Now()

	snap := s.orch.BuildSnapshot()

	s.log.Info().
		Dur("elapsed", time.Since(started)).
		Int("news", len(snap.News)).
		Int("finance", len(snap.Finance)).
		Msg("cache warm job done")
}
