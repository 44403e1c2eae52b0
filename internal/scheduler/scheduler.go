package scheduler

import (
	"context"
	"time"

	"Lee_QnA/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job 定时任务的执行体
type Job func(ctx context.Context) (int, error)

type Scheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	log       *logrus.Entry
	reindex   Job
	timeout   time.Duration
	isRunning bool
}

func New(cfg config.SchedulerConfig, reindex Job, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:     cfg,
		log:     log.WithField("component", "scheduler"),
		reindex: reindex,
		timeout: 30 * time.Minute,
	}
}

// Start 未开启时直接返回
func (s *Scheduler) Start() error {
	if !s.cfg.ReindexEnabled {
		s.log.Info("search reindex disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.ReindexCron, s.runReindex); err != nil {
		return err
	}
	s.cron.Start()
	s.isRunning = true
	s.log.WithField("cron", s.cfg.ReindexCron).Info("scheduler started")
	return nil
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runReindex() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.reindex(ctx)
	entry := s.log.WithFields(logrus.Fields{"indexed": n, "elapsed": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("search reindex failed")
		return
	}
	entry.Info("search reindex completed")
}

// RunNow 手动触发一次
func (s *Scheduler) RunNow() {
	s.runReindex()
}
