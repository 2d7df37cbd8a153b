// Package scheduler 基于 gocron/v2 的定时任务调度，承载目录预热等后台任务.
// 每个任务的运行状态由 gocron 事件回调维护，通过 /api/v1/scheduler/jobs 只读暴露.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/folio/pkg/log"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// Task 定时任务，返回的 error 会记录到任务状态.
type Task func(ctx context.Context) error

// JobInfo 任务快照.
type JobInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CronExpr     string        `json:"cron_expr"`
	Status       JobStatus     `json:"status"`
	NextRun      time.Time     `json:"next_run"`
	LastRun      time.Time     `json:"last_run"`
	LastSuccess  time.Time     `json:"last_success,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	Error        string        `json:"error,omitempty"`
}

type entry struct {
	job     gocron.Job
	info    JobInfo
	started time.Time
}

// Scheduler 按名称管理任务.同名任务同一时刻只运行一个实例，上一轮未结束时本轮顺延.
type Scheduler struct {
	cron   gocron.Scheduler
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewScheduler 创建调度器，Start 之前任务不会运行.
func NewScheduler() (*Scheduler, error) {
	logger := log.Component("scheduler")

	cron, err := gocron.NewScheduler(gocron.WithLogger(cronLogger{logger}))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}, nil
}

// AddCron 以五段 cron 表达式注册任务，名称必须唯一.
func (s *Scheduler) AddCron(name, expr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}

	job, err := s.cron.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func(ctx context.Context) error {
			s.started(name)
			err := runTask(ctx, task)
			s.finished(name, err)

			return err
		}, s.ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %q: %w", name, err)
	}

	s.entries[name] = &entry{
		job:  job,
		info: JobInfo{ID: job.ID().String(), Name: name, CronExpr: expr, Status: StatusScheduled},
	}

	s.logger.Info().Str("job", name).Str("cron", expr).Msg("job registered")

	return nil
}

func (s *Scheduler) started(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		e.started = time.Now()
		e.info.Status = StatusRunning
		e.info.LastRun = e.started
	}
}

// runTask 把 panic 转成 error.
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return task(ctx)
}

// finished 记录一次运行结束.
func (s *Scheduler) finished(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return
	}

	now := time.Now()
	e.info.Runs++
	e.info.LastDuration = now.Sub(e.started)
	e.info.Error = ""

	if err != nil {
		e.info.Failures++
		e.info.Status = StatusError
		e.info.Error = err.Error()
		s.logger.Error().Err(err).Str("job", name).Msg("job failed")

		return
	}

	e.info.Status = StatusScheduled
	e.info.LastSuccess = now
}

// RunNow 立即运行一次，不影响原有调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}

	return e.job.RunNow()
}

// GetJobInfos 返回按名称排序的任务快照.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))

	for _, e := range s.entries {
		info := e.info
		if next, err := e.job.NextRun(); err == nil {
			info.NextRun = next
		}

		out = append(out, info)
	}

	slices.SortFunc(out, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })

	return out
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.cron.JobsWaitingInQueue()
}

// Start 开始按计划运行任务.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.GetJobInfos())).Msg("scheduler started")
	s.cron.Start()
}

// Shutdown 取消运行中任务的 ctx 并等待它们退出.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.cron.Shutdown()
}

// Stop 同 Shutdown.
func (s *Scheduler) Stop() error { return s.Shutdown() }

// cronLogger 把 gocron 的键值日志转到 zerolog.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Debug(msg string, args ...any) { c.l.Debug().Fields(args).Msg(msg) }
func (c cronLogger) Info(msg string, args ...any)  { c.l.Debug().Fields(args).Msg(msg) }
func (c cronLogger) Warn(msg string, args ...any)  { c.l.Warn().Fields(args).Msg(msg) }
func (c cronLogger) Error(msg string, args ...any) { c.l.Error().Fields(args).Msg(msg) }
