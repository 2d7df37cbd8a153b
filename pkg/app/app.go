// Package app 提供应用程序的初始化和配置功能，把配置、存储、目录服务、调度与 HTTP 引擎装配在一起.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/handle"
	"github.com/yeisme/folio/pkg/internal/jobs"
	"github.com/yeisme/folio/pkg/internal/router"
	"github.com/yeisme/folio/pkg/internal/service"
	"github.com/yeisme/folio/pkg/internal/storage"
	"github.com/yeisme/folio/pkg/internal/watcher"
	"github.com/yeisme/folio/pkg/log"
	"github.com/yeisme/folio/pkg/metrics"
	"github.com/yeisme/folio/pkg/middleware"
	"github.com/yeisme/folio/pkg/scheduler"
	"github.com/yeisme/folio/pkg/tracing"
)

// App 一个运行中的 folio 服务实例.
type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	scheduler *scheduler.Scheduler
	portfolio *service.PortfolioService
	logger    zerolog.Logger
}

// NewApp 读取配置并装配整个服务，configPath 可以是目录或具体文件.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	log.Init()

	config := configs.GetConfig()

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a, err := New(config, manager)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}

	return a, nil
}

// New 用已初始化的配置与存储构建 App，不读取全局状态，便于测试.
func New(config *configs.AppConfig, manager *storage.Manager) (*App, error) {
	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	svc := service.NewPortfolioService(config.Portfolio, manager.GetKVClient())
	thumbs := service.NewThumbnailService(config.Portfolio.Thumbnail, manager.GetKVClient())

	var sched *scheduler.Scheduler

	if config.Scheduler.Enabled {
		s, err := scheduler.NewScheduler()
		if err != nil {
			return nil, fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(s, svc, manager.GetMQClient(), config.Scheduler.WarmCron); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("register cron jobs: %w", err)
		}

		sched = s
	}

	if mq := manager.GetMQClient(); mq != nil {
		watcher.Subscribe(mq, svc)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
	)

	if config.Server.Gzip {
		engine.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	engine.Use(
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.InjectMiddleware(manager, sched),
	)

	if err := metrics.StartMetricsServer(config.Metrics, engine); err != nil {
		return nil, fmt.Errorf("mount metrics: %w", err)
	}

	router.Register(engine, handle.NewPortfolioHandlers(svc, thumbs), config.Portfolio, config.Server)

	return &App{
		Engine:    engine,
		config:    config,
		manager:   manager,
		scheduler: sched,
		portfolio: svc,
		logger:    log.Component("app"),
	}, nil
}

// Portfolio 返回目录服务.
func (a *App) Portfolio() *service.PortfolioService {
	return a.portfolio
}

// Run 启动 HTTP 服务、MQ router、目录监听与调度器，阻塞直到 ctx 结束，随后优雅退出.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	addr := a.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.RequestTimeout,
		WriteTimeout:      a.config.Server.RequestTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	if mq := a.manager.GetMQClient(); mq != nil {
		g.Go(func() error {
			return mq.Run(gctx)
		})
	}

	if a.config.Portfolio.Watch {
		if mq := a.manager.GetMQClient(); mq != nil {
			w, err := watcher.New(a.config.Portfolio.Root, mq, watcher.WithDebounce(a.config.Portfolio.WatchDebounce))
			if err != nil {
				// 根目录不存在时服务照常运行，目录接口会返回 collection missing
				a.logger.Warn().Err(err).Str("root", a.config.Portfolio.Root).Msg("portfolio watcher disabled")
			} else {
				g.Go(func() error {
					return w.Run(gctx)
				})
			}
		}
	}

	if a.scheduler != nil {
		a.scheduler.Start()

		// 启动时立即预热一次
		if err := a.scheduler.RunNow(jobs.JobCatalogWarm); err != nil {
			a.logger.Warn().Err(err).Msg("initial catalog warm failed")
		}
	}

	g.Go(func() error {
		a.logger.Info().Str("addr", addr).Str("root", a.config.Portfolio.Root).Msg("folio server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, done := context.WithTimeout(context.Background(), a.config.Server.ShutdownWait())
		defer done()

		a.logger.Info().Msg("shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	return errors.Join(err, a.Close())
}

// Close 释放调度器、存储与追踪资源.
func (a *App) Close() error {
	var errs []error

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}

	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownWait())
	defer cancel()

	if err := tracing.ShutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	return errors.Join(errs...)
}
